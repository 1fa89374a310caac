package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/weave-backend/internal/data/db"
	httpMW "github.com/yungbote/weave-backend/internal/http/middleware"
	"github.com/yungbote/weave-backend/internal/observability"
	"github.com/yungbote/weave-backend/internal/platform/envutil"
	"github.com/yungbote/weave-backend/internal/platform/logger"
	"github.com/yungbote/weave-backend/internal/platform/neo4jdb"
	"github.com/yungbote/weave-backend/internal/realtime"
	"github.com/yungbote/weave-backend/internal/realtime/bus"
)

type Config struct {
	HTTPAddr     string
	ServiceName  string
	JWTSecretKey string
	CORSOrigins  []string

	DB        db.Config
	Stream    realtime.Config
	Redis     bus.RedisConfig
	Neo4j     neo4jdb.Config
	RateLimit httpMW.RateLimitConfig
	Otel      observability.OtelConfig
}

// FileConfig is the optional YAML base named by CONFIG_FILE. Environment
// variables override anything set here.
type FileConfig struct {
	Server struct {
		Addr        string   `yaml:"addr"`
		ServiceName string   `yaml:"service_name"`
		CORSOrigins []string `yaml:"cors_origins"`
	} `yaml:"server"`
	Auth struct {
		JWTSecretKey string `yaml:"jwt_secret_key"`
	} `yaml:"auth"`
	Database struct {
		Driver     string `yaml:"driver"`
		Host       string `yaml:"host"`
		Port       string `yaml:"port"`
		User       string `yaml:"user"`
		Password   string `yaml:"password"`
		Name       string `yaml:"name"`
		SSLMode    string `yaml:"sslmode"`
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Stream struct {
		IdleTimeout string `yaml:"idle_timeout"`
		Heartbeat   string `yaml:"heartbeat"`
		Buffer      int    `yaml:"buffer"`
		Shards      int    `yaml:"shards"`
	} `yaml:"stream"`
	Redis struct {
		Addr           string `yaml:"addr"`
		Password       string `yaml:"password"`
		DB             int    `yaml:"db"`
		Channel        string `yaml:"channel"`
		PublishTimeout string `yaml:"publish_timeout"`
	} `yaml:"redis"`
	Neo4j struct {
		URI      string `yaml:"uri"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Database string `yaml:"database"`
	} `yaml:"neo4j"`
	RateLimit struct {
		RPS   float64 `yaml:"rps"`
		Burst int     `yaml:"burst"`
	} `yaml:"rate_limit"`
	Otel struct {
		Enabled     bool    `yaml:"enabled"`
		Endpoint    string  `yaml:"endpoint"`
		SampleRatio float64 `yaml:"sample_ratio"`
	} `yaml:"otel"`
}

func loadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	path = strings.TrimSpace(path)
	if path == "" {
		return fc, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return fc, fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return fc, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return fc, nil
}

func or[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}

func parseDur(raw string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(strings.TrimSpace(raw)); err == nil && d > 0 {
		return d
	}
	return def
}

func LoadConfig(log *logger.Logger) (Config, error) {
	fc, err := loadFileConfig(os.Getenv("CONFIG_FILE"))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		HTTPAddr:     envutil.String("HTTP_ADDR", or(fc.Server.Addr, ":8080")),
		ServiceName:  envutil.String("OTEL_SERVICE_NAME", or(fc.Server.ServiceName, "weave-backend")),
		JWTSecretKey: envutil.String("JWT_SECRET_KEY", fc.Auth.JWTSecretKey),
		CORSOrigins:  envutil.List("CORS_ORIGINS", fc.Server.CORSOrigins),
		DB: db.Config{
			Driver:     envutil.String("DB_DRIVER", or(fc.Database.Driver, "postgres")),
			Host:       envutil.String("POSTGRES_HOST", or(fc.Database.Host, "localhost")),
			Port:       envutil.String("POSTGRES_PORT", or(fc.Database.Port, "5432")),
			User:       envutil.String("POSTGRES_USER", or(fc.Database.User, "postgres")),
			Password:   envutil.String("POSTGRES_PASSWORD", fc.Database.Password),
			Name:       envutil.String("POSTGRES_NAME", or(fc.Database.Name, "weave")),
			SSLMode:    envutil.String("POSTGRES_SSLMODE", or(fc.Database.SSLMode, "disable")),
			SQLitePath: envutil.String("SQLITE_PATH", or(fc.Database.SQLitePath, "weave.db")),
		},
		Stream: realtime.Config{
			IdleTimeout: envutil.Duration("SSE_IDLE_TIMEOUT", parseDur(fc.Stream.IdleTimeout, 30*time.Minute)),
			Heartbeat:   envutil.Duration("SSE_HEARTBEAT", parseDur(fc.Stream.Heartbeat, 15*time.Second)),
			Buffer:      envutil.Int("SSE_BUFFER", or(fc.Stream.Buffer, 64)),
			Shards:      envutil.Int("SSE_SHARDS", or(fc.Stream.Shards, 32)),
		},
		Redis: bus.RedisConfig{
			Addr:           envutil.String("REDIS_ADDR", fc.Redis.Addr),
			Password:       envutil.String("REDIS_PASSWORD", fc.Redis.Password),
			DB:             envutil.Int("REDIS_DB", fc.Redis.DB),
			Channel:        envutil.String("REDIS_CHANNEL", or(fc.Redis.Channel, "weave:stream")),
			PublishTimeout: envutil.Duration("REDIS_PUBLISH_TIMEOUT", parseDur(fc.Redis.PublishTimeout, 250*time.Millisecond)),
		},
		Neo4j: neo4jdb.Config{
			URI:      envutil.String("NEO4J_URI", fc.Neo4j.URI),
			User:     envutil.String("NEO4J_USER", or(fc.Neo4j.User, "neo4j")),
			Password: envutil.String("NEO4J_PASSWORD", fc.Neo4j.Password),
			Database: envutil.String("NEO4J_DATABASE", fc.Neo4j.Database),
			Timeout:  envutil.Duration("NEO4J_TIMEOUT", 10*time.Second),
		},
		RateLimit: httpMW.RateLimitConfig{
			RPS:   envutil.Float("RATE_LIMIT_RPS", or(fc.RateLimit.RPS, 5)),
			Burst: envutil.Int("RATE_LIMIT_BURST", or(fc.RateLimit.Burst, 10)),
		},
	}
	cfg.Otel = observability.OtelConfig{
		Enabled:     envutil.Bool("OTEL_ENABLED", fc.Otel.Enabled),
		ServiceName: cfg.ServiceName,
		Environment: envutil.String("ENVIRONMENT", "development"),
		Version:     envutil.String("SERVICE_VERSION", "dev"),
		SampleRatio: envutil.Float("OTEL_SAMPLE_RATIO", or(fc.Otel.SampleRatio, 1)),
		Endpoint:    envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", fc.Otel.Endpoint),
		Headers:     observability.ParseHeaders(os.Getenv("OTEL_EXPORTER_OTLP_HEADERS")),
		Insecure:    envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", false),
	}

	if cfg.JWTSecretKey == "" {
		log.Warn("JWT_SECRET_KEY not set; every authenticated route will answer 503")
	}
	return cfg, nil
}
