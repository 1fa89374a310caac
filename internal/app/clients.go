package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/weave-backend/internal/data/db"
	"github.com/yungbote/weave-backend/internal/platform/logger"
	"github.com/yungbote/weave-backend/internal/platform/neo4jdb"
	"github.com/yungbote/weave-backend/internal/realtime/bus"
)

type Clients struct {
	DB    *db.Service
	Bus   bus.Bus         // nil when REDIS_ADDR is unset
	Graph *neo4jdb.Client // nil when NEO4J_URI is unset
}

func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	database, err := db.Open(log, cfg.DB)
	if err != nil {
		return Clients{}, fmt.Errorf("init database: %w", err)
	}
	if err := database.AutoMigrateAll(); err != nil {
		_ = database.Close()
		return Clients{}, fmt.Errorf("automigrate: %w", err)
	}

	// Redis
	var b bus.Bus
	if strings.TrimSpace(cfg.Redis.Addr) != "" {
		b, err = bus.NewRedisBus(log, cfg.Redis)
		if err != nil {
			_ = database.Close()
			return Clients{}, fmt.Errorf("init redis stream bus: %w", err)
		}
	}

	// Neo4j
	graph, err := neo4jdb.New(log, cfg.Neo4j)
	if err != nil {
		if b != nil {
			_ = b.Close()
		}
		_ = database.Close()
		return Clients{}, fmt.Errorf("init neo4j: %w", err)
	}

	return Clients{DB: database, Bus: b, Graph: graph}, nil
}

func (c *Clients) Close(ctx context.Context) {
	if c == nil {
		return
	}
	if c.Bus != nil {
		_ = c.Bus.Close()
	}
	if c.Graph != nil {
		_ = c.Graph.Close(ctx)
	}
	if c.DB != nil {
		_ = c.DB.Close()
	}
}
