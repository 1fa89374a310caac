package observability

import (
	"context"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/weave-backend/internal/platform/logger"
)

// Metrics owns a private prometheus registry. Every method is safe on a nil
// receiver so callers never branch on whether metrics are enabled.
type Metrics struct {
	reg *prometheus.Registry

	apiRequests *prometheus.CounterVec
	apiLatency  *prometheus.HistogramVec
	apiInflight prometheus.Gauge

	events           *prometheus.CounterVec
	ingestLatency    *prometheus.HistogramVec
	entitiesByType   *prometheus.CounterVec
	streamsClosed    *prometheus.CounterVec
	aggregateOps     *prometheus.CounterVec
	aggregateLatency *prometheus.HistogramVec
	aggregateCAS     *prometheus.CounterVec
	aggregateRetries *prometheus.CounterVec
	linkOps          *prometheus.CounterVec

	dbStats   *prometheus.GaugeVec
	redisUp   prometheus.Gauge
	redisPing prometheus.Gauge

	connOnce sync.Once
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	v := strings.TrimSpace(os.Getenv("METRICS_ENABLED"))
	if v == "" {
		return true
	}
	return strings.EqualFold(v, "true") || v == "1" || strings.EqualFold(v, "yes")
}

func Current() *Metrics {
	return instance
}

// Init builds the process-wide instance once. It returns nil when metrics
// are switched off.
func Init(log *logger.Logger) *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		instance = NewMetrics()
		if log != nil {
			log.Info("metrics initialized")
		}
	})
	return instance
}

func NewMetrics() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "weave_api_requests_total",
			Help: "Total API requests by method/route/status.",
		}, []string{"method", "route", "status"}),
		apiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "weave_api_request_duration_seconds",
			Help:    "API request latency in seconds by method/route/status.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"method", "route", "status"}),
		apiInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "weave_api_inflight_requests",
			Help: "In-flight API requests.",
		}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "weave_stream_events_total",
			Help: "Stream events by name and delivery result.",
		}, []string{"event", "result"}),
		ingestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "weave_ingest_duration_seconds",
			Help:    "Message ingestion latency in seconds by status.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}, []string{"status"}),
		entitiesByType: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "weave_entities_extracted_total",
			Help: "Entities extracted from messages by type.",
		}, []string{"type"}),
		streamsClosed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "weave_streams_closed_total",
			Help: "Closed streams by reason.",
		}, []string{"reason"}),
		aggregateOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "weave_aggregate_operations_total",
			Help: "Aggregate writes by operation/status.",
		}, []string{"operation", "status"}),
		aggregateLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "weave_aggregate_operation_duration_seconds",
			Help:    "Aggregate write latency in seconds by operation/status.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2},
		}, []string{"operation", "status"}),
		aggregateCAS: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "weave_aggregate_conflicts_total",
			Help: "Aggregate writes that lost an optimistic version check.",
		}, []string{"operation"}),
		aggregateRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "weave_aggregate_retryable_total",
			Help: "Aggregate writes that failed with a retryable error.",
		}, []string{"operation"}),
		linkOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "weave_entity_link_operations_total",
			Help: "Relationship graph writes by action/result.",
		}, []string{"action", "result"}),
		dbStats: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "weave_db_pool",
			Help: "Database pool statistics by metric.",
		}, []string{"metric"}),
		redisUp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "weave_redis_up",
			Help: "1 when the last redis ping succeeded.",
		}),
		redisPing: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "weave_redis_ping_seconds",
			Help: "Latency of the last redis ping.",
		}),
	}
	m.reg.MustRegister(
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.events, m.ingestLatency, m.entitiesByType, m.streamsClosed,
		m.aggregateOps, m.aggregateLatency, m.aggregateCAS, m.aggregateRetries,
		m.linkOps, m.dbStats, m.redisUp, m.redisPing,
	)
	return m
}

// Registry exposes the underlying registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.reg
}

// RegisterConnectionGauge publishes the live stream count. Only the first
// call registers.
func (m *Metrics) RegisterConnectionGauge(count func() int) {
	if m == nil || count == nil {
		return
	}
	m.connOnce.Do(func() {
		m.reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "weave_stream_connections",
			Help: "Live stream connections on this instance.",
		}, func() float64 { return float64(count()) }))
	})
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	if status == "" {
		status = "0"
	}
	m.apiRequests.WithLabelValues(method, route, status).Inc()
	m.apiLatency.WithLabelValues(method, route, status).Observe(dur.Seconds())
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

// ObserveEvent counts one event push; result is "delivered", "dropped" or
// "published".
func (m *Metrics) ObserveEvent(event, result string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(event, result).Inc()
}

func (m *Metrics) ObserveIngest(status string, dur time.Duration, entityTypes []string) {
	if m == nil {
		return
	}
	m.ingestLatency.WithLabelValues(status).Observe(dur.Seconds())
	for _, t := range entityTypes {
		m.entitiesByType.WithLabelValues(t).Inc()
	}
}

func (m *Metrics) IncStreamClosed(reason string) {
	if m == nil {
		return
	}
	if reason == "" {
		reason = "unknown"
	}
	m.streamsClosed.WithLabelValues(reason).Inc()
}

func (m *Metrics) IncLinkOperation(action, result string) {
	if m == nil {
		return
	}
	m.linkOps.WithLabelValues(action, result).Inc()
}

func (m *Metrics) ObserveAggregateOperation(name, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.aggregateOps.WithLabelValues(name, status).Inc()
	m.aggregateLatency.WithLabelValues(name, status).Observe(dur.Seconds())
}

func (m *Metrics) IncAggregateConflict(name string) {
	if m == nil {
		return
	}
	m.aggregateCAS.WithLabelValues(name).Inc()
}

func (m *Metrics) IncAggregateRetry(name string) {
	if m == nil {
		return
	}
	m.aggregateRetries.WithLabelValues(name).Inc()
}

func scrapeInterval() time.Duration {
	v := strings.TrimSpace(os.Getenv("METRICS_SCRAPE_INTERVAL_SECONDS"))
	if v == "" {
		return 15 * time.Second
	}
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	return 15 * time.Second
}

func (m *Metrics) StartDBCollector(ctx context.Context, log *logger.Logger, db *gorm.DB) {
	if m == nil || db == nil {
		return
	}
	interval := scrapeInterval()
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sqlDB, err := db.DB()
				if err != nil {
					if log != nil {
						log.Warn("metrics: db stats unavailable", "error", err)
					}
					continue
				}
				stats := sqlDB.Stats()
				m.dbStats.WithLabelValues("open_connections").Set(float64(stats.OpenConnections))
				m.dbStats.WithLabelValues("in_use").Set(float64(stats.InUse))
				m.dbStats.WithLabelValues("idle").Set(float64(stats.Idle))
				m.dbStats.WithLabelValues("wait_count").Set(float64(stats.WaitCount))
				m.dbStats.WithLabelValues("wait_duration_seconds").Set(stats.WaitDuration.Seconds())
				m.dbStats.WithLabelValues("max_open_connections").Set(float64(stats.MaxOpenConnections))
			}
		}
	}()
}

func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, addr string) {
	if m == nil {
		return
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return
	}
	interval := scrapeInterval()
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				_ = rdb.Close()
				return
			case <-ticker.C:
				start := time.Now()
				if err := rdb.Ping(ctx).Err(); err != nil {
					m.redisUp.Set(0)
					if log != nil {
						log.Warn("metrics: redis ping failed", "error", err)
					}
					continue
				}
				m.redisUp.Set(1)
				m.redisPing.Set(time.Since(start).Seconds())
			}
		}
	}()
}
