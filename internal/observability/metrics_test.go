package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.ObserveAPI("GET", "/x", "200", time.Millisecond)
	m.ObserveEvent("thread_updated", "dropped")
	m.ObserveIngest("success", time.Millisecond, []string{"PLAN"})
	m.IncAggregateConflict("op")
	m.RegisterConnectionGauge(func() int { return 1 })

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("nil handler status: %d", rec.Code)
	}
}

func TestHandlerExposesCounters(t *testing.T) {
	m := NewMetrics()
	m.RegisterConnectionGauge(func() int { return 3 })
	m.RegisterConnectionGauge(func() int { return 99 })
	m.ObserveEvent("message_created", "delivered")
	m.ObserveIngest("success", 10*time.Millisecond, []string{"PLAN", "PROMISE"})
	m.ObserveAggregateOperation("Chat.Message.Ingest", "success", time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	for _, want := range []string{
		`weave_stream_events_total{event="message_created",result="delivered"} 1`,
		`weave_entities_extracted_total{type="PROMISE"} 1`,
		`weave_stream_connections 3`,
		`weave_aggregate_operations_total{operation="Chat.Message.Ingest",status="success"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("missing %q in:\n%s", want, body)
		}
	}
}

func TestParseHeaders(t *testing.T) {
	h := ParseHeaders(" a=1, bad ,b = 2,=x")
	if len(h) != 2 || h["a"] != "1" || h["b"] != "2" {
		t.Fatalf("headers: %v", h)
	}
	if ParseHeaders("") != nil {
		t.Fatalf("empty should be nil")
	}
}
