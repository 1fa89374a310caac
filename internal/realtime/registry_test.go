package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/weave-backend/internal/platform/logger"
)

func testRegistry(t *testing.T, cfg Config) *Registry {
	t.Helper()
	return NewRegistry(logger.Nop(), cfg)
}

func recv(t *testing.T, c *Conn) Message {
	t.Helper()
	select {
	case m := <-c.Outbound():
		return m
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for event")
	}
	return Message{}
}

func TestOpenQueuesConnectedEvent(t *testing.T) {
	r := testRegistry(t, Config{})
	u := uuid.New()
	c := r.Open(u)
	m := recv(t, c)
	if m.Event != EventConnected {
		t.Fatalf("first event: want=%s got=%s", EventConnected, m.Event)
	}
	data, _ := m.Data.(map[string]any)
	if data["status"] != "connected" || data["userId"] != u.String() {
		t.Fatalf("connected payload: %v", m.Data)
	}
	if r.Count() != 1 {
		t.Fatalf("count: want=1 got=%d", r.Count())
	}
}

func TestOpenTwiceReplacesWithCompletion(t *testing.T) {
	r := testRegistry(t, Config{})
	u := uuid.New()
	first := r.Open(u)
	second := r.Open(u)

	select {
	case <-first.Done():
	case <-time.After(time.Second):
		t.Fatalf("first connection not completed")
	}
	if first.Reason() != ReasonReplaced {
		t.Fatalf("first reason: want=%s got=%s", ReasonReplaced, first.Reason())
	}
	if second.Reason() != "" {
		t.Fatalf("second should be live, got reason %s", second.Reason())
	}
	if r.Count() != 1 {
		t.Fatalf("count: want=1 got=%d", r.Count())
	}

	// Releasing the stale handle must not evict the live one.
	r.Release(first, ReasonCompleted)
	if r.Count() != 1 {
		t.Fatalf("stale release evicted live connection")
	}
	if first.Reason() != ReasonReplaced {
		t.Fatalf("reason should stick to the first completion, got %s", first.Reason())
	}
}

func TestConcurrentOpensLeaveOneLiveConnection(t *testing.T) {
	r := testRegistry(t, Config{Shards: 4})
	u := uuid.New()
	const n = 64
	conns := make([]*Conn, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			conns[i] = r.Open(u)
		}(i)
	}
	wg.Wait()

	if r.Count() != 1 {
		t.Fatalf("count: want=1 got=%d", r.Count())
	}
	live := 0
	for _, c := range conns {
		if c.Reason() == "" {
			live++
		} else if c.Reason() != ReasonReplaced {
			t.Fatalf("unexpected reason %s", c.Reason())
		}
	}
	if live != 1 {
		t.Fatalf("live handles: want=1 got=%d", live)
	}
}

func TestSendToAbsentUserIsDropped(t *testing.T) {
	r := testRegistry(t, Config{})
	if r.Send(uuid.New(), EventThreadUpdated, map[string]any{}) {
		t.Fatalf("send to absent user should report dropped")
	}
}

func TestSendOverflowRetiresConnection(t *testing.T) {
	r := testRegistry(t, Config{Buffer: 2})
	u := uuid.New()
	c := r.Open(u) // connected occupies one slot
	if !r.Send(u, EventMessageCreated, 1) {
		t.Fatalf("second slot should accept")
	}
	if r.Send(u, EventMessageCreated, 2) {
		t.Fatalf("full buffer should drop")
	}
	if c.Reason() != ReasonOverflow || r.Count() != 0 {
		t.Fatalf("overflow should retire: reason=%s count=%d", c.Reason(), r.Count())
	}
	if r.Send(u, EventMessageCreated, 3) {
		t.Fatalf("retired connection must not be resurrected")
	}
}

func TestDeliverBroadcastReachesEveryone(t *testing.T) {
	r := testRegistry(t, Config{})
	a, b := uuid.New(), uuid.New()
	ca, cb := r.Open(a), r.Open(b)
	recv(t, ca)
	recv(t, cb)

	if n := r.Deliver(Message{Event: EventNotification, Data: "hi"}); n != 2 {
		t.Fatalf("broadcast delivered to %d", n)
	}
	if n := r.Deliver(Message{UserID: a, Event: EventNotification}); n != 1 {
		t.Fatalf("targeted delivered to %d", n)
	}
	if recv(t, ca).Event != EventNotification || recv(t, cb).Event != EventNotification {
		t.Fatalf("broadcast event missing")
	}
	if len(r.Snapshot()) != 2 {
		t.Fatalf("snapshot: %v", r.Snapshot())
	}
}

func TestCloseCompletesConnection(t *testing.T) {
	r := testRegistry(t, Config{})
	u := uuid.New()
	c := r.Open(u)
	r.Close(u)
	if c.Reason() != ReasonClosed || r.Count() != 0 {
		t.Fatalf("close: reason=%s count=%d", c.Reason(), r.Count())
	}
}

func TestServeWritesEventsAndReleasesOnIdle(t *testing.T) {
	r := testRegistry(t, Config{IdleTimeout: 100 * time.Millisecond, Heartbeat: time.Hour})
	u := uuid.New()
	c := r.Open(u)
	r.Send(u, EventMessageCreated, map[string]any{"threadId": "t1"})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/stream", nil)
	r.Serve(rec, req, c)

	body := rec.Body.String()
	if !strings.Contains(body, "event: connected\n") || !strings.Contains(body, "event: message_created\ndata: {\"threadId\":\"t1\"}\n\n") {
		t.Fatalf("unexpected stream body: %q", body)
	}
	if rec.Header().Get("Content-Type") != "text/event-stream" {
		t.Fatalf("content type: %q", rec.Header().Get("Content-Type"))
	}
	if c.Reason() != ReasonTimeout || r.Count() != 0 {
		t.Fatalf("idle exit: reason=%s count=%d", c.Reason(), r.Count())
	}
}

func TestServeReleasesOnClientDisconnect(t *testing.T) {
	r := testRegistry(t, Config{Heartbeat: time.Hour})
	u := uuid.New()
	c := r.Open(u)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodGet, "/stream", nil).WithContext(ctx)

	done := make(chan struct{})
	go func() {
		r.Serve(httptest.NewRecorder(), req, c)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("serve did not return after disconnect")
	}
	if r.Count() != 0 {
		t.Fatalf("disconnect should release, count=%d", r.Count())
	}
}

func TestOnCloseCountsEachCompletionOnce(t *testing.T) {
	var mu sync.Mutex
	seen := map[CloseReason]int{}
	r := testRegistry(t, Config{OnClose: func(reason CloseReason) {
		mu.Lock()
		seen[reason]++
		mu.Unlock()
	}})
	u := uuid.New()
	first := r.Open(u)
	second := r.Open(u)
	r.Release(first, ReasonError)
	r.Close(u)
	r.Release(second, ReasonDisconnected)

	mu.Lock()
	defer mu.Unlock()
	if seen[ReasonReplaced] != 1 || seen[ReasonClosed] != 1 || len(seen) != 2 {
		t.Fatalf("close reasons: %v", seen)
	}
}
