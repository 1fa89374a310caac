package http_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/weave-backend/internal/data/aggregates"
	"github.com/yungbote/weave-backend/internal/data/repos"
	"github.com/yungbote/weave-backend/internal/data/repos/testutil"
	weavehttp "github.com/yungbote/weave-backend/internal/http"
	httpH "github.com/yungbote/weave-backend/internal/http/handlers"
	httpMW "github.com/yungbote/weave-backend/internal/http/middleware"
	"github.com/yungbote/weave-backend/internal/observability"
	"github.com/yungbote/weave-backend/internal/realtime"
	"github.com/yungbote/weave-backend/internal/services"
)

const secret = "router-test-secret"

type fixture struct {
	engine   *gin.Engine
	registry *realtime.Registry
	seed     func(name string) uuid.UUID
	thread   func(title string, members ...uuid.UUID) uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.DB(t)
	log := testutil.Logger(t)
	metrics := observability.NewMetrics()
	registry := realtime.NewRegistry(log, realtime.Config{Buffer: 32, Heartbeat: time.Hour})

	threads := repos.NewThreadRepo(db, log)
	participants := repos.NewParticipantRepo(db, log)
	messages := repos.NewMessageRepo(db, log)
	entities := repos.NewEntityRepo(db, log)
	rels := repos.NewRelationshipRepo(db, log)
	base := aggregates.BaseDeps{DB: db, Log: log}

	dispatch := services.NewDispatcher(log, &services.RegistryEmitter{Registry: registry}, participants, metrics, false)
	msgSvc := services.NewMessageService(log, aggregates.NewMessageAggregate(aggregates.MessageAggregateDeps{
		Base: base, Threads: threads, Participants: participants, Messages: messages, Entities: entities,
	}), messages, participants, dispatch, metrics)
	threadSvc := services.NewThreadService(log, aggregates.NewThreadAggregate(aggregates.ThreadAggregateDeps{
		Base: base, Groups: repos.NewGroupRepo(db, log), Threads: threads, Participants: participants,
	}), threads, participants, msgSvc, dispatch)
	entitySvc := services.NewEntityService(log, aggregates.NewEntityAggregate(aggregates.EntityAggregateDeps{
		Base: base, Threads: threads, Participants: participants, Entities: entities,
	}), entities, participants, dispatch)
	linkSvc := services.NewRelationshipService(log, aggregates.NewLinkAggregate(aggregates.LinkAggregateDeps{
		Base: base, Entities: entities, Relationships: rels,
	}), entities, rels, nil, metrics)

	engine := weavehttp.NewRouter(weavehttp.RouterConfig{
		Log:                 log,
		Metrics:             metrics,
		AuthMiddleware:      httpMW.NewAuthMiddleware(log, services.NewAuthService(log, secret)),
		HealthHandler:       httpH.NewHealthHandler(),
		StreamHandler:       httpH.NewStreamHandler(log, registry),
		MessageHandler:      httpH.NewMessageHandler(msgSvc),
		ThreadHandler:       httpH.NewThreadHandler(threadSvc, entitySvc),
		EntityHandler:       httpH.NewEntityHandler(entitySvc),
		RelationshipHandler: httpH.NewRelationshipHandler(linkSvc),
		NotificationHandler: httpH.NewNotificationHandler(services.NewNotificationService(log, repos.NewNotificationRepo(db, log), dispatch)),
	})

	ctx := context.Background()
	return &fixture{
		engine:   engine,
		registry: registry,
		seed: func(name string) uuid.UUID {
			return testutil.SeedUser(t, ctx, db, name).ID
		},
		thread: func(title string, members ...uuid.UUID) uuid.UUID {
			return testutil.SeedThread(t, ctx, db, title, members...).ID
		},
	}
}

func token(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	tok, err := services.SignToken(secret, userID, time.Hour)
	if err != nil {
		t.Fatalf("SignToken: %v", err)
	}
	return tok
}

func (f *fixture) do(t *testing.T, method, path string, user uuid.UUID, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != uuid.Nil {
		req.Header.Set("Authorization", "Bearer "+token(t, user))
	}
	rec := httptest.NewRecorder()
	f.engine.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func TestPublicRoutes(t *testing.T) {
	f := newFixture(t)
	if rec := f.do(t, http.MethodGet, "/healthcheck", uuid.Nil, nil); rec.Code != http.StatusOK {
		t.Fatalf("healthcheck: %d", rec.Code)
	}
	if rec := f.do(t, http.MethodGet, "/metrics", uuid.Nil, nil); rec.Code != http.StatusOK {
		t.Fatalf("metrics: %d", rec.Code)
	}
	rec := f.do(t, http.MethodGet, "/api/v1/threads", uuid.Nil, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated threads: %d", rec.Code)
	}
	var env struct {
		Error struct{ Code string } `json:"error"`
	}
	decode(t, rec, &env)
	if env.Error.Code != "unauthenticated" {
		t.Fatalf("error code: %q", env.Error.Code)
	}
}

func TestSendMessageRoute(t *testing.T) {
	f := newFixture(t)
	alice, bob, eve := f.seed("alice"), f.seed("bob"), f.seed("eve")
	th := f.thread("party", alice, bob)

	rec := f.do(t, http.MethodPost, "/api/v1/messages", alice, map[string]any{
		"threadId": th,
		"content":  "I'll bring the cake tomorrow at 5pm, let's decide on the venue",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("send: %d %s", rec.Code, rec.Body.String())
	}
	var res struct {
		Message  struct{ ID uuid.UUID } `json:"message"`
		Entities []struct {
			Type   string `json:"type"`
			Status string `json:"status"`
		} `json:"entities"`
		Thread struct {
			UnresolvedCount int `json:"unresolvedCount"`
		} `json:"thread"`
	}
	decode(t, rec, &res)
	if len(res.Entities) != 3 || res.Thread.UnresolvedCount != 3 {
		t.Fatalf("send result: %s", rec.Body.String())
	}
	for _, e := range res.Entities {
		if e.Status != "PROPOSED" {
			t.Fatalf("new entity status: %s", e.Status)
		}
	}

	if rec := f.do(t, http.MethodPost, "/api/v1/messages", eve, map[string]any{"threadId": th, "content": "hi"}); rec.Code != http.StatusForbidden {
		t.Fatalf("outsider send: %d", rec.Code)
	}
	if rec := f.do(t, http.MethodPost, "/api/v1/messages", alice, map[string]any{"threadId": uuid.New(), "content": "hi"}); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown thread: %d", rec.Code)
	}
	if rec := f.do(t, http.MethodPost, "/api/v1/messages", alice, map[string]any{"content": "hi"}); rec.Code != http.StatusBadRequest {
		t.Fatalf("missing thread id: %d", rec.Code)
	}

	rec = f.do(t, http.MethodGet, "/api/v1/threads/"+th.String()+"/messages", bob, nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), res.Message.ID.String()) {
		t.Fatalf("list messages: %d %s", rec.Code, rec.Body.String())
	}
	rec = f.do(t, http.MethodGet, "/api/v1/threads/"+th.String()+"/entities", bob, nil)
	var ents struct {
		Entities []json.RawMessage `json:"entities"`
	}
	decode(t, rec, &ents)
	if len(ents.Entities) != 3 {
		t.Fatalf("thread entities: %d", len(ents.Entities))
	}
}

func TestLinkRoutes(t *testing.T) {
	f := newFixture(t)
	alice := f.seed("alice")
	th := f.thread("plans", alice)

	rec := f.do(t, http.MethodPost, "/api/v1/messages", alice, map[string]any{
		"threadId": th,
		"content":  "I'll bring the cake tomorrow at 5pm, let's decide on the venue",
	})
	var res struct {
		Entities []struct{ ID uuid.UUID } `json:"entities"`
	}
	decode(t, rec, &res)
	if len(res.Entities) < 2 {
		t.Fatalf("expected extracted entities, got %s", rec.Body.String())
	}
	a, b := res.Entities[0].ID, res.Entities[1].ID
	linkPath := "/api/v1/entities/" + a.String() + "/links"

	body := map[string]any{"targetEntityId": b, "linkType": "blocks"}
	if rec := f.do(t, http.MethodPost, linkPath, alice, body); rec.Code != http.StatusCreated {
		t.Fatalf("create link: %d %s", rec.Code, rec.Body.String())
	}
	if rec := f.do(t, http.MethodPost, linkPath, alice, body); rec.Code != http.StatusConflict {
		t.Fatalf("duplicate link: %d", rec.Code)
	}
	if rec := f.do(t, http.MethodPost, linkPath, alice, map[string]any{"targetEntityId": b, "linkType": "RELATES_TO"}); rec.Code != http.StatusCreated {
		t.Fatalf("second link type: %d", rec.Code)
	}
	if rec := f.do(t, http.MethodPost, linkPath, alice, map[string]any{"targetEntityId": b, "linkType": "LIKES"}); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad link type: %d", rec.Code)
	}

	rec = f.do(t, http.MethodGet, "/api/v1/entities/"+b.String()+"/relationships/incoming", alice, nil)
	var rels struct {
		Relationships []struct {
			LinkType string `json:"linkType"`
		} `json:"relationships"`
	}
	decode(t, rec, &rels)
	if len(rels.Relationships) != 2 {
		t.Fatalf("incoming: %s", rec.Body.String())
	}
	if rec := f.do(t, http.MethodGet, "/api/v1/entities/"+b.String()+"/relationships?direction=up", alice, nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad direction: %d", rec.Code)
	}

	rec = f.do(t, http.MethodDelete, linkPath+"/"+b.String()+"?linkType=BLOCKS", alice, nil)
	var del struct{ Deleted int64 }
	decode(t, rec, &del)
	if rec.Code != http.StatusOK || del.Deleted != 1 {
		t.Fatalf("delete link: %d %s", rec.Code, rec.Body.String())
	}
}

func TestEntityStatusRoutes(t *testing.T) {
	f := newFixture(t)
	alice := f.seed("alice")
	th := f.thread("chores", alice)
	rec := f.do(t, http.MethodPost, "/api/v1/messages", alice, map[string]any{"threadId": th, "content": "I'll take out the trash"})
	var res struct {
		Entities []struct{ ID uuid.UUID } `json:"entities"`
	}
	decode(t, rec, &res)
	if len(res.Entities) != 1 {
		t.Fatalf("promise not extracted: %s", rec.Body.String())
	}
	id := res.Entities[0].ID.String()

	if rec := f.do(t, http.MethodPost, "/api/v1/entities/"+id+"/status", alice, map[string]any{"status": "done", "expectedVersion": 99}); rec.Code != http.StatusConflict {
		t.Fatalf("stale version: %d", rec.Code)
	}
	if rec := f.do(t, http.MethodPost, "/api/v1/entities/"+id+"/status", alice, map[string]any{"status": "done"}); rec.Code != http.StatusOK {
		t.Fatalf("status done: %d %s", rec.Code, rec.Body.String())
	}
	rec = f.do(t, http.MethodPost, "/api/v1/entities/"+id+"/mark-decision", alice, nil)
	var out struct {
		Entity struct {
			Type   string `json:"type"`
			Status string `json:"status"`
		} `json:"entity"`
	}
	decode(t, rec, &out)
	if out.Entity.Type != "DECISION" || out.Entity.Status != "CONFIRMED" {
		t.Fatalf("mark-decision: %s", rec.Body.String())
	}
	if rec := f.do(t, http.MethodGet, "/api/v1/entities/not-a-uuid", alice, nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad id: %d", rec.Code)
	}
}

func TestStreamDeliversLiveEvents(t *testing.T) {
	f := newFixture(t)
	alice, bob := f.seed("alice"), f.seed("bob")
	th := f.thread("live", alice, bob)

	srv := httptest.NewServer(f.engine)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/stream?token="+token(t, bob), nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("open stream: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type: %q", ct)
	}

	events := make(chan string, 16)
	go func() {
		sc := bufio.NewScanner(resp.Body)
		for sc.Scan() {
			if line := sc.Text(); strings.HasPrefix(line, "event: ") {
				events <- strings.TrimPrefix(line, "event: ")
			}
		}
		close(events)
	}()

	next := func() string {
		select {
		case e, ok := <-events:
			if !ok {
				t.Fatalf("stream closed early")
			}
			return e
		case <-ctx.Done():
			t.Fatalf("timed out waiting for stream event")
		}
		return ""
	}

	if e := next(); e != "connected" {
		t.Fatalf("first event: %s", e)
	}
	if rec := f.do(t, http.MethodGet, "/api/v1/stream/status", alice, nil); !strings.Contains(rec.Body.String(), `"activeConnections":1`) {
		t.Fatalf("status: %s", rec.Body.String())
	}

	if rec := f.do(t, http.MethodPost, "/api/v1/messages", alice, map[string]any{"threadId": th, "content": "we decided on tacos"}); rec.Code != http.StatusCreated {
		t.Fatalf("send: %d", rec.Code)
	}
	want := []string{"message_created", "entity_extracted", "thread_updated"}
	for _, w := range want {
		if got := next(); got != w {
			t.Fatalf("event order: want %s got %s", w, got)
		}
	}
}

func TestLibraryRoute(t *testing.T) {
	f := newFixture(t)
	alice := f.seed("alice")
	th := f.thread("weekend", alice)
	if rec := f.do(t, http.MethodPost, "/api/v1/messages", alice, map[string]any{
		"threadId": th,
		"content":  "I'll bring the cake tomorrow at 5pm, let's decide on the venue",
	}); rec.Code != http.StatusCreated {
		t.Fatalf("send: %d %s", rec.Code, rec.Body.String())
	}

	type library struct {
		Entities []struct{ Type string } `json:"entities"`
		Total    int                     `json:"total"`
		Counts   map[string]struct {
			Total      int `json:"total"`
			Unresolved int `json:"unresolved"`
		} `json:"counts"`
	}

	rec := f.do(t, http.MethodGet, "/api/v1/library?timeframe=week", alice, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("library: %d %s", rec.Code, rec.Body.String())
	}
	var all library
	decode(t, rec, &all)
	if all.Total != 3 || all.Counts["decision"].Unresolved != 1 {
		t.Fatalf("library: %s", rec.Body.String())
	}

	rec = f.do(t, http.MethodGet, "/api/v1/library?type=promise", alice, nil)
	var promises library
	decode(t, rec, &promises)
	if promises.Total != 1 || promises.Entities[0].Type != "PROMISE" {
		t.Fatalf("promise filter: %s", rec.Body.String())
	}

	rec = f.do(t, http.MethodGet, "/api/v1/library?status=someday", alice, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("unknown status should still be 200: %d", rec.Code)
	}
	var none library
	decode(t, rec, &none)
	if none.Total != 0 || len(none.Entities) != 0 {
		t.Fatalf("unknown status: %s", rec.Body.String())
	}

	if rec := f.do(t, http.MethodGet, "/api/v1/library?ownerId=nope", alice, nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad ownerId: %d", rec.Code)
	}
}
