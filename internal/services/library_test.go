package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/weave-backend/internal/data/repos/testutil"
	types "github.com/yungbote/weave-backend/internal/domain"
)

func seedAged(t *testing.T, h *harness, threadID, owner uuid.UUID, typ types.EntityType, st types.EntityStatus, age time.Duration) *types.Entity {
	t.Helper()
	e := testutil.SeedEntity(t, context.Background(), h.db, threadID, owner, typ, st)
	at := time.Now().UTC().Add(-age)
	if err := h.db.Model(&types.Entity{}).Where("id = ?", e.ID).Update("created_at", at).Error; err != nil {
		t.Fatalf("age entity: %v", err)
	}
	return e
}

func TestQueryLibraryFilters(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	alice := testutil.SeedUser(t, ctx, h.db, "alice")
	bob := testutil.SeedUser(t, ctx, h.db, "bob")
	th := testutil.SeedThread(t, ctx, h.db, "lib", alice.ID, bob.ID)

	seedAged(t, h, th.ID, alice.ID, types.EntityPlan, types.StatusProposed, time.Hour)
	seedAged(t, h, th.ID, alice.ID, types.EntityPlan, types.StatusDone, 2*time.Hour)
	seedAged(t, h, th.ID, alice.ID, types.EntityDecision, types.StatusConfirmed, 3*time.Hour)
	seedAged(t, h, th.ID, alice.ID, types.EntityPromise, types.StatusPending, 10*24*time.Hour)
	seedAged(t, h, th.ID, bob.ID, types.EntityPlan, types.StatusProposed, time.Hour)

	all, err := h.entities.QueryLibrary(as(alice.ID), LibraryQuery{})
	if err != nil {
		t.Fatalf("QueryLibrary: %v", err)
	}
	if all.Total != 4 || len(all.Entities) != 4 {
		t.Fatalf("all: want=4 got=%d", all.Total)
	}
	if c := all.Counts["plan"]; c.Total != 2 || c.Unresolved != 1 {
		t.Fatalf("plan counts: %+v", c)
	}
	if c := all.Counts["memory"]; c.Total != 0 {
		t.Fatalf("memory counts: %+v", c)
	}
	if len(all.Counts) != 5 {
		t.Fatalf("counts should list every type: %v", all.Counts)
	}
	if !all.Entities[0].CreatedAt.After(all.Entities[1].CreatedAt) {
		t.Fatalf("library should be newest first")
	}

	plans, err := h.entities.QueryLibrary(as(alice.ID), LibraryQuery{Types: "plan", Statuses: "proposed"})
	if err != nil || plans.Total != 1 {
		t.Fatalf("plan+proposed: %v %+v", err, plans)
	}
	mixed, err := h.entities.QueryLibrary(as(alice.ID), LibraryQuery{Types: "plan,decision"})
	if err != nil || mixed.Total != 3 {
		t.Fatalf("plan,decision: %v %+v", err, mixed)
	}
	week, err := h.entities.QueryLibrary(as(alice.ID), LibraryQuery{Timeframe: "week"})
	if err != nil || week.Total != 3 {
		t.Fatalf("week: %v %+v", err, week)
	}
	if week.Counts["promise"].Total != 0 {
		t.Fatalf("old promise counted in week: %+v", week.Counts)
	}
	day, err := h.entities.QueryLibrary(as(alice.ID), LibraryQuery{Types: "all", Timeframe: "day"})
	if err != nil || day.Total != 3 {
		t.Fatalf("day: %v %+v", err, day)
	}
	fortnight, err := h.entities.QueryLibrary(as(alice.ID), LibraryQuery{Timeframe: "fortnight"})
	if err != nil || fortnight.Total != 4 {
		t.Fatalf("unknown timeframe should mean all: %v %+v", err, fortnight)
	}
}

func TestQueryLibraryFailsSoft(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	alice := testutil.SeedUser(t, ctx, h.db, "alice")
	bob := testutil.SeedUser(t, ctx, h.db, "bob")
	th := testutil.SeedThread(t, ctx, h.db, "lib", alice.ID)
	testutil.SeedEntity(t, ctx, h.db, th.ID, alice.ID, types.EntityPlan, types.StatusProposed)

	cases := []struct {
		name string
		q    LibraryQuery
	}{
		{"unknown type", LibraryQuery{Types: "gossip"}},
		{"one bad type in list", LibraryQuery{Types: "plan,gossip"}},
		{"unknown status", LibraryQuery{Statuses: "maybe"}},
		{"foreign owner", LibraryQuery{OwnerID: &bob.ID}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := h.entities.QueryLibrary(as(alice.ID), tc.q)
			if err != nil {
				t.Fatalf("want empty result, got error %v", err)
			}
			if res.Total != 0 || res.Entities == nil || len(res.Entities) != 0 {
				t.Fatalf("want empty entities, got %+v", res)
			}
			if c, ok := res.Counts["plan"]; !ok || c.Total != 0 {
				t.Fatalf("counts: %+v", res.Counts)
			}
		})
	}

	own, err := h.entities.QueryLibrary(as(alice.ID), LibraryQuery{OwnerID: &alice.ID})
	if err != nil || own.Total != 1 {
		t.Fatalf("own ownerId: %v %+v", err, own)
	}
	if _, err := h.entities.QueryLibrary(context.Background(), LibraryQuery{}); !types.IsCode(err, types.CodeUnauthenticated) {
		t.Fatalf("no actor: want unauthenticated, got %v", err)
	}
}
