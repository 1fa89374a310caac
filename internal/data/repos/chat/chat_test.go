package chat

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/weave-backend/internal/data/repos/testutil"
	types "github.com/yungbote/weave-backend/internal/domain"
	"github.com/yungbote/weave-backend/internal/platform/dbctx"
)

func TestThreadRepoListByParticipantSorts(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}
	alice := testutil.SeedUser(t, ctx, db, "alice")
	bob := testutil.SeedUser(t, ctx, db, "bob")

	quiet := testutil.SeedThread(t, ctx, db, "quiet", alice.ID)
	busy := testutil.SeedThread(t, ctx, db, "busy", alice.ID, bob.ID)
	_ = testutil.SeedThread(t, ctx, db, "bob only", bob.ID)

	repo := NewThreadRepo(db, testutil.Logger(t))
	if err := repo.UpdateFields(dbc, busy.ID, map[string]interface{}{
		"last_activity":    time.Now().UTC(),
		"unresolved_count": 0,
	}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	if err := repo.UpdateFields(dbc, quiet.ID, map[string]interface{}{"unresolved_count": 4}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}

	recent, err := repo.ListByParticipant(dbc, alice.ID, SortRecent, 0)
	if err != nil {
		t.Fatalf("ListByParticipant: %v", err)
	}
	if len(recent) != 2 || recent[0].ID != busy.ID {
		t.Fatalf("recent: unexpected order %+v", recent)
	}

	unresolved, err := repo.ListByParticipant(dbc, alice.ID, SortUnresolved, 0)
	if err != nil {
		t.Fatalf("ListByParticipant: %v", err)
	}
	if len(unresolved) != 2 || unresolved[0].ID != quiet.ID {
		t.Fatalf("unresolved: unexpected order %+v", unresolved)
	}

	missing, err := repo.GetByID(dbc, uuid.New())
	if err != nil || missing != nil {
		t.Fatalf("GetByID(unknown): want nil,nil got %+v,%v", missing, err)
	}
}

func TestParticipantRepoAddIsIdempotent(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}
	alice := testutil.SeedUser(t, ctx, db, "alice")
	bob := testutil.SeedUser(t, ctx, db, "bob")
	th := testutil.SeedThread(t, ctx, db, "t", alice.ID)

	repo := NewParticipantRepo(db, testutil.Logger(t))
	if err := repo.Add(dbc, th.ID, []uuid.UUID{alice.ID, bob.ID, bob.ID}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	ids, err := repo.ListUserIDs(dbc, th.ID)
	if err != nil {
		t.Fatalf("ListUserIDs: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("participants: want=2 got=%d", len(ids))
	}
	ok, err := repo.IsParticipant(dbc, th.ID, bob.ID)
	if err != nil || !ok {
		t.Fatalf("IsParticipant(bob): %v %v", ok, err)
	}
	ok, err = repo.IsParticipant(dbc, th.ID, uuid.New())
	if err != nil || ok {
		t.Fatalf("IsParticipant(stranger): %v %v", ok, err)
	}
}

func TestMessageRepoLinksEntities(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}
	alice := testutil.SeedUser(t, ctx, db, "alice")
	th := testutil.SeedThread(t, ctx, db, "t", alice.ID)
	ent := testutil.SeedEntity(t, ctx, db, th.ID, alice.ID, types.EntityPlan, types.StatusProposed)

	repo := NewMessageRepo(db, testutil.Logger(t))
	first := &types.Message{ThreadID: th.ID, SenderID: alice.ID, Type: types.MessageText, Content: "one", Timestamp: time.Now().UTC().Add(-time.Minute)}
	second := &types.Message{ThreadID: th.ID, SenderID: alice.ID, Type: types.MessageText, Content: "two"}
	if _, err := repo.Create(dbc, []*types.Message{first, second}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.LinkEntities(dbc, second.ID, []uuid.UUID{ent.ID}); err != nil {
		t.Fatalf("LinkEntities: %v", err)
	}
	// linking twice is a no-op
	if err := repo.LinkEntities(dbc, second.ID, []uuid.UUID{ent.ID}); err != nil {
		t.Fatalf("LinkEntities again: %v", err)
	}

	msgs, err := repo.ListByThread(dbc, th.ID, 10)
	if err != nil {
		t.Fatalf("ListByThread: %v", err)
	}
	if len(msgs) != 2 || msgs[0].Content != "one" || msgs[1].Content != "two" {
		t.Fatalf("unexpected messages: %+v", msgs)
	}
	if len(msgs[0].EntityIDs) != 0 {
		t.Fatalf("first message should have no entities")
	}
	if len(msgs[1].EntityIDs) != 1 || msgs[1].EntityIDs[0] != ent.ID {
		t.Fatalf("second message entities: %+v", msgs[1].EntityIDs)
	}
}
