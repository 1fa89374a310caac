package user

import (
	"context"
	"testing"
	"time"

	"github.com/yungbote/weave-backend/internal/data/repos/testutil"
	types "github.com/yungbote/weave-backend/internal/domain"
	"github.com/yungbote/weave-backend/internal/platform/dbctx"
)

func TestNotificationRepoReadFlow(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}
	alice := testutil.SeedUser(t, ctx, db, "alice")

	repo := NewNotificationRepo(db, testutil.Logger(t))
	older, err := repo.Create(dbc, &types.Notification{Type: types.NotificationNudge, Title: "old", UserID: alice.ID, CreatedAt: time.Now().UTC().Add(-time.Hour)})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	newer, err := repo.Create(dbc, &types.Notification{Type: types.NotificationMemory, Title: "new", UserID: alice.ID})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	list, err := repo.ListByUser(dbc, alice.ID, false, 0)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(list) != 2 || list[0].ID != newer.ID {
		t.Fatalf("expected newest first: %+v", list)
	}

	if err := repo.MarkRead(dbc, older.ID, time.Now()); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	unread, err := repo.ListByUser(dbc, alice.ID, true, 0)
	if err != nil || len(unread) != 1 || unread[0].ID != newer.ID {
		t.Fatalf("unread after MarkRead: %+v %v", unread, err)
	}

	n, err := repo.MarkAllRead(dbc, alice.ID, time.Now())
	if err != nil || n != 1 {
		t.Fatalf("MarkAllRead: %d %v", n, err)
	}
	got, err := repo.GetByID(dbc, newer.ID)
	if err != nil || got == nil || !got.Read || got.ReadAt == nil {
		t.Fatalf("GetByID after MarkAllRead: %+v %v", got, err)
	}
}
