package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/weave-backend/internal/domain"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, name string) *types.User {
	tb.Helper()
	u := &types.User{
		ID:          uuid.New(),
		DisplayName: name,
		Email:       name + "-" + uuid.NewString()[:8] + "@example.com",
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

// SeedThread creates a group and a thread with the given participants.
func SeedThread(tb testing.TB, ctx context.Context, tx *gorm.DB, title string, participants ...uuid.UUID) *types.Thread {
	tb.Helper()
	creator := uuid.New()
	if len(participants) > 0 {
		creator = participants[0]
	}
	g := &types.Group{ID: uuid.New(), Name: title, CreatedBy: creator}
	if err := tx.WithContext(ctx).Create(g).Error; err != nil {
		tb.Fatalf("seed group: %v", err)
	}
	th := &types.Thread{
		ID:           uuid.New(),
		GroupID:      g.ID,
		Title:        title,
		Status:       types.ThreadOpen,
		LastActivity: time.Now().UTC().Add(-time.Hour),
	}
	if err := tx.WithContext(ctx).Create(th).Error; err != nil {
		tb.Fatalf("seed thread: %v", err)
	}
	for _, uid := range participants {
		p := &types.ThreadParticipant{ID: uuid.New(), ThreadID: th.ID, UserID: uid, JoinedAt: time.Now().UTC()}
		if err := tx.WithContext(ctx).Create(p).Error; err != nil {
			tb.Fatalf("seed participant: %v", err)
		}
	}
	return th
}

func SeedEntity(tb testing.TB, ctx context.Context, tx *gorm.DB, threadID, ownerID uuid.UUID, typ types.EntityType, status types.EntityStatus) *types.Entity {
	tb.Helper()
	e := &types.Entity{
		ID:              uuid.New(),
		Type:            typ,
		Title:           string(typ) + " entity",
		Description:     "seeded",
		Status:          status,
		OwnerID:         ownerID,
		ThreadID:        threadID,
		ImportanceScore: 0.5,
	}
	if err := tx.WithContext(ctx).Create(e).Error; err != nil {
		tb.Fatalf("seed entity: %v", err)
	}
	return e
}
