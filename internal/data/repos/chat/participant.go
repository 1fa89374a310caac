package chat

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/weave-backend/internal/domain"
	"github.com/yungbote/weave-backend/internal/platform/dbctx"
	"github.com/yungbote/weave-backend/internal/platform/logger"
)

type ParticipantRepo interface {
	Add(dbc dbctx.Context, threadID uuid.UUID, userIDs []uuid.UUID) error
	ListUserIDs(dbc dbctx.Context, threadID uuid.UUID) ([]uuid.UUID, error)
	ListUserIDsByThreads(dbc dbctx.Context, threadIDs []uuid.UUID) (map[uuid.UUID][]uuid.UUID, error)
	IsParticipant(dbc dbctx.Context, threadID, userID uuid.UUID) (bool, error)
}

type participantRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewParticipantRepo(db *gorm.DB, log *logger.Logger) ParticipantRepo {
	return &participantRepo{db: db, log: log.With("repo", "ParticipantRepo")}
}

// Add is idempotent per (thread, user).
func (r *participantRepo) Add(dbc dbctx.Context, threadID uuid.UUID, userIDs []uuid.UUID) error {
	if threadID == uuid.Nil {
		return fmt.Errorf("missing thread_id")
	}
	if len(userIDs) == 0 {
		return nil
	}
	now := time.Now().UTC()
	seen := make(map[uuid.UUID]bool, len(userIDs))
	rows := make([]*types.ThreadParticipant, 0, len(userIDs))
	for _, uid := range userIDs {
		if uid == uuid.Nil || seen[uid] {
			continue
		}
		seen[uid] = true
		rows = append(rows, &types.ThreadParticipant{ID: uuid.New(), ThreadID: threadID, UserID: uid, JoinedAt: now})
	}
	if len(rows) == 0 {
		return nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "thread_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).
		Create(&rows).Error
}

func (r *participantRepo) ListUserIDs(dbc dbctx.Context, threadID uuid.UUID) ([]uuid.UUID, error) {
	if threadID == uuid.Nil {
		return nil, fmt.Errorf("missing thread_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []uuid.UUID
	if err := txx.WithContext(dbc.Ctx).
		Model(&types.ThreadParticipant{}).
		Where("thread_id = ?", threadID).
		Order("joined_at, user_id").
		Pluck("user_id", &out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *participantRepo) ListUserIDsByThreads(dbc dbctx.Context, threadIDs []uuid.UUID) (map[uuid.UUID][]uuid.UUID, error) {
	out := make(map[uuid.UUID][]uuid.UUID, len(threadIDs))
	if len(threadIDs) == 0 {
		return out, nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var rows []types.ThreadParticipant
	if err := txx.WithContext(dbc.Ctx).
		Where("thread_id IN ?", threadIDs).
		Order("joined_at, user_id").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ThreadID] = append(out[row.ThreadID], row.UserID)
	}
	return out, nil
}

func (r *participantRepo) IsParticipant(dbc dbctx.Context, threadID, userID uuid.UUID) (bool, error) {
	if threadID == uuid.Nil || userID == uuid.Nil {
		return false, nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var n int64
	if err := txx.WithContext(dbc.Ctx).
		Model(&types.ThreadParticipant{}).
		Where("thread_id = ? AND user_id = ?", threadID, userID).
		Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}
