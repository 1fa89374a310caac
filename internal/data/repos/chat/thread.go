package chat

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/weave-backend/internal/domain"
	"github.com/yungbote/weave-backend/internal/platform/dbctx"
	"github.com/yungbote/weave-backend/internal/platform/logger"
)

// Thread list orderings.
const (
	SortRecent     = "recent"
	SortAttention  = "attention"
	SortUnresolved = "unresolved"
)

type ThreadRepo interface {
	Create(dbc dbctx.Context, rows []*types.Thread) ([]*types.Thread, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Thread, error)
	LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Thread, error)
	ListByParticipant(dbc dbctx.Context, userID uuid.UUID, sort string, limit int) ([]*types.Thread, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
}

type threadRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewThreadRepo(db *gorm.DB, log *logger.Logger) ThreadRepo {
	return &threadRepo{db: db, log: log.With("repo", "ThreadRepo")}
}

func (r *threadRepo) Create(dbc dbctx.Context, rows []*types.Thread) ([]*types.Thread, error) {
	if len(rows) == 0 {
		return []*types.Thread{}, nil
	}
	now := time.Now().UTC()
	for _, row := range rows {
		if row.ID == uuid.Nil {
			row.ID = uuid.New()
		}
		if row.Status == "" {
			row.Status = types.ThreadOpen
		}
		if row.LastActivity.IsZero() {
			row.LastActivity = now
		}
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	if err := txx.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// GetByID returns (nil, nil) when the thread does not exist.
func (r *threadRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Thread, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out types.Thread
	if err := txx.WithContext(dbc.Ctx).Where("id = ?", id).Take(&out).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &out, nil
}

func (r *threadRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Thread, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing id")
	}
	if dbc.Tx == nil {
		return nil, fmt.Errorf("LockByID requires dbc.Tx")
	}
	var out types.Thread
	if err := forUpdate(dbc).Where("id = ?", id).Take(&out).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &out, nil
}

func (r *threadRepo) ListByParticipant(dbc dbctx.Context, userID uuid.UUID, sort string, limit int) ([]*types.Thread, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("missing user_id")
	}
	if limit <= 0 || limit > 200 {
		limit = 100
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.Thread
	if err := txx.WithContext(dbc.Ctx).
		Model(&types.Thread{}).
		Joins("JOIN thread_participant tp ON tp.thread_id = thread.id").
		Where("tp.user_id = ?", userID).
		Order(threadOrder(sort)).
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func threadOrder(sort string) string {
	switch strings.ToLower(strings.TrimSpace(sort)) {
	case SortAttention:
		return "thread.importance_score DESC, thread.last_activity DESC, thread.id"
	case SortUnresolved:
		return "thread.unresolved_count DESC, thread.last_activity DESC, thread.id"
	default:
		return "thread.last_activity DESC, thread.id"
	}
}

func (r *threadRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if id == uuid.Nil {
		return fmt.Errorf("missing id")
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["updated_at"] = time.Now().UTC()
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx).
		Model(&types.Thread{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// forUpdate adds a row lock on dialects that support it. sqlite locks the
// whole database for the duration of a write transaction instead.
func forUpdate(dbc dbctx.Context) *gorm.DB {
	q := dbc.Tx.WithContext(dbc.Ctx)
	if q.Dialector != nil && q.Dialector.Name() == "sqlite" {
		return q
	}
	return q.Clauses(clause.Locking{Strength: "UPDATE"})
}
