package entities

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/weave-backend/internal/domain"
	"github.com/yungbote/weave-backend/internal/platform/dbctx"
	"github.com/yungbote/weave-backend/internal/platform/logger"
)

type EntityRepo interface {
	Create(dbc dbctx.Context, rows []*types.Entity) ([]*types.Entity, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Entity, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Entity, error)
	LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Entity, error)
	ListByThread(dbc dbctx.Context, threadID uuid.UUID) ([]*types.Entity, error)
	CountUnresolved(dbc dbctx.Context, threadID uuid.UUID) (int, error)
	ListByOwner(dbc dbctx.Context, ownerID uuid.UUID, f LibraryFilter) ([]*types.Entity, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
}

// LibraryFilter narrows ListByOwner. Empty slices and a nil Since match everything.
type LibraryFilter struct {
	Types    []types.EntityType
	Statuses []types.EntityStatus
	Since    *time.Time
}

type entityRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEntityRepo(db *gorm.DB, log *logger.Logger) EntityRepo {
	return &entityRepo{db: db, log: log.With("repo", "EntityRepo")}
}

func (r *entityRepo) Create(dbc dbctx.Context, rows []*types.Entity) ([]*types.Entity, error) {
	if len(rows) == 0 {
		return []*types.Entity{}, nil
	}
	for _, row := range rows {
		if row.ID == uuid.Nil {
			row.ID = uuid.New()
		}
		if row.Status == "" {
			row.Status = types.StatusProposed
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

func (r *entityRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Entity, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out types.Entity
	if err := txx.WithContext(dbc.Ctx).Where("id = ?", id).Take(&out).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &out, nil
}

func (r *entityRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Entity, error) {
	if len(ids) == 0 {
		return []*types.Entity{}, nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.Entity
	if err := txx.WithContext(dbc.Ctx).
		Model(&types.Entity{}).
		Where("id IN ?", ids).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *entityRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Entity, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing id")
	}
	if dbc.Tx == nil {
		return nil, fmt.Errorf("LockByID requires dbc.Tx")
	}
	q := dbc.Tx.WithContext(dbc.Ctx)
	if q.Dialector == nil || q.Dialector.Name() != "sqlite" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var out types.Entity
	if err := q.Where("id = ?", id).Take(&out).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &out, nil
}

func (r *entityRepo) ListByThread(dbc dbctx.Context, threadID uuid.UUID) ([]*types.Entity, error) {
	if threadID == uuid.Nil {
		return nil, fmt.Errorf("missing thread_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.Entity
	if err := txx.WithContext(dbc.Ctx).
		Model(&types.Entity{}).
		Where("thread_id = ?", threadID).
		Order("created_at DESC, id").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// CountUnresolved counts entities in the thread whose status is not terminal.
func (r *entityRepo) CountUnresolved(dbc dbctx.Context, threadID uuid.UUID) (int, error) {
	if threadID == uuid.Nil {
		return 0, fmt.Errorf("missing thread_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var n int64
	if err := txx.WithContext(dbc.Ctx).
		Model(&types.Entity{}).
		Where("thread_id = ? AND status NOT IN ?", threadID, types.TerminalStatuses).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return int(n), nil
}

func (r *entityRepo) ListByOwner(dbc dbctx.Context, ownerID uuid.UUID, f LibraryFilter) ([]*types.Entity, error) {
	if ownerID == uuid.Nil {
		return nil, fmt.Errorf("missing owner_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	q := txx.WithContext(dbc.Ctx).
		Model(&types.Entity{}).
		Where("owner_id = ?", ownerID)
	if len(f.Types) > 0 {
		q = q.Where("type IN ?", f.Types)
	}
	if len(f.Statuses) > 0 {
		q = q.Where("status IN ?", f.Statuses)
	}
	if f.Since != nil {
		q = q.Where("created_at > ?", *f.Since)
	}
	var out []*types.Entity
	if err := q.Order("created_at DESC, id").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *entityRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
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
		Model(&types.Entity{}).
		Where("id = ?", id).
		Updates(updates).Error
}
