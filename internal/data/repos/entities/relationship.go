package entities

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/weave-backend/internal/domain"
	"github.com/yungbote/weave-backend/internal/platform/dbctx"
	"github.com/yungbote/weave-backend/internal/platform/logger"
)

type RelationshipRepo interface {
	Create(dbc dbctx.Context, row *types.Relationship) (*types.Relationship, error)
	Find(dbc dbctx.Context, sourceID, targetID uuid.UUID, linkType types.LinkType) (*types.Relationship, error)
	DeleteMatching(dbc dbctx.Context, sourceID, targetID uuid.UUID, linkType types.LinkType) (int64, error)
	ListBySource(dbc dbctx.Context, entityID uuid.UUID) ([]*types.Relationship, error)
	ListByTarget(dbc dbctx.Context, entityID uuid.UUID) ([]*types.Relationship, error)
}

type relationshipRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRelationshipRepo(db *gorm.DB, log *logger.Logger) RelationshipRepo {
	return &relationshipRepo{db: db, log: log.With("repo", "RelationshipRepo")}
}

func (r *relationshipRepo) Create(dbc dbctx.Context, row *types.Relationship) (*types.Relationship, error) {
	if row == nil || row.SourceID == uuid.Nil || row.TargetID == uuid.Nil || row.LinkType == "" {
		return nil, fmt.Errorf("relationship requires source, target and link type")
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	if err := txx.WithContext(dbc.Ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

// Find returns (nil, nil) when no relationship matches the triple.
func (r *relationshipRepo) Find(dbc dbctx.Context, sourceID, targetID uuid.UUID, linkType types.LinkType) (*types.Relationship, error) {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out types.Relationship
	err := txx.WithContext(dbc.Ctx).
		Where("source_id = ? AND target_id = ? AND link_type = ?", sourceID, targetID, linkType).
		Order("created_at, id").
		Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteMatching removes every row for the triple and reports how many went.
func (r *relationshipRepo) DeleteMatching(dbc dbctx.Context, sourceID, targetID uuid.UUID, linkType types.LinkType) (int64, error) {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	res := txx.WithContext(dbc.Ctx).
		Where("source_id = ? AND target_id = ? AND link_type = ?", sourceID, targetID, linkType).
		Delete(&types.Relationship{})
	return res.RowsAffected, res.Error
}

func (r *relationshipRepo) ListBySource(dbc dbctx.Context, entityID uuid.UUID) ([]*types.Relationship, error) {
	return r.list(dbc, "source_id = ?", entityID)
}

func (r *relationshipRepo) ListByTarget(dbc dbctx.Context, entityID uuid.UUID) ([]*types.Relationship, error) {
	return r.list(dbc, "target_id = ?", entityID)
}

func (r *relationshipRepo) list(dbc dbctx.Context, where string, entityID uuid.UUID) ([]*types.Relationship, error) {
	if entityID == uuid.Nil {
		return nil, fmt.Errorf("missing entity_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.Relationship
	if err := txx.WithContext(dbc.Ctx).
		Model(&types.Relationship{}).
		Where(where, entityID).
		Order("created_at, id").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
