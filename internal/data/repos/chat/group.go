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

type GroupRepo interface {
	Create(dbc dbctx.Context, g *types.Group) (*types.Group, error)
	AddMembers(dbc dbctx.Context, groupID uuid.UUID, userIDs []uuid.UUID) error
}

type groupRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGroupRepo(db *gorm.DB, log *logger.Logger) GroupRepo {
	return &groupRepo{db: db, log: log.With("repo", "GroupRepo")}
}

func (r *groupRepo) Create(dbc dbctx.Context, g *types.Group) (*types.Group, error) {
	if g == nil {
		return nil, fmt.Errorf("missing group")
	}
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	if err := txx.WithContext(dbc.Ctx).Create(g).Error; err != nil {
		return nil, err
	}
	return g, nil
}

func (r *groupRepo) AddMembers(dbc dbctx.Context, groupID uuid.UUID, userIDs []uuid.UUID) error {
	if groupID == uuid.Nil {
		return fmt.Errorf("missing group_id")
	}
	now := time.Now().UTC()
	rows := make([]*types.GroupMember, 0, len(userIDs))
	for _, uid := range userIDs {
		if uid != uuid.Nil {
			rows = append(rows, &types.GroupMember{GroupID: groupID, UserID: uid, JoinedAt: now})
		}
	}
	if len(rows) == 0 {
		return nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows).Error
}
