package chat

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

type MessageRepo interface {
	Create(dbc dbctx.Context, rows []*types.Message) ([]*types.Message, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Message, error)
	ListByThread(dbc dbctx.Context, threadID uuid.UUID, limit int) ([]*types.Message, error)
	LinkEntities(dbc dbctx.Context, messageID uuid.UUID, entityIDs []uuid.UUID) error
}

type messageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMessageRepo(db *gorm.DB, log *logger.Logger) MessageRepo {
	return &messageRepo{db: db, log: log.With("repo", "MessageRepo")}
}

func (r *messageRepo) Create(dbc dbctx.Context, rows []*types.Message) ([]*types.Message, error) {
	if len(rows) == 0 {
		return []*types.Message{}, nil
	}
	for _, row := range rows {
		if row.ID == uuid.Nil {
			row.ID = uuid.New()
		}
		if row.Timestamp.IsZero() {
			row.Timestamp = time.Now().UTC()
		}
		if row.EntityIDs == nil {
			row.EntityIDs = []uuid.UUID{}
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

func (r *messageRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Message, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out types.Message
	if err := txx.WithContext(dbc.Ctx).Where("id = ?", id).Take(&out).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	msgs := []*types.Message{&out}
	if err := r.attachEntityIDs(dbc, msgs); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListByThread returns the newest `limit` messages in chronological order.
func (r *messageRepo) ListByThread(dbc dbctx.Context, threadID uuid.UUID, limit int) ([]*types.Message, error) {
	if threadID == uuid.Nil {
		return nil, fmt.Errorf("missing thread_id")
	}
	if limit <= 0 || limit > 500 {
		limit = 200
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.Message
	if err := txx.WithContext(dbc.Ctx).
		Model(&types.Message{}).
		Where("thread_id = ?", threadID).
		Order("timestamp DESC, id DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	if err := r.attachEntityIDs(dbc, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *messageRepo) LinkEntities(dbc dbctx.Context, messageID uuid.UUID, entityIDs []uuid.UUID) error {
	if messageID == uuid.Nil {
		return fmt.Errorf("missing message_id")
	}
	if len(entityIDs) == 0 {
		return nil
	}
	now := time.Now().UTC()
	rows := make([]*types.MessageEntity, 0, len(entityIDs))
	for _, id := range entityIDs {
		if id == uuid.Nil {
			continue
		}
		rows = append(rows, &types.MessageEntity{MessageID: messageID, EntityID: id, CreatedAt: now})
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

func (r *messageRepo) attachEntityIDs(dbc dbctx.Context, msgs []*types.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(msgs))
	byID := make(map[uuid.UUID]*types.Message, len(msgs))
	for _, m := range msgs {
		m.EntityIDs = []uuid.UUID{}
		ids = append(ids, m.ID)
		byID[m.ID] = m
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var links []types.MessageEntity
	if err := txx.WithContext(dbc.Ctx).
		Where("message_id IN ?", ids).
		Order("created_at, entity_id").
		Find(&links).Error; err != nil {
		return err
	}
	for _, l := range links {
		if m := byID[l.MessageID]; m != nil {
			m.EntityIDs = append(m.EntityIDs, l.EntityID)
		}
	}
	return nil
}
