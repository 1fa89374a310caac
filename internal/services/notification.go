package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/weave-backend/internal/data/repos"
	types "github.com/yungbote/weave-backend/internal/domain"
	"github.com/yungbote/weave-backend/internal/platform/dbctx"
	"github.com/yungbote/weave-backend/internal/platform/logger"
	"github.com/yungbote/weave-backend/internal/realtime"
)

type NotificationService interface {
	List(ctx context.Context, unreadOnly bool, limit int) ([]*types.Notification, error)
	MarkRead(ctx context.Context, id uuid.UUID) (*types.Notification, error)
	MarkAllRead(ctx context.Context) (int64, error)
	Create(ctx context.Context, n *types.Notification) (*types.Notification, error)
}

type notificationService struct {
	log           *logger.Logger
	notifications repos.NotificationRepo
	dispatch      Dispatcher
}

func NewNotificationService(log *logger.Logger, notifications repos.NotificationRepo, dispatch Dispatcher) NotificationService {
	return &notificationService{
		log:           log.With("service", "NotificationService"),
		notifications: notifications,
		dispatch:      dispatch,
	}
}

func (s *notificationService) List(ctx context.Context, unreadOnly bool, limit int) ([]*types.Notification, error) {
	const op = "Notification.List"
	actor, err := actorFrom(ctx, op)
	if err != nil {
		return nil, err
	}
	out, err := s.notifications.ListByUser(dbctx.Context{Ctx: ctx}, actor, unreadOnly, limit)
	if err != nil {
		return nil, types.Wrap(types.CodeInternal, op, err)
	}
	return out, nil
}

func (s *notificationService) MarkRead(ctx context.Context, id uuid.UUID) (*types.Notification, error) {
	const op = "Notification.MarkRead"
	actor, err := actorFrom(ctx, op)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	n, err := s.notifications.GetByID(dbc, id)
	if err != nil {
		return nil, types.Wrap(types.CodeInternal, op, err)
	}
	if n == nil {
		return nil, types.NotFound(op, "notification not found: %s", id)
	}
	if n.UserID != actor {
		return nil, types.Forbidden(op, "notification belongs to another user")
	}
	if n.Read {
		return n, nil
	}
	now := time.Now().UTC()
	if err := s.notifications.MarkRead(dbc, id, now); err != nil {
		return nil, types.Wrap(types.CodeInternal, op, err)
	}
	n.Read = true
	n.ReadAt = &now
	return n, nil
}

func (s *notificationService) MarkAllRead(ctx context.Context) (int64, error) {
	const op = "Notification.MarkAllRead"
	actor, err := actorFrom(ctx, op)
	if err != nil {
		return 0, err
	}
	n, err := s.notifications.MarkAllRead(dbctx.Context{Ctx: ctx}, actor, time.Now().UTC())
	if err != nil {
		return 0, types.Wrap(types.CodeInternal, op, err)
	}
	return n, nil
}

// Create persists n and pushes it to its recipient's stream.
func (s *notificationService) Create(ctx context.Context, n *types.Notification) (*types.Notification, error) {
	const op = "Notification.Create"
	if n == nil || n.UserID == uuid.Nil {
		return nil, types.Invalid(op, "notification needs a target user")
	}
	typ, ok := types.ParseNotificationType(string(n.Type))
	if !ok {
		return nil, types.Invalid(op, "invalid notification type %q", n.Type)
	}
	n.Type = typ
	if strings.TrimSpace(n.Title) == "" {
		return nil, types.Invalid(op, "title is required")
	}
	saved, err := s.notifications.Create(dbctx.Context{Ctx: ctx}, n)
	if err != nil {
		return nil, types.Wrap(types.CodeInternal, op, err)
	}
	if s.dispatch != nil {
		s.dispatch.NotifyUser(ctx, saved.UserID, realtime.EventNotification, map[string]any{"notification": saved})
	}
	return saved, nil
}
