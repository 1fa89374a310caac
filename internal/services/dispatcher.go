package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/weave-backend/internal/data/repos"
	"github.com/yungbote/weave-backend/internal/observability"
	"github.com/yungbote/weave-backend/internal/platform/dbctx"
	"github.com/yungbote/weave-backend/internal/platform/logger"
	"github.com/yungbote/weave-backend/internal/realtime"
)

const fanoutLimit = 8

// Dispatcher decides who sees an event and pushes it. Delivery is best
// effort: nothing here returns an error to the triggering workflow.
type Dispatcher interface {
	NotifyUser(ctx context.Context, userID uuid.UUID, event realtime.Event, data any)
	NotifyThread(ctx context.Context, threadID uuid.UUID, event realtime.Event, data any)
	Broadcast(ctx context.Context, event realtime.Event, data any)
}

type dispatcher struct {
	log          *logger.Logger
	emit         Emitter
	participants repos.ParticipantRepo
	metrics      *observability.Metrics
	published    bool
}

// NewDispatcher builds a dispatcher over emit. Set published when emit goes
// through a bus, where local delivery is not observable.
func NewDispatcher(log *logger.Logger, emit Emitter, participants repos.ParticipantRepo, metrics *observability.Metrics, published bool) Dispatcher {
	return &dispatcher{
		log:          log.With("service", "Dispatcher"),
		emit:         emit,
		participants: participants,
		metrics:      metrics,
		published:    published,
	}
}

func (d *dispatcher) NotifyUser(ctx context.Context, userID uuid.UUID, event realtime.Event, data any) {
	if d == nil || d.emit == nil || userID == uuid.Nil {
		return
	}
	d.push(ctx, realtime.Message{UserID: userID, Event: event, Data: data})
}

// NotifyThread resolves the participants at call time and fans out. One
// participant's failure never blocks the others; the call returns once every
// send was attempted so per-user order across calls is kept.
func (d *dispatcher) NotifyThread(ctx context.Context, threadID uuid.UUID, event realtime.Event, data any) {
	if d == nil || d.emit == nil || d.participants == nil {
		return
	}
	userIDs, err := d.participants.ListUserIDs(dbctx.Context{Ctx: ctx}, threadID)
	if err != nil {
		d.log.Warn("fan-out skipped; participant lookup failed", "thread_id", threadID, "event", event, "error", err)
		return
	}
	var g errgroup.Group
	g.SetLimit(fanoutLimit)
	for _, uid := range userIDs {
		uid := uid
		g.Go(func() error {
			d.NotifyUser(ctx, uid, event, data)
			return nil
		})
	}
	_ = g.Wait()
}

func (d *dispatcher) Broadcast(ctx context.Context, event realtime.Event, data any) {
	if d == nil || d.emit == nil {
		return
	}
	d.push(ctx, realtime.Message{Event: event, Data: data})
}

func (d *dispatcher) push(ctx context.Context, msg realtime.Message) {
	err := d.emit.Emit(ctx, msg)
	switch {
	case err == nil && d.published:
		d.metrics.ObserveEvent(string(msg.Event), "published")
	case err == nil:
		d.metrics.ObserveEvent(string(msg.Event), "delivered")
	case errors.Is(err, ErrNotDelivered):
		d.metrics.ObserveEvent(string(msg.Event), "dropped")
		d.log.Debug("event dropped", "user_id", msg.UserID, "event", msg.Event)
	default:
		d.metrics.ObserveEvent(string(msg.Event), "failed")
		d.log.Warn("event push failed", "user_id", msg.UserID, "event", msg.Event, "error", err)
	}
}
