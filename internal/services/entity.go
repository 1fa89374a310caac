package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/weave-backend/internal/data/aggregates"
	"github.com/yungbote/weave-backend/internal/data/repos"
	types "github.com/yungbote/weave-backend/internal/domain"
	"github.com/yungbote/weave-backend/internal/platform/dbctx"
	"github.com/yungbote/weave-backend/internal/platform/logger"
	"github.com/yungbote/weave-backend/internal/realtime"
)

type EntityService interface {
	Get(ctx context.Context, id uuid.UUID) (*types.Entity, error)
	ListByThread(ctx context.Context, threadID uuid.UUID) ([]*types.Entity, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string, expectedVersion *int) (*types.Entity, error)
	PromoteToDecision(ctx context.Context, id uuid.UUID, expectedVersion *int) (*types.Entity, error)
	Save(ctx context.Context, id uuid.UUID) (*types.Entity, error)
	AddToLibrary(ctx context.Context, id uuid.UUID) (*types.Entity, error)
	QueryLibrary(ctx context.Context, q LibraryQuery) (*LibraryResult, error)
}

type entityService struct {
	log          *logger.Logger
	agg          aggregates.EntityAggregate
	entities     repos.EntityRepo
	participants repos.ParticipantRepo
	dispatch     Dispatcher
	now          func() time.Time
}

func NewEntityService(
	log *logger.Logger,
	agg aggregates.EntityAggregate,
	entities repos.EntityRepo,
	participants repos.ParticipantRepo,
	dispatch Dispatcher,
) EntityService {
	return &entityService{
		log:          log.With("service", "EntityService"),
		agg:          agg,
		entities:     entities,
		participants: participants,
		dispatch:     dispatch,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (s *entityService) Get(ctx context.Context, id uuid.UUID) (*types.Entity, error) {
	const op = "Entity.Get"
	actor, err := actorFrom(ctx, op)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	e, err := s.entities.GetByID(dbc, id)
	if err != nil {
		return nil, types.Wrap(types.CodeInternal, op, err)
	}
	if e == nil {
		return nil, types.NotFound(op, "entity not found: %s", id)
	}
	if err := requireParticipant(dbc, s.participants, op, e.ThreadID, actor); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *entityService) ListByThread(ctx context.Context, threadID uuid.UUID) ([]*types.Entity, error) {
	const op = "Entity.ListByThread"
	actor, err := actorFrom(ctx, op)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	if err := requireParticipant(dbc, s.participants, op, threadID, actor); err != nil {
		return nil, err
	}
	out, err := s.entities.ListByThread(dbc, threadID)
	if err != nil {
		return nil, types.Wrap(types.CodeInternal, op, err)
	}
	return out, nil
}

func (s *entityService) UpdateStatus(ctx context.Context, id uuid.UUID, status string, expectedVersion *int) (*types.Entity, error) {
	const op = "Entity.UpdateStatus"
	parsed, ok := types.ParseEntityStatus(status)
	if !ok {
		return nil, types.Invalid(op, "invalid entity status %q", status)
	}
	return s.transition(ctx, op, aggregates.EntityTransitionInput{EntityID: id, Status: parsed, ExpectedVersion: expectedVersion})
}

// PromoteToDecision turns the entity into a confirmed decision in one write.
func (s *entityService) PromoteToDecision(ctx context.Context, id uuid.UUID, expectedVersion *int) (*types.Entity, error) {
	return s.transition(ctx, "Entity.PromoteToDecision", aggregates.EntityTransitionInput{
		EntityID:        id,
		Status:          types.StatusConfirmed,
		Promote:         true,
		ExpectedVersion: expectedVersion,
	})
}

func (s *entityService) Save(ctx context.Context, id uuid.UUID) (*types.Entity, error) {
	return s.transition(ctx, "Entity.Save", aggregates.EntityTransitionInput{EntityID: id, Status: types.StatusConfirmed})
}

func (s *entityService) AddToLibrary(ctx context.Context, id uuid.UUID) (*types.Entity, error) {
	return s.transition(ctx, "Entity.AddToLibrary", aggregates.EntityTransitionInput{EntityID: id, Status: types.StatusConfirmed})
}

func (s *entityService) transition(ctx context.Context, op string, in aggregates.EntityTransitionInput) (*types.Entity, error) {
	actor, err := actorFrom(ctx, op)
	if err != nil {
		return nil, err
	}
	in.ActorID = actor
	res, err := s.agg.Transition(ctx, in)
	if err != nil {
		return nil, err
	}
	if s.dispatch != nil {
		threadID := res.Entity.ThreadID
		s.dispatch.NotifyThread(ctx, threadID, realtime.EventEntityUpdated, map[string]any{
			"entity":   res.Entity,
			"threadId": threadID,
		})
		s.dispatch.NotifyThread(ctx, threadID, realtime.EventThreadUpdated, map[string]any{
			"thread":   res.Thread,
			"threadId": threadID,
		})
	}
	return res.Entity, nil
}
