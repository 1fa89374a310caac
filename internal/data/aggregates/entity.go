package aggregates

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/weave-backend/internal/data/repos"
	types "github.com/yungbote/weave-backend/internal/domain"
	"github.com/yungbote/weave-backend/internal/platform/dbctx"
)

type EntityAggregateDeps struct {
	Base BaseDeps

	Threads      repos.ThreadRepo
	Participants repos.ParticipantRepo
	Entities     repos.EntityRepo
}

type EntityTransitionInput struct {
	EntityID        uuid.UUID
	ActorID         uuid.UUID
	Status          types.EntityStatus
	Promote         bool
	ExpectedVersion *int
}

type EntityTransitionResult struct {
	Entity *types.Entity
	Thread *types.Thread
}

// EntityAggregate applies lifecycle changes to an entity and keeps the owning
// thread's unresolved count in step.
type EntityAggregate interface {
	Transition(ctx context.Context, in EntityTransitionInput) (EntityTransitionResult, error)
}

type entityAggregate struct {
	deps EntityAggregateDeps
}

func NewEntityAggregate(deps EntityAggregateDeps) EntityAggregate {
	deps.Base = deps.Base.withDefaults()
	return &entityAggregate{deps: deps}
}

func (a *entityAggregate) Transition(ctx context.Context, in EntityTransitionInput) (EntityTransitionResult, error) {
	const op = "Entities.Entity.Transition"
	var out EntityTransitionResult
	if in.EntityID == uuid.Nil {
		return out, types.Invalid(op, "missing entity_id")
	}
	if in.ActorID == uuid.Nil {
		return out, types.Unauthenticated(op)
	}
	if in.Promote && in.Status == "" {
		in.Status = types.StatusConfirmed
	}
	if _, ok := types.ParseEntityStatus(string(in.Status)); !ok {
		return out, types.Invalid(op, "invalid entity status %q", in.Status)
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		ent, err := a.deps.Entities.LockByID(dbc, in.EntityID)
		if err != nil {
			return err
		}
		if ent == nil {
			return types.NotFound(op, "entity not found: %s", in.EntityID)
		}
		member, err := a.deps.Participants.IsParticipant(dbc, ent.ThreadID, in.ActorID)
		if err != nil {
			return err
		}
		if !member {
			return types.Forbidden(op, "actor is not a participant of thread %s", ent.ThreadID)
		}
		if err := RequireVersionMatch(ent.Version, in.ExpectedVersion); err != nil {
			return err
		}

		now := time.Now().UTC()
		actor := in.ActorID
		updates := map[string]any{
			"status":          in.Status,
			"last_touched_by": actor,
			"updated_at":      now,
		}
		if in.Promote {
			updates["type"] = types.EntityDecision
		}
		ok, err := a.deps.Base.CASGuard.UpdateByVersion(dbc, ent.TableName(), ent.ID, ent.Version, updates)
		if err != nil {
			return err
		}
		if err := RequireCASSuccess(ok, "entity changed concurrently"); err != nil {
			return err
		}
		next := *ent
		next.Status = in.Status
		next.LastTouchedBy = &actor
		next.UpdatedAt = now
		next.Version = ent.Version + 1
		if in.Promote {
			next.Type = types.EntityDecision
		}

		th, err := a.deps.Threads.LockByID(dbc, ent.ThreadID)
		if err != nil {
			return err
		}
		if th == nil {
			return types.NotFound(op, "thread not found: %s", ent.ThreadID)
		}
		unresolved, err := a.deps.Entities.CountUnresolved(dbc, th.ID)
		if err != nil {
			return err
		}
		ok, err = a.deps.Base.CASGuard.UpdateByVersion(dbc, th.TableName(), th.ID, th.Version, map[string]any{
			"unresolved_count": unresolved,
			"updated_at":       now,
		})
		if err != nil {
			return err
		}
		if err := RequireCASSuccess(ok, "thread changed concurrently"); err != nil {
			return err
		}
		participants, err := a.deps.Participants.ListUserIDs(dbc, th.ID)
		if err != nil {
			return err
		}
		nextThread := *th
		nextThread.UnresolvedCount = unresolved
		nextThread.UpdatedAt = now
		nextThread.Version = th.Version + 1
		nextThread.Participants = participants

		out = EntityTransitionResult{Entity: &next, Thread: &nextThread}
		return nil
	})
	if err != nil {
		return EntityTransitionResult{}, err
	}
	return out, nil
}
