package aggregates

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/weave-backend/internal/data/repos"
	types "github.com/yungbote/weave-backend/internal/domain"
	"github.com/yungbote/weave-backend/internal/platform/dbctx"
)

type ThreadAggregateDeps struct {
	Base BaseDeps

	Groups       repos.GroupRepo
	Threads      repos.ThreadRepo
	Participants repos.ParticipantRepo
}

type CreateThreadInput struct {
	CreatorID    uuid.UUID
	Title        string
	Participants []uuid.UUID
}

type UpdateThreadStatusInput struct {
	ThreadID        uuid.UUID
	ActorID         uuid.UUID
	Status          types.ThreadStatus
	ExpectedVersion *int
}

type ThreadAggregate interface {
	Create(ctx context.Context, in CreateThreadInput) (*types.Thread, error)
	UpdateStatus(ctx context.Context, in UpdateThreadStatusInput) (*types.Thread, error)
	MarkRead(ctx context.Context, threadID, actorID uuid.UUID) (*types.Thread, error)
}

type threadAggregate struct {
	deps ThreadAggregateDeps
}

func NewThreadAggregate(deps ThreadAggregateDeps) ThreadAggregate {
	deps.Base = deps.Base.withDefaults()
	return &threadAggregate{deps: deps}
}

// Create opens a group for the thread, enrolls the creator and every listed
// participant as members, and returns the new thread.
func (a *threadAggregate) Create(ctx context.Context, in CreateThreadInput) (*types.Thread, error) {
	const op = "Chat.Thread.Create"
	if in.CreatorID == uuid.Nil {
		return nil, types.Unauthenticated(op)
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, types.Invalid(op, "title is required")
	}
	members := dedupeIDs(append([]uuid.UUID{in.CreatorID}, in.Participants...))

	var out *types.Thread
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		now := time.Now().UTC()
		g, err := a.deps.Groups.Create(dbc, &types.Group{
			ID:        uuid.New(),
			Name:      title,
			CreatedBy: in.CreatorID,
			CreatedAt: now,
		})
		if err != nil {
			return err
		}
		if err := a.deps.Groups.AddMembers(dbc, g.ID, members); err != nil {
			return err
		}
		th := &types.Thread{
			ID:           uuid.New(),
			GroupID:      g.ID,
			Title:        title,
			LastActivity: now,
			Status:       types.ThreadOpen,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if _, err := a.deps.Threads.Create(dbc, []*types.Thread{th}); err != nil {
			return err
		}
		if err := a.deps.Participants.Add(dbc, th.ID, members); err != nil {
			return err
		}
		th.Participants = members
		out = th
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (a *threadAggregate) UpdateStatus(ctx context.Context, in UpdateThreadStatusInput) (*types.Thread, error) {
	const op = "Chat.Thread.UpdateStatus"
	if in.ThreadID == uuid.Nil {
		return nil, types.Invalid(op, "missing thread_id")
	}
	if _, ok := types.ParseThreadStatus(string(in.Status)); !ok {
		return nil, types.Invalid(op, "invalid thread status %q", in.Status)
	}
	return a.mutate(ctx, op, in.ThreadID, in.ActorID, in.ExpectedVersion, func(th *types.Thread) map[string]any {
		th.Status = in.Status
		return map[string]any{"status": in.Status}
	})
}

func (a *threadAggregate) MarkRead(ctx context.Context, threadID, actorID uuid.UUID) (*types.Thread, error) {
	const op = "Chat.Thread.MarkRead"
	if threadID == uuid.Nil {
		return nil, types.Invalid(op, "missing thread_id")
	}
	return a.mutate(ctx, op, threadID, actorID, nil, func(th *types.Thread) map[string]any {
		th.UnreadCount = 0
		return map[string]any{"unread_count": 0}
	})
}

func (a *threadAggregate) mutate(
	ctx context.Context,
	op string,
	threadID, actorID uuid.UUID,
	expected *int,
	apply func(th *types.Thread) map[string]any,
) (*types.Thread, error) {
	if actorID == uuid.Nil {
		return nil, types.Unauthenticated(op)
	}
	var out *types.Thread
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		th, err := a.deps.Threads.LockByID(dbc, threadID)
		if err != nil {
			return err
		}
		if th == nil {
			return types.NotFound(op, "thread not found: %s", threadID)
		}
		member, err := a.deps.Participants.IsParticipant(dbc, th.ID, actorID)
		if err != nil {
			return err
		}
		if !member {
			return types.Forbidden(op, "actor is not a participant of thread %s", th.ID)
		}
		if err := RequireVersionMatch(th.Version, expected); err != nil {
			return err
		}
		now := time.Now().UTC()
		next := *th
		updates := apply(&next)
		updates["updated_at"] = now
		ok, err := a.deps.Base.CASGuard.UpdateByVersion(dbc, th.TableName(), th.ID, th.Version, updates)
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
		next.UpdatedAt = now
		next.Version = th.Version + 1
		next.Participants = participants
		out = &next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func dedupeIDs(in []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(in))
	out := make([]uuid.UUID, 0, len(in))
	for _, id := range in {
		if id == uuid.Nil || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
