package services

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/weave-backend/internal/data/aggregates"
	"github.com/yungbote/weave-backend/internal/data/repos"
	types "github.com/yungbote/weave-backend/internal/domain"
	"github.com/yungbote/weave-backend/internal/platform/dbctx"
	"github.com/yungbote/weave-backend/internal/platform/logger"
	"github.com/yungbote/weave-backend/internal/realtime"
)

type CreateThreadInput struct {
	Title          string
	ParticipantIDs []uuid.UUID
	InitialContent string
}

type ThreadService interface {
	Create(ctx context.Context, in CreateThreadInput) (*types.Thread, error)
	List(ctx context.Context, sort string, limit int) ([]*types.Thread, error)
	Get(ctx context.Context, threadID uuid.UUID) (*types.Thread, error)
	MarkRead(ctx context.Context, threadID uuid.UUID) (*types.Thread, error)
	UpdateStatus(ctx context.Context, threadID uuid.UUID, status string, expectedVersion *int) (*types.Thread, error)
}

type threadService struct {
	log          *logger.Logger
	agg          aggregates.ThreadAggregate
	threads      repos.ThreadRepo
	participants repos.ParticipantRepo
	messages     MessageService
	dispatch     Dispatcher
}

func NewThreadService(
	log *logger.Logger,
	agg aggregates.ThreadAggregate,
	threads repos.ThreadRepo,
	participants repos.ParticipantRepo,
	messages MessageService,
	dispatch Dispatcher,
) ThreadService {
	return &threadService{
		log:          log.With("service", "ThreadService"),
		agg:          agg,
		threads:      threads,
		participants: participants,
		messages:     messages,
		dispatch:     dispatch,
	}
}

// Create opens the thread, announces it, and pushes any initial content
// through the normal ingestion path.
func (s *threadService) Create(ctx context.Context, in CreateThreadInput) (*types.Thread, error) {
	const op = "Thread.Create"
	actor, err := actorFrom(ctx, op)
	if err != nil {
		return nil, err
	}
	th, err := s.agg.Create(ctx, aggregates.CreateThreadInput{
		CreatorID:    actor,
		Title:        in.Title,
		Participants: in.ParticipantIDs,
	})
	if err != nil {
		return nil, err
	}
	if s.dispatch != nil {
		s.dispatch.NotifyThread(ctx, th.ID, realtime.EventThreadUpdated, map[string]any{"thread": th, "threadId": th.ID})
	}

	if strings.TrimSpace(in.InitialContent) == "" || s.messages == nil {
		return th, nil
	}
	res, err := s.messages.Send(ctx, SendMessageInput{ThreadID: th.ID, Content: in.InitialContent})
	if err != nil {
		// The thread exists either way; the first message can be resent.
		s.log.Warn("initial message failed", "thread_id", th.ID, "error", err)
		return th, nil
	}
	return res.Thread, nil
}

func (s *threadService) List(ctx context.Context, sort string, limit int) ([]*types.Thread, error) {
	const op = "Thread.List"
	actor, err := actorFrom(ctx, op)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	threads, err := s.threads.ListByParticipant(dbc, actor, sort, limit)
	if err != nil {
		return nil, types.Wrap(types.CodeInternal, op, err)
	}
	if len(threads) == 0 {
		return threads, nil
	}
	ids := make([]uuid.UUID, 0, len(threads))
	for _, th := range threads {
		ids = append(ids, th.ID)
	}
	members, err := s.participants.ListUserIDsByThreads(dbc, ids)
	if err != nil {
		return nil, types.Wrap(types.CodeInternal, op, err)
	}
	for _, th := range threads {
		th.Participants = members[th.ID]
	}
	return threads, nil
}

func (s *threadService) Get(ctx context.Context, threadID uuid.UUID) (*types.Thread, error) {
	const op = "Thread.Get"
	actor, err := actorFrom(ctx, op)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	th, err := s.threads.GetByID(dbc, threadID)
	if err != nil {
		return nil, types.Wrap(types.CodeInternal, op, err)
	}
	if th == nil {
		return nil, types.NotFound(op, "thread not found: %s", threadID)
	}
	members, err := s.participants.ListUserIDs(dbc, threadID)
	if err != nil {
		return nil, types.Wrap(types.CodeInternal, op, err)
	}
	if !containsID(members, actor) {
		return nil, types.Forbidden(op, "not a participant of thread %s", threadID)
	}
	th.Participants = members
	return th, nil
}

func (s *threadService) MarkRead(ctx context.Context, threadID uuid.UUID) (*types.Thread, error) {
	actor, err := actorFrom(ctx, "Thread.MarkRead")
	if err != nil {
		return nil, err
	}
	th, err := s.agg.MarkRead(ctx, threadID, actor)
	if err != nil {
		return nil, err
	}
	if s.dispatch != nil {
		s.dispatch.NotifyUser(ctx, actor, realtime.EventThreadUpdated, map[string]any{"thread": th, "threadId": th.ID})
	}
	return th, nil
}

func (s *threadService) UpdateStatus(ctx context.Context, threadID uuid.UUID, status string, expectedVersion *int) (*types.Thread, error) {
	const op = "Thread.UpdateStatus"
	actor, err := actorFrom(ctx, op)
	if err != nil {
		return nil, err
	}
	parsed, ok := types.ParseThreadStatus(status)
	if !ok {
		return nil, types.Invalid(op, "invalid thread status %q", status)
	}
	th, err := s.agg.UpdateStatus(ctx, aggregates.UpdateThreadStatusInput{
		ThreadID:        threadID,
		ActorID:         actor,
		Status:          parsed,
		ExpectedVersion: expectedVersion,
	})
	if err != nil {
		return nil, err
	}
	if s.dispatch != nil {
		s.dispatch.NotifyThread(ctx, th.ID, realtime.EventThreadUpdated, map[string]any{"thread": th, "threadId": th.ID})
	}
	return th, nil
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
