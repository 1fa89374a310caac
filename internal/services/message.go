package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/datatypes"

	"github.com/yungbote/weave-backend/internal/data/aggregates"
	"github.com/yungbote/weave-backend/internal/data/repos"
	types "github.com/yungbote/weave-backend/internal/domain"
	"github.com/yungbote/weave-backend/internal/observability"
	"github.com/yungbote/weave-backend/internal/platform/dbctx"
	"github.com/yungbote/weave-backend/internal/platform/logger"
	"github.com/yungbote/weave-backend/internal/realtime"
)

type SendMessageInput struct {
	ThreadID    uuid.UUID
	Type        string
	Content     string
	AudioURL    *string
	Waveform    datatypes.JSON
	Attachments datatypes.JSON
}

type SendMessageResult struct {
	Message  *types.Message  `json:"message"`
	Entities []*types.Entity `json:"entities"`
	Thread   *types.Thread   `json:"thread"`
}

// MessageService is the ingestion pipeline: it persists through the message
// aggregate and only then dispatches, so a delivery problem can never make a
// saved message look unsent.
type MessageService interface {
	Send(ctx context.Context, in SendMessageInput) (*SendMessageResult, error)
	ListByThread(ctx context.Context, threadID uuid.UUID, limit int) ([]*types.Message, error)
}

type messageService struct {
	log          *logger.Logger
	agg          aggregates.MessageAggregate
	messages     repos.MessageRepo
	participants repos.ParticipantRepo
	dispatch     Dispatcher
	metrics      *observability.Metrics
}

func NewMessageService(
	log *logger.Logger,
	agg aggregates.MessageAggregate,
	messages repos.MessageRepo,
	participants repos.ParticipantRepo,
	dispatch Dispatcher,
	metrics *observability.Metrics,
) MessageService {
	return &messageService{
		log:          log.With("service", "MessageService"),
		agg:          agg,
		messages:     messages,
		participants: participants,
		dispatch:     dispatch,
		metrics:      metrics,
	}
}

func (s *messageService) Send(ctx context.Context, in SendMessageInput) (*SendMessageResult, error) {
	const op = "Message.Send"
	sender, err := actorFrom(ctx, op)
	if err != nil {
		return nil, err
	}
	msgType, ok := types.ParseMessageType(in.Type)
	if !ok {
		return nil, types.Invalid(op, "invalid message type %q", in.Type)
	}
	if in.ThreadID == uuid.Nil {
		return nil, types.Invalid(op, "threadId is required")
	}

	ctx, span := observability.StartSpan(ctx, "message.ingest",
		attribute.String("thread_id", in.ThreadID.String()),
		attribute.String("message_type", string(msgType)),
	)
	defer span.End()

	start := time.Now()
	res, err := s.agg.Ingest(ctx, aggregates.IngestInput{
		ThreadID:    in.ThreadID,
		SenderID:    sender,
		Type:        msgType,
		Content:     in.Content,
		AudioURL:    in.AudioURL,
		Waveform:    in.Waveform,
		Attachments: in.Attachments,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(types.CodeOf(err)))
		s.metrics.ObserveIngest(string(types.CodeOf(err)), time.Since(start), nil)
		return nil, err
	}
	entityTypes := make([]string, 0, len(res.Entities))
	for _, e := range res.Entities {
		entityTypes = append(entityTypes, string(e.Type))
	}
	s.metrics.ObserveIngest("success", time.Since(start), entityTypes)
	span.SetAttributes(attribute.Int("entities", len(res.Entities)))

	s.announce(ctx, res)

	return &SendMessageResult{Message: res.Message, Entities: res.Entities, Thread: res.Thread}, nil
}

// announce emits the ingestion events in their fixed order.
func (s *messageService) announce(ctx context.Context, res aggregates.IngestResult) {
	if s.dispatch == nil || res.Message == nil {
		return
	}
	threadID := res.Message.ThreadID
	s.dispatch.NotifyThread(ctx, threadID, realtime.EventMessageCreated, map[string]any{
		"message":  res.Message,
		"threadId": threadID,
	})
	if len(res.Entities) > 0 {
		s.dispatch.NotifyThread(ctx, threadID, realtime.EventEntityExtracted, map[string]any{
			"entities":  res.Entities,
			"messageId": res.Message.ID,
			"threadId":  threadID,
		})
	}
	if res.Thread != nil {
		s.dispatch.NotifyThread(ctx, threadID, realtime.EventThreadUpdated, map[string]any{
			"thread":   res.Thread,
			"threadId": threadID,
		})
	}
}

func (s *messageService) ListByThread(ctx context.Context, threadID uuid.UUID, limit int) ([]*types.Message, error) {
	const op = "Message.ListByThread"
	actor, err := actorFrom(ctx, op)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	if err := requireParticipant(dbc, s.participants, op, threadID, actor); err != nil {
		return nil, err
	}
	msgs, err := s.messages.ListByThread(dbc, threadID, limit)
	if err != nil {
		return nil, types.Wrap(types.CodeInternal, op, err)
	}
	return msgs, nil
}
