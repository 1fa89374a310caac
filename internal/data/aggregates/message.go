package aggregates

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/weave-backend/internal/data/repos"
	types "github.com/yungbote/weave-backend/internal/domain"
	"github.com/yungbote/weave-backend/internal/extraction"
	"github.com/yungbote/weave-backend/internal/platform/dbctx"
)

type MessageAggregateDeps struct {
	Base BaseDeps

	Threads      repos.ThreadRepo
	Participants repos.ParticipantRepo
	Messages     repos.MessageRepo
	Entities     repos.EntityRepo
	Extractor    extraction.Extractor
}

type IngestInput struct {
	ThreadID    uuid.UUID
	SenderID    uuid.UUID
	Type        types.MessageType
	Content     string
	AudioURL    *string
	Waveform    datatypes.JSON
	Attachments datatypes.JSON
}

type IngestResult struct {
	Message  *types.Message
	Entities []*types.Entity
	Thread   *types.Thread
}

// MessageAggregate owns the durable half of message ingestion.
type MessageAggregate interface {
	Ingest(ctx context.Context, in IngestInput) (IngestResult, error)
}

type messageAggregate struct {
	deps MessageAggregateDeps
}

func NewMessageAggregate(deps MessageAggregateDeps) MessageAggregate {
	deps.Base = deps.Base.withDefaults()
	if deps.Extractor == nil {
		deps.Extractor = extraction.NewRules()
	}
	return &messageAggregate{deps: deps}
}

// Ingest persists the message, the entities extracted from it and the
// refreshed thread aggregates in a single transaction. Nothing is written
// unless every step succeeds.
func (a *messageAggregate) Ingest(ctx context.Context, in IngestInput) (IngestResult, error) {
	const op = "Chat.Message.Ingest"
	var out IngestResult
	if in.ThreadID == uuid.Nil {
		return out, types.Invalid(op, "missing thread_id")
	}
	if in.SenderID == uuid.Nil {
		return out, types.Unauthenticated(op)
	}
	if in.Type == "" {
		in.Type = types.MessageText
	}
	if a.deps.Threads == nil || a.deps.Participants == nil || a.deps.Messages == nil || a.deps.Entities == nil {
		return out, types.NewError(types.CodeInternal, op, "message aggregate repos not configured", nil)
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		th, err := a.deps.Threads.LockByID(dbc, in.ThreadID)
		if err != nil {
			return err
		}
		if th == nil {
			return types.NotFound(op, "thread not found: %s", in.ThreadID)
		}
		member, err := a.deps.Participants.IsParticipant(dbc, th.ID, in.SenderID)
		if err != nil {
			return err
		}
		if !member {
			return types.Forbidden(op, "sender is not a participant of thread %s", th.ID)
		}

		now := time.Now().UTC()
		msg := &types.Message{
			ID:          uuid.New(),
			ThreadID:    th.ID,
			SenderID:    in.SenderID,
			Type:        in.Type,
			Content:     in.Content,
			AudioURL:    in.AudioURL,
			Waveform:    in.Waveform,
			Attachments: in.Attachments,
			Timestamp:   now,
			EntityIDs:   []uuid.UUID{},
		}
		if _, err := a.deps.Messages.Create(dbc, []*types.Message{msg}); err != nil {
			return err
		}

		created := []*types.Entity{}
		if strings.TrimSpace(in.Content) != "" {
			created = entitiesFromCandidates(a.deps.Extractor.Extract(in.Content), th.ID, msg.ID, in.SenderID, now)
			if len(created) > 0 {
				if _, err := a.deps.Entities.Create(dbc, created); err != nil {
					return err
				}
				ids := make([]uuid.UUID, 0, len(created))
				for _, e := range created {
					ids = append(ids, e.ID)
				}
				if err := a.deps.Messages.LinkEntities(dbc, msg.ID, ids); err != nil {
					return err
				}
				msg.EntityIDs = ids
			}
		}

		refreshed, err := a.refreshThread(dbc, th, now)
		if err != nil {
			return err
		}

		out = IngestResult{Message: msg, Entities: created, Thread: refreshed}
		return nil
	})
	if err != nil {
		return IngestResult{}, err
	}
	return out, nil
}

// refreshThread recomputes unresolvedCount from scratch and writes it with
// lastActivity under the thread's version guard.
func (a *messageAggregate) refreshThread(dbc dbctx.Context, th *types.Thread, now time.Time) (*types.Thread, error) {
	unresolved, err := a.deps.Entities.CountUnresolved(dbc, th.ID)
	if err != nil {
		return nil, err
	}
	ok, err := a.deps.Base.CASGuard.UpdateByVersion(dbc, th.TableName(), th.ID, th.Version, map[string]any{
		"last_activity":    now,
		"unresolved_count": unresolved,
		"updated_at":       now,
	})
	if err != nil {
		return nil, err
	}
	if err := RequireCASSuccess(ok, "thread changed while ingesting message"); err != nil {
		return nil, err
	}
	participants, err := a.deps.Participants.ListUserIDs(dbc, th.ID)
	if err != nil {
		return nil, err
	}
	next := *th
	next.LastActivity = now
	next.UnresolvedCount = unresolved
	next.UpdatedAt = now
	next.Version = th.Version + 1
	next.Participants = participants
	return &next, nil
}

func entitiesFromCandidates(cands []extraction.Candidate, threadID, messageID, ownerID uuid.UUID, now time.Time) []*types.Entity {
	out := make([]*types.Entity, 0, len(cands))
	for _, c := range cands {
		mid := messageID
		owner := ownerID
		out = append(out, &types.Entity{
			ID:              uuid.New(),
			Type:            c.Type,
			Title:           c.Title,
			Description:     c.Description,
			Status:          types.StatusProposed,
			OwnerID:         ownerID,
			ThreadID:        threadID,
			MessageID:       &mid,
			ImportanceScore: c.Importance,
			LastTouchedBy:   &owner,
			CreatedAt:       now,
			UpdatedAt:       now,
		})
	}
	return out
}
