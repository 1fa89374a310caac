package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/yungbote/weave-backend/internal/data/repos"
	types "github.com/yungbote/weave-backend/internal/domain"
	"github.com/yungbote/weave-backend/internal/platform/ctxutil"
	"github.com/yungbote/weave-backend/internal/platform/dbctx"
)

// actorFrom returns the authenticated user bound to ctx.
func actorFrom(ctx context.Context, op string) (uuid.UUID, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return uuid.Nil, types.Unauthenticated(op)
	}
	return rd.UserID, nil
}

func requireParticipant(dbc dbctx.Context, participants repos.ParticipantRepo, op string, threadID, userID uuid.UUID) error {
	ok, err := participants.IsParticipant(dbc, threadID, userID)
	if err != nil {
		return types.Wrap(types.CodeInternal, op, err)
	}
	if !ok {
		return types.Forbidden(op, "not a participant of thread %s", threadID)
	}
	return nil
}
