package services

import (
	"context"

	"github.com/yungbote/weave-backend/internal/data/repos"
	types "github.com/yungbote/weave-backend/internal/domain"
	"github.com/yungbote/weave-backend/internal/platform/dbctx"
	"github.com/yungbote/weave-backend/internal/platform/logger"
)

// UserService resolves the acting user's profile row.
type UserService interface {
	Me(ctx context.Context) (*types.User, error)
}

type userService struct {
	log   *logger.Logger
	users repos.UserRepo
}

func NewUserService(log *logger.Logger, users repos.UserRepo) UserService {
	return &userService{log: log.With("service", "UserService"), users: users}
}

func (s *userService) Me(ctx context.Context) (*types.User, error) {
	const op = "User.Me"
	actor, err := actorFrom(ctx, op)
	if err != nil {
		return nil, err
	}
	u, err := s.users.GetByID(dbctx.Context{Ctx: ctx}, actor)
	if err != nil {
		return nil, types.Wrap(types.CodeInternal, op, err)
	}
	if u == nil {
		return nil, types.NotFound(op, "user not provisioned: %s", actor)
	}
	return u, nil
}
