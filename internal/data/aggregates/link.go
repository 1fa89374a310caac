package aggregates

import (
	"context"

	"github.com/google/uuid"

	"github.com/yungbote/weave-backend/internal/data/repos"
	types "github.com/yungbote/weave-backend/internal/domain"
	"github.com/yungbote/weave-backend/internal/platform/dbctx"
)

type LinkAggregateDeps struct {
	Base BaseDeps

	Entities      repos.EntityRepo
	Relationships repos.RelationshipRepo
}

type LinkInput struct {
	SourceID uuid.UUID
	TargetID uuid.UUID
	LinkType types.LinkType
	ActorID  uuid.UUID
}

// LinkAggregate owns writes to the entity relationship graph. Both endpoints
// of a link belong to the acting user; there is no shared access.
type LinkAggregate interface {
	Create(ctx context.Context, in LinkInput) (*types.Relationship, error)
	Delete(ctx context.Context, in LinkInput) (int64, error)
}

type linkAggregate struct {
	deps LinkAggregateDeps
}

func NewLinkAggregate(deps LinkAggregateDeps) LinkAggregate {
	deps.Base = deps.Base.withDefaults()
	return &linkAggregate{deps: deps}
}

func (a *linkAggregate) Create(ctx context.Context, in LinkInput) (*types.Relationship, error) {
	const op = "Entities.Link.Create"
	if err := validateLinkInput(op, in); err != nil {
		return nil, err
	}
	var out *types.Relationship
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		src, err := a.deps.Entities.GetByID(dbc, in.SourceID)
		if err != nil {
			return err
		}
		if src == nil {
			return types.NotFound(op, "source entity not found: %s", in.SourceID)
		}
		dst := src
		if in.TargetID != in.SourceID {
			dst, err = a.deps.Entities.GetByID(dbc, in.TargetID)
			if err != nil {
				return err
			}
			if dst == nil {
				return types.NotFound(op, "target entity not found: %s", in.TargetID)
			}
		}
		if src.OwnerID != in.ActorID || dst.OwnerID != in.ActorID {
			return types.Forbidden(op, "actor must own both entities")
		}
		existing, err := a.deps.Relationships.Find(dbc, in.SourceID, in.TargetID, in.LinkType)
		if err != nil {
			return err
		}
		if existing != nil {
			return types.Conflict(op, "%s link already exists", in.LinkType)
		}
		// A racing insert still trips the unique index and maps to conflict.
		row, err := a.deps.Relationships.Create(dbc, &types.Relationship{
			ID:       uuid.New(),
			SourceID: in.SourceID,
			TargetID: in.TargetID,
			LinkType: in.LinkType,
		})
		if err != nil {
			return err
		}
		out = row
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes every row for the triple. Zero matches is not an error.
func (a *linkAggregate) Delete(ctx context.Context, in LinkInput) (int64, error) {
	const op = "Entities.Link.Delete"
	if err := validateLinkInput(op, in); err != nil {
		return 0, err
	}
	var removed int64
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		src, err := a.deps.Entities.GetByID(dbc, in.SourceID)
		if err != nil {
			return err
		}
		if src == nil {
			return types.NotFound(op, "source entity not found: %s", in.SourceID)
		}
		if src.OwnerID != in.ActorID {
			return types.Forbidden(op, "actor must own the source entity")
		}
		n, err := a.deps.Relationships.DeleteMatching(dbc, in.SourceID, in.TargetID, in.LinkType)
		if err != nil {
			return err
		}
		removed = n
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

func validateLinkInput(op string, in LinkInput) error {
	if in.ActorID == uuid.Nil {
		return types.Unauthenticated(op)
	}
	if in.SourceID == uuid.Nil || in.TargetID == uuid.Nil {
		return types.Invalid(op, "source and target entity ids are required")
	}
	if _, ok := types.ParseLinkType(string(in.LinkType)); !ok {
		return types.Invalid(op, "invalid link type %q", in.LinkType)
	}
	return nil
}
