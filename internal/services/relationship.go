package services

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/weave-backend/internal/data/aggregates"
	"github.com/yungbote/weave-backend/internal/data/graph"
	"github.com/yungbote/weave-backend/internal/data/repos"
	types "github.com/yungbote/weave-backend/internal/domain"
	"github.com/yungbote/weave-backend/internal/observability"
	"github.com/yungbote/weave-backend/internal/platform/dbctx"
	"github.com/yungbote/weave-backend/internal/platform/logger"
	"github.com/yungbote/weave-backend/internal/platform/neo4jdb"
)

type Direction string

const (
	DirectionOut  Direction = "out"
	DirectionIn   Direction = "in"
	DirectionBoth Direction = "both"
)

// ParseDirection accepts out/outgoing, in/incoming and both; empty means both.
func ParseDirection(raw string) (Direction, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "both":
		return DirectionBoth, true
	case "out", "outgoing":
		return DirectionOut, true
	case "in", "incoming":
		return DirectionIn, true
	default:
		return "", false
	}
}

// RelationshipService manages directed, typed links between entities that
// all belong to the acting user.
type RelationshipService interface {
	CreateLink(ctx context.Context, sourceID, targetID uuid.UUID, linkType string) (*types.Relationship, error)
	DeleteLink(ctx context.Context, sourceID, targetID uuid.UUID, linkType string) (int64, error)
	RelationshipsOf(ctx context.Context, entityID uuid.UUID, direction Direction) ([]*types.ResolvedRelationship, error)
}

type relationshipService struct {
	log      *logger.Logger
	agg      aggregates.LinkAggregate
	entities repos.EntityRepo
	rels     repos.RelationshipRepo
	graph    *neo4jdb.Client
	metrics  *observability.Metrics
}

func NewRelationshipService(
	log *logger.Logger,
	agg aggregates.LinkAggregate,
	entities repos.EntityRepo,
	rels repos.RelationshipRepo,
	graphClient *neo4jdb.Client,
	metrics *observability.Metrics,
) RelationshipService {
	return &relationshipService{
		log:      log.With("service", "RelationshipService"),
		agg:      agg,
		entities: entities,
		rels:     rels,
		graph:    graphClient,
		metrics:  metrics,
	}
}

func (s *relationshipService) CreateLink(ctx context.Context, sourceID, targetID uuid.UUID, linkType string) (*types.Relationship, error) {
	const op = "Relationship.CreateLink"
	actor, err := actorFrom(ctx, op)
	if err != nil {
		return nil, err
	}
	lt, ok := types.ParseLinkType(linkType)
	if !ok {
		return nil, types.Invalid(op, "invalid link type %q", linkType)
	}
	rel, err := s.agg.Create(ctx, aggregates.LinkInput{SourceID: sourceID, TargetID: targetID, LinkType: lt, ActorID: actor})
	if err != nil {
		s.metrics.IncLinkOperation("create", string(types.CodeOf(err)))
		return nil, err
	}
	s.metrics.IncLinkOperation("create", "success")
	s.mirrorCreate(ctx, rel)
	return rel, nil
}

func (s *relationshipService) DeleteLink(ctx context.Context, sourceID, targetID uuid.UUID, linkType string) (int64, error) {
	const op = "Relationship.DeleteLink"
	actor, err := actorFrom(ctx, op)
	if err != nil {
		return 0, err
	}
	lt, ok := types.ParseLinkType(linkType)
	if !ok {
		return 0, types.Invalid(op, "invalid link type %q", linkType)
	}
	n, err := s.agg.Delete(ctx, aggregates.LinkInput{SourceID: sourceID, TargetID: targetID, LinkType: lt, ActorID: actor})
	if err != nil {
		s.metrics.IncLinkOperation("delete", string(types.CodeOf(err)))
		return 0, err
	}
	s.metrics.IncLinkOperation("delete", "success")
	if n > 0 {
		if err := graph.DeleteEntityLink(ctx, s.graph, sourceID, targetID, lt); err != nil {
			s.log.Warn("graph mirror delete failed", "source_id", sourceID, "target_id", targetID, "error", err)
		}
	}
	return n, nil
}

// RelationshipsOf returns links touching entityID with both endpoints
// loaded, ordered by creation time then id.
func (s *relationshipService) RelationshipsOf(ctx context.Context, entityID uuid.UUID, direction Direction) ([]*types.ResolvedRelationship, error) {
	const op = "Relationship.RelationshipsOf"
	actor, err := actorFrom(ctx, op)
	if err != nil {
		return nil, err
	}
	if direction == "" {
		direction = DirectionBoth
	}
	dbc := dbctx.Context{Ctx: ctx}
	root, err := s.entities.GetByID(dbc, entityID)
	if err != nil {
		return nil, types.Wrap(types.CodeInternal, op, err)
	}
	if root == nil {
		return nil, types.NotFound(op, "entity not found: %s", entityID)
	}
	if root.OwnerID != actor {
		return nil, types.Forbidden(op, "actor does not own entity %s", entityID)
	}

	var rows []*types.Relationship
	if direction == DirectionOut || direction == DirectionBoth {
		out, err := s.rels.ListBySource(dbc, entityID)
		if err != nil {
			return nil, types.Wrap(types.CodeInternal, op, err)
		}
		rows = append(rows, out...)
	}
	if direction == DirectionIn || direction == DirectionBoth {
		in, err := s.rels.ListByTarget(dbc, entityID)
		if err != nil {
			return nil, types.Wrap(types.CodeInternal, op, err)
		}
		for _, r := range in {
			// Self-links already came back as outgoing.
			if direction == DirectionBoth && r.SourceID == entityID {
				continue
			}
			rows = append(rows, r)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].CreatedAt.Before(rows[j].CreatedAt)
		}
		return rows[i].ID.String() < rows[j].ID.String()
	})

	ids := make([]uuid.UUID, 0, len(rows)*2)
	for _, r := range rows {
		ids = append(ids, r.SourceID, r.TargetID)
	}
	ents, err := s.entities.GetByIDs(dbc, ids)
	if err != nil {
		return nil, types.Wrap(types.CodeInternal, op, err)
	}
	byID := make(map[uuid.UUID]*types.Entity, len(ents))
	for _, e := range ents {
		byID[e.ID] = e
	}

	out := make([]*types.ResolvedRelationship, 0, len(rows))
	for _, r := range rows {
		out = append(out, &types.ResolvedRelationship{
			ID:        r.ID,
			LinkType:  r.LinkType,
			Source:    byID[r.SourceID],
			Target:    byID[r.TargetID],
			CreatedAt: r.CreatedAt,
		})
	}
	return out, nil
}

func (s *relationshipService) mirrorCreate(ctx context.Context, rel *types.Relationship) {
	if s.graph == nil || rel == nil {
		return
	}
	dbc := dbctx.Context{Ctx: ctx}
	ents, err := s.entities.GetByIDs(dbc, []uuid.UUID{rel.SourceID, rel.TargetID})
	if err != nil {
		s.log.Warn("graph mirror skipped; endpoint lookup failed", "relationship_id", rel.ID, "error", err)
		return
	}
	var src, dst *types.Entity
	for _, e := range ents {
		if e.ID == rel.SourceID {
			src = e
		}
		if e.ID == rel.TargetID {
			dst = e
		}
	}
	if err := graph.UpsertEntityLink(ctx, s.graph, s.log, rel, src, dst); err != nil {
		s.log.Warn("graph mirror upsert failed", "relationship_id", rel.ID, "error", err)
	}
}
