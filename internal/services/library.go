package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/weave-backend/internal/data/repos"
	types "github.com/yungbote/weave-backend/internal/domain"
	"github.com/yungbote/weave-backend/internal/platform/dbctx"
)

// LibraryQuery filters the actor's entities. Types and Statuses accept
// comma separated values; "all" or empty means no filter.
type LibraryQuery struct {
	Types     string
	Statuses  string
	OwnerID   *uuid.UUID
	Timeframe string
}

type TypeCounts struct {
	Total      int `json:"total"`
	Unresolved int `json:"unresolved"`
}

type LibraryResult struct {
	Entities []*types.Entity       `json:"entities"`
	Total    int                   `json:"total"`
	Counts   map[string]TypeCounts `json:"counts"`
}

var libraryTypes = []types.EntityType{
	types.EntityPlan,
	types.EntityDecision,
	types.EntityRecommendation,
	types.EntityPromise,
	types.EntityMemory,
}

// timeframeSince maps day/week/month to a lower bound; anything else is all time.
func timeframeSince(raw string, now time.Time) *time.Time {
	var d time.Duration
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "day":
		d = 24 * time.Hour
	case "week":
		d = 7 * 24 * time.Hour
	case "month":
		d = 30 * 24 * time.Hour
	default:
		return nil
	}
	since := now.Add(-d)
	return &since
}

func splitFilter(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "all") {
		return nil
	}
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func emptyLibrary() *LibraryResult {
	return &LibraryResult{Entities: []*types.Entity{}, Counts: libraryCounts(nil)}
}

func libraryCounts(rows []*types.Entity) map[string]TypeCounts {
	counts := make(map[string]TypeCounts, len(libraryTypes))
	for _, t := range libraryTypes {
		counts[strings.ToLower(string(t))] = TypeCounts{}
	}
	for _, e := range rows {
		key := strings.ToLower(string(e.Type))
		c := counts[key]
		c.Total++
		if !e.Status.Terminal() {
			c.Unresolved++
		}
		counts[key] = c
	}
	return counts
}

// QueryLibrary lists the actor's entities. Unknown type or status values
// match nothing and yield an empty result rather than an error. Another
// user's library is never readable, so a foreign ownerId is empty too.
func (s *entityService) QueryLibrary(ctx context.Context, q LibraryQuery) (*LibraryResult, error) {
	const op = "Entity.QueryLibrary"
	actor, err := actorFrom(ctx, op)
	if err != nil {
		return nil, err
	}
	if q.OwnerID != nil && *q.OwnerID != actor {
		return emptyLibrary(), nil
	}

	var f repos.LibraryFilter
	for _, raw := range splitFilter(q.Types) {
		t, ok := types.ParseEntityType(raw)
		if !ok {
			s.log.Debug("library query with unknown type", "type", raw)
			return emptyLibrary(), nil
		}
		f.Types = append(f.Types, t)
	}
	for _, raw := range splitFilter(q.Statuses) {
		st, ok := types.ParseEntityStatus(raw)
		if !ok {
			s.log.Debug("library query with unknown status", "status", raw)
			return emptyLibrary(), nil
		}
		f.Statuses = append(f.Statuses, st)
	}
	f.Since = timeframeSince(q.Timeframe, s.now())

	rows, err := s.entities.ListByOwner(dbctx.Context{Ctx: ctx}, actor, f)
	if err != nil {
		return nil, types.Wrap(types.CodeInternal, op, err)
	}
	if rows == nil {
		rows = []*types.Entity{}
	}
	return &LibraryResult{Entities: rows, Total: len(rows), Counts: libraryCounts(rows)}, nil
}
