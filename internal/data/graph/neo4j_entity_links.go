package graph

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	types "github.com/yungbote/weave-backend/internal/domain"
	"github.com/yungbote/weave-backend/internal/platform/logger"
	"github.com/yungbote/weave-backend/internal/platform/neo4jdb"
)

var entityLinkSchema = []string{
	`CREATE CONSTRAINT extracted_entity_id_unique IF NOT EXISTS FOR (e:ExtractedEntity) REQUIRE e.id IS UNIQUE`,
	`CREATE CONSTRAINT chat_thread_id_unique IF NOT EXISTS FOR (t:Thread) REQUIRE t.id IS UNIQUE`,
}

// UpsertEntityLink mirrors one relationship and both of its endpoints into
// Neo4j. The relational store stays the source of truth; a nil client is a
// no-op.
func UpsertEntityLink(ctx context.Context, client *neo4jdb.Client, log *logger.Logger, rel *types.Relationship, src, dst *types.Entity) error {
	if client == nil || client.Driver == nil {
		return nil
	}
	if rel == nil || src == nil || dst == nil || rel.ID == uuid.Nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	session := client.WriteSession(ctx)
	defer session.Close(ctx)

	ensureSchema(ctx, session, log)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
UNWIND $nodes AS n
MERGE (e:ExtractedEntity {id: n.id})
SET e += n
WITH e, n
MERGE (t:Thread {id: n.thread_id})
MERGE (t)-[x:HAS_ENTITY]->(e)
SET x.synced_at = n.synced_at
`, map[string]any{"nodes": []map[string]any{entityNode(src, now), entityNode(dst, now)}})
		if err != nil {
			return nil, err
		}
		if _, err := res.Consume(ctx); err != nil {
			return nil, err
		}

		res, err = tx.Run(ctx, `
MATCH (s:ExtractedEntity {id: $source_id})
MATCH (d:ExtractedEntity {id: $target_id})
MERGE (s)-[l:LINKED {link_type: $link_type}]->(d)
SET l.id = $id, l.created_at = $created_at, l.synced_at = $synced_at
`, linkParams(rel, now))
		if err != nil {
			return nil, err
		}
		_, err = res.Consume(ctx)
		return nil, err
	})
	return err
}

// DeleteEntityLink removes every mirrored edge for the triple.
func DeleteEntityLink(ctx context.Context, client *neo4jdb.Client, sourceID, targetID uuid.UUID, linkType types.LinkType) error {
	if client == nil || client.Driver == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	session := client.WriteSession(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MATCH (:ExtractedEntity {id: $source_id})-[l:LINKED {link_type: $link_type}]->(:ExtractedEntity {id: $target_id})
DELETE l
`, map[string]any{
			"source_id": sourceID.String(),
			"target_id": targetID.String(),
			"link_type": strings.ToUpper(string(linkType)),
		})
		if err != nil {
			return nil, err
		}
		_, err = res.Consume(ctx)
		return nil, err
	})
	return err
}

func ensureSchema(ctx context.Context, session neo4j.SessionWithContext, log *logger.Logger) {
	for _, q := range entityLinkSchema {
		res, err := session.Run(ctx, q, nil)
		if err != nil {
			if log != nil {
				log.Warn("neo4j schema init failed (continuing)", "error", err)
			}
			continue
		}
		_, _ = res.Consume(ctx)
	}
}

func entityNode(e *types.Entity, syncedAt string) map[string]any {
	return map[string]any{
		"id":         e.ID.String(),
		"thread_id":  e.ThreadID.String(),
		"owner_id":   e.OwnerID.String(),
		"type":       string(e.Type),
		"status":     string(e.Status),
		"title":      strings.TrimSpace(e.Title),
		"importance": e.ImportanceScore,
		"updated_at": e.UpdatedAt.UTC().Format(time.RFC3339Nano),
		"synced_at":  syncedAt,
	}
}

func linkParams(rel *types.Relationship, syncedAt string) map[string]any {
	return map[string]any{
		"id":         rel.ID.String(),
		"source_id":  rel.SourceID.String(),
		"target_id":  rel.TargetID.String(),
		"link_type":  strings.ToUpper(string(rel.LinkType)),
		"created_at": rel.CreatedAt.UTC().Format(time.RFC3339Nano),
		"synced_at":  syncedAt,
	}
}
