package entities

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type LinkType string

const (
	LinkBlocks       LinkType = "BLOCKS"
	LinkRelatesTo    LinkType = "RELATES_TO"
	LinkChildOf      LinkType = "CHILD_OF"
	LinkDependsOn    LinkType = "DEPENDS_ON"
	LinkReferencedIn LinkType = "REFERENCED_IN"
	LinkSimilarTo    LinkType = "SIMILAR_TO"
)

func ParseLinkType(raw string) (LinkType, bool) {
	switch t := LinkType(strings.ToUpper(strings.TrimSpace(raw))); t {
	case LinkBlocks, LinkRelatesTo, LinkChildOf, LinkDependsOn, LinkReferencedIn, LinkSimilarTo:
		return t, true
	default:
		return "", false
	}
}

// Relationship is a directed source -> target edge. The (source, target,
// link type) triple is unique.
type Relationship struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SourceID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_entity_relationship_triple;index" json:"sourceEntityId"`
	TargetID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_entity_relationship_triple;index" json:"targetEntityId"`
	LinkType  LinkType  `gorm:"column:link_type;not null;uniqueIndex:idx_entity_relationship_triple" json:"linkType"`
	CreatedAt time.Time `gorm:"not null;index" json:"createdAt"`
}

func (Relationship) TableName() string { return "entity_relationship" }

// ResolvedRelationship carries both endpoints so callers can render either
// side without another lookup.
type ResolvedRelationship struct {
	ID        uuid.UUID `json:"id"`
	LinkType  LinkType  `json:"linkType"`
	Source    *Entity   `json:"sourceEntity"`
	Target    *Entity   `json:"targetEntity"`
	CreatedAt time.Time `json:"createdAt"`
}
