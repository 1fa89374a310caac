package entities

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type EntityType string

const (
	TypePlan           EntityType = "PLAN"
	TypeDecision       EntityType = "DECISION"
	TypeRecommendation EntityType = "RECOMMENDATION"
	TypePromise        EntityType = "PROMISE"
	TypeMemory         EntityType = "MEMORY"
)

func ParseEntityType(raw string) (EntityType, bool) {
	switch t := EntityType(strings.ToUpper(strings.TrimSpace(raw))); t {
	case TypePlan, TypeDecision, TypeRecommendation, TypePromise, TypeMemory:
		return t, true
	default:
		return "", false
	}
}

type EntityStatus string

const (
	StatusProposed  EntityStatus = "PROPOSED"
	StatusConfirmed EntityStatus = "CONFIRMED"
	StatusChanged   EntityStatus = "CHANGED"
	StatusCancelled EntityStatus = "CANCELLED"
	StatusDone      EntityStatus = "DONE"
	StatusPending   EntityStatus = "PENDING"
	StatusResolved  EntityStatus = "RESOLVED"
)

// TerminalStatuses never count towards a thread's unresolved total.
var TerminalStatuses = []EntityStatus{StatusDone, StatusResolved}

func ParseEntityStatus(raw string) (EntityStatus, bool) {
	switch s := EntityStatus(strings.ToUpper(strings.TrimSpace(raw))); s {
	case StatusProposed, StatusConfirmed, StatusChanged, StatusCancelled, StatusDone, StatusPending, StatusResolved:
		return s, true
	default:
		return "", false
	}
}

func (s EntityStatus) Terminal() bool {
	for _, t := range TerminalStatuses {
		if s == t {
			return true
		}
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

// Metadata is the structured payload stored in Entity.Metadata.
type Metadata struct {
	Date         string   `json:"date,omitempty"`
	Time         string   `json:"time,omitempty"`
	Participants []string `json:"participants,omitempty"`
	Location     string   `json:"location,omitempty"`
	Priority     Priority `json:"priority,omitempty"`
	Tags         []string `json:"tags,omitempty"`
}

type Entity struct {
	ID          uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	Type        EntityType   `gorm:"column:type;not null;index" json:"type"`
	Title       string       `gorm:"column:title;not null" json:"title"`
	Description string       `gorm:"column:description;type:text" json:"description"`
	Status      EntityStatus `gorm:"column:status;not null;default:'PROPOSED';index" json:"status"`

	OwnerID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"ownerId"`
	ThreadID  uuid.UUID  `gorm:"type:uuid;not null;index" json:"threadId"`
	MessageID *uuid.UUID `gorm:"type:uuid;index" json:"messageId,omitempty"`

	Metadata        datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`
	ImportanceScore float64        `gorm:"column:importance_score;not null;default:0" json:"importanceScore"`
	LastTouchedBy   *uuid.UUID     `gorm:"type:uuid;column:last_touched_by" json:"lastTouchedBy,omitempty"`
	Version         int            `gorm:"column:version;not null;default:0" json:"version"`

	CreatedAt time.Time `gorm:"not null;index" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`
}

func (Entity) TableName() string { return "extracted_entity" }
