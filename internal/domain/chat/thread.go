package chat

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type ThreadStatus string

const (
	ThreadOpen     ThreadStatus = "OPEN"
	ThreadBlocked  ThreadStatus = "BLOCKED"
	ThreadResolved ThreadStatus = "RESOLVED"
	ThreadArchived ThreadStatus = "ARCHIVED"
)

// ParseThreadStatus accepts any casing and reports whether the value is known.
func ParseThreadStatus(raw string) (ThreadStatus, bool) {
	switch s := ThreadStatus(strings.ToUpper(strings.TrimSpace(raw))); s {
	case ThreadOpen, ThreadBlocked, ThreadResolved, ThreadArchived:
		return s, true
	default:
		return "", false
	}
}

// Thread is a conversation scoped to a group. UnresolvedCount always mirrors
// the number of non-terminal entities extracted in the thread.
type Thread struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	GroupID uuid.UUID `gorm:"type:uuid;not null;index" json:"groupId"`

	Title           string       `gorm:"column:title;not null" json:"title"`
	LastActivity    time.Time    `gorm:"column:last_activity;not null;index" json:"lastActivity"`
	UnreadCount     int          `gorm:"column:unread_count;not null;default:0" json:"unreadCount"`
	ImportanceScore float64      `gorm:"column:importance_score;not null;default:0" json:"importanceScore"`
	UnresolvedCount int          `gorm:"column:unresolved_count;not null;default:0" json:"unresolvedCount"`
	Status          ThreadStatus `gorm:"column:status;not null;default:'OPEN';index" json:"status"`
	Version         int          `gorm:"column:version;not null;default:0" json:"version"`

	CreatedAt time.Time `gorm:"not null;index" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`

	Participants []uuid.UUID `gorm:"-" json:"participants,omitempty"`
}

func (Thread) TableName() string { return "thread" }

type ThreadParticipant struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ThreadID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_thread_participant" json:"threadId"`
	UserID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_thread_participant;index" json:"userId"`
	JoinedAt time.Time `gorm:"not null" json:"joinedAt"`
}

func (ThreadParticipant) TableName() string { return "thread_participant" }
