package user

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationNudge        NotificationType = "NUDGE"
	NotificationMemory       NotificationType = "MEMORY"
	NotificationEntityUpdate NotificationType = "ENTITY_UPDATE"
)

func ParseNotificationType(raw string) (NotificationType, bool) {
	switch t := NotificationType(strings.ToUpper(strings.TrimSpace(raw))); t {
	case NotificationNudge, NotificationMemory, NotificationEntityUpdate:
		return t, true
	default:
		return "", false
	}
}

type Notification struct {
	ID      uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	Type    NotificationType `gorm:"column:type;not null" json:"type"`
	Title   string           `gorm:"column:title;not null" json:"title"`
	Message string           `gorm:"column:message;type:text" json:"message"`

	UserID   uuid.UUID  `gorm:"type:uuid;not null;index:idx_notification_user_created" json:"userId"`
	ThreadID *uuid.UUID `gorm:"type:uuid" json:"threadId,omitempty"`
	EntityID *uuid.UUID `gorm:"type:uuid" json:"entityId,omitempty"`

	Read      bool       `gorm:"column:read;not null;default:false" json:"read"`
	ReadAt    *time.Time `gorm:"column:read_at" json:"readAt,omitempty"`
	CreatedAt time.Time  `gorm:"not null;index:idx_notification_user_created" json:"createdAt"`
}

func (Notification) TableName() string { return "notification" }
