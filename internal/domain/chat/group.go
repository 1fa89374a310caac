package chat

import (
	"time"

	"github.com/google/uuid"
)

type Group struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"column:name;not null" json:"name"`
	CreatedBy uuid.UUID `gorm:"type:uuid;not null;index" json:"createdBy"`
	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
}

func (Group) TableName() string { return "chat_group" }

type GroupMember struct {
	GroupID  uuid.UUID `gorm:"type:uuid;primaryKey" json:"groupId"`
	UserID   uuid.UUID `gorm:"type:uuid;primaryKey;index" json:"userId"`
	JoinedAt time.Time `gorm:"not null" json:"joinedAt"`
}

func (GroupMember) TableName() string { return "group_member" }
