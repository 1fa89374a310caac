package user

import (
	"time"

	"github.com/google/uuid"
)

// User is provisioned by the identity provider; the core only reads it.
type User struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	DisplayName string    `gorm:"column:display_name;not null" json:"displayName"`
	Email       string    `gorm:"column:email;uniqueIndex" json:"email,omitempty"`
	AvatarURL   string    `gorm:"column:avatar_url" json:"avatarUrl,omitempty"`
	CreatedAt   time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt   time.Time `gorm:"not null" json:"updatedAt"`
}

func (User) TableName() string { return "app_user" }
