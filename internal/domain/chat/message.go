package chat

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type MessageType string

const (
	MessageText  MessageType = "TEXT"
	MessageVoice MessageType = "VOICE"
)

// ParseMessageType defaults an empty value to TEXT.
func ParseMessageType(raw string) (MessageType, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return MessageText, true
	}
	switch t := MessageType(strings.ToUpper(raw)); t {
	case MessageText, MessageVoice:
		return t, true
	default:
		return "", false
	}
}

type Attachment struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	Type     string `json:"type"`
}

// Message is immutable once written; only its entity links grow.
type Message struct {
	ID       uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	ThreadID uuid.UUID   `gorm:"type:uuid;not null;index:idx_message_thread_ts" json:"threadId"`
	SenderID uuid.UUID   `gorm:"type:uuid;not null;index" json:"senderId"`
	Type     MessageType `gorm:"column:type;not null;default:'TEXT'" json:"type"`
	Content  string      `gorm:"column:content;type:text" json:"content"`

	AudioURL    *string        `gorm:"column:audio_url" json:"audioUrl,omitempty"`
	Waveform    datatypes.JSON `gorm:"column:waveform;type:jsonb" json:"waveform,omitempty"`
	Attachments datatypes.JSON `gorm:"column:attachments;type:jsonb" json:"fileAttachments,omitempty"`

	Timestamp time.Time `gorm:"column:timestamp;not null;index:idx_message_thread_ts" json:"timestamp"`

	EntityIDs []uuid.UUID `gorm:"-" json:"entities"`
}

func (Message) TableName() string { return "message" }

// MessageEntity links a message to an entity extracted from it.
type MessageEntity struct {
	MessageID uuid.UUID `gorm:"type:uuid;primaryKey" json:"messageId"`
	EntityID  uuid.UUID `gorm:"type:uuid;primaryKey;index" json:"entityId"`
	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
}

func (MessageEntity) TableName() string { return "message_entity" }
