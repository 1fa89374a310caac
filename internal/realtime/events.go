package realtime

import "github.com/google/uuid"

type Event string

const (
	EventConnected       Event = "connected"
	EventMessageCreated  Event = "message_created"
	EventEntityExtracted Event = "entity_extracted"
	EventThreadUpdated   Event = "thread_updated"
	EventEntityUpdated   Event = "entity_updated"
	EventNotification    Event = "notification"
)

// Message is one named event bound for a user's stream. It doubles as the
// envelope published between instances, where an empty UserID means every
// live connection.
type Message struct {
	UserID uuid.UUID `json:"userId"`
	Event  Event     `json:"event"`
	Data   any       `json:"data,omitempty"`
}

func (m Message) Broadcast() bool { return m.UserID == uuid.Nil }
