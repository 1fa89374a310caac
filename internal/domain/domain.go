package domain

import (
	"github.com/yungbote/weave-backend/internal/domain/chat"
	"github.com/yungbote/weave-backend/internal/domain/entities"
	"github.com/yungbote/weave-backend/internal/domain/user"
)

type (
	Thread            = chat.Thread
	ThreadStatus      = chat.ThreadStatus
	ThreadParticipant = chat.ThreadParticipant
	Message           = chat.Message
	MessageType       = chat.MessageType
	MessageEntity     = chat.MessageEntity
	Attachment        = chat.Attachment
	Group             = chat.Group
	GroupMember       = chat.GroupMember

	Entity               = entities.Entity
	EntityType           = entities.EntityType
	EntityStatus         = entities.EntityStatus
	EntityMetadata       = entities.Metadata
	Relationship         = entities.Relationship
	ResolvedRelationship = entities.ResolvedRelationship
	LinkType             = entities.LinkType

	User             = user.User
	Notification     = user.Notification
	NotificationType = user.NotificationType
)

const (
	ThreadOpen     = chat.ThreadOpen
	ThreadBlocked  = chat.ThreadBlocked
	ThreadResolved = chat.ThreadResolved
	ThreadArchived = chat.ThreadArchived

	MessageText  = chat.MessageText
	MessageVoice = chat.MessageVoice

	EntityPlan           = entities.TypePlan
	EntityDecision       = entities.TypeDecision
	EntityRecommendation = entities.TypeRecommendation
	EntityPromise        = entities.TypePromise
	EntityMemory         = entities.TypeMemory

	StatusProposed  = entities.StatusProposed
	StatusConfirmed = entities.StatusConfirmed
	StatusChanged   = entities.StatusChanged
	StatusCancelled = entities.StatusCancelled
	StatusDone      = entities.StatusDone
	StatusPending   = entities.StatusPending
	StatusResolved  = entities.StatusResolved

	LinkBlocks       = entities.LinkBlocks
	LinkRelatesTo    = entities.LinkRelatesTo
	LinkChildOf      = entities.LinkChildOf
	LinkDependsOn    = entities.LinkDependsOn
	LinkReferencedIn = entities.LinkReferencedIn
	LinkSimilarTo    = entities.LinkSimilarTo

	NotificationNudge        = user.NotificationNudge
	NotificationMemory       = user.NotificationMemory
	NotificationEntityUpdate = user.NotificationEntityUpdate
)

var (
	ParseThreadStatus     = chat.ParseThreadStatus
	ParseMessageType      = chat.ParseMessageType
	ParseEntityType       = entities.ParseEntityType
	ParseEntityStatus     = entities.ParseEntityStatus
	ParseLinkType         = entities.ParseLinkType
	ParseNotificationType = user.ParseNotificationType
	TerminalStatuses      = entities.TerminalStatuses
)

// Models lists every persisted table, in migration order.
func Models() []any {
	return []any{
		&User{},
		&Group{},
		&GroupMember{},
		&Thread{},
		&ThreadParticipant{},
		&Message{},
		&MessageEntity{},
		&Entity{},
		&Relationship{},
		&Notification{},
	}
}
