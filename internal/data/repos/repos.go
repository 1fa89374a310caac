package repos

import (
	"github.com/yungbote/weave-backend/internal/data/repos/chat"
	"github.com/yungbote/weave-backend/internal/data/repos/entities"
	"github.com/yungbote/weave-backend/internal/data/repos/user"
)

type ThreadRepo = chat.ThreadRepo
type ParticipantRepo = chat.ParticipantRepo
type MessageRepo = chat.MessageRepo
type GroupRepo = chat.GroupRepo

type EntityRepo = entities.EntityRepo
type RelationshipRepo = entities.RelationshipRepo
type LibraryFilter = entities.LibraryFilter

type UserRepo = user.UserRepo
type NotificationRepo = user.NotificationRepo

var (
	NewThreadRepo       = chat.NewThreadRepo
	NewParticipantRepo  = chat.NewParticipantRepo
	NewMessageRepo      = chat.NewMessageRepo
	NewGroupRepo        = chat.NewGroupRepo
	NewEntityRepo       = entities.NewEntityRepo
	NewRelationshipRepo = entities.NewRelationshipRepo
	NewUserRepo         = user.NewUserRepo
	NewNotificationRepo = user.NewNotificationRepo
)

const (
	SortRecent     = chat.SortRecent
	SortAttention  = chat.SortAttention
	SortUnresolved = chat.SortUnresolved
)
