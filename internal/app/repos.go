package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/weave-backend/internal/data/repos"
	"github.com/yungbote/weave-backend/internal/platform/logger"
)

type Repos struct {
	User         repos.UserRepo
	Group        repos.GroupRepo
	Thread       repos.ThreadRepo
	Participant  repos.ParticipantRepo
	Message      repos.MessageRepo
	Entity       repos.EntityRepo
	Relationship repos.RelationshipRepo
	Notification repos.NotificationRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:         repos.NewUserRepo(db, log),
		Group:        repos.NewGroupRepo(db, log),
		Thread:       repos.NewThreadRepo(db, log),
		Participant:  repos.NewParticipantRepo(db, log),
		Message:      repos.NewMessageRepo(db, log),
		Entity:       repos.NewEntityRepo(db, log),
		Relationship: repos.NewRelationshipRepo(db, log),
		Notification: repos.NewNotificationRepo(db, log),
	}
}
