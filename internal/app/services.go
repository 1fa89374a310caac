package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/weave-backend/internal/data/aggregates"
	"github.com/yungbote/weave-backend/internal/extraction"
	"github.com/yungbote/weave-backend/internal/observability"
	"github.com/yungbote/weave-backend/internal/platform/logger"
	"github.com/yungbote/weave-backend/internal/realtime"
	"github.com/yungbote/weave-backend/internal/services"
)

type Services struct {
	Auth         services.AuthService
	User         services.UserService
	Dispatcher   services.Dispatcher
	Message      services.MessageService
	Thread       services.ThreadService
	Entity       services.EntityService
	Relationship services.RelationshipService
	Notification services.NotificationService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, repos Repos, clients Clients, registry *realtime.Registry, metrics *observability.Metrics) Services {
	log.Info("Wiring services...")

	base := aggregates.BaseDeps{DB: db, Log: log, Hooks: aggregates.NewObservabilityHooks(metrics)}

	// With a bus every instance's forwarder delivers; without one, deliver locally.
	var emit services.Emitter = &services.RegistryEmitter{Registry: registry}
	if clients.Bus != nil {
		emit = &services.BusEmitter{Bus: clients.Bus, Timeout: cfg.Redis.PublishTimeout}
	}
	dispatch := services.NewDispatcher(log, emit, repos.Participant, metrics, clients.Bus != nil)

	messageAgg := aggregates.NewMessageAggregate(aggregates.MessageAggregateDeps{
		Base:         base,
		Threads:      repos.Thread,
		Participants: repos.Participant,
		Messages:     repos.Message,
		Entities:     repos.Entity,
		Extractor:    extraction.NewRules(),
	})
	threadAgg := aggregates.NewThreadAggregate(aggregates.ThreadAggregateDeps{
		Base:         base,
		Groups:       repos.Group,
		Threads:      repos.Thread,
		Participants: repos.Participant,
	})
	entityAgg := aggregates.NewEntityAggregate(aggregates.EntityAggregateDeps{
		Base:         base,
		Threads:      repos.Thread,
		Participants: repos.Participant,
		Entities:     repos.Entity,
	})
	linkAgg := aggregates.NewLinkAggregate(aggregates.LinkAggregateDeps{
		Base:          base,
		Entities:      repos.Entity,
		Relationships: repos.Relationship,
	})

	message := services.NewMessageService(log, messageAgg, repos.Message, repos.Participant, dispatch, metrics)
	return Services{
		Auth:         services.NewAuthService(log, cfg.JWTSecretKey),
		User:         services.NewUserService(log, repos.User),
		Dispatcher:   dispatch,
		Message:      message,
		Thread:       services.NewThreadService(log, threadAgg, repos.Thread, repos.Participant, message, dispatch),
		Entity:       services.NewEntityService(log, entityAgg, repos.Entity, repos.Participant, dispatch),
		Relationship: services.NewRelationshipService(log, linkAgg, repos.Entity, repos.Relationship, clients.Graph, metrics),
		Notification: services.NewNotificationService(log, repos.Notification, dispatch),
	}
}
