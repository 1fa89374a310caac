package app

import (
	"github.com/gin-gonic/gin"

	weavehttp "github.com/yungbote/weave-backend/internal/http"
	httpH "github.com/yungbote/weave-backend/internal/http/handlers"
	httpMW "github.com/yungbote/weave-backend/internal/http/middleware"
	"github.com/yungbote/weave-backend/internal/observability"
	"github.com/yungbote/weave-backend/internal/platform/logger"
	"github.com/yungbote/weave-backend/internal/realtime"
)

type Middleware struct {
	Auth        *httpMW.AuthMiddleware
	SendLimiter *httpMW.RateLimiter
}

type Handlers struct {
	Health       *httpH.HealthHandler
	User         *httpH.UserHandler
	Stream       *httpH.StreamHandler
	Message      *httpH.MessageHandler
	Thread       *httpH.ThreadHandler
	Entity       *httpH.EntityHandler
	Relationship *httpH.RelationshipHandler
	Notification *httpH.NotificationHandler
}

func wireHandlers(log *logger.Logger, services Services, registry *realtime.Registry) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:       httpH.NewHealthHandler(),
		User:         httpH.NewUserHandler(services.User),
		Stream:       httpH.NewStreamHandler(log, registry),
		Message:      httpH.NewMessageHandler(services.Message),
		Thread:       httpH.NewThreadHandler(services.Thread, services.Entity),
		Entity:       httpH.NewEntityHandler(services.Entity),
		Relationship: httpH.NewRelationshipHandler(services.Relationship),
		Notification: httpH.NewNotificationHandler(services.Notification),
	}
}

func wireMiddleware(log *logger.Logger, cfg Config, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth:        httpMW.NewAuthMiddleware(log, services.Auth),
		SendLimiter: httpMW.NewRateLimiter(cfg.RateLimit),
	}
}

func wireRouter(log *logger.Logger, cfg Config, metrics *observability.Metrics, handlers Handlers, middleware Middleware) *gin.Engine {
	serviceName := ""
	if cfg.Otel.Enabled {
		serviceName = cfg.ServiceName
	}
	return weavehttp.NewRouter(weavehttp.RouterConfig{
		Log:                 log,
		ServiceName:         serviceName,
		CORSOrigins:         cfg.CORSOrigins,
		Metrics:             metrics,
		AuthMiddleware:      middleware.Auth,
		SendLimiter:         middleware.SendLimiter,
		HealthHandler:       handlers.Health,
		UserHandler:         handlers.User,
		StreamHandler:       handlers.Stream,
		MessageHandler:      handlers.Message,
		ThreadHandler:       handlers.Thread,
		EntityHandler:       handlers.Entity,
		RelationshipHandler: handlers.Relationship,
		NotificationHandler: handlers.Notification,
	})
}
