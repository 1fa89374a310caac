package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/weave-backend/internal/http/handlers"
	httpMW "github.com/yungbote/weave-backend/internal/http/middleware"
	"github.com/yungbote/weave-backend/internal/observability"
	"github.com/yungbote/weave-backend/internal/platform/logger"
)

const streamRoute = "/api/v1/stream"

type RouterConfig struct {
	Log         *logger.Logger
	ServiceName string
	CORSOrigins []string
	Metrics     *observability.Metrics

	AuthMiddleware *httpMW.AuthMiddleware
	SendLimiter    *httpMW.RateLimiter

	HealthHandler       *httpH.HealthHandler
	UserHandler         *httpH.UserHandler
	StreamHandler       *httpH.StreamHandler
	MessageHandler      *httpH.MessageHandler
	ThreadHandler       *httpH.ThreadHandler
	EntityHandler       *httpH.EntityHandler
	RelationshipHandler *httpH.RelationshipHandler
	NotificationHandler *httpH.NotificationHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS(cfg.CORSOrigins))
	r.Use(httpMW.Metrics(cfg.Metrics, streamRoute))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	protected := r.Group("/api/v1")
	if cfg.AuthMiddleware != nil {
		protected.Use(cfg.AuthMiddleware.RequireAuth())
	}

	// User (Me)
	if cfg.UserHandler != nil {
		protected.GET("/me", cfg.UserHandler.GetMe)
	}

	// Realtime (SSE)
	if cfg.StreamHandler != nil {
		protected.GET("/stream", cfg.StreamHandler.Stream)
		protected.GET("/stream/status", cfg.StreamHandler.Status)
	}

	// Messages
	if cfg.MessageHandler != nil {
		send := []gin.HandlerFunc{}
		if cfg.SendLimiter != nil {
			send = append(send, cfg.SendLimiter.Middleware())
		}
		send = append(send, cfg.MessageHandler.Send)
		protected.POST("/messages", send...)
		protected.GET("/threads/:id/messages", cfg.MessageHandler.ListByThread)
	}

	// Threads
	if cfg.ThreadHandler != nil {
		protected.GET("/threads", cfg.ThreadHandler.List)
		protected.POST("/threads", cfg.ThreadHandler.Create)
		protected.GET("/threads/:id", cfg.ThreadHandler.Get)
		protected.POST("/threads/:id/read", cfg.ThreadHandler.MarkRead)
		protected.PUT("/threads/:id/status", cfg.ThreadHandler.UpdateStatus)
		protected.GET("/threads/:id/entities", cfg.ThreadHandler.ListEntities)
	}

	// Entities
	if cfg.EntityHandler != nil {
		protected.GET("/entities/:id", cfg.EntityHandler.Get)
		protected.POST("/entities/:id/status", cfg.EntityHandler.UpdateStatus)
		protected.POST("/entities/:id/mark-decision", cfg.EntityHandler.MarkDecision)
		protected.POST("/entities/:id/save", cfg.EntityHandler.Save)
		protected.POST("/entities/:id/add-to-library", cfg.EntityHandler.AddToLibrary)
		protected.GET("/library", cfg.EntityHandler.QueryLibrary)
	}

	// Relationship graph
	if cfg.RelationshipHandler != nil {
		protected.POST("/entities/:id/links", cfg.RelationshipHandler.CreateLink)
		protected.DELETE("/entities/:id/links/:targetId", cfg.RelationshipHandler.DeleteLink)
		protected.GET("/entities/:id/relationships", cfg.RelationshipHandler.List)
		protected.GET("/entities/:id/relationships/outgoing", cfg.RelationshipHandler.Outgoing)
		protected.GET("/entities/:id/relationships/incoming", cfg.RelationshipHandler.Incoming)
	}

	// Notifications
	if cfg.NotificationHandler != nil {
		protected.GET("/notifications", cfg.NotificationHandler.List)
		protected.POST("/notifications/read-all", cfg.NotificationHandler.MarkAllRead)
		protected.POST("/notifications/:id/read", cfg.NotificationHandler.MarkRead)
	}

	return r
}
