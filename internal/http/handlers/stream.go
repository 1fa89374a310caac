package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/weave-backend/internal/http/response"
	"github.com/yungbote/weave-backend/internal/platform/ctxutil"
	"github.com/yungbote/weave-backend/internal/platform/logger"
	"github.com/yungbote/weave-backend/internal/realtime"
)

type StreamHandler struct {
	log      *logger.Logger
	registry *realtime.Registry
}

func NewStreamHandler(log *logger.Logger, registry *realtime.Registry) *StreamHandler {
	return &StreamHandler{log: log.With("handler", "StreamHandler"), registry: registry}
}

// GET /api/v1/stream
func (h *StreamHandler) Stream(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthenticated", errNotAuthenticated)
		return
	}
	conn := h.registry.Open(rd.UserID)
	h.log.Info("stream open", "user_id", rd.UserID, "conn", conn.ID)
	h.registry.Serve(c.Writer, c.Request, conn)
}

// GET /api/v1/stream/status
func (h *StreamHandler) Status(c *gin.Context) {
	response.RespondOK(c, gin.H{"activeConnections": h.registry.Count()})
}
