package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/weave-backend/internal/http/response"
	types "github.com/yungbote/weave-backend/internal/domain"
	"github.com/yungbote/weave-backend/internal/services"
)

type MessageHandler struct {
	messages services.MessageService
}

func NewMessageHandler(messages services.MessageService) *MessageHandler {
	return &MessageHandler{messages: messages}
}

type sendMessageReq struct {
	ThreadID    uuid.UUID          `json:"threadId" binding:"required"`
	Type        string             `json:"type"`
	Content     string             `json:"content"`
	AudioURL    *string            `json:"audioUrl"`
	Waveform    []float64          `json:"waveform"`
	Attachments []types.Attachment `json:"attachments"`
}

// POST /api/v1/messages
func (h *MessageHandler) Send(c *gin.Context) {
	var req sendMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	in := services.SendMessageInput{
		ThreadID: req.ThreadID,
		Type:     req.Type,
		Content:  req.Content,
		AudioURL: req.AudioURL,
	}
	if len(req.Waveform) > 0 {
		in.Waveform = mustJSON(req.Waveform)
	}
	if len(req.Attachments) > 0 {
		in.Attachments = mustJSON(req.Attachments)
	}
	res, err := h.messages.Send(c.Request.Context(), in)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondCreated(c, res)
}

// GET /api/v1/threads/:id/messages?limit=200
func (h *MessageHandler) ListByThread(c *gin.Context) {
	threadID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	msgs, err := h.messages.ListByThread(c.Request.Context(), threadID, queryInt(c, "limit", 200))
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"messages": msgs})
}

func mustJSON(v any) datatypes.JSON {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return datatypes.JSON(b)
}
