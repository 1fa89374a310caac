package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/weave-backend/internal/http/response"
	"github.com/yungbote/weave-backend/internal/services"
)

type ThreadHandler struct {
	threads  services.ThreadService
	entities services.EntityService
}

func NewThreadHandler(threads services.ThreadService, entities services.EntityService) *ThreadHandler {
	return &ThreadHandler{threads: threads, entities: entities}
}

type createThreadReq struct {
	Title          string      `json:"title"`
	ParticipantIDs []uuid.UUID `json:"participantIds"`
	InitialContent string      `json:"initialContent"`
}

// POST /api/v1/threads
func (h *ThreadHandler) Create(c *gin.Context) {
	var req createThreadReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	th, err := h.threads.Create(c.Request.Context(), services.CreateThreadInput{
		Title:          req.Title,
		ParticipantIDs: req.ParticipantIDs,
		InitialContent: req.InitialContent,
	})
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"thread": th})
}

// GET /api/v1/threads?sort=recent|attention|unresolved&limit=100
func (h *ThreadHandler) List(c *gin.Context) {
	threads, err := h.threads.List(c.Request.Context(), c.Query("sort"), queryInt(c, "limit", 100))
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"threads": threads})
}

// GET /api/v1/threads/:id
func (h *ThreadHandler) Get(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	th, err := h.threads.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"thread": th})
}

// POST /api/v1/threads/:id/read
func (h *ThreadHandler) MarkRead(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	th, err := h.threads.MarkRead(c.Request.Context(), id)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"thread": th})
}

type statusReq struct {
	Status          string `json:"status" binding:"required"`
	ExpectedVersion *int   `json:"expectedVersion"`
}

// PUT /api/v1/threads/:id/status
func (h *ThreadHandler) UpdateStatus(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req statusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	th, err := h.threads.UpdateStatus(c.Request.Context(), id, req.Status, req.ExpectedVersion)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"thread": th})
}

// GET /api/v1/threads/:id/entities
func (h *ThreadHandler) ListEntities(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	ents, err := h.entities.ListByThread(c.Request.Context(), id)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"entities": ents})
}
