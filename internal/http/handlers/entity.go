package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/weave-backend/internal/http/response"
	types "github.com/yungbote/weave-backend/internal/domain"
	"github.com/yungbote/weave-backend/internal/services"
)

type EntityHandler struct {
	entities services.EntityService
}

func NewEntityHandler(entities services.EntityService) *EntityHandler {
	return &EntityHandler{entities: entities}
}

// GET /api/v1/entities/:id
func (h *EntityHandler) Get(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	e, err := h.entities.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"entity": e})
}

// POST /api/v1/entities/:id/status
func (h *EntityHandler) UpdateStatus(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req statusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	e, err := h.entities.UpdateStatus(c.Request.Context(), id, req.Status, req.ExpectedVersion)
	h.respond(c, e, err)
}

type versionReq struct {
	ExpectedVersion *int `json:"expectedVersion"`
}

// POST /api/v1/entities/:id/mark-decision
func (h *EntityHandler) MarkDecision(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req versionReq
	// Body is optional.
	_ = c.ShouldBindJSON(&req)
	e, err := h.entities.PromoteToDecision(c.Request.Context(), id, req.ExpectedVersion)
	h.respond(c, e, err)
}

// POST /api/v1/entities/:id/save
func (h *EntityHandler) Save(c *gin.Context) {
	h.simple(c, h.entities.Save)
}

// POST /api/v1/entities/:id/add-to-library
func (h *EntityHandler) AddToLibrary(c *gin.Context) {
	h.simple(c, h.entities.AddToLibrary)
}

// GET /api/v1/library?type=plan,decision&status=proposed&timeframe=week&ownerId=
func (h *EntityHandler) QueryLibrary(c *gin.Context) {
	q := services.LibraryQuery{
		Types:     c.Query("type"),
		Statuses:  c.Query("status"),
		Timeframe: c.DefaultQuery("timeframe", "all"),
	}
	if raw := c.Query("ownerId"); raw != "" {
		owner, err := uuid.Parse(raw)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_ownerId", err)
			return
		}
		q.OwnerID = &owner
	}
	res, err := h.entities.QueryLibrary(c.Request.Context(), q)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, res)
}

func (h *EntityHandler) simple(c *gin.Context, fn func(context.Context, uuid.UUID) (*types.Entity, error)) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	e, err := fn(c.Request.Context(), id)
	h.respond(c, e, err)
}

func (h *EntityHandler) respond(c *gin.Context, e *types.Entity, err error) {
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"entity": e})
}
