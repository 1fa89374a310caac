package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/weave-backend/internal/http/response"
	types "github.com/yungbote/weave-backend/internal/domain"
	"github.com/yungbote/weave-backend/internal/services"
)

type RelationshipHandler struct {
	links services.RelationshipService
}

func NewRelationshipHandler(links services.RelationshipService) *RelationshipHandler {
	return &RelationshipHandler{links: links}
}

type createLinkReq struct {
	TargetID uuid.UUID `json:"targetEntityId" binding:"required"`
	LinkType string    `json:"linkType" binding:"required"`
}

// POST /api/v1/entities/:id/links
func (h *RelationshipHandler) CreateLink(c *gin.Context) {
	sourceID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req createLinkReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	rel, err := h.links.CreateLink(c.Request.Context(), sourceID, req.TargetID, req.LinkType)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"relationship": rel})
}

// DELETE /api/v1/entities/:id/links/:targetId?linkType=BLOCKS
func (h *RelationshipHandler) DeleteLink(c *gin.Context) {
	sourceID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	targetID, ok := uuidParam(c, "targetId")
	if !ok {
		return
	}
	n, err := h.links.DeleteLink(c.Request.Context(), sourceID, targetID, c.Query("linkType"))
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"deleted": n})
}

// GET /api/v1/entities/:id/relationships?direction=out|in|both
func (h *RelationshipHandler) List(c *gin.Context) {
	dir, ok := services.ParseDirection(c.Query("direction"))
	if !ok {
		response.RespondDomainError(c, types.Invalid("Relationship.List", "invalid direction %q", c.Query("direction")))
		return
	}
	h.list(c, dir)
}

// GET /api/v1/entities/:id/relationships/outgoing
func (h *RelationshipHandler) Outgoing(c *gin.Context) { h.list(c, services.DirectionOut) }

// GET /api/v1/entities/:id/relationships/incoming
func (h *RelationshipHandler) Incoming(c *gin.Context) { h.list(c, services.DirectionIn) }

func (h *RelationshipHandler) list(c *gin.Context, dir services.Direction) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	rels, err := h.links.RelationshipsOf(c.Request.Context(), id, dir)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"relationships": rels})
}
