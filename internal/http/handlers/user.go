package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/weave-backend/internal/http/response"
	"github.com/yungbote/weave-backend/internal/services"
)

type UserHandler struct {
	users services.UserService
}

func NewUserHandler(users services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// GET /api/v1/me
func (h *UserHandler) GetMe(c *gin.Context) {
	u, err := h.users.Me(c.Request.Context())
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"user": u})
}
