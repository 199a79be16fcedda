package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/konk1n12/travel-buddy-ai-sub002/internal/application"
	"github.com/konk1n12/travel-buddy-ai-sub002/internal/response"
)

// AdminSessionHandler handles admin HTTP requests for session history.
type AdminSessionHandler struct {
	service *application.RouteSessionService
}

// NewAdminSessionHandler creates a new AdminSessionHandler.
func NewAdminSessionHandler(service *application.RouteSessionService) *AdminSessionHandler {
	return &AdminSessionHandler{service: service}
}

// RegisterRoutes registers admin session routes.
func (h *AdminSessionHandler) RegisterRoutes(r *gin.RouterGroup) {
	admin := r.Group("/api/v1/admin")
	{
		admin.GET("/route-sessions", h.ListSessions)
		admin.GET("/stats/route-sessions", h.SessionStats)
	}
}

// ListSessions handles GET /api/v1/admin/route-sessions.
func (h *AdminSessionHandler) ListSessions(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	sessions, total, err := h.service.ListSessions(c.Request.Context(), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, sessions, total, page, limit)
}

// SessionStats handles GET /api/v1/admin/stats/route-sessions.
func (h *AdminSessionHandler) SessionStats(c *gin.Context) {
	stats, err := h.service.GetSessionStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, stats)
}
