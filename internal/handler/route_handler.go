// Package handler exposes the HTTP surface of the route service.
package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/konk1n12/travel-buddy-ai-sub002/internal/application"
	"github.com/konk1n12/travel-buddy-ai-sub002/internal/response"
)

// RouteSessionHandler handles HTTP requests for route generation sessions.
type RouteSessionHandler struct {
	service *application.RouteSessionService
}

// NewRouteSessionHandler creates a new RouteSessionHandler.
func NewRouteSessionHandler(service *application.RouteSessionService) *RouteSessionHandler {
	return &RouteSessionHandler{service: service}
}

// RegisterRoutes registers all session routes on the given router group.
func (h *RouteSessionHandler) RegisterRoutes(r *gin.RouterGroup) {
	sessions := r.Group("/api/v1/route-sessions")
	{
		sessions.POST("", h.StartSession)
		sessions.GET("/:id", h.GetSession)
		sessions.POST("/:id/retry", h.RetrySession)
		sessions.DELETE("/:id", h.CancelSession)
	}

	r.POST("/api/v1/trips/:tripId/route-session", h.StartSessionForTrip)
}

// StartSession handles POST /api/v1/route-sessions.
func (h *RouteSessionHandler) StartSession(c *gin.Context) {
	var req application.StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.StartSession(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// StartSessionForTrip handles POST /api/v1/trips/:tripId/route-session.
func (h *RouteSessionHandler) StartSessionForTrip(c *gin.Context) {
	result, err := h.service.StartSessionForTrip(c.Request.Context(), c.Param("tripId"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// GetSession handles GET /api/v1/route-sessions/:id.
func (h *RouteSessionHandler) GetSession(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid session ID")
		return
	}

	result, err := h.service.GetSession(c.Request.Context(), sessionID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// RetrySession handles POST /api/v1/route-sessions/:id/retry.
func (h *RouteSessionHandler) RetrySession(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid session ID")
		return
	}

	result, err := h.service.RetrySession(c.Request.Context(), sessionID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// CancelSession handles DELETE /api/v1/route-sessions/:id.
func (h *RouteSessionHandler) CancelSession(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid session ID")
		return
	}

	if err := h.service.CancelSession(c.Request.Context(), sessionID); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
