// Package api provides the HTTP transport for the chat dispatcher.
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/bookchat/dispatch"
	"github.com/xiaot623/bookchat/eventlog"
	"github.com/xiaot623/bookchat/session"
)

// Handler handles HTTP requests.
type Handler struct {
	dispatcher *dispatch.Dispatcher
	registry   *session.Registry
	events     *eventlog.Log
}

// NewHandler creates a new handler.
func NewHandler(dispatcher *dispatch.Dispatcher, registry *session.Registry, events *eventlog.Log) *Handler {
	return &Handler{
		dispatcher: dispatcher,
		registry:   registry,
		events:     events,
	}
}

// RegisterRoutes registers routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/v1/sessions", h.CreateSession)
	e.POST("/v1/sessions/:session_id/messages", h.SubmitMessage)
	e.GET("/v1/sessions/:session_id/updates", h.GetUpdates)
	e.GET("/v1/sessions/:session_id/logs", h.GetLogs)

	e.GET("/health", h.Health)
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": "0.1.0",
	})
}
