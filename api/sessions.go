package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/xiaot623/bookchat/dispatch"
)

// submitRequest is the body of a message submission.
type submitRequest struct {
	Message string `json:"message"`
}

// CreateSession mints a session id and initializes its state eagerly.
// POST /v1/sessions
func (h *Handler) CreateSession(c echo.Context) error {
	sessionID := uuid.New().String()
	sess := h.registry.GetOrCreate(sessionID)
	snap := sess.Snapshot()

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"session_id":   sessionID,
		"chat_history": snap.History,
	})
}

// SubmitMessage enqueues a message for batching and acknowledges
// immediately; the reply is picked up later via GetUpdates.
// POST /v1/sessions/:session_id/messages
func (h *Handler) SubmitMessage(c echo.Context) error {
	sessionID := c.Param("session_id")

	var req submitRequest
	if err := c.Bind(&req); err != nil || req.Message == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "no message provided"})
	}

	result := h.dispatcher.Submit(sessionID, req.Message)
	if result.Status == dispatch.StatusRejected {
		return c.JSON(http.StatusTooManyRequests, map[string]string{
			"error": "Bạn đã gửi tối đa số yêu cầu liên tiếp cho phép. Vui lòng đợi kết quả.",
		})
	}

	return c.JSON(http.StatusAccepted, result)
}

// GetUpdates returns the transport-visible session snapshot. It never waits
// on the pipeline.
// GET /v1/sessions/:session_id/updates
func (h *Handler) GetUpdates(c echo.Context) error {
	sessionID := c.Param("session_id")

	sess := h.registry.Get(sessionID)
	if sess == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "session not initialized"})
	}

	return c.JSON(http.StatusOK, sess.Snapshot())
}

// GetLogs returns the session's persisted event log.
// GET /v1/sessions/:session_id/logs
func (h *Handler) GetLogs(c echo.Context) error {
	sessionID := c.Param("session_id")

	if h.registry.Get(sessionID) == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "session not initialized"})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"logs": h.events.Read(sessionID),
	})
}
