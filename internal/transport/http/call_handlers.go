package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/chatwave/chatwave-server/internal/calls"
)

// CallHandlers provides HTTP handlers for call signaling.
type CallHandlers struct {
	calls *calls.Service
	log   *zerolog.Logger
}

// NewCallHandlers creates a new call handlers instance.
func NewCallHandlers(callService *calls.Service, logger *zerolog.Logger) *CallHandlers {
	return &CallHandlers{
		calls: callService,
		log:   logger,
	}
}

// StartCallRequest represents the start call request body.
type StartCallRequest struct {
	CalleeID string `json:"calleeId" binding:"required"`
}

// EndCallRequest represents the reject/end call request body.
type EndCallRequest struct {
	Reason string `json:"reason"`
}

// Start initiates a direct call.
// POST /api/calls
func (h *CallHandlers) Start(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	var req StartCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid start call request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	data, err := h.calls.Start(c.Request.Context(), uid, req.CalleeID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, data)
}

// Accept answers a ringing call and returns media join credentials.
// POST /api/calls/:id/accept
func (h *CallHandlers) Accept(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	data, err := h.calls.Accept(c.Request.Context(), uid, c.Param("id"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, data)
}

// Reject declines a ringing call.
// POST /api/calls/:id/reject
func (h *CallHandlers) Reject(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	var req EndCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		req.Reason = ""
	}

	data, err := h.calls.Reject(c.Request.Context(), uid, c.Param("id"), req.Reason)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, data)
}

// End terminates an active call.
// POST /api/calls/:id/end
func (h *CallHandlers) End(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	var req EndCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		req.Reason = ""
	}

	data, err := h.calls.End(c.Request.Context(), uid, c.Param("id"), req.Reason)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, data)
}
