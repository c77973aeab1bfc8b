package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/chatwave/chatwave-server/internal/chat"
	"github.com/chatwave/chatwave-server/internal/conversation"
	"github.com/chatwave/chatwave-server/internal/proto"
	"github.com/chatwave/chatwave-server/internal/store"
)

// MessageHandlers provides HTTP handlers for message mutations and reads.
type MessageHandlers struct {
	chat *chat.Service
	log  *zerolog.Logger
}

// NewMessageHandlers creates a new message handlers instance.
func NewMessageHandlers(chatService *chat.Service, logger *zerolog.Logger) *MessageHandlers {
	return &MessageHandlers{
		chat: chatService,
		log:  logger,
	}
}

// SendMessageRequest represents the send message request body. Exactly one
// of receiverId and groupId must be set.
type SendMessageRequest struct {
	ReceiverID  string             `json:"receiverId"`
	GroupID     string             `json:"groupId"`
	Text        string             `json:"text"`
	Attachments []store.Attachment `json:"attachments"`
}

// EditMessageRequest represents the edit message request body.
type EditMessageRequest struct {
	Text string `json:"text" binding:"required"`
}

// ReactionRequest represents the add reaction request body.
type ReactionRequest struct {
	Emoji string `json:"emoji" binding:"required"`
}

// HistoryResponse represents one page of conversation history.
type HistoryResponse struct {
	Messages []*proto.MessageView `json:"messages"`
	HasMore  bool                 `json:"hasMore"`
}

// ConversationsResponse represents one page of the conversation list.
type ConversationsResponse struct {
	Conversations []proto.ConversationEntry `json:"conversations"`
	HasMore       bool                      `json:"hasMore"`
	Total         int                       `json:"total"`
}

// Send handles message creation.
// POST /api/messages
func (h *MessageHandlers) Send(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid send request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	view, err := h.chat.Send(c.Request.Context(), chat.SendInput{
		SenderID:    uid,
		ReceiverID:  req.ReceiverID,
		GroupID:     req.GroupID,
		Text:        req.Text,
		Attachments: req.Attachments,
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, view)
}

// Edit handles message text edits.
// PUT /api/messages/:id
func (h *MessageHandlers) Edit(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	var req EditMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid edit request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	view, err := h.chat.Edit(c.Request.Context(), uid, c.Param("id"), req.Text)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// Delete handles message deletion.
// DELETE /api/messages/:id?type=forMe|forEveryone
func (h *MessageHandlers) Delete(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	deleteType := proto.DeleteType(c.DefaultQuery("type", string(proto.DeleteForMe)))

	data, err := h.chat.Delete(c.Request.Context(), uid, c.Param("id"), deleteType)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, data)
}

// Pin handles exclusive message pinning.
// POST /api/messages/:id/pin
func (h *MessageHandlers) Pin(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	data, err := h.chat.Pin(c.Request.Context(), uid, c.Param("id"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, data)
}

// Unpin handles message unpinning.
// DELETE /api/messages/:id/pin
func (h *MessageHandlers) Unpin(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	view, err := h.chat.Unpin(c.Request.Context(), uid, c.Param("id"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// React adds or replaces the actor's reaction on a message.
// POST /api/messages/:id/reactions
func (h *MessageHandlers) React(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	var req ReactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid reaction request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	data, err := h.chat.React(c.Request.Context(), uid, c.Param("id"), req.Emoji)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, data)
}

// RemoveReaction removes the actor's reaction from a message.
// DELETE /api/messages/:id/reactions
func (h *MessageHandlers) RemoveReaction(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	data, err := h.chat.RemoveReaction(c.Request.Context(), uid, c.Param("id"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, data)
}

// MarkSeen records a seen receipt on a message.
// POST /api/messages/:id/seen
func (h *MessageHandlers) MarkSeen(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	data, err := h.chat.MarkSeen(c.Request.Context(), uid, c.Param("id"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, data)
}

// MarkListened records a listened receipt on a voice message.
// POST /api/messages/:id/listened
func (h *MessageHandlers) MarkListened(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	data, err := h.chat.MarkListened(c.Request.Context(), uid, c.Param("id"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, data)
}

// ToggleSaved toggles the actor's saved flag on a message.
// POST /api/messages/:id/saved
func (h *MessageHandlers) ToggleSaved(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	data, err := h.chat.ToggleSaved(c.Request.Context(), uid, c.Param("id"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, data)
}

// History returns one page of a conversation, newest first.
// GET /api/conversations/:key/messages?limit=&before=
func (h *MessageHandlers) History(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	limit := parsePositiveInt(c.Query("limit"), conversation.DefaultPageSize)

	var before *time.Time
	if raw := c.Query("before"); raw != "" {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid before cursor"})
			return
		}
		before = &t
	}

	messages, hasMore, err := h.chat.History(c.Request.Context(), uid, c.Param("key"), limit, before)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, HistoryResponse{Messages: messages, HasMore: hasMore})
}

// Conversations returns one page of the actor's conversation list ordered
// by last activity.
// GET /api/conversations?page=&limit=
func (h *MessageHandlers) Conversations(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	page := parsePositiveInt(c.Query("page"), 1)
	limit := parsePositiveInt(c.Query("limit"), conversation.DefaultPageSize)

	entries, hasMore, total, err := h.chat.LastMessages(c.Request.Context(), uid, page, limit)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, ConversationsResponse{Conversations: entries, HasMore: hasMore, Total: total})
}

func parsePositiveInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
