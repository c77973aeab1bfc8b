package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/chatwave/chatwave-server/internal/chat"
)

// GroupHandlers provides HTTP handlers for group management.
type GroupHandlers struct {
	chat *chat.Service
	log  *zerolog.Logger
}

// NewGroupHandlers creates a new group handlers instance.
func NewGroupHandlers(chatService *chat.Service, logger *zerolog.Logger) *GroupHandlers {
	return &GroupHandlers{
		chat: chatService,
		log:  logger,
	}
}

// CreateGroupRequest represents the create group request body.
type CreateGroupRequest struct {
	Name        string   `json:"name" binding:"required,min=1,max=64"`
	Description string   `json:"description"`
	AvatarURL   string   `json:"avatarUrl"`
	MemberIDs   []string `json:"memberIds"`
}

// UpdateGroupRequest represents the group info update request body.
type UpdateGroupRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=64"`
	Description string `json:"description"`
	AvatarURL   string `json:"avatarUrl"`
}

// AddMemberRequest represents the add member request body.
type AddMemberRequest struct {
	UserID string `json:"userId" binding:"required"`
}

// Create handles group creation.
// POST /api/groups
func (h *GroupHandlers) Create(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	var req CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid create group request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	view, err := h.chat.CreateGroup(c.Request.Context(), uid, req.Name, req.Description, req.AvatarURL, req.MemberIDs)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, view)
}

// Get returns a group the actor participates in.
// GET /api/groups/:id
func (h *GroupHandlers) Get(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	view, err := h.chat.GetGroup(c.Request.Context(), uid, c.Param("id"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// Update handles group info updates.
// PUT /api/groups/:id
func (h *GroupHandlers) Update(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	var req UpdateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid update group request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	view, err := h.chat.UpdateGroupInfo(c.Request.Context(), uid, c.Param("id"), req.Name, req.Description, req.AvatarURL)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// AddMember adds a user to a group.
// POST /api/groups/:id/members
func (h *GroupHandlers) AddMember(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	var req AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid add member request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	data, err := h.chat.AddMember(c.Request.Context(), uid, c.Param("id"), req.UserID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, data)
}

// RemoveMember removes a user from a group.
// DELETE /api/groups/:id/members/:userId
func (h *GroupHandlers) RemoveMember(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	data, err := h.chat.RemoveMember(c.Request.Context(), uid, c.Param("id"), c.Param("userId"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, data)
}

// Leave removes the actor from a group.
// POST /api/groups/:id/leave
func (h *GroupHandlers) Leave(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	data, err := h.chat.LeaveGroup(c.Request.Context(), uid, c.Param("id"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, data)
}

// Delete deletes a group along with its conversation.
// DELETE /api/groups/:id
func (h *GroupHandlers) Delete(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	data, err := h.chat.DeleteGroup(c.Request.Context(), uid, c.Param("id"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, data)
}
