package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned by implementations when a referenced
// user, message or group does not exist.
var ErrNotFound = errors.New("not found")

// User represents a registered account.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	DisplayName  string
	AvatarURL    string
	CreatedAt    time.Time
}

// ProfileSummary is the narrow projection of a user that crosses the
// fan-out boundary. Every payload that references a user embeds this,
// never a bare identifier.
type ProfileSummary struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	AvatarURL   string `json:"avatarUrl"`
}

// Summary returns the fan-out projection of the user.
func (u *User) Summary() ProfileSummary {
	return ProfileSummary{ID: u.ID, DisplayName: u.DisplayName, AvatarURL: u.AvatarURL}
}

// AttachmentKind tags the content type of an attachment.
type AttachmentKind string

const (
	AttachmentImage AttachmentKind = "image"
	AttachmentAudio AttachmentKind = "audio"
	AttachmentVideo AttachmentKind = "video"
	AttachmentFile  AttachmentKind = "file"
	AttachmentLink  AttachmentKind = "link"
)

// Attachment is an opaque media reference plus its content kind.
type Attachment struct {
	URL  string         `json:"url"`
	Kind AttachmentKind `json:"kind"`
}

// Receipt records a per-user interaction (seen/listened/saved) with a message.
// At most one receipt per user per relation set.
type Receipt struct {
	UserID string    `json:"userId"`
	At     time.Time `json:"at"`
}

// Reaction records a per-user emoji reaction. At most one per user per
// message; a newer reaction replaces the older one.
type Reaction struct {
	UserID string    `json:"userId"`
	Emoji  string    `json:"emoji"`
	At     time.Time `json:"at"`
}

// Message is the central entity. Exactly one of ReceiverID/GroupID is set.
type Message struct {
	ID          string
	SenderID    string
	ReceiverID  string // direct messages only
	GroupID     string // group messages only
	Text        string
	Attachments []Attachment

	Edited   bool
	EditedAt *time.Time

	Pinned   bool
	PinnedAt *time.Time
	PinnedBy string

	Seen      []Receipt
	Listened  []Receipt
	Saved     []Receipt
	Reactions []Reaction

	CreatedAt time.Time
}

// IsGroup reports whether the message belongs to a group conversation.
func (m *Message) IsGroup() bool { return m.GroupID != "" }

// ConversationKey returns the structural identity of the message's
// conversation: an unordered user pair for direct messages, or the group ID.
func (m *Message) ConversationKey() string {
	if m.GroupID != "" {
		return GroupKey(m.GroupID)
	}
	return DirectKey(m.SenderID, m.ReceiverID)
}

// DirectKey builds the conversation key for a direct message pair.
// The pair is unordered, so the key is normalized.
func DirectKey(userA, userB string) string {
	if strings.Compare(userA, userB) > 0 {
		userA, userB = userB, userA
	}
	return "dm:" + userA + ":" + userB
}

// GroupKey builds the conversation key for a group.
func GroupKey(groupID string) string {
	return "grp:" + groupID
}

// HasAttachmentKind reports whether any attachment has the given kind.
func (m *Message) HasAttachmentKind(kind AttachmentKind) bool {
	for _, a := range m.Attachments {
		if a.Kind == kind {
			return true
		}
	}
	return false
}

// Validate checks the construction invariants of a message:
// exactly one of receiver/group must be set, and at least one of
// text/attachments must be non-empty.
func (m *Message) Validate() error {
	switch {
	case m.SenderID == "":
		return fmt.Errorf("senderId is required")
	case m.ReceiverID == "" && m.GroupID == "":
		return fmt.Errorf("one of receiverId or groupId is required")
	case m.ReceiverID != "" && m.GroupID != "":
		return fmt.Errorf("receiverId and groupId are mutually exclusive")
	case strings.TrimSpace(m.Text) == "" && len(m.Attachments) == 0:
		return fmt.Errorf("message needs text or at least one attachment")
	}
	for _, a := range m.Attachments {
		if a.URL == "" {
			return fmt.Errorf("attachment url is required")
		}
		switch a.Kind {
		case AttachmentImage, AttachmentAudio, AttachmentVideo, AttachmentFile, AttachmentLink:
		default:
			return fmt.Errorf("unknown attachment kind %q", a.Kind)
		}
	}
	return nil
}

// Group represents a named group conversation. The admin owns the group and
// is never present in Members.
type Group struct {
	ID          string
	Name        string
	Description string
	AvatarURL   string
	AdminID     string
	Members     []string
	CreatedAt   time.Time
}

// IsMember reports whether userID is a non-admin member.
func (g *Group) IsMember(userID string) bool {
	for _, m := range g.Members {
		if m == userID {
			return true
		}
	}
	return false
}

// IsParticipant reports whether userID is the admin or a member.
func (g *Group) IsParticipant(userID string) bool {
	return userID == g.AdminID || g.IsMember(userID)
}

// UserStore handles user persistence.
type UserStore interface {
	// CreateUser creates a new user with hashed password.
	CreateUser(ctx context.Context, username, passwordHash, displayName string) (*User, error)

	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, id string) (*User, error)

	// GetUserByUsername retrieves a user by username.
	GetUserByUsername(ctx context.Context, username string) (*User, error)

	// GetProfiles resolves a batch of user IDs to fan-out projections.
	// Unknown IDs are omitted from the result.
	GetProfiles(ctx context.Context, ids []string) (map[string]ProfileSummary, error)

	// SearchUsers searches for users by username substring.
	SearchUsers(ctx context.Context, query string) ([]*User, error)

	// UpdateProfile updates display name and avatar reference.
	UpdateProfile(ctx context.Context, userID, displayName, avatarURL string) error
}

// MessageStore handles message persistence. Implementations must index
// (conversation key, created_at) so the cursor queries stay efficient.
type MessageStore interface {
	// CreateMessage persists a new message.
	CreateMessage(ctx context.Context, m *Message) error

	// GetMessage retrieves a message by ID.
	GetMessage(ctx context.Context, id string) (*Message, error)

	// UpdateMessage rewrites the mutable state of a message
	// (text, edited/pinned flags, receipt and reaction sets).
	UpdateMessage(ctx context.Context, m *Message) error

	// DeleteMessage hard-deletes a message.
	DeleteMessage(ctx context.Context, id string) error

	// DeleteConversation hard-deletes every message of a conversation.
	DeleteConversation(ctx context.Context, convKey string) error

	// ListMessages retrieves messages of one conversation, newest first.
	// When before is set only messages strictly older are returned.
	ListMessages(ctx context.Context, convKey string, limit int, before *time.Time) ([]*Message, error)

	// LastMessage returns the most recent message of a conversation,
	// or nil when the conversation has no messages left.
	LastMessage(ctx context.Context, convKey string) (*Message, error)

	// PinnedMessage returns the pinned message of a conversation, or nil.
	PinnedMessage(ctx context.Context, convKey string) (*Message, error)

	// PinExclusive pins the given message and unpins any previously pinned
	// message of the same conversation in a single transaction. It returns
	// the ID of the message that was unpinned, if any.
	PinExclusive(ctx context.Context, convKey, messageID, actorID string, at time.Time) (unpinnedID string, err error)

	// ListParticipantMessages retrieves every message the user participates
	// in (as direct sender/receiver or via the given group memberships),
	// optionally bounded to messages created at or after since.
	// Used by the conversation index; newest first.
	ListParticipantMessages(ctx context.Context, userID string, groupIDs []string, since *time.Time) ([]*Message, error)

	// CountConversations counts the distinct conversations the user
	// participates in that still have at least one message.
	CountConversations(ctx context.Context, userID string, groupIDs []string) (int, error)
}

// GroupStore handles group persistence.
type GroupStore interface {
	// CreateGroup creates a group owned by its admin.
	CreateGroup(ctx context.Context, g *Group) error

	// GetGroup retrieves a group with its member list.
	GetGroup(ctx context.Context, id string) (*Group, error)

	// UpdateGroupInfo updates name, description and picture reference.
	UpdateGroupInfo(ctx context.Context, id, name, description, avatarURL string) error

	// AddMember adds a user to the group's member set; idempotent.
	AddMember(ctx context.Context, groupID, userID string) error

	// RemoveMember removes a user from the group's member set.
	RemoveMember(ctx context.Context, groupID, userID string) error

	// DeleteGroup removes the group and its membership rows.
	DeleteGroup(ctx context.Context, id string) error

	// ListGroupsForUser lists IDs of groups where the user is admin or member.
	ListGroupsForUser(ctx context.Context, userID string) ([]string, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	UserStore
	MessageStore
	GroupStore

	// Close closes the underlying database connection.
	Close() error
}
