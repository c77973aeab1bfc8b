// Package proto defines the wire-level event names and payload shapes
// pushed to clients. Event names are part of the client contract and
// must not change.
package proto

import (
	"time"

	"github.com/chatwave/chatwave-server/internal/store"
)

// Direct conversation events.
const (
	EventNewMessage             = "newMessage"
	EventMessageEdited          = "messageEdited"
	EventMessageDeleted         = "messageDeleted"
	EventMessagePinned          = "messagePinned"
	EventMessageUnpinned        = "messageUnpinned"
	EventMessageReactionAdded   = "messageReactionAdded"
	EventMessageReactionRemoved = "messageReactionRemoved"
	EventVoiceMessageListened   = "voiceMessageListened"
	EventMessageSeen            = "messageSeen"
	EventMessageSaved           = "messageSaved"
)

// Group-scoped variants of the message events.
const (
	EventGroupNewMessage             = "groupNewMessage"
	EventGroupMessageEdited          = "groupMessageEdited"
	EventGroupMessageDeleted         = "groupMessageDeleted"
	EventGroupMessagePinned          = "groupMessagePinned"
	EventGroupMessageUnpinned        = "groupMessageUnpinned"
	EventGroupMessageReactionAdded   = "groupMessageReactionAdded"
	EventGroupMessageReactionRemoved = "groupMessageReactionRemoved"
	EventGroupMessageSeen            = "groupMessageSeen"
	EventGroupVoiceMessageListened   = "groupVoiceMessageListened"
)

// Group lifecycle events.
const (
	EventGroupCreated       = "groupCreated"
	EventGroupInfoUpdated   = "groupInfoUpdated"
	EventGroupMemberAdded   = "groupMemberAdded"
	EventGroupMemberRemoved = "groupMemberRemoved"
	EventGroupMemberLeft    = "groupMemberLeft"
	EventGroupDeleted       = "groupDeleted"
)

// EventOnlineUsers carries the full list of online user IDs, never a delta.
// Broadcast to every connection on every connect and disconnect.
const EventOnlineUsers = "getOnlineUsers"

// Call signaling events.
const (
	EventCallIncoming = "callIncoming"
	EventCallRinging  = "callRinging"
	EventCallAccepted = "callAccepted"
	EventCallRejected = "callRejected"
	EventCallJoinInfo = "callJoinInfo"
	EventCallEnded    = "callEnded"
)

// DeleteType distinguishes the two message deletion modes.
type DeleteType string

const (
	// DeleteForMe is a client-local suppression instruction; no storage
	// mutation happens and only the requesting user's connections see it.
	DeleteForMe DeleteType = "forMe"
	// DeleteForEveryone hard-deletes the message for all participants.
	DeleteForEveryone DeleteType = "forEveryone"
)

// Outbound is the envelope for every event pushed to a client.
type Outbound struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// MessageView is a fully-resolved message: user references are expanded
// to ProfileSummary so clients render without a follow-up fetch.
type MessageView struct {
	ID              string                `json:"id"`
	ConversationKey string                `json:"conversationKey"`
	Sender          store.ProfileSummary  `json:"sender"`
	Receiver        *store.ProfileSummary `json:"receiver,omitempty"`
	GroupID         string                `json:"groupId,omitempty"`
	Text            string                `json:"text,omitempty"`
	Attachments     []store.Attachment    `json:"attachments,omitempty"`
	Edited          bool                  `json:"edited"`
	EditedAt        *time.Time            `json:"editedAt,omitempty"`
	Pinned          bool                  `json:"pinned"`
	PinnedAt        *time.Time            `json:"pinnedAt,omitempty"`
	PinnedBy        string                `json:"pinnedBy,omitempty"`
	Seen            []store.Receipt       `json:"seen,omitempty"`
	Listened        []store.Receipt       `json:"listened,omitempty"`
	Saved           []store.Receipt       `json:"saved,omitempty"`
	Reactions       []store.Reaction      `json:"reactions,omitempty"`
	CreatedAt       time.Time             `json:"createdAt"`
}

// MessageDeletedData describes a deletion. On forEveryone deletion of a
// conversation's last message it carries the replacement last message, or
// ConversationDeleted when no messages remain, so clients can update
// conversation-list previews without a second round trip.
type MessageDeletedData struct {
	MessageID           string       `json:"messageId"`
	ConversationKey     string       `json:"conversationKey"`
	DeleteType          DeleteType   `json:"deleteType"`
	NewLastMessage      *MessageView `json:"newLastMessage,omitempty"`
	ConversationDeleted bool         `json:"conversationDeleted,omitempty"`
}

// MessagePinnedData describes a pin. UnpinnedMessageID is set when pinning
// displaced a previously pinned message in the same conversation.
type MessagePinnedData struct {
	Message           *MessageView `json:"message"`
	UnpinnedMessageID string       `json:"unpinnedMessageId,omitempty"`
}

// ReactionData describes a reaction change on a message.
type ReactionData struct {
	MessageID       string               `json:"messageId"`
	ConversationKey string               `json:"conversationKey"`
	User            store.ProfileSummary `json:"user"`
	Emoji           string               `json:"emoji,omitempty"`
	At              time.Time            `json:"at"`
}

// ReceiptData describes a seen/listened/saved receipt on a message.
type ReceiptData struct {
	MessageID       string               `json:"messageId"`
	ConversationKey string               `json:"conversationKey"`
	User            store.ProfileSummary `json:"user"`
	At              time.Time            `json:"at"`
}

// SavedData describes a save/unsave toggle. Saved state is client-private
// and only delivered to the acting user's own connections.
type SavedData struct {
	MessageID       string               `json:"messageId"`
	ConversationKey string               `json:"conversationKey"`
	User            store.ProfileSummary `json:"user"`
	Saved           bool                 `json:"saved"`
	At              time.Time            `json:"at"`
}

// ConversationEntry is one row of the conversation list.
type ConversationEntry struct {
	ConversationKey string       `json:"conversationKey"`
	LastMessage     *MessageView `json:"lastMessage"`
}

// GroupView is a fully-resolved group.
type GroupView struct {
	ID          string                 `json:"id"`
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	AvatarURL   string                 `json:"avatarUrl,omitempty"`
	Admin       store.ProfileSummary   `json:"admin"`
	Members     []store.ProfileSummary `json:"members"`
	CreatedAt   time.Time              `json:"createdAt"`
}

// GroupMemberData describes a membership change.
type GroupMemberData struct {
	GroupID string               `json:"groupId"`
	User    store.ProfileSummary `json:"user"`
}

// GroupDeletedData announces a group deletion; its conversation and
// messages are gone with it.
type GroupDeletedData struct {
	GroupID         string `json:"groupId"`
	ConversationKey string `json:"conversationKey"`
}

// CallJoinInfo contains media backend connection credentials.
type CallJoinInfo struct {
	URL      string `json:"url"`
	Token    string `json:"token"`
	RoomName string `json:"roomName"`
	Identity string `json:"identity"`
}

// CallData holds data for call signaling events.
type CallData struct {
	CallID    string                `json:"callId"`
	From      store.ProfileSummary  `json:"from"`
	To        *store.ProfileSummary `json:"to,omitempty"`
	Reason    string                `json:"reason,omitempty"`
	JoinInfo  *CallJoinInfo         `json:"joinInfo,omitempty"`
	CreatedAt time.Time             `json:"createdAt"`
}
