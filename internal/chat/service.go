// Package chat implements the mutation handlers of the synchronization
// engine. Every handler follows the same template: validate actor
// authority, perform the storage mutation, recompute derived pointers,
// then fan out to the audience. Fan-out never fires for a write that did
// not succeed.
package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/chatwave/chatwave-server/internal/apperr"
	"github.com/chatwave/chatwave-server/internal/conversation"
	"github.com/chatwave/chatwave-server/internal/fanout"
	"github.com/chatwave/chatwave-server/internal/proto"
	"github.com/chatwave/chatwave-server/internal/store"
)

// Service orchestrates message and group mutations.
type Service struct {
	store    store.Store
	fanout   *fanout.Dispatcher
	index    *conversation.Index
	log      *zerolog.Logger
	now      func() time.Time
	convLock sync.Map // conversation key -> *sync.Mutex
}

// NewService builds the mutation handler service.
func NewService(st store.Store, dispatcher *fanout.Dispatcher, index *conversation.Index, logger *zerolog.Logger) *Service {
	return &Service{
		store:  st,
		fanout: dispatcher,
		index:  index,
		log:    logger,
		now:    time.Now,
	}
}

// lockConversation returns the mutex serializing read-check-write races
// within one conversation. Only the pin sequence needs it.
func (s *Service) lockConversation(convKey string) *sync.Mutex {
	mu, _ := s.convLock.LoadOrStore(convKey, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

func mapStoreErr(err error, what string) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound(what)
	}
	return apperr.Storage(err)
}

// audienceFor resolves the set of users that must receive a fan-out
// notification for a mutation of m: {sender, receiver} for a direct
// message, {admin} ∪ members for a group message. The actor is always
// part of its own audience.
func (s *Service) audienceFor(ctx context.Context, m *store.Message) ([]string, error) {
	if !m.IsGroup() {
		return []string{m.SenderID, m.ReceiverID}, nil
	}
	g, err := s.store.GetGroup(ctx, m.GroupID)
	if err != nil {
		return nil, mapStoreErr(err, "group")
	}
	return append([]string{g.AdminID}, g.Members...), nil
}

// isParticipant reports whether the actor belongs to the message's
// conversation: sender or receiver for direct, admin or member for group.
func (s *Service) isParticipant(ctx context.Context, m *store.Message, actorID string) (bool, error) {
	if !m.IsGroup() {
		return actorID == m.SenderID || actorID == m.ReceiverID, nil
	}
	g, err := s.store.GetGroup(ctx, m.GroupID)
	if err != nil {
		return false, mapStoreErr(err, "group")
	}
	return g.IsParticipant(actorID), nil
}

// eventFor picks the direct or group-scoped variant of an event name.
func eventFor(m *store.Message, direct, group string) string {
	if m.IsGroup() {
		return group
	}
	return direct
}

// SendInput carries the fields of a send mutation.
type SendInput struct {
	SenderID    string
	ReceiverID  string
	GroupID     string
	Text        string
	Attachments []store.Attachment
}

// Send creates a message and fans it out to its audience.
func (s *Service) Send(ctx context.Context, in SendInput) (*proto.MessageView, error) {
	m := &store.Message{
		ID:          uuid.NewString(),
		SenderID:    in.SenderID,
		ReceiverID:  in.ReceiverID,
		GroupID:     in.GroupID,
		Text:        strings.TrimSpace(in.Text),
		Attachments: in.Attachments,
		CreatedAt:   s.now().UTC(),
	}
	if err := m.Validate(); err != nil {
		return nil, apperr.Validation("%s", err.Error())
	}

	if m.IsGroup() {
		g, err := s.store.GetGroup(ctx, m.GroupID)
		if err != nil {
			return nil, mapStoreErr(err, "group")
		}
		if !g.IsParticipant(m.SenderID) {
			return nil, apperr.Authorization("sender is not a participant of the group")
		}
	} else {
		if _, err := s.store.GetUserByID(ctx, m.ReceiverID); err != nil {
			return nil, mapStoreErr(err, "receiver")
		}
	}

	if err := s.store.CreateMessage(ctx, m); err != nil {
		return nil, apperr.Storage(err)
	}

	view, err := s.hydrateMessage(ctx, m)
	if err != nil {
		return nil, err
	}
	audience, err := s.audienceFor(ctx, m)
	if err != nil {
		// The write succeeded; losing only the push is preferable to
		// reporting a failed send for a durable message.
		s.log.Error().Err(err).Str("message_id", m.ID).Msg("audience resolution failed, fan-out skipped")
		return view, nil
	}
	s.fanout.Notify(audience, eventFor(m, proto.EventNewMessage, proto.EventGroupNewMessage), view)

	s.log.Debug().
		Str("message_id", m.ID).
		Str("conv_key", m.ConversationKey()).
		Int("audience", len(audience)).
		Msg("message sent")
	return view, nil
}

// Edit replaces the text of a message. Sender only; text-only messages
// only. The edited flag is sticky.
func (s *Service) Edit(ctx context.Context, actorID, messageID, text string) (*proto.MessageView, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperr.Validation("edited text must not be empty")
	}

	m, err := s.store.GetMessage(ctx, messageID)
	if err != nil {
		return nil, mapStoreErr(err, "message")
	}
	if m.SenderID != actorID {
		return nil, apperr.Authorization("only the sender can edit a message")
	}
	if len(m.Attachments) > 0 {
		return nil, apperr.Validation("messages with attachments cannot be edited")
	}

	now := s.now().UTC()
	m.Text = text
	m.Edited = true
	m.EditedAt = &now

	if err := s.store.UpdateMessage(ctx, m); err != nil {
		return nil, mapStoreErr(err, "message")
	}

	view, err := s.hydrateMessage(ctx, m)
	if err != nil {
		return nil, err
	}
	audience, err := s.audienceFor(ctx, m)
	if err != nil {
		return nil, err
	}
	s.fanout.Notify(audience, eventFor(m, proto.EventMessageEdited, proto.EventGroupMessageEdited), view)
	return view, nil
}

// Delete removes a message. forEveryone hard-deletes and, when the
// deleted row was the conversation's last message, the event carries the
// replacement last message or the conversation-deleted flag. forMe stores
// nothing and is delivered only to the requesting user's connections.
func (s *Service) Delete(ctx context.Context, actorID, messageID string, deleteType proto.DeleteType) (*proto.MessageDeletedData, error) {
	m, err := s.store.GetMessage(ctx, messageID)
	if err != nil {
		return nil, mapStoreErr(err, "message")
	}
	convKey := m.ConversationKey()

	switch deleteType {
	case proto.DeleteForMe:
		ok, err := s.isParticipant(ctx, m, actorID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, apperr.Authorization("actor is not a participant of the conversation")
		}
		data := &proto.MessageDeletedData{
			MessageID:       m.ID,
			ConversationKey: convKey,
			DeleteType:      proto.DeleteForMe,
		}
		s.fanout.NotifyUser(actorID, eventFor(m, proto.EventMessageDeleted, proto.EventGroupMessageDeleted), data)
		return data, nil

	case proto.DeleteForEveryone:
		if m.SenderID != actorID {
			return nil, apperr.Authorization("only the sender can delete for everyone")
		}

		last, err := s.store.LastMessage(ctx, convKey)
		if err != nil {
			return nil, apperr.Storage(err)
		}
		wasLast := last != nil && last.ID == m.ID

		if err := s.store.DeleteMessage(ctx, m.ID); err != nil {
			return nil, mapStoreErr(err, "message")
		}

		data := &proto.MessageDeletedData{
			MessageID:       m.ID,
			ConversationKey: convKey,
			DeleteType:      proto.DeleteForEveryone,
		}
		if wasLast {
			newLast, err := s.store.LastMessage(ctx, convKey)
			if err != nil {
				return nil, apperr.Storage(err)
			}
			if newLast == nil {
				data.ConversationDeleted = true
			} else {
				view, err := s.hydrateMessage(ctx, newLast)
				if err != nil {
					return nil, err
				}
				data.NewLastMessage = view
			}
		}

		audience, err := s.audienceFor(ctx, m)
		if err != nil {
			return nil, err
		}
		s.fanout.Notify(audience, eventFor(m, proto.EventMessageDeleted, proto.EventGroupMessageDeleted), data)
		return data, nil

	default:
		return nil, apperr.Validation("unknown delete type %q", deleteType)
	}
}

// Pin marks a message as the single pinned message of its conversation,
// atomically unpinning any previous one. The unpin-previous/pin-new
// sequence is a critical section per conversation.
func (s *Service) Pin(ctx context.Context, actorID, messageID string) (*proto.MessagePinnedData, error) {
	m, err := s.store.GetMessage(ctx, messageID)
	if err != nil {
		return nil, mapStoreErr(err, "message")
	}
	ok, err := s.isParticipant(ctx, m, actorID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.Authorization("actor is not a participant of the conversation")
	}

	convKey := m.ConversationKey()
	mu := s.lockConversation(convKey)
	mu.Lock()
	unpinnedID, err := s.store.PinExclusive(ctx, convKey, m.ID, actorID, s.now().UTC())
	mu.Unlock()
	if err != nil {
		return nil, mapStoreErr(err, "message")
	}

	m, err = s.store.GetMessage(ctx, messageID)
	if err != nil {
		return nil, mapStoreErr(err, "message")
	}
	view, err := s.hydrateMessage(ctx, m)
	if err != nil {
		return nil, err
	}
	data := &proto.MessagePinnedData{Message: view, UnpinnedMessageID: unpinnedID}

	audience, err := s.audienceFor(ctx, m)
	if err != nil {
		return nil, err
	}
	s.fanout.Notify(audience, eventFor(m, proto.EventMessagePinned, proto.EventGroupMessagePinned), data)
	return data, nil
}

// Unpin returns a pinned message to the unmarked state.
func (s *Service) Unpin(ctx context.Context, actorID, messageID string) (*proto.MessageView, error) {
	m, err := s.store.GetMessage(ctx, messageID)
	if err != nil {
		return nil, mapStoreErr(err, "message")
	}
	ok, err := s.isParticipant(ctx, m, actorID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.Authorization("actor is not a participant of the conversation")
	}
	if !m.Pinned {
		return nil, apperr.Validation("message is not pinned")
	}

	mu := s.lockConversation(m.ConversationKey())
	mu.Lock()
	m.Pinned = false
	m.PinnedAt = nil
	m.PinnedBy = ""
	err = s.store.UpdateMessage(ctx, m)
	mu.Unlock()
	if err != nil {
		return nil, mapStoreErr(err, "message")
	}

	view, err := s.hydrateMessage(ctx, m)
	if err != nil {
		return nil, err
	}
	audience, err := s.audienceFor(ctx, m)
	if err != nil {
		return nil, err
	}
	s.fanout.Notify(audience, eventFor(m, proto.EventMessageUnpinned, proto.EventGroupMessageUnpinned), view)
	return view, nil
}

// React sets the actor's reaction on a message. At most one reaction per
// user per message; a new emoji replaces the previous one.
func (s *Service) React(ctx context.Context, actorID, messageID, emoji string) (*proto.ReactionData, error) {
	if strings.TrimSpace(emoji) == "" {
		return nil, apperr.Validation("emoji is required")
	}

	m, err := s.store.GetMessage(ctx, messageID)
	if err != nil {
		return nil, mapStoreErr(err, "message")
	}
	ok, err := s.isParticipant(ctx, m, actorID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.Authorization("actor is not a participant of the conversation")
	}

	now := s.now().UTC()
	m.Reactions = lo.Filter(m.Reactions, func(r store.Reaction, _ int) bool {
		return r.UserID != actorID
	})
	m.Reactions = append(m.Reactions, store.Reaction{UserID: actorID, Emoji: emoji, At: now})

	if err := s.store.UpdateMessage(ctx, m); err != nil {
		return nil, mapStoreErr(err, "message")
	}

	actor, err := s.profile(ctx, actorID)
	if err != nil {
		return nil, err
	}
	data := &proto.ReactionData{
		MessageID:       m.ID,
		ConversationKey: m.ConversationKey(),
		User:            actor,
		Emoji:           emoji,
		At:              now,
	}
	audience, err := s.audienceFor(ctx, m)
	if err != nil {
		return nil, err
	}
	s.fanout.Notify(audience, eventFor(m, proto.EventMessageReactionAdded, proto.EventGroupMessageReactionAdded), data)
	return data, nil
}

// RemoveReaction clears the actor's reaction from a message.
func (s *Service) RemoveReaction(ctx context.Context, actorID, messageID string) (*proto.ReactionData, error) {
	m, err := s.store.GetMessage(ctx, messageID)
	if err != nil {
		return nil, mapStoreErr(err, "message")
	}
	before := len(m.Reactions)
	m.Reactions = lo.Filter(m.Reactions, func(r store.Reaction, _ int) bool {
		return r.UserID != actorID
	})
	if len(m.Reactions) == before {
		return nil, apperr.NotFound("reaction")
	}

	if err := s.store.UpdateMessage(ctx, m); err != nil {
		return nil, mapStoreErr(err, "message")
	}

	actor, err := s.profile(ctx, actorID)
	if err != nil {
		return nil, err
	}
	data := &proto.ReactionData{
		MessageID:       m.ID,
		ConversationKey: m.ConversationKey(),
		User:            actor,
		At:              s.now().UTC(),
	}
	audience, err := s.audienceFor(ctx, m)
	if err != nil {
		return nil, err
	}
	s.fanout.Notify(audience, eventFor(m, proto.EventMessageReactionRemoved, proto.EventGroupMessageReactionRemoved), data)
	return data, nil
}

// MarkSeen records that the actor has seen the message. Idempotent: a
// second call changes nothing and emits nothing.
func (s *Service) MarkSeen(ctx context.Context, actorID, messageID string) (*proto.ReceiptData, error) {
	return s.markReceipt(ctx, actorID, messageID, receiptSeen)
}

// MarkListened records that the actor has listened to a voice message.
// Only valid for messages carrying an audio attachment.
func (s *Service) MarkListened(ctx context.Context, actorID, messageID string) (*proto.ReceiptData, error) {
	return s.markReceipt(ctx, actorID, messageID, receiptListened)
}

type receiptKind int

const (
	receiptSeen receiptKind = iota
	receiptListened
)

func (s *Service) markReceipt(ctx context.Context, actorID, messageID string, kind receiptKind) (*proto.ReceiptData, error) {
	m, err := s.store.GetMessage(ctx, messageID)
	if err != nil {
		return nil, mapStoreErr(err, "message")
	}
	ok, err := s.isParticipant(ctx, m, actorID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.Authorization("actor is not a participant of the conversation")
	}

	set := &m.Seen
	directEvent, groupEvent := proto.EventMessageSeen, proto.EventGroupMessageSeen
	if kind == receiptListened {
		if !m.HasAttachmentKind(store.AttachmentAudio) {
			return nil, apperr.Validation("message has no audio attachment")
		}
		set = &m.Listened
		directEvent, groupEvent = proto.EventVoiceMessageListened, proto.EventGroupVoiceMessageListened
	}

	now := s.now().UTC()
	for _, r := range *set {
		if r.UserID == actorID {
			// already recorded; one receipt per user per relation
			return &proto.ReceiptData{
				MessageID:       m.ID,
				ConversationKey: m.ConversationKey(),
				User:            store.ProfileSummary{ID: actorID},
				At:              r.At,
			}, nil
		}
	}
	*set = append(*set, store.Receipt{UserID: actorID, At: now})

	if err := s.store.UpdateMessage(ctx, m); err != nil {
		return nil, mapStoreErr(err, "message")
	}

	actor, err := s.profile(ctx, actorID)
	if err != nil {
		return nil, err
	}
	data := &proto.ReceiptData{
		MessageID:       m.ID,
		ConversationKey: m.ConversationKey(),
		User:            actor,
		At:              now,
	}
	audience, err := s.audienceFor(ctx, m)
	if err != nil {
		return nil, err
	}
	s.fanout.Notify(audience, eventFor(m, directEvent, groupEvent), data)
	return data, nil
}

// ToggleSaved flips the actor's saved mark on a message. Saved state is
// client-private: the event goes only to the actor's own connections.
func (s *Service) ToggleSaved(ctx context.Context, actorID, messageID string) (*proto.SavedData, error) {
	m, err := s.store.GetMessage(ctx, messageID)
	if err != nil {
		return nil, mapStoreErr(err, "message")
	}
	ok, err := s.isParticipant(ctx, m, actorID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.Authorization("actor is not a participant of the conversation")
	}

	now := s.now().UTC()
	before := len(m.Saved)
	m.Saved = lo.Filter(m.Saved, func(r store.Receipt, _ int) bool {
		return r.UserID != actorID
	})
	saved := len(m.Saved) == before
	if saved {
		m.Saved = append(m.Saved, store.Receipt{UserID: actorID, At: now})
	}

	if err := s.store.UpdateMessage(ctx, m); err != nil {
		return nil, mapStoreErr(err, "message")
	}

	actor, err := s.profile(ctx, actorID)
	if err != nil {
		return nil, err
	}
	data := &proto.SavedData{
		MessageID:       m.ID,
		ConversationKey: m.ConversationKey(),
		User:            actor,
		Saved:           saved,
		At:              now,
	}
	s.fanout.NotifyUser(actorID, proto.EventMessageSaved, data)
	return data, nil
}

// History returns one hydrated page of a conversation's messages, newest
// first. The actor must be a participant of the conversation.
func (s *Service) History(ctx context.Context, actorID, convKey string, limit int, before *time.Time) ([]*proto.MessageView, bool, error) {
	if err := s.authorizeConversation(ctx, actorID, convKey); err != nil {
		return nil, false, err
	}
	messages, hasMore, err := s.index.History(ctx, convKey, limit, before)
	if err != nil {
		return nil, false, apperr.Storage(err)
	}
	views, err := s.hydrateMessages(ctx, messages)
	if err != nil {
		return nil, false, err
	}
	return views, hasMore, nil
}

// LastMessages returns one hydrated page of the actor's conversation list.
func (s *Service) LastMessages(ctx context.Context, actorID string, page, limit int) ([]proto.ConversationEntry, bool, int, error) {
	entries, hasMore, total, err := s.index.LastMessages(ctx, actorID, page, limit)
	if err != nil {
		return nil, false, 0, apperr.Storage(err)
	}

	messages := make([]*store.Message, 0, len(entries))
	for _, e := range entries {
		messages = append(messages, e.LastMessage)
	}
	views, err := s.hydrateMessages(ctx, messages)
	if err != nil {
		return nil, false, 0, err
	}

	out := make([]proto.ConversationEntry, 0, len(entries))
	for i, e := range entries {
		out = append(out, proto.ConversationEntry{
			ConversationKey: e.ConversationKey,
			LastMessage:     views[i],
		})
	}
	return out, hasMore, total, nil
}

// authorizeConversation verifies the actor belongs to the conversation
// identified by convKey.
func (s *Service) authorizeConversation(ctx context.Context, actorID, convKey string) error {
	switch {
	case strings.HasPrefix(convKey, "dm:"):
		parts := strings.SplitN(convKey, ":", 3)
		if len(parts) != 3 {
			return apperr.Validation("malformed conversation key")
		}
		if actorID != parts[1] && actorID != parts[2] {
			return apperr.Authorization("actor is not a participant of the conversation")
		}
		return nil
	case strings.HasPrefix(convKey, "grp:"):
		g, err := s.store.GetGroup(ctx, strings.TrimPrefix(convKey, "grp:"))
		if err != nil {
			return mapStoreErr(err, "group")
		}
		if !g.IsParticipant(actorID) {
			return apperr.Authorization("actor is not a participant of the group")
		}
		return nil
	default:
		return apperr.Validation("malformed conversation key")
	}
}
