// Package conversation reconstructs per-conversation views from the
// message store: cursor-paged history and the per-user conversation list
// (most recent message per counterparty or group).
package conversation

import (
	"context"
	"fmt"
	"time"

	"github.com/chatwave/chatwave-server/internal/store"
)

const (
	// DefaultPageSize caps history pages when the caller asks for none.
	DefaultPageSize = 50
	// MaxPageSize is the hard cap on any page.
	MaxPageSize = 100
)

// Entry is one row of the conversation list: the conversation identity and
// its single most recent message.
type Entry struct {
	ConversationKey string
	LastMessage     *store.Message
}

// Index answers the two conversation query shapes. It holds no state of
// its own; everything is recomputed from the store at query time.
type Index struct {
	messages store.MessageStore
	groups   store.GroupStore
	window   time.Duration
	now      func() time.Time
}

// NewIndex builds an index. window bounds the working set of the
// conversation-list query; messages older than the window are only
// scanned when the bounded pass cannot fill the requested page.
func NewIndex(messages store.MessageStore, groups store.GroupStore, window time.Duration) *Index {
	if window <= 0 {
		window = 30 * 24 * time.Hour
	}
	return &Index{
		messages: messages,
		groups:   groups,
		window:   window,
		now:      time.Now,
	}
}

// History returns one page of a conversation's messages, newest first,
// bounded by an optional strict-before cursor. hasMore is true iff the
// returned page is full; this is the sole "has more" signal.
func (ix *Index) History(ctx context.Context, convKey string, limit int, before *time.Time) ([]*store.Message, bool, error) {
	limit = clampLimit(limit)
	messages, err := ix.messages.ListMessages(ctx, convKey, limit, before)
	if err != nil {
		return nil, false, fmt.Errorf("list messages: %w", err)
	}
	return messages, len(messages) == limit, nil
}

// LastMessages returns one page of the user's conversation list: exactly
// one entry per distinct conversation, equal to the max-by-createdAt
// message of that conversation, ordered by that timestamp descending.
// page is 1-based.
//
// The working set is bounded by a recent time window first; only when the
// window yields too few distinct conversations to fill the page does the
// query widen to a full participant scan. Total is always exact.
func (ix *Index) LastMessages(ctx context.Context, userID string, page, limit int) ([]Entry, bool, int, error) {
	if page < 1 {
		page = 1
	}
	limit = clampLimit(limit)
	offset := (page - 1) * limit
	need := offset + limit

	groupIDs, err := ix.groups.ListGroupsForUser(ctx, userID)
	if err != nil {
		return nil, false, 0, fmt.Errorf("list user groups: %w", err)
	}

	since := ix.now().Add(-ix.window)
	recent, err := ix.messages.ListParticipantMessages(ctx, userID, groupIDs, &since)
	if err != nil {
		return nil, false, 0, fmt.Errorf("scan recent messages: %w", err)
	}
	heads := reduceHeads(recent)

	if len(heads) < need {
		// Narrow window could not fill the page; widen to the full scan.
		all, err := ix.messages.ListParticipantMessages(ctx, userID, groupIDs, nil)
		if err != nil {
			return nil, false, 0, fmt.Errorf("scan all messages: %w", err)
		}
		heads = reduceHeads(all)
	}

	total, err := ix.messages.CountConversations(ctx, userID, groupIDs)
	if err != nil {
		return nil, false, 0, fmt.Errorf("count conversations: %w", err)
	}

	if offset >= len(heads) {
		return []Entry{}, false, total, nil
	}
	end := offset + limit
	if end > len(heads) {
		end = len(heads)
	}
	pageEntries := heads[offset:end]
	hasMore := offset+len(pageEntries) < total
	return pageEntries, hasMore, total, nil
}

// reduceHeads collapses a newest-first message scan to one entry per
// conversation key, preserving order. The first message seen per key is
// its maximum by creation time.
func reduceHeads(messages []*store.Message) []Entry {
	seen := make(map[string]struct{}, len(messages))
	entries := make([]Entry, 0)
	for _, m := range messages {
		key := m.ConversationKey()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		entries = append(entries, Entry{ConversationKey: key, LastMessage: m})
	}
	return entries
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultPageSize
	case limit > MaxPageSize:
		return MaxPageSize
	}
	return limit
}
