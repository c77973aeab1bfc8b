package conversation

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/chatwave/chatwave-server/internal/store"
	"github.com/chatwave/chatwave-server/internal/store/sqlite"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestIndex(t *testing.T) (*Index, store.Store) {
	t.Helper()

	st, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	ix := NewIndex(st, st, 30*24*time.Hour)
	ix.now = func() time.Time { return testNow }
	return ix, st
}

func directMessage(sender, receiver, text string, at time.Time) *store.Message {
	return &store.Message{
		ID:         uuid.NewString(),
		SenderID:   sender,
		ReceiverID: receiver,
		Text:       text,
		CreatedAt:  at,
	}
}

func groupMessage(sender, groupID, text string, at time.Time) *store.Message {
	return &store.Message{
		ID:        uuid.NewString(),
		SenderID:  sender,
		GroupID:   groupID,
		Text:      text,
		CreatedAt: at,
	}
}

func TestHistoryNewestFirstWithCursor(t *testing.T) {
	ix, st := newTestIndex(t)
	ctx := context.Background()

	// insert out of chronological order; read order must come from timestamps
	for _, min := range []int{3, 1, 4, 2, 5} {
		m := directMessage("alice", "bob", fmt.Sprintf("msg-%d", min), testNow.Add(time.Duration(min)*time.Minute))
		require.NoError(t, st.CreateMessage(ctx, m))
	}

	key := store.DirectKey("alice", "bob")

	page, hasMore, err := ix.History(ctx, key, 2, nil)
	require.NoError(t, err)
	require.True(t, hasMore)
	require.Equal(t, "msg-5", page[0].Text)
	require.Equal(t, "msg-4", page[1].Text)

	// strict-before cursor: the page boundary message never repeats
	cursor := page[1].CreatedAt
	page, hasMore, err = ix.History(ctx, key, 2, &cursor)
	require.NoError(t, err)
	require.True(t, hasMore)
	require.Equal(t, "msg-3", page[0].Text)
	require.Equal(t, "msg-2", page[1].Text)

	cursor = page[1].CreatedAt
	page, hasMore, err = ix.History(ctx, key, 2, &cursor)
	require.NoError(t, err)
	require.False(t, hasMore)
	require.Len(t, page, 1)
	require.Equal(t, "msg-1", page[0].Text)
}

func TestHistoryFullLastPageReportsMore(t *testing.T) {
	ix, st := newTestIndex(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		m := directMessage("alice", "bob", fmt.Sprintf("msg-%d", i), testNow.Add(time.Duration(i)*time.Minute))
		require.NoError(t, st.CreateMessage(ctx, m))
	}

	// page size divides the total evenly: the last full page still claims
	// hasMore and the follow-up fetch comes back empty
	key := store.DirectKey("alice", "bob")
	page, hasMore, err := ix.History(ctx, key, 4, nil)
	require.NoError(t, err)
	require.True(t, hasMore)

	cursor := page[3].CreatedAt
	page, hasMore, err = ix.History(ctx, key, 4, &cursor)
	require.NoError(t, err)
	require.False(t, hasMore)
	require.Empty(t, page)
}

func TestLastMessagesOnePerConversation(t *testing.T) {
	ix, st := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, st.CreateMessage(ctx, directMessage("alice", "bob", "old", testNow.Add(-3*time.Hour))))
	require.NoError(t, st.CreateMessage(ctx, directMessage("bob", "alice", "newest with bob", testNow.Add(-1*time.Hour))))
	require.NoError(t, st.CreateMessage(ctx, directMessage("carol", "alice", "from carol", testNow.Add(-2*time.Hour))))

	entries, hasMore, total, err := ix.LastMessages(ctx, "alice", 1, 50)
	require.NoError(t, err)
	require.False(t, hasMore)
	require.Equal(t, 2, total)
	require.Len(t, entries, 2)

	// ordered by last activity, newest conversation first
	require.Equal(t, store.DirectKey("alice", "bob"), entries[0].ConversationKey)
	require.Equal(t, "newest with bob", entries[0].LastMessage.Text)
	require.Equal(t, store.DirectKey("alice", "carol"), entries[1].ConversationKey)
}

func TestLastMessagesIncludesGroups(t *testing.T) {
	ix, st := newTestIndex(t)
	ctx := context.Background()

	g := &store.Group{
		ID:        uuid.NewString(),
		Name:      "trip",
		AdminID:   "bob",
		Members:   []string{"alice"},
		CreatedAt: testNow,
	}
	require.NoError(t, st.CreateGroup(ctx, g))

	require.NoError(t, st.CreateMessage(ctx, directMessage("bob", "alice", "direct", testNow.Add(-2*time.Hour))))
	require.NoError(t, st.CreateMessage(ctx, groupMessage("bob", g.ID, "group talk", testNow.Add(-1*time.Hour))))

	entries, _, total, err := ix.LastMessages(ctx, "alice", 1, 50)
	require.NoError(t, err)
	require.Equal(t, 2, total)
	require.Equal(t, store.GroupKey(g.ID), entries[0].ConversationKey)
	require.Equal(t, store.DirectKey("alice", "bob"), entries[1].ConversationKey)
}

func TestLastMessagesWidensPastWindow(t *testing.T) {
	ix, st := newTestIndex(t)
	ctx := context.Background()

	// one conversation inside the 30d window, two beyond it
	require.NoError(t, st.CreateMessage(ctx, directMessage("alice", "bob", "recent", testNow.Add(-time.Hour))))
	require.NoError(t, st.CreateMessage(ctx, directMessage("alice", "carol", "stale", testNow.Add(-90*24*time.Hour))))
	require.NoError(t, st.CreateMessage(ctx, directMessage("dave", "alice", "ancient", testNow.Add(-120*24*time.Hour))))

	entries, hasMore, total, err := ix.LastMessages(ctx, "alice", 1, 50)
	require.NoError(t, err)
	require.False(t, hasMore)
	require.Equal(t, 3, total)
	require.Len(t, entries, 3)
	require.Equal(t, "recent", entries[0].LastMessage.Text)
	require.Equal(t, "stale", entries[1].LastMessage.Text)
	require.Equal(t, "ancient", entries[2].LastMessage.Text)
}

func TestLastMessagesPagination(t *testing.T) {
	ix, st := newTestIndex(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		peer := fmt.Sprintf("peer-%d", i)
		m := directMessage("alice", peer, peer, testNow.Add(-time.Duration(i)*time.Hour))
		require.NoError(t, st.CreateMessage(ctx, m))
	}

	entries, hasMore, total, err := ix.LastMessages(ctx, "alice", 1, 2)
	require.NoError(t, err)
	require.True(t, hasMore)
	require.Equal(t, 5, total)
	require.Equal(t, "peer-0", entries[0].LastMessage.Text)
	require.Equal(t, "peer-1", entries[1].LastMessage.Text)

	entries, hasMore, _, err = ix.LastMessages(ctx, "alice", 3, 2)
	require.NoError(t, err)
	require.False(t, hasMore)
	require.Len(t, entries, 1)
	require.Equal(t, "peer-4", entries[0].LastMessage.Text)

	// a page past the end is empty, never an error
	entries, hasMore, _, err = ix.LastMessages(ctx, "alice", 9, 2)
	require.NoError(t, err)
	require.False(t, hasMore)
	require.Empty(t, entries)
}

func TestLastMessagesEmptyForNewUser(t *testing.T) {
	ix, _ := newTestIndex(t)

	entries, hasMore, total, err := ix.LastMessages(context.Background(), "nobody", 1, 50)
	require.NoError(t, err)
	require.False(t, hasMore)
	require.Zero(t, total)
	require.Empty(t, entries)
}
