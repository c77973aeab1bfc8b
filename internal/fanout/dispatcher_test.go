package fanout

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/chatwave/chatwave-server/internal/presence"
)

type recordedEvent struct {
	event   string
	payload any
}

type fakeConn struct {
	events []recordedEvent
	full   bool
}

func (c *fakeConn) Send(event string, payload any) bool {
	if c.full {
		return false
	}
	c.events = append(c.events, recordedEvent{event: event, payload: payload})
	return true
}

func newDispatcher() (*Dispatcher, *presence.Registry) {
	logger := zerolog.Nop()
	registry := presence.NewRegistry()
	return New(registry, &logger), registry
}

func TestNotifyReachesEveryConnectionOfEveryMember(t *testing.T) {
	d, registry := newDispatcher()

	aliceLaptop := &fakeConn{}
	alicePhone := &fakeConn{}
	bob := &fakeConn{}
	registry.Register("alice", aliceLaptop)
	registry.Register("alice", alicePhone)
	registry.Register("bob", bob)

	d.Notify([]string{"alice", "bob"}, "newMessage", "payload")

	for _, c := range []*fakeConn{aliceLaptop, alicePhone, bob} {
		require.Len(t, c.events, 1)
		require.Equal(t, "newMessage", c.events[0].event)
	}
}

func TestNotifySkipsOfflineMembers(t *testing.T) {
	d, registry := newDispatcher()

	alice := &fakeConn{}
	registry.Register("alice", alice)

	// bob has no connection; delivery to him is silently skipped
	d.Notify([]string{"alice", "bob"}, "newMessage", nil)

	require.Len(t, alice.events, 1)
}

func TestNotifyCollapsesDuplicateAudienceEntries(t *testing.T) {
	d, registry := newDispatcher()

	alice := &fakeConn{}
	registry.Register("alice", alice)

	d.Notify([]string{"alice", "alice", "alice"}, "messageSeen", nil)

	require.Len(t, alice.events, 1)
}

func TestSlowConnectionDoesNotBlockOthers(t *testing.T) {
	d, registry := newDispatcher()

	slow := &fakeConn{full: true}
	healthy := &fakeConn{}
	registry.Register("alice", slow)
	registry.Register("bob", healthy)

	d.Notify([]string{"alice", "bob"}, "newMessage", nil)

	require.Empty(t, slow.events)
	require.Len(t, healthy.events, 1)
}

func TestBroadcastReachesAllConnections(t *testing.T) {
	d, registry := newDispatcher()

	conns := []*fakeConn{{}, {}, {}}
	registry.Register("alice", conns[0])
	registry.Register("alice", conns[1])
	registry.Register("bob", conns[2])

	d.Broadcast("getOnlineUsers", []string{"alice", "bob"})

	for _, c := range conns {
		require.Len(t, c.events, 1)
		require.Equal(t, "getOnlineUsers", c.events[0].event)
	}
}
