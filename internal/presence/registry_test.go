package presence

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	mu     sync.Mutex
	events []string
}

func (c *fakeConn) Send(event string, _ any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return true
}

func TestRegisterFirstConnectionGoesOnline(t *testing.T) {
	r := NewRegistry()
	c := &fakeConn{}

	require.True(t, r.Register("alice", c))
	require.True(t, r.IsOnline("alice"))
	require.Equal(t, []string{"alice"}, r.OnlineUserIDs())
}

func TestSecondConnectionIsNotATransition(t *testing.T) {
	r := NewRegistry()
	laptop := &fakeConn{}
	phone := &fakeConn{}

	require.True(t, r.Register("alice", laptop))
	require.False(t, r.Register("alice", phone))

	// dropping one device keeps the user online
	userID, wentOffline := r.Unregister(laptop)
	require.Equal(t, "alice", userID)
	require.False(t, wentOffline)
	require.True(t, r.IsOnline("alice"))

	userID, wentOffline = r.Unregister(phone)
	require.Equal(t, "alice", userID)
	require.True(t, wentOffline)
	require.False(t, r.IsOnline("alice"))
}

func TestRegisterIsIdempotentPerConnection(t *testing.T) {
	r := NewRegistry()
	c := &fakeConn{}

	require.True(t, r.Register("alice", c))
	require.False(t, r.Register("alice", c))
	require.Len(t, r.ConnectionsFor("alice"), 1)

	_, wentOffline := r.Unregister(c)
	require.True(t, wentOffline)
}

func TestUnregisterUnknownConnection(t *testing.T) {
	r := NewRegistry()

	userID, wentOffline := r.Unregister(&fakeConn{})
	require.Empty(t, userID)
	require.False(t, wentOffline)
}

func TestOnlineUserIDsSorted(t *testing.T) {
	r := NewRegistry()
	r.Register("carol", &fakeConn{})
	r.Register("alice", &fakeConn{})
	r.Register("bob", &fakeConn{})

	require.Equal(t, []string{"alice", "bob", "carol"}, r.OnlineUserIDs())
}

func TestConcurrentRegisterUnregister(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := &fakeConn{}
			r.Register("alice", c)
			r.IsOnline("alice")
			r.Unregister(c)
		}()
	}
	wg.Wait()

	require.False(t, r.IsOnline("alice"))
	require.Empty(t, r.AllConnections())
}
