// Package presence tracks which users currently hold live connections.
// The registry is process-local state: a restart clears all presence.
package presence

import (
	"sort"
	"sync"
)

// Conn is a live client connection as seen by the registry and the
// fan-out dispatcher. Send must not block; it reports whether the
// event was queued (false means dropped, e.g. slow or closed consumer).
type Conn interface {
	Send(event string, payload any) bool
}

// Registry maps user IDs to their set of active connections. One user may
// hold several simultaneous connections (multiple devices). All operations
// are safe for concurrent use from independent connection lifecycles; no
// lock is ever held across I/O.
type Registry struct {
	mu     sync.RWMutex
	conns  map[string]map[Conn]struct{}
	owners map[Conn]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		conns:  make(map[string]map[Conn]struct{}),
		owners: make(map[Conn]string),
	}
}

// Register adds the connection to the user's set. Idempotent if the
// connection is already present. Returns true when this is the user's
// first live connection (offline -> online transition).
func (r *Registry) Register(userID string, c Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.conns[userID]
	if !ok {
		set = make(map[Conn]struct{})
		r.conns[userID] = set
	}
	set[c] = struct{}{}
	r.owners[c] = userID
	return !ok
}

// Unregister removes the connection from whichever user owns it.
// Returns the owning user ID and whether the user went offline
// (connection set became empty and was removed).
func (r *Registry) Unregister(c Conn) (userID string, wentOffline bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	userID, ok := r.owners[c]
	if !ok {
		return "", false
	}
	delete(r.owners, c)

	set := r.conns[userID]
	delete(set, c)
	if len(set) == 0 {
		delete(r.conns, userID)
		return userID, true
	}
	return userID, false
}

// IsOnline reports whether the user has at least one live connection.
func (r *Registry) IsOnline(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns[userID]) > 0
}

// ConnectionsFor returns a snapshot of the user's connections.
// Never fails; an offline user yields an empty slice.
func (r *Registry) ConnectionsFor(userID string) []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := r.conns[userID]
	out := make([]Conn, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	return out
}

// AllConnections returns a snapshot of every live connection.
func (r *Registry) AllConnections() []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Conn, 0, len(r.owners))
	for c := range r.owners {
		out = append(out, c)
	}
	return out
}

// OnlineUserIDs returns the sorted list of users with at least one
// live connection. This is the full presence snapshot broadcast to
// clients on every connect and disconnect.
func (r *Registry) OnlineUserIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.conns))
	for userID := range r.conns {
		out = append(out, userID)
	}
	sort.Strings(out)
	return out
}
