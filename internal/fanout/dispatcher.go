// Package fanout delivers mutation events to the live connections of an
// audience. Delivery to offline users is silently skipped; offline clients
// catch up on their next fetch, not via push.
package fanout

import (
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/chatwave/chatwave-server/internal/presence"
)

// Dispatcher resolves audiences to connections via the presence registry
// and emits events on each. Per-connection delivery is fire-and-forget:
// a slow or broken peer never blocks the caller.
type Dispatcher struct {
	registry *presence.Registry
	log      *zerolog.Logger
}

// New builds a dispatcher on top of the given registry.
func New(registry *presence.Registry, logger *zerolog.Logger) *Dispatcher {
	return &Dispatcher{registry: registry, log: logger}
}

// Notify delivers the event to every live connection of every audience
// member. Duplicate audience entries are collapsed; the actor of a mutation
// is expected to be part of its own audience (self-echo over the same
// channel as peers).
func (d *Dispatcher) Notify(audience []string, event string, payload any) {
	for _, userID := range lo.Uniq(audience) {
		d.NotifyUser(userID, event, payload)
	}
}

// NotifyUser delivers the event to every live connection of one user.
// Used directly for client-local instructions (delete-for-me, saved).
func (d *Dispatcher) NotifyUser(userID string, event string, payload any) {
	conns := d.registry.ConnectionsFor(userID)
	if len(conns) == 0 {
		// normal offline case, not an error
		return
	}
	for _, c := range conns {
		if !c.Send(event, payload) {
			d.log.Warn().
				Str("user_id", userID).
				Str("event", event).
				Msg("dropped event for slow connection")
		}
	}
}

// Broadcast delivers the event to every live connection of every user.
// Used for presence snapshots.
func (d *Dispatcher) Broadcast(event string, payload any) {
	for _, c := range d.registry.AllConnections() {
		if !c.Send(event, payload) {
			d.log.Warn().Str("event", event).Msg("dropped broadcast for slow connection")
		}
	}
}
