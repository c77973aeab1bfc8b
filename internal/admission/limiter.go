// Package admission throttles mutation handlers and connection attempts
// with fixed-window counters keyed by user or network identity.
package admission

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Class identifies a protected operation family. Each class carries its
// own limit; exceeding one class never affects another.
type Class string

const (
	// ClassAuth covers login and registration attempts.
	ClassAuth Class = "auth"
	// ClassMessage covers message mutations (send/edit/delete/react/...).
	ClassMessage Class = "message"
	// ClassAPI covers generic read API traffic.
	ClassAPI Class = "api"
	// ClassSensitive covers destructive operations (group delete, media delete).
	ClassSensitive Class = "sensitive"
	// ClassConnect covers websocket connection attempts.
	ClassConnect Class = "connect"
)

// Limit is a fixed window configuration: at most Max operations per Window.
type Limit struct {
	Max    int
	Window time.Duration
}

// Result is the outcome of an admission check. RetryAfter is the remaining
// window time when the check was rejected.
type Result struct {
	Allowed    bool
	RetryAfter time.Duration
}

// DefaultLimits returns the stock per-class limits.
func DefaultLimits() map[Class]Limit {
	return map[Class]Limit{
		ClassAuth:      {Max: 5, Window: 15 * time.Minute},
		ClassMessage:   {Max: 30, Window: time.Minute},
		ClassAPI:       {Max: 300, Window: 15 * time.Minute},
		ClassSensitive: {Max: 10, Window: time.Hour},
		ClassConnect:   {Max: 20, Window: time.Minute},
	}
}

type window struct {
	start time.Time
	count int
}

// Controller holds the windowed counters. Process-local state: limits
// resetting on restart is an accepted availability trade-off.
type Controller struct {
	mu      sync.Mutex
	limits  map[Class]Limit
	windows map[string]*window
	now     func() time.Time
	log     *zerolog.Logger
}

// New builds a controller with the given limits. Classes absent from the
// map are never throttled.
func New(limits map[Class]Limit, logger *zerolog.Logger) *Controller {
	if limits == nil {
		limits = DefaultLimits()
	}
	return &Controller{
		limits:  limits,
		windows: make(map[string]*window),
		now:     time.Now,
		log:     logger,
	}
}

// Check counts one operation against the class window for the given key
// and reports whether it is admitted. Unknown or zero-configured classes
// fail open: throttling must never block legitimate traffic on a
// configuration gap.
func (c *Controller) Check(class Class, key string) Result {
	limit, ok := c.limits[class]
	if !ok || limit.Max <= 0 || limit.Window <= 0 || key == "" {
		return Result{Allowed: true}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	k := string(class) + "|" + key
	w := c.windows[k]
	if w == nil || now.Sub(w.start) >= limit.Window {
		w = &window{start: now}
		c.windows[k] = w
	}

	w.count++
	if w.count > limit.Max {
		return Result{
			Allowed:    false,
			RetryAfter: w.start.Add(limit.Window).Sub(now),
		}
	}
	return Result{Allowed: true}
}

// StartSweeper evicts expired windows periodically to bound memory.
// Stops when the context is cancelled.
func (c *Controller) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				evicted := c.sweep()
				if evicted > 0 && c.log != nil {
					c.log.Debug().Int("evicted", evicted).Msg("admission windows swept")
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (c *Controller) sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	evicted := 0
	for k, w := range c.windows {
		class, _, _ := strings.Cut(k, "|")
		limit, ok := c.limits[Class(class)]
		if !ok || now.Sub(w.start) >= limit.Window {
			delete(c.windows, k)
			evicted++
		}
	}
	return evicted
}
