package admission

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestController(limits map[Class]Limit) (*Controller, *time.Time) {
	logger := zerolog.Nop()
	c := New(limits, &logger)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	return c, &now
}

func TestChecksWithinLimitAreAllowed(t *testing.T) {
	c, _ := newTestController(map[Class]Limit{ClassAuth: {Max: 5, Window: 15 * time.Minute}})

	for i := 0; i < 5; i++ {
		require.True(t, c.Check(ClassAuth, "alice").Allowed, "attempt %d", i+1)
	}
}

func TestExceedingLimitRejectsWithRetryAfter(t *testing.T) {
	c, now := newTestController(map[Class]Limit{ClassAuth: {Max: 5, Window: 15 * time.Minute}})

	for i := 0; i < 5; i++ {
		c.Check(ClassAuth, "alice")
	}
	*now = now.Add(5 * time.Minute)

	res := c.Check(ClassAuth, "alice")
	require.False(t, res.Allowed)
	require.Equal(t, 10*time.Minute, res.RetryAfter)
}

func TestWindowExpiryResetsCounter(t *testing.T) {
	c, now := newTestController(map[Class]Limit{ClassMessage: {Max: 2, Window: time.Minute}})

	require.True(t, c.Check(ClassMessage, "alice").Allowed)
	require.True(t, c.Check(ClassMessage, "alice").Allowed)
	require.False(t, c.Check(ClassMessage, "alice").Allowed)

	*now = now.Add(time.Minute)
	require.True(t, c.Check(ClassMessage, "alice").Allowed)
}

func TestClassesAreIndependent(t *testing.T) {
	c, _ := newTestController(map[Class]Limit{
		ClassAuth:    {Max: 1, Window: time.Minute},
		ClassMessage: {Max: 1, Window: time.Minute},
	})

	require.True(t, c.Check(ClassAuth, "alice").Allowed)
	require.False(t, c.Check(ClassAuth, "alice").Allowed)

	// the message class still has budget for the same key
	require.True(t, c.Check(ClassMessage, "alice").Allowed)
}

func TestKeysAreIndependent(t *testing.T) {
	c, _ := newTestController(map[Class]Limit{ClassAuth: {Max: 1, Window: time.Minute}})

	require.True(t, c.Check(ClassAuth, "alice").Allowed)
	require.False(t, c.Check(ClassAuth, "alice").Allowed)
	require.True(t, c.Check(ClassAuth, "bob").Allowed)
}

func TestUnknownClassFailsOpen(t *testing.T) {
	c, _ := newTestController(map[Class]Limit{})

	for i := 0; i < 1000; i++ {
		require.True(t, c.Check(ClassAPI, "alice").Allowed)
	}
}

func TestEmptyKeyFailsOpen(t *testing.T) {
	c, _ := newTestController(map[Class]Limit{ClassAuth: {Max: 1, Window: time.Minute}})

	require.True(t, c.Check(ClassAuth, "").Allowed)
	require.True(t, c.Check(ClassAuth, "").Allowed)
}

func TestSweepEvictsExpiredWindows(t *testing.T) {
	c, now := newTestController(map[Class]Limit{ClassMessage: {Max: 5, Window: time.Minute}})

	c.Check(ClassMessage, "alice")
	c.Check(ClassMessage, "bob")
	require.Len(t, c.windows, 2)

	require.Zero(t, c.sweep())

	*now = now.Add(2 * time.Minute)
	require.Equal(t, 2, c.sweep())
	require.Empty(t, c.windows)
}
