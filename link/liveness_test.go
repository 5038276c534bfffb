package link

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLivenessTracker_InitialState(t *testing.T) {
	tracker := NewLivenessTracker(time.Second)

	assert.Equal(t, LinkDown, tracker.State())
	assert.False(t, tracker.Connected())
}

func TestLivenessTracker_UpDownCycle(t *testing.T) {
	type transition struct {
		prev LinkState
		next LinkState
	}

	var seen []transition
	tracker := NewLivenessTracker(time.Second, func(prev, next LinkState) {
		seen = append(seen, transition{prev, next})
	})

	base := time.Unix(1000, 0)

	tracker.MarkAlive(base)
	assert.True(t, tracker.Connected())

	// Repeated arrivals while up do not retrigger handlers.
	tracker.MarkAlive(base.Add(100 * time.Millisecond))
	assert.Len(t, seen, 1)

	// Within the timeout the link stays up.
	tracker.CheckExpired(base.Add(time.Second))
	assert.True(t, tracker.Connected())

	// Past the timeout it drops.
	tracker.CheckExpired(base.Add(2200 * time.Millisecond))
	assert.False(t, tracker.Connected())

	assert.Equal(t, []transition{
		{LinkDown, LinkUp},
		{LinkUp, LinkDown},
	}, seen)
}

func TestLivenessTracker_TimeoutSlidesWithFrames(t *testing.T) {
	tracker := NewLivenessTracker(time.Second)
	base := time.Unix(1000, 0)

	tracker.MarkAlive(base)

	// Keep arriving just inside the window; the link never drops.
	for i := 1; i <= 5; i++ {
		now := base.Add(time.Duration(i) * 900 * time.Millisecond)
		tracker.CheckExpired(now)
		assert.True(t, tracker.Connected(), "iteration %d", i)
		tracker.MarkAlive(now)
	}
}

func TestLivenessTracker_ExpiryDisabled(t *testing.T) {
	tracker := NewLivenessTracker(0)
	base := time.Unix(1000, 0)

	tracker.MarkAlive(base)
	tracker.CheckExpired(base.Add(time.Hour))

	assert.True(t, tracker.Connected())
}

func TestLivenessTracker_Reset(t *testing.T) {
	downs := 0
	tracker := NewLivenessTracker(time.Second, func(_, next LinkState) {
		if next == LinkDown {
			downs++
		}
	})

	tracker.MarkAlive(time.Unix(1000, 0))
	tracker.Reset()

	assert.False(t, tracker.Connected())
	assert.Equal(t, 1, downs)

	// Reset while already down is a no-op.
	tracker.Reset()
	assert.Equal(t, 1, downs)
}

func TestLivenessTracker_AddHandler(t *testing.T) {
	tracker := NewLivenessTracker(time.Second)

	calls := 0
	tracker.AddHandler(func(_, _ LinkState) { calls++ })

	tracker.MarkAlive(time.Unix(1000, 0))
	assert.Equal(t, 1, calls)
}

func TestLinkState_String(t *testing.T) {
	assert.Equal(t, "down", LinkDown.String())
	assert.Equal(t, "up", LinkUp.String())
	assert.Equal(t, "unknown", LinkState(42).String())
}
