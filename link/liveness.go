package link

import (
	"sync"
	"sync/atomic"
	"time"
)

// LinkState represents the derived connectivity of the link.
type LinkState uint32

// Link connectivity states.
const (
	// LinkDown indicates no verified frame has been received recently.
	LinkDown LinkState = iota
	// LinkUp indicates at least one verified frame has been received
	// within the liveness timeout.
	LinkUp
)

// IsUp returns true if the state is LinkUp.
func (s LinkState) IsUp() bool { return s == LinkUp }

// String returns the string representation of the state.
func (s LinkState) String() string {
	switch s {
	case LinkDown:
		return "down"
	case LinkUp:
		return "up"
	default:
		return "unknown"
	}
}

// LinkStateHandler is invoked when the link connectivity changes.
//
// Handlers run synchronously in the context that triggered the
// transition. Take care with long-running implementations.
type LinkStateHandler func(prev LinkState, next LinkState)

// LivenessTracker derives link connectivity from verified frame
// arrival.
//
// The state becomes LinkUp strictly as a side effect of a dispatched
// (checksum-verified) frame, never from raw byte receipt alone. It
// falls back to LinkDown when no verified frame arrives within the
// liveness timeout — the protocol has no explicit disconnect message,
// so expiry is the only down transition besides Reset.
//
// State observation is lock-free; transitions are serialized.
type LivenessTracker struct {
	mu          sync.Mutex
	state       atomic.Uint32
	lastFrameAt time.Time
	timeout     time.Duration
	handlers    []LinkStateHandler
}

// NewLivenessTracker creates a tracker in the LinkDown state.
//
// A timeout of 0 disables expiry: once up, the link stays up until
// Reset is called.
func NewLivenessTracker(timeout time.Duration, handlers ...LinkStateHandler) *LivenessTracker {
	return &LivenessTracker{
		timeout:  timeout,
		handlers: handlers,
	}
}

// State returns the current link state.
func (t *LivenessTracker) State() LinkState {
	return LinkState(t.state.Load())
}

// Connected returns true while the link state is LinkUp.
func (t *LivenessTracker) Connected() bool {
	return t.State().IsUp()
}

// AddHandler registers one or more handlers to be invoked on state changes.
func (t *LivenessTracker) AddHandler(handlers ...LinkStateHandler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handlers = append(t.handlers, handlers...)
}

// MarkAlive records a verified frame arrival at the given time,
// transitioning to LinkUp if currently down.
func (t *LivenessTracker) MarkAlive(now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.lastFrameAt = now
	t.transition(LinkUp)
}

// CheckExpired transitions to LinkDown if the liveness timeout has
// elapsed since the last verified frame. It is a no-op while down or
// when expiry is disabled.
func (t *LivenessTracker) CheckExpired(now time.Time) {
	if t.timeout <= 0 {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.State() != LinkUp {
		return
	}

	if now.Sub(t.lastFrameAt) > t.timeout {
		t.transition(LinkDown)
	}
}

// Reset forces the tracker back to LinkDown, invoking handlers if the
// link was up.
func (t *LivenessTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.transition(LinkDown)
}

// transition changes state and invokes handlers. Callers must hold t.mu.
func (t *LivenessTracker) transition(next LinkState) {
	prev := t.State()
	if prev == next {
		return
	}

	t.state.Store(uint32(next))

	for _, handler := range t.handlers {
		if handler != nil {
			handler(prev, next)
		}
	}
}
