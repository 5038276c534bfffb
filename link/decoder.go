package link

import (
	"errors"
	"fmt"
	"time"

	"github.com/pleimann/padlink/logger"
)

// Default decoder timeouts.
const (
	// DefaultFrameTimeout is the maximum inter-byte gap tolerated while
	// a frame is in flight before the partial frame is discarded.
	DefaultFrameTimeout = 500 * time.Millisecond

	// DefaultLivenessTimeout is the maximum gap between verified frames
	// before the link is considered down.
	DefaultLivenessTimeout = 5 * time.Second
)

// Frame timeout range limits.
const (
	MinFrameTimeout = 10 * time.Millisecond
	MaxFrameTimeout = 10 * time.Second

	MinLivenessTimeout = 100 * time.Millisecond
	MaxLivenessTimeout = 2 * time.Minute
)

// decodeState is the position of the decoder within a frame.
type decodeState uint8

const (
	stateWaitStart decodeState = iota
	stateReadLenHi
	stateReadLenLo
	stateReadBody
	stateReadChecksum
)

func (s decodeState) String() string {
	switch s {
	case stateWaitStart:
		return "wait-start"
	case stateReadLenHi:
		return "read-len-hi"
	case stateReadLenLo:
		return "read-len-lo"
	case stateReadBody:
		return "read-body"
	case stateReadChecksum:
		return "read-checksum"
	default:
		return "unknown"
	}
}

// Decoder consumes raw transport bytes and emits verified messages to
// the registered handlers.
//
// A Decoder holds at most one in-flight frame at a time and owns a
// fixed-capacity body buffer, so the steady-state decode path performs
// no per-frame allocation. It is created once and cycles forever; the
// state machine returns to wait-start after every complete frame,
// valid or not, and after an inter-byte gap exceeding the frame
// timeout.
//
// Decoder is NOT goroutine-safe. Feed it from a single polling context
// only, consistent with the cooperative device loop it models. Handler
// callbacks run synchronously within that context and must not
// re-enter the decoder.
type Decoder struct {
	handlers Handlers
	logger   logger.Logger
	clock    func() time.Time

	frameTimeout    time.Duration
	livenessTimeout time.Duration
	stateHandlers   []LinkStateHandler

	state      decodeState
	body       [MaxBodyLen]byte
	bodyLen    int
	bodyIdx    int
	lastByteAt time.Time

	liveness *LivenessTracker
	metrics  Metrics
}

// DecoderOption is a functional option for configuring a Decoder.
type DecoderOption interface {
	apply(*Decoder) error
}

type decoderOptFunc func(*Decoder) error

func (f decoderOptFunc) apply(d *Decoder) error { return f(d) }

// WithFrameTimeout sets the inter-byte timeout that bounds the lifetime
// of a partial frame. Must be in [MinFrameTimeout, MaxFrameTimeout].
func WithFrameTimeout(d time.Duration) DecoderOption {
	return decoderOptFunc(func(dec *Decoder) error {
		if d < MinFrameTimeout || d > MaxFrameTimeout {
			return fmt.Errorf("link: frame timeout %v out of range [%v, %v]", d, MinFrameTimeout, MaxFrameTimeout)
		}
		dec.frameTimeout = d

		return nil
	})
}

// WithLivenessTimeout sets the gap between verified frames after which
// the link is considered down. A value of 0 disables expiry; otherwise
// it must be in [MinLivenessTimeout, MaxLivenessTimeout].
func WithLivenessTimeout(d time.Duration) DecoderOption {
	return decoderOptFunc(func(dec *Decoder) error {
		if d != 0 && (d < MinLivenessTimeout || d > MaxLivenessTimeout) {
			return fmt.Errorf("link: liveness timeout %v out of range [%v, %v]", d, MinLivenessTimeout, MaxLivenessTimeout)
		}
		dec.livenessTimeout = d

		return nil
	})
}

// WithLinkStateHandler registers a handler invoked on link state changes.
func WithLinkStateHandler(h LinkStateHandler) DecoderOption {
	return decoderOptFunc(func(dec *Decoder) error {
		if h == nil {
			return errors.New("link: link state handler must not be nil")
		}
		dec.stateHandlers = append(dec.stateHandlers, h)

		return nil
	})
}

// WithLogger sets the logger for the decoder.
func WithLogger(l logger.Logger) DecoderOption {
	return decoderOptFunc(func(dec *Decoder) error {
		if l == nil {
			return errors.New("link: logger must not be nil")
		}
		dec.logger = l

		return nil
	})
}

// WithClock sets the time source used for timeout tracking. Intended
// for tests; defaults to time.Now.
func WithClock(clock func() time.Time) DecoderOption {
	return decoderOptFunc(func(dec *Decoder) error {
		if clock == nil {
			return errors.New("link: clock must not be nil")
		}
		dec.clock = clock

		return nil
	})
}

// NewDecoder creates a Decoder dispatching to the given handlers.
//
// Nil handler capabilities are permitted; messages without a registered
// capability are dropped at dispatch with no error.
func NewDecoder(handlers Handlers, opts ...DecoderOption) (*Decoder, error) {
	dec := &Decoder{
		handlers:        handlers,
		logger:          logger.GetLogger(),
		clock:           time.Now,
		frameTimeout:    DefaultFrameTimeout,
		livenessTimeout: DefaultLivenessTimeout,
	}

	for _, opt := range opts {
		if err := opt.apply(dec); err != nil {
			return nil, err
		}
	}

	dec.liveness = NewLivenessTracker(dec.livenessTimeout, dec.stateHandlers...)

	return dec, nil
}

// Write feeds raw transport bytes into the decoder, implementing
// io.Writer so a transport reader can copy into it directly. It always
// consumes all of p and never returns an error: framing, length,
// integrity, and staleness failures are recovered internally by
// resynchronization, not surfaced.
func (d *Decoder) Write(p []byte) (int, error) {
	now := d.clock()
	d.checkFrameTimeout(now)

	for _, b := range p {
		d.feed(b, now)
	}

	return len(p), nil
}

// Feed consumes a single transport byte.
func (d *Decoder) Feed(b byte) {
	now := d.clock()
	d.checkFrameTimeout(now)
	d.feed(b, now)
}

// Tick drives the decoder's timers while no bytes are arriving: it
// discards a stale partial frame and expires link liveness. Call it
// from the same polling context that feeds the decoder.
func (d *Decoder) Tick() {
	now := d.clock()
	d.checkFrameTimeout(now)
	d.liveness.CheckExpired(now)
}

// Reset forces the state machine back to wait-start, discarding any
// partial frame. Liveness is unaffected.
func (d *Decoder) Reset() {
	d.state = stateWaitStart
	d.bodyLen = 0
	d.bodyIdx = 0
}

// Liveness returns the decoder's liveness tracker. The tracker is safe
// for concurrent observation from other goroutines.
func (d *Decoder) Liveness() *LivenessTracker {
	return d.liveness
}

// Connected reports whether the link is up.
func (d *Decoder) Connected() bool {
	return d.liveness.Connected()
}

// GetMetrics returns the metrics associated with the decoder.
func (d *Decoder) GetMetrics() *Metrics {
	return &d.metrics
}

// GetLogger returns the logger associated with the decoder.
func (d *Decoder) GetLogger() logger.Logger {
	return d.logger
}

// checkFrameTimeout discards the in-flight frame if the inter-byte gap
// exceeded the frame timeout. This is the sole recovery path for a
// truncated frame; there is no negative acknowledgment on the wire.
func (d *Decoder) checkFrameTimeout(now time.Time) {
	if d.state == stateWaitStart {
		return
	}

	if now.Sub(d.lastByteAt) > d.frameTimeout {
		d.logger.Debug("link: frame timeout, resync",
			"state", d.state.String(),
			"bodyLen", d.bodyLen,
			"buffered", d.bodyIdx,
		)
		d.metrics.incTimeoutResetCount()
		d.Reset()
	}
}

// feed advances the state machine by one byte.
//
// A rejected frame does not re-scan its consumed bytes for a new start
// marker; the next byte is simply read as if the machine were freshly
// in wait-start. A spurious marker inside a rejected body is therefore
// only recognized going forward.
func (d *Decoder) feed(b byte, now time.Time) {
	d.lastByteAt = now

	switch d.state {
	case stateWaitStart:
		if b == StartByte {
			d.state = stateReadLenHi
		}

	case stateReadLenHi:
		d.bodyLen = int(b) << 8
		d.state = stateReadLenLo

	case stateReadLenLo:
		d.bodyLen |= int(b)
		if d.bodyLen == 0 || d.bodyLen > MaxBodyLen {
			d.logger.Debug("link: invalid body length, resync", "bodyLen", d.bodyLen)
			d.metrics.incLengthErrCount()
			d.state = stateWaitStart
		} else {
			d.bodyIdx = 0
			d.state = stateReadBody
		}

	case stateReadBody:
		d.body[d.bodyIdx] = b
		d.bodyIdx++
		if d.bodyIdx >= d.bodyLen {
			d.state = stateReadChecksum
		}

	case stateReadChecksum:
		body := d.body[:d.bodyLen]
		if b == Checksum(body) {
			d.metrics.incFrameRecvCount()
			d.dispatch(body, now)
		} else {
			d.logger.Debug("link: checksum mismatch, frame dropped",
				"type", MsgType(body[0]).String(),
				"bodyLen", d.bodyLen,
			)
			d.metrics.incChecksumErrCount()
		}
		d.state = stateWaitStart
	}
}
