// Package bridge implements the host-side end of a padlink link: it
// owns the transport, decodes device frames (button events and
// heartbeats), exposes a send API for the host→device messages, and
// derives a connected/disconnected notification from heartbeat
// liveness.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/pleimann/padlink/internal/pool"
	"github.com/pleimann/padlink/link"
	"github.com/pleimann/padlink/logger"
)

// Sentinel errors for the bridge.
var (
	// ErrBridgeClosed indicates the bridge has been closed.
	ErrBridgeClosed = errors.New("bridge: closed")

	// ErrSendTimeout indicates the outbound queue stayed full for the
	// whole send timeout.
	ErrSendTimeout = errors.New("bridge: send timeout, outbound queue full")
)

// readBufSize is the chunk size for transport reads.
const readBufSize = 4096

// ButtonAction is invoked when the device reports a button event for a
// registered button ID. It runs on the bridge's reader goroutine; keep
// implementations short or hand off to another goroutine.
type ButtonAction func(pressed bool)

// statusUnknown marks deviceStatus before the first heartbeat arrives.
const statusUnknown int32 = -1

// Bridge runs the host side of a padlink link over a byte transport,
// typically a USB CDC serial port.
//
// A Bridge owns three goroutines after Open: a reader feeding the
// frame decoder, a sender draining the outbound queue, and a liveness
// monitor expiring the connection when heartbeats stop. Close stops
// all of them and closes the transport.
type Bridge struct {
	cfg       *Config
	logger    logger.Logger
	transport io.ReadWriteCloser
	dec       *link.Decoder

	actions      *xsync.MapOf[byte, ButtonAction]
	deviceStatus atomic.Int32

	sendCh chan []byte

	ctx       context.Context
	ctxCancel context.CancelFunc
	wg        sync.WaitGroup
	opened    atomic.Bool
	closed    atomic.Bool

	metrics Metrics
}

// NewBridge creates a Bridge over the given transport. A nil cfg uses
// the default configuration.
//
// The transport's Read may block indefinitely; the bridge relies on
// Close unblocking it via the transport's Close method, as net.Conn
// and serial ports do.
func NewBridge(transport io.ReadWriteCloser, cfg *Config) (*Bridge, error) {
	if transport == nil {
		return nil, errors.New("bridge: transport is nil")
	}

	if cfg == nil {
		var err error
		cfg, err = NewConfig()
		if err != nil {
			return nil, err
		}
	}

	b := &Bridge{
		cfg:       cfg,
		logger:    cfg.logger,
		transport: transport,
		actions:   xsync.NewMapOf[byte, ButtonAction](),
		sendCh:    make(chan []byte, cfg.senderQueueSize),
	}
	b.deviceStatus.Store(statusUnknown)

	dec, err := link.NewDecoder(
		link.Handlers{
			Button:    link.ButtonFunc(b.handleButton),
			Heartbeat: link.HeartbeatFunc(b.handleHeartbeat),
		},
		link.WithFrameTimeout(cfg.frameTimeout),
		link.WithLivenessTimeout(cfg.livenessTimeout),
		link.WithLogger(cfg.logger),
		link.WithLinkStateHandler(b.logLinkState),
	)
	if err != nil {
		return nil, err
	}
	b.dec = dec

	return b, nil
}

// Open starts the bridge's reader, sender, and liveness monitor.
// It is a no-op if the bridge is already open.
func (b *Bridge) Open() error {
	if b.closed.Load() {
		return ErrBridgeClosed
	}
	if !b.opened.CompareAndSwap(false, true) {
		return nil
	}

	b.ctx, b.ctxCancel = context.WithCancel(context.Background())

	b.wg.Add(3)
	go b.readerLoop()
	go b.senderLoop()
	go b.monitorLoop()

	b.logger.Info("bridge: opened",
		"frameTimeout", b.cfg.frameTimeout,
		"livenessTimeout", b.cfg.livenessTimeout,
	)

	return nil
}

// Close stops the bridge and closes the transport. It is safe to call
// more than once.
func (b *Bridge) Close() error {
	if !b.closed.CompareAndSwap(false, true) {
		return nil
	}

	if b.ctxCancel != nil {
		b.ctxCancel()
	}

	// Closing the transport unblocks the reader's pending Read.
	err := b.transport.Close()

	b.wg.Wait()
	b.dec.Liveness().Reset()

	b.logger.Info("bridge: closed")

	if err != nil {
		return fmt.Errorf("bridge: close transport: %w", err)
	}

	return nil
}

// --- Observer registration ---

// OnButton registers an action for a button ID, replacing any previous
// registration. A nil action removes the registration. Safe to call
// concurrently with a running bridge.
func (b *Bridge) OnButton(id byte, action ButtonAction) {
	if action == nil {
		b.actions.Delete(id)
		return
	}
	b.actions.Store(id, action)
}

// OnConnectivityChange registers a handler invoked when the device
// connection state changes. The handler runs synchronously on the
// goroutine that detected the transition.
func (b *Bridge) OnConnectivityChange(fn func(connected bool)) {
	b.dec.Liveness().AddHandler(func(_, next link.LinkState) {
		fn(next.IsUp())
	})
}

// --- State accessors ---

// Connected reports whether the device link is up.
func (b *Bridge) Connected() bool {
	return b.dec.Connected()
}

// DeviceStatus returns the status byte of the most recent heartbeat.
// ok is false before the first heartbeat arrives.
func (b *Bridge) DeviceStatus() (status byte, ok bool) {
	v := b.deviceStatus.Load()
	if v == statusUnknown {
		return 0, false
	}

	return byte(v), true
}

// GetMetrics returns the bridge's send-side metrics.
func (b *Bridge) GetMetrics() *Metrics {
	return &b.metrics
}

// LinkMetrics returns the receive-side link metrics.
func (b *Bridge) LinkMetrics() *link.Metrics {
	return b.dec.GetMetrics()
}

// --- Send API (host → device) ---

// SendDisplayText sends text for the device's main display area.
func (b *Bridge) SendDisplayText(text string) error {
	return b.send(link.MsgDisplayText, []byte(text))
}

// SendStatus sends text for the device's status line.
func (b *Bridge) SendStatus(text string) error {
	return b.send(link.MsgStatus, []byte(text))
}

// SendLEDs sends LED color assignments.
func (b *Bridge) SendLEDs(leds []link.LED) error {
	return b.send(link.MsgSetLEDs, link.EncodeLEDs(leds))
}

// SendLabels sends up to link.MaxLabels button labels.
func (b *Bridge) SendLabels(labels []string) error {
	payload, err := link.EncodeLabels(labels)
	if err != nil {
		return err
	}

	return b.send(link.MsgSetLabels, payload)
}

// SendClear requests a display clear.
func (b *Bridge) SendClear() error {
	return b.send(link.MsgClear, nil)
}

// send encodes a frame and queues it for the sender goroutine, waiting
// up to the send timeout for queue space.
func (b *Bridge) send(typ link.MsgType, payload []byte) error {
	if b.closed.Load() || !b.opened.Load() {
		return ErrBridgeClosed
	}

	frame, err := link.EncodeFrame(typ, payload)
	if err != nil {
		return err
	}

	timer := pool.GetTimer(b.cfg.sendTimeout)
	defer pool.PutTimer(timer)

	select {
	case b.sendCh <- frame:
		return nil
	case <-timer.C:
		return ErrSendTimeout
	case <-b.ctx.Done():
		return ErrBridgeClosed
	}
}

// --- Goroutines ---

// readerLoop copies transport bytes into the decoder until the
// transport fails or the bridge closes.
func (b *Bridge) readerLoop() {
	defer b.wg.Done()

	buf := make([]byte, readBufSize)

	for {
		n, err := b.transport.Read(buf)
		if n > 0 {
			_, _ = b.dec.Write(buf[:n])
		}

		if err != nil {
			if b.ctx.Err() == nil && !errors.Is(err, io.EOF) {
				b.logger.Error("bridge: transport read failed", "error", err)
			}
			b.dec.Liveness().Reset()

			return
		}
	}
}

// senderLoop drains the outbound queue onto the transport.
func (b *Bridge) senderLoop() {
	defer b.wg.Done()

	for {
		select {
		case <-b.ctx.Done():
			return

		case frame := <-b.sendCh:
			if err := b.writeAll(frame); err != nil {
				b.metrics.incSendErrCount()
				if b.ctx.Err() == nil {
					b.logger.Error("bridge: transport write failed", "error", err)
				}

				continue
			}
			b.metrics.incFrameSendCount()
		}
	}
}

// monitorLoop expires link liveness while no heartbeats arrive.
func (b *Bridge) monitorLoop() {
	defer b.wg.Done()

	ticker := time.NewTicker(b.cfg.livenessCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.ctx.Done():
			return

		case now := <-ticker.C:
			b.dec.Liveness().CheckExpired(now)
		}
	}
}

func (b *Bridge) writeAll(data []byte) error {
	for written := 0; written < len(data); {
		n, err := b.transport.Write(data[written:])
		written += n

		if err != nil {
			return err
		}
	}

	return nil
}

// --- Decoder callbacks (reader goroutine) ---

func (b *Bridge) handleButton(id byte, pressed bool) {
	b.metrics.incButtonEventCount()
	b.logger.Debug("bridge: button event", "id", id, "pressed", pressed)

	if action, ok := b.actions.Load(id); ok {
		action(pressed)
	}
}

func (b *Bridge) handleHeartbeat(status byte) {
	b.metrics.incHeartbeatRecvCount()
	b.deviceStatus.Store(int32(status))
}

func (b *Bridge) logLinkState(prev, next link.LinkState) {
	b.logger.Info("bridge: device connectivity changed",
		"prev", prev.String(),
		"next", next.String(),
	)
}
