package device

import (
	"fmt"
	"io"

	"github.com/pleimann/padlink/link"
)

// Heartbeat status codes reported by the device.
const (
	// StatusOK indicates normal operation.
	StatusOK byte = 0x00
	// StatusDegraded indicates the device is running with reduced
	// functionality (e.g. a peripheral failed to initialize).
	StatusDegraded byte = 0x01
)

// Controller runs the device side of a padlink link over a Port.
//
// Controller is NOT goroutine-safe: Poll and the Send methods must be
// called from the same single cooperative loop. Handler callbacks run
// synchronously inside Poll and must not call back into the
// controller's receive path.
type Controller struct {
	port Port
	dec  *link.Decoder
}

// NewController creates a Controller decoding host frames into the
// given handlers. Decoder options configure timeouts and logging.
func NewController(port Port, handlers link.Handlers, opts ...link.DecoderOption) (*Controller, error) {
	if port == nil {
		return nil, fmt.Errorf("device: port is nil")
	}

	dec, err := link.NewDecoder(handlers, opts...)
	if err != nil {
		return nil, err
	}

	return &Controller{port: port, dec: dec}, nil
}

// Poll drives one iteration of the cooperative loop: it advances the
// decoder's timers, then drains all currently available port bytes
// into the decoder. It never blocks.
//
// A read error from the port is returned after the bytes read so far
// have been consumed; the decoder remains usable.
func (c *Controller) Poll() error {
	c.dec.Tick()

	for c.port.Available() > 0 {
		b, err := c.port.ReadByte()
		if err != nil {
			return fmt.Errorf("device: port read failed: %w", err)
		}
		c.dec.Feed(b)
	}

	return nil
}

// SendButtonEvent reports a button press or release to the host.
func (c *Controller) SendButtonEvent(id byte, pressed bool) error {
	p := byte(0)
	if pressed {
		p = 1
	}

	return c.sendFrame(link.MsgButton, []byte{id, p})
}

// SendHeartbeat reports the device status byte to the host. Sent
// periodically so the host can detect a dead link absent other traffic.
func (c *Controller) SendHeartbeat(status byte) error {
	return c.sendFrame(link.MsgHeartbeat, []byte{status})
}

// Connected reports whether the bridge link is up.
func (c *Controller) Connected() bool {
	return c.dec.Connected()
}

// Liveness returns the link liveness tracker.
func (c *Controller) Liveness() *link.LivenessTracker {
	return c.dec.Liveness()
}

// GetMetrics returns the receive-side link metrics.
func (c *Controller) GetMetrics() *link.Metrics {
	return c.dec.GetMetrics()
}

// Diagnostics returns a writer for operator-facing diagnostic text.
//
// The transport is shared between diagnostics and the binary protocol;
// while the bridge is connected the writer swallows all output so
// human-readable text never interleaves with frames. Writes always
// report full length.
func (c *Controller) Diagnostics() io.Writer {
	return diagWriter{c: c}
}

func (c *Controller) sendFrame(typ link.MsgType, payload []byte) error {
	frame, err := link.EncodeFrame(typ, payload)
	if err != nil {
		return err
	}

	for written := 0; written < len(frame); {
		n, err := c.port.Write(frame[written:])
		written += n

		if err != nil {
			return fmt.Errorf("device: port write failed: %w", err)
		}
	}

	return nil
}

// diagWriter implements the mute-diagnostics-while-connected policy.
type diagWriter struct {
	c *Controller
}

func (w diagWriter) Write(p []byte) (int, error) {
	if w.c.Connected() {
		return len(p), nil
	}

	return w.c.port.Write(p)
}
