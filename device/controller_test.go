package device

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pleimann/padlink/link"
)

// memPort is an in-memory Port: tests preload inbound bytes and inspect
// everything the controller wrote.
type memPort struct {
	inbound []byte
	sent    []byte
	readErr error
}

func (p *memPort) Available() int { return len(p.inbound) }

func (p *memPort) ReadByte() (byte, error) {
	if p.readErr != nil {
		return 0, p.readErr
	}

	b := p.inbound[0]
	p.inbound = p.inbound[1:]

	return b, nil
}

func (p *memPort) Write(data []byte) (int, error) {
	p.sent = append(p.sent, data...)
	return len(data), nil
}

func (p *memPort) push(t *testing.T, typ link.MsgType, payload []byte) {
	t.Helper()

	frame, err := link.EncodeFrame(typ, payload)
	require.NoError(t, err)

	p.inbound = append(p.inbound, frame...)
}

func TestNewController_NilPort(t *testing.T) {
	_, err := NewController(nil, link.Handlers{})
	assert.Error(t, err)
}

func TestController_PollDispatches(t *testing.T) {
	var texts []string
	clears := 0

	port := &memPort{}
	ctrl, err := NewController(port, link.Handlers{
		DisplayText: link.TextFunc(func(text string) { texts = append(texts, text) }),
		Clear:       link.ClearFunc(func() { clears++ }),
	})
	require.NoError(t, err)

	port.push(t, link.MsgDisplayText, []byte("track 1"))
	port.push(t, link.MsgClear, nil)

	require.NoError(t, ctrl.Poll())

	assert.Equal(t, []string{"track 1"}, texts)
	assert.Equal(t, 1, clears)
	assert.True(t, ctrl.Connected())
	assert.Equal(t, uint64(2), ctrl.GetMetrics().FrameRecvCount.Load())
}

func TestController_PollEmptyPort(t *testing.T) {
	port := &memPort{}
	ctrl, err := NewController(port, link.Handlers{})
	require.NoError(t, err)

	// Nothing to read is not an error; Poll just advances timers.
	require.NoError(t, ctrl.Poll())
	assert.False(t, ctrl.Connected())
}

func TestController_PollReadError(t *testing.T) {
	portErr := errors.New("port gone")
	port := &memPort{inbound: []byte{0x00}, readErr: portErr}

	ctrl, err := NewController(port, link.Handlers{})
	require.NoError(t, err)

	err = ctrl.Poll()
	assert.ErrorIs(t, err, portErr)
}

func TestController_SendButtonEvent(t *testing.T) {
	port := &memPort{}
	ctrl, err := NewController(port, link.Handlers{})
	require.NoError(t, err)

	require.NoError(t, ctrl.SendButtonEvent(2, true))
	assert.Equal(t, []byte{0xAA, 0x00, 0x03, 0x02, 0x02, 0x01, 0x05}, port.sent)

	port.sent = nil
	require.NoError(t, ctrl.SendButtonEvent(0, false))
	assert.Equal(t, []byte{0xAA, 0x00, 0x03, 0x02, 0x00, 0x00, 0x02}, port.sent)
}

func TestController_SendHeartbeat(t *testing.T) {
	port := &memPort{}
	ctrl, err := NewController(port, link.Handlers{})
	require.NoError(t, err)

	require.NoError(t, ctrl.SendHeartbeat(StatusOK))
	assert.Equal(t, []byte{0xAA, 0x00, 0x02, 0x07, 0x00, 0x07}, port.sent)

	port.sent = nil
	require.NoError(t, ctrl.SendHeartbeat(StatusDegraded))
	assert.Equal(t, []byte{0xAA, 0x00, 0x02, 0x07, 0x01, 0x08}, port.sent)
}

func TestController_DiagnosticsMutedWhileConnected(t *testing.T) {
	port := &memPort{}
	ctrl, err := NewController(port, link.Handlers{})
	require.NoError(t, err)

	diag := ctrl.Diagnostics()

	// Disconnected: diagnostics reach the transport.
	n, err := diag.Write([]byte("booting\n"))
	require.NoError(t, err)
	assert.Equal(t, 8, n)
	assert.Equal(t, []byte("booting\n"), port.sent)

	// A verified frame brings the link up; diagnostics go silent so
	// they cannot interleave with protocol frames.
	port.push(t, link.MsgClear, nil)
	require.NoError(t, ctrl.Poll())
	require.True(t, ctrl.Connected())

	port.sent = nil
	n, err = diag.Write([]byte("noisy debug\n"))
	require.NoError(t, err)
	assert.Equal(t, 12, n)
	assert.Empty(t, port.sent)
}

func TestController_LivenessExpiresWithoutTraffic(t *testing.T) {
	now := time.Unix(1000, 0)
	clock := func() time.Time { return now }

	port := &memPort{}
	ctrl, err := NewController(port, link.Handlers{},
		link.WithClock(clock),
		link.WithLivenessTimeout(time.Second),
	)
	require.NoError(t, err)

	port.push(t, link.MsgHeartbeat, []byte{StatusOK})
	require.NoError(t, ctrl.Poll())
	require.True(t, ctrl.Connected())

	now = now.Add(2 * time.Second)
	require.NoError(t, ctrl.Poll())
	assert.False(t, ctrl.Connected())
}
