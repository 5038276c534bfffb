package bridge

import (
	"sync/atomic"
)

// Metrics contains atomic counters for a Bridge. Counters can be used
// as the value of a prometheus CounterFunc.
type Metrics struct {
	// FrameSendCount indicates the number of frames written to the transport.
	FrameSendCount atomic.Uint64
	// SendErrCount indicates the number of transport write failures.
	SendErrCount atomic.Uint64
	// ButtonEventCount indicates the number of button events received.
	ButtonEventCount atomic.Uint64
	// HeartbeatRecvCount indicates the number of heartbeats received.
	HeartbeatRecvCount atomic.Uint64
}

func (m *Metrics) incFrameSendCount() {
	m.FrameSendCount.Add(1)
}

func (m *Metrics) incSendErrCount() {
	m.SendErrCount.Add(1)
}

func (m *Metrics) incButtonEventCount() {
	m.ButtonEventCount.Add(1)
}

func (m *Metrics) incHeartbeatRecvCount() {
	m.HeartbeatRecvCount.Add(1)
}
