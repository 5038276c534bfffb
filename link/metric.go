package link

import (
	"sync/atomic"
)

// Metrics contains atomic counters for the receive side of a link.
// Counters can be used as the value of a prometheus CounterFunc.
type Metrics struct {
	// FrameRecvCount indicates the number of checksum-valid frames received.
	FrameRecvCount atomic.Uint64
	// LengthErrCount indicates the number of frames dropped for an
	// out-of-range body length.
	LengthErrCount atomic.Uint64
	// ChecksumErrCount indicates the number of frames dropped for a
	// checksum mismatch.
	ChecksumErrCount atomic.Uint64
	// TimeoutResetCount indicates the number of partial frames discarded
	// by the inter-byte timeout.
	TimeoutResetCount atomic.Uint64
	// UnknownTypeCount indicates the number of verified frames dropped
	// for an unrecognized message type.
	UnknownTypeCount atomic.Uint64
}

func (m *Metrics) incFrameRecvCount() {
	m.FrameRecvCount.Add(1)
}

func (m *Metrics) incLengthErrCount() {
	m.LengthErrCount.Add(1)
}

func (m *Metrics) incChecksumErrCount() {
	m.ChecksumErrCount.Add(1)
}

func (m *Metrics) incTimeoutResetCount() {
	m.TimeoutResetCount.Add(1)
}

func (m *Metrics) incUnknownTypeCount() {
	m.UnknownTypeCount.Add(1)
}
