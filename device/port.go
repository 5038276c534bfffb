package device

import (
	"io"
	"sync/atomic"

	"github.com/pleimann/padlink/internal/bytequeue"
)

// Port is the byte transport a Controller polls. It mirrors the
// non-blocking read model of a hardware serial port: Available reports
// how many bytes ReadByte can return without blocking.
type Port interface {
	io.Writer

	// Available returns the number of bytes that can be read without blocking.
	Available() int

	// ReadByte returns the next available byte. It must only be called
	// when Available reports at least one byte.
	ReadByte() (byte, error)
}

// streamPortBufSize is the chunk size for reads from the underlying transport.
const streamPortBufSize = 4096

// StreamPort adapts a blocking io.ReadWriter (a serial port, a net.Conn)
// to the Port contract by pumping reads through an internal byte queue
// on a background goroutine.
//
// Writes pass straight through to the underlying transport. Once the
// underlying reader fails, Available drains the remaining buffered
// bytes and then stays at zero; Err reports the terminal read error.
type StreamPort struct {
	rw  io.ReadWriter
	buf *bytequeue.Queue
	err atomic.Value // error
}

// NewStreamPort creates a StreamPort and starts its reader goroutine.
func NewStreamPort(rw io.ReadWriter) *StreamPort {
	p := &StreamPort{
		rw:  rw,
		buf: bytequeue.New(streamPortBufSize),
	}

	go p.readLoop()

	return p
}

func (p *StreamPort) readLoop() {
	chunk := make([]byte, streamPortBufSize)

	for {
		n, err := p.rw.Read(chunk)
		if n > 0 {
			p.buf.Push(chunk[:n])
		}
		if err != nil {
			p.err.Store(err)
			return
		}
	}
}

// Available returns the number of buffered bytes.
func (p *StreamPort) Available() int {
	return p.buf.Len()
}

// ReadByte returns the next buffered byte, or io.EOF when none is
// buffered and the underlying reader has failed.
func (p *StreamPort) ReadByte() (byte, error) {
	b, ok := p.buf.Pop()
	if !ok {
		if err := p.Err(); err != nil {
			return 0, err
		}

		return 0, io.ErrNoProgress
	}

	return b, nil
}

// Write writes to the underlying transport.
func (p *StreamPort) Write(data []byte) (int, error) {
	return p.rw.Write(data)
}

// Err returns the terminal error of the reader goroutine, or nil while
// it is still running.
func (p *StreamPort) Err() error {
	if v := p.err.Load(); v != nil {
		return v.(error) //nolint:forcetypeassert // only errors are stored
	}

	return nil
}

var _ Port = (*StreamPort)(nil)
