// Package bytequeue provides a concurrent FIFO of bytes.
//
// It buffers bytes pumped from a blocking transport reader so a
// cooperative polling loop can drain them without blocking, mirroring
// the "available bytes" semantics of a hardware serial port.
package bytequeue

import (
	"sync"
)

// Queue is a growable byte FIFO safe for one producer and one consumer
// running on different goroutines.
type Queue struct {
	mu    sync.Mutex
	items []byte
	head  int
}

// New creates a Queue with the given preallocated capacity.
func New(prealloc int) *Queue {
	return &Queue{items: make([]byte, 0, prealloc)}
}

// Push appends bytes to the tail of the queue.
func (q *Queue) Push(p []byte) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.items = append(q.items, p...)
}

// Pop removes and returns the byte at the head of the queue.
// The second return value is false if the queue is empty.
func (q *Queue) Pop() (byte, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.head >= len(q.items) {
		return 0, false
	}

	b := q.items[q.head]
	q.head++

	// Reclaim consumed space once everything has been drained.
	if q.head == len(q.items) {
		q.items = q.items[:0]
		q.head = 0
	}

	return b, true
}

// Len returns the number of buffered bytes.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.items) - q.head
}

// Reset discards all buffered bytes.
func (q *Queue) Reset() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.items = q.items[:0]
	q.head = 0
}
