package util

import (
	"sync"
)

// RingBuffer implements a growable circular FIFO of samples.
type RingBuffer struct {
	sync.RWMutex
	buf   []byte
	index int // position of the oldest sample
	size  int // number of queued samples
}

// NewRingBuffer creates a new ring buffer with the given initial capacity.
func NewRingBuffer(capacity int) *RingBuffer {
	if capacity < 1 {
		capacity = 1
	}
	return &RingBuffer{buf: make([]byte, capacity)}
}

// Len is the number of samples waiting to be drained.
func (r *RingBuffer) Len() int {
	r.RLock()
	defer r.RUnlock()
	return r.size
}

// Cap is the current capacity before the buffer has to grow.
func (r *RingBuffer) Cap() int {
	r.RLock()
	defer r.RUnlock()
	return len(r.buf)
}

// Reserve grows the buffer so that at least n samples fit without reallocating.
func (r *RingBuffer) Reserve(n int) {
	r.Lock()
	defer r.Unlock()
	if n > len(r.buf) {
		r.grow(n)
	}
}

// Push appends data to the back of the queue.
func (r *RingBuffer) Push(data []byte) {
	r.Lock()
	defer r.Unlock()

	if r.size+len(data) > len(r.buf) {
		r.grow(r.size + len(data))
	}

	en := (r.index + r.size) % len(r.buf)
	n := copy(r.buf[en:], data)
	if n < len(data) {
		copy(r.buf, data[n:])
	}
	r.size += len(data)
}

// Drain removes the n oldest samples and returns them in order.
// It panics if fewer than n samples are queued.
func (r *RingBuffer) Drain(n int) []byte {
	if n < 0 {
		panic("cant drain a negative number of samples")
	}

	r.Lock()
	defer r.Unlock()

	if n > r.size {
		panic("cant drain more samples than are buffered")
	}

	ret := make([]byte, n)
	m := copy(ret, r.buf[r.index:min(r.index+n, len(r.buf))])
	if m < n {
		copy(ret[m:], r.buf[:n-m])
	}

	r.index = (r.index + n) % len(r.buf)
	r.size -= n
	if r.size == 0 {
		r.index = 0
	}
	return ret
}

// grow must be called with the lock held.
func (r *RingBuffer) grow(need int) {
	capacity := 2 * len(r.buf)
	if capacity < need {
		capacity = need
	}
	buf := make([]byte, capacity)

	m := copy(buf, r.buf[r.index:min(r.index+r.size, len(r.buf))])
	if m < r.size {
		copy(buf[m:], r.buf[:r.size-m])
	}

	r.buf = buf
	r.index = 0
}
