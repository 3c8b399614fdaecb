package buffer

import "errors"

var ErrInvalidCapacity = errors.New("ring buffer capacity must be positive")

// RingBuffer is a fixed-capacity circular buffer. Once full, each Push
// overwrites the oldest element.
//
// RingBuffer is not safe for concurrent use; callers serialize access.
type RingBuffer[T any] struct {
	data  []T
	head  int // index of the oldest element
	count int
}

// NewRingBuffer creates a ring buffer holding at most capacity elements.
func NewRingBuffer[T any](capacity int) (*RingBuffer[T], error) {
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	return &RingBuffer[T]{data: make([]T, capacity)}, nil
}

// Push appends v and reports whether the oldest element was evicted.
func (rb *RingBuffer[T]) Push(v T) bool {
	capacity := len(rb.data)
	if rb.count < capacity {
		rb.data[(rb.head+rb.count)%capacity] = v
		rb.count++
		return false
	}

	rb.data[rb.head] = v
	rb.head = (rb.head + 1) % capacity
	return true
}

// GetAll returns a copy of the retained elements, oldest first.
func (rb *RingBuffer[T]) GetAll() []T {
	out := make([]T, rb.count)
	capacity := len(rb.data)
	for i := 0; i < rb.count; i++ {
		out[i] = rb.data[(rb.head+i)%capacity]
	}
	return out
}

// Len returns the number of retained elements.
func (rb *RingBuffer[T]) Len() int {
	return rb.count
}

// Cap returns the maximum number of retained elements.
func (rb *RingBuffer[T]) Cap() int {
	return len(rb.data)
}

// Reset drops all elements.
func (rb *RingBuffer[T]) Reset() {
	var zero T
	for i := range rb.data {
		rb.data[i] = zero
	}
	rb.head = 0
	rb.count = 0
}
