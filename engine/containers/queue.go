package containers

import (
	"errors"
	"sync"
)

var ErrQueueEmpty = errors.New("queue is empty")

const defaultQueueSize = 16

// Queue is a growable ring buffer safe for many producers and one consumer.
type Queue[T any] struct {
	mu         sync.Mutex
	data       []T
	readIndex  int
	writeIndex int
	count      int
}

// Create a new Queue with an initial capacity of size elements.
func NewQueue[T any](size int) *Queue[T] {
	if size <= 0 {
		size = defaultQueueSize
	}
	return &Queue[T]{
		data: make([]T, size),
	}
}

// Enqueue adds an element to the back of the queue, growing it when full.
func (q *Queue[T]) Enqueue(value T) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.count == len(q.data) {
		q.grow()
	}
	q.data[q.writeIndex] = value
	q.writeIndex = (q.writeIndex + 1) % len(q.data)
	q.count++
}

// Dequeue removes and returns the front element in the queue
func (q *Queue[T]) Dequeue() (T, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var zero T
	if q.count == 0 {
		return zero, ErrQueueEmpty
	}
	value := q.data[q.readIndex]
	q.data[q.readIndex] = zero
	q.readIndex = (q.readIndex + 1) % len(q.data)
	q.count--
	return value, nil
}

// Drain removes every queued element and returns them in FIFO order.
func (q *Queue[T]) Drain() []T {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.count == 0 {
		return nil
	}
	var zero T
	out := make([]T, 0, q.count)
	for q.count > 0 {
		out = append(out, q.data[q.readIndex])
		q.data[q.readIndex] = zero
		q.readIndex = (q.readIndex + 1) % len(q.data)
		q.count--
	}
	q.readIndex, q.writeIndex = 0, 0
	return out
}

// Len returns the number of queued elements.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

// IsEmpty checks if the queue is empty
func (q *Queue[T]) IsEmpty() bool {
	return q.Len() == 0
}

// grow doubles the buffer, unrolling the ring so reads start at index 0.
func (q *Queue[T]) grow() {
	data := make([]T, len(q.data)*2)
	n := copy(data, q.data[q.readIndex:])
	copy(data[n:], q.data[:q.readIndex])
	q.data = data
	q.readIndex = 0
	q.writeIndex = q.count
}
