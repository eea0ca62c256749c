// Package queue provides an unbounded FIFO used between the client's UI and
// network goroutines. Push never blocks, so neither side can stall the other.
package queue

import (
	"context"
	"errors"
	"sync"

	list "github.com/bahlo/generic-list-go"
)

var ErrClosed = errors.New("queue closed")

type Unbounded[T any] struct {
	mu     sync.Mutex
	items  *list.List[T]
	closed bool
	ready  chan struct{} // holds a token while items may be pending
	done   chan struct{}
}

func New[T any]() *Unbounded[T] {
	return &Unbounded[T]{
		items: list.New[T](),
		ready: make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
}

// Push appends v. It reports false if the queue has been closed.
func (q *Unbounded[T]) Push(v T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	q.items.PushBack(v)
	select {
	case q.ready <- struct{}{}:
	default:
	}
	return true
}

// Ready fires after a Push. It may fire spuriously; follow it with Drain.
func (q *Unbounded[T]) Ready() <-chan struct{} {
	return q.ready
}

// Drain removes and returns everything queued, in order.
func (q *Unbounded[T]) Drain() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.items.Len() == 0 {
		return nil
	}
	items := make([]T, 0, q.items.Len())
	for e := q.items.Front(); e != nil; e = e.Next() {
		items = append(items, e.Value)
	}
	q.items.Init()
	return items
}

// Pop blocks until an item is available, the queue is closed and empty, or
// ctx is done.
func (q *Unbounded[T]) Pop(ctx context.Context) (T, error) {
	for {
		q.mu.Lock()
		if front := q.items.Front(); front != nil {
			v := q.items.Remove(front)
			q.mu.Unlock()
			return v, nil
		}
		closed := q.closed
		q.mu.Unlock()

		var zero T
		if closed {
			return zero, ErrClosed
		}
		select {
		case <-q.ready:
		case <-q.done:
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}
}

func (q *Unbounded[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Len()
}

// Close stops further pushes. Items already queued can still be popped.
func (q *Unbounded[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.done)
}
