package notifier

import (
	"context"
	"fmt"
)

// Queue decouples event producers from the dispatcher. Two backends exist:
// a Redis list shared across instances, and an in-process channel for local
// development and tests.
type Queue interface {
	Publish(ctx context.Context, ev Event) error
	// Pop blocks until an event is available, the timeout elapses (nil, nil),
	// or ctx is done.
	Pop(ctx context.Context) (*Event, error)
	Close() error
}

type memoryQueue struct {
	ch chan Event
}

// NewMemoryQueue returns a buffered in-process queue.
func NewMemoryQueue(size int) Queue {
	if size <= 0 {
		size = 256
	}
	return &memoryQueue{ch: make(chan Event, size)}
}

func (q *memoryQueue) Publish(ctx context.Context, ev Event) error {
	select {
	case q.ch <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fmt.Errorf("event queue full, dropping %s", ev.Name)
	}
}

func (q *memoryQueue) Pop(ctx context.Context) (*Event, error) {
	select {
	case ev, ok := <-q.ch:
		if !ok {
			return nil, fmt.Errorf("event queue closed")
		}
		return &ev, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (q *memoryQueue) Close() error {
	return nil
}
