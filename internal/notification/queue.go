package notification

import (
	"context"
	"errors"
)

var ErrQueueFull = errors.New("notification queue is full")

// Queue buffers messages between Dispatcher.Send and the workers.
type Queue interface {
	// Push must not block longer than ctx allows.
	Push(ctx context.Context, msg Message) error
	// Pop blocks until a message is available or ctx is done.
	Pop(ctx context.Context) (Message, error)
}

// MemoryQueue is a bounded in-process queue. Messages are lost on restart.
type MemoryQueue struct {
	ch chan Message
}

func NewMemoryQueue(size int) *MemoryQueue {
	if size <= 0 {
		size = 1
	}
	return &MemoryQueue{ch: make(chan Message, size)}
}

// Push returns ErrQueueFull instead of waiting for space.
func (q *MemoryQueue) Push(_ context.Context, msg Message) error {
	select {
	case q.ch <- msg:
		return nil
	default:
		return ErrQueueFull
	}
}

func (q *MemoryQueue) Pop(ctx context.Context) (Message, error) {
	select {
	case msg := <-q.ch:
		return msg, nil
	case <-ctx.Done():
		return Message{}, ctx.Err()
	}
}

// Len reports the number of buffered messages.
func (q *MemoryQueue) Len() int {
	return len(q.ch)
}
