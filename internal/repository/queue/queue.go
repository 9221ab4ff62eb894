// Package queue is the Redis-list task-queue transport. Delivery is
// at-least-once: the worker re-reads relational truth per task, so replays
// converge rather than corrupt.
package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/meridianhq/searchcore/internal/domain/task"
)

// store is the consumer interface for list operations.
type store interface {
	LPush(ctx context.Context, key string, values ...string) error
	BRPop(ctx context.Context, key string, timeout time.Duration) (string, bool, error)
	LLen(ctx context.Context, key string) (int64, error)
}

// Queue is a Redis-list backed task queue.
type Queue struct {
	store       store
	key         string
	pollTimeout time.Duration
}

// New creates a queue over the given list key.
func New(s store, keyPrefix string, pollTimeout time.Duration) *Queue {
	if pollTimeout <= 0 {
		pollTimeout = 2 * time.Second
	}
	return &Queue{store: s, key: keyPrefix + "tasks", pollTimeout: pollTimeout}
}

// Enqueue pushes a task for asynchronous processing.
func (q *Queue) Enqueue(ctx context.Context, t task.Task) error {
	raw, err := t.Encode()
	if err != nil {
		return err
	}
	if err := q.store.LPush(ctx, q.key, raw); err != nil {
		return fmt.Errorf("enqueue %s task: %w", t.Kind, err)
	}
	return nil
}

// Dequeue blocks up to the poll timeout for the next task. The second return
// is false when the timeout elapsed empty-handed.
func (q *Queue) Dequeue(ctx context.Context) (task.Task, bool, error) {
	raw, ok, err := q.store.BRPop(ctx, q.key, q.pollTimeout)
	if err != nil {
		return task.Task{}, false, fmt.Errorf("dequeue: %w", err)
	}
	if !ok {
		return task.Task{}, false, nil
	}
	t, err := task.Decode(raw)
	if err != nil {
		return task.Task{}, false, err
	}
	return t, true, nil
}

// Depth returns the number of queued tasks, for health and metrics.
func (q *Queue) Depth(ctx context.Context) (int64, error) {
	n, err := q.store.LLen(ctx, q.key)
	if err != nil {
		return 0, fmt.Errorf("queue depth: %w", err)
	}
	return n, nil
}
