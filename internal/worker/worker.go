// Package worker runs the propagation consumer pool. Workers are stateless
// and share nothing; tasks for different entities never coordinate, and
// same-entity races resolve last-write-wins at the backend.
package worker

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/meridianhq/searchcore/internal/domain/task"
	"github.com/meridianhq/searchcore/internal/metrics"
)

// Dequeuer is the task-queue consumer side.
type Dequeuer interface {
	Dequeue(ctx context.Context) (task.Task, bool, error)
}

// Handler processes one task.
type Handler interface {
	Handle(ctx context.Context, t task.Task) error
}

// Pool consumes tasks with a fixed number of goroutines.
type Pool struct {
	queue   Dequeuer
	handler Handler
	size    int
	log     *zap.Logger
}

// New creates a pool of size workers.
func New(queue Dequeuer, handler Handler, size int, log *zap.Logger) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{queue: queue, handler: handler, size: size, log: log}
}

// Run blocks consuming tasks until ctx is cancelled.
func (p *Pool) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < p.size; i++ {
		worker := i
		g.Go(func() error {
			p.loop(ctx, worker)
			return nil
		})
	}
	return g.Wait()
}

func (p *Pool) loop(ctx context.Context, worker int) {
	log := p.log.With(zap.Int("worker", worker))
	for {
		if ctx.Err() != nil {
			return
		}

		t, ok, err := p.queue.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			log.Error("dequeue failed", zap.Error(err))
			// Back off briefly so a down queue does not spin the pool.
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		if !ok {
			continue
		}

		p.process(ctx, log, t)
	}
}

// process runs one task. Failures are logged and dropped: the index stays
// stale until the next relational write re-triggers propagation, and retry
// is the queue transport's responsibility.
func (p *Pool) process(ctx context.Context, log *zap.Logger, t task.Task) {
	start := time.Now()
	err := p.handler.Handle(ctx, t)
	metrics.ObserveTask(string(t.Kind), err == nil, time.Since(start))

	if err != nil {
		log.Error("task failed, dropping",
			zap.String("task_id", t.ID),
			zap.String("kind", string(t.Kind)),
			zap.String("module", string(t.Module)),
			zap.Int64("entity_id", t.EntityID),
			zap.Error(err),
		)
		return
	}
	log.Debug("task done",
		zap.String("task_id", t.ID),
		zap.String("kind", string(t.Kind)),
		zap.Duration("took", time.Since(start)),
	)
}
