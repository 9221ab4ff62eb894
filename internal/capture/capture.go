// Package capture turns relational commit events into propagation tasks.
// The relational-store adapter calls OnCommit after each successful commit;
// capture only decides intent and enqueues. It performs no index I/O and can
// never fail the caller's transaction.
package capture

import (
	"context"

	"go.uber.org/zap"

	"github.com/meridianhq/searchcore/internal/domain/document"
	"github.com/meridianhq/searchcore/internal/domain/entity"
	"github.com/meridianhq/searchcore/internal/domain/module"
	"github.com/meridianhq/searchcore/internal/domain/task"
	"github.com/meridianhq/searchcore/internal/mapper"
)

// Event is a relational lifecycle event.
type Event int

const (
	EventInsert Event = iota
	EventUpdate
	EventDelete
)

// Change describes one committed row change. Previous carries the pre-update
// values and is set only for updates; it drives field-level change detection
// on accounts.
type Change struct {
	Entity   entity.Entity
	Previous entity.Entity
	Event    Event
}

// Enqueuer is the task-queue producer side.
type Enqueuer interface {
	Enqueue(ctx context.Context, t task.Task) error
}

// Capture decides index-mutation intent for committed changes.
type Capture struct {
	registry *module.Registry
	queue    Enqueuer
	log      *zap.Logger
}

// New creates a change capture bound to a registry and queue.
func New(registry *module.Registry, queue Enqueuer, log *zap.Logger) *Capture {
	return &Capture{registry: registry, queue: queue, log: log}
}

// OnCommit inspects a committed change and enqueues propagation tasks.
// Unregistered entity types are invisible to the index. Enqueue failures are
// logged and dropped; the relational write has already committed and must
// not be affected.
func (c *Capture) OnCommit(ctx context.Context, ch Change) {
	e := ch.Entity
	if e == nil {
		return
	}
	if _, ok := c.registry.Spec(e.Module()); !ok {
		return
	}

	// Account updates additionally diff the embedded field set; this is the
	// mechanism that keeps denormalized copies from drifting indefinitely.
	if ch.Event == EventUpdate {
		c.scatterIfAccountChanged(ctx, ch)
	}

	t := c.intent(ch)
	if t == nil {
		return
	}
	c.enqueue(ctx, *t)
}

func (c *Capture) intent(ch Change) *task.Task {
	e := ch.Entity

	remove := func() *task.Task {
		// Settings rows alias the owner's document; deleting one never
		// removes the aliased document, it just re-indexes it.
		if _, ok := e.(*entity.SearchSetting); ok {
			return upsertTask(e)
		}
		t := task.New(task.KindRemove)
		t.Module = e.Module()
		t.EntityID = entity.DocRowID(e)
		return &t
	}

	switch ch.Event {
	case EventInsert:
		return upsertTask(e)
	case EventUpdate:
		if sd, ok := e.(entity.SoftDeletable); ok && sd.SoftDeleted() {
			return remove()
		}
		return upsertTask(e)
	case EventDelete:
		return remove()
	}
	return nil
}

func upsertTask(e entity.Entity) *task.Task {
	t := task.New(task.KindUpsert)
	t.Module = e.Module()
	t.EntityID = e.RowID()

	// Alias rows are loaded through their owner.
	if s, ok := e.(*entity.SearchSetting); ok {
		t.OwnerUserID = s.UserID
	}
	return &t
}

func (c *Capture) scatterIfAccountChanged(ctx context.Context, ch Change) {
	cur, ok := ch.Entity.(*entity.Account)
	if !ok {
		return
	}
	prev, ok := ch.Previous.(*entity.Account)
	if !ok {
		return
	}

	changed := diffCards(prev, cur)
	if len(changed) == 0 {
		return
	}

	t := task.New(task.KindScatter)
	t.AccountID = cur.ID
	t.ChangedFields = changed
	c.enqueue(ctx, t)
}

// diffCards compares the embedded projections of two account states and
// returns the flattened fields that differ, keyed by their account_-prefixed
// names. Only these fields ever travel in a scatter-update.
func diffCards(prev, cur *entity.Account) map[string]string {
	prevCard := mapper.ProjectAccount(prev)
	curCard := mapper.ProjectAccount(cur)
	prevFields := prevCard.Flatten(document.AccountPrefix)
	curFields := curCard.Flatten(document.AccountPrefix)

	changed := make(map[string]string)
	for k, v := range curFields {
		if prevFields[k] != v {
			changed[k] = v
		}
	}
	return changed
}

func (c *Capture) enqueue(ctx context.Context, t task.Task) {
	if err := c.queue.Enqueue(ctx, t); err != nil {
		c.log.Error("failed to enqueue propagation task",
			zap.String("task_id", t.ID),
			zap.String("kind", string(t.Kind)),
			zap.String("module", string(t.Module)),
			zap.Int64("entity_id", t.EntityID),
			zap.Error(err),
		)
	}
}
