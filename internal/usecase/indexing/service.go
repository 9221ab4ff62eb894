// Package indexing executes propagation tasks: it is the asynchronous half
// of the write path, consuming what capture enqueued. All four task kinds
// are idempotent; every upsert is recomputed from current relational truth,
// so replays and out-of-order delivery converge to the same index state.
package indexing

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/meridianhq/searchcore/internal/domain"
	"github.com/meridianhq/searchcore/internal/domain/document"
	"github.com/meridianhq/searchcore/internal/domain/entity"
	"github.com/meridianhq/searchcore/internal/domain/task"
	"github.com/meridianhq/searchcore/internal/mapper"
)

// Service handles propagation tasks.
type Service struct {
	loader EntityLoader
	repo   Repository
	mapper Mapper
	queue  Enqueuer
	log    *zap.Logger
}

// New creates the propagation service.
func New(loader EntityLoader, repo Repository, m Mapper, queue Enqueuer, log *zap.Logger) *Service {
	return &Service{loader: loader, repo: repo, mapper: m, queue: queue, log: log}
}

// Handle dispatches one task. A returned error means the task is dropped;
// retry, if any, belongs to the queue transport.
func (s *Service) Handle(ctx context.Context, t task.Task) error {
	switch t.Kind {
	case task.KindUpsert:
		return s.handleUpsert(ctx, t)
	case task.KindRemove:
		return s.handleRemove(ctx, t)
	case task.KindCorrection:
		return s.handleCorrection(ctx, t)
	case task.KindScatter:
		return s.handleScatter(ctx, t)
	default:
		return fmt.Errorf("unknown task kind %q", t.Kind)
	}
}

func (s *Service) handleUpsert(ctx context.Context, t task.Task) error {
	e, err := s.load(ctx, t)
	if err != nil {
		if errors.Is(err, domain.ErrEntityNotFound) {
			// Raced a delete; the delete's own remove task converges state.
			s.log.Debug("upsert target gone, dropping",
				zap.String("module", string(t.Module)), zap.Int64("entity_id", t.EntityID))
			return nil
		}
		return err
	}

	if removed, err := s.removeIfSoftDeleted(ctx, e); removed || err != nil {
		return err
	}

	res, err := s.mapper.Map(e)
	if err != nil {
		return err
	}

	if res.Doc != nil {
		if err := s.repo.Upsert(ctx, res.Doc); err != nil {
			return err
		}
	}

	if res.Correction != nil {
		s.enqueueCorrection(ctx, t, res.Correction)
	}
	return nil
}

// removeIfSoftDeleted converges a replayed upsert whose target has been
// soft-deleted since enqueue: a flagged row must have no document, so the
// re-read flips the write into a removal.
func (s *Service) removeIfSoftDeleted(ctx context.Context, e entity.Entity) (bool, error) {
	sd, ok := e.(entity.SoftDeletable)
	if !ok || !sd.SoftDeleted() {
		return false, nil
	}
	docID := document.ID(e.Module(), entity.DocRowID(e))
	s.log.Debug("target soft-deleted on re-read, removing document",
		zap.String("doc_id", docID))
	return true, s.repo.Remove(ctx, docID)
}

func (s *Service) handleRemove(ctx context.Context, t task.Task) error {
	return s.repo.Remove(ctx, document.ID(t.Module, t.EntityID))
}

func (s *Service) handleCorrection(ctx context.Context, t task.Task) error {
	var (
		e   entity.Entity
		err error
	)
	if t.OwnerUserID != 0 {
		// Owner variant: re-index the owning user's document of another
		// module (the settings-alias path).
		e, err = s.loader.LoadUserProfileByUser(ctx, t.OwnerUserID)
	} else {
		e, err = s.loader.Load(ctx, t.Module, t.EntityID)
	}
	if err != nil {
		if errors.Is(err, domain.ErrEntityNotFound) {
			s.log.Debug("correction target gone, dropping",
				zap.String("module", string(t.Module)), zap.Int64("entity_id", t.EntityID))
			return nil
		}
		return err
	}

	if removed, err := s.removeIfSoftDeleted(ctx, e); removed || err != nil {
		return err
	}

	res, err := s.mapper.Map(e)
	if err != nil {
		return err
	}
	if res.Doc == nil {
		return nil
	}
	if res.Correction != nil {
		// Relationships are still unresolved; the next relational write
		// will retrigger. Requeueing here could loop forever.
		s.log.Warn("correction still incomplete after re-read",
			zap.String("module", string(res.Correction.Module)),
			zap.Int64("entity_id", res.Correction.EntityID))
	}
	return s.repo.Upsert(ctx, res.Doc)
}

func (s *Service) handleScatter(ctx context.Context, t task.Task) error {
	n, err := s.repo.PatchAccountFields(ctx, t.AccountID, t.ChangedFields)
	if err != nil {
		return err
	}
	s.log.Info("scatter-update applied",
		zap.Int64("account_id", t.AccountID),
		zap.Int("documents", n),
		zap.Int("fields", len(t.ChangedFields)),
	)
	return nil
}

func (s *Service) load(ctx context.Context, t task.Task) (entity.Entity, error) {
	if t.OwnerUserID != 0 {
		return s.loader.LoadUserProfileByUser(ctx, t.OwnerUserID)
	}
	return s.loader.Load(ctx, t.Module, t.EntityID)
}

func (s *Service) enqueueCorrection(ctx context.Context, parent task.Task, c *mapper.Correction) {
	ct := task.New(task.KindCorrection)
	ct.Module = c.Module
	ct.EntityID = c.EntityID
	ct.AccountID = c.AccountID
	ct.CorporateAccountID = c.CorporateAccountID
	ct.OwnerUserID = c.OwnerUserID

	if err := s.queue.Enqueue(ctx, ct); err != nil {
		s.log.Error("failed to enqueue correction task",
			zap.String("parent_task_id", parent.ID),
			zap.String("module", string(c.Module)),
			zap.Int64("entity_id", c.EntityID),
			zap.Error(err),
		)
	}
}
