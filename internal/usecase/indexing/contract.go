package indexing

import (
	"context"

	"github.com/meridianhq/searchcore/internal/domain/document"
	"github.com/meridianhq/searchcore/internal/domain/entity"
	"github.com/meridianhq/searchcore/internal/domain/module"
	"github.com/meridianhq/searchcore/internal/domain/task"
	"github.com/meridianhq/searchcore/internal/mapper"
)

// EntityLoader re-reads current relational state. It lives in the external
// store; tasks carry identity, not snapshots, so every handler starts here.
type EntityLoader interface {
	// Load fetches an entity by module and row id with its relationships
	// resolved as far as the store can. Missing rows return
	// domain.ErrEntityNotFound.
	Load(ctx context.Context, m module.Module, id int64) (entity.Entity, error)

	// LoadUserProfileByUser fetches the profile entity owned by a user,
	// used by the settings-alias and owner-correction paths.
	LoadUserProfileByUser(ctx context.Context, userID int64) (entity.Entity, error)
}

// Repository is the index write side.
type Repository interface {
	Upsert(ctx context.Context, doc *document.Document) error
	Remove(ctx context.Context, docID string) error
	PatchAccountFields(ctx context.Context, accountID int64, changed map[string]string) (int, error)
}

// Enqueuer requeues follow-up tasks (corrections spawned by upserts).
type Enqueuer interface {
	Enqueue(ctx context.Context, t task.Task) error
}

// Mapper projects entities into documents.
type Mapper interface {
	Map(e entity.Entity) (mapper.Result, error)
}
