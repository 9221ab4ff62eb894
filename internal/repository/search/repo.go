// Package search executes composed queries against the FT index and hands
// raw hits back to the search usecase for assembly.
package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/meridianhq/searchcore/internal/db"
	"github.com/meridianhq/searchcore/internal/domain"
)

// store is the consumer interface for search execution.
type store interface {
	Search(ctx context.Context, q *db.Query) (*db.Result, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
}

// Repo implements the search usecase's repository.
type Repo struct {
	store     store
	keyPrefix string
}

// New creates a search repository. keyPrefix must match the document
// repository's so hit keys reduce to bare document ids.
func New(s store, keyPrefix string) *Repo {
	return &Repo{store: s, keyPrefix: keyPrefix}
}

// Search runs the raw query and returns up to window score-ordered hits plus
// the backend's total-matched count.
func (r *Repo) Search(
	ctx context.Context, raw string, returnFields []string, window int,
) (int, []domain.SearchHit, error) {
	result, err := r.store.Search(ctx, &db.Query{
		IndexName:    r.indexName(),
		Raw:          raw,
		ReturnFields: returnFields,
		Window:       window,
	})
	if err != nil {
		return 0, nil, fmt.Errorf("search %s: %w", r.indexName(), err)
	}

	docPrefix := r.keyPrefix + "doc:"
	hits := make([]domain.SearchHit, len(result.Entries))
	for i, e := range result.Entries {
		hits[i] = domain.SearchHit{
			DocID:  strings.TrimPrefix(e.Key, docPrefix),
			Score:  e.Score,
			Fields: e.Fields,
		}
	}
	return result.Total, hits, nil
}

// Count returns how many documents the index currently holds.
func (r *Repo) Count(ctx context.Context) (int, error) {
	n, err := r.store.SearchCount(ctx, r.indexName(), "*")
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", r.indexName(), err)
	}
	return n, nil
}

func (r *Repo) indexName() string {
	return r.keyPrefix + "doc:idx"
}
