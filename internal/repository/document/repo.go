// Package document persists index documents as Redis hashes under one FT
// index. Upserts are full overwrites computed from relational truth; the
// scatter patch is the single partial update, restricted to the account-card
// field subset so it cannot clobber payload fields owned by other writers.
package document

import (
	"context"
	"fmt"
	"strings"

	"github.com/meridianhq/searchcore/internal/db"
	"github.com/meridianhq/searchcore/internal/domain"
	domdoc "github.com/meridianhq/searchcore/internal/domain/document"
)

// store is the consumer interface for document persistence.
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Search(ctx context.Context, q *db.Query) (*db.Result, error)
}

// Repo implements the indexing usecase's document repository.
type Repo struct {
	store     store
	keyPrefix string
}

// New creates a document repository. keyPrefix namespaces every key, e.g.
// "searchcore:".
func New(s store, keyPrefix string) *Repo {
	return &Repo{store: s, keyPrefix: keyPrefix}
}

// Upsert overwrites the document for doc.ID. Delete-then-set rather than a
// merge: a field dropped from the payload (such as an emptied audience list)
// must disappear from the hash, not linger.
func (r *Repo) Upsert(ctx context.Context, doc *domdoc.Document) error {
	key := r.docKey(doc.ID)
	fields := buildHashFields(doc)

	if err := r.store.Del(ctx, key); err != nil {
		return fmt.Errorf("clear %s: %w", key, err)
	}
	if err := r.store.HSet(ctx, key, fields); err != nil {
		return fmt.Errorf("hset %s: %w", key, err)
	}
	return nil
}

// Get returns the stored hash for a document id, for propagation inspection.
func (r *Repo) Get(ctx context.Context, docID string) (map[string]string, error) {
	key := r.docKey(docID)

	ok, err := r.store.Exists(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("probe %s: %w", key, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrDocumentNotFound, docID)
	}

	fields, err := r.store.HGetAll(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return fields, nil
}

// Remove deletes the document with the given deterministic id. Removing an
// absent document is a no-op, which makes remove tasks replay-safe.
func (r *Repo) Remove(ctx context.Context, docID string) error {
	if err := r.store.Del(ctx, r.docKey(docID)); err != nil {
		return fmt.Errorf("del %s: %w", docID, err)
	}
	return nil
}

// PatchAccountFields merges changed account-card fields into every document
// embedding the account, in both embed positions. Returns how many documents
// were patched.
func (r *Repo) PatchAccountFields(
	ctx context.Context, accountID int64, changed map[string]string,
) (int, error) {
	if len(changed) == 0 {
		return 0, nil
	}

	patched := 0

	n, err := r.patchEmbedPosition(ctx, accountID, changed, domdoc.AccountPrefix)
	if err != nil {
		return patched, err
	}
	patched += n

	n, err = r.patchEmbedPosition(ctx, accountID, changed, domdoc.CorporateAccountPrefix)
	if err != nil {
		return patched, err
	}
	patched += n

	return patched, nil
}

func (r *Repo) patchEmbedPosition(
	ctx context.Context, accountID int64, changed map[string]string, prefix string,
) (int, error) {
	fields := reprefix(changed, prefix)

	raw := fmt.Sprintf("@%srow_id:[%d %d]", prefix, accountID, accountID)
	result, err := r.store.Search(ctx, &db.Query{
		IndexName:    r.IndexName(),
		Raw:          raw,
		ReturnFields: []string{"module"},
		Window:       scatterWindow,
	})
	if err != nil {
		return 0, fmt.Errorf("find documents embedding account %d: %w", accountID, err)
	}

	for _, entry := range result.Entries {
		if err := r.store.HSet(ctx, entry.Key, fields); err != nil {
			return 0, fmt.Errorf("patch %s: %w", entry.Key, err)
		}
	}
	return len(result.Entries), nil
}

// scatterWindow bounds how many embedding documents one scatter pass
// touches. An account is embedded by at most one document per related row,
// so this is generous.
const scatterWindow = 10000

// reprefix rewrites account_-keyed changed fields for the given embed
// position.
func reprefix(changed map[string]string, prefix string) map[string]string {
	if prefix == domdoc.AccountPrefix {
		return changed
	}
	out := make(map[string]string, len(changed))
	for k, v := range changed {
		out[prefix+strings.TrimPrefix(k, domdoc.AccountPrefix)] = v
	}
	return out
}

// IndexName returns the FT index covering all documents.
func (r *Repo) IndexName() string {
	return r.keyPrefix + "doc:idx"
}

func (r *Repo) docKey(docID string) string {
	return r.keyPrefix + "doc:" + docID
}
