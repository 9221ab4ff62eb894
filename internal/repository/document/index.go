package document

import (
	"context"
	"errors"
	"fmt"

	"github.com/meridianhq/searchcore/internal/db"
	domdoc "github.com/meridianhq/searchcore/internal/domain/document"
)

// indexManager is the consumer interface for FT index lifecycle.
type indexManager interface {
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// EnsureIndex creates the union FT schema over all document hashes if it
// does not exist yet. The schema is the union of every module's fields; a
// hash simply leaves fields of other modules unset.
func EnsureIndex(ctx context.Context, mgr indexManager, keyPrefix string) error {
	name := keyPrefix + "doc:idx"

	exists, err := mgr.IndexExists(ctx, name)
	if err != nil {
		return fmt.Errorf("probe index %s: %w", name, err)
	}
	if exists {
		return nil
	}

	def, err := buildIndexDefinition(name, keyPrefix)
	if err != nil {
		return fmt.Errorf("build index definition: %w", err)
	}
	if err := mgr.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create index %s: %w", name, err)
	}
	return nil
}

// RebuildIndex drops and recreates the FT schema. Document hashes survive;
// RediSearch re-scans them under the new definition. Used after schema
// changes that EnsureIndex alone cannot apply.
func RebuildIndex(ctx context.Context, mgr indexManager, keyPrefix string) error {
	name := keyPrefix + "doc:idx"

	if err := mgr.DropIndex(ctx, name); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
		return fmt.Errorf("drop index %s: %w", name, err)
	}

	def, err := buildIndexDefinition(name, keyPrefix)
	if err != nil {
		return fmt.Errorf("build index definition: %w", err)
	}
	if err := mgr.CreateIndex(ctx, def); err != nil {
		return fmt.Errorf("create index %s: %w", name, err)
	}
	return nil
}

func buildIndexDefinition(name, keyPrefix string) (*db.IndexDefinition, error) {
	b := db.NewIndex(name).
		Prefix(keyPrefix + "doc:").
		Tag("module").
		SortableNumeric("priority").
		Numeric("domain_id").
		// Text-matched payload fields across all modules.
		Text("subject").
		Text("description").
		Text("title").
		Text("name").
		Text("first_name").
		Text("last_name").
		Text("full_name").
		Text("full_name_r").
		Text("company").
		Text("designation").
		Text("event_type").
		// Ownership and identity filters.
		Numeric("user_id").
		Numeric("created_by").
		Tag("email").
		// Event lifecycle and audience targeting.
		Tag("cancelled").
		Tag("is_draft").
		Tag("open_to_all").
		TagWithSeparator("open_to_account_types", ",").
		TagWithSeparator("user_emails", ",").
		// Profile privacy preferences.
		TagWithSeparator("search_privacy", ",").
		TagWithSeparator("search_privacy_sector", ",").
		TagWithSeparator("search_privacy_industry", ",").
		TagWithSeparator("search_privacy_designation_level", ",").
		Numeric("search_privacy_market_cap_min").
		Numeric("search_privacy_market_cap_max")

	// Embedded account card, both positions.
	b = b.
		Numeric(domdoc.AccountPrefix + "row_id").
		Text(domdoc.AccountPrefix + "name").
		Tag(domdoc.AccountPrefix + "type").
		Tag(domdoc.AccountPrefix + "blocked").
		Tag(domdoc.AccountPrefix + "sector_name").
		Tag(domdoc.AccountPrefix + "industry_name").
		Tag(domdoc.AccountPrefix + "country").
		Numeric(domdoc.AccountPrefix + "domain_id").
		Numeric(domdoc.CorporateAccountPrefix + "row_id")

	return b.Build()
}
