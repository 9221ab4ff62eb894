// Package document defines the unit stored in the search index and the
// deterministic id scheme binding a document to its source row.
package document

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/meridianhq/searchcore/internal/domain/module"
)

// Document is one index entry. Exactly one live document exists per
// (module, row id) pair; a soft-deleted entity has none.
type Document struct {
	ID       string
	Module   module.Module
	Priority int
	DomainID int64

	// Payload holds the allow-listed searchable fields plus computed ones,
	// already flattened to strings. Array-valued fields are comma-joined tag
	// values; empty arrays are omitted entirely so tag filters never match
	// them spuriously.
	Payload map[string]string

	// Account and CorporateAccount are point-in-time copies of a related
	// tenant account, not live references. They go stale until the next
	// scatter-update or re-index.
	Account          *AccountCard
	CorporateAccount *AccountCard
}

// AccountCard is the denormalized account projection embedded into documents
// and stored as the body of the account's own AccountProfile document.
type AccountCard struct {
	RowID        int64
	AccountName  string
	AccountType  string
	SectorName   string
	IndustryName string
	Country      string
	Blocked      bool
	DomainID     int64
}

// Embed field prefixes. A card flattens into the document hash under one of
// these, so the same card serializes identically in both positions.
const (
	AccountPrefix          = "account_"
	CorporateAccountPrefix = "corporate_account_"
)

// Flatten serializes the card into hash fields under the given prefix.
func (c *AccountCard) Flatten(prefix string) map[string]string {
	return map[string]string{
		prefix + "row_id":        strconv.FormatInt(c.RowID, 10),
		prefix + "name":          c.AccountName,
		prefix + "type":          c.AccountType,
		prefix + "sector_name":   c.SectorName,
		prefix + "industry_name": c.IndustryName,
		prefix + "country":       c.Country,
		prefix + "blocked":       strconv.FormatBool(c.Blocked),
		prefix + "domain_id":     strconv.FormatInt(c.DomainID, 10),
	}
}

// ID composes the deterministic document id. The row id is the entity's own
// row id for every module except UserProfile, whose documents are keyed by
// the owning user's id; that substitution happens in the mapper.
func ID(m module.Module, rowID int64) string {
	return fmt.Sprintf("%s_%d", m, rowID)
}

// SplitID decomposes a deterministic id back into (module, row id), splitting
// on the last underscore so module names containing underscores stay intact.
func SplitID(id string) (module.Module, int64, error) {
	i := strings.LastIndex(id, "_")
	if i <= 0 || i == len(id)-1 {
		return "", 0, fmt.Errorf("malformed document id %q", id)
	}
	rowID, err := strconv.ParseInt(id[i+1:], 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("malformed document id %q: %w", id, err)
	}
	return module.Module(id[:i]), rowID, nil
}
