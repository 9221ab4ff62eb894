// Package entity models the relational rows this service indexes. The rows
// live in an external store; these types are the read-side shapes the store
// adapter hands to change capture and the propagation worker.
//
// Capabilities like "has a soft-delete flag" or "embeds an account" are
// expressed as small interfaces checked by type assertion, so capture and the
// mapper never probe fields dynamically.
package entity

import "github.com/meridianhq/searchcore/internal/domain/module"

// Entity is any indexable relational row.
type Entity interface {
	RowID() int64
	Module() module.Module
}

// SoftDeletable marks entities whose delete is a flag flip, not a row delete.
// A set flag converts an update into an index removal.
type SoftDeletable interface {
	SoftDeleted() bool
}

// HasAccount marks entities that embed a tenant account card. The pointer is
// nil when the relationship was not loaded (or the FK is still unset) at
// mapping time; the FK id is reported separately so a correction task can
// resolve it later.
type HasAccount interface {
	AccountRef() (id int64, loaded *Account)
}

// HasCorporateAccount mirrors HasAccount for the corporate account side.
type HasCorporateAccount interface {
	CorporateAccountRef() (id int64, loaded *Account)
}

// DocKeyed overrides the row id used in the document id. UserProfile
// documents are keyed by the owning user, not the profile row.
type DocKeyed interface {
	DocRowID() int64
}

// DocRowID returns the id a document for e is keyed by.
func DocRowID(e Entity) int64 {
	if k, ok := e.(DocKeyed); ok {
		return k.DocRowID()
	}
	return e.RowID()
}
