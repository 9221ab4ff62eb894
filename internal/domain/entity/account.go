package entity

import "github.com/meridianhq/searchcore/internal/domain/module"

// Account is a tenant account row. Its own document is stored under the
// AccountProfile module; its projection is also embedded into documents of
// other modules.
type Account struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Blocked  bool   `json:"blocked"`
	DomainID int64  `json:"domain_id"`
	Deleted  bool   `json:"deleted"`

	// Profile is the account's descriptive sub-row; nil when not loaded.
	Profile *AccountProfileRow `json:"profile,omitempty"`
}

// AccountProfileRow carries the account's sector/industry/country attributes.
type AccountProfileRow struct {
	SectorName   string `json:"sector_name"`
	IndustryName string `json:"industry_name"`
	Country      string `json:"country"`
}

func (a *Account) RowID() int64          { return a.ID }
func (a *Account) Module() module.Module { return module.AccountProfile }
func (a *Account) SoftDeleted() bool     { return a.Deleted }

var (
	_ Entity        = (*Account)(nil)
	_ SoftDeletable = (*Account)(nil)
)
