package entity

import "github.com/meridianhq/searchcore/internal/domain/module"

// Announcement is a tenant-wide announcement row.
type Announcement struct {
	ID          int64  `json:"id"`
	Subject     string `json:"subject"`
	Description string `json:"description"`
	CreatedBy   int64  `json:"created_by"`
	DomainID    int64  `json:"domain_id"`
	Deleted     bool   `json:"deleted"`

	AccountID int64    `json:"account_id"`
	Account   *Account `json:"account,omitempty"`
}

func (a *Announcement) RowID() int64                  { return a.ID }
func (a *Announcement) Module() module.Module         { return module.Announcement }
func (a *Announcement) SoftDeleted() bool             { return a.Deleted }
func (a *Announcement) AccountRef() (int64, *Account) { return a.AccountID, a.Account }

// ResearchReport is a published research document row.
type ResearchReport struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	CreatedBy   int64  `json:"created_by"`
	DomainID    int64  `json:"domain_id"`
	Deleted     bool   `json:"deleted"`

	AccountID int64    `json:"account_id"`
	Account   *Account `json:"account,omitempty"`
}

func (r *ResearchReport) RowID() int64                  { return r.ID }
func (r *ResearchReport) Module() module.Module         { return module.ResearchReport }
func (r *ResearchReport) SoftDeleted() bool             { return r.Deleted }
func (r *ResearchReport) AccountRef() (int64, *Account) { return r.AccountID, r.Account }

var (
	_ Entity        = (*Announcement)(nil)
	_ SoftDeletable = (*Announcement)(nil)
	_ HasAccount    = (*Announcement)(nil)
	_ Entity        = (*ResearchReport)(nil)
)
