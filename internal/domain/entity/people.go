package entity

import "github.com/meridianhq/searchcore/internal/domain/module"

// UserProfile is a user's public profile row plus its search-privacy
// preferences. Its document is keyed by the owning user id, not the profile
// row id.
type UserProfile struct {
	ID          int64  `json:"id"`
	UserID      int64  `json:"user_id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Company     string `json:"company"`
	Designation string `json:"designation"`
	Email       string `json:"email"`
	DomainID    int64  `json:"domain_id"`
	Deleted     bool   `json:"deleted"`

	AccountID int64    `json:"account_id"`
	Account   *Account `json:"account,omitempty"`

	// Privacy preferences: which requesters may see this profile. Empty
	// slices mean the owner set no preference for that attribute, and the
	// field is omitted from the document.
	SearchPrivacy                 []string `json:"search_privacy"`
	SearchPrivacySector           []int64  `json:"search_privacy_sector"`
	SearchPrivacyIndustry         []int64  `json:"search_privacy_industry"`
	SearchPrivacyMarketCapMin     *float64 `json:"search_privacy_market_cap_min,omitempty"`
	SearchPrivacyMarketCapMax     *float64 `json:"search_privacy_market_cap_max,omitempty"`
	SearchPrivacyDesignationLevel []string `json:"search_privacy_designation_level"`
}

func (p *UserProfile) RowID() int64          { return p.ID }
func (p *UserProfile) Module() module.Module { return module.UserProfile }
func (p *UserProfile) SoftDeleted() bool     { return p.Deleted }
func (p *UserProfile) DocRowID() int64       { return p.UserID }

func (p *UserProfile) AccountRef() (int64, *Account) { return p.AccountID, p.Account }

// SearchSetting is a per-user settings row that aliases the user's profile
// document: committing it re-indexes UserProfile for the owning user instead
// of producing a document of its own.
type SearchSetting struct {
	ID       int64 `json:"id"`
	UserID   int64 `json:"user_id"`
	DomainID int64 `json:"domain_id"`
}

func (s *SearchSetting) RowID() int64          { return s.ID }
func (s *SearchSetting) Module() module.Module { return module.UserProfile }
func (s *SearchSetting) DocRowID() int64       { return s.UserID }

// Contact is a CRM contact row, private to its creator.
type Contact struct {
	ID          int64  `json:"id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Company     string `json:"company"`
	Designation string `json:"designation"`
	Email       string `json:"email"`
	CreatedBy   int64  `json:"created_by"`
	DomainID    int64  `json:"domain_id"`
	Deleted     bool   `json:"deleted"`

	AccountID int64    `json:"account_id"`
	Account   *Account `json:"account,omitempty"`
}

func (c *Contact) RowID() int64                  { return c.ID }
func (c *Contact) Module() module.Module         { return module.Contact }
func (c *Contact) SoftDeleted() bool             { return c.Deleted }
func (c *Contact) AccountRef() (int64, *Account) { return c.AccountID, c.Account }

// DistributionList is a creator-private recipient list.
type DistributionList struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	CreatedBy   int64  `json:"created_by"`
	DomainID    int64  `json:"domain_id"`
	Deleted     bool   `json:"deleted"`
}

func (d *DistributionList) RowID() int64          { return d.ID }
func (d *DistributionList) Module() module.Module { return module.DistributionList }
func (d *DistributionList) SoftDeleted() bool     { return d.Deleted }

var (
	_ Entity        = (*UserProfile)(nil)
	_ SoftDeletable = (*UserProfile)(nil)
	_ HasAccount    = (*UserProfile)(nil)
	_ DocKeyed      = (*UserProfile)(nil)
	_ Entity        = (*SearchSetting)(nil)
	_ Entity        = (*Contact)(nil)
	_ Entity        = (*DistributionList)(nil)
)
