package domain

// Requester is the identity on whose behalf a search runs. It is produced by
// the authentication layer upstream of this service and consumed read-only.
//
// Pointer fields are profile attributes the caller may or may not have; an
// absent attribute omits the corresponding privacy predicate entirely.
type Requester struct {
	ID               int64    `json:"id"`
	Email            string   `json:"email"`
	AccountType      string   `json:"account_type"`
	DomainID         int64    `json:"domain_id"`
	Role             string   `json:"role"`
	SectorID         *int64   `json:"sector_id,omitempty"`
	IndustryID       *int64   `json:"industry_id,omitempty"`
	MarketCap        *float64 `json:"market_cap,omitempty"`
	DesignationLevel *string  `json:"designation_level,omitempty"`
}

// Valid reports whether the requester carries the fields every query needs.
func (r Requester) Valid() bool {
	return r.ID != 0 && r.DomainID != 0 && r.AccountType != ""
}
