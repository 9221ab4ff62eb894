package entity

import "github.com/meridianhq/searchcore/internal/domain/module"

// EventTypeRow is the lookup row an event's type name is read through.
type EventTypeRow struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// EventFields is the shared shape of webinar, webcast, and corporate-access
// rows: a schedulable, audience-targeted event.
type EventFields struct {
	ID          int64  `json:"id"`
	Subject     string `json:"subject"`
	Description string `json:"description"`
	CreatedBy   int64  `json:"created_by"`
	DomainID    int64  `json:"domain_id"`
	Deleted     bool   `json:"deleted"`
	Cancelled   bool   `json:"cancelled"`
	IsDraft     bool   `json:"is_draft"`

	// Audience targeting. Empty preference lists are omitted from the
	// document, never stored as empty.
	OpenToAll             bool     `json:"open_to_all"`
	AccountTypePreference []string `json:"account_type_preference"`
	UserEmails            []string `json:"user_emails"`

	EventTypeID int64         `json:"event_type_id"`
	EventType   *EventTypeRow `json:"event_type,omitempty"`

	AccountID          int64    `json:"account_id"`
	Account            *Account `json:"account,omitempty"`
	CorporateAccountID int64    `json:"corporate_account_id"`
	CorporateAccount   *Account `json:"corporate_account,omitempty"`
}

func (e *EventFields) RowID() int64      { return e.ID }
func (e *EventFields) SoftDeleted() bool { return e.Deleted }

func (e *EventFields) AccountRef() (int64, *Account) { return e.AccountID, e.Account }
func (e *EventFields) CorporateAccountRef() (int64, *Account) {
	return e.CorporateAccountID, e.CorporateAccount
}

// Webinar is an online seminar event.
type Webinar struct{ EventFields }

func (w *Webinar) Module() module.Module { return module.Webinar }

// Webcast is a broadcast event.
type Webcast struct{ EventFields }

func (w *Webcast) Module() module.Module { return module.Webcast }

// CorporateAccessEvent is a corporate-access meeting event.
type CorporateAccessEvent struct{ EventFields }

func (c *CorporateAccessEvent) Module() module.Module { return module.CorporateAccess }

var (
	_ Entity              = (*Webinar)(nil)
	_ SoftDeletable       = (*Webinar)(nil)
	_ HasAccount          = (*Webcast)(nil)
	_ HasCorporateAccount = (*CorporateAccessEvent)(nil)
)
