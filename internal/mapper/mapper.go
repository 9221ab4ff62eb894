// Package mapper projects relational entities into index documents.
// Mapping is pure: it never touches the store, and when a required
// relationship is not loaded it reports a correction request for the
// propagation worker instead of failing.
package mapper

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/meridianhq/searchcore/internal/domain"
	"github.com/meridianhq/searchcore/internal/domain/document"
	"github.com/meridianhq/searchcore/internal/domain/entity"
	"github.com/meridianhq/searchcore/internal/domain/module"
)

// Correction asks the worker to finish a mapping asynchronously: either
// re-embed account cards once the relationships resolve, or (when
// OwnerUserID is set) re-index the owning user's document of another module.
type Correction struct {
	Module             module.Module
	EntityID           int64
	AccountID          int64
	CorporateAccountID int64
	OwnerUserID        int64
}

// Result is the outcome of mapping one entity. Doc is nil for alias entities
// that only redirect; Correction is nil when the document is complete.
type Result struct {
	Doc        *document.Document
	Correction *Correction
}

// Mapper builds index documents per the registry's allow-lists.
type Mapper struct {
	registry *module.Registry
}

// New creates a mapper over the given registry.
func New(registry *module.Registry) *Mapper {
	return &Mapper{registry: registry}
}

// Map projects an entity into its index document.
func (m *Mapper) Map(e entity.Entity) (Result, error) {
	// Settings rows are an alias: committing one re-indexes the owner's
	// UserProfile document rather than producing a document of its own.
	if s, ok := e.(*entity.SearchSetting); ok {
		return Result{Correction: &Correction{
			Module:      module.UserProfile,
			OwnerUserID: s.UserID,
		}}, nil
	}

	spec, ok := m.registry.Spec(e.Module())
	if !ok {
		return Result{}, fmt.Errorf("%w: %T", domain.ErrUnmappableEntity, e)
	}

	doc := &document.Document{
		ID:       document.ID(spec.Module, entity.DocRowID(e)),
		Module:   spec.Module,
		Priority: spec.Priority,
	}

	switch v := e.(type) {
	case *entity.Account:
		// The account's own document body is its card projection, stored
		// under the AccountProfile module rather than the raw row's name.
		card := ProjectAccount(v)
		doc.Account = &card
		doc.DomainID = v.DomainID
	case *entity.UserProfile:
		doc.Payload = userProfilePayload(v)
		doc.DomainID = v.DomainID
	case *entity.Announcement:
		doc.Payload = map[string]string{
			"subject":     v.Subject,
			"description": v.Description,
			"created_by":  strconv.FormatInt(v.CreatedBy, 10),
		}
		doc.DomainID = v.DomainID
	case *entity.ResearchReport:
		doc.Payload = map[string]string{
			"title":       v.Title,
			"description": v.Description,
			"created_by":  strconv.FormatInt(v.CreatedBy, 10),
		}
		doc.DomainID = v.DomainID
	case *entity.Webinar:
		doc.Payload = eventPayload(&v.EventFields)
		doc.DomainID = v.DomainID
	case *entity.Webcast:
		doc.Payload = eventPayload(&v.EventFields)
		doc.DomainID = v.DomainID
	case *entity.CorporateAccessEvent:
		doc.Payload = eventPayload(&v.EventFields)
		doc.DomainID = v.DomainID
	case *entity.Contact:
		doc.Payload = contactPayload(v)
		doc.DomainID = v.DomainID
	case *entity.DistributionList:
		doc.Payload = map[string]string{
			"name":        v.Name,
			"description": v.Description,
			"created_by":  strconv.FormatInt(v.CreatedBy, 10),
		}
		doc.DomainID = v.DomainID
	default:
		return Result{}, fmt.Errorf("%w: %T", domain.ErrUnmappableEntity, e)
	}

	restrict(doc.Payload, spec.Fields)

	corr := m.embedAccounts(e, doc)
	return Result{Doc: doc, Correction: corr}, nil
}

// embedAccounts copies loaded account relationships into the document and
// returns a correction request for the ones that are referenced but not yet
// resolvable.
func (m *Mapper) embedAccounts(e entity.Entity, doc *document.Document) *Correction {
	var corr *Correction
	need := func() *Correction {
		if corr == nil {
			corr = &Correction{Module: doc.Module, EntityID: e.RowID()}
		}
		return corr
	}

	if ha, ok := e.(entity.HasAccount); ok {
		id, acct := ha.AccountRef()
		switch {
		case acct != nil:
			card := ProjectAccount(acct)
			doc.Account = &card
		case id != 0:
			need().AccountID = id
		}
	}

	if hc, ok := e.(entity.HasCorporateAccount); ok {
		id, acct := hc.CorporateAccountRef()
		switch {
		case acct != nil:
			card := ProjectAccount(acct)
			doc.CorporateAccount = &card
		case id != 0:
			need().CorporateAccountID = id
		}
	}

	return corr
}

// ProjectAccount builds the denormalized card for an account row. Sector,
// industry, and country come from the profile sub-row and default to empty
// when it is absent.
func ProjectAccount(a *entity.Account) document.AccountCard {
	card := document.AccountCard{
		RowID:       a.ID,
		AccountName: a.Name,
		AccountType: a.Type,
		Blocked:     a.Blocked,
		DomainID:    a.DomainID,
	}
	if a.Profile != nil {
		card.SectorName = a.Profile.SectorName
		card.IndustryName = a.Profile.IndustryName
		card.Country = a.Profile.Country
	}
	return card
}

func userProfilePayload(p *entity.UserProfile) map[string]string {
	full, fullR := fullNames(p.FirstName, p.LastName)
	payload := map[string]string{
		"user_id":     strconv.FormatInt(p.UserID, 10),
		"first_name":  p.FirstName,
		"last_name":   p.LastName,
		"full_name":   full,
		"full_name_r": fullR,
		"company":     p.Company,
		"designation": p.Designation,
		"email":       p.Email,
	}
	putList(payload, "search_privacy", p.SearchPrivacy)
	putList(payload, "search_privacy_sector", int64Strings(p.SearchPrivacySector))
	putList(payload, "search_privacy_industry", int64Strings(p.SearchPrivacyIndustry))
	putList(payload, "search_privacy_designation_level", p.SearchPrivacyDesignationLevel)
	if p.SearchPrivacyMarketCapMin != nil {
		payload["search_privacy_market_cap_min"] = formatFloat(*p.SearchPrivacyMarketCapMin)
	}
	if p.SearchPrivacyMarketCapMax != nil {
		payload["search_privacy_market_cap_max"] = formatFloat(*p.SearchPrivacyMarketCapMax)
	}
	return payload
}

func eventPayload(e *entity.EventFields) map[string]string {
	payload := map[string]string{
		"subject":     e.Subject,
		"description": e.Description,
		"created_by":  strconv.FormatInt(e.CreatedBy, 10),
		"cancelled":   strconv.FormatBool(e.Cancelled),
		"is_draft":    strconv.FormatBool(e.IsDraft),
		"open_to_all": strconv.FormatBool(e.OpenToAll),
	}
	// The type name is read through the relationship, not a raw column.
	if e.EventType != nil {
		payload["event_type"] = e.EventType.Name
	}
	putList(payload, "open_to_account_types", e.AccountTypePreference)
	putList(payload, "user_emails", e.UserEmails)
	return payload
}

func contactPayload(c *entity.Contact) map[string]string {
	full, fullR := fullNames(c.FirstName, c.LastName)
	return map[string]string{
		"first_name":  c.FirstName,
		"last_name":   c.LastName,
		"full_name":   full,
		"full_name_r": fullR,
		"company":     c.Company,
		"designation": c.Designation,
		"email":       c.Email,
		"created_by":  strconv.FormatInt(c.CreatedBy, 10),
	}
}

// fullNames computes the lowercased name in both orders, so a query prefix
// matches regardless of whether the caller types "first last" or "last first".
func fullNames(first, last string) (full, fullR string) {
	first = strings.ToLower(strings.TrimSpace(first))
	last = strings.ToLower(strings.TrimSpace(last))
	return strings.TrimSpace(first + " " + last), strings.TrimSpace(last + " " + first)
}

// putList stores a comma-joined tag list, omitting empty lists entirely so
// tag filters against the field never spuriously match.
func putList(payload map[string]string, field string, values []string) {
	if len(values) == 0 {
		return
	}
	payload[field] = strings.Join(values, ",")
}

// restrict drops any payload field outside the registry allow-list.
func restrict(payload map[string]string, allowed []string) {
	if payload == nil {
		return
	}
	set := make(map[string]bool, len(allowed))
	for _, f := range allowed {
		set[f] = true
	}
	for k := range payload {
		if !set[k] {
			delete(payload, k)
		}
	}
}

func int64Strings(vals []int64) []string {
	if len(vals) == 0 {
		return nil
	}
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = strconv.FormatInt(v, 10)
	}
	return out
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
