// Package module defines the closed set of searchable modules and the static
// registry describing how each one is indexed. Module names, priorities, and
// field allow-lists are part of the wire contract with the index and with
// callers; changing them invalidates existing documents.
package module

import (
	"fmt"
	"sort"
)

// Module tags an entity type's documents in the index. The tag is not
// necessarily the entity's storage table name: account rows are indexed as
// AccountProfile because the document is the account's public profile
// projection, not the raw row.
type Module string

const (
	AccountProfile   Module = "AccountProfile"
	UserProfile      Module = "UserProfile"
	Announcement     Module = "Announcement"
	ResearchReport   Module = "ResearchReport"
	Webinar          Module = "Webinar"
	Webcast          Module = "Webcast"
	CorporateAccess  Module = "CorporateAccess"
	Contact          Module = "Contact"
	DistributionList Module = "DistributionList"
)

// All lists every module in declaration order.
func All() []Module {
	return []Module{
		AccountProfile, UserProfile, Announcement, ResearchReport,
		Webinar, Webcast, CorporateAccess, Contact, DistributionList,
	}
}

// Spec is the static registry row for one module.
type Spec struct {
	Module      Module
	DisplayName string

	// Priority orders merged results ahead of relevance; lower sorts first.
	Priority int

	// MenuCode gates the module by role. Empty means always visible.
	MenuCode string

	// Fields is the payload allow-list. A document's payload never carries a
	// field outside this list.
	Fields []string

	// TextFields is the ordered subset matched as phrase-prefix by queries.
	TextFields []string
}

var profileTextFields = []string{
	"first_name", "last_name", "full_name", "full_name_r", "company", "designation",
}

var eventFields = []string{
	"subject", "description", "event_type", "created_by",
	"cancelled", "is_draft", "open_to_all", "open_to_account_types", "user_emails",
}

func specs() []Spec {
	return []Spec{
		{
			Module:      AccountProfile,
			DisplayName: "Account",
			Priority:    1,
			// Body is the account card projection; no entity payload of its own.
			TextFields: []string{"account_name"},
		},
		{
			Module:      UserProfile,
			DisplayName: "People",
			Priority:    2,
			Fields: append([]string{
				"user_id", "email",
				"search_privacy", "search_privacy_sector", "search_privacy_industry",
				"search_privacy_market_cap_min", "search_privacy_market_cap_max",
				"search_privacy_designation_level",
			}, profileTextFields...),
			TextFields: profileTextFields,
		},
		{
			Module:      Announcement,
			DisplayName: "Announcements",
			Priority:    3,
			MenuCode:    "announcements",
			Fields:      []string{"subject", "description", "created_by"},
			TextFields:  []string{"subject", "description"},
		},
		{
			Module:      ResearchReport,
			DisplayName: "Research",
			Priority:    4,
			MenuCode:    "research",
			Fields:      []string{"title", "description", "created_by"},
			TextFields:  []string{"title", "description"},
		},
		{
			Module:      Webinar,
			DisplayName: "Webinars",
			Priority:    5,
			MenuCode:    "webinars",
			Fields:      eventFields,
			TextFields:  []string{"subject", "description", "event_type"},
		},
		{
			Module:      Webcast,
			DisplayName: "Webcasts",
			Priority:    6,
			MenuCode:    "webcasts",
			Fields:      eventFields,
			TextFields:  []string{"subject", "description", "event_type"},
		},
		{
			Module:      CorporateAccess,
			DisplayName: "Corporate Access",
			Priority:    7,
			MenuCode:    "corp_access",
			Fields:      eventFields,
			TextFields:  []string{"subject", "description", "event_type"},
		},
		{
			Module:      Contact,
			DisplayName: "Contacts",
			Priority:    8,
			MenuCode:    "crm",
			Fields: append([]string{
				"email", "created_by",
			}, profileTextFields...),
			TextFields: profileTextFields,
		},
		{
			Module:      DistributionList,
			DisplayName: "Distribution Lists",
			Priority:    9,
			MenuCode:    "distribution",
			Fields:      []string{"name", "description", "created_by"},
			TextFields:  []string{"name", "description"},
		},
	}
}

// Registry is the immutable module table, built once at process start and
// passed by handle into capture and query construction.
type Registry struct {
	byModule map[Module]Spec
	ordered  []Module
}

// NewRegistry builds the static registry.
func NewRegistry() *Registry {
	rows := specs()
	r := &Registry{byModule: make(map[Module]Spec, len(rows))}
	for _, s := range rows {
		r.byModule[s.Module] = s
		r.ordered = append(r.ordered, s.Module)
	}
	sort.Slice(r.ordered, func(i, j int) bool {
		return r.byModule[r.ordered[i]].Priority < r.byModule[r.ordered[j]].Priority
	})
	return r
}

// Spec returns the registry row for m.
func (r *Registry) Spec(m Module) (Spec, bool) {
	s, ok := r.byModule[m]
	return s, ok
}

// Modules returns all modules in priority order.
func (r *Registry) Modules() []Module {
	out := make([]Module, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// Parse validates a caller-supplied module name.
func (r *Registry) Parse(name string) (Module, error) {
	m := Module(name)
	if _, ok := r.byModule[m]; !ok {
		return "", fmt.Errorf("module %q is not registered", name)
	}
	return m, nil
}
