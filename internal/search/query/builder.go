// Package query composes FT.SEARCH query strings for multi-module searches.
// Each module has a clause template combining phrase-prefix text matching,
// mandatory tenant/blocked/module filters, and the module's visibility
// predicate; the builder ORs the clauses of every requested module.
package query

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/meridianhq/searchcore/internal/domain"
	"github.com/meridianhq/searchcore/internal/domain/document"
	"github.com/meridianhq/searchcore/internal/domain/module"
)

// Builder constructs backend queries from the registry's clause data.
type Builder struct {
	registry *module.Registry
}

// New creates a query builder.
func New(registry *module.Registry) *Builder {
	return &Builder{registry: registry}
}

// Build returns the FT query string for the given modules. Modules must
// already be permission-checked; the builder only shapes clauses.
func (b *Builder) Build(queryText string, mods []module.Module, req domain.Requester) (string, error) {
	if len(mods) == 0 {
		return "", fmt.Errorf("%w: no modules to query", domain.ErrInvalidRequest)
	}

	clauses := make([]string, 0, len(mods))
	for _, m := range mods {
		clause, err := b.moduleClause(queryText, m, req)
		if err != nil {
			return "", err
		}
		clauses = append(clauses, clause)
	}

	if len(clauses) == 1 {
		return clauses[0], nil
	}
	// should-semantics with minimum one match: any module clause may hit.
	return "(" + strings.Join(clauses, ")|(") + ")", nil
}

// ReturnFields lists the hash fields a query for the given modules should
// fetch. user_emails is a filter-only field and never returned; priority is
// returned for sort assembly and stripped before output.
func (b *Builder) ReturnFields(mods []module.Module) []string {
	seen := map[string]bool{}
	fields := []string{"module", "priority", "domain_id"}
	for _, f := range fields {
		seen[f] = true
	}

	for _, m := range mods {
		spec, ok := b.registry.Spec(m)
		if !ok {
			continue
		}
		for _, f := range spec.Fields {
			if f == "user_emails" || seen[f] {
				continue
			}
			seen[f] = true
			fields = append(fields, f)
		}
	}

	for _, prefix := range []string{document.AccountPrefix, document.CorporateAccountPrefix} {
		for _, f := range []string{
			"row_id", "name", "type", "sector_name", "industry_name", "country", "blocked", "domain_id",
		} {
			fields = append(fields, prefix+f)
		}
	}
	return fields
}

func (b *Builder) moduleClause(queryText string, m module.Module, req domain.Requester) (string, error) {
	spec, ok := b.registry.Spec(m)
	if !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrUnknownModule, m)
	}

	parts := []string{
		tagFilter("module", string(m)),
		numericEq("domain_id", req.DomainID),
	}

	if hasAccountCard(m) {
		parts = append(parts, tagFilter("account_blocked", "false"))
	}

	if text := textClause(queryText, spec.TextFields); text != "" {
		parts = append(parts, text)
	}

	parts = append(parts, visibilityClause(m, req)...)

	return strings.Join(parts, " "), nil
}

// hasAccountCard reports whether the module's documents carry an embedded
// account card whose blocked flag must gate visibility. Creator-private
// modules are gated by created_by alone.
func hasAccountCard(m module.Module) bool {
	switch m {
	case module.Contact, module.DistributionList:
		return false
	case module.AccountProfile, module.UserProfile, module.Announcement,
		module.ResearchReport, module.Webinar, module.Webcast, module.CorporateAccess:
		return true
	}
	return false
}

// visibilityClause reproduces each module type's visibility predicate. The
// switch is exhaustive over the registry so a new module cannot ship without
// deciding its visibility.
func visibilityClause(m module.Module, req domain.Requester) []string {
	switch m {
	case module.AccountProfile:
		return []string{
			"-" + tagFilter("account_type", "admin"),
			"-" + tagFilter("account_type", "guest"),
		}

	case module.UserProfile:
		parts := []string{
			"-" + numericEq("user_id", req.ID),
			"-" + tagFilter("account_type", "admin"),
			"-" + tagFilter("account_type", "guest"),
			tagFilter("search_privacy", req.AccountType),
		}
		// Predicates for attributes the requester actually has; absent
		// attributes are omitted, not treated as wildcard-fail.
		if req.SectorID != nil {
			parts = append(parts, tagFilter("search_privacy_sector", strconv.FormatInt(*req.SectorID, 10)))
		}
		if req.IndustryID != nil {
			parts = append(parts, tagFilter("search_privacy_industry", strconv.FormatInt(*req.IndustryID, 10)))
		}
		if req.MarketCap != nil {
			marketCap := formatFloat(*req.MarketCap)
			parts = append(parts,
				fmt.Sprintf("@search_privacy_market_cap_min:[-inf %s]", marketCap),
				fmt.Sprintf("@search_privacy_market_cap_max:[%s +inf]", marketCap),
			)
		}
		if req.DesignationLevel != nil {
			parts = append(parts, tagFilter("search_privacy_designation_level", *req.DesignationLevel))
		}
		return parts

	case module.Webinar, module.Webcast, module.CorporateAccess:
		invited := tagFilter("user_emails", req.Email)
		open := fmt.Sprintf("(%s %s)",
			tagFilter("open_to_all", "true"),
			tagFilter("open_to_account_types", req.AccountType),
		)
		published := fmt.Sprintf("(%s %s (%s|%s))",
			tagFilter("cancelled", "false"),
			tagFilter("is_draft", "false"),
			invited, open,
		)
		return []string{fmt.Sprintf("(%s|%s)", numericEq("created_by", req.ID), published)}

	case module.Contact, module.DistributionList:
		return []string{numericEq("created_by", req.ID)}

	case module.Announcement, module.ResearchReport:
		return nil
	}
	return nil
}

// textClause builds the phrase-prefix match over the module's text fields:
// every token must match, the last as a prefix, in any listed field.
func textClause(queryText string, fields []string) string {
	expr := prefixExpr(queryText)
	if expr == "" || len(fields) == 0 {
		return ""
	}
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = fmt.Sprintf("@%s:(%s)", f, expr)
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return "(" + strings.Join(parts, "|") + ")"
}

// prefixExpr tokenizes and escapes free text into an FT expression with a
// trailing prefix wildcard, e.g. "jane do" -> "jane do*".
func prefixExpr(queryText string) string {
	tokens := strings.Fields(queryText)
	if len(tokens) == 0 {
		return ""
	}
	for i, t := range tokens {
		tokens[i] = escapeToken(strings.ToLower(t))
	}
	last := len(tokens) - 1
	tokens[last] += "*"
	return strings.Join(tokens, " ")
}

func tagFilter(field, value string) string {
	return fmt.Sprintf("@%s:{%s}", field, tagEscaper.Replace(value))
}

func numericEq(field string, v int64) string {
	return fmt.Sprintf("@%s:[%d %d]", field, v, v)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

var tagEscaper = strings.NewReplacer(
	",", "\\,",
	".", "\\.",
	"<", "\\<",
	">", "\\>",
	"{", "\\{",
	"}", "\\}",
	"\"", "\\\"",
	"'", "\\'",
	":", "\\:",
	";", "\\;",
	"!", "\\!",
	"@", "\\@",
	"#", "\\#",
	"$", "\\$",
	"%", "\\%",
	"^", "\\^",
	"&", "\\&",
	"*", "\\*",
	"(", "\\(",
	")", "\\)",
	"-", "\\-",
	"+", "\\+",
	"=", "\\=",
	"~", "\\~",
	" ", "\\ ",
)

var tokenEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	`"`, `\"`,
	`@`, `\@`,
	`{`, `\{`,
	`}`, `\}`,
	`(`, `\(`,
	`)`, `\)`,
	`|`, `\|`,
	`-`, `\-`,
	`~`, `\~`,
	`*`, `\*`,
	`[`, `\[`,
	`]`, `\]`,
	`!`, `\!`,
	`%`, `\%`,
	`^`, `\^`,
	`$`, `\$`,
	`<`, `\<`,
	`>`, `\>`,
	`=`, `\=`,
	`;`, `\;`,
	`+`, `\+`,
	`:`, `\:`,
)

func escapeToken(s string) string {
	return tokenEscaper.Replace(s)
}
