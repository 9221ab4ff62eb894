package document

import (
	"strconv"

	domdoc "github.com/meridianhq/searchcore/internal/domain/document"
)

// buildHashFields flattens a document into the hash stored in Redis.
func buildHashFields(doc *domdoc.Document) map[string]string {
	m := make(map[string]string, 4+len(doc.Payload))
	m["module"] = string(doc.Module)
	m["priority"] = strconv.Itoa(doc.Priority)
	m["domain_id"] = strconv.FormatInt(doc.DomainID, 10)

	for k, v := range doc.Payload {
		m[k] = v
	}

	if doc.Account != nil {
		for k, v := range doc.Account.Flatten(domdoc.AccountPrefix) {
			m[k] = v
		}
	}
	if doc.CorporateAccount != nil {
		for k, v := range doc.CorporateAccount.Flatten(domdoc.CorporateAccountPrefix) {
			m[k] = v
		}
	}
	return m
}
