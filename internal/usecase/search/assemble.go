package search

import (
	"sort"
	"strconv"
	"strings"

	"github.com/meridianhq/searchcore/internal/domain"
	"github.com/meridianhq/searchcore/internal/domain/document"
)

// paginate re-orders score-sorted hits by module priority and slices out the
// requested page. The stable sort preserves the backend's score order within
// equal priority, giving the contract ordering: priority asc, then score
// desc.
func paginate(hits []domain.SearchHit, offset, perPage int) []domain.SearchHit {
	sort.SliceStable(hits, func(i, j int) bool {
		return hitPriority(hits[i]) < hitPriority(hits[j])
	})

	if offset >= len(hits) {
		return nil
	}
	end := offset + perPage
	if end > len(hits) {
		end = len(hits)
	}
	return hits[offset:end]
}

func hitPriority(h domain.SearchHit) int {
	p, err := strconv.Atoi(h.Fields["priority"])
	if err != nil {
		return int(^uint(0) >> 1) // unknown priority sorts last
	}
	return p
}

// internalFields never appear in assembled output. priority drives the sort
// and user_emails is filter-only.
var internalFields = map[string]bool{
	"module":      true,
	"priority":    true,
	"domain_id":   true,
	"user_emails": true,
}

func (s *Service) assemble(h domain.SearchHit) (Result, error) {
	mod, rowID, err := document.SplitID(h.DocID)
	if err != nil {
		return Result{}, err
	}

	r := Result{
		ID:     h.DocID,
		Module: mod,
		RowID:  rowID,
		Score:  h.Score,
		Fields: make(map[string]string),
	}
	if spec, ok := s.registry.Spec(mod); ok {
		r.ModuleDisplay = spec.DisplayName
	}

	for k, v := range h.Fields {
		switch {
		case internalFields[k]:
		case strings.HasPrefix(k, document.CorporateAccountPrefix):
			if r.CorporateAccount == nil {
				r.CorporateAccount = make(map[string]string)
			}
			r.CorporateAccount[strings.TrimPrefix(k, document.CorporateAccountPrefix)] = v
		case strings.HasPrefix(k, document.AccountPrefix):
			if r.Account == nil {
				r.Account = make(map[string]string)
			}
			r.Account[strings.TrimPrefix(k, document.AccountPrefix)] = v
		default:
			r.Fields[k] = v
		}
	}
	return r, nil
}
