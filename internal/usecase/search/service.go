// Package search serves the read path: permission gating, query
// construction, execution, and result assembly.
package search

import (
	"context"
	"fmt"

	"github.com/meridianhq/searchcore/internal/domain"
	"github.com/meridianhq/searchcore/internal/domain/module"
	"github.com/meridianhq/searchcore/internal/search/query"
)

// ModuleAll requests every permitted module.
const ModuleAll = "all"

// Limits clamp pagination and bound the sort window.
type Limits struct {
	DefaultPageSize int
	MaxPageSize     int
	MaxScanWindow   int
}

// Request is one search invocation.
type Request struct {
	Query     string
	Module    string // "" or "all" for every permitted module
	Page      int
	PerPage   int
	Requester domain.Requester
}

// Result is one assembled hit.
type Result struct {
	ID               string            `json:"_id"`
	Module           module.Module     `json:"module"`
	ModuleDisplay    string            `json:"module_display"`
	RowID            int64             `json:"row_id"`
	Score            float64           `json:"score"`
	Fields           map[string]string `json:"fields"`
	Account          map[string]string `json:"account,omitempty"`
	CorporateAccount map[string]string `json:"corporate_account,omitempty"`
}

// Response is the paginated result set. Total is the backend's total-matched
// count, not the page size.
type Response struct {
	Total   int      `json:"total"`
	Results []Result `json:"results"`
}

// Service handles search requests.
type Service struct {
	registry *module.Registry
	perms    PermissionResolver
	repo     Repository
	builder  *query.Builder
	limits   Limits
}

// New creates a search service.
func New(
	registry *module.Registry,
	perms PermissionResolver,
	repo Repository,
	builder *query.Builder,
	limits Limits,
) *Service {
	if limits.DefaultPageSize <= 0 {
		limits.DefaultPageSize = 20
	}
	if limits.MaxPageSize <= 0 {
		limits.MaxPageSize = 100
	}
	if limits.MaxScanWindow <= 0 {
		limits.MaxScanWindow = 1000
	}
	return &Service{registry: registry, perms: perms, repo: repo, builder: builder, limits: limits}
}

// Search runs a permission-scoped full-text query and assembles one page.
func (s *Service) Search(ctx context.Context, req Request) (Response, error) {
	if !req.Requester.Valid() {
		return Response{}, fmt.Errorf("%w: incomplete requester identity", domain.ErrInvalidRequest)
	}

	page := req.Page
	if page < 1 {
		page = 1
	}
	perPage := req.PerPage
	if perPage <= 0 {
		perPage = s.limits.DefaultPageSize
	}
	if perPage > s.limits.MaxPageSize {
		perPage = s.limits.MaxPageSize
	}

	mods, err := s.targetModules(ctx, req)
	if err != nil {
		return Response{}, err
	}
	if len(mods) == 0 {
		return Response{Results: []Result{}}, nil
	}

	raw, err := s.builder.Build(req.Query, mods, req.Requester)
	if err != nil {
		return Response{}, err
	}

	// The backend returns score order only; priority ordering happens client
	// side. Every page must sort the same window, otherwise a high-priority
	// hit whose score falls outside a smaller per-page window would never
	// surface on any page.
	offset := (page - 1) * perPage
	window := s.limits.MaxScanWindow

	total, hits, err := s.repo.Search(ctx, raw, s.builder.ReturnFields(mods), window)
	if err != nil {
		return Response{}, err
	}

	pageHits := paginate(hits, offset, perPage)

	results := make([]Result, 0, len(pageHits))
	for _, h := range pageHits {
		r, err := s.assemble(h)
		if err != nil {
			// A malformed key means an index corruption, not a bad request;
			// skip the hit rather than fail the whole page.
			continue
		}
		results = append(results, r)
	}

	return Response{Total: total, Results: results}, nil
}

// targetModules resolves the requested module selector against the caller's
// permitted set. A specific module outside the set is a permission error,
// never silently filtered.
func (s *Service) targetModules(ctx context.Context, req Request) ([]module.Module, error) {
	permitted, err := s.perms.Resolve(ctx, req.Requester.Role)
	if err != nil {
		return nil, fmt.Errorf("resolve permissions: %w", err)
	}

	if req.Module == "" || req.Module == ModuleAll {
		var mods []module.Module
		for _, m := range s.registry.Modules() {
			if permitted[m] {
				mods = append(mods, m)
			}
		}
		return mods, nil
	}

	m, err := s.registry.Parse(req.Module)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownModule, req.Module)
	}
	if !permitted[m] {
		return nil, fmt.Errorf("%w: %s", domain.ErrModuleNotPermitted, m)
	}
	return []module.Module{m}, nil
}
