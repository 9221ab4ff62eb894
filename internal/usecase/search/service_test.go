package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/meridianhq/searchcore/internal/domain"
	"github.com/meridianhq/searchcore/internal/domain/module"
	"github.com/meridianhq/searchcore/internal/search/query"
)

// --- Mocks ---

type mockRepo struct {
	total  int
	hits   []domain.SearchHit
	err    error
	raw    string
	window int
}

func (m *mockRepo) Search(_ context.Context, raw string, _ []string, window int) (int, []domain.SearchHit, error) {
	m.raw = raw
	m.window = window
	if m.err != nil {
		return 0, nil, m.err
	}
	return m.total, m.hits, nil
}

type mockPerms struct {
	permitted map[module.Module]bool
	err       error
}

func (m *mockPerms) Resolve(_ context.Context, _ string) (map[module.Module]bool, error) {
	return m.permitted, m.err
}

func allPermitted() map[module.Module]bool {
	p := make(map[module.Module]bool)
	for _, m := range module.All() {
		p[m] = true
	}
	return p
}

func requester() domain.Requester {
	return domain.Requester{
		ID: 40, Email: "jane@acme.com", AccountType: "corporate", DomainID: 2, Role: "analyst",
	}
}

func newService(repo *mockRepo, perms *mockPerms, limits Limits) *Service {
	registry := module.NewRegistry()
	return New(registry, perms, repo, query.New(registry), limits)
}

func hit(docID string, priority int, score float64) domain.SearchHit {
	return domain.SearchHit{
		DocID: docID,
		Score: score,
		Fields: map[string]string{
			"module":   docID[:len(docID)-2],
			"priority": fmt.Sprintf("%d", priority),
		},
	}
}

// --- Tests ---

func TestSearch_InvalidRequester(t *testing.T) {
	svc := newService(&mockRepo{}, &mockPerms{permitted: allPermitted()}, Limits{})
	_, err := svc.Search(context.Background(), Request{Query: "x"})
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestSearch_UnknownModule(t *testing.T) {
	svc := newService(&mockRepo{}, &mockPerms{permitted: allPermitted()}, Limits{})
	_, err := svc.Search(context.Background(), Request{
		Query: "x", Module: "Bogus", Requester: requester(),
	})
	if !errors.Is(err, domain.ErrUnknownModule) {
		t.Errorf("expected ErrUnknownModule, got %v", err)
	}
}

func TestSearch_ModuleNotPermitted(t *testing.T) {
	perms := &mockPerms{permitted: map[module.Module]bool{module.AccountProfile: true}}
	svc := newService(&mockRepo{}, perms, Limits{})

	_, err := svc.Search(context.Background(), Request{
		Query: "x", Module: "Webinar", Requester: requester(),
	})
	// An explicit request outside the permitted set errors, never filters.
	if !errors.Is(err, domain.ErrModuleNotPermitted) {
		t.Errorf("expected ErrModuleNotPermitted, got %v", err)
	}
}

func TestSearch_AllTargetsOnlyPermitted(t *testing.T) {
	repo := &mockRepo{}
	perms := &mockPerms{permitted: map[module.Module]bool{
		module.AccountProfile: true,
		module.Webinar:        true,
	}}
	svc := newService(repo, perms, Limits{})

	_, err := svc.Search(context.Background(), Request{
		Query: "x", Module: ModuleAll, Requester: requester(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, frag := range []string{"@module:{AccountProfile}", "@module:{Webinar}"} {
		if !strings.Contains(repo.raw, frag) {
			t.Errorf("query missing %q:\n%s", frag, repo.raw)
		}
	}
	if strings.Contains(repo.raw, "@module:{Contact}") {
		t.Errorf("unpermitted module in query:\n%s", repo.raw)
	}
}

func TestSearch_NoPermittedModules(t *testing.T) {
	svc := newService(&mockRepo{}, &mockPerms{permitted: map[module.Module]bool{}}, Limits{})
	resp, err := svc.Search(context.Background(), Request{
		Query: "x", Requester: requester(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Total != 0 || len(resp.Results) != 0 {
		t.Errorf("expected empty response, got %+v", resp)
	}
}

func TestSearch_PermissionLookupError(t *testing.T) {
	svc := newService(&mockRepo{}, &mockPerms{err: errors.New("grants down")}, Limits{})
	if _, err := svc.Search(context.Background(), Request{Query: "x", Requester: requester()}); err == nil {
		t.Fatal("expected error")
	}
}

func TestSearch_PrioritySortStable(t *testing.T) {
	repo := &mockRepo{
		total: 4,
		hits: []domain.SearchHit{
			// Backend returns score order; same-priority hits keep it.
			hit("Webinar_1", 5, 9.0),
			hit("AccountProfile_2", 1, 5.0),
			hit("Webinar_3", 5, 4.0),
			hit("AccountProfile_4", 1, 3.0),
		},
	}
	svc := newService(repo, &mockPerms{permitted: allPermitted()}, Limits{})

	resp, err := svc.Search(context.Background(), Request{
		Query: "x", Requester: requester(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantOrder := []string{"AccountProfile_2", "AccountProfile_4", "Webinar_1", "Webinar_3"}
	if len(resp.Results) != len(wantOrder) {
		t.Fatalf("expected %d results, got %d", len(wantOrder), len(resp.Results))
	}
	for i, want := range wantOrder {
		if resp.Results[i].ID != want {
			t.Errorf("result %d = %s, want %s", i, resp.Results[i].ID, want)
		}
	}
}

func TestSearch_Pagination(t *testing.T) {
	repo := &mockRepo{
		total: 3,
		hits: []domain.SearchHit{
			hit("AccountProfile_1", 1, 9.0),
			hit("AccountProfile_2", 1, 8.0),
			hit("AccountProfile_3", 1, 7.0),
		},
	}
	svc := newService(repo, &mockPerms{permitted: allPermitted()}, Limits{})

	resp, err := svc.Search(context.Background(), Request{
		Query: "x", Page: 2, PerPage: 2, Requester: requester(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Total != 3 {
		t.Errorf("total must be the backend count, got %d", resp.Total)
	}
	if len(resp.Results) != 1 || resp.Results[0].ID != "AccountProfile_3" {
		t.Errorf("unexpected page 2: %+v", resp.Results)
	}
	// Every page sorts the same full window.
	if repo.window != 1000 {
		t.Errorf("expected window 1000, got %d", repo.window)
	}
}

func TestSearch_PriorityDominatesAcrossPages(t *testing.T) {
	// Score order puts the priority-1 hit last; it must still lead page 1.
	repo := &mockRepo{
		total: 3,
		hits: []domain.SearchHit{
			hit("Webinar_1", 5, 9.0),
			hit("Webinar_2", 5, 8.0),
			hit("AccountProfile_3", 1, 7.0),
		},
	}
	svc := newService(repo, &mockPerms{permitted: allPermitted()},
		Limits{DefaultPageSize: 20, MaxPageSize: 100, MaxScanWindow: 500})

	resp, err := svc.Search(context.Background(), Request{
		Query: "x", Page: 1, PerPage: 2, Requester: requester(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Results) != 2 || resp.Results[0].ID != "AccountProfile_3" {
		t.Errorf("priority-1 hit must lead page 1: %+v", resp.Results)
	}
	window1 := repo.window

	resp, err = svc.Search(context.Background(), Request{
		Query: "x", Page: 2, PerPage: 2, Requester: requester(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Results) != 1 || resp.Results[0].ID != "Webinar_2" {
		t.Errorf("unexpected page 2: %+v", resp.Results)
	}
	// Page number must not change the sorted window.
	if repo.window != window1 || repo.window != 500 {
		t.Errorf("window varies by page: %d vs %d", window1, repo.window)
	}
}

func TestSearch_PageSizeClamped(t *testing.T) {
	hits := make([]domain.SearchHit, 60)
	for i := range hits {
		hits[i] = hit(fmt.Sprintf("AccountProfile_%d", i+1), 1, float64(60-i))
	}
	repo := &mockRepo{total: 60, hits: hits}
	svc := newService(repo, &mockPerms{permitted: allPermitted()},
		Limits{DefaultPageSize: 20, MaxPageSize: 50, MaxScanWindow: 200})

	resp, err := svc.Search(context.Background(), Request{
		Query: "x", PerPage: 500, Requester: requester(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Results) != 50 {
		t.Errorf("per_page not clamped to max: got %d results", len(resp.Results))
	}
}

func TestSearch_WindowIsScanBound(t *testing.T) {
	repo := &mockRepo{}
	svc := newService(repo, &mockPerms{permitted: allPermitted()},
		Limits{DefaultPageSize: 20, MaxPageSize: 100, MaxScanWindow: 150})

	_, err := svc.Search(context.Background(), Request{
		Query: "x", Page: 9, PerPage: 100, Requester: requester(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.window != 150 {
		t.Errorf("window must be the scan bound: %d", repo.window)
	}
}

func TestSearch_AssemblesHit(t *testing.T) {
	repo := &mockRepo{
		total: 1,
		hits: []domain.SearchHit{{
			DocID: "Webinar_7",
			Score: 3.5,
			Fields: map[string]string{
				"module":                 "Webinar",
				"priority":               "5",
				"domain_id":              "2",
				"subject":                "Q3 Results",
				"account_row_id":         "50",
				"account_name":           "Acme",
				"corporate_account_name": "Corp",
			},
		}},
	}
	svc := newService(repo, &mockPerms{permitted: allPermitted()}, Limits{})

	resp, err := svc.Search(context.Background(), Request{Query: "x", Requester: requester()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(resp.Results))
	}
	r := resp.Results[0]

	if r.Module != module.Webinar || r.RowID != 7 || r.Score != 3.5 {
		t.Errorf("identity mismatch: %+v", r)
	}
	if r.ModuleDisplay != "Webinars" {
		t.Errorf("display name = %q", r.ModuleDisplay)
	}
	if r.Fields["subject"] != "Q3 Results" {
		t.Errorf("fields mismatch: %v", r.Fields)
	}
	// Internal fields stripped.
	for _, k := range []string{"module", "priority", "domain_id"} {
		if _, ok := r.Fields[k]; ok {
			t.Errorf("internal field %q leaked", k)
		}
	}
	// Cards regrouped, prefixes stripped; corporate before account so prefixes
	// never mis-bucket.
	if r.Account["name"] != "Acme" || r.Account["row_id"] != "50" {
		t.Errorf("account card mismatch: %v", r.Account)
	}
	if r.CorporateAccount["name"] != "Corp" {
		t.Errorf("corporate card mismatch: %v", r.CorporateAccount)
	}
	if _, ok := r.Account["corporate_account_name"]; ok {
		t.Error("corporate field bucketed into account card")
	}
}

func TestSearch_MalformedHitSkipped(t *testing.T) {
	repo := &mockRepo{
		total: 2,
		hits: []domain.SearchHit{
			{DocID: "garbage", Fields: map[string]string{"priority": "1"}},
			hit("AccountProfile_2", 1, 5.0),
		},
	}
	svc := newService(repo, &mockPerms{permitted: allPermitted()}, Limits{})

	resp, err := svc.Search(context.Background(), Request{Query: "x", Requester: requester()})
	if err != nil {
		t.Fatalf("malformed hit must not fail the page: %v", err)
	}
	if len(resp.Results) != 1 || resp.Results[0].ID != "AccountProfile_2" {
		t.Errorf("unexpected results: %+v", resp.Results)
	}
}

func TestSearch_BackendError(t *testing.T) {
	repo := &mockRepo{err: errors.New("index down")}
	svc := newService(repo, &mockPerms{permitted: allPermitted()}, Limits{})
	if _, err := svc.Search(context.Background(), Request{Query: "x", Requester: requester()}); err == nil {
		t.Fatal("expected error")
	}
}
