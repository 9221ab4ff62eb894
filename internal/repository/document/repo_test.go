package document

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/meridianhq/searchcore/internal/db"
	"github.com/meridianhq/searchcore/internal/domain"
	domdoc "github.com/meridianhq/searchcore/internal/domain/document"
	"github.com/meridianhq/searchcore/internal/domain/module"
)

type mockStore struct {
	hashes  map[string]map[string]string
	deleted []string
	queries []*db.Query

	searchResult *db.Result
	searchErr    error
	hsetErr      error
	delErr       error
	hgetErr      error
}

func newMockStore() *mockStore {
	return &mockStore{hashes: make(map[string]map[string]string)}
}

func (m *mockStore) HSet(_ context.Context, key string, fields map[string]string) error {
	if m.hsetErr != nil {
		return m.hsetErr
	}
	h := m.hashes[key]
	if h == nil {
		h = make(map[string]string)
		m.hashes[key] = h
	}
	for k, v := range fields {
		h[k] = v
	}
	return nil
}

func (m *mockStore) HGetAll(_ context.Context, key string) (map[string]string, error) {
	if m.hgetErr != nil {
		return nil, m.hgetErr
	}
	out := make(map[string]string, len(m.hashes[key]))
	for k, v := range m.hashes[key] {
		out[k] = v
	}
	return out, nil
}

func (m *mockStore) Exists(_ context.Context, key string) (bool, error) {
	_, ok := m.hashes[key]
	return ok, nil
}

func (m *mockStore) Del(_ context.Context, key string) error {
	if m.delErr != nil {
		return m.delErr
	}
	m.deleted = append(m.deleted, key)
	delete(m.hashes, key)
	return nil
}

func (m *mockStore) Search(_ context.Context, q *db.Query) (*db.Result, error) {
	m.queries = append(m.queries, q)
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	if m.searchResult != nil {
		return m.searchResult, nil
	}
	return &db.Result{}, nil
}

func testDoc() *domdoc.Document {
	return &domdoc.Document{
		ID:       "Announcement_5",
		Module:   module.Announcement,
		Priority: 3,
		DomainID: 2,
		Payload:  map[string]string{"subject": "hello"},
	}
}

func TestUpsert_Overwrites(t *testing.T) {
	s := newMockStore()
	// A stale field from an earlier version of the document.
	s.hashes["sc:doc:Announcement_5"] = map[string]string{"user_emails": "old@x.com"}

	repo := New(s, "sc:")
	if err := repo.Upsert(context.Background(), testDoc()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	h := s.hashes["sc:doc:Announcement_5"]
	if h == nil {
		t.Fatal("document hash missing")
	}
	if _, ok := h["user_emails"]; ok {
		t.Error("upsert must clear stale fields, not merge")
	}
	if h["subject"] != "hello" || h["module"] != "Announcement" || h["priority"] != "3" {
		t.Errorf("hash mismatch: %v", h)
	}
}

func TestUpsert_EmbedsCards(t *testing.T) {
	s := newMockStore()
	doc := testDoc()
	doc.Account = &domdoc.AccountCard{RowID: 50, AccountName: "Acme", DomainID: 2}
	doc.CorporateAccount = &domdoc.AccountCard{RowID: 60, AccountName: "Corp", DomainID: 2}

	repo := New(s, "sc:")
	if err := repo.Upsert(context.Background(), doc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	h := s.hashes["sc:doc:Announcement_5"]
	if h["account_row_id"] != "50" || h["corporate_account_row_id"] != "60" {
		t.Errorf("embedded cards mismatch: %v", h)
	}
}

func TestGet_ReturnsStoredHash(t *testing.T) {
	s := newMockStore()
	s.hashes["sc:doc:Announcement_5"] = map[string]string{"subject": "hello", "module": "Announcement"}

	repo := New(s, "sc:")
	fields, err := repo.Get(context.Background(), "Announcement_5")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fields["subject"] != "hello" || fields["module"] != "Announcement" {
		t.Errorf("fields mismatch: %v", fields)
	}
}

func TestGet_NotFound(t *testing.T) {
	s := newMockStore()
	repo := New(s, "sc:")
	_, err := repo.Get(context.Background(), "Webinar_404")
	if !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Errorf("expected ErrDocumentNotFound, got %v", err)
	}
}

func TestRemove_Idempotent(t *testing.T) {
	s := newMockStore()
	repo := New(s, "sc:")

	// Removing an absent document succeeds.
	if err := repo.Remove(context.Background(), "Webinar_9"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.deleted) != 1 || s.deleted[0] != "sc:doc:Webinar_9" {
		t.Errorf("unexpected deletes: %v", s.deleted)
	}
}

func TestPatchAccountFields_BothEmbedPositions(t *testing.T) {
	s := newMockStore()
	s.hashes["sc:doc:Webinar_7"] = map[string]string{"account_name": "Old"}
	s.searchResult = &db.Result{
		Total:   1,
		Entries: []db.SearchEntry{{Key: "sc:doc:Webinar_7"}},
	}

	repo := New(s, "sc:")
	n, err := repo.PatchAccountFields(context.Background(), 50,
		map[string]string{"account_name": "New"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// The same entry matched in both embed positions.
	if n != 2 {
		t.Errorf("expected 2 patches, got %d", n)
	}

	if len(s.queries) != 2 {
		t.Fatalf("expected 2 scatter queries, got %d", len(s.queries))
	}
	if !strings.Contains(s.queries[0].Raw, "@account_row_id:[50 50]") {
		t.Errorf("account position query wrong: %s", s.queries[0].Raw)
	}
	if !strings.Contains(s.queries[1].Raw, "@corporate_account_row_id:[50 50]") {
		t.Errorf("corporate position query wrong: %s", s.queries[1].Raw)
	}

	h := s.hashes["sc:doc:Webinar_7"]
	if h["account_name"] != "New" {
		t.Errorf("account field not patched: %v", h)
	}
	// Corporate pass rewrites the same changed set under its prefix.
	if h["corporate_account_name"] != "New" {
		t.Errorf("corporate field not patched: %v", h)
	}
}

func TestPatchAccountFields_OnlyChangedFieldsTouched(t *testing.T) {
	s := newMockStore()
	s.hashes["sc:doc:Webinar_7"] = map[string]string{
		"subject":        "untouched",
		"account_name":   "Old",
		"account_sector": "Tech",
	}
	s.searchResult = &db.Result{Total: 1, Entries: []db.SearchEntry{{Key: "sc:doc:Webinar_7"}}}

	repo := New(s, "sc:")
	if _, err := repo.PatchAccountFields(context.Background(), 50,
		map[string]string{"account_name": "New"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	h := s.hashes["sc:doc:Webinar_7"]
	if h["subject"] != "untouched" || h["account_sector"] != "Tech" {
		t.Errorf("patch clobbered unrelated fields: %v", h)
	}
}

func TestPatchAccountFields_EmptyChangeSetIsNoop(t *testing.T) {
	s := newMockStore()
	repo := New(s, "sc:")
	n, err := repo.PatchAccountFields(context.Background(), 50, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 0 || len(s.queries) != 0 {
		t.Errorf("expected no backend calls, got %d queries", len(s.queries))
	}
}

func TestPatchAccountFields_SearchError(t *testing.T) {
	s := newMockStore()
	s.searchErr = errors.New("index down")
	repo := New(s, "sc:")
	if _, err := repo.PatchAccountFields(context.Background(), 50,
		map[string]string{"account_name": "New"}); err == nil {
		t.Fatal("expected error")
	}
}
