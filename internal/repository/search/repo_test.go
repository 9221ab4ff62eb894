package search

import (
	"context"
	"errors"
	"testing"

	"github.com/meridianhq/searchcore/internal/db"
)

type mockStore struct {
	query  *db.Query
	result *db.Result
	err    error

	countIndex string
	countQuery string
	count      int
}

func (m *mockStore) Search(_ context.Context, q *db.Query) (*db.Result, error) {
	m.query = q
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

func (m *mockStore) SearchCount(_ context.Context, index, query string) (int, error) {
	m.countIndex, m.countQuery = index, query
	if m.err != nil {
		return 0, m.err
	}
	return m.count, nil
}

func TestSearch_StripsKeyPrefix(t *testing.T) {
	s := &mockStore{result: &db.Result{
		Total: 7,
		Entries: []db.SearchEntry{
			{Key: "sc:doc:UserProfile_90", Score: 2.5, Fields: map[string]string{"full_name": "jane doe"}},
		},
	}}

	repo := New(s, "sc:")
	total, hits, err := repo.Search(context.Background(), "@module:{UserProfile}", []string{"full_name"}, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 7 {
		t.Errorf("expected total 7, got %d", total)
	}
	if len(hits) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(hits))
	}
	if hits[0].DocID != "UserProfile_90" {
		t.Errorf("key prefix not stripped: %q", hits[0].DocID)
	}
	if hits[0].Score != 2.5 || hits[0].Fields["full_name"] != "jane doe" {
		t.Errorf("hit mismatch: %+v", hits[0])
	}

	if s.query.IndexName != "sc:doc:idx" {
		t.Errorf("unexpected index name %q", s.query.IndexName)
	}
	if s.query.Window != 100 {
		t.Errorf("unexpected window %d", s.query.Window)
	}
}

func TestSearch_BackendError(t *testing.T) {
	s := &mockStore{err: errors.New("index down")}
	repo := New(s, "sc:")
	if _, _, err := repo.Search(context.Background(), "q", nil, 10); err == nil {
		t.Fatal("expected error")
	}
}

func TestCount(t *testing.T) {
	s := &mockStore{count: 42}
	repo := New(s, "sc:")
	n, err := repo.Count(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 42 {
		t.Errorf("expected 42, got %d", n)
	}
	if s.countIndex != "sc:doc:idx" || s.countQuery != "*" {
		t.Errorf("count args = %q %q", s.countIndex, s.countQuery)
	}
}
