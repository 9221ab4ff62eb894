package indexing

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/meridianhq/searchcore/internal/domain"
	"github.com/meridianhq/searchcore/internal/domain/document"
	"github.com/meridianhq/searchcore/internal/domain/entity"
	"github.com/meridianhq/searchcore/internal/domain/module"
	"github.com/meridianhq/searchcore/internal/domain/task"
	"github.com/meridianhq/searchcore/internal/mapper"
)

// --- Mocks ---

type mockLoader struct {
	byModule map[string]entity.Entity
	byUser   map[int64]entity.Entity
	err      error

	loadedModule module.Module
	loadedID     int64
	loadedUser   int64
}

func (m *mockLoader) Load(_ context.Context, mod module.Module, id int64) (entity.Entity, error) {
	m.loadedModule, m.loadedID = mod, id
	if m.err != nil {
		return nil, m.err
	}
	e, ok := m.byModule[document.ID(mod, id)]
	if !ok {
		return nil, domain.ErrEntityNotFound
	}
	return e, nil
}

func (m *mockLoader) LoadUserProfileByUser(_ context.Context, userID int64) (entity.Entity, error) {
	m.loadedUser = userID
	if m.err != nil {
		return nil, m.err
	}
	e, ok := m.byUser[userID]
	if !ok {
		return nil, domain.ErrEntityNotFound
	}
	return e, nil
}

type mockRepo struct {
	upserted []*document.Document
	removed  []string
	patched  map[string]string
	patchID  int64

	upsertErr error
	removeErr error
	patchErr  error
}

func (m *mockRepo) Upsert(_ context.Context, doc *document.Document) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.upserted = append(m.upserted, doc)
	return nil
}

func (m *mockRepo) Remove(_ context.Context, docID string) error {
	if m.removeErr != nil {
		return m.removeErr
	}
	m.removed = append(m.removed, docID)
	return nil
}

func (m *mockRepo) PatchAccountFields(_ context.Context, accountID int64, changed map[string]string) (int, error) {
	if m.patchErr != nil {
		return 0, m.patchErr
	}
	m.patchID = accountID
	m.patched = changed
	return 3, nil
}

type mockEnqueuer struct {
	tasks []task.Task
	err   error
}

func (m *mockEnqueuer) Enqueue(_ context.Context, t task.Task) error {
	if m.err != nil {
		return m.err
	}
	m.tasks = append(m.tasks, t)
	return nil
}

func newService(l *mockLoader, r *mockRepo, q *mockEnqueuer) *Service {
	return New(l, r, mapper.New(module.NewRegistry()), q, zap.NewNop())
}

// --- Upsert ---

func TestHandle_Upsert(t *testing.T) {
	l := &mockLoader{byModule: map[string]entity.Entity{
		"Announcement_5": &entity.Announcement{ID: 5, Subject: "hello", DomainID: 2},
	}}
	r := &mockRepo{}
	q := &mockEnqueuer{}

	tk := task.New(task.KindUpsert)
	tk.Module = module.Announcement
	tk.EntityID = 5

	if err := newService(l, r, q).Handle(context.Background(), tk); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(r.upserted) != 1 || r.upserted[0].ID != "Announcement_5" {
		t.Errorf("unexpected upserts: %+v", r.upserted)
	}
	if len(q.tasks) != 0 {
		t.Errorf("complete mapping must not spawn corrections: %+v", q.tasks)
	}
}

func TestHandle_Upsert_EntityGoneDropsQuietly(t *testing.T) {
	l := &mockLoader{}
	r := &mockRepo{}

	tk := task.New(task.KindUpsert)
	tk.Module = module.Announcement
	tk.EntityID = 404

	if err := newService(l, r, &mockEnqueuer{}).Handle(context.Background(), tk); err != nil {
		t.Fatalf("raced delete must not error: %v", err)
	}
	if len(r.upserted) != 0 {
		t.Errorf("unexpected upserts: %+v", r.upserted)
	}
}

func TestHandle_Upsert_SoftDeletedOnReReadRemoves(t *testing.T) {
	// A replayed upsert re-reads a row whose delete flag flipped after
	// enqueue; a flagged row must have no document.
	l := &mockLoader{byModule: map[string]entity.Entity{
		"Announcement_5": &entity.Announcement{ID: 5, Subject: "hello", DomainID: 2, Deleted: true},
	}}
	r := &mockRepo{}

	tk := task.New(task.KindUpsert)
	tk.Module = module.Announcement
	tk.EntityID = 5

	if err := newService(l, r, &mockEnqueuer{}).Handle(context.Background(), tk); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(r.upserted) != 0 {
		t.Errorf("soft-deleted row must not produce a document: %+v", r.upserted)
	}
	if len(r.removed) != 1 || r.removed[0] != "Announcement_5" {
		t.Errorf("expected removal of Announcement_5, got %v", r.removed)
	}
}

func TestHandle_Upsert_OwnerSoftDeletedRemovesByUser(t *testing.T) {
	// Settings-alias path: the owner's profile was soft-deleted; the removal
	// is keyed by the owning user, like every profile document.
	l := &mockLoader{byUser: map[int64]entity.Entity{
		77: &entity.UserProfile{ID: 3, UserID: 77, DomainID: 2, Deleted: true},
	}}
	r := &mockRepo{}

	tk := task.New(task.KindUpsert)
	tk.Module = module.UserProfile
	tk.OwnerUserID = 77

	if err := newService(l, r, &mockEnqueuer{}).Handle(context.Background(), tk); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(r.upserted) != 0 {
		t.Errorf("unexpected upserts: %+v", r.upserted)
	}
	if len(r.removed) != 1 || r.removed[0] != "UserProfile_77" {
		t.Errorf("expected removal of UserProfile_77, got %v", r.removed)
	}
}

func TestHandle_Upsert_SpawnsCorrection(t *testing.T) {
	l := &mockLoader{byModule: map[string]entity.Entity{
		"Webinar_7": &entity.Webinar{EventFields: entity.EventFields{
			ID: 7, DomainID: 2, AccountID: 50, // FK set, not loaded
		}},
	}}
	r := &mockRepo{}
	q := &mockEnqueuer{}

	tk := task.New(task.KindUpsert)
	tk.Module = module.Webinar
	tk.EntityID = 7

	if err := newService(l, r, q).Handle(context.Background(), tk); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(r.upserted) != 1 {
		t.Fatal("incomplete document is still written")
	}
	if len(q.tasks) != 1 {
		t.Fatalf("expected 1 correction, got %d", len(q.tasks))
	}
	c := q.tasks[0]
	if c.Kind != task.KindCorrection || c.Module != module.Webinar || c.AccountID != 50 {
		t.Errorf("unexpected correction: %+v", c)
	}
}

func TestHandle_Upsert_OwnerVariant(t *testing.T) {
	l := &mockLoader{byUser: map[int64]entity.Entity{
		77: &entity.UserProfile{ID: 3, UserID: 77, DomainID: 2},
	}}
	r := &mockRepo{}

	tk := task.New(task.KindUpsert)
	tk.Module = module.UserProfile
	tk.OwnerUserID = 77

	if err := newService(l, r, &mockEnqueuer{}).Handle(context.Background(), tk); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.loadedUser != 77 {
		t.Errorf("expected by-user load, got %d", l.loadedUser)
	}
	if len(r.upserted) != 1 || r.upserted[0].ID != "UserProfile_77" {
		t.Errorf("unexpected upserts: %+v", r.upserted)
	}
}

// --- Remove ---

func TestHandle_Remove(t *testing.T) {
	r := &mockRepo{}
	tk := task.New(task.KindRemove)
	tk.Module = module.Contact
	tk.EntityID = 9

	if err := newService(&mockLoader{}, r, &mockEnqueuer{}).Handle(context.Background(), tk); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(r.removed) != 1 || r.removed[0] != "Contact_9" {
		t.Errorf("unexpected removes: %v", r.removed)
	}
}

// --- Correction ---

func TestHandle_Correction_ReloadsAndUpserts(t *testing.T) {
	l := &mockLoader{byModule: map[string]entity.Entity{
		"Webinar_7": &entity.Webinar{EventFields: entity.EventFields{
			ID: 7, DomainID: 2,
			AccountID: 50,
			Account:   &entity.Account{ID: 50, Name: "Acme", DomainID: 2},
		}},
	}}
	r := &mockRepo{}

	tk := task.New(task.KindCorrection)
	tk.Module = module.Webinar
	tk.EntityID = 7
	tk.AccountID = 50

	if err := newService(l, r, &mockEnqueuer{}).Handle(context.Background(), tk); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(r.upserted) != 1 {
		t.Fatal("expected re-upsert")
	}
	if r.upserted[0].Account == nil || r.upserted[0].Account.AccountName != "Acme" {
		t.Errorf("resolved card not embedded: %+v", r.upserted[0].Account)
	}
}

func TestHandle_Correction_StillIncompleteDoesNotRequeue(t *testing.T) {
	l := &mockLoader{byModule: map[string]entity.Entity{
		"Webinar_7": &entity.Webinar{EventFields: entity.EventFields{
			ID: 7, DomainID: 2, AccountID: 50, // still unresolved
		}},
	}}
	r := &mockRepo{}
	q := &mockEnqueuer{}

	tk := task.New(task.KindCorrection)
	tk.Module = module.Webinar
	tk.EntityID = 7

	if err := newService(l, r, q).Handle(context.Background(), tk); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(q.tasks) != 0 {
		t.Errorf("incomplete correction must not loop: %+v", q.tasks)
	}
	if len(r.upserted) != 1 {
		t.Error("document still written with what resolved")
	}
}

func TestHandle_Correction_SoftDeletedOnReReadRemoves(t *testing.T) {
	l := &mockLoader{byModule: map[string]entity.Entity{
		"Webinar_7": &entity.Webinar{EventFields: entity.EventFields{
			ID: 7, DomainID: 2, Deleted: true,
			AccountID: 50,
			Account:   &entity.Account{ID: 50, Name: "Acme", DomainID: 2},
		}},
	}}
	r := &mockRepo{}

	tk := task.New(task.KindCorrection)
	tk.Module = module.Webinar
	tk.EntityID = 7
	tk.AccountID = 50

	if err := newService(l, r, &mockEnqueuer{}).Handle(context.Background(), tk); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(r.upserted) != 0 {
		t.Errorf("unexpected upserts: %+v", r.upserted)
	}
	if len(r.removed) != 1 || r.removed[0] != "Webinar_7" {
		t.Errorf("expected removal of Webinar_7, got %v", r.removed)
	}
}

func TestHandle_Correction_OwnerVariant(t *testing.T) {
	l := &mockLoader{byUser: map[int64]entity.Entity{
		77: &entity.UserProfile{ID: 3, UserID: 77, DomainID: 2},
	}}
	r := &mockRepo{}

	tk := task.New(task.KindCorrection)
	tk.Module = module.UserProfile
	tk.OwnerUserID = 77

	if err := newService(l, r, &mockEnqueuer{}).Handle(context.Background(), tk); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.loadedUser != 77 {
		t.Errorf("expected by-user load, got user %d", l.loadedUser)
	}
	if len(r.upserted) != 1 || r.upserted[0].ID != "UserProfile_77" {
		t.Errorf("unexpected upserts: %+v", r.upserted)
	}
}

// --- Scatter ---

func TestHandle_Scatter(t *testing.T) {
	r := &mockRepo{}
	tk := task.New(task.KindScatter)
	tk.AccountID = 50
	tk.ChangedFields = map[string]string{"account_name": "New"}

	if err := newService(&mockLoader{}, r, &mockEnqueuer{}).Handle(context.Background(), tk); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.patchID != 50 || r.patched["account_name"] != "New" {
		t.Errorf("patch mismatch: id=%d fields=%v", r.patchID, r.patched)
	}
}

func TestHandle_UnknownKind(t *testing.T) {
	err := newService(&mockLoader{}, &mockRepo{}, &mockEnqueuer{}).
		Handle(context.Background(), task.Task{ID: "x", Kind: "vacuum"})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestHandle_BackendErrorSurfaces(t *testing.T) {
	l := &mockLoader{byModule: map[string]entity.Entity{
		"Announcement_5": &entity.Announcement{ID: 5, DomainID: 2},
	}}
	r := &mockRepo{upsertErr: errors.New("write failed")}

	tk := task.New(task.KindUpsert)
	tk.Module = module.Announcement
	tk.EntityID = 5

	if err := newService(l, r, &mockEnqueuer{}).Handle(context.Background(), tk); err == nil {
		t.Fatal("expected error")
	}
}
