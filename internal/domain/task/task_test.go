package task

import (
	"testing"

	"github.com/meridianhq/searchcore/internal/domain/module"
)

func TestNew_AssignsID(t *testing.T) {
	a := New(KindUpsert)
	b := New(KindUpsert)
	if a.ID == "" || b.ID == "" {
		t.Fatal("expected non-empty task ids")
	}
	if a.ID == b.ID {
		t.Error("expected distinct correlation ids")
	}
}

func TestEncodeDecode(t *testing.T) {
	orig := New(KindScatter)
	orig.AccountID = 17
	orig.ChangedFields = map[string]string{"account_name": "Renamed Corp"}

	raw, err := orig.Encode()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := Decode(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != orig.ID || got.Kind != KindScatter {
		t.Errorf("identity mismatch: %+v", got)
	}
	if got.AccountID != 17 || got.ChangedFields["account_name"] != "Renamed Corp" {
		t.Errorf("payload mismatch: %+v", got)
	}
}

func TestDecode_CorrectionContext(t *testing.T) {
	orig := New(KindCorrection)
	orig.Module = module.Webinar
	orig.EntityID = 5
	orig.CorporateAccountID = 8

	raw, err := orig.Encode()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := Decode(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Module != module.Webinar || got.EntityID != 5 || got.CorporateAccountID != 8 {
		t.Errorf("correction context mismatch: %+v", got)
	}
}

func TestDecode_RejectsUnknownKind(t *testing.T) {
	if _, err := Decode(`{"id":"x","kind":"vacuum"}`); err == nil {
		t.Error("expected error for unknown kind")
	}
	if _, err := Decode(`{"id":"x"}`); err == nil {
		t.Error("expected error for missing kind")
	}
	if _, err := Decode(`not json`); err == nil {
		t.Error("expected error for invalid json")
	}
}
