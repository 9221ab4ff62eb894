// Package task defines the propagation task wire format. Tasks carry entity
// identity, never entity snapshots: the worker re-reads current relational
// state, which is what makes replays and out-of-order delivery safe.
package task

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/meridianhq/searchcore/internal/domain/module"
)

// Kind discriminates the four propagation task kinds.
type Kind string

const (
	// KindUpsert re-reads an entity, maps it, and overwrites its document.
	KindUpsert Kind = "upsert"
	// KindRemove deletes a document by deterministic id.
	KindRemove Kind = "remove"
	// KindCorrection re-resolves relationships missing at initial mapping
	// time and re-upserts; the owner-user variant re-indexes the owning
	// user's UserProfile document instead.
	KindCorrection Kind = "correction"
	// KindScatter patches changed account-card fields into every document
	// embedding the account.
	KindScatter Kind = "scatter"
)

// Task is one queued propagation unit.
type Task struct {
	ID   string `json:"id"`
	Kind Kind   `json:"kind"`

	Module   module.Module `json:"module,omitempty"`
	EntityID int64         `json:"entity_id,omitempty"`

	// Correction context.
	AccountID          int64 `json:"account_id,omitempty"`
	CorporateAccountID int64 `json:"corporate_account_id,omitempty"`
	OwnerUserID        int64 `json:"owner_user_id,omitempty"`

	// Scatter context: changed account-card fields, keyed by their flattened
	// account_-prefixed names.
	ChangedFields map[string]string `json:"changed_fields,omitempty"`
}

// New creates a task of the given kind with a fresh correlation id.
func New(kind Kind) Task {
	return Task{ID: uuid.NewString(), Kind: kind}
}

// Encode serializes the task for queue transport.
func (t Task) Encode() (string, error) {
	b, err := json.Marshal(t)
	if err != nil {
		return "", fmt.Errorf("encode task: %w", err)
	}
	return string(b), nil
}

// Decode parses a queued task payload.
func Decode(raw string) (Task, error) {
	var t Task
	if err := json.Unmarshal([]byte(raw), &t); err != nil {
		return Task{}, fmt.Errorf("decode task: %w", err)
	}
	switch t.Kind {
	case KindUpsert, KindRemove, KindCorrection, KindScatter:
	default:
		return Task{}, fmt.Errorf("decode task: unknown kind %q", t.Kind)
	}
	return t, nil
}
