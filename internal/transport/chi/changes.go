package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/meridianhq/searchcore/internal/capture"
	"github.com/meridianhq/searchcore/internal/domain"
	"github.com/meridianhq/searchcore/internal/domain/entity"
)

// ChangeSink accepts committed relational changes for propagation.
type ChangeSink interface {
	OnCommit(ctx context.Context, ch capture.Change)
}

// changeRequest is the POST /internal/changes body. The upstream application
// posts one per committed row change; previous is set only for updates.
type changeRequest struct {
	Event    string          `json:"event"` // insert, update, delete
	Type     string          `json:"type"`  // module name, or SearchSetting
	Entity   json.RawMessage `json:"entity"`
	Previous json.RawMessage `json:"previous,omitempty"`
}

func (s *Server) handleChange(w http.ResponseWriter, r *http.Request) {
	var req changeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}

	event, ok := parseEvent(req.Event)
	if !ok {
		writeError(w, http.StatusBadRequest, "bad_request", "event must be insert, update, or delete")
		return
	}
	if len(req.Entity) == 0 {
		writeError(w, http.StatusBadRequest, "bad_request", "entity is required")
		return
	}

	e, err := entity.Decode(req.Type, req.Entity)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownModule) {
			writeError(w, http.StatusBadRequest, "unknown_module", err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	var prev entity.Entity
	if len(req.Previous) > 0 {
		prev, err = entity.Decode(req.Type, req.Previous)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", err.Error())
			return
		}
	}

	// OnCommit never fails the caller: enqueue errors are logged inside.
	s.changes.OnCommit(r.Context(), capture.Change{Entity: e, Previous: prev, Event: event})
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func parseEvent(s string) (capture.Event, bool) {
	switch s {
	case "insert":
		return capture.EventInsert, true
	case "update":
		return capture.EventUpdate, true
	case "delete":
		return capture.EventDelete, true
	}
	return 0, false
}
