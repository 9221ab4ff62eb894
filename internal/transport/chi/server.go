// Package chi exposes the search API over HTTP. The heavy lifting lives in
// the usecases; handlers decode, delegate, and map domain errors to status
// codes.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/meridianhq/searchcore/internal/domain"
	logpkg "github.com/meridianhq/searchcore/internal/logger"
	"github.com/meridianhq/searchcore/internal/metrics"
	searchuc "github.com/meridianhq/searchcore/internal/usecase/search"
)

// Pinger checks backend connectivity for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// DocumentReader reads one stored document hash, for the inspection endpoint.
type DocumentReader interface {
	Get(ctx context.Context, docID string) (map[string]string, error)
}

// Server is the HTTP API server.
type Server struct {
	search  *searchuc.Service
	changes ChangeSink
	docs    DocumentReader
	pinger  Pinger
	logger  *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(
	search *searchuc.Service,
	changes ChangeSink,
	docs DocumentReader,
	pinger Pinger,
	logger *zap.Logger,
) *Server {
	return &Server{search: search, changes: changes, docs: docs, pinger: pinger, logger: logger}
}

// Router builds the chi router with middleware and routes.
func (s *Server) Router(apiKeys []string) http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(s.loggerContext)
	r.Use(chiMiddleware.Recoverer)
	r.Use(metrics.Middleware())
	r.Use(BearerAuthMiddleware(apiKeys))

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Post("/search", s.handleSearch)
	r.Post("/internal/changes", s.handleChange)
	r.Get("/internal/documents/{docID}", s.handleGetDocument)

	return r
}

// loggerContext stores a request-scoped logger carrying the request id, so
// handlers and deeper layers log with correlation without threading a logger.
func (s *Server) loggerContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		l := s.logger.With(zap.String("request_id", chiMiddleware.GetReqID(r.Context())))
		next.ServeHTTP(w, r.WithContext(logpkg.WithLogger(r.Context(), l)))
	})
}

// searchRequest is the POST /search body. Callers are internal services that
// already authenticated the end user; the requester identity travels in the
// body.
type searchRequest struct {
	Query     string           `json:"query"`
	Module    string           `json:"module"`
	Page      int              `json:"page"`
	PerPage   int              `json:"per_page"`
	Requester domain.Requester `json:"requester"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}

	resp, err := s.search.Search(r.Context(), searchuc.Request{
		Query:     req.Query,
		Module:    req.Module,
		Page:      req.Page,
		PerPage:   req.PerPage,
		Requester: req.Requester,
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleGetDocument exposes the stored hash for a document id, so operators
// can check what propagation actually wrote.
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")

	fields, err := s.docs.Get(r.Context(), docID)
	if err != nil {
		if errors.Is(err, domain.ErrDocumentNotFound) {
			writeError(w, http.StatusNotFound, "document_not_found", err.Error())
			return
		}
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"_id": docID, "fields": fields})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.pinger.Ping(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleDomainError maps domain sentinels to HTTP statuses. A backend read
// failure is fatal to the request and surfaces as a server error.
func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrModuleNotPermitted):
		writeError(w, http.StatusForbidden, "module_not_permitted", err.Error())
	case errors.Is(err, domain.ErrUnknownModule):
		writeError(w, http.StatusBadRequest, "unknown_module", err.Error())
	case errors.Is(err, domain.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		logpkg.FromContext(r.Context()).Error("search request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", "search backend failure")
	}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
