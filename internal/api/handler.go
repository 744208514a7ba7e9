// Package api serves OLAP queries over HTTP.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"duck-olap/internal/declarative"
	"duck-olap/internal/domain"
	"duck-olap/internal/service/olap"
)

// maxBodyBytes caps request documents.
const maxBodyBytes = 1 << 20

// olapService defines the OLAP operations used by the API handler.
type olapService interface {
	Registry() *olap.Registry
	Query(ctx context.Context, subject string, req olap.QueryRequest) (*olap.Cube, error)
	QueryBatch(ctx context.Context, items []olap.BatchItem) ([]*olap.Cube, error)
	Explain(ctx context.Context, subject string, req olap.QueryRequest) (*olap.Explanation, error)
	Drilldown(ctx context.Context, subject string, selectors []olap.CellSelector) (*domain.RecordSet, error)
	DrilldownRecordsByName(ctx context.Context, subject string, mapping map[string]string) (*domain.RecordSet, error)
}

// Handler implements the OLAP endpoints.
type Handler struct {
	svc          olapService
	logger       *slog.Logger
	queryTimeout time.Duration
}

// NewHandler creates a handler. A zero queryTimeout leaves requests bounded
// only by the client connection.
func NewHandler(svc olapService, logger *slog.Logger, queryTimeout time.Duration) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{svc: svc, logger: logger, queryTimeout: queryTimeout}
}

// Mount registers the endpoints on r.
func (h *Handler) Mount(r chi.Router) {
	r.Get("/healthz", h.Health)
	r.Route("/v1/subjects", func(r chi.Router) {
		r.Get("/", h.ListSubjects)
		r.Route("/{subject}", func(r chi.Router) {
			r.Get("/", h.GetSubject)
			r.Post("/query", h.Query)
			r.Post("/explain", h.Explain)
			r.Post("/drilldown", h.Drilldown)
			r.Post("/batch", h.Batch)
		})
	})
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListSubjects lists the registered subjects.
func (h *Handler) ListSubjects(w http.ResponseWriter, r *http.Request) {
	reg := h.svc.Registry()
	names := reg.Subjects()
	out := make([]declarative.SubjectView, 0, len(names))
	for _, name := range names {
		cfg, err := reg.Subject(name)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		out = append(out, declarative.NewSubjectView(cfg))
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": out})
}

// GetSubject describes one subject.
func (h *Handler) GetSubject(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.svc.Registry().Subject(chi.URLParam(r, "subject"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, declarative.NewSubjectView(cfg))
}

// Query runs a cube query.
func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeQuery(w, r)
	if !ok {
		return
	}
	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()

	cube, err := h.svc.Query(ctx, chi.URLParam(r, "subject"), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, declarative.NewCubeView(cube))
}

// Explain compiles a cube query without running it.
func (h *Handler) Explain(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeQuery(w, r)
	if !ok {
		return
	}
	out, err := h.svc.Explain(r.Context(), chi.URLParam(r, "subject"), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, declarative.NewExplainView(out))
}

// Drilldown returns the records behind a cell.
func (h *Handler) Drilldown(w http.ResponseWriter, r *http.Request) {
	var doc declarative.DrilldownDoc
	if err := declarative.DecodeJSON(http.MaxBytesReader(w, r.Body, maxBodyBytes), &doc); err != nil {
		h.writeBadRequest(w, r, err)
		return
	}
	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()

	subject := chi.URLParam(r, "subject")
	var (
		records *domain.RecordSet
		err     error
	)
	if len(doc.Selectors) > 0 {
		var sels []olap.CellSelector
		if sels, err = doc.ToSelectors(); err == nil {
			records, err = h.svc.Drilldown(ctx, subject, sels)
		}
	} else {
		records, err = h.svc.DrilldownRecordsByName(ctx, subject, doc.Cell)
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, declarative.NewRecordsView(records))
}

// Batch runs several cube queries against one subject concurrently.
func (h *Handler) Batch(w http.ResponseWriter, r *http.Request) {
	var doc declarative.BatchDoc
	if err := declarative.DecodeJSON(http.MaxBytesReader(w, r.Body, maxBodyBytes), &doc); err != nil {
		h.writeBadRequest(w, r, err)
		return
	}
	subject := chi.URLParam(r, "subject")
	items := make([]olap.BatchItem, len(doc.Queries))
	for i, q := range doc.Queries {
		req, err := q.ToQueryRequest()
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		items[i] = olap.BatchItem{Subject: subject, Request: req}
	}
	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()

	cubes, err := h.svc.QueryBatch(ctx, items)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out := make([]declarative.CubeView, len(cubes))
	for i, c := range cubes {
		out[i] = declarative.NewCubeView(c)
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": out})
}

func (h *Handler) decodeQuery(w http.ResponseWriter, r *http.Request) (olap.QueryRequest, bool) {
	var doc declarative.QueryDoc
	if err := declarative.DecodeJSON(http.MaxBytesReader(w, r.Body, maxBodyBytes), &doc); err != nil {
		h.writeBadRequest(w, r, err)
		return olap.QueryRequest{}, false
	}
	req, err := doc.ToQueryRequest()
	if err != nil {
		h.writeError(w, r, err)
		return olap.QueryRequest{}, false
	}
	return req, true
}

func (h *Handler) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if h.queryTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, h.queryTimeout)
}
