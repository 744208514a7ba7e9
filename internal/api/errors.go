package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"duck-olap/internal/domain"
	"duck-olap/internal/middleware"
)

// Error is the body of every non-2xx response.
type Error struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// httpStatusFromDomainError maps domain errors to HTTP status codes.
func httpStatusFromDomainError(err error) int {
	var conflict *domain.ConflictError
	var sealed *domain.RegistrySealedError

	switch {
	case domain.IsNotFound(err):
		return http.StatusNotFound
	case domain.IsValidation(err):
		return http.StatusBadRequest
	case errors.As(err, &conflict):
		return http.StatusConflict
	case errors.As(err, &sealed):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes err with the status it maps to. Server-side failures
// are logged and their details withheld from the client.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := httpStatusFromDomainError(err)
	id := middleware.RequestIDFromContext(r.Context())
	msg := err.Error()
	if status >= http.StatusInternalServerError && status != http.StatusGatewayTimeout {
		h.logger.ErrorContext(r.Context(), "olap request failed", "request_id", id, "error", err)
		msg = http.StatusText(status)
	}
	writeJSON(w, status, Error{Code: status, Message: msg, RequestID: id})
}

func (h *Handler) writeBadRequest(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.DebugContext(r.Context(), "rejected request body", "error", err)
	writeJSON(w, http.StatusBadRequest, Error{
		Code:      http.StatusBadRequest,
		Message:   "invalid request body: " + err.Error(),
		RequestID: middleware.RequestIDFromContext(r.Context()),
	})
}
