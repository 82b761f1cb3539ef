package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nerrad567/tracker-core/internal/geofence"
	"github.com/nerrad567/tracker-core/internal/ingest"
	"github.com/nerrad567/tracker-core/internal/tracking"
	"github.com/nerrad567/tracker-core/internal/visit"
)

// Error represents a structured error response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Common error codes.
const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeInternal         = "internal_error"
	ErrCodeValidation       = "validation_error"
	ErrCodeMethodNotAllow   = "method_not_allowed"
	ErrCodeInputUnavailable = "input_unavailable"
	ErrCodeRangeTooLarge    = "range_too_large"
	ErrCodeUnavailable      = "service_unavailable"
)

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{
		Status:  status,
		Code:    code,
		Message: message,
	})
}

// writeBadRequest writes a 400 error response.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// writeNotFound writes a 404 error response.
func writeNotFound(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, ErrCodeNotFound, message)
}

// writeInternalError writes a 500 error response.
func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// writeMethodNotAllowed writes a 405 error response.
func writeMethodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, ErrCodeMethodNotAllow, "method not allowed")
}

// writeDomainError maps errors from the domain packages to responses.
// Anything unrecognised is logged and reported as a 500 with fallback.
func (s *Server) writeDomainError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, geofence.ErrZoneNotFound):
		writeNotFound(w, "zone not found")
	case errors.Is(err, tracking.ErrFixNotFound):
		writeNotFound(w, "fix not found")
	case errors.Is(err, geofence.ErrInvalidZone),
		errors.Is(err, geofence.ErrInvalidDate),
		errors.Is(err, tracking.ErrInvalidFix),
		errors.Is(err, ingest.ErrInvalidPayload):
		writeError(w, http.StatusBadRequest, ErrCodeValidation, err.Error())
	case errors.Is(err, tracking.ErrInvalidDate):
		writeBadRequest(w, err.Error())
	case errors.Is(err, visit.ErrRangeTooLarge):
		writeError(w, http.StatusBadRequest, ErrCodeRangeTooLarge, err.Error())
	case errors.Is(err, visit.ErrPublishingDisabled):
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "visit publishing is not available")
	case errors.Is(err, visit.ErrInputUnavailable):
		s.logger.Error(fallback, "error", err)
		writeError(w, http.StatusServiceUnavailable, ErrCodeInputUnavailable, "tracking data is unavailable")
	default:
		s.logger.Error(fallback, "error", err)
		writeInternalError(w, fallback)
	}
}
