package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nerrad567/smartconnect-core/internal/apperr"
)

// Error is the body of every error response, wrapped as {"error": Error}.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type errorEnvelope struct {
	Error Error `json:"error"`
}

// Common error codes.
const (
	ErrCodeBadRequest        = "bad_request"
	ErrCodeNotFound          = "not_found"
	ErrCodeUnauthorized      = "unauthenticated"
	ErrCodeForbidden         = "forbidden"
	ErrCodeConflict          = "conflict"
	ErrCodeInternal          = "internal_error"
	ErrCodeValidation        = "validation_failed"
	ErrCodeInvalidValue      = "invalid_value"
	ErrCodeInvalidTransition = "invalid_transition"
	ErrCodeMethodNotAllow    = "method_not_allowed"
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
func writeError(w http.ResponseWriter, status int, code, field, message string) {
	writeJSON(w, status, errorEnvelope{Error: Error{
		Code:    code,
		Message: message,
		Field:   field,
	}})
}

// writeBadRequest writes a 400 error response.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "", message)
}

// writeNotFound writes a 404 error response.
func writeNotFound(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, ErrCodeNotFound, "", message)
}

// writeUnauthorized writes a 401 error response.
func writeUnauthorized(w http.ResponseWriter, message string) {
	writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "", message)
}

// writeForbidden writes a 403 error response.
func writeForbidden(w http.ResponseWriter) {
	writeError(w, http.StatusForbidden, ErrCodeForbidden, "", "insufficient permissions")
}

// writeInternalError writes a 500 error response.
func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, "", message)
}

// statusFor maps an error kind to its HTTP status and code.
// ok is false for errors that carry no kind.
func statusFor(err error) (status int, code string, ok bool) {
	switch {
	case errors.Is(err, apperr.ErrUnauthenticated):
		return http.StatusUnauthorized, ErrCodeUnauthorized, true
	case errors.Is(err, apperr.ErrForbidden):
		return http.StatusForbidden, ErrCodeForbidden, true
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound, ErrCodeNotFound, true
	case errors.Is(err, apperr.ErrValidation):
		return http.StatusBadRequest, ErrCodeValidation, true
	case errors.Is(err, apperr.ErrInvalidValue):
		return http.StatusBadRequest, ErrCodeInvalidValue, true
	case errors.Is(err, apperr.ErrInvalidTransition):
		return http.StatusUnprocessableEntity, ErrCodeInvalidTransition, true
	case errors.Is(err, apperr.ErrConflict):
		return http.StatusConflict, ErrCodeConflict, true
	default:
		return http.StatusInternalServerError, ErrCodeInternal, false
	}
}

// writeAppError maps err to the error envelope. Errors without a known kind
// are logged and reported as a generic 500 so storage details never leak.
func (s *Server) writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, ok := statusFor(err)
	if !ok {
		s.logger.Error("request failed",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", r.Context().Value(ctxKeyRequestID),
		)
		writeInternalError(w, "internal server error")
		return
	}
	writeError(w, status, code, apperr.FieldOf(err), apperr.MessageOf(err))
}
