package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/warp/timesheet-engine/generic"
	"github.com/warp/timesheet-engine/timesheet"
)

// writeDomainError maps ledger errors to HTTP status codes:
//
//	400 invalid program, range or input
//	404 unknown worker, no open session
//	409 already clocked in, program mismatch, concurrent modification
//	500 multiple open sessions (data needs a human), anything unexpected
//	503 store unavailable
func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := resolveError(err)
	if status >= http.StatusInternalServerError {
		h.Log.Error().
			Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("request failed")
	}

	resp := ErrorResponse{Error: err.Error(), Code: code}
	if code == "internal" {
		resp.Error = "internal server error"
	}
	writeJSON(w, status, resp)
}

func resolveError(err error) (int, string) {
	switch {
	case timesheet.IsClientError(err):
		return http.StatusBadRequest, "invalid_input"
	case errors.Is(err, timesheet.ErrUnknownWorker):
		return http.StatusNotFound, "unknown_worker"
	case errors.Is(err, timesheet.ErrNoOpenSession):
		return http.StatusNotFound, "no_open_session"
	case errors.Is(err, timesheet.ErrAlreadyClockedIn):
		return http.StatusConflict, "already_clocked_in"
	case errors.Is(err, timesheet.ErrProgramMismatch):
		return http.StatusConflict, "program_mismatch"
	case errors.Is(err, generic.ErrConcurrentModification):
		return http.StatusConflict, "concurrent_modification"
	case errors.Is(err, timesheet.ErrMultipleOpenSessions):
		return http.StatusInternalServerError, "multiple_open_sessions"
	case errors.Is(err, generic.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, "store_unavailable"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// validationMessage converts validator errors into one readable line.
func validationMessage(err error) string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err.Error()
	}
	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		msgs = append(msgs, fieldError(fe))
	}
	return strings.Join(msgs, "; ")
}

func fieldError(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required", "required_if":
		return field + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed validation (%s)", field, fe.Tag())
	}
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
