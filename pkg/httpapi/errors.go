package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"netval/pkg/util"
)

// apiError is the stable, id-bearing error payload: every error carries a
// code, a human message, and, where relevant, the offending id/field.
// Credentials never appear here.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err onto the error taxonomy: ValidationError -> 400,
// NotFound -> 404, ConfirmationRequired -> 409, PreconditionFailed -> 409,
// StorageError -> 503. Anything
// else is a 500 with a generic message (SSH/parse/AI errors never reach
// here — they're surfaced inside job results or /health, not as HTTP
// failures).
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, util.ErrValidationFailed):
		writeJSON(w, http.StatusBadRequest, apiError{Code: "validation_failed", Message: err.Error()})
	case errors.Is(err, util.ErrNotFound):
		writeJSON(w, http.StatusNotFound, apiError{Code: "not_found", Message: err.Error()})
	case errors.Is(err, util.ErrConfirmationRequired):
		writeJSON(w, http.StatusConflict, apiError{Code: "confirmation_required", Message: "set confirm=true to proceed"})
	case errors.Is(err, util.ErrPreconditionFailed):
		writeJSON(w, http.StatusConflict, apiError{Code: "precondition_failed", Message: err.Error()})
	case errors.Is(err, util.ErrStorage):
		writeJSON(w, http.StatusServiceUnavailable, apiError{Code: "storage_error", Message: "a transient storage error occurred"})
	default:
		util.WithField("error", err.Error()).Error("httpapi: unhandled error")
		writeJSON(w, http.StatusInternalServerError, apiError{Code: "internal_error", Message: "an internal error occurred"})
	}
}
