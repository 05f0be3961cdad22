package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"ajo/internal/core"
	"ajo/internal/log"
	"ajo/internal/services"
	"ajo/internal/storage"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps a service error onto an HTTP status and a stable error code.
func statusFor(err error) (int, string) {
	var bad *badRequestError
	switch {
	case errors.As(err, &bad):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, core.ErrValidation):
		return http.StatusUnprocessableEntity, "validation"
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, core.ErrDuplicateRecord):
		return http.StatusConflict, "duplicate_record"
	case errors.Is(err, storage.ErrVersionConflict):
		return http.StatusConflict, "version_conflict"
	case errors.Is(err, services.ErrExportDisabled):
		return http.StatusServiceUnavailable, "export_disabled"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	detail := errorDetail{Code: code, Message: err.Error()}
	if fields, ok := core.ValidationFields(err); ok {
		detail.Fields = fields
		detail.Message = "Validation failed"
	}
	if status >= http.StatusInternalServerError {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			log.FieldErrorType, code, "error", err, "path", r.URL.Path)
		if status == http.StatusInternalServerError {
			detail.Message = "Internal server error"
		}
	}
	writeJSON(w, status, errorBody{Error: detail})
}
