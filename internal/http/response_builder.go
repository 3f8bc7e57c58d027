package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"fincontrol/internal/core"
	"fincontrol/internal/log"
	"fincontrol/internal/services"
)

// errorResponse is the body of every failed request.
type errorResponse struct {
	Error   string            `json:"error"`
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

// statusFor maps an error kind to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrInvalidAmount), errors.Is(err, core.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrDuplicateOpenDebt):
		return http.StatusConflict
	case errors.Is(err, core.ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err as JSON. Server-side failures are logged and their
// details kept out of the response.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	resp := errorResponse{Error: core.Kind(err), Message: err.Error()}

	var verr *services.ValidationError
	if errors.As(err, &verr) {
		resp.Fields = verr.Fields
	}

	logger := log.FromContext(r.Context())
	switch {
	case status >= 500:
		logger.LogError(r.Context(), "Request failed", err, r.Method+" "+r.URL.Path, nil)
		if status == http.StatusInternalServerError {
			resp.Message = "internal server error"
		} else {
			resp.Message = "storage is unavailable, try again later"
		}
	default:
		logger.DebugContext(r.Context(), "Request rejected", log.FieldError, err, log.FieldStatusCode, status)
	}

	writeJSON(w, status, resp)
}
