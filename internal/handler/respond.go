// Package handler provides the HTTP boundary for the Meridian accounts API.
// Handlers translate transport concerns (JSON bodies, cookies, status codes)
// into service calls and map the service outcome taxonomy onto HTTP:
// validation failures become 400 with field details, not-found 404,
// authentication failures 401, and system errors an opaque 500.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/prn-tf/meridian-accounts/internal/domain"
	"github.com/prn-tf/meridian-accounts/internal/service"
)

// errorResponse is the JSON shape of every non-2xx response.
type errorResponse struct {
	Error  string              `json:"error"`
	Fields []domain.FieldError `json:"fields,omitempty"`
}

// respondJSON writes a JSON payload with the given status code.
func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

// respondError maps a service error onto the transport. Validation and
// not-found are client-correctable and carry detail; everything else is an
// opaque internal error, logged but never leaked.
func respondError(w http.ResponseWriter, logger zerolog.Logger, err error) {
	var validation domain.ValidationErrors
	switch {
	case errors.As(err, &validation):
		respondJSON(w, http.StatusBadRequest, errorResponse{
			Error:  "validation_failed",
			Fields: validation.Fields,
		})
	case errors.Is(err, domain.ErrAccountNotFound), errors.Is(err, domain.ErrFileNotFound):
		respondJSON(w, http.StatusNotFound, errorResponse{Error: "not_found"})
	case errors.Is(err, service.ErrNotAuthenticated):
		respondJSON(w, http.StatusUnauthorized, errorResponse{Error: "not_authenticated"})
	default:
		logger.Error().Err(err).Msg("request failed")
		respondJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal_error"})
	}
}

// decodeJSON decodes a request body into dst, rejecting unknown fields.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// respondBadRequest reports an unparseable request body.
func respondBadRequest(w http.ResponseWriter, message string) {
	respondJSON(w, http.StatusBadRequest, errorResponse{Error: message})
}

// isAuthDenied distinguishes an authentication denial from a system failure.
func isAuthDenied(err error) bool {
	return errors.Is(err, service.ErrNotAuthenticated)
}
