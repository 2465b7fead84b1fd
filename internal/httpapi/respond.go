package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/guility/relrag/internal/relrag"
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, err error) {
	if status == http.StatusInternalServerError {
		log.Error().Stack().Err(err).Msg("unhandled error serving request")
	}
	respondJSON(w, status, map[string]any{"error": err.Error()})
}

// statusFromError maps the §7 error taxonomy onto HTTP status codes,
// grounded on internal/httpapi/handlers.go's statusFromError.
func statusFromError(err error) int {
	var notFound *relrag.NotFoundError
	var denied *relrag.PermissionDeniedError
	var validation *relrag.ValidationError
	var duplicate *relrag.DuplicateDocumentError
	var upstream *relrag.UpstreamFailureError
	var unavailable *relrag.UnavailableError
	var invalidArg *relrag.InvalidArgumentError

	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &denied):
		return http.StatusForbidden
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &invalidArg):
		return http.StatusBadRequest
	case errors.As(err, &duplicate):
		return http.StatusConflict
	case errors.As(err, &upstream):
		return http.StatusBadGateway
	case errors.As(err, &unavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
