package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/slackconnect/slackconnect/internal/domain"
)

func respondJSON(w http.ResponseWriter, logger *slog.Logger, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("Failed to encode response body", "error", err)
	}
}

func respondError(w http.ResponseWriter, logger *slog.Logger, status int, message string) {
	respondJSON(w, logger, status, ErrorResponseDTO{Error: message})
}

// mapDomainError translates service errors into the uniform HTTP responses
// the frontend expects. Unknown errors become opaque 500s; their detail only
// goes to the log.
func mapDomainError(w http.ResponseWriter, logger *slog.Logger, err error, operation string) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		respondError(w, logger, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUserNotFound):
		respondError(w, logger, http.StatusNotFound, "User not found")
	case errors.Is(err, domain.ErrNotCancellable), errors.Is(err, domain.ErrMessageNotFound):
		respondError(w, logger, http.StatusNotFound, "Message not found or cannot be cancelled")
	default:
		logger.Error("Unhandled error", "operation", operation, "error", err)
		respondError(w, logger, http.StatusInternalServerError, "Internal server error")
	}
}
