package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/slackconnect/slackconnect/internal/auth"
	"github.com/slackconnect/slackconnect/internal/domain"
)

// AuthHandler exposes the OAuth handshake endpoints. None of them require a
// session: they are how a session is obtained.
type AuthHandler struct {
	service *auth.Service
	logger  *slog.Logger
}

func NewAuthHandler(service *auth.Service, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{service: service, logger: logger.With("component", "auth_handler")}
}

func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Get("/auth/slack", h.BeginAuth)
	r.Get("/auth/slack/callback", h.Callback)
	r.Get("/auth/status/{userID}", h.Status)
}

func (h *AuthHandler) BeginAuth(w http.ResponseWriter, r *http.Request) {
	authURL, err := h.service.BeginLogin()
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to build authorize URL", "error", err)
		respondError(w, h.logger, http.StatusInternalServerError, "Failed to generate authentication URL")
		return
	}
	respondJSON(w, h.logger, http.StatusOK, AuthURLResponseDTO{AuthURL: authURL})
}

func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	redirect := h.service.HandleCallback(r.Context(), query.Get("code"), query.Get("state"), query.Get("error"))
	http.Redirect(w, r, redirect, http.StatusFound)
}

func (h *AuthHandler) Status(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	status, err := h.service.Status(r.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			respondJSON(w, h.logger, http.StatusNotFound, AuthStatusResponseDTO{
				Authenticated: false,
				Error:         "User not found",
			})
			return
		}
		mapDomainError(w, h.logger, err, "auth_status")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, AuthStatusResponseDTO{
		Authenticated: status.Authenticated,
		UserID:        status.SlackUserID,
		TeamID:        status.TeamID,
		Expired:       status.Expired,
	})
}
