package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/slackconnect/slackconnect/internal/messaging"
	"github.com/slackconnect/slackconnect/internal/slackgw"
	"github.com/slackconnect/slackconnect/internal/transport/http/middleware"
)

// MessageHandler serves immediate sends and channel listing. Both require a
// session whose subject matches the user named in the request.
type MessageHandler struct {
	service  *messaging.Service
	logger   *slog.Logger
	validate *validator.Validate
}

func NewMessageHandler(service *messaging.Service, logger *slog.Logger, validate *validator.Validate) *MessageHandler {
	return &MessageHandler{service: service, logger: logger.With("component", "message_handler"), validate: validate}
}

func (h *MessageHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/messages/channels/{userID}", h.Channels)
	r.Post("/api/messages/send", h.Send)
}

func (h *MessageHandler) Channels(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if !sessionOwns(r, userID) {
		respondError(w, h.logger, http.StatusForbidden, "Session does not match requested user")
		return
	}

	channels, err := h.service.Channels(r.Context(), userID)
	if err != nil {
		mapDomainError(w, h.logger, err, "list_channels")
		return
	}
	respondJSON(w, h.logger, http.StatusOK, ChannelsResponseDTO{Channels: channels})
}

func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req SendMessageRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Missing required fields: userId, channelId, message")
		return
	}
	if !sessionOwns(r, req.UserID) {
		respondError(w, h.logger, http.StatusForbidden, "Session does not match requested user")
		return
	}

	res, err := h.service.SendNow(r.Context(), req.UserID, req.ChannelID, req.Message)
	if err != nil {
		var rejection *slackgw.RejectionError
		if errors.As(err, &rejection) {
			respondError(w, h.logger, http.StatusBadRequest, rejection.Reason)
			return
		}
		mapDomainError(w, h.logger, err, "send_message")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, SendMessageResponseDTO{
		Success:   true,
		Timestamp: res.Timestamp,
		Channel:   res.Channel,
	})
}

// sessionOwns reports whether the authenticated session subject matches the
// user the request operates on.
func sessionOwns(r *http.Request, userID string) bool {
	subject, ok := middleware.SessionUser(r.Context())
	return ok && subject == userID
}
