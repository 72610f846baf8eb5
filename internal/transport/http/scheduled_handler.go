package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/slackconnect/slackconnect/internal/scheduling"
)

// ScheduledHandler serves the scheduled-message lifecycle: create, list,
// cancel. Dispatch itself runs out of band.
type ScheduledHandler struct {
	service  *scheduling.Service
	logger   *slog.Logger
	validate *validator.Validate
}

func NewScheduledHandler(service *scheduling.Service, logger *slog.Logger, validate *validator.Validate) *ScheduledHandler {
	return &ScheduledHandler{service: service, logger: logger.With("component", "scheduled_handler"), validate: validate}
}

func (h *ScheduledHandler) RegisterRoutes(r chi.Router) {
	r.Post("/api/scheduled/schedule", h.Schedule)
	r.Get("/api/scheduled/list/{userID}", h.List)
	r.Delete("/api/scheduled/cancel/{messageID}", h.Cancel)
}

func (h *ScheduledHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	var req ScheduleMessageRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Missing required fields: userId, channelId, channelName, message, scheduledTime")
		return
	}
	if !sessionOwns(r, req.UserID) {
		respondError(w, h.logger, http.StatusForbidden, "Session does not match requested user")
		return
	}

	id, scheduledAt, err := h.service.Schedule(r.Context(), scheduling.ScheduleRequest{
		SlackUserID: req.UserID,
		ChannelID:   req.ChannelID,
		ChannelName: req.ChannelName,
		Body:        req.Message,
		ScheduledAt: time.UnixMilli(req.ScheduledTime).UTC(),
	})
	if err != nil {
		mapDomainError(w, h.logger, err, "schedule_message")
		return
	}

	respondJSON(w, h.logger, http.StatusCreated, ScheduleMessageResponseDTO{
		Success:       true,
		MessageID:     id,
		ScheduledTime: scheduledAt.UnixMilli(),
	})
}

func (h *ScheduledHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if !sessionOwns(r, userID) {
		respondError(w, h.logger, http.StatusForbidden, "Session does not match requested user")
		return
	}

	messages, err := h.service.List(r.Context(), userID)
	if err != nil {
		mapDomainError(w, h.logger, err, "list_scheduled")
		return
	}

	dtos := make([]ScheduledMessageDTO, 0, len(messages))
	for _, msg := range messages {
		dtos = append(dtos, toScheduledMessageDTO(msg))
	}
	respondJSON(w, h.logger, http.StatusOK, ListScheduledMessagesResponseDTO{Messages: dtos})
}

func (h *ScheduledHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	messageID, err := strconv.ParseInt(chi.URLParam(r, "messageID"), 10, 64)
	if err != nil || messageID <= 0 {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid message id")
		return
	}

	var req CancelMessageRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Missing required field: userId")
		return
	}
	if !sessionOwns(r, req.UserID) {
		respondError(w, h.logger, http.StatusForbidden, "Session does not match requested user")
		return
	}

	if err := h.service.Cancel(r.Context(), messageID, req.UserID); err != nil {
		mapDomainError(w, h.logger, err, "cancel_message")
		return
	}
	respondJSON(w, h.logger, http.StatusOK, SuccessResponseDTO{Success: true})
}
