package http

import (
	"time"

	"github.com/slackconnect/slackconnect/internal/domain"
	"github.com/slackconnect/slackconnect/internal/slackgw"
)

// Wire timestamps: scheduledTime and sentAt are epoch milliseconds (what the
// frontend sends and renders); createdAt is RFC3339.

type ScheduleMessageRequestDTO struct {
	UserID        string `json:"userId" validate:"required"`
	ChannelID     string `json:"channelId" validate:"required"`
	ChannelName   string `json:"channelName" validate:"required"`
	Message       string `json:"message" validate:"required"`
	ScheduledTime int64  `json:"scheduledTime" validate:"required,gt=0"`
}

type ScheduleMessageResponseDTO struct {
	Success       bool  `json:"success"`
	MessageID     int64 `json:"messageId"`
	ScheduledTime int64 `json:"scheduledTime"`
}

type ScheduledMessageDTO struct {
	ID            int64   `json:"id"`
	ChannelID     string  `json:"channelId"`
	ChannelName   string  `json:"channelName"`
	Message       string  `json:"message"`
	ScheduledTime int64   `json:"scheduledTime"`
	Status        string  `json:"status"`
	CreatedAt     string  `json:"createdAt"`
	SentAt        *int64  `json:"sentAt,omitempty"`
	ErrorMessage  *string `json:"errorMessage,omitempty"`
}

type ListScheduledMessagesResponseDTO struct {
	Messages []ScheduledMessageDTO `json:"messages"`
}

type CancelMessageRequestDTO struct {
	UserID string `json:"userId" validate:"required"`
}

type SendMessageRequestDTO struct {
	UserID    string `json:"userId" validate:"required"`
	ChannelID string `json:"channelId" validate:"required"`
	Message   string `json:"message" validate:"required"`
}

type SendMessageResponseDTO struct {
	Success   bool   `json:"success"`
	Timestamp string `json:"timestamp"`
	Channel   string `json:"channel"`
}

type ChannelsResponseDTO struct {
	Channels []slackgw.Channel `json:"channels"`
}

type AuthURLResponseDTO struct {
	AuthURL string `json:"authUrl"`
}

type AuthStatusResponseDTO struct {
	Authenticated bool   `json:"authenticated"`
	UserID        string `json:"userId,omitempty"`
	TeamID        string `json:"teamId,omitempty"`
	Expired       bool   `json:"expired"`
	Error         string `json:"error,omitempty"`
}

type SuccessResponseDTO struct {
	Success bool `json:"success"`
}

type ErrorResponseDTO struct {
	Error string `json:"error"`
}

func toScheduledMessageDTO(msg *domain.ScheduledMessage) ScheduledMessageDTO {
	dto := ScheduledMessageDTO{
		ID:            msg.ID,
		ChannelID:     msg.ChannelID,
		ChannelName:   msg.ChannelName,
		Message:       msg.Body,
		ScheduledTime: msg.ScheduledAt.UnixMilli(),
		Status:        string(msg.Status),
		CreatedAt:     msg.CreatedAt.UTC().Format(time.RFC3339),
	}
	if msg.SentAt.Valid {
		sentAt := msg.SentAt.Time.UnixMilli()
		dto.SentAt = &sentAt
	}
	if msg.ErrorDetail.Valid {
		detail := msg.ErrorDetail.String
		dto.ErrorMessage = &detail
	}
	return dto
}
