package domain

import (
	"database/sql"
	"time"
)

// MessageStatus is the lifecycle state of a scheduled message.
// Transitions are one-way: pending -> sent | failed | cancelled.
type MessageStatus string

const (
	StatusPending   MessageStatus = "pending"
	StatusSent      MessageStatus = "sent"
	StatusFailed    MessageStatus = "failed"
	StatusCancelled MessageStatus = "cancelled"
)

// ScheduledMessage is a message queued for future delivery to a Slack channel.
// ChannelName is a denormalized display cache captured at scheduling time;
// ChannelID is the authoritative destination.
type ScheduledMessage struct {
	ID          int64
	UserID      int64
	ChannelID   string
	ChannelName string
	Body        string
	ScheduledAt time.Time
	Status      MessageStatus
	CreatedAt   time.Time
	SentAt      sql.NullTime   // set exactly once, on the transition to sent
	ErrorDetail sql.NullString // set exactly once, on the transition to failed
}

// NewScheduledMessage builds a pending message. Validation of the due time
// happens at the API layer; the repository re-checks on insert.
func NewScheduledMessage(userID int64, channelID, channelName, body string, scheduledAt time.Time) *ScheduledMessage {
	return &ScheduledMessage{
		UserID:      userID,
		ChannelID:   channelID,
		ChannelName: channelName,
		Body:        body,
		ScheduledAt: scheduledAt.UTC(),
		Status:      StatusPending,
		CreatedAt:   time.Now().UTC(),
	}
}
