package domain

import (
	"context"
	"time"
)

// MessageRepository is the durable store for scheduled messages. All mutating
// operations are single-row conditional writes: the status check is embedded
// in the UPDATE itself, never done as a separate read. The boolean results
// report whether a row actually changed, which is how the cancel/dispatch
// race resolves without locking.
type MessageRepository interface {
	// Create inserts a pending message and returns its id. It re-validates
	// field presence and the future due time as defense in depth.
	Create(ctx context.Context, msg *ScheduledMessage) (int64, error)

	// ListActiveByOwner returns the owner's messages ordered by due time
	// ascending, excluding cancelled rows.
	ListActiveByOwner(ctx context.Context, slackUserID string) ([]*ScheduledMessage, error)

	// ListDue returns pending messages with scheduled_at <= now across all
	// owners, ordered by (scheduled_at, id) ascending, at most limit rows.
	ListDue(ctx context.Context, now time.Time, limit int) ([]*ScheduledMessage, error)

	// MarkSent transitions pending -> sent. Returns false if the message was
	// no longer pending (e.g. cancelled while the delivery was in flight).
	MarkSent(ctx context.Context, id int64, sentAt time.Time) (bool, error)

	// MarkFailed transitions pending -> failed, recording the reason.
	MarkFailed(ctx context.Context, id int64, errorDetail string) (bool, error)

	// Cancel transitions pending -> cancelled, but only for the given owner.
	Cancel(ctx context.Context, id int64, slackUserID string) (bool, error)
}

// UserRepository stores OAuth credentials keyed by Slack user id.
type UserRepository interface {
	// Upsert inserts or replaces the credential row for user.SlackUserID and
	// returns the internal id.
	Upsert(ctx context.Context, user *User) (int64, error)

	// GetBySlackID returns ErrUserNotFound when no row matches.
	GetBySlackID(ctx context.Context, slackUserID string) (*User, error)

	// GetByID returns ErrUserNotFound when no row matches.
	GetByID(ctx context.Context, id int64) (*User, error)
}
