package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/slackconnect/slackconnect/internal/domain"
)

type PgMessageRepository struct {
	db     Querier
	logger *slog.Logger
}

func NewPgMessageRepository(db Querier, logger *slog.Logger) *PgMessageRepository {
	return &PgMessageRepository{db: db, logger: logger.With("component", "message_repository_pg")}
}

var _ domain.MessageRepository = (*PgMessageRepository)(nil)

func (r *PgMessageRepository) Create(ctx context.Context, msg *domain.ScheduledMessage) (int64, error) {
	// The API layer validates first; this re-check keeps a bad caller from
	// ever inserting an undeliverable row.
	if msg.UserID == 0 || strings.TrimSpace(msg.ChannelID) == "" ||
		strings.TrimSpace(msg.ChannelName) == "" || strings.TrimSpace(msg.Body) == "" {
		return 0, fmt.Errorf("%w: missing required fields", domain.ErrValidation)
	}
	if !msg.ScheduledAt.After(time.Now().UTC()) {
		return 0, fmt.Errorf("%w: scheduled time must be in the future", domain.ErrValidation)
	}

	query := `
		INSERT INTO scheduled_messages (user_id, channel_id, channel_name, message, scheduled_at, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	var id int64
	err := r.db.QueryRow(ctx, query,
		msg.UserID, msg.ChannelID, msg.ChannelName, msg.Body,
		msg.ScheduledAt.UTC(), domain.StatusPending, time.Now().UTC(),
	).Scan(&id)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error creating scheduled message", "error", err, "user_id", msg.UserID)
		return 0, err
	}
	return id, nil
}

func (r *PgMessageRepository) ListActiveByOwner(ctx context.Context, slackUserID string) ([]*domain.ScheduledMessage, error) {
	query := `
		SELECT sm.id, sm.user_id, sm.channel_id, sm.channel_name, sm.message,
		       sm.scheduled_at, sm.status, sm.created_at, sm.sent_at, sm.error_message
		FROM scheduled_messages sm
		JOIN users u ON sm.user_id = u.id
		WHERE u.slack_user_id = $1 AND sm.status != $2
		ORDER BY sm.scheduled_at ASC, sm.id ASC
	`
	rows, err := r.db.Query(ctx, query, slackUserID, domain.StatusCancelled)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error listing scheduled messages", "error", err, "slack_user_id", slackUserID)
		return nil, err
	}
	defer rows.Close()
	return scanMessages(rows)
}

func (r *PgMessageRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]*domain.ScheduledMessage, error) {
	query := `
		SELECT id, user_id, channel_id, channel_name, message,
		       scheduled_at, status, created_at, sent_at, error_message
		FROM scheduled_messages
		WHERE status = $1 AND scheduled_at <= $2
		ORDER BY scheduled_at ASC, id ASC
		LIMIT $3
	`
	rows, err := r.db.Query(ctx, query, domain.StatusPending, now.UTC(), limit)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error listing due messages", "error", err)
		return nil, err
	}
	defer rows.Close()
	return scanMessages(rows)
}

// MarkSent is a conditional single-row write: the status guard in the WHERE
// clause is what keeps a concurrently cancelled message from being
// resurrected into sent.
func (r *PgMessageRepository) MarkSent(ctx context.Context, id int64, sentAt time.Time) (bool, error) {
	query := `
		UPDATE scheduled_messages
		SET status = $1, sent_at = $2
		WHERE id = $3 AND status = $4
	`
	tag, err := r.db.Exec(ctx, query, domain.StatusSent, sentAt.UTC(), id, domain.StatusPending)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error marking message sent", "error", err, "message_id", id)
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *PgMessageRepository) MarkFailed(ctx context.Context, id int64, errorDetail string) (bool, error) {
	query := `
		UPDATE scheduled_messages
		SET status = $1, error_message = $2
		WHERE id = $3 AND status = $4
	`
	tag, err := r.db.Exec(ctx, query, domain.StatusFailed, errorDetail, id, domain.StatusPending)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error marking message failed", "error", err, "message_id", id)
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// Cancel binds the owner inside the same conditional write, so a caller can
// neither cancel another user's message nor pull one out of a terminal state.
func (r *PgMessageRepository) Cancel(ctx context.Context, id int64, slackUserID string) (bool, error) {
	query := `
		UPDATE scheduled_messages
		SET status = $1
		WHERE id = $2
		  AND status = $3
		  AND user_id = (SELECT id FROM users WHERE slack_user_id = $4)
	`
	tag, err := r.db.Exec(ctx, query, domain.StatusCancelled, id, domain.StatusPending, slackUserID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error cancelling message", "error", err, "message_id", id)
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func scanMessages(rows pgx.Rows) ([]*domain.ScheduledMessage, error) {
	var messages []*domain.ScheduledMessage
	for rows.Next() {
		msg := &domain.ScheduledMessage{}
		if err := rows.Scan(
			&msg.ID, &msg.UserID, &msg.ChannelID, &msg.ChannelName, &msg.Body,
			&msg.ScheduledAt, &msg.Status, &msg.CreatedAt, &msg.SentAt, &msg.ErrorDetail,
		); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return messages, nil
}
