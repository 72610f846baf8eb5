package scheduling

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/slackconnect/slackconnect/internal/domain"
)

// Service validates and accepts schedule requests and cancellations. All
// state transitions happen in the store; this layer only resolves owners and
// enforces request-level invariants.
type Service struct {
	messages domain.MessageRepository
	users    domain.UserRepository
	logger   *slog.Logger
}

func NewService(messages domain.MessageRepository, users domain.UserRepository, logger *slog.Logger) *Service {
	return &Service{messages: messages, users: users, logger: logger.With("component", "scheduling_service")}
}

// ScheduleRequest carries a validated-by-the-caller schedule request. The
// service re-validates everything.
type ScheduleRequest struct {
	SlackUserID string
	ChannelID   string
	ChannelName string
	Body        string
	ScheduledAt time.Time
}

// Schedule creates a pending message and returns its id along with the
// accepted due time.
func (s *Service) Schedule(ctx context.Context, req ScheduleRequest) (int64, time.Time, error) {
	if strings.TrimSpace(req.SlackUserID) == "" || strings.TrimSpace(req.ChannelID) == "" ||
		strings.TrimSpace(req.ChannelName) == "" || strings.TrimSpace(req.Body) == "" {
		return 0, time.Time{}, fmt.Errorf("%w: missing required fields", domain.ErrValidation)
	}
	if !req.ScheduledAt.After(time.Now().UTC()) {
		return 0, time.Time{}, fmt.Errorf("%w: scheduled time must be in the future", domain.ErrValidation)
	}

	owner, err := s.users.GetBySlackID(ctx, req.SlackUserID)
	if err != nil {
		return 0, time.Time{}, err
	}

	msg := domain.NewScheduledMessage(owner.ID, req.ChannelID, req.ChannelName, req.Body, req.ScheduledAt)
	id, err := s.messages.Create(ctx, msg)
	if err != nil {
		return 0, time.Time{}, err
	}

	s.logger.InfoContext(ctx, "Message scheduled", "message_id", id, "slack_user_id", req.SlackUserID, "scheduled_at", msg.ScheduledAt)
	return id, msg.ScheduledAt, nil
}

// List returns the owner's non-cancelled messages, due time ascending.
func (s *Service) List(ctx context.Context, slackUserID string) ([]*domain.ScheduledMessage, error) {
	return s.messages.ListActiveByOwner(ctx, slackUserID)
}

// Cancel cancels a pending message owned by slackUserID. A no-op conditional
// update surfaces as ErrNotCancellable without revealing which condition
// failed.
func (s *Service) Cancel(ctx context.Context, id int64, slackUserID string) error {
	changed, err := s.messages.Cancel(ctx, id, slackUserID)
	if err != nil {
		return err
	}
	if !changed {
		return domain.ErrNotCancellable
	}
	s.logger.InfoContext(ctx, "Message cancelled", "message_id", id, "slack_user_id", slackUserID)
	return nil
}
