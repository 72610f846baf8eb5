package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/slackconnect/slackconnect/internal/domain"
	"github.com/slackconnect/slackconnect/internal/slackgw"
)

// Service handles immediate sends and channel listing on behalf of a user.
type Service struct {
	users   domain.UserRepository
	gateway slackgw.Gateway
	logger  *slog.Logger
}

func NewService(users domain.UserRepository, gateway slackgw.Gateway, logger *slog.Logger) *Service {
	return &Service{users: users, gateway: gateway, logger: logger.With("component", "messaging_service")}
}

// SendNow posts a message immediately using the owner's credential.
func (s *Service) SendNow(ctx context.Context, slackUserID, channelID, text string) (*slackgw.PostResult, error) {
	if strings.TrimSpace(slackUserID) == "" || strings.TrimSpace(channelID) == "" || strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: missing required fields", domain.ErrValidation)
	}

	owner, err := s.users.GetBySlackID(ctx, slackUserID)
	if err != nil {
		return nil, err
	}

	res, err := s.gateway.PostMessage(ctx, owner.AccessToken, channelID, text)
	if err != nil {
		s.logger.WarnContext(ctx, "Immediate send failed", "slack_user_id", slackUserID, "channel_id", channelID, "error", err)
		return nil, err
	}
	s.logger.InfoContext(ctx, "Message sent", "slack_user_id", slackUserID, "channel_id", channelID)
	return res, nil
}

// Channels lists the destinations visible to the user's credential.
func (s *Service) Channels(ctx context.Context, slackUserID string) ([]slackgw.Channel, error) {
	owner, err := s.users.GetBySlackID(ctx, slackUserID)
	if err != nil {
		return nil, err
	}
	return s.gateway.ListChannels(ctx, owner.AccessToken)
}
