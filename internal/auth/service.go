package auth

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/slackconnect/slackconnect/internal/domain"
	"github.com/slackconnect/slackconnect/internal/slackgw"
)

const slackAuthorizeURL = "https://slack.com/oauth/v2/authorize"

// oauthScopes matches what the frontend needs: reading channel/DM lists and
// posting messages.
var oauthScopes = []string{
	"channels:read",
	"chat:write",
	"groups:read",
	"im:read",
	"mpim:read",
	"users:read",
}

// Config carries the OAuth client settings and the frontend redirect target.
type Config struct {
	ClientID    string
	RedirectURI string
	FrontendURL string
}

// Service runs the OAuth handshake: issuing authorize URLs with one-shot
// state nonces, exchanging callback codes for credentials, and reporting
// authentication status.
type Service struct {
	cfg      Config
	states   *StateStore
	users    domain.UserRepository
	gateway  slackgw.Gateway
	sessions *SessionManager
	logger   *slog.Logger
}

func NewService(cfg Config, states *StateStore, users domain.UserRepository, gateway slackgw.Gateway, sessions *SessionManager, logger *slog.Logger) *Service {
	return &Service{
		cfg:      cfg,
		states:   states,
		users:    users,
		gateway:  gateway,
		sessions: sessions,
		logger:   logger.With("component", "auth_service"),
	}
}

// BeginLogin returns the Slack authorize URL for the browser to follow.
func (s *Service) BeginLogin() (string, error) {
	if s.cfg.ClientID == "" || s.cfg.RedirectURI == "" {
		return "", errors.New("missing Slack OAuth configuration: client id and redirect URI are required")
	}

	state := uuid.NewString()
	s.states.Put(state)

	params := url.Values{}
	params.Set("client_id", s.cfg.ClientID)
	params.Set("scope", strings.Join(oauthScopes, ","))
	params.Set("redirect_uri", s.cfg.RedirectURI)
	params.Set("state", state)
	params.Set("response_type", "code")
	return slackAuthorizeURL + "?" + params.Encode(), nil
}

// HandleCallback finishes the OAuth flow. It always returns a frontend URL
// to redirect the browser to; OAuth failures become error query params
// rather than HTTP errors, matching what the frontend expects.
func (s *Service) HandleCallback(ctx context.Context, code, state, providerError string) string {
	if providerError != "" {
		s.logger.WarnContext(ctx, "OAuth provider returned an error", "error", providerError)
		return s.frontendRedirect(url.Values{"error": {providerError}})
	}
	if code == "" || state == "" {
		return s.frontendRedirect(url.Values{"error": {"missing_code_or_state"}})
	}
	if !s.states.Consume(state) {
		s.logger.WarnContext(ctx, "OAuth callback with unknown or expired state")
		return s.frontendRedirect(url.Values{"error": {"invalid_state"}})
	}

	grant, err := s.gateway.ExchangeCode(ctx, code)
	if err != nil {
		s.logger.ErrorContext(ctx, "OAuth code exchange failed", "error", err)
		return s.frontendRedirect(url.Values{"error": {"token_exchange_failed"}})
	}

	user := &domain.User{
		SlackUserID: grant.SlackUserID,
		TeamID:      grant.TeamID,
		AccessToken: grant.AccessToken,
	}
	if grant.RefreshToken != "" {
		user.RefreshToken = sql.NullString{String: grant.RefreshToken, Valid: true}
	}
	if grant.ExpiresIn > 0 {
		user.ExpiresAt = sql.NullTime{
			Time:  time.Now().UTC().Add(time.Duration(grant.ExpiresIn) * time.Second),
			Valid: true,
		}
	}

	if _, err := s.users.Upsert(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "Failed to persist OAuth credential", "error", err, "slack_user_id", grant.SlackUserID)
		return s.frontendRedirect(url.Values{"error": {"callback_failed"}})
	}

	session, err := s.sessions.Mint(grant.SlackUserID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to mint session token", "error", err)
		return s.frontendRedirect(url.Values{"error": {"callback_failed"}})
	}

	s.logger.InfoContext(ctx, "OAuth flow completed", "slack_user_id", grant.SlackUserID, "team_id", grant.TeamID)
	return s.frontendRedirect(url.Values{
		"success": {"true"},
		"user_id": {grant.SlackUserID},
		"token":   {session},
	})
}

func (s *Service) frontendRedirect(params url.Values) string {
	return s.cfg.FrontendURL + "?" + params.Encode()
}

// StatusResult reports whether a user's stored credential is usable.
type StatusResult struct {
	Authenticated bool
	SlackUserID   string
	TeamID        string
	Expired       bool
}

// Status looks up the credential for slackUserID. Returns ErrUserNotFound
// when the user never completed the OAuth flow.
func (s *Service) Status(ctx context.Context, slackUserID string) (*StatusResult, error) {
	user, err := s.users.GetBySlackID(ctx, slackUserID)
	if err != nil {
		return nil, err
	}
	expired := user.TokenExpired(time.Now().UTC())
	return &StatusResult{
		Authenticated: !expired,
		SlackUserID:   user.SlackUserID,
		TeamID:        user.TeamID,
		Expired:       expired,
	}, nil
}

// VerifySession exposes session verification to the HTTP middleware.
func (s *Service) VerifySession(token string) (string, error) {
	return s.sessions.Verify(token)
}
