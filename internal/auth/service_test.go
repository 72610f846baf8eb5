package auth

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slackconnect/slackconnect/internal/domain"
	"github.com/slackconnect/slackconnect/internal/slackgw"
)

type stubUserRepository struct {
	upserted   *domain.User
	upsertErr  error
	bySlackID  *domain.User
	bySlackErr error
}

func (s *stubUserRepository) Upsert(_ context.Context, user *domain.User) (int64, error) {
	s.upserted = user
	return 1, s.upsertErr
}

func (s *stubUserRepository) GetBySlackID(context.Context, string) (*domain.User, error) {
	return s.bySlackID, s.bySlackErr
}

func (s *stubUserRepository) GetByID(context.Context, int64) (*domain.User, error) {
	return nil, domain.ErrUserNotFound
}

func setupAuthTest(t *testing.T) (*Service, *stubUserRepository, *slackgw.MockGateway, *StateStore) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	users := &stubUserRepository{}
	gateway := &slackgw.MockGateway{}
	states := NewStateStore(time.Minute)
	sessions := NewSessionManager("test-secret", time.Hour)
	svc := NewService(Config{
		ClientID:    "test-client",
		RedirectURI: "https://api.example.com/auth/slack/callback",
		FrontendURL: "http://localhost:3000",
	}, states, users, gateway, sessions, logger)
	return svc, users, gateway, states
}

func callbackParams(t *testing.T, redirect string) url.Values {
	t.Helper()
	parsed, err := url.Parse(redirect)
	require.NoError(t, err)
	return parsed.Query()
}

func TestService_BeginLogin(t *testing.T) {
	svc, _, _, states := setupAuthTest(t)

	authURL, err := svc.BeginLogin()

	require.NoError(t, err)
	parsed, err := url.Parse(authURL)
	require.NoError(t, err)
	assert.Equal(t, "slack.com", parsed.Host)
	assert.Equal(t, "test-client", parsed.Query().Get("client_id"))
	assert.Contains(t, parsed.Query().Get("scope"), "chat:write")

	// The state in the URL must be consumable exactly once.
	state := parsed.Query().Get("state")
	require.NotEmpty(t, state)
	assert.True(t, states.Consume(state))
	assert.False(t, states.Consume(state))
}

func TestService_HandleCallback(t *testing.T) {
	ctx := context.Background()

	t.Run("SuccessUpsertsUserAndMintsSession", func(t *testing.T) {
		svc, users, gateway, states := setupAuthTest(t)
		states.Put("state-1")
		gateway.ExchangeCodeFunc = func(ctx context.Context, code string) (*slackgw.OAuthGrant, error) {
			assert.Equal(t, "code-1", code)
			return &slackgw.OAuthGrant{
				SlackUserID: "U123",
				TeamID:      "T456",
				AccessToken: "xoxp-token",
				ExpiresIn:   3600,
			}, nil
		}

		params := callbackParams(t, svc.HandleCallback(ctx, "code-1", "state-1", ""))

		assert.Equal(t, "true", params.Get("success"))
		assert.Equal(t, "U123", params.Get("user_id"))
		assert.NotEmpty(t, params.Get("token"))

		require.NotNil(t, users.upserted)
		assert.Equal(t, "U123", users.upserted.SlackUserID)
		assert.True(t, users.upserted.ExpiresAt.Valid)

		subject, err := svc.VerifySession(params.Get("token"))
		require.NoError(t, err)
		assert.Equal(t, "U123", subject)
	})

	t.Run("ProviderErrorIsPassedThrough", func(t *testing.T) {
		svc, users, _, _ := setupAuthTest(t)

		params := callbackParams(t, svc.HandleCallback(ctx, "", "", "access_denied"))

		assert.Equal(t, "access_denied", params.Get("error"))
		assert.Nil(t, users.upserted)
	})

	t.Run("MissingCodeOrState", func(t *testing.T) {
		svc, _, _, _ := setupAuthTest(t)

		params := callbackParams(t, svc.HandleCallback(ctx, "code-1", "", ""))

		assert.Equal(t, "missing_code_or_state", params.Get("error"))
	})

	t.Run("UnknownState", func(t *testing.T) {
		svc, users, _, _ := setupAuthTest(t)

		params := callbackParams(t, svc.HandleCallback(ctx, "code-1", "bogus", ""))

		assert.Equal(t, "invalid_state", params.Get("error"))
		assert.Nil(t, users.upserted)
	})

	t.Run("StateCannotBeReplayed", func(t *testing.T) {
		svc, _, gateway, states := setupAuthTest(t)
		states.Put("state-1")
		gateway.ExchangeCodeFunc = func(context.Context, string) (*slackgw.OAuthGrant, error) {
			return &slackgw.OAuthGrant{SlackUserID: "U123", TeamID: "T456", AccessToken: "xoxp-token"}, nil
		}

		first := callbackParams(t, svc.HandleCallback(ctx, "code-1", "state-1", ""))
		second := callbackParams(t, svc.HandleCallback(ctx, "code-1", "state-1", ""))

		assert.Equal(t, "true", first.Get("success"))
		assert.Equal(t, "invalid_state", second.Get("error"))
	})

	t.Run("ExchangeFailure", func(t *testing.T) {
		svc, users, gateway, states := setupAuthTest(t)
		states.Put("state-1")
		gateway.ExchangeCodeFunc = func(context.Context, string) (*slackgw.OAuthGrant, error) {
			return nil, errors.New("invalid_code")
		}

		params := callbackParams(t, svc.HandleCallback(ctx, "code-1", "state-1", ""))

		assert.Equal(t, "token_exchange_failed", params.Get("error"))
		assert.Nil(t, users.upserted)
	})

	t.Run("RedirectTargetsFrontend", func(t *testing.T) {
		svc, _, _, _ := setupAuthTest(t)

		redirect := svc.HandleCallback(ctx, "", "", "access_denied")

		assert.True(t, strings.HasPrefix(redirect, "http://localhost:3000?"))
	})
}

func TestService_Status(t *testing.T) {
	ctx := context.Background()

	t.Run("ActiveCredential", func(t *testing.T) {
		svc, users, _, _ := setupAuthTest(t)
		users.bySlackID = &domain.User{ID: 1, SlackUserID: "U123", TeamID: "T456", AccessToken: "xoxp-token"}

		status, err := svc.Status(ctx, "U123")

		require.NoError(t, err)
		assert.True(t, status.Authenticated)
		assert.False(t, status.Expired)
		assert.Equal(t, "T456", status.TeamID)
	})

	t.Run("ExpiredCredential", func(t *testing.T) {
		svc, users, _, _ := setupAuthTest(t)
		users.bySlackID = &domain.User{
			ID: 1, SlackUserID: "U123", AccessToken: "xoxp-token",
			ExpiresAt: sql.NullTime{Time: time.Now().UTC().Add(-time.Hour), Valid: true},
		}

		status, err := svc.Status(ctx, "U123")

		require.NoError(t, err)
		assert.False(t, status.Authenticated)
		assert.True(t, status.Expired)
	})

	t.Run("UnknownUser", func(t *testing.T) {
		svc, users, _, _ := setupAuthTest(t)
		users.bySlackErr = domain.ErrUserNotFound

		_, err := svc.Status(ctx, "U404")

		assert.ErrorIs(t, err, domain.ErrUserNotFound)
	})
}
