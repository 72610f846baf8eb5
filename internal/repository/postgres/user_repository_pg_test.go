package postgres

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slackconnect/slackconnect/internal/domain"
	"github.com/slackconnect/slackconnect/internal/platform/crypto"
)

func setupUserRepoTest(t *testing.T) (pgxmock.PgxPoolIface, *crypto.TokenCipher, *PgUserRepository) {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockPool.Close)

	cipher, err := crypto.NewTokenCipher(strings.Repeat("ab", 32))
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return mockPool, cipher, NewPgUserRepository(mockPool, cipher, logger)
}

var userColumns = []string{
	"id", "slack_user_id", "team_id", "access_token", "refresh_token",
	"expires_at", "created_at", "updated_at",
}

func TestPgUserRepository_Upsert(t *testing.T) {
	ctx := context.Background()
	mockPool, _, repo := setupUserRepoTest(t)

	user := &domain.User{
		SlackUserID: "U123",
		TeamID:      "T456",
		AccessToken: "xoxp-plain",
	}

	// Tokens are sealed before they hit the wire, so only their shape can be
	// matched here.
	mockPool.ExpectQuery(`INSERT INTO users`).
		WithArgs("U123", "T456", pgxmock.AnyArg(), pgxmock.AnyArg(), sql.NullTime{}).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(7)))

	id, err := repo.Upsert(ctx, user)

	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestPgUserRepository_GetBySlackID(t *testing.T) {
	ctx := context.Background()

	t.Run("OpensSealedTokens", func(t *testing.T) {
		mockPool, cipher, repo := setupUserRepoTest(t)
		now := time.Now().UTC()

		sealedAccess, err := cipher.Seal("xoxp-plain")
		require.NoError(t, err)
		sealedRefresh, err := cipher.Seal("xoxe-refresh")
		require.NoError(t, err)

		rows := pgxmock.NewRows(userColumns).AddRow(
			int64(7), "U123", "T456", sealedAccess,
			sql.NullString{String: sealedRefresh, Valid: true},
			nil, now, now,
		)
		mockPool.ExpectQuery(`SELECT (.+) FROM users`).
			WithArgs("U123").
			WillReturnRows(rows)

		user, err := repo.GetBySlackID(ctx, "U123")

		require.NoError(t, err)
		assert.Equal(t, "xoxp-plain", user.AccessToken)
		require.True(t, user.RefreshToken.Valid)
		assert.Equal(t, "xoxe-refresh", user.RefreshToken.String)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("UnknownUser", func(t *testing.T) {
		mockPool, _, repo := setupUserRepoTest(t)
		mockPool.ExpectQuery(`SELECT (.+) FROM users`).
			WithArgs("U999").
			WillReturnError(pgx.ErrNoRows)

		_, err := repo.GetBySlackID(ctx, "U999")

		assert.ErrorIs(t, err, domain.ErrUserNotFound)
	})

	t.Run("CorruptedCiphertext", func(t *testing.T) {
		mockPool, _, repo := setupUserRepoTest(t)
		now := time.Now().UTC()

		rows := pgxmock.NewRows(userColumns).AddRow(
			int64(7), "U123", "T456", "not-a-sealed-token",
			sql.NullString{}, nil, now, now,
		)
		mockPool.ExpectQuery(`SELECT (.+) FROM users`).
			WithArgs("U123").
			WillReturnRows(rows)

		_, err := repo.GetBySlackID(ctx, "U123")

		assert.Error(t, err)
	})
}

func TestPgUserRepository_GetByID(t *testing.T) {
	ctx := context.Background()
	mockPool, cipher, repo := setupUserRepoTest(t)
	now := time.Now().UTC()

	sealedAccess, err := cipher.Seal("xoxp-plain")
	require.NoError(t, err)

	rows := pgxmock.NewRows(userColumns).AddRow(
		int64(7), "U123", "T456", sealedAccess, sql.NullString{}, nil, now, now,
	)
	mockPool.ExpectQuery(`SELECT (.+) FROM users`).
		WithArgs(int64(7)).
		WillReturnRows(rows)

	user, err := repo.GetByID(ctx, 7)

	require.NoError(t, err)
	assert.Equal(t, int64(7), user.ID)
	assert.Equal(t, "U123", user.SlackUserID)
	assert.False(t, user.RefreshToken.Valid)
}
