package postgres

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slackconnect/slackconnect/internal/domain"
)

func setupMessageRepoTest(t *testing.T) (pgxmock.PgxPoolIface, *PgMessageRepository) {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockPool.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return mockPool, NewPgMessageRepository(mockPool, logger)
}

var messageColumns = []string{
	"id", "user_id", "channel_id", "channel_name", "message",
	"scheduled_at", "status", "created_at", "sent_at", "error_message",
}

func TestPgMessageRepository_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		mockPool, repo := setupMessageRepoTest(t)
		msg := domain.NewScheduledMessage(7, "C100", "#general", "hello", time.Now().UTC().Add(time.Hour))

		mockPool.ExpectQuery(`INSERT INTO scheduled_messages`).
			WithArgs(int64(7), "C100", "#general", "hello",
				pgxmock.AnyArg(), domain.StatusPending, pgxmock.AnyArg()).
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(42)))

		id, err := repo.Create(ctx, msg)

		require.NoError(t, err)
		assert.Equal(t, int64(42), id)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("RejectsPastDueTime", func(t *testing.T) {
		mockPool, repo := setupMessageRepoTest(t)
		msg := domain.NewScheduledMessage(7, "C100", "#general", "hello", time.Now().UTC().Add(-time.Minute))

		_, err := repo.Create(ctx, msg)

		assert.ErrorIs(t, err, domain.ErrValidation)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("RejectsBlankFields", func(t *testing.T) {
		mockPool, repo := setupMessageRepoTest(t)
		msg := domain.NewScheduledMessage(7, "C100", "#general", "   ", time.Now().UTC().Add(time.Hour))

		_, err := repo.Create(ctx, msg)

		assert.ErrorIs(t, err, domain.ErrValidation)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestPgMessageRepository_ListDue(t *testing.T) {
	ctx := context.Background()
	mockPool, repo := setupMessageRepoTest(t)
	now := time.Now().UTC()
	createdAt := now.Add(-2 * time.Hour)

	rows := pgxmock.NewRows(messageColumns).
		AddRow(int64(1), int64(7), "C1", "#general", "first",
			now.Add(-time.Minute), domain.StatusPending, createdAt, nil, nil).
		AddRow(int64(2), int64(7), "C2", "#random", "second",
			now.Add(-time.Second), domain.StatusPending, createdAt, nil, nil)

	mockPool.ExpectQuery(`SELECT (.+) FROM scheduled_messages`).
		WithArgs(domain.StatusPending, pgxmock.AnyArg(), 100).
		WillReturnRows(rows)

	due, err := repo.ListDue(ctx, now, 100)

	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Equal(t, int64(1), due[0].ID)
	assert.Equal(t, int64(2), due[1].ID)
	assert.Equal(t, domain.StatusPending, due[0].Status)
	assert.False(t, due[0].SentAt.Valid)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestPgMessageRepository_ListActiveByOwner(t *testing.T) {
	ctx := context.Background()
	mockPool, repo := setupMessageRepoTest(t)
	now := time.Now().UTC()

	rows := pgxmock.NewRows(messageColumns).
		AddRow(int64(5), int64(7), "C1", "#general", "sent already",
			now.Add(-time.Hour), domain.StatusSent, now.Add(-2*time.Hour),
			now.Add(-time.Hour), nil).
		AddRow(int64(6), int64(7), "C1", "#general", "still pending",
			now.Add(time.Hour), domain.StatusPending, now.Add(-time.Minute), nil, nil)

	mockPool.ExpectQuery(`FROM scheduled_messages sm\s+JOIN users u`).
		WithArgs("U123", domain.StatusCancelled).
		WillReturnRows(rows)

	messages, err := repo.ListActiveByOwner(ctx, "U123")

	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, domain.StatusSent, messages[0].Status)
	assert.True(t, messages[0].SentAt.Valid)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestPgMessageRepository_MarkSent(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()

	t.Run("PendingRowTransitions", func(t *testing.T) {
		mockPool, repo := setupMessageRepoTest(t)
		mockPool.ExpectExec(`UPDATE scheduled_messages`).
			WithArgs(domain.StatusSent, pgxmock.AnyArg(), int64(1), domain.StatusPending).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		changed, err := repo.MarkSent(ctx, 1, now)

		require.NoError(t, err)
		assert.True(t, changed)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("NonPendingRowIsUntouched", func(t *testing.T) {
		mockPool, repo := setupMessageRepoTest(t)
		mockPool.ExpectExec(`UPDATE scheduled_messages`).
			WithArgs(domain.StatusSent, pgxmock.AnyArg(), int64(1), domain.StatusPending).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		changed, err := repo.MarkSent(ctx, 1, now)

		require.NoError(t, err)
		assert.False(t, changed)
	})

	t.Run("ExecErrorPropagates", func(t *testing.T) {
		mockPool, repo := setupMessageRepoTest(t)
		mockPool.ExpectExec(`UPDATE scheduled_messages`).
			WithArgs(domain.StatusSent, pgxmock.AnyArg(), int64(1), domain.StatusPending).
			WillReturnError(errors.New("connection refused"))

		changed, err := repo.MarkSent(ctx, 1, now)

		require.Error(t, err)
		assert.False(t, changed)
	})
}

func TestPgMessageRepository_MarkFailed(t *testing.T) {
	ctx := context.Background()
	mockPool, repo := setupMessageRepoTest(t)

	// The failure reason is stored exactly as given.
	mockPool.ExpectExec(`UPDATE scheduled_messages`).
		WithArgs(domain.StatusFailed, "channel_not_found", int64(9), domain.StatusPending).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	changed, err := repo.MarkFailed(ctx, 9, "channel_not_found")

	require.NoError(t, err)
	assert.True(t, changed)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestPgMessageRepository_Cancel(t *testing.T) {
	ctx := context.Background()

	t.Run("OwnedPendingRowCancels", func(t *testing.T) {
		mockPool, repo := setupMessageRepoTest(t)
		mockPool.ExpectExec(`UPDATE scheduled_messages`).
			WithArgs(domain.StatusCancelled, int64(3), domain.StatusPending, "U123").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		changed, err := repo.Cancel(ctx, 3, "U123")

		require.NoError(t, err)
		assert.True(t, changed)
	})

	t.Run("WrongOwnerOrTerminalStatusIsANoOp", func(t *testing.T) {
		// The store cannot tell which guard failed; both surface as zero rows.
		mockPool, repo := setupMessageRepoTest(t)
		mockPool.ExpectExec(`UPDATE scheduled_messages`).
			WithArgs(domain.StatusCancelled, int64(3), domain.StatusPending, "U999").
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		changed, err := repo.Cancel(ctx, 3, "U999")

		require.NoError(t, err)
		assert.False(t, changed)
	})
}
