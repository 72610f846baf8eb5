package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/slackconnect/slackconnect/internal/domain"
	"github.com/slackconnect/slackconnect/internal/platform/crypto"
)

// PgUserRepository stores OAuth credentials. Access and refresh tokens are
// sealed with the TokenCipher on write and opened on read; callers only ever
// see plaintext tokens.
type PgUserRepository struct {
	db     Querier
	cipher *crypto.TokenCipher
	logger *slog.Logger
}

func NewPgUserRepository(db Querier, cipher *crypto.TokenCipher, logger *slog.Logger) *PgUserRepository {
	return &PgUserRepository{db: db, cipher: cipher, logger: logger.With("component", "user_repository_pg")}
}

var _ domain.UserRepository = (*PgUserRepository)(nil)

func (r *PgUserRepository) Upsert(ctx context.Context, user *domain.User) (int64, error) {
	sealedAccess, err := r.cipher.Seal(user.AccessToken)
	if err != nil {
		return 0, fmt.Errorf("sealing access token: %w", err)
	}
	sealedRefresh := sql.NullString{}
	if user.RefreshToken.Valid {
		s, err := r.cipher.Seal(user.RefreshToken.String)
		if err != nil {
			return 0, fmt.Errorf("sealing refresh token: %w", err)
		}
		sealedRefresh = sql.NullString{String: s, Valid: true}
	}

	query := `
		INSERT INTO users (slack_user_id, team_id, access_token, refresh_token, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
		ON CONFLICT (slack_user_id) DO UPDATE
		SET team_id = EXCLUDED.team_id,
		    access_token = EXCLUDED.access_token,
		    refresh_token = EXCLUDED.refresh_token,
		    expires_at = EXCLUDED.expires_at,
		    updated_at = now()
		RETURNING id
	`
	var id int64
	err = r.db.QueryRow(ctx, query,
		user.SlackUserID, user.TeamID, sealedAccess, sealedRefresh, user.ExpiresAt,
	).Scan(&id)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error upserting user", "error", err, "slack_user_id", user.SlackUserID)
		return 0, err
	}
	return id, nil
}

func (r *PgUserRepository) GetBySlackID(ctx context.Context, slackUserID string) (*domain.User, error) {
	query := userSelect + ` WHERE slack_user_id = $1`
	return r.scanUser(ctx, r.db.QueryRow(ctx, query, slackUserID))
}

func (r *PgUserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	query := userSelect + ` WHERE id = $1`
	return r.scanUser(ctx, r.db.QueryRow(ctx, query, id))
}

const userSelect = `
	SELECT id, slack_user_id, team_id, access_token, refresh_token, expires_at, created_at, updated_at
	FROM users`

func (r *PgUserRepository) scanUser(ctx context.Context, row pgx.Row) (*domain.User, error) {
	user := &domain.User{}
	var sealedAccess string
	var sealedRefresh sql.NullString
	var expiresAt sql.NullTime
	var createdAt, updatedAt time.Time

	err := row.Scan(
		&user.ID, &user.SlackUserID, &user.TeamID,
		&sealedAccess, &sealedRefresh, &expiresAt, &createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		r.logger.ErrorContext(ctx, "Error scanning user row", "error", err)
		return nil, err
	}

	user.AccessToken, err = r.cipher.Open(sealedAccess)
	if err != nil {
		return nil, fmt.Errorf("opening access token: %w", err)
	}
	if sealedRefresh.Valid {
		refresh, err := r.cipher.Open(sealedRefresh.String)
		if err != nil {
			return nil, fmt.Errorf("opening refresh token: %w", err)
		}
		user.RefreshToken = sql.NullString{String: refresh, Valid: true}
	}
	user.ExpiresAt = expiresAt
	user.CreatedAt = createdAt
	user.UpdatedAt = updatedAt
	return user, nil
}
