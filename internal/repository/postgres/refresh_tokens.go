package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/ryu-qqq/AuthHub-sub012/internal/core/domain"
	"github.com/ryu-qqq/AuthHub-sub012/internal/core/port"
	"github.com/ryu-qqq/AuthHub-sub012/internal/repository"
)

const refreshTokensTable = "auth.refresh_tokens"

var refreshTokenColumns = []string{
	"id",
	"user_id",
	"token_value",
	"issued_at",
	"expires_at",
}

// RefreshTokenRepository is the durable tier of the refresh-token session store.
// One row per user: Save is an upsert keyed on user_id, so issuing a new token
// always supersedes the prior one rather than accumulating active sessions.
type RefreshTokenRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewRefreshTokenRepository constructs a repository backed by any executor that satisfies pgExecutor.
func NewRefreshTokenRepository(exec pgExecutor) *RefreshTokenRepository {
	return &RefreshTokenRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Save upserts the user's active refresh token record.
func (r *RefreshTokenRepository) Save(ctx context.Context, record domain.RefreshTokenRecord) error {
	if strings.TrimSpace(record.UserID) == "" {
		return fmt.Errorf("user id is required")
	}
	if strings.TrimSpace(record.TokenValue) == "" {
		return fmt.Errorf("token value is required")
	}

	sqlStmt, args, err := r.builder.Insert(refreshTokensTable).
		Columns(refreshTokenColumns...).
		Values(
			record.ID,
			record.UserID,
			record.TokenValue,
			record.IssuedAt,
			record.ExpiresAt,
		).
		Suffix(`ON CONFLICT (user_id) DO UPDATE SET
			id = EXCLUDED.id,
			token_value = EXCLUDED.token_value,
			issued_at = EXCLUDED.issued_at,
			expires_at = EXCLUDED.expires_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert refresh token sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, sqlStmt, args...); err != nil {
		return storeErr("upsert refresh token", err)
	}

	return nil
}

// FindByUserID retrieves the active refresh token record for a user.
func (r *RefreshTokenRepository) FindByUserID(ctx context.Context, userID string) (*domain.RefreshTokenRecord, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("user id is required")
	}
	return r.findOne(ctx, squirrel.Eq{"user_id": userID})
}

// FindByToken retrieves the record holding the supplied token value.
func (r *RefreshTokenRepository) FindByToken(ctx context.Context, token string) (*domain.RefreshTokenRecord, error) {
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("token is required")
	}
	return r.findOne(ctx, squirrel.Eq{"token_value": token})
}

// DeleteByUserID removes the user's refresh token record.
func (r *RefreshTokenRepository) DeleteByUserID(ctx context.Context, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("user id is required")
	}
	return r.deleteWhere(ctx, squirrel.Eq{"user_id": userID})
}

// DeleteByToken removes the record holding the supplied token value.
func (r *RefreshTokenRepository) DeleteByToken(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return fmt.Errorf("token is required")
	}
	return r.deleteWhere(ctx, squirrel.Eq{"token_value": token})
}

func (r *RefreshTokenRepository) findOne(ctx context.Context, pred squirrel.Eq) (*domain.RefreshTokenRecord, error) {
	sqlStmt, args, err := r.builder.Select(refreshTokenColumns...).
		From(refreshTokensTable).
		Where(pred).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select refresh token sql: %w", err)
	}

	var record domain.RefreshTokenRecord
	row := r.exec.QueryRow(ctx, sqlStmt, args...)
	if err := row.Scan(
		&record.ID,
		&record.UserID,
		&record.TokenValue,
		&record.IssuedAt,
		&record.ExpiresAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, storeErr("select refresh token", err)
	}

	return &record, nil
}

func (r *RefreshTokenRepository) deleteWhere(ctx context.Context, pred squirrel.Eq) error {
	sqlStmt, args, err := r.builder.Delete(refreshTokensTable).
		Where(pred).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete refresh token sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, sqlStmt, args...); err != nil {
		return storeErr("delete refresh token", err)
	}

	return nil
}

var _ port.RefreshTokenStore = (*RefreshTokenRepository)(nil)
