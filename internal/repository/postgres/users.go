package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/ryu-qqq/AuthHub-sub012/internal/repository"
)

const usersTable = "auth.users"

// UserCredentialRepository reads login credentials and role assignments. The
// runtime never writes this table; account lifecycle belongs to the surrounding
// platform.
type UserCredentialRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewUserCredentialRepository constructs a repository backed by any executor that satisfies pgExecutor.
func NewUserCredentialRepository(exec pgExecutor) *UserCredentialRepository {
	return &UserCredentialRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Lookup resolves an identifier to the stored user id, password hash, and roles.
// Disabled accounts are treated as absent.
func (r *UserCredentialRepository) Lookup(ctx context.Context, identifier string) (string, string, []string, error) {
	if strings.TrimSpace(identifier) == "" {
		return "", "", nil, fmt.Errorf("identifier is required")
	}

	sqlStmt, args, err := r.builder.Select("id", "password_hash", "roles").
		From(usersTable).
		Where(squirrel.Eq{"identifier": identifier, "enabled": true}).
		Limit(1).
		ToSql()
	if err != nil {
		return "", "", nil, fmt.Errorf("build select user sql: %w", err)
	}

	var (
		userID string
		hash   string
		roles  []string
	)
	row := r.exec.QueryRow(ctx, sqlStmt, args...)
	if err := row.Scan(&userID, &hash, &roles); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", "", nil, repository.ErrNotFound
		}
		return "", "", nil, storeErr("select user", err)
	}

	return userID, hash, roles, nil
}

// Roles returns the current role set for a user id.
func (r *UserCredentialRepository) Roles(ctx context.Context, userID string) ([]string, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("user id is required")
	}

	sqlStmt, args, err := r.builder.Select("roles").
		From(usersTable).
		Where(squirrel.Eq{"id": userID, "enabled": true}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select roles sql: %w", err)
	}

	var roles []string
	row := r.exec.QueryRow(ctx, sqlStmt, args...)
	if err := row.Scan(&roles); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, storeErr("select roles", err)
	}

	return roles, nil
}
