package postgres

import (
	"context"
	"fmt"
	"strings"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ryu-qqq/AuthHub-sub012/internal/core/domain"
	"github.com/ryu-qqq/AuthHub-sub012/internal/core/port"
)

const endpointPermissionsTable = "auth.endpoint_permissions"

var endpointPermissionColumns = []string{
	"id",
	"service_name",
	"path_pattern",
	"http_method",
	"required_permissions",
	"required_roles",
	"is_public",
	"description",
}

// EndpointPermissionRepository reads registered authorization rules. Rows are
// ordered by registration (sort_order, id) so first-match-wins stays deterministic
// across resolver reloads.
type EndpointPermissionRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewEndpointPermissionRepository constructs a repository backed by any executor that satisfies pgExecutor.
func NewEndpointPermissionRepository(exec pgExecutor) *EndpointPermissionRepository {
	repo := &EndpointPermissionRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
	if pool, ok := exec.(*pgxpool.Pool); ok {
		repo.pool = pool
	}
	return repo
}

// ListAll returns every registered rule in registration order.
func (r *EndpointPermissionRepository) ListAll(ctx context.Context) ([]domain.EndpointPermission, error) {
	return r.list(ctx, nil)
}

// ListByService returns the rules registered for one service in registration order.
func (r *EndpointPermissionRepository) ListByService(ctx context.Context, serviceName string) ([]domain.EndpointPermission, error) {
	if strings.TrimSpace(serviceName) == "" {
		return nil, fmt.Errorf("service name is required")
	}
	return r.list(ctx, squirrel.Eq{"service_name": serviceName})
}

func (r *EndpointPermissionRepository) list(ctx context.Context, pred squirrel.Eq) ([]domain.EndpointPermission, error) {
	query := r.builder.Select(endpointPermissionColumns...).
		From(endpointPermissionsTable).
		OrderBy("sort_order ASC", "id ASC")
	if pred != nil {
		query = query.Where(pred)
	}

	sqlStmt, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select endpoint permissions sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, sqlStmt, args...)
	if err != nil {
		return nil, storeErr("select endpoint permissions", err)
	}
	defer rows.Close()

	permissions := make([]domain.EndpointPermission, 0)
	for rows.Next() {
		permission, err := scanEndpointPermission(rows)
		if err != nil {
			return nil, err
		}
		permissions = append(permissions, permission)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate endpoint permissions", err)
	}

	return permissions, nil
}

func scanEndpointPermission(row pgx.Row) (domain.EndpointPermission, error) {
	var permission domain.EndpointPermission
	if err := row.Scan(
		&permission.ID,
		&permission.ServiceName,
		&permission.PathPattern,
		&permission.HTTPMethod,
		&permission.RequiredPermissions,
		&permission.RequiredRoles,
		&permission.IsPublic,
		&permission.Description,
	); err != nil {
		return domain.EndpointPermission{}, fmt.Errorf("scan endpoint permission: %w", err)
	}
	return permission, nil
}

var _ port.PermissionSource = (*EndpointPermissionRepository)(nil)
