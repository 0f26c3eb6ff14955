package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kalenso/kalenso/internal/domain/entity"
	"github.com/kalenso/kalenso/internal/domain/repository"
)

type CatalogRepository struct {
	pool *pgxpool.Pool
}

func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

func scanRole(row pgx.Row) (*entity.Role, error) {
	r := &entity.Role{}
	if err := row.Scan(&r.ID, &r.Name, &r.Description, &r.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return r, nil
}

func scanPermission(row pgx.Row) (*entity.Permission, error) {
	p := &entity.Permission{}
	if err := row.Scan(&p.ID, &p.Name, &p.Resource, &p.Action, &p.Description, &p.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *CatalogRepository) GetRoleByName(ctx context.Context, name string) (*entity.Role, error) {
	return scanRole(r.pool.QueryRow(ctx, `
		SELECT id, name, description, created_at FROM roles WHERE name = $1
	`, name))
}

func (r *CatalogRepository) GetRoleByID(ctx context.Context, id int64) (*entity.Role, error) {
	return scanRole(r.pool.QueryRow(ctx, `
		SELECT id, name, description, created_at FROM roles WHERE id = $1
	`, id))
}

func (r *CatalogRepository) GetPermissionByName(ctx context.Context, name string) (*entity.Permission, error) {
	return scanPermission(r.pool.QueryRow(ctx, `
		SELECT id, name, resource, action, description, created_at FROM permissions WHERE name = $1
	`, name))
}

func (r *CatalogRepository) GetPermissionByID(ctx context.Context, id int64) (*entity.Permission, error) {
	return scanPermission(r.pool.QueryRow(ctx, `
		SELECT id, name, resource, action, description, created_at FROM permissions WHERE id = $1
	`, id))
}

func (r *CatalogRepository) ListRoles(ctx context.Context) ([]entity.Role, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, description, created_at FROM roles ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []entity.Role
	for rows.Next() {
		var role entity.Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, role)
	}
	return out, rows.Err()
}

func (r *CatalogRepository) ListPermissions(ctx context.Context) ([]entity.Permission, error) {
	return r.listPermissions(ctx, `
		SELECT id, name, resource, action, description, created_at FROM permissions ORDER BY name
	`)
}

func (r *CatalogRepository) ListPermissionsByResource(ctx context.Context, resource string) ([]entity.Permission, error) {
	return r.listPermissions(ctx, `
		SELECT id, name, resource, action, description, created_at FROM permissions WHERE resource = $1 ORDER BY name
	`, resource)
}

func (r *CatalogRepository) listPermissions(ctx context.Context, sql string, args ...any) ([]entity.Permission, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []entity.Permission
	for rows.Next() {
		var p entity.Permission
		if err := rows.Scan(&p.ID, &p.Name, &p.Resource, &p.Action, &p.Description, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *CatalogRepository) ListPermissionNamesForRole(ctx context.Context, roleID int64) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.name
		FROM role_permissions rp
		JOIN permissions p ON p.id = rp.permission_id
		WHERE rp.role_id = $1
		ORDER BY p.name
	`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

var _ repository.CatalogRepository = (*CatalogRepository)(nil)
