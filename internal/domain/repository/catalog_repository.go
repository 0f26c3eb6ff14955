package repository

import (
	"context"

	"github.com/kalenso/kalenso/internal/domain/entity"
)

// CatalogRepository is the read-only view of roles, permissions, and their
// many-to-many mapping. Catalog mutation is a provisioning concern (cmd/seed)
// and is not part of the request hot path.
//
// Name lookups return ErrNotFound when there is no match; callers must treat
// that as "the role/permission does not exist", which is distinct from "the
// user lacks it".
type CatalogRepository interface {
	GetRoleByName(ctx context.Context, name string) (*entity.Role, error)
	GetRoleByID(ctx context.Context, id int64) (*entity.Role, error)
	GetPermissionByName(ctx context.Context, name string) (*entity.Permission, error)
	GetPermissionByID(ctx context.Context, id int64) (*entity.Permission, error)
	ListRoles(ctx context.Context) ([]entity.Role, error)
	ListPermissions(ctx context.Context) ([]entity.Permission, error)
	ListPermissionsByResource(ctx context.Context, resource string) ([]entity.Permission, error)
	ListPermissionNamesForRole(ctx context.Context, roleID int64) ([]string, error)
}
