// Package authz answers "may this user perform this operation" over the flat
// role/permission model. Checks fail closed: an unknown permission name is a
// plain false, while a storage failure is always surfaced as an error so the
// caller can distinguish "denied" from "unavailable".
package authz

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/sirupsen/logrus"

	"github.com/kalenso/kalenso/internal/domain/rbac"
	repo "github.com/kalenso/kalenso/internal/domain/repository"
)

// ErrRoleNotFound marks a role name that is not provisioned in the catalog;
// it signals a provisioning bug, not a user-facing condition.
var ErrRoleNotFound = errors.New("role not found")

type Service struct {
	Catalog repo.CatalogRepository
	RBAC    repo.RBACRepository
	Logger  *logrus.Logger
}

func NewService(catalog repo.CatalogRepository, rbacRepo repo.RBACRepository, logger *logrus.Logger) *Service {
	return &Service{Catalog: catalog, RBAC: rbacRepo, Logger: logger}
}

// HasPermission reports whether any role held by the user grants the named
// permission. An unknown permission name is (false, nil): nobody holds a
// permission that does not exist, and this path runs per request so it must
// not turn a name typo into an error avalanche. Storage failures propagate.
func (s *Service) HasPermission(ctx context.Context, userID int64, name string) (bool, error) {
	p, err := s.Catalog.GetPermissionByName(ctx, name)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return s.RBAC.HasPermission(ctx, userID, p.ID)
}

// ListEffectivePermissions returns the deduplicated union of permission names
// across every role the user holds, lexicographically ordered.
func (s *Service) ListEffectivePermissions(ctx context.Context, userID int64) ([]string, error) {
	return s.RBAC.ListPermissionNames(ctx, userID)
}

// HasAny reports whether the user holds at least one of the named permissions.
// One storage round trip regardless of len(names).
func (s *Service) HasAny(ctx context.Context, userID int64, names []string) (bool, error) {
	effective, err := s.ListEffectivePermissions(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if slices.Contains(effective, n) {
			return true, nil
		}
	}
	return false, nil
}

// HasAll reports whether the user holds every named permission. One storage
// round trip regardless of len(names).
func (s *Service) HasAll(ctx context.Context, userID int64, names []string) (bool, error) {
	effective, err := s.ListEffectivePermissions(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if !slices.Contains(effective, n) {
			return false, nil
		}
	}
	return true, nil
}

// CheckRole reports whether the user currently holds the named role.
func (s *Service) CheckRole(ctx context.Context, userID int64, roleName string) (bool, error) {
	names, err := s.RBAC.ListRoleNames(ctx, userID)
	if err != nil {
		return false, err
	}
	return slices.Contains(names, roleName), nil
}

// ListRoleNames returns the role names held by the user.
func (s *Service) ListRoleNames(ctx context.Context, userID int64) ([]string, error) {
	return s.RBAC.ListRoleNames(ctx, userID)
}

// AssignRole attaches the named role to the user. Idempotent: assigning a
// held role reports created=false without error. An unknown role name is
// ErrRoleNotFound, loud on purpose: only provisioning code passes role names.
func (s *Service) AssignRole(ctx context.Context, userID int64, roleName string) (bool, error) {
	role, err := s.Catalog.GetRoleByName(ctx, roleName)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return false, fmt.Errorf("%w: %s", ErrRoleNotFound, roleName)
		}
		return false, err
	}
	created, err := s.RBAC.AssignRole(ctx, userID, role.ID)
	if err != nil {
		return false, err
	}
	if created {
		s.Logger.WithFields(logrus.Fields{"user_id": userID, "role": roleName}).Info("role assigned")
	}
	return created, nil
}

// RemoveRole detaches the named role. Removing a role the user never held is
// a no-op reporting removed=false.
func (s *Service) RemoveRole(ctx context.Context, userID int64, roleName string) (bool, error) {
	role, err := s.Catalog.GetRoleByName(ctx, roleName)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return false, fmt.Errorf("%w: %s", ErrRoleNotFound, roleName)
		}
		return false, err
	}
	removed, err := s.RBAC.RemoveRole(ctx, userID, role.ID)
	if err != nil {
		return false, err
	}
	if removed {
		s.Logger.WithFields(logrus.Fields{"user_id": userID, "role": roleName}).Info("role removed")
	}
	return removed, nil
}

// ValidateRegistry checks the catalog against the closed name registry at
// startup: every registry role and permission must exist, and the full-access
// role must hold every permission in the catalog. A mismatch refuses startup.
func (s *Service) ValidateRegistry(ctx context.Context) error {
	for _, name := range rbac.AllRoles() {
		if _, err := s.Catalog.GetRoleByName(ctx, name); err != nil {
			return fmt.Errorf("registry role %q: %w", name, err)
		}
	}
	for _, name := range rbac.AllPermissions() {
		if _, err := s.Catalog.GetPermissionByName(ctx, name); err != nil {
			return fmt.Errorf("registry permission %q: %w", name, err)
		}
	}

	admin, err := s.Catalog.GetRoleByName(ctx, rbac.RoleAdmin)
	if err != nil {
		return err
	}
	adminPerms, err := s.Catalog.ListPermissionNamesForRole(ctx, admin.ID)
	if err != nil {
		return err
	}
	all, err := s.Catalog.ListPermissions(ctx)
	if err != nil {
		return err
	}
	for _, p := range all {
		if !slices.Contains(adminPerms, p.Name) {
			return fmt.Errorf("full-access role %q is missing permission %q", rbac.RoleAdmin, p.Name)
		}
	}
	return nil
}
