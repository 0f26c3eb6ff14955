package repository

import "context"

// RBACRepository owns the user_roles association and the queries the
// permission resolver runs per request.
type RBACRepository interface {
	// AssignRole is idempotent; it reports whether a new row was created.
	AssignRole(ctx context.Context, userID, roleID int64) (bool, error)
	// RemoveRole reports whether a row was removed; removing an unheld role is
	// not an error.
	RemoveRole(ctx context.Context, userID, roleID int64) (bool, error)
	ListRoleNames(ctx context.Context, userID int64) ([]string, error)

	// HasPermission reports whether any role held by the user links to the
	// permission id.
	HasPermission(ctx context.Context, userID, permissionID int64) (bool, error)
	// ListPermissionNames returns the deduplicated union of permission names
	// across every role the user holds, in lexicographic order.
	ListPermissionNames(ctx context.Context, userID int64) ([]string, error)
}
