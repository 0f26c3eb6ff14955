package entity

import "time"

// Role is a named bundle of permissions; the unit attached to a user.
// Many-to-many with User via user_roles and with Permission via role_permissions.
type Role struct {
	ID          int64
	Name        string
	Description *string
	CreatedAt   time.Time
}

// Permission is an atomic capability named "resource:action".
type Permission struct {
	ID          int64
	Name        string
	Resource    string
	Action      string
	Description *string
	CreatedAt   time.Time
}

// RolePermission links a role with a permission.
type RolePermission struct {
	RoleID       int64
	PermissionID int64
}

// UserRole assigns a role to a user.
type UserRole struct {
	UserID    int64
	RoleID    int64
	CreatedAt time.Time
}
