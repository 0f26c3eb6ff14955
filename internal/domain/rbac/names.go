// Package rbac is the closed registry of role and permission names.
// Handlers and services reference these constants instead of string literals,
// and the registry is checked against the catalog at startup so a typo fails
// the process rather than turning into a silent always-false permission check.
package rbac

import "strings"

// Role names. RoleAdmin must hold every permission in the catalog; RoleGuest
// holds only the read permissions.
const (
	RoleAdmin = "admin"
	RoleGuest = "guest"
)

// DefaultRole is assigned to every newly created user, synchronously with creation.
const DefaultRole = RoleAdmin

// Permission names, "resource:action" lowercase.
const (
	CalendarRead   = "calendar:read"
	CalendarCreate = "calendar:create"
	CalendarUpdate = "calendar:update"
	CalendarDelete = "calendar:delete"
	ProfileRead    = "profile:read"
	ProfileUpdate  = "profile:update"
	UsersRead      = "users:read"
	UsersUpdate    = "users:update"
	ReportsExport  = "reports:export"
)

// AllPermissions enumerates every permission the product defines. Seeding walks
// this list, and every entry is attached to RoleAdmin in the same change.
func AllPermissions() []string {
	return []string{
		CalendarRead,
		CalendarCreate,
		CalendarUpdate,
		CalendarDelete,
		ProfileRead,
		ProfileUpdate,
		UsersRead,
		UsersUpdate,
		ReportsExport,
	}
}

// AllRoles enumerates every role the product defines.
func AllRoles() []string {
	return []string{RoleAdmin, RoleGuest}
}

// GuestPermissions is the read-only subset granted to RoleGuest.
func GuestPermissions() []string {
	out := make([]string, 0, 4)
	for _, p := range AllPermissions() {
		if Action(p) == "read" {
			out = append(out, p)
		}
	}
	return out
}

// Split breaks a permission name into resource and action.
func Split(name string) (resource, action string) {
	i := strings.IndexByte(name, ':')
	if i < 0 {
		return name, ""
	}
	return name[:i], name[i+1:]
}

// Resource returns the resource half of a permission name.
func Resource(name string) string {
	r, _ := Split(name)
	return r
}

// Action returns the action half of a permission name.
func Action(name string) string {
	_, a := Split(name)
	return a
}
