package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryShape(t *testing.T) {
	perms := AllPermissions()
	require.NotEmpty(t, perms)

	seen := make(map[string]bool, len(perms))
	for _, p := range perms {
		assert.False(t, seen[p], "duplicate permission %q", p)
		seen[p] = true

		r, a := Split(p)
		assert.NotEmpty(t, r, "permission %q missing resource", p)
		assert.NotEmpty(t, a, "permission %q missing action", p)
		assert.Equal(t, r+":"+a, p)
	}
}

func TestSplit(t *testing.T) {
	r, a := Split("calendar:read")
	assert.Equal(t, "calendar", r)
	assert.Equal(t, "read", a)

	r, a = Split("noseparator")
	assert.Equal(t, "noseparator", r)
	assert.Equal(t, "", a)

	assert.Equal(t, "reports", Resource(ReportsExport))
	assert.Equal(t, "export", Action(ReportsExport))
}

func TestGuestPermissionsReadOnly(t *testing.T) {
	guest := GuestPermissions()
	require.NotEmpty(t, guest)
	for _, p := range guest {
		assert.Equal(t, "read", Action(p), "guest must not hold %q", p)
	}
	assert.Contains(t, guest, CalendarRead)
	assert.NotContains(t, guest, CalendarDelete)
	assert.NotContains(t, guest, ReportsExport)
}

func TestDefaultRoleRegistered(t *testing.T) {
	assert.Contains(t, AllRoles(), DefaultRole)
	assert.Contains(t, AllRoles(), RoleGuest)
}
