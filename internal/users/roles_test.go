package users

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleCapabilities(t *testing.T) {
	cases := []struct {
		role             Role
		isStaff          bool
		isAdministrative bool
	}{
		{RoleVisitor, false, false},
		{RoleStaff, true, false},
		{RoleManager, true, true},
		{RoleAdmin, true, true},
	}

	for _, tc := range cases {
		t.Run(tc.role.String(), func(t *testing.T) {
			assert.Equal(t, tc.isStaff, tc.role.IsStaff())
			assert.Equal(t, tc.isAdministrative, tc.role.IsAdministrative())
			assert.True(t, tc.role.IsValid())
		})
	}
}

func TestIsValidRoleRejectsUnknown(t *testing.T) {
	assert.False(t, IsValidRole("SUPERUSER"))
	assert.False(t, IsValidRole(""))
	assert.False(t, IsValidRole("visitor")) // roles are case-sensitive
	assert.True(t, IsValidRole("MANAGER"))
}
