package entity

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRole_Authorities(t *testing.T) {
	assert.Equal(t, []string{"post:read", "post:create", "ROLE_USER"}, RoleUser.Authorities())

	admin := RoleAdmin.Authorities()
	assert.Len(t, admin, 8)
	assert.Equal(t, "ROLE_ADMIN", admin[len(admin)-1])
	assert.Contains(t, admin, "user:change-enabled")

	assert.Nil(t, Role("GHOST").Authorities())
}

func TestRole_HasPermission(t *testing.T) {
	assert.True(t, RoleUser.HasPermission(PermissionPostCreate))
	assert.False(t, RoleUser.HasPermission(PermissionPostDelete))
	assert.False(t, RoleUser.HasPermission(PermissionUserRead))
	assert.True(t, RoleAdmin.HasPermission(PermissionPostDelete))
}

func TestRole_PermissionsReturnsCopy(t *testing.T) {
	perms := RoleUser.Permissions()
	perms[0] = PermissionUserChangeRole

	assert.False(t, RoleUser.HasPermission(PermissionUserChangeRole))
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		in   string
		want Role
	}{
		{in: "USER", want: RoleUser},
		{in: "admin", want: RoleAdmin},
		{in: "ROLE_ADMIN", want: RoleAdmin},
		{in: " user ", want: RoleUser},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRole(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseRole("MODERATOR")
	assert.True(t, errors.Is(err, ErrUnknownRole))
}

func TestRoles_Sorted(t *testing.T) {
	assert.Equal(t, []Role{RoleAdmin, RoleUser}, Roles())
}

func TestPrincipal(t *testing.T) {
	user := &User{Email: "bob@x.com", Role: RoleUser}
	p := NewPrincipal(user)

	assert.True(t, p.HasAuthority("post:read"))
	assert.True(t, p.HasAuthority("ROLE_USER"))
	assert.False(t, p.HasAuthority("post:delete"))
	assert.Equal(t, "bob@x.com", p.Auditor())

	var nilPrincipal *Principal
	assert.False(t, nilPrincipal.HasAuthority("post:read"))
	assert.Equal(t, AnonymousAuditor, nilPrincipal.Auditor())
}
