// Package entity contains the core business objects of the project.
package entity

import (
	"slices"
	"strings"

	"github.com/pkg/errors"
)

// Permission is an atomic capability gating one action.
type Permission string

const (
	PermissionPostRead          Permission = "post:read"
	PermissionPostCreate        Permission = "post:create"
	PermissionPostUpdate        Permission = "post:update"
	PermissionPostDelete        Permission = "post:delete"
	PermissionUserRead          Permission = "user:read"
	PermissionUserChangeRole    Permission = "user:change-role"
	PermissionUserChangeEnabled Permission = "user:change-enabled"
)

// String returns the string representation of the Permission.
func (p Permission) String() string {
	return string(p)
}

// Role represents the named bundle of permissions a user holds.
type Role string

const (
	// RoleUser can read posts and write their own.
	RoleUser Role = "USER"
	// RoleAdmin has full content and user administration permissions.
	RoleAdmin Role = "ADMIN"
)

// DefaultRole is assigned at registration.
const DefaultRole = RoleUser

// rolePrefix is prepended to the role name to build its role-level authority.
const rolePrefix = "ROLE_"

// ErrUnknownRole is returned by ParseRole for names outside the role table.
var ErrUnknownRole = errors.New("unknown role")

//nolint:gochecknoglobals
var rolePermissions = map[Role][]Permission{
	RoleUser: {
		PermissionPostRead,
		PermissionPostCreate,
	},
	RoleAdmin: {
		PermissionPostRead,
		PermissionPostCreate,
		PermissionPostUpdate,
		PermissionPostDelete,
		PermissionUserRead,
		PermissionUserChangeRole,
		PermissionUserChangeEnabled,
	},
}

// String returns the string representation of the Role.
func (r Role) String() string {
	return string(r)
}

// IsValid checks if the Role is present in the role table.
func (r Role) IsValid() bool {
	_, ok := rolePermissions[r]

	return ok
}

// Permissions returns a copy of the permissions granted to the role.
func (r Role) Permissions() []Permission {
	return slices.Clone(rolePermissions[r])
}

// HasPermission reports whether the role grants p.
func (r Role) HasPermission(p Permission) bool {
	return slices.Contains(rolePermissions[r], p)
}

// Authorities returns one authority per permission followed by the role authority.
func (r Role) Authorities() []string {
	perms := rolePermissions[r]
	if perms == nil {
		return nil
	}

	authorities := make([]string, 0, len(perms)+1)
	for _, p := range perms {
		authorities = append(authorities, p.String())
	}

	return append(authorities, rolePrefix+r.String())
}

// ParseRole resolves a role name case-insensitively, with or without the ROLE_ prefix.
func ParseRole(name string) (Role, error) {
	candidate := Role(strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(name)), rolePrefix))
	if !candidate.IsValid() {
		return "", errors.Wrapf(ErrUnknownRole, "%q", name)
	}

	return candidate, nil
}

// Roles returns every role of the table in a stable order.
func Roles() []Role {
	roles := make([]Role, 0, len(rolePermissions))
	for r := range rolePermissions {
		roles = append(roles, r)
	}
	slices.Sort(roles)

	return roles
}
