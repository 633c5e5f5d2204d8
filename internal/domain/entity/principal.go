package entity

import (
	"slices"

	"github.com/google/uuid"
)

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID      uuid.UUID
	Email       string
	Role        Role
	Authorities []string
}

// NewPrincipal builds the principal of user, resolving its authorities from the role table.
func NewPrincipal(user *User) *Principal {
	return &Principal{
		UserID:      user.ID,
		Email:       user.Email,
		Role:        user.Role,
		Authorities: user.Role.Authorities(),
	}
}

// HasAuthority reports whether the principal holds the authority string.
func (p *Principal) HasAuthority(authority string) bool {
	if p == nil {
		return false
	}

	return slices.Contains(p.Authorities, authority)
}

// Auditor returns the name recorded in audit fields for changes made by p.
func (p *Principal) Auditor() string {
	if p == nil || p.Email == "" {
		return AnonymousAuditor
	}

	return p.Email
}
