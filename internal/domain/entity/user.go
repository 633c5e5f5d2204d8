// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// AnonymousAuditor is recorded as the author of changes made without an authenticated caller.
const AnonymousAuditor = "anonymousUser"

// User is an account of the blog. Email is the login identifier carried as the token subject.
type User struct {
	ID           uuid.UUID // The Global Unique Identifier (GUID) for the user.
	FirstName    string
	LastName     string
	UserName     string    // Unique public handle.
	Email        string    // Unique, used for login and notifications.
	PasswordHash string    // bcrypt hash, never serialized.
	Role         Role      // Determines the permissions the user holds.
	Enabled      bool      // False until the account is verified or when disabled by an admin.
	MemberSince  time.Time // Registration time.
	Audit
}

// Audit carries the bookkeeping fields shared by persisted entities.
type Audit struct {
	CreatedAt time.Time
	CreatedBy string
	UpdatedAt time.Time
	UpdatedBy string
}

// Touch stamps the audit fields for a modification made by auditor at now.
// Creation fields are filled only the first time.
func (a *Audit) Touch(auditor string, now time.Time) {
	if auditor == "" {
		auditor = AnonymousAuditor
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
		a.CreatedBy = auditor
	}
	a.UpdatedAt = now
	a.UpdatedBy = auditor
}
