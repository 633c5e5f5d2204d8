package entity

import (
	"time"

	"github.com/google/uuid"
)

// TokenType classifies a session token entry.
type TokenType string

// TokenTypeBearer is the only session token type issued.
const TokenTypeBearer TokenType = "BEARER"

// SessionToken is an access token recorded in the session ledger.
// Only tokens present here, unrevoked and unexpired, authenticate requests.
type SessionToken struct {
	ID        uuid.UUID
	Token     string
	TokenType TokenType
	Revoked   bool
	Expired   bool
	UserID    uuid.UUID
	CreatedAt time.Time
}

// IsActive reports whether the entry still authenticates requests.
func (t *SessionToken) IsActive() bool {
	return !t.Revoked && !t.Expired
}

// VerificationToken is a short lived one-time token used for account activation and password reset.
type VerificationToken struct {
	ID        uuid.UUID
	Token     string
	ExpiresAt time.Time
	UserID    uuid.UUID
	CreatedAt time.Time
}

// IsExpired reports whether the token can no longer be used at now.
// A token is expired at the exact expiration instant.
func (t *VerificationToken) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
