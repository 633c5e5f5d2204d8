package service

import (
	"smartblog/internal/domain/entity"

	"github.com/google/uuid"
)

// Token types carried in the "type" claim.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Claims is the validated content of a token.
type Claims struct {
	Subject string    // The user's email.
	UserID  uuid.UUID // Zero when the token does not carry it.
	Role    entity.Role
	Type    string
}

// TokenService issues and validates signed access and refresh tokens.
// This abstracts the details of token creation from the use cases.
type TokenService interface {
	// GenerateToken creates a short lived access token for user.
	GenerateToken(user *entity.User) (string, error)

	// GenerateRefreshToken creates a long lived refresh token for user.
	GenerateRefreshToken(user *entity.User) (string, error)

	// ExtractUsername returns the subject of a correctly signed token, even an expired one.
	ExtractUsername(token string) (string, error)

	// IsTokenValid reports whether token is correctly signed, unexpired and issued to user.
	IsTokenValid(token string, user *entity.User) bool

	// ParseToken fully validates token and returns its claims.
	ParseToken(token string) (*Claims, error)
}
