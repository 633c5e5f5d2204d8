// Package usecase contains the application-specific business rules.
// It orchestrates the domain layer to perform tasks.
package usecase

import (
	"context"

	"smartblog/internal/domain/entity"
)

// --- Input DTOs ---

// RegisterInput defines the data required to register a new user.
type RegisterInput struct {
	FirstName string
	LastName  string
	UserName  string
	Email     string
	Password  string
}

// LoginInput defines the data required for a user to log in.
type LoginInput struct {
	Email    string
	Password string
}

// ResetPasswordInput carries a password reset token and the replacement password.
type ResetPasswordInput struct {
	Token       string
	NewPassword string
}

// --- Output DTOs ---

// TokenPairOutput returns the tokens issued by login or refresh.
type TokenPairOutput struct {
	AccessToken  string
	RefreshToken string
}

// AuthUsecase covers registration, credentials, sessions and verification tokens.
type AuthUsecase interface {
	// Register creates a disabled account and mails its activation link.
	Register(ctx context.Context, input RegisterInput) (*entity.User, error)

	// Authenticate checks the credentials and starts a new session, replacing any previous one.
	Authenticate(ctx context.Context, input LoginInput) (*TokenPairOutput, error)

	// RefreshToken issues a new access token from the refresh token in a Bearer header.
	// It returns nil, nil when the header is missing or the token is not usable.
	RefreshToken(ctx context.Context, authorizationHeader string) (*TokenPairOutput, error)

	VerifyAccount(ctx context.Context, token string) error
	ForgetPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, input ResetPasswordInput) error

	// Logout ends every session of the caller.
	Logout(ctx context.Context, principal *entity.Principal) error

	// ResolvePrincipal authenticates an access token against the session ledger.
	ResolvePrincipal(ctx context.Context, accessToken string) (*entity.Principal, error)
}
