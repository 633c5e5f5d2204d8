package repository

import (
	"context"
	"errors"

	"smartblog/internal/domain/entity"

	"github.com/google/uuid"
)

// ErrSessionTokenNotFound is returned when a token is not in the session ledger.
var ErrSessionTokenNotFound = errors.New("session token not found")

// SessionTokenRepository is the ledger of issued access tokens.
type SessionTokenRepository interface {
	// Create records a newly issued access token.
	Create(ctx context.Context, token *entity.SessionToken) error

	// FindByToken retrieves a ledger entry by the raw token string.
	FindByToken(ctx context.Context, token string) (*entity.SessionToken, error)

	// FindByUserID returns every ledger entry of the user.
	FindByUserID(ctx context.Context, userID uuid.UUID) ([]*entity.SessionToken, error)

	// DeleteByUserID removes every ledger entry of the user, revoking all their sessions.
	DeleteByUserID(ctx context.Context, userID uuid.UUID) error
}
