package repository

import (
	"context"
	"errors"
	"time"

	"smartblog/internal/domain/entity"

	"github.com/google/uuid"
)

// ErrVerificationTokenNotFound is returned when a verification token does not exist.
var ErrVerificationTokenNotFound = errors.New("verification token not found")

// VerificationTokenRepository stores one-time tokens for account activation and password reset.
type VerificationTokenRepository interface {
	Create(ctx context.Context, token *entity.VerificationToken) error
	FindByToken(ctx context.Context, token string) (*entity.VerificationToken, error)
	DeleteByUserID(ctx context.Context, userID uuid.UUID) error

	// DeleteExpired removes tokens expired at now and reports how many were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
