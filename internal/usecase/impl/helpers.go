// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"

	"smartblog/internal/domain/entity"
	domainerrors "smartblog/internal/domain/errors"
	"smartblog/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// translateUserError maps user repository errors onto domain errors.
func translateUserError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrUserNotFound):
		return domainerrors.ErrUserNotFound
	case errors.Is(err, repository.ErrUserNameConflict):
		return domainerrors.ErrUserNameTaken
	case errors.Is(err, repository.ErrEmailConflict):
		return domainerrors.ErrEmailTaken
	default:
		return err
	}
}

// ensureAvailable fails when userName or email already belong to a user other than self.
// The user name is checked first.
func ensureAvailable(ctx context.Context, userRepo repository.UserRepository, userName, email string, self uuid.UUID) error {
	existing, err := userRepo.FindByUserName(ctx, userName)
	if err == nil && existing.ID != self {
		return domainerrors.ErrUserNameTaken
	}
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return errors.Wrap(err, "failed to look up user name")
	}

	existing, err = userRepo.FindByEmail(ctx, email)
	if err == nil && existing.ID != self {
		return domainerrors.ErrEmailTaken
	}
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return errors.Wrap(err, "failed to look up email")
	}

	return nil
}

func requirePrincipal(principal *entity.Principal) error {
	if principal == nil || principal.UserID == uuid.Nil {
		return domainerrors.ErrUnauthorized
	}

	return nil
}
