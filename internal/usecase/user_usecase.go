package usecase

import (
	"context"

	"smartblog/internal/domain/entity"

	"github.com/google/uuid"
)

// UpdateUserInput replaces the caller's profile fields.
type UpdateUserInput struct {
	FirstName string
	LastName  string
	UserName  string
	Email     string
}

// ChangePasswordInput defines the data required to change the caller's password.
type ChangePasswordInput struct {
	OldPassword string
	NewPassword string
}

// UserUsecase defines account self-service and user administration.
type UserUsecase interface {
	GetCurrentUser(ctx context.Context, principal *entity.Principal) (*entity.User, error)
	UpdateCurrentUser(ctx context.Context, principal *entity.Principal, input UpdateUserInput) (*entity.User, error)
	ChangePassword(ctx context.Context, principal *entity.Principal, input ChangePasswordInput) error

	// DeleteCurrentUser removes the caller together with their posts and tokens.
	DeleteCurrentUser(ctx context.Context, principal *entity.Principal) error

	GetUser(ctx context.Context, id uuid.UUID) (*entity.User, error)
	ListUsers(ctx context.Context, page entity.PageRequest) (*entity.Page[*entity.User], error)
	UpdateUserRole(ctx context.Context, principal *entity.Principal, id uuid.UUID, role string) (*entity.User, error)

	// ToggleUserEnabled flips the enabled flag of the user.
	ToggleUserEnabled(ctx context.Context, principal *entity.Principal, id uuid.UUID) (*entity.User, error)
}
