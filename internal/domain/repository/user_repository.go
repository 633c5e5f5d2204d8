// Package repository declares the persistence ports of the blog. Implementations translate
// storage failures into the sentinel errors below.
package repository

import (
	"context"
	"errors"

	"smartblog/internal/domain/entity"

	"github.com/google/uuid"
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrUserNameConflict = errors.New("user name already exists")
	ErrEmailConflict    = errors.New("email already exists")
)

// UserRepository stores accounts. Create and Update report ErrUserNameConflict or
// ErrEmailConflict when a unique handle or address is already taken.
type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	FindByUserName(ctx context.Context, userName string) (*entity.User, error)

	// List returns one page of users, oldest account first, and the total count.
	List(ctx context.Context, page entity.PageRequest) ([]*entity.User, int64, error)

	Create(ctx context.Context, user *entity.User) error
	Update(ctx context.Context, user *entity.User) error

	// Delete cascades to the user's posts and tokens.
	Delete(ctx context.Context, id uuid.UUID) error

	// AcquireSessionMutex locks the user row until the surrounding transaction ends,
	// serializing session ledger replacement for that user.
	AcquireSessionMutex(ctx context.Context, id uuid.UUID) error
}
