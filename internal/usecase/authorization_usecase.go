package usecase

import (
	"context"

	"smartblog/internal/domain/entity"

	"github.com/google/uuid"
)

// OwnerResolver returns the id of the user owning the guarded resource.
// A missing resource is reported with an error matching domain ErrNotFound.
type OwnerResolver func(ctx context.Context) (uuid.UUID, error)

// AuthorizationUsecase decides whether a principal may perform an operation.
type AuthorizationUsecase interface {
	// Authorize allows principals holding permission. When owner is not nil,
	// the owner of the resource is allowed as well.
	Authorize(ctx context.Context, principal *entity.Principal, permission entity.Permission, owner OwnerResolver) error
}
