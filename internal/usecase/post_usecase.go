package usecase

import (
	"context"

	"smartblog/internal/domain/entity"

	"github.com/google/uuid"
)

// PostUsecase defines operations on blog posts. Authorization is checked by the caller.
type PostUsecase interface {
	ListPosts(ctx context.Context, page entity.PageRequest) (*entity.Page[*entity.Post], error)
	GetPost(ctx context.Context, id uuid.UUID) (*entity.Post, error)
	ListUserPosts(ctx context.Context, userID uuid.UUID, page entity.PageRequest) (*entity.Page[*entity.Post], error)
	CreatePost(ctx context.Context, principal *entity.Principal, text string) (*entity.Post, error)
	UpdatePost(ctx context.Context, principal *entity.Principal, id uuid.UUID, text string) (*entity.Post, error)
	DeletePost(ctx context.Context, id uuid.UUID) error

	// PostOwner resolves the author of a post, for ownership checks.
	PostOwner(id uuid.UUID) OwnerResolver
}
