package repository

import (
	"context"
	"errors"

	"smartblog/internal/domain/entity"

	"github.com/google/uuid"
)

// ErrPostNotFound is returned when a post does not exist.
var ErrPostNotFound = errors.New("post not found")

// PostRepository defines persistence operations for posts.
// Reads return posts with their Author summary populated.
type PostRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Post, error)

	// FindOwnerID returns the id of the user who wrote the post.
	FindOwnerID(ctx context.Context, id uuid.UUID) (uuid.UUID, error)

	// List returns one page of posts, newest first, and the total count.
	List(ctx context.Context, page entity.PageRequest) ([]*entity.Post, int64, error)

	// ListByUserID returns one page of the user's posts, newest first, and their total count.
	ListByUserID(ctx context.Context, userID uuid.UUID, page entity.PageRequest) ([]*entity.Post, int64, error)

	Create(ctx context.Context, post *entity.Post) error
	Update(ctx context.Context, post *entity.Post) error
	Delete(ctx context.Context, id uuid.UUID) error
}
