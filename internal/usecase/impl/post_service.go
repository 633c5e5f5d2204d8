package impl

import (
	"context"
	"log/slog"
	"time"

	deliverycontext "smartblog/internal/delivery/context"
	"smartblog/internal/domain/entity"
	domainerrors "smartblog/internal/domain/errors"
	"smartblog/internal/domain/repository"
	"smartblog/internal/domain/service"
	"smartblog/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

type postService struct {
	postRepo  repository.PostRepository
	sanitizer service.ContentSanitizer
	now       func() time.Time
	logger    *slog.Logger
}

// PostServiceParams holds dependencies for PostService, injected by Fx.
type PostServiceParams struct {
	fx.In

	PostRepo  repository.PostRepository
	Sanitizer service.ContentSanitizer
	Logger    *slog.Logger
}

// NewPostService is the constructor for postService.
func NewPostService(params PostServiceParams) usecase.PostUsecase {
	return &postService{
		postRepo:  params.PostRepo,
		sanitizer: params.Sanitizer,
		now:       time.Now,
		logger:    params.Logger,
	}
}

func (srv *postService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

func translatePostError(err error) error {
	if errors.Is(err, repository.ErrPostNotFound) {
		return domainerrors.ErrPostNotFound
	}

	return err
}

func (srv *postService) ListPosts(ctx context.Context, page entity.PageRequest) (*entity.Page[*entity.Post], error) {
	page = page.Normalize()

	posts, total, err := srv.postRepo.List(ctx, page)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list posts")
	}

	return entity.NewPage(posts, page, total), nil
}

func (srv *postService) GetPost(ctx context.Context, id uuid.UUID) (*entity.Post, error) {
	post, err := srv.postRepo.FindByID(ctx, id)
	if err != nil {
		return nil, translatePostError(err)
	}

	return post, nil
}

func (srv *postService) ListUserPosts(ctx context.Context, userID uuid.UUID, page entity.PageRequest) (*entity.Page[*entity.Post], error) {
	page = page.Normalize()

	posts, total, err := srv.postRepo.ListByUserID(ctx, userID, page)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list user posts")
	}

	return entity.NewPage(posts, page, total), nil
}

func (srv *postService) sanitize(text string) (string, error) {
	clean := srv.sanitizer.Sanitize(text)
	if clean == "" {
		return "", domainerrors.ErrValidationFailed.WithDetails("text must not be blank")
	}

	return clean, nil
}

// CreatePost stores a post written by the principal and returns it with its author.
func (srv *postService) CreatePost(ctx context.Context, principal *entity.Principal, text string) (*entity.Post, error) {
	if err := requirePrincipal(principal); err != nil {
		return nil, err
	}

	clean, err := srv.sanitize(text)
	if err != nil {
		return nil, err
	}

	post := &entity.Post{
		ID:     uuid.New(),
		Text:   clean,
		UserID: principal.UserID,
	}
	post.Touch(principal.Auditor(), srv.now())

	if err := srv.postRepo.Create(ctx, post); err != nil {
		return nil, errors.Wrap(err, "failed to create post")
	}

	srv.log(ctx).Info("Post created", slog.Any("postID", post.ID), slog.Any("userID", principal.UserID))

	return srv.GetPost(ctx, post.ID)
}

// UpdatePost replaces the text of a post. The author stays the original one.
func (srv *postService) UpdatePost(ctx context.Context, principal *entity.Principal, id uuid.UUID, text string) (*entity.Post, error) {
	if err := requirePrincipal(principal); err != nil {
		return nil, err
	}

	clean, err := srv.sanitize(text)
	if err != nil {
		return nil, err
	}

	post, err := srv.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}

	post.Text = clean
	post.Touch(principal.Auditor(), srv.now())

	if err := srv.postRepo.Update(ctx, post); err != nil {
		return nil, translatePostError(err)
	}

	return post, nil
}

func (srv *postService) DeletePost(ctx context.Context, id uuid.UUID) error {
	if err := srv.postRepo.Delete(ctx, id); err != nil {
		return translatePostError(err)
	}

	srv.log(ctx).Info("Post deleted", slog.Any("postID", id))

	return nil
}

func (srv *postService) PostOwner(id uuid.UUID) usecase.OwnerResolver {
	return func(ctx context.Context) (uuid.UUID, error) {
		ownerID, err := srv.postRepo.FindOwnerID(ctx, id)
		if err != nil {
			return uuid.Nil, translatePostError(err)
		}

		return ownerID, nil
	}
}
