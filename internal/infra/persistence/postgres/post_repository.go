package postgres

import (
	"context"

	"smartblog/internal/domain/entity"
	domainerrors "smartblog/internal/domain/errors"
	"smartblog/internal/domain/repository"
	"smartblog/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates the GORM backed post repository.
func NewPostRepository(db *gorm.DB) repository.PostRepository {
	return &postRepository{db: db}
}

func (repo *postRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Post, error) {
	var postM model.PostModel
	if err := repo.db.WithContext(ctx).Preload("User").Where("id = ?", id).Take(&postM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrPostNotFound
		}

		return nil, errors.Wrap(err, "failed to find post by id")
	}

	return toPostDomain(&postM), nil
}

func (repo *postRepository) FindOwnerID(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	var postM model.PostModel
	if err := repo.db.WithContext(ctx).Select("id", "user_id").Where("id = ?", id).Take(&postM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, repository.ErrPostNotFound
		}

		return uuid.Nil, errors.Wrap(err, "failed to find post owner")
	}

	return postM.UserID, nil
}

func (repo *postRepository) List(ctx context.Context, page entity.PageRequest) ([]*entity.Post, int64, error) {
	return repo.list(ctx, repo.db.WithContext(ctx), page)
}

func (repo *postRepository) ListByUserID(ctx context.Context, userID uuid.UUID, page entity.PageRequest) ([]*entity.Post, int64, error) {
	return repo.list(ctx, repo.db.WithContext(ctx).Where("user_id = ?", userID), page)
}

func (repo *postRepository) list(ctx context.Context, scope *gorm.DB, page entity.PageRequest) ([]*entity.Post, int64, error) {
	var total int64
	if err := scope.Session(&gorm.Session{}).Model(&model.PostModel{}).Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "failed to count posts")
	}

	var rows []model.PostModel
	err := scope.Session(&gorm.Session{}).
		Preload("User").
		Order("created_at DESC, id DESC").
		Offset(page.Offset()).
		Limit(page.Size).
		Find(&rows).Error
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to list posts")
	}

	posts := make([]*entity.Post, 0, len(rows))
	for i := range rows {
		posts = append(posts, toPostDomain(&rows[i]))
	}

	return posts, total, nil
}

func (repo *postRepository) Create(ctx context.Context, post *entity.Post) error {
	postM := fromPostDomain(post)
	if err := repo.db.WithContext(ctx).Omit(clause.Associations).Create(postM).Error; err != nil {
		if isForeignKeyConstraintViolation(err) {
			return repository.ErrUserNotFound
		}

		return domainerrors.NewStorageError(err, "failed to create post")
	}

	post.ID = postM.ID

	return nil
}

func (repo *postRepository) Update(ctx context.Context, post *entity.Post) error {
	result := repo.db.WithContext(ctx).
		Model(&model.PostModel{}).
		Where("id = ?", post.ID).
		Updates(map[string]any{
			"text":       post.Text,
			"updated_at": post.UpdatedAt,
			"updated_by": post.UpdatedBy,
		})
	if result.Error != nil {
		return domainerrors.NewStorageError(result.Error, "failed to update post")
	}
	if result.RowsAffected == 0 {
		return repository.ErrPostNotFound
	}

	return nil
}

func (repo *postRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := repo.db.WithContext(ctx).Where("id = ?", id).Delete(&model.PostModel{})
	if result.Error != nil {
		return domainerrors.NewStorageError(result.Error, "failed to delete post")
	}
	if result.RowsAffected == 0 {
		return repository.ErrPostNotFound
	}

	return nil
}

func toPostDomain(m *model.PostModel) *entity.Post {
	post := &entity.Post{
		ID:     m.ID,
		Text:   m.Text,
		UserID: m.UserID,
		Audit:  toAuditDomain(m.AuditColumns),
	}
	if m.User != nil {
		post.Author = &entity.Author{
			FirstName: m.User.FirstName,
			LastName:  m.User.LastName,
			UserName:  m.User.UserName,
		}
	}

	return post
}

func fromPostDomain(p *entity.Post) *model.PostModel {
	return &model.PostModel{
		ID:           p.ID,
		Text:         p.Text,
		UserID:       p.UserID,
		AuditColumns: fromAuditDomain(p.Audit),
	}
}
