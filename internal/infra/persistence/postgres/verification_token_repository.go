package postgres

import (
	"context"
	"time"

	"smartblog/internal/domain/entity"
	domainerrors "smartblog/internal/domain/errors"
	"smartblog/internal/domain/repository"
	"smartblog/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type verificationTokenRepository struct {
	db *gorm.DB
}

// NewVerificationTokenRepository creates the GORM backed verification token store.
func NewVerificationTokenRepository(db *gorm.DB) repository.VerificationTokenRepository {
	return &verificationTokenRepository{db: db}
}

func (repo *verificationTokenRepository) Create(ctx context.Context, token *entity.VerificationToken) error {
	tokenM := &model.VerificationTokenModel{
		ID:        token.ID,
		Token:     token.Token,
		ExpiresAt: token.ExpiresAt,
		UserID:    token.UserID,
		CreatedAt: token.CreatedAt,
	}
	if err := repo.db.WithContext(ctx).Create(tokenM).Error; err != nil {
		if isForeignKeyConstraintViolation(err) {
			return repository.ErrUserNotFound
		}

		return domainerrors.NewStorageError(err, "failed to create verification token")
	}

	token.ID = tokenM.ID
	token.CreatedAt = tokenM.CreatedAt

	return nil
}

func (repo *verificationTokenRepository) FindByToken(ctx context.Context, token string) (*entity.VerificationToken, error) {
	var tokenM model.VerificationTokenModel
	if err := repo.db.WithContext(ctx).Where("token = ?", token).Take(&tokenM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrVerificationTokenNotFound
		}

		return nil, errors.Wrap(err, "failed to find verification token")
	}

	return &entity.VerificationToken{
		ID:        tokenM.ID,
		Token:     tokenM.Token,
		ExpiresAt: tokenM.ExpiresAt,
		UserID:    tokenM.UserID,
		CreatedAt: tokenM.CreatedAt,
	}, nil
}

func (repo *verificationTokenRepository) DeleteByUserID(ctx context.Context, userID uuid.UUID) error {
	if err := repo.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.VerificationTokenModel{}).Error; err != nil {
		return domainerrors.NewStorageError(err, "failed to delete verification tokens")
	}

	return nil
}

func (repo *verificationTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := repo.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&model.VerificationTokenModel{})
	if result.Error != nil {
		return 0, domainerrors.NewStorageError(result.Error, "failed to delete expired verification tokens")
	}

	return result.RowsAffected, nil
}
