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
)

type sessionTokenRepository struct {
	db *gorm.DB
}

// NewSessionTokenRepository creates the GORM backed session token ledger.
func NewSessionTokenRepository(db *gorm.DB) repository.SessionTokenRepository {
	return &sessionTokenRepository{db: db}
}

func (repo *sessionTokenRepository) Create(ctx context.Context, token *entity.SessionToken) error {
	tokenM := fromSessionTokenDomain(token)
	if err := repo.db.WithContext(ctx).Create(tokenM).Error; err != nil {
		if isForeignKeyConstraintViolation(err) {
			return repository.ErrUserNotFound
		}

		return domainerrors.NewStorageError(err, "failed to create session token")
	}

	token.ID = tokenM.ID
	token.CreatedAt = tokenM.CreatedAt

	return nil
}

func (repo *sessionTokenRepository) FindByToken(ctx context.Context, token string) (*entity.SessionToken, error) {
	var tokenM model.SessionTokenModel
	if err := repo.db.WithContext(ctx).Where("token = ?", token).Take(&tokenM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrSessionTokenNotFound
		}

		return nil, errors.Wrap(err, "failed to find session token")
	}

	return toSessionTokenDomain(&tokenM), nil
}

func (repo *sessionTokenRepository) FindByUserID(ctx context.Context, userID uuid.UUID) ([]*entity.SessionToken, error) {
	var rows []model.SessionTokenModel
	err := repo.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to find session tokens by user")
	}

	tokens := make([]*entity.SessionToken, 0, len(rows))
	for i := range rows {
		tokens = append(tokens, toSessionTokenDomain(&rows[i]))
	}

	return tokens, nil
}

func (repo *sessionTokenRepository) DeleteByUserID(ctx context.Context, userID uuid.UUID) error {
	if err := repo.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.SessionTokenModel{}).Error; err != nil {
		return domainerrors.NewStorageError(err, "failed to delete session tokens")
	}

	return nil
}

func toSessionTokenDomain(m *model.SessionTokenModel) *entity.SessionToken {
	return &entity.SessionToken{
		ID:        m.ID,
		Token:     m.Token,
		TokenType: entity.TokenType(m.TokenType),
		Revoked:   m.Revoked,
		Expired:   m.Expired,
		UserID:    m.UserID,
		CreatedAt: m.CreatedAt,
	}
}

func fromSessionTokenDomain(t *entity.SessionToken) *model.SessionTokenModel {
	tokenType := t.TokenType
	if tokenType == "" {
		tokenType = entity.TokenTypeBearer
	}

	return &model.SessionTokenModel{
		ID:        t.ID,
		Token:     t.Token,
		TokenType: string(tokenType),
		Revoked:   t.Revoked,
		Expired:   t.Expired,
		UserID:    t.UserID,
		CreatedAt: t.CreatedAt,
	}
}
