// Package postgres contains the concrete implementation of the persistence layer using GORM and PostgreSQL.
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

// userRepository implements the domain.UserRepository interface using GORM.
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository is the constructor for userRepository.
// It returns the repository as a domain.UserRepository interface, adhering to dependency inversion.
func NewUserRepository(db *gorm.DB) repository.UserRepository {
	return &userRepository{db: db}
}

// FindByID retrieves a single user by their unique ID.
func (repo *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	return repo.findOne(ctx, "failed to find user by id", "id = ?", id)
}

// FindByEmail retrieves a single user by their email address.
func (repo *userRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return repo.findOne(ctx, "failed to find user by email", "email = ?", email)
}

// FindByUserName retrieves a single user by their user name.
func (repo *userRepository) FindByUserName(ctx context.Context, userName string) (*entity.User, error) {
	return repo.findOne(ctx, "failed to find user by user name", "user_name = ?", userName)
}

func (repo *userRepository) findOne(ctx context.Context, msg, query string, arg any) (*entity.User, error) {
	var userM model.UserModel
	if err := repo.db.WithContext(ctx).Where(query, arg).Take(&userM).Error; err != nil {
		// If the error is 'record not found', return a domain-specific error.
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrUserNotFound
		}

		return nil, errors.Wrap(err, msg)
	}

	// Map the persistence model back to a pure domain entity before returning.
	return toUserDomain(&userM), nil
}

// List returns one page of users in registration order.
func (repo *userRepository) List(ctx context.Context, page entity.PageRequest) ([]*entity.User, int64, error) {
	var total int64
	if err := repo.db.WithContext(ctx).Model(&model.UserModel{}).Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "failed to count users")
	}

	var rows []model.UserModel
	err := repo.db.WithContext(ctx).
		Order("created_at ASC, id ASC").
		Offset(page.Offset()).
		Limit(page.Size).
		Find(&rows).Error
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to list users")
	}

	users := make([]*entity.User, 0, len(rows))
	for i := range rows {
		users = append(users, toUserDomain(&rows[i]))
	}

	return users, total, nil
}

// Create persists a new user entity to the database.
func (repo *userRepository) Create(ctx context.Context, user *entity.User) error {
	userM := fromUserDomain(user)

	if err := repo.db.WithContext(ctx).Omit(clause.Associations).Create(userM).Error; err != nil {
		return translateUserWriteError(err, "failed to create user")
	}

	user.ID = userM.ID

	return nil
}

// Update writes every column of an existing user.
func (repo *userRepository) Update(ctx context.Context, user *entity.User) error {
	userM := fromUserDomain(user)

	result := repo.db.WithContext(ctx).
		Model(&model.UserModel{}).
		Where("id = ?", user.ID).
		Select("*").
		Omit("id", "created_at", "created_by").
		Updates(userM)
	if result.Error != nil {
		return translateUserWriteError(result.Error, "failed to update user")
	}
	if result.RowsAffected == 0 {
		return repository.ErrUserNotFound
	}

	return nil
}

// Delete removes the user and everything the user owns in one transaction.
func (repo *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		owned := []any{
			&model.PostModel{},
			&model.SessionTokenModel{},
			&model.VerificationTokenModel{},
		}
		for _, m := range owned {
			if err := tx.Where("user_id = ?", id).Delete(m).Error; err != nil {
				return domainerrors.NewStorageError(err, "failed to delete user data")
			}
		}

		result := tx.Where("id = ?", id).Delete(&model.UserModel{})
		if result.Error != nil {
			return domainerrors.NewStorageError(result.Error, "failed to delete user")
		}
		if result.RowsAffected == 0 {
			return repository.ErrUserNotFound
		}

		return nil
	})
}

// AcquireSessionMutex takes a row lock on the user (SELECT ... FOR UPDATE).
func (repo *userRepository) AcquireSessionMutex(ctx context.Context, id uuid.UUID) error {
	var userM model.UserModel
	err := repo.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		Where("id = ?", id).
		Take(&userM).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return repository.ErrUserNotFound
		}

		return errors.Wrap(err, "failed to lock user")
	}

	return nil
}

func translateUserWriteError(err error, msg string) error {
	if isUniqueConstraintViolation(err) {
		switch violatedConstraint(err) {
		case constraintUserName:
			return repository.ErrUserNameConflict
		case constraintEmail:
			return repository.ErrEmailConflict
		}
	}
	if isNotNullConstraintViolation(err) {
		return domainerrors.ErrValidationFailed.WithDetails("missing required user information")
	}

	// For other database errors, return a generic database error
	return domainerrors.NewStorageError(err, msg)
}

func toUserDomain(m *model.UserModel) *entity.User {
	return &entity.User{
		ID:           m.ID,
		FirstName:    m.FirstName,
		LastName:     m.LastName,
		UserName:     m.UserName,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		Role:         entity.Role(m.Role),
		Enabled:      m.Enabled,
		MemberSince:  m.MemberSince,
		Audit:        toAuditDomain(m.AuditColumns),
	}
}

func fromUserDomain(u *entity.User) *model.UserModel {
	return &model.UserModel{
		ID:           u.ID,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		UserName:     u.UserName,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		Enabled:      u.Enabled,
		MemberSince:  u.MemberSince,
		AuditColumns: fromAuditDomain(u.Audit),
	}
}

func toAuditDomain(a model.AuditColumns) entity.Audit {
	return entity.Audit{
		CreatedAt: a.CreatedAt,
		CreatedBy: a.CreatedBy,
		UpdatedAt: a.UpdatedAt,
		UpdatedBy: a.UpdatedBy,
	}
}

func fromAuditDomain(a entity.Audit) model.AuditColumns {
	return model.AuditColumns{
		CreatedAt: a.CreatedAt,
		CreatedBy: a.CreatedBy,
		UpdatedAt: a.UpdatedAt,
		UpdatedBy: a.UpdatedBy,
	}
}
