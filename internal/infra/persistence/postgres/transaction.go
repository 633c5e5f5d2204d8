package postgres

import (
	"context"

	"smartblog/internal/domain/repository"

	"gorm.io/gorm"
)

type gormTransactionManager struct {
	db *gorm.DB
}

// NewTransactionManager returns a TransactionManager backed by gorm transactions.
func NewTransactionManager(db *gorm.DB) repository.TransactionManager {
	return &gormTransactionManager{db: db}
}

// Execute delegates to gorm.DB.Transaction, which rolls back on error or panic and re-panics afterwards.
func (tm *gormTransactionManager) Execute(ctx context.Context, fn func(repository.RepositoryFactory) error) error {
	return tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(txRepositories{tx: tx})
	})
}

// txRepositories binds every repository to one open transaction.
type txRepositories struct {
	tx *gorm.DB
}

func (r txRepositories) UserRepo() repository.UserRepository {
	return NewUserRepository(r.tx)
}

func (r txRepositories) SessionTokenRepo() repository.SessionTokenRepository {
	return NewSessionTokenRepository(r.tx)
}

func (r txRepositories) VerificationTokenRepo() repository.VerificationTokenRepository {
	return NewVerificationTokenRepository(r.tx)
}

func (r txRepositories) PostRepo() repository.PostRepository {
	return NewPostRepository(r.tx)
}
