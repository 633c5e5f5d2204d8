package repository

import "context"

// TransactionManager runs multi-step writes atomically, such as registration storing the
// user and its verification token together.
type TransactionManager interface {
	// Execute commits when fn returns nil and rolls back otherwise. The error of fn is returned unchanged.
	Execute(ctx context.Context, fn func(txRepoFactory RepositoryFactory) error) error
}

// RepositoryFactory hands out repositories sharing the surrounding transaction.
type RepositoryFactory interface {
	UserRepo() UserRepository
	SessionTokenRepo() SessionTokenRepository
	VerificationTokenRepo() VerificationTokenRepository
	PostRepo() PostRepository
}
