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

// userService implements the UserUsecase interface.
type userService struct {
	txManager repository.TransactionManager
	userRepo  repository.UserRepository
	hasher    service.PasswordHasher
	now       func() time.Time
	logger    *slog.Logger
}

// UserServiceParams holds dependencies for UserService, injected by Fx.
type UserServiceParams struct {
	fx.In

	TxManager repository.TransactionManager
	UserRepo  repository.UserRepository
	Hasher    service.PasswordHasher
	Logger    *slog.Logger
}

// NewUserService is the constructor for userService.
func NewUserService(params UserServiceParams) usecase.UserUsecase {
	return &userService{
		txManager: params.TxManager,
		userRepo:  params.UserRepo,
		hasher:    params.Hasher,
		now:       time.Now,
		logger:    params.Logger,
	}
}

func (srv *userService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

func (srv *userService) GetCurrentUser(ctx context.Context, principal *entity.Principal) (*entity.User, error) {
	if err := requirePrincipal(principal); err != nil {
		return nil, err
	}

	return srv.GetUser(ctx, principal.UserID)
}

// UpdateCurrentUser replaces the caller's profile. Changing the email ends the caller's
// sessions because access tokens are bound to it.
func (srv *userService) UpdateCurrentUser(ctx context.Context, principal *entity.Principal, input usecase.UpdateUserInput) (*entity.User, error) {
	if err := requirePrincipal(principal); err != nil {
		return nil, err
	}

	var user *entity.User
	err := srv.txManager.Execute(ctx, func(repos repository.RepositoryFactory) error {
		userRepo := repos.UserRepo()

		var err error
		user, err = userRepo.FindByID(ctx, principal.UserID)
		if err != nil {
			return translateUserError(err)
		}

		if err := ensureAvailable(ctx, userRepo, input.UserName, input.Email, user.ID); err != nil {
			return err
		}

		emailChanged := user.Email != input.Email
		user.FirstName = input.FirstName
		user.LastName = input.LastName
		user.UserName = input.UserName
		user.Email = input.Email
		user.Touch(principal.Auditor(), srv.now())

		if err := userRepo.Update(ctx, user); err != nil {
			return translateUserError(err)
		}

		if emailChanged {
			return repos.SessionTokenRepo().DeleteByUserID(ctx, user.ID)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

// ChangePassword requires the current password and ends every session of the caller.
func (srv *userService) ChangePassword(ctx context.Context, principal *entity.Principal, input usecase.ChangePasswordInput) error {
	if err := requirePrincipal(principal); err != nil {
		return err
	}

	user, err := srv.userRepo.FindByID(ctx, principal.UserID)
	if err != nil {
		return translateUserError(err)
	}

	if !srv.hasher.Check(input.OldPassword, user.PasswordHash) {
		return domainerrors.ErrIncorrectPassword
	}
	if err := srv.hasher.ValidatePasswordStrength(input.NewPassword); err != nil {
		return err
	}
	hashedPassword, err := srv.hasher.Hash(input.NewPassword)
	if err != nil {
		return domainerrors.ErrPasswordHashFailed.WithDetails(err.Error())
	}

	err = srv.txManager.Execute(ctx, func(repos repository.RepositoryFactory) error {
		user.PasswordHash = hashedPassword
		user.Touch(principal.Auditor(), srv.now())

		if err := repos.UserRepo().Update(ctx, user); err != nil {
			return translateUserError(err)
		}

		return repos.SessionTokenRepo().DeleteByUserID(ctx, user.ID)
	})
	if err != nil {
		return err
	}

	srv.log(ctx).Info("Password changed", slog.Any("userID", user.ID))

	return nil
}

func (srv *userService) DeleteCurrentUser(ctx context.Context, principal *entity.Principal) error {
	if err := requirePrincipal(principal); err != nil {
		return err
	}

	if err := srv.userRepo.Delete(ctx, principal.UserID); err != nil {
		return translateUserError(err)
	}

	srv.log(ctx).Info("User deleted", slog.Any("userID", principal.UserID))

	return nil
}

func (srv *userService) GetUser(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	user, err := srv.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, translateUserError(err)
	}

	return user, nil
}

func (srv *userService) ListUsers(ctx context.Context, page entity.PageRequest) (*entity.Page[*entity.User], error) {
	page = page.Normalize()

	users, total, err := srv.userRepo.List(ctx, page)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list users")
	}

	return entity.NewPage(users, page, total), nil
}

// UpdateUserRole takes effect on the user's next request, principals are rebuilt per request.
func (srv *userService) UpdateUserRole(ctx context.Context, principal *entity.Principal, id uuid.UUID, role string) (*entity.User, error) {
	parsed, err := entity.ParseRole(role)
	if err != nil {
		return nil, domainerrors.ErrInvalidRole.WithDetails(role)
	}

	return srv.modifyUser(ctx, principal, id, func(user *entity.User) bool {
		user.Role = parsed

		return false
	})
}

// ToggleUserEnabled ends the sessions of a user it disables.
func (srv *userService) ToggleUserEnabled(ctx context.Context, principal *entity.Principal, id uuid.UUID) (*entity.User, error) {
	return srv.modifyUser(ctx, principal, id, func(user *entity.User) bool {
		user.Enabled = !user.Enabled

		return !user.Enabled
	})
}

// modifyUser applies change to the user in a transaction. When change returns true the
// user's sessions are revoked in the same transaction.
func (srv *userService) modifyUser(ctx context.Context, principal *entity.Principal, id uuid.UUID, change func(*entity.User) bool) (*entity.User, error) {
	if err := requirePrincipal(principal); err != nil {
		return nil, err
	}

	var user *entity.User
	err := srv.txManager.Execute(ctx, func(repos repository.RepositoryFactory) error {
		userRepo := repos.UserRepo()

		var err error
		user, err = userRepo.FindByID(ctx, id)
		if err != nil {
			return translateUserError(err)
		}

		revoke := change(user)
		user.Touch(principal.Auditor(), srv.now())

		if err := userRepo.Update(ctx, user); err != nil {
			return translateUserError(err)
		}

		if revoke {
			return repos.SessionTokenRepo().DeleteByUserID(ctx, user.ID)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	srv.log(ctx).Info("User modified by administrator",
		slog.Any("userID", user.ID),
		slog.String("role", user.Role.String()),
		slog.Bool("enabled", user.Enabled),
		slog.Any("by", principal.UserID),
	)

	return user, nil
}
