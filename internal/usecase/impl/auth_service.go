package impl

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"smartblog/config"
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

const (
	bearerPrefix = "Bearer "

	subjectActivation     = "Please Activate your Account"
	subjectForgetPassword = "Forget My Password"

	// dummyPassword is hashed once and compared against when the login email is unknown.
	dummyPassword = "smartblog-timing-equalizer"
)

// authService implements the AuthUsecase interface.
type authService struct {
	txManager        repository.TransactionManager
	userRepo         repository.UserRepository
	sessionRepo      repository.SessionTokenRepository
	verificationRepo repository.VerificationTokenRepository
	hasher           service.PasswordHasher
	tokenService     service.TokenService
	dispatcher       service.NotificationDispatcher
	verificationTTL  time.Duration
	verificationURL  string
	now              func() time.Time
	logger           *slog.Logger

	dummyHashOnce sync.Once
	dummyHash     string
}

// AuthServiceParams holds dependencies for AuthService, injected by Fx.
type AuthServiceParams struct {
	fx.In

	TxManager        repository.TransactionManager
	UserRepo         repository.UserRepository
	SessionRepo      repository.SessionTokenRepository
	VerificationRepo repository.VerificationTokenRepository
	Hasher           service.PasswordHasher
	TokenService     service.TokenService
	Dispatcher       service.NotificationDispatcher
	Config           *config.Config
	Logger           *slog.Logger
}

// NewAuthService is the constructor for authService. It receives all dependencies as interfaces.
func NewAuthService(params AuthServiceParams) usecase.AuthUsecase {
	return newAuthService(params)
}

func newAuthService(params AuthServiceParams) *authService {
	srv := &authService{
		txManager:        params.TxManager,
		userRepo:         params.UserRepo,
		sessionRepo:      params.SessionRepo,
		verificationRepo: params.VerificationRepo,
		hasher:           params.Hasher,
		tokenService:     params.TokenService,
		dispatcher:       params.Dispatcher,
		now:              time.Now,
		logger:           params.Logger,
	}
	if params.Config != nil && params.Config.Auth != nil {
		srv.verificationTTL = params.Config.Auth.VerificationTTL
	}
	if params.Config != nil && params.Config.Mail != nil {
		srv.verificationURL = params.Config.Mail.VerificationURL
	}

	return srv
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *authService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Register creates a disabled USER account and mails its activation link.
func (srv *authService) Register(ctx context.Context, input usecase.RegisterInput) (*entity.User, error) {
	srv.log(ctx).Info("Starting registration", slog.String("email", input.Email), slog.String("userName", input.UserName))

	if err := srv.hasher.ValidatePasswordStrength(input.Password); err != nil {
		return nil, err
	}

	hashedPassword, err := srv.hasher.Hash(input.Password)
	if err != nil {
		return nil, domainerrors.ErrPasswordHashFailed.WithDetails(err.Error())
	}

	now := srv.now()
	var user *entity.User
	var token string

	// User and verification token are created together or not at all.
	err = srv.txManager.Execute(ctx, func(repos repository.RepositoryFactory) error {
		userRepo := repos.UserRepo()

		if err := ensureAvailable(ctx, userRepo, input.UserName, input.Email, uuid.Nil); err != nil {
			return err
		}

		user = &entity.User{
			ID:           uuid.New(),
			FirstName:    input.FirstName,
			LastName:     input.LastName,
			UserName:     input.UserName,
			Email:        input.Email,
			PasswordHash: hashedPassword,
			Role:         entity.DefaultRole,
			Enabled:      false,
			MemberSince:  now,
		}
		user.Touch(entity.AnonymousAuditor, now)

		if err := userRepo.Create(ctx, user); err != nil {
			return translateUserError(err)
		}

		token, err = srv.generateVerificationToken(ctx, repos.VerificationTokenRepo(), user)

		return err
	})
	if err != nil {
		srv.log(ctx).Warn("Registration failed", slog.String("email", input.Email), slog.Any("error", err))

		return nil, err
	}

	srv.dispatch(ctx, entity.Notification{
		Subject:   subjectActivation,
		Recipient: user.Email,
		Body: "Thank you for signing up to Smart Blog, " +
			"please click on the below url to activate your account : " +
			srv.verificationURL + token,
	})

	srv.log(ctx).Debug("Registration completed", slog.Any("userID", user.ID))

	return user, nil
}

// generateVerificationToken stores a fresh verification token for user. Tokens already
// issued to an enabled user are purged first, a pending activation keeps its old tokens.
func (srv *authService) generateVerificationToken(ctx context.Context, repo repository.VerificationTokenRepository, user *entity.User) (string, error) {
	if user.Enabled {
		if err := repo.DeleteByUserID(ctx, user.ID); err != nil {
			return "", errors.Wrap(err, "failed to purge verification tokens")
		}
	}

	now := srv.now()
	token := &entity.VerificationToken{
		ID:        uuid.New(),
		Token:     uuid.NewString(),
		ExpiresAt: now.Add(srv.verificationTTL),
		UserID:    user.ID,
		CreatedAt: now,
	}
	if err := repo.Create(ctx, token); err != nil {
		return "", errors.Wrap(err, "failed to store verification token")
	}

	return token.Token, nil
}

// Authenticate checks the credentials without revealing whether the email exists.
func (srv *authService) Authenticate(ctx context.Context, input usecase.LoginInput) (*usecase.TokenPairOutput, error) {
	user, err := srv.userRepo.FindByEmail(ctx, input.Email)
	if errors.Is(err, repository.ErrUserNotFound) {
		// Spend the same bcrypt work as a real comparison.
		srv.hasher.Check(input.Password, srv.timingHash())
		srv.log(ctx).Info("Login rejected", slog.String("reason", "bad credentials"))

		return nil, domainerrors.ErrAuthenticationFailed
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find user by email")
	}

	if !srv.hasher.Check(input.Password, user.PasswordHash) {
		srv.log(ctx).Info("Login rejected", slog.String("reason", "bad credentials"))

		return nil, domainerrors.ErrAuthenticationFailed
	}
	if !user.Enabled {
		return nil, domainerrors.ErrAccountDisabled
	}

	accessToken, err := srv.tokenService.GenerateToken(user)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate access token")
	}
	refreshToken, err := srv.tokenService.GenerateRefreshToken(user)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate refresh token")
	}

	if err := srv.replaceSession(ctx, user, accessToken); err != nil {
		return nil, err
	}

	srv.log(ctx).Info("User logged in", slog.Any("userID", user.ID))

	return &usecase.TokenPairOutput{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func (srv *authService) timingHash() string {
	srv.dummyHashOnce.Do(func() {
		hash, err := srv.hasher.Hash(dummyPassword)
		if err != nil {
			srv.logger.Warn("Failed to prepare dummy password hash", slog.Any("error", err))

			return
		}
		srv.dummyHash = hash
	})

	return srv.dummyHash
}

// replaceSession deletes every session token of user and records accessToken as the only one.
// The row lock on the user serializes concurrent logins of the same account.
func (srv *authService) replaceSession(ctx context.Context, user *entity.User, accessToken string) error {
	err := srv.txManager.Execute(ctx, func(repos repository.RepositoryFactory) error {
		if err := repos.UserRepo().AcquireSessionMutex(ctx, user.ID); err != nil {
			return translateUserError(err)
		}

		sessionRepo := repos.SessionTokenRepo()
		if err := sessionRepo.DeleteByUserID(ctx, user.ID); err != nil {
			return errors.Wrap(err, "failed to revoke session tokens")
		}

		return sessionRepo.Create(ctx, &entity.SessionToken{
			ID:        uuid.New(),
			Token:     accessToken,
			TokenType: entity.TokenTypeBearer,
			UserID:    user.ID,
			CreatedAt: srv.now(),
		})
	})
	if err != nil {
		srv.log(ctx).Error("Failed to replace session", slog.Any("userID", user.ID), slog.Any("error", err))

		return errors.Wrap(err, "failed to replace session")
	}

	return nil
}

// RefreshToken never reports why a refresh token was unusable, it only declines to answer.
func (srv *authService) RefreshToken(ctx context.Context, authorizationHeader string) (*usecase.TokenPairOutput, error) {
	if !strings.HasPrefix(authorizationHeader, bearerPrefix) {
		return nil, nil
	}
	refreshToken := strings.TrimPrefix(authorizationHeader, bearerPrefix)

	email, err := srv.tokenService.ExtractUsername(refreshToken)
	if err != nil || email == "" {
		srv.log(ctx).Warn("Refresh declined", slog.String("reason", "unreadable token"))

		return nil, nil
	}

	user, err := srv.userRepo.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrUserNotFound) {
		srv.log(ctx).Warn("Refresh declined", slog.String("reason", "unknown subject"))

		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find user by email")
	}

	if !srv.tokenService.IsTokenValid(refreshToken, user) {
		srv.log(ctx).Warn("Refresh declined", slog.String("reason", "invalid token"), slog.Any("userID", user.ID))

		return nil, nil
	}
	claims, err := srv.tokenService.ParseToken(refreshToken)
	if err != nil || claims.Type != service.TokenTypeRefresh {
		srv.log(ctx).Warn("Refresh declined", slog.String("reason", "not a refresh token"), slog.Any("userID", user.ID))

		return nil, nil
	}
	if !user.Enabled {
		srv.log(ctx).Warn("Refresh declined", slog.String("reason", "account disabled"), slog.Any("userID", user.ID))

		return nil, nil
	}

	accessToken, err := srv.tokenService.GenerateToken(user)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate access token")
	}
	if err := srv.replaceSession(ctx, user, accessToken); err != nil {
		return nil, err
	}

	return &usecase.TokenPairOutput{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// VerifyAccount enables the owner of token and consumes all of their verification tokens.
func (srv *authService) VerifyAccount(ctx context.Context, token string) error {
	verification, err := srv.verificationRepo.FindByToken(ctx, token)
	if errors.Is(err, repository.ErrVerificationTokenNotFound) {
		return domainerrors.ErrVerificationTokenNotFound
	}
	if err != nil {
		return errors.Wrap(err, "failed to find verification token")
	}

	err = srv.txManager.Execute(ctx, func(repos repository.RepositoryFactory) error {
		userRepo := repos.UserRepo()

		user, err := userRepo.FindByID(ctx, verification.UserID)
		if err != nil {
			return translateUserError(err)
		}

		user.Enabled = true
		user.Touch(entity.AnonymousAuditor, srv.now())
		if err := userRepo.Update(ctx, user); err != nil {
			return translateUserError(err)
		}

		return repos.VerificationTokenRepo().DeleteByUserID(ctx, user.ID)
	})
	if err != nil {
		return err
	}

	srv.log(ctx).Info("Account activated", slog.Any("userID", verification.UserID))

	return nil
}

// ForgetPassword mails a password reset token to the owner of email.
func (srv *authService) ForgetPassword(ctx context.Context, email string) error {
	user, err := srv.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return translateUserError(err)
	}

	var token string
	err = srv.txManager.Execute(ctx, func(repos repository.RepositoryFactory) error {
		var err error
		token, err = srv.generateVerificationToken(ctx, repos.VerificationTokenRepo(), user)

		return err
	})
	if err != nil {
		return err
	}

	srv.dispatch(ctx, entity.Notification{
		Subject:   subjectForgetPassword,
		Recipient: user.Email,
		Body:      "Please copy this token = " + token,
	})

	return nil
}

// ResetPassword sets a new password with a verification token that has not expired.
// The token is consumed and every session of the user ends.
func (srv *authService) ResetPassword(ctx context.Context, input usecase.ResetPasswordInput) error {
	verification, err := srv.verificationRepo.FindByToken(ctx, input.Token)
	if errors.Is(err, repository.ErrVerificationTokenNotFound) {
		return domainerrors.ErrVerificationTokenNotFound
	}
	if err != nil {
		return errors.Wrap(err, "failed to find verification token")
	}

	now := srv.now()
	if verification.IsExpired(now) {
		return domainerrors.ErrVerificationTokenExpired
	}

	if err := srv.hasher.ValidatePasswordStrength(input.NewPassword); err != nil {
		return err
	}
	hashedPassword, err := srv.hasher.Hash(input.NewPassword)
	if err != nil {
		return domainerrors.ErrPasswordHashFailed.WithDetails(err.Error())
	}

	err = srv.txManager.Execute(ctx, func(repos repository.RepositoryFactory) error {
		userRepo := repos.UserRepo()

		user, err := userRepo.FindByID(ctx, verification.UserID)
		if err != nil {
			return translateUserError(err)
		}

		user.PasswordHash = hashedPassword
		user.Touch(entity.AnonymousAuditor, now)
		if err := userRepo.Update(ctx, user); err != nil {
			return translateUserError(err)
		}

		if err := repos.VerificationTokenRepo().DeleteByUserID(ctx, user.ID); err != nil {
			return err
		}

		return repos.SessionTokenRepo().DeleteByUserID(ctx, user.ID)
	})
	if err != nil {
		return err
	}

	srv.log(ctx).Info("Password reset", slog.Any("userID", verification.UserID))

	return nil
}

// Logout ends every session of the caller.
func (srv *authService) Logout(ctx context.Context, principal *entity.Principal) error {
	if err := requirePrincipal(principal); err != nil {
		return err
	}

	if err := srv.sessionRepo.DeleteByUserID(ctx, principal.UserID); err != nil {
		return errors.Wrap(err, "failed to revoke session tokens")
	}

	return nil
}

// ResolvePrincipal accepts only access tokens that are recorded, active and owned by an enabled user.
func (srv *authService) ResolvePrincipal(ctx context.Context, accessToken string) (*entity.Principal, error) {
	claims, err := srv.tokenService.ParseToken(accessToken)
	if err != nil {
		return nil, domainerrors.ErrUnauthorized.WithDetails("invalid token")
	}
	if claims.Type != service.TokenTypeAccess {
		return nil, domainerrors.ErrUnauthorized.WithDetails("not an access token")
	}

	user, err := srv.userRepo.FindByEmail(ctx, claims.Subject)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, domainerrors.ErrUnauthorized.WithDetails("unknown subject")
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find user by email")
	}
	if !user.Enabled {
		return nil, domainerrors.ErrAccountDisabled
	}

	session, err := srv.sessionRepo.FindByToken(ctx, accessToken)
	if errors.Is(err, repository.ErrSessionTokenNotFound) {
		return nil, domainerrors.ErrUnauthorized.WithDetails("session not found")
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find session token")
	}
	if !session.IsActive() || session.UserID != user.ID {
		return nil, domainerrors.ErrUnauthorized.WithDetails("session revoked")
	}

	return entity.NewPrincipal(user), nil
}

func (srv *authService) dispatch(ctx context.Context, n entity.Notification) {
	n.RequestID = deliverycontext.GetRequestIDFromContext(ctx)
	srv.dispatcher.Dispatch(ctx, n)
}
