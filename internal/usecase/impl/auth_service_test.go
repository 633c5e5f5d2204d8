package impl

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"smartblog/config"
	deliverycontext "smartblog/internal/delivery/context"
	"smartblog/internal/domain/entity"
	domainerrors "smartblog/internal/domain/errors"
	"smartblog/internal/domain/service"
	"smartblog/internal/infra/auth"
	"smartblog/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	testPassword        = "Sup3r-secret"
	testVerificationURL = "http://localhost:8080/api/v1/auth/accountVerification/"
)

type authFixture struct {
	store      *memStore
	dispatcher *recordingDispatcher
	tokens     service.TokenService
	hasher     service.PasswordHasher
	srv        *authService
	now        time.Time
}

func newTestConfig() *config.Config {
	return &config.Config{
		SecretKey: config.SecretKeyConfig{JWT: "test-secret-key-with-enough-entropy"},
		Auth: &config.AuthConfig{
			BcryptCost:      bcrypt.MinCost,
			VerificationTTL: 24 * time.Hour,
		},
		Mail: &config.MailConfig{VerificationURL: testVerificationURL},
	}
}

func newAuthFixture(t *testing.T, cfg *config.Config) *authFixture {
	t.Helper()

	tokens, err := auth.NewJWTService(cfg)
	require.NoError(t, err)

	f := &authFixture{
		store:      newMemStore(),
		dispatcher: &recordingDispatcher{},
		tokens:     tokens,
		hasher:     auth.NewBcryptHasher(cfg),
		now:        time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	f.srv = newAuthService(AuthServiceParams{
		TxManager:        &memTxManager{store: f.store},
		UserRepo:         &memUserRepo{store: f.store},
		SessionRepo:      &memSessionRepo{store: f.store},
		VerificationRepo: &memVerificationRepo{store: f.store},
		Hasher:           f.hasher,
		TokenService:     tokens,
		Dispatcher:       f.dispatcher,
		Config:           cfg,
		Logger:           newDiscardLogger(),
	})
	f.srv.now = func() time.Time { return f.now }

	return f
}

func registerInput(userName, email string) usecase.RegisterInput {
	return usecase.RegisterInput{
		FirstName: "Ada",
		LastName:  "Lovelace",
		UserName:  userName,
		Email:     email,
		Password:  testPassword,
	}
}

// seedUser stores an account directly, bypassing registration.
func (f *authFixture) seedUser(t *testing.T, email string, enabled bool) *entity.User {
	t.Helper()

	hash, err := f.hasher.Hash(testPassword)
	require.NoError(t, err)

	user := &entity.User{
		ID:           uuid.New(),
		FirstName:    "Grace",
		LastName:     "Hopper",
		UserName:     strings.Split(email, "@")[0],
		Email:        email,
		PasswordHash: hash,
		Role:         entity.RoleUser,
		Enabled:      enabled,
		MemberSince:  f.now,
	}
	user.Touch(entity.AnonymousAuditor, f.now)
	f.store.putUser(user)

	return user
}

func (f *authFixture) login(t *testing.T, email string) *usecase.TokenPairOutput {
	t.Helper()

	pair, err := f.srv.Authenticate(context.Background(), usecase.LoginInput{Email: email, Password: testPassword})
	require.NoError(t, err)
	require.NotNil(t, pair)

	return pair
}

func TestAuthService_Register(t *testing.T) {
	f := newAuthFixture(t, newTestConfig())
	ctx := deliverycontext.WithRequestID(context.Background(), "req-42")

	user, err := f.srv.Register(ctx, registerInput("ada", "ada@example.com"))
	require.NoError(t, err)

	assert.False(t, user.Enabled)
	assert.Equal(t, entity.RoleUser, user.Role)
	assert.Equal(t, entity.AnonymousAuditor, user.CreatedBy)
	assert.Equal(t, f.now, user.MemberSince)
	assert.True(t, f.hasher.Check(testPassword, user.PasswordHash))

	stored := f.store.userByID(user.ID)
	require.NotNil(t, stored)
	assert.False(t, stored.Enabled)

	tokens := f.store.verificationsOf(user.ID)
	require.Len(t, tokens, 1)
	assert.Equal(t, f.now.Add(24*time.Hour), tokens[0].ExpiresAt)

	sent := f.dispatcher.notifications()
	require.Len(t, sent, 1)
	assert.Equal(t, "Please Activate your Account", sent[0].Subject)
	assert.Equal(t, "ada@example.com", sent[0].Recipient)
	assert.Contains(t, sent[0].Body, testVerificationURL+tokens[0].Token)
	assert.Equal(t, "req-42", sent[0].RequestID)
}

func TestAuthService_Register_Conflicts(t *testing.T) {
	f := newAuthFixture(t, newTestConfig())
	ctx := context.Background()

	_, err := f.srv.Register(ctx, registerInput("ada", "ada@example.com"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		input usecase.RegisterInput
		want  error
	}{
		{name: "user name taken", input: registerInput("ada", "other@example.com"), want: domainerrors.ErrUserNameTaken},
		{name: "email taken", input: registerInput("other", "ada@example.com"), want: domainerrors.ErrEmailTaken},
		{name: "both taken reports user name", input: registerInput("ada", "ada@example.com"), want: domainerrors.ErrUserNameTaken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.srv.Register(ctx, tt.input)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	assert.Len(t, f.dispatcher.notifications(), 1)
}

func TestAuthService_Register_RollsBackWhenTokenFails(t *testing.T) {
	f := newAuthFixture(t, newTestConfig())
	f.store.failVerificationCreate = true

	_, err := f.srv.Register(context.Background(), registerInput("ada", "ada@example.com"))
	require.Error(t, err)

	_, err = f.srv.userRepo.FindByEmail(context.Background(), "ada@example.com")
	assert.Error(t, err)
	assert.Empty(t, f.dispatcher.notifications())
}

func TestAuthService_Register_WeakPassword(t *testing.T) {
	cfg := newTestConfig()
	cfg.PasswordStrength = &config.PasswordStrengthConfig{MinLength: 12}
	f := newAuthFixture(t, cfg)

	_, err := f.srv.Register(context.Background(), registerInput("ada", "ada@example.com"))
	assert.ErrorIs(t, err, domainerrors.ErrPasswordStrength)
}

func TestAuthService_Authenticate_Failures(t *testing.T) {
	f := newAuthFixture(t, newTestConfig())
	f.seedUser(t, "enabled@example.com", true)
	f.seedUser(t, "disabled@example.com", false)
	ctx := context.Background()

	_, err := f.srv.Authenticate(ctx, usecase.LoginInput{Email: "nobody@example.com", Password: testPassword})
	assert.ErrorIs(t, err, domainerrors.ErrAuthenticationFailed)

	_, err = f.srv.Authenticate(ctx, usecase.LoginInput{Email: "enabled@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, domainerrors.ErrAuthenticationFailed)

	_, err = f.srv.Authenticate(ctx, usecase.LoginInput{Email: "disabled@example.com", Password: testPassword})
	assert.ErrorIs(t, err, domainerrors.ErrAccountDisabled)

	// A disabled account with a wrong password looks like any other bad credential.
	_, err = f.srv.Authenticate(ctx, usecase.LoginInput{Email: "disabled@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, domainerrors.ErrAuthenticationFailed)
}

func TestAuthService_Authenticate_ReplacesSession(t *testing.T) {
	f := newAuthFixture(t, newTestConfig())
	user := f.seedUser(t, "grace@example.com", true)
	ctx := context.Background()

	first := f.login(t, "grace@example.com")
	second := f.login(t, "grace@example.com")
	assert.NotEqual(t, first.AccessToken, second.AccessToken)

	sessions := f.store.sessionsOf(user.ID)
	require.Len(t, sessions, 1)
	assert.Equal(t, second.AccessToken, sessions[0].Token)
	assert.Equal(t, entity.TokenTypeBearer, sessions[0].TokenType)

	_, err := f.srv.ResolvePrincipal(ctx, first.AccessToken)
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)

	principal, err := f.srv.ResolvePrincipal(ctx, second.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, principal.UserID)
	assert.Equal(t, user.Email, principal.Email)
}

func TestAuthService_Authenticate_ConcurrentLogins(t *testing.T) {
	f := newAuthFixture(t, newTestConfig())
	user := f.seedUser(t, "grace@example.com", true)

	const logins = 8
	var wg sync.WaitGroup
	errs := make(chan error, logins)
	for range logins {
		wg.Add(1)
		go func() {
			defer wg.Done()

			_, err := f.srv.Authenticate(context.Background(), usecase.LoginInput{Email: user.Email, Password: testPassword})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	assert.Len(t, f.store.sessionsOf(user.ID), 1)
}

func TestAuthService_RefreshToken(t *testing.T) {
	f := newAuthFixture(t, newTestConfig())
	user := f.seedUser(t, "grace@example.com", true)
	ctx := context.Background()
	pair := f.login(t, user.Email)

	t.Run("missing header is ignored", func(t *testing.T) {
		out, err := f.srv.RefreshToken(ctx, "")
		require.NoError(t, err)
		assert.Nil(t, out)
	})

	t.Run("non bearer header is ignored", func(t *testing.T) {
		out, err := f.srv.RefreshToken(ctx, "Basic "+pair.RefreshToken)
		require.NoError(t, err)
		assert.Nil(t, out)
	})

	t.Run("garbage token is ignored", func(t *testing.T) {
		out, err := f.srv.RefreshToken(ctx, "Bearer not-a-token")
		require.NoError(t, err)
		assert.Nil(t, out)
	})

	t.Run("access token is not a refresh token", func(t *testing.T) {
		out, err := f.srv.RefreshToken(ctx, "Bearer "+pair.AccessToken)
		require.NoError(t, err)
		assert.Nil(t, out)
	})

	t.Run("refresh token signed with another key is ignored", func(t *testing.T) {
		cfg := newTestConfig()
		cfg.SecretKey.JWT = "another-secret-key-with-enough-entropy"
		foreign, err := auth.NewJWTService(cfg)
		require.NoError(t, err)
		token, err := foreign.GenerateRefreshToken(user)
		require.NoError(t, err)

		out, err := f.srv.RefreshToken(ctx, "Bearer "+token)
		require.NoError(t, err)
		assert.Nil(t, out)
		assertSingleSession(t, f, user.ID, pair.AccessToken)
	})

	t.Run("expired refresh token is ignored", func(t *testing.T) {
		cfg := newTestConfig()
		cfg.Token = &config.TokenConfig{RefreshTTL: time.Nanosecond}
		shortLived, err := auth.NewJWTService(cfg)
		require.NoError(t, err)
		token, err := shortLived.GenerateRefreshToken(user)
		require.NoError(t, err)

		// exp has second precision.
		time.Sleep(1100 * time.Millisecond)

		out, err := f.srv.RefreshToken(ctx, "Bearer "+token)
		require.NoError(t, err)
		assert.Nil(t, out)
		assertSingleSession(t, f, user.ID, pair.AccessToken)
	})

	t.Run("valid refresh token rotates the access token", func(t *testing.T) {
		out, err := f.srv.RefreshToken(ctx, "Bearer "+pair.RefreshToken)
		require.NoError(t, err)
		require.NotNil(t, out)

		assert.Equal(t, pair.RefreshToken, out.RefreshToken)
		assert.NotEqual(t, pair.AccessToken, out.AccessToken)

		sessions := f.store.sessionsOf(user.ID)
		require.Len(t, sessions, 1)
		assert.Equal(t, out.AccessToken, sessions[0].Token)
	})
}

func assertSingleSession(t *testing.T, f *authFixture, userID uuid.UUID, token string) {
	t.Helper()

	sessions := f.store.sessionsOf(userID)
	require.Len(t, sessions, 1)
	assert.Equal(t, token, sessions[0].Token)
}

func TestAuthService_VerifyAccount(t *testing.T) {
	f := newAuthFixture(t, newTestConfig())
	ctx := context.Background()

	user, err := f.srv.Register(ctx, registerInput("ada", "ada@example.com"))
	require.NoError(t, err)
	token := f.store.verificationsOf(user.ID)[0].Token

	err = f.srv.VerifyAccount(ctx, "unknown")
	assert.ErrorIs(t, err, domainerrors.ErrVerificationTokenNotFound)

	require.NoError(t, f.srv.VerifyAccount(ctx, token))
	assert.True(t, f.store.userByID(user.ID).Enabled)
	assert.Empty(t, f.store.verificationsOf(user.ID))

	// The token is consumed.
	err = f.srv.VerifyAccount(ctx, token)
	assert.ErrorIs(t, err, domainerrors.ErrVerificationTokenNotFound)
}

func TestAuthService_ForgetPassword(t *testing.T) {
	f := newAuthFixture(t, newTestConfig())
	user := f.seedUser(t, "grace@example.com", true)
	ctx := context.Background()

	err := f.srv.ForgetPassword(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, domainerrors.ErrUserNotFound)

	require.NoError(t, f.srv.ForgetPassword(ctx, user.Email))
	require.NoError(t, f.srv.ForgetPassword(ctx, user.Email))

	// Tokens of an enabled account are purged before a new one is issued.
	tokens := f.store.verificationsOf(user.ID)
	require.Len(t, tokens, 1)

	sent := f.dispatcher.notifications()
	require.Len(t, sent, 2)
	assert.Equal(t, "Forget My Password", sent[1].Subject)
	assert.Equal(t, "Please copy this token = "+tokens[0].Token, sent[1].Body)
}

func TestAuthService_ForgetPassword_PendingActivation(t *testing.T) {
	f := newAuthFixture(t, newTestConfig())
	ctx := context.Background()

	user, err := f.srv.Register(ctx, registerInput("ada", "ada@example.com"))
	require.NoError(t, err)
	activation := f.store.verificationsOf(user.ID)[0].Token

	require.NoError(t, f.srv.ForgetPassword(ctx, user.Email))

	// A disabled account keeps its activation token next to the reset token.
	tokens := f.store.verificationsOf(user.ID)
	require.Len(t, tokens, 2)

	require.NoError(t, f.srv.VerifyAccount(ctx, activation))
	assert.True(t, f.store.userByID(user.ID).Enabled)
}

func TestAuthService_ResetPassword(t *testing.T) {
	f := newAuthFixture(t, newTestConfig())
	user := f.seedUser(t, "grace@example.com", true)
	ctx := context.Background()
	pair := f.login(t, user.Email)

	valid := &entity.VerificationToken{ID: uuid.New(), Token: "valid", ExpiresAt: f.now.Add(time.Minute), UserID: user.ID}
	boundary := &entity.VerificationToken{ID: uuid.New(), Token: "boundary", ExpiresAt: f.now, UserID: user.ID}
	f.store.putVerification(valid)
	f.store.putVerification(boundary)

	err := f.srv.ResetPassword(ctx, usecase.ResetPasswordInput{Token: "unknown", NewPassword: "N3w-password"})
	assert.ErrorIs(t, err, domainerrors.ErrVerificationTokenNotFound)

	err = f.srv.ResetPassword(ctx, usecase.ResetPasswordInput{Token: "boundary", NewPassword: "N3w-password"})
	assert.ErrorIs(t, err, domainerrors.ErrVerificationTokenExpired)

	require.NoError(t, f.srv.ResetPassword(ctx, usecase.ResetPasswordInput{Token: "valid", NewPassword: "N3w-password"}))

	stored := f.store.userByID(user.ID)
	assert.True(t, f.hasher.Check("N3w-password", stored.PasswordHash))
	assert.Empty(t, f.store.verificationsOf(user.ID))
	assert.Empty(t, f.store.sessionsOf(user.ID))

	_, err = f.srv.ResolvePrincipal(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)
}

func TestAuthService_Logout(t *testing.T) {
	f := newAuthFixture(t, newTestConfig())
	user := f.seedUser(t, "grace@example.com", true)
	ctx := context.Background()
	pair := f.login(t, user.Email)

	principal, err := f.srv.ResolvePrincipal(ctx, pair.AccessToken)
	require.NoError(t, err)

	require.NoError(t, f.srv.Logout(ctx, principal))
	assert.Empty(t, f.store.sessionsOf(user.ID))

	_, err = f.srv.ResolvePrincipal(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)

	assert.ErrorIs(t, f.srv.Logout(ctx, nil), domainerrors.ErrUnauthorized)
}

func TestAuthService_ResolvePrincipal(t *testing.T) {
	f := newAuthFixture(t, newTestConfig())
	user := f.seedUser(t, "grace@example.com", true)
	ctx := context.Background()
	pair := f.login(t, user.Email)

	_, err := f.srv.ResolvePrincipal(ctx, "garbage")
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)

	_, err = f.srv.ResolvePrincipal(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)

	principal, err := f.srv.ResolvePrincipal(ctx, pair.AccessToken)
	require.NoError(t, err)
	assert.True(t, principal.HasAuthority(entity.PermissionPostCreate.String()))
	assert.False(t, principal.HasAuthority(entity.PermissionUserChangeRole.String()))

	user.Enabled = false
	f.store.putUser(user)

	_, err = f.srv.ResolvePrincipal(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, domainerrors.ErrAccountDisabled)
}
