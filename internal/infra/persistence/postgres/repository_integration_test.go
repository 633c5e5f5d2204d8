//go:build integration

package postgres

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"smartblog/internal/domain/entity"
	"smartblog/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testDB *gorm.DB

func TestMain(m *testing.M) {
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("smartblog"),
		tcpostgres.WithUsername("user"),
		tcpostgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			// The image restarts once after initdb, so readiness is logged twice.
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		log.Fatalf("failed to start container: %s", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		log.Fatalf("failed to obtain connection string: %s", err)
	}

	testDB, err = gorm.Open(gormpostgres.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		log.Fatalf("failed to connect to postgres container: %s", err)
	}
	if err := Migrate(ctx, testDB); err != nil {
		log.Fatalf("failed to migrate: %s", err)
	}

	code := m.Run()

	if err := container.Terminate(ctx); err != nil {
		log.Printf("failed to terminate container: %s", err)
	}
	os.Exit(code)
}

func seedUser(t *testing.T, name string) *entity.User {
	t.Helper()

	now := time.Now().UTC().Truncate(time.Microsecond)
	user := &entity.User{
		ID:           uuid.New(),
		FirstName:    "First",
		LastName:     "Last",
		UserName:     name,
		Email:        name + "@x.com",
		PasswordHash: "hash",
		Role:         entity.RoleUser,
		MemberSince:  now,
	}
	user.Touch(entity.AnonymousAuditor, now)
	require.NoError(t, NewUserRepository(testDB).Create(context.Background(), user))

	return user
}

func TestUserRepository_UniqueConflicts(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(testDB)
	bob := seedUser(t, "bob-"+uuid.NewString()[:8])

	sameName := *bob
	sameName.ID = uuid.New()
	sameName.Email = "other-" + bob.Email
	assert.ErrorIs(t, repo.Create(ctx, &sameName), repository.ErrUserNameConflict)

	sameEmail := *bob
	sameEmail.ID = uuid.New()
	sameEmail.UserName = "other-" + bob.UserName
	assert.ErrorIs(t, repo.Create(ctx, &sameEmail), repository.ErrEmailConflict)
}

func TestUserRepository_UpdateAndFind(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(testDB)
	user := seedUser(t, "alice-"+uuid.NewString()[:8])

	user.Enabled = true
	user.Role = entity.RoleAdmin
	require.NoError(t, repo.Update(ctx, user))

	found, err := repo.FindByEmail(ctx, user.Email)
	require.NoError(t, err)
	assert.True(t, found.Enabled)
	assert.Equal(t, entity.RoleAdmin, found.Role)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, repository.ErrUserNotFound)

	missing := *user
	missing.ID = uuid.New()
	assert.ErrorIs(t, repo.Update(ctx, &missing), repository.ErrUserNotFound)
}

func TestUserRepository_DeleteCascades(t *testing.T) {
	ctx := context.Background()
	user := seedUser(t, "carol-"+uuid.NewString()[:8])

	post := &entity.Post{ID: uuid.New(), Text: "hello", UserID: user.ID}
	post.Touch(user.Email, time.Now())
	require.NoError(t, NewPostRepository(testDB).Create(ctx, post))
	require.NoError(t, NewSessionTokenRepository(testDB).Create(ctx, &entity.SessionToken{Token: uuid.NewString(), UserID: user.ID}))
	require.NoError(t, NewVerificationTokenRepository(testDB).Create(ctx, &entity.VerificationToken{
		Token:     uuid.NewString(),
		ExpiresAt: time.Now().Add(time.Minute),
		UserID:    user.ID,
	}))

	require.NoError(t, NewUserRepository(testDB).Delete(ctx, user.ID))

	_, err := NewPostRepository(testDB).FindByID(ctx, post.ID)
	assert.ErrorIs(t, err, repository.ErrPostNotFound)
	tokens, err := NewSessionTokenRepository(testDB).FindByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, tokens)
}

func TestTransactionManager_SessionLedgerReplacement(t *testing.T) {
	ctx := context.Background()
	user := seedUser(t, "dave-"+uuid.NewString()[:8])
	tm := NewTransactionManager(testDB)

	for _, token := range []string{"first-" + user.UserName, "second-" + user.UserName} {
		err := tm.Execute(ctx, func(repos repository.RepositoryFactory) error {
			if err := repos.UserRepo().AcquireSessionMutex(ctx, user.ID); err != nil {
				return err
			}
			if err := repos.SessionTokenRepo().DeleteByUserID(ctx, user.ID); err != nil {
				return err
			}

			return repos.SessionTokenRepo().Create(ctx, &entity.SessionToken{Token: token, UserID: user.ID})
		})
		require.NoError(t, err)
	}

	tokens, err := NewSessionTokenRepository(testDB).FindByUserID(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, "second-"+user.UserName, tokens[0].Token)

	_, err = NewSessionTokenRepository(testDB).FindByToken(ctx, "first-"+user.UserName)
	assert.ErrorIs(t, err, repository.ErrSessionTokenNotFound)
}

func TestTransactionManager_RollbackOnError(t *testing.T) {
	ctx := context.Background()
	user := seedUser(t, "erin-"+uuid.NewString()[:8])
	boom := errors.New("boom")

	err := NewTransactionManager(testDB).Execute(ctx, func(repos repository.RepositoryFactory) error {
		if err := repos.SessionTokenRepo().Create(ctx, &entity.SessionToken{Token: "rolled-back-" + user.UserName, UserID: user.ID}); err != nil {
			return err
		}

		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = NewSessionTokenRepository(testDB).FindByToken(ctx, "rolled-back-"+user.UserName)
	assert.ErrorIs(t, err, repository.ErrSessionTokenNotFound)
}

func TestVerificationTokenRepository_DeleteExpired(t *testing.T) {
	ctx := context.Background()
	repo := NewVerificationTokenRepository(testDB)
	user := seedUser(t, "frank-"+uuid.NewString()[:8])
	now := time.Now().UTC()

	expired := &entity.VerificationToken{Token: uuid.NewString(), ExpiresAt: now.Add(-time.Minute), UserID: user.ID}
	live := &entity.VerificationToken{Token: uuid.NewString(), ExpiresAt: now.Add(time.Hour), UserID: user.ID}
	require.NoError(t, repo.Create(ctx, expired))
	require.NoError(t, repo.Create(ctx, live))

	removed, err := repo.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, removed, int64(1))

	_, err = repo.FindByToken(ctx, expired.Token)
	assert.ErrorIs(t, err, repository.ErrVerificationTokenNotFound)
	_, err = repo.FindByToken(ctx, live.Token)
	assert.NoError(t, err)
}

func TestPostRepository_ListNewestFirstWithAuthor(t *testing.T) {
	ctx := context.Background()
	repo := NewPostRepository(testDB)
	user := seedUser(t, "gina-"+uuid.NewString()[:8])
	base := time.Now().UTC()

	for i, text := range []string{"older", "newer"} {
		post := &entity.Post{ID: uuid.New(), Text: text, UserID: user.ID}
		post.Touch(user.Email, base.Add(time.Duration(i)*time.Second))
		require.NoError(t, repo.Create(ctx, post))
	}

	posts, total, err := repo.ListByUserID(ctx, user.ID, entity.PageRequest{Page: 0, Size: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, posts, 2)
	assert.Equal(t, "newer", posts[0].Text)
	require.NotNil(t, posts[0].Author)
	assert.Equal(t, user.UserName, posts[0].Author.UserName)

	owner, err := repo.FindOwnerID(ctx, posts[1].ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, owner)
}
