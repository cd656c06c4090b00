package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"anonchat/internal/model"
)

func setupSQLiteRepo(t *testing.T) *GormUserRepository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	repo := NewGormUserRepository(db)
	require.NoError(t, repo.Migrate())
	return repo
}

func newUser(verified bool) *model.User {
	return &model.User{
		Username:            gofakeit.Username(),
		Email:               gofakeit.Email(),
		PasswordHash:        "hash",
		VerifyCode:          "123456",
		VerifyCodeExpiry:    time.Now().UTC().Add(time.Hour),
		IsVerified:          verified,
		IsAcceptingMessages: true,
	}
}

func TestGormUserRepository_Lookups(t *testing.T) {
	repo := setupSQLiteRepo(t)
	ctx := context.Background()

	unverified := newUser(false)
	verified := newUser(true)
	require.NoError(t, repo.Create(ctx, unverified))
	require.NoError(t, repo.Create(ctx, verified))

	t.Run("verified lookup ignores unverified users", func(t *testing.T) {
		got, err := repo.GetVerifiedByUsername(ctx, unverified.Username)
		require.NoError(t, err)
		assert.Nil(t, got)

		got, err = repo.GetVerifiedByUsername(ctx, verified.Username)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, verified.Email, got.Email)
	})

	t.Run("email lookup returns any user", func(t *testing.T) {
		got, err := repo.GetByEmail(ctx, unverified.Email)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, unverified.Username, got.Username)
		assert.False(t, got.IsVerified)
	})

	t.Run("missing user is nil without error", func(t *testing.T) {
		got, err := repo.GetByUsername(ctx, "nobody_here")
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestGormUserRepository_UniqueEmail(t *testing.T) {
	repo := setupSQLiteRepo(t)
	ctx := context.Background()

	first := newUser(false)
	require.NoError(t, repo.Create(ctx, first))

	dup := newUser(false)
	dup.Email = first.Email
	assert.Error(t, repo.Create(ctx, dup))
}

func TestGormUserRepository_Save(t *testing.T) {
	repo := setupSQLiteRepo(t)
	ctx := context.Background()

	user := newUser(false)
	require.NoError(t, repo.Create(ctx, user))
	require.NoError(t, repo.AppendMessage(ctx, user.Username, &model.Message{Content: "hello"}))

	user.PasswordHash = "new-hash"
	user.VerifyCode = "654321"
	require.NoError(t, repo.Save(ctx, user))

	got, err := repo.GetByEmail(ctx, user.Email)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "new-hash", got.PasswordHash)
	assert.Equal(t, "654321", got.VerifyCode)

	messages, err := repo.ListMessages(ctx, user.Username, 0)
	require.NoError(t, err)
	assert.Len(t, messages, 1, "save must not touch the inbox")
}

func TestGormUserRepository_Messages(t *testing.T) {
	repo := setupSQLiteRepo(t)
	ctx := context.Background()

	user := newUser(true)
	require.NoError(t, repo.Create(ctx, user))

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, content := range []string{"first", "second", "third"} {
		require.NoError(t, repo.AppendMessage(ctx, user.Username, &model.Message{
			Content:   content,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	messages, err := repo.ListMessages(ctx, user.Username, 2)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "third", messages[0].Content)
	assert.Equal(t, "second", messages[1].Content)

	err = repo.AppendMessage(ctx, "ghost", &model.Message{Content: "lost"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.ListMessages(ctx, "ghost", 10)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGormUserRepository_SetAcceptingMessages(t *testing.T) {
	repo := setupSQLiteRepo(t)
	ctx := context.Background()

	user := newUser(true)
	require.NoError(t, repo.Create(ctx, user))

	require.NoError(t, repo.SetAcceptingMessages(ctx, user.Username, false))
	got, err := repo.GetByUsername(ctx, user.Username)
	require.NoError(t, err)
	assert.False(t, got.IsAcceptingMessages)

	assert.ErrorIs(t, repo.SetAcceptingMessages(ctx, "ghost", true), ErrNotFound)
}

func TestGormUserRepository_ClearExpiredCodes(t *testing.T) {
	repo := setupSQLiteRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	expired := newUser(false)
	expired.VerifyCodeExpiry = now.Add(-time.Minute)
	fresh := newUser(false)
	fresh.VerifyCodeExpiry = now.Add(time.Hour)
	require.NoError(t, repo.Create(ctx, expired))
	require.NoError(t, repo.Create(ctx, fresh))

	n, err := repo.ClearExpiredCodes(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := repo.GetByEmail(ctx, expired.Email)
	require.NoError(t, err)
	assert.Empty(t, got.VerifyCode)

	got, err = repo.GetByEmail(ctx, fresh.Email)
	require.NoError(t, err)
	assert.Equal(t, "123456", got.VerifyCode)
}

func TestGormUserRepository_DriverErrorIsWrapped(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(mysql.New(mysql.Config{Conn: sqlDB, SkipInitializeWithVersion: true}), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)

	driverErr := errors.New("connection reset")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `users` WHERE email = ?")).
		WillReturnError(driverErr)

	repo := NewGormUserRepository(db)
	got, err := repo.GetByEmail(context.Background(), "a@b.co")
	assert.Nil(t, got)
	assert.ErrorIs(t, err, driverErr)
	assert.Contains(t, err.Error(), "query user by email failed")
	assert.NoError(t, mock.ExpectationsWereMet())
}
