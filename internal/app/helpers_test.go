package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"anonchat/internal/model"
	"anonchat/internal/repository"
)

func setupStore(t *testing.T) *repository.GormUserRepository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	store := repository.NewGormUserRepository(db)
	require.NoError(t, store.Migrate())
	return store
}

type sentEmail struct {
	Email    string
	Username string
	Code     string
}

type fakeMailer struct {
	sent []sentEmail
	err  error
}

func (m *fakeMailer) SendVerificationEmail(_ context.Context, email, username, code string) error {
	m.sent = append(m.sent, sentEmail{Email: email, Username: username, Code: code})
	return m.err
}

func seedUser(t *testing.T, store *repository.GormUserRepository, user *model.User) *model.User {
	t.Helper()
	if user.PasswordHash == "" {
		user.PasswordHash = "seed-hash"
	}
	require.NoError(t, store.Create(context.Background(), user))
	return user
}
