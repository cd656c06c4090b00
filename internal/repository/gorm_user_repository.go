package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"anonchat/internal/model"
)

type GormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// Migrate creates or updates the users and messages tables.
func (r *GormUserRepository) Migrate() error {
	if err := r.db.AutoMigrate(&model.User{}, &model.Message{}); err != nil {
		return fmt.Errorf("auto migrate tables failed: %w", err)
	}
	return nil
}

func (r *GormUserRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (r *GormUserRepository) Create(ctx context.Context, user *model.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("create user failed: %w", err)
	}
	return nil
}

// Save writes every scalar column of user. Embedded messages are left untouched.
func (r *GormUserRepository) Save(ctx context.Context, user *model.User) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(user).Error; err != nil {
		return fmt.Errorf("save user failed: %w", err)
	}
	return nil
}

func (r *GormUserRepository) GetVerifiedByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.first(ctx, "query verified user by username", "username = ? AND is_verified = ?", username, true)
}

func (r *GormUserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.first(ctx, "query user by username", "username = ?", username)
}

func (r *GormUserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.first(ctx, "query user by email", "email = ?", email)
}

func (r *GormUserRepository) SetAcceptingMessages(ctx context.Context, username string, accepting bool) error {
	res := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("username = ?", username).
		Update("is_accepting_messages", accepting)
	if res.Error != nil {
		return fmt.Errorf("update accepting messages failed: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormUserRepository) AppendMessage(ctx context.Context, username string, message *model.Message) error {
	user, err := r.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrNotFound
	}

	message.UserID = user.ID
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}
	if err := r.db.WithContext(ctx).Create(message).Error; err != nil {
		return fmt.Errorf("append message failed: %w", err)
	}
	return nil
}

// ListMessages returns the inbox of username, newest first.
func (r *GormUserRepository) ListMessages(ctx context.Context, username string, limit int) ([]model.Message, error) {
	user, err := r.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}

	messages := make([]model.Message, 0)
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", user.ID).
		Order("created_at DESC, id DESC").
		Limit(normalizeLimit(limit)).
		Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("list messages failed: %w", err)
	}
	return messages, nil
}

func (r *GormUserRepository) ClearExpiredCodes(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("verify_code <> '' AND verify_code_expiry < ?", now).
		Update("verify_code", "")
	if res.Error != nil {
		return 0, fmt.Errorf("clear expired codes failed: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *GormUserRepository) first(ctx context.Context, action string, query string, args ...any) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where(query, args...).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s failed: %w", action, err)
	}
	return &user, nil
}
