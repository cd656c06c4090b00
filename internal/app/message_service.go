package app

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"anonchat/internal/model"
	"anonchat/internal/repository"
)

var (
	ErrMessageEmpty         = errors.New("message content is empty")
	ErrNotAcceptingMessages = errors.New("user is not accepting messages")
	ErrMessageEnqueue       = errors.New("message enqueue failed")
)

type DeliveryPublisher interface {
	Publish(ctx context.Context, delivery model.MessageDelivery) error
}

type InboxCache interface {
	GetInbox(ctx context.Context, username string) ([]model.Message, bool, error)
	SetInbox(ctx context.Context, username string, messages []model.Message) error
	Invalidate(ctx context.Context, username string) error
	MarkDirty(ctx context.Context, username string) error
	IsDirty(ctx context.Context, username string) (bool, error)
}

type MessageService struct {
	users      UserStore
	publisher  DeliveryPublisher
	inboxCache InboxCache

	now func() time.Time
}

type SendMessageInput struct {
	Username string
	Content  string
}

func NewMessageService(users UserStore, publisher DeliveryPublisher, inboxCache InboxCache) *MessageService {
	return &MessageService{
		users:      users,
		publisher:  publisher,
		inboxCache: inboxCache,
		now:        time.Now,
	}
}

// SendMessage queues an anonymous message for the recipient's inbox.
func (s *MessageService) SendMessage(ctx context.Context, input SendMessageInput) error {
	username := strings.TrimSpace(input.Username)
	if username == "" {
		return ErrInvalidInput
	}
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return ErrMessageEmpty
	}

	recipient, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	if recipient == nil {
		return ErrUserNotFound
	}
	if !recipient.IsAcceptingMessages {
		return ErrNotAcceptingMessages
	}

	if s.publisher == nil {
		return ErrMessageEnqueue
	}
	if s.inboxCache != nil {
		if err := s.inboxCache.MarkDirty(ctx, username); err != nil {
			slog.WarnContext(ctx, "mark inbox dirty failed", "username", username, "error", err)
		}
	}
	if err := s.publisher.Publish(ctx, model.MessageDelivery{
		Username:  username,
		Content:   content,
		CreatedAt: s.now(),
	}); err != nil {
		slog.ErrorContext(ctx, "publish message delivery failed", "username", username, "error", err)
		return ErrMessageEnqueue
	}
	return nil
}

// GetMessages returns the inbox of username, newest first.
func (s *MessageService) GetMessages(ctx context.Context, username string, limit int) ([]model.Message, error) {
	if strings.TrimSpace(username) == "" {
		return nil, ErrInvalidInput
	}

	if s.inboxCache != nil {
		dirty, err := s.inboxCache.IsDirty(ctx, username)
		if err == nil && !dirty {
			if cached, hit, cacheErr := s.inboxCache.GetInbox(ctx, username); cacheErr == nil && hit {
				return trimMessages(cached, limit), nil
			}
		}
	}

	messages, err := s.users.ListMessages(ctx, username, 0)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if s.inboxCache != nil {
		if dirty, dirtyErr := s.inboxCache.IsDirty(ctx, username); dirtyErr == nil && !dirty {
			_ = s.inboxCache.SetInbox(ctx, username, messages)
		}
	}
	return trimMessages(messages, limit), nil
}

func (s *MessageService) AcceptingMessages(ctx context.Context, username string) (bool, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return false, err
	}
	if user == nil {
		return false, ErrUserNotFound
	}
	return user.IsAcceptingMessages, nil
}

func (s *MessageService) SetAcceptingMessages(ctx context.Context, username string, accepting bool) error {
	if strings.TrimSpace(username) == "" {
		return ErrInvalidInput
	}
	if err := s.users.SetAcceptingMessages(ctx, username, accepting); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

// trimMessages keeps the newest limit entries of a newest-first list.
func trimMessages(messages []model.Message, limit int) []model.Message {
	if limit <= 0 || limit >= len(messages) {
		return messages
	}
	return messages[:limit]
}
