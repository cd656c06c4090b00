package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"anonchat/internal/model"
	"anonchat/internal/observability"
	"anonchat/internal/platform/rabbitmq"
	"anonchat/internal/repository"
)

type InboxStore interface {
	AppendMessage(ctx context.Context, username string, message *model.Message) error
}

type InboxInvalidator interface {
	Invalidate(ctx context.Context, username string) error
}

var errMalformedDelivery = errors.New("malformed delivery")

// MessageDeliveryWorker drains the delivery queue into user inboxes.
type MessageDeliveryWorker struct {
	conn      *amqp.Connection
	store     InboxStore
	cache     InboxInvalidator
	queueName string

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewMessageDeliveryWorker(conn *amqp.Connection, store InboxStore, cache InboxInvalidator, queueName string) *MessageDeliveryWorker {
	return &MessageDeliveryWorker{
		conn:      conn,
		store:     store,
		cache:     cache,
		queueName: queueName,
	}
}

func (w *MessageDeliveryWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	if err := rabbitmq.DeclareQueue(ch, w.queueName); err != nil {
		_ = ch.Close()
		cancel()
		return err
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}

				if err := w.handle(workerCtx, d.Body); err != nil {
					requeue := !errors.Is(err, errMalformedDelivery) && !errors.Is(err, repository.ErrNotFound) && !d.Redelivered
					slog.ErrorContext(workerCtx, "deliver message failed", "error", err, "requeue", requeue)
					_ = d.Nack(false, requeue)
					continue
				}
				_ = d.Ack(false)
			}
		}
	}()

	return nil
}

// handle appends one queued message to its recipient's inbox.
func (w *MessageDeliveryWorker) handle(ctx context.Context, body []byte) error {
	var delivery model.MessageDelivery
	if err := json.Unmarshal(body, &delivery); err != nil {
		observability.MessageDeliveries.WithLabelValues("malformed").Inc()
		return fmt.Errorf("%w: %v", errMalformedDelivery, err)
	}
	delivery.Username = strings.TrimSpace(delivery.Username)
	if delivery.Username == "" || strings.TrimSpace(delivery.Content) == "" {
		observability.MessageDeliveries.WithLabelValues("malformed").Inc()
		return errMalformedDelivery
	}
	if delivery.CreatedAt.IsZero() {
		delivery.CreatedAt = time.Now()
	}

	if err := w.store.AppendMessage(ctx, delivery.Username, &model.Message{
		Content:   delivery.Content,
		CreatedAt: delivery.CreatedAt,
	}); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			observability.MessageDeliveries.WithLabelValues("unknown_user").Inc()
		} else {
			observability.MessageDeliveries.WithLabelValues("failed").Inc()
		}
		return fmt.Errorf("append message for %s failed: %w", delivery.Username, err)
	}

	if w.cache != nil {
		if err := w.cache.Invalidate(ctx, delivery.Username); err != nil {
			slog.WarnContext(ctx, "invalidate inbox cache failed", "username", delivery.Username, "error", err)
		}
	}
	observability.MessageDeliveries.WithLabelValues("delivered").Inc()
	return nil
}

func (w *MessageDeliveryWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
