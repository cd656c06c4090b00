package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"anonchat/internal/model"
)

type DeliveryPublisher struct {
	conn      *amqp.Connection
	queueName string
}

func NewDeliveryPublisher(conn *amqp.Connection, queueName string) *DeliveryPublisher {
	return &DeliveryPublisher{
		conn:      conn,
		queueName: queueName,
	}
}

func (p *DeliveryPublisher) Publish(ctx context.Context, delivery model.MessageDelivery) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("open rabbitmq channel failed: %w", err)
	}
	defer ch.Close()

	if err := DeclareQueue(ch, p.queueName); err != nil {
		return err
	}

	payload, err := json.Marshal(delivery)
	if err != nil {
		return fmt.Errorf("marshal delivery payload failed: %w", err)
	}

	if err := ch.PublishWithContext(
		ctx,
		"",
		p.queueName,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         payload,
			DeliveryMode: amqp.Persistent,
		},
	); err != nil {
		return fmt.Errorf("publish delivery failed: %w", err)
	}
	return nil
}

// DeclareQueue declares the durable delivery queue shared by publisher and worker.
func DeclareQueue(ch *amqp.Channel, name string) error {
	_, err := ch.QueueDeclare(
		name,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare queue %s failed: %w", name, err)
	}
	return nil
}
