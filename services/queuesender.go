package services

import (
	"context"
	"encoding/json"
	"time"

	"trainerpro-backend/models"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
)

// QueueSender publishes rendered reminders to a topic exchange instead of
// delivering them directly; an external worker (the mailer) consumes them.
// Email rides on this because the mailer owns SMTP credentials and retry
// policy.
type QueueSender struct {
	conn       *amqp091.Connection
	exchange   string
	routingKey string
	channel    models.DeliveryChannel
}

// queuedReminder is the wire shape consumed by the mailer.
type queuedReminder struct {
	Channel   string    `json:"channel"`
	To        string    `json:"to"`
	Body      string    `json:"body"`
	QueuedAt  time.Time `json:"queued_at"`
	MessageID string    `json:"message_id"`
}

// NewQueueSender dials the broker and declares the durable topic exchange.
func NewQueueSender(url, exchange string, channel models.DeliveryChannel) (*QueueSender, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	defer ch.Close()
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, err
	}
	return &QueueSender{
		conn:       conn,
		exchange:   exchange,
		routingKey: "reminders." + string(channel),
		channel:    channel,
	}, nil
}

func (s *QueueSender) Send(ctx context.Context, contact, message string) error {
	ch, err := s.conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	msgID := uuid.NewString()
	body, err := json.Marshal(queuedReminder{
		Channel:   string(s.channel),
		To:        contact,
		Body:      message,
		QueuedAt:  time.Now(),
		MessageID: msgID,
	})
	if err != nil {
		return err
	}

	return ch.PublishWithContext(
		ctx, s.exchange, s.routingKey, false, false,
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			MessageId:    msgID,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
}

func (s *QueueSender) Close() error {
	return s.conn.Close()
}
