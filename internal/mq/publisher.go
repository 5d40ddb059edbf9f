package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// MessageType — тип сообщения.
type MessageType string

// Типы сообщений.
const (
	MessageTypeTasksCommitted MessageType = "tasks.committed"
)

// Message — конверт публикуемого события.
type Message struct {
	// ID — уникальный идентификатор сообщения.
	ID string `json:"id"`

	// Type — тип сообщения.
	Type MessageType `json:"type"`

	// Payload — полезная нагрузка.
	Payload any `json:"payload"`

	// Timestamp — время создания.
	Timestamp time.Time `json:"timestamp"`
}

// TasksCommittedPayload — payload события об успешном коммите.
type TasksCommittedPayload struct {
	WorkflowID int64   `json:"workflow_id"`
	TaskCount  int     `json:"task_count"`
	TaskIDs    []int64 `json:"task_ids,omitempty"`
	UserID     *int64  `json:"user_id"`
}

// publishFunc отправляет одно AMQP сообщение.
type publishFunc func(ctx context.Context, exchange Exchange, key RoutingKey, msg amqp.Publishing) error

// Publisher публикует события в RabbitMQ.
type Publisher struct {
	publish publishFunc
	logger  *slog.Logger
}

// NewPublisher создаёт Publisher поверх соединения.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		publish: func(ctx context.Context, exchange Exchange, key RoutingKey, msg amqp.Publishing) error {
			return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
				return ch.PublishWithContext(ctx, string(exchange), string(key), false, false, msg)
			})
		},
		logger: logger,
	}
}

// Publish публикует сообщение в указанный exchange с routing key.
func (p *Publisher) Publish(ctx context.Context, exchange Exchange, routingKey RoutingKey, msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	err = p.publish(ctx, exchange, routingKey, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    msg.ID,
		Timestamp:    msg.Timestamp,
		Type:         string(msg.Type),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish to %s/%s: %w", exchange, routingKey, err)
	}

	p.logger.Debug("published message",
		"exchange", exchange,
		"routing_key", routingKey,
		"message_id", msg.ID,
		"type", msg.Type,
	)
	return nil
}

// PublishTasksCommitted публикует событие tasks.committed.
func (p *Publisher) PublishTasksCommitted(ctx context.Context, payload TasksCommittedPayload) error {
	msg := &Message{
		ID:        uuid.New().String(),
		Type:      MessageTypeTasksCommitted,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}

	return p.Publish(ctx, ExchangeEvents, RoutingKeyTasksCommitted, msg)
}
