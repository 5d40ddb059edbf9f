package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — тип для имени обменника.
type Exchange string

// Queue — тип для имени очереди.
type Queue string

// RoutingKey — тип для ключа маршрутизации.
type RoutingKey string

// Exchanges.
const (
	ExchangeEvents Exchange = "taskflow.events"
)

// Queues.
const (
	QueueTasksCommitted Queue = "taskflow.tasks.committed"
)

// Routing keys.
const (
	RoutingKeyTasksCommitted RoutingKey = "tasks.committed"
)

// SetupTopology объявляет обменник событий и очередь для tasks.committed.
// Объявления идемпотентны, вызывать можно при каждом старте.
func SetupTopology(ctx context.Context, conn *Connection) error {
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.ExchangeDeclare(
			string(ExchangeEvents), // name
			"topic",                // type
			true,                   // durable
			false,                  // auto-deleted
			false,                  // internal
			false,                  // no-wait
			nil,                    // arguments
		)
		if err != nil {
			return fmt.Errorf("declare exchange %s: %w", ExchangeEvents, err)
		}

		_, err = ch.QueueDeclare(
			string(QueueTasksCommitted), // name
			true,                        // durable
			false,                       // delete when unused
			false,                       // exclusive
			false,                       // no-wait
			nil,                         // arguments
		)
		if err != nil {
			return fmt.Errorf("declare queue %s: %w", QueueTasksCommitted, err)
		}

		err = ch.QueueBind(
			string(QueueTasksCommitted),      // queue name
			string(RoutingKeyTasksCommitted), // routing key
			string(ExchangeEvents),           // exchange
			false,                            // no-wait
			nil,                              // arguments
		)
		if err != nil {
			return fmt.Errorf("bind queue %s to %s: %w", QueueTasksCommitted, ExchangeEvents, err)
		}
		return nil
	})
}
