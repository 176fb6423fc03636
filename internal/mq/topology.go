package mq

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Имена объектов топологии.
const (
	ExchangeTasks       = "musiclet.tasks"
	QueueTasksCompleted = "tasks.completed"
	RoutingKeyCompleted = "completed"
)

// SetupTopology объявляет exchange и очередь событий. Операции идемпотентны.
func (c *Connection) SetupTopology() error {
	c.mu.RLock()
	ch := c.channel
	c.mu.RUnlock()

	if ch == nil {
		return ErrNotConnected
	}
	return declare(ch)
}

func declare(ch *amqp.Channel) error {
	err := ch.ExchangeDeclare(
		ExchangeTasks, // name
		"direct",      // type
		true,          // durable
		false,         // auto-deleted
		false,         // internal
		false,         // no-wait
		nil,           // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange %s: %w", ExchangeTasks, err)
	}

	_, err = ch.QueueDeclare(
		QueueTasksCompleted, // name
		true,                // durable
		false,               // delete when unused
		false,               // exclusive
		false,               // no-wait
		nil,                 // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue %s: %w", QueueTasksCompleted, err)
	}

	if err := ch.QueueBind(QueueTasksCompleted, RoutingKeyCompleted, ExchangeTasks, false, nil); err != nil {
		return fmt.Errorf("bind queue %s to %s: %w", QueueTasksCompleted, ExchangeTasks, err)
	}
	return nil
}
