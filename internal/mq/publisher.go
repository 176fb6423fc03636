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

// MessageTypeTaskCompleted — тип события о завершённой task.
const MessageTypeTaskCompleted = "task.completed"

// Message — конверт события.
type Message struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Payload   any       `json:"payload"`
	Timestamp time.Time `json:"timestamp"`
}

// TaskCompletedPayload — событие о завершённой task.
type TaskCompletedPayload struct {
	TaskID     string `json:"task_id"`
	Type       string `json:"type"`
	Success    bool   `json:"success"`
	Error      string `json:"error,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}

// publishFunc отправляет подготовленное сообщение.
type publishFunc func(ctx context.Context, exchange, key string, msg amqp.Publishing) error

// Publisher публикует события воркера.
type Publisher struct {
	publish publishFunc
	now     func() time.Time
	logger  *slog.Logger
}

// NewPublisher создаёт Publisher поверх соединения.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{publish: conn.publish, now: time.Now, logger: logger}
}

// PublishTaskCompleted публикует событие task.completed.
func (p *Publisher) PublishTaskCompleted(ctx context.Context, payload TaskCompletedPayload) error {
	msg := &Message{
		ID:        uuid.New().String(),
		Type:      MessageTypeTaskCompleted,
		Payload:   payload,
		Timestamp: p.now().UTC(),
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	err = p.publish(ctx, ExchangeTasks, RoutingKeyCompleted, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    msg.ID,
		Timestamp:    msg.Timestamp,
		Type:         msg.Type,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish to %s/%s: %w", ExchangeTasks, RoutingKeyCompleted, err)
	}

	p.logger.Debug("published event", "message_id", msg.ID, "task_id", payload.TaskID)
	return nil
}
