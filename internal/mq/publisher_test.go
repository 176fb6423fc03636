package mq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shaiso/musiclet/internal/telemetry"
)

func TestPublishTaskCompleted(t *testing.T) {
	var (
		gotExchange, gotKey string
		got                 amqp.Publishing
	)
	fixed := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	p := &Publisher{
		publish: func(ctx context.Context, exchange, key string, msg amqp.Publishing) error {
			gotExchange, gotKey, got = exchange, key, msg
			return nil
		},
		now:    func() time.Time { return fixed },
		logger: telemetry.Discard(),
	}

	err := p.PublishTaskCompleted(context.Background(), TaskCompletedPayload{
		TaskID:     "t-1",
		Type:       "bilibili:get_music",
		Success:    false,
		Error:      "audio upload failed",
		DurationMS: 1500,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotExchange != ExchangeTasks || gotKey != RoutingKeyCompleted {
		t.Errorf("unexpected route %s/%s", gotExchange, gotKey)
	}
	if got.DeliveryMode != amqp.Persistent || got.ContentType != "application/json" {
		t.Errorf("unexpected publishing props: %+v", got)
	}
	if _, err := uuid.Parse(got.MessageId); err != nil {
		t.Errorf("expected uuid message id, got %q", got.MessageId)
	}

	var msg struct {
		ID        string               `json:"id"`
		Type      string               `json:"type"`
		Payload   TaskCompletedPayload `json:"payload"`
		Timestamp time.Time            `json:"timestamp"`
	}
	if err := json.Unmarshal(got.Body, &msg); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if msg.Type != MessageTypeTaskCompleted || msg.ID != got.MessageId || !msg.Timestamp.Equal(fixed) {
		t.Errorf("unexpected envelope: %+v", msg)
	}
	if msg.Payload.TaskID != "t-1" || msg.Payload.Error != "audio upload failed" || msg.Payload.DurationMS != 1500 {
		t.Errorf("unexpected payload: %+v", msg.Payload)
	}
}

func TestPublishTaskCompleted_Error(t *testing.T) {
	p := &Publisher{
		publish: func(context.Context, string, string, amqp.Publishing) error { return ErrNotConnected },
		now:     time.Now,
		logger:  telemetry.Discard(),
	}

	err := p.PublishTaskCompleted(context.Background(), TaskCompletedPayload{TaskID: "t-1"})
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("expected ErrNotConnected, got %v", err)
	}
}
