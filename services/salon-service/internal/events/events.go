// Package events publishes booking lifecycle events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/salonbook/libs/kafkax"
	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/model"
	"github.com/segmentio/kafka-go"
)

const (
	TypeCreated       = "booking.created"
	TypeStatusChanged = "booking.status_changed"
	TypeCancelled     = "booking.cancelled"
	TypeDeleted       = "booking.deleted"
)

// Event is the JSON payload of one lifecycle message.
type Event struct {
	ID             string        `json:"event_id"`
	Type           string        `json:"event_type"`
	OccurredAt     time.Time     `json:"occurred_at"`
	Booking        model.Booking `json:"booking"`
	PreviousStatus model.Status  `json:"previous_status,omitempty"`
}

func NewEvent(eventType string, b model.Booking, prev model.Status) Event {
	return Event{
		ID:             uuid.NewString(),
		Type:           eventType,
		OccurredAt:     time.Now().UTC(),
		Booking:        b,
		PreviousStatus: prev,
	}
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher returns a NoopPublisher when no brokers are configured.
func NewKafkaPublisher(brokers, topic string, logger *slog.Logger) Publisher {
	list := kafkax.SplitBrokers(brokers)
	if len(list) == 0 {
		if logger != nil {
			logger.Warn("booking events disabled (no kafka brokers configured)")
		}
		return NoopPublisher{}
	}
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(list...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
		},
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	msg, err := Message(ctx, e)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s: %w", e.Type, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// Message encodes e keyed by booking id so one booking's events stay ordered.
func Message(ctx context.Context, e Event) (kafka.Message, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("encode %s: %w", e.Type, err)
	}
	meta := kafkax.EventMeta{EventID: e.ID, EventType: e.Type, AggregateID: e.Booking.ID, OccurredAt: e.OccurredAt}
	return kafka.Message{
		Key:     []byte(e.Booking.ID),
		Value:   payload,
		Headers: kafkax.InjectTraceHeaders(ctx, meta.Headers()),
	}, nil
}

type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }
func (NoopPublisher) Close() error                         { return nil }
