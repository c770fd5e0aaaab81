// Package events publishes domain events for downstream consumers.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

const schemaVersion = "v1"

const (
	TypeBulletinPublished = "price_bulletin.published"
	TypeBulletinArchived  = "price_bulletin.archived"
	TypePurchaseSubmitted = "purchase_order.submitted"
	TypePurchaseApproved  = "purchase_order.approved"
	TypePurchaseRejected  = "purchase_order.rejected"
	TypeImportCommitted   = "price_import.committed"
)

type Event struct {
	EventType     string          `json:"event_type"`
	EventID       string          `json:"event_id"`
	EventTime     time.Time       `json:"event_time"`
	SchemaVersion string          `json:"schema_version"`
	AggregateID   string          `json:"aggregate_id"`
	Payload       json.RawMessage `json:"payload"`
}

// New builds an event envelope around payload.
func New(eventType string, aggregateID uuid.UUID, payload any) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{
		EventType:     eventType,
		EventID:       uuid.New().String(),
		EventTime:     time.Now().UTC(),
		SchemaVersion: schemaVersion,
		AggregateID:   aggregateID.String(),
		Payload:       raw,
	}, nil
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

const batchTimeout = 10 * time.Millisecond

// KafkaPublisher writes events to a single topic keyed by aggregate id.
// Writes are asynchronous: Publish only enqueues, and delivery failures are
// logged when the batch completes. Close flushes pending messages.
type KafkaPublisher struct {
	writer *kafka.Writer
	log    zerolog.Logger
}

func NewKafkaPublisher(brokers []string, topic string, log zerolog.Logger) *KafkaPublisher {
	p := &KafkaPublisher{log: log}
	p.writer = &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           batchTimeout,
		Async:                  true,
		Completion:             p.completed,
		AllowAutoTopicCreation: true,
	}
	return p
}

func (p *KafkaPublisher) completed(messages []kafka.Message, err error) {
	if err == nil {
		return
	}
	for _, msg := range messages {
		p.log.Warn().Err(err).
			Str("event_type", headerValue(msg, "event_type")).
			Str("aggregate_id", string(msg.Key)).
			Msg("deliver event")
	}
}

func headerValue(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.AggregateID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
		},
	})
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// Nop drops every event. Used when no brokers are configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// Emit builds and publishes an event, logging failures instead of returning
// them: a lost notification must not fail the request that caused it.
func Emit(ctx context.Context, publisher Publisher, log zerolog.Logger, eventType string, aggregateID uuid.UUID, payload any) {
	if publisher == nil {
		return
	}
	event, err := New(eventType, aggregateID, payload)
	if err != nil {
		log.Error().Err(err).Str("event_type", eventType).Msg("build event")
		return
	}
	if err := publisher.Publish(ctx, event); err != nil {
		log.Warn().Err(err).Str("event_type", eventType).Str("aggregate_id", event.AggregateID).Msg("publish event")
	}
}
