package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/tracing"
)

// HeaderTraceID carries the publishing request's trace id so that the
// consumer side can be correlated in the logs.
const HeaderTraceID = "trace-id"

// Event is one message for a topic. Key picks the partition (document ids
// keep one document's messages ordered) and Value is JSON-encoded.
type Event struct {
	Key   string
	Value any
}

// Publisher is the write side used by the ingestion publisher and the
// analytics collector. *Producer implements it.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	PublishBatch(ctx context.Context, events []Event) error
}

// messageWriter is the subset of *kafka.Writer the producer needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes JSON events to one topic.
type Producer struct {
	topic  string
	writer messageWriter
	logger *slog.Logger
}

// NewProducer creates a synchronous, hash-balanced Producer for topic.
func NewProducer(cfg config.KafkaConfig, topic string) *Producer {
	return newProducer(topic, &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchSize:              100,
		BatchTimeout:           10 * time.Millisecond,
		MaxAttempts:            3,
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	})
}

func newProducer(topic string, w messageWriter) *Producer {
	return &Producer{
		topic:  topic,
		writer: w,
		logger: slog.Default().With("component", "kafka-producer", "topic", topic),
	}
}

// Publish writes a single event.
func (p *Producer) Publish(ctx context.Context, event Event) error {
	return p.PublishBatch(ctx, []Event{event})
}

// PublishBatch encodes every event before writing any, then writes them in
// one call. An encoding failure publishes nothing.
func (p *Producer) PublishBatch(ctx context.Context, events []Event) error {
	if len(events) == 0 {
		return nil
	}
	ctx, span := tracing.Start(ctx, "kafka.publish",
		attribute.String("messaging.destination", p.topic),
		attribute.Int("messaging.batch_size", len(events)),
	)
	defer span.End()

	var headers []kafka.Header
	if id := tracing.TraceID(ctx); id != "" {
		headers = []kafka.Header{{Key: HeaderTraceID, Value: []byte(id)}}
	}
	messages := make([]kafka.Message, 0, len(events))
	for _, event := range events {
		value, err := json.Marshal(event.Value)
		if err != nil {
			tracing.Fail(span, err)
			return fmt.Errorf("encoding event %q: %w", event.Key, err)
		}
		messages = append(messages, kafka.Message{Key: []byte(event.Key), Value: value, Headers: headers})
	}
	if err := p.writer.WriteMessages(ctx, messages...); err != nil {
		tracing.Fail(span, err)
		p.logger.Error("publish failed", "count", len(messages), "error", err)
		return fmt.Errorf("publishing %d events to %s: %w", len(messages), p.topic, err)
	}
	p.logger.Debug("events published", "count", len(messages))
	return nil
}

// Close flushes pending writes and closes the writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}
