// Package consumer reads ingestion events from Kafka and adds them to the
// search server.
package consumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/docstore"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searchserver"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/metrics"
)

// Invalidator drops cached query results after the index changes.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// IndexConsumer wraps a Kafka consumer to drive the indexing pipeline.
type IndexConsumer struct {
	consumer *kafka.Consumer
	logger   *slog.Logger
}

func New(kafkaConsumer *kafka.Consumer) *IndexConsumer {
	return &IndexConsumer{
		consumer: kafkaConsumer,
		logger:   slog.Default().With("component", "index-consumer"),
	}
}

// Start begins consuming Kafka messages. It blocks until ctx is cancelled.
func (ic *IndexConsumer) Start(ctx context.Context) error {
	ic.logger.Info("index consumer starting")
	return ic.consumer.Start(ctx)
}

// HandleMessage returns a Kafka MessageHandler that adds every ingest event
// to server. Undecodable events, invalid events and duplicate ids are
// logged and committed; they would fail the same way on every redelivery.
// cache, tracker and m may be nil.
func HandleMessage(server *searchserver.Server, cache Invalidator, tracker analytics.Tracker, m *metrics.Metrics) kafka.MessageHandler {
	logger := slog.Default().With("component", "index-consumer")
	record := func(outcome string) {
		if m != nil {
			m.DocsIndexedTotal.WithLabelValues("kafka", outcome).Inc()
		}
	}
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[ingestion.IngestEvent](value)
		if err != nil {
			logger.Error("failed to decode ingest event",
				"error", err,
				"key", string(key),
			)
			record("malformed")
			return nil
		}
		status, err := docstore.ParseStatus(event.Status)
		if err != nil {
			logger.Error("ingest event has an invalid status",
				"doc_id", event.DocumentID,
				"event_id", event.EventID,
				"error", err,
			)
			record("rejected")
			return nil
		}
		logger.Debug("processing ingest event",
			"doc_id", event.DocumentID,
			"event_id", event.EventID,
		)

		err = server.AddDocument(event.DocumentID, event.Text, status, event.Ratings)
		switch {
		case errors.Is(err, apperrors.ErrDocumentExists), errors.Is(err, apperrors.ErrInvalidInput):
			logger.Warn("ingest event skipped",
				"doc_id", event.DocumentID,
				"event_id", event.EventID,
				"error", err,
			)
			record("rejected")
			return nil
		case err != nil:
			return fmt.Errorf("indexing document %d: %w", event.DocumentID, err)
		}

		record("ok")
		if tracker != nil {
			tracker.Track(analytics.IndexEvent{
				Type:       analytics.EventIndex,
				DocumentID: event.DocumentID,
				Source:     "kafka",
				Timestamp:  time.Now().UTC(),
			})
		}
		if m != nil {
			m.DocumentCount.Set(float64(server.DocumentCount()))
		}
		if cache != nil {
			if err := cache.Invalidate(ctx); err != nil {
				logger.Warn("cache invalidation failed", "error", err)
			}
		}
		logger.Info("document indexed",
			"doc_id", event.DocumentID,
			"event_id", event.EventID,
		)
		return nil
	}
}
