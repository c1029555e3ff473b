// Package publisher turns validated ingestion requests into IngestEvents on
// the document-ingest Kafka topic, keyed by document id.
package publisher

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/ingestion/validator"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/kafka"
)

type Publisher struct {
	producer kafka.Publisher
	now      func() time.Time
	logger   *slog.Logger
}

func New(producer kafka.Publisher) *Publisher {
	return &Publisher{
		producer: producer,
		now:      time.Now,
		logger:   slog.Default().With("component", "publisher"),
	}
}

// Publish validates the request and publishes one IngestEvent.
func (p *Publisher) Publish(ctx context.Context, req *ingestion.IngestRequest) (*ingestion.IngestResponse, error) {
	event, err := p.buildEvent(req)
	if err != nil {
		return nil, err
	}
	if err := p.producer.Publish(ctx, kafka.Event{Key: strconv.Itoa(event.DocumentID), Value: event}); err != nil {
		return nil, fmt.Errorf("publishing document %d: %w", event.DocumentID, err)
	}
	p.logger.Info("document queued", "doc_id", event.DocumentID, "event_id", event.EventID)
	return &ingestion.IngestResponse{
		DocumentID: event.DocumentID,
		Status:     event.Status,
		State:      ingestion.StateQueued,
	}, nil
}

// PublishBatch validates every request first and publishes nothing when one
// of them is invalid.
func (p *Publisher) PublishBatch(ctx context.Context, reqs []ingestion.IngestRequest) (int, error) {
	events := make([]kafka.Event, 0, len(reqs))
	for i := range reqs {
		event, err := p.buildEvent(&reqs[i])
		if err != nil {
			return 0, fmt.Errorf("document #%d: %w", i, err)
		}
		events = append(events, kafka.Event{Key: strconv.Itoa(event.DocumentID), Value: event})
	}
	if len(events) == 0 {
		return 0, nil
	}
	if err := p.producer.PublishBatch(ctx, events); err != nil {
		return 0, fmt.Errorf("publishing %d documents: %w", len(events), err)
	}
	p.logger.Info("documents queued", "count", len(events))
	return len(events), nil
}

func (p *Publisher) buildEvent(req *ingestion.IngestRequest) (ingestion.IngestEvent, error) {
	status, err := validator.ValidateIngestRequest(req)
	if err != nil {
		return ingestion.IngestEvent{}, err
	}
	return ingestion.IngestEvent{
		EventID:     uuid.NewString(),
		DocumentID:  *req.ID,
		Text:        req.Text,
		Status:      status.String(),
		Ratings:     req.Ratings,
		PublishedAt: p.now().UTC(),
	}, nil
}
