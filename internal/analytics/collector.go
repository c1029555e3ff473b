package analytics

import (
	"context"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/kafka"
)

const (
	defaultBufferSize    = 10000
	defaultBatchSize     = 100
	defaultFlushInterval = time.Second
)

// Collector buffers analytics events and publishes them in batches, when a
// batch is full or every flush interval. Track never blocks: events are
// dropped when the buffer is full.
type Collector struct {
	producer      kafka.Publisher
	eventCh       chan any
	batchSize     int
	flushInterval time.Duration
	logger        *slog.Logger
	done          chan struct{}
}

func NewCollector(producer kafka.Publisher, bufferSize int) *Collector {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	return &Collector{
		producer:      producer,
		eventCh:       make(chan any, bufferSize),
		batchSize:     defaultBatchSize,
		flushInterval: defaultFlushInterval,
		logger:        slog.Default().With("component", "analytics-collector"),
		done:          make(chan struct{}),
	}
}

// Run publishes buffered events until ctx is cancelled, then flushes what
// is left with a short deadline.
func (c *Collector) Run(ctx context.Context) error {
	defer close(c.done)
	c.logger.Info("analytics collector started",
		"buffer_size", cap(c.eventCh),
		"batch_size", c.batchSize,
		"flush_interval", c.flushInterval,
	)
	ticker := time.NewTicker(c.flushInterval)
	defer ticker.Stop()

	batch := make([]kafka.Event, 0, c.batchSize)
	for {
		select {
		case event := <-c.eventCh:
			batch = append(batch, kafka.Event{Key: keyFor(event), Value: event})
			if len(batch) >= c.batchSize {
				batch = c.flush(ctx, batch)
			}
		case <-ticker.C:
			batch = c.flush(ctx, batch)
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			c.drainRemaining(flushCtx, batch)
			return nil
		}
	}
}

func (c *Collector) Track(event any) {
	select {
	case c.eventCh <- event:
	default:
		c.logger.Warn("analytics event dropped (buffer full)")
	}
}

// Wait blocks until Run has returned.
func (c *Collector) Wait() {
	<-c.done
}

func (c *Collector) flush(ctx context.Context, batch []kafka.Event) []kafka.Event {
	if len(batch) == 0 {
		return batch
	}
	if err := c.producer.PublishBatch(ctx, batch); err != nil {
		c.logger.Error("failed to publish analytics batch", "events", len(batch), "error", err)
	} else {
		c.logger.Debug("analytics batch published", "events", len(batch))
	}
	return batch[:0]
}

func (c *Collector) drainRemaining(ctx context.Context, batch []kafka.Event) {
	for {
		select {
		case event := <-c.eventCh:
			batch = append(batch, kafka.Event{Key: keyFor(event), Value: event})
		default:
			c.flush(ctx, batch)
			return
		}
	}
}

// keyFor keeps all events of one kind on one partition.
func keyFor(event any) string {
	switch event.(type) {
	case SearchEvent, *SearchEvent:
		return string(EventSearch)
	case MatchEvent, *MatchEvent:
		return string(EventMatch)
	case IndexEvent, *IndexEvent:
		return string(EventIndex)
	default:
		return "analytics"
	}
}
