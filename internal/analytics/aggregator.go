package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/kafka"
)

// maxLatencySamples bounds the latency window used for percentiles.
const maxLatencySamples = 10000

type AggregatedStats struct {
	TotalSearches     int64            `json:"total_searches"`
	TotalMatches      int64            `json:"total_matches"`
	TotalDocIndexed   int64            `json:"total_docs_indexed"`
	CacheHits         int64            `json:"cache_hits"`
	CacheMisses       int64            `json:"cache_misses"`
	ZeroResultCount   int64            `json:"zero_result_count"`
	MatchNotFound     int64            `json:"match_not_found"`
	SearchesByStatus  map[string]int64 `json:"searches_by_status"`
	AvgLatencyMicros  float64          `json:"avg_latency_us"`
	P50LatencyMicros  int64            `json:"p50_latency_us"`
	P95LatencyMicros  int64            `json:"p95_latency_us"`
	P99LatencyMicros  int64            `json:"p99_latency_us"`
	TopQueries        []QueryCount     `json:"top_queries"`
	ZeroResultQueries []QueryCount     `json:"zero_result_queries"`
	QueriesPerMinute  float64          `json:"queries_per_minute"`
}

type QueryCount struct {
	Query string `json:"query"`
	Count int64  `json:"count"`
}

// Aggregator folds analytics events into running statistics.
type Aggregator struct {
	mu                sync.RWMutex
	totalSearches     int64
	totalMatches      int64
	totalDocIndexed   int64
	cacheHits         int64
	cacheMisses       int64
	zeroResults       int64
	matchNotFound     int64
	byStatus          map[string]int64
	latencies         []int64
	latencyNext       int
	queryCounts       map[string]int64
	zeroResultQueries map[string]int64
	startTime         time.Time
	now               func() time.Time

	logger *slog.Logger
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		byStatus:          make(map[string]int64),
		latencies:         make([]int64, 0, 1024),
		queryCounts:       make(map[string]int64),
		zeroResultQueries: make(map[string]int64),
		startTime:         time.Now(),
		now:               time.Now,
		logger:            slog.Default().With("component", "analytics-aggregator"),
	}
}

// HandleEvent returns a Kafka MessageHandler feeding agg. Undecodable and
// unknown events are logged and skipped.
func HandleEvent(agg *Aggregator) kafka.MessageHandler {
	return func(ctx context.Context, key []byte, value []byte) error {
		if err := agg.Apply(value); err != nil {
			agg.logger.Error("failed to decode analytics event", "key", string(key), "error", err)
		}
		return nil
	}
}

// Apply decodes one JSON-encoded event and records it.
func (a *Aggregator) Apply(value []byte) error {
	header, err := kafka.DecodeJSON[eventHeader](value)
	if err != nil {
		return err
	}
	switch header.Type {
	case EventSearch:
		event, err := kafka.DecodeJSON[SearchEvent](value)
		if err != nil {
			return err
		}
		a.RecordSearch(event)
	case EventMatch:
		event, err := kafka.DecodeJSON[MatchEvent](value)
		if err != nil {
			return err
		}
		a.RecordMatch(event)
	case EventIndex:
		a.mu.Lock()
		a.totalDocIndexed++
		a.mu.Unlock()
	default:
		return fmt.Errorf("unknown analytics event type %q", header.Type)
	}
	return nil
}

func (a *Aggregator) RecordSearch(event SearchEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.totalSearches++
	if event.CacheHit {
		a.cacheHits++
	} else {
		a.cacheMisses++
	}
	a.byStatus[event.Status]++
	a.queryCounts[event.Query]++
	if event.TotalHits == 0 {
		a.zeroResults++
		a.zeroResultQueries[event.Query]++
	}
	if len(a.latencies) < maxLatencySamples {
		a.latencies = append(a.latencies, event.LatencyMicros)
	} else {
		a.latencies[a.latencyNext] = event.LatencyMicros
		a.latencyNext = (a.latencyNext + 1) % maxLatencySamples
	}
}

func (a *Aggregator) RecordMatch(event MatchEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.totalMatches++
	if !event.Found {
		a.matchNotFound++
	}
}

func (a *Aggregator) Stats() AggregatedStats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stats := AggregatedStats{
		TotalSearches:    a.totalSearches,
		TotalMatches:     a.totalMatches,
		TotalDocIndexed:  a.totalDocIndexed,
		CacheHits:        a.cacheHits,
		CacheMisses:      a.cacheMisses,
		ZeroResultCount:  a.zeroResults,
		MatchNotFound:    a.matchNotFound,
		SearchesByStatus: make(map[string]int64, len(a.byStatus)),
	}
	for status, n := range a.byStatus {
		stats.SearchesByStatus[status] = n
	}
	if len(a.latencies) > 0 {
		sorted := make([]int64, len(a.latencies))
		copy(sorted, a.latencies)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

		var sum int64
		for _, l := range sorted {
			sum += l
		}
		stats.AvgLatencyMicros = float64(sum) / float64(len(sorted))
		stats.P50LatencyMicros = percentile(sorted, 50)
		stats.P95LatencyMicros = percentile(sorted, 95)
		stats.P99LatencyMicros = percentile(sorted, 99)
	}
	stats.TopQueries = topN(a.queryCounts, 10)
	stats.ZeroResultQueries = topN(a.zeroResultQueries, 10)
	elapsed := a.now().Sub(a.startTime).Minutes()
	if elapsed > 0 {
		stats.QueriesPerMinute = float64(stats.TotalSearches) / elapsed
	}
	return stats
}

// Restore seeds the counters from a persisted snapshot so totals survive a
// restart. Latency samples and per-query counts start empty.
func (a *Aggregator) Restore(stats AggregatedStats) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.totalSearches += stats.TotalSearches
	a.totalMatches += stats.TotalMatches
	a.totalDocIndexed += stats.TotalDocIndexed
	a.cacheHits += stats.CacheHits
	a.cacheMisses += stats.CacheMisses
	a.zeroResults += stats.ZeroResultCount
	a.matchNotFound += stats.MatchNotFound
	for status, n := range stats.SearchesByStatus {
		a.byStatus[status] += n
	}
}

// Loopback returns a Publisher that applies events to a directly, for
// deployments without Kafka.
func (a *Aggregator) Loopback() kafka.Publisher {
	return loopback{agg: a}
}

type loopback struct {
	agg *Aggregator
}

func (l loopback) Publish(ctx context.Context, event kafka.Event) error {
	return l.PublishBatch(ctx, []kafka.Event{event})
}

func (l loopback) PublishBatch(_ context.Context, events []kafka.Event) error {
	for _, event := range events {
		data, err := json.Marshal(event.Value)
		if err != nil {
			return fmt.Errorf("marshaling event value: %w", err)
		}
		if err := l.agg.Apply(data); err != nil {
			l.agg.logger.Warn("dropping analytics event", "error", err)
		}
	}
	return nil
}

func percentile(sorted []int64, pct int) int64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (pct * len(sorted)) / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// topN orders by count, then query, so equal counts are reported stably.
func topN(counts map[string]int64, n int) []QueryCount {
	result := make([]QueryCount, 0, len(counts))
	for query, count := range counts {
		result = append(result, QueryCount{Query: query, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Query < result[j].Query
	})
	if len(result) > n {
		result = result[:n]
	}
	return result
}
