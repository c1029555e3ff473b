package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/resilience"
)

const keyPrefix = "search:"

// Store is the key-value backend of the cache. *redis.Client satisfies it.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
}

// QueryCache caches ranked results per (query, status, limit). Every key
// carries a generation number; Invalidate bumps it so results computed
// before an ingestion can never be served after it.
type QueryCache struct {
	store      Store
	isMiss     func(error) bool
	ttl        time.Duration
	breaker    *resilience.CircuitBreaker
	metrics    *metrics.Metrics
	group      singleflight.Group
	generation atomic.Uint64
	logger     *slog.Logger
	hits       atomic.Int64
	misses     atomic.Int64
}

// Options tune a QueryCache. IsMiss reports whether a Get error means "key
// absent" rather than a backend failure.
type Options struct {
	TTL     time.Duration
	IsMiss  func(error) bool
	Breaker *resilience.CircuitBreaker
	Metrics *metrics.Metrics
}

func New(store Store, opts Options) *QueryCache {
	if opts.IsMiss == nil {
		opts.IsMiss = func(error) bool { return false }
	}
	if opts.Breaker == nil {
		opts.Breaker = resilience.NewCircuitBreaker("query-cache", resilience.CircuitBreakerConfig{})
	}
	return &QueryCache{
		store:   store,
		isMiss:  opts.IsMiss,
		ttl:     opts.TTL,
		breaker: opts.Breaker,
		metrics: opts.Metrics,
		logger:  slog.Default().With("component", "query-cache"),
	}
}

func (c *QueryCache) Get(ctx context.Context, req executor.SearchRequest) (*executor.SearchResult, bool) {
	key := c.buildKey(req)
	var (
		data   string
		absent bool
	)
	err := c.breaker.Execute(func() error {
		var getErr error
		data, getErr = c.store.Get(ctx, key)
		if getErr != nil && c.isMiss(getErr) {
			absent = true
			return nil
		}
		return getErr
	})
	if err != nil || absent {
		if err != nil {
			c.logger.Warn("cache get failed", "key", key, "error", err)
		}
		c.recordMiss()
		return nil, false
	}
	var result executor.SearchResult
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.recordMiss()
		return nil, false
	}
	c.recordHit()
	c.logger.Debug("cache hit", "query", req.Query, "key", key)
	return &result, true
}

func (c *QueryCache) Set(ctx context.Context, req executor.SearchRequest, result *executor.SearchResult) {
	c.setKey(ctx, c.buildKey(req), result)
}

// setKey stores under a key built before the computation started, so an
// Invalidate racing with it leaves the result in the old generation.
func (c *QueryCache) setKey(ctx context.Context, key string, result *executor.SearchResult) {
	data, err := json.Marshal(result)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	err = c.breaker.Execute(func() error {
		return c.store.Set(ctx, key, data, c.ttl)
	})
	if err != nil {
		c.logger.Warn("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached result for req or computes, stores and
// returns it. Concurrent identical requests share one computation. The
// boolean reports a cache hit.
func (c *QueryCache) GetOrCompute(
	ctx context.Context,
	req executor.SearchRequest,
	computeFn func() (*executor.SearchResult, error),
) (*executor.SearchResult, bool, error) {
	if result, ok := c.Get(ctx, req); ok {
		return result, true, nil
	}
	key := c.buildKey(req)
	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		result, err := computeFn()
		if err != nil {
			return nil, err
		}
		c.setKey(ctx, key, result)
		return result, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.(*executor.SearchResult), false, nil
}

// Invalidate makes every cached result unreachable and deletes the stored
// keys. The generation bump alone is enough for correctness, so a backend
// failure is reported but does not serve stale data.
func (c *QueryCache) Invalidate(ctx context.Context) error {
	c.generation.Add(1)
	var deleted int64
	err := c.breaker.Execute(func() error {
		var flushErr error
		deleted, flushErr = c.store.FlushByPattern(ctx, keyPrefix+"*")
		return flushErr
	})
	if err != nil {
		return fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidated", "keys_deleted", deleted)
	return nil
}

func (c *QueryCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *QueryCache) recordHit() {
	c.hits.Add(1)
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.Inc()
	}
}

func (c *QueryCache) recordMiss() {
	c.misses.Add(1)
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.Inc()
	}
}

func (c *QueryCache) buildKey(req executor.SearchRequest) string {
	raw := fmt.Sprintf("%s|status=%s|limit=%d", normalizeQuery(req.Query), req.Status, req.Limit)
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%d:%x", keyPrefix, c.generation.Load(), hash[:16])
}

// normalizeQuery drops the empty tokens the parser skips anyway. Word order
// and duplicates are kept: both affect relevance.
func normalizeQuery(query string) string {
	words := strings.Split(query, " ")
	kept := make([]string, 0, len(words))
	for _, w := range words {
		if w != "" && w != "-" {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}
