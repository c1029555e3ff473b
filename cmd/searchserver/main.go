package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/analytics/aggregator"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/corpus"
	indexconsumer "github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/consumer"
	ingesthandler "github.com/Adithya-Monish-Kumar-K/search-server/internal/ingestion/handler"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/ingestion/publisher"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/handler"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searchserver"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/ratelimit"
	pkgredis "github.com/Adithya-Monish-Kumar-K/search-server/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/resilience"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/tracing"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	corpusPath := flag.String("corpus", "", "optional corpus file loaded at startup")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format, "searchserver")

	if err := run(cfg, *corpusPath); err != nil {
		slog.Error("search server failed", "error", err)
		os.Exit(1)
	}
	slog.Info("search server stopped")
}

func run(cfg *config.Config, corpusPath string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("starting search server",
		"port", cfg.Server.Port,
		"default_status", cfg.Search.DefaultStatus,
		"result_limit", cfg.Search.ResultLimit,
	)

	m := metrics.New(nil)

	shutdownTracing := tracing.Setup(cfg.Tracing, "searchserver")
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			slog.Warn("flushing spans failed", "error", err)
		}
	}()

	server, err := searchserver.New(cfg.Search)
	if err != nil {
		return fmt.Errorf("creating search server: %w", err)
	}
	if corpusPath != "" {
		c, err := corpus.Load(corpusPath)
		if err != nil {
			return err
		}
		if err := c.Apply(server); err != nil {
			return fmt.Errorf("loading corpus: %w", err)
		}
		slog.Info("corpus loaded", "path", corpusPath, "documents", server.DocumentCount())
	}
	m.DocumentCount.Set(float64(server.DocumentCount()))

	checker := health.NewChecker()
	checker.Register("index_engine", func(ctx context.Context) health.ComponentHealth {
		return health.ComponentHealth{
			Status:  health.StatusUp,
			Message: fmt.Sprintf("%d documents", server.DocumentCount()),
		}
	})

	var (
		queryCache  *cache.QueryCache
		invalidator ingesthandler.Invalidator
	)
	if cfg.Redis.Enabled {
		redisClient, err := pkgredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, search caching disabled", "error", err)
		} else {
			defer redisClient.Close()
			breakerCfg := resilience.BreakerConfigFrom(cfg.Redis.Breaker)
			breakerCfg.OnStateChange = func(name string, _, to resilience.State) {
				m.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
			}
			breaker := resilience.NewCircuitBreaker("redis-cache", breakerCfg)
			queryCache = cache.New(redisClient, cache.Options{
				TTL:     cfg.Redis.CacheTTL,
				IsMiss:  pkgredis.IsNilError,
				Breaker: breaker,
				Metrics: m,
			})
			invalidator = queryCache
			// Results cached by an earlier process may describe another corpus.
			if err := queryCache.Invalidate(ctx); err != nil {
				slog.Warn("initial cache invalidation failed", "error", err)
			}
			checker.Register("redis", health.PingCheck(redisClient.Ping, true))
			slog.Info("search cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	if cfg.Metrics.Enabled {
		metricsServer := metrics.NewServer(cfg.Metrics.Port, prometheus.DefaultGatherer)
		g.Go(func() error { return metricsServer.Run(gctx) })
	}

	agg := analytics.NewAggregator()
	var snapshots analytics.SnapshotLister
	if cfg.Postgres.Enabled {
		db, err := postgres.New(ctx, cfg.Postgres)
		if err != nil {
			slog.Warn("postgres unavailable, analytics snapshots disabled", "error", err)
		} else {
			defer db.Close()
			store := aggregator.NewStore(db, cfg.Analytics.SnapshotRetention)
			if err := store.EnsureSchema(ctx); err != nil {
				return err
			}
			latest, err := store.LatestSnapshot(ctx)
			if err != nil {
				slog.Warn("could not restore analytics snapshot", "error", err)
			} else if latest != nil {
				agg.Restore(*latest)
				slog.Info("analytics restored from snapshot", "total_searches", latest.TotalSearches)
			}
			snapshots = store
			checker.Register("postgres", health.PingCheck(db.Ping, true))
			g.Go(func() error {
				return aggregator.RunPeriodicSave(gctx, store, agg.Stats, cfg.Analytics)
			})
		}
	}

	var analyticsPublisher kafka.Publisher = agg.Loopback()
	if cfg.Kafka.Enabled {
		analyticsProducer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.AnalyticsEvents)
		defer analyticsProducer.Close()
		analyticsPublisher = analyticsProducer

		analyticsConsumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.AnalyticsEvents, analytics.HandleEvent(agg))
		g.Go(func() error { return analyticsConsumer.Start(gctx) })
	}
	collector := analytics.NewCollector(analyticsPublisher, cfg.Analytics.BufferSize)
	g.Go(func() error { return collector.Run(gctx) })

	var ingestPublisher *publisher.Publisher
	if cfg.Kafka.Enabled {
		ingestProducer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.DocumentIngest)
		defer ingestProducer.Close()
		ingestPublisher = publisher.New(ingestProducer)

		ingestConsumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.DocumentIngest,
			indexconsumer.HandleMessage(server, invalidator, collector, m))
		ic := indexconsumer.New(ingestConsumer)
		g.Go(func() error { return ic.Start(gctx) })

		slog.Info("kafka pipelines started",
			"brokers", cfg.Kafka.Brokers,
			"ingest_topic", cfg.Kafka.Topics.DocumentIngest,
			"analytics_topic", cfg.Kafka.Topics.AnalyticsEvents,
		)
	}

	searchH := handler.New(server, queryCache, collector, m)
	ingestH := ingesthandler.New(server, ingestPublisher, invalidator, collector, m)
	analyticsH := analytics.NewHandler(agg, snapshots)

	mux := http.NewServeMux()
	var paths []string
	handle := func(pattern string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, h)
		_, path, _ := strings.Cut(pattern, " ")
		paths = append(paths, path)
	}
	for _, r := range searchH.Routes() {
		handle(r.Pattern, r.Handler)
	}
	handle("POST /api/v1/documents", ingestH.Ingest)
	handle("GET /api/v1/analytics", analyticsH.Stats)
	handle("GET /api/v1/analytics/snapshots", analyticsH.Snapshots)
	handle("GET /health/live", checker.LiveHandler())
	handle("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	chain = middleware.Timeout(cfg.Server.WriteTimeout)(chain)
	if rl := cfg.Server.RateLimit; rl.Enabled {
		chain = middleware.RateLimit(ratelimit.New(rl.Requests, rl.Window))(chain)
		slog.Info("rate limiting enabled", "requests", rl.Requests, "window", rl.Window)
	}
	chain = middleware.Metrics(m, paths...)(chain)
	if len(cfg.Server.CORSOrigins) > 0 {
		chain = middleware.CORS(middleware.DefaultCORSConfig(cfg.Server.CORSOrigins))(chain)
	}
	chain = middleware.RequestID(chain)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g.Go(func() error {
		slog.Info("search server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	collector.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
