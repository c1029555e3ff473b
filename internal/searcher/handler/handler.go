package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/docstore"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searchserver"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/tracing"
)

const maxStopWordsBody = 1 << 20

type Handler struct {
	server  *searchserver.Server
	cache   *cache.QueryCache
	tracker analytics.Tracker
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New creates the query handler. queryCache, tracker and m may be nil.
func New(server *searchserver.Server, queryCache *cache.QueryCache, tracker analytics.Tracker, m *metrics.Metrics) *Handler {
	return &Handler{
		server:  server,
		cache:   queryCache,
		tracker: tracker,
		metrics: m,
		logger:  slog.Default().With("component", "search-handler"),
	}
}

type searchResponse struct {
	*executor.SearchResult
	CacheHit bool `json:"cache_hit"`
}

// Search serves GET /api/v1/search?q=&status=&limit=.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	params := r.URL.Query()
	if !params.Has("q") {
		h.writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}
	query := params.Get("q")

	status := h.server.DefaultStatus()
	if s := params.Get("status"); s != "" {
		parsed, err := docstore.ParseStatus(s)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "status must be one of ACTUAL, IRRELEVANT, BANNED, REMOVED")
			return
		}
		status = parsed
	}

	limit := h.server.DefaultLimit()
	if limitStr := params.Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(parsed, h.server.MaxResults())
	}

	ctx, span := tracing.Start(r.Context(), "search.find_top_documents",
		attribute.String("search.query", query),
		attribute.String("search.status", status.String()),
		attribute.Int("search.limit", limit),
	)
	defer span.End()
	log := logger.FromContext(ctx)

	req := executor.SearchRequest{Query: query, Status: status, Limit: limit}
	var (
		result   *executor.SearchResult
		err      error
		cacheHit bool
	)
	if h.cache != nil {
		result, cacheHit, err = h.cache.GetOrCompute(ctx, req, func() (*executor.SearchResult, error) {
			return h.server.Search(ctx, req)
		})
	} else {
		result, err = h.server.Search(ctx, req)
	}
	if err != nil {
		tracing.Fail(span, err)
		h.observeSearch(status, "error", cacheHit, 0, start)
		log.Error("search execution failed", "query", query, "error", err)
		h.writeError(w, apperrors.HTTPStatusCode(err), "search failed")
		return
	}

	latency := time.Since(start)
	span.SetAttributes(
		attribute.Int("search.total_hits", result.TotalHits),
		attribute.Int("search.returned", len(result.Results)),
		attribute.Bool("search.cache_hit", cacheHit),
	)
	resultType := "hit"
	if len(result.Results) == 0 {
		resultType = "zero_result"
	}
	h.observeSearch(status, resultType, cacheHit, len(result.Results), start)

	log.Info("search completed",
		"query", query,
		"status", status.String(),
		"total_hits", result.TotalHits,
		"returned", len(result.Results),
		"cache_hit", cacheHit,
		"latency_us", latency.Microseconds(),
	)
	if h.tracker != nil {
		h.tracker.Track(analytics.SearchEvent{
			Type:          analytics.EventSearch,
			Query:         query,
			PlusWords:     result.PlusWords,
			MinusWords:    result.MinusWords,
			Status:        status.String(),
			Limit:         limit,
			TotalHits:     result.TotalHits,
			Returned:      len(result.Results),
			LatencyMicros: latency.Microseconds(),
			CacheHit:      cacheHit,
			Timestamp:     time.Now().UTC(),
			RequestID:     middleware.GetRequestID(ctx),
		})
	}

	h.writeJSON(w, http.StatusOK, searchResponse{SearchResult: result, CacheHit: cacheHit})
}

// Match serves GET /api/v1/match?q=&id=.
func (h *Handler) Match(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	query := params.Get("q")
	docID, err := strconv.Atoi(params.Get("id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "query parameter 'id' must be an integer")
		return
	}

	ctx, span := tracing.Start(r.Context(), "search.match_document",
		attribute.String("search.query", query),
		attribute.Int("search.document_id", docID),
	)
	defer span.End()

	result, err := h.server.MatchDocument(query, docID)
	found := err == nil
	if h.tracker != nil {
		event := analytics.MatchEvent{
			Type:       analytics.EventMatch,
			Query:      query,
			DocumentID: docID,
			Found:      found,
			Timestamp:  time.Now().UTC(),
			RequestID:  middleware.GetRequestID(ctx),
		}
		if found {
			event.MatchedWords = len(result.Words)
		}
		h.tracker.Track(event)
	}
	if err != nil {
		status := apperrors.HTTPStatusCode(err)
		if errors.Is(err, apperrors.ErrDocumentNotFound) {
			h.observeMatch("not_found")
		} else {
			tracing.Fail(span, err)
			logger.FromContext(ctx).Error("match failed", "doc_id", docID, "error", err)
		}
		h.writeError(w, status, fmt.Sprintf("document %d: %s", docID, http.StatusText(status)))
		return
	}
	if len(result.Words) == 0 {
		h.observeMatch("unmatched")
	} else {
		h.observeMatch("matched")
	}
	span.SetAttributes(attribute.Int("search.matched_words", len(result.Words)))
	h.writeJSON(w, http.StatusOK, result)
}

type stopWordsRequest struct {
	Text string `json:"text"`
}

// StopWords serves PUT /api/v1/stop-words. Words are merged into the set.
func (h *Handler) StopWords(w http.ResponseWriter, r *http.Request) {
	var req stopWordsRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxStopWordsBody)).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	h.server.SetStopWords(req.Text)
	if h.cache != nil {
		if err := h.cache.Invalidate(r.Context()); err != nil {
			logger.FromContext(r.Context()).Warn("cache invalidation failed", "error", err)
		}
	}
	h.writeJSON(w, http.StatusOK, h.server.Stats())
}

// Stats serves GET /api/v1/stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats := h.server.Stats()
	h.writeJSON(w, http.StatusOK, map[string]any{
		"documents":      stats.Documents,
		"terms":          stats.Terms,
		"stop_words":     stats.StopWords,
		"default_status": h.server.DefaultStatus().String(),
		"default_limit":  h.server.DefaultLimit(),
		"max_results":    h.server.MaxResults(),
	})
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}

	hits, misses := h.cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": fmt.Sprintf("%.1f%%", hitRate),
	})
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeError(w, http.StatusServiceUnavailable, "caching is disabled")
		return
	}
	if err := h.cache.Invalidate(r.Context()); err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "cache invalidation failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

func (h *Handler) observeSearch(status docstore.Status, resultType string, cacheHit bool, returned int, start time.Time) {
	if h.metrics == nil {
		return
	}
	cacheStatus := "miss"
	switch {
	case h.cache == nil:
		cacheStatus = "disabled"
	case cacheHit:
		cacheStatus = "hit"
	}
	h.metrics.SearchQueriesTotal.WithLabelValues(status.String(), resultType).Inc()
	h.metrics.SearchLatency.WithLabelValues(cacheStatus).Observe(time.Since(start).Seconds())
	if resultType != "error" {
		h.metrics.SearchResultsCount.Observe(float64(returned))
	}
}

func (h *Handler) observeMatch(outcome string) {
	if h.metrics != nil {
		h.metrics.MatchQueriesTotal.WithLabelValues(outcome).Inc()
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, apperrors.NewResponse(status, message))
}

// Route pairs a ServeMux pattern with its handler.
type Route struct {
	Pattern string
	Handler http.HandlerFunc
}

// Routes lists the query endpoints.
func (h *Handler) Routes() []Route {
	return []Route{
		{"GET /api/v1/search", h.Search},
		{"GET /api/v1/match", h.Match},
		{"PUT /api/v1/stop-words", h.StopWords},
		{"GET /api/v1/stats", h.Stats},
		{"GET /api/v1/cache/stats", h.CacheStats},
		{"POST /api/v1/cache/invalidate", h.CacheInvalidate},
	}
}

// Register mounts the query endpoints on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	for _, r := range h.Routes() {
		mux.HandleFunc(r.Pattern, r.Handler)
	}
}
