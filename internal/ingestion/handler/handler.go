// Package handler serves POST /api/v1/documents. Documents are indexed
// synchronously, or queued on Kafka when the request asks for ?async=true
// and a publisher is configured.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/ingestion/publisher"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/ingestion/validator"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searchserver"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/metrics"
)

const maxBodyBytes = 2 << 20

// Invalidator drops cached query results after the index changes.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

type Handler struct {
	server    *searchserver.Server
	publisher *publisher.Publisher
	cache     Invalidator
	tracker   analytics.Tracker
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// New creates the ingestion handler. pub, cache, tracker and m may be nil.
func New(server *searchserver.Server, pub *publisher.Publisher, cache Invalidator, tracker analytics.Tracker, m *metrics.Metrics) *Handler {
	return &Handler{
		server:    server,
		publisher: pub,
		cache:     cache,
		tracker:   tracker,
		metrics:   m,
		logger:    slog.Default().With("component", "ingestion-handler"),
	}
}

func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)
	var req ingestion.IngestRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	status, err := validator.ValidateIngestRequest(&req)
	if err != nil {
		var validationErr *validator.ValidationError
		if errors.As(err, &validationErr) {
			resp := apperrors.NewResponse(http.StatusBadRequest, "validation failed")
			resp.Fields = validationErr.Fields
			h.writeJSON(w, http.StatusBadRequest, resp)
			return
		}
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if r.URL.Query().Get("async") == "true" {
		h.enqueue(w, r, &req)
		return
	}

	if err := h.server.AddDocument(*req.ID, req.Text, status, req.Ratings); err != nil {
		statusCode := apperrors.HTTPStatusCode(err)
		log.Warn("ingestion failed",
			"doc_id", *req.ID,
			"error", err,
			"status_code", statusCode,
		)
		h.record("rejected")
		h.writeError(w, statusCode, err.Error())
		return
	}
	h.record("ok")
	if h.cache != nil {
		if err := h.cache.Invalidate(ctx); err != nil {
			log.Warn("cache invalidation failed", "error", err)
		}
	}
	if h.tracker != nil {
		h.tracker.Track(analytics.IndexEvent{
			Type:       analytics.EventIndex,
			DocumentID: *req.ID,
			Source:     "http",
			Timestamp:  time.Now().UTC(),
		})
	}
	count := h.server.DocumentCount()
	if h.metrics != nil {
		h.metrics.DocumentCount.Set(float64(count))
	}
	log.Info("document ingested", "doc_id", *req.ID, "status", status.String())
	h.writeJSON(w, http.StatusCreated, ingestion.IngestResponse{
		DocumentID: *req.ID,
		Status:     status.String(),
		State:      ingestion.StateIndexed,
		Documents:  count,
	})
}

func (h *Handler) enqueue(w http.ResponseWriter, r *http.Request, req *ingestion.IngestRequest) {
	if h.publisher == nil {
		h.writeError(w, http.StatusServiceUnavailable, "asynchronous ingestion is not enabled")
		return
	}
	resp, err := h.publisher.Publish(r.Context(), req)
	if err != nil {
		logger.FromContext(r.Context()).Error("publishing document failed", "doc_id", *req.ID, "error", err)
		h.writeError(w, http.StatusBadGateway, "publishing document failed")
		return
	}
	h.writeJSON(w, http.StatusAccepted, resp)
}

func (h *Handler) record(outcome string) {
	if h.metrics != nil {
		h.metrics.DocsIndexedTotal.WithLabelValues("http", outcome).Inc()
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
