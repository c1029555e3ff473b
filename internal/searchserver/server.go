// Package searchserver is the programmatic entry point of the search engine:
// stop-word configuration, document ingestion, ranked retrieval, match
// diagnostics and the document count.
package searchserver

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/docstore"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/config"
)

// Server is safe for concurrent use by many readers and writers; writes are
// serialised by the engine.
type Server struct {
	engine        *indexer.Engine
	executor      *executor.Executor
	defaultStatus docstore.Status
	maxResults    int
	logger        *slog.Logger
}

func New(cfg config.SearchConfig) (*Server, error) {
	status := docstore.StatusActual
	if cfg.DefaultStatus != "" {
		parsed, err := docstore.ParseStatus(cfg.DefaultStatus)
		if err != nil {
			return nil, fmt.Errorf("default status: %w", err)
		}
		status = parsed
	}
	limit := cfg.ResultLimit
	if limit <= 0 {
		limit = ranker.DefaultLimit
	}
	maxResults := cfg.MaxResults
	if maxResults < limit {
		maxResults = limit
	}

	engine := indexer.NewEngine(cfg.StopWords)
	return &Server{
		engine:        engine,
		executor:      executor.New(engine, limit),
		defaultStatus: status,
		maxResults:    maxResults,
		logger:        slog.Default().With("component", "search-server"),
	}, nil
}

// SetStopWords merges the space-separated words into the stop-word set.
// Already indexed documents are not re-tokenized.
func (s *Server) SetStopWords(text string) {
	s.engine.SetStopWords(text)
}

func (s *Server) AddDocument(docID int, text string, status docstore.Status, ratings []int) error {
	if err := s.engine.IndexDocument(docID, text, status, ratings); err != nil {
		return err
	}
	s.logger.Info("document added", "doc_id", docID, "status", status.String())
	return nil
}

// FindTopDocuments returns the best documents for the query. The optional
// status overrides the configured default status.
func (s *Server) FindTopDocuments(query string, status ...docstore.Status) ([]ranker.ScoredDoc, error) {
	st := s.defaultStatus
	if len(status) > 0 {
		st = status[0]
	}
	res, err := s.Search(context.Background(), executor.SearchRequest{Query: query, Status: st})
	if err != nil {
		return nil, err
	}
	return res.Results, nil
}

// Search runs a top-documents query with an explicit limit, capped at the
// configured maximum.
func (s *Server) Search(ctx context.Context, req executor.SearchRequest) (*executor.SearchResult, error) {
	if req.Limit > s.maxResults {
		req.Limit = s.maxResults
	}
	return s.executor.Execute(ctx, req)
}

func (s *Server) MatchDocument(query string, docID int) (*executor.MatchResult, error) {
	return s.executor.Match(context.Background(), query, docID)
}

func (s *Server) DocumentCount() int {
	return s.engine.DocCount()
}

func (s *Server) Stats() indexer.Stats {
	return s.engine.Stats()
}

func (s *Server) DefaultStatus() docstore.Status {
	return s.defaultStatus
}

func (s *Server) DefaultLimit() int {
	return s.executor.DefaultLimit()
}

func (s *Server) MaxResults() int {
	return s.maxResults
}
