package executor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/docstore"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/ranker"
)

// SearchRequest describes one top-documents query. A zero Limit means the
// executor's default limit.
type SearchRequest struct {
	Query  string
	Status docstore.Status
	Limit  int
}

type SearchResult struct {
	Query      string             `json:"query"`
	Status     docstore.Status    `json:"status"`
	PlusWords  []string           `json:"plus_words"`
	MinusWords []string           `json:"minus_words"`
	TotalHits  int                `json:"total_hits"`
	Results    []ranker.ScoredDoc `json:"results"`
}

// MatchResult lists the plus words of a query found in one document.
type MatchResult struct {
	DocumentID int             `json:"document_id"`
	Words      []string        `json:"words"`
	Status     docstore.Status `json:"status"`
}

type Executor struct {
	engine       *indexer.Engine
	defaultLimit int
	logger       *slog.Logger
}

func New(engine *indexer.Engine, defaultLimit int) *Executor {
	if defaultLimit <= 0 {
		defaultLimit = ranker.DefaultLimit
	}
	return &Executor{
		engine:       engine,
		defaultLimit: defaultLimit,
		logger:       slog.Default().With("component", "query-executor"),
	}
}

func (e *Executor) DefaultLimit() int {
	return e.defaultLimit
}

// Execute scores every document with the requested status against the
// query and returns the best ones.
func (e *Executor) Execute(ctx context.Context, req SearchRequest) (*SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	limit := req.Limit
	if limit <= 0 {
		limit = e.defaultLimit
	}

	var (
		plan   *parser.Query
		scored []ranker.ScoredDoc
		err    error
	)
	e.engine.View(func(v *indexer.View) {
		plan = parser.Parse(req.Query, v.StopWords())
		if plan.Empty() {
			return
		}
		scored, err = ranker.Score(v, plan, req.Status)
	})
	if err != nil {
		return nil, fmt.Errorf("scoring query %q: %w", req.Query, err)
	}

	ranked := ranker.Rank(scored, limit)
	e.logger.Debug("query executed",
		"query", req.Query,
		"plus_words", plan.PlusWords,
		"minus_words", plan.MinusWords,
		"status", req.Status.String(),
		"candidates", len(scored),
		"results", len(ranked),
	)
	return &SearchResult{
		Query:      req.Query,
		Status:     req.Status,
		PlusWords:  plan.PlusWords,
		MinusWords: plan.MinusWords,
		TotalHits:  len(scored),
		Results:    ranked,
	}, nil
}

// Match reports which plus words of the query occur in the document and
// the document's status. Minus words do not veto the report. An unknown
// document fails with ErrDocumentNotFound.
func (e *Executor) Match(ctx context.Context, query string, docID int) (*MatchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		result *MatchResult
		err    error
	)
	e.engine.View(func(v *indexer.View) {
		doc, lookupErr := v.Document(docID)
		if lookupErr != nil {
			err = lookupErr
			return
		}
		plan := parser.Parse(query, v.StopWords())
		words := make([]string, 0, len(plan.PlusWords))
		seen := make(map[string]struct{}, len(plan.PlusWords))
		for _, word := range plan.PlusWords {
			if _, dup := seen[word]; dup {
				continue
			}
			seen[word] = struct{}{}
			if v.Postings(word).Contains(docID) {
				words = append(words, word)
			}
		}
		result = &MatchResult{
			DocumentID: docID,
			Words:      words,
			Status:     doc.Status,
		}
	})
	if err != nil {
		return nil, fmt.Errorf("matching document %d: %w", docID, err)
	}
	return result, nil
}
