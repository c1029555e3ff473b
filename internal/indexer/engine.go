package indexer

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/docstore"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
)

// Engine owns the inverted index, the document store and the stop words.
// Ingestion takes the write lock; queries run inside View under the read
// lock so they always see a consistent index.
type Engine struct {
	mu        sync.RWMutex
	memIndex  *index.MemoryIndex
	docs      *docstore.Store
	stopWords *tokenizer.StopWords
	logger    *slog.Logger
}

// Stats summarises the engine contents.
type Stats struct {
	Documents int `json:"documents"`
	Terms     int `json:"terms"`
	StopWords int `json:"stop_words"`
}

func NewEngine(stopWords string) *Engine {
	return &Engine{
		memIndex:  index.NewMemoryIndex(),
		docs:      docstore.NewStore(),
		stopWords: tokenizer.NewStopWords(stopWords),
		logger:    slog.Default().With("component", "indexer"),
	}
}

// SetStopWords merges the space-separated words into the stop-word set.
// Documents indexed earlier keep their terms.
func (e *Engine) SetStopWords(text string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopWords.Add(text)
	e.logger.Debug("stop words updated", "stop_words", e.stopWords.Len())
}

// IndexDocument tokenizes text, folds it into the inverted index and stores
// the document's average rating and status. An id that was already ingested
// is rejected with ErrDocumentExists and leaves the index untouched.
func (e *Engine) IndexDocument(docID int, text string, status docstore.Status, ratings []int) error {
	if docID < 0 {
		return fmt.Errorf("document id %d is negative: %w", docID, apperrors.ErrInvalidInput)
	}
	if !status.Valid() {
		return fmt.Errorf("document %d has invalid status %d: %w", docID, int(status), apperrors.ErrInvalidInput)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.docs.Has(docID) {
		return fmt.Errorf("indexing document %d: %w", docID, apperrors.ErrDocumentExists)
	}
	words := e.stopWords.Tokenize(text)
	e.memIndex.AddDocument(docID, words)
	rating := docstore.AverageRating(ratings)
	e.docs.Put(docID, rating, status)

	e.logger.Debug("document indexed in memory",
		"doc_id", docID,
		"token_count", len(words),
		"status", status.String(),
		"rating", rating,
	)
	return nil
}

// DocCount returns the number of ingested documents.
func (e *Engine) DocCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.memIndex.DocCount()
}

func (e *Engine) Stats() Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return Stats{
		Documents: e.memIndex.DocCount(),
		Terms:     e.memIndex.TermCount(),
		StopWords: e.stopWords.Len(),
	}
}

// View runs fn with a read-only view of the engine. The view must not be
// retained after fn returns.
func (e *Engine) View(fn func(v *View)) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	fn(&View{e: e})
}

// View is a read-only handle on the engine, valid only inside Engine.View.
type View struct {
	e *Engine
}

func (v *View) DocCount() int {
	return v.e.memIndex.DocCount()
}

func (v *View) Postings(word string) index.PostingList {
	return v.e.memIndex.Postings(word)
}

func (v *View) Document(docID int) (docstore.Document, error) {
	return v.e.docs.Get(docID)
}

func (v *View) StopWords() *tokenizer.StopWords {
	return v.e.stopWords
}

func (v *View) Snapshot() []index.TermEntry {
	return v.e.memIndex.Snapshot()
}
