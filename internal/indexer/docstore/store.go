// Package docstore keeps per-document metadata (average rating and status)
// alongside the inverted index.
package docstore

import (
	"fmt"

	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
)

// Document is the metadata stored for one ingested document.
type Document struct {
	ID     int    `json:"id"`
	Rating int    `json:"rating"`
	Status Status `json:"status"`
}

// Store is not safe for concurrent use; indexer.Engine serialises access.
type Store struct {
	docs map[int]Document
}

func NewStore() *Store {
	return &Store{docs: make(map[int]Document)}
}

// Put inserts or overwrites the metadata for id.
func (s *Store) Put(id int, rating int, status Status) {
	s.docs[id] = Document{ID: id, Rating: rating, Status: status}
}

func (s *Store) Get(id int) (Document, error) {
	doc, ok := s.docs[id]
	if !ok {
		return Document{}, fmt.Errorf("document %d: %w", id, apperrors.ErrDocumentNotFound)
	}
	return doc, nil
}

func (s *Store) Has(id int) bool {
	_, ok := s.docs[id]
	return ok
}

func (s *Store) Len() int {
	return len(s.docs)
}

// AverageRating returns the truncated integer mean of ratings, or 0 for an
// empty list.
func AverageRating(ratings []int) int {
	if len(ratings) == 0 {
		return 0
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	return sum / len(ratings)
}
