package ranker

import (
	"fmt"
	"math"
	"sort"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/docstore"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/parser"
)

// DefaultLimit is the number of documents returned when no limit is set.
const DefaultLimit = 5

type ScoredDoc struct {
	ID        int     `json:"id"`
	Relevance float64 `json:"relevance"`
	Rating    int     `json:"rating"`
}

// Source is the read side of the index consulted while scoring.
type Source interface {
	DocCount() int
	Postings(word string) index.PostingList
	Document(docID int) (docstore.Document, error)
}

// Score accumulates tf*idf over the plus words for every document with the
// requested status, then drops every document containing a minus word,
// whatever its status. The result is ordered by ascending document id.
func Score(src Source, q *parser.Query, status docstore.Status) ([]ScoredDoc, error) {
	relevance := make(map[int]float64)
	docs := make(map[int]docstore.Document)
	totalDocs := src.DocCount()

	for _, word := range q.PlusWords {
		postings := src.Postings(word)
		if len(postings) == 0 {
			continue
		}
		idf := computeIDF(totalDocs, len(postings))
		for _, p := range postings {
			doc, ok := docs[p.DocID]
			if !ok {
				var err error
				doc, err = src.Document(p.DocID)
				if err != nil {
					return nil, fmt.Errorf("scoring word %q: %w", word, err)
				}
				docs[p.DocID] = doc
			}
			if doc.Status != status {
				continue
			}
			relevance[p.DocID] += p.TF * idf
		}
	}

	for _, word := range q.MinusWords {
		for _, p := range src.Postings(word) {
			delete(relevance, p.DocID)
		}
	}

	result := make([]ScoredDoc, 0, len(relevance))
	for docID, score := range relevance {
		result = append(result, ScoredDoc{
			ID:        docID,
			Relevance: score,
			Rating:    docs[docID].Rating,
		})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// Rank orders scored documents by descending relevance and keeps the first
// limit of them. The sort is stable, so documents with equal relevance keep
// the ascending-id order produced by Score. A non-positive limit means
// DefaultLimit.
func Rank(scored []ScoredDoc, limit int) []ScoredDoc {
	if limit <= 0 {
		limit = DefaultLimit
	}
	result := make([]ScoredDoc, len(scored))
	copy(result, scored)
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Relevance > result[j].Relevance
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result
}

// computeIDF is ln(totalDocs/docFreq). It can be negative only when the
// posting count exceeds the document count.
func computeIDF(totalDocs int, docFreq int) float64 {
	return math.Log(float64(totalDocs) / float64(docFreq))
}
