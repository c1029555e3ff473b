// Package index holds the in-memory inverted index mapping each word to the
// term frequencies of the documents that contain it.
package index

import (
	"slices"
	"sort"
)

// MemoryIndex is not safe for concurrent use; indexer.Engine serialises
// access to it. Every posting list is kept ordered by DocID as documents
// are added, so reads never sort.
type MemoryIndex struct {
	index    map[string]PostingList
	docCount int
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		index: make(map[string]PostingList),
	}
}

// AddDocument records tf = occurrences/len(words) for every distinct word.
// A posting that already exists for (word, docID) is left untouched.
func (m *MemoryIndex) AddDocument(docID int, words []string) {
	m.docCount++
	if len(words) == 0 {
		return
	}

	counts := make(map[string]int, len(words))
	for _, word := range words {
		counts[word]++
	}
	total := float64(len(words))
	for word, n := range counts {
		m.index[word] = m.index[word].insert(Posting{DocID: docID, TF: float64(n) / total})
	}
}

// Postings returns the postings for word ordered by ascending document id,
// or nil if the word was never indexed. The list is shared with the index:
// it must not be modified and is only valid until the next AddDocument.
func (m *MemoryIndex) Postings(word string) PostingList {
	return m.index[word]
}

// Snapshot returns a copy of every term with its postings, sorted by term.
func (m *MemoryIndex) Snapshot() []TermEntry {
	entries := make([]TermEntry, 0, len(m.index))
	for term, postings := range m.index {
		entries = append(entries, TermEntry{
			Term:     term,
			Postings: slices.Clone(postings),
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Term < entries[j].Term
	})
	return entries
}

// DocCount returns the number of AddDocument calls.
func (m *MemoryIndex) DocCount() int {
	return m.docCount
}

func (m *MemoryIndex) TermCount() int {
	return len(m.index)
}
