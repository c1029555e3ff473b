// Package tokenizer provides text tokenisation for the search engine.
// Text is split on single space characters and filtered against a
// configurable stop-word set. No case folding or stemming is applied.
package tokenizer

import (
	"sort"
	"strings"
)

// separator is the only byte that delimits words.
const separator = " "

// Split breaks text into words on every single space. Consecutive spaces
// produce empty words and an empty text yields one empty word.
func Split(text string) []string {
	return strings.Split(text, separator)
}

// StopWords is a set of words excluded from indexing and from queries.
// The zero value is not usable; create one with NewStopWords.
type StopWords struct {
	words map[string]struct{}
}

// NewStopWords creates a stop-word set seeded from a space-separated text.
func NewStopWords(text string) *StopWords {
	sw := &StopWords{words: make(map[string]struct{})}
	if text != "" {
		sw.Add(text)
	}
	return sw
}

// Add merges every word of the space-separated text into the set. Existing
// words are kept; the set is never cleared.
func (s *StopWords) Add(text string) {
	for _, word := range Split(text) {
		s.words[word] = struct{}{}
	}
}

// Contains reports whether word is a stop word.
func (s *StopWords) Contains(word string) bool {
	_, ok := s.words[word]
	return ok
}

// Filter returns the words that are not stop words, preserving order.
func (s *StopWords) Filter(words []string) []string {
	filtered := make([]string, 0, len(words))
	for _, word := range words {
		if s.Contains(word) {
			continue
		}
		filtered = append(filtered, word)
	}
	return filtered
}

// Tokenize splits text and removes stop words.
func (s *StopWords) Tokenize(text string) []string {
	return s.Filter(Split(text))
}

func (s *StopWords) Len() int {
	return len(s.words)
}

// Words returns the stop words in lexical order.
func (s *StopWords) Words() []string {
	words := make([]string, 0, len(s.words))
	for w := range s.words {
		words = append(words, w)
	}
	sort.Strings(words)
	return words
}
