package parser

import (
	"strings"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/tokenizer"
)

// minusPrefix marks a word whose documents are excluded from the results.
const minusPrefix = "-"

// Query holds the plus and minus words of a raw query in the order they
// first appear. Duplicates are kept.
type Query struct {
	RawQuery   string   `json:"raw_query"`
	PlusWords  []string `json:"plus_words"`
	MinusWords []string `json:"minus_words"`
}

// Parse splits the raw query, drops stop words and classifies the rest.
// Empty words and a bare "-" are ignored.
func Parse(query string, stopWords *tokenizer.StopWords) *Query {
	q := &Query{
		RawQuery:   query,
		PlusWords:  make([]string, 0),
		MinusWords: make([]string, 0),
	}
	for _, word := range stopWords.Tokenize(query) {
		if word == "" {
			continue
		}
		if strings.HasPrefix(word, minusPrefix) {
			minus := word[len(minusPrefix):]
			if minus == "" {
				continue
			}
			q.MinusWords = append(q.MinusWords, minus)
			continue
		}
		q.PlusWords = append(q.PlusWords, word)
	}
	return q
}

// Empty reports whether the query has no plus words and so cannot match.
func (q *Query) Empty() bool {
	return len(q.PlusWords) == 0
}
