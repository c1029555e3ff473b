// Package analytics collects search events, ships them through Kafka and
// aggregates them into query statistics.
package analytics

import "time"

type EventType string

const (
	EventSearch EventType = "search"
	EventMatch  EventType = "match"
	EventIndex  EventType = "index_document"
)

// SearchEvent describes one top-documents query.
type SearchEvent struct {
	Type          EventType `json:"type"`
	Query         string    `json:"query"`
	PlusWords     []string  `json:"plus_words"`
	MinusWords    []string  `json:"minus_words"`
	Status        string    `json:"status"`
	Limit         int       `json:"limit"`
	TotalHits     int       `json:"total_hits"`
	Returned      int       `json:"returned"`
	LatencyMicros int64     `json:"latency_us"`
	CacheHit      bool      `json:"cache_hit"`
	Timestamp     time.Time `json:"timestamp"`
	RequestID     string    `json:"request_id,omitempty"`
}

// MatchEvent describes one match-diagnostics query.
type MatchEvent struct {
	Type         EventType `json:"type"`
	Query        string    `json:"query"`
	DocumentID   int       `json:"document_id"`
	MatchedWords int       `json:"matched_words"`
	Found        bool      `json:"found"`
	Timestamp    time.Time `json:"timestamp"`
	RequestID    string    `json:"request_id,omitempty"`
}

type IndexEvent struct {
	Type       EventType `json:"type"`
	DocumentID int       `json:"document_id"`
	Source     string    `json:"source"`
	Timestamp  time.Time `json:"timestamp"`
}

// eventHeader is decoded first to pick the concrete event type.
type eventHeader struct {
	Type EventType `json:"type"`
}
