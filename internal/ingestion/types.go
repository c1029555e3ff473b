// Package ingestion defines the request/response types and Kafka event schema
// used to add documents to the search server.
package ingestion

import "time"

// IngestRequest is the JSON body accepted by POST /api/v1/documents and the
// document entry of a corpus file. ID is a pointer so that a missing id can
// be told apart from id 0.
type IngestRequest struct {
	ID      *int   `json:"id" yaml:"id"`
	Text    string `json:"text" yaml:"text"`
	Status  string `json:"status,omitempty" yaml:"status"`
	Ratings []int  `json:"ratings" yaml:"ratings"`
}

// IngestResponse is returned to the caller after a document is accepted.
type IngestResponse struct {
	DocumentID int    `json:"document_id"`
	Status     string `json:"status"`
	State      string `json:"state"`
	Documents  int    `json:"documents,omitempty"`
}

const (
	StateIndexed = "INDEXED"
	StateQueued  = "QUEUED"
)

// IngestEvent is the Kafka message payload on the document-ingest topic.
type IngestEvent struct {
	EventID     string    `json:"event_id"`
	DocumentID  int       `json:"document_id"`
	Text        string    `json:"text"`
	Status      string    `json:"status"`
	Ratings     []int     `json:"ratings"`
	PublishedAt time.Time `json:"published_at"`
}
