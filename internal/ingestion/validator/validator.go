// Package validator checks ingestion requests before they reach the index
// and returns per-field error details.
package validator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/docstore"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/ingestion"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
)

const (
	maxTextLength = 1048576
	maxRatings    = 10000
)

// ValidationError holds per-field validation failure messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, msg))
	}
	sort.Strings(parts)
	return strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return apperrors.ErrInvalidInput
}

// ValidateIngestRequest checks the request and returns the parsed status.
// A missing status means ACTUAL. Text may be empty; it is indexed under one
// empty word, like the empty words produced by repeated spaces.
func ValidateIngestRequest(req *ingestion.IngestRequest) (docstore.Status, error) {
	errs := make(map[string]string)

	if req.ID == nil {
		errs["id"] = "id is required"
	} else if *req.ID < 0 {
		errs["id"] = "id must not be negative"
	}
	if len(req.Text) > maxTextLength {
		errs["text"] = fmt.Sprintf("text must be at most %d bytes", maxTextLength)
	}
	if len(req.Ratings) > maxRatings {
		errs["ratings"] = fmt.Sprintf("at most %d ratings are accepted", maxRatings)
	}
	status := docstore.StatusActual
	if req.Status != "" {
		parsed, err := docstore.ParseStatus(req.Status)
		if err != nil {
			errs["status"] = "status must be one of ACTUAL, IRRELEVANT, BANNED, REMOVED"
		} else {
			status = parsed
		}
	}
	if len(errs) > 0 {
		return status, &ValidationError{Fields: errs}
	}
	return status, nil
}
