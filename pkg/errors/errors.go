// Package errors holds the sentinel errors shared by the indexer, the
// searcher and the ingestion path, and the JSON error body every HTTP
// handler replies with.
package errors

import (
	"context"
	"errors"
	"net/http"
)

var (
	// ErrDocumentNotFound reports an id that was never indexed.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrDocumentExists reports an id that is already indexed. Documents
	// are immutable once added.
	ErrDocumentExists = errors.New("document already exists")
	// ErrInvalidInput covers negative ids, unknown statuses and malformed
	// corpus or request payloads.
	ErrInvalidInput = errors.New("invalid input")
)

// Response is the body of every non-2xx JSON reply.
type Response struct {
	Error  string            `json:"error"`
	Code   string            `json:"code"`
	Fields map[string]string `json:"fields,omitempty"`
}

// NewResponse builds the error body for status with a stable, machine
// readable code derived from the status.
func NewResponse(status int, message string) Response {
	return Response{Error: message, Code: codeFor(status)}
}

// HTTPStatusCode maps err onto the status its reply should carry.
func HTTPStatusCode(err error) int {
	switch {
	case errors.Is(err, ErrDocumentNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDocumentExists):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func codeFor(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "invalid_input"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "already_exists"
	case http.StatusTooManyRequests:
		return "rate_limited"
	case http.StatusBadGateway:
		return "upstream_failed"
	case http.StatusServiceUnavailable:
		return "unavailable"
	case http.StatusGatewayTimeout:
		return "timeout"
	default:
		return "internal"
	}
}
