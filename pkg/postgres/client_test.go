package postgres

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
)

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"connection failure", &pq.Error{Code: "08006"}, true},
		{"serialization failure", fmt.Errorf("saving: %w", &pq.Error{Code: "40001"}), true},
		{"admin shutdown", &pq.Error{Code: "57P01"}, true},
		{"too many connections", &pq.Error{Code: "53300"}, true},
		{"undefined table", &pq.Error{Code: "42P01"}, false},
		{"invalid json", &pq.Error{Code: "22P02"}, false},
		{"bad conn", driver.ErrBadConn, true},
		{"socket error", errors.New("read tcp: connection reset by peer"), true},
		{"deadline", context.DeadlineExceeded, true},
		{"cancelled", fmt.Errorf("saving: %w", context.Canceled), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransient(tt.err); got != tt.want {
				t.Errorf("IsTransient(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
