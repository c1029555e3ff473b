package docstore

import (
	"encoding/json"
	"errors"
	"testing"

	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
)

func TestAverageRating(t *testing.T) {
	tests := []struct {
		ratings []int
		want    int
	}{
		{nil, 0},
		{[]int{}, 0},
		{[]int{7, 2, 7}, 5},
		{[]int{-3, 8}, 2},
		{[]int{8, -3}, 2},
		{[]int{5, -12, 2, 1}, -1},
		{[]int{-7}, -7},
		{[]int{-1, -2}, -1},
	}
	for _, tt := range tests {
		if got := AverageRating(tt.ratings); got != tt.want {
			t.Errorf("AverageRating(%v) = %d, want %d", tt.ratings, got, tt.want)
		}
	}
}

func TestStorePutGet(t *testing.T) {
	s := NewStore()
	s.Put(3, 9, StatusBanned)
	doc, err := s.Get(3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Rating != 9 || doc.Status != StatusBanned || doc.ID != 3 {
		t.Errorf("unexpected document %+v", doc)
	}

	s.Put(3, 1, StatusActual)
	doc, _ = s.Get(3)
	if doc.Rating != 1 || doc.Status != StatusActual {
		t.Errorf("Put must overwrite, got %+v", doc)
	}
	if s.Len() != 1 || !s.Has(3) {
		t.Errorf("expected a single stored document")
	}
}

func TestStoreGetNotFound(t *testing.T) {
	s := NewStore()
	_, err := s.Get(404)
	if !errors.Is(err, apperrors.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in      string
		want    Status
		wantErr bool
	}{
		{"ACTUAL", StatusActual, false},
		{"irrelevant", StatusIrrelevant, false},
		{" Banned ", StatusBanned, false},
		{"REMOVED", StatusRemoved, false},
		{"archived", StatusActual, true},
		{"", StatusActual, true},
	}
	for _, tt := range tests {
		got, err := ParseStatus(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseStatus(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err != nil && !errors.Is(err, apperrors.ErrInvalidInput) {
			t.Errorf("ParseStatus(%q) should wrap ErrInvalidInput", tt.in)
		}
		if got != tt.want {
			t.Errorf("ParseStatus(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestStatusJSON(t *testing.T) {
	data, err := json.Marshal(Document{ID: 1, Rating: 2, Status: StatusBanned})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"id":1,"rating":2,"status":"BANNED"}` {
		t.Errorf("unexpected JSON %s", data)
	}
	var doc Document
	if err := json.Unmarshal([]byte(`{"id":4,"status":"removed"}`), &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if doc.Status != StatusRemoved {
		t.Errorf("status = %v, want REMOVED", doc.Status)
	}
	if Status(9).String() != "Status(9)" {
		t.Errorf("unexpected string for invalid status: %s", Status(9))
	}
}
