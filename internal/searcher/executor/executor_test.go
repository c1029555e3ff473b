package executor

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/docstore"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/ranker"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
)

func newTestExecutor(t *testing.T) *Executor {
	t.Helper()
	engine := indexer.NewEngine("и в на")
	docs := []struct {
		id      int
		text    string
		status  docstore.Status
		ratings []int
	}{
		{0, "белый кот и модный ошейник", docstore.StatusActual, []int{8, -3}},
		{1, "пушистый кот пушистый хвост", docstore.StatusActual, []int{7, 2, 7}},
		{2, "ухоженный пёс выразительные глаза", docstore.StatusActual, []int{5, -12, 2, 1}},
		{3, "ухоженный скворец евгений", docstore.StatusBanned, []int{9}},
	}
	for _, d := range docs {
		if err := engine.IndexDocument(d.id, d.text, d.status, d.ratings); err != nil {
			t.Fatalf("IndexDocument(%d): %v", d.id, err)
		}
	}
	return New(engine, 0)
}

func resultIDs(docs []ranker.ScoredDoc) []int {
	out := make([]int, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.ID)
	}
	return out
}

func TestExecute(t *testing.T) {
	ex := newTestExecutor(t)
	tests := []struct {
		name   string
		query  string
		status docstore.Status
		want   []int
	}{
		{"actual", "пушистый ухоженный кот", docstore.StatusActual, []int{1, 0, 2}},
		{"banned", "пушистый ухоженный кот", docstore.StatusBanned, []int{3}},
		{"minus word", "пушистый ухоженный кот -хвост", docstore.StatusActual, []int{0, 2}},
		{"no plus words", "-кот", docstore.StatusActual, []int{}},
		{"unknown words", "попугай", docstore.StatusActual, []int{}},
		{"removed status", "кот", docstore.StatusRemoved, []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := ex.Execute(context.Background(), SearchRequest{Query: tt.query, Status: tt.status})
			if err != nil {
				t.Fatalf("Execute: %v", err)
			}
			if got := resultIDs(res.Results); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("results = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExecuteRatingsAndRelevance(t *testing.T) {
	ex := newTestExecutor(t)
	res, err := ex.Execute(context.Background(), SearchRequest{Query: "пушистый ухоженный кот", Status: docstore.StatusActual})
	if err != nil {
		t.Fatal(err)
	}
	wantRatings := []int{5, 2, -1}
	for i, doc := range res.Results {
		if doc.Rating != wantRatings[i] {
			t.Errorf("result %d rating = %d, want %d", i, doc.Rating, wantRatings[i])
		}
	}
	if res.Results[1].Relevance != res.Results[2].Relevance {
		t.Errorf("documents 0 and 2 should tie, got %v and %v", res.Results[1].Relevance, res.Results[2].Relevance)
	}
	if res.TotalHits != 3 {
		t.Errorf("TotalHits = %d, want 3", res.TotalHits)
	}
}

func TestExecuteLimit(t *testing.T) {
	ex := newTestExecutor(t)
	res, err := ex.Execute(context.Background(), SearchRequest{Query: "пушистый ухоженный кот", Status: docstore.StatusActual, Limit: 2})
	if err != nil {
		t.Fatal(err)
	}
	if got := resultIDs(res.Results); !reflect.DeepEqual(got, []int{1, 0}) {
		t.Errorf("results = %v, want [1 0]", got)
	}
	if res.TotalHits != 3 {
		t.Errorf("TotalHits must count all candidates, got %d", res.TotalHits)
	}
}

func TestExecuteIdempotent(t *testing.T) {
	ex := newTestExecutor(t)
	req := SearchRequest{Query: "пушистый ухоженный кот", Status: docstore.StatusActual}
	first, _ := ex.Execute(context.Background(), req)
	for i := 0; i < 10; i++ {
		again, _ := ex.Execute(context.Background(), req)
		if !reflect.DeepEqual(first.Results, again.Results) {
			t.Fatalf("run %d differs: %+v vs %+v", i, again.Results, first.Results)
		}
	}
}

func TestExecuteCancelledContext(t *testing.T) {
	ex := newTestExecutor(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := ex.Execute(ctx, SearchRequest{Query: "кот"}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestMatch(t *testing.T) {
	ex := newTestExecutor(t)
	tests := []struct {
		name   string
		query  string
		docID  int
		words  []string
		status docstore.Status
	}{
		{"two words", "пушистый кот", 1, []string{"пушистый", "кот"}, docstore.StatusActual},
		{"minus word ignored", "кот -хвост", 1, []string{"кот"}, docstore.StatusActual},
		{"duplicates reported once", "кот кот", 0, []string{"кот"}, docstore.StatusActual},
		{"banned document", "ухоженный скворец", 3, []string{"ухоженный", "скворец"}, docstore.StatusBanned},
		{"no match", "попугай", 2, []string{}, docstore.StatusActual},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := ex.Match(context.Background(), tt.query, tt.docID)
			if err != nil {
				t.Fatalf("Match: %v", err)
			}
			if !reflect.DeepEqual(res.Words, tt.words) {
				t.Errorf("Words = %q, want %q", res.Words, tt.words)
			}
			if res.Status != tt.status {
				t.Errorf("Status = %v, want %v", res.Status, tt.status)
			}
			if res.DocumentID != tt.docID {
				t.Errorf("DocumentID = %d, want %d", res.DocumentID, tt.docID)
			}
		})
	}
}

func TestMatchUnknownDocument(t *testing.T) {
	ex := newTestExecutor(t)
	_, err := ex.Match(context.Background(), "кот", 42)
	if !errors.Is(err, apperrors.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
}
