package cmd

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

const testCorpus = `
stopWords: "и в на"
documents:
  - {id: 0, text: белый кот и модный ошейник, ratings: [8, -3]}
  - {id: 1, text: пушистый кот пушистый хвост, ratings: [7, 2, 7]}
  - {id: 2, text: ухоженный пёс выразительные глаза, ratings: [5, -12, 2, 1]}
  - {id: 3, text: ухоженный скворец евгений, status: BANNED, ratings: [9]}
`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "corpus.yaml")
	if err := os.WriteFile(path, []byte(testCorpus), 0o644); err != nil {
		t.Fatal(err)
	}
	findStatus, findLimit, matchID, outputFormat = "", 0, 0, "table"

	var out, logs bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&logs)
	rootCmd.SetArgs(append([]string{"--corpus", path}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestFindText(t *testing.T) {
	out, err := run(t, "find", "-o", "text", "пушистый", "ухоженный", "кот")
	if err != nil {
		t.Fatal(err)
	}
	want := "{ document_id = 1, relevance = 0.866434, rating = 5 }\n" +
		"{ document_id = 0, relevance = 0.173287, rating = 2 }\n" +
		"{ document_id = 2, relevance = 0.173287, rating = -1 }\n"
	if out != want {
		t.Errorf("output:\n%s\nwant:\n%s", out, want)
	}
}

func TestFindJSONWithStatus(t *testing.T) {
	out, err := run(t, "find", "-o", "json", "--status", "banned", "пушистый", "ухоженный", "кот")
	if err != nil {
		t.Fatal(err)
	}
	var result struct {
		Status  string `json:"status"`
		Results []struct {
			ID int `json:"id"`
		} `json:"results"`
	}
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if result.Status != "BANNED" || len(result.Results) != 1 || result.Results[0].ID != 3 {
		t.Errorf("unexpected result %+v", result)
	}
}

func TestFindMinusWordAfterDashes(t *testing.T) {
	out, err := run(t, "find", "-o", "text", "--", "кот", "-хвост")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "{ document_id = 0,") || strings.Count(out, "\n") != 1 {
		t.Errorf("unexpected output %q", out)
	}
}

func TestFindTable(t *testing.T) {
	out, err := run(t, "find", "--limit", "1", "кот")
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "ID") {
		t.Errorf("unexpected table %q", out)
	}

	out, err = run(t, "find", "попугай")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "No documents found.") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestFindRejectsUnknownStatus(t *testing.T) {
	if _, err := run(t, "find", "--status", "deleted", "кот"); err == nil {
		t.Fatal("expected an error")
	}
}

func TestMatch(t *testing.T) {
	out, err := run(t, "match", "--id", "1", "пушистый", "кот")
	if err != nil {
		t.Fatal(err)
	}
	if out != "{ document_id = 1, status = ACTUAL, words = [пушистый кот] }\n" {
		t.Errorf("unexpected output %q", out)
	}
	if _, err := run(t, "match", "--id", "9", "кот"); err == nil {
		t.Error("expected an error for an unknown document")
	}
}

func TestMatchIgnoresMinusWords(t *testing.T) {
	out, err := run(t, "match", "--id", "1", "--", "пушистый", "кот", "-хвост")
	if err != nil {
		t.Fatal(err)
	}
	if out != "{ document_id = 1, status = ACTUAL, words = [пушистый кот] }\n" {
		t.Errorf("a minus word in the document must not suppress the report, got %q", out)
	}
}

func TestCount(t *testing.T) {
	out, err := run(t, "count", "-o", "text")
	if err != nil {
		t.Fatal(err)
	}
	if out != "4\n" {
		t.Errorf("count = %q, want 4", out)
	}
}

func TestLoad(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/search" || r.URL.Query().Get("q") == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		hits.Add(1)
		w.Write([]byte(`{"results":[]}`))
	}))
	defer srv.Close()

	out, err := run(t, "load", "--url", srv.URL, "--concurrency", "2", "--duration", "200ms")
	if err != nil {
		t.Fatalf("load: %v\n%s", err, out)
	}
	if hits.Load() == 0 {
		t.Fatal("server received no searches")
	}
	if !strings.Contains(out, "=== Status Codes ===") || !strings.Contains(out, "  200: ") {
		t.Errorf("unexpected report:\n%s", out)
	}
}

func TestLatencyPercentile(t *testing.T) {
	sorted := []time.Duration{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	tests := []struct {
		p    float64
		want time.Duration
	}{
		{50, 5},
		{95, 10},
		{0, 1},
	}
	for _, tt := range tests {
		if got := latencyPercentile(sorted, tt.p); got != tt.want {
			t.Errorf("p%.0f = %v, want %v", tt.p, got, tt.want)
		}
	}
}
