package index

import (
	"strings"
	"testing"
)

var benchWords = strings.Split("search engine with inverted indexing and query processing", " ")

// BenchmarkMemoryIndexAdd measures per-document insert throughput.
func BenchmarkMemoryIndexAdd(b *testing.B) {
	mi := NewMemoryIndex()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		mi.AddDocument(i, benchWords)
	}
}

// BenchmarkMemoryIndexPostings measures single-term lookup latency over
// 10 000 documents.
func BenchmarkMemoryIndexPostings(b *testing.B) {
	mi := NewMemoryIndex()
	for i := 0; i < 10000; i++ {
		mi.AddDocument(i, benchWords)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		postings := mi.Postings("search")
		_ = postings
	}
}

func BenchmarkMemoryIndexSnapshot(b *testing.B) {
	mi := NewMemoryIndex()
	for i := 0; i < 5000; i++ {
		mi.AddDocument(i, benchWords)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		snapshot := mi.Snapshot()
		_ = snapshot
	}
}
