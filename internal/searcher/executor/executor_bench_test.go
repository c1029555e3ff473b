package executor

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/docstore"
)

func benchExecutor(b *testing.B, docs int) *Executor {
	b.Helper()
	engine := indexer.NewEngine("")
	for i := 0; i < docs; i++ {
		text := fmt.Sprintf("term%d term%d term%d common", i%10, i%7, i%3)
		status := docstore.StatusActual
		if i%5 == 0 {
			status = docstore.StatusBanned
		}
		if err := engine.IndexDocument(i, text, status, []int{i % 10}); err != nil {
			b.Fatal(err)
		}
	}
	return New(engine, 10)
}

// BenchmarkExecute measures ranking latency by number of query terms.
func BenchmarkExecute(b *testing.B) {
	ex := benchExecutor(b, 5000)
	for _, tc := range []int{1, 3, 5, 10} {
		b.Run(fmt.Sprintf("terms_%d", tc), func(b *testing.B) {
			words := make([]string, tc)
			for t := range words {
				words[t] = fmt.Sprintf("term%d", t)
			}
			req := SearchRequest{Query: strings.Join(words, " "), Status: docstore.StatusActual}

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := ex.Execute(context.Background(), req); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkExecuteParallel(b *testing.B) {
	ex := benchExecutor(b, 5000)
	req := SearchRequest{Query: "term1 term2 common -term3", Status: docstore.StatusActual}

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := ex.Execute(context.Background(), req); err != nil {
				b.Error(err)
				return
			}
		}
	})
}
