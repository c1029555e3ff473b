package indexer

import (
	"fmt"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/docstore"
)

// BenchmarkEngineIndex measures indexing throughput at various pre-loaded
// corpus sizes.
func BenchmarkEngineIndex(b *testing.B) {
	for _, size := range []int{0, 1000, 10000} {
		b.Run(fmt.Sprintf("preloaded_%d", size), func(b *testing.B) {
			engine := NewEngine("и в на")
			for i := 0; i < size; i++ {
				engine.IndexDocument(i, "пушистый кот и пушистый хвост", docstore.StatusActual, []int{7, 2, 7})
			}

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if err := engine.IndexDocument(size+i, "ухоженный пёс выразительные глаза", docstore.StatusActual, []int{5}); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
