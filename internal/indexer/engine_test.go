package indexer

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/docstore"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
)

func TestIndexDocumentStoresMetadata(t *testing.T) {
	e := NewEngine("и в на")
	if err := e.IndexDocument(0, "белый кот и модный ошейник", docstore.StatusActual, []int{8, -3}); err != nil {
		t.Fatalf("IndexDocument: %v", err)
	}
	e.View(func(v *View) {
		doc, err := v.Document(0)
		if err != nil {
			t.Fatalf("Document: %v", err)
		}
		if doc.Rating != 2 || doc.Status != docstore.StatusActual {
			t.Errorf("unexpected document %+v", doc)
		}
		if pl := v.Postings("и"); pl != nil {
			t.Errorf("stop word must not be indexed, got %+v", pl)
		}
		pl := v.Postings("кот")
		if len(pl) != 1 || pl[0].TF != 0.25 {
			t.Errorf("unexpected postings for кот: %+v", pl)
		}
	})
	if e.DocCount() != 1 {
		t.Errorf("DocCount = %d, want 1", e.DocCount())
	}
}

func TestIndexDocumentRejectsDuplicateID(t *testing.T) {
	e := NewEngine("")
	if err := e.IndexDocument(5, "first text", docstore.StatusActual, nil); err != nil {
		t.Fatal(err)
	}
	err := e.IndexDocument(5, "second other text", docstore.StatusBanned, []int{1})
	if !errors.Is(err, apperrors.ErrDocumentExists) {
		t.Fatalf("expected ErrDocumentExists, got %v", err)
	}
	if e.DocCount() != 1 {
		t.Errorf("duplicate must not change the document count, got %d", e.DocCount())
	}
	e.View(func(v *View) {
		if v.Postings("other") != nil {
			t.Error("duplicate must not add postings")
		}
		doc, _ := v.Document(5)
		if doc.Status != docstore.StatusActual {
			t.Errorf("duplicate must not overwrite metadata, got %+v", doc)
		}
	})
}

func TestIndexDocumentRejectsInvalidInput(t *testing.T) {
	e := NewEngine("")
	if err := e.IndexDocument(-1, "x", docstore.StatusActual, nil); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Errorf("negative id: expected ErrInvalidInput, got %v", err)
	}
	if err := e.IndexDocument(1, "x", docstore.Status(42), nil); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Errorf("bad status: expected ErrInvalidInput, got %v", err)
	}
	if e.DocCount() != 0 {
		t.Errorf("rejected documents must not be counted")
	}
}

func TestStopWordsAreNotRetroactive(t *testing.T) {
	e := NewEngine("")
	if err := e.IndexDocument(1, "кот и пёс", docstore.StatusActual, nil); err != nil {
		t.Fatal(err)
	}
	e.SetStopWords("и")
	if err := e.IndexDocument(2, "кот и пёс", docstore.StatusActual, nil); err != nil {
		t.Fatal(err)
	}
	e.View(func(v *View) {
		pl := v.Postings("и")
		if len(pl) != 1 || pl[0].DocID != 1 {
			t.Errorf("word indexed before it became a stop word must stay, got %+v", pl)
		}
	})
	stats := e.Stats()
	if stats.Documents != 2 || stats.StopWords != 1 || stats.Terms != 3 {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestConcurrentIndexAndView(t *testing.T) {
	e := NewEngine("")
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				id := w*1000 + i
				if err := e.IndexDocument(id, fmt.Sprintf("shared word%d", id), docstore.StatusActual, nil); err != nil {
					t.Errorf("IndexDocument(%d): %v", id, err)
				}
				e.View(func(v *View) {
					_ = v.Postings("shared")
				})
			}
		}(w)
	}
	wg.Wait()
	if e.DocCount() != 200 {
		t.Errorf("DocCount = %d, want 200", e.DocCount())
	}
}

func TestEmptyTextIndexedUnderEmptyWord(t *testing.T) {
	e := NewEngine("и")
	if err := e.IndexDocument(3, "", docstore.StatusActual, []int{4}); err != nil {
		t.Fatalf("empty text must be accepted: %v", err)
	}
	if err := e.IndexDocument(4, "кот  пёс", docstore.StatusActual, nil); err != nil {
		t.Fatal(err)
	}
	e.View(func(v *View) {
		pl := v.Postings("")
		if len(pl) != 2 || pl[0].DocID != 3 || pl[1].DocID != 4 {
			t.Fatalf("postings of the empty word = %+v, want docs 3 and 4", pl)
		}
		if pl[0].TF != 1 {
			t.Errorf("empty document tf = %v, want 1", pl[0].TF)
		}
	})
	if stats := e.Stats(); stats.Terms != 3 {
		t.Errorf("terms = %d, want 3 (\"\", кот, пёс)", stats.Terms)
	}
}
