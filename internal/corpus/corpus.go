// Package corpus reads a YAML corpus file (stop words plus documents) and
// loads it into a search server.
package corpus

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/ingestion/validator"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searchserver"
)

// Corpus is the on-disk layout of a corpus file.
type Corpus struct {
	StopWords string                    `yaml:"stopWords"`
	Documents []ingestion.IngestRequest `yaml:"documents"`
}

func Load(path string) (*Corpus, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading corpus %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a corpus and validates every document in it.
func Parse(data []byte) (*Corpus, error) {
	var c Corpus
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing corpus: %w", err)
	}
	for i := range c.Documents {
		if _, err := validator.ValidateIngestRequest(&c.Documents[i]); err != nil {
			return nil, fmt.Errorf("corpus document %d: %w", i, err)
		}
	}
	return &c, nil
}

// Apply sets the stop words first and then adds the documents in file
// order, so the stop words apply to every document of the corpus.
func (c *Corpus) Apply(server *searchserver.Server) error {
	if c.StopWords != "" {
		server.SetStopWords(c.StopWords)
	}
	for i := range c.Documents {
		req := &c.Documents[i]
		status, err := validator.ValidateIngestRequest(req)
		if err != nil {
			return fmt.Errorf("corpus document %d: %w", i, err)
		}
		if err := server.AddDocument(*req.ID, req.Text, status, req.Ratings); err != nil {
			return fmt.Errorf("adding document %d: %w", *req.ID, err)
		}
	}
	return nil
}
