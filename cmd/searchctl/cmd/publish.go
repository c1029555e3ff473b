package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/ingestion/publisher"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/kafka"
)

var publishTimeout time.Duration

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish the corpus documents to the ingestion topic",
	Long: `Send every document of the corpus to the Kafka ingestion topic of the
configured brokers. Stop words are not published; configure them on the
server with search.stopWords or PUT /api/v1/stop-words.

Examples:
  searchctl publish --config configs/development.yaml --corpus corpus.yaml`,
	Args: cobra.NoArgs,
	RunE: runPublish,
}

func init() {
	rootCmd.AddCommand(publishCmd)

	publishCmd.Flags().DurationVar(&publishTimeout, "timeout", 30*time.Second, "Time allowed for the whole batch")
}

func runPublish(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	c, err := corpus.Load(corpusPath)
	if err != nil {
		return err
	}
	if len(c.Documents) == 0 {
		return fmt.Errorf("corpus %s has no documents", corpusPath)
	}

	producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.DocumentIngest)
	defer producer.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), publishTimeout)
	defer cancel()
	n, err := publisher.New(producer).PublishBatch(ctx, c.Documents)
	if err != nil {
		return fmt.Errorf("failed to publish corpus: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Published %d documents to %s\n", n, cfg.Kafka.Topics.DocumentIngest)
	if c.StopWords != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Stop words %q were not published\n", c.StopWords)
	}
	return nil
}
