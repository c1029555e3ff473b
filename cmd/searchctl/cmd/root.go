package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searchserver"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/logger"
)

var (
	// configPath is the optional service config; search and kafka sections are used
	configPath string
	// corpusPath is the YAML corpus loaded into the in-process server
	corpusPath string
	// outputFormat is the output format (table, json, text)
	outputFormat string
	logLevel     string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "searchctl",
	Short: "Query a document corpus with the search server's ranking",
	Long: `searchctl loads a YAML corpus into an in-process search server and
runs queries against it, or publishes the corpus to the ingestion topic.

Examples:
  # Top documents for a query
  searchctl find пушистый ухоженный кот --corpus configs/corpus.example.yaml

  # Minus words must follow "--" so they are not read as flags
  searchctl find --corpus configs/corpus.example.yaml -- кот -хвост

  # Which query words occur in document 1
  searchctl match пушистый кот --id 1 --corpus configs/corpus.example.yaml`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Logs go to stderr so that table and json output stay parseable.
		slog.SetDefault(logger.New(cmd.ErrOrStderr(), logLevel, "text").With("service", "searchctl"))
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a service config file")
	rootCmd.PersistentFlags().StringVar(&corpusPath, "corpus", "configs/corpus.example.yaml", "Path to the corpus file")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "Output format: table, json, text")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "error", "Log level of the in-process server")
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// loadServer builds a server from the config and fills it with the corpus.
func loadServer() (*searchserver.Server, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	server, err := searchserver.New(cfg.Search)
	if err != nil {
		return nil, err
	}
	c, err := corpus.Load(corpusPath)
	if err != nil {
		return nil, err
	}
	if err := c.Apply(server); err != nil {
		return nil, err
	}
	return server, nil
}
