package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/docstore"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/ranker"
)

var (
	findStatus string
	findLimit  int
)

var findCmd = &cobra.Command{
	Use:   "find <query>",
	Short: "Print the top documents for a query",
	Long: `Rank the corpus against a query. Query words are joined with single
spaces; words prefixed with "-" exclude documents containing them.

Examples:
  # Top documents with the configured default status
  searchctl find пушистый ухоженный кот

  # Banned documents only
  searchctl find ухоженный --status banned`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFind,
}

func init() {
	rootCmd.AddCommand(findCmd)

	findCmd.Flags().StringVar(&findStatus, "status", "", "Document status filter (defaults to the configured status)")
	findCmd.Flags().IntVar(&findLimit, "limit", 0, "Maximum number of documents (defaults to the configured limit)")
}

func runFind(cmd *cobra.Command, args []string) error {
	server, err := loadServer()
	if err != nil {
		return err
	}
	req := executor.SearchRequest{
		Query:  strings.Join(args, " "),
		Status: server.DefaultStatus(),
		Limit:  findLimit,
	}
	if findStatus != "" {
		req.Status, err = docstore.ParseStatus(findStatus)
		if err != nil {
			return err
		}
	}
	if findLimit < 0 {
		return fmt.Errorf("--limit must not be negative, got %d", findLimit)
	}

	result, err := server.Search(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	out := cmd.OutOrStdout()
	switch outputFormat {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case "text":
		return printDocuments(out, result.Results)
	default:
		return printDocumentTable(out, result.Results)
	}
}

// printDocuments writes one "{ document_id = .. }" line per document.
func printDocuments(out io.Writer, docs []ranker.ScoredDoc) error {
	for _, d := range docs {
		if _, err := fmt.Fprintf(out, "{ document_id = %d, relevance = %.6g, rating = %d }\n",
			d.ID, d.Relevance, d.Rating); err != nil {
			return err
		}
	}
	return nil
}

func printDocumentTable(out io.Writer, docs []ranker.ScoredDoc) error {
	if len(docs) == 0 {
		fmt.Fprintln(out, "No documents found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID\tRELEVANCE\tRATING\n")
	for _, d := range docs {
		fmt.Fprintf(w, "%d\t%.6f\t%d\n", d.ID, d.Relevance, d.Rating)
	}
	return w.Flush()
}
