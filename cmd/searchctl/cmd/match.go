package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var matchID int

var matchCmd = &cobra.Command{
	Use:   "match <query>",
	Short: "Show which query words occur in a document",
	Long: `Report the plus words of a query found in one document, together with
the document's status. Minus words are parsed but ignored: a document
containing one still reports its matching plus words.

Examples:
  searchctl match пушистый кот --id 1`,
	Args: cobra.MinimumNArgs(1),
	RunE: runMatch,
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().IntVar(&matchID, "id", 0, "Document id")
	_ = matchCmd.MarkFlagRequired("id")
}

func runMatch(cmd *cobra.Command, args []string) error {
	server, err := loadServer()
	if err != nil {
		return err
	}
	result, err := server.MatchDocument(strings.Join(args, " "), matchID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch outputFormat {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	default:
		_, err := fmt.Fprintf(out, "{ document_id = %d, status = %s, words = [%s] }\n",
			result.DocumentID, result.Status, strings.Join(result.Words, " "))
		return err
	}
}
