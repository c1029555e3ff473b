package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var countCmd = &cobra.Command{
	Use:   "count",
	Short: "Print the number of documents and terms in the corpus",
	Args:  cobra.NoArgs,
	RunE:  runCount,
}

func init() {
	rootCmd.AddCommand(countCmd)
}

func runCount(cmd *cobra.Command, args []string) error {
	server, err := loadServer()
	if err != nil {
		return err
	}
	stats := server.Stats()

	out := cmd.OutOrStdout()
	switch outputFormat {
	case "json":
		return json.NewEncoder(out).Encode(stats)
	case "text":
		_, err := fmt.Fprintln(out, stats.Documents)
		return err
	default:
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "DOCUMENTS\tTERMS\tSTOP WORDS\n")
		fmt.Fprintf(w, "%d\t%d\t%d\n", stats.Documents, stats.Terms, stats.StopWords)
		return w.Flush()
	}
}
