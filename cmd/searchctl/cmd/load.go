package cmd

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/corpus"
)

var (
	loadURL         string
	loadConcurrency int
	loadDuration    time.Duration
	loadQueries     []string
	loadStatus      string
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Generate search load against a running server",
	Long: `Send GET /api/v1/search requests from concurrent workers for a fixed
duration and report throughput, latency percentiles and status codes.
Without --query the document texts of the corpus are used as queries.

Examples:
  searchctl load --url http://localhost:8080 --concurrency 20 --duration 1m
  searchctl load --query "пушистый кот" --query "ухоженный -пёс"`,
	Args: cobra.NoArgs,
	RunE: runLoad,
}

func init() {
	rootCmd.AddCommand(loadCmd)

	loadCmd.Flags().StringVar(&loadURL, "url", "http://localhost:8080", "Base URL of the search server")
	loadCmd.Flags().IntVar(&loadConcurrency, "concurrency", 10, "Number of concurrent workers")
	loadCmd.Flags().DurationVar(&loadDuration, "duration", 30*time.Second, "Test duration")
	loadCmd.Flags().StringArrayVar(&loadQueries, "query", nil, "Query to send (repeatable)")
	loadCmd.Flags().StringVar(&loadStatus, "status", "", "Status filter sent with every query")
}

type loadStats struct {
	total     atomic.Int64
	success   atomic.Int64
	failed    atomic.Int64
	mu        sync.Mutex
	latencies []time.Duration
	codes     map[int]int64
}

func (s *loadStats) record(d time.Duration, code int, err error) {
	s.total.Add(1)
	if err != nil {
		s.failed.Add(1)
		return
	}
	if code >= 200 && code < 300 {
		s.success.Add(1)
	} else {
		s.failed.Add(1)
	}
	s.mu.Lock()
	s.latencies = append(s.latencies, d)
	s.codes[code]++
	s.mu.Unlock()
}

func runLoad(cmd *cobra.Command, args []string) error {
	if loadConcurrency <= 0 {
		return fmt.Errorf("--concurrency must be positive, got %d", loadConcurrency)
	}
	queries := loadQueries
	if len(queries) == 0 {
		c, err := corpus.Load(corpusPath)
		if err != nil {
			return err
		}
		for _, d := range c.Documents {
			if d.Text != "" {
				queries = append(queries, d.Text)
			}
		}
	}
	if len(queries) == 0 {
		return fmt.Errorf("no queries: pass --query or a corpus with documents")
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Target:      %s\n", loadURL)
	fmt.Fprintf(out, "Concurrency: %d\n", loadConcurrency)
	fmt.Fprintf(out, "Duration:    %s\n", loadDuration)
	fmt.Fprintf(out, "Queries:     %d unique\n\n", len(queries))

	stats := &loadStats{codes: make(map[int]int64)}
	elapsed, err := generateLoad(cmd.Context(), stats, queries)
	if err != nil {
		return err
	}
	printLoadReport(out, stats, elapsed)
	if stats.total.Load() == 0 {
		return fmt.Errorf("no requests completed; is the server running at %s?", loadURL)
	}
	return nil
}

func generateLoad(parent context.Context, stats *loadStats, queries []string) (time.Duration, error) {
	client := &http.Client{
		Timeout: 10 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        loadConcurrency * 2,
			MaxIdleConnsPerHost: loadConcurrency * 2,
			IdleConnTimeout:     90 * time.Second,
		},
	}
	ctx, cancel := context.WithTimeout(parent, loadDuration)
	defer cancel()

	start := time.Now()
	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < loadConcurrency; w++ {
		g.Go(func() error {
			for i := w; ctx.Err() == nil; i++ {
				params := url.Values{"q": {queries[i%len(queries)]}}
				if loadStatus != "" {
					params.Set("status", loadStatus)
				}
				req, err := http.NewRequestWithContext(ctx, http.MethodGet, loadURL+"/api/v1/search?"+params.Encode(), nil)
				if err != nil {
					return fmt.Errorf("creating request: %w", err)
				}
				began := time.Now()
				resp, err := client.Do(req)
				if err != nil {
					if ctx.Err() == nil {
						stats.record(time.Since(began), 0, err)
					}
					continue
				}
				io.Copy(io.Discard, resp.Body)
				resp.Body.Close()
				stats.record(time.Since(began), resp.StatusCode, nil)
			}
			return nil
		})
	}
	err := g.Wait()
	return time.Since(start), err
}

func printLoadReport(out io.Writer, stats *loadStats, elapsed time.Duration) {
	total := stats.total.Load()
	failed := stats.failed.Load()

	fmt.Fprintln(out, "=== Results ===")
	fmt.Fprintf(out, "Total Requests:  %d\n", total)
	fmt.Fprintf(out, "Successful:      %d\n", stats.success.Load())
	fmt.Fprintf(out, "Errors:          %d\n", failed)
	if total > 0 {
		fmt.Fprintf(out, "Error Rate:      %.2f%%\n", float64(failed)/float64(total)*100)
		fmt.Fprintf(out, "Requests/sec:    %.2f\n", float64(total)/elapsed.Seconds())
	}

	stats.mu.Lock()
	defer stats.mu.Unlock()
	latencies := slices.Clone(stats.latencies)
	if len(latencies) > 0 {
		slices.Sort(latencies)
		var sum time.Duration
		for _, l := range latencies {
			sum += l
		}
		fmt.Fprintln(out)
		fmt.Fprintln(out, "=== Latency ===")
		fmt.Fprintf(out, "Min:    %s\n", latencies[0])
		fmt.Fprintf(out, "Avg:    %s\n", sum/time.Duration(len(latencies)))
		fmt.Fprintf(out, "P50:    %s\n", latencyPercentile(latencies, 50))
		fmt.Fprintf(out, "P95:    %s\n", latencyPercentile(latencies, 95))
		fmt.Fprintf(out, "P99:    %s\n", latencyPercentile(latencies, 99))
		fmt.Fprintf(out, "Max:    %s\n", latencies[len(latencies)-1])
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "=== Status Codes ===")
	codes := make([]int, 0, len(stats.codes))
	for code := range stats.codes {
		codes = append(codes, code)
	}
	slices.Sort(codes)
	for _, code := range codes {
		fmt.Fprintf(out, "  %d: %d\n", code, stats.codes[code])
	}
}

// latencyPercentile uses the nearest-rank method on sorted latencies.
func latencyPercentile(sorted []time.Duration, p float64) time.Duration {
	idx := int(math.Ceil(p/100*float64(len(sorted)))) - 1
	idx = max(0, min(idx, len(sorted)-1))
	return sorted[idx]
}
