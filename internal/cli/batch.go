package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/discountclaim/internal/model"
	"github.com/ppiankov/discountclaim/internal/worker"
)

var (
	concurrency  int
	outputPath   string
	batchTimeout time.Duration
)

var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Claim for many addresses from a file in parallel",
	Long: `Batch runs claims for every address in a file (one per line, # comments
allowed, "-" for stdin) using a bounded worker pool. Outbound calls share the
configured per-host rate limit.

One JSON line is written per address, in input order.

Example:
  discountclaim batch addresses.txt
  discountclaim batch addresses.txt --concurrency 8 --output results.jsonl`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers (default concurrency.workers)")
	batchCmd.Flags().StringVar(&outputPath, "output", "", "write JSON lines to this file instead of stdout")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
}

// batchLine is one line of batch output.
type batchLine struct {
	Address  string               `json:"address"`
	Status   int                  `json:"status"`
	Outcome  string               `json:"outcome"`
	Response *model.ClaimResponse `json:"response,omitempty"`
	Error    string               `json:"error,omitempty"`
}

func newBatchLine(r *worker.ClaimResult) batchLine {
	line := batchLine{
		Address:  r.Address,
		Status:   model.StatusCode(r.Error),
		Outcome:  r.Outcome(),
		Response: r.Response,
	}
	if r.Error != nil {
		line.Error = r.Error.Error()
	}
	return line
}

func runBatch(cmd *cobra.Command, args []string) (err error) {
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	workers := concurrency
	if workers <= 0 {
		workers = cfg.Concurrency.Workers
	}

	p, closeFn, err := buildPipeline()
	if err != nil {
		return err
	}
	defer closeFn()

	var out io.Writer = cmd.OutOrStdout()
	if outputPath != "" {
		f, createErr := os.Create(outputPath)
		if createErr != nil {
			return fmt.Errorf("create output file: %w", createErr)
		}
		defer func() {
			if closeErr := f.Close(); closeErr != nil && err == nil {
				err = fmt.Errorf("close output file: %w", closeErr)
			}
		}()
		out = f
	}

	stderr := cmd.ErrOrStderr()
	fmt.Fprintf(stderr, "⚙️  Claiming for addresses in %s with %d workers...\n", args[0], workers)

	results, err := worker.NewBatchProcessor(p, workers).ProcessFile(ctx, args[0])
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	if err := writeBatchResults(out, results); err != nil {
		return err
	}

	printSummary(stderr, worker.Summarize(results), len(results))
	return nil
}

func writeBatchResults(w io.Writer, results []*worker.ClaimResult) error {
	enc := json.NewEncoder(w)
	for _, r := range results {
		if err := enc.Encode(newBatchLine(r)); err != nil {
			return fmt.Errorf("write result for %s: %w", r.Address, err)
		}
	}
	return nil
}

func printSummary(w io.Writer, summary worker.Summary, total int) {
	outcomes := make([]string, 0, len(summary))
	for k := range summary {
		outcomes = append(outcomes, k)
	}
	sort.Strings(outcomes)

	fmt.Fprintf(w, "\n  Total:       %d addresses\n", total)
	for _, k := range outcomes {
		fmt.Fprintf(w, "  %-12s %d\n", k+":", summary[k])
	}
	fmt.Fprintln(w)
}
