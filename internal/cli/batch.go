package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/semsolver/internal/pipeline"
	"github.com/ppiankov/semsolver/internal/worker"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Solve every clue in a file in parallel",
	Long: `Batch solves many clues concurrently:
- Read clues from the input file (one per line, "#" starts a comment)
- Solve them in parallel with a configurable worker count
- Share one knowledge base across all workers
- Print each result and a summary, then persist the knowledge base

Example:
  semsolver batch clues.txt
  semsolver batch clues.txt --concurrency 4 --output-dir ./reports
  semsolver batch clues.txt --timeout 30m`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers (default: concurrency.batch_workers)")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "", "write a JSON report per clue to this directory")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 1*time.Hour, "total timeout for batch processing")
	batchCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the response cache (force fresh queries)")
	batchCmd.Flags().BoolVar(&fillInBlank, "fill-in-blank", false, "treat every clue as fill-in-the-blank")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	workers := concurrency
	if workers <= 0 {
		workers = cfg.Concurrency.BatchWorkers
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Semsolver Batch Processing\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", workers)
	fmt.Fprintf(os.Stderr, "  Endpoint:     %s\n", cfg.Endpoint.URL)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(os.Stderr, "\n")

	if outputDir != "" {
		if err := os.MkdirAll(outputDir, 0755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	a, err := newApp(ctx, cfg, fillInBlank, nil)
	if err != nil {
		return err
	}
	defer a.close(context.Background())

	processor := worker.NewBatchProcessor(a.pipeline, workers)
	results, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	for i, result := range results {
		if result.Report == nil {
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.Clue, result.Error)
			continue
		}
		fmt.Print(pipeline.FormatText(result.Report))
		fmt.Println()

		if outputDir != "" {
			path := filepath.Join(outputDir, fmt.Sprintf("%03d-%s.json", i+1, sanitizeFilename(result.Report.Clue)))
			if err := pipeline.RenderJSON(result.Report, path); err != nil {
				fmt.Fprintf(os.Stderr, "✗ %s: failed to write JSON: %v\n", result.Clue, err)
			}
		}
	}

	if err := a.store.Persist().Wait(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "✗ knowledge base not written: %v\n", err)
	}

	summary := worker.Summarize(results)
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:         %d clues\n", summary.Total)
	fmt.Fprintf(os.Stderr, "  Solved:        %d\n", summary.Solved)
	fmt.Fprintf(os.Stderr, "  No solutions:  %d\n", summary.NoSolutions)
	fmt.Fprintf(os.Stderr, "  Failures:      %d\n", summary.Failed)
	if outputDir != "" {
		fmt.Fprintf(os.Stderr, "  Output:        %s\n", outputDir)
	}
	fmt.Fprintf(os.Stderr, "\n")

	return nil
}

// sanitizeFilename turns clue text into a short file name.
func sanitizeFilename(s string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == ' ', r == '-', r == '_':
			return '-'
		}
		return -1
	}, s)
	s = strings.Trim(s, "-")
	if s == "" {
		s = "clue"
	}

	// Limit length
	if len(s) > 60 {
		s = s[:60]
	}
	return s
}
