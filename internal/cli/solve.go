package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/semsolver/internal/logging"
	"github.com/ppiankov/semsolver/internal/model"
	"github.com/ppiankov/semsolver/internal/pipeline"
)

var (
	outJSON      string
	noCache      bool
	fillInBlank  bool
	solveTimeout time.Duration
)

// solveCmd represents the solve command
var solveCmd = &cobra.Command{
	Use:   "solve <clue>",
	Short: "Solve a single clue",
	Long: `Solve recognises the entities in a clue, extracts candidate answers from
their DBpedia neighbourhood, keeps those matching the answer structure and
ranks them by graph distance.

The clue ends with its answer structure in brackets, one letter count per
word. A run of underscores marks a fill-in-the-blank clue.

Example:
  semsolver solve "Capital of France [5]"
  semsolver solve "___ Zeppelin [3]" --json report.json
  semsolver solve "Beatles drummer [5, 5]" --no-cache -v`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSolve,
}

func init() {
	rootCmd.AddCommand(solveCmd)

	solveCmd.Flags().StringVar(&outJSON, "json", "", "also write the report as JSON to this path")
	solveCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the response cache (force fresh queries)")
	solveCmd.Flags().BoolVar(&fillInBlank, "fill-in-blank", false, "match clue fragments as substrings of labels")
	solveCmd.Flags().DurationVar(&solveTimeout, "timeout", 10*time.Minute, "overall solve timeout")
}

// progressObserver prints phase changes to stderr.
type progressObserver struct {
	enabled bool
}

func (o progressObserver) Progress(state pipeline.State, percent int) {
	if o.enabled && percent == 0 {
		fmt.Fprintf(os.Stderr, "⚙️  %s...\n", state)
	}
}

func (o progressObserver) Result(*model.Report) {}
func (o progressObserver) Ready()               {}

func runSolve(cmd *cobra.Command, args []string) error {
	raw := strings.Join(args, " ")
	ctx, cancel := context.WithTimeout(context.Background(), solveTimeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if noCache {
		cfg.Cache.Enabled = false
	}

	a, err := newApp(ctx, cfg, fillInBlank, progressObserver{enabled: verbose})
	if err != nil {
		return err
	}
	defer a.close(context.Background())

	res, err := a.pipeline.Solve(ctx, raw)
	if res == nil {
		return fmt.Errorf("solve failed: %w", err)
	}

	if rErr := pipeline.RenderText(os.Stdout, res.Report); rErr != nil {
		return rErr
	}
	if outJSON != "" {
		if rErr := pipeline.RenderJSON(res.Report, outJSON); rErr != nil {
			return fmt.Errorf("render failed: %w", rErr)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", outJSON)
		}
	}

	if res.Persist != nil {
		if pErr := res.Persist.Wait(ctx); pErr != nil {
			logging.Debug("solutions not recorded", "err", pErr)
		}
	}
	return err
}
