package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/semsolver/internal/kb"
	"github.com/ppiankov/semsolver/internal/pipeline"
)

var kbJSON bool

// kbCmd represents the kb command
var kbCmd = &cobra.Command{
	Use:   "kb",
	Short: "Inspect the knowledge base of solved clues",
	Long: `Inspect the local knowledge base of previously solved clues.

The knowledge base is an N-Triples file (knowledge_base.path) holding every
clue answered with a positive score and the solutions found for it.`,
}

var kbListCmd = &cobra.Command{
	Use:   "list",
	Short: "List solved clues and their solutions",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(ctx context.Context, a *storeRun) error {
			records, err := a.store.Records(ctx)
			if err != nil {
				return err
			}
			if kbJSON {
				return pipeline.WriteJSON(os.Stdout, records)
			}
			if len(records) == 0 {
				fmt.Println("No solved clues recorded")
				return nil
			}
			for _, r := range records {
				fmt.Printf("%s %s: %s\n", r.ClueText, r.Structure, strings.Join(r.Solutions, ", "))
			}
			return nil
		})
	},
}

var kbStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show knowledge base statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(ctx context.Context, a *storeRun) error {
			stats, err := a.store.Stats(ctx)
			if err != nil {
				return err
			}
			if kbJSON {
				return pipeline.WriteJSON(os.Stdout, stats)
			}
			fmt.Printf("  Path:       %s\n", stats.Path)
			fmt.Printf("  Enabled:    %v\n", stats.Enabled)
			fmt.Printf("  Clues:      %d\n", stats.Clues)
			fmt.Printf("  Solutions:  %d\n", stats.Solutions)
			fmt.Printf("  Triples:    %d\n", stats.Triples)
			return nil
		})
	},
}

var kbPersistCmd = &cobra.Command{
	Use:   "persist",
	Short: "Rewrite the knowledge base file",
	Long:  `Load the knowledge base and write it back as N-Triples, normalising its layout.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(ctx context.Context, a *storeRun) error {
			if err := a.store.Persist().Wait(ctx); err != nil {
				return fmt.Errorf("persist failed: %w", err)
			}
			fmt.Printf("✓ Wrote knowledge base: %s\n", a.path)
			return nil
		})
	},
}

type storeRun struct {
	path  string
	store *kb.Store
}

// withStore opens the configured knowledge base without persisting on close
// and runs fn against it.
func withStore(fn func(context.Context, *storeRun) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.KnowledgeBase.PersistOnClose = false

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	store := openStore(ctx, cfg)
	defer func() { _ = store.Close(context.Background()) }()

	return fn(ctx, &storeRun{path: cfg.KnowledgeBase.Path, store: store})
}

func init() {
	rootCmd.AddCommand(kbCmd)
	kbCmd.PersistentFlags().BoolVar(&kbJSON, "json", false, "print JSON instead of text")
	kbCmd.AddCommand(kbListCmd)
	kbCmd.AddCommand(kbStatsCmd)
	kbCmd.AddCommand(kbPersistCmd)
}
