package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ppiankov/semsolver/internal/model"
)

const noSolutions = "No solutions found"

// FormatText renders a report as the solver prints it.
func FormatText(r *model.Report) string {
	var b strings.Builder
	switch r.Outcome {
	case model.OutcomeNoEntities:
		b.WriteString(noSolutions + "\n")
	case model.OutcomeNoSolutions:
		fmt.Fprintf(&b, "%s: \"%s\" %s\n", noSolutions, r.Clue, r.Structure)
	case model.OutcomeFailed:
		fmt.Fprintf(&b, "Failed to solve the clue \"%s %s\": %s\n", r.Clue, r.Structure, r.Error)
	default:
		fmt.Fprintf(&b, "Solutions to the clue \"%s %s\":\n", r.Clue, r.Structure)
		for _, s := range r.Solutions {
			fmt.Fprintf(&b, "%s (confidence level: %d%%)\n", s.Text, s.Confidence)
		}
		if len(r.Previous) > 0 {
			fmt.Fprintf(&b, "Previously recorded solutions: %s\n", strings.Join(r.Previous, ", "))
		}
		fmt.Fprintf(&b, "Time taken to process this clue: %ds\n", int64(r.Elapsed/time.Second))
	}
	return b.String()
}

// RenderText writes FormatText(r) to w.
func RenderText(w io.Writer, r *model.Report) error {
	_, err := io.WriteString(w, FormatText(r))
	return err
}

// WriteJSON encodes r as indented JSON.
func WriteJSON(w io.Writer, r any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// RenderJSON writes r to path as JSON, creating parent directories.
func RenderJSON(r any, path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := WriteJSON(f, r); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write JSON: %w", err)
	}
	return f.Close()
}
