package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ppiankov/semsolver/internal/model"
)

// ClueSolver solves one raw clue string.
type ClueSolver interface {
	SolveClue(ctx context.Context, raw string) (*model.Report, error)
}

// SolveJob solves one clue.
type SolveJob struct {
	Clue   string
	Solver ClueSolver
}

// Execute runs the solve.
func (j *SolveJob) Execute(ctx context.Context) Result {
	start := time.Now()
	report, err := j.Solver.SolveClue(ctx, j.Clue)
	return &SolveResult{
		Clue:    j.Clue,
		Report:  report,
		Error:   err,
		Elapsed: time.Since(start),
	}
}

// SolveResult is the outcome of one SolveJob.
type SolveResult struct {
	Clue    string
	Report  *model.Report
	Error   error
	Elapsed time.Duration
}

// GetError returns the solve error, if any.
func (r *SolveResult) GetError() error {
	return r.Error
}

// BatchProcessor solves many clues on a worker pool.
type BatchProcessor struct {
	solver      ClueSolver
	concurrency int
}

// NewBatchProcessor creates a processor.
func NewBatchProcessor(solver ClueSolver, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		solver:      solver,
		concurrency: concurrency,
	}
}

// ProcessClues solves every clue and returns results in input order.
func (b *BatchProcessor) ProcessClues(ctx context.Context, clues []string) []*SolveResult {
	if len(clues) == 0 {
		return []*SolveResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for _, clue := range clues {
		pool.Submit(&SolveJob{Clue: clue, Solver: b.solver})
	}

	results := pool.Wait()
	out := make([]*SolveResult, len(results))
	for i, r := range results {
		out[i] = r.(*SolveResult)
	}
	return out
}

// ProcessFile reads clues from a file and solves them.
func (b *BatchProcessor) ProcessFile(ctx context.Context, path string) ([]*SolveResult, error) {
	clues, err := ReadCluesFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("read clues: %w", err)
	}
	return b.ProcessClues(ctx, clues), nil
}

// Summary counts outcomes across a batch.
type Summary struct {
	Total       int
	Solved      int
	NoSolutions int
	Failed      int
}

// Summarize tallies results.
func Summarize(results []*SolveResult) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		switch {
		case r.Error != nil || r.Report == nil:
			s.Failed++
		case r.Report.Outcome == model.OutcomeSolved:
			s.Solved++
		case r.Report.Outcome == model.OutcomeFailed:
			s.Failed++
		default:
			s.NoSolutions++
		}
	}
	return s
}

// ReadCluesFromFile reads one clue per line. Blank lines and lines starting
// with "#" are skipped, and repeated clues are kept once.
func ReadCluesFromFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var clues []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !seen[line] {
			seen[line] = true
			clues = append(clues, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return clues, nil
}
