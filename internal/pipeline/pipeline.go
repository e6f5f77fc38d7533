// Package pipeline runs a clue through recognition, extraction, filtering,
// scoring and ranking, and records the answers in the knowledge base.
package pipeline

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/semsolver/internal/kb"
	"github.com/ppiankov/semsolver/internal/logging"
	"github.com/ppiankov/semsolver/internal/model"
	"github.com/ppiankov/semsolver/internal/recognize"
	"github.com/ppiankov/semsolver/internal/validate"
)

// Recognizer finds graph resources named by a clue.
type Recognizer interface {
	Recognize(ctx context.Context, clue *model.Clue, progress recognize.ProgressFunc) ([]model.RecognizedResource, error)
}

// Extractor expands recognised resources into raw candidates.
type Extractor interface {
	Extract(ctx context.Context, clue *model.Clue, resources []model.RecognizedResource, progress func(int)) ([]model.RawCandidate, error)
}

// Scorer sets the score of every solution.
type Scorer interface {
	ScoreAll(ctx context.Context, solutions []*model.Solution, progress func(int)) error
}

// KnowledgeBase records answers and recalls earlier ones.
type KnowledgeBase interface {
	Merge(clue *model.Clue, solutions []*model.Solution) *kb.Pending
	Lookup(ctx context.Context, clueText, structure string) (kb.Record, bool, error)
}

// Options tunes a Pipeline.
type Options struct {
	FillInBlank      bool
	MaxFragmentWords int
	Timeouts         model.TimeoutsConfig
}

// Pipeline solves clues. It is safe for concurrent use when its components
// are.
type Pipeline struct {
	recognizer Recognizer
	extractor  Extractor
	filter     *validate.Filter
	scorer     Scorer
	kb         KnowledgeBase
	observer   Observer
	opts       Options
}

// Components are the phases a Pipeline runs. KnowledgeBase and Observer may
// be nil.
type Components struct {
	Recognizer    Recognizer
	Extractor     Extractor
	Filter        *validate.Filter
	Scorer        Scorer
	KnowledgeBase KnowledgeBase
	Observer      Observer
}

// New creates a pipeline from its phases.
func New(c Components, opts Options) *Pipeline {
	if c.Filter == nil {
		c.Filter = validate.NewFilter("en")
	}
	if c.Observer == nil {
		c.Observer = NopObserver{}
	}
	return &Pipeline{
		recognizer: c.Recognizer,
		extractor:  c.Extractor,
		filter:     c.Filter,
		scorer:     c.Scorer,
		kb:         c.KnowledgeBase,
		observer:   c.Observer,
		opts:       opts,
	}
}

// Result is one finished solve.
type Result struct {
	Report *model.Report

	// Persist completes when the knowledge base has merged the scored
	// solutions. Nil when nothing was handed to it.
	Persist *kb.Pending
}

// Solve runs raw through every phase. Invalid clue text, cancellation and a
// failed extraction are returned as errors; "nothing found" outcomes are
// reported in the Report without an error. Except for invalid clue text the
// Result always carries a Report, failed solves included.
func (p *Pipeline) Solve(ctx context.Context, raw string) (*Result, error) {
	start := time.Now()

	clue, err := model.ParseClue(raw,
		model.WithFillInBlank(p.opts.FillInBlank),
		model.WithMaxFragmentWords(p.opts.MaxFragmentWords),
	)
	if err != nil {
		p.observer.Ready()
		return nil, err
	}

	run := &solve{Pipeline: p, clue: clue, start: start}
	run.report = &model.Report{
		Clue:      clue.SourceText(),
		Structure: clue.StructureString(),
		SolvedAt:  start.UTC(),
	}

	res, err := run.execute(ctx)
	run.report.Elapsed = time.Since(start)
	if err != nil {
		run.report.Outcome = model.OutcomeFailed
		run.report.Error = err.Error()
		run.enter(StateFailed)
		logging.Warn("solve failed", "clue", clue.String(), "err", err)
	}
	p.observer.Result(run.report)
	p.observer.Ready()

	if res == nil {
		res = &Result{}
	}
	res.Report = run.report
	return res, err
}

// SolveClue returns only the report of Solve.
func (p *Pipeline) SolveClue(ctx context.Context, raw string) (*model.Report, error) {
	res, err := p.Solve(ctx, raw)
	if res == nil {
		return nil, err
	}
	return res.Report, err
}

// solve is the state of one Solve call.
type solve struct {
	*Pipeline
	clue   *model.Clue
	start  time.Time
	state  State
	report *model.Report
}

func (s *solve) enter(state State) {
	s.state = state
	logging.Debug("pipeline state", "clue", s.clue.String(), "state", state)
	s.observer.Progress(state, 0)
}

func (s *solve) progress(percent int) {
	s.observer.Progress(s.state, percent)
}

func (s *solve) execute(ctx context.Context) (*Result, error) {
	s.enter(StateRecognizingEntities)
	resources, previous, err := s.recognize(ctx)
	if err != nil {
		return nil, fmt.Errorf("recognize entities: %w", err)
	}
	s.report.Recognized = resources
	s.report.Previous = previous
	if len(resources) == 0 {
		s.report.Outcome = model.OutcomeNoEntities
		s.enter(StateNoEntities)
		return nil, nil
	}

	s.enter(StateExtractingCandidates)
	candidates, err := runPhase(ctx, s.opts.Timeouts.Extraction, func(ctx context.Context) ([]model.RawCandidate, error) {
		return s.extractor.Extract(ctx, s.clue, resources, s.progress)
	})
	if err != nil {
		return nil, fmt.Errorf("extract candidates: %w", err)
	}
	if len(candidates) == 0 {
		s.report.Outcome = model.OutcomeNoSolutions
		s.enter(StateNoCandidates)
		return nil, nil
	}

	s.enter(StateFiltering)
	filtered := s.filter.Apply(s.clue, candidates)
	s.report.BestEffort = filtered.BestEffort
	if len(filtered.Solutions) == 0 {
		s.report.Outcome = model.OutcomeNoSolutions
		s.enter(StateNoSolutions)
		return nil, nil
	}

	s.enter(StateScoring)
	solutions := filtered.Solutions
	if err := s.score(ctx, solutions); err != nil {
		return nil, fmt.Errorf("score solutions: %w", err)
	}

	s.enter(StateRanking)
	s.report.Solutions = rank(solutions)
	s.report.Outcome = model.OutcomeSolved

	res := &Result{}
	if s.kb != nil {
		s.enter(StatePersistingAsync)
		res.Persist = s.kb.Merge(s.clue, solutions)
	}
	s.enter(StateDone)
	return res, nil
}

// recognize runs entity recognition alongside the knowledge base lookup.
// A failed lookup only loses the previous answers.
func (s *solve) recognize(ctx context.Context) ([]model.RecognizedResource, []string, error) {
	var previous []string

	ctx, cancel := phaseContext(ctx, s.opts.Timeouts.Recognition)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	var resources []model.RecognizedResource
	g.Go(func() error {
		var err error
		resources, err = s.recognizer.Recognize(gctx, s.clue, s.progress)
		return err
	})
	if s.kb != nil {
		g.Go(func() error {
			rec, found, err := s.kb.Lookup(gctx, s.clue.SourceText(), s.clue.StructureString())
			if err != nil {
				logging.Debug("knowledge base lookup failed", "clue", s.clue.String(), "err", err)
				return nil
			}
			if found {
				previous = rec.Solutions
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return resources, previous, nil
}

// score runs the scoring phase. When only the phase deadline expires the
// scores computed so far are kept.
func (s *solve) score(ctx context.Context, solutions []*model.Solution) error {
	_, err := runPhase(ctx, s.opts.Timeouts.Scoring, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.scorer.ScoreAll(ctx, solutions, s.progress)
	})
	for _, sol := range solutions {
		sol.ReleaseSnapshot()
	}
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) {
			logging.Warn("scoring deadline reached, ranking partial scores", "clue", s.clue.String())
			return nil
		}
		return err
	}
	return nil
}

// rank sorts solutions by descending score and keeps the first occurrence of
// each text.
func rank(solutions []*model.Solution) []model.RankedSolution {
	sorted := slices.Clone(solutions)
	slices.SortStableFunc(sorted, func(a, b *model.Solution) int {
		return cmp.Compare(b.Score, a.Score)
	})

	seen := make(map[string]bool, len(sorted))
	out := make([]model.RankedSolution, 0, len(sorted))
	for _, sol := range sorted {
		if seen[sol.Text] {
			continue
		}
		seen[sol.Text] = true
		out = append(out, model.RankedSolution{
			Text:       sol.Text,
			Score:      sol.Score,
			Confidence: sol.Confidence(),
			Resource:   sol.SolutionResource,
		})
	}
	return out
}

// runPhase runs fn as the single task of an errgroup under its own deadline.
func runPhase[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := phaseContext(ctx, timeout)
	defer cancel()

	var out T
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		out, err = fn(gctx)
		return err
	})
	err := g.Wait()
	return out, err
}

func phaseContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
