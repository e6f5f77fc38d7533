// Package score ranks solutions by their graph distance to the clue.
package score

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/knakk/rdf"
	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/semsolver/internal/graph"
	"github.com/ppiankov/semsolver/internal/logging"
	"github.com/ppiankov/semsolver/internal/model"
	"github.com/ppiankov/semsolver/internal/sparql"
	"github.com/ppiankov/semsolver/internal/textutil"
	"github.com/ppiankov/semsolver/internal/vocab"
)

// Scorer computes the distance score of a solution.
type Scorer struct {
	client   sparql.Client
	reasoner *graph.Reasoner
	workers  int
}

// New creates a scorer. workers bounds ScoreAll; values below 1 mean 1.
func New(client sparql.Client, reasoner *graph.Reasoner, workers int) *Scorer {
	if workers < 1 {
		workers = 1
	}
	return &Scorer{client: client, reasoner: reasoner, workers: workers}
}

// Score sets and returns the score of sol: the direct distance between the
// solution and clue resources times the distance through the types and
// properties the clue names. A literal solution scores 1.0. Endpoint failures
// count as zero links. When ctx ends before both distances are known, sol is
// left unscored and 0 is returned.
func (s *Scorer) Score(ctx context.Context, sol *model.Solution) float64 {
	if sol.SolutionResource == "" || sol.ClueResource == "" {
		sol.Score = 1.0
		return sol.Score
	}

	query, err := s.linkQuery(sol.SolutionResource, sol.ClueResource)
	direct, err := s.distance(ctx, query, err)
	if err != nil {
		logging.Debug("scoring interrupted", "solution", sol.Text, "err", err)
		return 0
	}

	types, props := s.recognize(sol)
	indirect := 1.0
	if len(types) > 0 || len(props) > 0 {
		query, err = s.fragmentQuery(sol.SolutionResource, sol.ClueResource, types, props)
		indirect, err = s.distance(ctx, query, err)
		if err != nil {
			logging.Debug("scoring interrupted", "solution", sol.Text, "err", err)
			return 0
		}
	}

	sol.Score = direct * indirect
	logging.Debug("scored solution",
		"solution", sol.Text,
		"resource", sol.SolutionResource,
		"types", len(types),
		"properties", len(props),
		"score", sol.Score,
	)
	return sol.Score
}

// ScoreAll scores every solution with at most workers queries in flight.
// Only cancellation of ctx is returned as an error.
func (s *Scorer) ScoreAll(ctx context.Context, sols []*model.Solution, progress func(int)) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	var mu sync.Mutex
	done := 0
	for _, sol := range sols {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			s.Score(gctx, sol)
			if progress != nil {
				mu.Lock()
				done++
				progress(done * 100 / len(sols))
				mu.Unlock()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// distance returns 1/(1+n) for the n links query counts. A build or endpoint
// failure counts as no links; only the end of ctx is returned as an error.
func (s *Scorer) distance(ctx context.Context, query string, err error) (float64, error) {
	if err != nil {
		logging.Warn("skipping scoring query", "err", err)
		return 1.0, nil
	}
	n, err := s.client.Count(ctx, query)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, ctxErr
		}
		logging.Warn("scoring query failed", "err", err)
		n = 0
	}
	return 1.0 / (1.0 + float64(n)), nil
}

// linkQuery counts triples joining a and b in either direction.
func (s *Scorer) linkQuery(a, b string) (string, error) {
	q, err := sparql.NewBuilder().
		Raw("SELECT (COUNT(*) AS ?count) WHERE {\n").
		Raw("  { ").IRI(a).Raw(" ?predicate ").IRI(b).Raw(" }\n").
		Raw("  UNION { ").IRI(b).Raw(" ?predicate ").IRI(a).Raw(" }\n").
		Raw("}").
		Build()
	if err != nil {
		return "", fmt.Errorf("build link query: %w", err)
	}
	return q, nil
}

// fragmentQuery counts the type assertions of sol and the links through the
// given properties between sol and clue.
func (s *Scorer) fragmentQuery(sol, clue string, types, props []string) (string, error) {
	b := sparql.NewBuilder().
		Prefix("rdf", vocab.RDF).
		Raw("SELECT (COUNT(*) AS ?count) WHERE {\n")

	first := true
	union := func() {
		if first {
			b.Raw("  ")
			first = false
			return
		}
		b.Raw("  UNION ")
	}
	for _, t := range types {
		union()
		b.Raw("{ ").IRI(sol).Raw(" rdf:type ").IRI(t).Raw(" }\n")
	}
	for _, p := range props {
		union()
		b.Raw("{ ").IRI(sol).Raw(" ").IRI(p).Raw(" ").IRI(clue).Raw(" }\n")
		union()
		b.Raw("{ ").IRI(clue).Raw(" ").IRI(p).Raw(" ").IRI(sol).Raw(" }\n")
	}

	q, err := b.Raw("}").Build()
	if err != nil {
		return "", fmt.Errorf("build fragment query: %w", err)
	}
	return q, nil
}

// recognize returns the types of the solution and the properties linking it
// to the clue resource whose labels are clue fragments, rewritten to their
// external equivalents.
func (s *Scorer) recognize(sol *model.Solution) (types, props []string) {
	snap := sol.Snapshot
	if snap == nil || sol.Clue == nil {
		return nil, nil
	}
	solNode, err := rdf.NewIRI(sol.SolutionResource)
	if err != nil {
		return nil, nil
	}
	clueNode, err := rdf.NewIRI(sol.ClueResource)
	if err != nil {
		return nil, nil
	}

	seenTypes := make(map[string]bool)
	for _, t := range snap.Types(solNode) {
		if !s.labelMatches(snap, sol.Clue, t) {
			continue
		}
		for _, iri := range s.externalise(t, s.reasoner.EquivalentClasses) {
			if !seenTypes[iri] {
				seenTypes[iri] = true
				types = append(types, iri)
			}
		}
	}

	seenProps := make(map[string]bool)
	for _, t := range snap.Match(solNode, nil, clueNode) {
		if !s.labelMatches(snap, sol.Clue, t.Pred) {
			continue
		}
		for _, iri := range s.externalise(t.Pred, s.reasoner.EquivalentProperties) {
			if !seenProps[iri] {
				seenProps[iri] = true
				props = append(props, iri)
			}
		}
	}
	return types, props
}

func (s *Scorer) labelMatches(snap *graph.Graph, clue *model.Clue, node rdf.Term) bool {
	for _, label := range snap.Labels(node) {
		if clue.HasFragment(textutil.ProperCase(textutil.StripLanguageTag(label))) {
			return true
		}
	}
	return false
}

// externalise maps a domain ontology term to its equivalents outside the
// domain namespace. Other IRIs pass through unchanged.
func (s *Scorer) externalise(term rdf.Term, equivalents func(rdf.Term) []rdf.IRI) []string {
	iri := graph.IRIOf(term)
	if iri == "" {
		return nil
	}
	if !strings.HasPrefix(iri, vocab.POP) {
		return []string{iri}
	}
	var out []string
	for _, eq := range equivalents(term) {
		if e := eq.String(); !strings.HasPrefix(e, vocab.POP) {
			out = append(out, e)
		}
	}
	return out
}
