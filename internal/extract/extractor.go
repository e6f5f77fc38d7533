// Package extract expands recognised resources into candidate answers using
// the domain ontology.
package extract

import (
	"context"
	"errors"
	"fmt"

	"github.com/knakk/rdf"

	"github.com/ppiankov/semsolver/internal/graph"
	"github.com/ppiankov/semsolver/internal/logging"
	"github.com/ppiankov/semsolver/internal/model"
	"github.com/ppiankov/semsolver/internal/sparql"
	"github.com/ppiankov/semsolver/internal/textutil"
	"github.com/ppiankov/semsolver/internal/vocab"
)

// ErrNothingFetched is returned when every neighbourhood fetch failed.
var ErrNothingFetched = errors.New("no resource neighbourhood could be fetched")

// Extractor is the candidate extraction phase.
type Extractor struct {
	client     sparql.Client
	reasoner   *graph.Reasoner
	language   string
	relational rdf.IRI
}

// New creates an extractor over a reasoner bound to the domain ontology.
func New(client sparql.Client, reasoner *graph.Reasoner, language string) *Extractor {
	if language == "" {
		language = "en"
	}
	return &Extractor{
		client:     client,
		reasoner:   reasoner,
		language:   language,
		relational: graph.MustIRI(vocab.RelationalProperty),
	}
}

// direction selects which side of the triple the resource sits on.
type direction int

const (
	asSubject direction = iota
	asObject
)

func (d direction) String() string {
	if d == asSubject {
		return "subject"
	}
	return "object"
}

// Extract fetches the neighbourhood of every resource and returns candidates
// in first-seen order, deduplicated by text. A failed fetch is logged and
// treated as an empty neighbourhood. If every fetch fails the last error is
// returned wrapped in ErrNothingFetched.
func (e *Extractor) Extract(ctx context.Context, clue *model.Clue, resources []model.RecognizedResource, progress func(int)) ([]model.RawCandidate, error) {
	run := &extraction{
		Extractor: e,
		clue:      clue,
		visited:   make(map[string]bool),
		texts:     make(map[string]bool),
	}

	fetched := 0
	var lastErr error
	for i, res := range resources {
		for _, dir := range []direction{asSubject, asObject} {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			data, err := e.fetch(ctx, res.URI, dir)
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				logging.Warn("neighbourhood fetch failed", "resource", res.URI, "as", dir, "err", err)
				lastErr = err
				continue
			}
			fetched++
			run.scan(res.URI, e.reasoner.Infer(data))
		}
		if progress != nil {
			progress((i + 1) * 100 / len(resources))
		}
	}

	if fetched == 0 && lastErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrNothingFetched, lastErr)
	}
	logging.Debug("extraction done", "resources", len(resources), "candidates", len(run.candidates))
	return run.candidates, nil
}

func (e *Extractor) fetch(ctx context.Context, uri string, dir direction) (*graph.Graph, error) {
	query, err := e.Query(uri, dir == asSubject)
	if err != nil {
		return nil, err
	}
	return e.client.Construct(ctx, query)
}

// Query builds the neighbourhood fetch for uri. With asSubj the resource is
// the subject of every triple and each object's label comes along; otherwise
// it is the object and each subject's label comes along.
func (e *Extractor) Query(uri string, asSubj bool) (string, error) {
	b := sparql.NewBuilder().Prefix("rdfs", vocab.RDFS)

	if asSubj {
		b.Raw("CONSTRUCT { ").IRI(uri).Raw(" ?predicate ?object . ?object rdfs:label ?label . }\n").
			Raw("WHERE {\n  ").IRI(uri).Raw(" ?predicate ?object .\n").
			Raw("  OPTIONAL { ?object rdfs:label ?label . FILTER(LANG(?label) = \"\" || LANGMATCHES(LANG(?label), ").
			Literal(e.language, "").Raw(")) }\n").
			Raw("  FILTER(!isLiteral(?object) || LANG(?object) = \"\" || LANGMATCHES(LANG(?object), ").
			Literal(e.language, "").Raw("))\n}")
	} else {
		b.Raw("CONSTRUCT { ?subject ?predicate ").IRI(uri).Raw(" . ?subject rdfs:label ?label . }\n").
			Raw("WHERE {\n  ?subject ?predicate ").IRI(uri).Raw(" .\n").
			Raw("  ?subject rdfs:label ?label .\n").
			Raw("  FILTER(LANG(?label) = \"\" || LANGMATCHES(LANG(?label), ").
			Literal(e.language, "").Raw("))\n}")
	}

	q, err := b.Build()
	if err != nil {
		return "", fmt.Errorf("build neighbourhood query: %w", err)
	}
	return q, nil
}

// extraction is the state of one Extract call. visited is shared across all
// resources so a node reached twice is expanded once.
type extraction struct {
	*Extractor
	clue       *model.Clue
	visited    map[string]bool
	texts      map[string]bool
	candidates []model.RawCandidate
}

func (x *extraction) scan(clueResource string, inf *graph.Graph) {
	for _, t := range inf.Triples() {
		if !x.reasoner.IsSubPropertyOf(t.Pred, x.relational) {
			continue
		}
		if !x.predicateMatches(inf, t.Pred) {
			continue
		}

		if graph.IsLiteral(t.Obj) {
			x.add(graph.Text(t.Obj), "", clueResource, inf)
			continue
		}

		key := graph.Key(t.Obj)
		if x.visited[key] {
			continue
		}
		x.visited[key] = true

		for _, label := range inf.Labels(t.Obj) {
			if textutil.HasForeignTag(label, x.language) {
				continue
			}
			x.add(textutil.StripLanguageTag(label), graph.IRIOf(t.Obj), clueResource, inf)
		}
	}
}

// predicateMatches reports whether any label of p, proper-cased, is a clue
// fragment.
func (x *extraction) predicateMatches(inf *graph.Graph, p rdf.Predicate) bool {
	for _, label := range inf.Labels(p) {
		if x.clue.HasFragment(textutil.ProperCase(textutil.StripLanguageTag(label))) {
			return true
		}
	}
	return false
}

func (x *extraction) add(text, resource, clueResource string, inf *graph.Graph) {
	if text == "" || x.texts[text] {
		return
	}
	x.texts[text] = true
	x.candidates = append(x.candidates, model.RawCandidate{
		Text:         text,
		Resource:     resource,
		ClueResource: clueResource,
		Snapshot:     inf,
	})
}
