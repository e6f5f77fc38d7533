// Package recognize finds knowledge-graph resources whose labels match clue
// fragments.
package recognize

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/semsolver/internal/logging"
	"github.com/ppiankov/semsolver/internal/model"
	"github.com/ppiankov/semsolver/internal/sparql"
	"github.com/ppiankov/semsolver/internal/vocab"
)

// Options tunes recognition.
type Options struct {
	Language       string
	Namespace      string // Only resources under this prefix are kept
	ExactLimit     int
	SubstringLimit int
	ExtraStopWords []string
}

// DefaultOptions matches the public DBpedia endpoint.
func DefaultOptions() Options {
	return Options{
		Language:       "en",
		Namespace:      vocab.DBR,
		ExactLimit:     200,
		SubstringLimit: 100,
	}
}

// ProgressFunc receives the completed percentage of a phase.
type ProgressFunc func(percent int)

// Recognizer is the entity recognition phase.
type Recognizer struct {
	client    sparql.Client
	opts      Options
	stopWords StopWords
}

// New creates a recognizer. Zero-valued options fall back to defaults.
func New(client sparql.Client, opts Options) *Recognizer {
	def := DefaultOptions()
	if opts.Language == "" {
		opts.Language = def.Language
	}
	if opts.Namespace == "" {
		opts.Namespace = def.Namespace
	}
	if opts.ExactLimit <= 0 {
		opts.ExactLimit = def.ExactLimit
	}
	if opts.SubstringLimit <= 0 {
		opts.SubstringLimit = def.SubstringLimit
	}
	return &Recognizer{
		client:    client,
		opts:      opts,
		stopWords: NewStopWords(opts.ExtraStopWords...),
	}
}

// Recognize looks up every distinct fragment of clue and returns the union of
// matching resources in first-seen order. Failed lookups are logged and
// skipped; only cancellation of ctx is returned as an error.
func (r *Recognizer) Recognize(ctx context.Context, clue *model.Clue, progress ProgressFunc) ([]model.RecognizedResource, error) {
	fragments := distinct(clue.Fragments())
	seen := make(map[string]bool)
	var found []model.RecognizedResource

	for i, fragment := range fragments {
		if err := ctx.Err(); err != nil {
			return found, err
		}

		if !r.stopWords.Contains(fragment) {
			uris, err := r.lookup(ctx, fragment, clue.FillInBlank())
			if err != nil {
				if ctx.Err() != nil {
					return found, ctx.Err()
				}
				logging.Warn("entity lookup failed", "fragment", fragment, "err", err)
			}
			for _, uri := range uris {
				if seen[uri] {
					continue
				}
				seen[uri] = true
				found = append(found, model.RecognizedResource{URI: uri, Fragment: fragment})
				logging.Debug("recognised resource", "uri", uri, "fragment", fragment)
			}
		}

		if progress != nil {
			progress((i + 1) * 100 / len(fragments))
		}
	}
	return found, nil
}

func (r *Recognizer) lookup(ctx context.Context, fragment string, substring bool) ([]string, error) {
	query, err := r.Query(fragment, substring)
	if err != nil {
		return nil, err
	}
	rs, err := r.client.Select(ctx, query)
	if err != nil {
		return nil, err
	}

	var uris []string
	for _, row := range rs.Bindings {
		uri := row.IRI("resource")
		if uri == "" || !strings.HasPrefix(uri, r.opts.Namespace) {
			continue
		}
		uris = append(uris, uri)
	}
	return uris, nil
}

// Query builds the label lookup for one fragment: a union over every label
// predicate, directly and through one redirect hop.
func (r *Recognizer) Query(fragment string, substring bool) (string, error) {
	b := sparql.NewBuilder().
		Prefix("rdfs", vocab.RDFS).
		Prefix("dbpprop", vocab.DBP).
		Prefix("dbpedia-owl", vocab.DBO).
		Prefix("foaf", vocab.FOAF).
		Raw("SELECT DISTINCT ?resource WHERE {\n")

	labelProps := []string{"rdfs:label", "dbpprop:name", "foaf:givenName", "foaf:surname"}

	writeLabel := func() {
		if substring {
			b.Raw("?label")
		} else {
			b.Literal(fragment, r.opts.Language)
		}
	}

	for i, prop := range labelProps {
		if i > 0 {
			b.Raw("  UNION\n")
		}
		b.Rawf("  { ?resource %s ", prop)
		writeLabel()
		b.Raw(" }\n")
	}
	for _, prop := range labelProps {
		b.Rawf("  UNION\n  { ?redirect %s ", prop)
		writeLabel()
		b.Raw(" . ?redirect dbpedia-owl:wikiPageRedirects ?resource }\n")
	}

	limit := r.opts.ExactLimit
	if substring {
		limit = r.opts.SubstringLimit
		b.Raw("  FILTER(LANG(?label) = ").
			Literal(r.opts.Language, "").
			Raw(" && CONTAINS(LCASE(STR(?label)), LCASE(").
			Literal(fragment, "").
			Raw(")))\n")
	}
	b.Raw("}\nLIMIT ").Int(limit)

	q, err := b.Build()
	if err != nil {
		return "", fmt.Errorf("build recognition query: %w", err)
	}
	return q, nil
}

func distinct(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
