package kb

import (
	"github.com/knakk/rdf"

	"github.com/ppiankov/semsolver/internal/graph"
	"github.com/ppiankov/semsolver/internal/vocab"
)

// Record is a clue solved in an earlier run. Two records are the same clue
// when ClueText and Structure are equal.
type Record struct {
	ClueText  string   `json:"clue_text"`
	Structure string   `json:"structure"`
	URI       string   `json:"uri"`
	Solutions []string `json:"solutions"`
}

// HasSolution reports whether text is already recorded.
func (r *Record) HasSolution(text string) bool {
	for _, s := range r.Solutions {
		if s == text {
			return true
		}
	}
	return false
}

func (r *Record) clone() Record {
	out := *r
	out.Solutions = append([]string(nil), r.Solutions...)
	return out
}

func recordKey(clueText, structure string) string {
	return clueText + "\x00" + structure
}

// Stats summarises the store.
type Stats struct {
	Enabled   bool   `json:"enabled"`
	Path      string `json:"path"`
	Clues     int    `json:"clues"`
	Solutions int    `json:"solutions"`
	Triples   int    `json:"triples"`
}

var (
	solvedBy             = graph.MustIRI(vocab.SolvedBy)
	hasClueText          = graph.MustIRI(vocab.HasClueText)
	hasSolutionStructure = graph.MustIRI(vocab.HasSolutionStructure)
	hasSolutionText      = graph.MustIRI(vocab.HasSolutionText)
	clueClass            = graph.MustIRI(vocab.Clue)
	solutionClass        = graph.MustIRI(vocab.Solution)
)

// readRecords rebuilds the record list from the solvedBy links of g, one
// record per clue node in first-seen order.
func readRecords(g *graph.Graph) []*Record {
	var records []*Record
	byURI := make(map[string]*Record)

	for _, t := range g.Match(nil, solvedBy, nil) {
		clueURI := graph.IRIOf(t.Subj)
		if clueURI == "" {
			continue
		}
		rec, ok := byURI[clueURI]
		if !ok {
			rec = &Record{
				ClueText:  firstLiteral(g, t.Subj, hasClueText),
				Structure: firstLiteral(g, t.Subj, hasSolutionStructure),
				URI:       clueURI,
			}
			byURI[clueURI] = rec
			records = append(records, rec)
		}

		sol, ok := graph.AsSubject(t.Obj)
		if !ok {
			continue
		}
		for _, o := range g.Objects(sol, hasSolutionText) {
			if text := literalValue(o); text != "" && !rec.HasSolution(text) {
				rec.Solutions = append(rec.Solutions, text)
			}
		}
	}
	return records
}

func firstLiteral(g *graph.Graph, s rdf.Subject, p rdf.Predicate) string {
	for _, o := range g.Objects(s, p) {
		if v := literalValue(o); v != "" {
			return v
		}
	}
	return ""
}

func literalValue(o rdf.Term) string {
	if lit, ok := o.(rdf.Literal); ok {
		return lit.String()
	}
	return ""
}
