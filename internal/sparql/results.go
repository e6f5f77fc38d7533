package sparql

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/knakk/rdf"

	"github.com/ppiankov/semsolver/internal/graph"
)

// Binding is one result row: variable name to bound term. Unbound variables
// are absent.
type Binding map[string]rdf.Term

// ResultSet is a decoded SELECT response.
type ResultSet struct {
	Vars     []string
	Bindings []Binding
}

type jsonResults struct {
	Head struct {
		Vars []string `json:"vars"`
	} `json:"head"`
	Results struct {
		Bindings []map[string]jsonTerm `json:"bindings"`
	} `json:"results"`
	Boolean *bool `json:"boolean,omitempty"`
}

type jsonTerm struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	Lang     string `json:"xml:lang,omitempty"`
	Datatype string `json:"datatype,omitempty"`
}

// DecodeResults parses the SPARQL 1.1 JSON results format.
func DecodeResults(data []byte) (*ResultSet, error) {
	var raw jsonResults
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode results: %w", err)
	}

	rs := &ResultSet{Vars: raw.Head.Vars}
	for i, row := range raw.Results.Bindings {
		b := make(Binding, len(row))
		for name, jt := range row {
			term, err := jt.term()
			if err != nil {
				return nil, fmt.Errorf("row %d, ?%s: %w", i, name, err)
			}
			b[name] = term
		}
		rs.Bindings = append(rs.Bindings, b)
	}
	return rs, nil
}

func (jt jsonTerm) term() (rdf.Term, error) {
	switch jt.Type {
	case "uri":
		return rdf.NewIRI(jt.Value)
	case "bnode":
		return rdf.NewBlank(jt.Value)
	case "literal", "typed-literal":
		if jt.Lang != "" {
			return graph.Literal(jt.Value, jt.Lang), nil
		}
		if jt.Datatype != "" {
			dt, err := rdf.NewIRI(jt.Datatype)
			if err != nil {
				return nil, err
			}
			return rdf.NewTypedLiteral(jt.Value, dt), nil
		}
		return graph.Literal(jt.Value, ""), nil
	default:
		return nil, fmt.Errorf("unknown term type %q", jt.Type)
	}
}

// Int reads an integer-valued variable, as returned by COUNT.
func (b Binding) Int(name string) (int, error) {
	term, ok := b[name]
	if !ok {
		return 0, fmt.Errorf("variable ?%s unbound", name)
	}
	n, err := strconv.Atoi(graph.Text(term))
	if err != nil {
		return 0, fmt.Errorf("variable ?%s: %w", name, err)
	}
	return n, nil
}

// IRI returns the IRI bound to name, or "".
func (b Binding) IRI(name string) string {
	return graph.IRIOf(b[name])
}
