// Package graph is a small indexed triple store over knakk/rdf terms.
//
// A Graph is safe for concurrent readers. Writers must not run alongside
// readers; the knowledge base and the reasoner each own the graphs they write.
package graph

import (
	"github.com/knakk/rdf"
)

// Graph is an in-memory set of triples indexed by subject, predicate and
// object.
type Graph struct {
	triples []rdf.Triple
	seen    map[tripleKey]struct{}
	bySubj  map[string][]int
	byPred  map[string][]int
	byObj   map[string][]int
}

type tripleKey struct {
	s, p, o string
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		seen:   make(map[tripleKey]struct{}),
		bySubj: make(map[string][]int),
		byPred: make(map[string][]int),
		byObj:  make(map[string][]int),
	}
}

// FromTriples builds a graph from ts, dropping duplicates.
func FromTriples(ts []rdf.Triple) *Graph {
	g := New()
	g.Add(ts...)
	return g
}

// Key is the canonical N-Triples form of a term, used for identity.
func Key(t rdf.Term) string {
	if t == nil {
		return ""
	}
	return t.Serialize(rdf.NTriples)
}

func keyOf(t rdf.Triple) tripleKey {
	return tripleKey{s: Key(t.Subj), p: Key(t.Pred), o: Key(t.Obj)}
}

// Add inserts triples not already present and reports how many were new.
func (g *Graph) Add(ts ...rdf.Triple) int {
	added := 0
	for _, t := range ts {
		k := keyOf(t)
		if _, ok := g.seen[k]; ok {
			continue
		}
		g.seen[k] = struct{}{}
		idx := len(g.triples)
		g.triples = append(g.triples, t)
		g.bySubj[k.s] = append(g.bySubj[k.s], idx)
		g.byPred[k.p] = append(g.byPred[k.p], idx)
		g.byObj[k.o] = append(g.byObj[k.o], idx)
		added++
	}
	return added
}

// Merge adds every triple of other.
func (g *Graph) Merge(other *Graph) int {
	if other == nil {
		return 0
	}
	return g.Add(other.triples...)
}

// Has reports whether t is in the graph.
func (g *Graph) Has(t rdf.Triple) bool {
	_, ok := g.seen[keyOf(t)]
	return ok
}

// Len is the number of distinct triples.
func (g *Graph) Len() int {
	if g == nil {
		return 0
	}
	return len(g.triples)
}

// Triples returns a copy of all triples in insertion order.
func (g *Graph) Triples() []rdf.Triple {
	return append([]rdf.Triple(nil), g.triples...)
}

// Match returns triples matching the pattern. A nil term is a wildcard.
func (g *Graph) Match(s, p, o rdf.Term) []rdf.Triple {
	if g == nil {
		return nil
	}

	// Walk the smallest bound index.
	var candidates []int
	bound := false
	pick := func(index map[string][]int, t rdf.Term) {
		if t == nil {
			return
		}
		ids := index[Key(t)]
		if !bound || len(ids) < len(candidates) {
			candidates = ids
		}
		bound = true
	}
	pick(g.bySubj, s)
	pick(g.byPred, p)
	pick(g.byObj, o)

	sk, pk, objKey := Key(s), Key(p), Key(o)
	var out []rdf.Triple
	visit := func(t rdf.Triple) {
		if s != nil && Key(t.Subj) != sk {
			return
		}
		if p != nil && Key(t.Pred) != pk {
			return
		}
		if o != nil && Key(t.Obj) != objKey {
			return
		}
		out = append(out, t)
	}

	if !bound {
		for _, t := range g.triples {
			visit(t)
		}
		return out
	}
	for _, idx := range candidates {
		visit(g.triples[idx])
	}
	return out
}

// Objects returns the objects of (s, p, *).
func (g *Graph) Objects(s rdf.Subject, p rdf.Predicate) []rdf.Object {
	var out []rdf.Object
	for _, t := range g.Match(s, p, nil) {
		out = append(out, t.Obj)
	}
	return out
}
