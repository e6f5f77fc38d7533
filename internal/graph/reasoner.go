package graph

import (
	"github.com/knakk/rdf"
)

// Reasoner materialises RDFS/OWL subsumption entailments of a fixed schema
// over data graphs. It is built once per solve and then read-only.
type Reasoner struct {
	schema *Graph

	superProps   map[string][]rdf.IRI // property -> transitive super-properties, excluding itself
	superClasses map[string][]rdf.IRI // class -> transitive super-classes, excluding itself
	inverses     map[string][]rdf.IRI
	domains      map[string][]rdf.IRI
	ranges       map[string][]rdf.IRI
	eqClasses    map[string][]rdf.IRI
	eqProps      map[string][]rdf.IRI
}

// BindSchema compiles schema into a reasoner.
func BindSchema(schema *Graph) *Reasoner {
	if schema == nil {
		schema = New()
	}
	r := &Reasoner{
		schema:    schema,
		inverses:  make(map[string][]rdf.IRI),
		domains:   make(map[string][]rdf.IRI),
		ranges:    make(map[string][]rdf.IRI),
		eqClasses: make(map[string][]rdf.IRI),
		eqProps:   make(map[string][]rdf.IRI),
	}

	propEdges := make(map[string][]rdf.IRI)
	classEdges := make(map[string][]rdf.IRI)

	for _, t := range schema.triples {
		s, sok := t.Subj.(rdf.IRI)
		o, ook := t.Obj.(rdf.IRI)
		if !sok || !ook {
			continue
		}
		sk, objKey := Key(s), Key(o)

		switch Key(t.Pred) {
		case Key(SubPropertyOfIRI):
			propEdges[sk] = append(propEdges[sk], o)
		case Key(EquivalentPropertyIRI):
			propEdges[sk] = append(propEdges[sk], o)
			propEdges[objKey] = append(propEdges[objKey], s)
			r.eqProps[sk] = appendUnique(r.eqProps[sk], o)
			r.eqProps[objKey] = appendUnique(r.eqProps[objKey], s)
		case Key(SubClassOfIRI):
			classEdges[sk] = append(classEdges[sk], o)
		case Key(EquivalentClassIRI):
			classEdges[sk] = append(classEdges[sk], o)
			classEdges[objKey] = append(classEdges[objKey], s)
			r.eqClasses[sk] = appendUnique(r.eqClasses[sk], o)
			r.eqClasses[objKey] = appendUnique(r.eqClasses[objKey], s)
		case Key(InverseOfIRI):
			r.inverses[sk] = appendUnique(r.inverses[sk], o)
			r.inverses[objKey] = appendUnique(r.inverses[objKey], s)
		case Key(DomainIRI):
			r.domains[sk] = appendUnique(r.domains[sk], o)
		case Key(RangeIRI):
			r.ranges[sk] = appendUnique(r.ranges[sk], o)
		}
	}

	r.superProps = closure(propEdges)
	r.superClasses = closure(classEdges)
	return r
}

// closure computes the transitive successors of every node, excluding the
// node itself.
func closure(edges map[string][]rdf.IRI) map[string][]rdf.IRI {
	out := make(map[string][]rdf.IRI, len(edges))
	for start := range edges {
		visited := map[string]bool{start: true}
		queue := append([]rdf.IRI(nil), edges[start]...)
		var reach []rdf.IRI
		for len(queue) > 0 {
			next := queue[0]
			queue = queue[1:]
			k := Key(next)
			if visited[k] {
				continue
			}
			visited[k] = true
			reach = append(reach, next)
			queue = append(queue, edges[k]...)
		}
		out[start] = reach
	}
	return out
}

func appendUnique(list []rdf.IRI, iri rdf.IRI) []rdf.IRI {
	k := Key(iri)
	for _, existing := range list {
		if Key(existing) == k {
			return list
		}
	}
	return append(list, iri)
}

// Schema returns the bound schema graph.
func (r *Reasoner) Schema() *Graph { return r.schema }

// IsSubPropertyOf reports whether p is a strict transitive sub-property of
// super.
func (r *Reasoner) IsSubPropertyOf(p, super rdf.Term) bool {
	sk := Key(super)
	for _, candidate := range r.superProps[Key(p)] {
		if Key(candidate) == sk {
			return true
		}
	}
	return false
}

// EquivalentClasses returns the declared equivalents of class.
func (r *Reasoner) EquivalentClasses(class rdf.Term) []rdf.IRI {
	return r.eqClasses[Key(class)]
}

// EquivalentProperties returns the declared equivalents of property.
func (r *Reasoner) EquivalentProperties(property rdf.Term) []rdf.IRI {
	return r.eqProps[Key(property)]
}

// Infer returns a new graph holding the schema, data and every entailment.
// data is not modified.
func (r *Reasoner) Infer(data *Graph) *Graph {
	inf := New()
	inf.Merge(r.schema)

	var queue []rdf.Triple
	push := func(t rdf.Triple) {
		if inf.Add(t) == 1 {
			queue = append(queue, t)
		}
	}

	if data != nil {
		for _, t := range data.triples {
			push(t)
		}
	}

	for len(queue) > 0 {
		t := queue[0]
		queue = queue[1:]
		for _, derived := range r.entail(t) {
			push(derived)
		}
	}
	return inf
}

// entail applies each rule once to t.
func (r *Reasoner) entail(t rdf.Triple) []rdf.Triple {
	var out []rdf.Triple
	pk := Key(t.Pred)

	if pk == Key(TypeIRI) {
		for _, super := range r.superClasses[Key(t.Obj)] {
			out = append(out, rdf.Triple{Subj: t.Subj, Pred: TypeIRI, Obj: super})
		}
		return out
	}

	for _, super := range r.superProps[pk] {
		out = append(out, rdf.Triple{Subj: t.Subj, Pred: super, Obj: t.Obj})
	}

	for _, class := range r.domains[pk] {
		out = append(out, rdf.Triple{Subj: t.Subj, Pred: TypeIRI, Obj: class})
	}

	obj, isNode := AsSubject(t.Obj)
	if !isNode {
		return out
	}
	for _, class := range r.ranges[pk] {
		out = append(out, rdf.Triple{Subj: obj, Pred: TypeIRI, Obj: class})
	}
	subj, ok := t.Subj.(rdf.Object)
	if !ok {
		return out
	}
	for _, inverse := range r.inverses[pk] {
		out = append(out, rdf.Triple{Subj: obj, Pred: inverse, Obj: subj})
	}
	return out
}
