package graph

import (
	"fmt"

	"github.com/knakk/rdf"

	"github.com/ppiankov/semsolver/internal/vocab"
)

// MustIRI builds an IRI term from a known-good constant.
func MustIRI(s string) rdf.IRI {
	iri, err := rdf.NewIRI(s)
	if err != nil {
		panic(fmt.Sprintf("graph: invalid IRI %q: %v", s, err))
	}
	return iri
}

// Common predicate terms.
var (
	TypeIRI               = MustIRI(vocab.Type)
	LabelIRI              = MustIRI(vocab.Label)
	SubClassOfIRI         = MustIRI(vocab.SubClassOf)
	SubPropertyOfIRI      = MustIRI(vocab.SubPropertyOf)
	DomainIRI             = MustIRI(vocab.Domain)
	RangeIRI              = MustIRI(vocab.Range)
	EquivalentClassIRI    = MustIRI(vocab.EquivalentClass)
	EquivalentPropertyIRI = MustIRI(vocab.EquivalentProperty)
	InverseOfIRI          = MustIRI(vocab.InverseOf)
)

// Text renders a term for label comparison. Language-tagged literals keep a
// trailing "@xx"; IRIs render as the bare IRI.
func Text(t rdf.Term) string {
	switch v := t.(type) {
	case rdf.Literal:
		if lang := v.Lang(); lang != "" {
			return v.String() + "@" + lang
		}
		return v.String()
	case rdf.IRI:
		return v.String()
	case nil:
		return ""
	default:
		return Key(t)
	}
}

// IsLiteral reports whether t is a literal.
func IsLiteral(t rdf.Term) bool {
	_, ok := t.(rdf.Literal)
	return ok
}

// AsSubject converts a non-literal object to a subject.
func AsSubject(o rdf.Object) (rdf.Subject, bool) {
	s, ok := o.(rdf.Subject)
	return s, ok
}

// IRIOf returns the IRI string of a term, or "" when t is not an IRI.
func IRIOf(t rdf.Term) string {
	if iri, ok := t.(rdf.IRI); ok {
		return iri.String()
	}
	return ""
}

// Labels returns the rdfs:label texts of node in insertion order.
func (g *Graph) Labels(node rdf.Term) []string {
	var out []string
	for _, t := range g.Match(node, LabelIRI, nil) {
		out = append(out, Text(t.Obj))
	}
	return out
}

// Types returns the rdf:type objects of node.
func (g *Graph) Types(node rdf.Term) []rdf.Object {
	var out []rdf.Object
	for _, t := range g.Match(node, TypeIRI, nil) {
		out = append(out, t.Obj)
	}
	return out
}

// Literal builds a plain literal, language-tagged when lang is set.
func Literal(value, lang string) rdf.Literal {
	if lang != "" {
		if l, err := rdf.NewLangLiteral(value, lang); err == nil {
			return l
		}
	}
	return rdf.NewTypedLiteral(value, MustIRI(vocab.XSDString))
}
