package graph

import (
	"testing"

	"github.com/knakk/rdf"

	"github.com/ppiankov/semsolver/internal/vocab"
)

func testSchema() *Graph {
	rel := MustIRI(vocab.RelationalProperty)
	hasCapital := MustIRI(vocab.POP + "hasCapital")
	capitalOf := MustIRI(vocab.POP + "capitalOf")
	dboCapital := MustIRI(vocab.DBO + "capital")
	city := MustIRI(vocab.POP + "city")
	place := MustIRI(vocab.DBO + "Place")

	return FromTriples([]rdf.Triple{
		{Subj: hasCapital, Pred: SubPropertyOfIRI, Obj: rel},
		{Subj: capitalOf, Pred: SubPropertyOfIRI, Obj: rel},
		{Subj: hasCapital, Pred: EquivalentPropertyIRI, Obj: dboCapital},
		{Subj: hasCapital, Pred: InverseOfIRI, Obj: capitalOf},
		{Subj: hasCapital, Pred: RangeIRI, Obj: city},
		{Subj: city, Pred: SubClassOfIRI, Obj: place},
		{Subj: hasCapital, Pred: LabelIRI, Obj: Literal("Capital Of", "en")},
	})
}

func TestReasoner_SubProperty(t *testing.T) {
	r := BindSchema(testSchema())
	rel := MustIRI(vocab.RelationalProperty)

	if !r.IsSubPropertyOf(MustIRI(vocab.POP+"hasCapital"), rel) {
		t.Error("Expected hasCapital to be relational")
	}
	if !r.IsSubPropertyOf(MustIRI(vocab.DBO+"capital"), rel) {
		t.Error("Expected equivalent property to inherit relational super-property")
	}
	if r.IsSubPropertyOf(rel, rel) {
		t.Error("Expected relationalProperty not to be its own strict sub-property")
	}
	if r.IsSubPropertyOf(LabelIRI, rel) {
		t.Error("Expected rdfs:label not to be relational")
	}
}

func TestReasoner_Infer(t *testing.T) {
	r := BindSchema(testSchema())

	fr := MustIRI(vocab.DBR + "France")
	pa := MustIRI(vocab.DBR + "Paris")
	data := FromTriples([]rdf.Triple{
		{Subj: fr, Pred: MustIRI(vocab.DBO + "capital"), Obj: pa},
	})

	inf := r.Infer(data)

	expect := []rdf.Triple{
		{Subj: fr, Pred: MustIRI(vocab.POP + "hasCapital"), Obj: pa},
		{Subj: fr, Pred: MustIRI(vocab.RelationalProperty), Obj: pa},
		{Subj: pa, Pred: MustIRI(vocab.POP + "capitalOf"), Obj: fr},
		{Subj: pa, Pred: TypeIRI, Obj: MustIRI(vocab.POP + "city")},
		{Subj: pa, Pred: TypeIRI, Obj: MustIRI(vocab.DBO + "Place")},
	}
	for _, tr := range expect {
		if !inf.Has(tr) {
			t.Errorf("Expected entailment %s %s %s", Key(tr.Subj), Key(tr.Pred), Key(tr.Obj))
		}
	}

	if data.Len() != 1 {
		t.Errorf("Expected data graph to be untouched, got %d triples", data.Len())
	}
	if labels := inf.Labels(MustIRI(vocab.POP + "hasCapital")); len(labels) != 1 {
		t.Errorf("Expected schema labels in the inference graph, got %v", labels)
	}
}

func TestReasoner_LiteralObjectsSkipNodeRules(t *testing.T) {
	r := BindSchema(testSchema())
	fr := MustIRI(vocab.DBR + "France")
	data := FromTriples([]rdf.Triple{
		{Subj: fr, Pred: MustIRI(vocab.POP + "hasCapital"), Obj: Literal("Paris", "en")},
	})

	inf := r.Infer(data)
	if got := inf.Match(nil, MustIRI(vocab.POP+"capitalOf"), nil); len(got) != 0 {
		t.Errorf("Expected no inverse for a literal object, got %d", len(got))
	}
}

func TestReasoner_Equivalents(t *testing.T) {
	schema := FromTriples([]rdf.Triple{
		{Subj: MustIRI(vocab.POP + "artist"), Pred: EquivalentClassIRI, Obj: MustIRI(vocab.DBO + "MusicalArtist")},
	})
	r := BindSchema(schema)

	eq := r.EquivalentClasses(MustIRI(vocab.POP + "artist"))
	if len(eq) != 1 || eq[0].String() != vocab.DBO+"MusicalArtist" {
		t.Errorf("Unexpected equivalents: %v", eq)
	}
	back := r.EquivalentClasses(MustIRI(vocab.DBO + "MusicalArtist"))
	if len(back) != 1 {
		t.Errorf("Expected equivalence to be symmetric, got %v", back)
	}
}
