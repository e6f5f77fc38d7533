// Package vocab holds the IRIs the solver reads and writes.
package vocab

// Namespaces.
const (
	RDF         = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	RDFS        = "http://www.w3.org/2000/01/rdf-schema#"
	OWL         = "http://www.w3.org/2002/07/owl#"
	XSD         = "http://www.w3.org/2001/XMLSchema#"
	FOAF        = "http://xmlns.com/foaf/0.1/"
	DBR         = "http://dbpedia.org/resource/"
	DBO         = "http://dbpedia.org/ontology/"
	DBP         = "http://dbpedia.org/property/"
	POP         = "http://www.griffithsben.com/ontologies/pop.owl#"
	KB          = "http://www.griffithsben.com/ontologies/crossword#"
	KBClues     = "http://www.griffithsben.com/crossword/clue/"
	KBSolutions = "http://www.griffithsben.com/crossword/solution/"
)

// Schema terms.
const (
	Type               = RDF + "type"
	Label              = RDFS + "label"
	SubClassOf         = RDFS + "subClassOf"
	SubPropertyOf      = RDFS + "subPropertyOf"
	Domain             = RDFS + "domain"
	Range              = RDFS + "range"
	EquivalentClass    = OWL + "equivalentClass"
	EquivalentProperty = OWL + "equivalentProperty"
	InverseOf          = OWL + "inverseOf"
	XSDString          = XSD + "string"
)

// Label-bearing predicates used for entity recognition.
const (
	FOAFName       = FOAF + "name"
	FOAFGivenName  = FOAF + "givenName"
	FOAFFamilyName = FOAF + "surname"
	DBPDisplayName = DBP + "name"
	Redirects      = DBO + "wikiPageRedirects"
)

// RelationalProperty is the domain-ontology super-property of every
// candidate-producing predicate.
const RelationalProperty = POP + "relationalProperty"

// Knowledge base vocabulary.
const (
	Clue                 = KB + "Clue"
	Solution             = KB + "Solution"
	HasClueText          = KB + "hasClueText"
	HasSolutionStructure = KB + "hasSolutionStructure"
	SolvedBy             = KB + "solvedBy"
	HasSolutionText      = KB + "hasSolutionText"
)

// LabelPredicates is the recognition label set, in query order.
var LabelPredicates = []string{Label, DBPDisplayName, FOAFGivenName, FOAFFamilyName}
