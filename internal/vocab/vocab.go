// Package vocab defines IRI constants for the standard vocabularies used
// throughout ontology documents: RDF, RDFS, OWL, XSD, Dublin Core, SKOS, and
// the oboInOwl annotation vocabulary.
package vocab

// Namespace IRIs.
const (
	RDF      = `http://www.w3.org/1999/02/22-rdf-syntax-ns#`
	RDFS     = `http://www.w3.org/2000/01/rdf-schema#`
	OWL      = `http://www.w3.org/2002/07/owl#`
	XSD      = `http://www.w3.org/2001/XMLSchema#`
	DC       = `http://purl.org/dc/elements/1.1/`
	SKOS     = `http://www.w3.org/2004/02/skos/core#`
	OBOInOWL = `http://www.geneontology.org/formats/oboInOwl#`
	OBO      = `http://purl.obolibrary.org/obo/`
)

// RDF vocabulary.
const (
	RDFType  = RDF + `type`
	RDFFirst = RDF + `first`
	RDFRest  = RDF + `rest`
	RDFNil   = RDF + `nil`
)

// RDFS vocabulary.
const (
	RDFSLabel       = RDFS + `label`
	RDFSComment     = RDFS + `comment`
	RDFSSubClassOf  = RDFS + `subClassOf`
	RDFSDomain      = RDFS + `domain`
	RDFSRange       = RDFS + `range`
	RDFSSubPropertyOf = RDFS + `subPropertyOf`
	RDFSDatatype    = RDFS + `Datatype`
)

// OWL vocabulary.
const (
	OWLThing   = OWL + `Thing`
	OWLNothing = OWL + `Nothing`

	OWLClass              = OWL + `Class`
	OWLObjectProperty     = OWL + `ObjectProperty`
	OWLDatatypeProperty   = OWL + `DatatypeProperty`
	OWLAnnotationProperty = OWL + `AnnotationProperty`
	OWLNamedIndividual    = OWL + `NamedIndividual`
	OWLOntology           = OWL + `Ontology`
	OWLRestriction        = OWL + `Restriction`

	OWLImports         = OWL + `imports`
	OWLVersionIRI      = OWL + `versionIRI`
	OWLEquivalentClass = OWL + `equivalentClass`
	OWLDisjointWith    = OWL + `disjointWith`
	OWLIntersectionOf  = OWL + `intersectionOf`
	OWLUnionOf         = OWL + `unionOf`
	OWLComplementOf    = OWL + `complementOf`
	OWLOnProperty      = OWL + `onProperty`
	OWLSomeValuesFrom  = OWL + `someValuesFrom`
	OWLAllValuesFrom   = OWL + `allValuesFrom`
	OWLHasValue        = OWL + `hasValue`
	OWLInverseOf       = OWL + `inverseOf`
	OWLPropertyDisjointWith = OWL + `propertyDisjointWith`

	OWLAxiom             = OWL + `Axiom`
	OWLAnnotatedSource   = OWL + `annotatedSource`
	OWLAnnotatedProperty = OWL + `annotatedProperty`
	OWLAnnotatedTarget   = OWL + `annotatedTarget`

	OWLFunctionalProperty        = OWL + `FunctionalProperty`
	OWLInverseFunctionalProperty = OWL + `InverseFunctionalProperty`
	OWLReflexiveProperty         = OWL + `ReflexiveProperty`
	OWLIrreflexiveProperty       = OWL + `IrreflexiveProperty`
	OWLSymmetricProperty         = OWL + `SymmetricProperty`
	OWLAsymmetricProperty        = OWL + `AsymmetricProperty`
	OWLTransitiveProperty        = OWL + `TransitiveProperty`
)

// XSD datatypes.
const (
	XSDString  = XSD + `string`
	XSDBoolean = XSD + `boolean`
)

// Annotation vocabularies.
const (
	DCSource = DC + `source`

	SKOSPrefLabel = SKOS + `prefLabel`
	SKOSAltLabel  = SKOS + `altLabel`

	OBOHasSynonym        = OBOInOWL + `hasSynonym`
	OBOHasExactSynonym   = OBOInOWL + `hasExactSynonym`
	OBOHasRelatedSynonym = OBOInOWL + `hasRelatedSynonym`
	OBOIsInferred        = OBOInOWL + `is_inferred`

	// IAO:0000115, the OBO Foundry "definition" annotation property.
	IAODefinition = OBO + `IAO_0000115`
)

// DefaultPrefixes maps the conventional prefix names to their namespaces.
// Ontology documents may override or extend these with their own prefixes.
var DefaultPrefixes = map[string]string{
	"rdf":      RDF,
	"rdfs":     RDFS,
	"owl":      OWL,
	"xsd":      XSD,
	"dc":       DC,
	"skos":     SKOS,
	"oboInOwl": OBOInOWL,
	"obo":      OBO,
}

// SynonymProperties lists the annotation properties whose values are treated
// as entity synonyms by the search index.
var SynonymProperties = []string{
	SKOSPrefLabel,
	SKOSAltLabel,
	OBOHasSynonym,
	OBOHasExactSynonym,
	OBOHasRelatedSynonym,
}
