package rdfxml

import (
	"fmt"
	"io"

	"github.com/stuckyb/ontobuilder/internal/owl"
	"github.com/stuckyb/ontobuilder/internal/vocab"
)

// Parse reads an RDF/XML ontology document and assembles it into an
// Ontology. base resolves relative IRI references when the document has no
// xml:base declaration; it may be empty when the document uses absolute
// references throughout.
func Parse(r io.Reader, base string) (*owl.Ontology, error) {
	p, err := parseTriples(r, base)
	if err != nil {
		return nil, err
	}
	a := &assembler{
		parser:    p,
		bySubject: make(map[string][]triple),
		exprs:     make(map[string]owl.ClassExpression),
		annots:    make(map[string][]owl.Annotation),
		reified:   make(map[string]bool),
	}
	for _, t := range p.triples {
		a.bySubject[t.s.id()] = append(a.bySubject[t.s.id()], t)
	}
	return a.assemble()
}

type assembler struct {
	parser    *parser
	ont       *owl.Ontology
	bySubject map[string][]triple
	exprs     map[string]owl.ClassExpression
	// annots maps a reification key (source|predicate|target) to the axiom
	// annotations asserted on the corresponding owl:Axiom node.
	annots  map[string][]owl.Annotation
	reified map[string]bool // blank node IDs of owl:Axiom nodes
}

func (a *assembler) assemble() (*owl.Ontology, error) {
	ontIRI := ""
	for _, t := range a.parser.triples {
		if t.p.value == vocab.RDFType && t.o.value == vocab.OWLOntology && t.s.kind == termIRI {
			ontIRI = t.s.value
			break
		}
	}
	a.ont = owl.NewOntology(owl.IRI(ontIRI))
	for name, ns := range a.parser.prefixes {
		a.ont.Prefixes().Register(name, ns)
	}

	if err := a.collectReifications(); err != nil {
		return nil, err
	}

	// Ontology header.
	if ontIRI != "" {
		for _, t := range a.bySubject[ontIRI] {
			switch t.p.value {
			case vocab.RDFType:
				// owl:Ontology
			case vocab.OWLImports:
				if t.o.kind == termIRI {
					a.ont.AddImportDeclaration(owl.IRI(t.o.value))
				}
			case vocab.OWLVersionIRI:
				if t.o.kind == termIRI {
					a.ont.SetVersionIRI(owl.IRI(t.o.value))
				}
			default:
				a.ont.AddAnnotation(owl.Annotation{
					Property: owl.IRI(t.p.value),
					Value:    annotationValue(t.o),
				})
			}
		}
	}

	// Declarations first so that predicate dispatch can consult entity kinds.
	for _, t := range a.parser.triples {
		if t.s.kind != termIRI || t.s.value == ontIRI {
			continue
		}
		if t.p.value != vocab.RDFType || t.o.kind != termIRI {
			continue
		}
		if kind, ok := declarationKind(t.o.value); ok {
			a.ont.AddAxiom(owl.Declaration{Kind: kind, Subject: owl.IRI(t.s.value)})
		}
	}

	for _, t := range a.parser.triples {
		if t.s.kind != termIRI || t.s.value == ontIRI {
			continue
		}
		if err := a.assembleTriple(t); err != nil {
			return nil, err
		}
	}
	return a.ont, nil
}

func declarationKind(typeIRI string) (owl.EntityKind, bool) {
	switch typeIRI {
	case vocab.OWLClass:
		return owl.ClassKind, true
	case vocab.OWLObjectProperty:
		return owl.ObjectPropertyKind, true
	case vocab.OWLDatatypeProperty:
		return owl.DataPropertyKind, true
	case vocab.OWLAnnotationProperty:
		return owl.AnnotationPropertyKind, true
	case vocab.OWLNamedIndividual:
		return owl.IndividualKind, true
	}
	return 0, false
}

func annotationValue(o term) owl.AnnotationValue {
	if o.kind == termIRI {
		return owl.IRI(o.value)
	}
	return owl.Literal{Value: o.value, Lang: o.lang, Datatype: owl.IRI(o.datatype)}
}

// collectReifications indexes owl:Axiom nodes so that axiom annotations can
// be reattached to the axioms they describe.
func (a *assembler) collectReifications() error {
	for subj, triples := range a.bySubject {
		isAxiomNode := false
		for _, t := range triples {
			if t.p.value == vocab.RDFType && t.o.value == vocab.OWLAxiom {
				isAxiomNode = true
				break
			}
		}
		if !isAxiomNode {
			continue
		}
		var source, pred string
		var target term
		var annots []owl.Annotation
		for _, t := range triples {
			switch t.p.value {
			case vocab.RDFType:
			case vocab.OWLAnnotatedSource:
				source = t.o.value
			case vocab.OWLAnnotatedProperty:
				pred = t.o.value
			case vocab.OWLAnnotatedTarget:
				target = t.o
			default:
				annots = append(annots, owl.Annotation{
					Property: owl.IRI(t.p.value),
					Value:    annotationValue(t.o),
				})
			}
		}
		if source == "" || pred == "" {
			return fmt.Errorf("incomplete owl:Axiom annotation node %s", subj)
		}
		key, err := a.reificationKey(source, pred, target)
		if err != nil {
			return err
		}
		a.annots[key] = append(a.annots[key], annots...)
		a.reified[subj] = true
	}
	return nil
}

func (a *assembler) reificationKey(source, pred string, target term) (string, error) {
	targetKey := ""
	switch target.kind {
	case termIRI:
		targetKey = target.value
	case termLiteral:
		targetKey = fmt.Sprintf("%s@%s^%s", target.value, target.lang, target.datatype)
	case termBlank:
		expr, err := a.classExpression(target)
		if err != nil {
			return "", err
		}
		targetKey = expr.Key()
	}
	return source + "|" + pred + "|" + targetKey, nil
}

// annotationsFor returns the reified annotations for an axiom, if any.
func (a *assembler) annotationsFor(s term, pred string, o term) []owl.Annotation {
	key, err := a.reificationKey(s.value, pred, o)
	if err != nil {
		return nil
	}
	return a.annots[key]
}

func (a *assembler) assembleTriple(t triple) error {
	s := owl.IRI(t.s.value)
	switch t.p.value {
	case vocab.RDFType:
		return a.assembleType(t)

	case vocab.RDFSSubClassOf:
		super, err := a.classExpression(t.o)
		if err != nil {
			return err
		}
		ax := owl.SubClassOf{Sub: owl.NamedClass{IRI: s}, Super: super}
		if ann := a.annotationsFor(t.s, t.p.value, t.o); ann != nil {
			ax.Annots = ann
		}
		a.ont.AddAxiom(ax)

	case vocab.OWLEquivalentClass:
		other, err := a.classExpression(t.o)
		if err != nil {
			return err
		}
		ax := owl.EquivalentClasses{A: owl.NamedClass{IRI: s}, B: other}
		if ann := a.annotationsFor(t.s, t.p.value, t.o); ann != nil {
			ax.Annots = ann
		}
		a.ont.AddAxiom(ax)

	case vocab.OWLDisjointWith:
		other, err := a.classExpression(t.o)
		if err != nil {
			return err
		}
		a.ont.AddAxiom(owl.DisjointClasses{A: owl.NamedClass{IRI: s}, B: other})

	case vocab.RDFSSubPropertyOf:
		if t.o.kind != termIRI {
			return fmt.Errorf("non-IRI superproperty for %s", s)
		}
		super := owl.IRI(t.o.value)
		switch a.kindOf(s) {
		case owl.DataPropertyKind:
			a.ont.AddAxiom(owl.SubDataPropertyOf{Sub: s, Super: super})
		case owl.AnnotationPropertyKind:
			a.ont.AddAxiom(owl.SubAnnotationPropertyOf{Sub: s, Super: super})
		default:
			a.ont.AddAxiom(owl.SubObjectPropertyOf{Sub: s, Super: super})
		}

	case vocab.RDFSDomain:
		dom, err := a.classExpression(t.o)
		if err != nil {
			return err
		}
		if a.kindOf(s) == owl.DataPropertyKind {
			a.ont.AddAxiom(owl.DataPropertyDomain{Property: s, Domain: dom})
		} else {
			a.ont.AddAxiom(owl.ObjectPropertyDomain{Property: s, Domain: dom})
		}

	case vocab.RDFSRange:
		if a.kindOf(s) == owl.DataPropertyKind {
			if t.o.kind != termIRI {
				return fmt.Errorf("non-IRI datatype range for %s", s)
			}
			a.ont.AddAxiom(owl.DataPropertyRange{Property: s, Datatype: owl.IRI(t.o.value)})
		} else {
			rng, err := a.classExpression(t.o)
			if err != nil {
				return err
			}
			a.ont.AddAxiom(owl.ObjectPropertyRange{Property: s, Range: rng})
		}

	case vocab.OWLInverseOf:
		if t.o.kind == termIRI {
			a.ont.AddAxiom(owl.InverseObjectProperties{First: s, Second: owl.IRI(t.o.value)})
		}

	case vocab.OWLPropertyDisjointWith:
		if t.o.kind != termIRI {
			return fmt.Errorf("non-IRI disjoint property for %s", s)
		}
		other := owl.IRI(t.o.value)
		if a.kindOf(s) == owl.DataPropertyKind {
			a.ont.AddAxiom(owl.DisjointDataProperties{First: s, Second: other})
		} else {
			a.ont.AddAxiom(owl.DisjointObjectProperties{First: s, Second: other})
		}

	default:
		a.assembleAssertion(t, s)
	}
	return nil
}

// assembleType handles rdf:type triples: declarations (already indexed),
// property characteristics, and class assertions on individuals.
func (a *assembler) assembleType(t triple) error {
	s := owl.IRI(t.s.value)
	if t.o.kind == termIRI {
		if _, isDecl := declarationKind(t.o.value); isDecl {
			return nil // handled in the declaration pass
		}
		if c, ok := characteristicType(t.o.value); ok {
			if c == owl.Functional && a.kindOf(s) == owl.DataPropertyKind {
				a.ont.AddAxiom(owl.FunctionalDataProperty{Property: s})
			} else {
				a.ont.AddAxiom(owl.ObjectPropertyCharacteristic{Property: s, Characteristic: c})
			}
			return nil
		}
	}
	if a.kindOf(s) == owl.IndividualKind {
		cls, err := a.classExpression(t.o)
		if err != nil {
			return err
		}
		ax := owl.ClassAssertion{Individual: s, Class: cls}
		if ann := a.annotationsFor(t.s, t.p.value, t.o); ann != nil {
			ax.Annots = ann
		}
		a.ont.AddAxiom(ax)
	}
	return nil
}

func characteristicType(typeIRI string) (owl.Characteristic, bool) {
	switch typeIRI {
	case vocab.OWLFunctionalProperty:
		return owl.Functional, true
	case vocab.OWLInverseFunctionalProperty:
		return owl.InverseFunctional, true
	case vocab.OWLReflexiveProperty:
		return owl.Reflexive, true
	case vocab.OWLIrreflexiveProperty:
		return owl.Irreflexive, true
	case vocab.OWLSymmetricProperty:
		return owl.Symmetric, true
	case vocab.OWLAsymmetricProperty:
		return owl.Asymmetric, true
	case vocab.OWLTransitiveProperty:
		return owl.Transitive, true
	}
	return 0, false
}

// assembleAssertion handles triples with an arbitrary predicate: data and
// object property assertions on individuals, and annotation assertions on
// everything else.
func (a *assembler) assembleAssertion(t triple, s owl.IRI) {
	pred := owl.IRI(t.p.value)
	isIndividual := a.kindOf(s) == owl.IndividualKind

	switch t.o.kind {
	case termLiteral:
		if isIndividual && a.kindOf(pred) == owl.DataPropertyKind {
			a.ont.AddAxiom(owl.DataPropertyAssertion{
				Subject:  s,
				Property: pred,
				Value:    owl.Literal{Value: t.o.value, Lang: t.o.lang, Datatype: owl.IRI(t.o.datatype)},
			})
			return
		}
		a.ont.AddAxiom(owl.AnnotationAssertion{
			Subject:  s,
			Property: pred,
			Value:    owl.Literal{Value: t.o.value, Lang: t.o.lang, Datatype: owl.IRI(t.o.datatype)},
		})
	case termIRI:
		if isIndividual && a.kindOf(pred) == owl.ObjectPropertyKind {
			a.ont.AddAxiom(owl.ObjectPropertyAssertion{
				Subject:  s,
				Property: pred,
				Object:   owl.IRI(t.o.value),
			})
			return
		}
		a.ont.AddAxiom(owl.AnnotationAssertion{Subject: s, Property: pred, Value: owl.IRI(t.o.value)})
	}
	// Blank node objects on unrecognized predicates carry no axiom content.
}

func (a *assembler) kindOf(iri owl.IRI) owl.EntityKind {
	if k, ok := a.ont.DeclaredKind(iri); ok {
		return k
	}
	return owl.EntityKind(-1)
}

// classExpression resolves a term to a class expression: named classes for
// IRIs and the blank-node structures for restrictions and boolean
// combinations.
func (a *assembler) classExpression(t term) (owl.ClassExpression, error) {
	if t.kind == termIRI {
		return owl.NamedClass{IRI: owl.IRI(t.value)}, nil
	}
	if t.kind == termLiteral {
		return nil, fmt.Errorf("literal %q used as a class expression", t.value)
	}
	if expr, ok := a.exprs[t.id()]; ok {
		return expr, nil
	}

	props := make(map[string]term)
	for _, tr := range a.bySubject[t.id()] {
		props[tr.p.value] = tr.o
	}

	var expr owl.ClassExpression
	switch {
	case props[vocab.OWLOnProperty] != term{}:
		onProp := props[vocab.OWLOnProperty]
		if onProp.kind != termIRI {
			return nil, fmt.Errorf("restriction with non-IRI owl:onProperty")
		}
		prop := owl.IRI(onProp.value)
		switch {
		case props[vocab.OWLSomeValuesFrom] != term{}:
			filler, err := a.classExpression(props[vocab.OWLSomeValuesFrom])
			if err != nil {
				return nil, err
			}
			expr = owl.ObjectSomeValuesFrom{Property: prop, Filler: filler}
		case props[vocab.OWLAllValuesFrom] != term{}:
			filler, err := a.classExpression(props[vocab.OWLAllValuesFrom])
			if err != nil {
				return nil, err
			}
			expr = owl.ObjectAllValuesFrom{Property: prop, Filler: filler}
		case props[vocab.OWLHasValue] != term{}:
			val := props[vocab.OWLHasValue]
			if val.kind != termIRI {
				return nil, fmt.Errorf("owl:hasValue restriction with non-IRI value")
			}
			expr = owl.ObjectHasValue{Property: prop, Individual: owl.IRI(val.value)}
		default:
			return nil, fmt.Errorf("unsupported restriction on property %s", prop)
		}
	case props[vocab.OWLIntersectionOf] != term{}:
		ops, err := a.expressionList(props[vocab.OWLIntersectionOf])
		if err != nil {
			return nil, err
		}
		expr = owl.ObjectIntersectionOf{Operands: ops}
	case props[vocab.OWLUnionOf] != term{}:
		ops, err := a.expressionList(props[vocab.OWLUnionOf])
		if err != nil {
			return nil, err
		}
		expr = owl.ObjectUnionOf{Operands: ops}
	case props[vocab.OWLComplementOf] != term{}:
		op, err := a.classExpression(props[vocab.OWLComplementOf])
		if err != nil {
			return nil, err
		}
		expr = owl.ObjectComplementOf{Operand: op}
	default:
		return nil, fmt.Errorf("unsupported anonymous class expression (node %s)", t.id())
	}

	a.exprs[t.id()] = expr
	return expr, nil
}

// expressionList walks an RDF list of class expressions.
func (a *assembler) expressionList(head term) ([]owl.ClassExpression, error) {
	var out []owl.ClassExpression
	for {
		if head.kind == termIRI {
			if head.value == vocab.RDFNil {
				return out, nil
			}
			return nil, fmt.Errorf("malformed RDF list")
		}
		var first, rest term
		for _, tr := range a.bySubject[head.id()] {
			switch tr.p.value {
			case vocab.RDFFirst:
				first = tr.o
			case vocab.RDFRest:
				rest = tr.o
			}
		}
		if (first == term{}) || (rest == term{}) {
			return nil, fmt.Errorf("malformed RDF list cell %s", head.id())
		}
		expr, err := a.classExpression(first)
		if err != nil {
			return nil, err
		}
		out = append(out, expr)
		head = rest
	}
}
