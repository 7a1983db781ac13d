package reasoner

import (
	"fmt"
	"strings"

	"github.com/stuckyb/ontobuilder/internal/logging"
	"github.com/stuckyb/ontobuilder/internal/owl"
	"github.com/stuckyb/ontobuilder/internal/vocab"
)

// InferenceType selects one family of axioms for materialization.
type InferenceType string

const (
	InferSubclasses   InferenceType = "subclasses"
	InferEquivalences InferenceType = "equivalences"
	InferTypes        InferenceType = "types"
)

// ParseInferenceTypes maps configuration strings to inference types. An
// empty input selects every type.
func ParseInferenceTypes(names []string) ([]InferenceType, error) {
	var types []InferenceType
	for _, name := range names {
		switch t := InferenceType(strings.ToLower(strings.TrimSpace(name))); t {
		case InferSubclasses, InferEquivalences, InferTypes:
			types = append(types, t)
		default:
			return nil, fmt.Errorf("unrecognized inference type: %q", name)
		}
	}
	return types, nil
}

// InferredAxiomAdder materializes entailed axioms into an ontology: direct
// subclass axioms, class equivalences, and individual types. Axioms already
// asserted are left alone, and trivial subsumptions under owl:Thing are
// never added.
type InferredAxiomAdder struct {
	ont *owl.Ontology
	r   *Reasoner
}

// NewInferredAxiomAdder prepares an adder over an already saturated
// reasoner.
func NewInferredAxiomAdder(ont *owl.Ontology, r *Reasoner) *InferredAxiomAdder {
	return &InferredAxiomAdder{ont: ont, r: r}
}

// inferredAnnotation marks a materialized axiom so that downstream
// consumers can tell asserted from inferred content.
func inferredAnnotation() []owl.Annotation {
	return []owl.Annotation{{
		Property: owl.IRI(vocab.OBOIsInferred),
		Value:    owl.Literal{Value: "true", Datatype: owl.IRI(vocab.XSDBoolean)},
	}}
}

// AddInferredAxioms adds direct inferred axioms of the selected types to
// the ontology; an empty type list selects all of them. With annotate set,
// each added axiom carries an is_inferred annotation.
func (a *InferredAxiomAdder) AddInferredAxioms(types []InferenceType, annotate bool) {
	timer := logging.StartTimer(logging.CategoryReasoner, "materialize inferred axioms")
	defer timer.StopWithInfo()

	selected := make(map[InferenceType]bool)
	if len(types) == 0 {
		types = []InferenceType{InferSubclasses, InferEquivalences, InferTypes}
	}
	for _, t := range types {
		selected[t] = true
	}

	added := 0
	unsat := make(map[owl.IRI]bool)
	for _, cls := range a.r.UnsatisfiableClasses() {
		unsat[cls] = true
	}

	for cls := range a.r.classes {
		iri := owl.IRI(cls)
		if cls == vocab.OWLNothing || unsat[iri] {
			continue
		}
		equivs := a.r.Equivalents(iri)
		if selected[InferEquivalences] {
			for _, equiv := range equivs {
				// Each equivalence is added once, from its lexically
				// smaller member.
				if equiv < iri {
					continue
				}
				ax := owl.EquivalentClasses{A: owl.NamedClass{IRI: iri}, B: owl.NamedClass{IRI: equiv}}
				if a.addAxiom(ax, annotate) {
					added++
				}
			}
		}
		if selected[InferSubclasses] {
			for _, super := range a.directSuperclasses(iri, equivs) {
				ax := owl.SubClassOf{Sub: owl.NamedClass{IRI: iri}, Super: owl.NamedClass{IRI: super}}
				if a.addAxiom(ax, annotate) {
					added++
				}
			}
		}
	}

	if selected[InferTypes] {
		for ind := range a.r.individuals {
			iri := owl.IRI(ind)
			for _, class := range a.directTypes(iri) {
				ax := owl.ClassAssertion{Individual: iri, Class: owl.NamedClass{IRI: class}}
				if a.addAxiom(ax, annotate) {
					added++
				}
			}
		}
	}

	logging.Reasoner("added %d inferred axioms to %s", added, a.ont.IRI())
}

// addAxiom adds one inferred axiom unless it is already asserted. The
// annotation is attached after the duplicate check so an asserted axiom is
// never re-added with an is_inferred marker.
func (a *InferredAxiomAdder) addAxiom(ax owl.Axiom, annotate bool) bool {
	if a.ont.ContainsAxiom(ax) {
		return false
	}
	if annotate {
		if annotated, ok := ax.(owl.Annotated); ok {
			ax = annotated.WithAnnotations(inferredAnnotation())
		}
	}
	a.ont.AddAxiom(ax)
	return true
}

// directSuperclasses filters the full subsumer set of a class down to its
// direct named superclasses: those with no other subsumer strictly between.
func (a *InferredAxiomAdder) directSuperclasses(class owl.IRI, equivs []owl.IRI) []owl.IRI {
	equivalent := make(map[owl.IRI]bool, len(equivs))
	for _, e := range equivs {
		equivalent[e] = true
	}

	var candidates []owl.IRI
	for _, super := range a.r.Superclasses(class) {
		if !equivalent[super] {
			candidates = append(candidates, super)
		}
	}

	var direct []owl.IRI
	for _, super := range candidates {
		isDirect := true
		for _, other := range candidates {
			if other == super || a.r.isSubsumed(string(super), string(other)) && a.r.isSubsumed(string(other), string(super)) {
				continue
			}
			if a.r.isSubsumed(string(other), string(super)) {
				isDirect = false
				break
			}
		}
		if isDirect {
			direct = append(direct, super)
		}
	}
	return direct
}

// directTypes returns the most specific derived named classes of an
// individual.
func (a *InferredAxiomAdder) directTypes(individual owl.IRI) []owl.IRI {
	types := a.r.Types(individual)
	var direct []owl.IRI
	for _, class := range types {
		isDirect := true
		for _, other := range types {
			if other == class || a.r.isSubsumed(string(class), string(other)) && a.r.isSubsumed(string(other), string(class)) {
				continue
			}
			if a.r.isSubsumed(string(other), string(class)) {
				isDirect = false
				break
			}
		}
		if isDirect {
			direct = append(direct, class)
		}
	}
	return direct
}
