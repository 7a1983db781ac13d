// Package modextract extracts import modules from source ontologies. A
// module is the subset of a source ontology needed to reuse a chosen set of
// terms: the locality method keeps the axioms that constrain the terms, the
// single method keeps bare annotated entities, and the hierarchy method adds
// the ancestor chains.
package modextract

import (
	"fmt"
	"strings"

	"github.com/stuckyb/ontobuilder/internal/logging"
	"github.com/stuckyb/ontobuilder/internal/owl"
	"github.com/stuckyb/ontobuilder/internal/reasoner"
	"github.com/stuckyb/ontobuilder/internal/vocab"
)

// Method selects how an entity's axioms are carried into the module.
type Method int

const (
	// Locality keeps all axioms that are non-local with respect to the
	// signature (a syntactic STAR approximation).
	Locality Method = iota
	// Single keeps only the entity's declaration and annotations.
	Single
	// Hierarchy is Single plus all ancestors and the subclass or
	// subproperty axioms linking them.
	Hierarchy
)

var methodNames = map[string]Method{
	"locality":  Locality,
	"single":    Single,
	"hierarchy": Hierarchy,
}

// ParseMethod maps a method name from a terms file to its constant.
func ParseMethod(name string) (Method, error) {
	m, ok := methodNames[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("unrecognized module extraction method: %q", name)
	}
	return m, nil
}

func (m Method) String() string {
	switch m {
	case Locality:
		return "locality"
	case Single:
		return "single"
	case Hierarchy:
		return "hierarchy"
	}
	return fmt.Sprintf("Method(%d)", int(m))
}

// Extractor accumulates an extraction signature against one source ontology
// and then produces the module.
type Extractor struct {
	ont        *owl.Ontology
	signatures map[Method]map[owl.IRI]bool
	// branchAxioms preserves parent/child axioms between seeded
	// descendants, keyed by axiom key.
	branchAxioms map[string]owl.Axiom
	excluded     map[owl.IRI]bool
}

// New creates an extractor with empty signatures.
func New(ont *owl.Ontology) *Extractor {
	e := &Extractor{
		ont:          ont,
		signatures:   make(map[Method]map[owl.IRI]bool),
		branchAxioms: make(map[string]owl.Axiom),
		excluded:     make(map[owl.IRI]bool),
	}
	for _, m := range []Method{Locality, Single, Hierarchy} {
		e.signatures[m] = make(map[owl.IRI]bool)
	}
	return e
}

// resolve looks up an entity identifier (label, curie, OBO ID, or IRI) in
// the source ontology.
func (e *Extractor) resolve(id string) (owl.IRI, error) {
	ent, err := e.ont.GetExistingEntity(id)
	if err != nil {
		return "", err
	}
	if ent == nil {
		return "", fmt.Errorf("the entity %s could not be found in the source ontology", id)
	}
	return ent.IRI(), nil
}

// AddEntity adds one entity to the signature for a method.
func (e *Extractor) AddEntity(id string, method Method) error {
	iri, err := e.resolve(id)
	if err != nil {
		return err
	}
	e.signatures[method][iri] = true
	return nil
}

// AddEntityWithDescendants adds an entity and, via the reasoner, its whole
// subclass branch. The subclass axioms linking branch members are preserved
// in the module regardless of the extraction method.
func (e *Extractor) AddEntityWithDescendants(id string, method Method, r *reasoner.Reasoner) error {
	iri, err := e.resolve(id)
	if err != nil {
		return err
	}

	branch := make(map[owl.IRI]bool)
	for _, member := range r.Descendants([]owl.IRI{iri}) {
		branch[member] = true
		e.signatures[method][member] = true
	}

	// Keep the asserted subclass links inside the branch.
	for _, o := range e.ont.ImportsClosure() {
		for _, ax := range o.Axioms() {
			sub, ok := ax.(owl.SubClassOf)
			if !ok || sub.Sub.IsAnonymous() || sub.Super.IsAnonymous() {
				continue
			}
			subIRI := sub.Sub.(owl.NamedClass).IRI
			superIRI := sub.Super.(owl.NamedClass).IRI
			if branch[subIRI] && branch[superIRI] {
				e.branchAxioms[ax.Key()] = ax
			}
		}
	}
	return nil
}

// ExcludeEntity marks an entity for removal from the final module.
func (e *Extractor) ExcludeEntity(id string) error {
	iri, err := e.resolve(id)
	if err != nil {
		return err
	}
	e.excluded[iri] = true
	return nil
}

// SignatureSize returns the total number of signature entities across all
// methods.
func (e *Extractor) SignatureSize() int {
	n := 0
	for _, sig := range e.signatures {
		n += len(sig)
	}
	return n
}

// Extract produces the module ontology. The module records the source
// ontology (version IRI when present) via dc:source.
func (e *Extractor) Extract(modIRI owl.IRI) (*owl.Ontology, error) {
	timer := logging.StartTimer(logging.CategoryImports, "extract module "+string(modIRI))
	defer timer.StopWithInfo()

	mod := owl.NewOntology(modIRI)

	if len(e.signatures[Locality]) > 0 {
		e.extractLocality(mod)
	}

	// Hierarchy entities and their linking axioms reduce to single-entity
	// extractions plus the collected axioms.
	singles := make(map[owl.IRI]bool, len(e.signatures[Single]))
	for iri := range e.signatures[Single] {
		singles[iri] = true
	}
	hierAxioms := e.collectHierarchies(e.signatures[Hierarchy], singles)

	e.extractSingles(singles, mod)
	for _, ax := range hierAxioms {
		mod.AddAxiom(ax)
	}
	for _, ax := range e.branchAxioms {
		mod.AddAxiom(ax)
	}

	for iri := range e.excluded {
		mod.RemoveEntity(iri, true)
	}

	source := e.ont.VersionIRI()
	if source == "" {
		source = e.ont.IRI()
	}
	if source != "" {
		mod.SetOntologySource(source)
	}

	logging.Imports("extracted module %s: %d axioms from %s",
		modIRI, len(mod.Axioms()), e.ont.IRI())
	return mod, nil
}

// extractLocality runs the syntactic STAR approximation: starting from the
// locality signature, repeatedly pull in axioms whose constrained entities
// are in the signature, growing the signature with every entity those
// axioms mention, until nothing changes.
func (e *Extractor) extractLocality(mod *owl.Ontology) {
	sig := make(map[owl.IRI]bool, len(e.signatures[Locality]))
	for iri := range e.signatures[Locality] {
		sig[iri] = true
	}

	included := make(map[string]owl.Axiom)
	for changed := true; changed; {
		changed = false
		for _, o := range e.ont.ImportsClosure() {
			for _, ax := range o.Axioms() {
				if _, done := included[ax.Key()]; done {
					continue
				}
				if !axiomNonLocal(ax, sig) {
					continue
				}
				included[ax.Key()] = ax
				for _, iri := range ax.Signature(nil) {
					if !sig[iri] {
						sig[iri] = true
						changed = true
					}
				}
			}
		}
	}

	for _, ax := range included {
		mod.AddAxiom(ax)
	}
	// Declarations and labels for every signature entity.
	e.extractSingles(sig, mod)
}

// axiomNonLocal reports whether an axiom constrains an entity in the
// signature and therefore belongs in a locality module. Axioms are keyed on
// the entity they restrict: the subclass side of a subclass axiom, either
// side of an equivalence or disjointness, the property of a property axiom,
// the individual of an assertion.
func axiomNonLocal(ax owl.Axiom, sig map[owl.IRI]bool) bool {
	inSig := func(exprs ...owl.ClassExpression) bool {
		for _, expr := range exprs {
			for _, iri := range expr.Signature(nil) {
				if sig[iri] {
					return true
				}
			}
		}
		return false
	}

	switch a := ax.(type) {
	case owl.SubClassOf:
		return inSig(a.Sub)
	case owl.EquivalentClasses:
		return inSig(a.A, a.B)
	case owl.DisjointClasses:
		return inSig(a.A, a.B)
	case owl.SubObjectPropertyOf:
		return sig[a.Sub]
	case owl.SubDataPropertyOf:
		return sig[a.Sub]
	case owl.SubAnnotationPropertyOf:
		return sig[a.Sub]
	case owl.ObjectPropertyDomain:
		return sig[a.Property]
	case owl.ObjectPropertyRange:
		return sig[a.Property]
	case owl.DataPropertyDomain:
		return sig[a.Property]
	case owl.DataPropertyRange:
		return sig[a.Property]
	case owl.InverseObjectProperties:
		return sig[a.First] || sig[a.Second]
	case owl.ObjectPropertyCharacteristic:
		return sig[a.Property]
	case owl.FunctionalDataProperty:
		return sig[a.Property]
	case owl.ClassAssertion:
		return sig[a.Individual]
	case owl.ObjectPropertyAssertion:
		return sig[a.Subject]
	case owl.DataPropertyAssertion:
		return sig[a.Subject]
	}
	return false
}

// collectHierarchies walks ancestor chains for all hierarchy-signature
// entities, adds every entity reached to the singles set, and returns the
// linking axioms. Cycles in the asserted hierarchy terminate because
// visited entities are never queued twice.
func (e *Extractor) collectHierarchies(signature map[owl.IRI]bool, singles map[owl.IRI]bool) []owl.Axiom {
	var axioms []owl.Axiom
	seen := make(map[string]bool)

	queue := make([]owl.IRI, 0, len(signature))
	for iri := range signature {
		queue = append(queue, iri)
	}

	visited := make(map[owl.IRI]bool)
	for len(queue) > 0 {
		iri := queue[0]
		queue = queue[1:]
		if visited[iri] {
			continue
		}
		visited[iri] = true
		singles[iri] = true

		for _, o := range e.ont.ImportsClosure() {
			for _, ax := range o.Axioms() {
				var parent owl.IRI
				switch a := ax.(type) {
				case owl.SubClassOf:
					if a.Sub.IsAnonymous() || a.Super.IsAnonymous() ||
						a.Sub.(owl.NamedClass).IRI != iri {
						continue
					}
					parent = a.Super.(owl.NamedClass).IRI
				case owl.SubObjectPropertyOf:
					if a.Sub != iri {
						continue
					}
					parent = a.Super
				case owl.SubDataPropertyOf:
					if a.Sub != iri {
						continue
					}
					parent = a.Super
				case owl.SubAnnotationPropertyOf:
					if a.Sub != iri {
						continue
					}
					parent = a.Super
				default:
					continue
				}
				if !seen[ax.Key()] {
					seen[ax.Key()] = true
					axioms = append(axioms, ax)
				}
				if !visited[parent] {
					queue = append(queue, parent)
				}
			}
		}
	}
	return axioms
}

// extractSingles copies declarations and annotation assertions for each
// entity. Annotation properties used by those assertions are pulled in too,
// except rdfs:label and other undeclared built-ins.
func (e *Extractor) extractSingles(signature map[owl.IRI]bool, mod *owl.Ontology) {
	queue := make([]owl.IRI, 0, len(signature))
	for iri := range signature {
		queue = append(queue, iri)
	}

	visited := make(map[owl.IRI]bool)
	for len(queue) > 0 {
		iri := queue[0]
		queue = queue[1:]
		if visited[iri] {
			continue
		}
		visited[iri] = true

		for _, o := range e.ont.ImportsClosure() {
			for _, ax := range o.Axioms() {
				switch a := ax.(type) {
				case owl.Declaration:
					if a.Subject == iri {
						mod.AddAxiom(ax)
					}
				case owl.AnnotationAssertion:
					if a.Subject != iri {
						continue
					}
					mod.AddAxiom(ax)
					if string(a.Property) == vocab.RDFSLabel || visited[a.Property] {
						continue
					}
					// Only declared annotation properties are extracted;
					// built-ins have no declaration to copy.
					if prop, err := e.ont.GetExistingAnnotationProperty(string(a.Property)); err == nil && prop != nil {
						queue = append(queue, a.Property)
					}
				}
			}
		}
	}
}
