package reasoner

import (
	"fmt"
	"sort"

	"github.com/stuckyb/ontobuilder/internal/logging"
	"github.com/stuckyb/ontobuilder/internal/owl"
	"github.com/stuckyb/ontobuilder/internal/vocab"
)

// Reasoner classifies one ontology (with its imports closure). Construction
// runs the saturation to fixpoint; all query methods afterwards read the
// saturated store.
type Reasoner struct {
	ont         *owl.Ontology
	engine      *Engine
	classes     map[string]bool
	individuals map[string]bool

	// subsumers[X] is the set of derived subsumers of X, keyed by the
	// Datalog constants described in normalize.go.
	subsumers map[string]map[string]bool
}

// New builds and saturates a reasoner for the given ontology.
func New(ont *owl.Ontology) (*Reasoner, error) {
	timer := logging.StartTimer(logging.CategoryReasoner, "classify "+string(ont.IRI()))
	defer timer.StopWithInfo()

	r := &Reasoner{
		ont:         ont,
		engine:      NewEngine(DefaultConfig()),
		classes:     make(map[string]bool),
		individuals: make(map[string]bool),
	}
	if err := r.engine.LoadSchemaString(elProgram); err != nil {
		return nil, err
	}

	facts := normalize(ont)
	logging.ReasonerDebug("normalized %s into %d facts", ont.IRI(), len(facts))
	if err := r.engine.AddFacts(facts); err != nil {
		return nil, fmt.Errorf("failed to load ontology facts: %w", err)
	}
	if err := r.engine.Evaluate(); err != nil {
		return nil, fmt.Errorf("saturation failed: %w", err)
	}

	for _, o := range ont.ImportsClosure() {
		for _, ax := range o.Axioms() {
			if decl, ok := ax.(owl.Declaration); ok {
				switch decl.Kind {
				case owl.ClassKind:
					r.classes[string(decl.Subject)] = true
				case owl.IndividualKind:
					r.individuals[string(decl.Subject)] = true
				}
			}
		}
	}

	subs, err := r.engine.GetFacts("sub")
	if err != nil {
		return nil, err
	}
	r.subsumers = make(map[string]map[string]bool)
	for _, fact := range subs {
		x, a := fact.Args[0], fact.Args[1]
		if r.subsumers[x] == nil {
			r.subsumers[x] = make(map[string]bool)
		}
		r.subsumers[x][a] = true
	}
	return r, nil
}

func (r *Reasoner) isSubsumed(x, a string) bool {
	return r.subsumers[x][a]
}

// UnsatisfiableClasses returns all declared classes equivalent to
// owl:Nothing, sorted.
func (r *Reasoner) UnsatisfiableClasses() []owl.IRI {
	var out []owl.IRI
	for cls := range r.classes {
		if cls == vocab.OWLNothing {
			continue
		}
		if r.isSubsumed(cls, vocab.OWLNothing) {
			out = append(out, owl.IRI(cls))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// IsCoherent reports whether every declared class is satisfiable.
func (r *Reasoner) IsCoherent() bool {
	return len(r.UnsatisfiableClasses()) == 0
}

// IsConsistent reports whether the ontology has a model: no declared
// individual may be an instance of an unsatisfiable class.
func (r *Reasoner) IsConsistent() bool {
	for ind := range r.individuals {
		if r.isSubsumed(nominal(owl.IRI(ind)), vocab.OWLNothing) {
			return false
		}
	}
	return true
}

// InconsistentIndividuals returns declared individuals that force the
// ontology to be inconsistent, sorted.
func (r *Reasoner) InconsistentIndividuals() []owl.IRI {
	var out []owl.IRI
	for ind := range r.individuals {
		if r.isSubsumed(nominal(owl.IRI(ind)), vocab.OWLNothing) {
			out = append(out, owl.IRI(ind))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Superclasses returns all derived named superclasses of a class, excluding
// the class itself and owl:Thing, sorted.
func (r *Reasoner) Superclasses(class owl.IRI) []owl.IRI {
	var out []owl.IRI
	for super := range r.subsumers[string(class)] {
		if super == string(class) || super == vocab.OWLThing || !r.classes[super] {
			continue
		}
		out = append(out, owl.IRI(super))
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Subclasses returns all derived named subclasses of a class, excluding the
// class itself and owl:Nothing, sorted.
func (r *Reasoner) Subclasses(class owl.IRI) []owl.IRI {
	var out []owl.IRI
	for sub, supers := range r.subsumers {
		if sub == string(class) || sub == vocab.OWLNothing || !r.classes[sub] {
			continue
		}
		if supers[string(class)] {
			out = append(out, owl.IRI(sub))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Descendants returns the subclass closure of a set of classes, including
// the seeds themselves.
func (r *Reasoner) Descendants(seeds []owl.IRI) []owl.IRI {
	set := make(map[owl.IRI]bool)
	for _, seed := range seeds {
		set[seed] = true
		for _, sub := range r.Subclasses(seed) {
			set[sub] = true
		}
	}
	out := make([]owl.IRI, 0, len(set))
	for iri := range set {
		out = append(out, iri)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Equivalents returns named classes derived to be equivalent to the given
// class, excluding the class itself, sorted.
func (r *Reasoner) Equivalents(class owl.IRI) []owl.IRI {
	var out []owl.IRI
	for other := range r.subsumers[string(class)] {
		if other == string(class) || !r.classes[other] {
			continue
		}
		if r.isSubsumed(other, string(class)) {
			out = append(out, owl.IRI(other))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Types returns the derived named classes a declared individual belongs to,
// excluding owl:Thing, sorted.
func (r *Reasoner) Types(individual owl.IRI) []owl.IRI {
	var out []owl.IRI
	for class := range r.subsumers[nominal(individual)] {
		if class == vocab.OWLThing || !r.classes[class] {
			continue
		}
		out = append(out, owl.IRI(class))
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
