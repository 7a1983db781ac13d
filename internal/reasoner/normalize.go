package reasoner

import (
	"fmt"

	"github.com/stuckyb/ontobuilder/internal/owl"
	"github.com/stuckyb/ontobuilder/internal/vocab"
)

// elProgram is the Datalog completion program. Class expressions are
// normalized into the n* predicates before evaluation; sub and rel are the
// derived subsumption and role-successor relations.
//
// Fact argument conventions: named classes and properties are plain IRIs,
// individuals get an "ind:" prefix (they participate as nominal classes),
// and introduced names for complex expressions are expression keys.
const elProgram = `
Decl cls(X) bound [/string].
Decl top(T) bound [/string].
Decl bot(B) bound [/string].
Decl nsub(A, B) bound [/string, /string].
Decl nconj(A1, A2, B) bound [/string, /string, /string].
Decl nrhs(A, R, B) bound [/string, /string, /string].
Decl nlhs(R, A, B) bound [/string, /string, /string].
Decl nsubrole(R, S) bound [/string, /string].
Decl ntrans(R) bound [/string].
Decl sub(X, A) bound [/string, /string].
Decl rel(R, X, Y) bound [/string, /string, /string].

sub(X, X) :- cls(X).
sub(X, T) :- cls(X), top(T).
sub(X, B) :- sub(X, A), nsub(A, B).
sub(X, B) :- sub(X, A1), sub(X, A2), nconj(A1, A2, B).
rel(R, X, B) :- sub(X, A), nrhs(A, R, B).
sub(X, B) :- rel(R, X, Y), sub(Y, A), nlhs(R, A, B).
rel(S, X, Y) :- rel(R, X, Y), nsubrole(R, S).
rel(R, X, Z) :- rel(R, X, Y), rel(R, Y, Z), ntrans(R).
sub(X, B) :- rel(R, X, Y), sub(Y, B), bot(B).
`

// normalizer translates ontology axioms into completion-program facts. Each
// complex class expression gets an introduced name (its canonical key); the
// structure facts emitted for the name are the standard EL normal forms.
type normalizer struct {
	facts []Fact
	seen  map[string]bool
}

func newNormalizer() *normalizer {
	return &normalizer{seen: make(map[string]bool)}
}

func (n *normalizer) add(predicate string, args ...string) {
	n.facts = append(n.facts, Fact{Predicate: predicate, Args: args})
}

// nominal returns the class name standing in for an individual. The prefix
// keeps punned IRIs from collapsing a class and an individual into one
// constant.
func nominal(individual owl.IRI) string {
	return "ind:" + string(individual)
}

// name normalizes a class expression and returns its Datalog constant.
// Structure facts for a complex expression are emitted once per distinct
// expression key.
func (n *normalizer) name(expr owl.ClassExpression) string {
	if named, ok := expr.(owl.NamedClass); ok {
		iri := string(named.IRI)
		if !n.seen[iri] {
			n.seen[iri] = true
			n.add("cls", iri)
		}
		return iri
	}

	key := expr.Key()
	if n.seen[key] {
		return key
	}
	n.seen[key] = true
	n.add("cls", key)

	switch e := expr.(type) {
	case owl.ObjectIntersectionOf:
		// key ⊑ each operand, and the conjunction of all operands ⊑ key.
		// Conjunctions wider than two fold through intermediate names.
		names := make([]string, len(e.Operands))
		for i, op := range e.Operands {
			names[i] = n.name(op)
			n.add("nsub", key, names[i])
		}
		cur := names[0]
		for i := 1; i < len(names); i++ {
			target := key
			if i < len(names)-1 {
				target = fmt.Sprintf("%s#%d", key, i)
			}
			n.add("nconj", cur, names[i], target)
			cur = target
		}
	case owl.ObjectUnionOf:
		// Each operand ⊑ key. The converse is outside the EL fragment and
		// is not encoded, which keeps the saturation sound.
		for _, op := range e.Operands {
			n.add("nsub", n.name(op), key)
		}
	case owl.ObjectComplementOf:
		// key ⊓ operand ⊑ ⊥.
		n.add("nconj", key, n.name(e.Operand), vocab.OWLNothing)
	case owl.ObjectSomeValuesFrom:
		filler := n.name(e.Filler)
		n.add("nrhs", key, string(e.Property), filler)
		n.add("nlhs", string(e.Property), filler, key)
	case owl.ObjectHasValue:
		filler := n.nominalClass(e.Individual)
		n.add("nrhs", key, string(e.Property), filler)
		n.add("nlhs", string(e.Property), filler, key)
	case owl.ObjectAllValuesFrom:
		// Universal restrictions are outside the EL fragment; the name is
		// kept opaque so explicit axioms over it still chain.
	}
	return key
}

func (n *normalizer) nominalClass(individual owl.IRI) string {
	name := nominal(individual)
	if !n.seen[name] {
		n.seen[name] = true
		n.add("cls", name)
	}
	return name
}

// normalizeAxiom emits the completion-program facts for one axiom. Axiom
// forms with no consequence for EL saturation (inverses, functionality,
// data property axioms, annotations) are skipped.
func (n *normalizer) normalizeAxiom(ax owl.Axiom) {
	switch a := ax.(type) {
	case owl.Declaration:
		switch a.Kind {
		case owl.ClassKind:
			if !n.seen[string(a.Subject)] {
				n.seen[string(a.Subject)] = true
				n.add("cls", string(a.Subject))
			}
		case owl.IndividualKind:
			n.nominalClass(a.Subject)
		}
	case owl.SubClassOf:
		n.add("nsub", n.name(a.Sub), n.name(a.Super))
	case owl.EquivalentClasses:
		x, y := n.name(a.A), n.name(a.B)
		n.add("nsub", x, y)
		n.add("nsub", y, x)
	case owl.DisjointClasses:
		n.add("nconj", n.name(a.A), n.name(a.B), vocab.OWLNothing)
	case owl.SubObjectPropertyOf:
		n.add("nsubrole", string(a.Sub), string(a.Super))
	case owl.ObjectPropertyCharacteristic:
		if a.Characteristic == owl.Transitive {
			n.add("ntrans", string(a.Property))
		}
	case owl.ObjectPropertyDomain:
		// ∃R.⊤ ⊑ Domain.
		n.add("nlhs", string(a.Property), vocab.OWLThing, n.name(a.Domain))
	case owl.ClassAssertion:
		n.add("nsub", n.nominalClass(a.Individual), n.name(a.Class))
	case owl.ObjectPropertyAssertion:
		n.add("nrhs", n.nominalClass(a.Subject), string(a.Property), nominal(a.Object))
		n.nominalClass(a.Object)
	}
}

// normalize translates the full imports closure of an ontology into
// completion-program facts.
func normalize(ont *owl.Ontology) []Fact {
	n := newNormalizer()
	n.add("top", vocab.OWLThing)
	n.add("bot", vocab.OWLNothing)
	n.add("cls", vocab.OWLThing)
	n.seen[vocab.OWLThing] = true
	n.seen[vocab.OWLNothing] = true

	for _, o := range ont.ImportsClosure() {
		for _, ax := range o.Axioms() {
			n.normalizeAxiom(ax)
		}
	}
	return n.facts
}
