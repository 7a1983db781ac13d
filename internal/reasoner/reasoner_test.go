package reasoner

import (
	"context"
	"testing"

	"github.com/stuckyb/ontobuilder/internal/owl"
	"github.com/stuckyb/ontobuilder/internal/vocab"
)

const testNS = "https://example.org/onts/test#"

func iri(local string) owl.IRI { return owl.IRI(testNS + local) }

func named(local string) owl.NamedClass { return owl.NamedClass{IRI: iri(local)} }

// declare adds declarations for named classes, object properties, and
// individuals used by a test ontology.
func declare(ont *owl.Ontology, kind owl.EntityKind, locals ...string) {
	for _, local := range locals {
		ont.AddAxiom(owl.Declaration{Kind: kind, Subject: iri(local)})
	}
}

func TestEngineDerivesFacts(t *testing.T) {
	e := NewEngine(DefaultConfig())
	schema := `
Decl edge(X, Y) bound [/string, /string].
Decl path(X, Y) bound [/string, /string].

path(X, Y) :- edge(X, Y).
path(X, Z) :- edge(X, Y), path(Y, Z).
`
	if err := e.LoadSchemaString(schema); err != nil {
		t.Fatalf("LoadSchemaString() error = %v", err)
	}
	facts := []Fact{
		{Predicate: "edge", Args: []string{"a", "b"}},
		{Predicate: "edge", Args: []string{"b", "c"}},
	}
	if err := e.AddFacts(facts); err != nil {
		t.Fatalf("AddFacts() error = %v", err)
	}
	if err := e.Evaluate(); err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	paths, err := e.GetFacts("path")
	if err != nil {
		t.Fatalf("GetFacts() error = %v", err)
	}
	if len(paths) != 3 {
		t.Errorf("derived %d path facts, want 3: %v", len(paths), paths)
	}

	rows, err := e.Query(context.Background(), `path("a", X)`)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	got := make(map[string]bool)
	for _, row := range rows {
		got[row["X"]] = true
	}
	if !got["b"] || !got["c"] {
		t.Errorf("Query bindings = %v, want b and c", got)
	}
}

func TestEngineRejectsUndeclaredPredicate(t *testing.T) {
	e := NewEngine(DefaultConfig())
	if err := e.LoadSchemaString(`Decl edge(X, Y) bound [/string, /string].`); err != nil {
		t.Fatalf("LoadSchemaString() error = %v", err)
	}
	if err := e.AddFact("missing", "a"); err == nil {
		t.Fatal("AddFact() on undeclared predicate: expected error, got nil")
	}
	if err := e.AddFact("edge", "a"); err == nil {
		t.Fatal("AddFact() with wrong arity: expected error, got nil")
	}
}

func TestSubsumptionHierarchy(t *testing.T) {
	ont := owl.NewOntology("https://example.org/onts/test")
	declare(ont, owl.ClassKind, "plant", "organ", "leaf")
	ont.AddAxiom(owl.SubClassOf{Sub: named("organ"), Super: named("plant")})
	ont.AddAxiom(owl.SubClassOf{Sub: named("leaf"), Super: named("organ")})

	r, err := New(ont)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	supers := r.Superclasses(iri("leaf"))
	if len(supers) != 2 || supers[0] != iri("organ") || supers[1] != iri("plant") {
		t.Errorf("Superclasses(leaf) = %v", supers)
	}
	subs := r.Subclasses(iri("plant"))
	if len(subs) != 2 || subs[0] != iri("leaf") || subs[1] != iri("organ") {
		t.Errorf("Subclasses(plant) = %v", subs)
	}
	desc := r.Descendants([]owl.IRI{iri("organ")})
	if len(desc) != 2 || desc[0] != iri("leaf") || desc[1] != iri("organ") {
		t.Errorf("Descendants(organ) = %v", desc)
	}
	if !r.IsCoherent() || !r.IsConsistent() {
		t.Error("simple hierarchy reported incoherent or inconsistent")
	}
}

func TestExistentialSubsumption(t *testing.T) {
	// leaf ⊑ ∃part_of.shoot, shoot ⊑ plant, and plant_part is defined as
	// exactly the things that are part of a plant, so leaf ⊑ plant_part.
	ont := owl.NewOntology("https://example.org/onts/test")
	declare(ont, owl.ClassKind, "plant", "shoot", "leaf", "plant_part")
	declare(ont, owl.ObjectPropertyKind, "part_of")
	ont.AddAxiom(owl.SubClassOf{Sub: named("shoot"), Super: named("plant")})
	ont.AddAxiom(owl.SubClassOf{
		Sub:   named("leaf"),
		Super: owl.ObjectSomeValuesFrom{Property: iri("part_of"), Filler: named("shoot")},
	})
	ont.AddAxiom(owl.EquivalentClasses{
		A: named("plant_part"),
		B: owl.ObjectSomeValuesFrom{Property: iri("part_of"), Filler: named("plant")},
	})

	r, err := New(ont)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	supers := r.Superclasses(iri("leaf"))
	if len(supers) != 1 || supers[0] != iri("plant_part") {
		t.Errorf("Superclasses(leaf) = %v, want [plant_part]", supers)
	}
}

func TestTransitiveProperty(t *testing.T) {
	// cell ⊑ ∃part_of.leaf, leaf ⊑ ∃part_of.plant, part_of transitive,
	// plant_part ≡ ∃part_of.plant, so cell ⊑ plant_part.
	ont := owl.NewOntology("https://example.org/onts/test")
	declare(ont, owl.ClassKind, "plant", "leaf", "cell", "plant_part")
	declare(ont, owl.ObjectPropertyKind, "part_of")
	ont.AddAxiom(owl.ObjectPropertyCharacteristic{Property: iri("part_of"), Characteristic: owl.Transitive})
	ont.AddAxiom(owl.SubClassOf{
		Sub:   named("cell"),
		Super: owl.ObjectSomeValuesFrom{Property: iri("part_of"), Filler: named("leaf")},
	})
	ont.AddAxiom(owl.SubClassOf{
		Sub:   named("leaf"),
		Super: owl.ObjectSomeValuesFrom{Property: iri("part_of"), Filler: named("plant")},
	})
	ont.AddAxiom(owl.EquivalentClasses{
		A: named("plant_part"),
		B: owl.ObjectSomeValuesFrom{Property: iri("part_of"), Filler: named("plant")},
	})

	r, err := New(ont)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	found := false
	for _, super := range r.Superclasses(iri("cell")) {
		if super == iri("plant_part") {
			found = true
		}
	}
	if !found {
		t.Errorf("Superclasses(cell) = %v, want plant_part via transitivity", r.Superclasses(iri("cell")))
	}
}

func TestUnsatisfiabilityAndConsistency(t *testing.T) {
	ont := owl.NewOntology("https://example.org/onts/test")
	declare(ont, owl.ClassKind, "animal", "plant", "planimal")
	ont.AddAxiom(owl.DisjointClasses{A: named("animal"), B: named("plant")})
	ont.AddAxiom(owl.SubClassOf{
		Sub:   named("planimal"),
		Super: owl.ObjectIntersectionOf{Operands: []owl.ClassExpression{named("animal"), named("plant")}},
	})

	r, err := New(ont)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	unsat := r.UnsatisfiableClasses()
	if len(unsat) != 1 || unsat[0] != iri("planimal") {
		t.Errorf("UnsatisfiableClasses() = %v, want [planimal]", unsat)
	}
	if r.IsCoherent() {
		t.Error("IsCoherent() = true with an unsatisfiable class")
	}
	// Incoherence alone is not inconsistency.
	if !r.IsConsistent() {
		t.Error("IsConsistent() = false without any individuals")
	}

	// An instance of the unsatisfiable class makes the ontology
	// inconsistent.
	declare(ont, owl.IndividualKind, "specimen1")
	ont.AddAxiom(owl.ClassAssertion{Individual: iri("specimen1"), Class: named("planimal")})
	r, err = New(ont)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if r.IsConsistent() {
		t.Error("IsConsistent() = true with an instance of an unsatisfiable class")
	}
	bad := r.InconsistentIndividuals()
	if len(bad) != 1 || bad[0] != iri("specimen1") {
		t.Errorf("InconsistentIndividuals() = %v, want [specimen1]", bad)
	}
}

func TestIndividualTypes(t *testing.T) {
	ont := owl.NewOntology("https://example.org/onts/test")
	declare(ont, owl.ClassKind, "plant", "leaf")
	declare(ont, owl.IndividualKind, "leaf1")
	ont.AddAxiom(owl.SubClassOf{Sub: named("leaf"), Super: named("plant")})
	ont.AddAxiom(owl.ClassAssertion{Individual: iri("leaf1"), Class: named("leaf")})

	r, err := New(ont)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	types := r.Types(iri("leaf1"))
	if len(types) != 2 || types[0] != iri("leaf") || types[1] != iri("plant") {
		t.Errorf("Types(leaf1) = %v", types)
	}
}

func TestAddInferredAxioms(t *testing.T) {
	// stem is asserted a subclass of the intersection of organ and axis;
	// the named subsumptions stem ⊑ organ and stem ⊑ axis are inferred.
	ont := owl.NewOntology("https://example.org/onts/test")
	declare(ont, owl.ClassKind, "organ", "axis", "stem")
	declare(ont, owl.IndividualKind, "stem1")
	ont.AddAxiom(owl.SubClassOf{
		Sub:   named("stem"),
		Super: owl.ObjectIntersectionOf{Operands: []owl.ClassExpression{named("organ"), named("axis")}},
	})
	ont.AddAxiom(owl.ClassAssertion{Individual: iri("stem1"), Class: named("stem")})

	r, err := New(ont)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	NewInferredAxiomAdder(ont, r).AddInferredAxioms(nil, true)

	for _, super := range []string{"organ", "axis"} {
		if !ont.ContainsAxiom(owl.SubClassOf{Sub: named("stem"), Super: named(super)}) {
			t.Errorf("inferred axiom stem ⊑ %s missing", super)
		}
	}
	// The materialized axioms carry the is_inferred marker.
	marked := false
	for _, ax := range ont.Axioms() {
		sub, ok := ax.(owl.SubClassOf)
		if !ok || sub.Sub.Key() != string(iri("stem")) || sub.Super.Key() != string(iri("organ")) {
			continue
		}
		for _, ann := range sub.Annots {
			if ann.Property == owl.IRI(vocab.OBOIsInferred) {
				marked = true
			}
		}
	}
	if !marked {
		t.Error("inferred axiom lacks is_inferred annotation")
	}
	// Individual types are materialized as the most specific class only.
	if ont.ContainsAxiom(owl.ClassAssertion{Individual: iri("stem1"), Class: named("organ")}) {
		t.Error("non-direct type assertion added")
	}
}

func TestAddInferredEquivalences(t *testing.T) {
	ont := owl.NewOntology("https://example.org/onts/test")
	declare(ont, owl.ClassKind, "caulome", "stem")
	ont.AddAxiom(owl.SubClassOf{Sub: named("caulome"), Super: named("stem")})
	ont.AddAxiom(owl.SubClassOf{Sub: named("stem"), Super: named("caulome")})

	r, err := New(ont)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	equivs := r.Equivalents(iri("stem"))
	if len(equivs) != 1 || equivs[0] != iri("caulome") {
		t.Errorf("Equivalents(stem) = %v", equivs)
	}

	NewInferredAxiomAdder(ont, r).AddInferredAxioms([]InferenceType{InferEquivalences}, false)
	if !ont.ContainsAxiom(owl.EquivalentClasses{A: named("caulome"), B: named("stem")}) {
		t.Error("inferred equivalence missing")
	}
}

func TestParseInferenceTypes(t *testing.T) {
	types, err := ParseInferenceTypes([]string{"subclasses", " Types "})
	if err != nil {
		t.Fatalf("ParseInferenceTypes() error = %v", err)
	}
	if len(types) != 2 || types[0] != InferSubclasses || types[1] != InferTypes {
		t.Errorf("ParseInferenceTypes() = %v", types)
	}
	if _, err := ParseInferenceTypes([]string{"property chains"}); err == nil {
		t.Error("ParseInferenceTypes() on unknown type: expected error, got nil")
	}
}

func TestManagerCachesAndValidates(t *testing.T) {
	ont := owl.NewOntology("https://example.org/onts/test")
	declare(ont, owl.ClassKind, "plant")

	m := NewManager()
	r1, err := m.Get(ont, "")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	r2, err := m.Get(ont, "ELK")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if r1 != r2 {
		t.Error("Get() did not cache the reasoner")
	}
	if _, err := m.Get(ont, "pellet"); err == nil {
		t.Error("Get() with unknown reasoner name: expected error, got nil")
	}
}
