package modextract

import (
	"testing"

	"github.com/stuckyb/ontobuilder/internal/owl"
	"github.com/stuckyb/ontobuilder/internal/reasoner"
	"github.com/stuckyb/ontobuilder/internal/vocab"
)

const testNS = "https://example.org/onts/source#"

func iri(local string) owl.IRI { return owl.IRI(testNS + local) }

func named(local string) owl.NamedClass { return owl.NamedClass{IRI: iri(local)} }

// sourceOntology builds a small hierarchy with labels, a custom annotation
// property, and one restriction axiom.
func sourceOntology(t *testing.T) *owl.Ontology {
	t.Helper()
	ont := owl.NewOntology("https://example.org/onts/source")
	ont.SetVersionIRI("https://example.org/onts/source/2026-08-23")

	for _, local := range []string{"plant", "organ", "leaf", "root"} {
		ont.AddAxiom(owl.Declaration{Kind: owl.ClassKind, Subject: iri(local)})
		ont.AddAxiom(owl.AnnotationAssertion{
			Subject:  iri(local),
			Property: owl.IRI(vocab.RDFSLabel),
			Value:    owl.Literal{Value: local, Lang: "en"},
		})
	}
	ont.AddAxiom(owl.Declaration{Kind: owl.ObjectPropertyKind, Subject: iri("part_of")})
	ont.AddAxiom(owl.Declaration{Kind: owl.AnnotationPropertyKind, Subject: owl.IRI(vocab.IAODefinition)})

	ont.AddAxiom(owl.SubClassOf{Sub: named("organ"), Super: named("plant")})
	ont.AddAxiom(owl.SubClassOf{Sub: named("leaf"), Super: named("organ")})
	ont.AddAxiom(owl.SubClassOf{Sub: named("root"), Super: named("organ")})
	ont.AddAxiom(owl.SubClassOf{
		Sub:   named("leaf"),
		Super: owl.ObjectSomeValuesFrom{Property: iri("part_of"), Filler: named("plant")},
	})
	ont.AddAxiom(owl.AnnotationAssertion{
		Subject:  iri("leaf"),
		Property: owl.IRI(vocab.IAODefinition),
		Value:    owl.Literal{Value: "A lateral organ."},
	})
	return ont
}

func TestParseMethod(t *testing.T) {
	for name, want := range map[string]Method{
		"locality": Locality, "Single": Single, " HIERARCHY ": Hierarchy,
	} {
		got, err := ParseMethod(name)
		if err != nil || got != want {
			t.Errorf("ParseMethod(%q) = (%v, %v), want %v", name, got, err, want)
		}
	}
	if _, err := ParseMethod("star"); err == nil {
		t.Error("ParseMethod(star): expected error, got nil")
	}
}

func TestAddEntityUnknown(t *testing.T) {
	e := New(sourceOntology(t))
	if err := e.AddEntity("'no such term'", Single); err == nil {
		t.Error("AddEntity() on unknown term: expected error, got nil")
	}
}

func TestSingleExtraction(t *testing.T) {
	e := New(sourceOntology(t))
	if err := e.AddEntity("'leaf'", Single); err != nil {
		t.Fatalf("AddEntity() error = %v", err)
	}
	mod, err := e.Extract("https://example.org/imports/source_leaf")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	if !mod.ContainsAxiom(owl.Declaration{Kind: owl.ClassKind, Subject: iri("leaf")}) {
		t.Error("leaf declaration missing")
	}
	if !mod.ContainsAxiom(owl.AnnotationAssertion{
		Subject:  iri("leaf"),
		Property: owl.IRI(vocab.RDFSLabel),
		Value:    owl.Literal{Value: "leaf", Lang: "en"},
	}) {
		t.Error("leaf label missing")
	}
	// The definition annotation property used on leaf is pulled in.
	if !mod.ContainsAxiom(owl.Declaration{Kind: owl.AnnotationPropertyKind, Subject: owl.IRI(vocab.IAODefinition)}) {
		t.Error("annotation property declaration missing")
	}
	// No class axioms in a single-entity module.
	if mod.ContainsAxiom(owl.SubClassOf{Sub: named("leaf"), Super: named("organ")}) {
		t.Error("single extraction carried a subclass axiom")
	}
	// dc:source points at the source version IRI.
	found := false
	for _, ann := range mod.Annotations() {
		if ann.Property == owl.IRI(vocab.DCSource) {
			if v, ok := ann.Value.(owl.IRI); ok && v == "https://example.org/onts/source/2026-08-23" {
				found = true
			}
		}
	}
	if !found {
		t.Error("dc:source annotation missing or wrong")
	}
}

func TestHierarchyExtraction(t *testing.T) {
	e := New(sourceOntology(t))
	if err := e.AddEntity("'leaf'", Hierarchy); err != nil {
		t.Fatalf("AddEntity() error = %v", err)
	}
	mod, err := e.Extract("https://example.org/imports/source_hier")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	for _, local := range []string{"leaf", "organ", "plant"} {
		if !mod.ContainsAxiom(owl.Declaration{Kind: owl.ClassKind, Subject: iri(local)}) {
			t.Errorf("ancestor %s missing", local)
		}
	}
	if !mod.ContainsAxiom(owl.SubClassOf{Sub: named("leaf"), Super: named("organ")}) ||
		!mod.ContainsAxiom(owl.SubClassOf{Sub: named("organ"), Super: named("plant")}) {
		t.Error("hierarchy linking axioms missing")
	}
	// Siblings outside the ancestor chain stay out.
	if mod.ContainsAxiom(owl.Declaration{Kind: owl.ClassKind, Subject: iri("root")}) {
		t.Error("non-ancestor extracted")
	}
	// Anonymous superclasses are not part of a hierarchy module.
	if mod.ContainsAxiom(owl.SubClassOf{
		Sub:   named("leaf"),
		Super: owl.ObjectSomeValuesFrom{Property: iri("part_of"), Filler: named("plant")},
	}) {
		t.Error("hierarchy extraction carried a restriction axiom")
	}
}

func TestLocalityExtraction(t *testing.T) {
	e := New(sourceOntology(t))
	if err := e.AddEntity("'leaf'", Locality); err != nil {
		t.Fatalf("AddEntity() error = %v", err)
	}
	mod, err := e.Extract("https://example.org/imports/source_local")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	// Axioms constraining leaf come along, including the restriction, and
	// the entities they reference are declared.
	if !mod.ContainsAxiom(owl.SubClassOf{Sub: named("leaf"), Super: named("organ")}) {
		t.Error("subclass axiom missing")
	}
	if !mod.ContainsAxiom(owl.SubClassOf{
		Sub:   named("leaf"),
		Super: owl.ObjectSomeValuesFrom{Property: iri("part_of"), Filler: named("plant")},
	}) {
		t.Error("restriction axiom missing")
	}
	if !mod.ContainsAxiom(owl.Declaration{Kind: owl.ObjectPropertyKind, Subject: iri("part_of")}) {
		t.Error("referenced property declaration missing")
	}
	// organ entered the signature, so its own constraining axiom follows.
	if !mod.ContainsAxiom(owl.SubClassOf{Sub: named("organ"), Super: named("plant")}) {
		t.Error("transitively pulled subclass axiom missing")
	}
}

func TestDescendantSeeding(t *testing.T) {
	ont := sourceOntology(t)
	r, err := reasoner.New(ont)
	if err != nil {
		t.Fatalf("reasoner.New() error = %v", err)
	}

	e := New(ont)
	if err := e.AddEntityWithDescendants("'organ'", Single, r); err != nil {
		t.Fatalf("AddEntityWithDescendants() error = %v", err)
	}
	mod, err := e.Extract("https://example.org/imports/source_branch")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	for _, local := range []string{"organ", "leaf", "root"} {
		if !mod.ContainsAxiom(owl.Declaration{Kind: owl.ClassKind, Subject: iri(local)}) {
			t.Errorf("branch member %s missing", local)
		}
	}
	// Parent/child links inside the branch are preserved even for single
	// extraction.
	if !mod.ContainsAxiom(owl.SubClassOf{Sub: named("leaf"), Super: named("organ")}) {
		t.Error("branch subclass axiom missing")
	}
	// The branch root's own parent is outside the branch.
	if mod.ContainsAxiom(owl.SubClassOf{Sub: named("organ"), Super: named("plant")}) {
		t.Error("axiom above the branch root extracted")
	}
}

func TestExcludeEntity(t *testing.T) {
	e := New(sourceOntology(t))
	if err := e.AddEntity("'organ'", Hierarchy); err != nil {
		t.Fatalf("AddEntity() error = %v", err)
	}
	if err := e.ExcludeEntity("'plant'"); err != nil {
		t.Fatalf("ExcludeEntity() error = %v", err)
	}
	mod, err := e.Extract("https://example.org/imports/source_excl")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	if mod.ContainsAxiom(owl.Declaration{Kind: owl.ClassKind, Subject: iri("plant")}) {
		t.Error("excluded entity still declared")
	}
	if mod.ContainsAxiom(owl.SubClassOf{Sub: named("organ"), Super: named("plant")}) {
		t.Error("axiom mentioning excluded entity survived")
	}
	if !mod.ContainsAxiom(owl.Declaration{Kind: owl.ClassKind, Subject: iri("organ")}) {
		t.Error("signature entity removed along with exclusion")
	}
}
