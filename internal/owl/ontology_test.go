package owl

import (
	"strings"
	"testing"

	"github.com/stuckyb/ontobuilder/internal/vocab"
)

func TestExpandIdentifier(t *testing.T) {
	ont := NewOntology("https://example.org/onts/test")
	ont.Prefixes().Register("ex", "https://example.org/onts/test#")

	cls, err := ont.CreateNewClass("https://example.org/onts/test#wholeplant")
	if err != nil {
		t.Fatalf("CreateNewClass() error = %v", err)
	}
	if err := cls.AddLabel("whole plant"); err != nil {
		t.Fatalf("AddLabel() error = %v", err)
	}

	cases := []struct {
		id   string
		want IRI
	}{
		{"https://example.org/onts/test#wholeplant", "https://example.org/onts/test#wholeplant"},
		{"ex:wholeplant", "https://example.org/onts/test#wholeplant"},
		{"wholeplant", "https://example.org/onts/test#wholeplant"},
		{"'whole plant'", "https://example.org/onts/test#wholeplant"},
		{"PO:0000003", "http://purl.obolibrary.org/obo/PO_0000003"},
		{"owl:Thing", IRI(vocab.OWLThing)},
	}
	for _, c := range cases {
		got, err := ont.ExpandIdentifier(c.id)
		if err != nil {
			t.Fatalf("ExpandIdentifier(%q) error = %v", c.id, err)
		}
		if got != c.want {
			t.Errorf("ExpandIdentifier(%q) = %q, want %q", c.id, got, c.want)
		}
	}

	if _, err := ont.ExpandIdentifier("'no such label'"); err == nil {
		t.Error("ExpandIdentifier() with unknown label: expected error, got nil")
	}
	if _, err := ont.ExpandIdentifier("invalid IRI with spaces"); err == nil {
		t.Error("ExpandIdentifier() with invalid IRI: expected error, got nil")
	}
}

func TestLabelMapAmbiguity(t *testing.T) {
	m := NewLabelMap()
	m.Add("leaf", "https://example.org/a#leaf")

	iri, err := m.Lookup("leaf")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if iri != "https://example.org/a#leaf" {
		t.Errorf("Lookup() = %q", iri)
	}

	m.Add("leaf", "https://example.org/b#leaf")
	if _, err := m.Lookup("leaf"); err == nil {
		t.Fatal("Lookup() on ambiguous label: expected error, got nil")
	} else if !strings.Contains(err.Error(), "ambiguous") {
		t.Errorf("Lookup() error = %v, want ambiguity report", err)
	}

	m.Remove("leaf", "https://example.org/b#leaf")
	if _, err := m.Lookup("leaf"); err != nil {
		t.Fatalf("Lookup() after Remove() error = %v", err)
	}
}

func TestAddAxiomDeduplicates(t *testing.T) {
	ont := NewOntology("https://example.org/onts/test")
	ax := SubClassOf{
		Sub:   NamedClass{"https://example.org/onts/test#a"},
		Super: NamedClass{"https://example.org/onts/test#b"},
	}
	ont.AddAxiom(ax)
	ont.AddAxiom(ax)
	if n := len(ont.Axioms()); n != 1 {
		t.Errorf("len(Axioms()) = %d, want 1", n)
	}
	if !ont.ContainsAxiom(ax) {
		t.Error("ContainsAxiom() = false, want true")
	}
}

func TestAddTermAxiomRejectsAnonymousLabel(t *testing.T) {
	ont := NewOntology("https://example.org/onts/test")
	err := ont.AddTermAxiom(AnnotationAssertion{
		Subject:  "",
		Property: IRI(vocab.RDFSLabel),
		Value:    Literal{Value: "orphan"},
	})
	if err == nil {
		t.Fatal("AddTermAxiom() with anonymous subject: expected error, got nil")
	}
}

func TestAddSuperclassRequiresExistingParent(t *testing.T) {
	ont := NewOntology("https://example.org/onts/test")
	child, err := ont.CreateNewClass("child")
	if err != nil {
		t.Fatalf("CreateNewClass() error = %v", err)
	}

	if err := child.AddSuperclass("parent"); err == nil {
		t.Fatal("AddSuperclass() with undeclared parent: expected error, got nil")
	}

	if _, err := ont.CreateNewClass("parent"); err != nil {
		t.Fatalf("CreateNewClass() error = %v", err)
	}
	if err := child.AddSuperclass("parent"); err != nil {
		t.Fatalf("AddSuperclass() error = %v", err)
	}

	want := SubClassOf{
		Sub:   NamedClass{"https://example.org/onts/test#child"},
		Super: NamedClass{"https://example.org/onts/test#parent"},
	}
	if !ont.ContainsAxiom(want) {
		t.Error("subclass axiom not asserted")
	}
}

func TestGetExistingSearchesImportsClosure(t *testing.T) {
	imported := NewOntology("https://example.org/onts/imported")
	if _, err := imported.CreateNewClass("https://example.org/onts/imported#organ"); err != nil {
		t.Fatalf("CreateNewClass() error = %v", err)
	}

	ont := NewOntology("https://example.org/onts/main")
	ont.AttachImport(imported.IRI(), imported)

	cls, err := ont.GetExistingClass("https://example.org/onts/imported#organ")
	if err != nil {
		t.Fatalf("GetExistingClass() error = %v", err)
	}
	if cls == nil {
		t.Fatal("GetExistingClass() = nil, want handle from import")
	}

	// Same IRI is not an object property.
	prop, err := ont.GetExistingObjectProperty("https://example.org/onts/imported#organ")
	if err != nil {
		t.Fatalf("GetExistingObjectProperty() error = %v", err)
	}
	if prop != nil {
		t.Error("GetExistingObjectProperty() found a class declaration")
	}
}

func TestMergeOntologyRemovesImportDeclaration(t *testing.T) {
	imported := NewOntology("https://example.org/onts/imported")
	impCls, err := imported.CreateNewClass("https://example.org/onts/imported#organ")
	if err != nil {
		t.Fatalf("CreateNewClass() error = %v", err)
	}
	if err := impCls.AddLabel("organ"); err != nil {
		t.Fatalf("AddLabel() error = %v", err)
	}

	ont := NewOntology("https://example.org/onts/main")
	ont.AttachImport(imported.IRI(), imported)

	ont.MergeOntology(imported)

	if n := len(ont.DirectImports()); n != 0 {
		t.Errorf("len(DirectImports()) after merge = %d, want 0", n)
	}
	if cls, err := ont.GetExistingClass("https://example.org/onts/imported#organ"); err != nil || cls == nil {
		t.Errorf("GetExistingClass() after merge = (%v, %v), want local handle", cls, err)
	}
	if _, err := ont.LabelToIRI("organ"); err != nil {
		t.Errorf("LabelToIRI() after merge error = %v", err)
	}
}

func TestRemoveEntity(t *testing.T) {
	ont := NewOntology("https://example.org/onts/test")
	cls, err := ont.CreateNewClass("doomed")
	if err != nil {
		t.Fatalf("CreateNewClass() error = %v", err)
	}
	if err := cls.AddLabel("doomed term"); err != nil {
		t.Fatalf("AddLabel() error = %v", err)
	}
	if _, err := ont.CreateNewClass("other"); err != nil {
		t.Fatalf("CreateNewClass() error = %v", err)
	}
	if err := cls.AddSuperclass("other"); err != nil {
		t.Fatalf("AddSuperclass() error = %v", err)
	}

	ont.RemoveEntity(cls.IRI(), true)

	if got, err := ont.GetExistingClass("doomed"); err != nil || got != nil {
		t.Errorf("GetExistingClass() after removal = (%v, %v), want nil", got, err)
	}
	if _, err := ont.LabelToIRI("doomed term"); err == nil {
		t.Error("LabelToIRI() after removal: expected error, got nil")
	}
	for _, ax := range ont.Axioms() {
		for _, sig := range ax.Signature(nil) {
			if sig == cls.IRI() {
				t.Fatalf("axiom %q still mentions removed entity", ax.Key())
			}
		}
	}
	// The unrelated class survives.
	if got, err := ont.GetExistingClass("other"); err != nil || got == nil {
		t.Errorf("GetExistingClass(other) = (%v, %v), want handle", got, err)
	}
}

func TestClassExpressionKeysAreOrderIndependent(t *testing.T) {
	a := NamedClass{"https://example.org/a"}
	b := NamedClass{"https://example.org/b"}

	ab := ObjectIntersectionOf{Operands: []ClassExpression{a, b}}
	ba := ObjectIntersectionOf{Operands: []ClassExpression{b, a}}
	if ab.Key() != ba.Key() {
		t.Errorf("intersection keys differ: %q vs %q", ab.Key(), ba.Key())
	}

	eqAB := EquivalentClasses{A: a, B: b}
	eqBA := EquivalentClasses{A: b, B: a}
	if eqAB.Key() != eqBA.Key() {
		t.Errorf("equivalence keys differ: %q vs %q", eqAB.Key(), eqBA.Key())
	}
}

func TestOboIDConversions(t *testing.T) {
	iri, err := OboIDToIRI("PO:0000003")
	if err != nil {
		t.Fatalf("OboIDToIRI() error = %v", err)
	}
	if iri != "http://purl.obolibrary.org/obo/PO_0000003" {
		t.Errorf("OboIDToIRI() = %q", iri)
	}
	if got := IRIToOboID(iri); got != "PO:0000003" {
		t.Errorf("IRIToOboID() = %q, want PO:0000003", got)
	}
	if got := IRIToOboID("https://example.org/x"); got != "" {
		t.Errorf("IRIToOboID() on non-OBO IRI = %q, want empty", got)
	}
	if _, err := OboIDToIRI("not an id"); err == nil {
		t.Error("OboIDToIRI() on invalid ID: expected error, got nil")
	}
}

func TestPrefixMapAbbreviate(t *testing.T) {
	p := NewPrefixMap("https://example.org/base#")
	if got := p.Abbreviate(IRI(vocab.RDFSLabel)); got != "rdfs:label" {
		t.Errorf("Abbreviate(rdfs:label) = %q", got)
	}
	if got := p.Abbreviate("https://unrelated.example/x"); got != "https://unrelated.example/x" {
		t.Errorf("Abbreviate() on unprefixed IRI = %q", got)
	}
}
