package owlbuilder

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stuckyb/ontobuilder/internal/owl"
	"github.com/stuckyb/ontobuilder/internal/tablereader"
	"github.com/stuckyb/ontobuilder/internal/vocab"
)

// compileCSV runs a complete compile of one CSV terms file into a fresh
// ontology.
func compileCSV(t *testing.T, csv string) *owl.Ontology {
	t.Helper()
	ont := compileCSVInto(t, csv, owl.NewOntology("https://example.org/onts/test"))
	return ont
}

func compileCSVInto(t *testing.T, csv string, ont *owl.Ontology) *owl.Ontology {
	t.Helper()
	path := filepath.Join(t.TempDir(), "terms.csv")
	if err := os.WriteFile(path, []byte(csv), 0644); err != nil {
		t.Fatal(err)
	}
	reader, err := tablereader.Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer reader.Close()

	b := New(ont)
	table, err := reader.GetTable("terms")
	if err != nil {
		t.Fatalf("GetTable() error = %v", err)
	}
	table.SetRequiredColumns(RequiredCols...)
	table.SetOptionalColumns(OptionalCols...)
	for {
		row, err := table.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		if err := b.AddRow(row); err != nil {
			t.Fatalf("AddRow() error = %v", err)
		}
	}
	if err := b.ProcessDeferredAxioms(true); err != nil {
		t.Fatalf("ProcessDeferredAxioms() error = %v", err)
	}
	return ont
}

func TestCompileClasses(t *testing.T) {
	// The child row references its parent by label before the parent row is
	// read; deferred processing must make this work.
	ont := compileCSV(t,
		"Type,ID,Label,Parent,Subclass of,Synonyms\n"+
			"class,PO:0025034,leaf,'whole plant','part_of' some 'whole plant',foliage leaf;frond\n"+
			"class,PO:0000003,whole plant,,,\n"+
			"object property,EX:0000001,part_of,,,\n")

	leafIRI := owl.IRI("http://purl.obolibrary.org/obo/PO_0025034")
	plantIRI := owl.IRI("http://purl.obolibrary.org/obo/PO_0000003")

	if !ont.ContainsAxiom(owl.SubClassOf{
		Sub:   owl.NamedClass{IRI: leafIRI},
		Super: owl.NamedClass{IRI: plantIRI},
	}) {
		t.Error("Parent column axiom missing")
	}
	if !ont.ContainsAxiom(owl.SubClassOf{
		Sub: owl.NamedClass{IRI: leafIRI},
		Super: owl.ObjectSomeValuesFrom{
			Property: "http://purl.obolibrary.org/obo/EX_0000001",
			Filler:   owl.NamedClass{IRI: plantIRI},
		},
	}) {
		t.Error("Subclass of column axiom missing")
	}
	for _, syn := range []string{"foliage leaf", "frond"} {
		if !ont.ContainsAxiom(owl.AnnotationAssertion{
			Subject:  leafIRI,
			Property: owl.IRI(vocab.OBOHasSynonym),
			Value:    owl.Literal{Value: syn},
		}) {
			t.Errorf("synonym %q missing", syn)
		}
	}
}

func TestCompileDefinitionExpansion(t *testing.T) {
	ont := compileCSV(t,
		"Type,ID,Label,Definition\n"+
			"class,PO:0000003,whole plant,\n"+
			"class,PO:0025034,leaf,A lateral organ of a {whole plant}.\n")

	want := owl.AnnotationAssertion{
		Subject:  "http://purl.obolibrary.org/obo/PO_0025034",
		Property: owl.IRI(vocab.IAODefinition),
		Value:    owl.Literal{Value: "A lateral organ of a whole plant (PO:0000003)."},
	}
	if !ont.ContainsAxiom(want) {
		t.Error("expanded definition annotation missing")
	}
}

func TestCompileIgnoredRow(t *testing.T) {
	ont := compileCSV(t,
		"Type,ID,Label,Ignore\n"+
			"class,PO:0000003,whole plant,\n"+
			"class,PO:9999999,scratch,yes\n")

	if cls, err := ont.GetExistingClass("PO:9999999"); err != nil || cls != nil {
		t.Errorf("ignored row was compiled: (%v, %v)", cls, err)
	}
	if cls, err := ont.GetExistingClass("PO:0000003"); err != nil || cls == nil {
		t.Errorf("active row missing: (%v, %v)", cls, err)
	}
}

func TestCompileProperties(t *testing.T) {
	ont := compileCSV(t,
		"Type,ID,Label,Domain,Range,Characteristics,Inverse\n"+
			"class,EX:0000010,organism,,,,\n"+
			"object property,EX:0000001,part_of,'organism','organism',transitive,'has_part'\n"+
			"object property,EX:0000002,has_part,,,,\n"+
			"data property,EX:0000003,has_mass,'organism',xsd:float,functional,\n")

	partOf := owl.IRI("http://purl.obolibrary.org/obo/EX_0000001")
	organism := owl.NamedClass{IRI: "http://purl.obolibrary.org/obo/EX_0000010"}

	if !ont.ContainsAxiom(owl.ObjectPropertyDomain{Property: partOf, Domain: organism}) {
		t.Error("object property domain missing")
	}
	if !ont.ContainsAxiom(owl.ObjectPropertyRange{Property: partOf, Range: organism}) {
		t.Error("object property range missing")
	}
	if !ont.ContainsAxiom(owl.ObjectPropertyCharacteristic{Property: partOf, Characteristic: owl.Transitive}) {
		t.Error("transitivity characteristic missing")
	}
	if !ont.ContainsAxiom(owl.InverseObjectProperties{
		First:  partOf,
		Second: "http://purl.obolibrary.org/obo/EX_0000002",
	}) {
		t.Error("inverse property axiom missing")
	}

	hasMass := owl.IRI("http://purl.obolibrary.org/obo/EX_0000003")
	if !ont.ContainsAxiom(owl.FunctionalDataProperty{Property: hasMass}) {
		t.Error("functional data property axiom missing")
	}
	if !ont.ContainsAxiom(owl.DataPropertyRange{
		Property: hasMass,
		Datatype: owl.IRI(vocab.XSD + "float"),
	}) {
		t.Error("data property range missing")
	}
}

func TestCompileErrors(t *testing.T) {
	cases := []struct {
		name string
		csv  string
		want string
	}{
		{
			"missing type",
			"Type,ID\n,PO:0000003\n",
			"entity type",
		},
		{
			"unsupported type",
			"Type,ID\nwidget,PO:0000003\n",
			"not supported",
		},
		{
			"unknown parent",
			"Type,ID,Label,Parent\nclass,PO:0000003,whole plant,'no such term'\n",
			"could not be matched",
		},
		{
			"bad characteristic",
			"Type,ID,Characteristics\ndata property,EX:0000003,transitive\n",
			"characteristic",
		},
	}
	for _, c := range cases {
		path := filepath.Join(t.TempDir(), "terms.csv")
		if err := os.WriteFile(path, []byte(c.csv), 0644); err != nil {
			t.Fatal(err)
		}
		reader, err := tablereader.Open(path)
		if err != nil {
			t.Fatalf("%s: Open() error = %v", c.name, err)
		}

		b := New(owl.NewOntology("https://example.org/onts/test"))
		table, err := reader.GetTable("terms")
		if err != nil {
			t.Fatalf("%s: GetTable() error = %v", c.name, err)
		}
		table.SetRequiredColumns(RequiredCols...)
		table.SetOptionalColumns(OptionalCols...)

		var compileErr error
		for {
			row, err := table.Next()
			if err == io.EOF {
				break
			}
			if err != nil {
				t.Fatalf("%s: Next() error = %v", c.name, err)
			}
			if compileErr = b.AddRow(row); compileErr != nil {
				break
			}
		}
		if compileErr == nil {
			compileErr = b.ProcessDeferredAxioms(true)
		}
		reader.Close()

		if compileErr == nil {
			t.Errorf("%s: expected error, got nil", c.name)
		} else if !strings.Contains(compileErr.Error(), c.want) {
			t.Errorf("%s: error = %q, want substring %q", c.name, compileErr, c.want)
		}
	}
}
