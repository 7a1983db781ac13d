package reasoner

import (
	"path/filepath"
	"testing"

	"github.com/stuckyb/ontobuilder/internal/owl"
	"github.com/stuckyb/ontobuilder/internal/rdfxml"
)

func TestIncoherentOntologyDocument(t *testing.T) {
	ont, err := rdfxml.LoadFile(filepath.Join("testdata", "incoherent.owl"))
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	r, err := New(ont)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	const ns = "https://example.org/onts/test/incoherent#"
	unsat := r.UnsatisfiableClasses()
	if len(unsat) != 1 || unsat[0] != owl.IRI(ns+"planimal") {
		t.Errorf("UnsatisfiableClasses() = %v, want only planimal", unsat)
	}
	if r.IsCoherent() {
		t.Error("IsCoherent() = true for an ontology with an unsatisfiable class")
	}
	if r.IsConsistent() {
		t.Error("IsConsistent() = true with an individual typed by an unsatisfiable class")
	}
	inconsistent := r.InconsistentIndividuals()
	if len(inconsistent) != 1 || inconsistent[0] != owl.IRI(ns+"specimen1") {
		t.Errorf("InconsistentIndividuals() = %v, want only specimen1", inconsistent)
	}
}
