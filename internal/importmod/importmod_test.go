package importmod

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stuckyb/ontobuilder/internal/owl"
	"github.com/stuckyb/ontobuilder/internal/rdfxml"
	"github.com/stuckyb/ontobuilder/internal/vocab"
)

const testNS = "https://example.org/onts/plants#"

func iri(local string) owl.IRI { return owl.IRI(testNS + local) }

func named(local string) owl.NamedClass { return owl.NamedClass{IRI: iri(local)} }

// writeSourceOntology writes the external ontology fixture into dir and
// returns its path.
func writeSourceOntology(t *testing.T, dir string) string {
	t.Helper()
	ont := owl.NewOntology("https://example.org/onts/plants")
	for _, local := range []string{"plant", "organ", "leaf"} {
		ont.AddAxiom(owl.Declaration{Kind: owl.ClassKind, Subject: iri(local)})
		ont.AddAxiom(owl.AnnotationAssertion{
			Subject:  iri(local),
			Property: owl.IRI(vocab.RDFSLabel),
			Value:    owl.Literal{Value: local, Lang: "en"},
		})
	}
	ont.AddAxiom(owl.SubClassOf{Sub: named("organ"), Super: named("plant")})
	ont.AddAxiom(owl.SubClassOf{Sub: named("leaf"), Super: named("organ")})

	path := filepath.Join(dir, "plants.owl")
	if err := rdfxml.WriteFile(path, ont); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func writeTerms(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "plants_terms.csv")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestBuildModule(t *testing.T) {
	workDir := t.TempDir()
	writeSourceOntology(t, workDir)
	termsPath := writeTerms(t, t.TempDir(),
		"ID,Seed descendants,Exclude\n"+
			"'organ',yes,\n"+
			"'leaf',,true\n")

	b := New("https://example.org/imports/", workDir)
	outputPath, err := b.BuildModule(context.Background(),
		"https://example.org/onts/plants.owl", termsPath, "_organ_import.owl")
	if err != nil {
		t.Fatalf("BuildModule() error = %v", err)
	}
	if filepath.Base(outputPath) != "plants_organ_import.owl" {
		t.Errorf("output file = %s", filepath.Base(outputPath))
	}

	mod, err := rdfxml.LoadFile(outputPath)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if mod.IRI() != "https://example.org/imports/plants_organ_import.owl" {
		t.Errorf("module IRI = %s", mod.IRI())
	}
	if !mod.ContainsAxiom(owl.Declaration{Kind: owl.ClassKind, Subject: iri("organ")}) {
		t.Error("seeded entity missing from module")
	}
	// leaf is a descendant of organ but explicitly excluded.
	if mod.ContainsAxiom(owl.Declaration{Kind: owl.ClassKind, Subject: iri("leaf")}) {
		t.Error("excluded entity present in module")
	}
}

func TestBuildModuleNoTerms(t *testing.T) {
	workDir := t.TempDir()
	writeSourceOntology(t, workDir)
	termsPath := writeTerms(t, t.TempDir(), "ID,Exclude\n'leaf',yes\n")

	b := New("https://example.org/imports/", workDir)
	if _, err := b.BuildModule(context.Background(),
		"https://example.org/onts/plants.owl", termsPath, "_import.owl"); err == nil {
		t.Fatal("BuildModule() with only exclusions: expected error, got nil")
	}
}

func TestBuildModuleMissingTermsFile(t *testing.T) {
	b := New("https://example.org/imports/", t.TempDir())
	if _, err := b.BuildModule(context.Background(),
		"https://example.org/onts/plants.owl", "no-such-file.csv", "_import.owl"); err == nil {
		t.Fatal("BuildModule() without terms file: expected error, got nil")
	}
}

func TestBuildModuleDownloadsSource(t *testing.T) {
	fixtureDir := t.TempDir()
	sourcePath := writeSourceOntology(t, fixtureDir)
	data, err := os.ReadFile(sourcePath)
	if err != nil {
		t.Fatal(err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/plants.owl" {
			http.NotFound(w, r)
			return
		}
		w.Write(data)
	}))
	defer server.Close()

	workDir := t.TempDir()
	termsPath := writeTerms(t, t.TempDir(), "ID\n'plant'\n")

	b := New("https://example.org/imports/", workDir)
	if _, err := b.BuildModule(context.Background(),
		server.URL+"/plants.owl", termsPath, "_import.owl"); err != nil {
		t.Fatalf("BuildModule() error = %v", err)
	}
	// The downloaded source is cached for later builds.
	if _, err := os.Stat(filepath.Join(workDir, "plants.owl")); err != nil {
		t.Errorf("source ontology not cached: %v", err)
	}

	if _, err := b.BuildModule(context.Background(),
		server.URL+"/missing.owl", termsPath, "_import.owl"); err == nil {
		t.Error("BuildModule() with 404 source: expected error, got nil")
	}
}

func TestIsBuildNeeded(t *testing.T) {
	workDir := t.TempDir()
	writeSourceOntology(t, workDir)
	termsPath := writeTerms(t, t.TempDir(), "ID\n'plant'\n")

	b := New("https://example.org/imports/", workDir)
	ontologyIRI := "https://example.org/onts/plants.owl"
	if !b.IsBuildNeeded(ontologyIRI, termsPath, "_import.owl") {
		t.Error("IsBuildNeeded() = false before the first build")
	}

	if _, err := b.BuildModule(context.Background(), ontologyIRI, termsPath, "_import.owl"); err != nil {
		t.Fatalf("BuildModule() error = %v", err)
	}
	outputPath := filepath.Join(workDir, "plants_import.owl")
	future := time.Now().Add(time.Hour)
	if err := os.Chtimes(outputPath, future, future); err != nil {
		t.Fatal(err)
	}
	if b.IsBuildNeeded(ontologyIRI, termsPath, "_import.owl") {
		t.Error("IsBuildNeeded() = true with a fresh output")
	}

	// Touching the terms file makes the module stale again.
	later := future.Add(time.Hour)
	if err := os.Chtimes(termsPath, later, later); err != nil {
		t.Fatal(err)
	}
	if !b.IsBuildNeeded(ontologyIRI, termsPath, "_import.owl") {
		t.Error("IsBuildNeeded() = false after the terms file changed")
	}
}
