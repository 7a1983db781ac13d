package build

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/stuckyb/ontobuilder/internal/config"
	"github.com/stuckyb/ontobuilder/internal/owl"
	"github.com/stuckyb/ontobuilder/internal/rdfxml"
)

// stubTarget is a scriptable target for exercising the runner.
type stubTarget struct {
	name     string
	required bool
	products Products
	deps     []Target
	runs     int
	runErr   error
}

func (s *stubTarget) Name() string          { return s.name }
func (s *stubTarget) Dependencies() []Target { return s.deps }
func (s *stubTarget) IsBuildRequired() (bool, error) { return s.required, nil }

func (s *stubTarget) Run(ctx context.Context, deps Products) (Products, error) {
	s.runs++
	return s.products, s.runErr
}

func TestBuildRequiredPropagates(t *testing.T) {
	dep := &stubTarget{name: "dep", required: true}
	top := &stubTarget{name: "top", required: false, deps: []Target{dep}}

	required, err := BuildRequired(top)
	if err != nil {
		t.Fatalf("BuildRequired() error = %v", err)
	}
	if !required {
		t.Error("BuildRequired() = false with an out-of-date dependency")
	}

	dep.required = false
	required, err = BuildRequired(top)
	if err != nil {
		t.Fatalf("BuildRequired() error = %v", err)
	}
	if required {
		t.Error("BuildRequired() = true with everything up to date")
	}
}

func TestRunMergesDependencyProducts(t *testing.T) {
	dep := &stubTarget{name: "dep", products: Products{"product 1": "value 1"}}
	top := &stubTarget{
		name:     "top",
		deps:     []Target{dep},
		products: Products{"product 2": "value 2"},
	}

	products, err := NewRunner().Run(context.Background(), top)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	want := Products{"product 1": "value 1", "product 2": "value 2"}
	if diff := cmp.Diff(want, products); diff != "" {
		t.Errorf("merged products mismatch (-want +got):\n%s", diff)
	}
}

func TestRunRunsSharedDependencyOnce(t *testing.T) {
	shared := &stubTarget{name: "shared", products: Products{"product 1": "value 1"}}
	mid1 := &stubTarget{name: "mid1", deps: []Target{shared}, products: Products{"mid 1": 1}}
	mid2 := &stubTarget{name: "mid2", deps: []Target{shared}, products: Products{"mid 2": 2}}
	top := &stubTarget{name: "top", deps: []Target{mid1, mid2}}

	products, err := NewRunner().Run(context.Background(), top)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if shared.runs != 1 {
		t.Errorf("shared dependency ran %d times, want 1", shared.runs)
	}
	want := Products{"product 1": "value 1", "mid 1": 1, "mid 2": 2}
	if diff := cmp.Diff(want, products); diff != "" {
		t.Errorf("merged products mismatch (-want +got):\n%s", diff)
	}
}

func TestRunRejectsDuplicateDependencyProducts(t *testing.T) {
	dep1 := &stubTarget{name: "dep1", products: Products{"product 1": "value 1"}}
	dep2 := &stubTarget{name: "dep2", products: Products{"product 1": "value 2"}}
	top := &stubTarget{name: "top", deps: []Target{dep1, dep2}}

	_, err := NewRunner().Run(context.Background(), top)
	if err == nil || !strings.Contains(err.Error(), "unable to merge product") {
		t.Errorf("Run() error = %v, want a product merge error", err)
	}
}

func TestRunRejectsOwnDuplicateProduct(t *testing.T) {
	dep := &stubTarget{name: "dep", products: Products{"product 1": "value 1"}}
	top := &stubTarget{
		name:     "top",
		deps:     []Target{dep},
		products: Products{"product 1": "value 2"},
	}

	_, err := NewRunner().Run(context.Background(), top)
	if err == nil || !strings.Contains(err.Error(), "duplicates") {
		t.Errorf("Run() error = %v, want a duplicate product name error", err)
	}
}

func TestRunWrapsTargetErrors(t *testing.T) {
	inner := errors.New("boom")
	top := &stubTarget{name: "top", runErr: inner}

	_, err := NewRunner().Run(context.Background(), top)
	if err == nil || !errors.Is(err, inner) || !strings.Contains(err.Error(), "top") {
		t.Errorf("Run() error = %v, want a wrapped error naming the target", err)
	}
}

// newTestProject writes a minimal project into a temp dir and returns its
// loaded configuration.
func newTestProject(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()

	for _, sub := range []string{"src/terms", "imports"} {
		if err := os.MkdirAll(filepath.Join(dir, filepath.FromSlash(sub)), 0755); err != nil {
			t.Fatal(err)
		}
	}

	projectYAML := `
ontology_iri: https://example.org/onts/plants/plants.owl
base_ontology: src/plants-base.owl
terms_files:
  - src/terms/*.csv
imports_base_iri: https://example.org/onts/plants/imports/
`
	if err := os.WriteFile(filepath.Join(dir, "project.yaml"), []byte(projectYAML), 0644); err != nil {
		t.Fatal(err)
	}

	base := owl.NewOntology("https://example.org/onts/plants/plants-base.owl")
	if err := rdfxml.WriteFile(filepath.Join(dir, "src", "plants-base.owl"), base); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	terms := "Type,ID,Label,Parent\n" +
		"Class,PO:0000003,whole plant,\n" +
		"Class,PO:0000025,leaf,PO:0000003\n"
	if err := os.WriteFile(filepath.Join(dir, "src", "terms", "plants.csv"), []byte(terms), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.Load(filepath.Join(dir, "project.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return cfg
}

func TestOntologyTargetOutputFilePath(t *testing.T) {
	cfg := newTestProject(t)

	plain := NewOntologyTarget(cfg, false, false)
	if got := filepath.Base(plain.OutputFilePath()); got != "plants.owl" {
		t.Errorf("OutputFilePath() = %q", got)
	}
	variant := NewOntologyTarget(cfg, true, true)
	if got := filepath.Base(variant.OutputFilePath()); got != "plants-merged-reasoned.owl" {
		t.Errorf("OutputFilePath() with options = %q", got)
	}
}

func TestOntologyTargetBuild(t *testing.T) {
	cfg := newTestProject(t)
	target := NewOntologyTarget(cfg, false, false)

	required, err := BuildRequired(target)
	if err != nil {
		t.Fatalf("BuildRequired() error = %v", err)
	}
	if !required {
		t.Fatal("BuildRequired() = false before the first build")
	}

	products, err := NewRunner().Run(context.Background(), target)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	outPath, _ := products["ontology file"].(string)
	if _, err := os.Stat(outPath); err != nil {
		t.Fatalf("compiled ontology missing: %v", err)
	}
	ont, _ := products["ontology"].(*owl.Ontology)
	if ont == nil {
		t.Fatal("no ontology product")
	}
	if ont.IRI() != "https://example.org/onts/plants/plants.owl" {
		t.Errorf("ontology IRI = %q", ont.IRI())
	}

	leaf, err := ont.ExpandIdentifier("PO:0000025")
	if err != nil {
		t.Fatal(err)
	}
	if kind, ok := ont.DeclaredKind(leaf); !ok || kind != owl.ClassKind {
		t.Errorf("leaf declaration = (%v, %v), want a class", kind, ok)
	}
	whole, _ := ont.ExpandIdentifier("PO:0000003")
	if !ont.ContainsAxiom(owl.SubClassOf{
		Sub:   owl.NamedClass{IRI: leaf},
		Super: owl.NamedClass{IRI: whole},
	}) {
		t.Error("leaf is not a subclass of whole plant in the compiled ontology")
	}

	// A fresh build over an unchanged project is up to date.
	required, err = BuildRequired(NewOntologyTarget(cfg, false, false))
	if err != nil {
		t.Fatalf("BuildRequired() error = %v", err)
	}
	if required {
		t.Error("BuildRequired() = true immediately after a build")
	}
}

func TestOntologyTargetReasonedBuild(t *testing.T) {
	cfg := newTestProject(t)

	// leaf ⊑ organ ⊓ plant_part should yield inferred named superclasses.
	terms := "Type,ID,Label,Parent,Subclass of\n" +
		"Class,PO:0000003,whole plant,,\n" +
		"Class,PO:0009008,plant part,,\n" +
		"Class,PO:0009011,organ,,\n" +
		"Class,PO:0000025,leaf,,'organ' and 'plant part'\n"
	termsPath := filepath.Join(cfg.ProjectDir(), "src", "terms", "plants.csv")
	if err := os.WriteFile(termsPath, []byte(terms), 0644); err != nil {
		t.Fatal(err)
	}

	target := NewOntologyTarget(cfg, false, true)
	products, err := NewRunner().Run(context.Background(), target)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	ont, _ := products["ontology"].(*owl.Ontology)
	if ont == nil {
		t.Fatal("no ontology product")
	}
	leaf, _ := ont.ExpandIdentifier("PO:0000025")
	organ, _ := ont.ExpandIdentifier("PO:0009011")
	if !ont.ContainsAxiom(owl.SubClassOf{
		Sub:   owl.NamedClass{IRI: leaf},
		Super: owl.NamedClass{IRI: organ},
	}) {
		t.Error("inferred subclass axiom missing from the reasoned build")
	}
	if got := filepath.Base(products["ontology file"].(string)); got != "plants-reasoned.owl" {
		t.Errorf("reasoned output file = %q", got)
	}
}

func TestImportsTargetWithoutTable(t *testing.T) {
	cfg := newTestProject(t)
	target := NewImportsTarget(cfg)

	required, err := target.IsBuildRequired()
	if err != nil {
		t.Fatalf("IsBuildRequired() error = %v", err)
	}
	if required {
		t.Error("IsBuildRequired() = true with no imported-ontologies table")
	}

	products, err := NewRunner().Run(context.Background(), target)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	modules, _ := products["import modules"].([]ImportModule)
	if len(modules) != 0 {
		t.Errorf("import modules = %v, want none", modules)
	}
}

func TestImportsTargetBuildsModules(t *testing.T) {
	cfg := newTestProject(t)
	importsDir := cfg.ImportsDirPath()

	// A cached source ontology, so no download happens.
	source := owl.NewOntology("https://example.org/onts/ext/anatomy.owl")
	organ, err := source.CreateNewClass("https://example.org/onts/ext/anatomy#organ")
	if err != nil {
		t.Fatal(err)
	}
	organ.AddLabel("organ")
	if err := rdfxml.WriteFile(filepath.Join(importsDir, "anatomy.owl"), source); err != nil {
		t.Fatal(err)
	}

	table := "IRI,Terms file\nhttps://example.org/onts/ext/anatomy.owl,anatomy_terms.csv\n"
	if err := os.WriteFile(filepath.Join(importsDir, "imported_ontologies.csv"), []byte(table), 0644); err != nil {
		t.Fatal(err)
	}
	termRows := "ID\nhttps://example.org/onts/ext/anatomy#organ\n"
	if err := os.WriteFile(filepath.Join(importsDir, "anatomy_terms.csv"), []byte(termRows), 0644); err != nil {
		t.Fatal(err)
	}

	target := NewImportsTarget(cfg)
	required, err := target.IsBuildRequired()
	if err != nil {
		t.Fatalf("IsBuildRequired() error = %v", err)
	}
	if !required {
		t.Fatal("IsBuildRequired() = false before the module exists")
	}

	products, err := NewRunner().Run(context.Background(), target)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	modules, _ := products["import modules"].([]ImportModule)
	if len(modules) != 1 {
		t.Fatalf("import modules = %v, want one", modules)
	}
	wantIRI := owl.IRI("https://example.org/onts/plants/imports/anatomy" + ModuleSuffix)
	if modules[0].IRI != wantIRI {
		t.Errorf("module IRI = %q, want %q", modules[0].IRI, wantIRI)
	}
	if _, err := os.Stat(modules[0].Path); err != nil {
		t.Errorf("module file missing: %v", err)
	}

	required, err = target.IsBuildRequired()
	if err != nil {
		t.Fatalf("IsBuildRequired() error = %v", err)
	}
	if required {
		t.Error("IsBuildRequired() = true immediately after building the module")
	}
}

func TestUpdateBaseTarget(t *testing.T) {
	cfg := newTestProject(t)
	importsDir := cfg.ImportsDirPath()

	table := "IRI\nhttps://example.org/onts/ext/anatomy.owl\n"
	if err := os.WriteFile(filepath.Join(importsDir, "imported_ontologies.csv"), []byte(table), 0644); err != nil {
		t.Fatal(err)
	}

	target := NewUpdateBaseTarget(cfg)
	required, err := target.IsBuildRequired()
	if err != nil {
		t.Fatalf("IsBuildRequired() error = %v", err)
	}
	if !required {
		t.Fatal("IsBuildRequired() = false with an undeclared module")
	}

	if _, err := NewRunner().Run(context.Background(), target); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	base, err := rdfxml.LoadFile(cfg.BaseOntologyPath())
	if err != nil {
		t.Fatal(err)
	}
	wantIRI := owl.IRI("https://example.org/onts/plants/imports/anatomy" + ModuleSuffix)
	found := false
	for _, dec := range base.DirectImports() {
		if dec == wantIRI {
			found = true
		}
	}
	if !found {
		t.Errorf("base ontology imports = %v, want %q", base.DirectImports(), wantIRI)
	}

	required, err = target.IsBuildRequired()
	if err != nil {
		t.Fatalf("IsBuildRequired() error = %v", err)
	}
	if required {
		t.Error("IsBuildRequired() = true after updating the base ontology")
	}
}

func TestInitTarget(t *testing.T) {
	dir := t.TempDir()
	target := NewInitTarget(dir, "plants.owl")

	products, err := NewRunner().Run(context.Background(), target)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	projectFile, _ := products["project file"].(string)

	cfg, err := config.Load(projectFile)
	if err != nil {
		t.Fatalf("the scaffolded project config does not load: %v", err)
	}
	if _, err := os.Stat(cfg.BaseOntologyPath()); err != nil {
		t.Errorf("base ontology missing: %v", err)
	}
	if _, err := cfg.TermsFilePaths(); err != nil {
		t.Errorf("starter terms file missing: %v", err)
	}

	// A second init must refuse to clobber the project.
	if _, err := NewRunner().Run(context.Background(), target); err == nil {
		t.Error("re-running init over an existing project: expected error, got nil")
	}
}

func TestReleaseTarget(t *testing.T) {
	cfg := newTestProject(t)
	target := NewReleaseTarget(cfg, "2026-08-23", false, false)

	if got := target.VersionIRI(); got != "https://example.org/onts/plants/2026-08-23/plants.owl" {
		t.Errorf("VersionIRI() = %q", got)
	}

	products, err := NewRunner().Run(context.Background(), target)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	files, _ := products["release files"].([]string)
	if len(files) == 0 {
		t.Fatal("no release files produced")
	}
	released, err := rdfxml.LoadFile(files[0])
	if err != nil {
		t.Fatal(err)
	}
	if released.VersionIRI() != target.VersionIRI() {
		t.Errorf("released version IRI = %q, want %q", released.VersionIRI(), target.VersionIRI())
	}

	required, err := target.IsBuildRequired()
	if err != nil {
		t.Fatalf("IsBuildRequired() error = %v", err)
	}
	if required {
		t.Error("IsBuildRequired() = true after the release was written")
	}
}

func TestErrorCheckTarget(t *testing.T) {
	cfg := newTestProject(t)

	// planimal ⊑ animal ⊓ plant with animal, plant disjoint is unsatisfiable.
	terms := "Type,ID,Label,Subclass of,Disjoint with\n" +
		"Class,PO:0000001,plant,,'animal'\n" +
		"Class,PO:0000002,animal,,\n" +
		"Class,PO:0000099,planimal,'plant' and 'animal',\n"
	termsPath := filepath.Join(cfg.ProjectDir(), "src", "terms", "plants.csv")
	if err := os.WriteFile(termsPath, []byte(terms), 0644); err != nil {
		t.Fatal(err)
	}

	products, err := NewRunner().Run(context.Background(), NewErrorCheckTarget(cfg))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	report, _ := products["error report"].(*Report)
	if report == nil {
		t.Fatal("no error report product")
	}
	if report.Coherent {
		t.Error("report.Coherent = true for an ontology with an unsatisfiable class")
	}
	if len(report.UnsatisfiableClasses) != 1 {
		t.Errorf("UnsatisfiableClasses = %v, want exactly the contradictory class", report.UnsatisfiableClasses)
	}
	if report.OK() || !strings.Contains(report.String(), "incoherent") {
		t.Errorf("report rendering = %q", report.String())
	}
}
