package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "project.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

const minimalConfig = `
ontology_iri: https://example.org/onts/plants/plants.owl
base_ontology: src/plants-base.owl
terms_files:
  - src/terms/**/*.csv
imports_base_iri: https://example.org/onts/plants/imports/
`

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, minimalConfig)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	// Unspecified fields keep their defaults.
	if cfg.BuildDir != "build" || cfg.ImportsDir != "imports" {
		t.Errorf("defaults not applied: build=%q imports=%q", cfg.BuildDir, cfg.ImportsDir)
	}
	if cfg.Reasoner.Name != "elk" || !cfg.Reasoner.AnnotateInferred {
		t.Errorf("reasoner defaults = %+v", cfg.Reasoner)
	}
	if cfg.ProjectDir() != dir {
		t.Errorf("ProjectDir() = %q, want %q", cfg.ProjectDir(), dir)
	}
	if got := cfg.BaseOntologyPath(); got != filepath.Join(dir, "src", "plants-base.owl") {
		t.Errorf("BaseOntologyPath() = %q", got)
	}
	if got := cfg.BuildDirPath(); got != filepath.Join(dir, "build") {
		t.Errorf("BuildDirPath() = %q", got)
	}
	if got := cfg.OntologyFileName(); got != "plants.owl" {
		t.Errorf("OntologyFileName() = %q", got)
	}
}

func TestInSourceBuildDir(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, minimalConfig+"in_source_builds: true\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := cfg.BuildDirPath(); got != filepath.Join(dir, "src") {
		t.Errorf("BuildDirPath() = %q, want the base ontology directory", got)
	}
}

func TestValidationErrors(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    string
	}{
		{"missing iri", "base_ontology: base.owl\n", "ontology_iri"},
		{"relative iri", "ontology_iri: onts/plants.owl\n", "ontology_iri"},
		{
			"bad reasoner",
			"ontology_iri: https://example.org/o.owl\nreasoner:\n  name: pellet\n",
			"reasoner.name",
		},
		{
			"bad inference type",
			"ontology_iri: https://example.org/o.owl\nreasoner:\n  inference_types: [chains]\n",
			"inference_types",
		},
		{
			"bad imports iri",
			"ontology_iri: https://example.org/o.owl\nimports_base_iri: imports/\n",
			"imports_base_iri",
		},
	}
	for _, c := range cases {
		path := writeConfig(t, t.TempDir(), c.content)
		_, err := Load(path)
		if err == nil {
			t.Errorf("%s: expected error, got nil", c.name)
		} else if !strings.Contains(err.Error(), c.want) {
			t.Errorf("%s: error = %q, want substring %q", c.name, err, c.want)
		}
	}
}

func TestTermsFilePaths(t *testing.T) {
	dir := t.TempDir()
	for _, rel := range []string{
		"src/terms/plants.csv",
		"src/terms/extra/organs.csv",
		"src/terms/notes.txt",
	} {
		full := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte("ID\n"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	path := writeConfig(t, dir, minimalConfig)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	paths, err := cfg.TermsFilePaths()
	if err != nil {
		t.Fatalf("TermsFilePaths() error = %v", err)
	}
	want := []string{
		filepath.Join(dir, "src", "terms", "extra", "organs.csv"),
		filepath.Join(dir, "src", "terms", "plants.csv"),
	}
	if len(paths) != len(want) || paths[0] != want[0] || paths[1] != want[1] {
		t.Errorf("TermsFilePaths() = %v, want %v", paths, want)
	}
}

func TestTermsFilePatternWithNoMatches(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, minimalConfig)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if _, err := cfg.TermsFilePaths(); err == nil {
		t.Error("TermsFilePaths() with no matching files: expected error, got nil")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.OntologyIRI = "https://example.org/onts/plants/plants.owl"
	cfg.Logging.DebugMode = true

	dir := t.TempDir()
	path := filepath.Join(dir, "project.yaml")
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.OntologyIRI != cfg.OntologyIRI || !loaded.Logging.DebugMode {
		t.Errorf("round trip lost fields: %+v", loaded)
	}
}
