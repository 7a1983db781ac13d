package build

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/stuckyb/ontobuilder/internal/config"
	"github.com/stuckyb/ontobuilder/internal/logging"
	"github.com/stuckyb/ontobuilder/internal/owl"
	"github.com/stuckyb/ontobuilder/internal/rdfxml"
)

// starterTermsHeader is the column header of the terms file a new project
// starts with.
const starterTermsHeader = "Type,ID,Label,Definition,Parent\n"

// InitTarget scaffolds a new ontology project: the project config file, the
// source and build directory layout, an empty base ontology document, and a
// starter terms file. The ontology file name argument (e.g. "plants.owl")
// names the project.
type InitTarget struct {
	projectDir string
	ontFile    string
}

// NewInitTarget returns an init target that scaffolds into projectDir.
func NewInitTarget(projectDir, ontFileName string) *InitTarget {
	return &InitTarget{projectDir: projectDir, ontFile: ontFileName}
}

func (t *InitTarget) Name() string { return "init" }

func (t *InitTarget) Dependencies() []Target { return nil }

func (t *InitTarget) configPath() string {
	return filepath.Join(t.projectDir, "project.yaml")
}

// IsBuildRequired reports whether the project config file is absent.
func (t *InitTarget) IsBuildRequired() (bool, error) {
	if _, err := os.Stat(t.configPath()); err == nil {
		return false, nil
	}
	return true, nil
}

// Run creates the project skeleton. An existing project file is an error so
// a stray init can never clobber a real project.
func (t *InitTarget) Run(ctx context.Context, deps Products) (Products, error) {
	if t.ontFile == "" || t.ontFile != filepath.Base(t.ontFile) {
		return nil, fmt.Errorf("invalid ontology file name %q", t.ontFile)
	}
	if _, err := os.Stat(t.configPath()); err == nil {
		return nil, fmt.Errorf("the project file %s already exists", t.configPath())
	}

	ext := filepath.Ext(t.ontFile)
	stem := strings.TrimSuffix(t.ontFile, ext)
	if ext == "" {
		ext = ".owl"
	}

	cfg := config.DefaultConfig()
	cfg.OntologyIRI = "https://localhost/ontologies/" + stem + "/" + stem + ext
	cfg.ImportsBaseIRI = "https://localhost/ontologies/" + stem + "/imports/"
	cfg.BaseOntology = "src/" + stem + "-base" + ext
	if err := cfg.Save(t.configPath()); err != nil {
		return nil, err
	}

	for _, dir := range []string{
		filepath.Join(t.projectDir, "src", "terms"),
		cfg.ImportsDirPath(),
		cfg.BuildDirPath(),
		cfg.ReleaseDirPath(),
	} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}

	base := owl.NewOntology(owl.IRI(cfg.OntologyIRI))
	if err := rdfxml.WriteFile(cfg.BaseOntologyPath(), base); err != nil {
		return nil, err
	}

	termsPath := filepath.Join(t.projectDir, "src", "terms", stem+"_terms.csv")
	if err := os.WriteFile(termsPath, []byte(starterTermsHeader), 0644); err != nil {
		return nil, err
	}

	logging.Build("initialized new ontology project in %s", t.projectDir)
	return Products{"project file": t.configPath()}, nil
}
