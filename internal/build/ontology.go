package build

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/stuckyb/ontobuilder/internal/config"
	"github.com/stuckyb/ontobuilder/internal/logging"
	"github.com/stuckyb/ontobuilder/internal/owl"
	"github.com/stuckyb/ontobuilder/internal/owlbuilder"
	"github.com/stuckyb/ontobuilder/internal/rdfxml"
	"github.com/stuckyb/ontobuilder/internal/reasoner"
	"github.com/stuckyb/ontobuilder/internal/tablereader"
)

// OntologyTarget compiles the project ontology: the base ontology document
// plus every term described in the project's term tables, with the import
// modules either declared as imports or merged in directly.
type OntologyTarget struct {
	cfg          *config.Config
	mergeImports bool
	reason       bool
	imports      *ImportsTarget
}

// NewOntologyTarget returns the compile target. mergeImports folds import
// module axioms into the output instead of leaving import declarations;
// reason adds inferred axioms. Both options change the output file name.
func NewOntologyTarget(cfg *config.Config, mergeImports, reason bool) *OntologyTarget {
	return &OntologyTarget{
		cfg:          cfg,
		mergeImports: mergeImports,
		reason:       reason,
		imports:      NewImportsTarget(cfg),
	}
}

func (t *OntologyTarget) Name() string { return "ontology" }

func (t *OntologyTarget) Dependencies() []Target { return []Target{t.imports} }

// OutputFilePath returns the path of the compiled ontology document. The
// merge and reason options each append a marker to the file name so variant
// builds never overwrite each other.
func (t *OntologyTarget) OutputFilePath() string {
	name := t.cfg.OntologyFileName()
	ext := filepath.Ext(name)
	stem := name[:len(name)-len(ext)]
	if t.mergeImports {
		stem += "-merged"
	}
	if t.reason {
		stem += "-reasoned"
	}
	return filepath.Join(t.cfg.BuildDirPath(), stem+ext)
}

// IsBuildRequired compares the output's modification time against the
// project config, the base ontology, and every term table. A config newer
// than the output forces a rebuild since it may name new term tables.
func (t *OntologyTarget) IsBuildRequired() (bool, error) {
	out, err := os.Stat(t.OutputFilePath())
	if err != nil {
		return true, nil
	}
	sources := []string{t.cfg.Path(), t.cfg.BaseOntologyPath()}
	termsPaths, err := t.cfg.TermsFilePaths()
	if err != nil {
		return false, err
	}
	sources = append(sources, termsPaths...)
	for _, src := range sources {
		info, err := os.Stat(src)
		if err != nil {
			return false, fmt.Errorf("cannot stat build input %s: %w", src, err)
		}
		if out.ModTime().Before(info.ModTime()) {
			return true, nil
		}
	}
	return false, nil
}

// Run compiles the ontology and writes it to the build directory. The
// compiled ontology and its file path become the "ontology" and
// "ontology file" products.
func (t *OntologyTarget) Run(ctx context.Context, deps Products) (Products, error) {
	timer := logging.StartTimer(logging.CategoryBuild, "compile ontology")
	defer timer.StopWithInfo()

	basePath := t.cfg.BaseOntologyPath()
	if _, err := os.Stat(basePath); err != nil {
		return nil, fmt.Errorf("the base ontology file could not be found: %s", basePath)
	}

	modules, _ := deps["import modules"].([]ImportModule)
	loader := rdfxml.NewLoader()
	for _, m := range modules {
		loader.Map(m.IRI, m.Path)
	}
	ont, err := loader.LoadFile(basePath)
	if err != nil {
		return nil, err
	}
	if err := t.attachModules(ont, loader, modules); err != nil {
		return nil, err
	}

	if err := t.compileTerms(ont); err != nil {
		return nil, err
	}

	if t.reason {
		logging.Build("running reasoner and adding inferred axioms")
		r, err := reasoner.NewManager().Get(ont, t.cfg.Reasoner.Name)
		if err != nil {
			return nil, err
		}
		types, err := reasoner.ParseInferenceTypes(t.cfg.Reasoner.InferenceTypes)
		if err != nil {
			return nil, err
		}
		adder := reasoner.NewInferredAxiomAdder(ont, r)
		adder.AddInferredAxioms(types, t.cfg.Reasoner.AnnotateInferred)
	}

	if err := ont.SetOntologyID(t.cfg.OntologyIRI); err != nil {
		return nil, err
	}

	outPath := t.OutputFilePath()
	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return nil, err
	}
	if err := rdfxml.WriteFile(outPath, ont); err != nil {
		return nil, err
	}
	logging.Build("wrote compiled ontology to %s", outPath)

	return Products{"ontology": ont, "ontology file": outPath}, nil
}

// attachModules wires the built import modules into the ontology, either as
// loaded import declarations or by merging their axioms in directly.
func (t *OntologyTarget) attachModules(ont *owl.Ontology, loader *rdfxml.Loader, modules []ImportModule) error {
	for _, m := range modules {
		loaded, ok := ont.LoadedImport(m.IRI)
		if !ok {
			imported, err := loader.LoadFile(m.Path)
			if err != nil {
				return err
			}
			loaded = imported
			if !t.mergeImports {
				ont.AttachImport(m.IRI, loaded)
			}
		}
		if t.mergeImports {
			ont.MergeOntology(loaded)
		}
	}
	return nil
}

// compileTerms feeds every row of every term table into the ontology
// builder, then resolves the deferred axioms so terms can reference labels
// defined in later files.
func (t *OntologyTarget) compileTerms(ont *owl.Ontology) error {
	builder := owlbuilder.New(ont)

	termsPaths, err := t.cfg.TermsFilePaths()
	if err != nil {
		return err
	}
	for _, termsPath := range termsPaths {
		logging.Build("parsing term table %s", termsPath)
		if err := t.compileTermsFile(builder, termsPath); err != nil {
			return err
		}
	}
	return builder.ProcessDeferredAxioms(true)
}

func (t *OntologyTarget) compileTermsFile(builder *owlbuilder.Builder, termsPath string) error {
	reader, err := tablereader.Open(termsPath)
	if err != nil {
		return err
	}
	defer reader.Close()

	for _, name := range reader.TableNames() {
		table, err := reader.GetTable(name)
		if err != nil {
			return err
		}
		table.SetRequiredColumns(owlbuilder.RequiredCols...)
		table.SetOptionalColumns(owlbuilder.OptionalCols...)

		for {
			row, err := table.Next()
			if err == io.EOF {
				break
			}
			if err != nil {
				return err
			}
			if err := builder.AddRow(row); err != nil {
				return err
			}
		}
	}
	return nil
}
