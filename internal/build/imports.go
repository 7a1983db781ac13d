package build

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/stuckyb/ontobuilder/internal/config"
	"github.com/stuckyb/ontobuilder/internal/importmod"
	"github.com/stuckyb/ontobuilder/internal/logging"
	"github.com/stuckyb/ontobuilder/internal/owl"
	"github.com/stuckyb/ontobuilder/internal/tablereader"
)

// ModuleSuffix terminates generated import module file names.
const ModuleSuffix = "_import_module.owl"

// importsTableCandidates are the file names probed for the table of imported
// ontologies, in preference order.
var importsTableCandidates = []string{
	"imported_ontologies.csv",
	"imported_ontologies.tsv",
	"imported_ontologies.xlsx",
}

var (
	importsRequiredCols = []string{"IRI"}
	importsOptionalCols = []string{"Terms file", "Ignore"}
)

// ImportModule describes one built import module.
type ImportModule struct {
	IRI  owl.IRI
	Path string
}

// importSpec is one row of the imported-ontologies table.
type importSpec struct {
	sourceIRI string
	termsPath string
}

// ImportsTarget builds every import module listed in the imports directory's
// imported-ontologies table. Modules build concurrently; a project with no
// such table simply has no imports and the target is a no-op.
type ImportsTarget struct {
	cfg *config.Config
}

// NewImportsTarget returns the imports target of a project.
func NewImportsTarget(cfg *config.Config) *ImportsTarget {
	return &ImportsTarget{cfg: cfg}
}

func (t *ImportsTarget) Name() string { return "imports" }

func (t *ImportsTarget) Dependencies() []Target { return nil }

// tablePath locates the imported-ontologies table, if the project has one.
func (t *ImportsTarget) tablePath() (string, bool) {
	for _, name := range importsTableCandidates {
		p := filepath.Join(t.cfg.ImportsDirPath(), name)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, true
		}
	}
	return "", false
}

// specs reads the imported-ontologies table. The terms file defaults to
// "<source name>_terms.csv" in the imports directory.
func (t *ImportsTarget) specs() ([]importSpec, error) {
	tablePath, ok := t.tablePath()
	if !ok {
		return nil, nil
	}

	reader, err := tablereader.Open(tablePath)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	var specs []importSpec
	for _, name := range reader.TableNames() {
		table, err := reader.GetTable(name)
		if err != nil {
			return nil, err
		}
		table.SetRequiredColumns(importsRequiredCols...)
		table.SetOptionalColumns(importsOptionalCols...)

		for {
			row, err := table.Next()
			if err == io.EOF {
				break
			}
			if err != nil {
				return nil, err
			}
			if ignore, _ := row.Get("Ignore"); tablereader.IsTrueString(ignore) {
				continue
			}
			iri, err := row.Get("IRI")
			if err != nil {
				return nil, err
			}
			if iri == "" {
				return nil, row.Context.Errorf("no source ontology IRI was provided")
			}
			terms, _ := row.Get("Terms file")
			if terms == "" {
				base := path.Base(iri)
				terms = strings.TrimSuffix(base, path.Ext(base)) + "_terms.csv"
			}
			if !filepath.IsAbs(terms) {
				terms = filepath.Join(t.cfg.ImportsDirPath(), terms)
			}
			specs = append(specs, importSpec{sourceIRI: iri, termsPath: terms})
		}
	}
	return specs, nil
}

// IsBuildRequired reports whether any listed import module is missing or
// older than its terms file.
func (t *ImportsTarget) IsBuildRequired() (bool, error) {
	specs, err := t.specs()
	if err != nil {
		return false, err
	}
	builder := importmod.New(t.cfg.ImportsBaseIRI, t.cfg.ImportsDirPath())
	for _, spec := range specs {
		if builder.IsBuildNeeded(spec.sourceIRI, spec.termsPath, ModuleSuffix) {
			return true, nil
		}
	}
	return false, nil
}

// Run builds the out-of-date import modules, up to four at a time, and
// returns an "import modules" product listing every module in table order.
func (t *ImportsTarget) Run(ctx context.Context, deps Products) (Products, error) {
	specs, err := t.specs()
	if err != nil {
		return nil, err
	}
	if len(specs) == 0 {
		return Products{"import modules": []ImportModule(nil)}, nil
	}

	if t.cfg.ImportsBaseIRI == "" {
		return nil, fmt.Errorf("imports_base_iri must be set to build import modules")
	}
	if err := os.MkdirAll(t.cfg.ImportsDirPath(), 0755); err != nil {
		return nil, err
	}
	builder := importmod.New(t.cfg.ImportsBaseIRI, t.cfg.ImportsDirPath())

	modules := make([]ImportModule, len(specs))
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(4)
	for i, spec := range specs {
		group.Go(func() error {
			outPath := filepath.Join(t.cfg.ImportsDirPath(),
				builder.OutputFileName(spec.sourceIRI, ModuleSuffix))
			if builder.IsBuildNeeded(spec.sourceIRI, spec.termsPath, ModuleSuffix) {
				logging.Build("building import module for %s", spec.sourceIRI)
				built, err := builder.BuildModule(gctx, spec.sourceIRI, spec.termsPath, ModuleSuffix)
				if err != nil {
					return err
				}
				outPath = built
			} else {
				logging.BuildDebug("import module for %s is up to date", spec.sourceIRI)
			}
			modules[i] = ImportModule{
				IRI:  builder.ModuleIRI(spec.sourceIRI, ModuleSuffix),
				Path: outPath,
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return Products{"import modules": modules}, nil
}
