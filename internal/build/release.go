package build

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/stuckyb/ontobuilder/internal/config"
	"github.com/stuckyb/ontobuilder/internal/logging"
	"github.com/stuckyb/ontobuilder/internal/owl"
	"github.com/stuckyb/ontobuilder/internal/rdfxml"
)

// ReleaseTarget produces a dated release: the compiled ontology with a
// dated version IRI, plus copies of the import modules, under
// <release dir>/<date>/.
type ReleaseTarget struct {
	cfg      *config.Config
	date     string
	ontology *OntologyTarget
}

// NewReleaseTarget returns a release target for the given date (YYYY-MM-DD;
// empty means today).
func NewReleaseTarget(cfg *config.Config, date string, mergeImports, reason bool) *ReleaseTarget {
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}
	return &ReleaseTarget{
		cfg:      cfg,
		date:     date,
		ontology: NewOntologyTarget(cfg, mergeImports, reason),
	}
}

func (t *ReleaseTarget) Name() string { return "release" }

func (t *ReleaseTarget) Dependencies() []Target { return []Target{t.ontology} }

// ReleaseDir returns the dated directory this release writes into.
func (t *ReleaseTarget) ReleaseDir() string {
	return filepath.Join(t.cfg.ReleaseDirPath(), t.date)
}

// releaseFilePath is the released ontology document's location.
func (t *ReleaseTarget) releaseFilePath() string {
	return filepath.Join(t.ReleaseDir(), filepath.Base(t.ontology.OutputFilePath()))
}

// VersionIRI derives the dated version IRI of the release from the ontology
// IRI: the date becomes a path segment before the file name.
func (t *ReleaseTarget) VersionIRI() owl.IRI {
	iri := t.cfg.OntologyIRI
	dir, file := path.Split(iri)
	if dir == "" {
		return owl.IRI(iri + "/" + t.date)
	}
	return owl.IRI(dir + t.date + "/" + file)
}

// IsBuildRequired reports whether the dated release file exists yet.
func (t *ReleaseTarget) IsBuildRequired() (bool, error) {
	if _, err := os.Stat(t.releaseFilePath()); err != nil {
		return true, nil
	}
	return false, nil
}

// Run stamps the compiled ontology with the dated version IRI, writes it
// into the release directory, and copies the import modules alongside it.
func (t *ReleaseTarget) Run(ctx context.Context, deps Products) (Products, error) {
	ont, ok := deps["ontology"].(*owl.Ontology)
	if !ok {
		return nil, fmt.Errorf("no compiled ontology available for release")
	}

	if err := os.MkdirAll(t.ReleaseDir(), 0755); err != nil {
		return nil, err
	}

	ont.SetVersionIRI(t.VersionIRI())
	outPath := t.releaseFilePath()
	if err := rdfxml.WriteFile(outPath, ont); err != nil {
		return nil, err
	}
	logging.Build("wrote release ontology to %s", outPath)
	releaseFiles := []string{outPath}

	modules, _ := deps["import modules"].([]ImportModule)
	if len(modules) > 0 {
		importsDir := filepath.Join(t.ReleaseDir(), "imports")
		if err := os.MkdirAll(importsDir, 0755); err != nil {
			return nil, err
		}
		for _, m := range modules {
			dest := filepath.Join(importsDir, filepath.Base(m.Path))
			if err := copyFile(m.Path, dest); err != nil {
				return nil, err
			}
			releaseFiles = append(releaseFiles, dest)
		}
	}

	return Products{"release files": releaseFiles}, nil
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
