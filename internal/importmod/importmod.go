// Package importmod builds import module OWL files from terms listed in
// tabular input. Each terms file names the entities to pull from one
// external ontology; the source document is downloaded if no local copy
// exists, the module is extracted, and the result is written next to the
// other import modules with a generated IRI.
package importmod

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/stuckyb/ontobuilder/internal/logging"
	"github.com/stuckyb/ontobuilder/internal/modextract"
	"github.com/stuckyb/ontobuilder/internal/owl"
	"github.com/stuckyb/ontobuilder/internal/rdfxml"
	"github.com/stuckyb/ontobuilder/internal/reasoner"
	"github.com/stuckyb/ontobuilder/internal/tablereader"
)

// RequiredCols are the columns every import terms file must provide.
var RequiredCols = []string{"ID"}

// OptionalCols are recognized columns that produce no warning when absent.
var OptionalCols = []string{"Exclude", "Seed descendants", "Reasoner", "Method"}

// Builder constructs import modules. baseIRI is prepended to generated
// module file names to form module IRIs; workDir holds cached source
// ontologies and the module output files.
type Builder struct {
	baseIRI string
	workDir string
	client  *http.Client
}

// New creates a Builder writing into workDir.
func New(baseIRI, workDir string) *Builder {
	return &Builder{
		baseIRI: baseIRI,
		workDir: workDir,
		client:  &http.Client{Timeout: 10 * time.Minute},
	}
}

// OutputFileName derives the module file name from the source ontology IRI
// and the output suffix: the IRI's file base name with the suffix replacing
// its extension chain.
func (b *Builder) OutputFileName(ontologyIRI, suffix string) string {
	base := path.Base(ontologyIRI)
	return strings.TrimSuffix(base, path.Ext(base)) + suffix
}

// ModuleIRI returns the IRI the module built from a source ontology will
// carry.
func (b *Builder) ModuleIRI(ontologyIRI, suffix string) owl.IRI {
	return owl.IRI(b.baseIRI + b.OutputFileName(ontologyIRI, suffix))
}

// IsBuildNeeded reports whether the module output is missing or older than
// the terms file.
func (b *Builder) IsBuildNeeded(ontologyIRI, termsPath, suffix string) bool {
	out, err := os.Stat(filepath.Join(b.workDir, b.OutputFileName(ontologyIRI, suffix)))
	if err != nil {
		return true
	}
	terms, err := os.Stat(termsPath)
	if err != nil {
		return true
	}
	return !out.ModTime().After(terms.ModTime())
}

// BuildModule builds one import module and returns the path it was written
// to.
func (b *Builder) BuildModule(ctx context.Context, ontologyIRI, termsPath, suffix string) (string, error) {
	if _, err := os.Stat(termsPath); err != nil {
		return "", fmt.Errorf("could not find the input terms file %q", termsPath)
	}

	sourcePath := filepath.Join(b.workDir, path.Base(ontologyIRI))
	if _, err := os.Stat(sourcePath); err != nil {
		if err := b.download(ctx, ontologyIRI, sourcePath); err != nil {
			return "", fmt.Errorf("unable to download the external ontology at %q: %w", ontologyIRI, err)
		}
	}

	logging.Imports("loading source ontology from %s", sourcePath)
	source, err := rdfxml.LoadFile(sourcePath)
	if err != nil {
		return "", err
	}

	extractor := modextract.New(source)
	reasoners := reasoner.NewManager()
	if err := b.readTerms(termsPath, source, extractor, reasoners); err != nil {
		return "", err
	}
	if extractor.SignatureSize() == 0 {
		return "", fmt.Errorf("no terms to import were found in %q", termsPath)
	}

	module, err := extractor.Extract(b.ModuleIRI(ontologyIRI, suffix))
	if err != nil {
		return "", err
	}

	outputPath := filepath.Join(b.workDir, b.OutputFileName(ontologyIRI, suffix))
	if err := rdfxml.WriteFile(outputPath, module); err != nil {
		return "", err
	}
	logging.Imports("wrote import module %s", outputPath)
	return outputPath, nil
}

// readTerms feeds every row of every table in the terms file into the
// extractor.
func (b *Builder) readTerms(termsPath string, source *owl.Ontology,
	extractor *modextract.Extractor, reasoners *reasoner.Manager) error {

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
		table.SetRequiredColumns(RequiredCols...)
		table.SetOptionalColumns(OptionalCols...)
		table.SetDefaultValue("Reasoner", reasoner.DefaultName)
		table.SetDefaultValue("Method", modextract.Locality.String())

		for {
			row, err := table.Next()
			if err == io.EOF {
				break
			}
			if err != nil {
				return err
			}
			if err := b.processRow(row, source, extractor, reasoners); err != nil {
				return err
			}
		}
	}
	return nil
}

func (b *Builder) processRow(row tablereader.Row, source *owl.Ontology,
	extractor *modextract.Extractor, reasoners *reasoner.Manager) error {

	id, err := row.Get("ID")
	if err != nil {
		return err
	}
	logging.ImportsDebug("processing entity %s", id)

	if exclude, _ := row.Get("Exclude"); tablereader.IsTrueString(exclude) {
		if err := extractor.ExcludeEntity(id); err != nil {
			return row.Context.Errorf("%v", err)
		}
		return nil
	}

	methodName, _ := row.Get("Method")
	method, err := modextract.ParseMethod(methodName)
	if err != nil {
		return row.Context.Errorf("%v", err)
	}

	if seed, _ := row.Get("Seed descendants"); tablereader.IsTrueString(seed) {
		reasonerName, _ := row.Get("Reasoner")
		r, err := reasoners.Get(source, reasonerName)
		if err != nil {
			return row.Context.Errorf("%v", err)
		}
		logging.ImportsDebug("adding descendant entities of %s", id)
		if err := extractor.AddEntityWithDescendants(id, method, r); err != nil {
			return row.Context.Errorf("%v", err)
		}
		return nil
	}

	if err := extractor.AddEntity(id, method); err != nil {
		return row.Context.Errorf("%v", err)
	}
	return nil
}

// download fetches a source ontology over HTTP, logging progress as the
// transfer proceeds.
func (b *Builder) download(ctx context.Context, ontologyIRI, dest string) error {
	timer := logging.StartTimer(logging.CategoryImports, "download "+ontologyIRI)
	defer timer.StopWithInfo()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ontologyIRI, nil)
	if err != nil {
		return err
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP status %s", resp.Status)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".download-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	logging.Imports("downloading %s (%d bytes)", ontologyIRI, resp.ContentLength)
	progress := &progressWriter{dst: tmp, total: resp.ContentLength, source: ontologyIRI}
	if _, err := io.Copy(progress, resp.Body); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dest)
}

// progressWriter logs transfer progress at most every two seconds.
type progressWriter struct {
	dst     io.Writer
	total   int64
	source  string
	written int64
	last    time.Time
}

func (p *progressWriter) Write(data []byte) (int, error) {
	n, err := p.dst.Write(data)
	p.written += int64(n)
	if time.Since(p.last) >= 2*time.Second {
		p.last = time.Now()
		if p.total > 0 {
			logging.Imports("downloading %s: %d%% (%d/%d bytes)",
				p.source, p.written*100/p.total, p.written, p.total)
		} else {
			logging.Imports("downloading %s: %d bytes", p.source, p.written)
		}
	}
	return n, err
}
