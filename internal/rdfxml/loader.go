package rdfxml

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/stuckyb/ontobuilder/internal/logging"
	"github.com/stuckyb/ontobuilder/internal/owl"
)

// Loader reads ontology documents from disk and resolves their imports
// closure. Import IRIs are mapped to local files through a catalog; imports
// with no catalog entry can optionally be fetched through a fetcher callback
// (used by the import module builder to download source ontologies).
type Loader struct {
	catalog map[owl.IRI]string
	fetch   func(iri owl.IRI) (string, error)

	// loaded caches parsed documents by absolute path so that diamond
	// import graphs share a single document instance.
	loaded map[string]*owl.Ontology
	// active guards against import cycles.
	active map[string]bool
}

// NewLoader returns a Loader with an empty catalog.
func NewLoader() *Loader {
	return &Loader{
		catalog: make(map[owl.IRI]string),
		loaded:  make(map[string]*owl.Ontology),
		active:  make(map[string]bool),
	}
}

// Map adds a catalog entry routing an import IRI to a local file.
func (l *Loader) Map(iri owl.IRI, path string) {
	l.catalog[iri] = path
}

// SetFetcher installs a callback that downloads an ontology document and
// returns the local path it was saved to. Without a fetcher, unresolvable
// imports are left as bare import declarations.
func (l *Loader) SetFetcher(fetch func(iri owl.IRI) (string, error)) {
	l.fetch = fetch
}

// LoadFile parses an ontology document and recursively loads its imports.
func (l *Loader) LoadFile(path string) (*owl.Ontology, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if ont, ok := l.loaded[abs]; ok {
		return ont, nil
	}
	if l.active[abs] {
		return nil, fmt.Errorf("ontology import cycle through %s", path)
	}
	l.active[abs] = true
	defer delete(l.active, abs)

	timer := logging.StartTimer(logging.CategoryBoot, "load "+path)
	defer timer.Stop()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open ontology file %s: %w", path, err)
	}
	ont, err := Parse(f, "")
	f.Close()
	if err != nil {
		return nil, fmt.Errorf("cannot parse ontology file %s: %w", path, err)
	}
	l.loaded[abs] = ont

	for _, imp := range ont.DirectImports() {
		impPath, ok := l.catalog[imp]
		if !ok && l.fetch != nil {
			impPath, err = l.fetch(imp)
			if err != nil {
				return nil, fmt.Errorf("cannot fetch import <%s>: %w", imp, err)
			}
			l.catalog[imp] = impPath
			ok = true
		}
		if !ok {
			logging.ImportsWarn("import <%s> of %s has no local source; skipping load", imp, path)
			continue
		}
		imported, err := l.LoadFile(impPath)
		if err != nil {
			return nil, err
		}
		ont.AttachImport(imp, imported)
	}
	return ont, nil
}

// LoadFile parses a single ontology document with a fresh loader and no
// import catalog.
func LoadFile(path string) (*owl.Ontology, error) {
	return NewLoader().LoadFile(path)
}
