package build

import (
	"context"
	"fmt"
	"strings"

	"github.com/stuckyb/ontobuilder/internal/config"
	"github.com/stuckyb/ontobuilder/internal/importmod"
	"github.com/stuckyb/ontobuilder/internal/logging"
	"github.com/stuckyb/ontobuilder/internal/owl"
	"github.com/stuckyb/ontobuilder/internal/rdfxml"
)

// UpdateBaseTarget rewrites the base ontology's import declarations so they
// match the project's imported-ontologies table: declarations for modules no
// longer listed are removed, declarations for new modules are added. Only
// declarations under the project's imports base IRI are touched, so imports
// managed outside the project survive.
type UpdateBaseTarget struct {
	cfg *config.Config
}

// NewUpdateBaseTarget returns the update_base target.
func NewUpdateBaseTarget(cfg *config.Config) *UpdateBaseTarget {
	return &UpdateBaseTarget{cfg: cfg}
}

func (t *UpdateBaseTarget) Name() string { return "update_base" }

func (t *UpdateBaseTarget) Dependencies() []Target { return nil }

// moduleIRIs derives the module IRIs the base ontology should declare from
// the imported-ontologies table, without building anything.
func (t *UpdateBaseTarget) moduleIRIs() ([]owl.IRI, error) {
	specs, err := NewImportsTarget(t.cfg).specs()
	if err != nil {
		return nil, err
	}
	if len(specs) > 0 && t.cfg.ImportsBaseIRI == "" {
		return nil, fmt.Errorf("imports_base_iri must be set to update the base ontology")
	}
	builder := importmod.New(t.cfg.ImportsBaseIRI, t.cfg.ImportsDirPath())
	iris := make([]owl.IRI, len(specs))
	for i, spec := range specs {
		iris[i] = builder.ModuleIRI(spec.sourceIRI, ModuleSuffix)
	}
	return iris, nil
}

// IsBuildRequired reports whether the base ontology's declarations diverge
// from the imported-ontologies table.
func (t *UpdateBaseTarget) IsBuildRequired() (bool, error) {
	wanted, err := t.moduleIRIs()
	if err != nil {
		return false, err
	}
	base, err := rdfxml.LoadFile(t.cfg.BaseOntologyPath())
	if err != nil {
		return false, err
	}
	_, _, changed := diffImports(base, t.cfg.ImportsBaseIRI, wanted)
	return changed, nil
}

// Run applies the declaration changes and saves the base ontology in place.
func (t *UpdateBaseTarget) Run(ctx context.Context, deps Products) (Products, error) {
	wanted, err := t.moduleIRIs()
	if err != nil {
		return nil, err
	}
	basePath := t.cfg.BaseOntologyPath()
	base, err := rdfxml.LoadFile(basePath)
	if err != nil {
		return nil, err
	}

	add, remove, changed := diffImports(base, t.cfg.ImportsBaseIRI, wanted)
	if !changed {
		return Products{"base ontology file": basePath}, nil
	}
	for _, iri := range remove {
		base.RemoveImportDeclaration(iri)
		logging.Build("removed import declaration <%s> from the base ontology", iri)
	}
	for _, iri := range add {
		base.AddImportDeclaration(iri)
		logging.Build("added import declaration <%s> to the base ontology", iri)
	}

	if err := rdfxml.WriteFile(basePath, base); err != nil {
		return nil, err
	}
	return Products{"base ontology file": basePath}, nil
}

// diffImports compares the base ontology's declarations under baseIRI with
// the wanted module IRIs.
func diffImports(base *owl.Ontology, baseIRI string, wanted []owl.IRI) (add, remove []owl.IRI, changed bool) {
	wantedSet := make(map[owl.IRI]bool, len(wanted))
	for _, iri := range wanted {
		wantedSet[iri] = true
	}

	declared := make(map[owl.IRI]bool)
	for _, dec := range base.DirectImports() {
		if baseIRI != "" && !strings.HasPrefix(string(dec), baseIRI) {
			continue
		}
		declared[dec] = true
		if !wantedSet[dec] {
			remove = append(remove, dec)
		}
	}
	for _, iri := range wanted {
		if !declared[iri] {
			add = append(add, iri)
		}
	}
	return add, remove, len(add) > 0 || len(remove) > 0
}
