package owl

import (
	"fmt"
	"strings"

	"github.com/stuckyb/ontobuilder/internal/vocab"
)

// Ontology is the in-memory representation of a single OWL ontology
// document: its ID, prefix table, imports, axioms, and a label map covering
// the imports closure.
type Ontology struct {
	iri        IRI
	versionIRI IRI

	prefixes    *PrefixMap
	annotations []Annotation

	importDecls []IRI
	imports     map[IRI]*Ontology

	axioms    []Axiom
	axiomKeys map[string]struct{}

	decls  map[IRI]EntityKind
	labels *LabelMap
}

// NewOntology creates an empty ontology. iri may be empty for anonymous
// ontologies (e.g. freshly initialized projects).
func NewOntology(iri IRI) *Ontology {
	base := ""
	if iri != "" {
		base = string(iri) + "#"
	}
	return &Ontology{
		iri:       iri,
		prefixes:  NewPrefixMap(base),
		imports:   make(map[IRI]*Ontology),
		axiomKeys: make(map[string]struct{}),
		decls:     make(map[IRI]EntityKind),
		labels:    NewLabelMap(),
	}
}

// IRI returns the ontology IRI (empty for anonymous ontologies).
func (o *Ontology) IRI() IRI { return o.iri }

// VersionIRI returns the ontology version IRI, if set.
func (o *Ontology) VersionIRI() IRI { return o.versionIRI }

// SetVersionIRI sets the ontology version IRI.
func (o *Ontology) SetVersionIRI(iri IRI) { o.versionIRI = iri }

// SetOntologyID sets the ontology IRI (the rdf:about of the owl:Ontology
// header) and updates the base namespace used for relative IRIs.
func (o *Ontology) SetOntologyID(id string) error {
	iri, err := o.ExpandIRI(id)
	if err != nil {
		return err
	}
	o.iri = iri
	if o.prefixes.Base() == "" {
		o.prefixes.SetBase(string(iri) + "#")
	}
	return nil
}

// Prefixes returns the ontology's prefix table.
func (o *Ontology) Prefixes() *PrefixMap { return o.prefixes }

// LabelMap returns the label lookup table for the imports closure.
func (o *Ontology) LabelMap() *LabelMap { return o.labels }

// Annotations returns the ontology-level annotations.
func (o *Ontology) Annotations() []Annotation { return o.annotations }

// AddAnnotation attaches an ontology-level annotation.
func (o *Ontology) AddAnnotation(a Annotation) { o.annotations = append(o.annotations, a) }

// SetOntologySource records the IRI this ontology was derived from as a
// dc:source ontology annotation.
func (o *Ontology) SetOntologySource(source IRI) {
	o.AddAnnotation(Annotation{Property: IRI(vocab.DCSource), Value: source})
}

// ExpandIRI expands an IRI string (full IRI, curie, or relative IRI) to a
// full IRI using the ontology's prefix table.
func (o *Ontology) ExpandIRI(s string) (IRI, error) {
	return o.prefixes.Expand(strings.TrimSpace(s))
}

// ExpandIdentifier converts a term identifier to a full IRI. The identifier
// may be an OBO ID ("PO:0000003"), a label in single quotes ("'whole
// plant'"), or anything ExpandIRI accepts.
func (o *Ontology) ExpandIdentifier(id string) (IRI, error) {
	id = strings.TrimSpace(id)
	if len(id) >= 2 && id[0] == '\'' && id[len(id)-1] == '\'' {
		return o.labels.Lookup(id[1 : len(id)-1])
	}
	if IsOboID(id) {
		return OboIDToIRI(id)
	}
	return o.ExpandIRI(id)
}

// LabelToIRI resolves a term label to its IRI.
func (o *Ontology) LabelToIRI(label string) (IRI, error) {
	return o.labels.Lookup(label)
}

// Axioms returns the ontology's axiom list. The returned slice is the
// live backing store; callers must not mutate it.
func (o *Ontology) Axioms() []Axiom { return o.axioms }

// AddAxiom appends an axiom, skipping exact duplicates. Declarations and
// label assertions update the entity and label indexes.
func (o *Ontology) AddAxiom(ax Axiom) {
	key := ax.Key()
	if _, dup := o.axiomKeys[key]; dup {
		return
	}
	o.axiomKeys[key] = struct{}{}
	o.axioms = append(o.axioms, ax)

	switch a := ax.(type) {
	case Declaration:
		o.decls[a.Subject] = a.Kind
	case AnnotationAssertion:
		if a.Property == IRI(vocab.RDFSLabel) {
			if lit, ok := a.Value.(Literal); ok {
				o.labels.Add(lit.Value, a.Subject)
			}
		}
	}
}

// AddTermAxiom adds an axiom whose subject is an ontology term. It is the
// checked entry point used by the term-table compiler: label annotations on
// anonymous subjects are rejected, and the label map stays in sync.
func (o *Ontology) AddTermAxiom(ax Axiom) error {
	if a, ok := ax.(AnnotationAssertion); ok && a.Property == IRI(vocab.RDFSLabel) {
		if a.Subject == "" {
			if lit, isLit := a.Value.(Literal); isLit {
				return fmt.Errorf("attempted to add the label %q as an annotation of an anonymous subject", lit.Value)
			}
			return fmt.Errorf("attempted to add a label annotation to an anonymous subject")
		}
	}
	o.AddAxiom(ax)
	return nil
}

// ContainsAxiom reports whether an equal axiom is already asserted.
func (o *Ontology) ContainsAxiom(ax Axiom) bool {
	_, ok := o.axiomKeys[ax.Key()]
	return ok
}

// DeclaredKind looks up the declaration kind of an entity in this ontology
// only (not its imports).
func (o *Ontology) DeclaredKind(iri IRI) (EntityKind, bool) {
	k, ok := o.decls[iri]
	return k, ok
}

// ImportsClosure returns this ontology followed by every loaded import,
// transitively, each ontology exactly once.
func (o *Ontology) ImportsClosure() []*Ontology {
	seen := map[*Ontology]struct{}{}
	var out []*Ontology
	var walk func(*Ontology)
	walk = func(ont *Ontology) {
		if _, ok := seen[ont]; ok {
			return
		}
		seen[ont] = struct{}{}
		out = append(out, ont)
		for _, imp := range ont.importDecls {
			if loaded, ok := ont.imports[imp]; ok {
				walk(loaded)
			}
		}
	}
	walk(o)
	return out
}

// DirectImports returns the IRIs of the ontology's import declarations.
func (o *Ontology) DirectImports() []IRI {
	out := make([]IRI, len(o.importDecls))
	copy(out, o.importDecls)
	return out
}

// AddImportDeclaration records an owl:imports declaration. It returns false
// if the declaration was already present.
func (o *Ontology) AddImportDeclaration(iri IRI) bool {
	for _, existing := range o.importDecls {
		if existing == iri {
			return false
		}
	}
	o.importDecls = append(o.importDecls, iri)
	return true
}

// RemoveImportDeclaration drops an owl:imports declaration and any loaded
// document attached to it. It returns false if the declaration was not
// present.
func (o *Ontology) RemoveImportDeclaration(iri IRI) bool {
	for i, existing := range o.importDecls {
		if existing == iri {
			o.importDecls = append(o.importDecls[:i], o.importDecls[i+1:]...)
			delete(o.imports, iri)
			return true
		}
	}
	return false
}

// AttachImport associates a loaded ontology document with an import
// declaration and folds its term labels into the label map.
func (o *Ontology) AttachImport(iri IRI, imported *Ontology) {
	o.AddImportDeclaration(iri)
	o.imports[iri] = imported
	o.labels.AddOntologyTerms(imported)
}

// LoadedImport returns the loaded document for an import declaration.
func (o *Ontology) LoadedImport(iri IRI) (*Ontology, bool) {
	imp, ok := o.imports[iri]
	return imp, ok
}

// MergeOntology merges all axioms from another ontology directly into this
// one. If the merged ontology was declared as an import, the import
// declaration is removed (its axioms are now asserted locally); otherwise
// the merged ontology's labels are added to the label map.
func (o *Ontology) MergeOntology(source *Ontology) {
	for _, ax := range source.axioms {
		o.AddAxiom(ax)
	}

	wasImported := false
	kept := o.importDecls[:0]
	for _, dec := range o.importDecls {
		if dec == source.iri && source.iri != "" {
			wasImported = true
			delete(o.imports, dec)
			continue
		}
		kept = append(kept, dec)
	}
	o.importDecls = kept

	if !wasImported {
		o.labels.AddOntologyTerms(source)
	}
}

// RemoveEntity removes an entity from the ontology and its loaded imports:
// its declaration, every axiom mentioning it, and (optionally) every
// annotation assertion about it.
func (o *Ontology) RemoveEntity(iri IRI, removeAnnotations bool) {
	for _, ont := range o.ImportsClosure() {
		ont.removeEntityLocal(iri, removeAnnotations)
	}
	o.labels.RemoveIRI(iri)
}

func (o *Ontology) removeEntityLocal(iri IRI, removeAnnotations bool) {
	kept := o.axioms[:0]
	for _, ax := range o.axioms {
		drop := false
		if annot, ok := ax.(AnnotationAssertion); ok {
			drop = removeAnnotations && annot.Subject == iri
		} else {
			for _, sig := range ax.Signature(nil) {
				if sig == iri {
					drop = true
					break
				}
			}
		}
		if drop {
			delete(o.axiomKeys, ax.Key())
			continue
		}
		kept = append(kept, ax)
	}
	o.axioms = kept
	delete(o.decls, iri)
	o.labels.RemoveIRI(iri)
}

// labelAssertions collects label text → IRIs for this ontology only.
func (o *Ontology) labelAssertions() map[string][]IRI {
	out := make(map[string][]IRI)
	for _, ax := range o.axioms {
		if a, ok := ax.(AnnotationAssertion); ok && a.Property == IRI(vocab.RDFSLabel) {
			if lit, isLit := a.Value.(Literal); isLit {
				out[lit.Value] = append(out[lit.Value], a.Subject)
			}
		}
	}
	return out
}

// AnnotationsFor returns all annotation assertions whose subject is the
// given entity, across the imports closure.
func (o *Ontology) AnnotationsFor(iri IRI) []AnnotationAssertion {
	var out []AnnotationAssertion
	for _, ont := range o.ImportsClosure() {
		for _, ax := range ont.axioms {
			if a, ok := ax.(AnnotationAssertion); ok && a.Subject == iri {
				out = append(out, a)
			}
		}
	}
	return out
}

// LabelFor returns the first rdfs:label for an entity across the imports
// closure, or the empty string.
func (o *Ontology) LabelFor(iri IRI) string {
	for _, a := range o.AnnotationsFor(iri) {
		if a.Property == IRI(vocab.RDFSLabel) {
			if lit, ok := a.Value.(Literal); ok {
				return lit.Value
			}
		}
	}
	return ""
}

// findDeclaration searches the imports closure for a declaration of the
// given kind.
func (o *Ontology) findDeclaration(iri IRI, kind EntityKind) bool {
	for _, ont := range o.ImportsClosure() {
		if k, ok := ont.decls[iri]; ok && k == kind {
			return true
		}
	}
	return false
}

// entityKind searches the imports closure for any declaration of the IRI.
func (o *Ontology) entityKind(iri IRI) (EntityKind, bool) {
	for _, ont := range o.ImportsClosure() {
		if k, ok := ont.decls[iri]; ok {
			return k, true
		}
	}
	return 0, false
}
