// Package owlbuilder compiles term table rows into ontology entities and
// axioms. Entities and their labels are created as rows arrive; all other
// axioms are deferred until every source file has been read, so term
// descriptions may reference labels defined later or in other files.
package owlbuilder

import (
	"strings"

	"github.com/stuckyb/ontobuilder/internal/logging"
	"github.com/stuckyb/ontobuilder/internal/mparser"
	"github.com/stuckyb/ontobuilder/internal/owl"
	"github.com/stuckyb/ontobuilder/internal/tablereader"
)

// RequiredCols are the columns every term table must provide.
var RequiredCols = []string{"Type", "ID"}

// OptionalCols are the columns a term table may provide. Missing optional
// columns read as empty without a warning.
var OptionalCols = []string{
	"Comments", "Parent", "Subclass of", "Equivalent to", "Disjoint with",
	"Inverse", "Characteristics", "Ignore", "Label", "Definition",
	"Synonyms", "Domain", "Range", "Instance of",
}

type deferredEntity struct {
	kind owl.EntityKind
	iri  owl.IRI
	row  tablereader.Row
}

// Builder accumulates term rows against an ontology.
type Builder struct {
	ont      *owl.Ontology
	deferred []deferredEntity
}

// New returns a Builder that compiles rows into the given ontology.
func New(ont *owl.Ontology) *Builder {
	return &Builder{ont: ont}
}

// Ontology returns the ontology under construction.
func (b *Builder) Ontology() *owl.Ontology { return b.ont }

// AddRow dispatches a term row by its "Type" column. Rows whose "Ignore"
// column is affirmative are skipped. Spaces in the type string are collapsed
// so that "DataProperty" and "Data Property" both work.
func (b *Builder) AddRow(row tablereader.Row) error {
	ignore, err := row.Get("Ignore")
	if err != nil {
		return err
	}
	if tablereader.IsTrueString(ignore) {
		return nil
	}

	typestr, err := row.Get("Type")
	if err != nil {
		return err
	}
	switch strings.ReplaceAll(strings.ToLower(typestr), " ", "") {
	case "class":
		return b.AddClass(row)
	case "dataproperty":
		return b.AddDataProperty(row)
	case "objectproperty":
		return b.AddObjectProperty(row)
	case "annotationproperty":
		return b.AddAnnotationProperty(row)
	case "individual":
		return b.AddIndividual(row)
	case "":
		return row.Context.Errorf(`the entity type (e.g., "class", "data property") was not specified`)
	}
	return row.Context.Errorf("the entity type %q is not supported", typestr)
}

// addEntity creates the entity and its label and queues the row for
// deferred axiom processing.
func (b *Builder) addEntity(kind owl.EntityKind, row tablereader.Row) (*owl.Entity, error) {
	id, err := row.Get("ID")
	if err != nil {
		return nil, err
	}
	if id == "" {
		return nil, row.Context.Errorf("no ID was provided for the new %s", kind)
	}

	var ent *owl.Entity
	switch kind {
	case owl.ClassKind:
		c, err := b.ont.CreateNewClass(id)
		if err != nil {
			return nil, row.Context.Errorf("%v", err)
		}
		ent = &c.Entity
	case owl.ObjectPropertyKind:
		p, err := b.ont.CreateNewObjectProperty(id)
		if err != nil {
			return nil, row.Context.Errorf("%v", err)
		}
		ent = &p.Entity
	case owl.DataPropertyKind:
		p, err := b.ont.CreateNewDataProperty(id)
		if err != nil {
			return nil, row.Context.Errorf("%v", err)
		}
		ent = &p.Entity
	case owl.AnnotationPropertyKind:
		p, err := b.ont.CreateNewAnnotationProperty(id)
		if err != nil {
			return nil, row.Context.Errorf("%v", err)
		}
		ent = &p.Entity
	case owl.IndividualKind:
		i, err := b.ont.CreateNewIndividual(id)
		if err != nil {
			return nil, row.Context.Errorf("%v", err)
		}
		ent = &i.Entity
	}

	label, err := row.Get("Label")
	if err != nil {
		return nil, err
	}
	if label != "" {
		if err := ent.AddLabel(label); err != nil {
			return nil, row.Context.Errorf("%v", err)
		}
	}

	b.deferred = append(b.deferred, deferredEntity{kind: kind, iri: ent.IRI(), row: row})
	return ent, nil
}

// AddClass defines a new class from a term row.
func (b *Builder) AddClass(row tablereader.Row) error {
	_, err := b.addEntity(owl.ClassKind, row)
	return err
}

// AddDataProperty defines a new data property from a term row.
func (b *Builder) AddDataProperty(row tablereader.Row) error {
	_, err := b.addEntity(owl.DataPropertyKind, row)
	return err
}

// AddObjectProperty defines a new object property from a term row.
func (b *Builder) AddObjectProperty(row tablereader.Row) error {
	_, err := b.addEntity(owl.ObjectPropertyKind, row)
	return err
}

// AddAnnotationProperty defines a new annotation property from a term row.
func (b *Builder) AddAnnotationProperty(row tablereader.Row) error {
	_, err := b.addEntity(owl.AnnotationPropertyKind, row)
	return err
}

// AddIndividual defines a new named individual from a term row.
func (b *Builder) AddIndividual(row tablereader.Row) error {
	_, err := b.addEntity(owl.IndividualKind, row)
	return err
}

// ProcessDeferredAxioms defines all remaining axioms from the queued term
// rows. When expandDefs is true, term references in definition texts are
// expanded with the referenced term's ID.
func (b *Builder) ProcessDeferredAxioms(expandDefs bool) error {
	timer := logging.StartTimer(logging.CategoryBuild, "deferred axiom processing")
	defer timer.Stop()

	for _, d := range b.deferred {
		var err error
		switch d.kind {
		case owl.ClassKind:
			err = b.processClassRow(d)
		case owl.ObjectPropertyKind:
			err = b.processObjectPropertyRow(d)
		case owl.DataPropertyKind:
			err = b.processDataPropertyRow(d)
		case owl.AnnotationPropertyKind:
			err = b.processAnnotationPropertyRow(d)
		case owl.IndividualKind:
			err = b.processIndividualRow(d)
		}
		if err != nil {
			return err
		}
		if err := b.processCommonColumns(d, expandDefs); err != nil {
			return err
		}
	}
	b.deferred = nil
	return nil
}

// processCommonColumns handles the annotation columns shared by all entity
// kinds: Definition, Comments, and Synonyms.
func (b *Builder) processCommonColumns(d deferredEntity, expandDefs bool) error {
	ent, err := b.ont.GetExistingEntity(string(d.iri))
	if err != nil || ent == nil {
		return d.row.Context.Errorf("entity %s disappeared during compilation", d.iri)
	}

	def, err := d.row.Get("Definition")
	if err != nil {
		return err
	}
	if def != "" {
		if expandDefs {
			def, err = b.expandDefinition(def)
			if err != nil {
				return d.row.Context.Errorf("%v", err)
			}
		}
		if err := ent.AddDefinition(def); err != nil {
			return d.row.Context.Errorf("%v", err)
		}
	}

	comments, err := d.row.Get("Comments")
	if err != nil {
		return err
	}
	for _, comment := range splitList(comments) {
		if err := ent.AddComment(comment); err != nil {
			return d.row.Context.Errorf("%v", err)
		}
	}

	synonyms, err := d.row.Get("Synonyms")
	if err != nil {
		return err
	}
	for _, syn := range splitList(synonyms) {
		if err := ent.AddSynonym(syn); err != nil {
			return d.row.Context.Errorf("%v", err)
		}
	}
	return nil
}

func (b *Builder) processClassRow(d deferredEntity) error {
	cls, err := b.ont.GetExistingClass(string(d.iri))
	if err != nil || cls == nil {
		return d.row.Context.Errorf("class %s disappeared during compilation", d.iri)
	}

	parent, err := d.row.Get("Parent")
	if err != nil {
		return err
	}
	if parent != "" {
		if err := cls.AddSuperclass(parent); err != nil {
			return d.row.Context.Errorf("%v", err)
		}
	}

	exprCols := []struct {
		col string
		add func(owl.ClassExpression) error
	}{
		{"Subclass of", cls.AddSubclassOf},
		{"Equivalent to", cls.AddEquivalentTo},
		{"Disjoint with", cls.AddDisjointWith},
	}
	for _, ec := range exprCols {
		val, err := d.row.Get(ec.col)
		if err != nil {
			return err
		}
		exprs, err := mparser.ParseList(val, b.ont)
		if err != nil {
			return d.row.Context.Errorf("invalid class expression in column %q: %v", ec.col, err)
		}
		for _, expr := range exprs {
			if err := ec.add(expr); err != nil {
				return d.row.Context.Errorf("%v", err)
			}
		}
	}
	return nil
}

func (b *Builder) processObjectPropertyRow(d deferredEntity) error {
	prop, err := b.ont.GetExistingObjectProperty(string(d.iri))
	if err != nil || prop == nil {
		return d.row.Context.Errorf("object property %s disappeared during compilation", d.iri)
	}

	parent, err := d.row.Get("Parent")
	if err != nil {
		return err
	}
	if parent != "" {
		if err := prop.AddSuperproperty(parent); err != nil {
			return d.row.Context.Errorf("%v", err)
		}
	}

	domain, err := d.row.Get("Domain")
	if err != nil {
		return err
	}
	exprs, err := mparser.ParseList(domain, b.ont)
	if err != nil {
		return d.row.Context.Errorf("invalid domain expression: %v", err)
	}
	for _, expr := range exprs {
		if err := b.ont.AddTermAxiom(owl.ObjectPropertyDomain{Property: d.iri, Domain: expr}); err != nil {
			return d.row.Context.Errorf("%v", err)
		}
	}

	rng, err := d.row.Get("Range")
	if err != nil {
		return err
	}
	exprs, err = mparser.ParseList(rng, b.ont)
	if err != nil {
		return d.row.Context.Errorf("invalid range expression: %v", err)
	}
	for _, expr := range exprs {
		if err := b.ont.AddTermAxiom(owl.ObjectPropertyRange{Property: d.iri, Range: expr}); err != nil {
			return d.row.Context.Errorf("%v", err)
		}
	}

	inverse, err := d.row.Get("Inverse")
	if err != nil {
		return err
	}
	if inverse != "" {
		if err := prop.SetInverse(inverse); err != nil {
			return d.row.Context.Errorf("%v", err)
		}
	}

	disjoint, err := d.row.Get("Disjoint with")
	if err != nil {
		return err
	}
	for _, id := range splitList(disjoint) {
		if err := prop.SetDisjointWith(id); err != nil {
			return d.row.Context.Errorf("%v", err)
		}
	}

	chars, err := d.row.Get("Characteristics")
	if err != nil {
		return err
	}
	for _, name := range splitCommaList(chars) {
		c, err := owl.ParseCharacteristic(name)
		if err != nil {
			return d.row.Context.Errorf("%v", err)
		}
		if err := prop.SetCharacteristic(c); err != nil {
			return d.row.Context.Errorf("%v", err)
		}
	}
	return nil
}

func (b *Builder) processDataPropertyRow(d deferredEntity) error {
	prop, err := b.ont.GetExistingDataProperty(string(d.iri))
	if err != nil || prop == nil {
		return d.row.Context.Errorf("data property %s disappeared during compilation", d.iri)
	}

	parent, err := d.row.Get("Parent")
	if err != nil {
		return err
	}
	if parent != "" {
		if err := prop.AddSuperproperty(parent); err != nil {
			return d.row.Context.Errorf("%v", err)
		}
	}

	domain, err := d.row.Get("Domain")
	if err != nil {
		return err
	}
	for _, id := range splitList(domain) {
		if err := prop.AddDomain(id); err != nil {
			return d.row.Context.Errorf("%v", err)
		}
	}

	rng, err := d.row.Get("Range")
	if err != nil {
		return err
	}
	for _, id := range splitList(rng) {
		if err := prop.AddRange(id); err != nil {
			return d.row.Context.Errorf("%v", err)
		}
	}

	disjoint, err := d.row.Get("Disjoint with")
	if err != nil {
		return err
	}
	for _, id := range splitList(disjoint) {
		if err := prop.AddDisjointWith(id); err != nil {
			return d.row.Context.Errorf("%v", err)
		}
	}

	chars, err := d.row.Get("Characteristics")
	if err != nil {
		return err
	}
	for _, name := range splitCommaList(chars) {
		c, err := owl.ParseCharacteristic(name)
		if err != nil {
			return d.row.Context.Errorf("%v", err)
		}
		if c != owl.Functional {
			return d.row.Context.Errorf("invalid data property characteristic: %q", name)
		}
		if err := prop.MakeFunctional(); err != nil {
			return d.row.Context.Errorf("%v", err)
		}
	}
	return nil
}

func (b *Builder) processAnnotationPropertyRow(d deferredEntity) error {
	prop, err := b.ont.GetExistingAnnotationProperty(string(d.iri))
	if err != nil || prop == nil {
		return d.row.Context.Errorf("annotation property %s disappeared during compilation", d.iri)
	}

	parent, err := d.row.Get("Parent")
	if err != nil {
		return err
	}
	if parent != "" {
		if err := prop.AddSuperproperty(parent); err != nil {
			return d.row.Context.Errorf("%v", err)
		}
	}
	return nil
}

func (b *Builder) processIndividualRow(d deferredEntity) error {
	ind, err := b.ont.GetExistingIndividual(string(d.iri))
	if err != nil || ind == nil {
		return d.row.Context.Errorf("individual %s disappeared during compilation", d.iri)
	}

	types, err := d.row.Get("Instance of")
	if err != nil {
		return err
	}
	exprs, err := mparser.ParseList(types, b.ont)
	if err != nil {
		return d.row.Context.Errorf("invalid class expression in column %q: %v", "Instance of", err)
	}
	for _, expr := range exprs {
		if err := ind.AddType(expr); err != nil {
			return d.row.Context.Errorf("%v", err)
		}
	}
	return nil
}

// splitList splits a semicolon-separated cell value, dropping empty
// segments.
func splitList(s string) []string {
	return splitOn(s, ";")
}

// splitCommaList splits a comma-separated cell value.
func splitCommaList(s string) []string {
	return splitOn(s, ",")
}

func splitOn(s, sep string) []string {
	var out []string
	for _, part := range strings.Split(s, sep) {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
