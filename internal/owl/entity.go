package owl

import (
	"fmt"
	"strings"

	"github.com/stuckyb/ontobuilder/internal/vocab"
)

// Entity is a handle to a declared ontology entity. Handles are obtained
// from the GetExisting* and CreateNew* methods of Ontology and provide the
// high-level term operations used by the term-table compiler.
type Entity struct {
	iri  IRI
	kind EntityKind
	ont  *Ontology
}

// IRI returns the entity's IRI.
func (e *Entity) IRI() IRI { return e.iri }

// Kind returns the entity's declaration kind.
func (e *Entity) Kind() EntityKind { return e.kind }

// AddLabel adds an rdfs:label annotation (language-tagged "en").
func (e *Entity) AddLabel(text string) error {
	return e.ont.AddTermAxiom(AnnotationAssertion{
		Subject:  e.iri,
		Property: IRI(vocab.RDFSLabel),
		Value:    Literal{Value: strings.TrimSpace(text), Lang: "en"},
	})
}

// AddDefinition adds a definition annotation (IAO:0000115).
func (e *Entity) AddDefinition(text string) error {
	return e.ont.AddTermAxiom(AnnotationAssertion{
		Subject:  e.iri,
		Property: IRI(vocab.IAODefinition),
		Value:    Literal{Value: strings.TrimSpace(text)},
	})
}

// AddComment adds an rdfs:comment annotation (language-tagged "en").
func (e *Entity) AddComment(text string) error {
	return e.ont.AddTermAxiom(AnnotationAssertion{
		Subject:  e.iri,
		Property: IRI(vocab.RDFSComment),
		Value:    Literal{Value: strings.TrimSpace(text), Lang: "en"},
	})
}

// AddSynonym adds an oboInOwl:hasSynonym annotation.
func (e *Entity) AddSynonym(text string) error {
	return e.ont.AddTermAxiom(AnnotationAssertion{
		Subject:  e.iri,
		Property: IRI(vocab.OBOHasSynonym),
		Value:    Literal{Value: strings.TrimSpace(text)},
	})
}

// AddAnnotation adds an arbitrary annotation assertion on the entity.
func (e *Entity) AddAnnotation(property IRI, value AnnotationValue) error {
	return e.ont.AddTermAxiom(AnnotationAssertion{Subject: e.iri, Property: property, Value: value})
}

// Class is a handle to an OWL class.
type Class struct{ Entity }

// ObjectProperty is a handle to an OWL object property.
type ObjectProperty struct{ Entity }

// DataProperty is a handle to an OWL data property.
type DataProperty struct{ Entity }

// AnnotationProperty is a handle to an OWL annotation property.
type AnnotationProperty struct{ Entity }

// Individual is a handle to an OWL named individual.
type Individual struct{ Entity }

// AddSuperclass asserts that this class is a subclass of the named parent,
// which must already be declared somewhere in the imports closure.
func (c *Class) AddSuperclass(parentID string) error {
	parentIRI, err := c.ont.ExpandIdentifier(parentID)
	if err != nil {
		return err
	}
	parent, err := c.ont.GetExistingClass(string(parentIRI))
	if err != nil {
		return err
	}
	if parent == nil {
		return fmt.Errorf("the designated superclass, %s, could not be found in the source ontology", parentID)
	}
	return c.ont.AddTermAxiom(SubClassOf{Sub: NamedClass{c.iri}, Super: NamedClass{parentIRI}})
}

// AddSubclassOf asserts this class as a subclass of a class expression.
func (c *Class) AddSubclassOf(expr ClassExpression) error {
	return c.ont.AddTermAxiom(SubClassOf{Sub: NamedClass{c.iri}, Super: expr})
}

// AddEquivalentTo asserts this class as equivalent to a class expression.
func (c *Class) AddEquivalentTo(expr ClassExpression) error {
	return c.ont.AddTermAxiom(EquivalentClasses{A: NamedClass{c.iri}, B: expr})
}

// AddDisjointWith asserts this class as disjoint with a class expression.
func (c *Class) AddDisjointWith(expr ClassExpression) error {
	return c.ont.AddTermAxiom(DisjointClasses{A: NamedClass{c.iri}, B: expr})
}

// AddSuperproperty asserts a parent object property, which must already be
// declared.
func (p *ObjectProperty) AddSuperproperty(parentID string) error {
	parentIRI, err := p.ont.ExpandIdentifier(parentID)
	if err != nil {
		return err
	}
	parent, err := p.ont.GetExistingObjectProperty(string(parentIRI))
	if err != nil {
		return err
	}
	if parent == nil {
		return fmt.Errorf("the designated superproperty, %s, could not be found in the source ontology", parentID)
	}
	return p.ont.AddTermAxiom(SubObjectPropertyOf{Sub: p.iri, Super: parentIRI})
}

// SetDomain sets the domain of this property. The domain class need not be
// declared yet: properties are often defined before the classes they apply
// to.
func (p *ObjectProperty) SetDomain(domainID string) error {
	iri, err := p.ont.ExpandIdentifier(domainID)
	if err != nil {
		return err
	}
	return p.ont.AddTermAxiom(ObjectPropertyDomain{Property: p.iri, Domain: NamedClass{iri}})
}

// SetRange sets the range of this property.
func (p *ObjectProperty) SetRange(rangeID string) error {
	iri, err := p.ont.ExpandIdentifier(rangeID)
	if err != nil {
		return err
	}
	return p.ont.AddTermAxiom(ObjectPropertyRange{Property: p.iri, Range: NamedClass{iri}})
}

// SetInverse asserts another object property as this property's inverse.
// The inverse need not be declared yet.
func (p *ObjectProperty) SetInverse(inverseID string) error {
	iri, err := p.ont.ExpandIdentifier(inverseID)
	if err != nil {
		return err
	}
	return p.ont.AddTermAxiom(InverseObjectProperties{First: p.iri, Second: iri})
}

// SetDisjointWith asserts this property as disjoint with another object
// property.
func (p *ObjectProperty) SetDisjointWith(propID string) error {
	iri, err := p.ont.ExpandIdentifier(propID)
	if err != nil {
		return err
	}
	return p.ont.AddTermAxiom(DisjointObjectProperties{First: p.iri, Second: iri})
}

// SetCharacteristic asserts an object property characteristic.
func (p *ObjectProperty) SetCharacteristic(c Characteristic) error {
	return p.ont.AddTermAxiom(ObjectPropertyCharacteristic{Property: p.iri, Characteristic: c})
}

// AddSuperproperty asserts a parent data property, which must already be
// declared.
func (p *DataProperty) AddSuperproperty(parentID string) error {
	parentIRI, err := p.ont.ExpandIdentifier(parentID)
	if err != nil {
		return err
	}
	parent, err := p.ont.GetExistingDataProperty(string(parentIRI))
	if err != nil {
		return err
	}
	if parent == nil {
		return fmt.Errorf("the designated superproperty, %s, could not be found in the source ontology", parentID)
	}
	return p.ont.AddTermAxiom(SubDataPropertyOf{Sub: p.iri, Super: parentIRI})
}

// AddDomain sets a domain class for this data property.
func (p *DataProperty) AddDomain(domainID string) error {
	iri, err := p.ont.ExpandIdentifier(domainID)
	if err != nil {
		return err
	}
	return p.ont.AddTermAxiom(DataPropertyDomain{Property: p.iri, Domain: NamedClass{iri}})
}

// AddRange sets a datatype range for this data property.
func (p *DataProperty) AddRange(datatypeID string) error {
	iri, err := p.ont.ExpandIdentifier(datatypeID)
	if err != nil {
		return err
	}
	return p.ont.AddTermAxiom(DataPropertyRange{Property: p.iri, Datatype: iri})
}

// AddDisjointWith asserts this property as disjoint with another data
// property.
func (p *DataProperty) AddDisjointWith(propID string) error {
	iri, err := p.ont.ExpandIdentifier(propID)
	if err != nil {
		return err
	}
	return p.ont.AddTermAxiom(DisjointDataProperties{First: p.iri, Second: iri})
}

// MakeFunctional asserts this data property as functional.
func (p *DataProperty) MakeFunctional() error {
	return p.ont.AddTermAxiom(FunctionalDataProperty{Property: p.iri})
}

// AddSuperproperty asserts a parent annotation property, which must already
// be declared.
func (p *AnnotationProperty) AddSuperproperty(parentID string) error {
	parentIRI, err := p.ont.ExpandIdentifier(parentID)
	if err != nil {
		return err
	}
	parent, err := p.ont.GetExistingAnnotationProperty(string(parentIRI))
	if err != nil {
		return err
	}
	if parent == nil {
		return fmt.Errorf("the designated superproperty, %s, could not be found in the source ontology", parentID)
	}
	return p.ont.AddTermAxiom(SubAnnotationPropertyOf{Sub: p.iri, Super: parentIRI})
}

// AddType asserts this individual as an instance of a class expression.
func (i *Individual) AddType(expr ClassExpression) error {
	return i.ont.AddTermAxiom(ClassAssertion{Individual: i.iri, Class: expr})
}

// AddObjectPropertyValue relates this individual to another via an object
// property.
func (i *Individual) AddObjectPropertyValue(propertyID, objectID string) error {
	prop, err := i.ont.ExpandIdentifier(propertyID)
	if err != nil {
		return err
	}
	obj, err := i.ont.ExpandIdentifier(objectID)
	if err != nil {
		return err
	}
	return i.ont.AddTermAxiom(ObjectPropertyAssertion{Subject: i.iri, Property: prop, Object: obj})
}

// getExisting resolves an identifier and returns a handle when an entity of
// the wanted kind is declared anywhere in the imports closure.
func (o *Ontology) getExisting(id string, kind EntityKind) (*Entity, error) {
	iri, err := o.ExpandIdentifier(id)
	if err != nil {
		return nil, err
	}
	if !o.findDeclaration(iri, kind) {
		return nil, nil
	}
	return &Entity{iri: iri, kind: kind, ont: o}, nil
}

// GetExistingClass returns a handle to a declared class, or nil if no such
// class exists in the imports closure.
func (o *Ontology) GetExistingClass(id string) (*Class, error) {
	e, err := o.getExisting(id, ClassKind)
	if e == nil || err != nil {
		return nil, err
	}
	return &Class{*e}, nil
}

// GetExistingObjectProperty returns a handle to a declared object property,
// or nil.
func (o *Ontology) GetExistingObjectProperty(id string) (*ObjectProperty, error) {
	e, err := o.getExisting(id, ObjectPropertyKind)
	if e == nil || err != nil {
		return nil, err
	}
	return &ObjectProperty{*e}, nil
}

// GetExistingDataProperty returns a handle to a declared data property, or
// nil.
func (o *Ontology) GetExistingDataProperty(id string) (*DataProperty, error) {
	e, err := o.getExisting(id, DataPropertyKind)
	if e == nil || err != nil {
		return nil, err
	}
	return &DataProperty{*e}, nil
}

// GetExistingAnnotationProperty returns a handle to a declared annotation
// property, or nil.
func (o *Ontology) GetExistingAnnotationProperty(id string) (*AnnotationProperty, error) {
	e, err := o.getExisting(id, AnnotationPropertyKind)
	if e == nil || err != nil {
		return nil, err
	}
	return &AnnotationProperty{*e}, nil
}

// GetExistingIndividual returns a handle to a declared named individual, or
// nil.
func (o *Ontology) GetExistingIndividual(id string) (*Individual, error) {
	e, err := o.getExisting(id, IndividualKind)
	if e == nil || err != nil {
		return nil, err
	}
	return &Individual{*e}, nil
}

// GetExistingProperty searches for a property of any kind: object, then
// annotation, then data properties, mirroring the lookup order used when
// compiling term tables.
func (o *Ontology) GetExistingProperty(id string) (*Entity, error) {
	iri, err := o.ExpandIdentifier(id)
	if err != nil {
		return nil, err
	}
	for _, kind := range []EntityKind{ObjectPropertyKind, AnnotationPropertyKind, DataPropertyKind} {
		if o.findDeclaration(iri, kind) {
			return &Entity{iri: iri, kind: kind, ont: o}, nil
		}
	}
	return nil, nil
}

// GetExistingEntity searches for any declared entity with the identifier:
// classes first, then properties, then individuals.
func (o *Ontology) GetExistingEntity(id string) (*Entity, error) {
	iri, err := o.ExpandIdentifier(id)
	if err != nil {
		return nil, err
	}
	if o.findDeclaration(iri, ClassKind) {
		return &Entity{iri: iri, kind: ClassKind, ont: o}, nil
	}
	if ent, err := o.GetExistingProperty(string(iri)); ent != nil || err != nil {
		return ent, err
	}
	if o.findDeclaration(iri, IndividualKind) {
		return &Entity{iri: iri, kind: IndividualKind, ont: o}, nil
	}
	return nil, nil
}

// createNew declares a new entity and returns its handle.
func (o *Ontology) createNew(id string, kind EntityKind) (*Entity, error) {
	iri, err := o.ExpandIdentifier(id)
	if err != nil {
		return nil, err
	}
	o.AddAxiom(Declaration{Kind: kind, Subject: iri})
	return &Entity{iri: iri, kind: kind, ont: o}, nil
}

// CreateNewClass declares a new class.
func (o *Ontology) CreateNewClass(id string) (*Class, error) {
	e, err := o.createNew(id, ClassKind)
	if err != nil {
		return nil, err
	}
	return &Class{*e}, nil
}

// CreateNewObjectProperty declares a new object property.
func (o *Ontology) CreateNewObjectProperty(id string) (*ObjectProperty, error) {
	e, err := o.createNew(id, ObjectPropertyKind)
	if err != nil {
		return nil, err
	}
	return &ObjectProperty{*e}, nil
}

// CreateNewDataProperty declares a new data property.
func (o *Ontology) CreateNewDataProperty(id string) (*DataProperty, error) {
	e, err := o.createNew(id, DataPropertyKind)
	if err != nil {
		return nil, err
	}
	return &DataProperty{*e}, nil
}

// CreateNewAnnotationProperty declares a new annotation property.
func (o *Ontology) CreateNewAnnotationProperty(id string) (*AnnotationProperty, error) {
	e, err := o.createNew(id, AnnotationPropertyKind)
	if err != nil {
		return nil, err
	}
	return &AnnotationProperty{*e}, nil
}

// CreateNewIndividual declares a new named individual.
func (o *Ontology) CreateNewIndividual(id string) (*Individual, error) {
	e, err := o.createNew(id, IndividualKind)
	if err != nil {
		return nil, err
	}
	return &Individual{*e}, nil
}
