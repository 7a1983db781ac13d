package owl

import (
	"fmt"
	"strings"
)

// EntityKind identifies the declaration type of an ontology entity.
type EntityKind int

const (
	ClassKind EntityKind = iota
	ObjectPropertyKind
	DataPropertyKind
	AnnotationPropertyKind
	IndividualKind
)

func (k EntityKind) String() string {
	switch k {
	case ClassKind:
		return "class"
	case ObjectPropertyKind:
		return "object property"
	case DataPropertyKind:
		return "data property"
	case AnnotationPropertyKind:
		return "annotation property"
	case IndividualKind:
		return "individual"
	}
	return fmt.Sprintf("EntityKind(%d)", int(k))
}

// Characteristic is an object property characteristic axiom type.
type Characteristic int

const (
	Functional Characteristic = iota
	InverseFunctional
	Reflexive
	Irreflexive
	Symmetric
	Asymmetric
	Transitive
)

var characteristicNames = map[string]Characteristic{
	"functional":         Functional,
	"inversefunctional":  InverseFunctional,
	"inverse functional": InverseFunctional,
	"reflexive":          Reflexive,
	"irreflexive":        Irreflexive,
	"symmetric":          Symmetric,
	"asymmetric":         Asymmetric,
	"transitive":         Transitive,
}

// ParseCharacteristic maps a characteristic name from a term table (case
// and space insensitive) to its constant.
func ParseCharacteristic(name string) (Characteristic, error) {
	c, ok := characteristicNames[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("unrecognized property characteristic: %q", name)
	}
	return c, nil
}

func (c Characteristic) String() string {
	switch c {
	case Functional:
		return "functional"
	case InverseFunctional:
		return "inverse functional"
	case Reflexive:
		return "reflexive"
	case Irreflexive:
		return "irreflexive"
	case Symmetric:
		return "symmetric"
	case Asymmetric:
		return "asymmetric"
	case Transitive:
		return "transitive"
	}
	return fmt.Sprintf("Characteristic(%d)", int(c))
}

// Literal is an RDF literal with optional language tag or datatype IRI.
type Literal struct {
	Value    string
	Lang     string
	Datatype IRI
}

// AnnotationValue is either an IRI or a Literal.
type AnnotationValue interface{ annotationValue() }

func (IRI) annotationValue()     {}
func (Literal) annotationValue() {}

// Annotation is a property/value pair attached to an entity, an axiom, or
// the ontology itself.
type Annotation struct {
	Property IRI
	Value    AnnotationValue
}

// Axiom is the interface satisfied by every axiom form in the model.
// Signature appends all entity IRIs the axiom mentions; Key returns a
// canonical string used for axiom deduplication.
type Axiom interface {
	Signature(dst []IRI) []IRI
	Key() string
}

// Annotated is implemented by axioms that can carry axiom annotations
// (used to mark inferred axioms).
type Annotated interface {
	Axiom
	Annotations() []Annotation
	WithAnnotations([]Annotation) Axiom
}

// Declaration declares an entity of a particular kind.
type Declaration struct {
	Kind    EntityKind
	Subject IRI
}

func (a Declaration) Signature(dst []IRI) []IRI { return append(dst, a.Subject) }
func (a Declaration) Key() string {
	return fmt.Sprintf("decl(%d,%s)", int(a.Kind), a.Subject)
}

// SubClassOf asserts Sub ⊑ Super. Sub is a named class in every axiom the
// term-table compiler produces, but merged ontologies may carry complex
// subexpressions on either side.
type SubClassOf struct {
	Sub    ClassExpression
	Super  ClassExpression
	Annots []Annotation
}

func (a SubClassOf) Signature(dst []IRI) []IRI { return a.Super.Signature(a.Sub.Signature(dst)) }
func (a SubClassOf) Key() string               { return "sub(" + a.Sub.Key() + "<" + a.Super.Key() + ")" }
func (a SubClassOf) Annotations() []Annotation { return a.Annots }
func (a SubClassOf) WithAnnotations(ann []Annotation) Axiom {
	a.Annots = ann
	return a
}

// EquivalentClasses asserts A ≡ B.
type EquivalentClasses struct {
	A, B   ClassExpression
	Annots []Annotation
}

func (a EquivalentClasses) Signature(dst []IRI) []IRI { return a.B.Signature(a.A.Signature(dst)) }
func (a EquivalentClasses) Key() string {
	keys := sortedKeys([]ClassExpression{a.A, a.B})
	return "equiv(" + strings.Join(keys, "=") + ")"
}
func (a EquivalentClasses) Annotations() []Annotation { return a.Annots }
func (a EquivalentClasses) WithAnnotations(ann []Annotation) Axiom {
	a.Annots = ann
	return a
}

// DisjointClasses asserts that A and B share no instances.
type DisjointClasses struct {
	A, B ClassExpression
}

func (a DisjointClasses) Signature(dst []IRI) []IRI { return a.B.Signature(a.A.Signature(dst)) }
func (a DisjointClasses) Key() string {
	keys := sortedKeys([]ClassExpression{a.A, a.B})
	return "disjoint(" + strings.Join(keys, "|") + ")"
}

// SubObjectPropertyOf asserts a subproperty relation between object
// properties.
type SubObjectPropertyOf struct {
	Sub, Super IRI
}

func (a SubObjectPropertyOf) Signature(dst []IRI) []IRI { return append(dst, a.Sub, a.Super) }
func (a SubObjectPropertyOf) Key() string {
	return fmt.Sprintf("subop(%s<%s)", a.Sub, a.Super)
}

// SubDataPropertyOf asserts a subproperty relation between data properties.
type SubDataPropertyOf struct {
	Sub, Super IRI
}

func (a SubDataPropertyOf) Signature(dst []IRI) []IRI { return append(dst, a.Sub, a.Super) }
func (a SubDataPropertyOf) Key() string {
	return fmt.Sprintf("subdp(%s<%s)", a.Sub, a.Super)
}

// SubAnnotationPropertyOf asserts a subproperty relation between annotation
// properties.
type SubAnnotationPropertyOf struct {
	Sub, Super IRI
}

func (a SubAnnotationPropertyOf) Signature(dst []IRI) []IRI { return append(dst, a.Sub, a.Super) }
func (a SubAnnotationPropertyOf) Key() string {
	return fmt.Sprintf("subap(%s<%s)", a.Sub, a.Super)
}

// ObjectPropertyDomain restricts the subjects of a property to a class.
type ObjectPropertyDomain struct {
	Property IRI
	Domain   ClassExpression
}

func (a ObjectPropertyDomain) Signature(dst []IRI) []IRI {
	return a.Domain.Signature(append(dst, a.Property))
}
func (a ObjectPropertyDomain) Key() string {
	return fmt.Sprintf("opdom(%s,%s)", a.Property, a.Domain.Key())
}

// ObjectPropertyRange restricts the objects of a property to a class.
type ObjectPropertyRange struct {
	Property IRI
	Range    ClassExpression
}

func (a ObjectPropertyRange) Signature(dst []IRI) []IRI {
	return a.Range.Signature(append(dst, a.Property))
}
func (a ObjectPropertyRange) Key() string {
	return fmt.Sprintf("oprng(%s,%s)", a.Property, a.Range.Key())
}

// DataPropertyDomain restricts the subjects of a data property to a class.
type DataPropertyDomain struct {
	Property IRI
	Domain   ClassExpression
}

func (a DataPropertyDomain) Signature(dst []IRI) []IRI {
	return a.Domain.Signature(append(dst, a.Property))
}
func (a DataPropertyDomain) Key() string {
	return fmt.Sprintf("dpdom(%s,%s)", a.Property, a.Domain.Key())
}

// DataPropertyRange restricts the values of a data property to a datatype.
type DataPropertyRange struct {
	Property IRI
	Datatype IRI
}

func (a DataPropertyRange) Signature(dst []IRI) []IRI {
	return append(dst, a.Property, a.Datatype)
}
func (a DataPropertyRange) Key() string {
	return fmt.Sprintf("dprng(%s,%s)", a.Property, a.Datatype)
}

// InverseObjectProperties asserts two object properties are inverses.
type InverseObjectProperties struct {
	First, Second IRI
}

func (a InverseObjectProperties) Signature(dst []IRI) []IRI {
	return append(dst, a.First, a.Second)
}
func (a InverseObjectProperties) Key() string {
	lo, hi := a.First, a.Second
	if hi < lo {
		lo, hi = hi, lo
	}
	return fmt.Sprintf("inv(%s,%s)", lo, hi)
}

// DisjointObjectProperties asserts two object properties are disjoint.
type DisjointObjectProperties struct {
	First, Second IRI
}

func (a DisjointObjectProperties) Signature(dst []IRI) []IRI {
	return append(dst, a.First, a.Second)
}
func (a DisjointObjectProperties) Key() string {
	lo, hi := a.First, a.Second
	if hi < lo {
		lo, hi = hi, lo
	}
	return fmt.Sprintf("disjop(%s,%s)", lo, hi)
}

// DisjointDataProperties asserts two data properties are disjoint.
type DisjointDataProperties struct {
	First, Second IRI
}

func (a DisjointDataProperties) Signature(dst []IRI) []IRI {
	return append(dst, a.First, a.Second)
}
func (a DisjointDataProperties) Key() string {
	lo, hi := a.First, a.Second
	if hi < lo {
		lo, hi = hi, lo
	}
	return fmt.Sprintf("disjdp(%s,%s)", lo, hi)
}

// ObjectPropertyCharacteristic asserts a characteristic (functional,
// transitive, ...) of an object property.
type ObjectPropertyCharacteristic struct {
	Property       IRI
	Characteristic Characteristic
}

func (a ObjectPropertyCharacteristic) Signature(dst []IRI) []IRI { return append(dst, a.Property) }
func (a ObjectPropertyCharacteristic) Key() string {
	return fmt.Sprintf("char(%s,%d)", a.Property, int(a.Characteristic))
}

// FunctionalDataProperty asserts that a data property is functional.
type FunctionalDataProperty struct {
	Property IRI
}

func (a FunctionalDataProperty) Signature(dst []IRI) []IRI { return append(dst, a.Property) }
func (a FunctionalDataProperty) Key() string {
	return fmt.Sprintf("funcdp(%s)", a.Property)
}

// ClassAssertion asserts that an individual is an instance of a class
// expression.
type ClassAssertion struct {
	Individual IRI
	Class      ClassExpression
	Annots     []Annotation
}

func (a ClassAssertion) Signature(dst []IRI) []IRI {
	return a.Class.Signature(append(dst, a.Individual))
}
func (a ClassAssertion) Key() string {
	return fmt.Sprintf("type(%s:%s)", a.Individual, a.Class.Key())
}
func (a ClassAssertion) Annotations() []Annotation { return a.Annots }
func (a ClassAssertion) WithAnnotations(ann []Annotation) Axiom {
	a.Annots = ann
	return a
}

// ObjectPropertyAssertion relates two individuals via an object property.
type ObjectPropertyAssertion struct {
	Subject  IRI
	Property IRI
	Object   IRI
}

func (a ObjectPropertyAssertion) Signature(dst []IRI) []IRI {
	return append(dst, a.Subject, a.Property, a.Object)
}
func (a ObjectPropertyAssertion) Key() string {
	return fmt.Sprintf("oprop(%s,%s,%s)", a.Subject, a.Property, a.Object)
}

// DataPropertyAssertion gives an individual a literal value for a data
// property.
type DataPropertyAssertion struct {
	Subject  IRI
	Property IRI
	Value    Literal
}

func (a DataPropertyAssertion) Signature(dst []IRI) []IRI {
	return append(dst, a.Subject, a.Property)
}
func (a DataPropertyAssertion) Key() string {
	return fmt.Sprintf("dprop(%s,%s,%s@%s^%s)", a.Subject, a.Property, a.Value.Value, a.Value.Lang, a.Value.Datatype)
}

// AnnotationAssertion attaches an annotation to an entity IRI.
type AnnotationAssertion struct {
	Subject  IRI
	Property IRI
	Value    AnnotationValue
}

func (a AnnotationAssertion) Signature(dst []IRI) []IRI {
	return append(dst, a.Subject, a.Property)
}
func (a AnnotationAssertion) Key() string {
	switch v := a.Value.(type) {
	case IRI:
		return fmt.Sprintf("annot(%s,%s,<%s>)", a.Subject, a.Property, v)
	case Literal:
		return fmt.Sprintf("annot(%s,%s,%s@%s^%s)", a.Subject, a.Property, v.Value, v.Lang, v.Datatype)
	}
	return fmt.Sprintf("annot(%s,%s,?)", a.Subject, a.Property)
}
