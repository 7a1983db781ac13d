package owl

import (
	"sort"
	"strings"
)

// ClassExpression is the interface satisfied by all OWL class expression
// forms supported by the model: named classes, boolean combinations, and
// property restrictions.
type ClassExpression interface {
	// Key returns a canonical, order-independent string form of the
	// expression. Two expressions are semantically identical for the
	// purposes of deduplication and reasoner normalization iff their keys
	// are equal.
	Key() string

	// Signature appends every entity IRI mentioned by the expression.
	Signature(dst []IRI) []IRI

	// IsAnonymous reports whether the expression is anything other than a
	// named class.
	IsAnonymous() bool
}

// NamedClass is a class expression consisting of a single class IRI.
type NamedClass struct {
	IRI IRI
}

func (c NamedClass) Key() string              { return string(c.IRI) }
func (c NamedClass) Signature(dst []IRI) []IRI { return append(dst, c.IRI) }
func (c NamedClass) IsAnonymous() bool        { return false }

// ObjectIntersectionOf is the conjunction of two or more class expressions.
type ObjectIntersectionOf struct {
	Operands []ClassExpression
}

func (c ObjectIntersectionOf) Key() string {
	return "and(" + strings.Join(sortedKeys(c.Operands), ",") + ")"
}

func (c ObjectIntersectionOf) Signature(dst []IRI) []IRI {
	for _, op := range c.Operands {
		dst = op.Signature(dst)
	}
	return dst
}

func (c ObjectIntersectionOf) IsAnonymous() bool { return true }

// ObjectUnionOf is the disjunction of two or more class expressions.
type ObjectUnionOf struct {
	Operands []ClassExpression
}

func (c ObjectUnionOf) Key() string {
	return "or(" + strings.Join(sortedKeys(c.Operands), ",") + ")"
}

func (c ObjectUnionOf) Signature(dst []IRI) []IRI {
	for _, op := range c.Operands {
		dst = op.Signature(dst)
	}
	return dst
}

func (c ObjectUnionOf) IsAnonymous() bool { return true }

// ObjectComplementOf is the negation of a class expression.
type ObjectComplementOf struct {
	Operand ClassExpression
}

func (c ObjectComplementOf) Key() string               { return "not(" + c.Operand.Key() + ")" }
func (c ObjectComplementOf) Signature(dst []IRI) []IRI { return c.Operand.Signature(dst) }
func (c ObjectComplementOf) IsAnonymous() bool         { return true }

// ObjectSomeValuesFrom is an existential restriction on an object property.
type ObjectSomeValuesFrom struct {
	Property IRI
	Filler   ClassExpression
}

func (c ObjectSomeValuesFrom) Key() string {
	return "some(" + string(c.Property) + "," + c.Filler.Key() + ")"
}

func (c ObjectSomeValuesFrom) Signature(dst []IRI) []IRI {
	return c.Filler.Signature(append(dst, c.Property))
}

func (c ObjectSomeValuesFrom) IsAnonymous() bool { return true }

// ObjectAllValuesFrom is a universal restriction on an object property.
type ObjectAllValuesFrom struct {
	Property IRI
	Filler   ClassExpression
}

func (c ObjectAllValuesFrom) Key() string {
	return "only(" + string(c.Property) + "," + c.Filler.Key() + ")"
}

func (c ObjectAllValuesFrom) Signature(dst []IRI) []IRI {
	return c.Filler.Signature(append(dst, c.Property))
}

func (c ObjectAllValuesFrom) IsAnonymous() bool { return true }

// ObjectHasValue restricts an object property to a specific individual.
type ObjectHasValue struct {
	Property   IRI
	Individual IRI
}

func (c ObjectHasValue) Key() string {
	return "value(" + string(c.Property) + "," + string(c.Individual) + ")"
}

func (c ObjectHasValue) Signature(dst []IRI) []IRI {
	return append(dst, c.Property, c.Individual)
}

func (c ObjectHasValue) IsAnonymous() bool { return true }

func sortedKeys(ops []ClassExpression) []string {
	keys := make([]string, len(ops))
	for i, op := range ops {
		keys[i] = op.Key()
	}
	sort.Strings(keys)
	return keys
}
