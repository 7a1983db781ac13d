package owl

import (
	"fmt"
	"sort"
)

// LabelMap maintains the mapping from rdfs:label text to term IRIs for an
// ontology and everything in its imports closure. Labels are normally
// unique; when two different terms carry the same label the map keeps both
// and reports the ambiguity on lookup.
type LabelMap struct {
	labels map[string]map[IRI]struct{}
}

// NewLabelMap returns an empty LabelMap.
func NewLabelMap() *LabelMap {
	return &LabelMap{labels: make(map[string]map[IRI]struct{})}
}

// Add records a label for a term IRI. Re-adding the same pair is a no-op.
func (m *LabelMap) Add(label string, iri IRI) {
	set, ok := m.labels[label]
	if !ok {
		set = make(map[IRI]struct{}, 1)
		m.labels[label] = set
	}
	set[iri] = struct{}{}
}

// Remove drops a label/IRI pair, if present.
func (m *LabelMap) Remove(label string, iri IRI) {
	if set, ok := m.labels[label]; ok {
		delete(set, iri)
		if len(set) == 0 {
			delete(m.labels, label)
		}
	}
}

// RemoveIRI drops every label pointing at the given IRI.
func (m *LabelMap) RemoveIRI(iri IRI) {
	for label, set := range m.labels {
		if _, ok := set[iri]; ok {
			delete(set, iri)
			if len(set) == 0 {
				delete(m.labels, label)
			}
		}
	}
}

// Lookup resolves a label to its term IRI. It returns an error when the
// label is unknown or maps to more than one term.
func (m *LabelMap) Lookup(label string) (IRI, error) {
	set, ok := m.labels[label]
	if !ok || len(set) == 0 {
		return "", fmt.Errorf("the label %q could not be matched to a term IRI", label)
	}
	if len(set) > 1 {
		iris := make([]string, 0, len(set))
		for iri := range set {
			iris = append(iris, string(iri))
		}
		sort.Strings(iris)
		return "", fmt.Errorf("the label %q is ambiguous: it is used by %d terms (%v)", label, len(set), iris)
	}
	for iri := range set {
		return iri, nil
	}
	return "", nil // unreachable
}

// Contains reports whether the label is known.
func (m *LabelMap) Contains(label string) bool {
	return len(m.labels[label]) > 0
}

// Len returns the number of distinct labels.
func (m *LabelMap) Len() int { return len(m.labels) }

// AddOntologyTerms scans an ontology's axioms for rdfs:label annotation
// assertions and adds each one to the map.
func (m *LabelMap) AddOntologyTerms(ont *Ontology) {
	for label, iri := range ont.labelAssertions() {
		for _, id := range iri {
			m.Add(label, id)
		}
	}
}
