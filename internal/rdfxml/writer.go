package rdfxml

import (
	"bufio"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/stuckyb/ontobuilder/internal/owl"
	"github.com/stuckyb/ontobuilder/internal/vocab"
)

// Write serializes an ontology to RDF/XML. Axioms are grouped by subject
// entity, in the order the subjects first appear in the axiom list, so
// repeated saves of the same ontology produce identical output.
func Write(out io.Writer, ont *owl.Ontology) error {
	w := &writer{
		w:    bufio.NewWriter(out),
		ont:  ont,
		byNS: make(map[string]string),
	}
	w.buildPrefixes()
	if err := w.writeDocument(); err != nil {
		return err
	}
	return w.w.Flush()
}

// WriteFile serializes an ontology to a file.
func WriteFile(path string, ont *owl.Ontology) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create ontology file %s: %w", path, err)
	}
	if err := Write(f, ont); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

type writer struct {
	w    *bufio.Writer
	ont  *owl.Ontology
	err  error
	byNS map[string]string // namespace -> prefix
	next int
}

type attr struct{ k, v string }

// buildPrefixes inverts the ontology's prefix table and registers extra
// namespaces for any property IRI that would otherwise have no qname.
func (w *writer) buildPrefixes() {
	// Standard prefixes first so they win over project-specific aliases.
	names := make([]string, 0, len(vocab.DefaultPrefixes))
	for name := range vocab.DefaultPrefixes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		w.byNS[vocab.DefaultPrefixes[name]] = name
	}
	ontNames := make([]string, 0)
	for name := range w.ont.Prefixes().All() {
		ontNames = append(ontNames, name)
	}
	sort.Strings(ontNames)
	for _, name := range ontNames {
		ns := w.ont.Prefixes().All()[name]
		if _, ok := w.byNS[ns]; !ok {
			w.byNS[ns] = name
		}
	}

	for _, a := range w.ont.Annotations() {
		w.ensureQName(string(a.Property))
	}
	for _, ax := range w.ont.Axioms() {
		switch a := ax.(type) {
		case owl.AnnotationAssertion:
			w.ensureQName(string(a.Property))
		case owl.ObjectPropertyAssertion:
			w.ensureQName(string(a.Property))
		case owl.DataPropertyAssertion:
			w.ensureQName(string(a.Property))
		}
		if ann, ok := ax.(owl.Annotated); ok {
			for _, a := range ann.Annotations() {
				w.ensureQName(string(a.Property))
			}
		}
	}
}

// ensureQName guarantees a prefix exists for the IRI's namespace.
func (w *writer) ensureQName(iri string) {
	if _, ok := w.splitQName(iri); ok {
		return
	}
	idx := strings.LastIndexAny(iri, "#/")
	if idx < 0 {
		return
	}
	ns := iri[:idx+1]
	w.next++
	w.byNS[ns] = fmt.Sprintf("ns%d", w.next)
}

// splitQName abbreviates an IRI to prefix:local form if a registered
// namespace covers it and the local part is a valid XML name.
func (w *writer) splitQName(iri string) (string, bool) {
	idx := strings.LastIndexAny(iri, "#/")
	if idx < 0 || idx == len(iri)-1 {
		return "", false
	}
	ns, local := iri[:idx+1], iri[idx+1:]
	prefix, ok := w.byNS[ns]
	if !ok {
		return "", false
	}
	if strings.ContainsAny(local, "/#:") {
		return "", false
	}
	return prefix + ":" + local, true
}

func (w *writer) qname(iri string) string {
	if q, ok := w.splitQName(iri); ok {
		return q
	}
	// Should not happen after buildPrefixes; fall back to the raw IRI.
	return iri
}

func esc(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

func (w *writer) printf(format string, args ...interface{}) {
	if w.err != nil {
		return
	}
	_, w.err = fmt.Fprintf(w.w, format, args...)
}

func (w *writer) indent(depth int) {
	w.printf("%s", strings.Repeat("    ", depth))
}

func (w *writer) attrs(attrs []attr) {
	for _, a := range attrs {
		w.printf(` %s="%s"`, a.k, esc(a.v))
	}
}

func (w *writer) open(depth int, name string, attrs ...attr) {
	w.indent(depth)
	w.printf("<%s", name)
	w.attrs(attrs)
	w.printf(">\n")
}

func (w *writer) close(depth int, name string) {
	w.indent(depth)
	w.printf("</%s>\n", name)
}

func (w *writer) empty(depth int, name string, attrs ...attr) {
	w.indent(depth)
	w.printf("<%s", name)
	w.attrs(attrs)
	w.printf("/>\n")
}

func (w *writer) text(depth int, name, content string, attrs ...attr) {
	w.indent(depth)
	w.printf("<%s", name)
	w.attrs(attrs)
	w.printf(">%s</%s>\n", esc(content), name)
}

func (w *writer) writeDocument() error {
	w.printf("<?xml version=\"1.0\"?>\n")

	rootAttrs := make([]attr, 0, len(w.byNS)+1)
	prefixes := make([]string, 0, len(w.byNS))
	nsFor := make(map[string]string, len(w.byNS))
	for ns, prefix := range w.byNS {
		prefixes = append(prefixes, prefix)
		nsFor[prefix] = ns
	}
	sort.Strings(prefixes)
	for _, prefix := range prefixes {
		rootAttrs = append(rootAttrs, attr{"xmlns:" + prefix, nsFor[prefix]})
	}
	if base := w.ont.Prefixes().Base(); base != "" {
		rootAttrs = append(rootAttrs, attr{"xml:base", base})
	}
	w.open(0, "rdf:RDF", rootAttrs...)

	w.writeHeader()
	w.writeSubjects()
	w.writeAnnotatedAxioms()

	w.close(0, "rdf:RDF")
	return w.err
}

func (w *writer) writeHeader() {
	var headerAttrs []attr
	if w.ont.IRI() != "" {
		headerAttrs = append(headerAttrs, attr{"rdf:about", string(w.ont.IRI())})
	}
	w.open(1, "owl:Ontology", headerAttrs...)
	if v := w.ont.VersionIRI(); v != "" {
		w.empty(2, "owl:versionIRI", attr{"rdf:resource", string(v)})
	}
	for _, imp := range w.ont.DirectImports() {
		w.empty(2, "owl:imports", attr{"rdf:resource", string(imp)})
	}
	for _, a := range w.ont.Annotations() {
		w.writeAnnotationValue(2, w.qname(string(a.Property)), a.Value)
	}
	w.close(1, "owl:Ontology")
}

func (w *writer) writeAnnotationValue(depth int, name string, v owl.AnnotationValue) {
	switch val := v.(type) {
	case owl.IRI:
		w.empty(depth, name, attr{"rdf:resource", string(val)})
	case owl.Literal:
		w.writeLiteral(depth, name, val)
	}
}

func (w *writer) writeLiteral(depth int, name string, lit owl.Literal) {
	var attrs []attr
	if lit.Lang != "" {
		attrs = append(attrs, attr{"xml:lang", lit.Lang})
	}
	if lit.Datatype != "" {
		attrs = append(attrs, attr{"rdf:datatype", string(lit.Datatype)})
	}
	w.text(depth, name, lit.Value, attrs...)
}

// subjectOf returns the entity IRI an axiom is grouped under, or "" when the
// axiom has no named subject.
func subjectOf(ax owl.Axiom) owl.IRI {
	switch a := ax.(type) {
	case owl.Declaration:
		return a.Subject
	case owl.SubClassOf:
		if nc, ok := a.Sub.(owl.NamedClass); ok {
			return nc.IRI
		}
	case owl.EquivalentClasses:
		if nc, ok := a.A.(owl.NamedClass); ok {
			return nc.IRI
		}
		if nc, ok := a.B.(owl.NamedClass); ok {
			return nc.IRI
		}
	case owl.DisjointClasses:
		if nc, ok := a.A.(owl.NamedClass); ok {
			return nc.IRI
		}
		if nc, ok := a.B.(owl.NamedClass); ok {
			return nc.IRI
		}
	case owl.SubObjectPropertyOf:
		return a.Sub
	case owl.SubDataPropertyOf:
		return a.Sub
	case owl.SubAnnotationPropertyOf:
		return a.Sub
	case owl.ObjectPropertyDomain:
		return a.Property
	case owl.ObjectPropertyRange:
		return a.Property
	case owl.DataPropertyDomain:
		return a.Property
	case owl.DataPropertyRange:
		return a.Property
	case owl.InverseObjectProperties:
		return a.First
	case owl.DisjointObjectProperties:
		return a.First
	case owl.DisjointDataProperties:
		return a.First
	case owl.ObjectPropertyCharacteristic:
		return a.Property
	case owl.FunctionalDataProperty:
		return a.Property
	case owl.ClassAssertion:
		return a.Individual
	case owl.ObjectPropertyAssertion:
		return a.Subject
	case owl.DataPropertyAssertion:
		return a.Subject
	case owl.AnnotationAssertion:
		return a.Subject
	}
	return ""
}

var kindElements = map[owl.EntityKind]string{
	owl.ClassKind:              "owl:Class",
	owl.ObjectPropertyKind:     "owl:ObjectProperty",
	owl.DataPropertyKind:       "owl:DatatypeProperty",
	owl.AnnotationPropertyKind: "owl:AnnotationProperty",
	owl.IndividualKind:         "owl:NamedIndividual",
}

func (w *writer) writeSubjects() {
	grouped := make(map[owl.IRI][]owl.Axiom)
	var order []owl.IRI
	for _, ax := range w.ont.Axioms() {
		s := subjectOf(ax)
		if s == "" {
			continue
		}
		if _, seen := grouped[s]; !seen {
			order = append(order, s)
		}
		grouped[s] = append(grouped[s], ax)
	}

	for _, subject := range order {
		element := "rdf:Description"
		if kind, ok := w.ont.DeclaredKind(subject); ok {
			element = kindElements[kind]
		}
		axioms := grouped[subject]
		if len(axioms) == 1 {
			if _, isDecl := axioms[0].(owl.Declaration); isDecl {
				w.empty(1, element, attr{"rdf:about", string(subject)})
				continue
			}
		}
		w.open(1, element, attr{"rdf:about", string(subject)})
		for _, ax := range axioms {
			w.writeAxiomBody(2, subject, ax)
		}
		w.close(1, element)
	}
}

// writeAxiomBody writes the property-element form of an axiom inside its
// subject's node element.
func (w *writer) writeAxiomBody(depth int, subject owl.IRI, ax owl.Axiom) {
	switch a := ax.(type) {
	case owl.Declaration:
		// Implied by the typed node element.
	case owl.SubClassOf:
		w.writeExpressionProperty(depth, "rdfs:subClassOf", a.Super)
	case owl.EquivalentClasses:
		w.writeExpressionProperty(depth, "owl:equivalentClass", otherOperand(subject, a.A, a.B))
	case owl.DisjointClasses:
		w.writeExpressionProperty(depth, "owl:disjointWith", otherOperand(subject, a.A, a.B))
	case owl.SubObjectPropertyOf:
		w.empty(depth, "rdfs:subPropertyOf", attr{"rdf:resource", string(a.Super)})
	case owl.SubDataPropertyOf:
		w.empty(depth, "rdfs:subPropertyOf", attr{"rdf:resource", string(a.Super)})
	case owl.SubAnnotationPropertyOf:
		w.empty(depth, "rdfs:subPropertyOf", attr{"rdf:resource", string(a.Super)})
	case owl.ObjectPropertyDomain:
		w.writeExpressionProperty(depth, "rdfs:domain", a.Domain)
	case owl.ObjectPropertyRange:
		w.writeExpressionProperty(depth, "rdfs:range", a.Range)
	case owl.DataPropertyDomain:
		w.writeExpressionProperty(depth, "rdfs:domain", a.Domain)
	case owl.DataPropertyRange:
		w.empty(depth, "rdfs:range", attr{"rdf:resource", string(a.Datatype)})
	case owl.InverseObjectProperties:
		w.empty(depth, "owl:inverseOf", attr{"rdf:resource", string(a.Second)})
	case owl.DisjointObjectProperties:
		w.empty(depth, "owl:propertyDisjointWith", attr{"rdf:resource", string(a.Second)})
	case owl.DisjointDataProperties:
		w.empty(depth, "owl:propertyDisjointWith", attr{"rdf:resource", string(a.Second)})
	case owl.ObjectPropertyCharacteristic:
		w.empty(depth, "rdf:type", attr{"rdf:resource", characteristicIRI(a.Characteristic)})
	case owl.FunctionalDataProperty:
		w.empty(depth, "rdf:type", attr{"rdf:resource", vocab.OWLFunctionalProperty})
	case owl.ClassAssertion:
		w.writeExpressionProperty(depth, "rdf:type", a.Class)
	case owl.ObjectPropertyAssertion:
		w.empty(depth, w.qname(string(a.Property)), attr{"rdf:resource", string(a.Object)})
	case owl.DataPropertyAssertion:
		w.writeLiteral(depth, w.qname(string(a.Property)), a.Value)
	case owl.AnnotationAssertion:
		w.writeAnnotationValue(depth, w.qname(string(a.Property)), a.Value)
	}
}

// otherOperand picks the operand that is not the grouping subject.
func otherOperand(subject owl.IRI, a, b owl.ClassExpression) owl.ClassExpression {
	if nc, ok := a.(owl.NamedClass); ok && nc.IRI == subject {
		return b
	}
	return a
}

func characteristicIRI(c owl.Characteristic) string {
	switch c {
	case owl.Functional:
		return vocab.OWLFunctionalProperty
	case owl.InverseFunctional:
		return vocab.OWLInverseFunctionalProperty
	case owl.Reflexive:
		return vocab.OWLReflexiveProperty
	case owl.Irreflexive:
		return vocab.OWLIrreflexiveProperty
	case owl.Symmetric:
		return vocab.OWLSymmetricProperty
	case owl.Asymmetric:
		return vocab.OWLAsymmetricProperty
	case owl.Transitive:
		return vocab.OWLTransitiveProperty
	}
	return ""
}

// writeExpressionProperty writes a property element whose value is a class
// expression: an rdf:resource attribute for named classes, a nested node
// element otherwise.
func (w *writer) writeExpressionProperty(depth int, name string, expr owl.ClassExpression) {
	if nc, ok := expr.(owl.NamedClass); ok {
		w.empty(depth, name, attr{"rdf:resource", string(nc.IRI)})
		return
	}
	w.open(depth, name)
	w.writeExpressionNode(depth+1, expr)
	w.close(depth, name)
}

// writeExpressionNode writes the node-element form of a class expression.
func (w *writer) writeExpressionNode(depth int, expr owl.ClassExpression) {
	switch e := expr.(type) {
	case owl.NamedClass:
		w.empty(depth, "rdf:Description", attr{"rdf:about", string(e.IRI)})
	case owl.ObjectIntersectionOf:
		w.open(depth, "owl:Class")
		w.open(depth+1, "owl:intersectionOf", attr{"rdf:parseType", "Collection"})
		for _, op := range e.Operands {
			w.writeExpressionNode(depth+2, op)
		}
		w.close(depth+1, "owl:intersectionOf")
		w.close(depth, "owl:Class")
	case owl.ObjectUnionOf:
		w.open(depth, "owl:Class")
		w.open(depth+1, "owl:unionOf", attr{"rdf:parseType", "Collection"})
		for _, op := range e.Operands {
			w.writeExpressionNode(depth+2, op)
		}
		w.close(depth+1, "owl:unionOf")
		w.close(depth, "owl:Class")
	case owl.ObjectComplementOf:
		w.open(depth, "owl:Class")
		w.writeExpressionProperty(depth+1, "owl:complementOf", e.Operand)
		w.close(depth, "owl:Class")
	case owl.ObjectSomeValuesFrom:
		w.open(depth, "owl:Restriction")
		w.empty(depth+1, "owl:onProperty", attr{"rdf:resource", string(e.Property)})
		w.writeExpressionProperty(depth+1, "owl:someValuesFrom", e.Filler)
		w.close(depth, "owl:Restriction")
	case owl.ObjectAllValuesFrom:
		w.open(depth, "owl:Restriction")
		w.empty(depth+1, "owl:onProperty", attr{"rdf:resource", string(e.Property)})
		w.writeExpressionProperty(depth+1, "owl:allValuesFrom", e.Filler)
		w.close(depth, "owl:Restriction")
	case owl.ObjectHasValue:
		w.open(depth, "owl:Restriction")
		w.empty(depth+1, "owl:onProperty", attr{"rdf:resource", string(e.Property)})
		w.empty(depth+1, "owl:hasValue", attr{"rdf:resource", string(e.Individual)})
		w.close(depth, "owl:Restriction")
	}
}

// writeAnnotatedAxioms emits owl:Axiom reification blocks for axioms that
// carry axiom annotations, such as the marker on inferred axioms.
func (w *writer) writeAnnotatedAxioms() {
	for _, ax := range w.ont.Axioms() {
		annotated, ok := ax.(owl.Annotated)
		if !ok || len(annotated.Annotations()) == 0 {
			continue
		}
		subject := subjectOf(ax)
		if subject == "" {
			continue
		}
		var predicate string
		var target owl.ClassExpression
		switch a := ax.(type) {
		case owl.SubClassOf:
			predicate = vocab.RDFSSubClassOf
			target = a.Super
		case owl.EquivalentClasses:
			predicate = vocab.OWLEquivalentClass
			target = otherOperand(subject, a.A, a.B)
		case owl.ClassAssertion:
			predicate = vocab.RDFType
			target = a.Class
		default:
			continue
		}

		w.open(1, "owl:Axiom")
		w.empty(2, "owl:annotatedSource", attr{"rdf:resource", string(subject)})
		w.empty(2, "owl:annotatedProperty", attr{"rdf:resource", predicate})
		w.writeExpressionProperty(2, "owl:annotatedTarget", target)
		for _, ann := range annotated.Annotations() {
			w.writeAnnotationValue(2, w.qname(string(ann.Property)), ann.Value)
		}
		w.close(1, "owl:Axiom")
	}
}
