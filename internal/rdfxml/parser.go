// Package rdfxml reads and writes OWL ontology documents in RDF/XML syntax.
// Parsing happens in two stages: the XML is first flattened to RDF triples,
// which are then assembled into the axiom model of the owl package.
package rdfxml

import (
	"encoding/xml"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/stuckyb/ontobuilder/internal/vocab"
)

type termKind int

const (
	termIRI termKind = iota
	termBlank
	termLiteral
)

// term is a single RDF term: an IRI, a blank node, or a literal.
type term struct {
	kind     termKind
	value    string // IRI, blank node ID, or literal text
	lang     string
	datatype string
}

func iriTerm(iri string) term     { return term{kind: termIRI, value: iri} }
func blankTerm(id string) term    { return term{kind: termBlank, value: id} }
func literalTerm(v, lang, dt string) term {
	return term{kind: termLiteral, value: v, lang: lang, datatype: dt}
}

// id returns a string that distinguishes IRIs from blank nodes, usable as a
// map key for subject indexing.
func (t term) id() string {
	if t.kind == termBlank {
		return "_:" + t.value
	}
	return t.value
}

type triple struct {
	s, p, o term
}

var (
	rdfRDF         = xml.Name{Space: vocab.RDF, Local: "RDF"}
	rdfDescription = xml.Name{Space: vocab.RDF, Local: "Description"}
)

// parser flattens an RDF/XML document into triples.
type parser struct {
	dec      *xml.Decoder
	base     *url.URL
	triples  []triple
	prefixes map[string]string
}

// parseTriples reads a complete RDF/XML document. base is used to resolve
// relative IRI references when the document carries no xml:base.
func parseTriples(r io.Reader, base string) (*parser, error) {
	p := &parser{
		dec:      xml.NewDecoder(r),
		prefixes: make(map[string]string),
	}
	if base != "" {
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("invalid base IRI %q: %w", base, err)
		}
		p.base = u
	}

	root, err := p.nextStart()
	if err != nil {
		return nil, err
	}
	if root == nil {
		return nil, fmt.Errorf("empty document")
	}
	if root.Name != rdfRDF {
		return nil, fmt.Errorf("unexpected document element <%s>; expected rdf:RDF", root.Name.Local)
	}
	p.captureAttrs(*root, "")

	for {
		tok, err := p.dec.Token()
		if err == io.EOF {
			return nil, fmt.Errorf("unexpected end of document")
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if _, err := p.parseNodeElement(t, ""); err != nil {
				return nil, err
			}
		case xml.EndElement:
			return p, nil
		}
	}
}

// nextStart skips to the first start element of the document.
func (p *parser) nextStart() (*xml.StartElement, error) {
	for {
		tok, err := p.dec.Token()
		if err == io.EOF {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		if s, ok := tok.(xml.StartElement); ok {
			return &s, nil
		}
	}
}

// captureAttrs records xmlns prefix bindings and xml:base from an element.
// Returns the effective language for the element's scope.
func (p *parser) captureAttrs(e xml.StartElement, lang string) string {
	for _, a := range e.Attr {
		switch {
		case a.Name.Space == "xmlns":
			p.prefixes[a.Name.Local] = a.Value
		case a.Name.Space == "" && a.Name.Local == "xmlns":
			// Default namespace; not a curie prefix.
		case a.Name.Space == "xml" && a.Name.Local == "base":
			if u, err := url.Parse(a.Value); err == nil {
				p.base = u
			}
		case a.Name.Space == "xml" && a.Name.Local == "lang":
			lang = a.Value
		}
	}
	return lang
}

// resolve expands a (possibly relative) IRI reference against the base.
func (p *parser) resolve(ref string) (string, error) {
	if p.base == nil {
		if ref == "" {
			return "", fmt.Errorf("relative IRI reference with no base IRI")
		}
		return ref, nil
	}
	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("invalid IRI reference %q: %w", ref, err)
	}
	return p.base.ResolveReference(u).String(), nil
}

func (p *parser) freshBlank() term {
	return blankTerm("genid-" + uuid.NewString())
}

func (p *parser) emit(s, pred, o term) {
	p.triples = append(p.triples, triple{s: s, p: pred, o: o})
}

func isRDFAttr(n xml.Name, local string) bool {
	return n.Space == vocab.RDF && n.Local == local
}

// parseNodeElement parses a node element (rdf:Description or a typed node)
// and returns the term identifying it.
func (p *parser) parseNodeElement(start xml.StartElement, lang string) (term, error) {
	lang = p.captureAttrs(start, lang)

	var subject term
	haveSubject := false
	for _, a := range start.Attr {
		switch {
		case isRDFAttr(a.Name, "about"):
			iri, err := p.resolve(a.Value)
			if err != nil {
				return term{}, err
			}
			subject, haveSubject = iriTerm(iri), true
		case isRDFAttr(a.Name, "ID"):
			iri, err := p.resolve("#" + a.Value)
			if err != nil {
				return term{}, err
			}
			subject, haveSubject = iriTerm(iri), true
		case isRDFAttr(a.Name, "nodeID"):
			subject, haveSubject = blankTerm(a.Value), true
		}
	}
	if !haveSubject {
		subject = p.freshBlank()
	}

	name := start.Name.Space + start.Name.Local
	if start.Name != rdfDescription {
		p.emit(subject, iriTerm(vocab.RDFType), iriTerm(name))
	}

	// Property attributes.
	for _, a := range start.Attr {
		if a.Name.Space == vocab.RDF || a.Name.Space == "xmlns" || a.Name.Space == "xml" ||
			a.Name.Local == "xmlns" {
			continue
		}
		if a.Name.Space == "" {
			continue
		}
		p.emit(subject, iriTerm(a.Name.Space+a.Name.Local), literalTerm(a.Value, lang, ""))
	}

	for {
		tok, err := p.dec.Token()
		if err != nil {
			return term{}, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if err := p.parsePropertyElement(subject, t, lang); err != nil {
				return term{}, err
			}
		case xml.EndElement:
			return subject, nil
		}
	}
}

// parsePropertyElement parses one property element of a node.
func (p *parser) parsePropertyElement(subject term, start xml.StartElement, lang string) error {
	lang = p.captureAttrs(start, lang)
	pred := iriTerm(start.Name.Space + start.Name.Local)

	var datatype, parseType string
	var object term
	haveObject := false
	for _, a := range start.Attr {
		switch {
		case isRDFAttr(a.Name, "resource"):
			iri, err := p.resolve(a.Value)
			if err != nil {
				return err
			}
			object, haveObject = iriTerm(iri), true
		case isRDFAttr(a.Name, "nodeID"):
			object, haveObject = blankTerm(a.Value), true
		case isRDFAttr(a.Name, "datatype"):
			datatype = a.Value
		case isRDFAttr(a.Name, "parseType"):
			parseType = a.Value
		}
	}

	if haveObject {
		p.emit(subject, pred, object)
		return p.dec.Skip()
	}

	switch parseType {
	case "Collection":
		return p.parseCollection(subject, pred, lang)
	case "Resource":
		blank := p.freshBlank()
		p.emit(subject, pred, blank)
		for {
			tok, err := p.dec.Token()
			if err != nil {
				return err
			}
			switch t := tok.(type) {
			case xml.StartElement:
				if err := p.parsePropertyElement(blank, t, lang); err != nil {
					return err
				}
			case xml.EndElement:
				return nil
			}
		}
	case "Literal":
		var text strings.Builder
		depth := 0
		for {
			tok, err := p.dec.Token()
			if err != nil {
				return err
			}
			switch t := tok.(type) {
			case xml.StartElement:
				depth++
			case xml.EndElement:
				if depth == 0 {
					p.emit(subject, pred, literalTerm(text.String(), "", vocab.RDF+"XMLLiteral"))
					return nil
				}
				depth--
			case xml.CharData:
				text.Write(t)
			}
		}
	}

	// Either a literal value or a nested node element.
	var text strings.Builder
	sawElement := false
	for {
		tok, err := p.dec.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			obj, err := p.parseNodeElement(t, lang)
			if err != nil {
				return err
			}
			p.emit(subject, pred, obj)
			sawElement = true
		case xml.CharData:
			text.Write(t)
		case xml.EndElement:
			if !sawElement {
				p.emit(subject, pred, literalTerm(text.String(), lang, datatype))
			}
			return nil
		}
	}
}

// parseCollection parses an rdf:parseType="Collection" property element,
// linking its node elements into an RDF list.
func (p *parser) parseCollection(subject, pred term, lang string) error {
	var items []term
	for {
		tok, err := p.dec.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			item, err := p.parseNodeElement(t, lang)
			if err != nil {
				return err
			}
			items = append(items, item)
		case xml.EndElement:
			if len(items) == 0 {
				p.emit(subject, pred, iriTerm(vocab.RDFNil))
				return nil
			}
			head := p.freshBlank()
			p.emit(subject, pred, head)
			cell := head
			for i, item := range items {
				p.emit(cell, iriTerm(vocab.RDFFirst), item)
				if i == len(items)-1 {
					p.emit(cell, iriTerm(vocab.RDFRest), iriTerm(vocab.RDFNil))
				} else {
					next := p.freshBlank()
					p.emit(cell, iriTerm(vocab.RDFRest), next)
					cell = next
				}
			}
			return nil
		}
	}
}
