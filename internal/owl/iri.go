// Package owl implements the in-memory OWL ontology model: IRIs, entities,
// class expressions, axioms, and the Ontology container that ties them
// together with a label lookup table.
package owl

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/stuckyb/ontobuilder/internal/vocab"
)

// IRI is an absolute internationalized resource identifier.
type IRI string

func (i IRI) String() string { return string(i) }

// Fragment returns the part of the IRI after the last '#' or '/', which is
// what prefix abbreviation and OBO ID recovery operate on.
func (i IRI) Fragment() string {
	s := string(i)
	if idx := strings.LastIndexAny(s, "#/"); idx >= 0 {
		return s[idx+1:]
	}
	return s
}

var (
	schemeRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.-]*:`)
	oboIDRe  = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*:[0-9]+$`)
)

// IsValidIRI reports whether s is usable as an absolute IRI. This is a
// pragmatic check (scheme present, no whitespace or angle-bracket
// characters), not a full RFC 3987 validation.
func IsValidIRI(s string) bool {
	if s == "" || !schemeRe.MatchString(s) {
		return false
	}
	return !strings.ContainsAny(s, " \t\r\n<>\"{}|\\^`")
}

// IsOboID reports whether s looks like an OBO Foundry ID of the form
// "PO:0000003".
func IsOboID(s string) bool {
	return oboIDRe.MatchString(s)
}

// OboIDToIRI converts an OBO ID such as "PO:0000003" to its canonical OBO
// Foundry IRI, e.g. <http://purl.obolibrary.org/obo/PO_0000003>.
func OboIDToIRI(id string) (IRI, error) {
	if !IsOboID(id) {
		return "", fmt.Errorf("invalid OBO ID: %q", id)
	}
	return IRI(vocab.OBO + strings.Replace(id, ":", "_", 1)), nil
}

// IRIToOboID recovers the OBO ID from an OBO Foundry IRI. Returns an empty
// string if the IRI is not an OBO term IRI.
func IRIToOboID(iri IRI) string {
	s := string(iri)
	if !strings.HasPrefix(s, vocab.OBO) {
		return ""
	}
	frag := s[len(vocab.OBO):]
	id := strings.Replace(frag, "_", ":", 1)
	if !IsOboID(id) {
		return ""
	}
	return id
}

// PrefixMap resolves prefix names (curie prefixes) to namespace IRIs and
// relative IRIs against a base namespace.
type PrefixMap struct {
	base     string
	prefixes map[string]string
}

// NewPrefixMap returns a PrefixMap seeded with the standard vocabulary
// prefixes. base is the namespace used to resolve relative IRIs; it may be
// empty, in which case relative IRIs are rejected.
func NewPrefixMap(base string) *PrefixMap {
	p := &PrefixMap{base: base, prefixes: make(map[string]string, len(vocab.DefaultPrefixes))}
	for name, ns := range vocab.DefaultPrefixes {
		p.prefixes[name] = ns
	}
	return p
}

// SetBase changes the namespace used for relative IRI resolution.
func (p *PrefixMap) SetBase(base string) { p.base = base }

// Base returns the current base namespace.
func (p *PrefixMap) Base() string { return p.base }

// Register adds or replaces a prefix binding.
func (p *PrefixMap) Register(name, namespace string) {
	p.prefixes[name] = namespace
}

// Namespace returns the namespace bound to a prefix name.
func (p *PrefixMap) Namespace(name string) (string, bool) {
	ns, ok := p.prefixes[name]
	return ns, ok
}

// All returns a copy of the prefix bindings.
func (p *PrefixMap) All() map[string]string {
	out := make(map[string]string, len(p.prefixes))
	for k, v := range p.prefixes {
		out[k] = v
	}
	return out
}

// Expand converts an IRI string to a full IRI. The string may be a full IRI,
// a prefix IRI (curie) using a registered prefix, or a relative IRI resolved
// against the base namespace. Full IRIs win over curies when the "prefix"
// is actually a URL scheme.
func (p *PrefixMap) Expand(s string) (IRI, error) {
	if s == "" {
		return "", fmt.Errorf("empty IRI string")
	}
	if idx := strings.Index(s, ":"); idx >= 0 {
		if ns, ok := p.prefixes[s[:idx]]; ok {
			return IRI(ns + s[idx+1:]), nil
		}
		if IsValidIRI(s) {
			return IRI(s), nil
		}
		return "", fmt.Errorf("invalid IRI string: %q", s)
	}
	// Relative IRI.
	if p.base == "" {
		return "", fmt.Errorf("cannot resolve relative IRI %q: no base namespace", s)
	}
	full := p.base + s
	if !IsValidIRI(full) {
		return "", fmt.Errorf("invalid IRI string: %q", s)
	}
	return IRI(full), nil
}

// Abbreviate returns the shortest curie form of an IRI under the registered
// prefixes, or the full IRI string if no prefix matches.
func (p *PrefixMap) Abbreviate(iri IRI) string {
	s := string(iri)
	best := ""
	bestNS := ""
	for name, ns := range p.prefixes {
		if strings.HasPrefix(s, ns) && len(ns) > len(bestNS) {
			best, bestNS = name, ns
		}
	}
	if bestNS == "" {
		return s
	}
	return best + ":" + s[len(bestNS):]
}
