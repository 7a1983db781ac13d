package owlbuilder

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/stuckyb/ontobuilder/internal/owl"
)

var defRefRe = regexp.MustCompile(`\{([^{}]+)\}`)

// expandDefinition rewrites term references in a definition text. A
// reference is a term label in curly braces; it is replaced by the label
// followed by the term's ID, so "{whole plant}" becomes
// "whole plant (PO:0000003)". Unknown labels are an error so that typos in
// definitions do not silently survive a build.
func (b *Builder) expandDefinition(def string) (string, error) {
	var firstErr error
	out := defRefRe.ReplaceAllStringFunc(def, func(match string) string {
		label := strings.TrimSpace(match[1 : len(match)-1])
		iri, err := b.ont.LabelToIRI(label)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("in definition %q: %v", def, err)
			}
			return match
		}
		id := owl.IRIToOboID(iri)
		if id == "" {
			id = string(iri)
		}
		return fmt.Sprintf("%s (%s)", label, id)
	})
	if firstErr != nil {
		return "", firstErr
	}
	return out, nil
}
