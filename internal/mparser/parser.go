package mparser

import (
	"github.com/stuckyb/ontobuilder/internal/owl"
)

// Resolver converts term identifiers (curies, OBO IDs, full IRIs, quoted
// labels) to entity IRIs. *owl.Ontology satisfies it.
type Resolver interface {
	ExpandIdentifier(id string) (owl.IRI, error)
}

// Parse parses a single Manchester Syntax class expression.
//
// The grammar, from loosest to tightest binding:
//
//	expression  = conjunction { "or" conjunction }
//	conjunction = primary { "and" primary }
//	primary     = [ "not" ] ( restriction | atomic )
//	restriction = identifier ( "some" | "only" ) primary
//	            | identifier "value" identifier
//	atomic      = identifier | "(" expression ")"
func Parse(src string, resolver Resolver) (owl.ClassExpression, error) {
	toks, err := newLexer(src).tokenize()
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks, resolver: resolver}
	expr, err := p.expression()
	if err != nil {
		return nil, err
	}
	if !p.done() {
		t := p.peek()
		return nil, errAt(t.line, t.col, "unexpected %q after end of expression", t.text)
	}
	return expr, nil
}

// ParseList parses a semicolon-separated list of class expressions, the form
// used by multi-valued term table columns. Empty segments are skipped.
func ParseList(src string, resolver Resolver) ([]owl.ClassExpression, error) {
	toks, err := newLexer(src).tokenize()
	if err != nil {
		return nil, err
	}
	var out []owl.ClassExpression
	segment := make([]token, 0, len(toks))
	flush := func() error {
		if len(segment) == 0 {
			return nil
		}
		p := &parser{toks: segment, resolver: resolver}
		expr, err := p.expression()
		if err != nil {
			return err
		}
		if !p.done() {
			t := p.peek()
			return errAt(t.line, t.col, "unexpected %q after end of expression", t.text)
		}
		out = append(out, expr)
		segment = segment[:0]
		return nil
	}
	for _, t := range toks {
		if t.kind == tokSemicolon {
			if err := flush(); err != nil {
				return nil, err
			}
			continue
		}
		segment = append(segment, t)
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return out, nil
}

type parser struct {
	toks     []token
	pos      int
	resolver Resolver
}

func (p *parser) done() bool { return p.pos >= len(p.toks) }

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	p.pos++
	return t
}

// atKeyword reports whether the next token is the given keyword.
func (p *parser) atKeyword(kw string) bool {
	return !p.done() && p.peek().kind == tokKeyword && p.peek().text == kw
}

func (p *parser) expression() (owl.ClassExpression, error) {
	first, err := p.conjunction()
	if err != nil {
		return nil, err
	}
	operands := []owl.ClassExpression{first}
	for p.atKeyword("or") {
		p.next()
		operand, err := p.conjunction()
		if err != nil {
			return nil, err
		}
		operands = append(operands, operand)
	}
	if len(operands) == 1 {
		return first, nil
	}
	return owl.ObjectUnionOf{Operands: operands}, nil
}

func (p *parser) conjunction() (owl.ClassExpression, error) {
	first, err := p.primary()
	if err != nil {
		return nil, err
	}
	operands := []owl.ClassExpression{first}
	for p.atKeyword("and") {
		p.next()
		operand, err := p.primary()
		if err != nil {
			return nil, err
		}
		operands = append(operands, operand)
	}
	if len(operands) == 1 {
		return first, nil
	}
	return owl.ObjectIntersectionOf{Operands: operands}, nil
}

func (p *parser) primary() (owl.ClassExpression, error) {
	if p.atKeyword("not") {
		p.next()
		operand, err := p.primary()
		if err != nil {
			return nil, err
		}
		return owl.ObjectComplementOf{Operand: operand}, nil
	}
	if p.done() {
		return nil, p.eofError()
	}

	t := p.peek()
	switch t.kind {
	case tokLParen:
		p.next()
		expr, err := p.expression()
		if err != nil {
			return nil, err
		}
		if p.done() || p.peek().kind != tokRParen {
			return nil, errAt(t.line, t.col, "unclosed parenthesis")
		}
		p.next()
		return expr, nil

	case tokIdent, tokFullIRI, tokLabel:
		p.next()
		iri, err := p.resolve(t)
		if err != nil {
			return nil, err
		}
		if p.done() || p.peek().kind != tokKeyword {
			return owl.NamedClass{IRI: iri}, nil
		}
		switch p.peek().text {
		case "some":
			p.next()
			filler, err := p.primary()
			if err != nil {
				return nil, err
			}
			return owl.ObjectSomeValuesFrom{Property: iri, Filler: filler}, nil
		case "only":
			p.next()
			filler, err := p.primary()
			if err != nil {
				return nil, err
			}
			return owl.ObjectAllValuesFrom{Property: iri, Filler: filler}, nil
		case "value":
			p.next()
			if p.done() {
				return nil, p.eofError()
			}
			ind := p.next()
			if ind.kind != tokIdent && ind.kind != tokFullIRI && ind.kind != tokLabel {
				return nil, errAt(ind.line, ind.col, "expected an individual after 'value', found %q", ind.text)
			}
			indIRI, err := p.resolve(ind)
			if err != nil {
				return nil, err
			}
			return owl.ObjectHasValue{Property: iri, Individual: indIRI}, nil
		}
		return owl.NamedClass{IRI: iri}, nil
	}
	return nil, errAt(t.line, t.col, "unexpected %q", t.text)
}

// resolve converts an identifier token to an IRI through the resolver.
// Quoted labels are re-wrapped so that the resolver applies its label
// lookup.
func (p *parser) resolve(t token) (owl.IRI, error) {
	id := t.text
	if t.kind == tokLabel {
		id = "'" + id + "'"
	}
	iri, err := p.resolver.ExpandIdentifier(id)
	if err != nil {
		return "", errAt(t.line, t.col, "%v", err)
	}
	return iri, nil
}

func (p *parser) eofError() error {
	line, col := 1, 1
	if len(p.toks) > 0 {
		last := p.toks[len(p.toks)-1]
		line, col = last.line, last.col+len(last.text)
	}
	return errAt(line, col, "unexpected end of expression")
}
