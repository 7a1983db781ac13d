// Package mparser parses Manchester Syntax class expressions, the format
// used by the "Subclass of", "Equivalent to", and "Disjoint with" columns of
// term tables.
package mparser

import (
	"fmt"
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokIdent tokenKind = iota // curie, OBO ID, relative IRI
	tokFullIRI                // <https://...>
	tokLabel                  // 'quoted term label'
	tokKeyword                // and, or, not, some, only, value
	tokLParen
	tokRParen
	tokSemicolon
)

type token struct {
	kind tokenKind
	text string
	line int
	col  int
}

var keywords = map[string]bool{
	"and":   true,
	"or":    true,
	"not":   true,
	"some":  true,
	"only":  true,
	"value": true,
}

// Error is a parse error with the position it occurred at.
type Error struct {
	Msg  string
	Line int
	Col  int
}

func (e *Error) Error() string {
	return fmt.Sprintf("parse error at line %d, column %d: %s", e.Line, e.Col, e.Msg)
}

func errAt(line, col int, format string, args ...interface{}) error {
	return &Error{Msg: fmt.Sprintf(format, args...), Line: line, Col: col}
}

type lexer struct {
	src  []rune
	pos  int
	line int
	col  int
}

func newLexer(src string) *lexer {
	return &lexer{src: []rune(src), line: 1, col: 1}
}

func (l *lexer) advance() rune {
	r := l.src[l.pos]
	l.pos++
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

func (l *lexer) peek() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

// tokenize splits the whole input into tokens.
func (l *lexer) tokenize() ([]token, error) {
	var toks []token
	for l.pos < len(l.src) {
		for l.pos < len(l.src) && unicode.IsSpace(l.peek()) {
			l.advance()
		}
		if l.pos >= len(l.src) {
			break
		}
		line, col := l.line, l.col
		switch r := l.peek(); {
		case r == '(':
			l.advance()
			toks = append(toks, token{tokLParen, "(", line, col})
		case r == ')':
			l.advance()
			toks = append(toks, token{tokRParen, ")", line, col})
		case r == ';':
			l.advance()
			toks = append(toks, token{tokSemicolon, ";", line, col})
		case r == '\'':
			l.advance()
			var sb strings.Builder
			closed := false
			for l.pos < len(l.src) {
				c := l.advance()
				if c == '\'' {
					closed = true
					break
				}
				sb.WriteRune(c)
			}
			if !closed {
				return nil, errAt(line, col, "unterminated quoted label")
			}
			toks = append(toks, token{tokLabel, sb.String(), line, col})
		case r == '<':
			l.advance()
			var sb strings.Builder
			closed := false
			for l.pos < len(l.src) {
				c := l.advance()
				if c == '>' {
					closed = true
					break
				}
				sb.WriteRune(c)
			}
			if !closed {
				return nil, errAt(line, col, "unterminated IRI reference")
			}
			toks = append(toks, token{tokFullIRI, sb.String(), line, col})
		default:
			var sb strings.Builder
			for l.pos < len(l.src) {
				c := l.peek()
				if unicode.IsSpace(c) || c == '(' || c == ')' || c == ';' || c == '\'' || c == '<' {
					break
				}
				sb.WriteRune(l.advance())
			}
			text := sb.String()
			if text == "" {
				return nil, errAt(line, col, "unexpected character %q", l.peek())
			}
			if keywords[text] {
				toks = append(toks, token{tokKeyword, text, line, col})
			} else {
				toks = append(toks, token{tokIdent, text, line, col})
			}
		}
	}
	return toks, nil
}
