// Package parser provides a parser and an Abstract Syntax Tree (AST)
// for the Portal Query Language (PQL),
// the filter expression language used in portal URLs and search API calls.
//
// A PQL query is a comma-separated list of clauses like:
//
//	select(*),eq(donor.gender,"male"),in(donor.age,30,40)
//
// Only the first argument of a clause may be a field,
// so multi-field forms like select(a,b) or sort(a,b) are syntax errors,
// and so are signed sort fields like sort(-a):
// a leading '-' begins a numeric literal.
// Filters passed to and(...), or(...), not(...), nested(path, ...),
// and count(...) are written as nested clauses after any values.
package parser

import (
	"errors"
	"fmt"
)

// maxNestingDepth bounds how deeply clauses may be nested
// inside combinators like and(...).
const maxNestingDepth = 64

type parser struct {
	source string
	tokens []Token
	pos    int

	// spans holds the span of each top-level clause,
	// indexed the same as the returned ClauseList.
	spans []Span
}

// Parse converts a Portal Query Language expression into a [ClauseList].
// The result has been checked with [Validate].
// Parse returns a nil list and an error wrapping an [*Error]
// if the expression is malformed or invalid.
func Parse(query string) (ClauseList, error) {
	p := &parser{
		source: query,
		tokens: Scan(query),
	}
	list, err := p.document()
	if err == nil {
		if i, verr := checkClauseList(list); verr != nil {
			span := nullSpan()
			if 0 <= i && i < len(p.spans) {
				span = p.spans[i]
			}
			err = &Error{
				Kind:   SemanticError,
				Source: p.source,
				Span:   span,
				Err:    verr,
			}
		}
	}
	if err != nil {
		return nil, fmt.Errorf("parse pql: %w", err)
	}
	return list, nil
}

func (p *parser) document() (ClauseList, error) {
	if len(p.tokens) == 0 {
		return nil, p.errorf(indexSpan(len(p.source)), "empty query")
	}
	var list ClauseList
	for {
		c, span, err := p.clause(0)
		if err != nil {
			return nil, err
		}
		list = append(list, c)
		p.spans = append(p.spans, span)

		tok, ok := p.next()
		if !ok {
			return list, nil
		}
		switch tok.Kind {
		case TokenComma:
		case TokenError:
			return nil, p.scanError(tok)
		default:
			return nil, p.errorf(tok.Span, "expected ',' or end of query, got %s", formatToken(p.source, tok))
		}
	}
}

// clause parses a single operator(arguments...) production.
func (p *parser) clause(depth int) (Clause, Span, error) {
	opTok, ok := p.next()
	if !ok {
		return Clause{}, nullSpan(), p.errorf(opTok.Span, "expected operator name, got EOF")
	}
	switch opTok.Kind {
	case TokenIdentifier:
	case TokenError:
		return Clause{}, nullSpan(), p.scanError(opTok)
	default:
		return Clause{}, nullSpan(), p.errorf(opTok.Span, "expected operator name, got %s", formatToken(p.source, opTok))
	}
	if !IsOperator(opTok.Value) {
		return Clause{}, nullSpan(), p.errorf(opTok.Span, "unknown operator %q", opTok.Value)
	}
	if depth >= maxNestingDepth {
		return Clause{}, nullSpan(), p.errorf(opTok.Span, "clauses nested too deeply")
	}

	lparen, ok := p.next()
	if !ok || lparen.Kind != TokenLParen {
		if lparen.Kind == TokenError && ok {
			return Clause{}, nullSpan(), p.scanError(lparen)
		}
		return Clause{}, nullSpan(), p.errorf(lparen.Span, "expected '(' after %s, got %s", opTok.Value, formatToken(p.source, lparen))
	}

	c := Clause{Operator: opTok.Value}
	if tok, ok := p.next(); ok && tok.Kind == TokenRParen {
		return c, newSpan(opTok.Span.Start, tok.Span.End), nil
	} else if ok {
		p.prev()
	}

	for i := 0; ; i++ {
		if err := p.argument(&c, i == 0, depth); err != nil {
			return Clause{}, nullSpan(), err
		}
		tok, ok := p.next()
		if !ok {
			return Clause{}, nullSpan(), p.errorf(tok.Span, "expected ')', got EOF")
		}
		switch tok.Kind {
		case TokenComma:
		case TokenRParen:
			return c, newSpan(opTok.Span.Start, tok.Span.End), nil
		case TokenError:
			return Clause{}, nullSpan(), p.scanError(tok)
		default:
			return Clause{}, nullSpan(), p.errorf(tok.Span, "expected ',' or ')', got %s", formatToken(p.source, tok))
		}
	}
}

// argument parses a single argument and adds it to c.
// first is true if the argument is the first in the clause's argument list,
// which is the only position a field may appear in.
func (p *parser) argument(c *Clause, first bool, depth int) error {
	tok, ok := p.next()
	if !ok {
		return p.errorf(tok.Span, "expected argument, got EOF")
	}
	switch tok.Kind {
	case TokenIdentifier:
		if next, ok := p.next(); ok {
			p.prev()
			if next.Kind == TokenLParen {
				p.prev()
				sub, _, err := p.clause(depth + 1)
				if err != nil {
					return err
				}
				c.Clauses = append(c.Clauses, sub)
				return nil
			}
		}
		if !first {
			return p.errorf(tok.Span, "unexpected field %s (only the first argument may be a field; quote text values)", formatToken(p.source, tok))
		}
		c.Field = tok.Value
		return nil
	case TokenStar:
		if !first {
			return p.errorf(tok.Span, "unexpected '*' (only the first argument may be a field)")
		}
		c.Field = "*"
		return nil
	case TokenString, TokenLiteral:
		if len(c.Clauses) > 0 {
			return p.errorf(tok.Span, "unexpected %s after nested clause", formatToken(p.source, tok))
		}
		v, err := coerceLiteral(tok)
		if err != nil {
			return p.errorf(tok.Span, "%v", err)
		}
		c.Values = append(c.Values, v)
		return nil
	case TokenComma, TokenRParen:
		return p.errorf(tok.Span, "missing argument before %s", formatToken(p.source, tok))
	case TokenError:
		return p.scanError(tok)
	default:
		return p.errorf(tok.Span, "expected argument, got %s", formatToken(p.source, tok))
	}
}

func (p *parser) next() (Token, bool) {
	if p.pos >= len(p.tokens) {
		return Token{
			Kind:  TokenError,
			Span:  indexSpan(len(p.source)),
			Value: "EOF",
		}, false
	}
	tok := p.tokens[p.pos]
	p.pos++
	return tok, true
}

func (p *parser) prev() {
	p.pos--
}

func (p *parser) errorf(span Span, format string, args ...any) *Error {
	return &Error{
		Kind:   SyntaxError,
		Source: p.source,
		Span:   span,
		Err:    fmt.Errorf(format, args...),
	}
}

func (p *parser) scanError(tok Token) *Error {
	return &Error{
		Kind:   SyntaxError,
		Source: p.source,
		Span:   tok.Span,
		Err:    errors.New(tok.Value),
	}
}

func formatToken(source string, tok Token) string {
	if tok.Span.Start == len(source) && tok.Span.End == len(source) {
		return "EOF"
	}
	if tok.Span.Len() == 0 {
		if tok.Kind == TokenError {
			return "<scan error>"
		}
		return "''"
	}
	return "'" + spanString(source, tok.Span) + "'"
}
