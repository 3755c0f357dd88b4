// Copyright 2024 The Portal PQL Authors
// SPDX-License-Identifier: Apache-2.0

package pql

import (
	"cmp"
	"slices"
	"strings"

	"github.com/icgc-dcc/portal-pql/parser"
)

// AnalysisContext holds the information needed to suggest completions.
type AnalysisContext struct {
	// Fields is the list of field paths that may be filtered on,
	// like "donor.gender".
	Fields []string
}

// Completion is a single suggestion returned by [*AnalysisContext.SuggestCompletions].
type Completion struct {
	// Label is the text to display to the user.
	Label string
	// Text is the text to insert.
	Text string
	// Span is the part of the source that Text replaces.
	Span parser.Span
}

// SuggestCompletions suggests operator names or field names
// for the given cursor position in source.
// Operators are suggested where a clause may start,
// and fields are suggested in the first argument of a clause that takes a field.
func (ctx *AnalysisContext) SuggestCompletions(source string, cursor parser.Span) []*Completion {
	pos := cursor.End
	tokens := parser.Scan(source)
	prefix, replace, before := completionPrefix(source, tokens, pos)

	var candidates []string
	switch completionPosition(before) {
	case operatorPosition:
		candidates = parser.OperatorNames()
	case fieldPosition:
		candidates = ctx.Fields
	default:
		return nil
	}

	var result []*Completion
	for _, name := range candidates {
		if strings.HasPrefix(name, prefix) {
			result = append(result, &Completion{
				Label: name,
				Text:  name,
				Span:  replace,
			})
		}
	}
	return result
}

type position int

const (
	noPosition position = iota
	operatorPosition
	fieldPosition
)

// completionPosition determines what kind of token can appear
// after the given sequence of tokens.
func completionPosition(before []parser.Token) position {
	if len(before) == 0 {
		return operatorPosition
	}

	// Track the operator of each open parenthesis.
	var open []string
	for i, tok := range before {
		switch tok.Kind {
		case parser.TokenLParen:
			op := ""
			if i > 0 && before[i-1].Kind == parser.TokenIdentifier {
				op = before[i-1].Value
			}
			open = append(open, op)
		case parser.TokenRParen:
			if len(open) > 0 {
				open = open[:len(open)-1]
			}
		}
	}

	last := before[len(before)-1]
	if len(open) == 0 {
		if last.Kind == parser.TokenComma {
			return operatorPosition
		}
		return noPosition
	}
	enclosing := open[len(open)-1]
	switch last.Kind {
	case parser.TokenLParen:
		if parser.IsCombinator(enclosing) || enclosing == parser.CountOperator {
			return operatorPosition
		}
		return fieldPosition
	case parser.TokenComma:
		if parser.IsCombinator(enclosing) || enclosing == "nested" || enclosing == parser.CountOperator {
			return operatorPosition
		}
	}
	return noPosition
}

// completionPrefix finds the identifier the cursor is at the end of, if any.
// It returns the part of the identifier before the cursor,
// the span to replace,
// and the tokens before the identifier.
func completionPrefix(source string, tokens []parser.Token, pos int) (prefix string, replace parser.Span, before []parser.Token) {
	i, _ := slices.BinarySearchFunc(tokens, pos, func(tok parser.Token, pos int) int {
		return cmp.Compare(tok.Span.Start, pos)
	})
	// tokens[i-1] is the last token that starts before the cursor.
	if i > 0 {
		tok := tokens[i-1]
		if isCompletableToken(source, tok) && tok.Span.Overlaps(parser.Span{Start: pos, End: pos}) {
			return source[tok.Span.Start:pos], parser.Span{Start: tok.Span.Start, End: tok.Span.End}, tokens[:i-1]
		}
	}
	// Cursor is not adjacent to an identifier. Assume there's whitespace.
	return "", parser.Span{Start: pos, End: pos}, tokens[:i]
}

// isCompletableToken reports whether tok is an identifier
// or a field path that is still being typed, like "donor.".
func isCompletableToken(source string, tok parser.Token) bool {
	if tok.Kind == parser.TokenIdentifier {
		return true
	}
	if tok.Kind != parser.TokenError || tok.Span.Len() == 0 {
		return false
	}
	text := source[tok.Span.Start:tok.Span.End]
	return strings.HasSuffix(text, ".") && parser.IsValidField(strings.TrimSuffix(text, "."))
}
