// Package pql translates between Portal Query Language (PQL) text
// and the [parser.ClauseList] representation used to build search filters.
//
// Every ClauseList has exactly one canonical text form,
// produced by [Serialize]:
// clauses are joined by commas without whitespace,
// numbers are written bare,
// and text is always double-quoted regardless of how it was originally written.
package pql

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/icgc-dcc/portal-pql/parser"
)

// Serialize returns the canonical PQL text for list.
// Serialize does not validate list (see [Format]);
// zero [parser.Value] arguments are omitted.
func Serialize(list parser.ClauseList) string {
	sb := new(strings.Builder)
	for i, c := range list {
		if i > 0 {
			sb.WriteByte(',')
		}
		writeClause(sb, c)
	}
	return sb.String()
}

// Format validates list with [parser.Validate]
// and returns its canonical PQL text.
// Use Format rather than [Serialize]
// for clause lists that were not produced by [parser.Parse].
func Format(list parser.ClauseList) (string, error) {
	if err := parser.Validate(list); err != nil {
		return "", fmt.Errorf("format pql: %w", err)
	}
	return Serialize(list), nil
}

// Canonicalize parses a PQL expression and returns its canonical form.
func Canonicalize(source string) (string, error) {
	list, err := parser.Parse(source)
	if err != nil {
		return "", err
	}
	return Serialize(list), nil
}

func writeClause(sb *strings.Builder, c parser.Clause) {
	sb.WriteString(c.Operator)
	sb.WriteByte('(')
	n := 0
	sep := func() {
		if n > 0 {
			sb.WriteByte(',')
		}
		n++
	}
	if c.HasField() {
		sep()
		sb.WriteString(c.Field)
	}
	for _, v := range c.Values {
		switch v.Kind() {
		case parser.NumberValue:
			sep()
			sb.WriteString(strconv.FormatFloat(v.Float64(), 'f', -1, 64))
		case parser.TextValue:
			sep()
			quotePQLString(sb, v.Text())
		}
	}
	for _, sub := range c.Clauses {
		sep()
		writeClause(sb, sub)
	}
	sb.WriteByte(')')
}

// quotePQLString writes s as a double-quoted PQL string,
// escaping double quotes and backslashes with a backslash.
func quotePQLString(sb *strings.Builder, s string) {
	sb.WriteByte('"')
	for i := 0; i < len(s); i++ {
		if c := s[i]; c == '"' || c == '\\' {
			sb.WriteByte('\\')
		}
		sb.WriteByte(s[i])
	}
	sb.WriteByte('"')
}
