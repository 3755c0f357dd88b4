package parser

import (
	"errors"
	"fmt"
)

// ErrorKind is an enumeration of the ways translation can fail.
type ErrorKind int

// Error kinds.
const (
	// SyntaxError indicates that the query text does not match the grammar:
	// unbalanced parentheses, a missing argument, an unterminated string,
	// or an illegal bare token.
	SyntaxError ErrorKind = 1 + iota
	// SemanticError indicates that the clauses are well-formed
	// but violate a rule about how clauses may be combined,
	// like a count() alongside other clauses.
	SemanticError
)

// String returns "syntax error" or "semantic error".
func (kind ErrorKind) String() string {
	switch kind {
	case SyntaxError:
		return "syntax error"
	case SemanticError:
		return "semantic error"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(kind))
	}
}

// Error is the error type returned by [Parse] and [Validate].
type Error struct {
	Kind ErrorKind
	// Source is the query text the error refers to.
	// It is empty for errors in clause lists that were not parsed from text.
	Source string
	// Span is the offending portion of Source.
	// It is invalid if there is no source location.
	Span Span
	Err  error
}

func (e *Error) Error() string {
	if !e.Span.IsValid() || e.Span.Start > len(e.Source) {
		return fmt.Sprintf("%v: %v", e.Kind, e.Err)
	}
	line, col := linecol(e.Source, e.Span.Start)
	return fmt.Sprintf("%d:%d: %v: %v", line, col, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Snippet returns the portion of the source covered by the error,
// or the empty string if the error has no source location.
func (e *Error) Snippet() string {
	return spanString(e.Source, e.Span)
}

// IsSyntaxError reports whether any error in err's tree
// is an [*Error] of kind [SyntaxError].
func IsSyntaxError(err error) bool {
	return errorKind(err) == SyntaxError
}

// IsSemanticError reports whether any error in err's tree
// is an [*Error] of kind [SemanticError].
func IsSemanticError(err error) bool {
	return errorKind(err) == SemanticError
}

func errorKind(err error) ErrorKind {
	var e *Error
	if !errors.As(err, &e) {
		return 0
	}
	return e.Kind
}

func linecol(source string, pos int) (line, col int) {
	line, col = 1, 1
	for _, c := range source[:pos] {
		switch c {
		case '\n':
			line++
			col = 1
		case '\t':
			const tabWidth = 8
			tabLoc := (col - 1) % tabWidth
			col += tabWidth - tabLoc
		default:
			col++
		}
	}
	return
}
