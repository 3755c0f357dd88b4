package parser

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Validate reports whether list is a valid query.
// [Parse] only returns lists that pass Validate;
// Validate exists for lists that are constructed directly.
// The returned error is an [*Error] of kind [SemanticError].
//
// A valid list is non-empty,
// uses only supported operators (see [IsOperator]),
// has syntactically valid fields,
// has only finite numbers and no zero [Value] arguments,
// and, if it contains a count() clause, contains no other clauses.
// count() may not appear inside a nested clause.
func Validate(list ClauseList) error {
	if _, err := checkClauseList(list); err != nil {
		return &Error{
			Kind: SemanticError,
			Span: nullSpan(),
			Err:  err,
		}
	}
	return nil
}

// checkClauseList returns the first rule violation in list
// along with the index of the top-level clause it was found in
// (or -1 if the violation concerns the list as a whole).
func checkClauseList(list ClauseList) (int, error) {
	if len(list) == 0 {
		return -1, errors.New("empty query")
	}
	for i, c := range list {
		if err := checkClause(c, 0); err != nil {
			return i, err
		}
	}
	if len(list) > 1 {
		for i, c := range list {
			if c.Operator == CountOperator {
				return i, fmt.Errorf("%s() cannot be combined with other clauses", CountOperator)
			}
		}
	}
	return -1, nil
}

func checkClause(c Clause, depth int) error {
	if c.Operator == "" {
		return errors.New("clause has no operator")
	}
	if !IsOperator(c.Operator) {
		return fmt.Errorf("unknown operator %q", c.Operator)
	}
	if depth > 0 && c.Operator == CountOperator {
		return fmt.Errorf("%s() must be a top-level clause", CountOperator)
	}
	if depth >= maxNestingDepth {
		return errors.New("clauses nested too deeply")
	}
	if c.HasField() && !IsValidField(c.Field) {
		return fmt.Errorf("%s: invalid field %q", c.Operator, c.Field)
	}
	for i, v := range c.Values {
		switch {
		case !v.IsValid():
			return fmt.Errorf("%s: argument %d is empty", c.Operator, i+1)
		case v.Kind() == NumberValue && (math.IsNaN(v.Float64()) || math.IsInf(v.Float64(), 0)):
			return fmt.Errorf("%s: argument %d is not a finite number", c.Operator, i+1)
		}
	}
	for _, sub := range c.Clauses {
		if err := checkClause(sub, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// IsValidField reports whether s is the wildcard "*"
// or a dot-separated path of identifiers like "donor.gender".
func IsValidField(s string) bool {
	if s == "*" {
		return true
	}
	if s == "" {
		return false
	}
	for _, part := range strings.Split(s, ".") {
		if !isIdentifier(part) {
			return false
		}
	}
	return true
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, c := range s {
		if i == 0 && !(isAlpha(c) || c == '_') {
			return false
		}
		if !isIdentChar(c) {
			return false
		}
	}
	return true
}
