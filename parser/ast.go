package parser

import (
	"cmp"
	"strings"
)

// ValueKind is an enumeration of the types of [Value].
type ValueKind int

// Value kinds.
const (
	// NumberValue is a numeric literal written without quotes, like 123 or -4.5.
	NumberValue ValueKind = 1 + iota
	// TextValue is a literal written in single or double quotes.
	TextValue
)

// String returns "number" or "text".
func (kind ValueKind) String() string {
	switch kind {
	case NumberValue:
		return "number"
	case TextValue:
		return "text"
	default:
		return "invalid"
	}
}

// A Value is a single literal argument of a [Clause].
// It is either a number or a text string.
// The zero Value is not a valid argument:
// use [Number] or [Text] to construct one.
type Value struct {
	kind ValueKind
	num  float64
	str  string
}

// Number returns a numeric [Value].
func Number(x float64) Value {
	return Value{kind: NumberValue, num: x}
}

// Text returns a text [Value].
func Text(s string) Value {
	return Value{kind: TextValue, str: s}
}

// Kind returns the value's type,
// or zero if v is the zero Value.
func (v Value) Kind() ValueKind {
	return v.kind
}

// IsValid reports whether v was constructed with [Number] or [Text].
func (v Value) IsValid() bool {
	return v.kind == NumberValue || v.kind == TextValue
}

// Float64 returns the number held by v.
// It returns 0 if v is not a [NumberValue].
func (v Value) Float64() float64 {
	if v.kind != NumberValue {
		return 0
	}
	return v.num
}

// Text returns the string held by v.
// It returns the empty string if v is not a [TextValue].
func (v Value) Text() string {
	if v.kind != TextValue {
		return ""
	}
	return v.str
}

// Equal reports whether v and v2 have the same kind and content.
// Negative zero equals zero.
func (v Value) Equal(v2 Value) bool {
	return v.Compare(v2) == 0
}

// Compare orders values first by kind (numbers before text),
// then by content.
// It returns -1 if v < v2, 0 if v == v2, and +1 if v > v2.
func (v Value) Compare(v2 Value) int {
	if c := cmp.Compare(v.kind, v2.kind); c != 0 {
		return c
	}
	switch v.kind {
	case NumberValue:
		return cmp.Compare(v.num, v2.num)
	case TextValue:
		return strings.Compare(v.str, v2.str)
	default:
		return 0
	}
}

// A Clause is a single operator(field, values...) unit of a query.
type Clause struct {
	// Operator is the operator's name, like "eq" or "count".
	Operator string
	// Field is a dot-separated field path like "donor.gender",
	// the wildcard "*",
	// or the empty string if the clause has no field.
	Field string
	// Values is the clause's literal arguments in the order they were written.
	Values []Value
	// Clauses is the clause's nested clause arguments,
	// as used by logical combinators like and(eq(a,1),eq(b,2)).
	// Nested clauses always follow Values in the argument list.
	Clauses []Clause
}

// HasField reports whether the clause names a field.
func (c Clause) HasField() bool {
	return c.Field != ""
}

// Clone returns a deep copy of c.
func (c Clause) Clone() Clause {
	c2 := Clause{
		Operator: c.Operator,
		Field:    c.Field,
	}
	if c.Values != nil {
		c2.Values = append([]Value(nil), c.Values...)
	}
	if c.Clauses != nil {
		c2.Clauses = make([]Clause, len(c.Clauses))
		for i, sub := range c.Clauses {
			c2.Clauses[i] = sub.Clone()
		}
	}
	return c2
}

// A ClauseList is an ordered sequence of clauses
// that together form a query.
type ClauseList []Clause

// Clone returns a deep copy of list.
func (list ClauseList) Clone() ClauseList {
	if list == nil {
		return nil
	}
	list2 := make(ClauseList, len(list))
	for i, c := range list {
		list2[i] = c.Clone()
	}
	return list2
}
