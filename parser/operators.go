package parser

import (
	"slices"

	"golang.org/x/exp/maps"
)

// CountOperator is the name of the aggregation operator
// that must be the only clause in its query.
const CountOperator = "count"

// operators is the set of operator names the portal understands.
var operators = map[string]struct{}{
	// Filters.
	"eq":      {},
	"ne":      {},
	"gt":      {},
	"ge":      {},
	"lt":      {},
	"le":      {},
	"in":      {},
	"exists":  {},
	"missing": {},

	// Combinators.
	"and":    {},
	"or":     {},
	"not":    {},
	"nested": {},

	// Projection, paging, and aggregation.
	"select":      {},
	"facets":      {},
	"sort":        {},
	"limit":       {},
	CountOperator: {},
}

// IsOperator reports whether name is a supported operator name.
func IsOperator(name string) bool {
	_, ok := operators[name]
	return ok
}

// OperatorNames returns the supported operator names in sorted order.
func OperatorNames() []string {
	names := maps.Keys(operators)
	slices.Sort(names)
	return names
}

// IsCombinator reports whether the named operator
// takes nested clauses in place of a field.
func IsCombinator(name string) bool {
	return name == "and" || name == "or" || name == "not"
}

// IsFilter reports whether the named operator restricts the matched documents,
// as opposed to shaping the response like select(...), sort(...), or count().
func IsFilter(name string) bool {
	switch name {
	case "select", "facets", "sort", "limit", CountOperator:
		return false
	default:
		return IsOperator(name)
	}
}
