package pql

import (
	"fmt"
	"slices"

	"github.com/icgc-dcc/portal-pql/parser"
)

// Merge combines clause lists into a single list.
// Clauses appear in argument order,
// and a clause identical to one already in the result is dropped.
// The result shares no memory with the arguments.
// Merge returns a nil list and no error if there are no clauses to merge,
// and an error if the merged list fails [parser.Validate]
// (for example, when a count() would be combined with a filter).
func Merge(lists ...parser.ClauseList) (parser.ClauseList, error) {
	var result parser.ClauseList
	for _, list := range lists {
		for _, c := range list {
			dup := slices.ContainsFunc(result, func(kept parser.Clause) bool {
				return equalClauses(kept, c)
			})
			if !dup {
				result = append(result, c.Clone())
			}
		}
	}
	if len(result) == 0 {
		return nil, nil
	}
	if err := parser.Validate(result); err != nil {
		return nil, fmt.Errorf("merge pql: %w", err)
	}
	return result, nil
}

func equalClauses(c1, c2 parser.Clause) bool {
	return c1.Operator == c2.Operator &&
		c1.Field == c2.Field &&
		slices.EqualFunc(c1.Values, c2.Values, parser.Value.Equal) &&
		slices.EqualFunc(c1.Clauses, c2.Clauses, equalClauses)
}

// FilterOnly returns the clauses of list that restrict which documents match
// (see [parser.IsFilter]), dropping projection, paging, and sorting clauses.
// The filters of a count(...) clause are kept as top-level clauses.
// The result shares no memory with list
// and is nil if list has no filters.
func FilterOnly(list parser.ClauseList) parser.ClauseList {
	var result parser.ClauseList
	for _, c := range list {
		switch {
		case c.Operator == parser.CountOperator:
			for _, sub := range c.Clauses {
				result = append(result, sub.Clone())
			}
		case parser.IsFilter(c.Operator):
			result = append(result, c.Clone())
		}
	}
	return result
}

// CountStatement returns a query that counts the documents matched by list:
// a single count(...) clause whose arguments are the filters of list
// as returned by [FilterOnly].
// A list without filters produces a bare count().
// CountStatement returns an error if the result fails [parser.Validate].
func CountStatement(list parser.ClauseList) (parser.ClauseList, error) {
	result := parser.ClauseList{{
		Operator: parser.CountOperator,
		Clauses:  FilterOnly(list),
	}}
	if err := parser.Validate(result); err != nil {
		return nil, fmt.Errorf("count pql: %w", err)
	}
	return result, nil
}
