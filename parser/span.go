// Copyright 2024 The Portal PQL Authors
// SPDX-License-Identifier: Apache-2.0

package parser

import "fmt"

// A Span is a reference contiguous sequence of bytes in a query.
type Span struct {
	// Start is the index of the first byte of the span,
	// relative to the beginning of the query.
	Start int
	// End is the end index of the span (exclusive),
	// relative to the beginning of the query.
	End int
}

func newSpan(start, end int) Span {
	return Span{Start: start, End: end}
}

func indexSpan(i int) Span {
	return Span{Start: i, End: i}
}

func nullSpan() Span {
	return Span{Start: -1, End: -1}
}

// IsValid reports whether the span has a non-negative length
// and non-negative indices.
func (span Span) IsValid() bool {
	return span.Start >= 0 && span.End >= 0 && span.Start <= span.End
}

// Len returns the length of the span
// or zero if the span is invalid.
func (span Span) Len() int {
	if !span.IsValid() {
		return 0
	}
	return span.End - span.Start
}

// String formats the span indices as a mathematical range like "[12,34)".
func (span Span) String() string {
	return fmt.Sprintf("[%d,%d)", span.Start, span.End)
}

// Overlaps reports whether span and span2 intersect.
// A zero-length span overlaps another span
// if its start lies within the other span's bounds, inclusive.
func (span Span) Overlaps(span2 Span) bool {
	if !span.IsValid() || !span2.IsValid() {
		return false
	}
	return max(span.Start, span2.Start) <= min(span.End, span2.End)
}

// spanString returns the slice of s covered by span,
// or the empty string if the span does not lie within s.
func spanString(s string, span Span) string {
	if !span.IsValid() || span.End > len(s) {
		return ""
	}
	return s[span.Start:span.End]
}
