package parser

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestScan(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []Token
	}{
		{
			name:  "Empty",
			query: "",
			want:  []Token{},
		},
		{
			name:  "WhitespaceOnly",
			query: " \t\n ",
			want:  []Token{},
		},
		{
			name:  "Count",
			query: "count()",
			want: []Token{
				{Kind: TokenIdentifier, Span: newSpan(0, 5), Value: "count"},
				{Kind: TokenLParen, Span: newSpan(5, 6)},
				{Kind: TokenRParen, Span: newSpan(6, 7)},
			},
		},
		{
			name:  "NumberArgument",
			query: "eq(test, 123)",
			want: []Token{
				{Kind: TokenIdentifier, Span: newSpan(0, 2), Value: "eq"},
				{Kind: TokenLParen, Span: newSpan(2, 3)},
				{Kind: TokenIdentifier, Span: newSpan(3, 7), Value: "test"},
				{Kind: TokenComma, Span: newSpan(7, 8)},
				{Kind: TokenLiteral, Span: newSpan(9, 12), Value: "123"},
				{Kind: TokenRParen, Span: newSpan(12, 13)},
			},
		},
		{
			name:  "FieldPath",
			query: `eq(donor.gender,"male")`,
			want: []Token{
				{Kind: TokenIdentifier, Span: newSpan(0, 2), Value: "eq"},
				{Kind: TokenLParen, Span: newSpan(2, 3)},
				{Kind: TokenIdentifier, Span: newSpan(3, 15), Value: "donor.gender"},
				{Kind: TokenComma, Span: newSpan(15, 16)},
				{Kind: TokenString, Span: newSpan(16, 22), Value: "male"},
				{Kind: TokenRParen, Span: newSpan(22, 23)},
			},
		},
		{
			name:  "Wildcard",
			query: "select(*)",
			want: []Token{
				{Kind: TokenIdentifier, Span: newSpan(0, 6), Value: "select"},
				{Kind: TokenLParen, Span: newSpan(6, 7)},
				{Kind: TokenStar, Span: newSpan(7, 8)},
				{Kind: TokenRParen, Span: newSpan(8, 9)},
			},
		},
		{
			name:  "SingleQuotedString",
			query: "'123'",
			want: []Token{
				{Kind: TokenString, Span: newSpan(0, 5), Value: "123"},
			},
		},
		{
			name:  "DoubleQuotedString",
			query: `"123"`,
			want: []Token{
				{Kind: TokenString, Span: newSpan(0, 5), Value: "123"},
			},
		},
		{
			name:  "OtherQuoteInsideString",
			query: `'say "hi"'`,
			want: []Token{
				{Kind: TokenString, Span: newSpan(0, 10), Value: `say "hi"`},
			},
		},
		{
			name:  "EscapedQuotes",
			query: `"say \"hi\""`,
			want: []Token{
				{Kind: TokenString, Span: newSpan(0, 12), Value: `say "hi"`},
			},
		},
		{
			name:  "EscapedBackslash",
			query: `"a\\b"`,
			want: []Token{
				{Kind: TokenString, Span: newSpan(0, 6), Value: `a\b`},
			},
		},
		{
			name:  "MultiByteString",
			query: "'é'",
			want: []Token{
				{Kind: TokenString, Span: newSpan(0, 4), Value: "é"},
			},
		},
		{
			name:  "NewlineInString",
			query: "\"a\nb\"",
			want: []Token{
				{Kind: TokenString, Span: newSpan(0, 5), Value: "a\nb"},
			},
		},
		{
			name:  "EmptyString",
			query: `""`,
			want: []Token{
				{Kind: TokenString, Span: newSpan(0, 2), Value: ""},
			},
		},
		{
			name:  "UnterminatedString",
			query: `"abc`,
			want: []Token{
				{Kind: TokenError, Span: newSpan(0, 4)},
			},
		},
		{
			name:  "UnterminatedEscape",
			query: `"abc\`,
			want: []Token{
				{Kind: TokenError, Span: newSpan(0, 5)},
			},
		},
		{
			name:  "NegativeDecimal",
			query: "-12.5",
			want: []Token{
				{Kind: TokenLiteral, Span: newSpan(0, 5), Value: "-12.5"},
			},
		},
		{
			name:  "MalformedLiteral",
			query: "12abc",
			want: []Token{
				{Kind: TokenLiteral, Span: newSpan(0, 5), Value: "12abc"},
			},
		},
		{
			name:  "TrailingDot",
			query: "donor.",
			want: []Token{
				{Kind: TokenError, Span: newSpan(0, 6)},
			},
		},
		{
			name:  "DigitAfterDot",
			query: "donor.1",
			want: []Token{
				{Kind: TokenError, Span: newSpan(0, 6)},
				{Kind: TokenLiteral, Span: newSpan(6, 7), Value: "1"},
			},
		},
		{
			name:  "UnrecognizedCharacter",
			query: "eq(a;1)",
			want: []Token{
				{Kind: TokenIdentifier, Span: newSpan(0, 2), Value: "eq"},
				{Kind: TokenLParen, Span: newSpan(2, 3)},
				{Kind: TokenIdentifier, Span: newSpan(3, 4), Value: "a"},
				{Kind: TokenError, Span: newSpan(4, 5)},
				{Kind: TokenLiteral, Span: newSpan(5, 6), Value: "1"},
				{Kind: TokenRParen, Span: newSpan(6, 7)},
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := Scan(test.query)
			// Error messages are not part of the contract.
			for i := range got {
				if got[i].Kind == TokenError {
					got[i].Value = ""
				}
			}
			if diff := cmp.Diff(test.want, got, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("Scan(%q) (-want +got):\n%s", test.query, diff)
			}
		})
	}
}

func TestTokenKindString(t *testing.T) {
	tests := []struct {
		kind TokenKind
		want string
	}{
		{TokenIdentifier, "TokenIdentifier"},
		{TokenRParen, "TokenRParen"},
		{TokenError, "TokenError"},
		{TokenKind(99), "TokenKind(99)"},
	}
	for _, test := range tests {
		if got := test.kind.String(); got != test.want {
			t.Errorf("TokenKind(%d).String() = %q; want %q", int(test.kind), got, test.want)
		}
	}
}
