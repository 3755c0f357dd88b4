package parser

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// TokenKind is an enumeration of types of [Token]
// that can be returned by [Scan].
type TokenKind int

// Token kinds.
const (
	// TokenIdentifier is an operator name or a dot-separated field path
	// like "donor.gender".
	// The Value will be the identifier itself.
	TokenIdentifier TokenKind = 1 + iota
	// TokenString is a string literal enclosed by single or double quotes.
	// The Value will be the literal's content with delimiters removed
	// and escape sequences evaluated.
	TokenString
	// TokenLiteral is an unquoted literal that starts with a digit,
	// a hyphen, or a period, like "123", "-4.5", or "12abc".
	// The Value will be the literal text exactly as written.
	// Whether the text is a valid number is decided by the parser.
	TokenLiteral
	// TokenStar is a single asterisk character ("*").
	// The Value will be the empty string.
	TokenStar
	// TokenComma is a single comma character (",").
	// The Value will be the empty string.
	TokenComma
	// TokenLParen is a left parenthesis.
	// The Value will be the empty string.
	TokenLParen
	// TokenRParen is a right parenthesis.
	// The Value will be the empty string.
	TokenRParen

	// TokenError is a marker for a scan error.
	// The Value will contain the error message.
	TokenError TokenKind = -1
)

// String returns the name of the token kind, like "TokenComma".
func (kind TokenKind) String() string {
	switch kind {
	case TokenIdentifier:
		return "TokenIdentifier"
	case TokenString:
		return "TokenString"
	case TokenLiteral:
		return "TokenLiteral"
	case TokenStar:
		return "TokenStar"
	case TokenComma:
		return "TokenComma"
	case TokenLParen:
		return "TokenLParen"
	case TokenRParen:
		return "TokenRParen"
	case TokenError:
		return "TokenError"
	default:
		return fmt.Sprintf("TokenKind(%d)", int(kind))
	}
}

// Token is a syntactical element in a query.
type Token struct {
	// Kind is the token's type.
	Kind TokenKind
	// Span holds the location of the token.
	Span Span
	// Value contains kind-specific information about the token.
	// See the docs for [TokenKind] for what Value represents.
	Value string
}

func errorToken(span Span, format string, args ...any) Token {
	return Token{
		Kind:  TokenError,
		Span:  span,
		Value: fmt.Sprintf(format, args...),
	}
}

type scanner struct {
	s    string
	pos  int
	last int
}

// Scan turns a Portal Query Language expression into a sequence of [Token] values.
// Errors will be indicated with the [TokenError] kind.
func Scan(query string) []Token {
	s := scanner{s: query}
	var tokens []Token
	for {
		start := s.pos
		c, ok := s.next()
		if !ok {
			break
		}
		switch {
		case unicode.IsSpace(c):
			// Skip insignificant whitespace.
		case isAlpha(c) || c == '_':
			s.prev()
			tokens = append(tokens, s.ident())
		case isDigit(c) || c == '-' || c == '.':
			s.prev()
			tokens = append(tokens, s.literal())
		case c == '"' || c == '\'':
			s.prev()
			tokens = append(tokens, s.string())
		case c == '*':
			tokens = append(tokens, Token{
				Kind: TokenStar,
				Span: newSpan(start, s.pos),
			})
		case c == ',':
			tokens = append(tokens, Token{
				Kind: TokenComma,
				Span: newSpan(start, s.pos),
			})
		case c == '(':
			tokens = append(tokens, Token{
				Kind: TokenLParen,
				Span: newSpan(start, s.pos),
			})
		case c == ')':
			tokens = append(tokens, Token{
				Kind: TokenRParen,
				Span: newSpan(start, s.pos),
			})
		default:
			span := newSpan(start, s.pos)
			tokens = append(tokens, errorToken(span, "unrecognized character %q", spanString(query, span)))
		}
	}
	return tokens
}

// ident scans an identifier and any dot-separated segments that follow it.
func (s *scanner) ident() Token {
	start := s.pos
	s.next() // assume that the caller validated first character
	for {
		c, ok := s.next()
		if !ok {
			break
		}
		if c == '.' {
			dot := s.last
			c, ok := s.next()
			if !ok || !(isAlpha(c) || c == '_') {
				if ok {
					s.prev()
				}
				return errorToken(newSpan(start, dot+1), "invalid field path %q: expected identifier after '.'", s.s[start:dot+1])
			}
			continue
		}
		if !isIdentChar(c) {
			s.prev()
			break
		}
	}
	span := newSpan(start, s.pos)
	return Token{
		Kind:  TokenIdentifier,
		Span:  span,
		Value: spanString(s.s, span),
	}
}

// literal scans a run of characters that could form a bare literal.
// It does not validate the literal's contents.
func (s *scanner) literal() Token {
	start := s.pos
	for {
		c, ok := s.next()
		if !ok {
			break
		}
		if !(isIdentChar(c) || c == '.' || c == '-' || c == '+') {
			s.prev()
			break
		}
	}
	span := newSpan(start, s.pos)
	return Token{
		Kind:  TokenLiteral,
		Span:  span,
		Value: spanString(s.s, span),
	}
}

func (s *scanner) string() Token {
	start := s.pos
	quoteChar, ok := s.next()
	if !ok {
		return errorToken(indexSpan(start), "unexpected EOF (expected string)")
	}
	if quoteChar != '\'' && quoteChar != '"' {
		s.prev()
		return errorToken(indexSpan(start), "unexpected %q (expected string)", quoteChar)
	}

	valueStart := s.pos
	var valueBuilder *strings.Builder // nil if no escapes encountered
	for {
		c, ok := s.next()
		if !ok {
			return errorToken(newSpan(start, s.pos), "unterminated string")
		}
		switch c {
		case quoteChar:
			var value string
			if valueBuilder == nil {
				value = s.s[valueStart:s.last]
			} else {
				value = valueBuilder.String()
			}
			return Token{
				Kind:  TokenString,
				Span:  newSpan(start, s.pos),
				Value: value,
			}
		case '\\':
			if valueBuilder == nil {
				valueBuilder = new(strings.Builder)
				valueBuilder.WriteString(s.s[valueStart:s.last])
			}
			escaped := s.pos
			if _, ok := s.next(); !ok {
				return errorToken(newSpan(start, s.pos), "unterminated string")
			}
			valueBuilder.WriteString(s.s[escaped:s.pos])
		default:
			if valueBuilder != nil {
				// Copy bytes rather than the decoded rune
				// so that invalid UTF-8 passes through unchanged.
				valueBuilder.WriteString(s.s[s.last:s.pos])
			}
		}
	}
}

func (s *scanner) next() (rune, bool) {
	if s.pos >= len(s.s) {
		return 0, false
	}
	c, n := utf8.DecodeRuneInString(s.s[s.pos:])
	s.last = s.pos
	s.pos += n
	return c, true
}

func (s *scanner) prev() {
	s.pos = s.last
}

func isAlpha(c rune) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z'
}

func isDigit(c rune) bool {
	return '0' <= c && c <= '9'
}

func isIdentChar(c rune) bool {
	return isAlpha(c) || isDigit(c) || c == '_'
}
