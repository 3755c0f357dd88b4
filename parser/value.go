package parser

import (
	"errors"
	"fmt"
	"strconv"
)

// coerceLiteral converts a [TokenString] or [TokenLiteral] into a [Value].
// Quoted tokens are always text, even if their content looks numeric.
func coerceLiteral(tok Token) (Value, error) {
	switch tok.Kind {
	case TokenString:
		return Text(tok.Value), nil
	case TokenLiteral:
		if !isNumericLiteral(tok.Value) {
			return Value{}, fmt.Errorf("invalid literal %q (expected number or quoted string)", tok.Value)
		}
		x, err := strconv.ParseFloat(tok.Value, 64)
		if err != nil {
			if errors.Is(err, strconv.ErrRange) {
				return Value{}, fmt.Errorf("numeric literal %s out of range", tok.Value)
			}
			return Value{}, fmt.Errorf("invalid numeric literal %s: %v", tok.Value, err)
		}
		return Number(x), nil
	default:
		return Value{}, fmt.Errorf("%v is not a literal", tok.Kind)
	}
}

// isNumericLiteral reports whether s is an optionally negative
// integer or decimal number: -?[0-9]+(\.[0-9]+)?
func isNumericLiteral(s string) bool {
	i := 0
	if i < len(s) && s[i] == '-' {
		i++
	}
	intStart := i
	for i < len(s) && '0' <= s[i] && s[i] <= '9' {
		i++
	}
	if i == intStart {
		return false
	}
	if i == len(s) {
		return true
	}
	if s[i] != '.' {
		return false
	}
	i++
	fracStart := i
	for i < len(s) && '0' <= s[i] && s[i] <= '9' {
		i++
	}
	return i > fracStart && i == len(s)
}
