package parser

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
)

// MarshalJSON encodes a number as a JSON number
// and text as a JSON string.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case NumberValue:
		if math.IsNaN(v.num) || math.IsInf(v.num, 0) {
			return nil, fmt.Errorf("marshal pql value: %v is not a finite number", v.num)
		}
		return []byte(strconv.FormatFloat(v.num, 'f', -1, 64)), nil
	case TextValue:
		return json.Marshal(v.str)
	default:
		return nil, errors.New("marshal pql value: empty value")
	}
}

// UnmarshalJSON decodes a JSON number into a number [Value]
// and a JSON string into a text [Value].
// Any other JSON type is an error.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var x any
	if err := dec.Decode(&x); err != nil {
		return fmt.Errorf("unmarshal pql value: %w", err)
	}
	switch x := x.(type) {
	case json.Number:
		f, err := strconv.ParseFloat(string(x), 64)
		if err != nil {
			return fmt.Errorf("unmarshal pql value: %w", err)
		}
		*v = Number(f)
	case string:
		*v = Text(x)
	default:
		return fmt.Errorf("unmarshal pql value: %s is not a number or string", bytes.TrimSpace(data))
	}
	return nil
}

// clauseJSON is the JSON shape of a [Clause].
// Nested clauses are stored in Values after the clause's literal values.
type clauseJSON struct {
	Op     string            `json:"op"`
	Field  string            `json:"field,omitempty"`
	Values []json.RawMessage `json:"values,omitempty"`
}

// MarshalJSON encodes the clause as an object like
// {"op":"eq","field":"donor.gender","values":["male"]}.
// Nested clauses appear as objects in "values" after any literal values.
func (c Clause) MarshalJSON() ([]byte, error) {
	obj := clauseJSON{
		Op:    c.Operator,
		Field: c.Field,
	}
	if n := len(c.Values) + len(c.Clauses); n > 0 {
		obj.Values = make([]json.RawMessage, 0, n)
	}
	for _, v := range c.Values {
		data, err := v.MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("marshal %s clause: %w", c.Operator, err)
		}
		obj.Values = append(obj.Values, data)
	}
	for _, sub := range c.Clauses {
		data, err := sub.MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("marshal %s clause: %w", c.Operator, err)
		}
		obj.Values = append(obj.Values, data)
	}
	return json.Marshal(obj)
}

// UnmarshalJSON decodes the format produced by [Clause.MarshalJSON].
// It does not check the clause with [Validate].
func (c *Clause) UnmarshalJSON(data []byte) error {
	var obj clauseJSON
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("unmarshal pql clause: %w", err)
	}
	result := Clause{
		Operator: obj.Op,
		Field:    obj.Field,
	}
	for _, raw := range obj.Values {
		raw = bytes.TrimSpace(raw)
		if len(raw) > 0 && raw[0] == '{' {
			var sub Clause
			if err := sub.UnmarshalJSON(raw); err != nil {
				return err
			}
			result.Clauses = append(result.Clauses, sub)
			continue
		}
		if len(result.Clauses) > 0 {
			return fmt.Errorf("unmarshal pql clause: %s: value %s follows nested clause", obj.Op, raw)
		}
		var v Value
		if err := v.UnmarshalJSON(raw); err != nil {
			return err
		}
		result.Values = append(result.Values, v)
	}
	*c = result
	return nil
}
