package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Decode parses the canonical textual form into a fresh record. Absent
// fields take their declared defaults; a required field that is absent
// fails with ErrMissingField. Every value produced by Encode decodes back
// to an equal record.
func Decode(schema *Schema, data []byte) (*Record, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: invalid encoding: %v", ErrTypeMismatch, err)
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: expected object for %s, got %T", ErrTypeMismatch, schema.name, raw)
	}
	return decodeRecord(schema, obj)
}

func decodeRecord(schema *Schema, obj map[string]any) (*Record, error) {
	for name := range obj {
		if _, ok := schema.Field(name); !ok {
			return nil, fmt.Errorf("%w: %s.%s", ErrUnknownField, schema.name, name)
		}
	}
	r := &Record{schema: schema, values: make(map[string]any, len(schema.fields))}
	for _, f := range schema.fields {
		raw, present := obj[f.name]
		if !present {
			if !f.hasDefault {
				return nil, fmt.Errorf("%w: %s.%s", ErrMissingField, schema.name, f.name)
			}
			r.values[f.name] = copyValue(f.def, f.typ)
			continue
		}
		v, err := decodeValue(raw, f.typ)
		if err != nil {
			return nil, fmt.Errorf("field %s.%s: %w", schema.name, f.name, err)
		}
		r.values[f.name] = v
	}
	return r, nil
}

func decodeValue(raw any, t *Type) (any, error) {
	switch t.kind {
	case KindUnion:
		// First member that both type-matches and decodes wins. This
		// left-to-right tie-break is part of the contract.
		for _, m := range t.members {
			if v, err := decodeValue(raw, m); err == nil {
				return v, nil
			}
		}
		return nil, fmt.Errorf("%w: %s not compatible with any of %s", ErrTypeMismatch, rawName(raw), t)
	case KindNull:
		if raw != nil {
			return nil, fmt.Errorf("%w: expected null, got %s", ErrTypeMismatch, rawName(raw))
		}
		return nil, nil
	case KindBool:
		b, ok := raw.(bool)
		if !ok {
			return nil, fmt.Errorf("%w: expected bool, got %s", ErrTypeMismatch, rawName(raw))
		}
		return b, nil
	case KindString:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("%w: expected string, got %s", ErrTypeMismatch, rawName(raw))
		}
		return s, nil
	case KindInt:
		return decodeInt(raw)
	case KindFloat:
		return decodeFloat(raw)
	case KindEnum:
		if t.enum.backing == KindInt {
			i, err := decodeInt(raw)
			if err != nil {
				return nil, err
			}
			if !t.enum.Contains(i) {
				return nil, fmt.Errorf("%w: %d is not a member of %s", ErrTypeMismatch, i, t.enum.name)
			}
			return i, nil
		}
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("%w: expected %s label, got %s", ErrTypeMismatch, t.enum.name, rawName(raw))
		}
		if !t.enum.Contains(s) {
			return nil, fmt.Errorf("%w: %q is not a member of %s", ErrTypeMismatch, s, t.enum.name)
		}
		return s, nil
	case KindRecord:
		obj, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: expected %s object, got %s", ErrTypeMismatch, t.schema.name, rawName(raw))
		}
		return decodeRecord(t.schema, obj)
	case KindList:
		elems, ok := raw.([]any)
		if !ok {
			return nil, fmt.Errorf("%w: expected list, got %s", ErrTypeMismatch, rawName(raw))
		}
		out := make([]any, len(elems))
		for i, e := range elems {
			v, err := decodeValue(e, t.elem)
			if err != nil {
				return nil, fmt.Errorf("list element %d: %w", i, err)
			}
			out[i] = v
		}
		return out, nil
	case KindSet:
		elems, ok := raw.([]any)
		if !ok {
			return nil, fmt.Errorf("%w: expected set, got %s", ErrTypeMismatch, rawName(raw))
		}
		out := make([]any, 0, len(elems))
		for i, e := range elems {
			v, err := decodeValue(e, t.elem)
			if err != nil {
				return nil, fmt.Errorf("set element %d: %w", i, err)
			}
			if !containsValue(out, v, t.elem) {
				out = append(out, v)
			}
		}
		return out, nil
	case KindTuple:
		elems, ok := raw.([]any)
		if !ok {
			return nil, fmt.Errorf("%w: expected tuple, got %s", ErrTypeMismatch, rawName(raw))
		}
		if len(elems) != len(t.members) {
			return nil, fmt.Errorf("%w: tuple arity is %d, got %d elements", ErrTypeMismatch, len(t.members), len(elems))
		}
		out := make([]any, len(elems))
		for i, e := range elems {
			v, err := decodeValue(e, t.members[i])
			if err != nil {
				return nil, fmt.Errorf("tuple element %d: %w", i, err)
			}
			out[i] = v
		}
		return out, nil
	case KindMap:
		entries, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: expected object, got %s", ErrTypeMismatch, rawName(raw))
		}
		out := make(map[string]any, len(entries))
		for k, e := range entries {
			v, err := decodeValue(e, t.elem)
			if err != nil {
				return nil, fmt.Errorf("map entry %q: %w", k, err)
			}
			out[k] = v
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: cannot decode kind %v", ErrSchema, t.kind)
}

// decodeInt accepts only integer literals: a number with a decimal point or
// exponent is a float, not an int.
func decodeInt(raw any) (int64, error) {
	num, ok := raw.(json.Number)
	if !ok || strings.ContainsAny(num.String(), ".eE") {
		return 0, fmt.Errorf("%w: expected int, got %s", ErrTypeMismatch, rawName(raw))
	}
	i, err := strconv.ParseInt(num.String(), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: expected int, got %q", ErrTypeMismatch, num.String())
	}
	return i, nil
}

// decodeFloat accepts only literals with a decimal point or exponent,
// mirroring decodeInt, so int|float unions resolve the same way in both
// directions.
func decodeFloat(raw any) (float64, error) {
	num, ok := raw.(json.Number)
	if !ok || !strings.ContainsAny(num.String(), ".eE") {
		return 0, fmt.Errorf("%w: expected float, got %s", ErrTypeMismatch, rawName(raw))
	}
	f, err := num.Float64()
	if err != nil {
		return 0, fmt.Errorf("%w: expected float, got %q", ErrTypeMismatch, num.String())
	}
	return f, nil
}

// rawName names a decoded JSON value for error messages.
func rawName(raw any) string {
	switch raw.(type) {
	case nil:
		return "null"
	case bool:
		return "bool"
	case string:
		return "string"
	case json.Number:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	return fmt.Sprintf("%T", raw)
}
