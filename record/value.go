package record

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
)

// normalize validates v against the declared type t and converts it to the
// canonical in-memory representation: nil, bool, int64, float64, string,
// []any for lists, sets and tuples, map[string]any for mappings, and
// *Record for nested records. Sets are deduplicated.
func normalize(v any, t *Type) (any, error) {
	switch t.kind {
	case KindUnion:
		for _, m := range t.members {
			if norm, err := normalize(v, m); err == nil {
				return norm, nil
			}
		}
		return nil, fmt.Errorf("%w: %T value not compatible with any of %s", ErrTypeMismatch, v, t)
	case KindNull:
		if v != nil {
			return nil, fmt.Errorf("%w: expected null, got %T", ErrTypeMismatch, v)
		}
		return nil, nil
	case KindString:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%w: expected string, got %T", ErrTypeMismatch, v)
		}
		return s, nil
	case KindBool:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("%w: expected bool, got %T", ErrTypeMismatch, v)
		}
		return b, nil
	case KindInt:
		i, ok := toInt64(v)
		if !ok {
			return nil, fmt.Errorf("%w: expected int, got %T", ErrTypeMismatch, v)
		}
		return i, nil
	case KindFloat:
		switch f := v.(type) {
		case float64:
			return f, nil
		case float32:
			return float64(f), nil
		}
		return nil, fmt.Errorf("%w: expected float, got %T", ErrTypeMismatch, v)
	case KindEnum:
		switch t.enum.backing {
		case KindInt:
			i, ok := toInt64(v)
			if !ok {
				return nil, fmt.Errorf("%w: expected %s ordinal, got %T", ErrTypeMismatch, t.enum.name, v)
			}
			if !t.enum.Contains(i) {
				return nil, fmt.Errorf("%w: %d is not a member of %s", ErrTypeMismatch, i, t.enum.name)
			}
			return i, nil
		default:
			s, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("%w: expected %s label, got %T", ErrTypeMismatch, t.enum.name, v)
			}
			if !t.enum.Contains(s) {
				return nil, fmt.Errorf("%w: %q is not a member of %s", ErrTypeMismatch, s, t.enum.name)
			}
			return s, nil
		}
	case KindRecord:
		r, ok := v.(*Record)
		if !ok || r == nil {
			return nil, fmt.Errorf("%w: expected %s record, got %T", ErrTypeMismatch, t.schema.name, v)
		}
		if r.schema != t.schema {
			return nil, fmt.Errorf("%w: expected %s record, got %s", ErrTypeMismatch, t.schema.name, r.schema.name)
		}
		return r, nil
	case KindList:
		elems, ok := asSlice(v)
		if !ok {
			return nil, fmt.Errorf("%w: expected list, got %T", ErrTypeMismatch, v)
		}
		out := make([]any, 0, len(elems))
		for i, e := range elems {
			norm, err := normalize(e, t.elem)
			if err != nil {
				return nil, fmt.Errorf("list element %d: %w", i, err)
			}
			out = append(out, norm)
		}
		return out, nil
	case KindSet:
		elems, ok := asSlice(v)
		if !ok {
			return nil, fmt.Errorf("%w: expected set, got %T", ErrTypeMismatch, v)
		}
		out := make([]any, 0, len(elems))
		for i, e := range elems {
			norm, err := normalize(e, t.elem)
			if err != nil {
				return nil, fmt.Errorf("set element %d: %w", i, err)
			}
			if !containsValue(out, norm, t.elem) {
				out = append(out, norm)
			}
		}
		return out, nil
	case KindTuple:
		elems, ok := asSlice(v)
		if !ok {
			return nil, fmt.Errorf("%w: expected tuple, got %T", ErrTypeMismatch, v)
		}
		if len(elems) != len(t.members) {
			return nil, fmt.Errorf("%w: tuple arity is %d, got %d elements", ErrTypeMismatch, len(t.members), len(elems))
		}
		out := make([]any, len(elems))
		for i, e := range elems {
			norm, err := normalize(e, t.members[i])
			if err != nil {
				return nil, fmt.Errorf("tuple element %d: %w", i, err)
			}
			out[i] = norm
		}
		return out, nil
	case KindMap:
		entries, ok := asStringMap(v)
		if !ok {
			return nil, fmt.Errorf("%w: expected string-keyed map, got %T", ErrTypeMismatch, v)
		}
		out := make(map[string]any, len(entries))
		for k, e := range entries {
			norm, err := normalize(e, t.elem)
			if err != nil {
				return nil, fmt.Errorf("map entry %q: %w", k, err)
			}
			out[k] = norm
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: unsupported kind %v", ErrSchema, t.kind)
}

func toInt64(v any) (int64, bool) {
	switch i := v.(type) {
	case int64:
		return i, true
	case int:
		return int64(i), true
	case int8:
		return int64(i), true
	case int16:
		return int64(i), true
	case int32:
		return int64(i), true
	case uint:
		if uint64(i) > math.MaxInt64 {
			return 0, false
		}
		return int64(i), true
	case uint8:
		return int64(i), true
	case uint16:
		return int64(i), true
	case uint32:
		return int64(i), true
	case uint64:
		if i > math.MaxInt64 {
			return 0, false
		}
		return int64(i), true
	}
	return 0, false
}

// asSlice converts any slice or array (but not strings or byte slices) to
// []any, so callers can pass typed slices like []string to Set and New.
func asSlice(v any) ([]any, bool) {
	if elems, ok := v.([]any); ok {
		return elems, true
	}
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil, false
	}
	if rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

func asStringMap(v any) (map[string]any, bool) {
	if entries, ok := v.(map[string]any); ok {
		return entries, true
	}
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, true
}

// resolveUnion picks the union member that admits the already-normalized
// value v, in declaration order. For non-union types it returns t itself.
func resolveUnion(v any, t *Type) (*Type, error) {
	if t.kind != KindUnion {
		return t, nil
	}
	for _, m := range t.members {
		if _, err := normalize(v, m); err == nil {
			return m, nil
		}
	}
	return nil, fmt.Errorf("%w: %T value not compatible with any of %s", ErrTypeMismatch, v, t)
}

// copyValue deep-copies a normalized value so that no mutable state is
// shared between records.
func copyValue(v any, t *Type) any {
	resolved, err := resolveUnion(v, t)
	if err != nil {
		return v
	}
	switch resolved.kind {
	case KindList, KindSet, KindTuple:
		elems := v.([]any)
		out := make([]any, len(elems))
		for i, e := range elems {
			et := resolved.elem
			if resolved.kind == KindTuple {
				et = resolved.members[i]
			}
			out[i] = copyValue(e, et)
		}
		return out
	case KindMap:
		entries := v.(map[string]any)
		out := make(map[string]any, len(entries))
		for k, e := range entries {
			out[k] = copyValue(e, resolved.elem)
		}
		return out
	case KindRecord:
		return v.(*Record).copy()
	}
	return v
}

// canonicalValue reduces a normalized value to a representation that
// reflect.DeepEqual can compare structurally: nested records become their
// canonical field maps and sets become slices in a canonical order.
func canonicalValue(v any, t *Type) any {
	resolved, err := resolveUnion(v, t)
	if err != nil {
		return v
	}
	switch resolved.kind {
	case KindList, KindTuple:
		elems := v.([]any)
		out := make([]any, len(elems))
		for i, e := range elems {
			et := resolved.elem
			if resolved.kind == KindTuple {
				et = resolved.members[i]
			}
			out[i] = canonicalValue(e, et)
		}
		return out
	case KindSet:
		elems := v.([]any)
		out := make([]any, len(elems))
		for i, e := range elems {
			out[i] = canonicalValue(e, resolved.elem)
		}
		sort.Slice(out, func(i, j int) bool {
			return canonicalKey(out[i]) < canonicalKey(out[j])
		})
		return out
	case KindMap:
		entries := v.(map[string]any)
		out := make(map[string]any, len(entries))
		for k, e := range entries {
			out[k] = canonicalValue(e, resolved.elem)
		}
		return out
	case KindRecord:
		return v.(*Record).CanonicalFields()
	}
	return v
}

// canonicalKey derives a deterministic ordering key for set elements.
func canonicalKey(canon any) string {
	data, err := json.Marshal(canon)
	if err != nil {
		return fmt.Sprintf("%#v", canon)
	}
	return string(data)
}

// valueEqual compares two normalized values of declared type t
// structurally, ignoring set ordering.
func valueEqual(a, b any, t *Type) bool {
	return reflect.DeepEqual(canonicalValue(a, t), canonicalValue(b, t))
}

func valueEqualCanonical(a, b map[string]any) bool {
	return reflect.DeepEqual(a, b)
}

func containsValue(elems []any, v any, t *Type) bool {
	for _, e := range elems {
		if valueEqual(e, v, t) {
			return true
		}
	}
	return false
}
