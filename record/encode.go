package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Encode serializes the record to its canonical textual form: a JSON object
// holding only the fields that differ from their declared defaults, in
// schema declaration order. A record with all fields at their defaults
// encodes to "{}".
func Encode(r *Record) ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeRecordBody(&buf, r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeRecordBody(buf *bytes.Buffer, r *Record) error {
	buf.WriteByte('{')
	first := true
	for _, f := range r.schema.fields {
		if r.IsDefault(f.name) {
			continue
		}
		if !first {
			buf.WriteString(", ")
		}
		first = false
		writeJSONString(buf, f.name)
		buf.WriteString(": ")
		if err := encodeValue(buf, r.values[f.name], f.typ); err != nil {
			return fmt.Errorf("field %s.%s: %w", r.schema.name, f.name, err)
		}
	}
	buf.WriteByte('}')
	return nil
}

func encodeValue(buf *bytes.Buffer, v any, t *Type) error {
	resolved, err := resolveUnion(v, t)
	if err != nil {
		return err
	}
	switch resolved.kind {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		if v.(bool) {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case KindString:
		writeJSONString(buf, v.(string))
	case KindInt:
		buf.WriteString(strconv.FormatInt(v.(int64), 10))
	case KindFloat:
		return writeFloat(buf, v.(float64))
	case KindEnum:
		if resolved.enum.backing == KindInt {
			buf.WriteString(strconv.FormatInt(v.(int64), 10))
		} else {
			writeJSONString(buf, v.(string))
		}
	case KindRecord:
		return encodeRecordBody(buf, v.(*Record))
	case KindList, KindTuple:
		elems := v.([]any)
		buf.WriteByte('[')
		for i, e := range elems {
			if i > 0 {
				buf.WriteString(", ")
			}
			et := resolved.elem
			if resolved.kind == KindTuple {
				et = resolved.members[i]
			}
			if err := encodeValue(buf, e, et); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindSet:
		// Element order carries no meaning; encode in a canonical order so
		// equal sets produce identical text.
		elems := v.([]any)
		encoded := make([]string, len(elems))
		for i, e := range elems {
			var eb bytes.Buffer
			if err := encodeValue(&eb, e, resolved.elem); err != nil {
				return err
			}
			encoded[i] = eb.String()
		}
		sort.Strings(encoded)
		buf.WriteByte('[')
		buf.WriteString(strings.Join(encoded, ", "))
		buf.WriteByte(']')
	case KindMap:
		entries := v.(map[string]any)
		keys := make([]string, 0, len(entries))
		for k := range entries {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteString(", ")
			}
			writeJSONString(buf, k)
			buf.WriteString(": ")
			if err := encodeValue(buf, entries[k], resolved.elem); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("%w: cannot encode kind %v", ErrSchema, resolved.kind)
	}
	return nil
}

func writeJSONString(buf *bytes.Buffer, s string) {
	data, _ := json.Marshal(s)
	buf.Write(data)
}

// writeFloat keeps the decimal point so the value decodes back as a float
// rather than an integer literal.
func writeFloat(buf *bytes.Buffer, f float64) error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("%w: %v has no textual encoding", ErrTypeMismatch, f)
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	buf.WriteString(s)
	return nil
}
