package record

import "fmt"

// Update applies every explicitly-set field of other (fields that differ
// from their defaults) to this record, honoring each field's update policy.
// Fields named in exclude are skipped. Applying a merge or append policy to
// a value shape that cannot support it fails with ErrPolicy.
func (r *Record) Update(other *Record, exclude ...string) error {
	if other == nil {
		return nil
	}
	if other.schema != r.schema {
		return fmt.Errorf("%w: cannot update %s from %s", ErrTypeMismatch, r.schema.name, other.schema.name)
	}
	skip := make(map[string]struct{}, len(exclude))
	for _, name := range exclude {
		skip[name] = struct{}{}
	}
	for _, f := range r.schema.fields {
		if _, excluded := skip[f.name]; excluded {
			continue
		}
		if other.IsDefault(f.name) {
			continue
		}
		var err error
		switch f.policy {
		case PolicyIgnore:
			// Never touched by Update.
		case PolicyReplace:
			r.values[f.name] = copyValue(other.values[f.name], f.typ)
		case PolicyMerge:
			err = r.mergeField(f, other.values[f.name])
		case PolicyAppend:
			err = r.appendField(f, other.values[f.name], false)
		case PolicyAppendUnique:
			err = r.appendField(f, other.values[f.name], true)
		default:
			err = fmt.Errorf("%w: field %s.%s declares unknown policy %v", ErrPolicy, r.schema.name, f.name, f.policy)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// mergeField unions maps and sets (other's entries win for maps) and
// recursively updates nested records. Both sides must currently hold the
// same mergeable shape.
func (r *Record) mergeField(f Field, otherVal any) error {
	cur := r.values[f.name]
	ct, errCur := resolveUnion(cur, f.typ)
	ot, errOther := resolveUnion(otherVal, f.typ)
	if errCur != nil || errOther != nil {
		return fmt.Errorf("%w: field %s.%s holds an unresolvable value", ErrPolicy, r.schema.name, f.name)
	}
	switch {
	case ct.kind == KindMap && ot.kind == KindMap:
		merged := make(map[string]any)
		for k, v := range cur.(map[string]any) {
			merged[k] = v
		}
		for k, v := range otherVal.(map[string]any) {
			merged[k] = copyValue(v, ct.elem)
		}
		r.values[f.name] = merged
	case ct.kind == KindSet && ot.kind == KindSet:
		merged := append([]any(nil), cur.([]any)...)
		for _, v := range otherVal.([]any) {
			if !containsValue(merged, v, ct.elem) {
				merged = append(merged, copyValue(v, ct.elem))
			}
		}
		r.values[f.name] = merged
	case ct.kind == KindRecord && ot.kind == KindRecord && ct.schema == ot.schema:
		return cur.(*Record).Update(otherVal.(*Record))
	default:
		return fmt.Errorf("%w: merge on field %s.%s requires matching map, set or record values, have %s and %s",
			ErrPolicy, r.schema.name, f.name, ct, ot)
	}
	return nil
}

func (r *Record) appendField(f Field, otherVal any, unique bool) error {
	cur := r.values[f.name]
	ct, errCur := resolveUnion(cur, f.typ)
	ot, errOther := resolveUnion(otherVal, f.typ)
	if errCur != nil || errOther != nil || ct.kind != KindList || ot.kind != KindList {
		return fmt.Errorf("%w: append on field %s.%s requires list values", ErrPolicy, r.schema.name, f.name)
	}
	out := append([]any(nil), cur.([]any)...)
	for _, v := range otherVal.([]any) {
		if unique && containsValue(out, v, ct.elem) {
			continue
		}
		out = append(out, copyValue(v, ct.elem))
	}
	r.values[f.name] = out
	return nil
}
