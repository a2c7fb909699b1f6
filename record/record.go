package record

import "fmt"

// Record is a structured value bound to a Schema. Every declared field
// always holds a value: required fields must be supplied at construction
// and the rest start at their declared defaults.
//
// Records are not safe for concurrent mutation.
type Record struct {
	schema *Schema
	values map[string]any
}

// New constructs a record, populating defaults and validating the supplied
// values. Every field without a default must be present in values.
func (s *Schema) New(values map[string]any) (*Record, error) {
	r := &Record{schema: s, values: make(map[string]any, len(s.fields))}
	for _, f := range s.fields {
		if f.hasDefault {
			r.values[f.name] = copyValue(f.def, f.typ)
		}
	}
	for name, v := range values {
		f, ok := s.Field(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s.%s", ErrUnknownField, s.name, name)
		}
		norm, err := normalize(v, f.typ)
		if err != nil {
			return nil, fmt.Errorf("field %s.%s: %w", s.name, name, err)
		}
		r.values[name] = norm
	}
	for _, f := range s.fields {
		if _, ok := r.values[f.name]; !ok {
			return nil, fmt.Errorf("%w: %s.%s", ErrMissingField, s.name, f.name)
		}
	}
	return r, nil
}

// MustNew is New that panics on error, for fixtures and literals.
func (s *Schema) MustNew(values map[string]any) *Record {
	r, err := s.New(values)
	if err != nil {
		panic(err)
	}
	return r
}

// Schema returns the schema this record is bound to.
func (r *Record) Schema() *Schema { return r.schema }

// Get returns the current value of the named field. The value is the live
// one, not a copy. Asking for an undeclared field is a programming error
// and panics.
func (r *Record) Get(name string) any {
	v, ok := r.values[name]
	if !ok {
		panic(fmt.Sprintf("record: %s has no field %q", r.schema.name, name))
	}
	return v
}

// Set validates v against the field's declared type and stores it.
func (r *Record) Set(name string, v any) error {
	f, ok := r.schema.Field(name)
	if !ok {
		return fmt.Errorf("%w: %s.%s", ErrUnknownField, r.schema.name, name)
	}
	norm, err := normalize(v, f.typ)
	if err != nil {
		return fmt.Errorf("field %s.%s: %w", r.schema.name, name, err)
	}
	r.values[name] = norm
	return nil
}

// IsDefault reports whether the named field currently equals its declared
// default. Fields without a default are never default.
func (r *Record) IsDefault(name string) bool {
	f, ok := r.schema.Field(name)
	if !ok {
		return false
	}
	if !f.hasDefault {
		return false
	}
	return valueEqual(r.values[name], f.def, f.typ)
}

// StructurallyComparable is the capability consulted by StructurallyEqual.
// The canonical field map contains only fields that differ from their
// declared defaults, with sets reduced to a canonical order, matching the
// sparse encoding rule.
type StructurallyComparable interface {
	CanonicalFields() map[string]any
}

// CanonicalFields implements StructurallyComparable.
func (r *Record) CanonicalFields() map[string]any {
	out := make(map[string]any)
	for _, f := range r.schema.fields {
		if r.IsDefault(f.name) {
			continue
		}
		out[f.name] = canonicalValue(r.values[f.name], f.typ)
	}
	return out
}

// StructurallyEqual compares two values by their canonical field maps,
// regardless of the concrete type behind the interface.
func StructurallyEqual(a, b StructurallyComparable) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return valueEqualCanonical(a.CanonicalFields(), b.CanonicalFields())
}

// Equal reports structural equality: two records are equal iff their
// canonical field maps are equal. A freshly constructed record and one
// round-tripped through storage always compare equal.
func (r *Record) Equal(other *Record) bool {
	if other == nil {
		return false
	}
	return StructurallyEqual(r, other)
}

// Clone returns a structurally equal, fully independent copy produced by a
// codec round-trip. The round-trip cannot fail for a validated record, so
// an internal failure panics.
func (r *Record) Clone() *Record {
	data, err := Encode(r)
	if err != nil {
		panic(fmt.Sprintf("record: clone encode failed: %v", err))
	}
	out, err := Decode(r.schema, data)
	if err != nil {
		panic(fmt.Sprintf("record: clone decode failed: %v", err))
	}
	return out
}

// copy is a direct deep copy, used internally where a codec round-trip is
// unnecessary.
func (r *Record) copy() *Record {
	out := &Record{schema: r.schema, values: make(map[string]any, len(r.values))}
	for _, f := range r.schema.fields {
		out.values[f.name] = copyValue(r.values[f.name], f.typ)
	}
	return out
}

func (r *Record) String() string {
	return fmt.Sprintf("%s%v", r.schema.name, r.CanonicalFields())
}
