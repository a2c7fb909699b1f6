package record

import "fmt"

// UpdatePolicy governs how Record.Update combines a field from another
// record into this one.
type UpdatePolicy int

const (
	// PolicyReplace overwrites the field with the other record's value.
	PolicyReplace UpdatePolicy = iota
	// PolicyMerge unions dictionaries and sets (other's entries win on key
	// conflict) and recursively updates nested records.
	PolicyMerge
	// PolicyAppend appends all of the other record's list elements,
	// duplicates allowed.
	PolicyAppend
	// PolicyAppendUnique appends the other record's list elements that are
	// not already present.
	PolicyAppendUnique
	// PolicyIgnore leaves the field untouched by Update.
	PolicyIgnore
)

func (p UpdatePolicy) String() string {
	switch p {
	case PolicyReplace:
		return "replace"
	case PolicyMerge:
		return "merge"
	case PolicyAppend:
		return "append"
	case PolicyAppendUnique:
		return "append-unique"
	case PolicyIgnore:
		return "ignore"
	}
	return fmt.Sprintf("policy(%d)", int(p))
}

// Field describes one named, typed slot of a schema.
type Field struct {
	name       string
	typ        *Type
	def        any
	hasDefault bool
	policy     UpdatePolicy
	hint       string
}

// Name returns the field name.
func (f Field) Name() string { return f.name }

// Type returns the declared type.
func (f Field) Type() *Type { return f.typ }

// Default returns the declared default value and whether one exists.
// Fields without a default are required.
func (f Field) Default() (any, bool) { return f.def, f.hasDefault }

// Policy returns the field's update policy.
func (f Field) Policy() UpdatePolicy { return f.policy }

// Hint returns the presentation hint, if any. The codec and the stores
// never consult it.
func (f Field) Hint() string { return f.hint }

// FieldOption configures a field declaration.
type FieldOption func(*Field)

// WithDefault declares a default value. Fields whose current value equals
// the default are omitted from the encoded form, and absent fields decode
// to it.
func WithDefault(v any) FieldOption {
	return func(f *Field) {
		f.def = v
		f.hasDefault = true
	}
}

// WithPolicy sets the field's update policy. The default is PolicyReplace.
func WithPolicy(p UpdatePolicy) FieldOption {
	return func(f *Field) { f.policy = p }
}

// WithHint attaches a presentation hint for display layers.
func WithHint(hint string) FieldOption {
	return func(f *Field) { f.hint = hint }
}

// NewField declares a field. A field with no WithDefault option is required:
// decoding fails with ErrMissingField when it is absent.
func NewField(name string, typ *Type, opts ...FieldOption) Field {
	f := Field{name: name, typ: typ, policy: PolicyReplace}
	for _, opt := range opts {
		opt(&f)
	}
	return f
}

// Schema is the static descriptor table for one record type: its ordered
// field list with types, defaults and update policies. The codec and
// Record.Update consult it instead of runtime reflection.
type Schema struct {
	name   string
	fields []Field
	byName map[string]int
}

// NewSchema builds a schema from ordered field declarations. Field names
// must be unique and defaults must satisfy their declared types.
func NewSchema(name string, fields ...Field) (*Schema, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: schema name is empty", ErrSchema)
	}
	s := &Schema{name: name, fields: make([]Field, 0, len(fields)), byName: make(map[string]int, len(fields))}
	for _, f := range fields {
		if f.name == "" {
			return nil, fmt.Errorf("%w: %s has a field with an empty name", ErrSchema, name)
		}
		if f.typ == nil {
			return nil, fmt.Errorf("%w: field %s.%s has no type", ErrSchema, name, f.name)
		}
		if _, dup := s.byName[f.name]; dup {
			return nil, fmt.Errorf("%w: duplicate field %s.%s", ErrSchema, name, f.name)
		}
		if f.hasDefault {
			norm, err := normalize(f.def, f.typ)
			if err != nil {
				return nil, fmt.Errorf("invalid default for %s.%s: %w", name, f.name, err)
			}
			f.def = norm
		}
		s.byName[f.name] = len(s.fields)
		s.fields = append(s.fields, f)
	}
	return s, nil
}

// MustSchema is NewSchema that panics on error, for package-level schema
// declarations.
func MustSchema(name string, fields ...Field) *Schema {
	s, err := NewSchema(name, fields...)
	if err != nil {
		panic(err)
	}
	return s
}

// Name returns the schema name.
func (s *Schema) Name() string { return s.name }

// Fields returns the ordered field declarations.
func (s *Schema) Fields() []Field { return s.fields }

// Field returns the declaration of the named field.
func (s *Schema) Field(name string) (Field, bool) {
	i, ok := s.byName[name]
	if !ok {
		return Field{}, false
	}
	return s.fields[i], true
}
