package record

import (
	"fmt"
	"strings"
)

// Kind identifies the shape of a declared field type.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindBool
	KindNull
	KindEnum
	KindRecord
	KindList
	KindSet
	KindTuple
	KindMap
	KindUnion
)

// Type is a declared field type. Types are built once with the constructors
// below and shared; they are immutable after construction.
type Type struct {
	kind    Kind
	enum    *EnumSet
	schema  *Schema
	elem    *Type   // List, Set, Map element type
	members []*Type // Tuple element types or Union candidates, in declaration order
}

// Kind returns the shape of the type.
func (t *Type) Kind() Kind { return t.kind }

// String returns the declaration-style name of the type, used in error
// messages (e.g. "list[string]", "string|float").
func (t *Type) String() string {
	switch t.kind {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindNull:
		return "null"
	case KindEnum:
		return t.enum.name
	case KindRecord:
		return t.schema.name
	case KindList:
		return "list[" + t.elem.String() + "]"
	case KindSet:
		return "set[" + t.elem.String() + "]"
	case KindMap:
		return "map[" + t.elem.String() + "]"
	case KindTuple:
		names := make([]string, len(t.members))
		for i, m := range t.members {
			names[i] = m.String()
		}
		return "tuple[" + strings.Join(names, ", ") + "]"
	case KindUnion:
		names := make([]string, len(t.members))
		for i, m := range t.members {
			names[i] = m.String()
		}
		return strings.Join(names, "|")
	}
	return fmt.Sprintf("kind(%d)", int(t.kind))
}

var (
	stringType = &Type{kind: KindString}
	intType    = &Type{kind: KindInt}
	floatType  = &Type{kind: KindFloat}
	boolType   = &Type{kind: KindBool}
	nullType   = &Type{kind: KindNull}
)

// String declares a string type.
func String() *Type { return stringType }

// Int declares an integer type. Values are carried as int64.
func Int() *Type { return intType }

// Float declares a floating point type. Values are carried as float64.
func Float() *Type { return floatType }

// Bool declares a boolean type.
func Bool() *Type { return boolType }

// Null declares the type whose only value is nil. It is mostly useful as a
// union member for optional fields.
func Null() *Type { return nullType }

// Enum declares a closed enumeration type backed by the given set.
func Enum(set *EnumSet) *Type { return &Type{kind: KindEnum, enum: set} }

// Of declares a nested record type described by schema. Nested records are
// owned by value: codec round-trips and clones never share state.
func Of(schema *Schema) *Type { return &Type{kind: KindRecord, schema: schema} }

// ListOf declares an ordered sequence of elem.
func ListOf(elem *Type) *Type { return &Type{kind: KindList, elem: elem} }

// SetOf declares an unordered collection of unique elem values. The encoded
// element order is canonical but carries no meaning.
func SetOf(elem *Type) *Type { return &Type{kind: KindSet, elem: elem} }

// MapOf declares a string-keyed mapping with values of elem.
func MapOf(elem *Type) *Type { return &Type{kind: KindMap, elem: elem} }

// TupleOf declares a fixed-arity sequence whose i-th element has type
// members[i]. Decoding requires the raw length to match the arity exactly.
func TupleOf(members ...*Type) *Type {
	return &Type{kind: KindTuple, members: members}
}

// Union declares a type that admits any of the member types. Decoding tries
// the members in declaration order and keeps the first that matches, so
// callers must order members from most to least specific when the raw
// encoding is ambiguous (a numeric string vs a float, say).
func Union(members ...*Type) *Type {
	return &Type{kind: KindUnion, members: members}
}

// EnumSet is a closed set of allowed enum values, backed either by int64 or
// by string. Decoding a value outside the set fails with ErrTypeMismatch.
type EnumSet struct {
	name    string
	backing Kind // KindInt or KindString
	ints    map[int64]struct{}
	strs    map[string]struct{}
}

// IntEnum builds an enum set backed by integer ordinals.
func IntEnum(name string, values ...int64) *EnumSet {
	set := &EnumSet{name: name, backing: KindInt, ints: make(map[int64]struct{}, len(values))}
	for _, v := range values {
		set.ints[v] = struct{}{}
	}
	return set
}

// StringEnum builds an enum set backed by string labels.
func StringEnum(name string, values ...string) *EnumSet {
	set := &EnumSet{name: name, backing: KindString, strs: make(map[string]struct{}, len(values))}
	for _, v := range values {
		set.strs[v] = struct{}{}
	}
	return set
}

// Name returns the declared name of the enum set.
func (e *EnumSet) Name() string { return e.name }

// Contains reports whether v (an int64 or string, matching the backing kind)
// is a member of the set.
func (e *EnumSet) Contains(v any) bool {
	switch val := v.(type) {
	case int64:
		_, ok := e.ints[val]
		return ok && e.backing == KindInt
	case string:
		_, ok := e.strs[val]
		return ok && e.backing == KindString
	}
	return false
}
