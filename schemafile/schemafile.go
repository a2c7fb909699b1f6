// Package schemafile loads record schemas from YAML documents.
//
// A schema file names the record, its key field, optional closed enum
// sets, and the ordered field list. Field types are written as compact
// type strings, for example "int", "set[string]", "tuple[string, int]",
// or "int | string" for a union.
package schemafile

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/shelf/record"
)

// ErrDocument marks a schema document that could not be interpreted.
var ErrDocument = errors.New("schemafile: invalid document")

// Document mirrors the YAML layout of a schema file.
type Document struct {
	Name   string              `yaml:"name"`
	Key    string              `yaml:"key"`
	Enums  map[string]EnumDecl `yaml:"enums"`
	Fields []FieldDecl         `yaml:"fields"`
}

// EnumDecl declares a closed enum set.
type EnumDecl struct {
	Backing string `yaml:"backing"` // "int" or "string"
	Values  []any  `yaml:"values"`
}

// FieldDecl declares one schema field. Default is kept as a raw node so an
// explicit "default: null" is distinguishable from no default at all.
type FieldDecl struct {
	Name    string    `yaml:"name"`
	Type    string    `yaml:"type"`
	Default yaml.Node `yaml:"default"`
	Policy  string    `yaml:"policy"`
	Hint    string    `yaml:"hint"`
}

// File is the result of loading a schema document.
type File struct {
	Schema   *record.Schema
	KeyField string
}

// Load reads and parses the schema document at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file %s: %w", path, err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse interprets a YAML schema document.
func Parse(data []byte) (*File, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDocument, err)
	}
	if doc.Name == "" {
		return nil, fmt.Errorf("%w: missing record name", ErrDocument)
	}
	if len(doc.Fields) == 0 {
		return nil, fmt.Errorf("%w: schema %s declares no fields", ErrDocument, doc.Name)
	}

	enums := make(map[string]*record.EnumSet, len(doc.Enums))
	for name, decl := range doc.Enums {
		set, err := buildEnum(name, decl)
		if err != nil {
			return nil, err
		}
		enums[name] = set
	}

	fields := make([]record.Field, 0, len(doc.Fields))
	for _, decl := range doc.Fields {
		f, err := buildField(decl, enums)
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}

	schema, err := record.NewSchema(doc.Name, fields...)
	if err != nil {
		return nil, err
	}
	if doc.Key != "" {
		if _, ok := schema.Field(doc.Key); !ok {
			return nil, fmt.Errorf("%w: key field %q is not declared", ErrDocument, doc.Key)
		}
	}
	return &File{Schema: schema, KeyField: doc.Key}, nil
}

func buildEnum(name string, decl EnumDecl) (*record.EnumSet, error) {
	if len(decl.Values) == 0 {
		return nil, fmt.Errorf("%w: enum %s has no values", ErrDocument, name)
	}
	switch decl.Backing {
	case "int":
		values := make([]int64, 0, len(decl.Values))
		for _, v := range decl.Values {
			switch n := v.(type) {
			case int:
				values = append(values, int64(n))
			case int64:
				values = append(values, n)
			default:
				return nil, fmt.Errorf("%w: enum %s value %v is not an int", ErrDocument, name, v)
			}
		}
		return record.IntEnum(name, values...), nil
	case "string":
		values := make([]string, 0, len(decl.Values))
		for _, v := range decl.Values {
			s, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("%w: enum %s value %v is not a string", ErrDocument, name, v)
			}
			values = append(values, s)
		}
		return record.StringEnum(name, values...), nil
	default:
		return nil, fmt.Errorf("%w: enum %s has unknown backing %q", ErrDocument, name, decl.Backing)
	}
}

func buildField(decl FieldDecl, enums map[string]*record.EnumSet) (record.Field, error) {
	if decl.Name == "" {
		return record.Field{}, fmt.Errorf("%w: field with empty name", ErrDocument)
	}
	typ, err := parseType(decl.Type, enums)
	if err != nil {
		return record.Field{}, fmt.Errorf("field %s: %w", decl.Name, err)
	}

	var opts []record.FieldOption
	if !decl.Default.IsZero() {
		var def any
		if decl.Default.ShortTag() != "!!null" {
			if err := decl.Default.Decode(&def); err != nil {
				return record.Field{}, fmt.Errorf("%w: field %s default: %v", ErrDocument, decl.Name, err)
			}
		}
		opts = append(opts, record.WithDefault(def))
	}
	if decl.Policy != "" {
		policy, err := parsePolicy(decl.Policy)
		if err != nil {
			return record.Field{}, fmt.Errorf("field %s: %w", decl.Name, err)
		}
		opts = append(opts, record.WithPolicy(policy))
	}
	if decl.Hint != "" {
		opts = append(opts, record.WithHint(decl.Hint))
	}
	return record.NewField(decl.Name, typ, opts...), nil
}

func parsePolicy(s string) (record.UpdatePolicy, error) {
	switch s {
	case "replace":
		return record.PolicyReplace, nil
	case "merge":
		return record.PolicyMerge, nil
	case "append":
		return record.PolicyAppend, nil
	case "append-unique":
		return record.PolicyAppendUnique, nil
	case "ignore":
		return record.PolicyIgnore, nil
	default:
		return record.PolicyReplace, fmt.Errorf("%w: unknown policy %q", ErrDocument, s)
	}
}
