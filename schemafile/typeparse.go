package schemafile

import (
	"fmt"
	"strings"

	"github.com/aretw0/shelf/record"
)

// parseType interprets a compact type string. The grammar:
//
//	type    = member *( "|" member )
//	member  = "null" | "bool" | "int" | "float" | "string"
//	        | "list[" type "]" | "set[" type "]" | "map[" type "]"
//	        | "tuple[" type *( "," type ) "]"
//	        | enum-name
//
// A bare "|" builds a union whose members are tried in declaration order,
// so the more specific member should come first.
func parseType(s string, enums map[string]*record.EnumSet) (*record.Type, error) {
	parts, err := splitTopLevel(s, '|')
	if err != nil {
		return nil, err
	}
	if len(parts) > 1 {
		members := make([]*record.Type, 0, len(parts))
		for _, part := range parts {
			m, err := parseMember(part, enums)
			if err != nil {
				return nil, err
			}
			members = append(members, m)
		}
		return record.Union(members...), nil
	}
	return parseMember(parts[0], enums)
}

func parseMember(s string, enums map[string]*record.EnumSet) (*record.Type, error) {
	s = strings.TrimSpace(s)
	switch s {
	case "":
		return nil, fmt.Errorf("%w: empty type", ErrDocument)
	case "null":
		return record.Null(), nil
	case "bool":
		return record.Bool(), nil
	case "int":
		return record.Int(), nil
	case "float":
		return record.Float(), nil
	case "string":
		return record.String(), nil
	}

	if head, body, ok := bracketed(s); ok {
		switch head {
		case "list", "set", "map":
			elem, err := parseType(body, enums)
			if err != nil {
				return nil, err
			}
			switch head {
			case "list":
				return record.ListOf(elem), nil
			case "set":
				return record.SetOf(elem), nil
			default:
				return record.MapOf(elem), nil
			}
		case "tuple":
			parts, err := splitTopLevel(body, ',')
			if err != nil {
				return nil, err
			}
			members := make([]*record.Type, 0, len(parts))
			for _, part := range parts {
				m, err := parseType(part, enums)
				if err != nil {
					return nil, err
				}
				members = append(members, m)
			}
			return record.TupleOf(members...), nil
		default:
			return nil, fmt.Errorf("%w: unknown type constructor %q", ErrDocument, head)
		}
	}

	if set, ok := enums[s]; ok {
		return record.Enum(set), nil
	}
	return nil, fmt.Errorf("%w: unknown type %q", ErrDocument, s)
}

// bracketed splits "head[body]" and reports whether s has that shape.
func bracketed(s string) (head, body string, ok bool) {
	open := strings.IndexByte(s, '[')
	if open < 0 || !strings.HasSuffix(s, "]") {
		return "", "", false
	}
	return s[:open], s[open+1 : len(s)-1], true
}

// splitTopLevel splits s on sep, ignoring separators nested inside brackets.
func splitTopLevel(s string, sep byte) ([]string, error) {
	var parts []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '[':
			depth++
		case ']':
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("%w: unbalanced brackets in type %q", ErrDocument, s)
			}
		case sep:
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, fmt.Errorf("%w: unbalanced brackets in type %q", ErrDocument, s)
	}
	parts = append(parts, strings.TrimSpace(s[start:]))
	return parts, nil
}
