package schemafile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/shelf/record"
)

const hostDoc = `
name: host
key: ip
enums:
  protocol:
    backing: string
    values: [tcp, udp]
  severity:
    backing: int
    values: [1, 2, 3]
fields:
  - name: ip
    type: string
  - name: port
    type: int
    default: 0
  - name: proto
    type: protocol
    default: tcp
  - name: level
    type: severity | null
    default: null
  - name: tags
    type: set[string]
    default: []
    policy: merge
  - name: notes
    type: list[string]
    default: []
    policy: append-unique
  - name: extra
    type: map[string | int]
    default: {}
`

func TestParse(t *testing.T) {
	f, err := Parse([]byte(hostDoc))
	require.NoError(t, err)

	assert.Equal(t, "host", f.Schema.Name())
	assert.Equal(t, "ip", f.KeyField)
	require.Len(t, f.Schema.Fields(), 7)

	port, ok := f.Schema.Field("port")
	require.True(t, ok)
	assert.Equal(t, record.KindInt, port.Type().Kind())
	def, has := port.Default()
	require.True(t, has)
	assert.Equal(t, int64(0), def)

	tags, ok := f.Schema.Field("tags")
	require.True(t, ok)
	assert.Equal(t, record.KindSet, tags.Type().Kind())
	assert.Equal(t, record.PolicyMerge, tags.Policy())

	notes, ok := f.Schema.Field("notes")
	require.True(t, ok)
	assert.Equal(t, record.PolicyAppendUnique, notes.Policy())

	level, ok := f.Schema.Field("level")
	require.True(t, ok)
	assert.Equal(t, record.KindUnion, level.Type().Kind())

	// Explicit "default: null" declares a default; no default key at all
	// leaves the field required.
	def, has = level.Default()
	require.True(t, has)
	assert.Nil(t, def)

	ip, ok := f.Schema.Field("ip")
	require.True(t, ok)
	_, has = ip.Default()
	assert.False(t, has)
}

func TestParsedSchemaRoundTrip(t *testing.T) {
	f, err := Parse([]byte(hostDoc))
	require.NoError(t, err)

	input := `{"ip": "10.0.0.1", "proto": "udp", "level": 2, "tags": ["a"]}`
	rec, err := record.Decode(f.Schema, []byte(input))
	require.NoError(t, err)

	data, err := record.Encode(rec)
	require.NoError(t, err)
	assert.Equal(t, input, string(data))

	t.Run("enum stays closed", func(t *testing.T) {
		_, err := record.Decode(f.Schema, []byte(`{"ip": "x", "proto": "icmp"}`))
		require.ErrorIs(t, err, record.ErrTypeMismatch)
	})
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not yaml", "{"},
		{"missing name", "key: id\nfields:\n  - name: id\n    type: int\n"},
		{"no fields", "name: x\n"},
		{"unknown type", "name: x\nfields:\n  - name: id\n    type: uuid\n"},
		{"unknown policy", "name: x\nfields:\n  - name: id\n    type: int\n    policy: overwrite\n"},
		{"undeclared key field", "name: x\nkey: id\nfields:\n  - name: other\n    type: int\n"},
		{"enum bad backing", "name: x\nenums:\n  e:\n    backing: bool\n    values: [1]\nfields:\n  - name: id\n    type: e\n"},
		{"unbalanced brackets", "name: x\nfields:\n  - name: id\n    type: list[int\n"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.doc))
			require.ErrorIs(t, err, ErrDocument)
		})
	}
}

func TestParseTypeStrings(t *testing.T) {
	enums := map[string]*record.EnumSet{
		"color": record.StringEnum("color", "red", "blue"),
	}

	tests := []struct {
		input  string
		expect string
	}{
		{"int", "int"},
		{"list[string]", "list[string]"},
		{"set[int]", "set[int]"},
		{"map[float]", "map[float]"},
		{"tuple[string, int]", "tuple[string, int]"},
		{"tuple[string, list[int]]", "tuple[string, list[int]]"},
		{"int | null", "int|null"},
		{"list[int | null]", "list[int|null]"},
		{"color", "color"},
		{"map[list[set[string]]]", "map[list[set[string]]]"},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			typ, err := parseType(tc.input, enums)
			require.NoError(t, err)
			assert.Equal(t, tc.expect, typ.String())
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "host.yaml")
	require.NoError(t, os.WriteFile(path, []byte(hostDoc), 0644))

	f, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "host", f.Schema.Name())

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
