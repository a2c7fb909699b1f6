package record_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/shelf/record"
)

var (
	severity = record.IntEnum("severity", 1, 2, 3)
	grade    = record.StringEnum("grade", "A", "B", "C")
)

func alertSchema(t *testing.T) *record.Schema {
	t.Helper()
	return record.MustSchema("alert",
		record.NewField("severity", record.Enum(severity), record.WithDefault(int64(1))),
		record.NewField("grade", record.Enum(grade), record.WithDefault("A")),
		record.NewField("history", record.ListOf(record.Enum(severity)), record.WithDefault([]any{})),
	)
}

func TestEnumRoundTrip(t *testing.T) {
	alerts := alertSchema(t)

	tests := []struct {
		name   string
		values map[string]any
		expect string
	}{
		{"all defaults", nil, `{}`},
		{"int backed", map[string]any{"severity": int64(2)}, `{"severity": 2}`},
		{"string backed", map[string]any{"grade": "B"}, `{"grade": "B"}`},
		{"enum list", map[string]any{"history": []any{int64(1), int64(2)}}, `{"history": [1, 2]}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec, err := alerts.New(tc.values)
			require.NoError(t, err)

			data, err := record.Encode(rec)
			require.NoError(t, err)
			assert.Equal(t, tc.expect, string(data))

			back, err := record.Decode(alerts, data)
			require.NoError(t, err)
			assert.True(t, rec.Equal(back))
		})
	}
}

func TestEnumRejectsOutsideValues(t *testing.T) {
	alerts := alertSchema(t)

	_, err := alerts.New(map[string]any{"severity": int64(9)})
	require.ErrorIs(t, err, record.ErrTypeMismatch)

	_, err = record.Decode(alerts, []byte(`{"severity": 9}`))
	require.ErrorIs(t, err, record.ErrTypeMismatch)

	_, err = record.Decode(alerts, []byte(`{"grade": "D"}`))
	require.ErrorIs(t, err, record.ErrTypeMismatch)

	// Backing kinds do not cross over.
	_, err = record.Decode(alerts, []byte(`{"severity": "A"}`))
	require.ErrorIs(t, err, record.ErrTypeMismatch)
}

func attrSchema(t *testing.T) *record.Schema {
	t.Helper()
	multi := record.Union(
		record.String(),
		record.Float(),
		record.Bool(),
		record.Enum(severity),
		record.Null(),
	)
	return record.MustSchema("attr",
		record.NewField("value", multi, record.WithDefault(nil)),
		record.NewField("values",
			record.Union(record.ListOf(record.Union(record.String(), record.Enum(severity), record.Null())), record.Null()),
			record.WithDefault([]any{})),
	)
}

func TestUnionDecodeOrder(t *testing.T) {
	attrs := attrSchema(t)

	tests := []struct {
		name   string
		input  string
		expect any
	}{
		{"string wins for quoted text", `{"value": "test"}`, "test"},
		// A quoted number stays a string: members are tried in
		// declaration order and string is declared first.
		{"string wins for quoted number", `{"value": "3.14"}`, "3.14"},
		{"float for decimal literal", `{"value": 3.14}`, 3.14},
		{"bool", `{"value": true}`, true},
		{"enum for bare int", `{"value": 1}`, int64(1)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec, err := record.Decode(attrs, []byte(tc.input))
			require.NoError(t, err)
			assert.Equal(t, tc.expect, rec.Get("value"))
		})
	}
}

func TestUnionListMembers(t *testing.T) {
	attrs := attrSchema(t)

	rec, err := record.Decode(attrs, []byte(`{"values": ["test", 1, null]}`))
	require.NoError(t, err)
	assert.Equal(t, []any{"test", int64(1), nil}, rec.Get("values"))

	rec, err = record.Decode(attrs, []byte(`{"values": null}`))
	require.NoError(t, err)
	assert.Nil(t, rec.Get("values"))

	// Distinct from the default empty list.
	def := attrs.MustNew(nil)
	assert.False(t, def.Equal(rec))
}

func TestUnionEncodeBackingValue(t *testing.T) {
	attrs := attrSchema(t)

	rec, err := attrs.New(map[string]any{"value": int64(2)})
	require.NoError(t, err)
	data, err := record.Encode(rec)
	require.NoError(t, err)
	assert.Equal(t, `{"value": 2}`, string(data))
}
