package record

import "errors"

// Sentinel errors. All errors returned by this package wrap one of these,
// so callers can match with errors.Is.
var (
	// ErrTypeMismatch is returned when a value does not satisfy its declared
	// type, at decode time or when setting a field.
	ErrTypeMismatch = errors.New("record: type mismatch")

	// ErrMissingField is returned when a required field (one with no declared
	// default) is absent.
	ErrMissingField = errors.New("record: missing required field")

	// ErrUnknownField is returned when a field name is not declared in the
	// schema.
	ErrUnknownField = errors.New("record: unknown field")

	// ErrPolicy is returned when an update policy is applied to a field whose
	// value shape cannot support it. This is a programming error surfaced at
	// update time rather than silently ignored.
	ErrPolicy = errors.New("record: update policy not applicable")

	// ErrSchema is returned for invalid schema declarations.
	ErrSchema = errors.New("record: invalid schema")
)
