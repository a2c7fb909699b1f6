package store

import "errors"

// Store invariant violations. All errors returned by this package wrap one
// of these (or a record sentinel), so callers can match with errors.Is.
var (
	// ErrKeyExists is returned by Add when the key is already present.
	ErrKeyExists = errors.New("store: key already exists")

	// ErrKeyNotFound is returned when no entry exists for the requested key.
	ErrKeyNotFound = errors.New("store: key not found")

	// ErrKeyMismatch is returned by Replace when old and new carry
	// different keys.
	ErrKeyMismatch = errors.New("store: records have different keys")

	// ErrValueMismatch is returned by Replace when old does not equal the
	// stored record.
	ErrValueMismatch = errors.New("store: stored record does not match")

	// ErrDuplicateValue is returned by a multi-keyed Add when an equal
	// record already exists under the key.
	ErrDuplicateValue = errors.New("store: equal record already stored")

	// ErrNotFound is returned by multi-keyed Replace and PopRecord when no
	// stored record equals the given one.
	ErrNotFound = errors.New("store: record not found")

	// ErrLockTimeout is returned when the file lock cannot be acquired
	// within the configured timeout.
	ErrLockTimeout = errors.New("store: timed out waiting for file lock")
)
