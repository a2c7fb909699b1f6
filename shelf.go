package shelf

import (
	"log/slog"
	"os"
	"time"

	"github.com/aretw0/shelf/record"
	"github.com/aretw0/shelf/store"
)

// --- Types ---

// Schema is a public alias for the record schema descriptor.
type Schema = record.Schema

// Record is a public alias for the schema-bound record.
type Record = record.Record

// Keyed is a public alias for the unique-key store.
type Keyed[K comparable] = store.Keyed[K]

// MultiKeyed is a public alias for the shared-key store.
type MultiKeyed[K comparable] = store.MultiKeyed[K]

// Event is a public alias for a file change notification.
type Event = store.Event

// --- Configuration ---

// Option defines a functional option for configuring a store.
type Option = store.Option

// WithLockTimeout bounds how long operations wait for the sibling lock file.
func WithLockTimeout(d time.Duration) Option {
	return store.WithLockTimeout(d)
}

// WithLogger sets the logger for the store.
func WithLogger(logger *slog.Logger) Option {
	return store.WithLogger(logger)
}

// WithFileMode sets the permission bits for the backing file.
func WithFileMode(perm os.FileMode) Option {
	return store.WithFileMode(perm)
}

// --- Factories ---

// NewKeyed opens a unique-key store at path, keyed by the named field.
func NewKeyed[K comparable](path string, schema *Schema, keyField string, opts ...Option) (*Keyed[K], error) {
	return store.NewKeyed[K](path, schema, keyField, opts...)
}

// NewMultiKeyed opens a shared-key store at path, keyed by the named field.
func NewMultiKeyed[K comparable](path string, schema *Schema, keyField string, opts ...Option) (*MultiKeyed[K], error) {
	return store.NewMultiKeyed[K](path, schema, keyField, opts...)
}
