package store

import (
	"log/slog"
	"os"
	"time"
)

// options holds the internal configuration shared by the stores.
type options struct {
	lockTimeout time.Duration
	logger      *slog.Logger
	perm        os.FileMode
}

// Option defines a functional option for configuring a store.
type Option func(*options)

// defaultOptions returns the default configuration.
func defaultOptions() *options {
	return &options{
		lockTimeout: 0, // wait indefinitely
		logger:      nil,
		perm:        0644,
	}
}

// WithLockTimeout bounds how long lock acquisition may wait before failing
// with ErrLockTimeout. Zero (the default) waits indefinitely.
func WithLockTimeout(d time.Duration) Option {
	return func(o *options) {
		o.lockTimeout = d
	}
}

// WithLogger sets the logger for the store. The store only emits
// debug-level records; nil disables logging entirely.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithFileMode sets the permission bits for the backing file.
// Defaults to 0644.
func WithFileMode(perm os.FileMode) Option {
	return func(o *options) {
		o.perm = perm
	}
}
