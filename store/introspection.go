package store

import (
	"time"

	"github.com/aretw0/introspection"
)

// StoreState exposes internal state for observability.
type StoreState struct {
	Path        string    `json:"path"`
	Keys        int       `json:"keys"`
	Records     int       `json:"records"`
	Reparses    int       `json:"reparses"`
	LastRefresh time.Time `json:"last_refresh"`
	LockPath    string    `json:"lock_path"`
}

// State implements introspection.Introspectable.
func (s *Keyed[K]) State() any {
	return StoreState{
		Path:        s.base.path,
		Keys:        len(s.entries),
		Records:     len(s.entries),
		Reparses:    s.base.reparses,
		LastRefresh: s.base.lastRefresh,
		LockPath:    s.base.lock.path,
	}
}

// ComponentType implements introspection.Component.
func (s *Keyed[K]) ComponentType() string {
	return "keyed-store"
}

// State implements introspection.Introspectable.
func (s *MultiKeyed[K]) State() any {
	records := 0
	for _, group := range s.entries {
		records += len(group)
	}
	return StoreState{
		Path:        s.base.path,
		Keys:        len(s.entries),
		Records:     records,
		Reparses:    s.base.reparses,
		LastRefresh: s.base.lastRefresh,
		LockPath:    s.base.lock.path,
	}
}

// ComponentType implements introspection.Component.
func (s *MultiKeyed[K]) ComponentType() string {
	return "multikeyed-store"
}

var _ introspection.Introspectable = (*Keyed[string])(nil)
var _ introspection.Component = (*Keyed[string])(nil)
var _ introspection.Introspectable = (*MultiKeyed[string])(nil)
var _ introspection.Component = (*MultiKeyed[string])(nil)
