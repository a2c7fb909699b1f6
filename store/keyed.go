package store

import (
	"fmt"

	"github.com/aretw0/shelf/record"
)

// Item is one (key, record) pair of a keyed store, in file order.
type Item[K comparable] struct {
	Key    K
	Record *record.Record
}

// Keyed is a file-backed collection of records indexed by a designated
// field, with at most one entry per key. The backing file holds one
// canonical record encoding per line.
//
// Every operation first reconciles the in-memory cache against the file
// under the cross-process lock, so multiple processes can share one file.
// A single Keyed instance is not safe for concurrent use by multiple
// goroutines without external synchronization.
type Keyed[K comparable] struct {
	schema   *record.Schema
	keyField string
	base     *textStore

	entries map[K]*record.Record
	order   []K
}

// NewKeyed opens (or lazily creates) a keyed store at path. keyField names
// the schema field whose value indexes the records; its values must be of
// type K. The file is read immediately.
func NewKeyed[K comparable](path string, schema *record.Schema, keyField string, opts ...Option) (*Keyed[K], error) {
	if _, ok := schema.Field(keyField); !ok {
		return nil, fmt.Errorf("%w: schema %s has no field %q", record.ErrUnknownField, schema.Name(), keyField)
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	s := &Keyed[K]{
		schema:   schema,
		keyField: keyField,
		entries:  make(map[K]*record.Record),
	}
	s.base = newTextStore(path, s, o)
	if err := s.base.view(func() error { return nil }); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the backing file path.
func (s *Keyed[K]) Path() string { return s.base.path }

// Schema returns the record schema the store holds.
func (s *Keyed[K]) Schema() *record.Schema { return s.schema }

// key extracts the designated field from r, checking that the record is
// bound to this store's schema and that the value has the key type.
func (s *Keyed[K]) key(r *record.Record) (K, error) {
	var zero K
	if r == nil {
		return zero, fmt.Errorf("%w: nil record", record.ErrTypeMismatch)
	}
	if r.Schema() != s.schema {
		return zero, fmt.Errorf("%w: record schema %s, store schema %s", record.ErrTypeMismatch, r.Schema().Name(), s.schema.Name())
	}
	k, ok := r.Get(s.keyField).(K)
	if !ok {
		return zero, fmt.Errorf("%w: key field %q holds %T", record.ErrTypeMismatch, s.keyField, r.Get(s.keyField))
	}
	return k, nil
}

// marshalLines implements lineCodec.
func (s *Keyed[K]) marshalLines() ([]string, error) {
	lines := make([]string, 0, len(s.order))
	for _, k := range s.order {
		data, err := record.Encode(s.entries[k])
		if err != nil {
			return nil, fmt.Errorf("failed to encode record for key %v: %w", k, err)
		}
		lines = append(lines, string(data))
	}
	return lines, nil
}

// unmarshalLines implements lineCodec.
func (s *Keyed[K]) unmarshalLines(lines []string) error {
	entries := make(map[K]*record.Record, len(lines))
	order := make([]K, 0, len(lines))
	for i, line := range lines {
		rec, err := record.Decode(s.schema, []byte(line))
		if err != nil {
			return fmt.Errorf("line %d of %s: %w", i+1, s.base.path, err)
		}
		k, err := s.key(rec)
		if err != nil {
			return fmt.Errorf("line %d of %s: %w", i+1, s.base.path, err)
		}
		if _, dup := entries[k]; dup {
			return fmt.Errorf("line %d of %s: %w: %v", i+1, s.base.path, ErrKeyExists, k)
		}
		entries[k] = rec
		order = append(order, k)
	}
	s.entries = entries
	s.order = order
	return nil
}

// Get returns a clone of the record stored under key. Mutating the clone
// never affects store state until it is written back through Set, Add or
// Replace.
func (s *Keyed[K]) Get(key K) (*record.Record, error) {
	var out *record.Record
	err := s.base.view(func() error {
		rec, ok := s.entries[key]
		if !ok {
			return fmt.Errorf("%w: %v", ErrKeyNotFound, key)
		}
		out = rec.Clone()
		return nil
	})
	return out, err
}

// GetOr returns a clone of the record stored under key, or fallback as-is
// when the key is absent.
func (s *Keyed[K]) GetOr(key K, fallback *record.Record) (*record.Record, error) {
	var out *record.Record
	err := s.base.view(func() error {
		if rec, ok := s.entries[key]; ok {
			out = rec.Clone()
		} else {
			out = fallback
		}
		return nil
	})
	return out, err
}

// Set stores a clone of rec under its key, inserting or replacing.
func (s *Keyed[K]) Set(rec *record.Record) error {
	k, err := s.key(rec)
	if err != nil {
		return err
	}
	clone := rec.Clone()
	return s.base.mutate(func() error {
		s.put(k, clone)
		return nil
	})
}

// Add stores a clone of rec, failing with ErrKeyExists if an entry with the
// same key is already present.
func (s *Keyed[K]) Add(rec *record.Record) error {
	k, err := s.key(rec)
	if err != nil {
		return err
	}
	clone := rec.Clone()
	return s.base.mutate(func() error {
		if _, exists := s.entries[k]; exists {
			return fmt.Errorf("%w: %v", ErrKeyExists, k)
		}
		s.put(k, clone)
		return nil
	})
}

// Replace swaps old for a clone of new. old and new must carry the same
// key, and old must equal the stored record exactly.
func (s *Keyed[K]) Replace(old, new *record.Record) error {
	oldKey, err := s.key(old)
	if err != nil {
		return err
	}
	newKey, err := s.key(new)
	if err != nil {
		return err
	}
	clone := new.Clone()
	return s.base.mutate(func() error {
		stored, ok := s.entries[oldKey]
		if !ok {
			return fmt.Errorf("%w: %v", ErrKeyNotFound, oldKey)
		}
		if oldKey != newKey {
			return fmt.Errorf("%w: %v and %v", ErrKeyMismatch, oldKey, newKey)
		}
		if !stored.Equal(old) {
			return fmt.Errorf("%w: key %v", ErrValueMismatch, oldKey)
		}
		s.entries[oldKey] = clone
		return nil
	})
}

// Pop removes the record stored under key and returns a clone of it.
func (s *Keyed[K]) Pop(key K) (*record.Record, error) {
	var out *record.Record
	err := s.base.mutate(func() error {
		rec, ok := s.entries[key]
		if !ok {
			return fmt.Errorf("%w: %v", ErrKeyNotFound, key)
		}
		s.remove(key)
		out = rec.Clone()
		return nil
	})
	return out, err
}

// PopRecord removes and returns the record stored under rec's key.
func (s *Keyed[K]) PopRecord(rec *record.Record) (*record.Record, error) {
	k, err := s.key(rec)
	if err != nil {
		return nil, err
	}
	return s.Pop(k)
}

// Contains reports whether key is stored.
func (s *Keyed[K]) Contains(key K) (bool, error) {
	var found bool
	err := s.base.view(func() error {
		_, found = s.entries[key]
		return nil
	})
	return found, err
}

// ContainsRecord reports whether an entry with the same key as rec is
// stored, regardless of the rest of rec's fields.
func (s *Keyed[K]) ContainsRecord(rec *record.Record) (bool, error) {
	k, err := s.key(rec)
	if err != nil {
		return false, err
	}
	return s.Contains(k)
}

// Len returns the number of stored entries.
func (s *Keyed[K]) Len() (int, error) {
	var n int
	err := s.base.view(func() error {
		n = len(s.entries)
		return nil
	})
	return n, err
}

// Keys returns the stored keys in file order.
func (s *Keyed[K]) Keys() ([]K, error) {
	var out []K
	err := s.base.view(func() error {
		out = append([]K(nil), s.order...)
		return nil
	})
	return out, err
}

// Values returns the stored records in file order. The records are the
// live instances, not clones: callers that mutate them must do so inside
// Modify, or call Write afterwards.
func (s *Keyed[K]) Values() ([]*record.Record, error) {
	var out []*record.Record
	err := s.base.view(func() error {
		out = make([]*record.Record, 0, len(s.order))
		for _, k := range s.order {
			out = append(out, s.entries[k])
		}
		return nil
	})
	return out, err
}

// Items returns the stored (key, record) pairs in file order. Like Values,
// the records are live references.
func (s *Keyed[K]) Items() ([]Item[K], error) {
	var out []Item[K]
	err := s.base.view(func() error {
		out = make([]Item[K], 0, len(s.order))
		for _, k := range s.order {
			out = append(out, Item[K]{Key: k, Record: s.entries[k]})
		}
		return nil
	})
	return out, err
}

// Modify batches several operations into one lock hold and one disk write.
// Scopes nest; only the outermost entry locks and reads, and only the
// outermost successful exit writes. An error from fn skips the write and
// discards the scope's in-memory changes.
func (s *Keyed[K]) Modify(fn func() error) error {
	return s.base.modifyScope(fn)
}

// Write rewrites the backing file from the in-memory state. Call it after
// mutating records obtained by reference from Values or Items outside a
// Modify scope.
func (s *Keyed[K]) Write() error {
	return s.base.writeBack()
}

func (s *Keyed[K]) put(k K, rec *record.Record) {
	if _, exists := s.entries[k]; !exists {
		s.order = append(s.order, k)
	}
	s.entries[k] = rec
}

func (s *Keyed[K]) remove(k K) {
	delete(s.entries, k)
	for i, o := range s.order {
		if o == k {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}
