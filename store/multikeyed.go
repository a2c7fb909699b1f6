package store

import (
	"fmt"

	"github.com/aretw0/shelf/record"
)

// Group is the set of records sharing one key of a multi-keyed store, in
// file order.
type Group[K comparable] struct {
	Key     K
	Records []*record.Record
}

// MultiKeyed is like Keyed but allows any number of entries to share a key.
// No two entries under the same key may be equal records. Same-key records
// occupy adjacent lines in the backing file.
type MultiKeyed[K comparable] struct {
	schema   *record.Schema
	keyField string
	base     *textStore

	entries map[K][]*record.Record
	order   []K
}

// NewMultiKeyed opens (or lazily creates) a multi-keyed store at path.
func NewMultiKeyed[K comparable](path string, schema *record.Schema, keyField string, opts ...Option) (*MultiKeyed[K], error) {
	if _, ok := schema.Field(keyField); !ok {
		return nil, fmt.Errorf("%w: schema %s has no field %q", record.ErrUnknownField, schema.Name(), keyField)
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	s := &MultiKeyed[K]{
		schema:   schema,
		keyField: keyField,
		entries:  make(map[K][]*record.Record),
	}
	s.base = newTextStore(path, s, o)
	if err := s.base.view(func() error { return nil }); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the backing file path.
func (s *MultiKeyed[K]) Path() string { return s.base.path }

// Schema returns the record schema the store holds.
func (s *MultiKeyed[K]) Schema() *record.Schema { return s.schema }

func (s *MultiKeyed[K]) key(r *record.Record) (K, error) {
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

// marshalLines implements lineCodec: each record on its own line, same-key
// records adjacent, groups in file order.
func (s *MultiKeyed[K]) marshalLines() ([]string, error) {
	var lines []string
	for _, k := range s.order {
		for _, rec := range s.entries[k] {
			data, err := record.Encode(rec)
			if err != nil {
				return nil, fmt.Errorf("failed to encode record for key %v: %w", k, err)
			}
			lines = append(lines, string(data))
		}
	}
	return lines, nil
}

// unmarshalLines implements lineCodec. Unlike the unique-key store, same-key
// lines accumulate under one group; group order follows first appearance.
func (s *MultiKeyed[K]) unmarshalLines(lines []string) error {
	entries := make(map[K][]*record.Record)
	var order []K
	for i, line := range lines {
		rec, err := record.Decode(s.schema, []byte(line))
		if err != nil {
			return fmt.Errorf("line %d of %s: %w", i+1, s.base.path, err)
		}
		k, err := s.key(rec)
		if err != nil {
			return fmt.Errorf("line %d of %s: %w", i+1, s.base.path, err)
		}
		if _, seen := entries[k]; !seen {
			order = append(order, k)
		}
		entries[k] = append(entries[k], rec)
	}
	s.entries = entries
	s.order = order
	return nil
}

// Get returns clones of all records stored under key, in file order.
func (s *MultiKeyed[K]) Get(key K) ([]*record.Record, error) {
	var out []*record.Record
	err := s.base.view(func() error {
		group, ok := s.entries[key]
		if !ok {
			return fmt.Errorf("%w: %v", ErrKeyNotFound, key)
		}
		out = cloneGroup(group)
		return nil
	})
	return out, err
}

// GetOr returns clones of the records under key, or fallback as-is when
// the key is absent.
func (s *MultiKeyed[K]) GetOr(key K, fallback []*record.Record) ([]*record.Record, error) {
	var out []*record.Record
	err := s.base.view(func() error {
		if group, ok := s.entries[key]; ok {
			out = cloneGroup(group)
		} else {
			out = fallback
		}
		return nil
	})
	return out, err
}

// Set replaces the whole group for the records' shared key with clones of
// recs. All records must carry the same key and no two may be equal.
func (s *MultiKeyed[K]) Set(recs []*record.Record) error {
	if len(recs) == 0 {
		return fmt.Errorf("%w: empty record group", record.ErrTypeMismatch)
	}
	k, err := s.groupKey(recs)
	if err != nil {
		return err
	}
	for i, rec := range recs {
		if indexOfEqual(recs[:i], rec) >= 0 {
			return fmt.Errorf("%w: key %v", ErrDuplicateValue, k)
		}
	}
	clones := cloneGroup(recs)
	return s.base.mutate(func() error {
		s.putGroup(k, clones)
		return nil
	})
}

// Add stores a clone of rec under its key. An equal record already stored
// under the same key fails with ErrDuplicateValue.
func (s *MultiKeyed[K]) Add(rec *record.Record) error {
	k, err := s.key(rec)
	if err != nil {
		return err
	}
	clone := rec.Clone()
	return s.base.mutate(func() error {
		if indexOfEqual(s.entries[k], clone) >= 0 {
			return fmt.Errorf("%w: key %v", ErrDuplicateValue, k)
		}
		if _, seen := s.entries[k]; !seen {
			s.order = append(s.order, k)
		}
		s.entries[k] = append(s.entries[k], clone)
		return nil
	})
}

// Replace locates the stored record equal to old and swaps it for a clone
// of new. old and new must share a key; a new equal to an already stored
// record fails with ErrDuplicateValue.
func (s *MultiKeyed[K]) Replace(old, new *record.Record) error {
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
		group, ok := s.entries[oldKey]
		if !ok {
			return fmt.Errorf("%w: %v", ErrKeyNotFound, oldKey)
		}
		if oldKey != newKey {
			return fmt.Errorf("%w: %v and %v", ErrKeyMismatch, oldKey, newKey)
		}
		i := indexOfEqual(group, old)
		if i < 0 {
			return fmt.Errorf("%w: no record equal to the old value under key %v", ErrNotFound, oldKey)
		}
		if indexOfEqual(group, clone) >= 0 {
			return fmt.Errorf("%w: key %v", ErrDuplicateValue, newKey)
		}
		group[i] = clone
		return nil
	})
}

// Pop removes all records stored under key and returns clones of them.
func (s *MultiKeyed[K]) Pop(key K) ([]*record.Record, error) {
	var out []*record.Record
	err := s.base.mutate(func() error {
		group, ok := s.entries[key]
		if !ok {
			return fmt.Errorf("%w: %v", ErrKeyNotFound, key)
		}
		s.removeKey(key)
		out = cloneGroup(group)
		return nil
	})
	return out, err
}

// PopRecord removes exactly the stored record equal to rec and returns a
// clone of it.
func (s *MultiKeyed[K]) PopRecord(rec *record.Record) (*record.Record, error) {
	k, err := s.key(rec)
	if err != nil {
		return nil, err
	}
	var out *record.Record
	err = s.base.mutate(func() error {
		group, ok := s.entries[k]
		if !ok {
			return fmt.Errorf("%w: %v", ErrKeyNotFound, k)
		}
		i := indexOfEqual(group, rec)
		if i < 0 {
			return fmt.Errorf("%w: no record equal to the given value under key %v", ErrNotFound, k)
		}
		out = group[i].Clone()
		group = append(group[:i], group[i+1:]...)
		if len(group) == 0 {
			s.removeKey(k)
		} else {
			s.entries[k] = group
		}
		return nil
	})
	return out, err
}

// Contains reports whether at least one record is stored under key.
func (s *MultiKeyed[K]) Contains(key K) (bool, error) {
	var found bool
	err := s.base.view(func() error {
		_, found = s.entries[key]
		return nil
	})
	return found, err
}

// ContainsRecord reports whether a record equal to rec is stored.
func (s *MultiKeyed[K]) ContainsRecord(rec *record.Record) (bool, error) {
	k, err := s.key(rec)
	if err != nil {
		return false, err
	}
	var found bool
	err = s.base.view(func() error {
		found = indexOfEqual(s.entries[k], rec) >= 0
		return nil
	})
	return found, err
}

// Count returns the grand total of stored records across all keys.
func (s *MultiKeyed[K]) Count() (int, error) {
	var n int
	err := s.base.view(func() error {
		for _, group := range s.entries {
			n += len(group)
		}
		return nil
	})
	return n, err
}

// CountKey returns the number of stored records under key; zero when the
// key is absent.
func (s *MultiKeyed[K]) CountKey(key K) (int, error) {
	var n int
	err := s.base.view(func() error {
		n = len(s.entries[key])
		return nil
	})
	return n, err
}

// Len returns the number of distinct keys.
func (s *MultiKeyed[K]) Len() (int, error) {
	var n int
	err := s.base.view(func() error {
		n = len(s.entries)
		return nil
	})
	return n, err
}

// Keys returns the distinct keys in file order.
func (s *MultiKeyed[K]) Keys() ([]K, error) {
	var out []K
	err := s.base.view(func() error {
		out = append([]K(nil), s.order...)
		return nil
	})
	return out, err
}

// Groups returns all (key, records) groups in file order. The records are
// live references: callers that mutate them must do so inside Modify, or
// call Write afterwards.
func (s *MultiKeyed[K]) Groups() ([]Group[K], error) {
	var out []Group[K]
	err := s.base.view(func() error {
		out = make([]Group[K], 0, len(s.order))
		for _, k := range s.order {
			out = append(out, Group[K]{Key: k, Records: s.entries[k]})
		}
		return nil
	})
	return out, err
}

// Modify batches several operations into one lock hold and one disk write,
// like Keyed.Modify.
func (s *MultiKeyed[K]) Modify(fn func() error) error {
	return s.base.modifyScope(fn)
}

// Write rewrites the backing file from the in-memory state without
// reconciling first.
func (s *MultiKeyed[K]) Write() error {
	return s.base.writeBack()
}

// groupKey extracts the shared key of recs, failing if they disagree.
func (s *MultiKeyed[K]) groupKey(recs []*record.Record) (K, error) {
	k, err := s.key(recs[0])
	if err != nil {
		return k, err
	}
	for _, rec := range recs[1:] {
		rk, err := s.key(rec)
		if err != nil {
			return k, err
		}
		if rk != k {
			return k, fmt.Errorf("%w: %v and %v", ErrKeyMismatch, k, rk)
		}
	}
	return k, nil
}

func (s *MultiKeyed[K]) putGroup(k K, group []*record.Record) {
	if _, seen := s.entries[k]; !seen {
		s.order = append(s.order, k)
	}
	s.entries[k] = group
}

func (s *MultiKeyed[K]) removeKey(k K) {
	delete(s.entries, k)
	for i, o := range s.order {
		if o == k {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func cloneGroup(group []*record.Record) []*record.Record {
	out := make([]*record.Record, len(group))
	for i, rec := range group {
		out[i] = rec.Clone()
	}
	return out
}

func indexOfEqual(group []*record.Record, rec *record.Record) int {
	for i, stored := range group {
		if stored.Equal(rec) {
			return i
		}
	}
	return -1
}
