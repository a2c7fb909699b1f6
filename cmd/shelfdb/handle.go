package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/aretw0/shelf/record"
	"github.com/aretw0/shelf/schemafile"
	"github.com/aretw0/shelf/store"
)

// storeHandle erases the store's key type parameter so subcommands can work
// with keys as command line strings. Multi-keyed stores surface naturally;
// unique-key stores present every key as a one-record group.
type storeHandle interface {
	schema() *record.Schema
	keyField() string
	get(key string) ([]*record.Record, error)
	set(recs []*record.Record) error
	add(rec *record.Record) error
	replace(old, new *record.Record) error
	pop(key string) ([]*record.Record, error)
	keys() ([]string, error)
	records() ([]*record.Record, error)
	count(key string) (int, error)
	watch(ctx context.Context) (<-chan store.Event, error)
}

// openStore builds a handle from the persistent --file/--schema/--multi
// flags. The key field's declared type decides how command line keys are
// parsed: string keys pass through, int keys go through ParseInt.
func openStore() (storeHandle, error) {
	if storeFile == "" {
		return nil, errors.New("--file is required")
	}
	if schemaFile == "" {
		return nil, errors.New("--schema is required")
	}
	sf, err := schemafile.Load(schemaFile)
	if err != nil {
		return nil, err
	}
	if sf.KeyField == "" {
		return nil, fmt.Errorf("schema %s declares no key field", sf.Schema.Name())
	}
	keyDecl, _ := sf.Schema.Field(sf.KeyField)

	opts := []store.Option{
		store.WithLockTimeout(lockTimeout),
		store.WithLogger(slog.Default()),
	}

	switch keyDecl.Type().Kind() {
	case record.KindString:
		return openTyped[string](sf, parseStringKey, opts)
	case record.KindInt:
		return openTyped[int64](sf, parseIntKey, opts)
	default:
		return nil, fmt.Errorf("key field %q has type %s; only string and int keys are supported", sf.KeyField, keyDecl.Type())
	}
}

func parseStringKey(s string) (string, error) { return s, nil }

func parseIntKey(s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("key %q is not an integer: %w", s, err)
	}
	return n, nil
}

func openTyped[K comparable](sf *schemafile.File, parse func(string) (K, error), opts []store.Option) (storeHandle, error) {
	if multi {
		s, err := store.NewMultiKeyed[K](storeFile, sf.Schema, sf.KeyField, opts...)
		if err != nil {
			return nil, err
		}
		return &multiHandle[K]{s: s, key: sf.KeyField, parse: parse}, nil
	}
	s, err := store.NewKeyed[K](storeFile, sf.Schema, sf.KeyField, opts...)
	if err != nil {
		return nil, err
	}
	return &keyedHandle[K]{s: s, key: sf.KeyField, parse: parse}, nil
}

type keyedHandle[K comparable] struct {
	s     *store.Keyed[K]
	key   string
	parse func(string) (K, error)
}

func (h *keyedHandle[K]) schema() *record.Schema { return h.s.Schema() }

func (h *keyedHandle[K]) keyField() string { return h.key }

func (h *keyedHandle[K]) get(key string) ([]*record.Record, error) {
	k, err := h.parse(key)
	if err != nil {
		return nil, err
	}
	rec, err := h.s.Get(k)
	if err != nil {
		return nil, err
	}
	return []*record.Record{rec}, nil
}

func (h *keyedHandle[K]) set(recs []*record.Record) error {
	return h.s.Modify(func() error {
		for _, rec := range recs {
			if err := h.s.Set(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

func (h *keyedHandle[K]) add(rec *record.Record) error { return h.s.Add(rec) }

func (h *keyedHandle[K]) replace(old, new *record.Record) error { return h.s.Replace(old, new) }

func (h *keyedHandle[K]) pop(key string) ([]*record.Record, error) {
	k, err := h.parse(key)
	if err != nil {
		return nil, err
	}
	rec, err := h.s.Pop(k)
	if err != nil {
		return nil, err
	}
	return []*record.Record{rec}, nil
}

func (h *keyedHandle[K]) keys() ([]string, error) {
	ks, err := h.s.Keys()
	if err != nil {
		return nil, err
	}
	return renderKeys(ks), nil
}

func (h *keyedHandle[K]) records() ([]*record.Record, error) { return h.s.Values() }

func (h *keyedHandle[K]) count(key string) (int, error) {
	if key == "" {
		return h.s.Len()
	}
	k, err := h.parse(key)
	if err != nil {
		return 0, err
	}
	ok, err := h.s.Contains(k)
	if err != nil {
		return 0, err
	}
	if ok {
		return 1, nil
	}
	return 0, nil
}

func (h *keyedHandle[K]) watch(ctx context.Context) (<-chan store.Event, error) {
	return h.s.Watch(ctx)
}

type multiHandle[K comparable] struct {
	s     *store.MultiKeyed[K]
	key   string
	parse func(string) (K, error)
}

func (h *multiHandle[K]) schema() *record.Schema { return h.s.Schema() }

func (h *multiHandle[K]) keyField() string { return h.key }

func (h *multiHandle[K]) get(key string) ([]*record.Record, error) {
	k, err := h.parse(key)
	if err != nil {
		return nil, err
	}
	return h.s.Get(k)
}

func (h *multiHandle[K]) set(recs []*record.Record) error { return h.s.Set(recs) }

func (h *multiHandle[K]) add(rec *record.Record) error { return h.s.Add(rec) }

func (h *multiHandle[K]) replace(old, new *record.Record) error { return h.s.Replace(old, new) }

func (h *multiHandle[K]) pop(key string) ([]*record.Record, error) {
	k, err := h.parse(key)
	if err != nil {
		return nil, err
	}
	return h.s.Pop(k)
}

func (h *multiHandle[K]) keys() ([]string, error) {
	ks, err := h.s.Keys()
	if err != nil {
		return nil, err
	}
	return renderKeys(ks), nil
}

func (h *multiHandle[K]) records() ([]*record.Record, error) {
	groups, err := h.s.Groups()
	if err != nil {
		return nil, err
	}
	var out []*record.Record
	for _, g := range groups {
		out = append(out, g.Records...)
	}
	return out, nil
}

func (h *multiHandle[K]) count(key string) (int, error) {
	if key == "" {
		return h.s.Count()
	}
	k, err := h.parse(key)
	if err != nil {
		return 0, err
	}
	return h.s.CountKey(k)
}

func (h *multiHandle[K]) watch(ctx context.Context) (<-chan store.Event, error) {
	return h.s.Watch(ctx)
}

func renderKeys[K comparable](ks []K) []string {
	out := make([]string, len(ks))
	for i, k := range ks {
		out[i] = fmt.Sprint(k)
	}
	return out
}

// decodeArg parses a command line JSON argument against the store's schema.
func decodeArg(h storeHandle, arg string) (*record.Record, error) {
	rec, err := record.Decode(h.schema(), []byte(arg))
	if err != nil {
		return nil, fmt.Errorf("invalid record %q: %w", arg, err)
	}
	return rec, nil
}

func printRecords(recs []*record.Record) error {
	for _, rec := range recs {
		data, err := record.Encode(rec)
		if err != nil {
			return err
		}
		fmt.Println(string(data))
	}
	return nil
}
