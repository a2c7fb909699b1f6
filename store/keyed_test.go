package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/shelf/record"
)

var hostSchema = record.MustSchema("host",
	record.NewField("ip", record.String()),
	record.NewField("hostname", record.String(), record.WithDefault("")),
	record.NewField("port", record.Int(), record.WithDefault(int64(0))),
)

func host(t *testing.T, ip, hostname string) *record.Record {
	t.Helper()
	rec, err := hostSchema.New(map[string]any{"ip": ip, "hostname": hostname})
	require.NoError(t, err)
	return rec
}

func newHostStore(t *testing.T, path string) *Keyed[string] {
	t.Helper()
	s, err := NewKeyed[string](path, hostSchema, "ip")
	require.NoError(t, err)
	return s
}

func TestKeyedMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hosts.db")
	s := newHostStore(t, path)

	n, err := s.Len()
	require.NoError(t, err)
	assert.Zero(t, n)

	// Opening alone must not create the file.
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))

	require.NoError(t, s.Add(host(t, "10.0.0.1", "a")))
	_, statErr = os.Stat(path)
	assert.NoError(t, statErr, "first write creates the file")
}

func TestKeyedUnknownKeyField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hosts.db")
	_, err := NewKeyed[string](path, hostSchema, "mac")
	require.ErrorIs(t, err, record.ErrUnknownField)
}

func TestKeyedAddGetSetPop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hosts.db")
	s := newHostStore(t, path)

	a := host(t, "10.0.0.1", "a")
	require.NoError(t, s.Add(a))

	t.Run("add duplicate key", func(t *testing.T) {
		err := s.Add(host(t, "10.0.0.1", "other"))
		require.ErrorIs(t, err, ErrKeyExists)
	})

	t.Run("get returns a clone", func(t *testing.T) {
		got, err := s.Get("10.0.0.1")
		require.NoError(t, err)
		require.True(t, a.Equal(got))

		require.NoError(t, got.Set("hostname", "mutated"))
		again, err := s.Get("10.0.0.1")
		require.NoError(t, err)
		assert.Equal(t, "a", again.Get("hostname"))
	})

	t.Run("get missing key", func(t *testing.T) {
		_, err := s.Get("10.9.9.9")
		require.ErrorIs(t, err, ErrKeyNotFound)
	})

	t.Run("get or fallback", func(t *testing.T) {
		fallback := host(t, "10.9.9.9", "fb")
		got, err := s.GetOr("10.9.9.9", fallback)
		require.NoError(t, err)
		assert.Same(t, fallback, got)
	})

	t.Run("set replaces", func(t *testing.T) {
		require.NoError(t, s.Set(host(t, "10.0.0.1", "renamed")))
		got, err := s.Get("10.0.0.1")
		require.NoError(t, err)
		assert.Equal(t, "renamed", got.Get("hostname"))
	})

	t.Run("set stores a clone", func(t *testing.T) {
		rec := host(t, "10.0.0.2", "b")
		require.NoError(t, s.Set(rec))
		require.NoError(t, rec.Set("hostname", "mutated"))

		got, err := s.Get("10.0.0.2")
		require.NoError(t, err)
		assert.Equal(t, "b", got.Get("hostname"))
	})

	t.Run("pop", func(t *testing.T) {
		got, err := s.Pop("10.0.0.2")
		require.NoError(t, err)
		assert.Equal(t, "b", got.Get("hostname"))

		ok, err := s.Contains("10.0.0.2")
		require.NoError(t, err)
		assert.False(t, ok)

		_, err = s.Pop("10.0.0.2")
		require.ErrorIs(t, err, ErrKeyNotFound)
	})
}

func TestKeyedReplace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hosts.db")
	s := newHostStore(t, path)
	require.NoError(t, s.Add(host(t, "10.0.0.1", "a")))

	t.Run("unknown key", func(t *testing.T) {
		err := s.Replace(host(t, "10.9.9.9", "x"), host(t, "10.9.9.9", "y"))
		require.ErrorIs(t, err, ErrKeyNotFound)
	})

	t.Run("key mismatch", func(t *testing.T) {
		err := s.Replace(host(t, "10.0.0.1", "a"), host(t, "10.0.0.2", "a"))
		require.ErrorIs(t, err, ErrKeyMismatch)
	})

	t.Run("stale old value", func(t *testing.T) {
		err := s.Replace(host(t, "10.0.0.1", "stale"), host(t, "10.0.0.1", "b"))
		require.ErrorIs(t, err, ErrValueMismatch)
	})

	t.Run("success", func(t *testing.T) {
		require.NoError(t, s.Replace(host(t, "10.0.0.1", "a"), host(t, "10.0.0.1", "b")))
		got, err := s.Get("10.0.0.1")
		require.NoError(t, err)
		assert.Equal(t, "b", got.Get("hostname"))
	})
}

func TestKeyedFileFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hosts.db")
	s := newHostStore(t, path)

	require.NoError(t, s.Add(host(t, "10.0.0.1", "a")))
	require.NoError(t, s.Add(host(t, "10.0.0.2", "b")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t,
		`{"ip": "10.0.0.1", "hostname": "a"}`+"\n"+
			`{"ip": "10.0.0.2", "hostname": "b"}`+"\n",
		string(data))
}

func TestKeyedPreservesInsertionOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hosts.db")
	s := newHostStore(t, path)

	require.NoError(t, s.Add(host(t, "10.0.0.3", "c")))
	require.NoError(t, s.Add(host(t, "10.0.0.1", "a")))
	require.NoError(t, s.Add(host(t, "10.0.0.2", "b")))
	require.NoError(t, s.Set(host(t, "10.0.0.1", "a2")))

	keys, err := s.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.3", "10.0.0.1", "10.0.0.2"}, keys)
}

func TestKeyedToleratesCommentsAndBlankLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hosts.db")
	content := "# managed by tests\n\n" +
		`{"ip": "10.0.0.1", "hostname": "a"}` + "\n\n" +
		"# trailing comment\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	s := newHostStore(t, path)
	got, err := s.Get("10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "a", got.Get("hostname"))

	// The next write drops comments and blank lines.
	require.NoError(t, s.Add(host(t, "10.0.0.2", "b")))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "#")
	assert.Len(t, strings.Split(strings.TrimRight(string(data), "\n"), "\n"), 2)
}

func TestKeyedDuplicateKeyInFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hosts.db")
	content := `{"ip": "10.0.0.1"}` + "\n" + `{"ip": "10.0.0.1", "hostname": "dup"}` + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	_, err := NewKeyed[string](path, hostSchema, "ip")
	require.ErrorIs(t, err, ErrKeyExists)
}

func TestKeyedMalformedLineNamesPosition(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hosts.db")
	content := `{"ip": "10.0.0.1"}` + "\nnot json\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	_, err := NewKeyed[string](path, hostSchema, "ip")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestKeyedTwoHandlesSameFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hosts.db")
	s1 := newHostStore(t, path)
	s2 := newHostStore(t, path)

	require.NoError(t, s1.Add(host(t, "10.0.0.1", "a")))

	got, err := s2.Get("10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "a", got.Get("hostname"))

	require.NoError(t, s2.Set(host(t, "10.0.0.1", "b")))

	// Backdate the mtime so s1 detects the change even on filesystems
	// with coarse timestamps.
	past := time.Now().Add(-time.Minute)
	require.NoError(t, os.Chtimes(path, past, past))

	got, err = s1.Get("10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "b", got.Get("hostname"))
}

func TestKeyedExternalEditPickedUp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hosts.db")
	s := newHostStore(t, path)
	require.NoError(t, s.Add(host(t, "10.0.0.1", "a")))

	// Simulate another process rewriting the file. Backdate the mtime so
	// the change is unambiguous on coarse mtime filesystems.
	content := `{"ip": "10.0.0.9", "hostname": "ext"}` + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	past := time.Now().Add(-time.Minute)
	require.NoError(t, os.Chtimes(path, past, past))

	got, err := s.Get("10.0.0.9")
	require.NoError(t, err)
	assert.Equal(t, "ext", got.Get("hostname"))

	_, err = s.Get("10.0.0.1")
	require.ErrorIs(t, err, ErrKeyNotFound)
}

func TestKeyedReparseOnlyOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hosts.db")
	s := newHostStore(t, path)
	require.NoError(t, s.Add(host(t, "10.0.0.1", "a")))

	before := s.State().(StoreState).Reparses
	for i := 0; i < 5; i++ {
		_, err := s.Get("10.0.0.1")
		require.NoError(t, err)
	}
	assert.Equal(t, before, s.State().(StoreState).Reparses,
		"reads without external changes must not reparse")

	content := `{"ip": "10.0.0.1", "hostname": "b"}` + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	past := time.Now().Add(-time.Minute)
	require.NoError(t, os.Chtimes(path, past, past))

	_, err := s.Get("10.0.0.1")
	require.NoError(t, err)
	assert.Greater(t, s.State().(StoreState).Reparses, before)
}

func TestKeyedModify(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hosts.db")
	s := newHostStore(t, path)

	t.Run("batches into one write", func(t *testing.T) {
		err := s.Modify(func() error {
			if err := s.Add(host(t, "10.0.0.1", "a")); err != nil {
				return err
			}
			return s.Add(host(t, "10.0.0.2", "b"))
		})
		require.NoError(t, err)

		n, err := s.Len()
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})

	t.Run("nested scopes", func(t *testing.T) {
		err := s.Modify(func() error {
			return s.Modify(func() error {
				return s.Add(host(t, "10.0.0.3", "c"))
			})
		})
		require.NoError(t, err)

		ok, err := s.Contains("10.0.0.3")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("error skips the write", func(t *testing.T) {
		before, err := os.ReadFile(path)
		require.NoError(t, err)

		err = s.Modify(func() error {
			if err := s.Add(host(t, "10.0.0.4", "d")); err != nil {
				return err
			}
			return s.Add(host(t, "10.0.0.4", "dup"))
		})
		require.ErrorIs(t, err, ErrKeyExists)

		after, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, string(before), string(after), "failed scope must not touch the file")
	})

	t.Run("aborted scope is discarded", func(t *testing.T) {
		require.NoError(t, s.Add(host(t, "10.0.0.9", "e")))

		ok, err := s.Contains("10.0.0.4")
		require.NoError(t, err)
		assert.False(t, ok, "records from a failed scope must not survive")

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.NotContains(t, string(data), "10.0.0.4")
	})

	t.Run("lock released after scope", func(t *testing.T) {
		_, err := os.Stat(path + LockSuffix)
		assert.True(t, os.IsNotExist(err))
	})
}

func TestKeyedFailedScopeBeforeFirstWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hosts.db")
	s := newHostStore(t, path)

	// With no file on disk there is no snapshot to diverge from, so the
	// store must invalidate its cache explicitly.
	err := s.Modify(func() error {
		if err := s.Add(host(t, "10.0.0.1", "a")); err != nil {
			return err
		}
		return s.Add(host(t, "10.0.0.1", "dup"))
	})
	require.ErrorIs(t, err, ErrKeyExists)

	require.NoError(t, s.Add(host(t, "10.0.0.2", "b")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "10.0.0.1")

	n, err := s.Len()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestKeyedPopReturnsClone(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hosts.db")
	s := newHostStore(t, path)
	require.NoError(t, s.Add(host(t, "10.0.0.1", "a")))

	err := s.Modify(func() error {
		values, err := s.Values()
		if err != nil {
			return err
		}
		require.Len(t, values, 1)

		popped, err := s.Pop("10.0.0.1")
		if err != nil {
			return err
		}
		assert.NotSame(t, values[0], popped)
		assert.True(t, popped.Equal(values[0]))
		return nil
	})
	require.NoError(t, err)
}

func TestKeyedValuesAndItemsLiveRefs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hosts.db")
	s := newHostStore(t, path)
	require.NoError(t, s.Add(host(t, "10.0.0.1", "a")))

	err := s.Modify(func() error {
		values, err := s.Values()
		if err != nil {
			return err
		}
		require.Len(t, values, 1)
		return values[0].Set("hostname", "edited")
	})
	require.NoError(t, err)

	got, err := s.Get("10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "edited", got.Get("hostname"))

	items, err := s.Items()
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "10.0.0.1", items[0].Key)
}

func TestKeyedIntKeys(t *testing.T) {
	userSchema := record.MustSchema("user",
		record.NewField("uid", record.Int()),
		record.NewField("name", record.String(), record.WithDefault("")),
	)
	path := filepath.Join(t.TempDir(), "users.db")
	s, err := NewKeyed[int64](path, userSchema, "uid")
	require.NoError(t, err)

	rec, err := userSchema.New(map[string]any{"uid": int64(7), "name": "root"})
	require.NoError(t, err)
	require.NoError(t, s.Add(rec))

	got, err := s.Get(7)
	require.NoError(t, err)
	assert.Equal(t, "root", got.Get("name"))
}
