package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStateModifiedExternally(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.db")
	f := &fileState{path: path}

	t.Run("missing file never seen", func(t *testing.T) {
		changed, err := f.modifiedExternally()
		require.NoError(t, err)
		assert.False(t, changed)
	})

	t.Run("existing file never seen", func(t *testing.T) {
		require.NoError(t, os.WriteFile(path, []byte("a\n"), 0644))
		changed, err := f.modifiedExternally()
		require.NoError(t, err)
		assert.True(t, changed)
	})

	t.Run("unchanged after capture", func(t *testing.T) {
		require.NoError(t, f.capture())
		changed, err := f.modifiedExternally()
		require.NoError(t, err)
		assert.False(t, changed)
	})

	t.Run("content change detected", func(t *testing.T) {
		// Force an mtime difference even on coarse-grained filesystems.
		require.NoError(t, os.WriteFile(path, []byte("b\n"), 0644))
		past := time.Now().Add(-time.Minute)
		require.NoError(t, os.Chtimes(path, past, past))

		changed, err := f.modifiedExternally()
		require.NoError(t, err)
		assert.True(t, changed)
	})

	t.Run("size change detected", func(t *testing.T) {
		require.NoError(t, f.capture())
		require.NoError(t, os.WriteFile(path, []byte("longer line\n"), 0644))
		changed, err := f.modifiedExternally()
		require.NoError(t, err)
		assert.True(t, changed)
	})

	t.Run("removal after capture detected", func(t *testing.T) {
		require.NoError(t, f.capture())
		require.NoError(t, os.Remove(path))
		changed, err := f.modifiedExternally()
		require.NoError(t, err)
		assert.True(t, changed)
	})

	t.Run("capture of missing file clears snapshot", func(t *testing.T) {
		require.NoError(t, f.capture())
		changed, err := f.modifiedExternally()
		require.NoError(t, err)
		assert.False(t, changed)
	})
}
