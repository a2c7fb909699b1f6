package store

import (
	"fmt"
	"os"
	"path/filepath"
)

// TempFilePrefix marks the scratch files used by atomic writes. Leftovers
// from a crashed process can be matched and removed by this prefix.
const TempFilePrefix = "shelf-tmp-"

// writeFileAtomic replaces filename with data via a synced scratch file and
// a rename, so readers observe either the previous content or the new one,
// never a partial write.
func writeFileAtomic(filename string, data []byte, perm os.FileMode) error {
	// The scratch file must live in the target's directory: rename is only
	// atomic within one filesystem.
	dir := filepath.Dir(filename)
	tmpFile, err := os.CreateTemp(dir, TempFilePrefix+"*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write to temp file: %w", err)
	}

	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// CreateTemp forces 0600 no matter the requested mode.
	if err := os.Chmod(tmpFile.Name(), perm); err != nil {
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}

	if err := os.Rename(tmpFile.Name(), filename); err != nil {
		return fmt.Errorf("failed to rename temp file to %s: %w", filename, err)
	}

	return nil
}
