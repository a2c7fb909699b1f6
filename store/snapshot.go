package store

import (
	"fmt"
	"os"
	"time"
)

// snapshot is the (mtime, size) pair recorded after the last successful
// read or write, used to detect external modification without rereading
// content.
type snapshot struct {
	mtime time.Time
	size  int64
}

// fileState tracks whether the on-disk file has diverged from what was last
// seen in memory.
type fileState struct {
	path string
	snap *snapshot
}

// modifiedExternally reports whether the file content no longer matches the
// snapshot: true when the file exists but was never read, when the file
// disappeared after a snapshot was taken, or when its (mtime, size)
// changed.
func (f *fileState) modifiedExternally() (bool, error) {
	info, err := os.Stat(f.path)
	if os.IsNotExist(err) {
		return f.snap != nil, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat %s: %w", f.path, err)
	}
	if f.snap == nil {
		return true, nil
	}
	return !info.ModTime().Equal(f.snap.mtime) || info.Size() != f.snap.size, nil
}

// capture records the current (mtime, size). A missing file clears the
// snapshot so a later creation is detected as a change.
func (f *fileState) capture() error {
	info, err := os.Stat(f.path)
	if os.IsNotExist(err) {
		f.snap = nil
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", f.path, err)
	}
	f.snap = &snapshot{mtime: info.ModTime(), size: info.Size()}
	return nil
}
