package store

import (
	"fmt"
	"os"
	"time"
)

// LockSuffix is appended to the store path to derive the sibling lock file.
const LockSuffix = ".lock"

const lockRetryInterval = 10 * time.Millisecond

// fileLock is an advisory, process-cooperative lock backed by a sibling
// lock file. Acquisition creates the file with O_EXCL; holders of the lock
// are expected to cooperate, the OS does not enforce it.
type fileLock struct {
	path    string
	timeout time.Duration // zero means wait indefinitely
}

func newFileLock(storePath string, timeout time.Duration) *fileLock {
	return &fileLock{path: storePath + LockSuffix, timeout: timeout}
}

// acquire blocks until the lock file can be created, then returns the
// unlock function. With a timeout configured, a lock held longer than that
// fails with ErrLockTimeout instead of deadlocking the process on a crashed
// holder.
func (l *fileLock) acquire() (func(), error) {
	var deadline time.Time
	if l.timeout > 0 {
		deadline = time.Now().Add(l.timeout)
	}

	for {
		f, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL, 0666)
		if err == nil {
			f.Close()
			return func() {
				os.Remove(l.path)
			}, nil
		}

		if !os.IsExist(err) {
			return nil, fmt.Errorf("failed to acquire lock: %w", err)
		}

		if l.timeout > 0 && time.Now().After(deadline) {
			return nil, fmt.Errorf("%w: %s held for more than %s", ErrLockTimeout, l.path, l.timeout)
		}
		time.Sleep(lockRetryInterval)
	}
}
