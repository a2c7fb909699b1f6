package store

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
)

// lineCodec is the serialize/deserialize hook the concrete stores plug into
// the locked text store.
type lineCodec interface {
	// marshalLines renders the in-memory state, one logical line per entry.
	marshalLines() ([]string, error)
	// unmarshalLines rebuilds the in-memory state from cleaned file lines
	// (comments and blanks already stripped).
	unmarshalLines(lines []string) error
}

// textStore owns the lock and the read-reconcile-then-write discipline over
// a single line-oriented text file. Concrete stores provide the lineCodec.
//
// The in-memory cache is private to one store instance and is reconciled
// against the file, never the reverse, on every access.
type textStore struct {
	path  string
	lock  *fileLock
	state fileState
	codec lineCodec
	log   *slog.Logger
	perm  os.FileMode

	depth       int  // nesting depth of Modify scopes
	stale       bool // in-memory state must be re-read before next use
	reparses    int
	lastRefresh time.Time
}

func newTextStore(path string, codec lineCodec, o *options) *textStore {
	return &textStore{
		path:  path,
		lock:  newFileLock(path, o.lockTimeout),
		state: fileState{path: path},
		codec: codec,
		log:   o.logger,
		perm:  o.perm,
	}
}

// refresh re-parses the file if it diverged from the snapshot or the
// in-memory state was invalidated. The caller must hold the lock. A
// missing file is an empty store, not an error.
func (s *textStore) refresh() error {
	if !s.stale {
		changed, err := s.state.modifiedExternally()
		if err != nil {
			return err
		}
		if !changed {
			return nil
		}
	}
	s.stale = false

	data, err := os.ReadFile(s.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to read %s: %w", s.path, err)
	}

	var lines []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}

	if err := s.codec.unmarshalLines(lines); err != nil {
		return err
	}
	s.reparses++
	s.lastRefresh = time.Now()
	if s.log != nil {
		s.log.Debug("reloaded store file", "path", s.path, "lines", len(lines))
	}
	return s.state.capture()
}

// invalidate marks the in-memory state stale so the next access re-reads
// the file. Called after a failed mutation fn, which may have left the
// cache ahead of the file. Re-reading drops the aborted changes instead
// of letting a later successful write carry them to disk.
func (s *textStore) invalidate() {
	s.stale = true
	if s.log != nil {
		s.log.Debug("discarded in-memory state after failed mutation", "path", s.path)
	}
}

// flush rewrites the whole file durably and records the new snapshot.
// The caller must hold the lock.
func (s *textStore) flush() error {
	lines, err := s.codec.marshalLines()
	if err != nil {
		return err
	}
	var data string
	if len(lines) > 0 {
		data = strings.Join(lines, "\n") + "\n"
	}
	if err := writeFileAtomic(s.path, []byte(data), s.perm); err != nil {
		return fmt.Errorf("failed to write %s: %w", s.path, err)
	}
	return s.state.capture()
}

// view runs fn with the lock held and the cache reconciled. Inside a Modify
// scope the lock is already held and reconciliation already happened.
func (s *textStore) view(fn func() error) error {
	if s.depth > 0 {
		return fn()
	}
	release, err := s.lock.acquire()
	if err != nil {
		return err
	}
	defer release()
	if err := s.refresh(); err != nil {
		return err
	}
	return fn()
}

// mutate runs fn under the lock after reconciling, then rewrites the file.
// Inside a Modify scope the write is deferred to the outermost exit.
func (s *textStore) mutate(fn func() error) error {
	if s.depth > 0 {
		return fn()
	}
	release, err := s.lock.acquire()
	if err != nil {
		return err
	}
	defer release()
	if err := s.refresh(); err != nil {
		return err
	}
	if err := fn(); err != nil {
		s.invalidate()
		return err
	}
	return s.flush()
}

// modifyScope batches any number of logical mutations into a single lock
// hold and a single disk write. Scopes nest: only the outermost entry
// acquires the lock and reads, only the outermost successful exit writes,
// and the lock is released on every exit path.
func (s *textStore) modifyScope(fn func() error) error {
	if s.depth > 0 {
		s.depth++
		err := fn()
		s.depth--
		return err
	}

	release, err := s.lock.acquire()
	if err != nil {
		return err
	}
	defer release()
	if err := s.refresh(); err != nil {
		return err
	}

	s.depth++
	err = fn()
	s.depth--
	if err != nil {
		s.invalidate()
		return err
	}
	return s.flush()
}

// writeBack rewrites the file from the in-memory state without reconciling
// first, for callers that mutated records obtained by reference from the
// bulk views. Inside a Modify scope this is a no-op: the outermost exit
// writes.
func (s *textStore) writeBack() error {
	if s.depth > 0 {
		return nil
	}
	release, err := s.lock.acquire()
	if err != nil {
		return err
	}
	defer release()
	return s.flush()
}
