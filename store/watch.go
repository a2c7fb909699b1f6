package store

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/fsnotify/fsnotify"
)

// EventType classifies an external change to a store's backing file.
type EventType string

const (
	EventModified EventType = "modified"
	EventRemoved  EventType = "removed"
)

// Event describes an external change observed on a store's backing file.
// Receiving one does not refresh any handle; the next operation on the
// store reconciles as usual.
type Event struct {
	Type      EventType
	Path      string
	Timestamp int64
}

// watch starts an fsnotify watcher on the directory containing the backing
// file and pumps matching events onto the returned channel until ctx is
// cancelled. Events for the sibling lock file and for in-flight temp files
// are filtered out. The channel is closed when the watcher stops.
func (s *textStore) watch(ctx context.Context) (<-chan Event, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	events := make(chan Event, 16)
	target := filepath.Clean(s.path)

	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(events)
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return nil

			case ev, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if filepath.Clean(ev.Name) != target {
					continue
				}
				eType := mapEventType(ev)
				if eType == "" {
					continue
				}
				if s.log != nil {
					s.log.Debug("file event", "path", ev.Name, "op", ev.Op.String())
				}
				out := Event{Type: eType, Path: s.path, Timestamp: time.Now().Unix()}
				select {
				case events <- out:
				default:
					// Slow consumer; the store reconciles on its next
					// operation anyway, so dropping is safe.
					if s.log != nil {
						s.log.Debug("event dropped, channel full", "path", ev.Name)
					}
				}

			case wErr, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				if s.log != nil {
					s.log.Error("fsnotify error", "error", wErr)
				}
			}
		}
	}, lifecycle.WithErrorHandler(func(err error) {
		if s.log != nil {
			s.log.Error("watcher panic", "error", err)
		}
	}))

	return events, nil
}

func mapEventType(ev fsnotify.Event) EventType {
	switch {
	case ev.Has(fsnotify.Remove):
		return EventRemoved
	case ev.Has(fsnotify.Create), ev.Has(fsnotify.Write), ev.Has(fsnotify.Rename):
		return EventModified
	default:
		return ""
	}
}

// Watch reports external changes to the backing file until ctx is cancelled.
func (s *Keyed[K]) Watch(ctx context.Context) (<-chan Event, error) {
	return s.base.watch(ctx)
}

// Watch reports external changes to the backing file until ctx is cancelled.
func (s *MultiKeyed[K]) Watch(ctx context.Context) (<-chan Event, error) {
	return s.base.watch(ctx)
}
