// Package storage persists JSON documents under the data directory and
// notifies watchers when a document changes on disk.
//
// Each key maps to one file, <dir>/<key>.json. Writes go through a temp file
// and rename so watchers never observe a partial document. Change events are
// debounced per key: an editor (or another process) rewriting a file emits a
// burst of fsnotify events but callbacks fire once.
package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/paralens-ai/paralens/internal/errors"
	"github.com/paralens-ai/paralens/internal/logging"
)

const watchDebounce = 200 * time.Millisecond

// ErrNotFound is returned by Read when no document exists for the key.
var ErrNotFound = os.ErrNotExist

// Store is a file-backed key-value document store with change notification.
type Store struct {
	dir    string
	logger logging.Logger

	watcher *fsnotify.Watcher

	mu      sync.Mutex
	watches map[string]map[int]func()
	nextID  int
	timers  map[string]*time.Timer

	done      chan struct{}
	loopDone  chan struct{}
	closeOnce sync.Once
}

// Open creates the directory if needed and starts the change watcher.
func Open(dir string, logger logging.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrap(err, errors.CodeStorageWriteFailed, "failed to create storage dir", errors.CategorySystem)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeStorageReadFailed, "failed to create storage watcher", errors.CategorySystem)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, errors.Wrap(err, errors.CodeStorageReadFailed, "failed to watch storage dir", errors.CategorySystem)
	}

	s := &Store{
		dir:      dir,
		logger:   logging.OrNop(logger),
		watcher:  watcher,
		watches:  make(map[string]map[int]func()),
		timers:   make(map[string]*time.Timer),
		done:     make(chan struct{}),
		loopDone: make(chan struct{}),
	}

	go s.loop()

	return s, nil
}

// Read unmarshals the document for key into v.
// Returns ErrNotFound (wrapped) when no document exists.
func (s *Store) Read(key string, v any) error {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return err
		}
		return errors.Wrap(err, errors.CodeStorageReadFailed, "failed to read "+key, errors.CategorySystem)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return errors.Wrap(err, errors.CodeStorageReadFailed, "corrupt document for "+key, errors.CategorySystem)
	}

	return nil
}

// Write marshals v and atomically replaces the document for key.
// Local writes notify watchers like any other change; the callers' merge
// paths make self-notification a no-op.
func (s *Store) Write(key string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, errors.CodeStorageWriteFailed, "failed to marshal "+key, errors.CategorySystem)
	}

	tmp := s.path(key) + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return errors.Wrap(err, errors.CodeStorageWriteFailed, "failed to write "+key, errors.CategorySystem)
	}
	if err := os.Rename(tmp, s.path(key)); err != nil {
		return errors.Wrap(err, errors.CodeStorageWriteFailed, "failed to replace "+key, errors.CategorySystem)
	}

	return nil
}

// Watch registers fn to run (debounced) whenever the document for key changes
// on disk. Returns an unwatch func; unwatch is idempotent.
func (s *Store) Watch(key string, fn func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.watches[key] == nil {
		s.watches[key] = make(map[int]func())
	}
	id := s.nextID
	s.nextID++
	s.watches[key][id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.watches[key], id)
		})
	}
}

// Close stops the watcher. Idempotent.
func (s *Store) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		err = s.watcher.Close()
		<-s.loopDone

		s.mu.Lock()
		for _, t := range s.timers {
			t.Stop()
		}
		s.mu.Unlock()
	})
	return err
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

func (s *Store) loop() {
	defer close(s.loopDone)

	for {
		select {
		case <-s.done:
			return
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			s.handleChange(event.Name)
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warn("storage watcher error: %v", err)
		}
	}
}

func (s *Store) handleChange(path string) {
	name := filepath.Base(path)
	if filepath.Ext(name) != ".json" {
		return
	}
	key := name[:len(name)-len(".json")]

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.watches[key]) == 0 {
		return
	}

	if t, ok := s.timers[key]; ok {
		t.Stop()
	}
	s.timers[key] = time.AfterFunc(watchDebounce, func() {
		s.mu.Lock()
		fns := make([]func(), 0, len(s.watches[key]))
		for _, fn := range s.watches[key] {
			fns = append(fns, fn)
		}
		delete(s.timers, key)
		s.mu.Unlock()

		for _, fn := range fns {
			fn()
		}
	})
}
