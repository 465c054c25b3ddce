package provider

import (
	"os"
	"sort"
	"sync"

	"github.com/paralens-ai/paralens/internal/errors"
	"github.com/paralens-ai/paralens/internal/logging"
	"github.com/paralens-ai/paralens/internal/storage"
)

const storageKey = "providers"

// Store holds the provider config set, mirrored from persistent storage.
//
// External changes (the settings UI editing the same document) arrive via the
// storage watch and are merged last-write-wins per id by UpdatedAt. Deletion
// is never inferred from a watched snapshot: an id missing from incoming data
// stays alive locally until Remove is called explicitly. This protects
// entries added locally while an older snapshot was in flight.
type Store struct {
	storage *storage.Store
	logger  logging.Logger

	mu      sync.RWMutex
	configs Configs

	unwatch  func()
	initOnce sync.Once
}

// NewStore creates an uninitialized store; call Init before use.
func NewStore(st *storage.Store, logger logging.Logger) *Store {
	return &Store{
		storage: st,
		logger:  logging.OrNop(logger),
		configs: Configs{},
	}
}

// Init loads persisted configs, seeding defaults on first run, and registers
// the storage watch. A failed storage read degrades to seeds.
func (s *Store) Init() {
	s.initOnce.Do(func() {
		loaded := Configs{}
		err := s.storage.Read(storageKey, &loaded)
		switch {
		case err == nil && len(loaded) > 0:
			s.mu.Lock()
			s.configs = loaded
			s.mu.Unlock()
		case os.IsNotExist(err):
			s.mu.Lock()
			s.configs = Seeds()
			s.mu.Unlock()
			if werr := s.persist(); werr != nil {
				s.logger.Warn("failed to seed provider configs: %v", werr)
			}
		case err != nil:
			s.logger.Warn("provider config read failed, using seeds: %v", err)
			s.mu.Lock()
			s.configs = Seeds()
			s.mu.Unlock()
		default: // empty document
			s.mu.Lock()
			s.configs = Seeds()
			s.mu.Unlock()
		}

		s.unwatch = s.storage.Watch(storageKey, s.reload)
	})
}

// Get returns the config for id.
func (s *Store) Get(id string) (Config, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg, ok := s.configs[id]
	return cfg, ok
}

// List returns all configs sorted by creation time, oldest first.
func (s *Store) List() []Config {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Config, 0, len(s.configs))
	for _, cfg := range s.configs {
		out = append(out, cfg)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt < out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Put upserts a config, bumping its version clock, and persists the set.
func (s *Store) Put(cfg Config) error {
	if cfg.ID == "" {
		return errors.User(errors.CodeInvalidInput, "provider config id required")
	}

	cfg.Touch()

	s.mu.Lock()
	s.configs[cfg.ID] = cfg
	s.mu.Unlock()

	return s.persist()
}

// Remove deletes a config explicitly and persists the set.
// This is the only deletion path; watched snapshots never delete.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	_, ok := s.configs[id]
	delete(s.configs, id)
	s.mu.Unlock()

	if !ok {
		return nil
	}
	return s.persist()
}

// Dispose unregisters the storage watch. Idempotent.
func (s *Store) Dispose() {
	if s.unwatch != nil {
		s.unwatch()
		s.unwatch = nil
	}
}

// reload merges the on-disk document into memory, last-write-wins per id.
func (s *Store) reload() {
	incoming := Configs{}
	if err := s.storage.Read(storageKey, &incoming); err != nil {
		s.logger.Warn("provider config reload failed: %v", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	merged := 0
	for id, in := range incoming {
		cur, ok := s.configs[id]
		if !ok || in.UpdatedAt >= cur.UpdatedAt {
			s.configs[id] = in
			merged++
		}
	}

	s.logger.Debug("merged provider configs from storage: %d applied, %d total", merged, len(s.configs))
}

func (s *Store) persist() error {
	s.mu.RLock()
	snapshot := make(Configs, len(s.configs))
	for id, cfg := range s.configs {
		snapshot[id] = cfg
	}
	s.mu.RUnlock()

	return s.storage.Write(storageKey, snapshot)
}
