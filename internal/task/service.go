package task

import (
	"sync"

	"github.com/paralens-ai/paralens/internal/errors"
	"github.com/paralens-ai/paralens/internal/logging"
	"github.com/paralens-ai/paralens/internal/storage"
	"github.com/paralens-ai/paralens/pkg/protocol"
)

const storageKey = "tasks"

// Service resolves the runtime config for each task type.
//
// Reads are synchronous against an in-memory cache; updates arrive
// asynchronously via the storage watch. A cached entry is only replaced when
// an incoming config actually differs, so unrelated storage churn never
// produces a new value.
type Service struct {
	storage *storage.Store
	logger  logging.Logger

	mu      sync.RWMutex
	configs RuntimeConfigs

	unwatch func()
}

// NewService creates an uninitialized service; call Init before Get.
func NewService(st *storage.Store, logger logging.Logger) *Service {
	return &Service{
		storage: st,
		logger:  logging.OrNop(logger),
	}
}

// Init loads the persisted task-config map and registers the storage watch.
// Any task type missing from storage falls back to its compiled-in seed.
// A failed storage read degrades to seeds entirely.
func (s *Service) Init() {
	loaded := RuntimeConfigs{}
	if err := s.storage.Read(storageKey, &loaded); err != nil {
		s.logger.Warn("task config read failed, using seeds: %v", err)
		loaded = RuntimeConfigs{}
	}

	seeds := Seeds()
	configs := make(RuntimeConfigs, len(protocol.TaskTypes))
	for _, taskType := range protocol.TaskTypes {
		if cfg, ok := loaded[taskType]; ok {
			configs[taskType] = cfg
		} else {
			configs[taskType] = seeds[taskType]
		}
	}

	s.mu.Lock()
	s.configs = configs
	s.mu.Unlock()

	s.unwatch = s.storage.Watch(storageKey, s.reload)
}

// Get returns the current runtime config for taskType.
// Fails when the service is uninitialized or the task type is unknown.
func (s *Service) Get(taskType protocol.TaskType) (RuntimeConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.configs == nil {
		return RuntimeConfig{}, errors.System(errors.CodeNotInitialized, "task config service not initialized")
	}

	cfg, ok := s.configs[taskType]
	if !ok {
		return RuntimeConfig{}, errors.User(errors.CodeTaskUnknown, "runtime config not found for task: "+string(taskType))
	}
	return cfg, nil
}

// Dispose unregisters the storage watch and clears the cache. Idempotent.
func (s *Service) Dispose() {
	if s.unwatch != nil {
		s.unwatch()
		s.unwatch = nil
	}

	s.mu.Lock()
	s.configs = nil
	s.mu.Unlock()
}

// reload applies a changed storage document, replacing only entries whose
// fields differ from the cached value.
func (s *Service) reload() {
	incoming := RuntimeConfigs{}
	if err := s.storage.Read(storageKey, &incoming); err != nil {
		s.logger.Warn("task config reload failed: %v", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.configs == nil {
		return // disposed while the change was in flight
	}

	for _, taskType := range protocol.TaskTypes {
		updated, ok := incoming[taskType]
		if !ok {
			continue
		}
		if current, ok := s.configs[taskType]; ok && current.Equal(updated) {
			continue
		}
		s.logger.Info("updating config for task: %s", taskType)
		s.configs[taskType] = updated
	}
}
