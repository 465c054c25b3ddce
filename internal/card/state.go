// Package card manages the transient UI card bound to one paragraph: toggle
// create/teardown, task fan-out, and the staleness guard that discards async
// results for cards that no longer exist.
package card

import (
	"sync"

	"github.com/paralens-ai/paralens/pkg/protocol"
)

// TaskError is a failure attributed to one task type.
type TaskError struct {
	Type    protocol.TaskType `json:"type"`
	Message string            `json:"message"`
}

// Snapshot is an immutable view of a card's state.
type Snapshot struct {
	SourceText  string     `json:"sourceText"`
	Translation string     `json:"translation,omitempty"`
	Explanation string     `json:"explanation,omitempty"`
	Err         *TaskError `json:"error,omitempty"`
	Loading     bool       `json:"loading"`
}

// State is the mutable view model a card UI binds to. Mutations notify
// subscribers with a fresh snapshot, keeping the package independent of any
// UI framework.
type State struct {
	mu     sync.Mutex
	snap   Snapshot
	subs   map[int]func(Snapshot)
	nextID int
}

// NewState creates a loading state holding the extracted source text.
func NewState(sourceText string) *State {
	return &State{
		snap: Snapshot{SourceText: sourceText, Loading: true},
		subs: map[int]func(Snapshot){},
	}
}

// Snapshot returns the current state.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Subscribe registers fn to run on every state change. The returned cancel
// func is idempotent.
func (s *State) Subscribe(fn func(Snapshot)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

func (s *State) update(mutate func(*Snapshot)) {
	s.mu.Lock()
	mutate(&s.snap)
	snap := s.snap
	fns := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

func (s *State) setTranslation(text string) {
	s.update(func(snap *Snapshot) {
		snap.Translation = text
		snap.Loading = false
	})
}

func (s *State) setExplanation(text string) {
	s.update(func(snap *Snapshot) {
		snap.Explanation = text
		snap.Loading = false
	})
}

// setError records a task failure. When keepExisting is set an earlier error
// wins: an explain failure must not clobber a translate outcome already
// reported.
func (s *State) setError(taskType protocol.TaskType, message string, keepExisting bool) {
	s.update(func(snap *Snapshot) {
		if keepExisting && snap.Err != nil {
			return
		}
		snap.Err = &TaskError{Type: taskType, Message: message}
		snap.Loading = false
	})
}
