package card

import "sync"

// StyleSheet is the shared stylesheet resource backing all mounted cards.
// Implementations inject the sheet on first acquire and remove it after the
// last release.
type StyleSheet interface {
	Inject() error
	Remove()
}

// StyleManager reference-counts the shared stylesheet so concurrent cards
// share one injection.
type StyleManager struct {
	mu    sync.Mutex
	sheet StyleSheet
	refs  int
}

// NewStyleManager wraps sheet; a nil sheet makes every operation a no-op.
func NewStyleManager(sheet StyleSheet) *StyleManager {
	return &StyleManager{sheet: sheet}
}

// Acquire increments the refcount, injecting the sheet on the first holder.
func (m *StyleManager) Acquire() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.refs++
	if m.refs == 1 && m.sheet != nil {
		if err := m.sheet.Inject(); err != nil {
			m.refs--
			return err
		}
	}
	return nil
}

// Release decrements the refcount, removing the sheet after the last holder.
// Safe to call when nothing is held.
func (m *StyleManager) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.refs == 0 {
		return
	}
	m.refs--
	if m.refs == 0 && m.sheet != nil {
		m.sheet.Remove()
	}
}
