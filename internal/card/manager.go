package card

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/net/html"

	"github.com/paralens-ai/paralens/internal/logging"
	"github.com/paralens-ai/paralens/internal/page"
	"github.com/paralens-ai/paralens/pkg/protocol"
)

// paraKeyAttr marks a container that has (or had) a card, keeping the
// paragraph key stable across DOM churn and repeat toggles.
const paraKeyAttr = "data-para-id"

// Performer is the messaging seam to the background agent.
type Performer interface {
	Perform(ctx context.Context, taskType protocol.TaskType, actx protocol.AgentContext) protocol.AgentResult
}

// UI is the mounted card surface. Implementations bind to the State via
// Subscribe; the manager only mounts and removes them.
type UI interface {
	Remove()
}

// UIFactory mounts a card UI on a container. A factory error aborts the
// toggle and the partially-constructed card is cleaned up.
type UIFactory func(container *html.Node, state *State) (UI, error)

type entry struct {
	ui        UI
	container *html.Node
	state     *State
}

// Options configures a Manager.
type Options struct {
	Performer Performer
	NewUI     UIFactory
	Styles    *StyleManager
	// TargetLanguage for built agent contexts.
	TargetLanguage string
	// SourceLanguage defaults to "auto" when empty.
	SourceLanguage string
	// ExplainEnabled also fans out the explain task on toggle-on.
	ExplainEnabled bool
	// Meta is the page metadata attached to every agent context.
	Meta    page.Meta
	SiteURL string
	Logger  logging.Logger
}

// Manager owns the active-card registry for one page.
//
// All card lookups go through the registry by key, never through captured
// references: an async result re-checks membership before touching state, so
// a card toggled off mid-flight silently discards its late results.
type Manager struct {
	opts Options

	mu    sync.Mutex
	cards map[string]*entry

	wg sync.WaitGroup
}

// NewManager creates a manager with an empty registry.
func NewManager(opts Options) *Manager {
	if opts.SourceLanguage == "" {
		opts.SourceLanguage = "auto"
	}
	if opts.Styles == nil {
		opts.Styles = NewStyleManager(nil)
	}
	opts.Logger = logging.OrNop(opts.Logger)

	return &Manager{
		opts:  opts,
		cards: make(map[string]*entry),
	}
}

// Toggle creates a card for the paragraph under target, or tears down the
// existing one. No-ops: nil target, edit surfaces, and targets with no
// paragraph-like container in reach.
func (m *Manager) Toggle(ctx context.Context, target *html.Node) {
	if target == nil {
		return
	}
	if page.IsEditable(target) {
		m.opts.Logger.Debug("skip: input/textarea/contenteditable is hovered")
		return
	}

	container := page.Locate(target)
	if container == nil {
		return
	}

	sourceText := page.ExtractText(container)
	if !page.IsParagraphLike(sourceText) {
		return
	}

	paraKey, had := page.Attr(container, paraKeyAttr)
	if !had || paraKey == "" {
		paraKey = uuid.NewString()
		page.SetAttr(container, paraKeyAttr, paraKey)
	}

	if m.Active(paraKey) {
		m.Cleanup(paraKey)
		return
	}

	m.create(ctx, paraKey, container, sourceText)
}

// Active reports whether a card is registered for paraKey.
func (m *Manager) Active(paraKey string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.cards[paraKey]
	return ok
}

// Snapshot returns the state snapshot for an active card.
func (m *Manager) Snapshot(paraKey string) (Snapshot, bool) {
	m.mu.Lock()
	ent, ok := m.cards[paraKey]
	m.mu.Unlock()
	if !ok {
		return Snapshot{}, false
	}
	return ent.state.Snapshot(), true
}

// Cleanup removes a card and its resources: unmounts the UI, releases the
// shared stylesheet, clears the DOM marker attribute, and drops the registry
// entry. Idempotent and safe on partially-constructed cards.
func (m *Manager) Cleanup(paraKey string) {
	m.mu.Lock()
	ent, ok := m.cards[paraKey]
	delete(m.cards, paraKey)
	m.mu.Unlock()

	if !ok {
		m.opts.Logger.Debug("no card found for cleanup: %s", paraKey)
		return
	}

	if ent.ui != nil {
		ent.ui.Remove()
	}
	m.opts.Styles.Release()
	page.RemoveAttr(ent.container, paraKeyAttr)
	m.opts.Logger.Debug("removed card %s", paraKey)
}

// Close tears down every active card and waits for in-flight task goroutines
// to finish discarding their results.
func (m *Manager) Close() {
	m.mu.Lock()
	keys := make([]string, 0, len(m.cards))
	for key := range m.cards {
		keys = append(keys, key)
	}
	m.mu.Unlock()

	for _, key := range keys {
		m.Cleanup(key)
	}
	m.wg.Wait()
}

func (m *Manager) create(ctx context.Context, paraKey string, container *html.Node, sourceText string) {
	actx := protocol.AgentContext{
		SourceText:      sourceText,
		SourceLanguage:  m.opts.SourceLanguage,
		TargetLanguage:  m.opts.TargetLanguage,
		SiteTitle:       m.opts.Meta.Title,
		SiteURL:         m.opts.SiteURL,
		SiteDescription: m.opts.Meta.Description,
	}

	state := NewState(sourceText)

	if err := m.opts.Styles.Acquire(); err != nil {
		m.opts.Logger.Error("failed to inject card styles for %s: %v", paraKey, err)
		page.RemoveAttr(container, paraKeyAttr)
		return
	}

	ui, err := m.opts.NewUI(container, state)
	if err != nil {
		m.opts.Logger.Error("failed to create card UI for %s: %v", paraKey, err)
		m.opts.Styles.Release()
		page.RemoveAttr(container, paraKeyAttr)
		return
	}

	m.mu.Lock()
	m.cards[paraKey] = &entry{ui: ui, container: container, state: state}
	m.mu.Unlock()

	m.runTask(ctx, paraKey, protocol.TaskTranslate, actx)
	if m.opts.ExplainEnabled {
		m.runTask(ctx, paraKey, protocol.TaskExplain, actx)
	}
}

// runTask fans a task out without blocking the mount. The continuation
// re-checks the registry before every state mutation.
func (m *Manager) runTask(ctx context.Context, paraKey string, taskType protocol.TaskType, actx protocol.AgentContext) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		res := m.opts.Performer.Perform(ctx, taskType, actx)

		m.mu.Lock()
		ent, ok := m.cards[paraKey]
		m.mu.Unlock()
		if !ok {
			m.opts.Logger.Debug("discarding stale %s result for %s", taskType, paraKey)
			return
		}

		switch {
		case res.OK && taskType == protocol.TaskTranslate:
			ent.state.setTranslation(res.Data)
		case res.OK && taskType == protocol.TaskExplain:
			ent.state.setExplanation(res.Data)
		case taskType == protocol.TaskExplain:
			// An explain failure never clobbers an earlier error (or a
			// translate success already rendered).
			ent.state.setError(taskType, res.Error, true)
		default:
			ent.state.setError(taskType, res.Error, false)
		}
	}()
}
