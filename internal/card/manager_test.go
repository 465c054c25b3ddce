package card

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/net/html"

	"github.com/paralens-ai/paralens/internal/page"
	"github.com/paralens-ai/paralens/pkg/protocol"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func parseDoc(t *testing.T, src string) *html.Node {
	t.Helper()
	root, err := html.Parse(strings.NewReader(src))
	require.NoError(t, err)
	return root
}

func findTag(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findTag(c, tag); found != nil {
			return found
		}
	}
	return nil
}

// fakePerformer returns canned results per task type. An optional gate blocks
// every Perform call until released.
type fakePerformer struct {
	mu      sync.Mutex
	results map[protocol.TaskType]protocol.AgentResult
	gate    chan struct{}
	calls   atomic.Int32
}

func (f *fakePerformer) Perform(_ context.Context, taskType protocol.TaskType, _ protocol.AgentContext) protocol.AgentResult {
	f.calls.Add(1)
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if res, ok := f.results[taskType]; ok {
		return res
	}
	return protocol.Failure("no canned result")
}

type fakeUI struct {
	removed atomic.Int32
}

func (u *fakeUI) Remove() { u.removed.Add(1) }

type fakeSheet struct {
	injects atomic.Int32
	removes atomic.Int32
}

func (s *fakeSheet) Inject() error { s.injects.Add(1); return nil }
func (s *fakeSheet) Remove()       { s.removes.Add(1) }

const pageDoc = `<html><head><title>Example</title></head><body>
<article><p id="target">Hello world, this is a perfectly ordinary paragraph of text.</p></article>
<textarea>editor content goes here</textarea>
</body></html>`

type managerFixture struct {
	manager   *Manager
	performer *fakePerformer
	ui        *fakeUI
	sheet     *fakeSheet
	root      *html.Node
	target    *html.Node
}

func newManagerFixture(t *testing.T, explain bool) *managerFixture {
	t.Helper()

	f := &managerFixture{
		performer: &fakePerformer{
			results: map[protocol.TaskType]protocol.AgentResult{
				protocol.TaskTranslate: protocol.Success("你好世界"),
				protocol.TaskExplain:   protocol.Success(`{"translatedText":"你好"}`),
			},
		},
		ui:    &fakeUI{},
		sheet: &fakeSheet{},
	}
	f.root = parseDoc(t, pageDoc)
	f.target = findTag(f.root, "p")
	require.NotNil(t, f.target)

	f.manager = NewManager(Options{
		Performer:      f.performer,
		NewUI:          func(*html.Node, *State) (UI, error) { return f.ui, nil },
		Styles:         NewStyleManager(f.sheet),
		TargetLanguage: "zh-CN",
		ExplainEnabled: explain,
		Meta:           page.Meta{Title: "Example"},
		SiteURL:        "https://example.com",
	})
	t.Cleanup(f.manager.Close)
	return f
}

func (f *managerFixture) paraKey(t *testing.T) string {
	t.Helper()
	key, ok := page.Attr(f.target, paraKeyAttr)
	require.True(t, ok)
	require.NotEmpty(t, key)
	return key
}

func TestToggleCreatesCard(t *testing.T) {
	f := newManagerFixture(t, false)
	ctx := context.Background()

	f.manager.Toggle(ctx, f.target)

	key := f.paraKey(t)
	assert.True(t, f.manager.Active(key))

	snap, ok := f.manager.Snapshot(key)
	require.True(t, ok)
	assert.Contains(t, snap.SourceText, "Hello world")

	require.Eventually(t, func() bool {
		snap, ok := f.manager.Snapshot(key)
		return ok && snap.Translation == "你好世界" && !snap.Loading
	}, 2*time.Second, 10*time.Millisecond)
}

func TestToggleAgainRemovesCard(t *testing.T) {
	f := newManagerFixture(t, false)
	ctx := context.Background()

	f.manager.Toggle(ctx, f.target)
	key := f.paraKey(t)

	f.manager.Toggle(ctx, f.target)

	assert.False(t, f.manager.Active(key))
	assert.Equal(t, int32(1), f.ui.removed.Load())
	_, ok := page.Attr(f.target, paraKeyAttr)
	assert.False(t, ok, "marker attribute is cleared on teardown")
}

func TestToggleReusesExistingKey(t *testing.T) {
	f := newManagerFixture(t, false)
	page.SetAttr(f.target, paraKeyAttr, "fixed-key")

	f.manager.Toggle(context.Background(), f.target)

	assert.True(t, f.manager.Active("fixed-key"))
}

func TestToggleNoOps(t *testing.T) {
	f := newManagerFixture(t, false)
	ctx := context.Background()

	f.manager.Toggle(ctx, nil)

	editable := findTag(f.root, "textarea")
	require.NotNil(t, editable)
	f.manager.Toggle(ctx, editable)

	tiny := parseDoc(t, `<html><body><p>x</p></body></html>`)
	f.manager.Toggle(ctx, findTag(tiny, "p"))

	assert.Zero(t, f.performer.calls.Load())
	assert.Zero(t, f.sheet.injects.Load())
}

func TestStaleResultDiscarded(t *testing.T) {
	f := newManagerFixture(t, false)
	f.performer.gate = make(chan struct{})
	ctx := context.Background()

	f.manager.Toggle(ctx, f.target)
	key := f.paraKey(t)

	state := func() *State {
		f.manager.mu.Lock()
		defer f.manager.mu.Unlock()
		return f.manager.cards[key].state
	}()

	// Tear the card down while the task is still in flight, then let the
	// result land.
	f.manager.Cleanup(key)
	close(f.performer.gate)
	f.manager.Close()

	snap := state.Snapshot()
	assert.Empty(t, snap.Translation, "late result must be discarded")
	assert.True(t, snap.Loading)
}

func TestExplainFailureKeepsTranslation(t *testing.T) {
	f := newManagerFixture(t, true)
	f.performer.results[protocol.TaskExplain] = protocol.Failure("explain broke")

	f.manager.Toggle(context.Background(), f.target)
	key := f.paraKey(t)

	require.Eventually(t, func() bool {
		snap, ok := f.manager.Snapshot(key)
		return ok && snap.Translation != "" && snap.Err != nil
	}, 2*time.Second, 10*time.Millisecond)

	snap, _ := f.manager.Snapshot(key)
	assert.Equal(t, "你好世界", snap.Translation)
	assert.Equal(t, protocol.TaskExplain, snap.Err.Type)
	assert.Equal(t, "explain broke", snap.Err.Message)
}

func TestTranslateFailureReported(t *testing.T) {
	f := newManagerFixture(t, false)
	f.performer.results[protocol.TaskTranslate] = protocol.Failure("API key is not set")

	f.manager.Toggle(context.Background(), f.target)
	key := f.paraKey(t)

	require.Eventually(t, func() bool {
		snap, ok := f.manager.Snapshot(key)
		return ok && snap.Err != nil && !snap.Loading
	}, 2*time.Second, 10*time.Millisecond)

	snap, _ := f.manager.Snapshot(key)
	assert.Equal(t, protocol.TaskTranslate, snap.Err.Type)
	assert.Equal(t, "API key is not set", snap.Err.Message)
}

func TestUIFactoryErrorRollsBack(t *testing.T) {
	f := newManagerFixture(t, false)
	f.manager.opts.NewUI = func(*html.Node, *State) (UI, error) {
		return nil, assert.AnError
	}

	f.manager.Toggle(context.Background(), f.target)

	_, ok := page.Attr(f.target, paraKeyAttr)
	assert.False(t, ok)
	assert.Equal(t, f.sheet.injects.Load(), f.sheet.removes.Load(), "acquired styles are released")
	assert.Zero(t, f.performer.calls.Load())
}

func TestStyleSheetSharedAcrossCards(t *testing.T) {
	f := newManagerFixture(t, false)
	ctx := context.Background()

	second := parseDoc(t, pageDoc)
	secondTarget := findTag(second, "p")

	f.manager.Toggle(ctx, f.target)
	f.manager.Toggle(ctx, secondTarget)
	assert.Equal(t, int32(1), f.sheet.injects.Load(), "one injection for all cards")

	f.manager.Close()
	assert.Equal(t, int32(1), f.sheet.removes.Load(), "removed after the last card")
}

func TestStateSubscribe(t *testing.T) {
	state := NewState("source")

	var got []Snapshot
	var mu sync.Mutex
	cancel := state.Subscribe(func(s Snapshot) {
		mu.Lock()
		got = append(got, s)
		mu.Unlock()
	})

	state.setTranslation("t1")
	cancel()
	cancel() // idempotent
	state.setTranslation("t2")

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 1)
	assert.Equal(t, "t1", got[0].Translation)
	assert.False(t, got[0].Loading)
}

func TestSetErrorKeepExisting(t *testing.T) {
	state := NewState("source")

	state.setError(protocol.TaskTranslate, "first", false)
	state.setError(protocol.TaskExplain, "second", true)

	snap := state.Snapshot()
	require.NotNil(t, snap.Err)
	assert.Equal(t, "first", snap.Err.Message, "earlier error wins")

	state.setError(protocol.TaskExplain, "forced", false)
	assert.Equal(t, "forced", state.Snapshot().Err.Message)
}
