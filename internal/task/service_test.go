package task

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paralens-ai/paralens/internal/storage"
	"github.com/paralens-ai/paralens/pkg/protocol"
)

func newService(t *testing.T) (*Service, *storage.Store) {
	t.Helper()
	st, err := storage.Open(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	svc := NewService(st, nil)
	t.Cleanup(svc.Dispose)
	return svc, st
}

func TestInitSeedsAllTasks(t *testing.T) {
	svc, _ := newService(t)
	svc.Init()

	for _, taskType := range protocol.TaskTypes {
		cfg, err := svc.Get(taskType)
		require.NoError(t, err)
		assert.Equal(t, "openrouter-123", cfg.AIConfigID)
		assert.Equal(t, 0.7, cfg.Temperature)
		assert.NotEmpty(t, cfg.Prompt.System)
		assert.NotEmpty(t, cfg.Prompt.User)
	}
}

func TestInitMissingTaskFallsBackToSeed(t *testing.T) {
	svc, st := newService(t)
	require.NoError(t, st.Write("tasks", RuntimeConfigs{
		protocol.TaskTranslate: {AIConfigID: "custom-1", Temperature: 0.2},
	}))

	svc.Init()

	cfg, err := svc.Get(protocol.TaskTranslate)
	require.NoError(t, err)
	assert.Equal(t, "custom-1", cfg.AIConfigID)

	cfg, err = svc.Get(protocol.TaskExplain)
	require.NoError(t, err)
	assert.Equal(t, "openrouter-123", cfg.AIConfigID, "missing entry uses the seed")
}

func TestGetUninitialized(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.Get(protocol.TaskTranslate)
	require.Error(t, err)
}

func TestGetUnknownTask(t *testing.T) {
	svc, _ := newService(t)
	svc.Init()

	_, err := svc.Get(protocol.TaskType("summarize"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "runtime config not found for task: summarize")
}

func TestReloadReplacesChangedEntriesOnly(t *testing.T) {
	svc, st := newService(t)
	svc.Init()

	seeded, err := svc.Get(protocol.TaskExplain)
	require.NoError(t, err)

	require.NoError(t, st.Write("tasks", RuntimeConfigs{
		protocol.TaskTranslate: {AIConfigID: "other-1", Temperature: 0.9},
		protocol.TaskExplain:   seeded,
	}))
	svc.reload()

	cfg, err := svc.Get(protocol.TaskTranslate)
	require.NoError(t, err)
	assert.Equal(t, "other-1", cfg.AIConfigID)
	assert.Equal(t, 0.9, cfg.Temperature)

	cfg, err = svc.Get(protocol.TaskExplain)
	require.NoError(t, err)
	assert.True(t, cfg.Equal(seeded))
}

func TestReloadAfterDispose(t *testing.T) {
	svc, st := newService(t)
	svc.Init()
	svc.Dispose()

	require.NoError(t, st.Write("tasks", RuntimeConfigs{
		protocol.TaskTranslate: {AIConfigID: "late-1"},
	}))
	svc.reload() // must not resurrect the cache

	_, err := svc.Get(protocol.TaskTranslate)
	require.Error(t, err)
}

func TestDisposeIdempotent(t *testing.T) {
	svc, _ := newService(t)
	svc.Init()
	svc.Dispose()
	svc.Dispose()
}

func TestRuntimeConfigEqual(t *testing.T) {
	a := RuntimeConfig{AIConfigID: "x", Temperature: 0.7, Prompt: PromptUnit{System: "s", User: "u"}}
	assert.True(t, a.Equal(a))

	b := a
	b.Temperature = 0.8
	assert.False(t, a.Equal(b))

	b = a
	b.Prompt.User = "changed"
	assert.False(t, a.Equal(b))
}
