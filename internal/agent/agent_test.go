package agent

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paralens-ai/paralens/internal/history"
	"github.com/paralens-ai/paralens/internal/pool"
	"github.com/paralens-ai/paralens/internal/provider"
	"github.com/paralens-ai/paralens/internal/storage"
	"github.com/paralens-ai/paralens/internal/task"
	"github.com/paralens-ai/paralens/pkg/protocol"
)

type fixture struct {
	agent    *Agent
	history  *history.Store
	requests *atomic.Int32

	mu       sync.Mutex
	lastBody map[string]any
}

func (f *fixture) body() map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastBody
}

// newFixture wires storage, providers, task configs, the pool and history
// around an httptest provider endpoint that returns content.
func newFixture(t *testing.T, content string, apiKey string) *fixture {
	t.Helper()

	f := &fixture{requests: &atomic.Int32{}}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.requests.Add(1)
		raw, _ := io.ReadAll(r.Body)
		body := map[string]any{}
		_ = json.Unmarshal(raw, &body)
		f.mu.Lock()
		f.lastBody = body
		f.mu.Unlock()

		resp := map[string]any{
			"id":    "cmpl-1",
			"model": "test/model-1",
			"choices": []map[string]any{
				{"index": 0, "message": map[string]any{"role": "assistant", "content": content}},
			},
			"usage": map[string]any{"total_tokens": 9},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)

	st, err := storage.Open(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	require.NoError(t, st.Write("providers", provider.Configs{
		"test-1": {
			ID:        "test-1",
			Name:      "Test",
			Model:     "test/model-1",
			APIKey:    apiKey,
			BaseURL:   srv.URL,
			CreatedAt: 1,
			UpdatedAt: 1,
		},
	}))
	require.NoError(t, st.Write("tasks", task.RuntimeConfigs{
		protocol.TaskTranslate: {
			AIConfigID:  "test-1",
			Temperature: 0.7,
			Prompt: task.PromptUnit{
				System: "You translate to %{targetLanguage}.",
				User:   "%{sourceText}",
			},
		},
		protocol.TaskExplain: {
			AIConfigID:  "test-1",
			Temperature: 0.7,
			Prompt: task.PromptUnit{
				System: "You explain in %{targetLanguage}.",
				User:   "Can you explain the following sentence: <%{sourceText}>",
			},
		},
	}))

	providers := provider.NewStore(st, nil)
	providers.Init()
	t.Cleanup(providers.Dispose)

	tasks := task.NewService(st, nil)
	tasks.Init()
	t.Cleanup(tasks.Dispose)

	p, err := pool.New(pool.Options{Providers: providers, Timeout: 10})
	require.NoError(t, err)

	hist, err := history.Open(filepath.Join(t.TempDir(), "history.db"), 100, nil)
	require.NoError(t, err)
	t.Cleanup(func() { hist.Close() })
	f.history = hist

	a, err := New(Options{Tasks: tasks, Pool: p, History: hist})
	require.NoError(t, err)
	f.agent = a

	return f
}

func testContext() protocol.AgentContext {
	return protocol.AgentContext{
		SourceText:     "Hello world",
		SourceLanguage: "auto",
		TargetLanguage: "zh-CN",
		SiteTitle:      "Example",
		SiteURL:        "https://example.com/post",
	}
}

func TestPerformTranslate(t *testing.T) {
	f := newFixture(t, "你好世界", "sk-test")

	res := f.agent.Perform(context.Background(), protocol.TaskTranslate, testContext())

	require.True(t, res.OK, "error: %s", res.Error)
	assert.Equal(t, "你好世界", res.Data)
	assert.Empty(t, res.Error)
	assert.Equal(t, int32(1), f.requests.Load())

	// The rendered prompts went out, not the raw templates.
	msgs, ok := f.body()["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 2)
	system := msgs[0].(map[string]any)
	user := msgs[1].(map[string]any)
	assert.Equal(t, "You translate to zh-CN.", system["content"])
	assert.Equal(t, "Hello world", user["content"])
	assert.NotContains(t, f.body(), "response_format")
}

func TestPerformExplainRequestsSchema(t *testing.T) {
	f := newFixture(t, `{"translatedText":"你好","grammar":"-","vocabulary":"-"}`, "sk-test")

	res := f.agent.Perform(context.Background(), protocol.TaskExplain, testContext())

	require.True(t, res.OK, "error: %s", res.Error)
	format, ok := f.body()["response_format"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "json_schema", format["type"])
	schema := format["json_schema"].(map[string]any)
	assert.Equal(t, "sentence_analysis", schema["name"])
}

func TestPerformWhitespaceContentFails(t *testing.T) {
	f := newFixture(t, "  \n\t ", "sk-test")

	res := f.agent.Perform(context.Background(), protocol.TaskTranslate, testContext())

	assert.False(t, res.OK)
	assert.Equal(t, "empty response", res.Error)
	assert.Empty(t, res.Data)
}

func TestPerformMissingAPIKey(t *testing.T) {
	f := newFixture(t, "unused", "")

	res := f.agent.Perform(context.Background(), protocol.TaskTranslate, testContext())

	assert.False(t, res.OK)
	assert.Equal(t, "API key is not set", res.Error)
	assert.Zero(t, f.requests.Load(), "no network call without a key")
}

func TestPerformUnknownTaskType(t *testing.T) {
	f := newFixture(t, "unused", "sk-test")

	res := f.agent.Perform(context.Background(), protocol.TaskType("summarize"), testContext())

	assert.False(t, res.OK)
	assert.Contains(t, res.Error, "unknown task type")
	assert.Zero(t, f.requests.Load())
}

func TestPerformRecordsHistory(t *testing.T) {
	f := newFixture(t, "你好世界", "sk-test")
	ctx := context.Background()

	res := f.agent.Perform(ctx, protocol.TaskTranslate, testContext())
	require.True(t, res.OK)

	recs, err := f.history.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, protocol.TaskTranslate, recs[0].TaskType)
	assert.Equal(t, "你好世界", recs[0].Result)
	assert.Equal(t, "test-1", recs[0].AIConfigID)
	assert.Equal(t, "Hello world", recs[0].Context.SourceText)
	assert.Equal(t, "test/model-1", recs[0].Model)
}

func TestPerformFailureNotRecorded(t *testing.T) {
	f := newFixture(t, "   ", "sk-test")
	ctx := context.Background()

	res := f.agent.Perform(ctx, protocol.TaskTranslate, testContext())
	require.False(t, res.OK)

	recs, err := f.history.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestPerformWithoutHistory(t *testing.T) {
	f := newFixture(t, "你好世界", "sk-test")
	a, err := New(Options{Tasks: f.agent.tasks, Pool: f.agent.pool})
	require.NoError(t, err)

	res := a.Perform(context.Background(), protocol.TaskTranslate, testContext())
	require.True(t, res.OK)
}
