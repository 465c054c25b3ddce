// Package agent orchestrates task execution: config resolution, client
// acquisition, prompt rendering and the completion call, plus execution
// history recording.
package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/paralens-ai/paralens/internal/errors"
	"github.com/paralens-ai/paralens/internal/history"
	"github.com/paralens-ai/paralens/internal/logging"
	"github.com/paralens-ai/paralens/internal/pool"
	"github.com/paralens-ai/paralens/internal/task"
	"github.com/paralens-ai/paralens/pkg/protocol"
)

// Agent is the façade over config resolution, the client pool and the task
// runners. It is the single place where every task execution failure becomes
// the uniform AgentResult shape; no error escapes Perform.
type Agent struct {
	tasks   *task.Service
	pool    *pool.Pool
	history *history.Store // may be nil; history is best-effort
	logger  logging.Logger
	runners map[protocol.TaskType]runner
}

// Options configures an Agent.
type Options struct {
	Tasks   *task.Service
	Pool    *pool.Pool
	History *history.Store
	Logger  logging.Logger
}

// New builds an agent with a runner wired for every supported task type.
func New(opts Options) (*Agent, error) {
	runners := make(map[protocol.TaskType]runner, len(protocol.TaskTypes))
	for _, taskType := range protocol.TaskTypes {
		r, err := newRunner(taskType)
		if err != nil {
			return nil, err
		}
		runners[taskType] = r
	}

	return &Agent{
		tasks:   opts.Tasks,
		pool:    opts.Pool,
		history: opts.History,
		logger:  logging.OrNop(opts.Logger),
		runners: runners,
	}, nil
}

// Perform runs taskType against actx and returns the uniform result.
// Concurrent calls are independent; each resolves its own config and client
// snapshot and shares no mutable state with other calls.
func (a *Agent) Perform(ctx context.Context, taskType protocol.TaskType, actx protocol.AgentContext) protocol.AgentResult {
	a.logger.Info("perform start: %s", taskType)
	start := time.Now()

	data, cfg, modelID, err := a.run(ctx, taskType, actx)
	if err != nil {
		a.logger.Error("perform failed: %s [%s/%s]: %v", taskType, errors.GetCode(err), errors.GetCategory(err), err)
		return protocol.Failure(errors.UserMessage(err))
	}

	a.record(ctx, history.Record{
		TaskType:   taskType,
		Context:    actx,
		Result:     data,
		AIConfigID: cfg.AIConfigID,
		DurationMs: time.Since(start).Milliseconds(),
		Model:      modelID,
	})

	a.logger.Info("perform success: %s (%dms)", taskType, time.Since(start).Milliseconds())
	return protocol.Success(data)
}

func (a *Agent) run(ctx context.Context, taskType protocol.TaskType, actx protocol.AgentContext) (data string, cfg task.RuntimeConfig, modelID string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.System(errors.CodeInvalidInput, fmt.Sprintf("task execution panicked: %v", r))
		}
	}()

	r, ok := a.runners[taskType]
	if !ok {
		return "", cfg, "", errors.User(errors.CodeTaskUnknown, "unknown task type: "+string(taskType))
	}

	cfg, err = a.tasks.Get(taskType)
	if err != nil {
		return "", cfg, "", err
	}

	client, err := a.pool.Get(ctx, cfg.AIConfigID)
	if err != nil {
		return "", cfg, "", err
	}

	data, err = r.Run(ctx, actx, cfg, client)
	if err != nil {
		return "", cfg, "", err
	}

	return data, cfg, client.Model(), nil
}

// record appends to execution history. A history-write failure is logged but
// never flips the task result: the task itself already succeeded.
func (a *Agent) record(ctx context.Context, rec history.Record) {
	if a.history == nil {
		return
	}
	if err := a.history.Append(ctx, rec); err != nil {
		a.logger.Warn("failed to record execution history: %v", err)
	}
}
