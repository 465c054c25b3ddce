package agent

import (
	"context"
	"strings"

	"github.com/paralens-ai/paralens/internal/errors"
	"github.com/paralens-ai/paralens/internal/model"
	"github.com/paralens-ai/paralens/internal/prompt"
	"github.com/paralens-ai/paralens/internal/task"
	"github.com/paralens-ai/paralens/pkg/protocol"
)

// runner executes one task type against a resolved config and client.
type runner interface {
	Run(ctx context.Context, actx protocol.AgentContext, cfg task.RuntimeConfig, client *model.Client) (string, error)
}

// newRunner is the single dispatch point over the closed task-type set.
// Adding a task type without extending this switch is a startup error.
func newRunner(taskType protocol.TaskType) (runner, error) {
	switch taskType {
	case protocol.TaskTranslate:
		return translateRunner{}, nil
	case protocol.TaskExplain:
		return explainRunner{}, nil
	default:
		return nil, errors.User(errors.CodeTaskUnknown, "no runner for task type: "+string(taskType))
	}
}

// complete renders the prompt pair, issues one non-streaming completion, and
// rejects blank output.
func complete(ctx context.Context, actx protocol.AgentContext, cfg task.RuntimeConfig, client *model.Client, schema *model.ResponseSchema) (string, error) {
	systemPrompt := prompt.Render(cfg.Prompt.System, actx)
	userPrompt := prompt.Render(cfg.Prompt.User, actx)

	completion, err := client.Complete(ctx, model.Request{
		Messages: []model.Message{
			{Role: model.RoleSystem, Content: systemPrompt},
			{Role: model.RoleUser, Content: userPrompt},
		},
		Temperature: cfg.Temperature,
		Schema:      schema,
	})
	if err != nil {
		return "", err
	}

	if strings.TrimSpace(completion.Content) == "" {
		return "", errors.Permanent(errors.CodeModelEmptyResponse, "empty response")
	}

	return completion.Content, nil
}

// translateRunner produces plain-text output with a conversational prompt.
type translateRunner struct{}

func (translateRunner) Run(ctx context.Context, actx protocol.AgentContext, cfg task.RuntimeConfig, client *model.Client) (string, error) {
	return complete(ctx, actx, cfg, client, nil)
}

// explainRunner requests a structured JSON response with translated text,
// grammar notes, and vocabulary notes. The raw JSON string is returned
// uninterpreted; the caller is responsible for parsing.
type explainRunner struct{}

func (explainRunner) Run(ctx context.Context, actx protocol.AgentContext, cfg task.RuntimeConfig, client *model.Client) (string, error) {
	return complete(ctx, actx, cfg, client, explainSchema())
}

func explainSchema() *model.ResponseSchema {
	return &model.ResponseSchema{
		Name: "sentence_analysis",
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"translatedText": map[string]any{"type": "string"},
				"grammar":        map[string]any{"type": "string"},
				"vocabulary":     map[string]any{"type": "string"},
			},
			"required":             []string{"translatedText", "grammar", "vocabulary"},
			"additionalProperties": false,
		},
	}
}
