package model

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/paralens-ai/paralens/internal/errors"
	"github.com/paralens-ai/paralens/internal/logging"
)

const defaultTimeout = 120 * time.Second

// Client issues non-streaming chat completions against one provider account.
// Failures are not retried at this layer; they surface to the orchestrator.
type Client struct {
	cfg    Config
	client *http.Client
	logger logging.Logger
}

// NewClient creates a chat client for the given provider account.
func NewClient(cfg Config, logger logging.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		logger: logging.OrNop(logger),
	}
}

// Model returns the active model id this client was built with.
func (c *Client) Model() string {
	return c.cfg.Model
}

// Complete sends one chat-completion request and returns the parsed result.
func (c *Client) Complete(ctx context.Context, req Request) (*Completion, error) {
	body := map[string]any{
		"model":       c.cfg.Model,
		"messages":    req.Messages,
		"temperature": req.Temperature,
		"stream":      false,
	}

	if req.Schema != nil {
		body["response_format"] = map[string]any{
			"type":        "json_schema",
			"json_schema": req.Schema,
		}
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeModelInvalidResponse, "failed to marshal request", errors.CategoryPermanent)
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeNetworkUnavailable, "failed to create HTTP request", errors.CategoryTemporary)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	c.logger.Debug("POST %s model=%s", endpoint, c.cfg.Model)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeNetworkUnavailable, "network request failed", errors.CategoryTemporary)
	}

	respBody, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()
	if readErr != nil {
		return nil, errors.Wrap(readErr, errors.CodeNetworkUnavailable, "failed to read response body", errors.CategoryTemporary)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		// fall through to parsing
	case http.StatusTooManyRequests:
		return nil, errors.Temporary(errors.CodeModelRateLimit, "rate limited by provider")
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, errors.User(errors.CodeModelUnavailable, "invalid API key")
	case http.StatusBadRequest:
		return nil, errors.NewBuilder(errors.CodeModelInvalidResponse, "bad request - check model name and parameters").
			User().
			WithContext("response", string(respBody)).
			Build()
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		return nil, errors.Temporary(errors.CodeModelUnavailable, fmt.Sprintf("API unavailable: %s", resp.Status))
	default:
		return nil, errors.Temporary(errors.CodeModelUnavailable, fmt.Sprintf("API error (status %d)", resp.StatusCode))
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, errors.NewBuilder(errors.CodeModelParseError, "failed to parse API response").
			Permanent().
			Wrap(err).
			Build()
	}

	if len(parsed.Choices) == 0 {
		return nil, errors.Permanent(errors.CodeModelInvalidResponse, "API response contained no choices")
	}

	return &Completion{
		ID:         parsed.ID,
		Model:      parsed.Model,
		Content:    parsed.Choices[0].Message.Content,
		TokensUsed: parsed.Usage.TotalTokens,
		Raw:        json.RawMessage(respBody),
	}, nil
}
