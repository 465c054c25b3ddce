// Package provider manages AI provider configurations: named credential /
// endpoint / model sets describing one LLM backend each.
package provider

import "time"

// Config describes one AI provider account.
type Config struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Provider     string   `json:"provider"`
	Model        string   `json:"model"`
	LocalModels  []string `json:"localModels"`
	RemoteModels []string `json:"remoteModels,omitempty"`
	APIKey       string   `json:"apiKey"`
	BaseURL      string   `json:"baseUrl"`
	CreatedAt    int64    `json:"createdAt"`
	UpdatedAt    int64    `json:"updatedAt"`
}

// Configs maps config id to config. This is the persisted document shape.
type Configs map[string]Config

// Touch bumps the UpdatedAt version clock.
func (c *Config) Touch() {
	c.UpdatedAt = time.Now().UnixMilli()
	if c.CreatedAt == 0 {
		c.CreatedAt = c.UpdatedAt
	}
}

// Seeds returns the compiled-in default provider configs, keyed by id.
// API keys are intentionally empty; the user fills them in via settings.
func Seeds() Configs {
	return Configs{
		"chutes-123": {
			ID:       "chutes-123",
			Name:     "Chutes",
			Provider: "chutes",
			Model:    "zai-org/GLM-4.5-Air",
			LocalModels: []string{
				"zai-org/GLM-4.5-Air",
				"openai/gpt-oss-20b",
				"meituan-longcat/LongCat-Flash-Chat-FP8",
			},
			BaseURL: "https://llm.chutes.ai/v1",
		},
		"openrouter-123": {
			ID:       "openrouter-123",
			Name:     "OpenRouter",
			Provider: "openrouter",
			Model:    "x-ai/grok-4-fast:free",
			LocalModels: []string{
				"openai/gpt-4o",
				"x-ai/grok-4-fast:free",
			},
			BaseURL: "https://openrouter.ai/api/v1",
		},
		"groq-123": {
			ID:       "groq-123",
			Name:     "Groq",
			Provider: "groq",
			Model:    "moonshotai/kimi-k2-instruct-0905",
			LocalModels: []string{
				"openai/gpt-oss-120b",
				"openai/gpt-oss-20b",
				"moonshotai/kimi-k2-instruct-0905",
				"moonshotai/kimi-k2-instruct",
			},
			BaseURL: "https://api.groq.com/openai/v1",
		},
		"siliconflow-123": {
			ID:       "siliconflow-123",
			Name:     "Siliconflow",
			Provider: "siliconflow",
			Model:    "tencent/Hunyuan-MT-7B",
			LocalModels: []string{
				"tencent/Hunyuan-MT-7B",
			},
			BaseURL: "https://api.siliconflow.com/v1",
		},
	}
}
