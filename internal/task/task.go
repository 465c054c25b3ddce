// Package task manages per-task-type runtime configuration: which provider
// config a task uses, at what temperature, with which prompt templates.
package task

import "github.com/paralens-ai/paralens/pkg/protocol"

// PromptUnit is a system/user prompt template pair. Templates may contain
// %{placeholder} tokens rendered against the agent context.
type PromptUnit struct {
	System string `json:"system"`
	User   string `json:"user"`
}

// RuntimeConfig binds a task type to a provider config and prompt settings.
type RuntimeConfig struct {
	AIConfigID  string     `json:"aiConfigId"`
	Temperature float64    `json:"temperature"`
	Prompt      PromptUnit `json:"prompt"`
}

// RuntimeConfigs maps task type to runtime config. This is the persisted
// document shape.
type RuntimeConfigs map[protocol.TaskType]RuntimeConfig

// Equal reports whether two runtime configs match on every resolved field.
func (c RuntimeConfig) Equal(o RuntimeConfig) bool {
	return c.AIConfigID == o.AIConfigID &&
		c.Temperature == o.Temperature &&
		c.Prompt.System == o.Prompt.System &&
		c.Prompt.User == o.Prompt.User
}

const translateSystemPrompt = `{"persona":"You are a professional localization expert guided by Skopos Theory, Dynamic Equivalence, and the 'Faithfulness-Expressiveness-Elegance' principle. You prioritize reader experience, cultural resonance, and functional impact over literal fidelity.","mission":"Transform the source_text into target_language so seamlessly that the target audience experiences the same intent, tone, and emotional response as the original, producing a translation that feels native, purpose-driven, and publish-ready.","targetAudience":"general reader","formatting_rules":"Separate CJK and non-CJK text with a single space.","output":"Output ONLY the translation result, without any explanations, notes, greetings, or any other extra text.","example":"Source text: Hello, World!\nYour output should be: 你好，世界！"}`

const translateUserPrompt = `{"instructions":"Translate the source text to %{targetLanguage}. Output ONLY the translated text, without any explanations, notes, greetings, or any other extra content.","sourceText":"%{sourceText}","context":{"siteTitle":"%{siteTitle}","siteUrl":"%{siteUrl}","siteDescription":"%{siteDescription}"}}`

const explainSystemPrompt = `{"role":"You are a master language deconstructor, trained to dissect sentences like a linguist, teach like a patient tutor, and illuminate grammar, structure, and vocabulary so learners truly get it.","mission":"Break down the provided source_text into its core linguistic components. Explain grammar rules, sentence structure, key vocabulary, and common pitfalls, tailored to the learner's level. Never assume prior knowledge.","learnerProfile":{"nativeLanguage":"%{targetLanguage}","learningLanguage":"%{sourceLanguage}","level":"intermediate"},"focusAreas":["grammar","structure","vocabulary"],"constraints":["explain in %{targetLanguage}","keep explanation short and concise","Keep at most 3 key points per focus area"],"style":["prefer short sentences","prefer simple words","prefer clear examples"],"output":"Output ONLY in clean, well-structured and concise Markdown. Use headings, bullet points, bold/italic, and code blocks for clarity. No greetings, no fluff."}`

const explainUserPrompt = `Can you explain the following sentence: <%{sourceText}>`

// Seeds returns the compiled-in default runtime configs for every task type.
func Seeds() RuntimeConfigs {
	return RuntimeConfigs{
		protocol.TaskTranslate: {
			AIConfigID:  "openrouter-123",
			Temperature: 0.7,
			Prompt: PromptUnit{
				System: translateSystemPrompt,
				User:   translateUserPrompt,
			},
		},
		protocol.TaskExplain: {
			AIConfigID:  "openrouter-123",
			Temperature: 0.7,
			Prompt: PromptUnit{
				System: explainSystemPrompt,
				User:   explainUserPrompt,
			},
		},
	}
}
