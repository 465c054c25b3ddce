// Package protocol provides shared data structures used across Paralens
// components. These types cross the content-script / background seam and can
// be imported by external tools and extensions.
package protocol

// TaskType identifies one of the fixed set of supported operations.
type TaskType string

const (
	TaskTranslate TaskType = "translate"
	TaskExplain   TaskType = "explain"
)

// TaskTypes lists every supported task type.
var TaskTypes = []TaskType{TaskTranslate, TaskExplain}

// Valid reports whether t is a known task type.
func (t TaskType) Valid() bool {
	switch t {
	case TaskTranslate, TaskExplain:
		return true
	}
	return false
}

// AgentContext is the per-request input to a task. Its field set is the
// closed vocabulary of valid prompt template placeholders.
type AgentContext struct {
	SourceText      string `json:"sourceText"`
	SourceLanguage  string `json:"sourceLanguage,omitempty"`
	TargetLanguage  string `json:"targetLanguage"`
	SiteTitle       string `json:"siteTitle,omitempty"`
	SiteURL         string `json:"siteUrl,omitempty"`
	SiteDescription string `json:"siteDescription,omitempty"`
}

// AgentRequest is the single message kind carried across the messaging
// boundary: run taskType against context.
type AgentRequest struct {
	Context  AgentContext `json:"context"`
	TaskType TaskType     `json:"taskType"`
}

// AgentResult is the uniform outcome returned to every caller, regardless of
// which task ran or which failure occurred. Exactly one of Data/Error is
// populated, discriminated by OK.
type AgentResult struct {
	OK    bool   `json:"ok"`
	Data  string `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

// Success builds a successful result.
func Success(data string) AgentResult {
	return AgentResult{OK: true, Data: data}
}

// Failure builds a failed result.
func Failure(message string) AgentResult {
	return AgentResult{OK: false, Error: message}
}
