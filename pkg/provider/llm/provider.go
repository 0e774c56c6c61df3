// Package llm defines the Provider interface for text-generation backends.
//
// A provider wraps a remote or local model API (e.g., Gemini, OpenAI, or a local
// Ollama instance) and exposes a single blocking completion call so that the
// transcript cleaner can stay independent of any specific SDK. The cleaner
// treats the provider as an opaque generate(prompt, options) -> text function;
// everything it needs to pin (sampling, candidate count, output shape) travels
// in [CompletionRequest].
//
// Implementors must be safe for concurrent use.
package llm

import "context"

// ResponseFormat selects the shape the model is asked to produce.
type ResponseFormat string

const (
	// ResponseFormatText leaves the output shape to the model (provider default).
	ResponseFormatText ResponseFormat = ""

	// ResponseFormatJSON asks the backend for a single JSON object. Providers
	// without a native JSON mode ignore it, so replies may still carry prose.
	ResponseFormatJSON ResponseFormat = "json_object"
)

// Message is a single turn in the conversation sent to the model.
type Message struct {
	// Role is one of "system", "user" or "assistant".
	Role string

	// Content is the text content of the message.
	Content string
}

// Usage holds token accounting information returned by the backend.
// Counts are in the model's native token unit.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// CompletionRequest carries everything the model needs to produce a response.
// At minimum Messages must be non-empty.
type CompletionRequest struct {
	// Messages is the ordered conversation. The last message is typically
	// from the "user" role and drives the response.
	Messages []Message

	// SystemPrompt is an optional high-priority instruction injected before
	// Messages. Providers without a dedicated system field prepend it as a
	// "system"-role message.
	SystemPrompt string

	// Temperature is always forwarded to the backend. Zero requests greedy
	// decoding, which is what the cleaner relies on.
	Temperature float64

	// TopP is the nucleus-sampling mass. Zero means provider default.
	TopP float64

	// CandidateCount is the number of alternatives to generate. Zero means
	// provider default; only the first candidate is ever returned.
	CandidateCount int

	// MaxTokens caps the number of completion tokens. Zero means provider
	// default.
	MaxTokens int

	// ResponseFormat requests a structured output shape.
	ResponseFormat ResponseFormat
}

// CompletionResponse is returned by [Provider.Complete].
type CompletionResponse struct {
	// Content is the full text of the first candidate.
	Content string

	// Usage contains token accounting for this request/response pair.
	Usage Usage
}

// ModelCapabilities describes static properties of a model.
type ModelCapabilities struct {
	// ContextWindow is the maximum token count for input + output.
	ContextWindow int

	// MaxOutputTokens is the maximum tokens the model can generate in one completion.
	MaxOutputTokens int

	// SupportsJSONMode reports whether the backend honours ResponseFormatJSON natively.
	SupportsJSONMode bool
}

// Provider is the abstraction over any text-generation backend.
//
// Implementations must be safe for concurrent use and must return promptly
// when ctx is cancelled.
type Provider interface {
	// Complete sends req to the model and waits for the full response.
	// Any transport, authentication or empty-response condition is reported as
	// a non-nil error; callers decide whether that is fatal.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// Capabilities returns static metadata about the configured model. The
	// result is constant for the lifetime of the Provider.
	Capabilities() ModelCapabilities
}
