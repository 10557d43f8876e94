// Package llm defines the model-agnostic generative model abstraction used by
// the nutrition estimators. All types here are shared between the provider
// interface and its adapters.
package llm

// Roles understood by every adapter.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Image is an inline image attached to a message.
type Image struct {
	MIMEType string // e.g. "image/jpeg"
	Data     []byte // raw bytes, not base64
}

// Message represents a single turn in a conversation (role + content).
type Message struct {
	Role    string // "system" | "user" | "assistant"
	Content string
	Images  []Image
}

// ChatRequest is the input for a non-streaming completion.
type ChatRequest struct {
	// Model overrides the provider default when non-empty.
	Model       string
	Messages    []Message
	Temperature float32
	MaxTokens   int
	// JSON asks the model for a JSON-only answer when the backend supports it.
	JSON bool
}

// ChatResponse is the output from a non-streaming completion.
type ChatResponse struct {
	Content    string // The assistant message text.
	StopReason string
	Tokens     int // Total tokens consumed (prompt + completion), when reported.
}

// ModelMeta describes the model / provider identity.
type ModelMeta struct {
	ID        string // e.g. "gemini-1.5-flash", "llava"
	Provider  string // "gemini" | "ollama"
	Version   string
	MaxTokens int
}
