package llm

import "context"

// LLMProvider is implemented by every generative model backend, so the
// estimators are never coupled to a vendor.
type LLMProvider interface {
	// ChatCompletion performs a non-streaming completion. Images on user
	// messages are forwarded to vision-capable models.
	ChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error)

	// ModelInfo returns static metadata about the provider/model.
	ModelInfo() ModelMeta

	// HealthCheck returns nil if the provider is reachable and operational.
	HealthCheck(ctx context.Context) error
}
