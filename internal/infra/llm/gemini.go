// Gemini adapter over google.golang.org/genai. Text and images share one
// generateContent call; system messages become the SystemInstruction.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// GeminiConfig configures NewGeminiProvider.
type GeminiConfig struct {
	APIKey string
	Model  string
	// BaseURL overrides the public endpoint (tests, proxies).
	BaseURL string
}

// GeminiProvider implements LLMProvider with the Gemini API.
type GeminiProvider struct {
	client *genai.Client
	model  string
}

// NewGeminiProvider creates a client bound to the Gemini API backend.
func NewGeminiProvider(ctx context.Context, cfg GeminiConfig) (*GeminiProvider, error) {
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("gemini: new client: %w", err)
	}
	return &GeminiProvider{client: client, model: cfg.Model}, nil
}

// ChatCompletion calls Models.GenerateContent and returns the first candidate's text.
func (p *GeminiProvider) ChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	contents, system := toGeminiContents(req.Messages)
	cfg := &genai.GenerateContentConfig{SystemInstruction: system}
	if req.Temperature != 0 {
		cfg.Temperature = genai.Ptr(req.Temperature)
	}
	if req.MaxTokens != 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.JSON {
		cfg.ResponseMIMEType = mimeJSON
	}

	res, err := p.client.Models.GenerateContent(ctx, model, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: generate content: %w", geminiError(err))
	}

	text, stop := candidateText(res)
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyResponse
	}
	out := &ChatResponse{Content: text, StopReason: stop}
	if res.UsageMetadata != nil {
		out.Tokens = int(res.UsageMetadata.TotalTokenCount)
	}
	return out, nil
}

// toGeminiContents maps messages to genai contents. System messages are
// joined into a single instruction.
func toGeminiContents(msgs []Message) ([]*genai.Content, *genai.Content) {
	var (
		contents []*genai.Content
		system   []string
	)
	for _, m := range msgs {
		if m.Role == RoleSystem {
			system = append(system, m.Content)
			continue
		}
		parts := make([]*genai.Part, 0, 1+len(m.Images))
		if m.Content != "" {
			parts = append(parts, genai.NewPartFromText(m.Content))
		}
		for _, img := range m.Images {
			parts = append(parts, genai.NewPartFromBytes(img.Data, img.MIMEType))
		}
		role := genai.Role(genai.RoleUser)
		if m.Role == RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromParts(parts, role))
	}
	if len(system) == 0 {
		return contents, nil
	}
	return contents, genai.NewContentFromText(strings.Join(system, "\n\n"), genai.RoleModel)
}

// candidateText concatenates the text parts of the first candidate.
func candidateText(res *genai.GenerateContentResponse) (string, string) {
	if res == nil || len(res.Candidates) == 0 || res.Candidates[0] == nil {
		return "", ""
	}
	c := res.Candidates[0]
	stop := string(c.FinishReason)
	if c.Content == nil {
		return "", stop
	}
	var b strings.Builder
	for _, part := range c.Content.Parts {
		if part != nil && !part.Thought {
			b.WriteString(part.Text)
		}
	}
	return b.String(), stop
}

// ModelInfo returns static metadata for this provider/model.
func (p *GeminiProvider) ModelInfo() ModelMeta {
	return ModelMeta{
		ID:        p.model,
		Provider:  "gemini",
		Version:   "v1beta",
		MaxTokens: 8192,
	}
}

// HealthCheck fetches the configured model's metadata.
func (p *GeminiProvider) HealthCheck(ctx context.Context) error {
	if _, err := p.client.Models.Get(ctx, p.model, nil); err != nil {
		return fmt.Errorf("gemini healthcheck: %w", geminiError(err))
	}
	return nil
}

// geminiError maps an API error onto *StatusError so callers can tell a
// rejected request from a transient failure. Other errors pass through.
func geminiError(err error) error {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) || apiErr.Code == 0 {
		return err
	}
	se := &StatusError{Provider: "gemini", StatusCode: apiErr.Code}
	if apiErr.Message == "" {
		return se
	}
	return fmt.Errorf("%w: %s", se, apiErr.Message)
}
