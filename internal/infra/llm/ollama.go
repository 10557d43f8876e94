// Ollama HTTP adapter. Endpoints used:
//   - POST /api/chat  non-streaming completion, images as base64 strings
//   - GET  /api/tags  health check (lists available models)
package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	mimeJSON          = "application/json"
	headerContentType = "Content-Type"
)

// OllamaProvider implements LLMProvider against a running Ollama instance.
type OllamaProvider struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewOllamaProvider creates an OllamaProvider with a 60s client timeout.
// Per-call deadlines come from the caller's context.
func NewOllamaProvider(baseURL, model string) *OllamaProvider {
	return &OllamaProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// ─── internal Ollama JSON types ──────────────────────────────────────────────

type ollamaChatMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

type ollamaChatRequest struct {
	Model    string              `json:"model"`
	Messages []ollamaChatMessage `json:"messages"`
	Stream   bool                `json:"stream"`
	Format   string              `json:"format,omitempty"`
	Options  map[string]any      `json:"options,omitempty"`
}

type ollamaChatResponse struct {
	Message         ollamaChatMessage `json:"message"`
	DoneReason      string            `json:"done_reason"`
	Done            bool              `json:"done"`
	PromptEvalCount int               `json:"prompt_eval_count"`
	EvalCount       int               `json:"eval_count"`
}

// ─── LLMProvider implementation ─────────────────────────────────────────────

// ChatCompletion performs a non-streaming chat via POST /api/chat.
func (p *OllamaProvider) ChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	msgs := make([]ollamaChatMessage, len(req.Messages))
	for i, m := range req.Messages {
		msgs[i] = ollamaChatMessage{Role: m.Role, Content: m.Content, Images: encodeImages(m.Images)}
	}

	payload := ollamaChatRequest{
		Model:    model,
		Messages: msgs,
		Stream:   false,
		Options:  buildChatOptions(req),
	}
	if req.JSON {
		payload.Format = "json"
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	respBody, postErr := p.doPost(ctx, "/api/chat", body)
	if postErr != nil {
		return nil, postErr
	}
	defer respBody.Close() //nolint:errcheck

	var ollamaResp ollamaChatResponse
	if decodeErr := json.NewDecoder(respBody).Decode(&ollamaResp); decodeErr != nil {
		return nil, fmt.Errorf("decode chat response: %w", decodeErr)
	}
	return &ChatResponse{
		Content:    ollamaResp.Message.Content,
		StopReason: ollamaResp.DoneReason,
		Tokens:     ollamaResp.PromptEvalCount + ollamaResp.EvalCount,
	}, nil
}

// encodeImages base64-encodes inline images the way /api/chat expects.
func encodeImages(images []Image) []string {
	if len(images) == 0 {
		return nil
	}
	out := make([]string, len(images))
	for i, img := range images {
		out[i] = base64.StdEncoding.EncodeToString(img.Data)
	}
	return out
}

// buildChatOptions converts ChatRequest fields into Ollama options map.
func buildChatOptions(req ChatRequest) map[string]any {
	opts := map[string]any{}
	if req.Temperature != 0 {
		opts["temperature"] = req.Temperature
	}
	if req.MaxTokens != 0 {
		opts["num_predict"] = req.MaxTokens
	}
	if len(opts) == 0 {
		return nil
	}
	return opts
}

// ModelInfo returns static metadata for this provider/model.
func (p *OllamaProvider) ModelInfo() ModelMeta {
	return ModelMeta{
		ID:        p.model,
		Provider:  "ollama",
		Version:   "v1",
		MaxTokens: 4096,
	}
}

// HealthCheck calls GET /api/tags and returns nil if Ollama is reachable.
func (p *OllamaProvider) HealthCheck(ctx context.Context) error {
	url := p.baseURL + "/api/tags"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("ollama healthcheck: build request: %w", err)
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ollama healthcheck: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama healthcheck: status %d", resp.StatusCode)
	}
	return nil
}

// ─── helpers ─────────────────────────────────────────────────────────────────

// doPost sends a POST request to baseURL+path and returns the response body.
// Caller is responsible for closing the returned ReadCloser.
func (p *OllamaProvider) doPost(ctx context.Context, path string, body []byte) (io.ReadCloser, error) {
	url := p.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ollama post %s: build request: %w", path, err)
	}
	req.Header.Set(headerContentType, mimeJSON)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama post %s: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close() //nolint:errcheck
		return nil, &StatusError{Provider: "ollama", StatusCode: resp.StatusCode}
	}
	return resp.Body, nil
}
