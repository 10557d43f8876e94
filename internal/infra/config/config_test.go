// No t.Parallel(): env vars are process-global.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// clearEnv blanks every key Load reads so defaults apply.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		envKeyConfigFile, envKeyHTTPHost, envKeyHTTPPort, envKeyMaxBodyBytes,
		envKeyLLMProvider, envKeyGeminiAPIKey, envKeyGeminiBaseURL, envKeyGeminiModel,
		envKeyOllamaBaseURL, envKeyOllamaChatModel, envKeyOllamaVisionModel,
		envKeyCompositionSource, envKeyFDCAPIKey, envKeyFDCBaseURL, envKeySQLitePath,
		envKeyVisionStrategy, envKeyUpstreamTimeout, envKeyRetryBackoff,
		envKeyLogLevel, envKeyLogFormat,
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg != Defaults() {
		t.Errorf("Load() = %+v; want defaults %+v", cfg, Defaults())
	}
	if cfg.LLMProvider != "gemini" || cfg.GeminiModel != "gemini-1.5-flash" {
		t.Errorf("unexpected LLM defaults: %q / %q", cfg.LLMProvider, cfg.GeminiModel)
	}
	if cfg.UpstreamTimeout != 10*time.Second || cfg.RetryBackoff != 250*time.Millisecond {
		t.Errorf("unexpected timing defaults: %v / %v", cfg.UpstreamTimeout, cfg.RetryBackoff)
	}
	if cfg.Addr() != "0.0.0.0:8080" {
		t.Errorf("Addr() = %q", cfg.Addr())
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("LLM_PROVIDER", "OLLAMA")
	t.Setenv("OLLAMA_VISION_MODEL", "llava:13b")
	t.Setenv("COMPOSITION_SOURCE", "sqlite")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("UPSTREAM_TIMEOUT", "3s")
	t.Setenv("RETRY_BACKOFF", "100ms")
	t.Setenv("VISION_STRATEGY", "resolve")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.LLMProvider != "ollama" || cfg.OllamaVisionModel != "llava:13b" {
		t.Errorf("unexpected LLM settings: %q / %q", cfg.LLMProvider, cfg.OllamaVisionModel)
	}
	if cfg.CompositionSource != "sqlite" || cfg.HTTPPort != 9090 || cfg.VisionStrategy != "resolve" {
		t.Errorf("unexpected overrides: %+v", cfg)
	}
	if cfg.UpstreamTimeout != 3*time.Second || cfg.RetryBackoff != 100*time.Millisecond {
		t.Errorf("unexpected durations: %v / %v", cfg.UpstreamTimeout, cfg.RetryBackoff)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoad_MalformedEnv(t *testing.T) {
	for key, value := range map[string]string{
		"HTTP_PORT":        "eighty",
		"MAX_BODY_BYTES":   "lots",
		"UPSTREAM_TIMEOUT": "10",
		"RETRY_BACKOFF":    "soon",
	} {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, value)
			if _, err := Load(); err == nil || !strings.Contains(err.Error(), key) {
				t.Fatalf("Load() error = %v; want error naming %s", err, key)
			}
		})
	}
}

func TestLoad_YAMLFileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nutrisense.yaml")
	content := "llm_provider: ollama\nollama_chat_model: qwen2.5:7b\nupstream_timeout: 4s\nhttp_port: 7000\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("HTTP_PORT", "7001")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.LLMProvider != "ollama" || cfg.OllamaChatModel != "qwen2.5:7b" {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.UpstreamTimeout != 4*time.Second {
		t.Errorf("UpstreamTimeout = %v; want 4s", cfg.UpstreamTimeout)
	}
	if cfg.HTTPPort != 7001 {
		t.Errorf("HTTPPort = %d; env should win over file", cfg.HTTPPort)
	}
	if cfg.GeminiModel != "gemini-1.5-flash" {
		t.Errorf("keys absent from the file should keep defaults, got %q", cfg.GeminiModel)
	}
}

func TestLoad_YAMLFileErrors(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	t.Setenv("CONFIG_FILE", filepath.Join(dir, "missing.yaml"))
	if _, err := Load(); err == nil {
		t.Error("expected error for missing file")
	}

	unknown := filepath.Join(dir, "unknown.yaml")
	if err := os.WriteFile(unknown, []byte("llm_provder: ollama\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", unknown)
	if _, err := Load(); err == nil {
		t.Error("expected error for unknown key")
	}

	empty := filepath.Join(dir, "empty.yaml")
	if err := os.WriteFile(empty, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", empty)
	if _, err := Load(); err != nil {
		t.Errorf("empty file should be accepted, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	valid := Defaults()
	valid.GeminiAPIKey = "g"
	valid.FDCAPIKey = "f"
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	cases := map[string]func(*Config){
		"GEMINI_API_KEY":     func(c *Config) { c.GeminiAPIKey = "" },
		"FDC_API_KEY":        func(c *Config) { c.FDCAPIKey = "" },
		"LLM_PROVIDER":       func(c *Config) { c.LLMProvider = "openai" },
		"COMPOSITION_SOURCE": func(c *Config) { c.CompositionSource = "csv" },
		"VISION_STRATEGY":    func(c *Config) { c.VisionStrategy = "guess" },
		"HTTP_PORT":          func(c *Config) { c.HTTPPort = 70000 },
		"UPSTREAM_TIMEOUT":   func(c *Config) { c.UpstreamTimeout = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := valid
			mutate(&cfg)
			err := cfg.Validate()
			if !errors.Is(err, ErrInvalid) || !strings.Contains(err.Error(), name) {
				t.Fatalf("Validate() = %v; want ErrInvalid naming %s", err, name)
			}
		})
	}
}

func TestValidate_SQLiteNeedsNoFDCKey(t *testing.T) {
	cfg := Defaults()
	cfg.GeminiAPIKey = "g"
	cfg.CompositionSource = SourceSQLite
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestEnvOr_Present(t *testing.T) {
	t.Setenv("TEST_ENVOR_KEY", "custom-value")
	if got := envOr("TEST_ENVOR_KEY", "fallback"); got != "custom-value" {
		t.Errorf("expected 'custom-value', got %q", got)
	}
}

func TestEnvOr_Absent(t *testing.T) {
	t.Setenv("TEST_ENVOR_MISSING", "")
	if got := envOr("TEST_ENVOR_MISSING", "fallback"); got != "fallback" {
		t.Errorf("expected 'fallback', got %q", got)
	}
}
