// Package config provides application-wide configuration. Values come from
// built-in defaults, then an optional YAML file named by CONFIG_FILE, then
// environment variables; later sources win. Every field has a default so
// the binary runs locally with only an API key.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid configuration")

// Accepted values for the enumerated settings.
const (
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"

	SourceFDC    = "fdc"
	SourceSQLite = "sqlite"

	StrategyDirect  = "direct"
	StrategyResolve = "resolve"
)

// Config holds runtime configuration for nutrisense.
type Config struct {
	// HTTP
	HTTPHost     string `yaml:"http_host"`      // HTTP_HOST: default "0.0.0.0"
	HTTPPort     int    `yaml:"http_port"`      // HTTP_PORT: default 8080
	MaxBodyBytes int64  `yaml:"max_body_bytes"` // MAX_BODY_BYTES: default 10 MiB (images arrive base64)

	// LLM
	LLMProvider       string `yaml:"llm_provider"`        // LLM_PROVIDER: "gemini" (default) | "ollama"
	GeminiAPIKey      string `yaml:"gemini_api_key"`      // GEMINI_API_KEY: required for gemini
	GeminiBaseURL     string `yaml:"gemini_base_url"`     // GEMINI_BASE_URL: empty uses the SDK default
	GeminiModel       string `yaml:"gemini_model"`        // GEMINI_MODEL: default "gemini-1.5-flash"
	OllamaBaseURL     string `yaml:"ollama_base_url"`     // OLLAMA_BASE_URL: default "http://localhost:11434"
	OllamaChatModel   string `yaml:"ollama_chat_model"`   // OLLAMA_CHAT_MODEL: default "llama3.2:3b"
	OllamaVisionModel string `yaml:"ollama_vision_model"` // OLLAMA_VISION_MODEL: default "llava"

	// Composition database
	CompositionSource string `yaml:"composition_source"` // COMPOSITION_SOURCE: "fdc" (default) | "sqlite"
	FDCAPIKey         string `yaml:"fdc_api_key"`        // FDC_API_KEY: required for fdc
	FDCBaseURL        string `yaml:"fdc_base_url"`       // FDC_BASE_URL: default "https://api.nal.usda.gov"
	SQLitePath        string `yaml:"sqlite_path"`        // SQLITE_PATH: default ":memory:"

	// Resolution
	VisionStrategy  string        `yaml:"vision_strategy"`  // VISION_STRATEGY: "direct" (default) | "resolve"
	UpstreamTimeout time.Duration `yaml:"upstream_timeout"` // UPSTREAM_TIMEOUT: default 10s
	RetryBackoff    time.Duration `yaml:"retry_backoff"`    // RETRY_BACKOFF: default 250ms

	// Logging
	LogLevel  string `yaml:"log_level"`  // LOG_LEVEL: default "info"
	LogFormat string `yaml:"log_format"` // LOG_FORMAT: "json" (default) | "text"
}

const (
	envKeyConfigFile        = "CONFIG_FILE"
	envKeyHTTPHost          = "HTTP_HOST"
	envKeyHTTPPort          = "HTTP_PORT"
	envKeyMaxBodyBytes      = "MAX_BODY_BYTES"
	envKeyLLMProvider       = "LLM_PROVIDER"
	envKeyGeminiAPIKey      = "GEMINI_API_KEY"
	envKeyGeminiBaseURL     = "GEMINI_BASE_URL"
	envKeyGeminiModel       = "GEMINI_MODEL"
	envKeyOllamaBaseURL     = "OLLAMA_BASE_URL"
	envKeyOllamaChatModel   = "OLLAMA_CHAT_MODEL"
	envKeyOllamaVisionModel = "OLLAMA_VISION_MODEL"
	envKeyCompositionSource = "COMPOSITION_SOURCE"
	envKeyFDCAPIKey         = "FDC_API_KEY"
	envKeyFDCBaseURL        = "FDC_BASE_URL"
	envKeySQLitePath        = "SQLITE_PATH"
	envKeyVisionStrategy    = "VISION_STRATEGY"
	envKeyUpstreamTimeout   = "UPSTREAM_TIMEOUT"
	envKeyRetryBackoff      = "RETRY_BACKOFF"
	envKeyLogLevel          = "LOG_LEVEL"
	envKeyLogFormat         = "LOG_FORMAT"
)

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		HTTPHost:          "0.0.0.0",
		HTTPPort:          8080,
		MaxBodyBytes:      10 << 20,
		LLMProvider:       ProviderGemini,
		GeminiModel:       "gemini-1.5-flash",
		OllamaBaseURL:     "http://localhost:11434",
		OllamaChatModel:   "llama3.2:3b",
		OllamaVisionModel: "llava",
		CompositionSource: SourceFDC,
		FDCBaseURL:        "https://api.nal.usda.gov",
		SQLitePath:        ":memory:",
		VisionStrategy:    StrategyDirect,
		UpstreamTimeout:   10 * time.Second,
		RetryBackoff:      250 * time.Millisecond,
		LogLevel:          "info",
		LogFormat:         "json",
	}
}

// Load builds the configuration from defaults, CONFIG_FILE and the environment.
// Malformed numbers or durations in the environment are errors, not silently ignored.
func Load() (Config, error) {
	cfg := Defaults()
	if path := os.Getenv(envKeyConfigFile); path != "" {
		if err := overlayFile(&cfg, path); err != nil {
			return cfg, err
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// overlayFile decodes a YAML file over cfg; keys absent from the file keep
// their current value.
func overlayFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	cfg.HTTPHost = envOr(envKeyHTTPHost, cfg.HTTPHost)
	cfg.LLMProvider = strings.ToLower(envOr(envKeyLLMProvider, cfg.LLMProvider))
	cfg.GeminiAPIKey = envOr(envKeyGeminiAPIKey, cfg.GeminiAPIKey)
	cfg.GeminiBaseURL = envOr(envKeyGeminiBaseURL, cfg.GeminiBaseURL)
	cfg.GeminiModel = envOr(envKeyGeminiModel, cfg.GeminiModel)
	cfg.OllamaBaseURL = envOr(envKeyOllamaBaseURL, cfg.OllamaBaseURL)
	cfg.OllamaChatModel = envOr(envKeyOllamaChatModel, cfg.OllamaChatModel)
	cfg.OllamaVisionModel = envOr(envKeyOllamaVisionModel, cfg.OllamaVisionModel)
	cfg.CompositionSource = strings.ToLower(envOr(envKeyCompositionSource, cfg.CompositionSource))
	cfg.FDCAPIKey = envOr(envKeyFDCAPIKey, cfg.FDCAPIKey)
	cfg.FDCBaseURL = envOr(envKeyFDCBaseURL, cfg.FDCBaseURL)
	cfg.SQLitePath = envOr(envKeySQLitePath, cfg.SQLitePath)
	cfg.VisionStrategy = strings.ToLower(envOr(envKeyVisionStrategy, cfg.VisionStrategy))
	cfg.LogLevel = envOr(envKeyLogLevel, cfg.LogLevel)
	cfg.LogFormat = envOr(envKeyLogFormat, cfg.LogFormat)

	var err error
	if cfg.HTTPPort, err = envInt(envKeyHTTPPort, cfg.HTTPPort); err != nil {
		return err
	}
	if cfg.MaxBodyBytes, err = envInt64(envKeyMaxBodyBytes, cfg.MaxBodyBytes); err != nil {
		return err
	}
	if cfg.UpstreamTimeout, err = envDuration(envKeyUpstreamTimeout, cfg.UpstreamTimeout); err != nil {
		return err
	}
	if cfg.RetryBackoff, err = envDuration(envKeyRetryBackoff, cfg.RetryBackoff); err != nil {
		return err
	}
	return nil
}

// Validate fails fast on settings the service cannot run with.
func (c Config) Validate() error {
	var problems []string
	switch c.LLMProvider {
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			problems = append(problems, envKeyGeminiAPIKey+" is required when "+envKeyLLMProvider+"=gemini")
		}
	case ProviderOllama:
		if c.OllamaBaseURL == "" {
			problems = append(problems, envKeyOllamaBaseURL+" is required when "+envKeyLLMProvider+"=ollama")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown %s %q", envKeyLLMProvider, c.LLMProvider))
	}

	switch c.CompositionSource {
	case SourceFDC:
		if c.FDCAPIKey == "" {
			problems = append(problems, envKeyFDCAPIKey+" is required when "+envKeyCompositionSource+"=fdc")
		}
	case SourceSQLite:
		if c.SQLitePath == "" {
			problems = append(problems, envKeySQLitePath+" is required when "+envKeyCompositionSource+"=sqlite")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown %s %q", envKeyCompositionSource, c.CompositionSource))
	}

	if c.VisionStrategy != StrategyDirect && c.VisionStrategy != StrategyResolve {
		problems = append(problems, fmt.Sprintf("unknown %s %q", envKeyVisionStrategy, c.VisionStrategy))
	}
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		problems = append(problems, fmt.Sprintf("%s %d out of range", envKeyHTTPPort, c.HTTPPort))
	}
	if c.MaxBodyBytes <= 0 {
		problems = append(problems, envKeyMaxBodyBytes+" must be positive")
	}
	if c.UpstreamTimeout <= 0 {
		problems = append(problems, envKeyUpstreamTimeout+" must be positive")
	}
	if c.RetryBackoff < 0 {
		problems = append(problems, envKeyRetryBackoff+" must not be negative")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}

// Addr is the listen address.
func (c Config) Addr() string {
	return c.HTTPHost + ":" + strconv.Itoa(c.HTTPPort)
}

// envOr returns the value of the environment variable key, or fallback if not set.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fallback, fmt.Errorf("config: %s: %w", key, err)
	}
	return n, nil
}

func envInt64(key string, fallback int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return fallback, fmt.Errorf("config: %s: %w", key, err)
	}
	return n, nil
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		return fallback, fmt.Errorf("config: %s: %w", key, err)
	}
	return d, nil
}
