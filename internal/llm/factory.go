package llm

import (
	"fmt"
	"log/slog"
	"time"
)

// Config selects and configures a completion provider.
type Config struct {
	Provider          string // ollama, openai, anthropic (default: ollama)
	APIKey            string
	Model             string
	BaseURL           string
	Timeout           time.Duration
	MaxTokens         int
	RequestsPerMinute int
}

// NewCompleter creates the Completer for cfg.Provider.
func NewCompleter(cfg Config, logger *slog.Logger) (Completer, error) {
	switch cfg.Provider {
	case "openai":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("openai provider requires an API key")
		}
		return NewOpenAIClient(OpenAIConfig{
			APIKey: cfg.APIKey, Model: cfg.Model, BaseURL: cfg.BaseURL,
			Timeout: cfg.Timeout, MaxTokens: cfg.MaxTokens,
			RequestsPerMinute: cfg.RequestsPerMinute, Logger: logger,
		}), nil
	case "anthropic":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("anthropic provider requires an API key")
		}
		return NewAnthropicClient(AnthropicConfig{
			APIKey: cfg.APIKey, Model: cfg.Model, BaseURL: cfg.BaseURL,
			Timeout: cfg.Timeout, MaxTokens: cfg.MaxTokens,
			RequestsPerMinute: cfg.RequestsPerMinute, Logger: logger,
		}), nil
	case "ollama", "":
		return NewOllamaClient(OllamaConfig{
			BaseURL: cfg.BaseURL, Model: cfg.Model, Timeout: cfg.Timeout,
			RequestsPerMinute: cfg.RequestsPerMinute, Logger: logger,
		}), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %q", cfg.Provider)
	}
}
