package llm

import (
	"fmt"
	"strings"

	"github.com/nplvision/titletrace/internal/model"
)

// ConfigFromModel converts the runtime LLM configuration into the
// provider config
func ConfigFromModel(cfg model.LLMConfig) Config {
	return Config{
		Provider:   cfg.Provider,
		Model:      cfg.Model,
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		Timeout:    cfg.Timeout,
		MaxTokens:  cfg.MaxTokens,
		HTTPProxy:  cfg.HTTPProxy,
		HTTPSProxy: cfg.HTTPSProxy,
		NoProxy:    cfg.NoProxy,
	}
}

// NewProvider creates an LLM provider based on the configuration.
// An empty provider name means the second opinion is disabled; callers
// get a nil Provider and no error.
func NewProvider(config Config) (Provider, error) {
	switch strings.ToLower(config.Provider) {
	case "":
		return nil, nil
	case "openai":
		return NewOpenAIProvider(config)
	case "ollama":
		return NewOllamaProvider(config)
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, ollama)", config.Provider)
	}
}
