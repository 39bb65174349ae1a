package llm

import (
	"errors"
	"fmt"
	"slices"
	"sort"
)

var ErrMissingAPIKey = errors.New("llm api key not set")

// OpenAI-compatible providers and their base URLs
var openAICompatibleProviders = map[string]string{
	"mistral":   "https://api.mistral.ai/v1",
	"groq":      "https://api.groq.com/openai/v1",
	"together":  "https://api.together.xyz/v1",
	"deepseek":  "https://api.deepseek.com/v1",
	"fireworks": "https://api.fireworks.ai/inference/v1",
}

func New(cfg Config) (LLM, error) {
	if cfg.APIKey == "" && cfg.Provider != "ollama" {
		return nil, fmt.Errorf("%s: %w", cfg.Provider, ErrMissingAPIKey)
	}

	switch cfg.Provider {
	case "claude", "anthropic":
		return newClaude(cfg), nil
	case "openai":
		if cfg.BaseURL == "" {
			cfg.BaseURL = "https://api.openai.com/v1"
		}
		if cfg.Model == "" {
			cfg.Model = "gpt-4o-mini"
		}
		return newOpenAI(cfg), nil
	case "ollama":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		cfg.BaseURL = baseURL + "/v1"
		cfg.APIKey = "ollama"
		if cfg.Model == "" {
			cfg.Model = "qwen2.5:7b"
		}
		return newOpenAI(cfg), nil
	default:
		if baseURL, ok := openAICompatibleProviders[cfg.Provider]; ok {
			if cfg.BaseURL == "" {
				cfg.BaseURL = baseURL
			}
			return newOpenAI(cfg), nil
		}
		return nil, fmt.Errorf("unknown provider: %s", cfg.Provider)
	}
}

// nativeProviders have their own branch in New; everything else must be in
// openAICompatibleProviders.
var nativeProviders = []string{"claude", "anthropic", "openai", "ollama"}

// Providers lists every provider New accepts, sorted.
func Providers() []string {
	out := append([]string(nil), nativeProviders...)
	for p := range openAICompatibleProviders {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func Supports(provider string) bool {
	if slices.Contains(nativeProviders, provider) {
		return true
	}
	_, ok := openAICompatibleProviders[provider]
	return ok
}
