package factory

import (
	"context"
	"fmt"

	"fastpai-be/pkg/llm"
	"fastpai-be/pkg/llm/gemini"
	"fastpai-be/pkg/llm/ollama"
	"fastpai-be/pkg/llm/openai"
)

// Supported provider names.
const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

type Settings struct {
	Provider string
	Model    string
	BaseURL  string
	APIKey   string
}

func NewLLMProvider(ctx context.Context, s Settings) (llm.LLMProvider, error) {
	switch s.Provider {
	case ProviderOllama:
		baseURL := s.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(baseURL, s.Model), nil
	case ProviderOpenAI:
		return openai.NewProvider(s.APIKey, s.BaseURL, s.Model), nil
	case ProviderGemini:
		return gemini.NewProvider(ctx, s.APIKey, s.BaseURL, s.Model)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", s.Provider)
	}
}

// IsSupported reports whether name is a known provider.
func IsSupported(name string) bool {
	switch name {
	case ProviderOllama, ProviderOpenAI, ProviderGemini:
		return true
	}
	return false
}
