package ai

import (
	"fmt"

	"chatsaid-backend/pkg/gemini"

	"github.com/sirupsen/logrus"
)

// Config holds AI provider configuration. The Ollama getters allow the
// settings API to repoint Ollama at runtime.
type Config struct {
	Provider ProviderType // "gemini", "ollama" or "auto"

	GeminiAPIKey string

	GetOllamaBaseURL func() string
	GetOllamaModel   func() string
}

// NewSummarizer creates a Summarizer based on the config.
// Switch AI provider by changing config.Provider.
func NewSummarizer(cfg Config, log *logrus.Entry) (Summarizer, error) {
	ollama := func() *OllamaService {
		if cfg.GetOllamaBaseURL == nil || cfg.GetOllamaModel == nil {
			return NewOllamaService("", "")
		}
		return NewOllamaServiceWithGetters(cfg.GetOllamaBaseURL, cfg.GetOllamaModel)
	}

	switch cfg.Provider {
	case ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is required for Gemini provider")
		}
		return NewGeminiSummarizer(gemini.NewGeminiService(cfg.GeminiAPIKey)), nil

	case ProviderOllama:
		return ollama(), nil

	default:
		// Auto: Ollama first, Gemini as fallback when a key is configured
		var g Summarizer
		if cfg.GeminiAPIKey != "" {
			g = NewGeminiSummarizer(gemini.NewGeminiService(cfg.GeminiAPIKey))
		}
		return NewFallbackService(g, ollama(), log), nil
	}
}
