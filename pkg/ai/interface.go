package ai

import (
	"context"
)

// DraftRequest carries the raw imported text plus voice hints.
type DraftRequest struct {
	Text    string
	Persona string
	Branch  string
}

// DraftSuggestion is a tightened title, body and tag set. Empty fields
// mean "keep what you had".
type DraftSuggestion struct {
	Title string   `json:"title"`
	Body  string   `json:"body"`
	Tags  []string `json:"tags"`
}

// Summarizer is the interface for AI draft tightening.
// Implement this interface to add new AI providers.
type Summarizer interface {
	TightenDraft(ctx context.Context, req DraftRequest) (*DraftSuggestion, error)
}

// ProviderType represents the AI provider type
type ProviderType string

const (
	ProviderGemini ProviderType = "gemini"
	ProviderOllama ProviderType = "ollama"
	ProviderAuto   ProviderType = "auto"
)
