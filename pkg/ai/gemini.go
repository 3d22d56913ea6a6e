package ai

import (
	"context"

	"chatsaid-backend/pkg/gemini"
)

// GeminiSummarizer adapts the raw Gemini client to Summarizer
type GeminiSummarizer struct {
	client *gemini.GeminiService
}

func NewGeminiSummarizer(client *gemini.GeminiService) *GeminiSummarizer {
	return &GeminiSummarizer{client: client}
}

// TightenDraft implements Summarizer
func (g *GeminiSummarizer) TightenDraft(ctx context.Context, req DraftRequest) (*DraftSuggestion, error) {
	reply, err := g.client.GenerateText(ctx, buildDraftPrompt(req))
	if err != nil {
		return nil, err
	}
	return parseSuggestion(reply)
}
