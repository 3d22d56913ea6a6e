package ai

import (
	"context"
	"fmt"
	"net"
	"strings"

	"github.com/sirupsen/logrus"
)

// FallbackService tries Ollama first (local, free) and falls back to Gemini
type FallbackService struct {
	gemini Summarizer
	ollama Summarizer
	log    *logrus.Entry
}

// NewFallbackService creates a new fallback service with both providers.
// Either provider may be nil.
func NewFallbackService(gemini, ollama Summarizer, log *logrus.Entry) *FallbackService {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &FallbackService{
		gemini: gemini,
		ollama: ollama,
		log:    log,
	}
}

// isConnectionError checks if the error is a network/connection error
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}

	if _, ok := err.(net.Error); ok {
		return true
	}

	errStr := strings.ToLower(err.Error())
	connectionIndicators := []string{
		"connection refused",
		"no such host",
		"network is unreachable",
		"connection reset",
		"timeout",
		"dial tcp",
		"eof",
	}
	for _, indicator := range connectionIndicators {
		if strings.Contains(errStr, indicator) {
			return true
		}
	}
	return false
}

// isQuotaError checks if the error indicates API quota exhaustion (429)
func isQuotaError(err error) bool {
	if err == nil {
		return false
	}

	errStr := strings.ToLower(err.Error())
	quotaIndicators := []string{
		"429",
		"quota",
		"rate limit",
		"too many requests",
		"resource exhausted",
		"resource_exhausted",
	}
	for _, indicator := range quotaIndicators {
		if strings.Contains(errStr, indicator) {
			return true
		}
	}
	return false
}

// TightenDraft tries Ollama first, falls back to Gemini on any error
func (f *FallbackService) TightenDraft(ctx context.Context, req DraftRequest) (*DraftSuggestion, error) {
	if f.ollama != nil {
		result, err := f.ollama.TightenDraft(ctx, req)
		if err == nil {
			f.log.Debug("Ollama draft tightening successful")
			return result, nil
		}
		if f.gemini == nil {
			return nil, fmt.Errorf("ollama draft tightening failed: %w", err)
		}
		if isConnectionError(err) {
			f.log.WithError(err).Info("Ollama unreachable, falling back to Gemini")
		} else {
			f.log.WithError(err).Warn("Ollama error, falling back to Gemini")
		}
	}

	if f.gemini != nil {
		result, err := f.gemini.TightenDraft(ctx, req)
		if err == nil {
			f.log.Debug("Gemini draft tightening successful")
			return result, nil
		}

		// Quota may be a temporary Gemini issue while Ollama just had a bad reply
		if isQuotaError(err) && f.ollama != nil {
			f.log.WithError(err).Warn("Gemini quota exhausted, retrying Ollama")
			return f.ollama.TightenDraft(ctx, req)
		}
		return nil, fmt.Errorf("gemini draft tightening failed: %w", err)
	}

	return nil, fmt.Errorf("no AI provider available for draft tightening")
}
