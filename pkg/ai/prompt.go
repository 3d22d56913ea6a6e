package ai

import (
	"encoding/json"
	"fmt"
	"strings"
)

// maxInputRunes keeps prompts inside small local model context windows.
const maxInputRunes = 5000

func buildDraftPrompt(req DraftRequest) string {
	text := []rune(strings.TrimSpace(req.Text))
	if len(text) > maxInputRunes {
		text = text[:maxInputRunes]
	}

	persona := req.Persona
	if persona == "" {
		persona = "a friendly community member"
	}
	branch := req.Branch
	if branch == "" {
		branch = "general"
	}

	return fmt.Sprintf(`You turn imported social posts into short drafts for a community app.

Write as %s for the "%s" branch.

RULES:
- Title: at most 80 characters, no clickbait
- Body: 1-3 short paragraphs, keep facts and links from the source
- Tags: 0-5 lowercase single words
- Reply with ONLY a JSON object: {"title": "...", "body": "...", "tags": ["..."]}

SOURCE:
%s

JSON:`, persona, branch, string(text))
}

// parseSuggestion pulls the first JSON object out of a model reply,
// tolerating markdown code fences and leading chatter.
func parseSuggestion(reply string) (*DraftSuggestion, error) {
	text := strings.TrimSpace(reply)
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimSuffix(text, "```")
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(text, "```")
	}
	text = strings.TrimSpace(text)

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end <= start {
		return nil, fmt.Errorf("no JSON object in model reply")
	}

	var s DraftSuggestion
	if err := json.Unmarshal([]byte(text[start:end+1]), &s); err != nil {
		return nil, fmt.Errorf("failed to parse draft JSON: %w", err)
	}

	s.Title = strings.TrimSpace(s.Title)
	s.Body = strings.TrimSpace(s.Body)
	tags := make([]string, 0, len(s.Tags))
	for _, tag := range s.Tags {
		tag = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(tag, "#")))
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	s.Tags = tags
	return &s, nil
}
