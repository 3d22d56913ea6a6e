package fuzzy

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// LevenshteinDistance calculates the edit distance between two strings
// after normalization (lowercase, collapsed whitespace, accents removed)
func LevenshteinDistance(s1, s2 string) int {
	return distance([]rune(normalizeString(s1)), []rune(normalizeString(s2)))
}

func distance(r1, r2 []rune) int {
	if len(r1) == 0 {
		return len(r2)
	}
	if len(r2) == 0 {
		return len(r1)
	}

	// Two rows are enough
	prev := make([]int, len(r2)+1)
	cur := make([]int, len(r2)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(r1); i++ {
		cur[0] = i
		for j := 1; j <= len(r2); j++ {
			cost := 0
			if r1[i-1] != r2[j-1] {
				cost = 1
			}
			cur[j] = min(
				prev[j]+1,      // deletion
				cur[j-1]+1,     // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, cur = cur, prev
	}

	return prev[len(r2)]
}

// Threshold returns the typo tolerance for a query of the given length
func Threshold(query string) int {
	n := len([]rune(normalizeString(query)))
	switch {
	case n <= 3:
		return 1
	case n >= 8:
		return 3
	default:
		return 2
	}
}

// Match checks if query fuzzy-matches any word of text
func Match(query, text string) bool {
	query = normalizeString(query)
	text = normalizeString(text)
	if query == "" {
		return false
	}
	if strings.Contains(text, query) {
		return true
	}

	q := []rune(query)
	threshold := Threshold(query)
	for _, word := range strings.Fields(text) {
		if strings.HasPrefix(word, query) || distance(q, []rune(word)) <= threshold {
			return true
		}
	}
	return false
}

// Score rates how relevant a post is to a query. Title hits weigh more
// than body hits; zero means no match.
func Score(query, title, body string) float64 {
	query = normalizeString(query)
	if query == "" {
		return 0
	}
	q := []rune(query)

	score := 0.0

	titleNorm := normalizeString(title)
	if strings.Contains(titleNorm, query) {
		score += 100.0
		// Bonus for exact word match
		if containsWord(titleNorm, query) {
			score += 50.0
		}
	} else {
		for _, word := range strings.Fields(titleNorm) {
			if d := distance(q, []rune(word)); d <= 2 {
				score += 50.0 - float64(d)*15
			}
			if strings.HasPrefix(word, query) {
				score += 40.0
			}
		}
	}

	// Only the start of the body is considered
	bodyRunes := []rune(body)
	if len(bodyRunes) > 500 {
		bodyRunes = bodyRunes[:500]
	}
	bodyNorm := normalizeString(string(bodyRunes))
	if strings.Contains(bodyNorm, query) {
		score += 40.0
	} else if Match(query, bodyNorm) {
		score += 15.0
	}

	return score
}

// normalizeString lowercases, strips accents and collapses whitespace
func normalizeString(s string) string {
	s = removeAccents(strings.ToLower(s))
	return strings.Join(strings.Fields(s), " ")
}

func containsWord(text, query string) bool {
	for _, word := range strings.Fields(text) {
		if word == query {
			return true
		}
	}
	return false
}

// removeAccents decomposes s and drops nonspacing marks
func removeAccents(s string) string {
	var result strings.Builder
	for _, r := range norm.NFD.String(s) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		if r == 'đ' {
			r = 'd'
		}
		result.WriteRune(r)
	}
	return result.String()
}
