// Package dedup computes the fingerprint used to detect already-imported items.
package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Input holds the normalized fields that identify an external item.
type Input struct {
	Platform string
	Handle   string
	Title    string
	Body     string
	URL      string
	PostedAt string
}

// Hash returns the lowercase hex SHA-256 of the newline-joined fields.
// Platform and handle are case-insensitive; the other fields are trimmed.
func Hash(in Input) string {
	joined := strings.Join([]string{
		strings.ToLower(in.Platform),
		strings.ToLower(in.Handle),
		strings.TrimSpace(in.Title),
		strings.TrimSpace(in.Body),
		strings.TrimSpace(in.URL),
		strings.TrimSpace(in.PostedAt),
	}, "\n")
	sum := sha256.Sum256([]byte(joined))
	return hex.EncodeToString(sum[:])
}
