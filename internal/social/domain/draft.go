package domain

// Provenance records where a draft came from.
type Provenance struct {
	Platform string `json:"platform,omitempty"`
	URL      string `json:"url,omitempty"`
	Handle   string `json:"handle,omitempty"`
}

// Enrichment reports the outcome of best-effort collaborator calls.
type Enrichment struct {
	Summarized     bool   `json:"summarized"`
	SummaryError   string `json:"summary_error,omitempty"`
	ImageGenerated bool   `json:"image_generated"`
	ImageError     string `json:"image_error,omitempty"`
}

// DraftPayload is a proposed local post derived from a SocialPost.
type DraftPayload struct {
	Title      string     `json:"title"`
	Body       string     `json:"body"`
	Tags       []string   `json:"tags"`
	Media      []Media    `json:"media"`
	Branch     *string    `json:"branch"`
	Persona    *string    `json:"persona"`
	Vibe       *string    `json:"vibe,omitempty"`
	Provenance Provenance `json:"provenance"`
	Enrichment Enrichment `json:"enrichment"`
}

// ToMap converts the draft into the JSON-compatible form stored in ingest_meta.
func (d DraftPayload) ToMap() map[string]any {
	media := make([]any, 0, len(d.Media))
	for _, m := range d.Media {
		entry := map[string]any{"url": m.URL}
		if m.Type != "" {
			entry["type"] = m.Type
		}
		if m.Width > 0 {
			entry["width"] = m.Width
		}
		if m.Height > 0 {
			entry["height"] = m.Height
		}
		media = append(media, entry)
	}
	tags := make([]any, 0, len(d.Tags))
	for _, t := range d.Tags {
		tags = append(tags, t)
	}

	out := map[string]any{
		"title": d.Title,
		"body":  d.Body,
		"tags":  tags,
		"media": media,
		"provenance": map[string]any{
			"platform": d.Provenance.Platform,
			"url":      d.Provenance.URL,
			"handle":   d.Provenance.Handle,
		},
		"enrichment": map[string]any{
			"summarized":      d.Enrichment.Summarized,
			"summary_error":   d.Enrichment.SummaryError,
			"image_generated": d.Enrichment.ImageGenerated,
			"image_error":     d.Enrichment.ImageError,
		},
	}
	out["branch"] = optional(d.Branch)
	out["persona"] = optional(d.Persona)
	if d.Vibe != nil {
		out["vibe"] = *d.Vibe
	}
	return out
}

func optional(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
