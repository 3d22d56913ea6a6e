// Package imagegen calls an OpenAI compatible image generation endpoint.
package imagegen

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"chatsaid-backend/pkg/media"
)

const objectPrefix = "generated"

type Config struct {
	BaseURL string // e.g. https://api.openai.com
	APIKey  string
	Model   string
}

// Client generates images and stores them through an Uploader. The
// returned media ids are object keys, or remote URLs when the provider
// only returns URLs.
type Client struct {
	cfg      Config
	uploader media.Uploader
	client   *http.Client
	now      func() time.Time
}

func NewClient(cfg Config, uploader media.Uploader) *Client {
	if cfg.Model == "" {
		cfg.Model = "gpt-image-1"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{
		cfg:      cfg,
		uploader: uploader,
		client:   &http.Client{Timeout: 120 * time.Second},
		now:      time.Now,
	}
}

type generationResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
		URL     string `json:"url"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Generate returns the media ids of the generated images for prompt.
func (c *Client) Generate(ctx context.Context, prompt string) ([]string, error) {
	if c.cfg.BaseURL == "" {
		return nil, fmt.Errorf("image generation endpoint is not configured")
	}

	body, err := json.Marshal(map[string]interface{}{
		"model":  c.cfg.Model,
		"prompt": prompt,
		"n":      1,
		"size":   "1024x1024",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/images/generations", bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("image request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var result generationResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("image API error (%d): %s", resp.StatusCode, string(respBody))
		}
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := string(respBody)
		if result.Error != nil {
			msg = result.Error.Message
		}
		return nil, fmt.Errorf("image API error (%d): %s", resp.StatusCode, msg)
	}

	ids := make([]string, 0, len(result.Data))
	for _, item := range result.Data {
		switch {
		case item.B64JSON != "":
			id, err := c.store(ctx, item.B64JSON)
			if err != nil {
				return nil, err
			}
			ids = append(ids, id)
		case item.URL != "":
			ids = append(ids, item.URL)
		}
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("no images returned")
	}
	return ids, nil
}

func (c *Client) store(ctx context.Context, b64 string) (string, error) {
	if c.uploader == nil {
		return "", fmt.Errorf("no media storage configured for inline images")
	}
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}
	contentType := http.DetectContentType(data)
	return c.uploader.Put(ctx, media.ObjectKey(objectPrefix, contentType, c.now()), data, contentType)
}
