package domain

import (
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"gorm.io/datatypes"
)

// Platform identifies the kind of external source an account pulls from.
type Platform string

const (
	PlatformX       Platform = "x"
	PlatformYouTube Platform = "youtube"
	PlatformReddit  Platform = "reddit"
	PlatformRSS     Platform = "rss"
	PlatformEmail   Platform = "email"
)

// Valid reports whether p is one of the supported platforms.
func (p Platform) Valid() bool {
	switch p {
	case PlatformX, PlatformYouTube, PlatformReddit, PlatformRSS, PlatformEmail:
		return true
	}
	return false
}

// AccountStatus is the lifecycle state of a SocialAccount.
type AccountStatus string

const (
	AccountStatusActive AccountStatus = "active"
	AccountStatusPaused AccountStatus = "paused"
	AccountStatusError  AccountStatus = "error"
)

// SocialAccount is a configured external content source owned by a user.
type SocialAccount struct {
	ID           string         `json:"id" gorm:"primaryKey"`
	UserID       string         `json:"user_id" gorm:"index;not null"`
	Platform     Platform       `json:"platform" gorm:"not null"`
	Handle       string         `json:"handle"`
	Config       datatypes.JSON `json:"config"`
	Status       AccountStatus  `json:"status" gorm:"index;not null"`
	LastError    string         `json:"last_error,omitempty"`
	LastSyncedAt *time.Time     `json:"last_synced_at,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (SocialAccount) TableName() string {
	return "social_accounts"
}

// IsActive reports whether the importer should poll this account.
func (a *SocialAccount) IsActive() bool {
	return a.Status == AccountStatusActive
}

// PlatformConfig is the per-platform view of SocialAccount.Config.
type PlatformConfig interface {
	Platform() Platform
	// Validate checks the config together with the account handle.
	Validate(handle string) error
}

// FeedSource is implemented by configs that can name a feed URL.
type FeedSource interface {
	FeedURL() string
}

type RSSConfig struct {
	RSSURL string `json:"rss_url,omitempty"`
}

func (RSSConfig) Platform() Platform { return PlatformRSS }
func (c RSSConfig) FeedURL() string  { return strings.TrimSpace(c.RSSURL) }
func (c RSSConfig) Validate(handle string) error {
	return requireFeed(c.FeedURL(), handle)
}

// XConfig points at an RSS bridge for an X profile.
type XConfig struct {
	RSSURL string `json:"rss_url,omitempty"`
}

func (XConfig) Platform() Platform { return PlatformX }
func (c XConfig) FeedURL() string  { return strings.TrimSpace(c.RSSURL) }
func (c XConfig) Validate(handle string) error {
	return requireFeed(c.FeedURL(), handle)
}

type YouTubeConfig struct {
	RSSURL    string `json:"rss_url,omitempty"`
	ChannelID string `json:"channel_id,omitempty"`
}

const youtubeFeedBase = "https://www.youtube.com/feeds/videos.xml?channel_id="

func (YouTubeConfig) Platform() Platform { return PlatformYouTube }

// FeedURL prefers an explicit feed and falls back to the channel videos feed.
func (c YouTubeConfig) FeedURL() string {
	if u := strings.TrimSpace(c.RSSURL); u != "" {
		return u
	}
	if id := strings.TrimSpace(c.ChannelID); id != "" {
		return youtubeFeedBase + url.QueryEscape(id)
	}
	return ""
}

func (c YouTubeConfig) Validate(handle string) error {
	return requireFeed(c.FeedURL(), handle)
}

type RedditConfig struct {
	RSSURL string `json:"rss_url,omitempty"`
}

var redditHandlePattern = regexp.MustCompile(`^/?([ur])/([A-Za-z0-9_-]+)/?$`)

func (RedditConfig) Platform() Platform { return PlatformReddit }
func (c RedditConfig) FeedURL() string  { return strings.TrimSpace(c.RSSURL) }
func (c RedditConfig) Validate(handle string) error {
	if c.FeedURL() != "" || RedditFeedURL(handle) != "" || isHTTPURL(handle) {
		return nil
	}
	return fmt.Errorf("%w: reddit accounts need rss_url, a u/<name> or r/<name> handle, or a feed URL", ErrInvalidInput)
}

// RedditFeedURL maps "u/name" or "r/name" to Reddit's .rss endpoint.
// It returns "" for handles that don't follow that pattern.
func RedditFeedURL(handle string) string {
	m := redditHandlePattern.FindStringSubmatch(strings.TrimSpace(handle))
	if m == nil {
		return ""
	}
	return fmt.Sprintf("https://www.reddit.com/%s/%s/.rss", m[1], m[2])
}

type EmailConfig struct {
	InboundAddress string `json:"inbound_address,omitempty"`
}

func (EmailConfig) Platform() Platform    { return PlatformEmail }
func (EmailConfig) Validate(string) error { return nil }

// DecodeConfig parses raw config JSON into the variant for platform.
func DecodeConfig(platform Platform, raw []byte) (PlatformConfig, error) {
	var cfg PlatformConfig
	switch platform {
	case PlatformRSS:
		c := RSSConfig{}
		if err := unmarshalConfig(raw, &c); err != nil {
			return nil, err
		}
		cfg = c
	case PlatformX:
		c := XConfig{}
		if err := unmarshalConfig(raw, &c); err != nil {
			return nil, err
		}
		cfg = c
	case PlatformYouTube:
		c := YouTubeConfig{}
		if err := unmarshalConfig(raw, &c); err != nil {
			return nil, err
		}
		cfg = c
	case PlatformReddit:
		c := RedditConfig{}
		if err := unmarshalConfig(raw, &c); err != nil {
			return nil, err
		}
		cfg = c
	case PlatformEmail:
		c := EmailConfig{}
		if err := unmarshalConfig(raw, &c); err != nil {
			return nil, err
		}
		cfg = c
	default:
		return nil, fmt.Errorf("%w: unsupported platform %q", ErrInvalidInput, platform)
	}
	return cfg, nil
}

// PlatformConfig decodes the account's config for its platform.
func (a *SocialAccount) PlatformConfig() (PlatformConfig, error) {
	return DecodeConfig(a.Platform, a.Config)
}

// EncodeConfig serializes a config variant for storage.
func EncodeConfig(cfg PlatformConfig) (datatypes.JSON, error) {
	b, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return datatypes.JSON(b), nil
}

func unmarshalConfig(raw []byte, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: malformed config: %v", ErrInvalidInput, err)
	}
	return nil
}

func requireFeed(feedURL, handle string) error {
	if feedURL != "" || isHTTPURL(handle) {
		return nil
	}
	return fmt.Errorf("%w: a feed URL is required (config rss_url or URL handle)", ErrInvalidInput)
}

func isHTTPURL(s string) bool {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
