// Package fetcher pulls items from external sources and normalizes them
// into domain.FetchedItem values.
package fetcher

import (
	"context"
	"errors"
	"net/http"
	"time"

	"chatsaid-backend/internal/social/domain"
)

// ErrTransport marks failures reaching or reading a source.
var ErrTransport = errors.New("transport error")

// ErrParse marks a response that could not be parsed as a feed.
var ErrParse = errors.New("feed parse error")

const (
	userAgent       = "chatsaid-importer/1.0 (+https://chatsaid.app)"
	defaultMaxBytes = 5 << 20
	defaultTimeout  = 20 * time.Second
	kindRSS         = "rss"
	kindYouTube     = "youtube"
	kindReddit      = "reddit"
	metaFeedURL     = "feed_url"
)

// Fetcher returns the current items of an account's source. An empty
// result is not an error; transport and parse failures are.
type Fetcher interface {
	Fetch(ctx context.Context, account *domain.SocialAccount) ([]domain.FetchedItem, error)
}

// Registry maps platforms to fetchers.
type Registry struct {
	fetchers map[domain.Platform]Fetcher
}

// NewRegistry wires the default fetcher for every platform. A nil client
// gets a client with a 20s timeout.
func NewRegistry(client *http.Client) *Registry {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	rss := NewRSSFetcher(client)
	return &Registry{
		fetchers: map[domain.Platform]Fetcher{
			domain.PlatformRSS:     rss,
			domain.PlatformX:       rss,
			domain.PlatformYouTube: NewYouTubeFetcher(rss),
			domain.PlatformReddit:  NewRedditFetcher(rss),
			domain.PlatformEmail:   EmailFetcher{},
		},
	}
}

// Register overrides the fetcher for a platform.
func (r *Registry) Register(platform domain.Platform, f Fetcher) {
	if r.fetchers == nil {
		r.fetchers = make(map[domain.Platform]Fetcher)
	}
	r.fetchers[platform] = f
}

// For returns the fetcher for platform, if any.
func (r *Registry) For(platform domain.Platform) (Fetcher, bool) {
	f, ok := r.fetchers[platform]
	return f, ok
}
