package fetcher

import (
	"context"
	"strings"

	"chatsaid-backend/internal/social/domain"
)

// YouTubeFetcher reads a channel's videos feed through the RSS fetcher.
type YouTubeFetcher struct {
	rss *RSSFetcher
}

func NewYouTubeFetcher(rss *RSSFetcher) *YouTubeFetcher {
	return &YouTubeFetcher{rss: rss}
}

func (f *YouTubeFetcher) Fetch(ctx context.Context, account *domain.SocialAccount) ([]domain.FetchedItem, error) {
	feedURL, err := feedURLFor(account)
	if err != nil {
		return nil, err
	}
	return f.rss.FetchURL(ctx, strings.TrimSpace(feedURL), kindYouTube)
}
