package fetcher

import (
	"context"
	"strings"

	"chatsaid-backend/internal/social/domain"
)

// RedditFetcher reads user and subreddit feeds through the RSS fetcher.
type RedditFetcher struct {
	rss *RSSFetcher
}

func NewRedditFetcher(rss *RSSFetcher) *RedditFetcher {
	return &RedditFetcher{rss: rss}
}

func (f *RedditFetcher) Fetch(ctx context.Context, account *domain.SocialAccount) ([]domain.FetchedItem, error) {
	feedURL, err := redditFeedURLFor(account)
	if err != nil {
		return nil, err
	}
	return f.rss.FetchURL(ctx, feedURL, kindReddit)
}

// redditFeedURLFor uses config rss_url, then a u/<name> or r/<name> handle,
// then the handle itself as a URL.
func redditFeedURLFor(account *domain.SocialAccount) (string, error) {
	cfg, err := account.PlatformConfig()
	if err != nil {
		return "", err
	}
	if src, ok := cfg.(domain.FeedSource); ok {
		if u := src.FeedURL(); u != "" {
			return u, nil
		}
	}
	if u := domain.RedditFeedURL(account.Handle); u != "" {
		return u, nil
	}
	return strings.TrimSpace(account.Handle), nil
}
