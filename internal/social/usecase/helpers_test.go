package usecase

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"chatsaid-backend/internal/social/domain"
	"chatsaid-backend/internal/social/fetcher"
	"chatsaid-backend/internal/social/repository"
	"chatsaid-backend/pkg/logger"
	"chatsaid-backend/pkg/testutil"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

const twoItemRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Example Feed</title>
    <item>
      <title>Post One</title>
      <link>https://example.com/posts/1</link>
      <guid>1</guid>
      <description>First body about golang</description>
      <pubDate>Mon, 01 Jan 2024 10:00:00 GMT</pubDate>
    </item>
    <item>
      <title>Post Two</title>
      <link>https://example.com/posts/2</link>
      <guid>2</guid>
      <description>Second body with ads</description>
      <pubDate>Tue, 02 Jan 2024 11:30:00 +0000</pubDate>
    </item>
  </channel>
</rss>`

type repos struct {
	accounts repository.AccountRepository
	rules    repository.ImportRuleRepository
	posts    repository.SocialPostRepository
}

func newRepos(t *testing.T) repos {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	require.NoError(t, repository.AutoMigrate(db))
	return repos{
		accounts: repository.NewAccountRepository(db),
		rules:    repository.NewImportRuleRepository(db),
		posts:    repository.NewSocialPostRepository(db),
	}
}

// feedServer serves body with status and counts requests.
func feedServer(t *testing.T, status int, body string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func createRSSAccount(t *testing.T, r repos, userID, feedURL string, status domain.AccountStatus) *domain.SocialAccount {
	t.Helper()
	cfg, err := domain.EncodeConfig(domain.RSSConfig{RSSURL: feedURL})
	require.NoError(t, err)
	account := &domain.SocialAccount{
		UserID:   userID,
		Platform: domain.PlatformRSS,
		Handle:   "example",
		Config:   cfg,
		Status:   status,
	}
	require.NoError(t, r.accounts.Create(context.Background(), account))
	return account
}

func upsertRule(t *testing.T, r repos, accountID string, autoConvert bool, filters domain.RuleFilters) {
	t.Helper()
	require.NoError(t, r.rules.Upsert(context.Background(), &domain.ImportRule{
		AccountID:   accountID,
		Filters:     datatypes.NewJSONType(filters),
		ImagePolicy: domain.ImagePolicyNone,
		AutoConvert: autoConvert,
	}))
}

func newTestImporter(r repos, drafts DraftBuilder) *ImportService {
	return NewImporter(r.accounts, r.rules, r.posts, fetcher.NewRegistry(nil), drafts, logger.Discard())
}

// recordingDrafts is a DraftBuilder that returns a fixed draft.
type recordingDrafts struct {
	calls []string
	err   error
}

func (d *recordingDrafts) BuildDraftFromSocialPost(ctx context.Context, postID string) (*domain.DraftPayload, *domain.SocialPost, error) {
	d.calls = append(d.calls, postID)
	if d.err != nil {
		return nil, nil, d.err
	}
	return &domain.DraftPayload{Title: "draft " + postID, Tags: []string{}}, &domain.SocialPost{ID: postID}, nil
}
