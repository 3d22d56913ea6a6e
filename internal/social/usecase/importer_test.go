package usecase

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"chatsaid-backend/internal/social/domain"
	"chatsaid-backend/internal/social/fetcher"
	"chatsaid-backend/internal/social/repository"
	"chatsaid-backend/pkg/logger"
	"chatsaid-backend/pkg/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImportIsIdempotent(t *testing.T) {
	ctx := context.Background()
	r := newRepos(t)
	srv, _ := feedServer(t, http.StatusOK, twoItemRSS)
	account := createRSSAccount(t, r, "u1", srv.URL, domain.AccountStatusActive)

	imp := newTestImporter(r, nil)

	first, err := imp.ImportForAccounts(ctx, []string{account.ID}, ImportOptions{})
	require.NoError(t, err)
	assert.Equal(t, []ImportResult{{AccountID: account.ID, Inserted: 2, Skipped: 0}}, first)

	second, err := imp.ImportForAccounts(ctx, []string{account.ID}, ImportOptions{})
	require.NoError(t, err)
	assert.Equal(t, []ImportResult{{AccountID: account.ID, Inserted: 0, Skipped: 2}}, second)

	posts, total, err := r.posts.FindByAccount(ctx, account.ID, nil, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	for _, p := range posts {
		assert.Equal(t, domain.ReviewStatusNew, p.ReviewStatus)
		assert.Regexp(t, `^[a-f0-9]{64}$`, p.Hash)
		assert.Equal(t, "rss", p.IngestMeta[domain.MetaKind])
		require.NotNil(t, p.PostedAt)
	}
}

func TestImportFaultIsolation(t *testing.T) {
	ctx := context.Background()
	r := newRepos(t)
	broken, _ := feedServer(t, http.StatusInternalServerError, "oops")
	healthy, _ := feedServer(t, http.StatusOK, twoItemRSS)

	a := createRSSAccount(t, r, "u1", broken.URL, domain.AccountStatusActive)
	b := createRSSAccount(t, r, "u1", healthy.URL, domain.AccountStatusActive)

	m := metrics.New()
	imp := newTestImporter(r, nil)
	imp.SetMetrics(m)

	results, err := imp.ImportForAccounts(ctx, []string{a.ID, b.ID}, ImportOptions{})
	require.NoError(t, err)
	require.Len(t, results, 2)

	byID := map[string]ImportResult{}
	for _, res := range results {
		byID[res.AccountID] = res
	}
	assert.Equal(t, ImportResult{AccountID: a.ID}, byID[a.ID])
	assert.Equal(t, ImportResult{AccountID: b.ID, Inserted: 2}, byID[b.ID])

	stored, err := r.accounts.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AccountStatusError, stored.Status)
	assert.Contains(t, stored.LastError, "status 500")

	// Errored accounts are no longer active and drop out of full runs.
	results, err = imp.ImportForAccounts(ctx, nil, ImportOptions{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, b.ID, results[0].AccountID)
}

func TestImportSkipsPausedAccounts(t *testing.T) {
	ctx := context.Background()
	r := newRepos(t)
	srv, hits := feedServer(t, http.StatusOK, twoItemRSS)
	account := createRSSAccount(t, r, "u1", srv.URL, domain.AccountStatusPaused)

	results, err := newTestImporter(r, nil).ImportForAccounts(ctx, []string{account.ID}, ImportOptions{AutoConvert: true})
	require.NoError(t, err)
	assert.Equal(t, []ImportResult{{AccountID: account.ID}}, results)
	assert.Zero(t, hits.Load())

	stored, err := r.accounts.FindByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.LastSyncedAt)
	assert.Equal(t, domain.AccountStatusPaused, stored.Status)
}

func TestImportStampsLastSyncedAt(t *testing.T) {
	ctx := context.Background()
	r := newRepos(t)
	srv, _ := feedServer(t, http.StatusOK, `<rss version="2.0"><channel></channel></rss>`)
	account := createRSSAccount(t, r, "u1", srv.URL, domain.AccountStatusActive)

	now := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	imp := newTestImporter(r, nil)
	imp.SetClock(func() time.Time { return now })

	results, err := imp.ImportForAccounts(ctx, nil, ImportOptions{})
	require.NoError(t, err)
	assert.Equal(t, []ImportResult{{AccountID: account.ID}}, results)

	stored, err := r.accounts.FindByID(ctx, account.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastSyncedAt)
	assert.True(t, stored.LastSyncedAt.Equal(now))
}

func TestImportUnknownPlatformYieldsNothing(t *testing.T) {
	ctx := context.Background()
	r := newRepos(t)
	account := &domain.SocialAccount{UserID: "u1", Platform: "mastodon", Handle: "@someone"}
	require.NoError(t, r.accounts.Create(ctx, account))

	results, err := newTestImporter(r, nil).ImportForAccounts(ctx, []string{account.ID}, ImportOptions{})
	require.NoError(t, err)
	assert.Equal(t, []ImportResult{{AccountID: account.ID}}, results)

	stored, err := r.accounts.FindByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AccountStatusActive, stored.Status)
}

func TestAutoConvertGate(t *testing.T) {
	tests := []struct {
		name       string
		callerAsks bool
		hasRule    bool
		ruleAsks   bool
		filters    domain.RuleFilters
		wantDrafts int
	}{
		{name: "both ask", callerAsks: true, hasRule: true, ruleAsks: true, wantDrafts: 2},
		{name: "caller only", callerAsks: true, hasRule: true, ruleAsks: false},
		{name: "rule only", callerAsks: false, hasRule: true, ruleAsks: true},
		{name: "no rule", callerAsks: true, hasRule: false},
		{name: "filters narrow", callerAsks: true, hasRule: true, ruleAsks: true, filters: domain.RuleFilters{Exclude: []string{"ADS"}}, wantDrafts: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			r := newRepos(t)
			srv, _ := feedServer(t, http.StatusOK, twoItemRSS)
			account := createRSSAccount(t, r, "u1", srv.URL, domain.AccountStatusActive)
			if tt.hasRule {
				upsertRule(t, r, account.ID, tt.ruleAsks, tt.filters)
			}

			drafts := &recordingDrafts{}
			results, err := newTestImporter(r, drafts).ImportForAccounts(ctx, nil, ImportOptions{AutoConvert: tt.callerAsks})
			require.NoError(t, err)
			assert.Equal(t, 2, results[0].Inserted)
			assert.Len(t, drafts.calls, tt.wantDrafts)

			posts, _, err := r.posts.FindByAccount(ctx, account.ID, nil, 10, 0)
			require.NoError(t, err)
			withDraft := 0
			for _, p := range posts {
				if pre, ok := p.IngestMeta[domain.MetaPreDraft]; ok {
					withDraft++
					draft, ok := pre.(map[string]interface{})
					require.True(t, ok)
					assert.Equal(t, "draft "+p.ID, draft["title"])
					assert.Equal(t, "rss", p.IngestMeta[domain.MetaKind])
				}
			}
			assert.Equal(t, tt.wantDrafts, withDraft)
		})
	}
}

func TestAutoConvertFailureDoesNotChangeCounts(t *testing.T) {
	ctx := context.Background()
	r := newRepos(t)
	srv, _ := feedServer(t, http.StatusOK, twoItemRSS)
	account := createRSSAccount(t, r, "u1", srv.URL, domain.AccountStatusActive)
	upsertRule(t, r, account.ID, true, domain.RuleFilters{})

	drafts := &recordingDrafts{err: errors.New("summarizer exploded")}
	results, err := newTestImporter(r, drafts).ImportForAccounts(ctx, nil, ImportOptions{AutoConvert: true})
	require.NoError(t, err)
	assert.Equal(t, []ImportResult{{AccountID: account.ID, Inserted: 2}}, results)
	assert.Len(t, drafts.calls, 2)
}

// flakyPosts fails every insert of a post titled "Post Two".
type flakyPosts struct {
	repository.SocialPostRepository
}

func (f flakyPosts) InsertIfAbsent(ctx context.Context, post *domain.SocialPost) (bool, error) {
	if post.Title == "Post Two" {
		return false, errors.New("disk full")
	}
	return f.SocialPostRepository.InsertIfAbsent(ctx, post)
}

func TestInsertFailureCountsAsSkipped(t *testing.T) {
	ctx := context.Background()
	r := newRepos(t)
	srv, _ := feedServer(t, http.StatusOK, twoItemRSS)
	account := createRSSAccount(t, r, "u1", srv.URL, domain.AccountStatusActive)

	imp := NewImporter(r.accounts, r.rules, flakyPosts{r.posts}, fetcher.NewRegistry(nil), nil, logger.Discard())
	results, err := imp.ImportForAccounts(ctx, nil, ImportOptions{})
	require.NoError(t, err)
	assert.Equal(t, []ImportResult{{AccountID: account.ID, Inserted: 1, Skipped: 1}}, results)
}

// staticFetcher returns canned items and counts calls.
type staticFetcher struct {
	items []domain.FetchedItem
	calls int
}

func (f *staticFetcher) Fetch(ctx context.Context, account *domain.SocialAccount) ([]domain.FetchedItem, error) {
	f.calls++
	return f.items, nil
}

func TestImportHashesAccountIdentity(t *testing.T) {
	ctx := context.Background()
	r := newRepos(t)

	item := domain.FetchedItem{Title: "Same", Body: "Same body", URL: "https://example.com/same"}
	static := &staticFetcher{items: []domain.FetchedItem{item, item}}
	registry := fetcher.NewRegistry(nil)
	registry.Register(domain.PlatformX, static)

	one := &domain.SocialAccount{UserID: "u1", Platform: domain.PlatformX, Handle: "Alice"}
	two := &domain.SocialAccount{UserID: "u1", Platform: domain.PlatformX, Handle: "bob"}
	require.NoError(t, r.accounts.Create(ctx, one))
	require.NoError(t, r.accounts.Create(ctx, two))

	imp := NewImporter(r.accounts, r.rules, r.posts, registry, nil, logger.Discard())
	results, err := imp.ImportForAccounts(ctx, []string{one.ID, two.ID}, ImportOptions{})
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, res := range results {
		// The duplicate within one batch is skipped; each account keeps its own copy.
		assert.Equal(t, 1, res.Inserted)
		assert.Equal(t, 1, res.Skipped)
	}
	assert.Equal(t, 2, static.calls)
}

func TestImportStopsOnCancelledContext(t *testing.T) {
	r := newRepos(t)
	srv, hits := feedServer(t, http.StatusOK, twoItemRSS)
	createRSSAccount(t, r, "u1", srv.URL, domain.AccountStatusActive)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := newTestImporter(r, nil).ImportForAccounts(ctx, nil, ImportOptions{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, results)
	assert.Zero(t, hits.Load())
}
