package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"chatsaid-backend/internal/social/domain"
	"chatsaid-backend/pkg/ai"
	"chatsaid-backend/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

type fakeSummarizer struct {
	got    ai.DraftRequest
	result *ai.DraftSuggestion
	err    error
}

func (f *fakeSummarizer) TightenDraft(ctx context.Context, req ai.DraftRequest) (*ai.DraftSuggestion, error) {
	f.got = req
	return f.result, f.err
}

type fakeImages struct {
	prompt string
	ids    []string
	err    error
}

func (f *fakeImages) Generate(ctx context.Context, prompt string) ([]string, error) {
	f.prompt = prompt
	return f.ids, f.err
}

func seedPost(t *testing.T, r repos, rule *domain.ImportRule, title, body string) (*domain.SocialAccount, *domain.SocialPost) {
	t.Helper()
	ctx := context.Background()
	account := createRSSAccount(t, r, "u1", "https://example.com/feed.xml", domain.AccountStatusActive)
	if rule != nil {
		rule.AccountID = account.ID
		require.NoError(t, r.rules.Upsert(ctx, rule))
	}
	post := &domain.SocialPost{
		AccountID: account.ID,
		URL:       "https://example.com/posts/1",
		Title:     title,
		Body:      body,
		Hash:      "h-" + title,
		Media:     datatypes.JSONSlice[domain.Media]{{URL: "https://img.example.com/a.jpg", Type: "image"}},
	}
	inserted, err := r.posts.InsertIfAbsent(ctx, post)
	require.NoError(t, err)
	require.True(t, inserted)
	return account, post
}

func newTestDrafts(r repos) *DraftService {
	return NewDraftService(r.accounts, r.rules, r.posts, logger.Discard())
}

func strPtr(s string) *string { return &s }

func TestBuildDraftNotFound(t *testing.T) {
	draft, post, err := newTestDrafts(newRepos(t)).BuildDraftFromSocialPost(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Nil(t, draft)
	assert.Nil(t, post)
}

func TestBuildDraftBase(t *testing.T) {
	r := newRepos(t)
	account, stored := seedPost(t, r, nil, "Post One", "plain body")

	draft, post, err := newTestDrafts(r).BuildDraftFromSocialPost(context.Background(), stored.ID)
	require.NoError(t, err)
	assert.Equal(t, stored.ID, post.ID)

	assert.Equal(t, "Post One", draft.Title)
	assert.Equal(t, "plain body", draft.Body)
	assert.Empty(t, draft.Tags)
	assert.NotNil(t, draft.Tags)
	assert.Equal(t, []domain.Media{{URL: "https://img.example.com/a.jpg", Type: "image"}}, draft.Media)
	assert.Nil(t, draft.Branch)
	assert.Nil(t, draft.Persona)
	assert.Equal(t, domain.Provenance{Platform: "rss", URL: "https://example.com/posts/1", Handle: account.Handle}, draft.Provenance)
	assert.Equal(t, domain.Enrichment{}, draft.Enrichment)
}

func TestBuildDraftKeepsStoredBody(t *testing.T) {
	r := newRepos(t)
	html := "<p>Hello <strong>world</strong></p>"
	_, stored := seedPost(t, r, nil, "Html", html)

	draft, _, err := newTestDrafts(r).BuildDraftFromSocialPost(context.Background(), stored.ID)
	require.NoError(t, err)
	assert.Equal(t, html, draft.Body)
}

func TestBuildDraftSendsMarkdownToSummarizer(t *testing.T) {
	r := newRepos(t)
	html := "<p>Hello <strong>world</strong></p>"
	_, stored := seedPost(t, r, nil, "Html", html)

	summarizer := &fakeSummarizer{err: errors.New("offline")}
	svc := newTestDrafts(r)
	svc.SetSummarizer(summarizer)

	draft, _, err := svc.BuildDraftFromSocialPost(context.Background(), stored.ID)
	require.NoError(t, err)
	assert.Contains(t, summarizer.got.Text, "**world**")
	assert.NotContains(t, summarizer.got.Text, "<p>")
	assert.Equal(t, html, draft.Body, "failed summary keeps the stored body")
}

func TestBuildDraftSummarizer(t *testing.T) {
	rule := &domain.ImportRule{
		PersonaSlug: strPtr("newsbot"),
		Branch:      strPtr("tech"),
		Filters:     datatypes.NewJSONType(domain.RuleFilters{}),
		ImagePolicy: domain.ImagePolicyNone,
	}

	t.Run("suggestion applied", func(t *testing.T) {
		r := newRepos(t)
		_, stored := seedPost(t, r, rule, "Long title", "Long body")
		summarizer := &fakeSummarizer{result: &ai.DraftSuggestion{Title: "Short", Tags: []string{"go"}}}

		builder := newTestDrafts(r)
		builder.SetSummarizer(summarizer)
		draft, _, err := builder.BuildDraftFromSocialPost(context.Background(), stored.ID)
		require.NoError(t, err)

		assert.Equal(t, "newsbot", summarizer.got.Persona)
		assert.Equal(t, "tech", summarizer.got.Branch)
		assert.Contains(t, summarizer.got.Text, "Long body")
		assert.Equal(t, "Short", draft.Title)
		assert.Equal(t, "Long body", draft.Body, "empty suggestion fields keep base values")
		assert.Equal(t, []string{"go"}, draft.Tags)
		assert.Equal(t, "tech", *draft.Branch)
		assert.True(t, draft.Enrichment.Summarized)
	})

	t.Run("failure keeps base draft", func(t *testing.T) {
		r := newRepos(t)
		_, stored := seedPost(t, r, rule, "Long title", "Long body")

		builder := newTestDrafts(r)
		builder.SetSummarizer(&fakeSummarizer{err: errors.New("ollama down")})
		draft, _, err := builder.BuildDraftFromSocialPost(context.Background(), stored.ID)
		require.NoError(t, err)

		assert.Equal(t, "Long title", draft.Title)
		assert.Equal(t, "Long body", draft.Body)
		assert.False(t, draft.Enrichment.Summarized)
		assert.Equal(t, "ollama down", draft.Enrichment.SummaryError)
	})
}

func TestBuildDraftImagePolicy(t *testing.T) {
	autoRule := func() *domain.ImportRule {
		return &domain.ImportRule{
			Filters:     datatypes.NewJSONType(domain.RuleFilters{}),
			ImagePolicy: domain.ImagePolicyAutoGenerate,
		}
	}
	longTitle := strings.Repeat("é", 150)

	t.Run("auto-generate appends first media id", func(t *testing.T) {
		r := newRepos(t)
		_, stored := seedPost(t, r, autoRule(), longTitle, "body")
		images := &fakeImages{ids: []string{"generated/2024/01/01/x.png", "second"}}

		builder := newTestDrafts(r)
		builder.SetImageGenerator(images)
		draft, _, err := builder.BuildDraftFromSocialPost(context.Background(), stored.ID)
		require.NoError(t, err)

		assert.Equal(t, 120, len([]rune(images.prompt)))
		require.Len(t, draft.Media, 2)
		assert.Equal(t, "generated/2024/01/01/x.png", draft.Media[1].URL)
		assert.True(t, draft.Enrichment.ImageGenerated)
	})

	t.Run("failure is ignored", func(t *testing.T) {
		r := newRepos(t)
		_, stored := seedPost(t, r, autoRule(), "Title", "body")

		builder := newTestDrafts(r)
		builder.SetImageGenerator(&fakeImages{err: errors.New("quota")})
		draft, _, err := builder.BuildDraftFromSocialPost(context.Background(), stored.ID)
		require.NoError(t, err)

		assert.Len(t, draft.Media, 1)
		assert.False(t, draft.Enrichment.ImageGenerated)
		assert.Equal(t, "quota", draft.Enrichment.ImageError)
	})

	t.Run("suggest does not generate", func(t *testing.T) {
		r := newRepos(t)
		_, stored := seedPost(t, r, nil, "Title", "body")
		images := &fakeImages{ids: []string{"x"}}

		builder := newTestDrafts(r)
		builder.SetImageGenerator(images)
		draft, _, err := builder.BuildDraftFromSocialPost(context.Background(), stored.ID)
		require.NoError(t, err)

		assert.Empty(t, images.prompt)
		assert.Len(t, draft.Media, 1)
	})
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "héllo", truncateRunes("héllo", 10))
	assert.Equal(t, "hé", truncateRunes("héllo", 2))
}
