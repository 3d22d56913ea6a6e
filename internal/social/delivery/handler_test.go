package delivery

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"chatsaid-backend/internal/social/domain"
	"chatsaid-backend/internal/social/fetcher"
	"chatsaid-backend/internal/social/repository"
	"chatsaid-backend/internal/social/usecase"
	"chatsaid-backend/pkg/logger"
	"chatsaid-backend/pkg/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const feed = `<rss version="2.0"><channel>
<item><title>Post One</title><link>https://example.com/1</link><guid>1</guid></item>
<item><title>Post Two</title><link>https://example.com/2</link><guid>2</guid></item>
</channel></rss>`

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewSQLiteDB(t)
	require.NoError(t, repository.AutoMigrate(db))
	accounts := repository.NewAccountRepository(db)
	rules := repository.NewImportRuleRepository(db)
	posts := repository.NewSocialPostRepository(db)

	log := logger.Discard()
	drafts := usecase.NewDraftService(accounts, rules, posts, log)
	importer := usecase.NewImporter(accounts, rules, posts, fetcher.NewRegistry(nil), drafts, log)
	h := NewSocialHandler(
		usecase.NewAccountUsecase(accounts, rules, posts),
		importer,
		drafts,
		usecase.NewInboundEmailUsecase(accounts, rules, posts, drafts, log),
	)

	r := gin.New()
	fakeAuth := func(c *gin.Context) {
		c.Set("userID", c.GetHeader("X-User"))
		c.Next()
	}
	social := r.Group("/api/social")
	social.POST("/inbound/email/:account_id", h.InboundEmail)
	social.Use(fakeAuth)
	social.POST("/accounts", h.CreateAccount)
	social.GET("/accounts", h.GetAccounts)
	social.GET("/accounts/:id", h.GetAccount)
	social.POST("/accounts/:id/pause", h.PauseAccount)
	social.POST("/accounts/:id/resume", h.ResumeAccount)
	social.GET("/accounts/:id/rule", h.GetRule)
	social.PUT("/accounts/:id/rule", h.UpdateRule)
	social.GET("/accounts/:id/posts", h.GetPosts)
	social.GET("/accounts/:id/posts/search", h.SearchPosts)
	social.POST("/import", h.RunImport)
	social.POST("/posts/:id/draft", h.BuildDraft)
	social.POST("/posts/:id/ignore", h.IgnorePost)
	social.POST("/posts/:id/convert", h.ConvertPost)
	return r
}

func do(t *testing.T, r *gin.Engine, method, path, user string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User", user)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func TestAccountLifecycle(t *testing.T) {
	r := setupRouter(t)

	w := do(t, r, http.MethodPost, "/api/social/accounts", "u1", gin.H{"platform": "reddit", "handle": "r/golang"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	account := decode[domain.SocialAccount](t, w)

	w = do(t, r, http.MethodPost, "/api/social/accounts", "u1", gin.H{"platform": "rss", "handle": "nope"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodGet, "/api/social/accounts/"+account.ID, "u2", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, r, http.MethodGet, "/api/social/accounts/ghost", "u1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, r, http.MethodPost, "/api/social/accounts/"+account.ID+"/pause", "u1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.AccountStatusPaused, decode[domain.SocialAccount](t, w).Status)

	w = do(t, r, http.MethodPut, "/api/social/accounts/"+account.ID+"/rule", "u1", gin.H{"image_policy": "auto-generate", "auto_convert": true})
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodGet, "/api/social/accounts/"+account.ID+"/rule", "u1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	rule := decode[map[string]any](t, w)
	assert.Equal(t, "auto-generate", rule["image_policy"])
	assert.Equal(t, true, rule["auto_convert"])

	w = do(t, r, http.MethodGet, "/api/social/accounts", "u1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[map[string][]domain.SocialAccount](t, w)["accounts"], 1)
}

func TestImportAndReview(t *testing.T) {
	r := setupRouter(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(feed))
	}))
	defer srv.Close()

	w := do(t, r, http.MethodPost, "/api/social/accounts", "u1", gin.H{"platform": "rss", "config": gin.H{"rss_url": srv.URL}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	account := decode[domain.SocialAccount](t, w)

	w = do(t, r, http.MethodPost, "/api/social/import", "u2", gin.H{"account_ids": []string{account.ID}})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, r, http.MethodPost, "/api/social/import", "u1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	results := decode[map[string][]usecase.ImportResult](t, w)["results"]
	assert.Equal(t, []usecase.ImportResult{{AccountID: account.ID, Inserted: 2}}, results)

	w = do(t, r, http.MethodGet, "/api/social/accounts/"+account.ID+"/posts?status=new", "u1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode[struct {
		Posts []domain.SocialPost `json:"posts"`
		Total int64               `json:"total"`
	}](t, w)
	require.Equal(t, int64(2), page.Total)
	postID := page.Posts[0].ID

	w = do(t, r, http.MethodGet, "/api/social/accounts/"+account.ID+"/posts/search?q=post+two", "u1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	found := decode[map[string][]domain.SocialPost](t, w)["posts"]
	require.NotEmpty(t, found)
	assert.Equal(t, "Post Two", found[0].Title)

	w = do(t, r, http.MethodGet, "/api/social/accounts/"+account.ID+"/posts/search", "u1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/api/social/posts/"+postID+"/draft", "u1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[map[string]map[string]any](t, w)
	assert.Equal(t, page.Posts[0].Title, body["draft"]["title"])
	assert.Equal(t, postID, body["post"]["id"])

	w = do(t, r, http.MethodPost, "/api/social/posts/ghost/draft", "u1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, r, http.MethodPost, "/api/social/posts/"+postID+"/ignore", "u1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = do(t, r, http.MethodPost, "/api/social/posts/"+page.Posts[1].ID+"/convert", "u2", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, r, http.MethodGet, "/api/social/accounts/"+account.ID+"/posts?status=ignored", "u1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":1`)
}

func TestInboundEmail(t *testing.T) {
	r := setupRouter(t)

	w := do(t, r, http.MethodPost, "/api/social/accounts", "u1", gin.H{"platform": "email", "handle": "in@example.com"})
	require.Equal(t, http.StatusCreated, w.Code)
	account := decode[domain.SocialAccount](t, w)

	msg := "Subject: Hi\r\nMessage-ID: <m1@example.com>\r\n\r\nHello there\r\n"
	post := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/social/inbound/email/"+account.ID, strings.NewReader(msg))
		req.Header.Set("Content-Type", "message/rfc822")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	first := post()
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())
	assert.Equal(t, usecase.ImportResult{AccountID: account.ID, Inserted: 1}, decode[usecase.ImportResult](t, first))

	second := post()
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, usecase.ImportResult{AccountID: account.ID, Skipped: 1}, decode[usecase.ImportResult](t, second))

	req := httptest.NewRequest(http.MethodPost, "/api/social/inbound/email/ghost", strings.NewReader(msg))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
