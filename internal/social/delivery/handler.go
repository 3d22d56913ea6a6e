package delivery

import (
	"errors"
	"net/http"
	"strconv"

	"chatsaid-backend/internal/social/domain"
	"chatsaid-backend/internal/social/usecase"

	"github.com/gin-gonic/gin"
)

const maxInboundEmailBytes = 10 << 20

// SocialHandler handles social ingestion HTTP requests
type SocialHandler struct {
	accounts usecase.AccountUsecase
	importer usecase.Importer
	drafts   usecase.DraftBuilder
	inbound  usecase.InboundEmailUsecase
}

// NewSocialHandler creates a new SocialHandler
func NewSocialHandler(
	accounts usecase.AccountUsecase,
	importer usecase.Importer,
	drafts usecase.DraftBuilder,
	inbound usecase.InboundEmailUsecase,
) *SocialHandler {
	return &SocialHandler{
		accounts: accounts,
		importer: importer,
		drafts:   drafts,
		inbound:  inbound,
	}
}

// ImportRequest represents the request body for a manual import
type ImportRequest struct {
	AccountIDs  []string `json:"account_ids"`
	AutoConvert bool     `json:"auto_convert"`
}

// respondError maps domain errors onto HTTP status codes
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "Unauthorized"})
	case errors.Is(err, domain.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrAccountInactive):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// CreateAccount registers a new source
// POST /api/social/accounts
func (h *SocialHandler) CreateAccount(c *gin.Context) {
	userID := c.GetString("userID")

	var req usecase.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	account, err := h.accounts.CreateAccount(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, account)
}

// GetAccounts returns the caller's accounts
// GET /api/social/accounts
func (h *SocialHandler) GetAccounts(c *gin.Context) {
	userID := c.GetString("userID")

	accounts, err := h.accounts.ListAccounts(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"accounts": accounts})
}

// GetAccount returns a single account
// GET /api/social/accounts/:id
func (h *SocialHandler) GetAccount(c *gin.Context) {
	account, err := h.accounts.GetAccount(c.Request.Context(), c.GetString("userID"), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

// PauseAccount stops polling an account
// POST /api/social/accounts/:id/pause
func (h *SocialHandler) PauseAccount(c *gin.Context) {
	account, err := h.accounts.PauseAccount(c.Request.Context(), c.GetString("userID"), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

// ResumeAccount reactivates a paused or errored account
// POST /api/social/accounts/:id/resume
func (h *SocialHandler) ResumeAccount(c *gin.Context) {
	account, err := h.accounts.ResumeAccount(c.Request.Context(), c.GetString("userID"), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

// GetRule returns the import rule (defaults when unset)
// GET /api/social/accounts/:id/rule
func (h *SocialHandler) GetRule(c *gin.Context) {
	rule, err := h.accounts.GetRule(c.Request.Context(), c.GetString("userID"), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rule)
}

// UpdateRule replaces the import rule
// PUT /api/social/accounts/:id/rule
func (h *SocialHandler) UpdateRule(c *gin.Context) {
	var req usecase.RuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rule, err := h.accounts.UpsertRule(c.Request.Context(), c.GetString("userID"), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rule)
}

// GetPosts returns imported posts for an account
// GET /api/social/accounts/:id/posts?status=new&limit=50&offset=0
func (h *SocialHandler) GetPosts(c *gin.Context) {
	userID := c.GetString("userID")

	status := c.Query("status")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	var statusPtr *string
	if status != "" {
		statusPtr = &status
	}

	posts, total, err := h.accounts.ListPosts(c.Request.Context(), userID, c.Param("id"), statusPtr, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"posts": posts,
		"total": total,
	})
}

// SearchPosts ranks an account's posts by fuzzy relevance
// GET /api/social/accounts/:id/posts/search?q=release&limit=20
func (h *SocialHandler) SearchPosts(c *gin.Context) {
	userID := c.GetString("userID")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	posts, err := h.accounts.SearchPosts(c.Request.Context(), userID, c.Param("id"), c.Query("q"), limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

// RunImport imports the caller's accounts (all of them, or account_ids)
// POST /api/social/import
func (h *SocialHandler) RunImport(c *gin.Context) {
	userID := c.GetString("userID")
	ctx := c.Request.Context()

	var req ImportRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	ids := req.AccountIDs
	if len(ids) == 0 {
		accounts, err := h.accounts.ListAccounts(ctx, userID)
		if err != nil {
			respondError(c, err)
			return
		}
		for _, a := range accounts {
			ids = append(ids, a.ID)
		}
	} else {
		for _, id := range ids {
			if _, err := h.accounts.GetAccount(ctx, userID, id); err != nil {
				respondError(c, err)
				return
			}
		}
	}

	results := []usecase.ImportResult{}
	if len(ids) > 0 {
		var err error
		results, err = h.importer.ImportForAccounts(ctx, ids, usecase.ImportOptions{AutoConvert: req.AutoConvert})
		if err != nil {
			respondError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"results": results})
}

// BuildDraft returns a draft built from an imported post
// POST /api/social/posts/:id/draft
func (h *SocialHandler) BuildDraft(c *gin.Context) {
	ctx := c.Request.Context()
	if _, err := h.accounts.GetPost(ctx, c.GetString("userID"), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	draft, post, err := h.drafts.BuildDraftFromSocialPost(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"draft": draft,
		"post":  post,
	})
}

// IgnorePost marks a post as ignored
// POST /api/social/posts/:id/ignore
func (h *SocialHandler) IgnorePost(c *gin.Context) {
	if err := h.accounts.IgnorePost(c.Request.Context(), c.GetString("userID"), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Post ignored"})
}

// ConvertPost marks a post as converted
// POST /api/social/posts/:id/convert
func (h *SocialHandler) ConvertPost(c *gin.Context) {
	if err := h.accounts.MarkConverted(c.Request.Context(), c.GetString("userID"), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Post marked as converted"})
}

// InboundEmail stores a raw MIME message for an email account
// POST /api/social/inbound/email/:account_id
func (h *SocialHandler) InboundEmail(c *gin.Context) {
	body := http.MaxBytesReader(c.Writer, c.Request.Body, maxInboundEmailBytes)

	result, err := h.inbound.IngestEmail(c.Request.Context(), c.Param("account_id"), body)
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusOK
	if result.Inserted > 0 {
		status = http.StatusCreated
	}
	c.JSON(status, result)
}
