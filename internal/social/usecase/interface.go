package usecase

import (
	"context"
	"encoding/json"
	"io"

	"chatsaid-backend/internal/social/domain"
	"chatsaid-backend/internal/social/fetcher"
)

// ImportOptions tunes one importer pass
type ImportOptions struct {
	AutoConvert bool `json:"auto_convert"`
}

// ImportResult is the outcome for one account
type ImportResult struct {
	AccountID string `json:"account_id"`
	Inserted  int    `json:"inserted"`
	Skipped   int    `json:"skipped"`
}

// Importer pulls new items for accounts and stores them deduplicated
type Importer interface {
	// ImportForAccounts imports every active account when accountIDs is empty,
	// otherwise the named accounts. Per-account failures never abort the run.
	ImportForAccounts(ctx context.Context, accountIDs []string, opts ImportOptions) ([]ImportResult, error)
}

// DraftBuilder turns a stored post into a draft payload
type DraftBuilder interface {
	BuildDraftFromSocialPost(ctx context.Context, postID string) (*domain.DraftPayload, *domain.SocialPost, error)
}

// InboundEmailUsecase stores messages delivered by the email webhook
type InboundEmailUsecase interface {
	IngestEmail(ctx context.Context, accountID string, raw io.Reader) (*ImportResult, error)
}

// AccountUsecase defines account, rule and review operations. Every call is
// scoped to userID; touching another user's data returns domain.ErrForbidden.
type AccountUsecase interface {
	CreateAccount(ctx context.Context, userID string, req CreateAccountRequest) (*domain.SocialAccount, error)
	ListAccounts(ctx context.Context, userID string) ([]*domain.SocialAccount, error)
	GetAccount(ctx context.Context, userID, accountID string) (*domain.SocialAccount, error)
	PauseAccount(ctx context.Context, userID, accountID string) (*domain.SocialAccount, error)
	ResumeAccount(ctx context.Context, userID, accountID string) (*domain.SocialAccount, error)

	// GetRule returns the stored rule or the defaults when there is none
	GetRule(ctx context.Context, userID, accountID string) (*domain.ImportRule, error)
	UpsertRule(ctx context.Context, userID, accountID string, req RuleRequest) (*domain.ImportRule, error)

	ListPosts(ctx context.Context, userID, accountID string, status *string, limit, offset int) ([]*domain.SocialPost, int64, error)
	// SearchPosts ranks the account's recent posts by fuzzy relevance to query
	SearchPosts(ctx context.Context, userID, accountID, query string, limit int) ([]*domain.SocialPost, error)
	GetPost(ctx context.Context, userID, postID string) (*domain.SocialPost, error)
	IgnorePost(ctx context.Context, userID, postID string) error
	MarkConverted(ctx context.Context, userID, postID string) error
}

// CreateAccountRequest is the payload for registering a source
type CreateAccountRequest struct {
	Platform string          `json:"platform" binding:"required"`
	Handle   string          `json:"handle"`
	Config   json.RawMessage `json:"config"`
}

// RuleRequest represents the editable fields of an import rule
type RuleRequest struct {
	PersonaSlug *string            `json:"persona_slug"`
	Branch      *string            `json:"branch"`
	Filters     domain.RuleFilters `json:"filters"`
	ImagePolicy string             `json:"image_policy"`
	AutoConvert bool               `json:"auto_convert"`
}

// FetcherSource resolves the fetcher for a platform; *fetcher.Registry
// implements it.
type FetcherSource interface {
	For(platform domain.Platform) (fetcher.Fetcher, bool)
}

// ImageGenerator returns media ids for images generated from prompt
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string) ([]string, error)
}
