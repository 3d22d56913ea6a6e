package repository

import (
	"context"
	"time"

	"chatsaid-backend/internal/social/domain"

	"gorm.io/datatypes"
)

// AccountRepository defines data access for social accounts
type AccountRepository interface {
	Create(ctx context.Context, account *domain.SocialAccount) error
	// FindByID returns nil, nil when the account does not exist
	FindByID(ctx context.Context, id string) (*domain.SocialAccount, error)
	FindByIDs(ctx context.Context, ids []string) ([]*domain.SocialAccount, error)
	FindActive(ctx context.Context) ([]*domain.SocialAccount, error)
	FindByUserID(ctx context.Context, userID string) ([]*domain.SocialAccount, error)
	UpdateStatus(ctx context.Context, id string, status domain.AccountStatus, lastError string) error
	MarkSynced(ctx context.Context, id string, at time.Time) error
}

// ImportRuleRepository defines data access for per-account import rules
type ImportRuleRepository interface {
	// FindByAccountID returns nil, nil when the account has no rule
	FindByAccountID(ctx context.Context, accountID string) (*domain.ImportRule, error)
	Upsert(ctx context.Context, rule *domain.ImportRule) error
}

// SocialPostRepository defines data access for imported posts
type SocialPostRepository interface {
	// InsertIfAbsent inserts post unless (account_id, hash) already exists.
	// It reports whether a row was written.
	InsertIfAbsent(ctx context.Context, post *domain.SocialPost) (bool, error)
	// FindByID returns nil, nil when the post does not exist
	FindByID(ctx context.Context, id string) (*domain.SocialPost, error)
	FindByAccount(ctx context.Context, accountID string, status *domain.ReviewStatus, limit, offset int) ([]*domain.SocialPost, int64, error)
	UpdateIngestMeta(ctx context.Context, id string, meta datatypes.JSONMap) error
	UpdateReviewStatus(ctx context.Context, id string, status domain.ReviewStatus) error
}
