package domain

import (
	"time"

	"gorm.io/datatypes"
)

// ReviewStatus tracks what a user did with an imported post.
type ReviewStatus string

const (
	ReviewStatusNew       ReviewStatus = "new"
	ReviewStatusIgnored   ReviewStatus = "ignored"
	ReviewStatusConverted ReviewStatus = "converted"
)

// Media is an image, video or attachment reference carried by a post.
type Media struct {
	URL    string `json:"url"`
	Type   string `json:"type,omitempty"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// Well-known ingest_meta keys.
const (
	MetaKind     = "kind"
	MetaPreDraft = "pre_draft"
)

// SocialPost is a fetched external item. (AccountID, Hash) is unique.
type SocialPost struct {
	ID             string                     `json:"id" gorm:"primaryKey"`
	AccountID      string                     `json:"account_id" gorm:"not null;uniqueIndex:idx_social_posts_account_hash,priority:1"`
	PlatformPostID string                     `json:"platform_post_id,omitempty"`
	URL            string                     `json:"url,omitempty"`
	Title          string                     `json:"title,omitempty"`
	Body           string                     `json:"body,omitempty" gorm:"type:text"`
	Media          datatypes.JSONSlice[Media] `json:"media"`
	PostedAt       *time.Time                 `json:"posted_at,omitempty"`
	Hash           string                     `json:"hash" gorm:"not null;uniqueIndex:idx_social_posts_account_hash,priority:2"`
	IngestMeta     datatypes.JSONMap          `json:"ingest_meta"`
	ReviewStatus   ReviewStatus               `json:"review_status" gorm:"index;not null"`
	CreatedAt      time.Time                  `json:"created_at"`
	UpdatedAt      time.Time                  `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (SocialPost) TableName() string {
	return "social_posts"
}

// FetchedItem is the normalized shape every platform fetcher returns.
type FetchedItem struct {
	PlatformPostID string         `json:"platform_post_id"`
	URL            string         `json:"url"`
	Title          string         `json:"title"`
	Body           string         `json:"body"`
	Media          []Media        `json:"media"`
	PostedAt       string         `json:"posted_at"` // ISO-8601 or ""
	IngestMeta     map[string]any `json:"ingest_meta"`
}
