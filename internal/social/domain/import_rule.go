package domain

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

// ImagePolicy controls whether drafts get a generated image.
type ImagePolicy string

const (
	ImagePolicyNone         ImagePolicy = "none"
	ImagePolicySuggest      ImagePolicy = "suggest"
	ImagePolicyAutoGenerate ImagePolicy = "auto-generate"
)

func (p ImagePolicy) Valid() bool {
	switch p {
	case ImagePolicyNone, ImagePolicySuggest, ImagePolicyAutoGenerate:
		return true
	}
	return false
}

// RuleFilters are case-insensitive substring filters over title and body.
type RuleFilters struct {
	Include []string `json:"include,omitempty"`
	Exclude []string `json:"exclude,omitempty"`
}

// Matches reports whether text passes the filters: no exclude term may
// appear, and when include terms exist at least one must appear.
func (f RuleFilters) Matches(text string) bool {
	lower := strings.ToLower(text)
	for _, term := range f.Exclude {
		term = strings.ToLower(strings.TrimSpace(term))
		if term != "" && strings.Contains(lower, term) {
			return false
		}
	}

	hasInclude := false
	for _, term := range f.Include {
		term = strings.ToLower(strings.TrimSpace(term))
		if term == "" {
			continue
		}
		hasInclude = true
		if strings.Contains(lower, term) {
			return true
		}
	}
	return !hasInclude
}

// ImportRule is the per-account import configuration.
type ImportRule struct {
	AccountID   string                          `json:"account_id" gorm:"primaryKey"`
	PersonaSlug *string                         `json:"persona_slug,omitempty"`
	Branch      *string                         `json:"branch,omitempty"`
	Filters     datatypes.JSONType[RuleFilters] `json:"filters"`
	ImagePolicy ImagePolicy                     `json:"image_policy" gorm:"not null"`
	AutoConvert bool                            `json:"auto_convert" gorm:"not null"`
	CreatedAt   time.Time                       `json:"created_at"`
	UpdatedAt   time.Time                       `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (ImportRule) TableName() string {
	return "import_rules"
}

// DefaultImportRule is what applies when an account has no stored rule.
func DefaultImportRule(accountID string) *ImportRule {
	return &ImportRule{
		AccountID:   accountID,
		Filters:     datatypes.NewJSONType(RuleFilters{}),
		ImagePolicy: ImagePolicySuggest,
		AutoConvert: false,
	}
}
