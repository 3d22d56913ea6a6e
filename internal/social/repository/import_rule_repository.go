package repository

import (
	"context"
	"errors"

	"chatsaid-backend/internal/social/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type gormImportRuleRepository struct {
	db *gorm.DB
}

// NewImportRuleRepository creates a GORM-backed ImportRuleRepository
func NewImportRuleRepository(db *gorm.DB) ImportRuleRepository {
	return &gormImportRuleRepository{db: db}
}

func (r *gormImportRuleRepository) FindByAccountID(ctx context.Context, accountID string) (*domain.ImportRule, error) {
	var rule domain.ImportRule
	err := r.db.WithContext(ctx).Where("account_id = ?", accountID).First(&rule).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rule, nil
}

// Upsert writes the rule, replacing every column of an existing one
func (r *gormImportRuleRepository) Upsert(ctx context.Context, rule *domain.ImportRule) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "account_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"persona_slug", "branch", "filters", "image_policy", "auto_convert", "updated_at",
		}),
	}).Create(rule).Error
}
