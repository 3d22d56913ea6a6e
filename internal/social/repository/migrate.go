package repository

import (
	"chatsaid-backend/internal/social/domain"

	"gorm.io/gorm"
)

// AutoMigrate creates or updates the social ingestion tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&domain.SocialAccount{}, &domain.ImportRule{}, &domain.SocialPost{})
}
