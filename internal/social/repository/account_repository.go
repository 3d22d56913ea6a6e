package repository

import (
	"context"
	"errors"
	"time"

	"chatsaid-backend/internal/social/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type gormAccountRepository struct {
	db *gorm.DB
}

// NewAccountRepository creates a GORM-backed AccountRepository
func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &gormAccountRepository{db: db}
}

func (r *gormAccountRepository) Create(ctx context.Context, account *domain.SocialAccount) error {
	if account.ID == "" {
		account.ID = uuid.New().String()
	}
	if account.Status == "" {
		account.Status = domain.AccountStatusActive
	}
	return r.db.WithContext(ctx).Create(account).Error
}

func (r *gormAccountRepository) FindByID(ctx context.Context, id string) (*domain.SocialAccount, error) {
	var account domain.SocialAccount
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

func (r *gormAccountRepository) FindByIDs(ctx context.Context, ids []string) ([]*domain.SocialAccount, error) {
	if len(ids) == 0 {
		return []*domain.SocialAccount{}, nil
	}
	var accounts []*domain.SocialAccount
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("created_at ASC").Find(&accounts).Error
	return accounts, err
}

func (r *gormAccountRepository) FindActive(ctx context.Context) ([]*domain.SocialAccount, error) {
	var accounts []*domain.SocialAccount
	err := r.db.WithContext(ctx).
		Where("status = ?", domain.AccountStatusActive).
		Order("created_at ASC").
		Find(&accounts).Error
	return accounts, err
}

func (r *gormAccountRepository) FindByUserID(ctx context.Context, userID string) ([]*domain.SocialAccount, error) {
	var accounts []*domain.SocialAccount
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&accounts).Error
	return accounts, err
}

func (r *gormAccountRepository) UpdateStatus(ctx context.Context, id string, status domain.AccountStatus, lastError string) error {
	return r.db.WithContext(ctx).Model(&domain.SocialAccount{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"last_error": lastError,
			"updated_at": time.Now(),
		}).Error
}

func (r *gormAccountRepository) MarkSynced(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&domain.SocialAccount{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"last_synced_at": at,
			"updated_at":     time.Now(),
		}).Error
}
