package repository

import (
	"context"
	"errors"
	"time"

	"chatsaid-backend/internal/social/domain"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type gormSocialPostRepository struct {
	db *gorm.DB
}

// NewSocialPostRepository creates a GORM-backed SocialPostRepository
func NewSocialPostRepository(db *gorm.DB) SocialPostRepository {
	return &gormSocialPostRepository{db: db}
}

// InsertIfAbsent relies on idx_social_posts_account_hash; a conflicting
// insert affects zero rows and is reported as not inserted.
func (r *gormSocialPostRepository) InsertIfAbsent(ctx context.Context, post *domain.SocialPost) (bool, error) {
	if post.ID == "" {
		post.ID = uuid.New().String()
	}
	if post.ReviewStatus == "" {
		post.ReviewStatus = domain.ReviewStatusNew
	}
	if post.IngestMeta == nil {
		post.IngestMeta = datatypes.JSONMap{}
	}
	if post.Media == nil {
		post.Media = datatypes.JSONSlice[domain.Media]{}
	}

	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "account_id"}, {Name: "hash"}},
		DoNothing: true,
	}).Create(post)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *gormSocialPostRepository) FindByID(ctx context.Context, id string) (*domain.SocialPost, error) {
	var post domain.SocialPost
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&post).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &post, nil
}

func (r *gormSocialPostRepository) FindByAccount(ctx context.Context, accountID string, status *domain.ReviewStatus, limit, offset int) ([]*domain.SocialPost, int64, error) {
	var posts []*domain.SocialPost
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.SocialPost{}).Where("account_id = ?", accountID)
	if status != nil {
		query = query.Where("review_status = ?", *status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit <= 0 {
		limit = 50
	}
	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&posts).Error
	return posts, total, err
}

func (r *gormSocialPostRepository) UpdateIngestMeta(ctx context.Context, id string, meta datatypes.JSONMap) error {
	return r.db.WithContext(ctx).Model(&domain.SocialPost{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"ingest_meta": meta,
			"updated_at":  time.Now(),
		}).Error
}

func (r *gormSocialPostRepository) UpdateReviewStatus(ctx context.Context, id string, status domain.ReviewStatus) error {
	result := r.db.WithContext(ctx).Model(&domain.SocialPost{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"review_status": status,
			"updated_at":    time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
