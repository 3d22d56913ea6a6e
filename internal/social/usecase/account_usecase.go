package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"chatsaid-backend/internal/social/domain"
	"chatsaid-backend/internal/social/repository"
	"chatsaid-backend/pkg/fuzzy"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// accountUsecase implements AccountUsecase interface
type accountUsecase struct {
	accounts repository.AccountRepository
	rules    repository.ImportRuleRepository
	posts    repository.SocialPostRepository
}

// NewAccountUsecase creates a new instance of accountUsecase
func NewAccountUsecase(
	accounts repository.AccountRepository,
	rules repository.ImportRuleRepository,
	posts repository.SocialPostRepository,
) AccountUsecase {
	return &accountUsecase{
		accounts: accounts,
		rules:    rules,
		posts:    posts,
	}
}

func (u *accountUsecase) CreateAccount(ctx context.Context, userID string, req CreateAccountRequest) (*domain.SocialAccount, error) {
	platform := domain.Platform(strings.ToLower(strings.TrimSpace(req.Platform)))
	if !platform.Valid() {
		return nil, fmt.Errorf("%w: unsupported platform %q", domain.ErrInvalidInput, req.Platform)
	}

	handle := strings.TrimSpace(req.Handle)
	cfg, err := domain.DecodeConfig(platform, req.Config)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(handle); err != nil {
		return nil, err
	}
	raw, err := domain.EncodeConfig(cfg)
	if err != nil {
		return nil, err
	}

	account := &domain.SocialAccount{
		ID:       uuid.New().String(),
		UserID:   userID,
		Platform: platform,
		Handle:   handle,
		Config:   raw,
		Status:   domain.AccountStatusActive,
	}
	if err := u.accounts.Create(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

func (u *accountUsecase) ListAccounts(ctx context.Context, userID string) ([]*domain.SocialAccount, error) {
	return u.accounts.FindByUserID(ctx, userID)
}

func (u *accountUsecase) GetAccount(ctx context.Context, userID, accountID string) (*domain.SocialAccount, error) {
	account, err := u.accounts.FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, fmt.Errorf("account %s: %w", accountID, domain.ErrNotFound)
	}
	if account.UserID != userID {
		return nil, domain.ErrForbidden
	}
	return account, nil
}

func (u *accountUsecase) PauseAccount(ctx context.Context, userID, accountID string) (*domain.SocialAccount, error) {
	return u.setStatus(ctx, userID, accountID, domain.AccountStatusPaused)
}

// ResumeAccount reactivates a paused or errored account and clears last_error
func (u *accountUsecase) ResumeAccount(ctx context.Context, userID, accountID string) (*domain.SocialAccount, error) {
	return u.setStatus(ctx, userID, accountID, domain.AccountStatusActive)
}

func (u *accountUsecase) setStatus(ctx context.Context, userID, accountID string, status domain.AccountStatus) (*domain.SocialAccount, error) {
	account, err := u.GetAccount(ctx, userID, accountID)
	if err != nil {
		return nil, err
	}
	lastError := account.LastError
	if status == domain.AccountStatusActive {
		lastError = ""
	}
	if err := u.accounts.UpdateStatus(ctx, account.ID, status, lastError); err != nil {
		return nil, err
	}
	account.Status = status
	account.LastError = lastError
	return account, nil
}

func (u *accountUsecase) GetRule(ctx context.Context, userID, accountID string) (*domain.ImportRule, error) {
	if _, err := u.GetAccount(ctx, userID, accountID); err != nil {
		return nil, err
	}
	rule, err := u.rules.FindByAccountID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if rule == nil {
		return domain.DefaultImportRule(accountID), nil
	}
	return rule, nil
}

func (u *accountUsecase) UpsertRule(ctx context.Context, userID, accountID string, req RuleRequest) (*domain.ImportRule, error) {
	if _, err := u.GetAccount(ctx, userID, accountID); err != nil {
		return nil, err
	}

	policy := domain.ImagePolicy(strings.TrimSpace(req.ImagePolicy))
	if policy == "" {
		policy = domain.ImagePolicySuggest
	}
	if !policy.Valid() {
		return nil, fmt.Errorf("%w: unsupported image_policy %q", domain.ErrInvalidInput, req.ImagePolicy)
	}

	rule := &domain.ImportRule{
		AccountID:   accountID,
		PersonaSlug: trimOptional(req.PersonaSlug),
		Branch:      trimOptional(req.Branch),
		Filters:     datatypes.NewJSONType(cleanFilters(req.Filters)),
		ImagePolicy: policy,
		AutoConvert: req.AutoConvert,
	}
	if err := u.rules.Upsert(ctx, rule); err != nil {
		return nil, err
	}
	return rule, nil
}

func (u *accountUsecase) ListPosts(ctx context.Context, userID, accountID string, status *string, limit, offset int) ([]*domain.SocialPost, int64, error) {
	if _, err := u.GetAccount(ctx, userID, accountID); err != nil {
		return nil, 0, err
	}

	var reviewStatus *domain.ReviewStatus
	if status != nil && *status != "" {
		rs := domain.ReviewStatus(*status)
		switch rs {
		case domain.ReviewStatusNew, domain.ReviewStatusIgnored, domain.ReviewStatusConverted:
		default:
			return nil, 0, fmt.Errorf("%w: unsupported review status %q", domain.ErrInvalidInput, *status)
		}
		reviewStatus = &rs
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return u.posts.FindByAccount(ctx, accountID, reviewStatus, limit, offset)
}

// searchWindow caps how many recent posts a search scans
const searchWindow = 500

func (u *accountUsecase) SearchPosts(ctx context.Context, userID, accountID, query string, limit int) ([]*domain.SocialPost, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is required", domain.ErrInvalidInput)
	}
	if _, err := u.GetAccount(ctx, userID, accountID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 200 {
		limit = 20
	}

	posts, _, err := u.posts.FindByAccount(ctx, accountID, nil, searchWindow, 0)
	if err != nil {
		return nil, err
	}

	type scored struct {
		post  *domain.SocialPost
		score float64
	}
	var hits []scored
	for _, p := range posts {
		if s := fuzzy.Score(query, p.Title, p.Body); s > 0 {
			hits = append(hits, scored{post: p, score: s})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })

	if len(hits) > limit {
		hits = hits[:limit]
	}
	result := make([]*domain.SocialPost, 0, len(hits))
	for _, h := range hits {
		result = append(result, h.post)
	}
	return result, nil
}

func (u *accountUsecase) GetPost(ctx context.Context, userID, postID string) (*domain.SocialPost, error) {
	post, err := u.posts.FindByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, fmt.Errorf("social post %s: %w", postID, domain.ErrNotFound)
	}
	if _, err := u.GetAccount(ctx, userID, post.AccountID); err != nil {
		return nil, err
	}
	return post, nil
}

func (u *accountUsecase) IgnorePost(ctx context.Context, userID, postID string) error {
	return u.setReviewStatus(ctx, userID, postID, domain.ReviewStatusIgnored)
}

func (u *accountUsecase) MarkConverted(ctx context.Context, userID, postID string) error {
	return u.setReviewStatus(ctx, userID, postID, domain.ReviewStatusConverted)
}

func (u *accountUsecase) setReviewStatus(ctx context.Context, userID, postID string, status domain.ReviewStatus) error {
	if _, err := u.GetPost(ctx, userID, postID); err != nil {
		return err
	}
	return u.posts.UpdateReviewStatus(ctx, postID, status)
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func cleanFilters(f domain.RuleFilters) domain.RuleFilters {
	clean := func(terms []string) []string {
		out := make([]string, 0, len(terms))
		for _, t := range terms {
			if t = strings.TrimSpace(t); t != "" {
				out = append(out, t)
			}
		}
		return out
	}
	return domain.RuleFilters{Include: clean(f.Include), Exclude: clean(f.Exclude)}
}
