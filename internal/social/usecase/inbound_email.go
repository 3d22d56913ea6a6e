package usecase

import (
	"context"
	"fmt"
	"io"

	"chatsaid-backend/internal/social/domain"
	"chatsaid-backend/internal/social/fetcher"
	"chatsaid-backend/internal/social/repository"
	"chatsaid-backend/pkg/logger"

	"github.com/sirupsen/logrus"
)

// inboundEmailUsecase implements InboundEmailUsecase
type inboundEmailUsecase struct {
	accounts repository.AccountRepository
	rules    repository.ImportRuleRepository
	posts    repository.SocialPostRepository
	drafts   DraftBuilder
	log      *logrus.Entry
}

// NewInboundEmailUsecase creates the webhook ingestion path. The webhook
// always requests auto-convert, so the rule flag alone decides.
func NewInboundEmailUsecase(
	accounts repository.AccountRepository,
	rules repository.ImportRuleRepository,
	posts repository.SocialPostRepository,
	drafts DraftBuilder,
	log *logrus.Logger,
) InboundEmailUsecase {
	return &inboundEmailUsecase{
		accounts: accounts,
		rules:    rules,
		posts:    posts,
		drafts:   drafts,
		log:      logger.Component(log, "inbound_email"),
	}
}

func (u *inboundEmailUsecase) IngestEmail(ctx context.Context, accountID string, raw io.Reader) (*ImportResult, error) {
	account, err := u.accounts.FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, fmt.Errorf("account %s: %w", accountID, domain.ErrNotFound)
	}
	if account.Platform != domain.PlatformEmail {
		return nil, fmt.Errorf("%w: account %s is a %s account", domain.ErrInvalidInput, accountID, account.Platform)
	}
	if !account.IsActive() {
		return nil, fmt.Errorf("account %s: %w", accountID, domain.ErrAccountInactive)
	}

	item, err := fetcher.ParseEmail(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	log := u.log.WithField("account_id", account.ID)
	result := &ImportResult{AccountID: account.ID}

	post := newSocialPost(account, item)
	inserted, err := u.posts.InsertIfAbsent(ctx, post)
	if err != nil {
		return nil, err
	}
	if !inserted {
		result.Skipped = 1
		log.WithField("hash", post.Hash).Debug("Duplicate inbound email skipped")
		return result, nil
	}
	result.Inserted = 1

	rule := ruleOrDefault(ctx, u.rules, account.ID, log)
	if shouldAutoConvert(ImportOptions{AutoConvert: true}, rule, post) {
		stashPreDraft(ctx, u.posts, u.drafts, post, log)
	}
	log.WithField("post_id", post.ID).Info("Inbound email stored")
	return result, nil
}
