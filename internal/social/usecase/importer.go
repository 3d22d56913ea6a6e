package usecase

import (
	"context"
	"time"

	"chatsaid-backend/internal/social/domain"
	"chatsaid-backend/internal/social/repository"
	"chatsaid-backend/pkg/logger"
	"chatsaid-backend/pkg/metrics"

	"github.com/sirupsen/logrus"
)

// ImportService implements Importer
type ImportService struct {
	accounts repository.AccountRepository
	rules    repository.ImportRuleRepository
	posts    repository.SocialPostRepository
	fetchers FetcherSource
	drafts   DraftBuilder
	metrics  *metrics.Collector
	log      *logrus.Entry
	now      func() time.Time
}

// NewImporter creates a new Importer. drafts may be nil, which disables
// auto-convert.
func NewImporter(
	accounts repository.AccountRepository,
	rules repository.ImportRuleRepository,
	posts repository.SocialPostRepository,
	fetchers FetcherSource,
	drafts DraftBuilder,
	log *logrus.Logger,
) *ImportService {
	return &ImportService{
		accounts: accounts,
		rules:    rules,
		posts:    posts,
		fetchers: fetchers,
		drafts:   drafts,
		log:      logger.Component(log, "importer"),
		now:      time.Now,
	}
}

func (u *ImportService) SetMetrics(m *metrics.Collector) {
	u.metrics = m
}

// SetClock overrides the clock used for last_synced_at
func (u *ImportService) SetClock(now func() time.Time) {
	u.now = now
}

func (u *ImportService) ImportForAccounts(ctx context.Context, accountIDs []string, opts ImportOptions) ([]ImportResult, error) {
	var (
		accounts []*domain.SocialAccount
		err      error
	)
	if len(accountIDs) == 0 {
		accounts, err = u.accounts.FindActive(ctx)
	} else {
		accounts, err = u.accounts.FindByIDs(ctx, accountIDs)
	}
	if err != nil {
		return nil, err
	}

	results := make([]ImportResult, 0, len(accounts))
	for _, account := range accounts {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		results = append(results, u.importAccount(ctx, account, opts))
	}
	return results, nil
}

func (u *ImportService) importAccount(ctx context.Context, account *domain.SocialAccount, opts ImportOptions) ImportResult {
	result := ImportResult{AccountID: account.ID}
	log := u.log.WithFields(logrus.Fields{
		"account_id": account.ID,
		"platform":   account.Platform,
	})

	if !account.IsActive() {
		log.WithField("status", account.Status).Debug("Skipping inactive account")
		return result
	}

	start := time.Now()
	rule := ruleOrDefault(ctx, u.rules, account.ID, log)

	var items []domain.FetchedItem
	if f, ok := u.fetchers.For(account.Platform); ok {
		fetched, err := f.Fetch(ctx, account)
		if err != nil {
			log.WithError(err).Warn("Fetch failed, marking account as errored")
			u.metrics.RecordFetchFailure(string(account.Platform))
			if err := u.accounts.UpdateStatus(ctx, account.ID, domain.AccountStatusError, err.Error()); err != nil {
				log.WithError(err).Error("Failed to mark account as errored")
			}
			return result
		}
		items = fetched
	} else {
		log.Warn("No fetcher for platform")
	}

	for _, item := range items {
		post := newSocialPost(account, item)
		inserted, err := u.posts.InsertIfAbsent(ctx, post)
		if err != nil {
			log.WithError(err).WithField("hash", post.Hash).Warn("Failed to insert post, counting as skipped")
			result.Skipped++
			continue
		}
		if !inserted {
			result.Skipped++
			continue
		}
		result.Inserted++

		if shouldAutoConvert(opts, rule, post) {
			stashPreDraft(ctx, u.posts, u.drafts, post, log)
		}
	}

	if err := u.accounts.MarkSynced(ctx, account.ID, u.now()); err != nil {
		log.WithError(err).Error("Failed to stamp last_synced_at")
	}

	u.metrics.RecordImport(string(account.Platform), result.Inserted, result.Skipped, time.Since(start))
	log.WithFields(logrus.Fields{
		"inserted": result.Inserted,
		"skipped":  result.Skipped,
	}).Info("Account import finished")
	return result
}
