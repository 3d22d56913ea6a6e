package usecase

import (
	"context"
	"time"

	"chatsaid-backend/internal/social/domain"
	"chatsaid-backend/internal/social/repository"
	"chatsaid-backend/pkg/dedup"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

// newSocialPost maps a fetched item onto a new row for account. The hash
// covers the account platform and handle plus the item's content fields.
func newSocialPost(account *domain.SocialAccount, item domain.FetchedItem) *domain.SocialPost {
	post := &domain.SocialPost{
		AccountID:      account.ID,
		PlatformPostID: item.PlatformPostID,
		URL:            item.URL,
		Title:          item.Title,
		Body:           item.Body,
		Media:          datatypes.JSONSlice[domain.Media](append([]domain.Media{}, item.Media...)),
		Hash: dedup.Hash(dedup.Input{
			Platform: string(account.Platform),
			Handle:   account.Handle,
			Title:    item.Title,
			Body:     item.Body,
			URL:      item.URL,
			PostedAt: item.PostedAt,
		}),
		IngestMeta:   datatypes.JSONMap{},
		ReviewStatus: domain.ReviewStatusNew,
	}
	for k, v := range item.IngestMeta {
		post.IngestMeta[k] = v
	}
	if item.PostedAt != "" {
		if t, err := time.Parse(time.RFC3339, item.PostedAt); err == nil {
			post.PostedAt = &t
		}
	}
	return post
}

// shouldAutoConvert is the auto-convert gate: the caller and the rule must
// both ask for it, and the item has to pass the rule's filters.
func shouldAutoConvert(opts ImportOptions, rule *domain.ImportRule, post *domain.SocialPost) bool {
	if !opts.AutoConvert || rule == nil || !rule.AutoConvert {
		return false
	}
	return rule.Filters.Data().Matches(post.Title + "\n" + post.Body)
}

// stashPreDraft builds a draft for post and stores it under
// ingest_meta.pre_draft. Failures are logged and otherwise ignored.
func stashPreDraft(ctx context.Context, posts repository.SocialPostRepository, drafts DraftBuilder, post *domain.SocialPost, log *logrus.Entry) {
	if drafts == nil {
		return
	}
	entry := log.WithFields(logrus.Fields{"account_id": post.AccountID, "post_id": post.ID})

	draft, _, err := drafts.BuildDraftFromSocialPost(ctx, post.ID)
	if err != nil {
		entry.WithError(err).Warn("Auto-convert: failed to build draft")
		return
	}

	meta := datatypes.JSONMap{}
	for k, v := range post.IngestMeta {
		meta[k] = v
	}
	meta[domain.MetaPreDraft] = draft.ToMap()

	if err := posts.UpdateIngestMeta(ctx, post.ID, meta); err != nil {
		entry.WithError(err).Warn("Auto-convert: failed to store pre_draft")
		return
	}
	post.IngestMeta = meta
}

func ruleOrDefault(ctx context.Context, rules repository.ImportRuleRepository, accountID string, log *logrus.Entry) *domain.ImportRule {
	rule, err := rules.FindByAccountID(ctx, accountID)
	if err != nil {
		log.WithError(err).WithField("account_id", accountID).Warn("Failed to load import rule, using defaults")
	}
	if rule == nil {
		return domain.DefaultImportRule(accountID)
	}
	return rule
}
