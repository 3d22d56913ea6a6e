package usecase

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"chatsaid-backend/internal/social/domain"
	"chatsaid-backend/internal/social/repository"
	"chatsaid-backend/pkg/ai"
	"chatsaid-backend/pkg/logger"
	"chatsaid-backend/pkg/metrics"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/sirupsen/logrus"
)

const imagePromptMaxRunes = 120

var htmlTagPattern = regexp.MustCompile(`(?i)<(p|br|div|a|img|b|i|em|strong|ul|ol|li|h[1-6]|blockquote|span|table|pre|code)[\s/>]`)

// DraftService implements DraftBuilder. Both collaborators are optional.
type DraftService struct {
	accounts   repository.AccountRepository
	rules      repository.ImportRuleRepository
	posts      repository.SocialPostRepository
	summarizer ai.Summarizer
	images     ImageGenerator
	metrics    *metrics.Collector
	log        *logrus.Entry
}

func NewDraftService(
	accounts repository.AccountRepository,
	rules repository.ImportRuleRepository,
	posts repository.SocialPostRepository,
	log *logrus.Logger,
) *DraftService {
	return &DraftService{
		accounts: accounts,
		rules:    rules,
		posts:    posts,
		log:      logger.Component(log, "draft"),
	}
}

func (s *DraftService) SetSummarizer(svc ai.Summarizer) {
	s.summarizer = svc
}

func (s *DraftService) SetImageGenerator(gen ImageGenerator) {
	s.images = gen
}

func (s *DraftService) SetMetrics(m *metrics.Collector) {
	s.metrics = m
}

func (s *DraftService) BuildDraftFromSocialPost(ctx context.Context, postID string) (*domain.DraftPayload, *domain.SocialPost, error) {
	post, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return nil, nil, err
	}
	if post == nil {
		return nil, nil, fmt.Errorf("social post %s: %w", postID, domain.ErrNotFound)
	}

	account, err := s.accounts.FindByID(ctx, post.AccountID)
	if err != nil {
		return nil, nil, err
	}
	if account == nil {
		return nil, nil, fmt.Errorf("account %s of post %s: %w", post.AccountID, postID, domain.ErrNotFound)
	}

	log := s.log.WithFields(logrus.Fields{"post_id": post.ID, "account_id": account.ID})
	rule := ruleOrDefault(ctx, s.rules, account.ID, log)

	draft := baseDraft(account, post, rule)
	s.summarize(ctx, draft, log)
	if rule.ImagePolicy == domain.ImagePolicyAutoGenerate {
		s.generateImage(ctx, draft, log)
	}

	return draft, post, nil
}

func baseDraft(account *domain.SocialAccount, post *domain.SocialPost, rule *domain.ImportRule) *domain.DraftPayload {
	media := make([]domain.Media, 0, len(post.Media))
	media = append(media, post.Media...)

	return &domain.DraftPayload{
		Title:   post.Title,
		Body:    post.Body,
		Tags:    []string{},
		Media:   media,
		Branch:  rule.Branch,
		Persona: rule.PersonaSlug,
		Provenance: domain.Provenance{
			Platform: string(account.Platform),
			URL:      post.URL,
			Handle:   account.Handle,
		},
	}
}

// summarize keeps the base draft when the summarizer fails; empty fields
// in the suggestion keep their base values.
func (s *DraftService) summarize(ctx context.Context, draft *domain.DraftPayload, log *logrus.Entry) {
	if s.summarizer == nil {
		return
	}

	req := ai.DraftRequest{Text: strings.TrimSpace(draft.Title + "\n\n" + toMarkdown(draft.Body))}
	if draft.Persona != nil {
		req.Persona = *draft.Persona
	}
	if draft.Branch != nil {
		req.Branch = *draft.Branch
	}

	suggestion, err := s.summarizer.TightenDraft(ctx, req)
	if err == nil && suggestion == nil {
		err = fmt.Errorf("summarizer returned no suggestion")
	}
	s.metrics.RecordEnrichment("summary", err)
	if err != nil {
		log.WithError(err).Warn("Summarization failed, keeping base draft")
		draft.Enrichment.SummaryError = err.Error()
		return
	}

	if suggestion.Title != "" {
		draft.Title = suggestion.Title
	}
	if suggestion.Body != "" {
		draft.Body = suggestion.Body
	}
	if len(suggestion.Tags) > 0 {
		draft.Tags = suggestion.Tags
	}
	draft.Enrichment.Summarized = true
}

func (s *DraftService) generateImage(ctx context.Context, draft *domain.DraftPayload, log *logrus.Entry) {
	if s.images == nil {
		return
	}

	prompt := truncateRunes(strings.TrimSpace(draft.Title), imagePromptMaxRunes)
	if prompt == "" {
		prompt = truncateRunes(strings.TrimSpace(toMarkdown(draft.Body)), imagePromptMaxRunes)
	}

	ids, err := s.images.Generate(ctx, prompt)
	if err == nil && len(ids) == 0 {
		err = fmt.Errorf("image generator returned no media")
	}
	s.metrics.RecordEnrichment("image", err)
	if err != nil {
		log.WithError(err).Warn("Image generation failed, draft has no generated image")
		draft.Enrichment.ImageError = err.Error()
		return
	}

	draft.Media = append(draft.Media, domain.Media{URL: ids[0], Type: "image"})
	draft.Enrichment.ImageGenerated = true
}

// toMarkdown converts HTML bodies to Markdown for collaborators and leaves
// plain text alone. The draft itself keeps the stored body.
func toMarkdown(body string) string {
	if !htmlTagPattern.MatchString(body) {
		return body
	}
	md, err := htmltomarkdown.ConvertString(body)
	if err != nil {
		return body
	}
	return strings.TrimSpace(md)
}

func truncateRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
