package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"chatsaid-backend/internal/social/domain"

	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
)

const (
	kindEmail      = "email"
	maxEmailBytes  = 10 << 20
	metaFrom       = "from"
	metaAttachment = "attachments"
)

// EmailFetcher never polls. Email posts arrive through the inbound webhook,
// which writes them to storage directly.
type EmailFetcher struct{}

func (EmailFetcher) Fetch(context.Context, *domain.SocialAccount) ([]domain.FetchedItem, error) {
	return []domain.FetchedItem{}, nil
}

// ParseEmail normalizes an RFC 5322 message. The body is the first
// text/plain part, else the first text/html part. Attachments become
// media entries with a cid: URL.
func ParseEmail(r io.Reader) (domain.FetchedItem, error) {
	var item domain.FetchedItem

	mr, err := mail.CreateReader(io.LimitReader(r, maxEmailBytes))
	if err != nil && !message.IsUnknownCharset(err) {
		return item, fmt.Errorf("%w: read message: %v", ErrParse, err)
	}

	h := mr.Header
	item.Title, _ = h.Subject()
	item.Title = strings.TrimSpace(item.Title)
	item.PlatformPostID, _ = h.MessageID()
	if date, ok := ParseDate(h.Get("Date")); ok {
		item.PostedAt = FormatDate(date)
	} else if date, err := h.Date(); err == nil {
		item.PostedAt = FormatDate(date)
	}
	item.IngestMeta = map[string]any{domain.MetaKind: kindEmail}
	if from, err := h.AddressList("From"); err == nil && len(from) > 0 {
		item.IngestMeta[metaFrom] = from[0].Address
	}

	var plain, html string
	attachments := 0
	for {
		p, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil && !message.IsUnknownCharset(err) {
			return item, fmt.Errorf("%w: read part: %v", ErrParse, err)
		}
		if p == nil {
			continue
		}

		switch ph := p.Header.(type) {
		case *mail.InlineHeader:
			ct, _, _ := ph.ContentType()
			if ct != "text/plain" && ct != "text/html" {
				continue
			}
			b, err := io.ReadAll(p.Body)
			if err != nil {
				return item, fmt.Errorf("%w: read body: %v", ErrParse, err)
			}
			if ct == "text/plain" && plain == "" {
				plain = string(b)
			}
			if ct == "text/html" && html == "" {
				html = string(b)
			}
		case *mail.AttachmentHeader:
			name, _ := ph.Filename()
			ct, _, _ := ph.ContentType()
			if name == "" {
				name = fmt.Sprintf("attachment-%d", attachments+1)
			}
			item.Media = append(item.Media, domain.Media{URL: "cid:" + name, Type: ct})
			attachments++
		}
	}

	item.Body = strings.TrimSpace(plain)
	if item.Body == "" {
		item.Body = strings.TrimSpace(html)
	}
	if attachments > 0 {
		item.IngestMeta[metaAttachment] = attachments
	}
	return item, nil
}
