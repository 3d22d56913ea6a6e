package fetcher

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"chatsaid-backend/internal/social/domain"

	"golang.org/x/net/html/charset"
)

const nsMedia = "http://search.yahoo.com/mrss/"

// RSSFetcher reads RSS 2.0, RSS 1.0 and Atom feeds over HTTP.
type RSSFetcher struct {
	client   *http.Client
	maxBytes int64
}

func NewRSSFetcher(client *http.Client) *RSSFetcher {
	return &RSSFetcher{client: client, maxBytes: defaultMaxBytes}
}

// Fetch resolves the feed URL from config rss_url, falling back to the handle.
func (f *RSSFetcher) Fetch(ctx context.Context, account *domain.SocialAccount) ([]domain.FetchedItem, error) {
	feedURL, err := feedURLFor(account)
	if err != nil {
		return nil, err
	}
	return f.FetchURL(ctx, feedURL, kindRSS)
}

// FetchURL downloads and parses feedURL, tagging each item with kind.
func (f *RSSFetcher) FetchURL(ctx context.Context, feedURL, kind string) ([]domain.FetchedItem, error) {
	if strings.TrimSpace(feedURL) == "" {
		return nil, fmt.Errorf("%w: no feed URL configured", domain.ErrInvalidInput)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request for %s: %v", ErrTransport, feedURL, err)
	}
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml")
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: %v", ErrTransport, feedURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: GET %s: status %d", ErrTransport, feedURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrTransport, feedURL, err)
	}

	items, err := ParseFeed(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].IngestMeta = map[string]any{
			domain.MetaKind: kind,
			metaFeedURL:     feedURL,
		}
	}
	return items, nil
}

func feedURLFor(account *domain.SocialAccount) (string, error) {
	cfg, err := account.PlatformConfig()
	if err != nil {
		return "", err
	}
	if src, ok := cfg.(domain.FeedSource); ok {
		if u := src.FeedURL(); u != "" {
			return u, nil
		}
	}
	return strings.TrimSpace(account.Handle), nil
}

type feedDoc struct {
	XMLName xml.Name
	Channel *struct {
		Items []feedItem `xml:"item"`
	} `xml:"channel"`
	Items   []feedItem `xml:"item"`  // RSS 1.0 (RDF) keeps items at the root
	Entries []feedItem `xml:"entry"` // Atom
}

type feedItem struct {
	GUID           string         `xml:"guid"`
	ID             string         `xml:"id"`
	Links          []feedLink     `xml:"link"`
	Title          string         `xml:"title"`
	Description    string         `xml:"description"`
	Contents       []feedContent  `xml:"content"`
	ContentEncoded string         `xml:"http://purl.org/rss/1.0/modules/content/ encoded"`
	Summary        string         `xml:"summary"`
	PubDate        string         `xml:"pubDate"`
	Published      string         `xml:"published"`
	Updated        string         `xml:"updated"`
	DCDate         string         `xml:"http://purl.org/dc/elements/1.1/ date"`
	Enclosures     []feedMedia    `xml:"enclosure"`
	Thumbnails     []feedMedia    `xml:"http://search.yahoo.com/mrss/ thumbnail"`
	Groups         []feedMediaSet `xml:"http://search.yahoo.com/mrss/ group"`
}

type feedLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Text string `xml:",chardata"`
}

// feedContent covers Atom <content>, bare <content> and <media:content>,
// which share a local name.
type feedContent struct {
	XMLName xml.Name
	URL     string `xml:"url,attr"`
	Type    string `xml:"type,attr"`
	Medium  string `xml:"medium,attr"`
	Width   string `xml:"width,attr"`
	Height  string `xml:"height,attr"`
	Text    string `xml:",innerxml"`
}

type feedMedia struct {
	URL    string `xml:"url,attr"`
	Type   string `xml:"type,attr"`
	Medium string `xml:"medium,attr"`
	Width  string `xml:"width,attr"`
	Height string `xml:"height,attr"`
}

type feedMediaSet struct {
	Contents   []feedContent `xml:"http://search.yahoo.com/mrss/ content"`
	Thumbnails []feedMedia   `xml:"http://search.yahoo.com/mrss/ thumbnail"`
}

// ParseFeed parses an RSS or Atom document into fetched items, in
// document order. IngestMeta is left for the caller to fill.
func ParseFeed(r io.Reader) ([]domain.FetchedItem, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel
	dec.Strict = false

	var doc feedDoc
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	var raw []feedItem
	switch strings.ToLower(doc.XMLName.Local) {
	case "rss":
		if doc.Channel != nil {
			raw = doc.Channel.Items
		}
	case "rdf":
		raw = doc.Items
	case "feed":
		raw = doc.Entries
	default:
		return nil, fmt.Errorf("%w: unexpected root element <%s>", ErrParse, doc.XMLName.Local)
	}

	items := make([]domain.FetchedItem, 0, len(raw))
	for _, it := range raw {
		items = append(items, it.normalize())
	}
	return items, nil
}

func (it feedItem) normalize() domain.FetchedItem {
	link := it.link()
	title := strings.TrimSpace(it.Title)
	return domain.FetchedItem{
		PlatformPostID: firstNonEmpty(it.GUID, it.ID, link, title),
		URL:            link,
		Title:          title,
		Body:           it.body(),
		Media:          it.media(),
		PostedAt:       NormalizeDate(firstNonEmpty(it.PubDate, it.Published, it.Updated, it.DCDate)),
	}
}

// link handles both <link>text</link> and Atom <link href="..."/>,
// preferring the alternate link in Atom.
func (it feedItem) link() string {
	var fallback string
	for _, l := range it.Links {
		if text := strings.TrimSpace(l.Text); text != "" {
			return text
		}
		href := strings.TrimSpace(l.Href)
		if href == "" {
			continue
		}
		if l.Rel == "" || l.Rel == "alternate" {
			return href
		}
		if fallback == "" {
			fallback = href
		}
	}
	return fallback
}

func (it feedItem) body() string {
	if d := strings.TrimSpace(it.Description); d != "" {
		return d
	}
	for _, c := range it.Contents {
		if c.XMLName.Space == nsMedia {
			continue
		}
		if text := strings.TrimSpace(unwrapCDATA(c.Text)); text != "" {
			return text
		}
	}
	if e := strings.TrimSpace(it.ContentEncoded); e != "" {
		return e
	}
	return strings.TrimSpace(it.Summary)
}

func (it feedItem) media() []domain.Media {
	var out []domain.Media
	seen := make(map[string]bool)
	add := func(url, typ, medium, width, height string) {
		url = strings.TrimSpace(url)
		if url == "" || seen[url] {
			return
		}
		seen[url] = true
		if typ == "" {
			typ = medium
		}
		out = append(out, domain.Media{URL: url, Type: typ, Width: atoi(width), Height: atoi(height)})
	}

	for _, e := range it.Enclosures {
		add(e.URL, e.Type, e.Medium, e.Width, e.Height)
	}
	for _, c := range it.Contents {
		if c.XMLName.Space == nsMedia {
			add(c.URL, c.Type, c.Medium, c.Width, c.Height)
		}
	}
	for _, g := range it.Groups {
		for _, c := range g.Contents {
			add(c.URL, c.Type, c.Medium, c.Width, c.Height)
		}
		for _, th := range g.Thumbnails {
			add(th.URL, "image", "", th.Width, th.Height)
		}
	}
	for _, th := range it.Thumbnails {
		add(th.URL, "image", "", th.Width, th.Height)
	}
	if out == nil {
		return []domain.Media{}
	}
	return out
}

// unwrapCDATA is needed because innerxml keeps CDATA markers and entities.
func unwrapCDATA(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "<![CDATA[") && strings.HasSuffix(s, "]]>") {
		return s[len("<![CDATA[") : len(s)-len("]]>")]
	}
	var buf strings.Builder
	dec := xml.NewDecoder(strings.NewReader("<x>" + s + "</x>"))
	dec.Strict = false
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.CharData:
			buf.Write(t)
		case xml.StartElement:
			if t.Name.Local != "x" {
				return s
			}
		}
	}
	return buf.String()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func atoi(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
