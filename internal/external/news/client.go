package news

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/mmcdole/gofeed/rss"

	"github.com/wonny/newsviews/internal/contracts"
	"github.com/wonny/newsviews/pkg/config"
	"github.com/wonny/newsviews/pkg/httputil"
	"github.com/wonny/newsviews/pkg/logger"
)

// Client discovers articles through the Google News RSS search feed
// and fills in body text via a TextExtractor.
// ⭐ SSOT: 뉴스 검색 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	extractor  contracts.TextExtractor
	logger     *logger.Logger
	baseURL    string
	lang       string
	region     string
}

// NewClient creates a new news client. extractor may be nil (titles only).
func NewClient(httpClient *httputil.Client, extractor contracts.TextExtractor, cfg config.NewsConfig, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		extractor:  extractor,
		logger:     log.WithComponent("news"),
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		lang:       cfg.Lang,
		region:     cfg.Region,
	}
}

// SearchURL builds the feed URL for a query
func (c *Client) SearchURL(query string) string {
	params := url.Values{}
	params.Set("q", query)
	params.Set("hl", fmt.Sprintf("%s-%s", c.lang, c.region))
	params.Set("gl", c.region)
	params.Set("ceid", fmt.Sprintf("%s:%s", c.region, c.lang))
	return fmt.Sprintf("%s/rss/search?%s", c.baseURL, params.Encode())
}

// FetchArticles implements contracts.ArticleSource.
// Returns at most limit articles, deduplicated by link, in feed order.
func (c *Client) FetchArticles(ctx context.Context, instrument string, limit int) ([]contracts.Article, error) {
	resp, err := c.httpClient.Get(ctx, c.SearchURL(instrument))
	if err != nil {
		return nil, fmt.Errorf("news search failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &httputil.StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	articles, err := ParseFeed(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse news feed: %w", err)
	}

	if limit > 0 && len(articles) > limit {
		articles = articles[:limit]
	}

	if c.extractor != nil {
		for i := range articles {
			text, err := c.extractor.ExtractText(ctx, articles[i].Link)
			if err != nil {
				// 본문 추출 실패 → 빈 텍스트 → title fallback
				c.logger.WithFields(map[string]interface{}{
					"instrument": instrument,
					"link":       articles[i].Link,
					"error":      err.Error(),
				}).Warn("Article extraction failed")
				continue
			}
			articles[i].Text = text
		}
	}

	c.logger.WithFields(map[string]interface{}{
		"instrument": instrument,
		"count":      len(articles),
	}).Debug("Fetched articles")

	return articles, nil
}

// ParseFeed converts an RSS document into articles, dropping duplicate links.
// The RSS-specific parser is used because the universal gofeed model drops <source url>.
func ParseFeed(r io.Reader) ([]contracts.Article, error) {
	feed, err := (&rss.Parser{}).Parse(r)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(feed.Items))
	articles := make([]contracts.Article, 0, len(feed.Items))

	for _, item := range feed.Items {
		link := strings.TrimSpace(item.Link)
		if link == "" || seen[link] {
			continue
		}
		seen[link] = true

		var publisher, publisherURL string
		if item.Source != nil {
			publisher, publisherURL = item.Source.Title, item.Source.URL
		}

		a := contracts.Article{
			Title:  cleanTitle(item.Title, publisher),
			Link:   link,
			Source: SourceDomain(publisherURL),
		}
		if item.PubDateParsed != nil {
			t := item.PubDateParsed.UTC()
			a.PublishedAt = &t
		}
		articles = append(articles, a)
	}

	return articles, nil
}

// SourceDomain reduces a publisher URL to its lower-cased host without "www."
func SourceDomain(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	return strings.TrimPrefix(host, "www.")
}

// cleanTitle drops the " - Publisher" suffix the feed appends
func cleanTitle(title, publisher string) string {
	title = strings.TrimSpace(title)
	publisher = strings.TrimSpace(publisher)
	if publisher != "" {
		title = strings.TrimSuffix(title, " - "+publisher)
	}
	return title
}
