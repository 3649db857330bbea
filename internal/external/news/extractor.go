package news

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/newsviews/pkg/httputil"
	"github.com/wonny/newsviews/pkg/logger"
)

// minParagraphLength drops navigation crumbs and captions
const minParagraphLength = 40

// Extractor pulls readable body text out of an article page
type Extractor struct {
	httpClient *httputil.Client
	logger     *logger.Logger
}

// NewExtractor creates a new HTML text extractor
func NewExtractor(httpClient *httputil.Client, log *logger.Logger) *Extractor {
	return &Extractor{
		httpClient: httpClient,
		logger:     log.WithComponent("extractor"),
	}
}

// ExtractText implements contracts.TextExtractor
func (e *Extractor) ExtractText(ctx context.Context, link string) (string, error) {
	resp, err := e.httpClient.Get(ctx, link)
	if err != nil {
		return "", fmt.Errorf("fetch article failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &httputil.StatusError{StatusCode: resp.StatusCode}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parse article html: %w", err)
	}

	return ExtractFromDocument(doc), nil
}

// ExtractFromDocument joins paragraph text, preferring <article> content
func ExtractFromDocument(doc *goquery.Document) string {
	doc.Find("script, style, nav, header, footer, aside").Remove()

	text := collectParagraphs(doc.Find("article p"))
	if text == "" {
		text = collectParagraphs(doc.Find("p"))
	}
	return text
}

func collectParagraphs(sel *goquery.Selection) string {
	var parts []string
	sel.Each(func(i int, p *goquery.Selection) {
		t := strings.Join(strings.Fields(p.Text()), " ")
		if len(t) >= minParagraphLength {
			parts = append(parts, t)
		}
	})
	return strings.Join(parts, "\n\n")
}
