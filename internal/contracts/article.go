package contracts

import (
	"strings"
	"time"
)

// Article is one news item for one instrument
type Article struct {
	Title       string     `json:"title"`
	Text        string     `json:"text,omitempty"`         // 비어있으면 제목으로 분류 (title fallback)
	Link        string     `json:"link,omitempty"`
	Source      string     `json:"source,omitempty"`       // domain, compared case-insensitively
	PublishedAt *time.Time `json:"published_at,omitempty"` // nil이면 기본 recency weight
}

// HasText reports whether the body text is usable for classification
func (a Article) HasText() bool {
	return strings.TrimSpace(a.Text) != ""
}

// ScoredArticle pairs an article with its classifier output
type ScoredArticle struct {
	Article       Article               `json:"article"`
	Distribution  SentimentDistribution `json:"distribution"`
	TitleFallback bool                  `json:"title_fallback"`
}
