package contracts

import "context"

// Classifier scores a text span into a sentiment distribution.
// An all-zero result is the classifier's own guard for degenerate input, not an error.
// ⭐ SSOT: 감성 분류기 인터페이스
type Classifier interface {
	Classify(ctx context.Context, text string) (SentimentDistribution, error)
}

// ArticleSource discovers candidate articles for an instrument,
// already filtered and deduplicated
type ArticleSource interface {
	FetchArticles(ctx context.Context, instrument string, limit int) ([]Article, error)
}

// MarketCapProvider supplies market capitalizations (optimizer input only)
type MarketCapProvider interface {
	GetMarketCaps(ctx context.Context, instruments []string) (map[string]float64, error)
}

// CredibilitySource supplies source credibility overrides
type CredibilitySource interface {
	LoadCredibility(ctx context.Context) (map[string]float64, error)
}

// TextExtractor fetches the body text behind an article link.
// A failed extraction leaves the article text empty, which triggers title fallback.
type TextExtractor interface {
	ExtractText(ctx context.Context, link string) (string, error)
}
