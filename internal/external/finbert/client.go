package finbert

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/wonny/newsviews/internal/contracts"
	"github.com/wonny/newsviews/pkg/config"
	"github.com/wonny/newsviews/pkg/httputil"
	"github.com/wonny/newsviews/pkg/logger"
	"github.com/wonny/newsviews/pkg/redis"
)

const (
	// ModelName keys cached results; bump when the server model changes
	ModelName = "prosusai-finbert"

	// MaxTextLength caps what is sent to the server (characters)
	MaxTextLength = 50000

	predictPath = "/predict"
)

// Client classifies text via an external FinBERT inference server
// ⭐ SSOT: FinBERT 서버 호출은 이 클라이언트에서만
type Client struct {
	httpClient    *httputil.Client
	cache         *redis.Cache
	logger        *logger.Logger
	baseURL       string
	minTextLength int
	cacheTTL      time.Duration
}

type predictRequest struct {
	Text string `json:"text"`
}

// predictResponse accepts either named fields or a raw
// [negative, neutral, positive] probability vector
type predictResponse struct {
	Positive      float64   `json:"positive"`
	Neutral       float64   `json:"neutral"`
	Negative      float64   `json:"negative"`
	Probabilities []float64 `json:"probabilities,omitempty"`
}

// NewClient creates a new FinBERT client. cache may be nil.
func NewClient(httpClient *httputil.Client, cache *redis.Cache, cfg config.FinBERTConfig, log *logger.Logger) *Client {
	return &Client{
		httpClient:    httpClient,
		cache:         cache,
		logger:        log.WithComponent("finbert"),
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		minTextLength: cfg.MinTextLength,
		cacheTTL:      cfg.CacheTTL,
	}
}

// Classify implements contracts.Classifier.
// Texts shorter than the minimum length return {0,0,0} without a server call;
// the aggregator treats that as a zero-weight contribution.
func (c *Client) Classify(ctx context.Context, text string) (contracts.SentimentDistribution, error) {
	if utf8.RuneCountInString(text) < c.minTextLength {
		return contracts.SentimentDistribution{}, nil
	}
	text = Truncate(text, MaxTextLength)

	key := redis.ClassificationKey(ModelName, text)
	if c.cache != nil {
		var cached contracts.SentimentDistribution
		hit, err := c.cache.Get(ctx, key, &cached)
		if err != nil {
			// 캐시 장애는 분류를 막지 않음
			c.logger.WithError(err).Warn("Classification cache read failed")
		} else if hit {
			return cached, nil
		}
	}

	dist, err := c.predict(ctx, text)
	if err != nil {
		return contracts.SentimentDistribution{}, err
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, key, dist, c.cacheTTL); err != nil {
			c.logger.WithError(err).Warn("Classification cache write failed")
		}
	}

	return dist, nil
}

func (c *Client) predict(ctx context.Context, text string) (contracts.SentimentDistribution, error) {
	resp, err := c.httpClient.PostJSON(ctx, c.baseURL+predictPath, predictRequest{Text: text})
	if err != nil {
		return contracts.SentimentDistribution{}, fmt.Errorf("finbert request failed: %w", err)
	}

	var out predictResponse
	if err := httputil.DecodeJSON(resp, &out); err != nil {
		return contracts.SentimentDistribution{}, fmt.Errorf("finbert response: %w", err)
	}

	if len(out.Probabilities) > 0 {
		return contracts.FromLabelOrder(out.Probabilities)
	}

	dist := contracts.SentimentDistribution{
		Positive: out.Positive,
		Neutral:  out.Neutral,
		Negative: out.Negative,
	}

	c.logger.WithFields(map[string]interface{}{
		"chars":    utf8.RuneCountInString(text),
		"positive": dist.Positive,
		"negative": dist.Negative,
	}).Debug("Classified text")

	return dist, nil
}

// Truncate cuts s to at most n characters
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
