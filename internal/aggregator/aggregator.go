package aggregator

import (
	"fmt"
	"time"

	"github.com/wonny/newsviews/internal/contracts"
	"github.com/wonny/newsviews/internal/viewconfig"
	"github.com/wonny/newsviews/internal/weighting"
	"github.com/wonny/newsviews/pkg/logger"
	"github.com/wonny/newsviews/pkg/metrics"
)

// Result is the aggregated sentiment of one instrument
type Result struct {
	Instrument     string                          `json:"instrument"`
	Distribution   contracts.SentimentDistribution `json:"distribution"`
	TotalWeight    float64                         `json:"total_weight"`
	ArticleCount   int                             `json:"article_count"`
	TitleFallbacks int                             `json:"title_fallbacks"`
	UsedFallback   bool                            `json:"used_fallback"` // uniform "no information" distribution
}

// Aggregator reduces weighted per-article distributions into one normalized distribution
// ⭐ SSOT: 종목별 감성 집계 (가중합 → 정규화 → 폴백)
type Aggregator struct {
	model     *weighting.Model
	fallback  contracts.SentimentDistribution
	tolerance float64
	logger    *logger.Logger
	metrics   *metrics.Metrics
}

// New creates an aggregator over a weighting model
func New(model *weighting.Model, cfg viewconfig.Aggregation, log *logger.Logger, m *metrics.Metrics) *Aggregator {
	return &Aggregator{
		model:     model,
		fallback:  cfg.Fallback,
		tolerance: cfg.SumTolerance,
		logger:    log.WithComponent("aggregator"),
		metrics:   m,
	}
}

// Aggregate computes sum(w_i * d_i) / sum(w_i * |d_i|).
// All-zero distributions contribute nothing; with zero total weight the
// configured fallback is returned unchanged. Malformed classifier outputs
// are rejected with ErrMalformedDistribution.
func (a *Aggregator) Aggregate(instrument string, scored []contracts.ScoredArticle, now time.Time) (Result, error) {
	result := Result{
		Instrument:   instrument,
		ArticleCount: len(scored),
	}

	var sum contracts.SentimentDistribution
	totalWeight := 0.0

	for i, sa := range scored {
		if err := sa.Distribution.Validate(a.tolerance); err != nil {
			return Result{}, fmt.Errorf("instrument %s article %d: %w", instrument, i, err)
		}
		if sa.TitleFallback {
			result.TitleFallbacks++
		}

		w := a.model.Weight(sa.Article, now)
		contribution := sa.Distribution.Scale(w)

		sum = sum.Add(contribution)
		totalWeight += contribution.Sum()
	}

	result.TotalWeight = totalWeight

	if totalWeight <= 0 {
		a.logger.WithFields(map[string]interface{}{
			"instrument": instrument,
			"articles":   len(scored),
		}).Debug("No weighted sentiment, using uniform fallback")
		a.metrics.ObserveUniformFallback(instrument)

		result.Distribution = a.fallback
		result.UsedFallback = true
		return result, nil
	}

	result.Distribution = contracts.SentimentDistribution{
		Positive: sum.Positive / totalWeight,
		Neutral:  sum.Neutral / totalWeight,
		Negative: sum.Negative / totalWeight,
	}
	return result, nil
}
