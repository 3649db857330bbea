package aggregator

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/newsviews/internal/contracts"
	"github.com/wonny/newsviews/pkg/logger"
	"github.com/wonny/newsviews/pkg/metrics"
)

const defaultScoreConcurrency = 4

// Scorer runs the classifier over an instrument's articles.
// Body text is classified when present, otherwise the title (title fallback).
type Scorer struct {
	classifier  contracts.Classifier
	logger      *logger.Logger
	metrics     *metrics.Metrics
	concurrency int
}

// NewScorer creates a new article scorer
func NewScorer(classifier contracts.Classifier, log *logger.Logger, m *metrics.Metrics) *Scorer {
	return &Scorer{
		classifier:  classifier,
		logger:      log.WithComponent("scorer"),
		metrics:     m,
		concurrency: defaultScoreConcurrency,
	}
}

// WithConcurrency bounds parallel classifier calls per instrument
func (s *Scorer) WithConcurrency(n int) *Scorer {
	if n > 0 {
		s.concurrency = n
	}
	return s
}

// Score classifies every article; output order matches input order.
// A classifier error for any article fails the whole instrument.
func (s *Scorer) Score(ctx context.Context, instrument string, articles []contracts.Article) ([]contracts.ScoredArticle, error) {
	scored := make([]contracts.ScoredArticle, len(articles))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, article := range articles {
		g.Go(func() error {
			text := article.Text
			titleFallback := !article.HasText()
			if titleFallback {
				text = article.Title
				s.logger.WithFields(map[string]interface{}{
					"instrument": instrument,
					"title":      article.Title,
					"reason":     "empty article text",
				}).Warn("Classifying title instead of body")
			}

			dist, err := s.classifier.Classify(gctx, text)
			if err != nil {
				return fmt.Errorf("classify article %d (%s): %w", i, article.Link, err)
			}

			scored[i] = contracts.ScoredArticle{
				Article:       article,
				Distribution:  dist,
				TitleFallback: titleFallback,
			}
			s.metrics.ObserveArticle(instrument, titleFallback)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return scored, nil
}
