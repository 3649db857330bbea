package contracts

import (
	"errors"
	"fmt"
	"math"
)

// ErrMalformedDistribution is returned when a classifier output is not a probability simplex
var ErrMalformedDistribution = errors.New("malformed sentiment distribution")

// SentimentDistribution is a triple over {positive, neutral, negative}.
// Classifier outputs sum to 1 (or are all zero for degenerate input);
// weighted partial sums inside the aggregator do not.
// ⭐ SSOT: 감성 분포 타입은 여기서만 정의
type SentimentDistribution struct {
	Positive float64 `json:"positive" yaml:"positive"`
	Neutral  float64 `json:"neutral" yaml:"neutral"`
	Negative float64 `json:"negative" yaml:"negative"`
}

// Sum returns positive + neutral + negative
func (d SentimentDistribution) Sum() float64 {
	return d.Positive + d.Neutral + d.Negative
}

// IsZero reports whether every component is zero (classifier short-text guard)
func (d SentimentDistribution) IsZero() bool {
	return d.Positive == 0 && d.Neutral == 0 && d.Negative == 0
}

// Scale multiplies every component by w
func (d SentimentDistribution) Scale(w float64) SentimentDistribution {
	return SentimentDistribution{
		Positive: d.Positive * w,
		Neutral:  d.Neutral * w,
		Negative: d.Negative * w,
	}
}

// Add sums two distributions component-wise
func (d SentimentDistribution) Add(o SentimentDistribution) SentimentDistribution {
	return SentimentDistribution{
		Positive: d.Positive + o.Positive,
		Neutral:  d.Neutral + o.Neutral,
		Negative: d.Negative + o.Negative,
	}
}

// Score returns positive - negative, in [-1, 1] for a normalized distribution
func (d SentimentDistribution) Score() float64 {
	return d.Positive - d.Negative
}

// Validate checks a classifier output: components finite and non-negative,
// and either all zero or summing to 1 within tolerance.
func (d SentimentDistribution) Validate(tolerance float64) error {
	for _, v := range []float64{d.Positive, d.Neutral, d.Negative} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite component in %s", ErrMalformedDistribution, d)
		}
		if v < 0 {
			return fmt.Errorf("%w: negative component in %s", ErrMalformedDistribution, d)
		}
	}

	if d.IsZero() {
		return nil
	}

	if sum := d.Sum(); math.Abs(sum-1) > tolerance {
		return fmt.Errorf("%w: components sum to %.6f", ErrMalformedDistribution, sum)
	}

	return nil
}

// String renders the distribution for logs and errors
func (d SentimentDistribution) String() string {
	return fmt.Sprintf("{pos=%.4f neu=%.4f neg=%.4f}", d.Positive, d.Neutral, d.Negative)
}

// FromLabelOrder builds a distribution from a [negative, neutral, positive] vector,
// the label order of ProsusAI/finbert
func FromLabelOrder(probs []float64) (SentimentDistribution, error) {
	if len(probs) != 3 {
		return SentimentDistribution{}, fmt.Errorf("%w: expected 3 probabilities, got %d", ErrMalformedDistribution, len(probs))
	}
	return SentimentDistribution{
		Negative: probs[0],
		Neutral:  probs[1],
		Positive: probs[2],
	}, nil
}
