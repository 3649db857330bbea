package viewconfig

import (
	"github.com/wonny/newsviews/internal/contracts"
)

// Config is the immutable parameter set of the view pipeline.
// It is loaded once per process and passed by value into the weighting model,
// the aggregator and the view generator; none of them read global state.
// ⭐ SSOT: 가중치 테이블, 폴백 값, threshold band는 여기서만 정의
type Config struct {
	Meta        Meta        `yaml:"meta" json:"meta"`
	Weighting   Weighting   `yaml:"weighting" json:"weighting"`
	Aggregation Aggregation `yaml:"aggregation" json:"aggregation"`
	Views       Views       `yaml:"views" json:"views"`
}

// Meta 메타 정보
type Meta struct {
	ConfigID string `yaml:"config_id" json:"config_id"`
	Version  string `yaml:"version" json:"version"`
}

// Weighting parameterizes the per-article trust weight
type Weighting struct {
	// Unknown and missing sources get this weight
	DefaultSourceWeight float64 `yaml:"default_source_weight" json:"default_source_weight"`

	// Credibility maps a lower-cased domain to its weight.
	// Lookup is exact: subdomains and aggregator redirects need their own entries.
	Credibility map[string]float64 `yaml:"credibility" json:"credibility"`

	Recency Recency `yaml:"recency" json:"recency"`
}

// Recency parameterizes linear decay: max(Floor, 1 - days/WindowDays)
type Recency struct {
	WindowDays        float64 `yaml:"window_days" json:"window_days"`
	Floor             float64 `yaml:"floor" json:"floor"`
	MissingDateWeight float64 `yaml:"missing_date_weight" json:"missing_date_weight"`
}

// Aggregation parameterizes the per-instrument reduction
type Aggregation struct {
	// Fallback is returned when no article carries weight.
	// 0.33 each (not 1/3): a low-precision "no information" marker.
	Fallback contracts.SentimentDistribution `yaml:"fallback" json:"fallback"`

	// SumTolerance bounds |sum-1| for classifier outputs at the aggregator input
	SumTolerance float64 `yaml:"sum_tolerance" json:"sum_tolerance"`
}

// Views holds the score threshold bands and their return adjustments.
// Bands are evaluated strong_positive, mild_positive, strong_negative, mild_negative;
// the first match wins, everything else is neutral.
type Views struct {
	StrongPositiveThreshold float64 `yaml:"strong_positive_threshold" json:"strong_positive_threshold"` // score > t
	MildPositiveThreshold   float64 `yaml:"mild_positive_threshold" json:"mild_positive_threshold"`     // score > t
	MildNegativeThreshold   float64 `yaml:"mild_negative_threshold" json:"mild_negative_threshold"`     // score < t
	StrongNegativeThreshold float64 `yaml:"strong_negative_threshold" json:"strong_negative_threshold"` // score < t

	MaxReturn          float64 `yaml:"max_return" json:"max_return"`
	MildPositiveReturn float64 `yaml:"mild_positive_return" json:"mild_positive_return"`
	MildNegativeReturn float64 `yaml:"mild_negative_return" json:"mild_negative_return"`
	MinReturn          float64 `yaml:"min_return" json:"min_return"`
}

// DefaultCredibility is the built-in source table.
// Wire services and flagship financial press near 1.0, broadcasters ~0.9,
// retail and social platforms at the 0.5 floor.
func DefaultCredibility() map[string]float64 {
	return map[string]float64{
		"bloomberg.com":       1.0,
		"reuters.com":         1.0,
		"apnews.com":          0.95,
		"wsj.com":             0.95,
		"ft.com":              0.95,
		"cnbc.com":            0.9,
		"bbc.com":             0.9,
		"marketwatch.com":     0.85,
		"barrons.com":         0.85,
		"finance.yahoo.com":   0.8,
		"forbes.com":          0.75,
		"businessinsider.com": 0.7,
		"seekingalpha.com":    0.6,
		"fool.com":            0.6,
		"benzinga.com":        0.6,
		"reddit.com":          0.5,
		"twitter.com":         0.5,
		"x.com":               0.5,
		"stocktwits.com":      0.5,
	}
}

// Default returns the documented defaults
func Default() Config {
	return Config{
		Meta: Meta{
			ConfigID: "default",
			Version:  "1",
		},
		Weighting: Weighting{
			DefaultSourceWeight: 0.5,
			Credibility:         DefaultCredibility(),
			Recency: Recency{
				WindowDays:        30,
				Floor:             0.5,
				MissingDateWeight: 0.5,
			},
		},
		Aggregation: Aggregation{
			Fallback: contracts.SentimentDistribution{
				Positive: 0.33,
				Neutral:  0.33,
				Negative: 0.33,
			},
			SumTolerance: 1e-6,
		},
		Views: Views{
			StrongPositiveThreshold: 0.5,
			MildPositiveThreshold:   0.2,
			MildNegativeThreshold:   -0.2,
			StrongNegativeThreshold: -0.5,
			MaxReturn:               0.03,
			MildPositiveReturn:      0.02,
			MildNegativeReturn:      -0.01,
			MinReturn:               -0.02,
		},
	}
}
