package viewconfig

import (
	"fmt"
	"math"
	"sort"
)

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning 권장 위반 (경고만)
type Warning struct {
	Code    string
	Message string
}

// Validate checks all required constraints
// 실패 시 error 반환 (프로그램 중단)
func Validate(cfg *Config) error {
	// === Weighting ===
	if err := validateUnitWeight(cfg.Weighting.DefaultSourceWeight); err != nil {
		return ValidationError{"weighting.default_source_weight", err.Error()}
	}
	for source, w := range cfg.Weighting.Credibility {
		if source == "" {
			return ValidationError{"weighting.credibility", "empty source key"}
		}
		if err := validateUnitWeight(w); err != nil {
			return ValidationError{fmt.Sprintf("weighting.credibility[%s]", source), err.Error()}
		}
	}

	r := cfg.Weighting.Recency
	if !isFinite(r.WindowDays) || r.WindowDays <= 0 {
		return ValidationError{"weighting.recency.window_days", "must be > 0"}
	}
	if err := validateUnitWeight(r.Floor); err != nil {
		return ValidationError{"weighting.recency.floor", err.Error()}
	}
	if err := validateUnitWeight(r.MissingDateWeight); err != nil {
		return ValidationError{"weighting.recency.missing_date_weight", err.Error()}
	}

	// === Aggregation ===
	fb := cfg.Aggregation.Fallback
	for name, v := range map[string]float64{"positive": fb.Positive, "neutral": fb.Neutral, "negative": fb.Negative} {
		if !isFinite(v) || v < 0 || v > 1 {
			return ValidationError{"aggregation.fallback." + name, "must be in [0, 1]"}
		}
	}
	if fb.IsZero() {
		return ValidationError{"aggregation.fallback", "must not be all zero"}
	}
	if !isFinite(cfg.Aggregation.SumTolerance) || cfg.Aggregation.SumTolerance <= 0 || cfg.Aggregation.SumTolerance >= 1 {
		return ValidationError{"aggregation.sum_tolerance", "must be in (0, 1)"}
	}

	// === Views ===
	v := cfg.Views
	for name, x := range map[string]float64{
		"strong_positive_threshold": v.StrongPositiveThreshold,
		"mild_positive_threshold":   v.MildPositiveThreshold,
		"mild_negative_threshold":   v.MildNegativeThreshold,
		"strong_negative_threshold": v.StrongNegativeThreshold,
		"max_return":                v.MaxReturn,
		"mild_positive_return":      v.MildPositiveReturn,
		"mild_negative_return":      v.MildNegativeReturn,
		"min_return":                v.MinReturn,
	} {
		if !isFinite(x) {
			return ValidationError{"views." + name, "must be finite"}
		}
	}

	// strong_neg < mild_neg <= 0 <= mild_pos < strong_pos
	if !(v.StrongNegativeThreshold < v.MildNegativeThreshold) {
		return ValidationError{"views.strong_negative_threshold", "must be < mild_negative_threshold"}
	}
	if v.MildNegativeThreshold > 0 {
		return ValidationError{"views.mild_negative_threshold", "must be <= 0"}
	}
	if v.MildPositiveThreshold < 0 {
		return ValidationError{"views.mild_positive_threshold", "must be >= 0"}
	}
	if !(v.MildPositiveThreshold < v.StrongPositiveThreshold) {
		return ValidationError{"views.strong_positive_threshold", "must be > mild_positive_threshold"}
	}

	// min <= mild_neg <= 0 <= mild_pos <= max
	if v.MinReturn > v.MildNegativeReturn {
		return ValidationError{"views.min_return", "must be <= mild_negative_return"}
	}
	if v.MildNegativeReturn > 0 {
		return ValidationError{"views.mild_negative_return", "must be <= 0"}
	}
	if v.MildPositiveReturn < 0 {
		return ValidationError{"views.mild_positive_return", "must be >= 0"}
	}
	if v.MildPositiveReturn > v.MaxReturn {
		return ValidationError{"views.max_return", "must be >= mild_positive_return"}
	}

	return nil
}

// Warn checks recommended constraints
// 경고만 반환 (프로그램 계속)
func Warn(cfg *Config) []Warning {
	var warns []Warning

	fb := cfg.Aggregation.Fallback
	if math.Abs(fb.Sum()-1) > 0.05 {
		warns = append(warns, Warning{
			Code:    "FALLBACK_SUM",
			Message: fmt.Sprintf("aggregation.fallback sums to %.4f", fb.Sum()),
		})
	}
	if fb.Score() != 0 {
		warns = append(warns, Warning{
			Code:    "FALLBACK_BIASED",
			Message: fmt.Sprintf("aggregation.fallback has non-zero score %.4f", fb.Score()),
		})
	}

	// source weight below the recency floor breaks weight >= floor and combined >= floor^2
	floor := cfg.Weighting.Recency.Floor
	for _, source := range sortedSources(cfg.Weighting.Credibility) {
		if w := cfg.Weighting.Credibility[source]; w < floor {
			warns = append(warns, Warning{
				Code:    "LOW_CREDIBILITY",
				Message: fmt.Sprintf("credibility[%s]=%.2f is below recency floor %.2f", source, w, floor),
			})
		}
	}
	if cfg.Weighting.DefaultSourceWeight < floor {
		warns = append(warns, Warning{
			Code:    "LOW_CREDIBILITY",
			Message: fmt.Sprintf("default_source_weight=%.2f is below recency floor %.2f", cfg.Weighting.DefaultSourceWeight, floor),
		})
	}

	if len(cfg.Weighting.Credibility) == 0 {
		warns = append(warns, Warning{
			Code:    "EMPTY_CREDIBILITY",
			Message: "all sources will use default_source_weight",
		})
	}

	return warns
}

func sortedSources(table map[string]float64) []string {
	keys := make([]string, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// validateUnitWeight requires a weight in (0, 1]
func validateUnitWeight(w float64) error {
	if !isFinite(w) || w <= 0 || w > 1 {
		return fmt.Errorf("must be in (0, 1], got %v", w)
	}
	return nil
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
