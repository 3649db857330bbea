package weighting

import (
	"math"
	"time"

	"github.com/wonny/newsviews/internal/contracts"
	"github.com/wonny/newsviews/internal/viewconfig"
)

const hoursPerDay = 24.0

// Model assigns a trust weight to a single article.
// Weight = source credibility * recency decay, both in [floor, 1].
// ⭐ SSOT: 기사 가중치 계산은 여기서만
type Model struct {
	credibility   map[string]float64
	defaultWeight float64
	windowDays    float64
	floor         float64
	missingDate   float64
}

// Breakdown exposes both weight factors for reporting
type Breakdown struct {
	Source  float64 `json:"source"`
	Recency float64 `json:"recency"`
	Weight  float64 `json:"weight"`
}

// NewModel creates a weighting model from configuration.
// The credibility table is copied; later changes to cfg do not leak in.
func NewModel(cfg viewconfig.Weighting) *Model {
	table := make(map[string]float64, len(cfg.Credibility))
	for k, v := range cfg.Credibility {
		table[viewconfig.NormalizeSource(k)] = v
	}

	return &Model{
		credibility:   table,
		defaultWeight: cfg.DefaultSourceWeight,
		windowDays:    cfg.Recency.WindowDays,
		floor:         cfg.Recency.Floor,
		missingDate:   cfg.Recency.MissingDateWeight,
	}
}

// WithOverrides returns a new model whose table is extended (and overridden) by extra
func (m *Model) WithOverrides(extra map[string]float64) *Model {
	table := make(map[string]float64, len(m.credibility)+len(extra))
	for k, v := range m.credibility {
		table[k] = v
	}
	for k, v := range extra {
		if k = viewconfig.NormalizeSource(k); k != "" {
			table[k] = v
		}
	}

	clone := *m
	clone.credibility = table
	return &clone
}

// SourceWeight looks up a source domain; unknown or empty sources get the default
func (m *Model) SourceWeight(source string) float64 {
	if w, ok := m.credibility[viewconfig.NormalizeSource(source)]; ok {
		return w
	}
	return m.defaultWeight
}

// RecencyWeight returns max(floor, 1 - daysOld/windowDays).
// With the defaults the floor is hit at 15 days, not 30.
// Future dates clamp to age 0; a nil date returns the missing-date weight.
func (m *Model) RecencyWeight(publishedAt *time.Time, now time.Time) float64 {
	if publishedAt == nil {
		return m.missingDate
	}

	daysOld := now.Sub(*publishedAt).Hours() / hoursPerDay
	if daysOld < 0 {
		daysOld = 0
	}

	return math.Max(m.floor, 1-daysOld/m.windowDays)
}

// Weight returns the combined weight of one article
func (m *Model) Weight(article contracts.Article, now time.Time) float64 {
	return m.Breakdown(article, now).Weight
}

// Breakdown returns both factors and their product
func (m *Model) Breakdown(article contracts.Article, now time.Time) Breakdown {
	s := m.SourceWeight(article.Source)
	r := m.RecencyWeight(article.PublishedAt, now)
	return Breakdown{
		Source:  s,
		Recency: r,
		Weight:  s * r,
	}
}

// KnownSources returns the number of entries in the credibility table
func (m *Model) KnownSources() int {
	return len(m.credibility)
}
