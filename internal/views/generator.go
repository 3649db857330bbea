package views

import (
	"sort"

	"github.com/wonny/newsviews/internal/contracts"
	"github.com/wonny/newsviews/internal/viewconfig"
	"github.com/wonny/newsviews/pkg/logger"
	"github.com/wonny/newsviews/pkg/metrics"
)

// Score returns positive - negative
func Score(d contracts.SentimentDistribution) float64 {
	return d.Score()
}

// Generator maps aggregated sentiment to bounded expected-return adjustments.
// Stateless: instruments are evaluated independently of each other.
// ⭐ SSOT: sentiment → expected return 매핑
type Generator struct {
	cfg     viewconfig.Views
	logger  *logger.Logger
	metrics *metrics.Metrics
}

// NewGenerator creates a new view generator
func NewGenerator(cfg viewconfig.Views, log *logger.Logger, m *metrics.Metrics) *Generator {
	return &Generator{
		cfg:     cfg,
		logger:  log.WithComponent("views"),
		metrics: m,
	}
}

// Adjustment maps a score through the bands. First match wins:
//
//	score >  strong_pos          → max_return
//	score >  mild_pos            → mild_positive_return
//	score <  strong_neg          → min_return
//	score <  mild_neg            → mild_negative_return
//	otherwise                    → 0 (neutral)
//
// Boundaries belong to the weaker band (0.5 → mild, 0.2 → neutral).
func (g *Generator) Adjustment(score float64) (float64, contracts.Band) {
	switch {
	case score > g.cfg.StrongPositiveThreshold:
		return g.cfg.MaxReturn, contracts.BandStrongPositive
	case score > g.cfg.MildPositiveThreshold:
		return g.cfg.MildPositiveReturn, contracts.BandMildPositive
	case score < g.cfg.StrongNegativeThreshold:
		return g.cfg.MinReturn, contracts.BandStrongNegative
	case score < g.cfg.MildNegativeThreshold:
		return g.cfg.MildNegativeReturn, contracts.BandMildNegative
	default:
		return 0, contracts.BandNeutral
	}
}

// View evaluates one instrument
func (g *Generator) View(instrument string, d contracts.SentimentDistribution) contracts.InstrumentView {
	score := Score(d)
	adj, band := g.Adjustment(score)
	return contracts.InstrumentView{
		Instrument:   instrument,
		Distribution: d,
		Score:        score,
		Band:         band,
		Adjustment:   adj,
	}
}

// Generate builds the sparse view set; zero adjustments are omitted
func (g *Generator) Generate(distributions map[string]contracts.SentimentDistribution) contracts.ViewSet {
	out := make(contracts.ViewSet, len(distributions))

	for instrument, d := range distributions {
		v := g.View(instrument, d)
		if v.Adjustment == 0 {
			continue
		}
		out[instrument] = v.Adjustment
		g.metrics.ObserveView(v.Adjustment)
	}

	g.logger.WithFields(map[string]interface{}{
		"instruments": len(distributions),
		"views":       len(out),
	}).Debug("Generated views")

	return out
}

// Explain returns the dense per-instrument report, neutral included, sorted by instrument
func (g *Generator) Explain(distributions map[string]contracts.SentimentDistribution) []contracts.InstrumentView {
	ids := make([]string, 0, len(distributions))
	for id := range distributions {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]contracts.InstrumentView, 0, len(ids))
	for _, id := range ids {
		out = append(out, g.View(id, distributions[id]))
	}
	return out
}

// ViewSetFrom extracts the sparse view set from a dense report
func ViewSetFrom(report []contracts.InstrumentView) contracts.ViewSet {
	out := make(contracts.ViewSet)
	for _, v := range report {
		if v.Adjustment != 0 {
			out[v.Instrument] = v.Adjustment
		}
	}
	return out
}
