package views

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/newsviews/internal/contracts"
	"github.com/wonny/newsviews/internal/viewconfig"
	"github.com/wonny/newsviews/pkg/logger"
	"github.com/wonny/newsviews/pkg/metrics"
)

func newGenerator(m *metrics.Metrics) *Generator {
	return NewGenerator(viewconfig.Default().Views, logger.Nop(), m)
}

func dist(pos, neu, neg float64) contracts.SentimentDistribution {
	return contracts.SentimentDistribution{Positive: pos, Neutral: neu, Negative: neg}
}

func TestAdjustment_Bands(t *testing.T) {
	g := newGenerator(nil)

	tests := []struct {
		score float64
		want  float64
		band  contracts.Band
	}{
		{1.0, 0.03, contracts.BandStrongPositive},
		{0.51, 0.03, contracts.BandStrongPositive},
		{0.5, 0.02, contracts.BandMildPositive},
		{0.35, 0.02, contracts.BandMildPositive},
		{0.2, 0, contracts.BandNeutral},
		{0.0, 0, contracts.BandNeutral},
		{-0.2, 0, contracts.BandNeutral},
		{-0.21, -0.01, contracts.BandMildNegative},
		{-0.5, -0.01, contracts.BandMildNegative},
		{-0.51, -0.02, contracts.BandStrongNegative},
		{-1.0, -0.02, contracts.BandStrongNegative},
	}

	for _, tt := range tests {
		adj, band := g.Adjustment(tt.score)
		assert.Equal(t, tt.want, adj, "score %v", tt.score)
		assert.Equal(t, tt.band, band, "score %v", tt.score)
	}
}

func TestAdjustment_Monotonic(t *testing.T) {
	g := newGenerator(nil)

	prev, _ := g.Adjustment(-1)
	for s := -1.0; s <= 1.0; s += 0.01 {
		adj, _ := g.Adjustment(s)
		assert.GreaterOrEqual(t, adj, prev, "score %v", s)
		prev = adj
	}
}

func TestGenerate_Sparse(t *testing.T) {
	m := metrics.New()
	g := newGenerator(m)

	set := g.Generate(map[string]contracts.SentimentDistribution{
		"MSFT":  dist(0.72, 0.08, 0.20), // 0.52
		"GOOGL": dist(0.4, 0.4, 0.2),    // 0.2
		"TSLA":  dist(0.1, 0.2, 0.7),    // -0.6
		"AAPL":  dist(0.33, 0.33, 0.33), // fallback
		"NVDA":  dist(0.5, 0.2, 0.3),    // 0.2 (fp)
		"AMZN":  dist(0.2, 0.3, 0.5),    // -0.3
	})

	require.Len(t, set, 3)
	assert.InDelta(t, 0.03, set["MSFT"], 1e-12)
	assert.InDelta(t, -0.02, set["TSLA"], 1e-12)
	assert.InDelta(t, -0.01, set["AMZN"], 1e-12)

	for _, id := range []string{"GOOGL", "AAPL", "NVDA"} {
		_, ok := set.Get(id)
		assert.False(t, ok, id)
	}

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ViewsEmitted.WithLabelValues("bullish")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ViewsEmitted.WithLabelValues("bearish")))
}

func TestGenerate_Empty(t *testing.T) {
	g := newGenerator(nil)
	assert.Empty(t, g.Generate(nil))
}

func TestExplain(t *testing.T) {
	g := newGenerator(nil)

	input := map[string]contracts.SentimentDistribution{
		"TSLA": dist(0.1, 0.2, 0.7),
		"AAPL": dist(0.33, 0.33, 0.33),
	}
	report := g.Explain(input)

	require.Len(t, report, 2)
	assert.Equal(t, "AAPL", report[0].Instrument)
	assert.Equal(t, contracts.BandNeutral, report[0].Band)
	assert.Equal(t, "TSLA", report[1].Instrument)
	assert.Equal(t, contracts.BandStrongNegative, report[1].Band)
	assert.InDelta(t, -0.6, report[1].Score, 1e-12)

	assert.Equal(t, g.Generate(input), ViewSetFrom(report))
}

func TestAdjustment_CustomConfig(t *testing.T) {
	cfg := viewconfig.Default().Views
	cfg.MaxReturn = 0.05
	cfg.MinReturn = -0.04
	g := NewGenerator(cfg, logger.Nop(), nil)

	adj, _ := g.Adjustment(0.9)
	assert.Equal(t, 0.05, adj)
	adj, _ = g.Adjustment(-0.9)
	assert.Equal(t, -0.04, adj)
}
