package contracts

import "sort"

// ViewSet maps instrument id to expected-return adjustment.
// Neutral instruments are absent: absence means "defer to the market prior",
// which an optimizer treats differently from an explicit zero.
// ⭐ SSOT: 옵티마이저로 전달되는 view 데이터
type ViewSet map[string]float64

// Get returns the adjustment for an instrument and whether a view exists
func (v ViewSet) Get(instrument string) (float64, bool) {
	adj, ok := v[instrument]
	return adj, ok
}

// Instruments returns the instruments with a view, sorted
func (v ViewSet) Instruments() []string {
	ids := make([]string, 0, len(v))
	for id := range v {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Vector returns adjustments aligned with the given instrument order, with
// a presence mask; this is the shape a Black-Litterman solver consumes (Q and P rows)
func (v ViewSet) Vector(order []string) (q []float64, present []bool) {
	q = make([]float64, len(order))
	present = make([]bool, len(order))
	for i, id := range order {
		if adj, ok := v[id]; ok {
			q[i] = adj
			present[i] = true
		}
	}
	return q, present
}

// Band names the threshold band a score fell into
type Band string

const (
	BandStrongPositive Band = "strong_positive"
	BandMildPositive   Band = "mild_positive"
	BandNeutral        Band = "neutral"
	BandMildNegative   Band = "mild_negative"
	BandStrongNegative Band = "strong_negative"
)

// InstrumentView is the dense per-instrument report behind a ViewSet entry
type InstrumentView struct {
	Instrument   string                `json:"instrument"`
	Distribution SentimentDistribution `json:"distribution"`
	Score        float64               `json:"score"`
	Band         Band                  `json:"band"`
	Adjustment   float64               `json:"adjustment"`
}
