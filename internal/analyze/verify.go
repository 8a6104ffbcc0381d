package analyze

import (
	"math"

	"intraday-lab/internal/aggregate"
	"intraday-lab/internal/domain"
)

// FloatTolerance is the tolerance for float64 comparisons between
// stored and recomputed metrics.
const FloatTolerance = 1e-7

// FieldDivergence represents a mismatch between a stored summary field
// and the value recomputed from the retained detail rows.
type FieldDivergence struct {
	Field    string      // field name
	Expected interface{} // stored value
	Actual   interface{} // recomputed value
}

// VerifySummary replays aggregation over a summary's retained detail
// rows and compares every metric field against the stored values. A
// clean summary yields no divergences. Dip summaries retain no detail
// rows and always verify clean.
func VerifySummary(s domain.SymbolSummary) []FieldDivergence {
	switch s.Detector {
	case domain.DetectorSwing:
		return diffSummaries(s, aggregate.BuildSwingSummary(s.Symbol, s.SwingSessions))
	case domain.DetectorReversal:
		return diffSummaries(s, aggregate.BuildReversalSummary(s.Symbol, s.ReversalSessions))
	case domain.DetectorAnchor:
		return diffSummaries(s, aggregate.BuildAnchorSummary(s.Symbol, s.AnchorSessions))
	}
	return nil
}

func diffSummaries(stored domain.SymbolSummary, recomputed *domain.SymbolSummary) []FieldDivergence {
	if recomputed == nil {
		return []FieldDivergence{{Field: "SessionCount", Expected: stored.SessionCount, Actual: 0}}
	}

	var divergences []FieldDivergence
	if stored.SessionCount != recomputed.SessionCount {
		divergences = append(divergences, FieldDivergence{
			Field: "SessionCount", Expected: stored.SessionCount, Actual: recomputed.SessionCount,
		})
	}

	switch {
	case stored.Swing != nil && recomputed.Swing != nil:
		divergences = append(divergences, diffSwing(stored.Swing, recomputed.Swing)...)
	case stored.Reversal != nil && recomputed.Reversal != nil:
		divergences = append(divergences, diffReversal(stored.Reversal, recomputed.Reversal)...)
	case stored.Anchor != nil && recomputed.Anchor != nil:
		divergences = append(divergences, diffAnchor(stored.Anchor, recomputed.Anchor)...)
	default:
		divergences = append(divergences, FieldDivergence{
			Field: "Detector", Expected: stored.Detector, Actual: recomputed.Detector,
		})
	}

	return divergences
}

func diffSwing(stored, recomputed *domain.SwingMetrics) []FieldDivergence {
	var d []FieldDivergence
	if stored.UpTotal != recomputed.UpTotal {
		d = append(d, FieldDivergence{"UpTotal", stored.UpTotal, recomputed.UpTotal})
	}
	if stored.DownTotal != recomputed.DownTotal {
		d = append(d, FieldDivergence{"DownTotal", stored.DownTotal, recomputed.DownTotal})
	}
	if stored.Total != recomputed.Total {
		d = append(d, FieldDivergence{"Total", stored.Total, recomputed.Total})
	}
	if !floatEquals(stored.AvgPerDay, recomputed.AvgPerDay) {
		d = append(d, FieldDivergence{"AvgPerDay", stored.AvgPerDay, recomputed.AvgPerDay})
	}
	if stored.Volatility != recomputed.Volatility {
		d = append(d, FieldDivergence{"Volatility", stored.Volatility, recomputed.Volatility})
	}
	return d
}

func diffReversal(stored, recomputed *domain.ReversalMetrics) []FieldDivergence {
	var d []FieldDivergence
	if stored.CycleTotal != recomputed.CycleTotal {
		d = append(d, FieldDivergence{"CycleTotal", stored.CycleTotal, recomputed.CycleTotal})
	}
	if !floatEquals(stored.AvgPerDay, recomputed.AvgPerDay) {
		d = append(d, FieldDivergence{"AvgPerDay", stored.AvgPerDay, recomputed.AvgPerDay})
	}
	return d
}

func diffAnchor(stored, recomputed *domain.AnchorMetrics) []FieldDivergence {
	var d []FieldDivergence
	if !floatEquals(stored.AvgAnchorPrice, recomputed.AvgAnchorPrice) {
		d = append(d, FieldDivergence{"AvgAnchorPrice", stored.AvgAnchorPrice, recomputed.AvgAnchorPrice})
	}
	if !floatEquals(stored.AvgPostHigh, recomputed.AvgPostHigh) {
		d = append(d, FieldDivergence{"AvgPostHigh", stored.AvgPostHigh, recomputed.AvgPostHigh})
	}
	if !floatEquals(stored.AvgPostLow, recomputed.AvgPostLow) {
		d = append(d, FieldDivergence{"AvgPostLow", stored.AvgPostLow, recomputed.AvgPostLow})
	}
	if stored.Direction != recomputed.Direction {
		d = append(d, FieldDivergence{"Direction", stored.Direction, recomputed.Direction})
	}
	if !floatEquals(stored.AvgPctGain, recomputed.AvgPctGain) {
		d = append(d, FieldDivergence{"AvgPctGain", stored.AvgPctGain, recomputed.AvgPctGain})
	}
	return d
}

// floatEquals compares two float64 values within FloatTolerance.
func floatEquals(a, b float64) bool {
	return math.Abs(a-b) <= FloatTolerance
}
