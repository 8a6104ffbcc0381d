// Package aggregate folds ordered per-session detector output into
// per-symbol summaries and projects them into flat tabular views. It
// never re-runs a detector: summaries are built once from the detail
// rows and every view is a pure projection over that pair.
package aggregate

import (
	"intraday-lab/internal/domain"
)

// BuildSwingSummary sums swing counts across sessions. A symbol with
// no qualifying sessions yields nil and is omitted from results.
func BuildSwingSummary(symbol string, sessions []domain.SwingSessionResult) *domain.SymbolSummary {
	if len(sessions) == 0 {
		return nil
	}

	m := &domain.SwingMetrics{}
	for _, s := range sessions {
		m.UpTotal += s.UpCount
		m.DownTotal += s.DownCount
	}
	m.Total = m.UpTotal + m.DownTotal
	m.AvgPerDay = float64(m.Total) / float64(len(sessions))
	m.Volatility = ClassifyVolatility(m.Total)

	return &domain.SymbolSummary{
		Symbol:        symbol,
		Detector:      domain.DetectorSwing,
		SessionCount:  len(sessions),
		Swing:         m,
		SwingSessions: sessions,
	}
}

// BuildReversalSummary sums completed cycles across sessions. A symbol
// with no qualifying sessions yields nil.
func BuildReversalSummary(symbol string, sessions []domain.ReversalSessionResult) *domain.SymbolSummary {
	if len(sessions) == 0 {
		return nil
	}

	m := &domain.ReversalMetrics{}
	for _, s := range sessions {
		m.CycleTotal += s.CycleCount
	}
	m.AvgPerDay = float64(m.CycleTotal) / float64(len(sessions))

	return &domain.SymbolSummary{
		Symbol:           symbol,
		Detector:         domain.DetectorReversal,
		SessionCount:     len(sessions),
		Reversal:         m,
		ReversalSessions: sessions,
	}
}

// BuildAnchorSummary averages the per-session anchor records and then
// applies the session direction rule to the averages: the summary is
// HIGH only when the average post-high exceeds the average anchor
// price, and the summary gain is measured between those averages, not
// averaged from the per-session gains.
func BuildAnchorSummary(symbol string, records []domain.AnchorRecord) *domain.SymbolSummary {
	if len(records) == 0 {
		return nil
	}

	var anchorSum, highSum, lowSum float64
	for _, r := range records {
		anchorSum += r.AnchorPrice
		highSum += r.PostHigh
		lowSum += r.PostLow
	}
	n := float64(len(records))

	m := &domain.AnchorMetrics{
		AvgAnchorPrice: anchorSum / n,
		AvgPostHigh:    highSum / n,
		AvgPostLow:     lowSum / n,
	}
	if m.AvgPostHigh > m.AvgAnchorPrice {
		m.Direction = domain.AnchorHigh
		m.AvgPctGain = pctChange(m.AvgPostHigh, m.AvgAnchorPrice)
	} else {
		m.Direction = domain.AnchorLow
		m.AvgPctGain = pctChange(m.AvgPostLow, m.AvgAnchorPrice)
	}

	return &domain.SymbolSummary{
		Symbol:         symbol,
		Detector:       domain.DetectorAnchor,
		SessionCount:   len(records),
		Anchor:         m,
		AnchorSessions: records,
	}
}

// BuildDipSummary wraps a dip report as a single-session summary. A nil
// report (no dip at the configured threshold) yields nil.
func BuildDipSummary(symbol string, report *domain.DipReport) *domain.SymbolSummary {
	if report == nil {
		return nil
	}

	return &domain.SymbolSummary{
		Symbol:       symbol,
		Detector:     domain.DetectorDip,
		SessionCount: 1,
		Dip: &domain.DipMetrics{
			Date:           report.Date,
			ReferencePrice: report.ReferencePrice,
			SessionHigh:    report.SessionHigh,
			DropPct:        report.DropPct,
		},
	}
}

// pctChange is the signed percent move from ref to p with a zero-ref
// guard.
func pctChange(p, ref float64) float64 {
	if ref == 0 {
		return 0
	}
	return (p - ref) / ref * 100
}
