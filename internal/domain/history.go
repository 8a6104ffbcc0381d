package domain

import "time"

// SummaryRow is one symbol's aggregate metrics flattened into a single
// run-history record. Only the columns matching Detector carry values;
// the rest stay zero. SummaryID is the deterministic hash of
// (run_id, symbol, detector), so re-inserting the same run is a
// duplicate, not a second row.
type SummaryRow struct {
	SummaryID    string       `json:"summary_id"`
	RunID        string       `json:"run_id"`
	Symbol       string       `json:"symbol"`
	Detector     DetectorKind `json:"detector"`
	SessionCount int          `json:"session_count"`

	UpTotal    int        `json:"up_total,omitempty"`
	DownTotal  int        `json:"down_total,omitempty"`
	SwingTotal int        `json:"swing_total,omitempty"`
	Volatility Volatility `json:"volatility,omitempty"`

	CycleTotal int `json:"cycle_total,omitempty"`

	// Average events per session, shared by swing and reversal rows.
	AvgPerDay float64 `json:"avg_per_day,omitempty"`

	AvgAnchorPrice float64         `json:"avg_anchor_price,omitempty"`
	AvgPostHigh    float64         `json:"avg_post_high,omitempty"`
	AvgPostLow     float64         `json:"avg_post_low,omitempty"`
	Direction      AnchorDirection `json:"direction,omitempty"`
	AvgPctGain     float64         `json:"avg_pct_gain,omitempty"`

	RefDate        time.Time `json:"ref_date,omitempty"`
	ReferencePrice float64   `json:"reference_price,omitempty"`
	SessionHigh    float64   `json:"session_high,omitempty"`
	DropPct        float64   `json:"drop_pct,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// NewSummaryRow flattens a summary for persistence. SummaryID is left
// for the caller to assign.
func NewSummaryRow(runID string, s SymbolSummary, createdAt time.Time) *SummaryRow {
	row := &SummaryRow{
		RunID:        runID,
		Symbol:       s.Symbol,
		Detector:     s.Detector,
		SessionCount: s.SessionCount,
		CreatedAt:    createdAt,
	}

	switch {
	case s.Swing != nil:
		row.UpTotal = s.Swing.UpTotal
		row.DownTotal = s.Swing.DownTotal
		row.SwingTotal = s.Swing.Total
		row.AvgPerDay = s.Swing.AvgPerDay
		row.Volatility = s.Swing.Volatility
	case s.Reversal != nil:
		row.CycleTotal = s.Reversal.CycleTotal
		row.AvgPerDay = s.Reversal.AvgPerDay
	case s.Anchor != nil:
		row.AvgAnchorPrice = s.Anchor.AvgAnchorPrice
		row.AvgPostHigh = s.Anchor.AvgPostHigh
		row.AvgPostLow = s.Anchor.AvgPostLow
		row.Direction = s.Anchor.Direction
		row.AvgPctGain = s.Anchor.AvgPctGain
	case s.Dip != nil:
		row.RefDate = s.Dip.Date
		row.ReferencePrice = s.Dip.ReferencePrice
		row.SessionHigh = s.Dip.SessionHigh
		row.DropPct = s.Dip.DropPct
	}

	return row
}

// Summary inflates the row back into the aggregate view. Detail rows
// are attached separately via AttachDetail.
func (r *SummaryRow) Summary() SymbolSummary {
	s := SymbolSummary{
		Symbol:       r.Symbol,
		Detector:     r.Detector,
		SessionCount: r.SessionCount,
	}

	switch r.Detector {
	case DetectorSwing:
		s.Swing = &SwingMetrics{
			UpTotal:    r.UpTotal,
			DownTotal:  r.DownTotal,
			Total:      r.SwingTotal,
			AvgPerDay:  r.AvgPerDay,
			Volatility: r.Volatility,
		}
	case DetectorReversal:
		s.Reversal = &ReversalMetrics{
			CycleTotal: r.CycleTotal,
			AvgPerDay:  r.AvgPerDay,
		}
	case DetectorAnchor:
		s.Anchor = &AnchorMetrics{
			AvgAnchorPrice: r.AvgAnchorPrice,
			AvgPostHigh:    r.AvgPostHigh,
			AvgPostLow:     r.AvgPostLow,
			Direction:      r.Direction,
			AvgPctGain:     r.AvgPctGain,
		}
	case DetectorDip:
		s.Dip = &DipMetrics{
			Date:           r.RefDate,
			ReferencePrice: r.ReferencePrice,
			SessionHigh:    r.SessionHigh,
			DropPct:        r.DropPct,
		}
	}

	return s
}

// DetailRow is one retained session flattened for run-history storage.
// Seq preserves the original session order within (run, symbol).
type DetailRow struct {
	RunID       string       `json:"run_id"`
	Symbol      string       `json:"symbol"`
	Detector    DetectorKind `json:"detector"`
	Seq         int          `json:"seq"`
	SessionDate time.Time    `json:"session_date"`

	UpCount   int `json:"up_count,omitempty"`
	DownCount int `json:"down_count,omitempty"`

	CycleCount int `json:"cycle_count,omitempty"`

	AnchorTime   TimeOfDay       `json:"anchor_time,omitempty"`
	AnchorPrice  float64         `json:"anchor_price,omitempty"`
	PostHigh     float64         `json:"post_high,omitempty"`
	PostHighTime time.Time       `json:"post_high_time,omitempty"`
	PostLow      float64         `json:"post_low,omitempty"`
	PostLowTime  time.Time       `json:"post_low_time,omitempty"`
	Direction    AnchorDirection `json:"direction,omitempty"`
	PctGain      float64         `json:"pct_gain,omitempty"`
}

// DetailRowsFrom flattens a summary's retained sessions. The dip scan
// keeps no detail, so dip summaries yield nil.
func DetailRowsFrom(runID string, s SymbolSummary) []*DetailRow {
	base := func(seq int, date time.Time) *DetailRow {
		return &DetailRow{
			RunID:       runID,
			Symbol:      s.Symbol,
			Detector:    s.Detector,
			Seq:         seq,
			SessionDate: date,
		}
	}

	switch {
	case len(s.SwingSessions) > 0:
		rows := make([]*DetailRow, len(s.SwingSessions))
		for i, sess := range s.SwingSessions {
			row := base(i, sess.Date)
			row.UpCount = sess.UpCount
			row.DownCount = sess.DownCount
			rows[i] = row
		}
		return rows
	case len(s.ReversalSessions) > 0:
		rows := make([]*DetailRow, len(s.ReversalSessions))
		for i, sess := range s.ReversalSessions {
			row := base(i, sess.Date)
			row.CycleCount = sess.CycleCount
			rows[i] = row
		}
		return rows
	case len(s.AnchorSessions) > 0:
		rows := make([]*DetailRow, len(s.AnchorSessions))
		for i, rec := range s.AnchorSessions {
			row := base(i, rec.Date)
			row.AnchorTime = rec.AnchorTime
			row.AnchorPrice = rec.AnchorPrice
			row.PostHigh = rec.PostHigh
			row.PostHighTime = rec.PostHighTime
			row.PostLow = rec.PostLow
			row.PostLowTime = rec.PostLowTime
			row.Direction = rec.Direction
			row.PctGain = rec.PctGain
			rows[i] = row
		}
		return rows
	}
	return nil
}

// AttachDetail rebuilds the summary's per-session slice from stored
// rows. Rows must already be ordered by Seq and belong to the
// summary's (run, symbol, detector).
func AttachDetail(s *SymbolSummary, rows []*DetailRow) {
	switch s.Detector {
	case DetectorSwing:
		sessions := make([]SwingSessionResult, len(rows))
		for i, r := range rows {
			sessions[i] = SwingSessionResult{Date: r.SessionDate, UpCount: r.UpCount, DownCount: r.DownCount}
		}
		s.SwingSessions = sessions
	case DetectorReversal:
		sessions := make([]ReversalSessionResult, len(rows))
		for i, r := range rows {
			sessions[i] = ReversalSessionResult{Date: r.SessionDate, CycleCount: r.CycleCount}
		}
		s.ReversalSessions = sessions
	case DetectorAnchor:
		sessions := make([]AnchorRecord, len(rows))
		for i, r := range rows {
			sessions[i] = AnchorRecord{
				Date:         r.SessionDate,
				AnchorTime:   r.AnchorTime,
				AnchorPrice:  r.AnchorPrice,
				PostHigh:     r.PostHigh,
				PostHighTime: r.PostHighTime,
				PostLow:      r.PostLow,
				PostLowTime:  r.PostLowTime,
				Direction:    r.Direction,
				PctGain:      r.PctGain,
			}
		}
		s.AnchorSessions = sessions
	}
}
