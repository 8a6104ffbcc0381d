package domain

import "time"

// Direction of a single swing event.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// AnchorDirection classifies a session's post-anchor extremum.
type AnchorDirection string

const (
	AnchorHigh AnchorDirection = "HIGH"
	AnchorLow  AnchorDirection = "LOW"
)

// Volatility buckets a symbol by how many threshold swings it produced.
type Volatility string

const (
	VolatilityHigh   Volatility = "High"
	VolatilityMedium Volatility = "Medium"
	VolatilityLow    Volatility = "Low"
)

// SwingSessionResult is the per-session output of the swing detector.
type SwingSessionResult struct {
	Date      time.Time `json:"date"`       // session day
	UpCount   int       `json:"up_count"`   // threshold-sized upward moves
	DownCount int       `json:"down_count"` // threshold-sized downward moves
}

// ReversalSessionResult is the per-session output of the reversal cycle detector.
type ReversalSessionResult struct {
	Date       time.Time `json:"date"`        // session day
	CycleCount int       `json:"cycle_count"` // completed round trips
}

// AnchorRecord is the per-session output of the anchor analyzer.
type AnchorRecord struct {
	Date         time.Time       `json:"date"`           // session day
	AnchorTime   TimeOfDay       `json:"anchor_time"`    // configured anchor time of day
	AnchorPrice  float64         `json:"anchor_price"`   // close of the bar at the anchor time
	PostHigh     float64         `json:"post_high"`      // highest high at or after the anchor
	PostHighTime time.Time       `json:"post_high_time"` // first bar reaching PostHigh
	PostLow      float64         `json:"post_low"`       // lowest low at or after the anchor
	PostLowTime  time.Time       `json:"post_low_time"`  // first bar reaching PostLow
	Direction    AnchorDirection `json:"direction"`      // HIGH if PostHigh exceeds the anchor price, else LOW
	PctGain      float64         `json:"pct_gain"`       // move from anchor to the selected extremum, percent
}

// DipReport is the point-in-time output of the dip scanner for one symbol.
type DipReport struct {
	Date           time.Time `json:"date"`            // reference session day
	ReferencePrice float64   `json:"reference_price"` // latest close while the market is open, else the session low
	SessionHigh    float64   `json:"session_high"`    // highest high of the reference session
	DropPct        float64   `json:"drop_pct"`        // retracement from the session high, percent
}

// SwingMetrics are the symbol-level aggregates for the swing detector.
type SwingMetrics struct {
	UpTotal    int        `json:"up_total"`    // up swings summed over all sessions
	DownTotal  int        `json:"down_total"`  // down swings summed over all sessions
	Total      int        `json:"total"`       // UpTotal + DownTotal
	AvgPerDay  float64    `json:"avg_per_day"` // Total / session count
	Volatility Volatility `json:"volatility"`  // bucket derived from Total
}

// ReversalMetrics are the symbol-level aggregates for the reversal detector.
type ReversalMetrics struct {
	CycleTotal int     `json:"cycle_total"` // cycles summed over all sessions
	AvgPerDay  float64 `json:"avg_per_day"` // CycleTotal / session count
}

// AnchorMetrics are the symbol-level aggregates for the anchor analyzer.
// Direction and AvgPctGain are derived from the averages, applying the
// per-session direction rule to the averaged values.
type AnchorMetrics struct {
	AvgAnchorPrice float64         `json:"avg_anchor_price"`
	AvgPostHigh    float64         `json:"avg_post_high"`
	AvgPostLow     float64         `json:"avg_post_low"`
	Direction      AnchorDirection `json:"direction"`
	AvgPctGain     float64         `json:"avg_pct_gain"`
}

// DipMetrics are the reported fields for the dip scanner. The scan is
// point-in-time, so the aggregate covers the single reference session.
type DipMetrics struct {
	Date           time.Time `json:"date"`
	ReferencePrice float64   `json:"reference_price"`
	SessionHigh    float64   `json:"session_high"`
	DropPct        float64   `json:"drop_pct"`
}

// SymbolSummary is the two-level result for one symbol from one detector:
// aggregate metrics plus the untouched ordered per-session detail.
// Exactly one metric group is set, matching Detector.
type SymbolSummary struct {
	Symbol       string       `json:"symbol"`
	Detector     DetectorKind `json:"detector"`
	SessionCount int          `json:"session_count"`

	Swing    *SwingMetrics    `json:"swing,omitempty"`
	Reversal *ReversalMetrics `json:"reversal,omitempty"`
	Anchor   *AnchorMetrics   `json:"anchor,omitempty"`
	Dip      *DipMetrics      `json:"dip,omitempty"`

	// Retained detail rows, one per qualifying session, in session order.
	// Only the slice matching Detector is populated. The dip scan keeps
	// no detail rows: its single reference session is already the metric.
	SwingSessions    []SwingSessionResult    `json:"swing_sessions,omitempty"`
	ReversalSessions []ReversalSessionResult `json:"reversal_sessions,omitempty"`
	AnchorSessions   []AnchorRecord          `json:"anchor_sessions,omitempty"`
}
