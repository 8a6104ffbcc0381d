package domain

import "time"

// DetectorKind selects which detector family an analysis run executes.
type DetectorKind string

const (
	DetectorSwing    DetectorKind = "swing"
	DetectorReversal DetectorKind = "reversal"
	DetectorDip      DetectorKind = "dip"
	DetectorAnchor   DetectorKind = "anchor"
)

// Valid reports whether the kind names a known detector.
func (k DetectorKind) Valid() bool {
	switch k {
	case DetectorSwing, DetectorReversal, DetectorDip, DetectorAnchor:
		return true
	}
	return false
}

// AnalysisRequest carries everything one run needs. It replaces any
// ambient shared state: symbol list, detector selection, threshold and
// data-window parameters all travel together as one value.
type AnalysisRequest struct {
	Symbols   []string     `json:"symbols"`
	Detector  DetectorKind `json:"detector"`
	Threshold float64      `json:"threshold"` // percent, valid range (0, 100]

	// Either an explicit date range or a provider-relative period.
	// When Start and End are zero, Period applies.
	Start  time.Time `json:"start,omitempty"`
	End    time.Time `json:"end,omitempty"`
	Period Period    `json:"period,omitempty"`

	Interval   Interval  `json:"interval"`
	AnchorTime TimeOfDay `json:"anchor_time,omitempty"` // anchor detector only
}

// ByRange reports whether the request selects bars by explicit dates.
func (r AnalysisRequest) ByRange() bool {
	return !r.Start.IsZero() || !r.End.IsZero()
}

// RunRecord is the stored outcome of one completed analysis run.
type RunRecord struct {
	RunID      string       `json:"run_id"`
	Detector   DetectorKind `json:"detector"`
	Threshold  float64      `json:"threshold"`
	Interval   Interval     `json:"interval"`
	Period     Period       `json:"period,omitempty"`
	Start      time.Time    `json:"start,omitempty"`
	End        time.Time    `json:"end,omitempty"`
	AnchorTime TimeOfDay    `json:"anchor_time,omitempty"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Analyzed   int          `json:"analyzed"`
	Skipped    int          `json:"skipped"`
}
