package domain

// EventType tags a progress event emitted during an analysis run.
type EventType string

const (
	EventRunStarted     EventType = "run_started"
	EventSymbolAnalyzed EventType = "symbol_analyzed"
	EventSymbolSkipped  EventType = "symbol_skipped"
	EventWarning        EventType = "warning"
	EventRunFinished    EventType = "run_finished"
)

// ProgressEvent is one immutable message on the run's event stream:
// one per completed symbol (analyzed or skipped), plus run lifecycle
// markers and adjustment warnings. Completed counts symbols finished so
// far out of Total; Reason carries the skip reason or warning text.
// Consumers own presentation; no computation component ever renders.
type ProgressEvent struct {
	Type      EventType      `json:"type"`
	RunID     string         `json:"run_id"`
	Symbol    string         `json:"symbol,omitempty"`
	Completed int            `json:"completed"`
	Total     int            `json:"total"`
	Reason    string         `json:"reason,omitempty"`
	Summary   *SymbolSummary `json:"summary,omitempty"`
}
