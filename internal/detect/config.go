// Package detect implements the per-session bar detectors: alternating
// threshold swings, reversal cycles, dip scans and anchor-time
// analysis. All detectors are pure functions over a session's bars;
// state never survives a session boundary.
package detect

import (
	"errors"
	"fmt"

	"intraday-lab/internal/domain"
	"intraday-lab/internal/session"
)

// Validation errors. Each one aborts a run before any market data is
// fetched.
var (
	ErrThresholdOutOfRange = errors.New("detect: threshold must be in (0, 100]")
	ErrWindowInverted      = errors.New("detect: session window start must be before end")
	ErrAnchorTimeRequired  = errors.New("detect: anchor analysis requires an anchor time")
	ErrUnknownDetector     = errors.New("detect: unknown detector kind")
)

// Config carries the tunables shared by the detectors. Threshold is a
// percentage in (0, 100] and applies to swing, reversal and dip runs.
// Window, when non-nil, restricts every session to the half-open
// intraday range [Start, End). AnchorTime is required for anchor runs
// and ignored by the others.
type Config struct {
	Kind       domain.DetectorKind
	Threshold  float64
	Window     *session.HoursFilter
	AnchorTime domain.TimeOfDay
}

// Validate checks the config against its detector kind.
func (c Config) Validate() error {
	if !c.Kind.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownDetector, c.Kind)
	}
	if c.Kind != domain.DetectorAnchor {
		if c.Threshold <= 0 || c.Threshold > 100 {
			return fmt.Errorf("%w: got %g", ErrThresholdOutOfRange, c.Threshold)
		}
	}
	if c.Window != nil && c.Window.Start.MinuteOfDay() >= c.Window.End.MinuteOfDay() {
		return fmt.Errorf("%w: %s >= %s", ErrWindowInverted, c.Window.Start, c.Window.End)
	}
	if c.Kind == domain.DetectorAnchor && c.AnchorTime.IsZero() {
		return ErrAnchorTimeRequired
	}
	return nil
}
