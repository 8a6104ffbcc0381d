package calendar

import (
	"errors"
	"fmt"
	"time"
)

// ErrStartNotBeforeEnd is returned when a requested range is inverted or
// empty. Range errors are fatal to the whole run, unlike adjustments.
var ErrStartNotBeforeEnd = errors.New("start date must precede end date")

// Adjustment records one automatic correction applied to a requested
// date range, surfaced to the caller instead of failing the run.
type Adjustment struct {
	Field string    // "start" or "end"
	From  time.Time // requested date
	To    time.Time // corrected date
	Note  string    // human-readable explanation
}

// String renders the adjustment for logs and progress events.
func (a Adjustment) String() string {
	return fmt.Sprintf("%s moved from %s to %s: %s",
		a.Field, a.From.Format("2006-01-02"), a.To.Format("2006-01-02"), a.Note)
}

// ValidateRange checks a requested [start, end] day range against the
// calendar. Start on or after end is an error. Endpoints on non-trading
// days are shifted back to the previous trading day and reported as
// adjustments rather than errors.
func ValidateRange(cal Calendar, start, end time.Time) (time.Time, time.Time, []Adjustment, error) {
	if !start.Before(end) {
		return start, end, nil, fmt.Errorf("%w: start %s, end %s",
			ErrStartNotBeforeEnd, start.Format("2006-01-02"), end.Format("2006-01-02"))
	}

	var adjustments []Adjustment
	if !cal.IsTradingDay(start) {
		shifted := cal.PreviousTradingDay(start)
		adjustments = append(adjustments, Adjustment{
			Field: "start",
			From:  start,
			To:    shifted,
			Note:  "requested start falls on a non-trading day",
		})
		start = shifted
	}
	if !cal.IsTradingDay(end) {
		shifted := cal.PreviousTradingDay(end)
		adjustments = append(adjustments, Adjustment{
			Field: "end",
			From:  end,
			To:    shifted,
			Note:  "requested end falls on a non-trading day",
		})
		end = shifted
	}

	// Shifting can invert a short range that straddled a weekend.
	if !start.Before(end) && !start.Equal(end) {
		return start, end, adjustments, fmt.Errorf("%w after adjustment: start %s, end %s",
			ErrStartNotBeforeEnd, start.Format("2006-01-02"), end.Format("2006-01-02"))
	}

	return start, end, adjustments, nil
}
