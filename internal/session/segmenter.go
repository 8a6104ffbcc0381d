// Package session splits ordered intraday bars into one session per
// calendar date and provides per-session extrema helpers.
package session

import (
	"time"

	"intraday-lab/internal/domain"
)

// HoursFilter restricts a session to bars whose intraday time falls in
// the half-open window [Start, End). A bar stamped exactly at End is
// excluded.
type HoursFilter struct {
	Start domain.TimeOfDay
	End   domain.TimeOfDay
}

// Contains reports whether ts falls inside the window. Seconds are
// ignored: bars are minute-resolution.
func (f HoursFilter) Contains(ts time.Time) bool {
	m := ts.Hour()*60 + ts.Minute()
	return m >= f.Start.MinuteOfDay() && m < f.End.MinuteOfDay()
}

// Segment groups bars into one session per calendar date. Bars must be
// pre-sorted by timestamp ascending (see SortBars); dates are taken in
// the bars' own location. When filter is non-nil, bars outside the
// window are dropped before grouping, and a date whose bars are all
// filtered out yields no session.
func Segment(symbol string, bars []domain.Bar, filter *HoursFilter) []domain.Session {
	if len(bars) == 0 {
		return nil
	}

	var result []domain.Session
	var current *domain.Session

	for _, b := range bars {
		if filter != nil && !filter.Contains(b.Time) {
			continue
		}
		day := domain.SessionDate(b.Time)
		if current == nil || !current.Date.Equal(day) {
			if current != nil {
				result = append(result, *current)
			}
			current = &domain.Session{Symbol: symbol, Date: day}
		}
		current.Bars = append(current.Bars, b)
	}

	if current != nil {
		result = append(result, *current)
	}

	return result
}
