// Package calendar provides trading-day arithmetic and the clock
// abstraction used to make wall-clock-dependent scans testable.
package calendar

import (
	"time"

	"intraday-lab/internal/domain"
)

// Regular trading hours, exchange-local.
var (
	MarketOpen  = domain.TimeOfDay{Hour: 9, Minute: 30}
	MarketClose = domain.TimeOfDay{Hour: 16, Minute: 0}
)

// Calendar answers trading-day questions. The shipped implementation is
// weekday-only; holidays are deliberately not modelled and a replacement
// with a holiday table can be plugged in here.
type Calendar interface {
	// IsTradingDay reports whether t falls on a trading day.
	IsTradingDay(t time.Time) bool

	// PreviousTradingDay returns the last trading day strictly before t.
	PreviousTradingDay(t time.Time) time.Time

	// TradingDaysBack returns the [start, end] day range covering n
	// trading days ending at the most recent trading day at or before ref.
	TradingDaysBack(ref time.Time, n int) (start, end time.Time)
}

// Clock supplies the current time. Injecting it keeps market-open
// branches deterministic under test.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock.
type SystemClock struct{}

// Now returns the current local time.
func (SystemClock) Now() time.Time { return time.Now() }

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

// Now calls the wrapped function.
func (f ClockFunc) Now() time.Time { return f() }

// Weekday is the naive Monday-to-Friday calendar.
type Weekday struct{}

// NewWeekday returns the weekday-only calendar.
func NewWeekday() Weekday { return Weekday{} }

// IsTradingDay reports whether t is a Monday through Friday.
func (Weekday) IsTradingDay(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// PreviousTradingDay steps back one day at a time until it lands on a
// trading day. The result keeps t's clock time and zone.
func (c Weekday) PreviousTradingDay(t time.Time) time.Time {
	prev := t.AddDate(0, 0, -1)
	for !c.IsTradingDay(prev) {
		prev = prev.AddDate(0, 0, -1)
	}
	return prev
}

// TradingDaysBack walks backwards from ref collecting n trading days.
// The returned end is the most recent trading day at or before ref; the
// returned start is the n-th trading day counting back from end.
func (c Weekday) TradingDaysBack(ref time.Time, n int) (start, end time.Time) {
	if n < 1 {
		n = 1
	}
	end = ref
	for !c.IsTradingDay(end) {
		end = end.AddDate(0, 0, -1)
	}
	start = end
	for i := 1; i < n; i++ {
		start = c.PreviousTradingDay(start)
	}
	return start, end
}

// InRegularHours reports whether t's clock time is within regular
// trading hours, bounds inclusive.
func InRegularHours(t time.Time) bool {
	m := t.Hour()*60 + t.Minute()
	return m >= MarketOpen.MinuteOfDay() && m <= MarketClose.MinuteOfDay()
}

// MarketOpenNow reports whether the market is open at the given instant:
// a trading day with the clock inside regular hours.
func MarketOpenNow(cal Calendar, now time.Time) bool {
	return cal.IsTradingDay(now) && InRegularHours(now)
}
