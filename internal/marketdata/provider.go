// Package marketdata fetches OHLCV bars from external sources and
// exposes them behind a single Provider interface. Implementations
// tolerate data gaps and report a missing symbol with an empty slice
// rather than an error.
package marketdata

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"intraday-lab/internal/calendar"
	"intraday-lab/internal/domain"
)

// Provider supplies ordered OHLCV bars for one symbol at a time.
type Provider interface {
	// Name identifies the provider in logs and metrics.
	Name() string

	// BarsByRange fetches bars with timestamps in [start, end),
	// ordered by time ascending. No data for the window returns an
	// empty slice, not an error.
	BarsByRange(ctx context.Context, symbol string, interval domain.Interval, start, end time.Time) ([]domain.Bar, error)

	// BarsByPeriod fetches bars over a provider-relative lookback
	// window ending now.
	BarsByPeriod(ctx context.Context, symbol string, interval domain.Interval, period domain.Period) ([]domain.Bar, error)
}

// HTTPStatusError reports a non-200 response from a provider endpoint.
type HTTPStatusError struct {
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return "non-200 status code: " + http.StatusText(e.StatusCode)
}

// MaxOneMinuteLookbackDays bounds 1-minute history. Yahoo keeps about
// eight calendar days of 1-minute bars; anything older comes back
// empty, so longer requests are truncated up front.
const MaxOneMinuteLookbackDays = 8

// ClampOneMinuteRange truncates a 1-minute request to the most recent
// MaxOneMinuteLookbackDays of the range. Coarser intervals pass
// through untouched. The returned adjustment is nil when no truncation
// was needed.
func ClampOneMinuteRange(interval domain.Interval, start, end time.Time) (time.Time, *calendar.Adjustment) {
	if interval != domain.Interval1Min {
		return start, nil
	}
	floor := end.AddDate(0, 0, -MaxOneMinuteLookbackDays)
	if !start.Before(floor) {
		return start, nil
	}
	return floor, &calendar.Adjustment{
		Field: "start",
		From:  start,
		To:    floor,
		Note:  fmt.Sprintf("1-minute history is limited to %d calendar days", MaxOneMinuteLookbackDays),
	}
}
