package domain

import "time"

// Bar represents one OHLCV price bar for a symbol at a given interval.
// Timestamps carry the exchange-local zone supplied by the data provider.
type Bar struct {
	Time   time.Time // start of the bar period, exchange-local
	Open   float64   // opening price
	High   float64   // highest price during the period
	Low    float64   // lowest price during the period
	Close  float64   // closing price
	Volume float64   // traded volume
}

// Interval is the bar granularity requested from a data provider.
type Interval string

// Supported bar intervals. Sub-minute granularity is not supported.
const (
	Interval1Min  Interval = "1m"
	Interval5Min  Interval = "5m"
	Interval15Min Interval = "15m"
	Interval30Min Interval = "30m"
	Interval1Hour Interval = "1h"
	Interval1Day  Interval = "1d"
)

// Valid reports whether the interval is one of the supported values.
func (i Interval) Valid() bool {
	switch i {
	case Interval1Min, Interval5Min, Interval15Min, Interval30Min, Interval1Hour, Interval1Day:
		return true
	}
	return false
}

// Intraday reports whether the interval is finer than one day.
func (i Interval) Intraday() bool {
	return i.Valid() && i != Interval1Day
}

// AnchorCapable reports whether the interval is fine enough for exact
// anchor-bar matching. Only 1-minute and 5-minute bars qualify.
func (i Interval) AnchorCapable() bool {
	return i == Interval1Min || i == Interval5Min
}

// Duration returns the bar period length.
func (i Interval) Duration() time.Duration {
	switch i {
	case Interval1Min:
		return time.Minute
	case Interval5Min:
		return 5 * time.Minute
	case Interval15Min:
		return 15 * time.Minute
	case Interval30Min:
		return 30 * time.Minute
	case Interval1Hour:
		return time.Hour
	case Interval1Day:
		return 24 * time.Hour
	default:
		return 0
	}
}

// Period is a provider-relative lookback selector, used instead of an
// explicit date range.
type Period string

// Supported lookback periods.
const (
	Period1Day    Period = "1d"
	Period5Days   Period = "5d"
	Period1Month  Period = "1mo"
	Period3Months Period = "3mo"
)

// Valid reports whether the period is one of the supported values.
func (p Period) Valid() bool {
	switch p {
	case Period1Day, Period5Days, Period1Month, Period3Months:
		return true
	}
	return false
}
