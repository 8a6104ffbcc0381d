package session

import (
	"errors"
	"time"

	"intraday-lab/internal/domain"
)

// ErrNoBars is returned by extrema helpers called on an empty slice.
var ErrNoBars = errors.New("session: no bars")

// High returns the maximum bar high and the timestamp of its first
// occurrence.
func High(bars []domain.Bar) (float64, time.Time, error) {
	if len(bars) == 0 {
		return 0, time.Time{}, ErrNoBars
	}
	best, at := bars[0].High, bars[0].Time
	for _, b := range bars[1:] {
		if b.High > best {
			best, at = b.High, b.Time
		}
	}
	return best, at, nil
}

// Low returns the minimum bar low and the timestamp of its first
// occurrence.
func Low(bars []domain.Bar) (float64, time.Time, error) {
	if len(bars) == 0 {
		return 0, time.Time{}, ErrNoBars
	}
	best, at := bars[0].Low, bars[0].Time
	for _, b := range bars[1:] {
		if b.Low < best {
			best, at = b.Low, b.Time
		}
	}
	return best, at, nil
}

// LastClose returns the close of the final bar.
func LastClose(bars []domain.Bar) (float64, error) {
	if len(bars) == 0 {
		return 0, ErrNoBars
	}
	return bars[len(bars)-1].Close, nil
}
