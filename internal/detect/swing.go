package detect

import (
	"intraday-lab/internal/domain"
)

// SwingDirections runs the alternating swing state machine over a
// session's closes and returns the emitted swings in order. The
// running high and low seed from the first close and track every close
// after it. A close thresholdPct above the running low emits an up
// swing; a close thresholdPct below the running high emits a down
// swing; the up condition is checked first. Each emit resets both
// running extremes to the emitting close, and a direction can never
// repeat back to back. Sessions with fewer than two bars emit nothing.
func SwingDirections(bars []domain.Bar, thresholdPct float64) []domain.Direction {
	if len(bars) < 2 {
		return nil
	}

	runningHigh := bars[0].Close
	runningLow := bars[0].Close
	var last domain.Direction
	var swings []domain.Direction

	for _, b := range bars[1:] {
		p := b.Close
		if p > runningHigh {
			runningHigh = p
		}
		if p < runningLow {
			runningLow = p
		}

		pctFromLow := changePct(p, runningLow)
		pctFromHigh := drawdownPct(runningHigh, p)

		switch {
		case pctFromLow >= thresholdPct && last != domain.DirectionUp:
			last = domain.DirectionUp
			swings = append(swings, last)
			runningHigh, runningLow = p, p
		case pctFromHigh >= thresholdPct && last != domain.DirectionDown:
			last = domain.DirectionDown
			swings = append(swings, last)
			runningHigh, runningLow = p, p
		}
	}

	return swings
}

// CountSwings folds the ordered swings of a session into up and down
// totals.
func CountSwings(bars []domain.Bar, thresholdPct float64) (up, down int) {
	for _, d := range SwingDirections(bars, thresholdPct) {
		if d == domain.DirectionUp {
			up++
		} else {
			down++
		}
	}
	return up, down
}
