package detect

import (
	"intraday-lab/internal/domain"
)

// CountCycles counts completed reversal cycles over a session. The
// reference price seeds from the first bar's open. A leg opens when a
// close moves thresholdPct away from the reference in either
// direction; the cycle completes, and counts, when a later close moves
// thresholdPct away from the new reference in the opposite direction.
// A single leg never counts, so the count over any prefix of the
// session is never larger than the count over the whole session.
func CountCycles(bars []domain.Bar, thresholdPct float64) int {
	if len(bars) == 0 {
		return 0
	}

	ref := bars[0].Open
	var direction domain.Direction
	cycles := 0

	for _, b := range bars {
		change := changePct(b.Close, ref)

		switch direction {
		case domain.DirectionUp:
			if change <= -thresholdPct {
				cycles++
				direction = ""
				ref = b.Close
			}
		case domain.DirectionDown:
			if change >= thresholdPct {
				cycles++
				direction = ""
				ref = b.Close
			}
		default:
			if change >= thresholdPct {
				direction = domain.DirectionUp
				ref = b.Close
			} else if change <= -thresholdPct {
				direction = domain.DirectionDown
				ref = b.Close
			}
		}
	}

	return cycles
}
