package aggregate

import "intraday-lab/internal/domain"

// Volatility bucket boundaries, in total swings per run.
const (
	volatilityHighAbove   = 8
	volatilityMediumAbove = 4
)

// ClassifyVolatility buckets a symbol by its total swing count: more
// than 8 swings is High, more than 4 is Medium, anything else is Low.
func ClassifyVolatility(totalSwings int) domain.Volatility {
	switch {
	case totalSwings > volatilityHighAbove:
		return domain.VolatilityHigh
	case totalSwings > volatilityMediumAbove:
		return domain.VolatilityMedium
	default:
		return domain.VolatilityLow
	}
}
