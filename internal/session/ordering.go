package session

import (
	"sort"

	"intraday-lab/internal/domain"
)

// SortBars orders bars by timestamp ascending. The sort is stable so
// bars sharing a timestamp keep their provider order.
func SortBars(bars []domain.Bar) {
	sort.SliceStable(bars, func(i, j int) bool {
		return bars[i].Time.Before(bars[j].Time)
	})
}
