package domain

import "time"

// Session holds one symbol's ordered bars for a single calendar trading day.
// Sessions are built once per analysis pass and never mutated afterwards.
type Session struct {
	Symbol string    // upper-case ticker
	Date   time.Time // session day at midnight, bar-local zone
	Bars   []Bar     // strictly ordered by Bar.Time
}

// SessionDate truncates a bar timestamp to its calendar day, preserving
// the timestamp's zone so date boundaries follow the exchange clock.
func SessionDate(ts time.Time) time.Time {
	y, m, d := ts.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, ts.Location())
}
