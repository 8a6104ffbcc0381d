package detect

import (
	"fmt"
	"time"

	"intraday-lab/internal/calendar"
	"intraday-lab/internal/domain"
	"intraday-lab/internal/session"
)

// DipReferenceDay picks the single session a dip scan evaluates. During
// regular hours on a trading day the scan is live: it looks at today's
// partial session and prices off the most recent close. At any other
// time it looks at the most recent completed trading day and prices
// off that session's low.
func DipReferenceDay(cal calendar.Calendar, now time.Time) (day time.Time, live bool) {
	if calendar.MarketOpenNow(cal, now) {
		return domain.SessionDate(now), true
	}
	return domain.SessionDate(cal.PreviousTradingDay(now)), false
}

// ScanDip evaluates one session against the dip threshold. The drop is
// measured from the session high down to the reference price: the last
// close when live, the session low otherwise. Returns nil when the
// drop does not reach thresholdPct. A zero session high short-circuits
// to a 0% drop.
func ScanDip(s domain.Session, thresholdPct float64, live bool) (*domain.DipReport, error) {
	high, _, err := session.High(s.Bars)
	if err != nil {
		return nil, fmt.Errorf("dip scan %s: %w", s.Date.Format("2006-01-02"), err)
	}

	var ref float64
	if live {
		ref, err = session.LastClose(s.Bars)
	} else {
		ref, _, err = session.Low(s.Bars)
	}
	if err != nil {
		return nil, fmt.Errorf("dip scan %s: %w", s.Date.Format("2006-01-02"), err)
	}

	drop := drawdownPct(high, ref)
	if drop < thresholdPct {
		return nil, nil
	}

	return &domain.DipReport{
		Date:           s.Date,
		ReferencePrice: ref,
		SessionHigh:    high,
		DropPct:        drop,
	}, nil
}
