package detect

import (
	"intraday-lab/internal/domain"
	"intraday-lab/internal/session"
)

// AnalyzeAnchor inspects one session relative to an anchor time-of-day.
// Bars must be pre-sorted by timestamp. The anchor bar is the first bar
// stamped exactly at the anchor minute; when no bar matches, the
// session is skipped and nil is returned. The post-anchor window runs
// from the anchor bar through the end of the session, inclusive.
//
// Direction is HIGH only when the post-anchor high exceeds the anchor
// close; a flat session classifies LOW. The gain is measured from the
// anchor close to whichever extreme the direction selected.
func AnalyzeAnchor(s domain.Session, anchor domain.TimeOfDay) *domain.AnchorRecord {
	idx := -1
	for i, b := range s.Bars {
		if anchor.Matches(b.Time) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}

	anchorBar := s.Bars[idx]
	post := s.Bars[idx:]

	postHigh, highAt, err := session.High(post)
	if err != nil {
		return nil
	}
	postLow, lowAt, err := session.Low(post)
	if err != nil {
		return nil
	}

	rec := &domain.AnchorRecord{
		Date:         s.Date,
		AnchorTime:   anchor,
		AnchorPrice:  anchorBar.Close,
		PostHigh:     postHigh,
		PostHighTime: highAt,
		PostLow:      postLow,
		PostLowTime:  lowAt,
	}

	if postHigh > rec.AnchorPrice {
		rec.Direction = domain.AnchorHigh
		rec.PctGain = changePct(postHigh, rec.AnchorPrice)
	} else {
		rec.Direction = domain.AnchorLow
		rec.PctGain = changePct(postLow, rec.AnchorPrice)
	}

	return rec
}
