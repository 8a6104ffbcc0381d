package detect

import (
	"math"
	"testing"
	"time"

	"intraday-lab/internal/domain"
)

func minuteBar(hour, min int, high, low, close float64) domain.Bar {
	return domain.Bar{
		Time:  time.Date(2025, time.March, 3, hour, min, 0, 0, time.UTC),
		Open:  close,
		High:  high,
		Low:   low,
		Close: close,
	}
}

func sessionOf(bars ...domain.Bar) domain.Session {
	return domain.Session{
		Symbol: "AAPL",
		Date:   domain.SessionDate(bars[0].Time),
		Bars:   bars,
	}
}

func TestAnalyzeAnchor_GoldenSession(t *testing.T) {
	// Anchor close 50 at 09:40; the post-anchor window tops out at 53
	// (10:05) and bottoms at 49 (11:00). The 09:30 spike to 54 sits
	// before the anchor and must not count.
	s := sessionOf(
		minuteBar(9, 30, 54, 50.5, 51),
		minuteBar(9, 40, 50, 50, 50),
		minuteBar(10, 5, 53, 51, 52),
		minuteBar(10, 30, 52.5, 50, 50.5),
		minuteBar(11, 0, 50, 49, 49.5),
		minuteBar(11, 30, 49.8, 49, 49.2),
	)

	rec := AnalyzeAnchor(s, domain.TimeOfDay{Hour: 9, Minute: 40})
	if rec == nil {
		t.Fatal("AnalyzeAnchor returned nil for a session with an anchor bar")
	}
	if rec.Direction != domain.AnchorHigh {
		t.Errorf("Direction = %s, want %s", rec.Direction, domain.AnchorHigh)
	}
	if rec.AnchorPrice != 50 {
		t.Errorf("AnchorPrice = %g, want 50", rec.AnchorPrice)
	}
	if rec.PostHigh != 53 {
		t.Errorf("PostHigh = %g, want 53 (pre-anchor spike must be excluded)", rec.PostHigh)
	}
	if rec.PostLow != 49 {
		t.Errorf("PostLow = %g, want 49", rec.PostLow)
	}
	if math.Abs(rec.PctGain-6.0) > 1e-9 {
		t.Errorf("PctGain = %g, want 6.0", rec.PctGain)
	}
}

func TestAnalyzeAnchor_FirstOccurrenceTimestamps(t *testing.T) {
	// 49 prints at 11:00 and again at 11:30; the record keeps the
	// first occurrence.
	s := sessionOf(
		minuteBar(9, 40, 50, 50, 50),
		minuteBar(10, 5, 53, 51, 52),
		minuteBar(11, 0, 50, 49, 49.5),
		minuteBar(11, 30, 49.8, 49, 49.2),
	)

	rec := AnalyzeAnchor(s, domain.TimeOfDay{Hour: 9, Minute: 40})
	if rec == nil {
		t.Fatal("AnalyzeAnchor returned nil")
	}
	if got, want := rec.PostHighTime, s.Bars[1].Time; !got.Equal(want) {
		t.Errorf("PostHighTime = %s, want %s", got, want)
	}
	if got, want := rec.PostLowTime, s.Bars[2].Time; !got.Equal(want) {
		t.Errorf("PostLowTime = %s, want %s", got, want)
	}
}

func TestAnalyzeAnchor_SkipsSessionWithoutAnchorBar(t *testing.T) {
	// No bar prints exactly at 12:00, so the session is skipped rather
	// than matched to a neighbour.
	s := sessionOf(
		minuteBar(9, 40, 50, 50, 50),
		minuteBar(10, 5, 53, 51, 52),
	)

	if rec := AnalyzeAnchor(s, domain.TimeOfDay{Hour: 12, Minute: 0}); rec != nil {
		t.Errorf("AnalyzeAnchor = %+v, want nil for missing anchor bar", rec)
	}
}

func TestAnalyzeAnchor_FlatSessionClassifiesLow(t *testing.T) {
	// The post-anchor high never exceeds the anchor close, so even a
	// dead-flat tape lands on the LOW side with a 0% move.
	s := sessionOf(
		minuteBar(9, 40, 50, 50, 50),
		minuteBar(10, 0, 50, 50, 50),
		minuteBar(10, 20, 50, 50, 50),
	)

	rec := AnalyzeAnchor(s, domain.TimeOfDay{Hour: 9, Minute: 40})
	if rec == nil {
		t.Fatal("AnalyzeAnchor returned nil")
	}
	if rec.Direction != domain.AnchorLow {
		t.Errorf("Direction = %s, want %s", rec.Direction, domain.AnchorLow)
	}
	if rec.PctGain != 0 {
		t.Errorf("PctGain = %g, want 0", rec.PctGain)
	}
}

func TestAnalyzeAnchor_LowDirectionMeasuresDecline(t *testing.T) {
	// Post-anchor trade never breaks over the 50 anchor, so direction
	// is LOW and the move is the signed drop to the post-anchor low.
	s := sessionOf(
		minuteBar(9, 40, 50, 50, 50),
		minuteBar(10, 0, 50, 48, 48.5),
		minuteBar(10, 30, 49, 47, 47),
	)

	rec := AnalyzeAnchor(s, domain.TimeOfDay{Hour: 9, Minute: 40})
	if rec == nil {
		t.Fatal("AnalyzeAnchor returned nil")
	}
	if rec.Direction != domain.AnchorLow {
		t.Errorf("Direction = %s, want %s", rec.Direction, domain.AnchorLow)
	}
	if math.Abs(rec.PctGain-(-6.0)) > 1e-9 {
		t.Errorf("PctGain = %g, want -6.0", rec.PctGain)
	}
}

func TestAnalyzeAnchor_AnchorBarInPostWindow(t *testing.T) {
	// The window is inclusive of the anchor bar itself: its own high
	// and low compete with later bars.
	s := sessionOf(
		minuteBar(9, 40, 55, 50, 50),
		minuteBar(10, 0, 52, 51, 51),
	)

	rec := AnalyzeAnchor(s, domain.TimeOfDay{Hour: 9, Minute: 40})
	if rec == nil {
		t.Fatal("AnalyzeAnchor returned nil")
	}
	if rec.PostHigh != 55 {
		t.Errorf("PostHigh = %g, want 55 from the anchor bar itself", rec.PostHigh)
	}
}
