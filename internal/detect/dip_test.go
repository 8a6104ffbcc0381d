package detect

import (
	"errors"
	"math"
	"testing"
	"time"

	"intraday-lab/internal/calendar"
	"intraday-lab/internal/domain"
	"intraday-lab/internal/session"
)

func dipSession() domain.Session {
	return sessionOf(
		minuteBar(9, 40, 102, 100, 101),
		minuteBar(10, 30, 105, 101, 103),
		minuteBar(14, 0, 103, 98, 99),
	)
}

func TestScanDip_ClosedSessionGolden(t *testing.T) {
	// high 105, session low 98: drop = (105-98)/105 = 6.67%. Reported
	// at a 5% threshold, suppressed at 7%.
	rep, err := ScanDip(dipSession(), 5, false)
	if err != nil {
		t.Fatalf("ScanDip: %v", err)
	}
	if rep == nil {
		t.Fatal("ScanDip = nil, want a report at threshold 5")
	}
	if rep.SessionHigh != 105 {
		t.Errorf("SessionHigh = %g, want 105", rep.SessionHigh)
	}
	if rep.ReferencePrice != 98 {
		t.Errorf("ReferencePrice = %g, want the session low 98", rep.ReferencePrice)
	}
	if want := (105.0 - 98.0) / 105.0 * 100; math.Abs(rep.DropPct-want) > 1e-9 {
		t.Errorf("DropPct = %g, want %g", rep.DropPct, want)
	}

	rep, err = ScanDip(dipSession(), 7, false)
	if err != nil {
		t.Fatalf("ScanDip: %v", err)
	}
	if rep != nil {
		t.Errorf("ScanDip = %+v, want nil at threshold 7", rep)
	}
}

func TestScanDip_LiveSessionPricesOffLastClose(t *testing.T) {
	// Live scans measure to the latest close (99), not the session low:
	// (105-99)/105 = 5.71%.
	rep, err := ScanDip(dipSession(), 5, true)
	if err != nil {
		t.Fatalf("ScanDip: %v", err)
	}
	if rep == nil {
		t.Fatal("ScanDip = nil, want a report")
	}
	if rep.ReferencePrice != 99 {
		t.Errorf("ReferencePrice = %g, want the last close 99", rep.ReferencePrice)
	}
	if want := (105.0 - 99.0) / 105.0 * 100; math.Abs(rep.DropPct-want) > 1e-9 {
		t.Errorf("DropPct = %g, want %g", rep.DropPct, want)
	}
}

func TestScanDip_LiveReboundSuppressed(t *testing.T) {
	// The tape dipped to 98 but recovered to 104 by the latest bar, so
	// a live scan sees less than a 1% drop.
	s := sessionOf(
		minuteBar(9, 40, 105, 100, 101),
		minuteBar(10, 30, 101, 98, 98.5),
		minuteBar(14, 0, 104.5, 103, 104),
	)
	rep, err := ScanDip(s, 5, true)
	if err != nil {
		t.Fatalf("ScanDip: %v", err)
	}
	if rep != nil {
		t.Errorf("ScanDip = %+v, want nil after the rebound", rep)
	}
}

func TestScanDip_ZeroHighShortCircuits(t *testing.T) {
	s := sessionOf(minuteBar(9, 40, 0, 0, 0), minuteBar(9, 41, 0, 0, 0))
	rep, err := ScanDip(s, 0.0001, false)
	if err != nil {
		t.Fatalf("ScanDip: %v", err)
	}
	if rep != nil {
		t.Errorf("ScanDip = %+v, want nil for a zero-priced session", rep)
	}
}

func TestScanDip_EmptySession(t *testing.T) {
	s := domain.Session{Symbol: "AAPL", Date: time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC)}
	_, err := ScanDip(s, 5, false)
	if !errors.Is(err, session.ErrNoBars) {
		t.Errorf("ScanDip error = %v, want ErrNoBars", err)
	}
}

func TestDipReferenceDay(t *testing.T) {
	cal := calendar.NewWeekday()
	mon := time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC)
	tue := mon.AddDate(0, 0, 1)
	fri := mon.AddDate(0, 0, 4)
	sat := mon.AddDate(0, 0, 5)

	tests := []struct {
		name     string
		now      time.Time
		wantDay  time.Time
		wantLive bool
	}{
		{"mid-session", tue.Add(10 * time.Hour), tue, true},
		{"at the open", tue.Add(9*time.Hour + 30*time.Minute), tue, true},
		{"at the close", tue.Add(16 * time.Hour), tue, true},
		{"before the open", tue.Add(8 * time.Hour), mon, false},
		{"after the close", tue.Add(18 * time.Hour), mon, false},
		{"weekend", sat.Add(12 * time.Hour), fri, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			day, live := DipReferenceDay(cal, tt.now)
			if !day.Equal(tt.wantDay) {
				t.Errorf("day = %s, want %s", day.Format("2006-01-02"), tt.wantDay.Format("2006-01-02"))
			}
			if live != tt.wantLive {
				t.Errorf("live = %v, want %v", live, tt.wantLive)
			}
		})
	}
}
