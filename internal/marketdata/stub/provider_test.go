package stub

import (
	"context"
	"errors"
	"testing"
	"time"

	"intraday-lab/internal/domain"
)

func TestProvider_ScriptedRange(t *testing.T) {
	p := NewProvider()
	day := time.Date(2025, time.March, 24, 0, 0, 0, 0, time.UTC)
	p.SetBars("AAPL", domain.Interval1Min, GenerateSession("AAPL", day, domain.Interval1Min, 30, 100))

	start := time.Date(2025, time.March, 24, 9, 30, 0, 0, time.UTC)
	bars, err := p.BarsByRange(context.Background(), "AAPL", domain.Interval1Min, start, start.Add(10*time.Minute))
	if err != nil {
		t.Fatalf("BarsByRange: %v", err)
	}
	if len(bars) != 10 {
		t.Fatalf("got %d bars, want 10", len(bars))
	}

	// Unknown symbols yield an empty slice, mirroring live providers.
	bars, err = p.BarsByRange(context.Background(), "MISSING", domain.Interval1Min, start, start.Add(time.Hour))
	if err != nil {
		t.Fatalf("unknown symbol should not error: %v", err)
	}
	if len(bars) != 0 {
		t.Errorf("got %d bars for unknown symbol, want 0", len(bars))
	}
}

func TestProvider_ScriptedError(t *testing.T) {
	p := NewProvider()
	scripted := errors.New("feed down")
	p.SetError("AAPL", scripted)

	_, err := p.BarsByPeriod(context.Background(), "AAPL", domain.Interval1Day, domain.Period5Days)
	if !errors.Is(err, scripted) {
		t.Fatalf("error = %v, want scripted error", err)
	}
}

func TestProvider_ReadsReturnCopies(t *testing.T) {
	p := NewProvider()
	day := time.Date(2025, time.March, 24, 0, 0, 0, 0, time.UTC)
	p.SetBars("AAPL", domain.Interval1Min, GenerateSession("AAPL", day, domain.Interval1Min, 5, 100))

	first, _ := p.BarsByPeriod(context.Background(), "AAPL", domain.Interval1Min, domain.Period1Day)
	first[0].Close = -1

	second, _ := p.BarsByPeriod(context.Background(), "AAPL", domain.Interval1Min, domain.Period1Day)
	if second[0].Close == -1 {
		t.Error("mutating a returned slice leaked into the script")
	}
}

func TestGenerateSession_Deterministic(t *testing.T) {
	day := time.Date(2025, time.March, 24, 0, 0, 0, 0, time.UTC)

	a := GenerateSession("TSLA", day, domain.Interval1Min, 60, 250)
	b := GenerateSession("TSLA", day, domain.Interval1Min, 60, 250)
	if len(a) != 60 || len(b) != 60 {
		t.Fatalf("lengths = %d, %d, want 60", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("bar %d differs between identical generations", i)
		}
	}

	// Different symbols take different paths.
	c := GenerateSession("AAPL", day, domain.Interval1Min, 60, 250)
	same := true
	for i := range a {
		if a[i].Close != c[i].Close {
			same = false
			break
		}
	}
	if same {
		t.Error("different symbols generated identical sessions")
	}
}

func TestGenerateSession_Shape(t *testing.T) {
	day := time.Date(2025, time.March, 24, 0, 0, 0, 0, time.UTC)
	bars := GenerateSession("AAPL", day, domain.Interval5Min, 12, 100)

	if got := bars[0].Time; got.Hour() != 9 || got.Minute() != 30 {
		t.Errorf("first bar at %s, want 09:30", got.Format("15:04"))
	}
	if got := bars[11].Time; got.Hour() != 10 || got.Minute() != 25 {
		t.Errorf("last bar at %s, want 10:25", got.Format("15:04"))
	}
	for i, b := range bars {
		if b.High < b.Open || b.High < b.Close || b.Low > b.Open || b.Low > b.Close {
			t.Errorf("bar %d extremes do not bound open/close: %+v", i, b)
		}
	}
}
