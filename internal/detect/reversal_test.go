package detect

import (
	"testing"

	"intraday-lab/internal/domain"
)

// barsWithOpen is barsFromCloses with the session open decoupled from
// the first close, since cycle detection seeds from the open.
func barsWithOpen(open float64, closes ...float64) []domain.Bar {
	bars := barsFromCloses(closes...)
	for i := range bars {
		bars[i].Open = open
	}
	return bars
}

func TestCountCycles_GoldenSession(t *testing.T) {
	// open 100, closes 100 -> 103 -> 106 -> 101 -> 97 at 3%:
	// 103 opens an up leg and moves the reference to 103. 106 is only
	// 2.9% above it, 101 only 1.9% below. 97 is 5.8% below, closing
	// the cycle. One completed cycle, the final down leg stays open.
	got := CountCycles(barsFromCloses(100, 103, 106, 101, 97), 3)
	if got != 1 {
		t.Errorf("CountCycles = %d, want 1", got)
	}
}

func TestCountCycles_SeedsFromSessionOpen(t *testing.T) {
	// The first close already sits 4% over the 100 open, so the up leg
	// opens on the very first bar and the pullback completes the cycle.
	got := CountCycles(barsWithOpen(100, 104, 100), 3)
	if got != 1 {
		t.Errorf("CountCycles = %d, want 1", got)
	}
}

func TestCountCycles_SingleLegNeverCounts(t *testing.T) {
	// A one-way march opens a leg on the first qualifying close and
	// then never reverses.
	if got := CountCycles(barsFromCloses(100, 110, 120, 130), 5); got != 0 {
		t.Errorf("monotone rally counted %d cycles, want 0", got)
	}
	if got := CountCycles(barsFromCloses(100, 92, 85, 78), 5); got != 0 {
		t.Errorf("monotone slide counted %d cycles, want 0", got)
	}
}

func TestCountCycles_DownLegFirst(t *testing.T) {
	// Cycles complete in either order: a 4% drop then a 5.2% rebound
	// counts exactly like rise-then-fall.
	got := CountCycles(barsWithOpen(100, 96, 101), 3)
	if got != 1 {
		t.Errorf("CountCycles = %d, want 1", got)
	}
}

func TestCountCycles_PrefixMonotonicity(t *testing.T) {
	closes := []float64{104, 99, 95, 100, 96, 102, 97}

	prev := 0
	for n := 1; n <= len(closes); n++ {
		got := CountCycles(barsWithOpen(100, closes[:n]...), 3)
		if got < prev {
			t.Fatalf("prefix of %d bars counted %d cycles, previous prefix counted %d", n, got, prev)
		}
		prev = got
	}
}

func TestCountCycles_ConstantPrice(t *testing.T) {
	if got := CountCycles(barsFromCloses(42, 42, 42, 42), 1); got != 0 {
		t.Errorf("constant session counted %d cycles", got)
	}
}

func TestCountCycles_NoBars(t *testing.T) {
	if got := CountCycles(nil, 3); got != 0 {
		t.Errorf("nil bars counted %d cycles", got)
	}
}

func TestCountCycles_ZeroReferenceDoesNotDivide(t *testing.T) {
	// A zero open pins every percent change to 0, so no leg ever opens.
	if got := CountCycles(barsWithOpen(0, 50, 60, 40), 5); got != 0 {
		t.Errorf("zero open counted %d cycles", got)
	}
}
