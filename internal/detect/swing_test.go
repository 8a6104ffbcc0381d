package detect

import (
	"testing"
	"time"

	"intraday-lab/internal/domain"
)

// barsFromCloses builds a one-minute session where every bar's close is
// taken from closes and the first bar's open doubles as the session
// open.
func barsFromCloses(closes ...float64) []domain.Bar {
	bars := make([]domain.Bar, len(closes))
	for i, c := range closes {
		bars[i] = domain.Bar{
			Time:  time.Date(2025, time.March, 3, 9, 30+i, 0, 0, time.UTC),
			Open:  closes[0],
			High:  c,
			Low:   c,
			Close: c,
		}
	}
	return bars
}

func TestCountSwings_GoldenSession(t *testing.T) {
	// closes 100 -> 106 -> 103 -> 112 -> 108 at 5%:
	// 106 is 6% off the 100 low, first up swing, extremes reset to 106.
	// 103 sits 2.8% under the 106 high, no event.
	// 112 is 8.7% off the 103 low but the last swing was up, blocked.
	// 108 moves under 5% from both extremes. Final: one up, zero down.
	up, down := CountSwings(barsFromCloses(100, 106, 103, 112, 108), 5)
	if up != 1 || down != 0 {
		t.Errorf("CountSwings = {up:%d down:%d}, want {up:1 down:0}", up, down)
	}
}

func TestCountSwings_Alternation(t *testing.T) {
	// A sawtooth large enough to trigger on every move alternates
	// strictly: five moves, three up and two down.
	up, down := CountSwings(barsFromCloses(100, 120, 96, 115, 92, 110), 10)
	if up != 3 || down != 2 {
		t.Errorf("CountSwings = {up:%d down:%d}, want {up:3 down:2}", up, down)
	}
}

func TestSwingDirections_StrictAlternation(t *testing.T) {
	sessions := [][]float64{
		{100, 120, 96, 115, 92, 110},
		{50, 50.4, 49.9, 55, 48, 60, 44},
		{100, 106, 103, 112, 108},
		{10, 9, 8, 7, 6, 5},
	}

	for _, closes := range sessions {
		swings := SwingDirections(barsFromCloses(closes...), 5)
		for i := 1; i < len(swings); i++ {
			if swings[i] == swings[i-1] {
				t.Errorf("closes %v: swings %v repeat direction at %d", closes, swings, i)
			}
		}
	}
}

func TestSwingDirections_GoldenSession(t *testing.T) {
	swings := SwingDirections(barsFromCloses(100, 106, 103, 112, 108), 5)
	if len(swings) != 1 || swings[0] != domain.DirectionUp {
		t.Errorf("SwingDirections = %v, want [up]", swings)
	}
}

func TestCountSwings_Properties(t *testing.T) {
	sessions := [][]float64{
		{100, 106, 103, 112, 108},
		{100, 120, 96, 115, 92, 110},
		{50, 50.4, 49.9, 55, 48, 60, 44},
		{10, 9, 8, 7, 6, 5},
		{5, 6, 7, 8, 9, 10},
		{100, 100, 100, 100},
	}

	for _, closes := range sessions {
		up, down := CountSwings(barsFromCloses(closes...), 5)

		// Counts can never exceed the number of transitions.
		if up+down > len(closes)-1 {
			t.Errorf("closes %v: up+down = %d exceeds bar_count-1 = %d", closes, up+down, len(closes)-1)
		}
		// Alternation keeps the counts within one of each other.
		if diff := up - down; diff < -1 || diff > 1 {
			t.Errorf("closes %v: |up-down| = %d, alternation violated", closes, diff)
		}
	}
}

func TestCountSwings_ConstantPrice(t *testing.T) {
	up, down := CountSwings(barsFromCloses(42, 42, 42, 42, 42), 1)
	if up != 0 || down != 0 {
		t.Errorf("constant session produced {up:%d down:%d}", up, down)
	}
}

func TestCountSwings_TooFewBars(t *testing.T) {
	if up, down := CountSwings(nil, 5); up != 0 || down != 0 {
		t.Errorf("nil bars produced {up:%d down:%d}", up, down)
	}
	if up, down := CountSwings(barsFromCloses(100), 5); up != 0 || down != 0 {
		t.Errorf("single bar produced {up:%d down:%d}", up, down)
	}
}

func TestCountSwings_ZeroPriceDoesNotDivide(t *testing.T) {
	// A zero running low or high must evaluate its percentage to 0.
	up, down := CountSwings(barsFromCloses(0, 0, 5, 0), 5)
	if up < 0 || down < 0 {
		t.Fatalf("unexpected counts {up:%d down:%d}", up, down)
	}
}

func TestCountSwings_DirectionGuardBlocksRepeat(t *testing.T) {
	// 120 fires the up swing and resets the extremes to 120. The slide
	// to 90 fires a down swing and resets to 90. The second slide to 84
	// is 6.7% under the 90 high but the last swing was down, so it is
	// blocked; only the final rally to 95 (13% off the 84 low) fires.
	up, down := CountSwings(barsFromCloses(100, 120, 90, 84, 95), 5)
	if up != 2 || down != 1 {
		t.Errorf("CountSwings = {up:%d down:%d}, want {up:2 down:1}", up, down)
	}
}
