package detect

// changePct returns the signed percent change from ref to p. A zero
// ref yields 0 rather than dividing.
func changePct(p, ref float64) float64 {
	if ref == 0 {
		return 0
	}
	return (p - ref) / ref * 100
}

// drawdownPct returns the percent decline from high down to p. A zero
// high yields 0 rather than dividing.
func drawdownPct(high, p float64) float64 {
	if high == 0 {
		return 0
	}
	return (high - p) / high * 100
}
