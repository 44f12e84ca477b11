package strategy

// Levels holds the detected support/resistance pair. Support and Resistance
// are only meaningful when Set is true; RefreshLevels stores them as a pair
// or not at all, so a single flag covers both.
type Levels struct {
	Support    float64
	Resistance float64
	Set        bool
	Locked     bool
}

// detectLevels scans a window for swing highs/lows using strict 3-point
// comparison against immediate neighbors. The first and last points have no
// two neighbors and are skipped. Multiple minor swings may be flagged; only
// the extreme values survive: support is the lowest swing low, resistance
// the highest swing high.
func detectLevels(window []PricePoint) (support, resistance float64, hasSupport, hasResistance bool) {
	for i := 1; i < len(window)-1; i++ {
		cur := window[i]
		prev := window[i-1]
		next := window[i+1]

		if cur.High > prev.High && cur.High > next.High {
			if !hasResistance || cur.High > resistance {
				resistance = cur.High
				hasResistance = true
			}
		}
		if cur.Low < prev.Low && cur.Low < next.Low {
			if !hasSupport || cur.Low < support {
				support = cur.Low
				hasSupport = true
			}
		}
	}
	return support, resistance, hasSupport, hasResistance
}
