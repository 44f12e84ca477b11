package strategy

import "testing"

// breakoutWindow returns 12 points whose interior swings are a 2515 swing
// high and a 2480 swing low.
func breakoutWindow() []PricePoint {
	hl := [][2]float64{
		{2500, 2490},
		{2505, 2495},
		{2515, 2500}, // swing high
		{2510, 2498},
		{2505, 2485},
		{2500, 2480}, // swing low
		{2502, 2488},
		{2504, 2490},
		{2506, 2492},
		{2508, 2494},
		{2510, 2496},
		{2509, 2495},
	}
	points := make([]PricePoint, len(hl))
	for i, p := range hl {
		points[i] = PricePoint{High: p[0], Low: p[1], Close: (p[0] + p[1]) / 2}
	}
	return points
}

func TestDetectLevelsFindsExtremeSwings(t *testing.T) {
	support, resistance, hasSupport, hasResistance := detectLevels(breakoutWindow())

	if !hasSupport || !hasResistance {
		t.Fatalf("expected both levels, got hasSupport=%v hasResistance=%v", hasSupport, hasResistance)
	}
	if support != 2480 {
		t.Fatalf("support=%v, expected 2480", support)
	}
	if resistance != 2515 {
		t.Fatalf("resistance=%v, expected 2515", resistance)
	}
}

func TestDetectLevelsKeepsExtremeOfMultipleSwings(t *testing.T) {
	// Swing highs at 110, 120, 115 and swing lows at 85, 80, 84; only the
	// extremes should survive.
	hl := [][2]float64{
		{100, 95},
		{110, 98},
		{105, 90},
		{108, 85},
		{120, 88},
		{112, 80},
		{115, 86},
		{109, 84},
		{111, 89},
	}
	points := make([]PricePoint, len(hl))
	for i, p := range hl {
		points[i] = PricePoint{High: p[0], Low: p[1]}
	}

	support, resistance, hasSupport, hasResistance := detectLevels(points)
	if !hasSupport || !hasResistance {
		t.Fatalf("expected both levels, got hasSupport=%v hasResistance=%v", hasSupport, hasResistance)
	}
	if resistance != 120 {
		t.Fatalf("resistance=%v, expected 120", resistance)
	}
	if support != 80 {
		t.Fatalf("support=%v, expected 80", support)
	}
}

func TestDetectLevelsMonotonicSeriesHasNoSwings(t *testing.T) {
	var points []PricePoint
	for i := 0; i < 10; i++ {
		points = append(points, PricePoint{High: float64(100 + i), Low: float64(95 + i)})
	}

	_, _, hasSupport, hasResistance := detectLevels(points)
	if hasSupport || hasResistance {
		t.Fatalf("monotonic series should yield no swings, got hasSupport=%v hasResistance=%v", hasSupport, hasResistance)
	}
}

func TestDetectLevelsIgnoresEndpoints(t *testing.T) {
	// The global extremes sit on the window ends, where no 3-point swing
	// can be formed.
	points := []PricePoint{
		{High: 200, Low: 50},
		{High: 110, Low: 90},
		{High: 115, Low: 85}, // interior swing high 115 / swing low 85
		{High: 112, Low: 88},
		{High: 300, Low: 10},
	}

	support, resistance, hasSupport, hasResistance := detectLevels(points)
	if !hasSupport || !hasResistance {
		t.Fatalf("expected interior swings, got hasSupport=%v hasResistance=%v", hasSupport, hasResistance)
	}
	if resistance != 115 || support != 85 {
		t.Fatalf("got support=%v resistance=%v, expected 85/115", support, resistance)
	}
}
