package systems

import (
	"math"
	"testing"
)

func TestHabitability_Values(t *testing.T) {
	tests := []struct {
		name       string
		population int
		cells      int
		abundance  float64
		want       float64
	}{
		{"below capacity", 50, 100, 1.0, 0},
		{"at capacity", 100, 100, 1.0, 0},
		{"double capacity", 200, 100, 1.0, 0.6744897501960817},
		{"empty grid uses one agent", 0, 100, 1.0, 0},
		{"huge abundance", 1, 1, 1e9, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Habitability(tt.population, tt.cells, tt.abundance)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Habitability(%d, %d, %v) = %v, want %v", tt.population, tt.cells, tt.abundance, got, tt.want)
			}
		})
	}
}

func TestHabitability_Deterministic(t *testing.T) {
	a := Habitability(321, 100, 0.8)
	b := Habitability(321, 100, 0.8)
	if a != b {
		t.Errorf("same inputs gave %v and %v", a, b)
	}
}

func TestHabitability_MonotoneInDensity(t *testing.T) {
	// The threshold never falls as density rises, so feeding success never rises.
	prevH := math.Inf(-1)
	prevP := math.Inf(1)
	for pop := 0; pop <= 1000; pop += 25 {
		h := Habitability(pop, 100, 1.0)
		if math.IsNaN(h) || math.IsInf(h, 0) {
			t.Fatalf("Habitability(%d) = %v", pop, h)
		}
		if h < prevH {
			t.Errorf("threshold fell from %v to %v at population %d", prevH, h, pop)
		}
		p := FeedingProbability(0, h, 1)
		if p > prevP {
			t.Errorf("feeding probability rose from %v to %v at population %d", prevP, p, pop)
		}
		prevH, prevP = h, p
	}
}

func TestHabitability_StrictlyHigherWhenCrowded(t *testing.T) {
	low := Habitability(150, 100, 1.0)
	high := Habitability(400, 100, 1.0)
	if !(high > low) {
		t.Errorf("expected crowded threshold %v > %v", high, low)
	}
}
