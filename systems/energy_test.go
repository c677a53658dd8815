package systems

import (
	"math"
	"testing"

	"github.com/pthm-cable/fitness/components"
	"github.com/pthm-cable/fitness/config"
	"github.com/pthm-cable/fitness/random"
)

// ---------- caps and costs ----------

func TestEnergyCap(t *testing.T) {
	cfg := config.Default()
	tests := []struct {
		name  string
		role  components.Role
		adult bool
		want  float64
	}{
		{"juvenile carrier", components.RoleCarrier, false, cfg.Energy.MaxJuvenile},
		{"juvenile giver", components.RoleGiver, false, cfg.Energy.MaxJuvenile},
		{"adult carrier", components.RoleCarrier, true, cfg.Energy.MaxAdultCarrier},
		{"adult giver", components.RoleGiver, true, cfg.Energy.MaxAdultGiver},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EnergyCap(&cfg.Energy, tt.role, tt.adult); got != tt.want {
				t.Errorf("EnergyCap = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMetabolicCost(t *testing.T) {
	cfg := config.Default()
	if got := MetabolicCost(&cfg.Metabolism, false); got != 1.0 {
		t.Errorf("expected base cost 1.0, got %v", got)
	}
	if got := MetabolicCost(&cfg.Metabolism, true); got != 1.5 {
		t.Errorf("expected gestating cost 1.5, got %v", got)
	}
}

// ---------- AddEnergy ----------

func TestAddEnergy_ClampsAtMax(t *testing.T) {
	e := components.Energy{Value: 48, Max: 50}
	if got := AddEnergy(&e, 3); got != 2 {
		t.Errorf("expected gain 2, got %v", got)
	}
	if e.Value != 50 {
		t.Errorf("expected energy 50, got %v", e.Value)
	}
}

func TestAddEnergy_AboveMaxUntouched(t *testing.T) {
	// An adult demoted to a smaller cap is not trimmed, only blocked from gaining.
	e := components.Energy{Value: 90, Max: 80}
	if got := AddEnergy(&e, 3); got != 0 {
		t.Errorf("expected gain 0, got %v", got)
	}
	if e.Value != 90 {
		t.Errorf("energy should stay 90, got %v", e.Value)
	}
}

// ---------- gestation ----------

func TestAdvanceGestation_WindowLength(t *testing.T) {
	g := components.Gestation{}
	StartGestation(&g, 0.7, 4, 1, 2)

	for step := 1; step <= 3; step++ {
		if AdvanceGestation(&g, 0.25) {
			t.Fatalf("birth due early at step %d", step)
		}
		if !g.Carrying {
			t.Fatalf("carrying cleared early at step %d", step)
		}
	}
	if !AdvanceGestation(&g, 0.25) {
		t.Fatal("expected birth at step 4")
	}
	if g.Carrying {
		t.Error("carrying should be false after birth")
	}
	if math.Abs(g.Reserve-1.0) > 1e-12 {
		t.Errorf("expected reserve 1.0, got %v", g.Reserve)
	}
	if g.Parents != [2]uint32{1, 2} || g.Fitness != 0.7 {
		t.Errorf("gestation record lost parents/fitness: %+v", g)
	}
	if AdvanceGestation(&g, 0.25) {
		t.Error("idle gestation should never produce a birth")
	}
}

// ---------- age penalty ----------

func TestEffectiveFitness(t *testing.T) {
	cfg := config.AgePenaltyConfig{Enabled: true, Threshold: 10, Rate: 0.1}
	tests := []struct {
		name     string
		lifetime int
		want     float64
	}{
		{"young", 5, 1.0},
		{"at threshold", 10, 1.0},
		{"past threshold", 15, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EffectiveFitness(1.0, tt.lifetime, &cfg); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("EffectiveFitness = %v, want %v", got, tt.want)
			}
		})
	}

	cfg.Enabled = false
	if got := EffectiveFitness(1.0, 1000, &cfg); got != 1.0 {
		t.Errorf("disabled penalty changed fitness to %v", got)
	}
}

// ---------- feeding ----------

func TestFeedAdult_SuccessRateTracksHabitability(t *testing.T) {
	cfg := config.Default()
	src := random.New(21)
	const n = 20000

	rate := func(fitness, h float64) float64 {
		fed := 0
		for i := 0; i < n; i++ {
			e := components.Energy{Value: 10, Max: 100}
			if FeedAdult(&e, fitness, h, &cfg.Feeding, src) > 0 {
				fed++
			}
		}
		return float64(fed) / n
	}

	got := rate(0.5, 0)
	want := FeedingProbability(0.5, 0, cfg.Feeding.ThresholdStdDev)
	if math.Abs(got-want) > 0.015 {
		t.Errorf("success rate = %v, want ~%v", got, want)
	}
	if hi := rate(0.5, 1.5); hi >= got {
		t.Errorf("higher habitability threshold should lower success: %v >= %v", hi, got)
	}
}

func TestFeedJuvenile_Policies(t *testing.T) {
	cfg := config.Default()

	e := components.Energy{Value: 10, Max: 50}
	if got := FeedJuvenile(&e, &cfg.Feeding); got != cfg.Feeding.JuvenileGain {
		t.Errorf("flat policy gain = %v, want %v", got, cfg.Feeding.JuvenileGain)
	}

	cfg.Feeding.JuvenilePolicy = config.JuvenileNone
	e = components.Energy{Value: 10, Max: 50}
	if got := FeedJuvenile(&e, &cfg.Feeding); got != 0 || e.Value != 10 {
		t.Errorf("none policy should not feed, gained %v", got)
	}
}
