package main

import (
	"math"
	"testing"

	"github.com/pthm-cable/fitness/config"
)

func TestNormalizeRoundTrip(t *testing.T) {
	pv := NewParamVector()
	raw := pv.DefaultVector()
	back := pv.Denormalize(pv.Normalize(raw))
	for i := range raw {
		if math.Abs(back[i]-raw[i]) > 1e-12 {
			t.Errorf("%s: expected %v, got %v", pv.Specs[i].Name, raw[i], back[i])
		}
	}
}

func TestDefaultsWithinBounds(t *testing.T) {
	pv := NewParamVector()
	for _, spec := range pv.Specs {
		if spec.Default < spec.Min || spec.Default > spec.Max {
			t.Errorf("%s default %v outside [%v, %v]", spec.Name, spec.Default, spec.Min, spec.Max)
		}
	}
}

func TestClamp(t *testing.T) {
	pv := NewParamVector()
	got := pv.Clamp([]float64{-1, 100, 1.0})
	want := []float64{pv.Specs[0].Min, pv.Specs[1].Max, 1.0}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("index %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestApplyAndExtract(t *testing.T) {
	pv := NewParamVector()
	cfg := config.Default()
	pv.ApplyToConfig(cfg, []float64{2.5, 4.0, 0.5})

	got := pv.ExtractFromConfig(cfg)
	want := []float64{2.5, 4.0, 0.5}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("%s: expected %v, got %v", pv.Specs[i].Name, want[i], got[i])
		}
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("applied config should stay valid: %v", err)
	}
}

func TestDefaultVectorMatchesDefaults(t *testing.T) {
	pv := NewParamVector()
	got := pv.ExtractFromConfig(config.Default())
	want := pv.DefaultVector()
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("%s: embedded default %v, spec default %v", pv.Specs[i].Name, got[i], want[i])
		}
	}
}

// ---------- objective ----------

func TestScoreExtinctionWorseThanSurvival(t *testing.T) {
	o := NewObjective(NewParamVector(), 100, []uint64{1}, 50, config.Default())

	flat := make([]float64, 100)
	for i := range flat {
		flat[i] = 500 // far from target, still alive
	}
	survived := o.score(runResult{population: flat})
	extinct := o.score(runResult{population: flat[:10], extinctAt: 10})
	if extinct <= survived {
		t.Errorf("expected extinction (%v) to score worse than survival (%v)", extinct, survived)
	}

	onTarget := make([]float64, 100)
	for i := range onTarget {
		onTarget[i] = 50
	}
	if s := o.score(runResult{population: onTarget}); s != 0 {
		t.Errorf("expected 0 for a steady on-target run, got %v", s)
	}
}

func TestEvaluateSmallRun(t *testing.T) {
	cfg := config.Default()
	cfg.Grid.Width, cfg.Grid.Height = 4, 4
	cfg.Population.Initial = 16
	cfg.Refresh()

	o := NewObjective(NewParamVector(), 20, []uint64{1, 2}, 16, cfg)
	score := o.Evaluate(NewParamVector().DefaultVector())
	if math.IsNaN(score) || score < 0 {
		t.Errorf("expected a non-negative score, got %v", score)
	}
	if o.LastMean() < 0 {
		t.Errorf("expected a non-negative mean, got %v", o.LastMean())
	}
}
