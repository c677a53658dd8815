package telemetry

import (
	"testing"
	"time"
)

func TestPerfCollector_BasicTiming(t *testing.T) {
	pc := NewPerfCollector(10)

	for i := 0; i < 5; i++ {
		pc.StartStep()
		pc.StartPhase(PhaseHabitability)
		time.Sleep(100 * time.Microsecond)
		pc.StartPhase(PhaseTurns)
		time.Sleep(200 * time.Microsecond)
		pc.EndStep()
	}

	stats := pc.Stats()
	if stats.Samples != 5 {
		t.Errorf("expected 5 samples, got %d", stats.Samples)
	}
	if stats.AvgStepDuration <= 0 {
		t.Error("expected positive average step duration")
	}
	if stats.MinStepDuration > stats.MaxStepDuration {
		t.Errorf("min %v exceeds max %v", stats.MinStepDuration, stats.MaxStepDuration)
	}
	for _, phase := range []string{PhaseHabitability, PhaseTurns} {
		if _, ok := stats.PhaseAvg[phase]; !ok {
			t.Errorf("expected %s phase to be tracked", phase)
		}
	}
	if stats.PhaseAvg[PhaseTurns] < stats.PhaseAvg[PhaseHabitability] {
		t.Error("expected the longer phase to have the larger average")
	}
	if stats.StepsPerSecond <= 0 {
		t.Error("expected positive throughput")
	}
}

func TestPerfCollector_RollingWindow(t *testing.T) {
	pc := NewPerfCollector(5)

	for i := 0; i < 10; i++ {
		pc.StartStep()
		pc.StartPhase(PhaseTurns)
		pc.EndStep()
	}

	if got := pc.Stats().Samples; got != 5 {
		t.Errorf("expected window of 5 samples, got %d", got)
	}
}

func TestPerfCollector_Empty(t *testing.T) {
	stats := NewPerfCollector(0).Stats()
	if stats.Samples != 0 || stats.AvgStepDuration != 0 {
		t.Errorf("expected zero stats, got %+v", stats)
	}
	if stats.PhasePct == nil {
		t.Error("expected non-nil phase map")
	}
}
