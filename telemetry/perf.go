package telemetry

import (
	"log/slog"
	"time"
)

// Phase names for the simulation step.
const (
	PhaseHabitability = "habitability"
	PhaseShuffle      = "shuffle"
	PhaseTurns        = "turns"
	PhaseTelemetry    = "telemetry"
)

var phaseOrder = []string{PhaseHabitability, PhaseShuffle, PhaseTurns, PhaseTelemetry}

// PerfSample holds timing data for a single step.
type PerfSample struct {
	StepDuration time.Duration
	Phases       map[string]time.Duration
}

// PerfCollector tracks step timing over a rolling window.
type PerfCollector struct {
	windowSize    int
	samples       []PerfSample
	writeIndex    int
	sampleCount   int
	currentPhases map[string]time.Duration
	stepStart     time.Time
	phaseStart    time.Time
	lastPhase     string
}

// NewPerfCollector creates a collector averaging over windowSize steps.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 100
	}
	return &PerfCollector{
		windowSize:    windowSize,
		samples:       make([]PerfSample, windowSize),
		currentPhases: make(map[string]time.Duration),
	}
}

// StartStep begins timing a new step.
func (p *PerfCollector) StartStep() {
	p.stepStart = time.Now()
	p.currentPhases = make(map[string]time.Duration)
	p.lastPhase = ""
}

// StartPhase ends the running phase, if any, and begins timing phase.
func (p *PerfCollector) StartPhase(phase string) {
	now := time.Now()
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
	}
	p.phaseStart = now
	p.lastPhase = phase
}

// EndStep finishes timing the current step and records the sample.
func (p *PerfCollector) EndStep() {
	now := time.Now()
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
	}

	p.samples[p.writeIndex] = PerfSample{
		StepDuration: now.Sub(p.stepStart),
		Phases:       p.currentPhases,
	}
	p.writeIndex = (p.writeIndex + 1) % p.windowSize
	if p.sampleCount < p.windowSize {
		p.sampleCount++
	}
}

// PerfStats holds aggregated timing over the window.
type PerfStats struct {
	Samples         int                      `json:"samples"`
	AvgStepDuration time.Duration            `json:"avg_step_ns"`
	MinStepDuration time.Duration            `json:"min_step_ns"`
	MaxStepDuration time.Duration            `json:"max_step_ns"`
	PhasePct        map[string]float64       `json:"phase_pct"`
	PhaseAvg        map[string]time.Duration `json:"-"`
	StepsPerSecond  float64                  `json:"steps_per_sec"`
}

// Stats computes aggregated statistics over the current window.
func (p *PerfCollector) Stats() PerfStats {
	stats := PerfStats{
		Samples:  p.sampleCount,
		PhaseAvg: make(map[string]time.Duration),
		PhasePct: make(map[string]float64),
	}
	if p.sampleCount == 0 {
		return stats
	}

	var total time.Duration
	phaseSum := make(map[string]time.Duration)
	for i := 0; i < p.sampleCount; i++ {
		s := p.samples[i]
		total += s.StepDuration
		if i == 0 || s.StepDuration < stats.MinStepDuration {
			stats.MinStepDuration = s.StepDuration
		}
		stats.MaxStepDuration = max(stats.MaxStepDuration, s.StepDuration)
		for phase, dur := range s.Phases {
			phaseSum[phase] += dur
		}
	}

	n := time.Duration(p.sampleCount)
	stats.AvgStepDuration = total / n
	for phase, sum := range phaseSum {
		stats.PhaseAvg[phase] = sum / n
		if stats.AvgStepDuration > 0 {
			stats.PhasePct[phase] = float64(stats.PhaseAvg[phase]) / float64(stats.AvgStepDuration) * 100
		}
	}
	if stats.AvgStepDuration > 0 {
		stats.StepsPerSecond = float64(time.Second) / float64(stats.AvgStepDuration)
	}
	return stats
}

// LogStats logs the timing summary.
func (s PerfStats) LogStats() {
	attrs := []any{
		"avg_step_us", s.AvgStepDuration.Microseconds(),
		"min_step_us", s.MinStepDuration.Microseconds(),
		"max_step_us", s.MaxStepDuration.Microseconds(),
		"steps_per_sec", int(s.StepsPerSecond),
	}
	for _, phase := range phaseOrder {
		if pct, ok := s.PhasePct[phase]; ok && pct > 0.1 {
			attrs = append(attrs, phase+"_pct", float64(int(pct*10))/10)
		}
	}
	slog.Info("perf", attrs...)
}
