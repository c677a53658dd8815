package main

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/fitness/config"
	"github.com/pthm-cable/fitness/model"
)

// Objective runs headless simulations and scores how close the settled
// population stays to a target size.
type Objective struct {
	params     *ParamVector
	steps      int
	seeds      []uint64
	target     float64
	baseConfig *config.Config

	mu       sync.Mutex
	lastMean float64 // settled mean population from the most recent Evaluate
}

// NewObjective creates a new objective.
func NewObjective(params *ParamVector, steps int, seeds []uint64, target float64, baseCfg *config.Config) *Objective {
	return &Objective{
		params:     params,
		steps:      steps,
		seeds:      seeds,
		target:     target,
		baseConfig: baseCfg,
	}
}

// LastMean returns the settled mean population from the most recent evaluation.
func (o *Objective) LastMean() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastMean
}

// Score components.
const (
	// Extinction costs the full squared error plus this much per missing step.
	extinctionPenalty = 1.0
	// Weight of the coefficient of variation of the settled population.
	stabilityWeight = 0.25
)

// runResult holds the population trace of one run.
type runResult struct {
	population []float64 // population after every step
	extinctAt  int       // step of extinction, or 0 if the run survived
}

// Evaluate computes the score for a raw parameter vector (lower = better),
// averaged across seeds run in parallel.
func (o *Objective) Evaluate(x []float64) float64 {
	cfg := o.baseConfig.Clone()
	o.params.ApplyToConfig(cfg, x)

	scores := make([]float64, len(o.seeds))
	means := make([]float64, len(o.seeds))
	var wg sync.WaitGroup
	for i, seed := range o.seeds {
		wg.Add(1)
		go func(idx int, s uint64) {
			defer wg.Done()
			r := o.runSimulation(cfg.Clone(), s)
			scores[idx] = o.score(r)
			means[idx] = settledMean(r.population)
		}(i, seed)
	}
	wg.Wait()

	o.mu.Lock()
	o.lastMean = stat.Mean(means, nil)
	o.mu.Unlock()

	return stat.Mean(scores, nil)
}

// runSimulation executes one headless run until extinction or the step cap.
func (o *Objective) runSimulation(cfg *config.Config, seed uint64) runResult {
	cfg.Telemetry.LogInterval = 0
	cfg.Telemetry.AgentRows = false

	var r runResult
	m, err := model.New(cfg, seed)
	if err != nil {
		// Parameters are clamped into valid ranges, so only a bad base
		// config gets here.
		r.extinctAt = 1
		return r
	}
	defer m.Recorder().Close()

	r.population = make([]float64, 0, o.steps)
	for int(m.Tick()) < o.steps {
		m.Step()
		r.population = append(r.population, float64(m.Population()))
		if m.Extinct() {
			r.extinctAt = int(m.Tick())
			break
		}
	}
	return r
}

// score is the squared relative error of the settled mean against the
// target, plus a stability term. Extinct runs score worse than any
// surviving run.
func (o *Objective) score(r runResult) float64 {
	if r.extinctAt > 0 {
		missing := float64(o.steps-r.extinctAt) / float64(o.steps)
		return 1 + stabilityWeight + extinctionPenalty*(1+missing)
	}
	settled := settledWindow(r.population)
	mean, std := stat.MeanStdDev(settled, nil)
	rel := (mean - o.target) / o.target
	cv := 0.0
	if mean > 0 && len(settled) > 1 {
		cv = std / mean
	}
	return min(rel*rel, 1) + stabilityWeight*min(cv, 1)
}

// settledWindow drops the first half of a trace as warmup.
func settledWindow(trace []float64) []float64 {
	return trace[len(trace)/2:]
}

func settledMean(trace []float64) float64 {
	w := settledWindow(trace)
	if len(w) == 0 {
		return 0
	}
	return stat.Mean(w, nil)
}

// finite reports whether every value is a finite number.
func finite(values []float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
