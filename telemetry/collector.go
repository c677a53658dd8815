package telemetry

import "github.com/pthm-cable/fitness/components"

// Census is the state of the live population sampled at the end of a step.
type Census struct {
	Counts      components.CohortCounts
	Fitness     []float64 // One value per live agent
	Energy      []float64 // One value per live agent
	StrategyFit [2][]float64
	Gestating   int
	MaxChildren int
}

// Collector accumulates per-step events and produces StepStats.
type Collector struct {
	births    components.CohortCounts
	deaths    components.CohortCounts
	mutations int
	lifespans []float64
}

// NewCollector creates a new stats collector.
func NewCollector() *Collector {
	return &Collector{}
}

// RecordBirth records a birth in the given cohort.
func (c *Collector) RecordBirth(cohort components.Cohort) {
	c.births.Add(cohort, 1)
}

// RecordDeath records a death in the given cohort.
func (c *Collector) RecordDeath(cohort components.Cohort) {
	c.deaths.Add(cohort, 1)
}

// RecordLifespan records the age of an agent that died.
func (c *Collector) RecordLifespan(steps int) {
	c.lifespans = append(c.lifespans, float64(steps))
}

// RecordMutation records a mutant offspring conceived at mating.
func (c *Collector) RecordMutation() {
	c.mutations++
}

// Births returns the births recorded since the last reset.
func (c *Collector) Births() components.CohortCounts {
	return c.births
}

// Deaths returns the deaths recorded since the last reset.
func (c *Collector) Deaths() components.CohortCounts {
	return c.deaths
}

// Reset clears all counters.
func (c *Collector) Reset() {
	c.births = components.CohortCounts{}
	c.deaths = components.CohortCounts{}
	c.mutations = 0
	c.lifespans = c.lifespans[:0]
}

// Flush produces the StepStats for a step and resets counters for the next.
func (c *Collector) Flush(step int32, habitability float64, census Census) StepStats {
	mean, std, p10, p50, p90 := ComputeDistribution(census.Fitness)

	stats := StepStats{
		Step:         step,
		Habitability: habitability,
		Gestating:    census.Gestating,

		AvgFitness: mean,
		FitnessStd: std,
		FitnessP10: p10,
		FitnessP50: p50,
		FitnessP90: p90,

		AvgFitnessNone:   Mean(census.StrategyFit[components.StrategyNone]),
		AvgFitnessChoosy: Mean(census.StrategyFit[components.StrategyChoosy]),

		EnergyMean: Mean(census.Energy),

		Mutations:    c.mutations,
		MeanLifespan: Mean(c.lifespans),
		MaxChildren:  census.MaxChildren,
	}
	stats.SetPopulation(census.Counts)
	stats.SetBirths(c.births)
	stats.SetDeaths(c.deaths)

	c.Reset()

	return stats
}
