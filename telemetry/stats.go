package telemetry

import (
	"log/slog"
	"slices"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/fitness/components"
)

// StepStats holds the model-level record of one step.
type StepStats struct {
	Step         int32   `csv:"step" json:"step"`
	Habitability float64 `csv:"habitability" json:"habitability"`
	Population   int     `csv:"population" json:"population"`
	Gestating    int     `csv:"gestating" json:"gestating"`

	// Fitness distribution over live agents
	AvgFitness float64 `csv:"avg_fitness" json:"avg_fitness"`
	FitnessStd float64 `csv:"fitness_std" json:"fitness_std"`
	FitnessP10 float64 `csv:"fitness_p10" json:"fitness_p10"`
	FitnessP50 float64 `csv:"fitness_p50" json:"fitness_p50"`
	FitnessP90 float64 `csv:"fitness_p90" json:"fitness_p90"`

	AvgFitnessNone   float64 `csv:"avg_fitness_none" json:"avg_fitness_none"`
	AvgFitnessChoosy float64 `csv:"avg_fitness_choosy" json:"avg_fitness_choosy"`

	EnergyMean float64 `csv:"energy_mean" json:"energy_mean"`

	// Population per cohort at step end
	CarrierNone   int `csv:"carrier_none" json:"carrier_none"`
	CarrierChoosy int `csv:"carrier_choosy" json:"carrier_choosy"`
	GiverNone     int `csv:"giver_none" json:"giver_none"`
	GiverChoosy   int `csv:"giver_choosy" json:"giver_choosy"`

	// Births during the step
	BirthsCarrierNone   int `csv:"births_carrier_none" json:"births_carrier_none"`
	BirthsCarrierChoosy int `csv:"births_carrier_choosy" json:"births_carrier_choosy"`
	BirthsGiverNone     int `csv:"births_giver_none" json:"births_giver_none"`
	BirthsGiverChoosy   int `csv:"births_giver_choosy" json:"births_giver_choosy"`

	// Deaths during the step
	DeathsCarrierNone   int `csv:"deaths_carrier_none" json:"deaths_carrier_none"`
	DeathsCarrierChoosy int `csv:"deaths_carrier_choosy" json:"deaths_carrier_choosy"`
	DeathsGiverNone     int `csv:"deaths_giver_none" json:"deaths_giver_none"`
	DeathsGiverChoosy   int `csv:"deaths_giver_choosy" json:"deaths_giver_choosy"`

	Births    int `csv:"births" json:"births"`
	Deaths    int `csv:"deaths" json:"deaths"`
	Mutations int `csv:"mutations" json:"mutations"` // Mutant offspring conceived

	// Lifetimes
	MeanLifespan float64 `csv:"mean_lifespan" json:"mean_lifespan"` // Of agents that died this step
	MaxChildren  int     `csv:"max_children" json:"max_children"`   // Among live agents
}

// SetPopulation fills the per-cohort population fields.
func (s *StepStats) SetPopulation(c components.CohortCounts) {
	s.CarrierNone, s.CarrierChoosy, s.GiverNone, s.GiverChoosy = c[0], c[1], c[2], c[3]
	s.Population = c.Total()
}

// SetBirths fills the per-cohort birth fields.
func (s *StepStats) SetBirths(c components.CohortCounts) {
	s.BirthsCarrierNone, s.BirthsCarrierChoosy, s.BirthsGiverNone, s.BirthsGiverChoosy = c[0], c[1], c[2], c[3]
	s.Births = c.Total()
}

// SetDeaths fills the per-cohort death fields.
func (s *StepStats) SetDeaths(c components.CohortCounts) {
	s.DeathsCarrierNone, s.DeathsCarrierChoosy, s.DeathsGiverNone, s.DeathsGiverChoosy = c[0], c[1], c[2], c[3]
	s.Deaths = c.Total()
}

// PopulationCounts returns the per-cohort population.
func (s *StepStats) PopulationCounts() components.CohortCounts {
	return components.CohortCounts{s.CarrierNone, s.CarrierChoosy, s.GiverNone, s.GiverChoosy}
}

// BirthCounts returns the per-cohort births.
func (s *StepStats) BirthCounts() components.CohortCounts {
	return components.CohortCounts{s.BirthsCarrierNone, s.BirthsCarrierChoosy, s.BirthsGiverNone, s.BirthsGiverChoosy}
}

// DeathCounts returns the per-cohort deaths.
func (s *StepStats) DeathCounts() components.CohortCounts {
	return components.CohortCounts{s.DeathsCarrierNone, s.DeathsCarrierChoosy, s.DeathsGiverNone, s.DeathsGiverChoosy}
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeDistribution returns mean, population standard deviation and the
// 10/50/90th percentiles of values. All zero for an empty slice.
func ComputeDistribution(values []float64) (mean, std, p10, p50, p90 float64) {
	if len(values) == 0 {
		return 0, 0, 0, 0, 0
	}

	mean, std = stat.PopMeanStdDev(values, nil)

	sorted := slices.Clone(values)
	slices.Sort(sorted)

	p10 = Percentile(sorted, 0.10)
	p50 = Percentile(sorted, 0.50)
	p90 = Percentile(sorted, 0.90)

	return mean, std, p10, p50, p90
}

// Mean returns the arithmetic mean of values, or 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

// LogValue implements slog.LogValuer for structured logging.
func (s StepStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("step", int(s.Step)),
		slog.Float64("habitability", s.Habitability),
		slog.Int("population", s.Population),
		slog.Int("gestating", s.Gestating),
		slog.Float64("avg_fitness", s.AvgFitness),
		slog.Float64("fitness_std", s.FitnessStd),
		slog.Float64("avg_fitness_none", s.AvgFitnessNone),
		slog.Float64("avg_fitness_choosy", s.AvgFitnessChoosy),
		slog.Float64("energy_mean", s.EnergyMean),
		slog.Int("carrier_none", s.CarrierNone),
		slog.Int("carrier_choosy", s.CarrierChoosy),
		slog.Int("giver_none", s.GiverNone),
		slog.Int("giver_choosy", s.GiverChoosy),
		slog.Int("births", s.Births),
		slog.Int("deaths", s.Deaths),
		slog.Int("mutations", s.Mutations),
		slog.Float64("mean_lifespan", s.MeanLifespan),
	)
}

// LogStats logs the step stats using slog.
func (s StepStats) LogStats() {
	slog.Info("stats",
		"step", s.Step,
		"habitability", s.Habitability,
		"population", s.Population,
		"avg_fitness", s.AvgFitness,
		"fitness_p10", s.FitnessP10,
		"fitness_p90", s.FitnessP90,
		"carrier_none", s.CarrierNone,
		"carrier_choosy", s.CarrierChoosy,
		"giver_none", s.GiverNone,
		"giver_choosy", s.GiverChoosy,
		"births", s.Births,
		"deaths", s.Deaths,
		"max_children", s.MaxChildren,
	)
}
