package config

import (
	"fmt"
	"math"
)

// ConfigurationError reports an invalid configuration value.
// It is returned before any simulation state is built.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

func invalid(field, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// Validate checks the configuration and returns the first problem found
// as a *ConfigurationError.
func (c *Config) Validate() error {
	if c.Grid.Width <= 0 {
		return invalid("grid.width", "must be positive, got %d", c.Grid.Width)
	}
	if c.Grid.Height <= 0 {
		return invalid("grid.height", "must be positive, got %d", c.Grid.Height)
	}
	switch c.Grid.Neighborhood {
	case NeighborhoodMoore, NeighborhoodVonNeumann:
	default:
		return invalid("grid.neighborhood", "unknown neighborhood %q", c.Grid.Neighborhood)
	}
	if c.Grid.MaxPerCell < 0 {
		return invalid("grid.max_per_cell", "must not be negative, got %d", c.Grid.MaxPerCell)
	}

	if c.Population.Initial < 0 {
		return invalid("population.initial", "must not be negative, got %d", c.Population.Initial)
	}
	if c.Grid.MaxPerCell > 0 {
		capacity := c.Grid.Width * c.Grid.Height * c.Grid.MaxPerCell
		if c.Population.Initial > capacity {
			return invalid("population.initial", "%d agents exceed grid capacity %d", c.Population.Initial, capacity)
		}
	}
	if err := fraction("population.carrier_fraction", c.Population.CarrierFraction); err != nil {
		return err
	}
	if err := fraction("population.choosy_fraction", c.Population.ChoosyFraction); err != nil {
		return err
	}
	if !(c.Population.InitialEnergy > 0) {
		return invalid("population.initial_energy", "must be positive, got %v", c.Population.InitialEnergy)
	}

	if c.Fitness.Truncate && !(c.Fitness.Low < c.Fitness.High) {
		return invalid("fitness", "low %v must be below high %v", c.Fitness.Low, c.Fitness.High)
	}

	for _, limit := range []struct {
		field string
		v     float64
	}{
		{"energy.max_juvenile", c.Energy.MaxJuvenile},
		{"energy.max_adult_carrier", c.Energy.MaxAdultCarrier},
		{"energy.max_adult_giver", c.Energy.MaxAdultGiver},
	} {
		if !(limit.v > 0) || math.IsInf(limit.v, 0) {
			return invalid(limit.field, "must be positive and finite, got %v", limit.v)
		}
	}

	if c.Metabolism.BaseCost < 0 || c.Metabolism.GestatingCost < 0 {
		return invalid("metabolism", "costs must not be negative")
	}
	if !(c.Metabolism.ReserveRate > 0) || math.IsInf(c.Metabolism.ReserveRate, 0) {
		return invalid("metabolism.reserve_rate", "must be positive and finite, got %v", c.Metabolism.ReserveRate)
	}
	if c.Life.AdultAge < 0 {
		return invalid("life.adult_age", "must not be negative, got %d", c.Life.AdultAge)
	}

	if c.Mating.SearchRadius < 0 {
		return invalid("mating.search_radius", "must not be negative, got %d", c.Mating.SearchRadius)
	}
	if c.Mating.ChooseDelay < 0 {
		return invalid("mating.choose_delay", "must not be negative, got %d", c.Mating.ChooseDelay)
	}
	if c.Mating.GestationLength < 1 {
		return invalid("mating.gestation_length", "must be at least 1, got %d", c.Mating.GestationLength)
	}

	if err := fraction("mutation.rate", c.Mutation.Rate); err != nil {
		return err
	}

	if c.Feeding.Gain < 0 || c.Feeding.JuvenileGain < 0 {
		return invalid("feeding", "gains must not be negative")
	}
	if !(c.Feeding.ThresholdStdDev > 0) {
		return invalid("feeding.threshold_stddev", "must be positive, got %v", c.Feeding.ThresholdStdDev)
	}
	switch c.Feeding.JuvenilePolicy {
	case JuvenileFlat, JuvenileNone:
	default:
		return invalid("feeding.juvenile_policy", "unknown policy %q", c.Feeding.JuvenilePolicy)
	}

	if c.AgePenalty.Enabled && (c.AgePenalty.Threshold < 0 || c.AgePenalty.Rate < 0) {
		return invalid("age_penalty", "threshold and rate must not be negative")
	}

	if !(c.Habitability.Abundance > 0) {
		return invalid("habitability.abundance", "must be positive, got %v", c.Habitability.Abundance)
	}

	if c.Telemetry.LogInterval < 0 {
		return invalid("telemetry.log_interval", "must not be negative, got %d", c.Telemetry.LogInterval)
	}

	return nil
}

func fraction(field string, v float64) error {
	if !(v >= 0 && v <= 1) {
		return invalid(field, "must be within [0, 1], got %v", v)
	}
	return nil
}
