// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Neighborhood kinds accepted by GridConfig.Neighborhood.
const (
	NeighborhoodMoore      = "moore"
	NeighborhoodVonNeumann = "von_neumann"
)

// Juvenile feeding policies accepted by FeedingConfig.JuvenilePolicy.
const (
	JuvenileFlat = "flat" // fixed gain every step until adult
	JuvenileNone = "none" // no feeding until adult
)

// Config holds all simulation configuration parameters.
type Config struct {
	Grid         GridConfig         `yaml:"grid"`
	Population   PopulationConfig   `yaml:"population"`
	Fitness      FitnessConfig      `yaml:"fitness"`
	Energy       EnergyConfig       `yaml:"energy"`
	Metabolism   MetabolismConfig   `yaml:"metabolism"`
	Life         LifeConfig         `yaml:"life"`
	Mating       MatingConfig       `yaml:"mating"`
	Mutation     MutationConfig     `yaml:"mutation"`
	Feeding      FeedingConfig      `yaml:"feeding"`
	AgePenalty   AgePenaltyConfig   `yaml:"age_penalty"`
	Habitability HabitabilityConfig `yaml:"habitability"`
	Telemetry    TelemetryConfig    `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// GridConfig holds the dimensions and topology of the world grid.
type GridConfig struct {
	Width        int    `yaml:"width"`
	Height       int    `yaml:"height"`
	Torus        bool   `yaml:"torus"`
	Neighborhood string `yaml:"neighborhood"` // moore or von_neumann
	MaxPerCell   int    `yaml:"max_per_cell"` // Initial placement capacity (0 = unlimited)
}

// PopulationConfig holds the seed population parameters.
type PopulationConfig struct {
	Initial         int     `yaml:"initial"`
	CarrierFraction float64 `yaml:"carrier_fraction"` // Share of seeds that are carriers
	ChoosyFraction  float64 `yaml:"choosy_fraction"`  // Share of seeds using the choosy strategy
	InitialEnergy   float64 `yaml:"initial_energy"`   // Mean starting energy; stddev is a tenth of it
}

// FitnessConfig describes the seed fitness distribution.
// Seeds and mutants draw from a standard normal, optionally truncated to [Low, High].
type FitnessConfig struct {
	Truncate bool    `yaml:"truncate"`
	Low      float64 `yaml:"low"`
	High     float64 `yaml:"high"`
}

// EnergyConfig holds energy caps per life stage and role.
type EnergyConfig struct {
	MaxJuvenile     float64 `yaml:"max_juvenile"`
	MaxAdultCarrier float64 `yaml:"max_adult_carrier"`
	MaxAdultGiver   float64 `yaml:"max_adult_giver"`
}

// MetabolismConfig holds per-step energy costs.
type MetabolismConfig struct {
	BaseCost      float64 `yaml:"base_cost"`
	GestatingCost float64 `yaml:"gestating_cost"`
	ReserveRate   float64 `yaml:"reserve_rate"` // Offspring energy accrued per gestation step
}

// LifeConfig holds maturation parameters.
type LifeConfig struct {
	AdultAge int `yaml:"adult_age"` // Adult once lifetime exceeds this
}

// MatingConfig holds partner search and gestation parameters.
type MatingConfig struct {
	EnergyThreshold float64 `yaml:"energy_threshold"`
	SearchRadius    int     `yaml:"search_radius"`
	ChooseDelay     int     `yaml:"choose_delay"`
	GestationLength int     `yaml:"gestation_length"`
}

// MutationConfig holds mutation parameters.
type MutationConfig struct {
	Enabled bool    `yaml:"enabled"`
	Rate    float64 `yaml:"rate"`
}

// FeedingConfig holds feeding parameters.
type FeedingConfig struct {
	Gain            float64 `yaml:"gain"`             // Energy gained by a successful adult
	ThresholdStdDev float64 `yaml:"threshold_stddev"` // Spread of the draw around habitability
	JuvenilePolicy  string  `yaml:"juvenile_policy"`  // flat or none
	JuvenileGain    float64 `yaml:"juvenile_gain"`
}

// AgePenaltyConfig reduces effective fitness past an age threshold.
type AgePenaltyConfig struct {
	Enabled   bool    `yaml:"enabled"`
	Threshold int     `yaml:"threshold"`
	Rate      float64 `yaml:"rate"` // Fitness lost per step beyond Threshold
}

// HabitabilityConfig holds the carrying-capacity parameter.
type HabitabilityConfig struct {
	Abundance float64 `yaml:"abundance"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	AgentRows   bool `yaml:"agent_rows"`   // Record per-agent rows every step
	LogInterval int  `yaml:"log_interval"` // Steps between stats log lines (0 = never)
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	CellCount       int     // Grid.Width * Grid.Height
	InitialEnergySD float64 // Population.InitialEnergy / 10
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Default returns a fresh copy of the embedded defaults.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults are invalid: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.computeDerived()

	return cfg, nil
}

// Clone returns a deep copy with derived values recomputed.
func (c *Config) Clone() *Config {
	cp := *c
	cp.computeDerived()
	return &cp
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.CellCount = c.Grid.Width * c.Grid.Height
	c.Derived.InitialEnergySD = c.Population.InitialEnergy / 10
	if c.Grid.Neighborhood == "" {
		c.Grid.Neighborhood = NeighborhoodMoore
	}
	if c.Feeding.JuvenilePolicy == "" {
		c.Feeding.JuvenilePolicy = JuvenileFlat
	}
}

// Refresh recomputes derived values after fields were changed in place.
func (c *Config) Refresh() {
	c.computeDerived()
}

// Marshal returns the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	return data, nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := c.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
