// Package model runs the population: it owns the agent registry, the grid,
// the random stream and the per-step cohort counters, and drives every agent
// through one turn per step.
package model

import (
	"log/slog"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/fitness/components"
	"github.com/pthm-cable/fitness/config"
	"github.com/pthm-cable/fitness/random"
	"github.com/pthm-cable/fitness/systems"
	"github.com/pthm-cable/fitness/telemetry"
)

// Model holds the complete simulation state.
type Model struct {
	cfg   *config.Config
	world *ecs.World
	rng   *random.Source

	// Entity mappers. Carriers carry the two extra gestation components.
	carrierMapper *ecs.Map7[
		components.Identity,
		components.Cell,
		components.Energy,
		components.Genome,
		components.Life,
		components.Gestation,
		components.Courtship,
	]
	giverMapper *ecs.Map5[
		components.Identity,
		components.Cell,
		components.Energy,
		components.Genome,
		components.Life,
	]
	agentFilter *ecs.Filter5[
		components.Identity,
		components.Cell,
		components.Energy,
		components.Genome,
		components.Life,
	]

	// Individual component mappers for lookups
	idMap        *ecs.Map1[components.Identity]
	cellMap      *ecs.Map1[components.Cell]
	energyMap    *ecs.Map1[components.Energy]
	genomeMap    *ecs.Map1[components.Genome]
	lifeMap      *ecs.Map1[components.Life]
	gestationMap *ecs.Map1[components.Gestation]
	courtMap     *ecs.Map1[components.Courtship]

	grid *systems.Grid

	// Telemetry
	collector       *telemetry.Collector
	lifetimeTracker *telemetry.LifetimeTracker
	recorder        *telemetry.Recorder
	perf            *telemetry.PerfCollector

	// State
	tick         int32
	nextID       uint32
	habitability float64
	counts       components.CohortCounts
	running      bool
	extinct      bool

	// Reused per step
	order []ecs.Entity
	turn  turnResult
}

// New validates cfg and builds a model with its seed population. The config
// is copied; later changes to cfg do not affect the model. Sinks receive the
// initial snapshot and every step after it.
func New(cfg *config.Config, seed uint64, sinks ...telemetry.Sink) (*Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.Clone()

	world := ecs.NewWorld()
	m := &Model{
		cfg:   cfg,
		world: world,
		rng:   random.New(seed),
		carrierMapper: ecs.NewMap7[
			components.Identity,
			components.Cell,
			components.Energy,
			components.Genome,
			components.Life,
			components.Gestation,
			components.Courtship,
		](world),
		giverMapper: ecs.NewMap5[
			components.Identity,
			components.Cell,
			components.Energy,
			components.Genome,
			components.Life,
		](world),
		agentFilter: ecs.NewFilter5[
			components.Identity,
			components.Cell,
			components.Energy,
			components.Genome,
			components.Life,
		](world),
		idMap:        ecs.NewMap1[components.Identity](world),
		cellMap:      ecs.NewMap1[components.Cell](world),
		energyMap:    ecs.NewMap1[components.Energy](world),
		genomeMap:    ecs.NewMap1[components.Genome](world),
		lifeMap:      ecs.NewMap1[components.Life](world),
		gestationMap: ecs.NewMap1[components.Gestation](world),
		courtMap:     ecs.NewMap1[components.Courtship](world),

		grid: systems.NewGrid(cfg.Grid.Width, cfg.Grid.Height, cfg.Grid.Torus, cfg.Grid.Neighborhood),

		collector:       telemetry.NewCollector(),
		lifetimeTracker: telemetry.NewLifetimeTracker(),
		recorder:        telemetry.NewRecorder(sinks...),
		perf:            telemetry.NewPerfCollector(perfWindow),
		running:         true,
	}

	m.seedPopulation()
	m.habitability = systems.Habitability(m.grid.Population(), m.grid.CellCount(), cfg.Habitability.Abundance)

	slog.Debug("model initialized",
		"seed", seed,
		"population", m.grid.Population(),
		"grid", [2]int{cfg.Grid.Width, cfg.Grid.Height},
		"abundance", cfg.Habitability.Abundance,
	)

	m.collect()

	return m, nil
}

// Config returns the model's configuration. Callers must not modify it.
func (m *Model) Config() *config.Config { return m.cfg }

// Tick returns the number of completed steps.
func (m *Model) Tick() int32 { return m.tick }

// Population returns the number of live agents.
func (m *Model) Population() int { return m.grid.Population() }

// Habitability returns the value computed at the start of the last step.
func (m *Model) Habitability() float64 { return m.habitability }

// CohortCounts returns the live population per cohort at the last snapshot.
func (m *Model) CohortCounts() components.CohortCounts { return m.counts }

// Recorder returns the per-step time series and its sinks.
func (m *Model) Recorder() *telemetry.Recorder { return m.recorder }

// Grid returns the spatial grid.
func (m *Model) Grid() *systems.Grid { return m.grid }

// Running reports whether the driver should keep stepping.
// The model never clears it on its own.
func (m *Model) Running() bool { return m.running }

// Stop asks the driver to stop stepping.
func (m *Model) Stop() { m.running = false }

// Extinct reports whether the population has died out.
func (m *Model) Extinct() bool { return m.extinct }

// RecordBirth counts a birth in the cohort for the current step.
func (m *Model) RecordBirth(c components.Cohort) { m.collector.RecordBirth(c) }

// RecordDeath counts a death in the cohort for the current step.
func (m *Model) RecordDeath(c components.Cohort) { m.collector.RecordDeath(c) }

// Births returns the births counted so far in the current step.
func (m *Model) Births() components.CohortCounts { return m.collector.Births() }

// Deaths returns the deaths counted so far in the current step.
func (m *Model) Deaths() components.CohortCounts { return m.collector.Deaths() }
