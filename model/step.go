package model

import (
	"log/slog"

	"github.com/pthm-cable/fitness/components"
	"github.com/pthm-cable/fitness/systems"
	"github.com/pthm-cable/fitness/telemetry"
)

// perfWindow is the number of steps step timings are averaged over.
const perfWindow = 100

// Step advances the model by one tick. Every agent live at the start of the
// tick takes exactly one turn in a freshly shuffled order. Offspring are
// created and starved agents removed right after the turn that produced them,
// so newborns wait for the next tick and removed agents are skipped.
func (m *Model) Step() {
	m.perf.StartStep()
	m.tick++

	m.perf.StartPhase(telemetry.PhaseHabitability)
	m.habitability = systems.Habitability(m.grid.Population(), m.grid.CellCount(), m.cfg.Habitability.Abundance)

	m.perf.StartPhase(telemetry.PhaseShuffle)
	order := m.shuffledAgents()

	m.perf.StartPhase(telemetry.PhaseTurns)
	for _, e := range order {
		if !m.world.Alive(e) {
			continue
		}
		m.runTurn(e)

		if len(m.turn.births) > 0 {
			m.applyBirths(m.turn.births)
		}
		if m.turn.remove {
			m.removeAgent(e)
		}
	}

	m.perf.StartPhase(telemetry.PhaseTelemetry)
	stats := m.collect()
	m.perf.EndStep()

	if int(m.tick)%perfWindow == 0 {
		m.recorder.SetPerf(m.perf.Stats())
	}
	if n := m.cfg.Telemetry.LogInterval; n > 0 && int(m.tick)%n == 0 {
		stats.LogStats()
		m.perf.Stats().LogStats()
	}
	if !m.extinct && stats.Population == 0 {
		m.extinct = true
		slog.Info("population extinct", "step", m.tick)
	}
}

// Run steps the model n times or until Stop is called.
func (m *Model) Run(n int) {
	for i := 0; i < n && m.running; i++ {
		m.Step()
	}
}

// collect samples the population, flushes the step counters and hands the
// snapshot to the recorder.
func (m *Model) collect() telemetry.StepStats {
	var census telemetry.Census
	var rows []telemetry.AgentRow
	withRows := m.cfg.Telemetry.AgentRows

	query := m.agentFilter.Query()
	for query.Next() {
		ident, cell, energy, genome, life := query.Get()

		census.Counts.Add(ident.Cohort(), 1)
		census.Fitness = append(census.Fitness, genome.Fitness)
		census.Energy = append(census.Energy, energy.Value)
		census.StrategyFit[ident.Strategy] = append(census.StrategyFit[ident.Strategy], genome.Fitness)

		carrying := false
		if ident.Role == components.RoleCarrier {
			carrying = m.gestationMap.Get(query.Entity()).Carrying
		}
		if carrying {
			census.Gestating++
		}

		if withRows {
			rows = append(rows, telemetry.AgentRow{
				Step:     m.tick,
				ID:       ident.ID,
				Role:     ident.Role.String(),
				Strategy: ident.Strategy.String(),
				X:        cell.X,
				Y:        cell.Y,
				Energy:   energy.Value,
				Fitness:  genome.Fitness,
				Lifetime: life.Lifetime,
				Adult:    life.Adult,
				Carrying: carrying,
			})
		}
	}
	census.MaxChildren = m.lifetimeTracker.MaxChildren()

	m.counts = census.Counts
	stats := m.collector.Flush(m.tick, m.habitability, census)
	m.recorder.Record(stats, rows)
	return stats
}
