package model

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/fitness/components"
	"github.com/pthm-cable/fitness/config"
	"github.com/pthm-cable/fitness/systems"
)

// turnResult holds the structural changes an agent queued during its turn.
type turnResult struct {
	births []newborn
	remove bool
}

func (r *turnResult) reset() {
	r.births = r.births[:0]
	r.remove = false
}

// runTurn executes one agent's turn: metabolism, mating, movement, then the
// survival check and feeding. Structural changes are queued in m.turn.
func (m *Model) runTurn(e ecs.Entity) {
	cfg := m.cfg
	m.turn.reset()

	ident := m.idMap.Get(e)
	energy := m.energyMap.Get(e)
	life := m.lifeMap.Get(e)
	cell := m.cellMap.Get(e)

	var gestation *components.Gestation
	if ident.Role == components.RoleCarrier {
		gestation = m.gestationMap.Get(e)
	}

	// Metabolism
	gestating := gestation != nil && gestation.Carrying
	energy.Value -= systems.MetabolicCost(&cfg.Metabolism, gestating)
	if gestating && systems.AdvanceGestation(gestation, cfg.Metabolism.ReserveRate) {
		m.turn.births = append(m.turn.births, m.deliver(gestation, *cell))
	}

	// Mate
	if life.Adult && gestation != nil {
		m.mate(e, ident, energy, life, gestation)
	}

	// Move
	to := m.grid.RandomNeighbor(*cell, m.rng)
	m.grid.Move(e, *cell, to)
	*cell = to

	// Survive
	if energy.Value <= 0 {
		m.turn.remove = true
		return
	}
	life.Lifetime++
	if !life.Adult && life.Lifetime > cfg.Life.AdultAge {
		life.Adult = true
		energy.Max = systems.EnergyCap(&cfg.Energy, ident.Role, true)
	}

	// Feed
	var gained float64
	if life.Adult {
		fitness := systems.EffectiveFitness(m.genomeMap.Get(e).Fitness, life.Lifetime, &cfg.AgePenalty)
		gained = systems.FeedAdult(energy, fitness, m.habitability, &cfg.Feeding, m.rng)
	} else {
		gained = systems.FeedJuvenile(energy, &cfg.Feeding)
	}
	if gained > 0 {
		m.lifetimeTracker.RecordFeed(ident.ID, energy.Value)
	}
}

// deliver builds the offspring of a completed gestation.
func (m *Model) deliver(g *components.Gestation, at components.Cell) newborn {
	role := components.RoleCarrier
	if m.rng.Bernoulli(0.5) {
		role = components.RoleGiver
	}
	return newborn{
		role:     role,
		strategy: g.Strategy,
		fitness:  g.Fitness,
		energy:   g.Reserve,
		cell:     at,
		parents:  g.Parents,
	}
}

// mate runs a carrier's partner search and starts gestation on commit.
func (m *Model) mate(e ecs.Entity, ident *components.Identity, energy *components.Energy, life *components.Life, g *components.Gestation) {
	cfg := m.cfg
	if g.Carrying {
		return
	}

	court := m.courtMap.Get(e)
	if energy.Value <= cfg.Mating.EnergyThreshold {
		// A carrier that cannot mate is not courting anyone.
		court.Clear()
		return
	}

	candidates := m.candidates(*m.cellMap.Get(e), &cfg.Mating)
	partner, ok := systems.SelectPartner(ident.Strategy, candidates, court, cfg.Mating.ChooseDelay, m.rng)
	if !ok {
		return
	}

	partnerID := m.idMap.Get(partner)
	fitness, mutated := systems.OffspringFitness(
		m.genomeMap.Get(e).Fitness,
		m.genomeMap.Get(partner).Fitness,
		life.Lifetime,
		cfg,
		m.rng,
	)
	if mutated {
		m.collector.RecordMutation()
	}

	systems.StartGestation(g, fitness, cfg.Mating.GestationLength, ident.ID, partnerID.ID)
	g.Strategy = ident.Strategy
	if m.rng.Bernoulli(0.5) {
		g.Strategy = partnerID.Strategy
	}
}

// candidates lists the givers within the search radius, own cell included,
// in neighborhood enumeration order.
func (m *Model) candidates(at components.Cell, cfg *config.MatingConfig) []systems.Candidate {
	var out []systems.Candidate
	for _, other := range m.grid.AgentsWithin(at, cfg.SearchRadius, true) {
		if m.idMap.Get(other).Role != components.RoleGiver {
			continue
		}
		out = append(out, systems.Candidate{Entity: other, Fitness: m.genomeMap.Get(other).Fitness})
	}
	return out
}

// shuffledAgents returns the live agents in a fresh random order.
func (m *Model) shuffledAgents() []ecs.Entity {
	m.order = m.order[:0]
	query := m.agentFilter.Query()
	for query.Next() {
		m.order = append(m.order, query.Entity())
	}
	m.rng.Shuffle(len(m.order), func(i, j int) {
		m.order[i], m.order[j] = m.order[j], m.order[i]
	})
	return m.order
}
