package model

import (
	"math"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/fitness/components"
	"github.com/pthm-cable/fitness/systems"
)

// newborn is an agent queued for creation after the current turn.
type newborn struct {
	role     components.Role
	strategy components.Strategy
	fitness  float64
	energy   float64
	cell     components.Cell
	parents  [2]uint32
}

// seedPopulation creates the starting agents. Role and strategy splits are
// exact counts; placement and traits are random.
func (m *Model) seedPopulation() {
	cfg := m.cfg
	n := cfg.Population.Initial

	carriers := int(math.Round(float64(n) * cfg.Population.CarrierFraction))
	choosyCarriers := int(math.Round(float64(carriers) * cfg.Population.ChoosyFraction))
	choosyGivers := int(math.Round(float64(n-carriers) * cfg.Population.ChoosyFraction))

	place := m.placer()
	juvenileCap := cfg.Energy.MaxJuvenile

	for i := 0; i < n; i++ {
		role := components.RoleCarrier
		strategy := components.StrategyNone
		if i < carriers {
			if i < choosyCarriers {
				strategy = components.StrategyChoosy
			}
		} else {
			role = components.RoleGiver
			if i-carriers < choosyGivers {
				strategy = components.StrategyChoosy
			}
		}

		energy := min(m.rng.Normal(cfg.Population.InitialEnergy, cfg.Derived.InitialEnergySD), juvenileCap)
		if energy <= 0 {
			// Ten standard deviations out; fall back to the mean.
			energy = min(cfg.Population.InitialEnergy, juvenileCap)
		}

		m.spawnAgent(newborn{
			role:     role,
			strategy: strategy,
			fitness:  systems.SeedFitness(&cfg.Fitness, m.rng),
			energy:   energy,
			cell:     place(),
		}, false)
	}
}

// placer returns a function drawing initial cells. With a per-cell capacity
// it draws only among cells that still have room.
func (m *Model) placer() func() components.Cell {
	limit := m.cfg.Grid.MaxPerCell
	if limit <= 0 {
		return func() components.Cell { return m.grid.RandomCell(m.rng) }
	}

	open := m.grid.AllCells()
	return func() components.Cell {
		i := m.rng.IntN(len(open))
		c := open[i]
		if len(m.grid.Agents(c))+1 >= limit {
			open[i] = open[len(open)-1]
			open = open[:len(open)-1]
		}
		return c
	}
}

// spawnAgent creates an agent and places it on the grid.
func (m *Model) spawnAgent(nb newborn, hasParents bool) ecs.Entity {
	id := m.nextID
	m.nextID++

	ident := components.Identity{
		ID:         id,
		Role:       nb.role,
		Strategy:   nb.strategy,
		Parents:    nb.parents,
		HasParents: hasParents,
		BirthTick:  m.tick,
	}
	cell := nb.cell
	limit := systems.EnergyCap(&m.cfg.Energy, nb.role, false)
	energy := components.Energy{
		Value: min(nb.energy, limit),
		Max:   limit,
	}
	genome := components.Genome{Fitness: nb.fitness}
	life := components.Life{}

	var entity ecs.Entity
	if nb.role == components.RoleCarrier {
		gestation := components.Gestation{}
		court := components.Courtship{}
		entity = m.carrierMapper.NewEntity(&ident, &cell, &energy, &genome, &life, &gestation, &court)
	} else {
		entity = m.giverMapper.NewEntity(&ident, &cell, &energy, &genome, &life)
	}

	m.grid.Place(entity, cell)
	m.lifetimeTracker.Register(id, m.tick, energy.Value)

	return entity
}

// applyBirths creates the queued offspring and counts them.
func (m *Model) applyBirths(births []newborn) {
	for _, nb := range births {
		m.spawnAgent(nb, true)
		m.RecordBirth(components.Cohort{Role: nb.role, Strategy: nb.strategy})
		m.lifetimeTracker.RecordChild(nb.parents[0])
		m.lifetimeTracker.RecordChild(nb.parents[1])
	}
}

// removeAgent deregisters a starved agent from its cell and the world.
func (m *Model) removeAgent(e ecs.Entity) {
	ident := m.idMap.Get(e)
	cell := m.cellMap.Get(e)
	life := m.lifeMap.Get(e)

	m.RecordDeath(ident.Cohort())
	m.collector.RecordLifespan(life.Lifetime)
	m.lifetimeTracker.Remove(ident.ID)
	m.grid.Remove(e, *cell)
	m.world.RemoveEntity(e)
}
