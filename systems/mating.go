package systems

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/fitness/components"
	"github.com/pthm-cable/fitness/config"
	"github.com/pthm-cable/fitness/random"
)

// Candidate is a potential partner seen during a carrier's search.
type Candidate struct {
	Entity  ecs.Entity
	Fitness float64
}

// SeedFitness draws a fitness value from the seed distribution. Seeds and
// mutants both use it.
func SeedFitness(cfg *config.FitnessConfig, src *random.Source) float64 {
	if cfg.Truncate {
		return src.TruncatedNormal(cfg.Low, cfg.High)
	}
	return src.Normal(0, 1)
}

// Crossover blends two parental values with ratio r in (0, 1).
func Crossover(carrier, giver, r float64) float64 {
	return r*carrier + (1-r)*giver
}

// OffspringFitness returns the fitness fixed at mating. The crossover ratio is
// Φ of a fresh standard normal draw. With the mutation probability the
// parents are ignored and a fresh seed value is drawn. The carrier's age
// penalty, when enabled, is applied to either result.
func OffspringFitness(carrier, giver float64, carrierLifetime int, cfg *config.Config, src *random.Source) (fitness float64, mutated bool) {
	r := random.StdNormalCDF(src.Normal(0, 1))
	mutated = cfg.Mutation.Enabled && src.Bernoulli(cfg.Mutation.Rate)
	if mutated {
		fitness = SeedFitness(&cfg.Fitness, src)
	} else {
		fitness = Crossover(carrier, giver, r)
	}
	return EffectiveFitness(fitness, carrierLifetime, &cfg.AgePenalty), mutated
}

// SelectPartner runs one step of a carrier's partner choice and reports the
// partner to commit to, if any.
//
// StrategyNone commits at once to a uniformly chosen candidate. StrategyChoosy
// tracks the fittest candidate (first in enumeration order on ties) as a
// tentative partner and commits once the same partner has been tentative for
// chooseDelay steps. A new tentative partner restarts the timer. With no
// candidates the tentative partner is dropped.
func SelectPartner(strategy components.Strategy, candidates []Candidate, court *components.Courtship, chooseDelay int, src *random.Source) (ecs.Entity, bool) {
	if len(candidates) == 0 {
		court.Clear()
		return ecs.Entity{}, false
	}

	if strategy != components.StrategyChoosy {
		c, _ := random.Choice(src, candidates)
		court.Clear()
		return c.Entity, true
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.Fitness > best.Fitness {
			best = c
		}
	}

	if !court.HasPartner || court.Partner != best.Entity {
		court.Partner = best.Entity
		court.HasPartner = true
		court.ChooseTimer = 0
	}
	court.ChooseTimer++
	if court.ChooseTimer >= chooseDelay {
		court.Clear()
		return best.Entity, true
	}
	return ecs.Entity{}, false
}

// StartGestation initializes a carrier's gestation record after a commit.
func StartGestation(g *components.Gestation, fitness float64, length int, carrierID, giverID uint32) {
	*g = components.Gestation{
		Carrying: true,
		Fitness:  fitness,
		Mature:   length,
		Parents:  [2]uint32{carrierID, giverID},
	}
}
