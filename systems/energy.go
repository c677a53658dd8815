package systems

import (
	"github.com/pthm-cable/fitness/components"
	"github.com/pthm-cable/fitness/config"
	"github.com/pthm-cable/fitness/random"
)

// EnergyCap returns the energy ceiling for a role at a life stage.
func EnergyCap(cfg *config.EnergyConfig, role components.Role, adult bool) float64 {
	if !adult {
		return cfg.MaxJuvenile
	}
	if role == components.RoleCarrier {
		return cfg.MaxAdultCarrier
	}
	return cfg.MaxAdultGiver
}

// MetabolicCost returns the per-step energy drain.
func MetabolicCost(cfg *config.MetabolismConfig, gestating bool) float64 {
	if gestating {
		return cfg.GestatingCost
	}
	return cfg.BaseCost
}

// AddEnergy raises energy by up to amount without exceeding the cap and
// returns the amount actually added. Energy already above the cap is left alone.
func AddEnergy(e *components.Energy, amount float64) float64 {
	room := e.Max - e.Value
	if room <= 0 {
		return 0
	}
	gain := min(amount, room)
	e.Value += gain
	return gain
}

// AdvanceGestation moves a running gestation forward one step and accrues
// offspring reserve. Returns true when the offspring is due; the record is
// then no longer carrying.
func AdvanceGestation(g *components.Gestation, reserveRate float64) bool {
	if !g.Carrying {
		return false
	}
	g.Time++
	g.Reserve += reserveRate
	if g.Time >= g.Mature {
		g.Carrying = false
		return true
	}
	return false
}

// EffectiveFitness applies the optional age penalty to fitness.
func EffectiveFitness(fitness float64, lifetime int, cfg *config.AgePenaltyConfig) float64 {
	if !cfg.Enabled || lifetime <= cfg.Threshold {
		return fitness
	}
	return fitness - cfg.Rate*float64(lifetime-cfg.Threshold)
}

// FeedAdult draws a threshold around habitability and feeds the agent when its
// effective fitness beats it. Returns the energy gained.
func FeedAdult(e *components.Energy, fitness, habitability float64, cfg *config.FeedingConfig, src *random.Source) float64 {
	threshold := src.Normal(habitability, cfg.ThresholdStdDev)
	if fitness > threshold {
		return AddEnergy(e, cfg.Gain)
	}
	return 0
}

// FeedJuvenile applies the juvenile feeding policy. Returns the energy gained.
func FeedJuvenile(e *components.Energy, cfg *config.FeedingConfig) float64 {
	if cfg.JuvenilePolicy == config.JuvenileNone {
		return 0
	}
	return AddEnergy(e, cfg.JuvenileGain)
}
