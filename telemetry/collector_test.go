package telemetry

import (
	"testing"

	"github.com/pthm-cable/fitness/components"
)

var (
	carrierChoosy = components.Cohort{Role: components.RoleCarrier, Strategy: components.StrategyChoosy}
	giverNone     = components.Cohort{Role: components.RoleGiver, Strategy: components.StrategyNone}
)

func TestCollectorCountsPerCohort(t *testing.T) {
	c := NewCollector()
	c.RecordBirth(carrierChoosy)
	c.RecordBirth(carrierChoosy)
	c.RecordDeath(giverNone)

	if got := c.Births().Get(carrierChoosy); got != 2 {
		t.Errorf("births[carrier_choosy] = %d, want 2", got)
	}
	if got := c.Deaths().Get(giverNone); got != 1 {
		t.Errorf("deaths[giver_none] = %d, want 1", got)
	}
	if got := c.Births().Get(giverNone); got != 0 {
		t.Errorf("unseen cohort should read 0, got %d", got)
	}
}

func TestCollectorFlushResets(t *testing.T) {
	c := NewCollector()
	c.RecordBirth(giverNone)
	c.RecordDeath(carrierChoosy)
	c.RecordLifespan(10)
	c.RecordLifespan(20)
	c.RecordMutation()

	census := Census{
		Counts:  components.CohortCounts{1, 1, 0, 2},
		Fitness: []float64{0.5, 1.5, -0.5, 0.5},
		Energy:  []float64{10, 20, 30, 40},
		StrategyFit: [2][]float64{
			components.StrategyNone:   {0.5, 0.5},
			components.StrategyChoosy: {1.5, -0.5},
		},
		Gestating:   1,
		MaxChildren: 3,
	}
	stats := c.Flush(7, 0.25, census)

	if stats.Step != 7 || stats.Habitability != 0.25 {
		t.Errorf("step/habitability = %d/%v", stats.Step, stats.Habitability)
	}
	if stats.Population != 4 || stats.GiverChoosy != 2 {
		t.Errorf("population = %d giver_choosy = %d", stats.Population, stats.GiverChoosy)
	}
	if stats.Births != 1 || stats.BirthsGiverNone != 1 {
		t.Errorf("births = %d giver_none = %d", stats.Births, stats.BirthsGiverNone)
	}
	if stats.Deaths != 1 || stats.DeathsCarrierChoosy != 1 {
		t.Errorf("deaths = %d carrier_choosy = %d", stats.Deaths, stats.DeathsCarrierChoosy)
	}
	if stats.AvgFitness != 0.5 || stats.AvgFitnessNone != 0.5 || stats.AvgFitnessChoosy != 0.5 {
		t.Errorf("fitness means = %v %v %v", stats.AvgFitness, stats.AvgFitnessNone, stats.AvgFitnessChoosy)
	}
	if stats.EnergyMean != 25 || stats.MeanLifespan != 15 || stats.Mutations != 1 || stats.MaxChildren != 3 {
		t.Errorf("energy/lifespan/mutations/children = %v/%v/%d/%d",
			stats.EnergyMean, stats.MeanLifespan, stats.Mutations, stats.MaxChildren)
	}

	if c.Births().Total() != 0 || c.Deaths().Total() != 0 {
		t.Error("Flush should clear counters")
	}
	next := c.Flush(8, 0, Census{})
	if next.Births != 0 || next.Deaths != 0 || next.Mutations != 0 || next.MeanLifespan != 0 {
		t.Errorf("second flush carried counts over: %+v", next)
	}
}

func TestLifetimeTracker(t *testing.T) {
	lt := NewLifetimeTracker()
	lt.Register(1, 0, 25)
	lt.Register(2, 5, 10)

	lt.RecordChild(1)
	lt.RecordChild(1)
	lt.RecordChild(99) // unknown IDs are ignored
	lt.RecordFeed(2, 40)
	lt.RecordFeed(2, 30)

	if lt.MaxChildren() != 2 {
		t.Errorf("MaxChildren() = %d, want 2", lt.MaxChildren())
	}
	s := lt.Get(2)
	if s.TimesFed != 2 || s.PeakEnergy != 40 {
		t.Errorf("feed stats = %+v", s)
	}

	removed := lt.Remove(1)
	if removed == nil || removed.Children != 2 {
		t.Errorf("Remove returned %+v", removed)
	}
	if lt.Count() != 1 || lt.Get(1) != nil {
		t.Error("Remove should drop the entry")
	}
}
