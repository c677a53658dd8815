package systems

import (
	"math"

	"github.com/pthm-cable/fitness/random"
)

// Habitability returns the feeding threshold for the coming step:
//
//	Φ⁻¹(1 − min(1, abundance/density) · 0.5),  density = max(population, 1) / cells
//
// It is 0 while density stays at or below abundance and grows without bound
// as the grid crowds, so adult feeding success falls with density.
func Habitability(population, cellCount int, abundance float64) float64 {
	density := float64(max(population, 1)) / float64(cellCount)
	return random.StdNormalInvCDF(1 - math.Min(1, abundance/density)*0.5)
}

// FeedingProbability is the chance that an adult with the given effective
// fitness beats a N(habitability, sd) draw.
func FeedingProbability(fitness, habitability, sd float64) float64 {
	return random.StdNormalCDF((fitness - habitability) / sd)
}
