// Package random provides the seeded random stream shared by one model instance.
//
// Every draw made by a model goes through a single Source, so two models built
// with the same seed and configuration produce identical histories.
package random

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// pcgStream is the fixed second PCG word; only the seed varies between runs.
const pcgStream = 0x9e3779b97f4a7c15

// Source is a seeded random stream with distribution helpers.
// It is not safe for concurrent use.
type Source struct {
	seed uint64
	pcg  *rand.PCG
	rng  *rand.Rand
}

// New returns a Source seeded with seed.
func New(seed uint64) *Source {
	pcg := rand.NewPCG(seed, pcgStream)
	return &Source{
		seed: seed,
		pcg:  pcg,
		rng:  rand.New(pcg),
	}
}

// Seed returns the seed the source was created with.
func (s *Source) Seed() uint64 {
	return s.seed
}

// Float64 returns a uniform value in [0, 1).
func (s *Source) Float64() float64 {
	return s.rng.Float64()
}

// IntN returns a uniform int in [0, n). Panics if n <= 0.
func (s *Source) IntN(n int) int {
	return s.rng.IntN(n)
}

// Bernoulli returns true with probability p.
func (s *Source) Bernoulli(p float64) bool {
	return s.rng.Float64() < p
}

// Normal draws from N(mean, sd).
func (s *Source) Normal(mean, sd float64) float64 {
	return distuv.Normal{Mu: mean, Sigma: sd, Src: s.pcg}.Rand()
}

// Uniform draws from U(a, b).
func (s *Source) Uniform(a, b float64) float64 {
	if a == b {
		return a
	}
	return distuv.Uniform{Min: a, Max: b, Src: s.pcg}.Rand()
}

// TruncatedNormal draws from the standard normal restricted to [low, high]
// by inverting the CDF over the truncated probability mass.
func (s *Source) TruncatedNormal(low, high float64) float64 {
	pLow := StdNormalCDF(low)
	pHigh := StdNormalCDF(high)
	if pHigh <= pLow {
		// Interval carries no mass at float precision; fall back to its midpoint.
		return clamp((low+high)/2, low, high)
	}
	x := StdNormalInvCDF(s.Uniform(pLow, pHigh))
	return clamp(x, low, high)
}

// Shuffle permutes n elements in place using swap.
func (s *Source) Shuffle(n int, swap func(i, j int)) {
	s.rng.Shuffle(n, swap)
}

// Choice returns a uniformly chosen element of items.
// ok is false when items is empty.
func Choice[T any](s *Source, items []T) (v T, ok bool) {
	if len(items) == 0 {
		return v, false
	}
	return items[s.rng.IntN(len(items))], true
}

// StdNormalCDF returns Φ(x).
func StdNormalCDF(x float64) float64 {
	return distuv.UnitNormal.CDF(x)
}

// StdNormalInvCDF returns Φ⁻¹(p) for p in [0, 1].
// Returns -Inf at 0 and +Inf at 1.
func StdNormalInvCDF(p float64) float64 {
	switch {
	case p <= 0:
		return math.Inf(-1)
	case p >= 1:
		return math.Inf(1)
	}
	return distuv.UnitNormal.Quantile(p)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
