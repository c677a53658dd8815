package telemetry

// LifetimeStats tracks per-agent statistics over its lifetime.
type LifetimeStats struct {
	BirthTick int32

	// Reproduction
	Children int

	// Energy
	PeakEnergy float64
	TimesFed   int
}

// LifetimeTracker manages per-agent lifetime statistics keyed by agent ID.
type LifetimeTracker struct {
	stats map[uint32]*LifetimeStats
}

// NewLifetimeTracker creates a new lifetime tracker.
func NewLifetimeTracker() *LifetimeTracker {
	return &LifetimeTracker{
		stats: make(map[uint32]*LifetimeStats),
	}
}

// Register creates lifetime stats for a new agent.
func (lt *LifetimeTracker) Register(id uint32, birthTick int32, energy float64) {
	lt.stats[id] = &LifetimeStats{BirthTick: birthTick, PeakEnergy: energy}
}

// Get returns the lifetime stats for an agent, or nil if not found.
func (lt *LifetimeTracker) Get(id uint32) *LifetimeStats {
	return lt.stats[id]
}

// Remove removes an agent's stats and returns them.
func (lt *LifetimeTracker) Remove(id uint32) *LifetimeStats {
	stats := lt.stats[id]
	delete(lt.stats, id)
	return stats
}

// RecordChild increments children count.
func (lt *LifetimeTracker) RecordChild(parentID uint32) {
	if s := lt.stats[parentID]; s != nil {
		s.Children++
	}
}

// RecordFeed counts a successful feeding and tracks peak energy.
func (lt *LifetimeTracker) RecordFeed(id uint32, energy float64) {
	if s := lt.stats[id]; s != nil {
		s.TimesFed++
		if energy > s.PeakEnergy {
			s.PeakEnergy = energy
		}
	}
}

// Count returns the number of tracked agents.
func (lt *LifetimeTracker) Count() int {
	return len(lt.stats)
}

// MaxChildren returns the largest children count among tracked agents.
func (lt *LifetimeTracker) MaxChildren() int {
	best := 0
	for _, s := range lt.stats {
		best = max(best, s.Children)
	}
	return best
}
