// Package components defines ECS components for the simulation.
package components

import "github.com/mlange-42/ark/ecs"

// Role is the reproductive role of an agent. It never changes after birth.
type Role uint8

const (
	RoleCarrier Role = iota // Initiates mating and gestates offspring
	RoleGiver               // Passive partner supplying the second parental fitness
)

// String returns the lowercase role name.
func (r Role) String() string {
	switch r {
	case RoleCarrier:
		return "carrier"
	case RoleGiver:
		return "giver"
	}
	return "unknown"
}

// Strategy is the mate-selection policy of an agent. Only carriers act on it;
// givers carry one so their offspring can inherit it.
type Strategy uint8

const (
	StrategyNone   Strategy = iota // Indiscriminate: first random candidate
	StrategyChoosy                 // Fittest candidate, committed after a delay
)

// String returns the lowercase strategy name.
func (s Strategy) String() string {
	switch s {
	case StrategyNone:
		return "none"
	case StrategyChoosy:
		return "choosy"
	}
	return "unknown"
}

// Cell is an addressable grid location. Agents store it as a component.
type Cell struct {
	X, Y int
}

// Identity holds the immutable facts about an agent.
type Identity struct {
	ID         uint32
	Role       Role
	Strategy   Strategy
	Parents    [2]uint32 // Carrier then giver; valid only when HasParents
	HasParents bool
	BirthTick  int32
}

// Cohort returns the (role, strategy) pair used for birth and death accounting.
func (id *Identity) Cohort() Cohort {
	return Cohort{Role: id.Role, Strategy: id.Strategy}
}

// Energy holds current energy and the cap for the current life stage.
type Energy struct {
	Value float64
	Max   float64
}

// Genome holds the heritable fitness trait.
type Genome struct {
	Fitness float64
}

// Life tracks age and maturity.
type Life struct {
	Lifetime int
	Adult    bool
}

// Gestation is the carrier-only pregnancy record.
type Gestation struct {
	Carrying bool
	Time     int
	Fitness  float64   // Offspring fitness fixed at mating
	Reserve  float64   // Offspring starting energy accrued so far
	Mature   int       // Gestation length
	Parents  [2]uint32 // Carrier then giver
	Strategy Strategy  // Offspring strategy, taken from one parent at mating
}

// Courtship is the carrier-only partner search state.
type Courtship struct {
	Partner     ecs.Entity
	HasPartner  bool
	ChooseTimer int
}

// Clear drops the tentative partner and resets the timer.
func (c *Courtship) Clear() {
	c.Partner = ecs.Entity{}
	c.HasPartner = false
	c.ChooseTimer = 0
}
