package components

// Cohort groups agents by role and strategy for population accounting.
type Cohort struct {
	Role     Role
	Strategy Strategy
}

// String returns "role_strategy", e.g. "carrier_choosy".
func (c Cohort) String() string {
	return c.Role.String() + "_" + c.Strategy.String()
}

// Cohorts lists every cohort in a fixed order. Reports iterate it instead of
// maps so output columns and logs are stable.
var Cohorts = [...]Cohort{
	{RoleCarrier, StrategyNone},
	{RoleCarrier, StrategyChoosy},
	{RoleGiver, StrategyNone},
	{RoleGiver, StrategyChoosy},
}

// Index returns the position of c in Cohorts.
func (c Cohort) Index() int {
	return int(c.Role)*2 + int(c.Strategy)
}

// CohortCounts holds one integer per cohort, indexed by Cohort.Index.
type CohortCounts [len(Cohorts)]int

// Add increments the count for c.
func (cc *CohortCounts) Add(c Cohort, n int) {
	cc[c.Index()] += n
}

// Get returns the count for c.
func (cc CohortCounts) Get(c Cohort) int {
	return cc[c.Index()]
}

// Total returns the sum over all cohorts.
func (cc CohortCounts) Total() int {
	total := 0
	for _, n := range cc {
		total += n
	}
	return total
}

// RoleTotal returns the sum over both strategies of r.
func (cc CohortCounts) RoleTotal(r Role) int {
	return cc.Get(Cohort{r, StrategyNone}) + cc.Get(Cohort{r, StrategyChoosy})
}
