package telemetry

// AgentRow is the per-agent record of one step.
type AgentRow struct {
	Step     int32   `csv:"step" json:"step"`
	ID       uint32  `csv:"id" json:"id"`
	Role     string  `csv:"role" json:"role"`
	Strategy string  `csv:"strategy" json:"strategy"`
	X        int     `csv:"x" json:"x"`
	Y        int     `csv:"y" json:"y"`
	Energy   float64 `csv:"energy" json:"energy"`
	Fitness  float64 `csv:"fitness" json:"fitness"`
	Lifetime int     `csv:"lifetime" json:"lifetime"`
	Adult    bool    `csv:"adult" json:"adult"`
	Carrying bool    `csv:"carrying" json:"carrying"`
}
