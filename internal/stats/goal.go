package stats

import "ticket-kpi/internal/ticket"

// Direction tells which side of a threshold counts as meeting the goal.
type Direction string

const (
	LowerIsBetter  Direction = "lower_is_better"
	HigherIsBetter Direction = "higher_is_better"
)

// Goal is a threshold with a direction.
type Goal struct {
	Threshold float64   `json:"threshold"`
	Direction Direction `json:"direction"`
}

// Missed reports whether value falls on the wrong side of the threshold. Equality meets the goal.
func (g Goal) Missed(value float64) bool {
	if g.Direction == HigherIsBetter {
		return value < g.Threshold
	}
	return value > g.Threshold
}

// GoalSource resolves the goal applicable to a result, if any.
type GoalSource interface {
	GoalFor(r Result) (Goal, bool)
}

// FixedGoal applies one threshold to every result. It serves the global Aging goal.
type FixedGoal Goal

func (f FixedGoal) GoalFor(Result) (Goal, bool) {
	return Goal(f), true
}

// Target is the agreed OTD percentage for a contract.
type Target struct {
	ContractID string  `json:"contract_id"`
	OTDPercent float64 `json:"otd_percent"`
}

// ContractTargets maps canonical contract ids to their OTD target. Results without a contract
// key component, or whose contract has no target, have no goal.
type ContractTargets map[string]float64

// NewContractTargets indexes targets by canonical contract id. Later duplicates win.
func NewContractTargets(targets []Target) ContractTargets {
	ct := make(ContractTargets, len(targets))
	for _, t := range targets {
		ct[ticket.Canonical(t.ContractID)] = t.OTDPercent
	}
	return ct
}

func (ct ContractTargets) GoalFor(r Result) (Goal, bool) {
	contract, ok := r.Component(DimContract)
	if !ok {
		return Goal{}, false
	}
	return ct.Lookup(contract)
}

// Lookup returns the goal for a single contract.
func (ct ContractTargets) Lookup(contract string) (Goal, bool) {
	v, ok := ct[ticket.Canonical(contract)]
	if !ok {
		return Goal{}, false
	}
	return Goal{Threshold: v, Direction: HigherIsBetter}, true
}

// Comparison is a result joined with its goal.
type Comparison struct {
	Result
	Target    *float64  `json:"target,omitempty"`
	Direction Direction `json:"direction,omitempty"`
	BelowGoal bool      `json:"below_goal"`
}

// HasTarget reports whether a goal was found for the result.
func (c Comparison) HasTarget() bool { return c.Target != nil }

// CompareToGoal flags every result against its goal, preserving order. A missing goal leaves
// the target absent and BelowGoal false.
func CompareToGoal(results []Result, goals GoalSource) []Comparison {
	out := make([]Comparison, 0, len(results))
	for _, r := range results {
		c := Comparison{Result: r}
		if goals != nil {
			if g, ok := goals.GoalFor(r); ok {
				threshold := g.Threshold
				c.Target = &threshold
				c.Direction = g.Direction
				c.BelowGoal = g.Missed(r.Value)
			}
		}
		out = append(out, c)
	}
	return out
}

// WithinGoalShare returns the percentage of non-empty comparisons with a target that meet it.
func WithinGoalShare(comparisons []Comparison) float64 {
	total, within := 0, 0
	for _, c := range comparisons {
		if !c.HasTarget() || c.Count == 0 {
			continue
		}
		total++
		if !c.BelowGoal {
			within++
		}
	}
	return Percent(within, total)
}
