package report

import (
	"errors"
	"fmt"

	"ticket-kpi/internal/stats"
)

var (
	// ErrNoAgingData is returned when an aging view is requested but no aging source is loaded.
	ErrNoAgingData = errors.New("aging source not loaded")
	// ErrNoOTDData is returned when the OTD view is requested but no OTD source is loaded.
	ErrNoOTDData = errors.New("otd source not loaded")
	// ErrInvalidQuery is returned for out-of-range query values.
	ErrInvalidQuery = errors.New("invalid query")
)

// Settings carries the goal and classification parameters shared by every view.
type Settings struct {
	AgingGoalDays   float64
	LeaderboardSize int
	OnTimeStatuses  []string
	LateStatuses    []string
}

// DefaultSettings returns a 2-day aging goal, top-10 leaderboards and the default OTD statuses.
func DefaultSettings() Settings {
	return Settings{
		AgingGoalDays:   2,
		LeaderboardSize: 10,
		OnTimeStatuses:  stats.DefaultOnTimeStatuses,
		LateStatuses:    stats.DefaultLateStatuses,
	}
}

// Engine assembles dashboard views from a dataset. It holds no data of its own.
type Engine struct {
	settings Settings
}

// New creates an Engine.
func New(settings Settings) *Engine {
	return &Engine{settings: settings}
}

// Settings returns the active settings.
func (e *Engine) Settings() Settings { return e.settings }

func (e *Engine) agingGoal() stats.FixedGoal {
	return stats.FixedGoal{Threshold: e.settings.AgingGoalDays, Direction: stats.LowerIsBetter}
}

func (e *Engine) otdOptions() []stats.AggregateOption {
	var opts []stats.AggregateOption
	if len(e.settings.OnTimeStatuses) > 0 {
		opts = append(opts, stats.WithOnTimeStatuses(e.settings.OnTimeStatuses...))
	}
	if len(e.settings.LateStatuses) > 0 {
		opts = append(opts, stats.WithLateStatuses(e.settings.LateStatuses...))
	}
	return opts
}

// Query is the user-facing filter. Nil Statuses or Services mean every value, while a non-nil
// empty list selects nothing. Empty Specialist, Provider or Contract mean unconstrained.
// Month 0 means the whole year.
type Query struct {
	Year       int      `json:"year"`
	Month      int      `json:"month,omitempty"`
	Statuses   []string `json:"statuses,omitempty"`
	Services   []string `json:"services,omitempty"`
	Specialist string   `json:"specialist,omitempty"`
	Provider   string   `json:"provider,omitempty"`
	Contract   string   `json:"contract,omitempty"`
}

// Validate checks the temporal fields.
func (q Query) Validate() error {
	if q.Year <= 0 {
		return fmt.Errorf("%w: year is required", ErrInvalidQuery)
	}
	if q.Month < 0 || q.Month > 12 {
		return fmt.Errorf("%w: month %d out of range", ErrInvalidQuery, q.Month)
	}
	return nil
}

// Selection turns the query into a core Selection over the given period.
func (q Query) Selection(p stats.Period) stats.Selection {
	sel := stats.SelectAll()
	sel.Period = p
	if q.Statuses != nil {
		sel.Statuses = stats.AnyOf(q.Statuses...)
	}
	if q.Services != nil {
		sel.Services = stats.AnyOf(q.Services...)
	}
	sel.Specialist = q.Specialist
	sel.Provider = q.Provider
	sel.Contract = q.Contract
	return sel
}

// throughMonth is the last month a year-to-date view covers.
func (q Query) throughMonth() int {
	if q.Month == 0 {
		return 12
	}
	return q.Month
}

// Point is one labelled value in a series or breakdown.
type Point struct {
	Key       string   `json:"key"`
	Label     string   `json:"label"`
	Contract  string   `json:"contract,omitempty"`
	Count     int      `json:"count"`
	Value     float64  `json:"value"`
	Max       float64  `json:"max,omitempty"`
	Target    *float64 `json:"target,omitempty"`
	BelowGoal bool     `json:"below_goal"`
}

// Ranked is one leaderboard row.
type Ranked struct {
	Position  int     `json:"position"`
	Name      string  `json:"name"`
	Count     int     `json:"count"`
	Value     float64 `json:"value"`
	BelowGoal bool    `json:"below_goal"`
}

// ProviderPerformance summarises providers against the aging goal.
type ProviderPerformance struct {
	Providers     int      `json:"providers"`
	WithinGoalPct float64  `json:"within_goal_pct"`
	Best          []Ranked `json:"best"`
	Worst         []Ranked `json:"worst"`
}

// AgingHeadline is the card row of an aging view.
type AgingHeadline struct {
	Tickets   int     `json:"tickets"`
	Mean      float64 `json:"mean"`
	Max       float64 `json:"max"`
	BelowGoal bool    `json:"below_goal"`
}

func points(comparisons []stats.Comparison, label func(stats.Result) string, round func(float64) float64) []Point {
	out := make([]Point, 0, len(comparisons))
	for _, c := range comparisons {
		p := Point{
			Key:       c.Key.String(),
			Label:     label(c.Result),
			Count:     c.Count,
			Value:     round(c.Value),
			Max:       round(c.Max),
			Target:    c.Target,
			BelowGoal: c.BelowGoal,
		}
		if contract, ok := c.Component(stats.DimContract); ok {
			p.Contract = contract
		}
		out = append(out, p)
	}
	return out
}

func ranked(entries []stats.Entry, goals stats.GoalSource, round func(float64) float64) []Ranked {
	out := make([]Ranked, 0, len(entries))
	for _, e := range entries {
		r := Ranked{Position: e.Position, Name: e.Label(), Count: e.Count, Value: round(e.Value)}
		if goals != nil {
			if g, ok := goals.GoalFor(e.Result); ok {
				r.BelowGoal = g.Missed(e.Value)
			}
		}
		out = append(out, r)
	}
	return out
}

func keyLabel(r stats.Result) string { return r.Label() }

func monthLabel(r stats.Result) string {
	m, _ := r.Component(stats.DimMonth)
	return monthKeyLabel(m)
}
