package report

import (
	"fmt"
	"time"

	"ticket-kpi/internal/ingest"
	"ticket-kpi/internal/stats"
	"ticket-kpi/internal/ticket"
)

// AgingAnnualView is the year-to-date aging dashboard.
type AgingAnnualView struct {
	Period      string              `json:"period"`
	Goal        float64             `json:"goal_days"`
	Headline    AgingHeadline       `json:"headline"`
	Monthly     []Point             `json:"monthly"`
	Specialists []Point             `json:"specialists"`
	Providers   ProviderPerformance `json:"providers"`
}

// AgingAnnual builds the year-to-date aging view, January through q.Month (or December).
func (e *Engine) AgingAnnual(ds *ingest.Dataset, q Query) (*AgingAnnualView, error) {
	if err := e.checkAging(ds, q); err != nil {
		return nil, err
	}

	period := stats.YearToDate(q.Year, q.throughMonth())
	records := stats.Filter(ds.Aging, q.Selection(period))
	goal := e.agingGoal()

	monthly := stats.CompareToGoal(stats.Aggregate(records, []stats.Dimension{stats.DimMonth}, stats.MetricAging), goal)

	return &AgingAnnualView{
		Period:      period.String(),
		Goal:        e.settings.AgingGoalDays,
		Headline:    e.agingHeadline(records),
		Monthly:     points(monthly, monthLabel, stats.Round2),
		Specialists: e.bySpecialist(records),
		Providers:   e.providerPerformance(records),
	}, nil
}

// AgingMonthlyView is the single-month aging dashboard.
type AgingMonthlyView struct {
	Period      string              `json:"period"`
	Goal        float64             `json:"goal_days"`
	Headline    AgingHeadline       `json:"headline"`
	Specialists []Point             `json:"specialists"`
	Providers   ProviderPerformance `json:"providers"`
	AboveGoal   []Ranked            `json:"above_goal"`
}

// AgingMonthly builds the view for q.Year and q.Month.
func (e *Engine) AgingMonthly(ds *ingest.Dataset, q Query) (*AgingMonthlyView, error) {
	if err := e.checkAging(ds, q); err != nil {
		return nil, err
	}
	if q.Month == 0 {
		return nil, fmt.Errorf("%w: month is required", ErrInvalidQuery)
	}

	period := stats.MonthOf(q.Year, q.Month)
	records := stats.Filter(ds.Aging, q.Selection(period))
	goal := e.agingGoal()

	byProvider := stats.Aggregate(records, []stats.Dimension{stats.DimProvider}, stats.MetricAging)
	var above []stats.Result
	for _, c := range stats.CompareToGoal(byProvider, goal) {
		if c.BelowGoal {
			above = append(above, c.Result)
		}
	}

	return &AgingMonthlyView{
		Period:      period.String(),
		Goal:        e.settings.AgingGoalDays,
		Headline:    e.agingHeadline(records),
		Specialists: e.bySpecialist(records),
		Providers:   e.providerPerformance(records),
		AboveGoal:   ranked(stats.Rank(above, stats.Descending, 0), goal, stats.Round2),
	}, nil
}

// ProviderTrendView is one provider's monthly mean aging within a year.
type ProviderTrendView struct {
	Provider string  `json:"provider"`
	Year     int     `json:"year"`
	Goal     float64 `json:"goal_days"`
	Points   []Point `json:"points"`
}

// ProviderTrend builds the monthly trend for q.Provider in q.Year. Values use one decimal.
func (e *Engine) ProviderTrend(ds *ingest.Dataset, q Query) (*ProviderTrendView, error) {
	if err := e.checkAging(ds, q); err != nil {
		return nil, err
	}
	if ticket.Canonical(q.Provider) == "" {
		return nil, fmt.Errorf("%w: provider is required", ErrInvalidQuery)
	}

	records := stats.Filter(ds.Aging, q.Selection(stats.YearOf(q.Year)))
	monthly := stats.CompareToGoal(stats.Aggregate(records, []stats.Dimension{stats.DimMonth}, stats.MetricAging), e.agingGoal())

	return &ProviderTrendView{
		Provider: ticket.Canonical(q.Provider),
		Year:     q.Year,
		Goal:     e.settings.AgingGoalDays,
		Points:   points(monthly, monthLabel, stats.Round1),
	}, nil
}

// OTDHeadline is the card row of the OTD view. Target is set only when one contract is selected.
type OTDHeadline struct {
	Tickets   int      `json:"tickets"`
	OnTime    int      `json:"on_time"`
	Late      int      `json:"late"`
	OTD       float64  `json:"otd_pct"`
	Target    *float64 `json:"target,omitempty"`
	BelowGoal bool     `json:"below_goal"`
}

// OTDView is the on-time delivery dashboard.
type OTDView struct {
	Period    string      `json:"period"`
	Headline  OTDHeadline `json:"headline"`
	Monthly   []Point     `json:"monthly"`
	Yearly    []Point     `json:"yearly"`
	Providers []Ranked    `json:"providers"`
}

// OTD builds the on-time delivery view for q.Year, or a single month when q.Month is set.
func (e *Engine) OTD(ds *ingest.Dataset, q Query) (*OTDView, error) {
	if !ds.HasSource("otd") {
		return nil, ErrNoOTDData
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}

	period := stats.YearOf(q.Year)
	if q.Month > 0 {
		period = stats.MonthOf(q.Year, q.Month)
	}
	records := stats.Filter(ds.OTD, q.Selection(period))
	targets := stats.NewContractTargets(ds.Targets)
	opts := e.otdOptions()

	headline := stats.Aggregate(records, nil, stats.MetricOTD, opts...)[0]
	card := OTDHeadline{
		Tickets: headline.Count,
		OnTime:  headline.OnTime,
		Late:    headline.Late,
		OTD:     stats.Round1(headline.Value),
	}
	var evolutionGoal stats.GoalSource
	if q.Contract != "" {
		if g, ok := targets.Lookup(q.Contract); ok {
			threshold := g.Threshold
			card.Target = &threshold
			card.BelowGoal = headline.Count > 0 && g.Missed(headline.Value)
			evolutionGoal = stats.FixedGoal(g)
		}
	}

	monthly := stats.Aggregate(records, []stats.Dimension{stats.DimPeriod, stats.DimContract}, stats.MetricOTD, opts...)
	monthlyCmp := stats.CompareToGoal(monthly, targets)

	// Evolution is one bar per month: the mean of that month's contract rates.
	yearly := stats.CompareToGoal(stats.Rollup(monthly, stats.DimPeriod), evolutionGoal)

	byProvider := stats.Aggregate(records, []stats.Dimension{stats.DimProvider}, stats.MetricOTD, opts...)

	return &OTDView{
		Period:    period.String(),
		Headline:  card,
		Monthly:   points(monthlyCmp, periodContractLabel, stats.Round1),
		Yearly:    points(yearly, periodLabel, stats.Round1),
		Providers: ranked(stats.Rank(byProvider, stats.Ascending, e.settings.LeaderboardSize), nil, stats.Round1),
	}, nil
}

func periodLabel(r stats.Result) string {
	period, _ := r.Component(stats.DimPeriod)
	return PeriodLabel(period)
}

func periodContractLabel(r stats.Result) string {
	period, _ := r.Component(stats.DimPeriod)
	contract, _ := r.Component(stats.DimContract)
	return fmt.Sprintf("%s %s", PeriodLabel(period), contract)
}

// Options lists the filter choices for each source.
type Options struct {
	Aging *stats.FilterOptions `json:"aging,omitempty"`
	OTD   *stats.FilterOptions `json:"otd,omitempty"`
}

// FilterOptions collects the distinct values of every loaded source.
func (e *Engine) FilterOptions(ds *ingest.Dataset) Options {
	var out Options
	if ds.HasSource("aging") {
		o := stats.Options(ds.Aging)
		out.Aging = &o
	}
	if ds.HasSource("otd") {
		o := stats.Options(ds.OTD)
		out.OTD = &o
	}
	return out
}

// Quality reports normalization diagnostics for the loaded dataset.
type Quality struct {
	LoadedAt time.Time              `json:"loaded_at"`
	Sources  []ingest.SourceQuality `json:"sources"`
	Targets  int                    `json:"targets"`
}

// DataQuality summarises what was read, kept and dropped per source.
func (e *Engine) DataQuality(ds *ingest.Dataset) Quality {
	return Quality{LoadedAt: ds.LoadedAt, Sources: ds.Quality, Targets: len(ds.Targets)}
}

func (e *Engine) checkAging(ds *ingest.Dataset, q Query) error {
	if !ds.HasSource("aging") {
		return ErrNoAgingData
	}
	return q.Validate()
}

func (e *Engine) agingHeadline(records []ticket.Ticket) AgingHeadline {
	h := stats.CompareToGoal(stats.Aggregate(records, nil, stats.MetricAging), e.agingGoal())[0]
	return AgingHeadline{
		Tickets:   h.Count,
		Mean:      stats.Round2(h.Value),
		Max:       stats.Round2(h.Max),
		BelowGoal: h.Count > 0 && h.BelowGoal,
	}
}

func (e *Engine) bySpecialist(records []ticket.Ticket) []Point {
	results := stats.Aggregate(records, []stats.Dimension{stats.DimSpecialist}, stats.MetricAging)
	return points(stats.CompareToGoal(results, e.agingGoal()), keyLabel, stats.Round2)
}

func (e *Engine) providerPerformance(records []ticket.Ticket) ProviderPerformance {
	goal := e.agingGoal()
	results := stats.Aggregate(records, []stats.Dimension{stats.DimProvider}, stats.MetricAging)
	n := e.settings.LeaderboardSize

	return ProviderPerformance{
		Providers:     len(results),
		WithinGoalPct: stats.Round1(stats.WithinGoalShare(stats.CompareToGoal(results, goal))),
		Best:          ranked(stats.Rank(results, stats.Ascending, n), goal, stats.Round2),
		Worst:         ranked(stats.Rank(results, stats.Descending, n), goal, stats.Round2),
	}
}

// LatestYear is the newest year with aging tickets, or OTD tickets when there is no aging
// source. It falls back to the current year for an empty dataset.
func LatestYear(ds *ingest.Dataset) int {
	records := ds.Aging
	if len(records) == 0 {
		records = ds.OTD
	}
	years := stats.Options(records).Years
	if len(years) == 0 {
		return time.Now().Year()
	}
	return years[len(years)-1]
}
