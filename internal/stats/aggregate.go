package stats

import (
	"fmt"
	"slices"
	"strings"

	"ticket-kpi/internal/ticket"
)

// Dimension is a ticket attribute results can be grouped by.
type Dimension string

const (
	DimYear       Dimension = "year"
	DimMonth      Dimension = "month"
	DimPeriod     Dimension = "period"
	DimStatus     Dimension = "status"
	DimService    Dimension = "service"
	DimSpecialist Dimension = "specialist"
	DimProvider   Dimension = "provider"
	DimContract   Dimension = "contract"
)

var dimensions = []Dimension{
	DimYear, DimMonth, DimPeriod, DimStatus, DimService, DimSpecialist, DimProvider, DimContract,
}

// ParseDimension resolves a dimension name.
func ParseDimension(s string) (Dimension, error) {
	d := Dimension(strings.ToLower(strings.TrimSpace(s)))
	if slices.Contains(dimensions, d) {
		return d, nil
	}
	return "", fmt.Errorf("unknown dimension %q", s)
}

// Value extracts the grouping key component. Temporal values are zero-padded so lexical
// order is chronological.
func (d Dimension) Value(t ticket.Ticket) string {
	switch d {
	case DimYear:
		return fmt.Sprintf("%04d", t.Year)
	case DimMonth:
		return fmt.Sprintf("%02d", t.Month)
	case DimPeriod:
		return fmt.Sprintf("%04d-%02d", t.Year, t.Month)
	case DimStatus:
		return t.Status
	case DimService:
		return t.ServiceType
	case DimSpecialist:
		return t.SpecialistID
	case DimProvider:
		return t.ProviderID
	case DimContract:
		return t.ContractID
	default:
		return ""
	}
}

// Metric is the KPI family computed per group.
type Metric string

const (
	MetricAging Metric = "aging"
	MetricOTD   Metric = "otd"
)

// GroupKey is the ordered tuple of dimension values identifying a group.
type GroupKey []string

func (k GroupKey) String() string {
	return strings.Join(k, "|")
}

// id is an unambiguous map key: components are quoted, so separators inside values cannot collide.
func (k GroupKey) id() string {
	return fmt.Sprintf("%q", []string(k))
}

// Compare orders keys component by component, lexically.
func (k GroupKey) Compare(other GroupKey) int {
	return slices.Compare(k, other)
}

// Result is the computed metric for one group.
type Result struct {
	Key        GroupKey    `json:"key"`
	Dimensions []Dimension `json:"dimensions,omitempty"`
	Metric     Metric      `json:"metric"`
	Count      int         `json:"count"`
	Value      float64     `json:"value"`
	Max        float64     `json:"max,omitempty"`
	OnTime     int         `json:"on_time,omitempty"`
	Late       int         `json:"late,omitempty"`
}

// Component returns the key value for dimension d, if the result was grouped by it.
func (r Result) Component(d Dimension) (string, bool) {
	for i, dim := range r.Dimensions {
		if dim == d && i < len(r.Key) {
			return r.Key[i], true
		}
	}
	return "", false
}

// Label is the key joined for display; the headline result is labelled "all".
func (r Result) Label() string {
	if len(r.Key) == 0 {
		return "all"
	}
	return r.Key.String()
}

// Default status classes for the OTD metric.
var (
	DefaultOnTimeStatuses = []string{"NO PRAZO", "ON_TIME"}
	DefaultLateStatuses   = []string{"ATRASO", "LATE"}
)

type aggregateConfig struct {
	onTime map[string]bool
	late   map[string]bool
}

// AggregateOption adjusts how statuses are classified for OTD.
type AggregateOption func(*aggregateConfig)

// WithOnTimeStatuses replaces the statuses counted as delivered on time.
func WithOnTimeStatuses(statuses ...string) AggregateOption {
	return func(c *aggregateConfig) { c.onTime = statusSet(statuses) }
}

// WithLateStatuses replaces the statuses counted as late.
func WithLateStatuses(statuses ...string) AggregateOption {
	return func(c *aggregateConfig) { c.late = statusSet(statuses) }
}

func statusSet(statuses []string) map[string]bool {
	set := make(map[string]bool, len(statuses))
	for _, s := range statuses {
		set[ticket.Canonical(s)] = true
	}
	return set
}

type accumulator struct {
	key    GroupKey
	count  int
	sum    float64
	max    float64
	onTime int
	late   int
}

// Aggregate groups records by the dimension tuple and computes metric per group.
// With no dimensions it returns exactly one headline result, whose count may be 0.
// Results are sorted by key ascending.
func Aggregate(records []ticket.Ticket, dims []Dimension, metric Metric, opts ...AggregateOption) []Result {
	cfg := aggregateConfig{
		onTime: statusSet(DefaultOnTimeStatuses),
		late:   statusSet(DefaultLateStatuses),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	groups := make(map[string]*accumulator)
	if len(dims) == 0 {
		groups[GroupKey{}.id()] = &accumulator{key: GroupKey{}}
	}

	for _, r := range records {
		key := make(GroupKey, len(dims))
		for i, d := range dims {
			key[i] = d.Value(r)
		}
		id := key.id()
		acc, ok := groups[id]
		if !ok {
			acc = &accumulator{key: key}
			groups[id] = acc
		}

		acc.count++
		acc.sum += r.AgingDays
		if acc.count == 1 || r.AgingDays > acc.max {
			acc.max = r.AgingDays
		}
		switch {
		case cfg.onTime[r.Status]:
			acc.onTime++
		case cfg.late[r.Status]:
			acc.late++
		}
	}

	out := make([]Result, 0, len(groups))
	for _, acc := range groups {
		res := Result{
			Key:        acc.key,
			Dimensions: slices.Clone(dims),
			Metric:     metric,
			Count:      acc.count,
			OnTime:     acc.onTime,
			Late:       acc.late,
		}
		switch metric {
		case MetricOTD:
			res.Value = Percent(acc.onTime, acc.count)
		default:
			res.Value = Mean(acc.sum, acc.count)
			res.Max = acc.max
		}
		out = append(out, res)
	}

	slices.SortStableFunc(out, func(a, b Result) int { return a.Key.Compare(b.Key) })
	return out
}

// Rollup regroups results by one key component and averages their values. Counts and status
// tallies are summed. It yields the OTD evolution as the mean of per-contract monthly rates.
func Rollup(results []Result, dim Dimension) []Result {
	type bucket struct {
		res    Result
		values []float64
	}
	buckets := make(map[string]*bucket)
	var order []string

	for _, r := range results {
		v, ok := r.Component(dim)
		if !ok {
			continue
		}
		b, seen := buckets[v]
		if !seen {
			b = &bucket{res: Result{Key: GroupKey{v}, Dimensions: []Dimension{dim}, Metric: r.Metric}}
			buckets[v] = b
			order = append(order, v)
		}
		b.values = append(b.values, r.Value)
		b.res.Count += r.Count
		b.res.OnTime += r.OnTime
		b.res.Late += r.Late
		if r.Max > b.res.Max {
			b.res.Max = r.Max
		}
	}

	out := make([]Result, 0, len(order))
	for _, v := range order {
		b := buckets[v]
		b.res.Value = MeanOf(b.values)
		out = append(out, b.res)
	}
	slices.SortStableFunc(out, func(a, b Result) int { return a.Key.Compare(b.Key) })
	return out
}
