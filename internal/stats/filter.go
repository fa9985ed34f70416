package stats

import (
	"fmt"
	"slices"

	"ticket-kpi/internal/ticket"
)

// PeriodKind selects how a Period constrains a ticket's open date.
type PeriodKind int

const (
	PeriodAny PeriodKind = iota
	PeriodYear
	PeriodMonth
	PeriodYearToDate
)

// Period is the temporal part of a Selection.
type Period struct {
	Kind  PeriodKind `json:"kind"`
	Year  int        `json:"year,omitempty"`
	Month int        `json:"month,omitempty"`
}

// AnyPeriod leaves the open date unconstrained.
func AnyPeriod() Period { return Period{Kind: PeriodAny} }

// YearOf keeps tickets opened in the given year.
func YearOf(year int) Period { return Period{Kind: PeriodYear, Year: year} }

// MonthOf keeps tickets opened in the given year and month.
func MonthOf(year, month int) Period { return Period{Kind: PeriodMonth, Year: year, Month: month} }

// YearToDate keeps tickets opened in the given year from January through month, inclusive.
func YearToDate(year, through int) Period {
	return Period{Kind: PeriodYearToDate, Year: year, Month: through}
}

// Contains reports whether the ticket falls inside the period.
func (p Period) Contains(t ticket.Ticket) bool {
	switch p.Kind {
	case PeriodYear:
		return t.Year == p.Year
	case PeriodMonth:
		return t.Year == p.Year && t.Month == p.Month
	case PeriodYearToDate:
		return t.Year == p.Year && t.Month >= 1 && t.Month <= p.Month
	default:
		return true
	}
}

func (p Period) String() string {
	switch p.Kind {
	case PeriodYear:
		return fmt.Sprintf("%04d", p.Year)
	case PeriodMonth:
		return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
	case PeriodYearToDate:
		return fmt.Sprintf("%04d-01..%02d", p.Year, p.Month)
	default:
		return "all"
	}
}

// AllowSet is a multi-select constraint. The zero value allows nothing; use All for no restriction.
type AllowSet struct {
	all    bool
	values map[string]struct{}
}

// All returns a set that allows every value.
func All() AllowSet { return AllowSet{all: true} }

// AnyOf returns a set allowing exactly the given values, compared after trim and uppercase.
func AnyOf(values ...string) AllowSet {
	s := AllowSet{values: make(map[string]struct{}, len(values))}
	for _, v := range values {
		s.values[ticket.Canonical(v)] = struct{}{}
	}
	return s
}

// Allows reports whether v passes the constraint. v is expected in canonical form.
func (s AllowSet) Allows(v string) bool {
	if s.all {
		return true
	}
	_, ok := s.values[v]
	return ok
}

// IsAll reports whether the set is unrestricted.
func (s AllowSet) IsAll() bool { return s.all }

// Values lists the allowed values in ascending order. It is nil for an unrestricted set.
func (s AllowSet) Values() []string {
	if s.all {
		return nil
	}
	out := make([]string, 0, len(s.values))
	for v := range s.values {
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}

// Selection is the conjunction of filter constraints applied to the working set.
// Empty Specialist, Provider and Contract mean unconstrained.
type Selection struct {
	Period     Period
	Statuses   AllowSet
	Services   AllowSet
	Specialist string
	Provider   string
	Contract   string
}

// SelectAll returns a Selection with every dimension unconstrained.
func SelectAll() Selection {
	return Selection{
		Period:   AnyPeriod(),
		Statuses: All(),
		Services: All(),
	}
}

// Matches reports whether a ticket satisfies every constraint.
func (s Selection) Matches(t ticket.Ticket) bool {
	if !s.Period.Contains(t) {
		return false
	}
	if !s.Statuses.Allows(t.Status) || !s.Services.Allows(t.ServiceType) {
		return false
	}
	return matchesEqual(s.Specialist, t.SpecialistID) &&
		matchesEqual(s.Provider, t.ProviderID) &&
		matchesEqual(s.Contract, t.ContractID)
}

func matchesEqual(want, got string) bool {
	want = ticket.Canonical(want)
	return want == "" || want == got
}

// Filter returns the tickets matching sel in their original order. The input is not modified.
func Filter(records []ticket.Ticket, sel Selection) []ticket.Ticket {
	out := make([]ticket.Ticket, 0, len(records))
	for _, r := range records {
		if sel.Matches(r) {
			out = append(out, r)
		}
	}
	return out
}

// YearMonths lists the months with tickets in one year.
type YearMonths struct {
	Year   int   `json:"year"`
	Months []int `json:"months"`
}

// FilterOptions lists the distinct values available for each filter control.
type FilterOptions struct {
	Years       []int        `json:"years"`
	Months      []YearMonths `json:"months"`
	Statuses    []string     `json:"statuses"`
	Services    []string     `json:"services"`
	Specialists []string     `json:"specialists"`
	Providers   []string     `json:"providers"`
	Contracts   []string     `json:"contracts"`
}

// Options collects the sorted distinct values per dimension. Empty values are skipped.
func Options(records []ticket.Ticket) FilterOptions {
	months := make(map[int]map[int]bool)
	statuses := make(map[string]bool)
	services := make(map[string]bool)
	specialists := make(map[string]bool)
	providers := make(map[string]bool)
	contracts := make(map[string]bool)

	for _, r := range records {
		if months[r.Year] == nil {
			months[r.Year] = make(map[int]bool)
		}
		months[r.Year][r.Month] = true
		statuses[r.Status] = true
		services[r.ServiceType] = true
		specialists[r.SpecialistID] = true
		providers[r.ProviderID] = true
		contracts[r.ContractID] = true
	}

	opts := FilterOptions{
		Statuses:    sortedKeys(statuses),
		Services:    sortedKeys(services),
		Specialists: sortedKeys(specialists),
		Providers:   sortedKeys(providers),
		Contracts:   sortedKeys(contracts),
	}
	for y := range months {
		opts.Years = append(opts.Years, y)
	}
	slices.Sort(opts.Years)
	for _, y := range opts.Years {
		list := make([]int, 0, len(months[y]))
		for m := range months[y] {
			list = append(list, m)
		}
		slices.Sort(list)
		opts.Months = append(opts.Months, YearMonths{Year: y, Months: list})
	}
	return opts
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		if k != "" {
			out = append(out, k)
		}
	}
	slices.Sort(out)
	return out
}
