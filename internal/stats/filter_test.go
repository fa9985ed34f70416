package stats

import (
	"slices"
	"testing"
	"time"

	"ticket-kpi/internal/ticket"
)

func tk(id string, year, month int, status, service, specialist, provider, contract string, aging float64) ticket.Ticket {
	return ticket.Ticket{
		ID:           id,
		OpenedAt:     time.Date(year, time.Month(month), 10, 0, 0, 0, 0, time.UTC),
		Year:         year,
		Month:        month,
		Status:       status,
		ServiceType:  service,
		SpecialistID: specialist,
		ProviderID:   provider,
		ContractID:   contract,
		AgingDays:    aging,
	}
}

func fixture() []ticket.Ticket {
	return []ticket.Ticket{
		tk("1", 2024, 12, "ATRASO", "CORRETIVA", "EC1", "P1", "A", 4),
		tk("2", 2025, 1, "NO PRAZO", "CORRETIVA", "EC1", "P1", "A", 1),
		tk("3", 2025, 2, "ATRASO", "PREVENTIVA", "EC2", "P2", "A", 3),
		tk("4", 2025, 3, "NO PRAZO", "PREVENTIVA", "EC2", "P2", "B", 2),
		tk("5", 2025, 3, "ABERTO", "CORRETIVA", "EC1", "P3", "B", 0.5),
	}
}

func ids(records []ticket.Ticket) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func TestFilter_Selections(t *testing.T) {
	records := fixture()

	withPeriod := func(p Period) Selection {
		s := SelectAll()
		s.Period = p
		return s
	}
	withProvider := SelectAll()
	withProvider.Provider = " p2 "
	withStatuses := SelectAll()
	withStatuses.Statuses = AnyOf("no prazo", "ATRASO")
	withServices := SelectAll()
	withServices.Services = AnyOf("PREVENTIVA")
	conjunction := withPeriod(YearOf(2025))
	conjunction.Specialist = "EC1"
	conjunction.Contract = "b"

	tests := []struct {
		name string
		sel  Selection
		want []string
	}{
		{"all", SelectAll(), []string{"1", "2", "3", "4", "5"}},
		{"year", withPeriod(YearOf(2025)), []string{"2", "3", "4", "5"}},
		{"month", withPeriod(MonthOf(2025, 3)), []string{"4", "5"}},
		{"year to date", withPeriod(YearToDate(2025, 2)), []string{"2", "3"}},
		{"provider", withProvider, []string{"3", "4"}},
		{"statuses", withStatuses, []string{"1", "2", "3", "4"}},
		{"services", withServices, []string{"3", "4"}},
		{"conjunction", conjunction, []string{"5"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(Filter(records, tt.sel))
			if !slices.Equal(got, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestFilter_EmptyStatusSetMatchesNothing(t *testing.T) {
	sel := SelectAll()
	sel.Statuses = AllowSet{}
	if got := Filter(fixture(), sel); len(got) != 0 {
		t.Errorf("Expected zero rows for an empty status set, got %d", len(got))
	}

	sel.Statuses = AnyOf()
	if got := Filter(fixture(), sel); len(got) != 0 {
		t.Errorf("Expected zero rows for AnyOf(), got %d", len(got))
	}
}

func TestFilter_DoesNotModifyInput(t *testing.T) {
	records := fixture()
	sel := SelectAll()
	sel.Provider = "P1"

	got := Filter(records, sel)
	if len(got) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(got))
	}
	got[0].ProviderID = "CHANGED"
	if records[0].ProviderID != "P1" {
		t.Errorf("Expected input to be left untouched, got %q", records[0].ProviderID)
	}
}

func TestAllowSet(t *testing.T) {
	s := AnyOf(" b", "a")
	if !s.Allows("A") || !s.Allows("B") || s.Allows("C") {
		t.Errorf("Unexpected membership for %v", s.Values())
	}
	if got := s.Values(); !slices.Equal(got, []string{"A", "B"}) {
		t.Errorf("Expected [A B], got %v", got)
	}
	if !All().IsAll() || All().Values() != nil {
		t.Errorf("Expected All() to be unrestricted")
	}
}

func TestOptions(t *testing.T) {
	opts := Options(fixture())

	if !slices.Equal(opts.Years, []int{2024, 2025}) {
		t.Errorf("Expected years [2024 2025], got %v", opts.Years)
	}
	if len(opts.Months) != 2 || opts.Months[1].Year != 2025 || !slices.Equal(opts.Months[1].Months, []int{1, 2, 3}) {
		t.Errorf("Expected months [1 2 3] for 2025, got %+v", opts.Months)
	}
	if !slices.Equal(opts.Statuses, []string{"ABERTO", "ATRASO", "NO PRAZO"}) {
		t.Errorf("Unexpected statuses %v", opts.Statuses)
	}
	if !slices.Equal(opts.Providers, []string{"P1", "P2", "P3"}) {
		t.Errorf("Unexpected providers %v", opts.Providers)
	}
	if !slices.Equal(opts.Contracts, []string{"A", "B"}) {
		t.Errorf("Unexpected contracts %v", opts.Contracts)
	}
}
