package ticket

import (
	"testing"
	"time"
)

func agingRow(opened, status, specialist, provider, aging string) RawRow {
	return RawRow{
		ID:         "SA-1",
		OpenedAt:   opened,
		Status:     status,
		Service:    "corretiva",
		Specialist: specialist,
		Provider:   provider,
		Contract:   "a",
		Aging:      aging,
	}
}

func TestNormalize_CanonicalFields(t *testing.T) {
	rows := []RawRow{agingRow("2025-03-14", " no prazo ", " ec01", "prov x ", "2,5")}

	got, diag := Normalize(rows)
	if len(got) != 1 {
		t.Fatalf("Expected 1 ticket, got %d (%+v)", len(got), diag)
	}

	tk := got[0]
	if tk.Status != "NO PRAZO" {
		t.Errorf("Expected status NO PRAZO, got %q", tk.Status)
	}
	if tk.SpecialistID != "EC01" || tk.ProviderID != "PROV X" || tk.ContractID != "A" {
		t.Errorf("Expected trimmed uppercase ids, got %q %q %q", tk.SpecialistID, tk.ProviderID, tk.ContractID)
	}
	if tk.ServiceType != "CORRETIVA" {
		t.Errorf("Expected service CORRETIVA, got %q", tk.ServiceType)
	}
	if tk.Year != 2025 || tk.Month != 3 {
		t.Errorf("Expected 2025-03, got %d-%d", tk.Year, tk.Month)
	}
	if tk.AgingDays != 2.5 {
		t.Errorf("Expected aging 2.5, got %v", tk.AgingDays)
	}
	if diag.Read != 1 || diag.Kept != 1 || diag.DroppedTotal() != 0 {
		t.Errorf("Unexpected diagnostics: %+v", diag)
	}
}

func TestNormalize_DropReasons(t *testing.T) {
	ignored := agingRow("2025-01-02", "ATRASO", "EC1", "P1", "1")
	ignored.Ignore = " sim "

	tests := []struct {
		name   string
		row    RawRow
		reason DropReason
	}{
		{"ignored", ignored, DropIgnored},
		{"bad date", agingRow("not a date", "ATRASO", "EC1", "P1", "1"), DropBadDate},
		{"empty date", agingRow("", "ATRASO", "EC1", "P1", "1"), DropBadDate},
		{"missing status", agingRow("2025-01-02", "  ", "EC1", "P1", "1"), DropMissingStatus},
		{"missing specialist", agingRow("2025-01-02", "ATRASO", "", "P1", "1"), DropMissingSpecialist},
		{"missing provider", agingRow("2025-01-02", "ATRASO", "EC1", "", "1"), DropMissingProvider},
		{"missing aging", agingRow("2025-01-02", "ATRASO", "EC1", "P1", ""), DropBadAging},
		{"negative aging", agingRow("2025-01-02", "ATRASO", "EC1", "P1", "-1"), DropBadAging},
		{"garbage aging", agingRow("2025-01-02", "ATRASO", "EC1", "P1", "abc"), DropBadAging},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, diag := Normalize([]RawRow{tt.row})
			if len(got) != 0 {
				t.Fatalf("Expected row to be dropped, got %+v", got)
			}
			if diag.Dropped[tt.reason] != 1 {
				t.Errorf("Expected 1 drop for %s, got %+v", tt.reason, diag.Dropped)
			}
			if diag.Read != 1 || diag.Kept != 0 {
				t.Errorf("Expected read 1 kept 0, got %+v", diag)
			}
		})
	}
}

func TestNormalize_PreservesOrderAndCounts(t *testing.T) {
	rows := []RawRow{
		agingRow("2025-01-02", "ATRASO", "EC1", "P1", "1"),
		agingRow("bad", "ATRASO", "EC1", "P1", "1"),
		agingRow("2025-02-02", "NO PRAZO", "EC2", "P2", "3"),
	}
	rows[0].ID = "first"
	rows[2].ID = "third"

	got, diag := Normalize(rows)
	if len(got) != 2 || got[0].ID != "first" || got[1].ID != "third" {
		t.Fatalf("Expected [first third], got %+v", got)
	}
	if diag.Read != 3 || diag.Kept != 2 || diag.DroppedTotal() != 1 {
		t.Errorf("Unexpected diagnostics: %+v", diag)
	}
	if rows[1].OpenedAt != "bad" {
		t.Errorf("Expected input to be left untouched")
	}
}

func TestNormalize_RelaxedRules(t *testing.T) {
	otd := RawRow{ID: "N1", OpenedAt: "14/03/2025", Status: "no prazo", Provider: "p1", Contract: "b"}

	if got, _ := Normalize([]RawRow{otd}); len(got) != 0 {
		t.Errorf("Expected strict rules to drop an OTD row, got %+v", got)
	}

	got, diag := Normalize([]RawRow{otd}, WithoutAging(), WithoutSpecialist())
	if len(got) != 1 {
		t.Fatalf("Expected relaxed rules to keep the row, got %+v", diag)
	}
	if got[0].AgingDays != 0 || got[0].ContractID != "B" {
		t.Errorf("Unexpected ticket %+v", got[0])
	}
}

func TestNormalize_IgnoreMarkers(t *testing.T) {
	row := agingRow("2025-01-02", "ATRASO", "EC1", "P1", "1")
	row.Ignore = "x"

	if got, _ := Normalize([]RawRow{row}); len(got) != 1 {
		t.Errorf("Expected default markers to keep the row")
	}
	if got, _ := Normalize([]RawRow{row}, WithIgnoreMarkers("X", "SIM")); len(got) != 0 {
		t.Errorf("Expected custom marker to drop the row")
	}
}

func TestParseDate_Layouts(t *testing.T) {
	want := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	inputs := []string{
		"2025-03-14",
		"2025-03-14 00:00:00",
		"2025-03-14T00:00:00",
		"2025-03-14T00:00:00Z",
		"14/03/2025",
		"14/03/2025 00:00",
		" 14/03/2025 00:00:00 ",
	}
	for _, in := range inputs {
		got, ok := ParseDate(in)
		if !ok {
			t.Errorf("Expected %q to parse", in)
			continue
		}
		if !got.Equal(want) {
			t.Errorf("Expected %v for %q, got %v", want, in, got)
		}
	}
}

func TestParseAging(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"2", 2, true},
		{"2.75", 2.75, true},
		{"2,75", 2.75, true},
		{"0", 0, true},
		{"-0.5", 0, false},
		{"NaN", 0, false},
		{"Inf", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseAging(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ParseAging(%q): expected (%v, %v), got (%v, %v)", tt.in, tt.want, tt.ok, got, ok)
		}
	}
}
