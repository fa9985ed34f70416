package ticket

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// IgnoreMarker is the ignore-flag value that excludes a row from every KPI.
const IgnoreMarker = "SIM"

// dateLayouts are tried in order; the first successful parse wins.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"02/01/2006",
	"02/01/2006 15:04",
	"02/01/2006 15:04:05",
}

type rules struct {
	requireAging      bool
	requireSpecialist bool
	ignoreMarkers     map[string]bool
}

// Option relaxes or adjusts the normalization rules.
type Option func(*rules)

// WithoutAging accepts rows with no aging value. Use it for OTD-only sources; the resulting
// AgingDays is 0 and must not feed an Aging aggregate.
func WithoutAging() Option {
	return func(r *rules) { r.requireAging = false }
}

// WithoutSpecialist accepts rows with an empty specialist, for sources that carry no EC column.
func WithoutSpecialist() Option {
	return func(r *rules) { r.requireSpecialist = false }
}

// WithIgnoreMarkers replaces the set of ignore-flag values that exclude a row.
func WithIgnoreMarkers(markers ...string) Option {
	return func(r *rules) {
		r.ignoreMarkers = make(map[string]bool, len(markers))
		for _, m := range markers {
			r.ignoreMarkers[canonical(m)] = true
		}
	}
}

// Normalize turns raw rows into canonical tickets. Bad rows are excluded and counted, never fatal.
// The input is not modified and output order follows input order.
func Normalize(rows []RawRow, opts ...Option) ([]Ticket, Diagnostics) {
	r := rules{
		requireAging:      true,
		requireSpecialist: true,
		ignoreMarkers:     map[string]bool{IgnoreMarker: true},
	}
	for _, opt := range opts {
		opt(&r)
	}

	diag := Diagnostics{Read: len(rows), Dropped: make(map[DropReason]int)}
	out := make([]Ticket, 0, len(rows))

	for _, row := range rows {
		t, reason, ok := normalizeRow(row, r)
		if !ok {
			diag.Dropped[reason]++
			continue
		}
		out = append(out, t)
	}

	diag.Kept = len(out)
	return out, diag
}

func normalizeRow(row RawRow, r rules) (Ticket, DropReason, bool) {
	if r.ignoreMarkers[canonical(row.Ignore)] {
		return Ticket{}, DropIgnored, false
	}

	opened, ok := ParseDate(row.OpenedAt)
	if !ok {
		return Ticket{}, DropBadDate, false
	}

	t := Ticket{
		ID:           strings.TrimSpace(row.ID),
		OpenedAt:     opened,
		Year:         opened.Year(),
		Month:        int(opened.Month()),
		Status:       canonical(row.Status),
		ServiceType:  canonical(row.Service),
		SpecialistID: canonical(row.Specialist),
		ProviderID:   canonical(row.Provider),
		ContractID:   canonical(row.Contract),
	}

	switch {
	case t.Status == "":
		return Ticket{}, DropMissingStatus, false
	case r.requireSpecialist && t.SpecialistID == "":
		return Ticket{}, DropMissingSpecialist, false
	case t.ProviderID == "":
		return Ticket{}, DropMissingProvider, false
	}

	aging, ok := ParseAging(row.Aging)
	if ok {
		t.AgingDays = aging
	} else if r.requireAging {
		return Ticket{}, DropBadAging, false
	}

	return t, "", true
}

// ParseDate parses an open-date cell using the accepted layouts.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseAging reads the upstream aging value verbatim. Decimal commas are accepted; negative,
// NaN and infinite values are rejected.
func ParseAging(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if strings.Contains(s, ",") && !strings.Contains(s, ".") {
		s = strings.ReplaceAll(s, ",", ".")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, false
	}
	return v, true
}

// canonical trims and uppercases a categorical value.
func canonical(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Canonical exposes the categorical normalization so callers compare selections the same way.
func Canonical(s string) string {
	return canonical(s)
}
