package ticket

import "time"

// Ticket is the canonical, typed service-ticket record every KPI is computed from.
type Ticket struct {
	ID           string    `json:"id"`
	OpenedAt     time.Time `json:"opened_at"`
	Year         int       `json:"year"`
	Month        int       `json:"month"`
	Status       string    `json:"status"`
	ServiceType  string    `json:"service_type"`
	SpecialistID string    `json:"specialist_id"`
	ProviderID   string    `json:"provider_id"`
	ContractID   string    `json:"contract_id"`
	AgingDays    float64   `json:"aging_days"`
	Ignored      bool      `json:"ignored"`
}

// RawRow is one untyped spreadsheet row after header mapping. Every field is the cell text
// exactly as read; Normalize is the only place it gets interpreted.
type RawRow struct {
	ID         string
	OpenedAt   string
	Status     string
	Service    string
	Specialist string
	Provider   string
	Contract   string
	Aging      string
	Ignore     string
}

// DropReason names why a raw row did not make it into the working set.
type DropReason string

const (
	DropIgnored           DropReason = "ignored"
	DropBadDate           DropReason = "bad_date"
	DropMissingStatus     DropReason = "missing_status"
	DropMissingSpecialist DropReason = "missing_specialist"
	DropMissingProvider   DropReason = "missing_provider"
	DropBadAging          DropReason = "bad_aging"
)

// Diagnostics summarises a normalization pass.
type Diagnostics struct {
	Read    int                `json:"read"`
	Kept    int                `json:"kept"`
	Dropped map[DropReason]int `json:"dropped,omitempty"`
}

// DroppedTotal returns the number of rows excluded for any reason.
func (d Diagnostics) DroppedTotal() int {
	total := 0
	for _, n := range d.Dropped {
		total += n
	}
	return total
}
