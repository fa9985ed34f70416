package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"gopkg.in/yaml.v3"

	"ticket-kpi/internal/stats"
	"ticket-kpi/internal/ticket"
)

var exportHeader = []string{
	string(FieldID), string(FieldOpenedAt), string(FieldStatus), string(FieldService),
	string(FieldSpecialist), string(FieldProvider), string(FieldContract), string(FieldAging),
}

// WriteCSV writes normalized tickets with canonical headers. The output reads back through
// ReadTable and MapRows unchanged.
func WriteCSV(w io.Writer, records []ticket.Ticket) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, r := range records {
		row := []string{
			r.ID,
			r.OpenedAt.Format("2006-01-02T15:04:05"),
			r.Status,
			r.ServiceType,
			r.SpecialistID,
			r.ProviderID,
			r.ContractID,
			strconv.FormatFloat(r.AgingDays, 'f', -1, 64),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write ticket %s: %w", r.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteTargets writes contract targets in the YAML layout ReadTargets accepts.
func WriteTargets(w io.Writer, targets []stats.Target) error {
	file := targetsFile{Contracts: make(map[string]float64, len(targets))}
	for _, t := range targets {
		file.Contracts[t.ContractID] = t.OTDPercent
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(file); err != nil {
		return fmt.Errorf("failed to write targets: %w", err)
	}
	return enc.Close()
}
