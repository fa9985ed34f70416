package ingest

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"ticket-kpi/internal/ticket"
)

// Field is a canonical ticket column.
type Field string

const (
	FieldID         Field = "id"
	FieldOpenedAt   Field = "opened_at"
	FieldStatus     Field = "status"
	FieldService    Field = "service_type"
	FieldSpecialist Field = "specialist_id"
	FieldProvider   Field = "provider_id"
	FieldContract   Field = "contract_id"
	FieldAging      Field = "aging_days"
	FieldIgnore     Field = "ignored"
)

// aliases lists the accepted header spellings per field, already folded.
var aliases = map[Field][]string{
	FieldID:         {"id", "nota", "sa", "chamado", "ticket"},
	FieldOpenedAt:   {"opened_at", "data", "abertura", "data abertura", "data_abertura"},
	FieldStatus:     {"status"},
	FieldService:    {"service_type", "servico", "service", "tipo de servico"},
	FieldSpecialist: {"specialist_id", "ec", "especialista", "specialist"},
	FieldProvider:   {"provider_id", "mantenedor", "saw", "autorizado", "provider"},
	FieldContract:   {"contract_id", "contrato", "contract"},
	FieldAging:      {"aging_days", "aging1", "aging", "aging (dias)"},
	FieldIgnore:     {"ignored", "ignorar", "ignore"},
}

// Schema names the columns a source must carry.
type Schema struct {
	Name     string
	Required []Field
}

var (
	// AgingSchema describes the aging workbook.
	AgingSchema = Schema{
		Name:     "aging",
		Required: []Field{FieldOpenedAt, FieldStatus, FieldSpecialist, FieldProvider, FieldAging},
	}
	// OTDSchema describes the OTD workbook, which carries no specialist or aging columns.
	OTDSchema = Schema{
		Name:     "otd",
		Required: []Field{FieldOpenedAt, FieldStatus, FieldProvider, FieldContract},
	}
)

var accentFolder = strings.NewReplacer(
	"á", "a", "à", "a", "â", "a", "ã", "a",
	"é", "e", "ê", "e",
	"í", "i",
	"ó", "o", "ô", "o", "õ", "o",
	"ú", "u",
	"ç", "c",
)

func foldHeader(h string) string {
	return accentFolder.Replace(strings.ToLower(strings.TrimSpace(h)))
}

// columnIndex resolves each field to its header position. The first matching column wins.
func columnIndex(header []string) map[Field]int {
	folded := make(map[string]int, len(header))
	for i, h := range header {
		key := foldHeader(h)
		if _, seen := folded[key]; !seen {
			folded[key] = i
		}
	}

	idx := make(map[Field]int)
	for field, names := range aliases {
		for _, n := range names {
			if i, ok := folded[n]; ok {
				idx[field] = i
				break
			}
		}
	}
	return idx
}

// MapRows maps table rows onto raw ticket rows using the header aliases. A required column
// missing from the header is an error; missing cells in a row are read as empty.
func MapRows(tbl Table, schema Schema) ([]ticket.RawRow, error) {
	idx := columnIndex(tbl.Header)
	for _, f := range schema.Required {
		if _, ok := idx[f]; !ok {
			return nil, fmt.Errorf("%w: %s source %s has no %s column", ErrMissingColumn, schema.Name, tbl.Source, f)
		}
	}

	cell := func(rec []string, f Field) string {
		i, ok := idx[f]
		if !ok || i >= len(rec) {
			return ""
		}
		return rec[i]
	}

	out := make([]ticket.RawRow, 0, len(tbl.Rows))
	for _, rec := range tbl.Rows {
		opened := cell(rec, FieldOpenedAt)
		if tbl.ExcelDates {
			opened = excelDate(opened)
		}
		out = append(out, ticket.RawRow{
			ID:         cell(rec, FieldID),
			OpenedAt:   opened,
			Status:     cell(rec, FieldStatus),
			Service:    cell(rec, FieldService),
			Specialist: cell(rec, FieldSpecialist),
			Provider:   cell(rec, FieldProvider),
			Contract:   cell(rec, FieldContract),
			Aging:      cell(rec, FieldAging),
			Ignore:     cell(rec, FieldIgnore),
		})
	}
	return out, nil
}

// excelDate rewrites an Excel serial date cell into a layout the normalizer accepts. Text dates
// pass through unchanged.
func excelDate(s string) string {
	serial, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || serial <= 0 {
		return s
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return s
	}
	return t.Format("2006-01-02T15:04:05")
}
