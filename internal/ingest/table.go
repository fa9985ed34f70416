package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"
)

var (
	// ErrSourceNotFound is returned when a configured source file does not exist.
	ErrSourceNotFound = errors.New("source not found")
	// ErrMissingColumn is returned when a required column is absent from a table header.
	ErrMissingColumn = errors.New("missing column")
	// ErrUnsupportedFormat is returned for file extensions no reader handles.
	ErrUnsupportedFormat = errors.New("unsupported source format")
)

// Table is a header plus raw cell rows, as read from a spreadsheet or CSV file.
type Table struct {
	Source string
	Header []string
	Rows   [][]string
	// ExcelDates is set when date cells may hold Excel serial numbers.
	ExcelDates bool
}

// ReadTable reads a .csv or .xlsx file. sheet selects the worksheet for workbooks; empty means
// the first sheet.
func ReadTable(path, sheet string) (Table, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Table{}, fmt.Errorf("%w: %s", ErrSourceNotFound, path)
		}
		return Table{}, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		return readCSV(path)
	case ".xlsx", ".xlsm":
		return readXLSX(path, sheet)
	default:
		return Table{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

func readCSV(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Table{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	text := strings.TrimPrefix(string(data), "\ufeff")

	r := csv.NewReader(strings.NewReader(text))
	r.Comma = sniffDelimiter(text)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		return Table{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return newTable(path, records, false), nil
}

// sniffDelimiter picks ';' when the header line uses it, as spreadsheets exported with a
// decimal-comma locale do.
func sniffDelimiter(text string) rune {
	header, _, _ := strings.Cut(text, "\n")
	if strings.Count(header, ";") > strings.Count(header, ",") {
		return ';'
	}
	return ','
}

func readXLSX(path, sheet string) (Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return Table{}, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Failed to close workbook")
		}
	}()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return Table{}, fmt.Errorf("%w: workbook %s has no sheets", ErrSourceNotFound, path)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return Table{}, fmt.Errorf("%w: sheet %q in %s: %v", ErrSourceNotFound, sheet, path, err)
	}

	log.Debug().Str("path", path).Str("sheet", sheet).Int("rows", len(rows)).Msg("Workbook sheet read")
	return newTable(path, rows, true), nil
}

func newTable(source string, records [][]string, excelDates bool) Table {
	t := Table{Source: source, ExcelDates: excelDates}
	if len(records) == 0 {
		return t
	}
	t.Header = make([]string, len(records[0]))
	for i, h := range records[0] {
		t.Header[i] = strings.TrimSpace(h)
	}
	for _, rec := range records[1:] {
		if isBlank(rec) {
			continue
		}
		t.Rows = append(t.Rows, rec)
	}
	return t
}

func isBlank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
