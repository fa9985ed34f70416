package ingest

import (
	"cmp"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"ticket-kpi/internal/stats"
	"ticket-kpi/internal/ticket"
)

var targetAliases = []string{"otd_percent", "meta otd (%)", "meta otd", "meta", "target"}

type targetsFile struct {
	Contracts map[string]float64 `yaml:"contracts"`
}

// ReadTargets loads the per-contract OTD targets from a YAML, CSV or XLSX file.
// Rows with an empty contract or a target outside 0-100 are skipped with a warning; the first
// target of a contract wins over later duplicates.
func ReadTargets(path, sheet string) ([]stats.Target, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return readTargetsYAML(path)
	}

	tbl, err := ReadTable(path, sheet)
	if err != nil {
		return nil, err
	}

	idx := columnIndex(tbl.Header)
	contractCol, ok := idx[FieldContract]
	if !ok {
		return nil, fmt.Errorf("%w: targets source %s has no contract column", ErrMissingColumn, path)
	}
	targetCol := -1
	for i, h := range tbl.Header {
		if slices.Contains(targetAliases, foldHeader(h)) {
			targetCol = i
			break
		}
	}
	if targetCol < 0 {
		return nil, fmt.Errorf("%w: targets source %s has no target column", ErrMissingColumn, path)
	}

	var c targetCollector
	for n, rec := range tbl.Rows {
		if contractCol >= len(rec) || targetCol >= len(rec) {
			continue
		}
		contract := ticket.Canonical(rec[contractCol])
		pct, ok := parsePercent(rec[targetCol])
		if contract == "" || !ok {
			log.Warn().Str("path", path).Int("row", n+2).Msg("Skipping unreadable target row")
			continue
		}
		c.add(path, contract, pct)
	}
	return c.targets, nil
}

func readTargetsYAML(path string) ([]stats.Target, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, path)
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var file targetsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	keys := make([]string, 0, len(file.Contracts))
	for k := range file.Contracts {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var c targetCollector
	for _, k := range keys {
		contract := ticket.Canonical(k)
		pct := file.Contracts[k]
		if contract == "" || pct < 0 || pct > 100 {
			log.Warn().Str("path", path).Str("contract", k).Float64("target", pct).Msg("Skipping unreadable target entry")
			continue
		}
		c.add(path, contract, pct)
	}
	slices.SortFunc(c.targets, func(a, b stats.Target) int { return cmp.Compare(a.ContractID, b.ContractID) })
	return c.targets, nil
}

// targetCollector keeps the first target per canonical contract and warns on later duplicates.
type targetCollector struct {
	seen    map[string]bool
	targets []stats.Target
}

func (c *targetCollector) add(path, contract string, pct float64) {
	if c.seen == nil {
		c.seen = make(map[string]bool)
	}
	if c.seen[contract] {
		log.Warn().Str("path", path).Str("contract", contract).Msg("Ignoring duplicate contract target")
		return
	}
	c.seen[contract] = true
	c.targets = append(c.targets, stats.Target{ContractID: contract, OTDPercent: pct})
}

// parsePercent reads "90", "90%", "92,5" or "92.5".
func parsePercent(s string) (float64, bool) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	s = strings.ReplaceAll(s, ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 || v > 100 {
		return 0, false
	}
	return v, true
}
