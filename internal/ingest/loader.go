package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"ticket-kpi/internal/stats"
	"ticket-kpi/internal/ticket"
)

// Sources locates the three input tables. An empty path leaves that table unloaded.
type Sources struct {
	AgingPath   string
	AgingSheet  string
	OTDPath     string
	OTDSheet    string
	TargetsPath string
}

// Paths lists the configured source files.
func (s Sources) Paths() []string {
	var out []string
	for _, p := range []string{s.AgingPath, s.OTDPath, s.TargetsPath} {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// SourceQuality reports how a source fared through normalization.
type SourceQuality struct {
	Name        string             `json:"name"`
	Path        string             `json:"path"`
	Diagnostics ticket.Diagnostics `json:"diagnostics"`
}

// Dataset is one immutable load of every configured source.
type Dataset struct {
	LoadID   string          `json:"load_id"`
	Aging    []ticket.Ticket `json:"-"`
	OTD      []ticket.Ticket `json:"-"`
	Targets  []stats.Target  `json:"targets"`
	Quality  []SourceQuality `json:"quality"`
	LoadedAt time.Time       `json:"loaded_at"`
}

// HasSource reports whether the named ticket source ("aging" or "otd") was loaded.
func (d *Dataset) HasSource(name string) bool {
	for _, q := range d.Quality {
		if q.Name == name {
			return true
		}
	}
	return false
}

// Load reads the configured sources concurrently. Any source failure fails the whole load.
func Load(ctx context.Context, src Sources) (*Dataset, error) {
	ds := &Dataset{}
	var agingQ, otdQ *SourceQuality

	g, ctx := errgroup.WithContext(ctx)

	if src.AgingPath != "" {
		g.Go(func() error {
			records, q, err := loadTickets(ctx, src.AgingPath, src.AgingSheet, AgingSchema)
			if err != nil {
				return err
			}
			ds.Aging, agingQ = records, q
			return nil
		})
	}

	if src.OTDPath != "" {
		g.Go(func() error {
			records, q, err := loadTickets(ctx, src.OTDPath, src.OTDSheet, OTDSchema,
				ticket.WithoutAging(), ticket.WithoutSpecialist())
			if err != nil {
				return err
			}
			ds.OTD, otdQ = records, q
			return nil
		})
	}

	if src.TargetsPath != "" {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			targets, err := ReadTargets(src.TargetsPath, "")
			if err != nil {
				return fmt.Errorf("targets: %w", err)
			}
			ds.Targets = targets
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, q := range []*SourceQuality{agingQ, otdQ} {
		if q != nil {
			ds.Quality = append(ds.Quality, *q)
		}
	}
	ds.LoadedAt = time.Now()
	ds.LoadID = uuid.NewString()

	log.Info().
		Str("load_id", ds.LoadID).
		Int("aging", len(ds.Aging)).
		Int("otd", len(ds.OTD)).
		Int("targets", len(ds.Targets)).
		Msg("Sources loaded")
	return ds, nil
}

func loadTickets(ctx context.Context, path, sheet string, schema Schema, opts ...ticket.Option) ([]ticket.Ticket, *SourceQuality, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	tbl, err := ReadTable(path, sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", schema.Name, err)
	}
	rows, err := MapRows(tbl, schema)
	if err != nil {
		return nil, nil, err
	}

	records, diag := ticket.Normalize(rows, opts...)
	if n := diag.DroppedTotal(); n > 0 {
		ev := log.Warn().Str("source", schema.Name).Int("dropped", n)
		for reason, count := range diag.Dropped {
			ev = ev.Int(string(reason), count)
		}
		ev.Msg("Rows excluded during normalization")
	}
	log.Debug().Str("source", schema.Name).Str("path", path).Int("read", diag.Read).Int("kept", diag.Kept).Msg("Source normalized")

	return records, &SourceQuality{Name: schema.Name, Path: path, Diagnostics: diag}, nil
}
