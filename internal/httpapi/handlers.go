package httpapi

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"ticket-kpi/internal/ingest"
	"ticket-kpi/internal/report"
)

func (s *Server) live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "alive", "version": s.version})
}

func (s *Server) ready(c *fiber.Ctx) error {
	_, version, err := s.store.Current()
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "loading", "error": err.Error()})
	}
	return c.JSON(fiber.Map{"status": "ready", "snapshot_version": version})
}

// parseQuery reads the shared filter parameters. Lists are comma separated.
func parseQuery(c *fiber.Ctx, ds *ingest.Dataset) (report.Query, error) {
	year, err := intParam(c, "year")
	if err != nil {
		return report.Query{}, err
	}
	if year == 0 {
		year = report.LatestYear(ds)
	}
	month, err := intParam(c, "month")
	if err != nil {
		return report.Query{}, err
	}
	return report.Query{
		Year:       year,
		Month:      month,
		Statuses:   listParam(c, "statuses"),
		Services:   listParam(c, "services"),
		Specialist: c.Query("specialist"),
		Provider:   c.Query("provider"),
		Contract:   c.Query("contract"),
	}, nil
}

func intParam(c *fiber.Ctx, name string) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", report.ErrInvalidQuery, name)
	}
	return n, nil
}

// listParam splits a comma-separated parameter. An absent parameter yields nil (every value);
// a present but empty one yields an empty, non-nil list that selects nothing.
func listParam(c *fiber.Ctx, name string) []string {
	if !c.Context().QueryArgs().Has(name) {
		return nil
	}
	out := []string{}
	for _, item := range strings.Split(c.Query(name), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// view runs build against the current snapshot with the request filters.
func (s *Server) view(c *fiber.Ctx, build func(*ingest.Dataset, report.Query) (any, error)) error {
	ds, _, err := s.store.Current()
	if err != nil {
		return err
	}
	q, err := parseQuery(c, ds)
	if err != nil {
		return err
	}
	out, err := build(ds, q)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

func (s *Server) agingAnnual(c *fiber.Ctx) error {
	return s.view(c, func(ds *ingest.Dataset, q report.Query) (any, error) {
		return s.engine.AgingAnnual(ds, q)
	})
}

func (s *Server) agingMonthly(c *fiber.Ctx) error {
	return s.view(c, func(ds *ingest.Dataset, q report.Query) (any, error) {
		return s.engine.AgingMonthly(ds, q)
	})
}

func (s *Server) providerTrend(c *fiber.Ctx) error {
	return s.view(c, func(ds *ingest.Dataset, q report.Query) (any, error) {
		q.Provider = c.Params("provider")
		return s.engine.ProviderTrend(ds, q)
	})
}

func (s *Server) otd(c *fiber.Ctx) error {
	return s.view(c, func(ds *ingest.Dataset, q report.Query) (any, error) {
		return s.engine.OTD(ds, q)
	})
}

func (s *Server) options(c *fiber.Ctx) error {
	ds, _, err := s.store.Current()
	if err != nil {
		return err
	}
	return c.JSON(s.engine.FilterOptions(ds))
}

func (s *Server) quality(c *fiber.Ctx) error {
	ds, version, err := s.store.Current()
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"version": version,
		"load_id": ds.LoadID,
		"quality": s.engine.DataQuality(ds),
	})
}

func (s *Server) export(c *fiber.Ctx) error {
	ds, _, err := s.store.Current()
	if err != nil {
		return err
	}
	source := c.Params("source")
	if source != "aging" && source != "otd" {
		return fiber.NewError(fiber.StatusNotFound, "unknown source "+source)
	}
	if !ds.HasSource(source) {
		if source == "aging" {
			return report.ErrNoAgingData
		}
		return report.ErrNoOTDData
	}
	records := ds.Aging
	if source == "otd" {
		records = ds.OTD
	}

	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s-%s.csv"`, source, ds.LoadedAt.Format("20060102")))
	return ingest.WriteCSV(c, records)
}

func (s *Server) reload(c *fiber.Ctx) error {
	if err := s.store.Reload(c.UserContext()); err != nil {
		return err
	}
	ds, version, err := s.store.Current()
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"version":       version,
		"load_id":       ds.LoadID,
		"loaded_at":     ds.LoadedAt.Format(time.RFC3339),
		"aging_tickets": len(ds.Aging),
		"otd_tickets":   len(ds.OTD),
		"targets":       len(ds.Targets),
	})
}
