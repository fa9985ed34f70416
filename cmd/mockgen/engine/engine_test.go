package engine

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"ticket-kpi/internal/ingest"
)

func TestGenerate_Deterministic(t *testing.T) {
	cfg := GeneratorConfig{Count: 50, Now: time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC), Seed: 7}

	a, targets := Generate(cfg)
	b, _ := Generate(cfg)

	if len(a) != 50 || len(targets) != 3 {
		t.Fatalf("Expected 50 tickets and 3 targets, got %d and %d", len(a), len(targets))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("Expected identical output for the same seed at %d: %+v vs %+v", i, a[i], b[i])
		}
		if a[i].AgingDays < 0 {
			t.Errorf("Expected non-negative aging, got %v", a[i].AgingDays)
		}
		if a[i].OpenedAt.After(cfg.Now) || a[i].OpenedAt.Before(cfg.Now.AddDate(0, -12, 0)) {
			t.Errorf("Ticket %s opened outside the window: %v", a[i].ID, a[i].OpenedAt)
		}
	}
}

func TestGenerate_ZeroNowUsesFixedAnchor(t *testing.T) {
	a, _ := Generate(GeneratorConfig{Count: 20, Seed: 3})
	b, _ := Generate(GeneratorConfig{Count: 20, Seed: 3, Now: DefaultAnchor})

	if len(a) != 20 || len(b) != 20 {
		t.Fatalf("Expected 20 tickets each, got %d and %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("Expected a zero Now to behave like DefaultAnchor at %d: %+v vs %+v", i, a[i], b[i])
		}
		if a[i].OpenedAt.After(DefaultAnchor) {
			t.Errorf("Ticket %s opened after the anchor: %v", a[i].ID, a[i].OpenedAt)
		}
	}
}

func TestGenerate_NegativeCount(t *testing.T) {
	tickets, targets := Generate(GeneratorConfig{Count: -5, Seed: 1})
	if len(tickets) != 0 {
		t.Errorf("Expected no tickets for a negative count, got %d", len(tickets))
	}
	if len(targets) != 3 {
		t.Errorf("Expected targets for every contract, got %d", len(targets))
	}
}

func TestSave_LoadsBack(t *testing.T) {
	dir := t.TempDir()
	tickets, targets := Generate(GeneratorConfig{Scenario: "drift", Count: 30, Seed: 3})
	if err := Save(dir, tickets, targets); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	ds, err := ingest.Load(context.Background(), ingest.Sources{
		AgingPath:   filepath.Join(dir, "aging.csv"),
		OTDPath:     filepath.Join(dir, "otd.csv"),
		TargetsPath: filepath.Join(dir, "targets.yaml"),
	})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(ds.Aging) != 30 || len(ds.OTD) != 30 || len(ds.Targets) != 3 {
		t.Errorf("Expected 30/30/3, got %d/%d/%d", len(ds.Aging), len(ds.OTD), len(ds.Targets))
	}
}
