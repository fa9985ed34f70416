package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"ticket-kpi/cmd/mockgen/engine"
)

func main() {
	scenario := flag.String("scenario", "mild", "Scenario to generate: mild, chaos, drift")
	outDir := flag.String("out", "./data", "Output directory for sample files")
	count := flag.Int("count", 500, "Number of tickets to generate")
	months := flag.Int("months", 12, "Months of history to spread tickets over")
	seed := flag.Int64("seed", 1, "Random seed")
	nowFlag := flag.String("now", engine.DefaultAnchor.Format(time.DateOnly), "End of the generated history (YYYY-MM-DD)")
	flag.Parse()

	if *count < 0 {
		fmt.Printf("Invalid -count %d: must not be negative\n", *count)
		os.Exit(2)
	}
	now, err := time.Parse(time.DateOnly, *nowFlag)
	if err != nil {
		fmt.Printf("Invalid -now %q: %v\n", *nowFlag, err)
		os.Exit(2)
	}

	cfg := engine.GeneratorConfig{
		Scenario: *scenario,
		Count:    *count,
		Months:   *months,
		Now:      now,
		Seed:     *seed,
	}

	fmt.Printf("Generating scenario '%s' (Count: %d, Months: %d, Seed: %d) to %s...\n", cfg.Scenario, cfg.Count, cfg.Months, cfg.Seed, *outDir)

	tickets, targets := engine.Generate(cfg)

	if err := engine.Save(*outDir, tickets, targets); err != nil {
		fmt.Printf("Failed to save sample data: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Done. Point AGING_SOURCE=aging.csv, OTD_SOURCE=otd.csv and OTD_TARGETS=targets.yaml at this directory.")
}
