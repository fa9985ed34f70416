package engine

import (
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"ticket-kpi/internal/ingest"
	"ticket-kpi/internal/stats"
	"ticket-kpi/internal/ticket"
)

type GeneratorConfig struct {
	Scenario  string // "mild", "chaos" or "drift"
	Count     int
	Months    int
	Providers int
	Now       time.Time
	Seed      int64
}

// DefaultAnchor is the last instant of generated history when GeneratorConfig.Now is zero.
var DefaultAnchor = time.Date(2025, time.December, 31, 0, 0, 0, 0, time.UTC)

var (
	services    = []string{"CORRETIVA", "PREVENTIVA", "INSTALACAO"}
	specialists = []string{"EC01", "EC02", "EC03", "EC04"}
	contracts   = []string{"C100", "C200", "C300"}
)

// Generate builds a reproducible ticket set spread over the last cfg.Months months.
// Each provider gets its own aging scale so leaderboards are not flat.
func Generate(cfg GeneratorConfig) ([]ticket.Ticket, []stats.Target) {
	if cfg.Now.IsZero() {
		cfg.Now = DefaultAnchor
	}
	if cfg.Count < 0 {
		cfg.Count = 0
	}
	if cfg.Months <= 0 {
		cfg.Months = 12
	}
	if cfg.Providers <= 0 {
		cfg.Providers = 6
	}
	rng := rand.New(rand.NewSource(cfg.Seed))

	start := cfg.Now.AddDate(0, -cfg.Months, 0)
	span := cfg.Now.Sub(start)

	tickets := make([]ticket.Ticket, 0, cfg.Count)
	for i := 0; i < cfg.Count; i++ {
		opened := start.Add(time.Duration(rng.Int63n(int64(span)))).Truncate(time.Minute)
		provider := rng.Intn(cfg.Providers)

		k, lambda := 2.5, 1.0+float64(provider)*0.6
		switch cfg.Scenario {
		case "chaos":
			k = 0.8
		case "drift":
			ratio := opened.Sub(start).Hours() / span.Hours()
			lambda *= 1 + ratio
		}
		aging := math.Round(weibullSample(rng, k, lambda)*100) / 100

		status := "NO PRAZO"
		switch r := rng.Float64(); {
		case r < 0.08:
			status = "EM ANDAMENTO"
		case aging > 2 || r > 0.9:
			status = "ATRASO"
		}

		tickets = append(tickets, ticket.Ticket{
			ID:           fmt.Sprintf("SA-%05d", i+1),
			OpenedAt:     opened,
			Year:         opened.Year(),
			Month:        int(opened.Month()),
			Status:       status,
			ServiceType:  services[rng.Intn(len(services))],
			SpecialistID: specialists[rng.Intn(len(specialists))],
			ProviderID:   fmt.Sprintf("P%02d", provider+1),
			ContractID:   contracts[rng.Intn(len(contracts))],
			AgingDays:    aging,
		})
	}

	targets := make([]stats.Target, len(contracts))
	for i, c := range contracts {
		targets[i] = stats.Target{ContractID: c, OTDPercent: float64(85 + 5*i)}
	}
	return tickets, targets
}

func weibullSample(rng *rand.Rand, k, lambda float64) float64 {
	u := rng.Float64()
	if u == 0 {
		u = 0.0001
	}
	// X = lambda * (-ln(1-u))^(1/k)
	return lambda * math.Pow(-math.Log(1.0-u), 1.0/k)
}

// Save writes aging.csv, otd.csv and targets.yaml to outDir.
func Save(outDir string, tickets []ticket.Ticket, targets []stats.Target) error {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return err
	}

	for _, name := range []string{"aging.csv", "otd.csv"} {
		if err := writeFile(filepath.Join(outDir, name), func(f *os.File) error {
			return ingest.WriteCSV(f, tickets)
		}); err != nil {
			return err
		}
	}

	return writeFile(filepath.Join(outDir, "targets.yaml"), func(f *os.File) error {
		return ingest.WriteTargets(f, targets)
	})
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
