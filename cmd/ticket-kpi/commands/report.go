package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"ticket-kpi/internal/ingest"
	"ticket-kpi/internal/report"
)

var query queryFlags

type queryFlags struct {
	year       int
	month      int
	statuses   []string
	services   []string
	specialist string
	provider   string
	contract   string
}

func (f queryFlags) query(ds *ingest.Dataset) report.Query {
	year := f.year
	if year == 0 {
		year = report.LatestYear(ds)
	}
	return report.Query{
		Year:       year,
		Month:      f.month,
		Statuses:   f.statuses,
		Services:   f.services,
		Specialist: f.specialist,
		Provider:   f.provider,
		Contract:   f.contract,
	}
}

type viewFunc func(e *report.Engine, ds *ingest.Dataset, q report.Query) (any, error)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print one dashboard view as JSON",
}

func viewCommand(use, short string, build viewFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := loadOnce(cmd.Context())
			if err != nil {
				return err
			}
			view, err := build(report.New(cfg.Report), ds, query.query(ds))
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), view)
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode view: %w", err)
	}
	return nil
}

var optionsCmd = &cobra.Command{
	Use:   "options",
	Short: "Print the available filter values per source",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := loadOnce(cmd.Context())
		if err != nil {
			return err
		}
		e := report.New(cfg.Report)
		return writeJSON(cmd.OutOrStdout(), struct {
			Options report.Options `json:"options"`
			Quality report.Quality `json:"quality"`
		}{e.FilterOptions(ds), e.DataQuality(ds)})
	},
}

func init() {
	reportCmd.AddCommand(
		viewCommand("aging-annual", "Year-to-date aging view", func(e *report.Engine, ds *ingest.Dataset, q report.Query) (any, error) {
			return e.AgingAnnual(ds, q)
		}),
		viewCommand("aging-monthly", "Single-month aging view (requires --month)", func(e *report.Engine, ds *ingest.Dataset, q report.Query) (any, error) {
			return e.AgingMonthly(ds, q)
		}),
		viewCommand("provider-trend", "Monthly aging trend of one provider (requires --provider)", func(e *report.Engine, ds *ingest.Dataset, q report.Query) (any, error) {
			return e.ProviderTrend(ds, q)
		}),
		viewCommand("otd", "On-time delivery view", func(e *report.Engine, ds *ingest.Dataset, q report.Query) (any, error) {
			return e.OTD(ds, q)
		}),
	)

	flags := reportCmd.PersistentFlags()
	flags.IntVar(&query.year, "year", 0, "year to report on (default: newest year in the data)")
	flags.IntVar(&query.month, "month", 0, "month 1-12")
	flags.StringSliceVar(&query.statuses, "statuses", nil, "statuses to include (default: all; an explicit empty value selects none)")
	flags.StringSliceVar(&query.services, "services", nil, "service types to include (default: all; an explicit empty value selects none)")
	flags.StringVar(&query.specialist, "specialist", "", "specialist id")
	flags.StringVar(&query.provider, "provider", "", "provider id")
	flags.StringVar(&query.contract, "contract", "", "contract id")

	rootCmd.AddCommand(reportCmd, optionsCmd)
}
