package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"ticket-kpi/internal/ingest"
	"ticket-kpi/internal/ticket"
)

var (
	exportSource string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the normalized tickets of one source as CSV",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := loadOnce(cmd.Context())
		if err != nil {
			return err
		}
		if !ds.HasSource(exportSource) {
			return fmt.Errorf("source %q is not configured", exportSource)
		}
		records := ds.Aging
		if exportSource == "otd" {
			records = ds.OTD
		}

		if exportOut == "" {
			err = ingest.WriteCSV(cmd.OutOrStdout(), records)
		} else {
			err = exportTo(func() (io.WriteCloser, error) { return os.Create(exportOut) }, exportOut, records)
		}
		if err != nil {
			return err
		}
		log.Info().Str("source", exportSource).Int("tickets", len(records)).Msg("Export complete")
		return nil
	},
}

// exportTo writes records through the opened file. A failed close is reported.
func exportTo(open func() (io.WriteCloser, error), name string, records []ticket.Ticket) error {
	f, err := open()
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}
	if err := ingest.WriteCSV(f, records); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", name, err)
	}
	return nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "ticket-kpi %s (commit %s, built %s)\n", Version, Commit, BuildDate)
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportSource, "source", "aging", "source to export: aging or otd")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (default: stdout)")
	rootCmd.AddCommand(exportCmd, versionCmd)
}
