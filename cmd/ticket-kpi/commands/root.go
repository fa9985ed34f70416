package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"ticket-kpi/internal/config"
	"ticket-kpi/internal/httpapi"
	"ticket-kpi/internal/ingest"
	"ticket-kpi/internal/logging"
	"ticket-kpi/internal/mcp"
	"ticket-kpi/internal/metrics"
	"ticket-kpi/internal/snapshot"
)

var (
	// Version, Commit, and BuildDate are set at build time via ldflags.
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"

	verbose bool
	cfg     *config.AppConfig
)

var rootCmd = &cobra.Command{
	Use:   "ticket-kpi",
	Short: "ticket-kpi is an MCP Server for service-ticket Aging and OTD indicators",
	Long: `A specialized MCP Server that loads service-ticket spreadsheets (CSV or XLSX) and reports
Aging and On-Time-Delivery indicators per period, specialist, provider and contract.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init(verbose)

		var err error
		cfg, err = config.Load()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load configuration")
		}

		log.Info().
			Str("version", Version).
			Str("commit", Commit).
			Str("buildDate", BuildDate).
			Msg("ticket-kpi starting")
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context(), true)
	},
}

var httpCmd = &cobra.Command{
	Use:   "http",
	Short: "Serve only the HTTP JSON API and /metrics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.HTTPAddr == "" {
			cfg.HTTPAddr = httpAddr
		}
		return serve(cmd.Context(), false)
	},
}

var httpAddr string

// serve loads the initial snapshot and runs the MCP stdio server (when withMCP), the HTTP API
// (when HTTP_ADDR is set) and the source watcher (when WATCH_SOURCES is on) until one of them
// stops or a signal arrives.
func serve(parent context.Context, withMCP bool) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.NewManager()
	store := newStore(cfg.Sources, snapshot.WithMetrics(m))
	if err := store.Reload(ctx); err != nil {
		log.Fatal().Err(err).Msg("Initial load failed")
	}

	g, ctx := errgroup.WithContext(ctx)

	if cfg.WatchSources {
		g.Go(func() error {
			if err := store.Watch(ctx, cfg.Sources.Paths(), snapshot.DefaultSettle); err != nil {
				log.Error().Err(err).Msg("Source watcher stopped")
			}
			return nil
		})
	}

	if cfg.HTTPAddr != "" {
		g.Go(func() error {
			return httpapi.NewServer(store, cfg.Report, m, Version).Listen(ctx, cfg.HTTPAddr)
		})
	}

	if withMCP {
		g.Go(func() error {
			// The client closing stdin ends the whole process.
			defer stop()
			return mcp.NewServer(cfg, store, m, Version).Start(ctx)
		})
	}

	return g.Wait()
}

func newStore(src ingest.Sources, opts ...snapshot.Option) *snapshot.Store {
	return snapshot.NewStore(func(ctx context.Context) (*ingest.Dataset, error) {
		return ingest.Load(ctx, src)
	}, opts...)
}

// loadOnce reads the configured sources for one-shot commands.
func loadOnce(ctx context.Context) (*ingest.Dataset, error) {
	store := newStore(cfg.Sources)
	if err := store.Reload(ctx); err != nil {
		return nil, err
	}
	ds, _, err := store.Current()
	return ds, err
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	httpCmd.Flags().StringVar(&httpAddr, "addr", ":8080", "listen address when HTTP_ADDR is not set")
	rootCmd.AddCommand(httpCmd)
}
