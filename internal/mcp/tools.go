package mcp

import (
	"context"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"

	"ticket-kpi/internal/ingest"
	"ticket-kpi/internal/report"
	"ticket-kpi/internal/visuals"
)

// QueryInput is the filter shared by the report tools.
type QueryInput struct {
	Year       int      `json:"year,omitempty" jsonschema:"Year to report on, e.g. 2025. Defaults to the newest year in the data."`
	Month      int      `json:"month,omitempty" jsonschema:"Month 1-12. Annual aging: last month included (default December). Monthly aging: required. OTD: optional single month."`
	Statuses   []string `json:"statuses,omitempty" jsonschema:"Ticket statuses to include. Omit for every status; an empty list selects none."`
	Services   []string `json:"services,omitempty" jsonschema:"Service types to include. Omit for every service type; an empty list selects none."`
	Specialist string   `json:"specialist,omitempty" jsonschema:"Specialist (EC) id. Empty means all."`
	Provider   string   `json:"provider,omitempty" jsonschema:"Authorized provider id. Empty means all."`
	Contract   string   `json:"contract,omitempty" jsonschema:"Contract id. Empty means all."`
}

func (in QueryInput) query(ds *ingest.Dataset) report.Query {
	year := in.Year
	if year == 0 {
		year = report.LatestYear(ds)
	}
	return report.Query{
		Year:       year,
		Month:      in.Month,
		Statuses:   in.Statuses,
		Services:   in.Services,
		Specialist: in.Specialist,
		Provider:   in.Provider,
		Contract:   in.Contract,
	}
}

// EmptyInput is used by tools that take no arguments.
type EmptyInput struct{}

// QualityOutput is the data quality report.
type QualityOutput struct {
	LoadedAt string                 `json:"loaded_at"`
	Version  int                    `json:"version"`
	Sources  []ingest.SourceQuality `json:"sources"`
	Targets  int                    `json:"targets"`
}

// ReloadOutput summarises a reload.
type ReloadOutput struct {
	Version  int    `json:"version"`
	LoadedAt string `json:"loaded_at"`
	Aging    int    `json:"aging_tickets"`
	OTD      int    `json:"otd_tickets"`
	Targets  int    `json:"targets"`
}

func (s *Server) registerTools(server *mcpsdk.Server) {
	addTool(s, server, &mcpsdk.Tool{
		Name: "get_aging_annual",
		Description: "Year-to-date Aging dashboard: mean and max aging in days, monthly mean series against the aging goal, " +
			"mean per specialist, and provider performance (% within goal, best and worst providers by mean aging). " +
			"Aging is the upstream precomputed field; lower is better.",
	}, s.handleAgingAnnual)

	addTool(s, server, &mcpsdk.Tool{
		Name: "get_aging_monthly",
		Description: "Single-month Aging dashboard: mean and max aging, mean per specialist, provider performance and " +
			"the providers above the aging goal sorted worst first. 'month' is required.",
	}, s.handleAgingMonthly)

	addTool(s, server, &mcpsdk.Tool{
		Name:        "get_provider_trend",
		Description: "Monthly mean aging for one provider within a year, rounded to one decimal. 'provider' is required.",
	}, s.handleProviderTrend)

	addTool(s, server, &mcpsdk.Tool{
		Name: "get_otd",
		Description: "On-Time-Delivery dashboard: OTD % (on-time tickets / all tickets), totals, monthly OTD per contract " +
			"compared with each contract's target, a monthly evolution (mean of the contract rates per month) and providers ranked worst first. " +
			"The headline target is reported only when a single contract is selected.",
	}, s.handleOTD)

	addTool(s, server, &mcpsdk.Tool{
		Name:        "list_filter_options",
		Description: "Distinct years, months, statuses, service types, specialists, providers and contracts per source. Call this first to learn valid filter values.",
	}, s.handleFilterOptions)

	addTool(s, server, &mcpsdk.Tool{
		Name:        "get_data_quality",
		Description: "Rows read, kept and dropped per reason for each loaded source, plus the number of contract targets.",
	}, s.handleDataQuality)

	addTool(s, server, &mcpsdk.Tool{
		Name:        "reload_sources",
		Description: "Re-read every configured source file and swap in the new snapshot. On failure the previous snapshot stays active.",
	}, s.handleReload)
}

func (s *Server) handleAgingAnnual(ctx context.Context, req *mcpsdk.CallToolRequest, in QueryInput) (*mcpsdk.CallToolResult, report.AgingAnnualView, error) {
	ds, err := s.dataset()
	if err != nil {
		return nil, report.AgingAnnualView{}, err
	}
	view, err := s.engine.AgingAnnual(ds, in.query(ds))
	if err != nil {
		return nil, report.AgingAnnualView{}, err
	}
	log.Debug().Str("period", view.Period).Int("tickets", view.Headline.Tickets).Msg("Aging annual view served")

	res, err := s.withCharts(view,
		visuals.GenerateAgingSeriesChart("Aging Médio Mensal", view.Monthly, view.Goal),
		visuals.GenerateLeaderboardChart("Piores Mantenedores (Aging Médio)", "Aging (dias)", view.Providers.Worst),
	)
	return res, *view, err
}

func (s *Server) handleAgingMonthly(ctx context.Context, req *mcpsdk.CallToolRequest, in QueryInput) (*mcpsdk.CallToolResult, report.AgingMonthlyView, error) {
	ds, err := s.dataset()
	if err != nil {
		return nil, report.AgingMonthlyView{}, err
	}
	view, err := s.engine.AgingMonthly(ds, in.query(ds))
	if err != nil {
		return nil, report.AgingMonthlyView{}, err
	}

	res, err := s.withCharts(view,
		visuals.GenerateLeaderboardChart("Mantenedores Acima da Meta", "Aging (dias)", view.AboveGoal),
	)
	return res, *view, err
}

func (s *Server) handleProviderTrend(ctx context.Context, req *mcpsdk.CallToolRequest, in QueryInput) (*mcpsdk.CallToolResult, report.ProviderTrendView, error) {
	ds, err := s.dataset()
	if err != nil {
		return nil, report.ProviderTrendView{}, err
	}
	view, err := s.engine.ProviderTrend(ds, in.query(ds))
	if err != nil {
		return nil, report.ProviderTrendView{}, err
	}

	res, err := s.withCharts(view,
		visuals.GenerateAgingSeriesChart("Evolução Mensal "+view.Provider, view.Points, view.Goal),
	)
	return res, *view, err
}

func (s *Server) handleOTD(ctx context.Context, req *mcpsdk.CallToolRequest, in QueryInput) (*mcpsdk.CallToolResult, report.OTDView, error) {
	ds, err := s.dataset()
	if err != nil {
		return nil, report.OTDView{}, err
	}
	view, err := s.engine.OTD(ds, in.query(ds))
	if err != nil {
		return nil, report.OTDView{}, err
	}

	res, err := s.withCharts(view, visuals.GenerateOTDChart(view.Monthly))
	return res, *view, err
}

func (s *Server) handleFilterOptions(ctx context.Context, req *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, report.Options, error) {
	ds, err := s.dataset()
	if err != nil {
		return nil, report.Options{}, err
	}
	return nil, s.engine.FilterOptions(ds), nil
}

func (s *Server) handleDataQuality(ctx context.Context, req *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, QualityOutput, error) {
	ds, version, err := s.store.Current()
	if err != nil {
		return nil, QualityOutput{}, err
	}
	q := s.engine.DataQuality(ds)
	return nil, QualityOutput{
		LoadedAt: q.LoadedAt.Format(time.RFC3339),
		Version:  version,
		Sources:  q.Sources,
		Targets:  q.Targets,
	}, nil
}

func (s *Server) handleReload(ctx context.Context, req *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, ReloadOutput, error) {
	if err := s.store.Reload(ctx); err != nil {
		log.Error().Err(err).Msg("Reload requested by client failed")
		return nil, ReloadOutput{}, err
	}
	ds, version, err := s.store.Current()
	if err != nil {
		return nil, ReloadOutput{}, err
	}
	return nil, ReloadOutput{
		Version:  version,
		LoadedAt: ds.LoadedAt.Format(time.RFC3339),
		Aging:    len(ds.Aging),
		OTD:      len(ds.OTD),
		Targets:  len(ds.Targets),
	}, nil
}
