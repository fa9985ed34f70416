package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"

	"ticket-kpi/internal/config"
	"ticket-kpi/internal/ingest"
	"ticket-kpi/internal/metrics"
	"ticket-kpi/internal/report"
	"ticket-kpi/internal/snapshot"
)

// Server exposes the dashboard views as MCP tools.
type Server struct {
	store   *snapshot.Store
	engine  *report.Engine
	metrics *metrics.Manager
	charts  bool
	version string
}

// NewServer creates a new MCP server over an already configured snapshot store.
// m may be nil.
func NewServer(cfg *config.AppConfig, store *snapshot.Store, m *metrics.Manager, version string) *Server {
	return &Server{
		store:   store,
		engine:  report.New(cfg.Report),
		metrics: m,
		charts:  cfg.EnableMermaidCharts,
		version: version,
	}
}

// Start serves MCP over stdio until the client disconnects or ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	log.Info().Msg("MCP Server starting Stdio loop")
	if err := s.build().Run(ctx, &mcpsdk.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("mcp server stopped: %w", err)
	}
	return nil
}

func (s *Server) build() *mcpsdk.Server {
	server := mcpsdk.NewServer(&mcpsdk.Implementation{Name: "ticket-kpi", Version: s.version}, nil)
	s.registerTools(server)
	return server
}

// addTool registers h and counts every call it serves.
func addTool[In, Out any](s *Server, server *mcpsdk.Server, tool *mcpsdk.Tool, h mcpsdk.ToolHandlerFor[In, Out]) {
	mcpsdk.AddTool(server, tool, func(ctx context.Context, req *mcpsdk.CallToolRequest, in In) (*mcpsdk.CallToolResult, Out, error) {
		res, out, err := h(ctx, req, in)
		s.metrics.ObserveTool(tool.Name, err)
		if err != nil {
			log.Warn().Err(err).Str("tool", tool.Name).Msg("Tool call failed")
		}
		return res, out, err
	})
}

// dataset returns the current snapshot or a tool-level error explaining why there is none.
func (s *Server) dataset() (*ingest.Dataset, error) {
	ds, _, err := s.store.Current()
	if err != nil {
		return nil, fmt.Errorf("%w: check AGING_SOURCE / OTD_SOURCE and call reload_sources", err)
	}
	return ds, nil
}

// withCharts returns nil (letting the SDK render out as JSON) unless charts are enabled, in
// which case the JSON is followed by one text block per non-empty chart.
func (s *Server) withCharts(out any, charts ...string) (*mcpsdk.CallToolResult, error) {
	if !s.charts {
		return nil, nil
	}
	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	res := &mcpsdk.CallToolResult{
		Content:           []mcpsdk.Content{&mcpsdk.TextContent{Text: string(data)}},
		StructuredContent: out,
	}
	for _, c := range charts {
		if c != "" {
			res.Content = append(res.Content, &mcpsdk.TextContent{Text: c})
		}
	}
	return res, nil
}
