package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ticket-kpi/internal/ingest"
	"ticket-kpi/internal/ticket"
)

func scrape(t *testing.T, m *Manager) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatalf("Failed to read metrics: %v", err)
	}
	return string(body)
}

func TestObserveReload(t *testing.T) {
	m := NewManager()
	ds := &ingest.Dataset{
		Quality: []ingest.SourceQuality{{
			Name:        "aging",
			Diagnostics: ticket.Diagnostics{Read: 10, Kept: 8, Dropped: map[ticket.DropReason]int{ticket.DropIgnored: 2}},
		}},
		LoadedAt: time.Unix(1700000000, 0),
	}

	m.ObserveReload(ds, 50*time.Millisecond, nil)
	m.ObserveReload(nil, time.Millisecond, errors.New("boom"))

	body := scrape(t, m)
	for _, want := range []string{
		`ticket_kpi_snapshot_reloads_total{result="ok"} 1`,
		`ticket_kpi_snapshot_reloads_total{result="error"} 1`,
		`ticket_kpi_snapshot_tickets{source="aging"} 8`,
		`ticket_kpi_snapshot_rows_dropped{reason="ignored",source="aging"} 2`,
		`ticket_kpi_snapshot_reload_duration_seconds_count 2`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("Expected %q in scrape output", want)
		}
	}
}

func TestObserveToolAndRequest(t *testing.T) {
	m := NewManager(WithNamespace("test"))

	m.ObserveTool("get_otd", nil)
	m.ObserveTool("get_otd", errors.New("bad"))
	m.ObserveRequest("/api/v1/otd", "GET", 200, 10*time.Millisecond)

	body := scrape(t, m)
	for _, want := range []string{
		`test_mcp_tool_calls_total{result="ok",tool="get_otd"} 1`,
		`test_mcp_tool_calls_total{result="error",tool="get_otd"} 1`,
		`test_http_requests_total{method="GET",route="/api/v1/otd",status_code="200"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("Expected %q in scrape output", want)
		}
	}
}

func TestNilManager(t *testing.T) {
	var m *Manager
	m.ObserveReload(nil, 0, nil)
	m.ObserveTool("x", nil)
	m.ObserveRequest("/", "GET", 200, 0)
}
