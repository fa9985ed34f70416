package snapshot

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"ticket-kpi/internal/ingest"
	"ticket-kpi/internal/metrics"
	"ticket-kpi/internal/ticket"
)

func TestStore_ReloadSwapsSnapshot(t *testing.T) {
	var calls atomic.Int32
	store := NewStore(func(ctx context.Context) (*ingest.Dataset, error) {
		n := calls.Add(1)
		return &ingest.Dataset{Aging: make([]ticket.Ticket, n)}, nil
	})

	if _, _, err := store.Current(); !errors.Is(err, ErrNotLoaded) {
		t.Fatalf("Expected ErrNotLoaded before the first load, got %v", err)
	}

	for want := 1; want <= 2; want++ {
		if err := store.Reload(context.Background()); err != nil {
			t.Fatalf("Reload failed: %v", err)
		}
		ds, version, err := store.Current()
		if err != nil {
			t.Fatalf("Current failed: %v", err)
		}
		if version != want || len(ds.Aging) != want {
			t.Errorf("Expected version %d with %d tickets, got %d with %d", want, want, version, len(ds.Aging))
		}
	}
}

func TestStore_FailedReloadKeepsPrevious(t *testing.T) {
	fail := false
	store := NewStore(func(ctx context.Context) (*ingest.Dataset, error) {
		if fail {
			return nil, ingest.ErrSourceNotFound
		}
		return &ingest.Dataset{Aging: make([]ticket.Ticket, 3)}, nil
	})

	if err := store.Reload(context.Background()); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	fail = true
	if err := store.Reload(context.Background()); !errors.Is(err, ingest.ErrSourceNotFound) {
		t.Errorf("Expected wrapped ErrSourceNotFound, got %v", err)
	}

	ds, version, err := store.Current()
	if err != nil || version != 1 || len(ds.Aging) != 3 {
		t.Errorf("Expected the first snapshot to stay active, got version %d (%v)", version, err)
	}
}

func TestStore_ConcurrentReloadsShareOneLoad(t *testing.T) {
	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	store := NewStore(func(ctx context.Context) (*ingest.Dataset, error) {
		if calls.Add(1) == 1 {
			close(started)
		}
		<-release
		return &ingest.Dataset{}, nil
	})

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	wg.Add(1)
	go func() {
		defer wg.Done()
		errs <- store.Reload(context.Background())
	}()
	<-started
	wg.Add(1)
	go func() {
		defer wg.Done()
		errs <- store.Reload(context.Background())
	}()
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("Reload failed: %v", err)
		}
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("Expected one shared load, got %d", n)
	}
	if _, version, _ := store.Current(); version != 1 {
		t.Errorf("Expected version 1, got %d", version)
	}
}

func TestStore_ReportsReloadMetrics(t *testing.T) {
	m := metrics.NewManager()
	store := NewStore(func(ctx context.Context) (*ingest.Dataset, error) {
		return &ingest.Dataset{LoadedAt: time.Now()}, nil
	}, WithMetrics(m))

	if err := store.Reload(context.Background()); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `ticket_kpi_snapshot_reloads_total{result="ok"} 1`) {
		t.Errorf("Expected a successful reload to be counted, got:\n%s", body)
	}
}

func TestStore_WatchReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "aging.csv")
	if err := os.WriteFile(path, []byte("v1"), 0644); err != nil {
		t.Fatalf("Failed to write source: %v", err)
	}

	reloaded := make(chan struct{}, 8)
	store := NewStore(func(ctx context.Context) (*ingest.Dataset, error) {
		reloaded <- struct{}{}
		return &ingest.Dataset{}, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- store.Watch(ctx, []string{path}, 20*time.Millisecond) }()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte("v2"), 0644); err != nil {
		t.Fatalf("Failed to rewrite source: %v", err)
	}

	select {
	case <-reloaded:
	case <-time.After(5 * time.Second):
		t.Fatal("Expected a reload after the source changed")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Expected Watch to stop cleanly, got %v", err)
	}
}
