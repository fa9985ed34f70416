package snapshot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"ticket-kpi/internal/ingest"
	"ticket-kpi/internal/metrics"
)

// ErrNotLoaded is returned by Current before the first successful load.
var ErrNotLoaded = errors.New("no snapshot loaded")

// LoadFunc produces a complete dataset from the configured sources.
type LoadFunc func(ctx context.Context) (*ingest.Dataset, error)

// Store holds the current immutable dataset. Readers always see a complete snapshot; a reload
// swaps the pointer in one step.
type Store struct {
	mu      sync.RWMutex
	current *ingest.Dataset
	version int
	load    LoadFunc
	metrics *metrics.Manager
	sf      singleflight.Group
}

// Option configures a Store.
type Option func(*Store)

// WithMetrics reports every reload attempt to m.
func WithMetrics(m *metrics.Manager) Option {
	return func(s *Store) { s.metrics = m }
}

// NewStore creates an empty store backed by load.
func NewStore(load LoadFunc, opts ...Option) *Store {
	s := &Store{load: load}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Current returns the active dataset and its version.
func (s *Store) Current() (*ingest.Dataset, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return nil, 0, ErrNotLoaded
	}
	return s.current, s.version, nil
}

// Reload runs a full load and swaps it in. On failure the previous snapshot stays active.
// Concurrent callers share one in-flight load.
func (s *Store) Reload(ctx context.Context) error {
	_, err, shared := s.sf.Do("reload", func() (any, error) {
		return nil, s.reload(ctx)
	})
	if shared {
		log.Debug().Msg("Joined in-flight reload")
	}
	return err
}

func (s *Store) reload(ctx context.Context) error {
	start := time.Now()
	ds, err := s.load(ctx)
	s.metrics.ObserveReload(ds, time.Since(start), err)
	if err != nil {
		return fmt.Errorf("reload failed: %w", err)
	}

	s.mu.Lock()
	s.current = ds
	s.version++
	version := s.version
	s.mu.Unlock()

	log.Info().Int("version", version).Str("load_id", ds.LoadID).Msg("Snapshot swapped")
	return nil
}
