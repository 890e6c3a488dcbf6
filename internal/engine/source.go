package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/cinemad/internal/ir"
)

// SourceInfo is the metadata a Loader receives. URI is already resolved
// against the Database directory.
type SourceInfo struct {
	ID    string `json:"id"`
	URI   string `json:"uri"`
	Table string `json:"table,omitempty"`
	Mime  string `json:"mime"`
}

// Loader populates a Source. It returns a fresh ordered record sequence;
// an error means the Source resolves to empty data.
type Loader interface {
	Load(ctx context.Context, info SourceInfo) ([]*ir.Record, error)
}

// LoaderFunc adapts a plain function to the Loader interface.
type LoaderFunc func(ctx context.Context, info SourceInfo) ([]*ir.Record, error)

// Load implements Loader.
func (f LoaderFunc) Load(ctx context.Context, info SourceInfo) ([]*ir.Record, error) {
	return f(ctx, info)
}

// Source owns one ordered collection of records.
//
// Data is shared by reference with every Structure that reads it and
// must be treated as immutable between loads. Overlapping loads are not
// coordinated: whichever finishes last wins.
type Source struct {
	info SourceInfo

	mu         sync.RWMutex
	data       []*ir.Record
	loader     Loader
	generation int64

	clock    *Clock
	logger   *slog.Logger
	observer Observer
}

// NewSource creates a Source with empty data and no loader.
func NewSource(info SourceInfo, opts ...Option) *Source {
	cfg := newConfig(opts)
	return newSource(info, cfg, NewClock())
}

func newSource(info SourceInfo, cfg *config, clock *Clock) *Source {
	return &Source{
		info:     info,
		data:     []*ir.Record{},
		loader:   cfg.loader,
		clock:    clock,
		logger:   cfg.logger,
		observer: cfg.observer,
	}
}

// ID returns the source key from the specification.
func (s *Source) ID() string { return s.info.ID }

// Info returns the loader metadata.
func (s *Source) Info() SourceInfo { return s.info }

// Data returns the current record sequence. The slice must not be modified.
func (s *Source) Data() []*ir.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data
}

// Generation returns the clock value stamped by the most recent completed
// load, or 0 if the Source has never been loaded.
func (s *Source) Generation() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// Loader returns the assigned loader, or nil.
func (s *Source) Loader() Loader {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loader
}

// SetLoader assigns the loader, replacing any previous one.
func (s *Source) SetLoader(l Loader) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loader = l
}

// Load populates Data using override if non-nil, else the assigned
// loader. It blocks until the loader returns; returning is the
// completion. Without any loader, Data is left untouched. A loader error
// is logged and leaves Data empty.
func (s *Source) Load(ctx context.Context, override Loader) {
	loader := override
	if loader == nil {
		loader = s.Loader()
	}
	if loader == nil {
		s.logger.Warn("no loader configured", "source", s.info.ID)
		s.observer.SourceLoaded(s.info.ID, len(s.Data()), 0, ErrNoLoader)
		return
	}

	start := time.Now()
	records, err := loader.Load(ctx, s.info)
	elapsed := time.Since(start)
	if err != nil {
		s.logger.Warn("source load failed",
			"source", s.info.ID,
			"uri", s.info.URI,
			"mime", s.info.Mime,
			"error", err,
		)
		records = nil
	}
	if records == nil {
		records = []*ir.Record{}
	}

	s.mu.Lock()
	s.data = records
	s.generation = s.clock.Next()
	gen := s.generation
	s.mu.Unlock()

	s.logger.Debug("source loaded",
		"source", s.info.ID,
		"records", len(records),
		"generation", gen,
		"elapsed", elapsed,
	)
	s.observer.SourceLoaded(s.info.ID, len(records), elapsed, err)
}

// LoadAsync runs Load on a new goroutine. The returned channel is closed
// exactly once, after Data has been written.
func (s *Source) LoadAsync(ctx context.Context, override Loader) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Load(ctx, override)
	}()
	return done
}
