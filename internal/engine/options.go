package engine

import (
	"io"
	"log/slog"

	"github.com/roach88/cinemad/internal/fetch"
)

// Option configures a Database (and the Sources and Displays it builds).
type Option func(*config)

type config struct {
	logger   *slog.Logger
	fetcher  fetch.Fetcher
	loader   Loader
	builders []Builder
	tokens   TokenGenerator
	observer Observer
}

func newConfig(opts []Option) *config {
	cfg := &config{
		logger:   slog.Default(),
		tokens:   UUIDv7Generator{},
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// WithLogger sets the logger used for diagnostics.
// A nil logger discards output.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l == nil {
			l = slog.New(slog.NewTextHandler(io.Discard, nil))
		}
		c.logger = l
	}
}

// WithFetcher sets the transport used by Open to fetch the specification.
func WithFetcher(f fetch.Fetcher) Option {
	return func(c *config) {
		c.fetcher = f
	}
}

// WithLoader assigns a default loader to every Source.
func WithLoader(l Loader) Option {
	return func(c *config) {
		c.loader = l
	}
}

// WithBuilders registers builders on every Structure, in order.
func WithBuilders(builders ...Builder) Option {
	return func(c *config) {
		c.builders = append(c.builders, builders...)
	}
}

// WithTokenGenerator sets the activation token generator.
// Default: UUIDv7Generator.
func WithTokenGenerator(g TokenGenerator) Option {
	return func(c *config) {
		if g != nil {
			c.tokens = g
		}
	}
}

// WithObserver sets the metrics observer.
func WithObserver(o Observer) Option {
	return func(c *config) {
		if o != nil {
			c.observer = o
		}
	}
}
