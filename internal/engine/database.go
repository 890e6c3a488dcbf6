package engine

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"

	"github.com/roach88/cinemad/internal/compiler"
	"github.com/roach88/cinemad/internal/fetch"
	"github.com/roach88/cinemad/internal/ir"
)

// Database is the root of the graph: every Source and Display declared by
// one specification document. The set of Sources, Displays and Structures
// never changes after construction.
type Database struct {
	specURL   string
	directory string
	doc       *ir.Document
	specHash  string
	diags     []compiler.ValidationError

	sources     []*Source
	sourceByID  map[string]*Source
	displays    []*Display
	displayByID map[string]*Display

	clock  *Clock
	cfg    *config
	logger *slog.Logger
}

// Open fetches and parses the specification at specURL and builds the
// graph. Validation problems are logged and kept in Diagnostics; only a
// failed fetch or a syntax error is returned as an error.
func Open(ctx context.Context, specURL string, opts ...Option) (*Database, error) {
	cfg := newConfig(opts)
	fetcher := cfg.fetcher
	if fetcher == nil {
		fetcher = fetch.NewDefaultFetcher()
		cfg.fetcher = fetcher
	}

	data, err := fetcher.Fetch(ctx, specURL)
	if err != nil {
		return nil, fmt.Errorf("fetch specification: %w", err)
	}

	doc, diags, err := compiler.ParseDocument(specURL, data)
	if err != nil {
		return nil, fmt.Errorf("parse specification %s: %w", specURL, err)
	}
	if len(diags) > 0 {
		cfg.logger.Warn("there are errors present in the specification; some things may not work",
			"spec", specURL,
			"errors", len(diags),
		)
		for _, d := range diags {
			cfg.logger.Debug("specification diagnostic", "code", d.Code, "field", d.Field, "message", d.Message)
		}
	}

	db := newDatabase(doc, fetch.ResolveDirectory(specURL), cfg)
	db.specURL = specURL
	db.diags = diags
	return db, nil
}

// New builds the graph from an already parsed document. directory is
// prefixed to relative source URIs.
func New(doc *ir.Document, directory string, opts ...Option) *Database {
	return newDatabase(doc, directory, newConfig(opts))
}

func newDatabase(doc *ir.Document, directory string, cfg *config) *Database {
	if doc == nil {
		doc = &ir.Document{}
	}
	db := &Database{
		directory:   directory,
		doc:         doc,
		sourceByID:  make(map[string]*Source, len(doc.Sources)),
		displayByID: make(map[string]*Display, len(doc.Displays)),
		clock:       NewClock(),
		cfg:         cfg,
		logger:      cfg.logger,
	}

	hash, err := ir.DocumentHash(doc)
	if err != nil {
		db.logger.Warn("could not hash specification", "error", err)
	}
	db.specHash = hash

	// Sources first: displays resolve their source by id.
	for _, spec := range doc.Sources {
		src := newSource(SourceInfo{
			ID:    spec.ID,
			URI:   resolveURI(directory, spec.URI),
			Table: spec.Table,
			Mime:  spec.Mime,
		}, cfg, db.clock)
		db.sources = append(db.sources, src)
		db.sourceByID[spec.ID] = src
	}

	for _, spec := range doc.Displays {
		disp := newDisplay(spec, db.sourceByID[spec.Source], db, cfg)
		db.displays = append(db.displays, disp)
		db.displayByID[spec.ID] = disp
	}

	db.logger.Debug("database built",
		"sources", len(db.sources),
		"displays", len(db.displays),
		"spec_hash", db.specHash,
	)
	return db
}

// resolveURI prefixes relative local URIs with the database directory.
func resolveURI(directory, uri string) string {
	if uri == "" || fetch.IsURL(uri) || filepath.IsAbs(uri) {
		return uri
	}
	return directory + uri
}

// SpecURL returns the location Open was given, or "" for New.
func (db *Database) SpecURL() string { return db.specURL }

// Directory returns the base directory of the specification.
func (db *Database) Directory() string { return db.directory }

// Document returns the compiled specification.
func (db *Database) Document() *ir.Document { return db.doc }

// Info returns the specification's cinema metadata section.
func (db *Database) Info() ir.Object { return db.doc.Info }

// SpecHash returns the content hash of the compiled specification.
func (db *Database) SpecHash() string { return db.specHash }

// Diagnostics returns the validation problems found by Open.
func (db *Database) Diagnostics() []compiler.ValidationError { return slices.Clone(db.diags) }

// Fetcher returns the transport used to fetch the specification. Builders
// use it to fetch per-record files.
func (db *Database) Fetcher() fetch.Fetcher {
	if db.cfg.fetcher == nil {
		db.cfg.fetcher = fetch.NewDefaultFetcher()
	}
	return db.cfg.fetcher
}

// Logger returns the diagnostics logger.
func (db *Database) Logger() *slog.Logger { return db.logger }

// Sources returns every Source in declaration order.
func (db *Database) Sources() []*Source { return slices.Clone(db.sources) }

// Source looks up a Source by id.
func (db *Database) Source(id string) (*Source, bool) {
	s, ok := db.sourceByID[id]
	return s, ok
}

// Displays returns every Display in declaration order.
func (db *Database) Displays() []*Display { return slices.Clone(db.displays) }

// Display looks up a Display by id.
func (db *Database) Display(id string) (*Display, bool) {
	d, ok := db.displayByID[id]
	return d, ok
}

// DisplaysUsing returns the Displays linked to the given Source.
func (db *Database) DisplaysUsing(sourceID string) []*Display {
	var out []*Display
	for _, d := range db.displays {
		if d.source != nil && d.source.ID() == sourceID {
			out = append(out, d)
		}
	}
	return out
}

// AddBuildersToAll appends builders to every Structure of every Display.
func (db *Database) AddBuildersToAll(builders ...Builder) {
	for _, d := range db.displays {
		for _, s := range d.structures {
			s.AddBuilders(builders...)
		}
	}
}

// SetLoadersForAll assigns loader to every Source, replacing any previous one.
func (db *Database) SetLoadersForAll(loader Loader) {
	for _, s := range db.sources {
		s.SetLoader(loader)
	}
}
