// Package loader provides the default Source loader.
//
// SuperLoader dispatches on the Source's mime type: delimited text (CSV,
// TSV), JSON arrays of objects, and SQLite tables. Every failure is
// returned to the Source, which logs it and resolves to empty data.
package loader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/roach88/cinemad/internal/engine"
	"github.com/roach88/cinemad/internal/fetch"
	"github.com/roach88/cinemad/internal/ir"
)

// Supported mime types.
const (
	MimeCSV          = "text/csv"
	MimeTSV          = "text/tsv"
	MimeTSVStandard  = "text/tab-separated-values"
	MimeJSON         = "application/json"
	MimeSQLite       = "application/x-sqlite3"
	MimeSQLiteVendor = "application/vnd.sqlite3"
)

// ErrUnsupportedMime is returned for a mime type no loader handles.
var ErrUnsupportedMime = errors.New("no loader for mime type")

// SuperLoader is the default engine.Loader.
type SuperLoader struct {
	fetcher fetch.Fetcher
	logger  *slog.Logger
}

// Option configures a SuperLoader.
type Option func(*SuperLoader)

// WithFetcher sets the transport. Default: fetch.NewDefaultFetcher().
func WithFetcher(f fetch.Fetcher) Option {
	return func(l *SuperLoader) {
		if f != nil {
			l.fetcher = f
		}
	}
}

// WithLogger sets the diagnostics logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *SuperLoader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// New creates a SuperLoader.
func New(opts ...Option) *SuperLoader {
	l := &SuperLoader{
		fetcher: fetch.NewDefaultFetcher(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

var _ engine.Loader = (*SuperLoader)(nil)

// Load implements engine.Loader.
func (l *SuperLoader) Load(ctx context.Context, info engine.SourceInfo) ([]*ir.Record, error) {
	mime := normalizeMime(info.Mime)
	if !Supported(mime) && mime != "" {
		return nil, fmt.Errorf("%w %q (source %s)", ErrUnsupportedMime, info.Mime, info.ID)
	}

	// Local SQLite files are opened in place.
	if isSQLite(mime) && !fetch.IsRemote(info.URI) {
		path, err := fetch.LocalPath(info.URI)
		if err != nil {
			return nil, err
		}
		return readSQLiteFile(ctx, path, info.Table)
	}

	data, err := l.fetcher.Fetch(ctx, info.URI)
	if err != nil {
		return nil, err
	}

	if mime == "" {
		mime = sniff(data)
		l.logger.Debug("sniffed source mime type", "source", info.ID, "mime", mime)
		if !Supported(mime) {
			return nil, fmt.Errorf("%w %q (sniffed, source %s)", ErrUnsupportedMime, mime, info.ID)
		}
	}

	switch {
	case mime == MimeCSV:
		return ParseDelimited(data, ',')
	case mime == MimeTSV || mime == MimeTSVStandard:
		return ParseDelimited(data, '\t')
	case mime == MimeJSON:
		return ParseJSON(data)
	case isSQLite(mime):
		return readSQLiteBytes(ctx, data, info.Table)
	default:
		return nil, fmt.Errorf("%w %q", ErrUnsupportedMime, mime)
	}
}

// Supported reports whether mime has a loader.
func Supported(mime string) bool {
	switch normalizeMime(mime) {
	case MimeCSV, MimeTSV, MimeTSVStandard, MimeJSON, MimeSQLite, MimeSQLiteVendor:
		return true
	}
	return false
}

func isSQLite(mime string) bool {
	return mime == MimeSQLite || mime == MimeSQLiteVendor
}

// normalizeMime lowercases and drops parameters ("text/csv; charset=utf-8").
func normalizeMime(mime string) string {
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	return strings.ToLower(strings.TrimSpace(mime))
}

// sniff detects the format of a source with no declared mime type.
func sniff(data []byte) string {
	m := mimetype.Detect(data)
	for ; m != nil; m = m.Parent() {
		for _, want := range []string{MimeCSV, MimeTSVStandard, MimeJSON, MimeSQLiteVendor} {
			if m.Is(want) {
				return want
			}
		}
	}
	return normalizeMime(mimetype.Detect(data).String())
}
