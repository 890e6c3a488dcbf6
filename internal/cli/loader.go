package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/dustin/go-humanize"

	"github.com/roach88/cinemad/internal/builder"
	"github.com/roach88/cinemad/internal/compiler"
	"github.com/roach88/cinemad/internal/engine"
	"github.com/roach88/cinemad/internal/fetch"
	"github.com/roach88/cinemad/internal/ir"
	"github.com/roach88/cinemad/internal/loader"
)

// Error code constants, unified across all CLI commands.
const (
	ErrCodeGeneric      = "E001" // Generic/unknown error
	ErrCodeScanError    = "E002" // Scenario directory scan error
	ErrCodeFetchFailed  = "E004" // Spec could not be fetched
	ErrCodeNotFound     = "E005" // Path not found
	ErrCodeParseFailed  = "E006" // Spec is not a parseable document
	ErrCodeWriteFailed  = "E007" // File write error
	ErrCodeDiagnostics  = "E010" // Spec parsed with diagnostics
	ErrCodeTestFailed   = "E020" // One or more scenarios failed
	ErrCodeNoDisplay    = "E301" // Display not found or ambiguous
	ErrCodeBadSelection = "E302" // --select flag is malformed
	ErrCodeRejected     = "E303" // Control refused a selection
)

// LoadError represents an error that occurred while loading a spec.
type LoadError struct {
	Code    string
	Message string
	Err     error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *LoadError) Unwrap() error { return e.Err }

// LoadResult is a parsed spec that has not been turned into a graph.
type LoadResult struct {
	Spec        string
	Size        int
	Document    *ir.Document
	Diagnostics []compiler.ValidationError
}

// LoadSpec fetches and parses the document at spec. Diagnostics are
// returned in the result; only fetch and syntax failures are errors.
func LoadSpec(ctx context.Context, spec string, logger *slog.Logger) (*LoadResult, error) {
	data, err := fetch.NewDefaultFetcher().Fetch(ctx, spec)
	if err != nil {
		return nil, fetchError(spec, err)
	}
	logger.Debug("spec fetched", "spec", spec, "size", humanize.Bytes(uint64(len(data))))

	doc, diags, err := compiler.ParseDocument(spec, data)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeParseFailed, Message: fmt.Sprintf("parse %s: %v", spec, err), Err: err}
	}
	return &LoadResult{Spec: spec, Size: len(data), Document: doc, Diagnostics: diags}, nil
}

// OpenDatabase opens spec with the default loaders and builders. Extra
// options are applied after the defaults.
func OpenDatabase(ctx context.Context, spec string, logger *slog.Logger, extra ...engine.Option) (*engine.Database, error) {
	opts := []engine.Option{
		engine.WithLogger(logger),
		engine.WithLoader(loader.New(loader.WithLogger(logger))),
		engine.WithBuilders(builder.New(builder.WithLogger(logger)).Builder()),
	}
	db, err := engine.Open(ctx, spec, append(opts, extra...)...)
	if err != nil {
		var ce *compiler.CompileError
		if errors.As(err, &ce) {
			return nil, &LoadError{Code: ErrCodeParseFailed, Message: err.Error(), Err: err}
		}
		return nil, fetchError(spec, err)
	}
	logger.Debug("database opened",
		"spec", spec,
		"sources", len(db.Sources()),
		"displays", len(db.Displays()),
		"diagnostics", len(db.Diagnostics()),
	)
	return db, nil
}

func fetchError(spec string, err error) error {
	var se *fetch.StatusError
	if errors.Is(err, fs.ErrNotExist) || errors.As(err, &se) {
		return &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("spec not found: %s", spec), Err: err}
	}
	return &LoadError{Code: ErrCodeFetchFailed, Message: fmt.Sprintf("fetch %s: %v", spec, err), Err: err}
}

// reportLoadError writes err through the formatter and converts it into
// a command error.
func reportLoadError(f *OutputFormatter, err error) error {
	var le *LoadError
	if !errors.As(err, &le) {
		le = &LoadError{Code: ErrCodeGeneric, Message: err.Error(), Err: err}
	}
	if outErr := f.Error(le.Code, le.Message, nil); outErr != nil {
		return outErr
	}
	return WrapExitError(ExitCommandError, le.Message, le.Err)
}
