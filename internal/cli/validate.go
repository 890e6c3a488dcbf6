package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/roach88/cinemad/internal/compiler"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool                       `json:"valid"`
	Spec     string                     `json:"spec"`
	Sources  int                        `json:"sources"`
	Displays int                        `json:"displays"`
	Errors   []compiler.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <spec>",
		Short: "Check a specification for diagnostics",
		Long: `Parse a specification and report every structural diagnostic:
missing sections, io tags that are neither input nor output, displays
that name undeclared sources, displays without structures.

The spec may be a local path, a file:// URL or an http(s) URL.

Exit codes:
  0 - No diagnostics
  1 - One or more diagnostics
  2 - Spec could not be fetched or parsed`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, spec string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)
	logger := newLogger(opts, cmd.ErrOrStderr())

	loaded, err := LoadSpec(cmd.Context(), spec, logger)
	if err != nil {
		return reportLoadError(formatter, err)
	}
	formatter.VerboseLog("Read %s from %s", humanize.Bytes(uint64(loaded.Size)), spec)

	result := ValidationResult{
		Valid:    len(loaded.Diagnostics) == 0,
		Spec:     spec,
		Sources:  len(loaded.Document.Sources),
		Displays: len(loaded.Document.Displays),
		Errors:   loaded.Diagnostics,
	}

	if !result.Valid {
		return outputValidationErrors(formatter, result)
	}
	if formatter.JSON() {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "✓ %s is valid (%s, %s)\n", spec,
		plural(result.Sources, "source"), plural(result.Displays, "display"))
	return nil
}

func outputValidationErrors(f *OutputFormatter, result ValidationResult) error {
	msg := fmt.Sprintf("%s found", plural(len(result.Errors), "diagnostic"))
	if f.JSON() {
		if err := f.Failure(ErrCodeDiagnostics, msg, result); err != nil {
			return err
		}
		return NewExitError(ExitFailure, msg)
	}

	fmt.Fprintf(f.Writer, "✗ %s: %s\n", result.Spec, msg)
	for _, e := range result.Errors {
		fmt.Fprintf(f.Writer, "  %s\n", e.Error())
	}
	return NewExitError(ExitFailure, msg)
}

// plural renders "1 source" or "1,204 sources".
func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return humanize.Comma(int64(n)) + " " + noun + "s"
}
