package cli

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/roach88/cinemad/internal/engine"
	"github.com/roach88/cinemad/internal/ir"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	Display string
	Selects []string // structure=value, applied in order

	// Tokens overrides the activation token generator (for testing).
	Tokens engine.TokenGenerator
}

// QueryResult is the display state after every selection was applied.
type QueryResult struct {
	Activation string                 `json:"activation"`
	Display    engine.DisplaySnapshot `json:"display"`
}

// Selection is one parsed --select flag.
type Selection struct {
	Structure string
	Value     string
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	return newQueryCommand(&QueryOptions{RootOptions: rootOpts})
}

func newQueryCommand(opts *QueryOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query <spec>",
		Short: "Activate a display, apply selections and print its outputs",
		Long: `Activate one display of a specification, apply each --select in
order and print every structure's rendered content. Outputs show the
records that survived the intersection of all input queries.

--display may be omitted when the spec declares exactly one display.

Examples:
  cinemad query ./cinema.json --display main
  cinemad query ./cinema.json --select phi=20 --select kind=iso
  cinemad query ./cinema.json --select phi=20 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Display, "display", "", "display to activate")
	cmd.Flags().StringArrayVar(&opts.Selects, "select", nil, "selection as structure=value (repeatable)")

	return cmd
}

// ParseSelection splits a structure=value flag. The value may itself
// contain '='.
func ParseSelection(flag string) (Selection, error) {
	structure, value, ok := strings.Cut(flag, "=")
	if !ok || structure == "" {
		return Selection{}, fmt.Errorf("invalid selection %q: want structure=value", flag)
	}
	return Selection{Structure: structure, Value: value}, nil
}

func runQuery(opts *QueryOptions, spec string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())
	ctx := cmd.Context()

	selections := make([]Selection, 0, len(opts.Selects))
	for _, flag := range opts.Selects {
		sel, err := ParseSelection(flag)
		if err != nil {
			return commandError(formatter, ErrCodeBadSelection, err.Error())
		}
		selections = append(selections, sel)
	}

	var extra []engine.Option
	if opts.Tokens != nil {
		extra = append(extra, engine.WithTokenGenerator(opts.Tokens))
	}
	db, err := OpenDatabase(ctx, spec, logger, extra...)
	if err != nil {
		return reportLoadError(formatter, err)
	}

	d, err := pickDisplay(db, opts.Display)
	if err != nil {
		return commandError(formatter, ErrCodeNoDisplay, err.Error())
	}

	token := d.Activate(ctx)
	formatter.VerboseLog("Activated %s (%s, %s)", d.ID(), token, plural(len(d.Data()), "record"))

	for _, sel := range selections {
		in, ok := d.Input(sel.Structure)
		if !ok {
			return commandError(formatter, ErrCodeRejected,
				fmt.Sprintf("%q is not an input of display %q", sel.Structure, d.ID()))
		}
		if err := in.Select(sel.Value); err != nil {
			return commandError(formatter, ErrCodeRejected, err.Error())
		}
		formatter.VerboseLog("Selected %s=%s", sel.Structure, sel.Value)
	}

	result := QueryResult{Activation: token, Display: d.Snapshot()}
	if formatter.JSON() {
		return formatter.Success(result)
	}
	outputQueryText(formatter, result)
	return nil
}

// pickDisplay returns the named display, or the only display when name is
// empty.
func pickDisplay(db *engine.Database, name string) (*engine.Display, error) {
	if name != "" {
		d, ok := db.Display(name)
		if !ok {
			return nil, fmt.Errorf("display %q not found", name)
		}
		return d, nil
	}
	displays := db.Displays()
	if len(displays) != 1 {
		ids := make([]string, len(displays))
		for i, d := range displays {
			ids[i] = d.ID()
		}
		return nil, fmt.Errorf("--display is required: spec declares %d displays %v", len(displays), ids)
	}
	return displays[0], nil
}

func outputQueryText(f *OutputFormatter, r QueryResult) {
	w := f.Writer
	snap := r.Display
	fmt.Fprintf(w, "Display %s: %s, %s\n", snap.ID, snap.State, plural(snap.Records, "record"))
	for _, s := range snap.Structures {
		fmt.Fprintf(w, "\n[%s] %s %s", s.IO, s.ID, s.Type)
		if s.IO == ir.IOOutput {
			fmt.Fprintf(w, ", %s records", humanize.Comma(int64(s.Count)))
		}
		fmt.Fprintln(w)
		for _, line := range s.Content {
			fmt.Fprintf(w, "  %s\n", line)
		}
	}
}

// commandError reports a usage problem and returns exit code 2.
func commandError(f *OutputFormatter, code, message string) error {
	if err := f.Error(code, message, nil); err != nil {
		return err
	}
	return NewExitError(ExitCommandError, message)
}
