package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/roach88/cinemad/internal/engine"
)

// InspectOptions holds flags for the inspect command.
type InspectOptions struct {
	*RootOptions
	Load bool // load every source and report record counts
}

// InspectResult summarizes the graph built from a spec.
type InspectResult struct {
	Spec        string        `json:"spec"`
	Hash        string        `json:"hash"`
	Diagnostics int           `json:"diagnostics"`
	Sources     []SourceInfo  `json:"sources"`
	Displays    []DisplayInfo `json:"displays"`
}

// SourceInfo describes one source. Records is set only with --load.
type SourceInfo struct {
	ID      string `json:"id"`
	URI     string `json:"uri"`
	Table   string `json:"table,omitempty"`
	Mime    string `json:"mime"`
	Records *int   `json:"records,omitempty"`
}

// DisplayInfo describes one display and its structures.
type DisplayInfo struct {
	ID         string          `json:"id"`
	Label      string          `json:"label,omitempty"`
	Source     string          `json:"source"`
	Resolved   bool            `json:"resolved"`
	Structures []StructureInfo `json:"structures"`
}

// StructureInfo describes one structure.
type StructureInfo struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	IO    string `json:"io"`
	Label string `json:"label,omitempty"`
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InspectOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "inspect <spec>",
		Short: "Summarize the graph built from a specification",
		Long: `Build the source/display/structure graph for a specification and
print it. Structures dropped during construction (bad io tags) do not
appear. With --load every source is loaded and its record count shown.

Example:
  cinemad inspect ./cinema.json
  cinemad inspect ./cinema.json --load --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Load, "load", false, "load every source and report record counts")

	return cmd
}

func runInspect(opts *InspectOptions, spec string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())
	ctx := cmd.Context()

	db, err := OpenDatabase(ctx, spec, logger)
	if err != nil {
		return reportLoadError(formatter, err)
	}

	result := InspectResult{
		Spec:        spec,
		Hash:        db.SpecHash(),
		Diagnostics: len(db.Diagnostics()),
	}
	for _, src := range db.Sources() {
		info := src.Info()
		si := SourceInfo{ID: info.ID, URI: info.URI, Table: info.Table, Mime: info.Mime}
		if opts.Load {
			src.Load(ctx, nil)
			n := len(src.Data())
			si.Records = &n
		}
		result.Sources = append(result.Sources, si)
	}
	for _, d := range db.Displays() {
		result.Displays = append(result.Displays, describeDisplay(d))
	}

	if formatter.JSON() {
		return formatter.Success(result)
	}
	outputInspectText(formatter, result)
	return nil
}

func describeDisplay(d *engine.Display) DisplayInfo {
	di := DisplayInfo{
		ID:       d.ID(),
		Label:    d.Label(),
		Source:   d.SourceID(),
		Resolved: d.Source() != nil,
	}
	for _, s := range d.Structures() {
		di.Structures = append(di.Structures, StructureInfo{
			ID:    s.ID(),
			Type:  s.Type(),
			IO:    s.IO(),
			Label: s.Label(),
		})
	}
	return di
}

func outputInspectText(f *OutputFormatter, r InspectResult) {
	w := f.Writer
	fmt.Fprintf(w, "Spec: %s\n", r.Spec)
	fmt.Fprintf(w, "Hash: %s\n", r.Hash)
	if r.Diagnostics > 0 {
		fmt.Fprintf(w, "Diagnostics: %d (run validate for details)\n", r.Diagnostics)
	}

	fmt.Fprintf(w, "\nSources (%d):\n", len(r.Sources))
	for _, s := range r.Sources {
		fmt.Fprintf(w, "  %s  %s  %s", s.ID, s.Mime, s.URI)
		if s.Table != "" {
			fmt.Fprintf(w, "  table=%s", s.Table)
		}
		if s.Records != nil {
			fmt.Fprintf(w, "  %s records", humanize.Comma(int64(*s.Records)))
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "\nDisplays (%d):\n", len(r.Displays))
	for _, d := range r.Displays {
		source := d.Source
		if !d.Resolved {
			source += " (unresolved)"
		}
		fmt.Fprintf(w, "  %s  source=%s\n", d.ID, source)
		for _, s := range d.Structures {
			fmt.Fprintf(w, "    %-6s %s  %s\n", s.IO, s.ID, s.Type)
		}
	}
}
