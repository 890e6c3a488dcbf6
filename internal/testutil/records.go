package testutil

import (
	"io"
	"log/slog"

	"github.com/roach88/cinemad/internal/ir"
)

// Records builds records that share one column slice, the way a loader
// does. Each row is converted with ir.FromGo; rows shorter than columns
// are padded with Null.
func Records(columns []string, rows ...[]any) []*ir.Record {
	out := make([]*ir.Record, 0, len(rows))
	for _, row := range rows {
		values := make([]ir.Value, len(row))
		for i, cell := range row {
			v, err := ir.FromGo(cell)
			if err != nil {
				panic("testutil.Records: " + err.Error())
			}
			values[i] = v
		}
		out = append(out, ir.NewRecord(columns, values))
	}
	return out
}

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
