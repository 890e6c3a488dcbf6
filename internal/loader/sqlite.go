package loader

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/cinemad/internal/ir"
	"github.com/roach88/cinemad/internal/store"
)

// errNoTable is returned when a SQLite source does not name a table.
var errNoTable = errors.New("sqlite source has no table")

func readSQLiteFile(ctx context.Context, path, table string) ([]*ir.Record, error) {
	if table == "" {
		return nil, errNoTable
	}
	s, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer s.Close()
	return s.ReadTable(ctx, table)
}

func readSQLiteBytes(ctx context.Context, data []byte, table string) ([]*ir.Record, error) {
	if table == "" {
		return nil, errNoTable
	}
	s, err := store.OpenBytes(data)
	if err != nil {
		return nil, err
	}
	defer s.Close()
	return s.ReadTable(ctx, table)
}
