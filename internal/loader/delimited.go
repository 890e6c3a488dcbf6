package loader

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/roach88/cinemad/internal/ir"
)

// ParseDelimited parses delimiter-separated text. The first row names the
// columns; every later row becomes one record. Cells that parse as finite
// floats become numbers, empty cells become null, everything else stays a
// string. Blank lines are skipped; short rows are padded with null.
func ParseDelimited(data []byte, delimiter rune) ([]*ir.Record, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = delimiter
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return []*ir.Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = strings.TrimSpace(h)
	}

	records := []*ir.Record{}
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(records)+2, err)
		}
		values := make([]ir.Value, len(columns))
		for i := range columns {
			if i < len(row) {
				values[i] = ParseCell(row[i])
			}
		}
		records = append(records, ir.NewRecord(columns, values))
	}
	return records, nil
}

// ParseCell converts one text cell to a value.
func ParseCell(cell string) ir.Value {
	trimmed := strings.TrimSpace(cell)
	if trimmed == "" {
		return ir.Null{}
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return ir.Number(f)
	}
	return ir.String(cell)
}
