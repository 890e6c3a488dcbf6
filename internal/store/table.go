package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/roach88/cinemad/internal/ir"
)

// ReadTable returns every row of table as records sharing one column
// slice. Tables are read in rowid order.
func (s *Store) ReadTable(ctx context.Context, table string) ([]*ir.Record, error) {
	kind, err := s.tableKind(ctx, table)
	if err != nil {
		return nil, err
	}

	query := "SELECT * FROM " + quoteIdent(table)
	if kind == "table" {
		query += " ORDER BY rowid"
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("read table %s: %w", table, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns of %s: %w", table, err)
	}

	records := []*ir.Record{}
	for rows.Next() {
		cells := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range cells {
			ptrs[i] = &cells[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row of %s: %w", table, err)
		}

		values := make([]ir.Value, len(cells))
		for i, c := range cells {
			values[i] = cellValue(c)
		}
		records = append(records, ir.NewRecord(columns, values))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", table, err)
	}
	return records, nil
}

// tableKind looks table up in sqlite_master and returns "table" or "view".
func (s *Store) tableKind(ctx context.Context, table string) (string, error) {
	var kind string
	err := s.db.QueryRowContext(ctx, `
		SELECT type FROM sqlite_master
		WHERE type IN ('table', 'view') AND name = ?
	`, table).Scan(&kind)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("%w: %q", ErrUnknownTable, table)
	}
	if err != nil {
		return "", fmt.Errorf("look up table %s: %w", table, err)
	}
	return kind, nil
}

// quoteIdent quotes an SQL identifier.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func cellValue(c any) ir.Value {
	switch v := c.(type) {
	case nil:
		return ir.Null{}
	case int64:
		return ir.Number(float64(v))
	case float64:
		return ir.Number(v)
	case bool:
		return ir.Bool(v)
	case []byte:
		return ir.String(string(v))
	case string:
		return ir.String(v)
	default:
		return ir.String(fmt.Sprint(v))
	}
}
