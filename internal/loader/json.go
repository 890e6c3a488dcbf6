package loader

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/buger/jsonparser"

	"github.com/roach88/cinemad/internal/ir"
)

// ParseJSON parses an array of objects. Columns are the union of all keys
// in first-seen order; records missing a key get null.
func ParseJSON(data []byte) ([]*ir.Record, error) {
	if trimmed := bytes.TrimSpace(data); len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, errors.New("parse json array: document is not an array")
	}

	var (
		columns []string
		seen    = map[string]bool{}
		objects []ir.Object
		rowErr  error
	)

	_, err := jsonparser.ArrayEach(data, func(value []byte, typ jsonparser.ValueType, _ int, err error) {
		if rowErr != nil {
			return
		}
		if err != nil {
			rowErr = err
			return
		}
		if typ != jsonparser.Object {
			rowErr = fmt.Errorf("element %d is %s, want object", len(objects), typ)
			return
		}

		obj := ir.Object{}
		err = jsonparser.ObjectEach(value, func(key, val []byte, vt jsonparser.ValueType, _ int) error {
			k, err := jsonparser.ParseString(key)
			if err != nil {
				return err
			}
			v, err := jsonValue(val, vt)
			if err != nil {
				return fmt.Errorf("%s: %w", k, err)
			}
			if !seen[k] {
				seen[k] = true
				columns = append(columns, k)
			}
			obj[k] = v
			return nil
		})
		if err != nil {
			rowErr = fmt.Errorf("element %d: %w", len(objects), err)
			return
		}
		objects = append(objects, obj)
	})
	if err != nil {
		return nil, fmt.Errorf("parse json array: %w", err)
	}
	if rowErr != nil {
		return nil, fmt.Errorf("parse json array: %w", rowErr)
	}

	records := make([]*ir.Record, len(objects))
	for i, obj := range objects {
		records[i] = ir.NewRecordFromObject(columns, obj)
	}
	return records, nil
}

func jsonValue(raw []byte, typ jsonparser.ValueType) (ir.Value, error) {
	switch typ {
	case jsonparser.String:
		s, err := jsonparser.ParseString(raw)
		if err != nil {
			return nil, err
		}
		return ir.String(s), nil
	case jsonparser.Number:
		f, err := jsonparser.ParseFloat(raw)
		if err != nil {
			return nil, err
		}
		return ir.Number(f), nil
	case jsonparser.Boolean:
		b, err := jsonparser.ParseBoolean(raw)
		if err != nil {
			return nil, err
		}
		return ir.Bool(b), nil
	case jsonparser.Null:
		return ir.Null{}, nil
	case jsonparser.Object, jsonparser.Array:
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		return ir.FromGo(v)
	default:
		return nil, fmt.Errorf("unsupported json value %q", raw)
	}
}
