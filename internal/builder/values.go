package builder

import (
	"log/slog"
	"slices"

	"github.com/roach88/cinemad/internal/ir"
)

// UniqueNumeric returns the distinct numeric values of field key, sorted
// ascending. Values that are not numbers are logged and ignored.
func UniqueNumeric(records []*ir.Record, key string, logger *slog.Logger) []float64 {
	seen := make(map[float64]bool)
	var out []float64
	for _, r := range records {
		v := r.Get(key)
		f, ok := ir.AsNumber(v)
		if _, isBool := v.(ir.Bool); !ok || isBool {
			if logger != nil {
				logger.Debug("non-numeric value will be ignored", "field", key, "value", ir.Text(v))
			}
			continue
		}
		if f == 0 {
			f = 0 // fold -0
		}
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	slices.Sort(out)
	return out
}

// UniqueOrdinal returns the distinct values of field key in first-seen
// order. Values are distinct by their rendered text.
func UniqueOrdinal(records []*ir.Record, key string) []ir.Value {
	seen := make(map[string]bool)
	var out []ir.Value
	for _, r := range records {
		v := r.Get(key)
		t := ir.Text(v)
		if !seen[t] {
			seen[t] = true
			out = append(out, v)
		}
	}
	return out
}

// matching returns the records whose field key renders as the same text
// as v. "01" and "1" are different categories.
func matching(records []*ir.Record, key string, v ir.Value) []*ir.Record {
	want := ir.Text(v)
	return ir.Filter(records, func(r *ir.Record) bool {
		return ir.Text(r.Get(key)) == want
	})
}

// matchingNumber returns the records whose field key is numerically equal
// to f. Numeric strings count, matching UniqueNumeric.
func matchingNumber(records []*ir.Record, key string, f float64) []*ir.Record {
	return ir.Filter(records, func(r *ir.Record) bool {
		v := r.Get(key)
		if _, isBool := v.(ir.Bool); isBool {
			return false
		}
		n, ok := ir.AsNumber(v)
		return ok && n == f
	})
}

// pairArg reads a two-element array argument such as phi_theta or xy.
func pairArg(args ir.Object, name string) ([2]ir.Value, bool) {
	arr, ok := args.Get(name).(ir.Array)
	if !ok || len(arr) < 2 {
		return [2]ir.Value{ir.Null{}, ir.Null{}}, false
	}
	return [2]ir.Value{arr[0], arr[1]}, true
}

// numberRange reads a [lo, hi] numeric pair.
func numberRange(v ir.Value) (lo, hi float64, ok bool) {
	arr, isArr := v.(ir.Array)
	if !isArr || len(arr) < 2 {
		return 0, 0, false
	}
	lo, ok1 := ir.AsNumber(arr[0])
	hi, ok2 := ir.AsNumber(arr[1])
	return lo, hi, ok1 && ok2
}
