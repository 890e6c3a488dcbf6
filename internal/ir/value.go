package ir

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"unicode/utf16"
)

// Value is a sealed interface representing constrained value types.
// Only Null, String, Number, Bool, Array, and Object implement this.
type Value interface {
	irValue() // Sealed - only these types implement it
}

// Null represents a missing or empty value.
type Null struct{}

func (Null) irValue() {}

// String represents a string value.
type String string

func (String) irValue() {}

// Number represents a numeric value. Delimited text cells that parse as
// a float become Numbers.
type Number float64

func (Number) irValue() {}

// Bool represents a boolean value.
type Bool bool

func (Bool) irValue() {}

// Array represents an ordered list of values.
type Array []Value

func (Array) irValue() {}

// Object represents a map of string keys to values.
// Use SortedKeys() for deterministic iteration.
type Object map[string]Value

func (Object) irValue() {}

// Get returns the value stored under key, or Null if absent.
func (obj Object) Get(key string) Value {
	if v, ok := obj[key]; ok && v != nil {
		return v
	}
	return Null{}
}

// SortedKeys returns keys in RFC 8785 canonical order (UTF-16 code units).
// Go's sort.Strings uses UTF-8 byte order, which differs for supplementary planes.
func (obj Object) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareUTF16)
	return keys
}

func compareUTF16(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	return slices.Compare(a16, b16)
}

// MarshalJSON implements json.Marshaler using canonical key order.
func (obj Object) MarshalJSON() ([]byte, error) {
	return MarshalCanonical(obj)
}

// MarshalJSON implements json.Marshaler for Array.
func (arr Array) MarshalJSON() ([]byte, error) {
	return MarshalCanonical(arr)
}

// Text renders a value the way it should appear in rendered content and
// in control options. Null renders as the empty string.
func Text(v Value) string {
	switch val := v.(type) {
	case nil, Null:
		return ""
	case String:
		return string(val)
	case Number:
		return formatNumber(float64(val))
	case Bool:
		return strconv.FormatBool(bool(val))
	default:
		b, err := MarshalCanonical(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(b)
	}
}

// AsNumber reports the numeric value of v. Strings that parse as floats
// count as numbers; everything else does not.
func AsNumber(v Value) (float64, bool) {
	switch val := v.(type) {
	case Number:
		f := float64(val)
		return f, !math.IsNaN(f)
	case String:
		f, err := strconv.ParseFloat(strings.TrimSpace(string(val)), 64)
		if err != nil || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	case Bool:
		if val {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// AsString returns the string stored in v, if v is a String.
func AsString(v Value) (string, bool) {
	s, ok := v.(String)
	return string(s), ok
}

// Equal compares two scalar values loosely: numbers compare numerically
// (a numeric string equals the number it spells), everything else compares
// by its rendered text. Used when filtering records by a selected value.
func Equal(a, b Value) bool {
	_, aNull := a.(Null)
	_, bNull := b.(Null)
	if a == nil || b == nil || aNull || bNull {
		return (a == nil || aNull) && (b == nil || bNull)
	}
	if af, ok := AsNumber(a); ok {
		if bf, ok := AsNumber(b); ok {
			return af == bf
		}
	}
	return Text(a) == Text(b)
}

// FromGo converts a decoded Go value (encoding/json or yaml.v3 output) to a Value.
func FromGo(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return val, nil
	case string:
		return String(val), nil
	case bool:
		return Bool(val), nil
	case int:
		return Number(float64(val)), nil
	case int64:
		return Number(float64(val)), nil
	case uint64:
		return Number(float64(val)), nil
	case float32:
		return Number(float64(val)), nil
	case float64:
		return Number(val), nil
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return nil, fmt.Errorf("number %q: %w", val, err)
		}
		return Number(f), nil
	case []any:
		arr := make(Array, len(val))
		for i, elem := range val {
			e, err := FromGo(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			arr[i] = e
		}
		return arr, nil
	case map[string]any:
		obj := make(Object, len(val))
		for k, elem := range val {
			e, err := FromGo(elem)
			if err != nil {
				return nil, fmt.Errorf("[%q]: %w", k, err)
			}
			obj[k] = e
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("unsupported type: %T", v)
	}
}

// ToGo converts a Value back to plain Go values for JSON/YAML encoders.
func ToGo(v Value) any {
	switch val := v.(type) {
	case nil, Null:
		return nil
	case String:
		return string(val)
	case Number:
		return float64(val)
	case Bool:
		return bool(val)
	case Array:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = ToGo(e)
		}
		return out
	case Object:
		out := make(map[string]any, len(val))
		for k, e := range val {
			out[k] = ToGo(e)
		}
		return out
	default:
		return nil
	}
}

// formatNumber renders integral values without a fraction and everything
// else with the shortest representation that round-trips.
func formatNumber(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
