package ir

import "slices"

// Record is one field-keyed entry of a source's data.
//
// Records are shared by pointer between a source and every structure that
// reads it. Membership tests throughout the engine compare *Record
// identity: two records with equal fields are still different records.
type Record struct {
	columns []string // Shared with every record from the same load
	values  Object
}

// NewRecord creates a record whose fields are columns[i] = values[i].
// Missing trailing values become Null. The columns slice is retained and
// must not be modified afterwards.
func NewRecord(columns []string, values []Value) *Record {
	obj := make(Object, len(columns))
	for i, c := range columns {
		if i < len(values) && values[i] != nil {
			obj[c] = values[i]
		} else {
			obj[c] = Null{}
		}
	}
	return &Record{columns: columns, values: obj}
}

// NewRecordFromObject creates a record from an object. Field order follows
// columns when given, else canonical key order.
func NewRecordFromObject(columns []string, obj Object) *Record {
	if columns == nil {
		columns = obj.SortedKeys()
	}
	values := make([]Value, len(columns))
	for i, c := range columns {
		values[i] = obj.Get(c)
	}
	return NewRecord(columns, values)
}

// Get returns the value of field key, or Null if the record has no such field.
func (r *Record) Get(key string) Value {
	if r == nil {
		return Null{}
	}
	return r.values.Get(key)
}

// Keys returns the record's field names in column order.
func (r *Record) Keys() []string {
	if r == nil {
		return nil
	}
	return slices.Clone(r.columns)
}

// Object returns a copy of the record's fields.
func (r *Record) Object() Object {
	if r == nil {
		return Object{}
	}
	out := make(Object, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}

// RecordSet is an identity set over records.
type RecordSet map[*Record]struct{}

// NewRecordSet indexes records by identity.
func NewRecordSet(records []*Record) RecordSet {
	set := make(RecordSet, len(records))
	for _, r := range records {
		set[r] = struct{}{}
	}
	return set
}

// Contains reports whether r (by identity) is in the set.
func (s RecordSet) Contains(r *Record) bool {
	_, ok := s[r]
	return ok
}

// Filter returns the records for which keep returns true, preserving order.
func Filter(records []*Record, keep func(*Record) bool) []*Record {
	out := make([]*Record, 0, len(records))
	for _, r := range records {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}
