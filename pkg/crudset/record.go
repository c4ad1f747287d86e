package crudset

import (
	"bytes"
	"encoding/json"
)

// Record is an ordered mapping from column or reference name to value.
// Single-valued references hold a nested *Record, or nil when the outer
// join matched no row; multi-valued references hold a []*Record.
type Record struct {
	keys   []string
	values map[string]any
}

// NewRecord returns an empty record.
func NewRecord() *Record {
	return &Record{values: make(map[string]any)}
}

// Set stores a value, preserving first-insertion key order.
func (r *Record) Set(key string, value any) {
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = value
}

// Get returns the value and whether the key is present.
func (r *Record) Get(key string) (any, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Value returns the value for key, or nil when absent.
func (r *Record) Value(key string) any { return r.values[key] }

// Ref returns the nested record for a single-valued reference. The
// second result is false when the reference collapsed to null.
func (r *Record) Ref(key string) (*Record, bool) {
	nested, ok := r.values[key].(*Record)
	return nested, ok && nested != nil
}

// Refs returns the nested records for a multi-valued reference.
func (r *Record) Refs(key string) []*Record {
	nested, _ := r.values[key].([]*Record)
	return nested
}

// Keys returns the keys in insertion order. Callers must not modify the
// returned slice.
func (r *Record) Keys() []string { return r.keys }

// Len returns the number of keys.
func (r *Record) Len() int { return len(r.keys) }

// Map returns a plain map copy, with nested records converted
// recursively. Key order is lost; use Keys for ordered access.
func (r *Record) Map() map[string]any {
	m := make(map[string]any, len(r.keys))
	for _, k := range r.keys {
		switch v := r.values[k].(type) {
		case *Record:
			if v == nil {
				m[k] = nil
			} else {
				m[k] = v.Map()
			}
		case []*Record:
			nested := make([]map[string]any, len(v))
			for i, rec := range v {
				nested[i] = rec.Map()
			}
			m[k] = nested
		default:
			m[k] = v
		}
	}
	return m
}

// MarshalJSON renders the record as a JSON object in key order.
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		val, err := json.Marshal(r.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
