package crudset

import (
	"context"

	"github.com/mesh-intelligence/crudset/pkg/schema"
)

// Action identifies the mutation a sanitization run is preparing.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
)

// SanitizeContext is passed by value to every pipeline stage. Query is
// the filtered select for the rows about to be mutated; nil on create.
// Owner carries the value given to Bind, nil otherwise. Fixed holds the
// engine's scoping attributes: strict sanitizers exempt those keys from
// their writeable checks, since scoping may set columns the caller is
// not allowed to write. Stages may use Store for their own lookups; the
// pipeline awaits each stage in full before the next begins.
type SanitizeContext struct {
	Store  Store
	Action Action
	Query  *SelectQuery
	Owner  any
	Fixed  map[string]any
}

// WriteSanitizer produces a final write payload from a caller payload.
// Writeset, Sanitizer, BoundSanitizer, Chain, and Policy implement it.
type WriteSanitizer interface {
	Table() *schema.Table
	Sanitize(ctx context.Context, sc SanitizeContext, data map[string]any) (map[string]any, error)
}

// DataStage transforms the whole payload.
type DataStage func(ctx context.Context, sc SanitizeContext, data map[string]any) (map[string]any, error)

// FieldStage transforms one field's value. It runs only when the field
// key is present in the payload at that point.
type FieldStage func(ctx context.Context, sc SanitizeContext, value any) (any, error)

type fieldStage struct {
	field string
	fn    FieldStage
}

// Sanitizer is an ordered write-payload pipeline: data stages, then
// field stages, then the required-field check, then a writeable filter.
// Stages run in registration order within each kind. Registering a
// field stage marks the field writeable; so does Require.
//
// Registration must finish before first use; a Sanitizer is read-only
// once queries flow through it.
type Sanitizer struct {
	table       *schema.Table
	required    []string
	requiredSet map[string]struct{}
	dataStages  []DataStage
	fieldStages []fieldStage
	writeable   map[string]struct{}
}

// NewSanitizer starts an empty pipeline for table.
func NewSanitizer(table *schema.Table) *Sanitizer {
	return &Sanitizer{
		table:       table,
		requiredSet: make(map[string]struct{}),
		writeable:   make(map[string]struct{}),
	}
}

// Table returns the owning table.
func (s *Sanitizer) Table() *schema.Table { return s.table }

// Require marks fields as required: on create they must be present and
// non-nil; on any action a present required field must be non-nil.
// Required fields are also writeable, otherwise they could never be
// supplied through the pipeline.
func (s *Sanitizer) Require(fields ...string) *Sanitizer {
	for _, f := range fields {
		if _, dup := s.requiredSet[f]; dup {
			continue
		}
		s.requiredSet[f] = struct{}{}
		s.required = append(s.required, f)
		s.writeable[f] = struct{}{}
	}
	return s
}

// Writeable marks fields writeable without attaching a transform.
func (s *Sanitizer) Writeable(fields ...string) *Sanitizer {
	for _, f := range fields {
		s.writeable[f] = struct{}{}
	}
	return s
}

// AddDataStage appends a whole-payload transform.
func (s *Sanitizer) AddDataStage(fn DataStage) *Sanitizer {
	s.dataStages = append(s.dataStages, fn)
	return s
}

// AddFieldStage appends a transform for one field and marks the field
// writeable.
func (s *Sanitizer) AddFieldStage(field string, fn FieldStage) *Sanitizer {
	s.fieldStages = append(s.fieldStages, fieldStage{field: field, fn: fn})
	s.writeable[field] = struct{}{}
	return s
}

// Bind returns a sanitizer whose stages see owner in their context.
// This replaces implicit instance binding: call it deliberately
// wherever an owner-scoped sanitizer is needed.
func (s *Sanitizer) Bind(owner any) *BoundSanitizer {
	return &BoundSanitizer{sanitizer: s, owner: owner}
}

// Sanitize runs the pipeline over a copy of data.
func (s *Sanitizer) Sanitize(ctx context.Context, sc SanitizeContext, data map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = v
	}

	var err error
	for _, fn := range s.dataStages {
		out, err = fn(ctx, sc, out)
		if err != nil {
			return nil, err
		}
	}

	for _, fs := range s.fieldStages {
		v, present := out[fs.field]
		if !present {
			continue
		}
		nv, err := fs.fn(ctx, sc, v)
		if err != nil {
			return nil, err
		}
		out[fs.field] = nv
	}

	var missing []string
	for _, f := range s.required {
		v, present := out[f]
		switch {
		case !present && sc.Action == ActionCreate:
			missing = append(missing, f)
		case present && v == nil:
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingRequiredFieldsError{Fields: missing}
	}

	filtered := make(map[string]any, len(out))
	for k, v := range out {
		if _, ok := s.writeable[k]; ok {
			filtered[k] = v
		}
	}
	return filtered, nil
}

// BoundSanitizer is a Sanitizer bound to an owner value. It delegates
// to the underlying pipeline with SanitizeContext.Owner set.
type BoundSanitizer struct {
	sanitizer *Sanitizer
	owner     any
}

// Table returns the owning table.
func (b *BoundSanitizer) Table() *schema.Table { return b.sanitizer.table }

// Owner returns the bound owner value.
func (b *BoundSanitizer) Owner() any { return b.owner }

// Sanitize runs the underlying pipeline with the owner in context.
func (b *BoundSanitizer) Sanitize(ctx context.Context, sc SanitizeContext, data map[string]any) (map[string]any, error) {
	sc.Owner = b.owner
	return b.sanitizer.Sanitize(ctx, sc, data)
}
