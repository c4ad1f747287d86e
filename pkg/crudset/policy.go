package crudset

import (
	"context"
	"fmt"
	"sort"

	"github.com/mesh-intelligence/crudset/pkg/schema"
)

// Policy is the earlier-generation capability object: one table with
// required, readable, and writeable field sets and the invariant
// writeable ⊆ readable. Unlike the Writeset path, a Policy-backed write
// rejects fields outside the writeable set with NotEditableError.
//
// Narrow derives stricter policies; composition can never loosen one.
type Policy struct {
	table        *schema.Table
	required     []string
	requiredSet  map[string]struct{}
	readable     []string
	readableSet  map[string]struct{}
	writeable    []string
	writeableSet map[string]struct{}
}

type policyConfig struct {
	required  []string
	readable  *[]string
	writeable *[]string
}

// PolicyOption configures NewPolicy and Narrow.
type PolicyOption func(*policyConfig)

// Required marks fields as required (additive across Narrow calls).
func Required(fields ...string) PolicyOption {
	return func(c *policyConfig) { c.required = append(c.required, fields...) }
}

// Readable sets the readable field list. Omitting it means every table
// column (NewPolicy) or the base policy's readable set (Narrow).
func Readable(fields ...string) PolicyOption {
	return func(c *policyConfig) {
		fs := append([]string(nil), fields...)
		c.readable = &fs
	}
}

// Writeable sets the writeable field list. Omitting it means the full
// readable set (NewPolicy) or the base policy's writeable set (Narrow).
func Writeable(fields ...string) PolicyOption {
	return func(c *policyConfig) {
		fs := append([]string(nil), fields...)
		c.writeable = &fs
	}
}

// NewPolicy builds a policy for table. Every named field must be a
// column of the table, and writeable must be a subset of readable.
func NewPolicy(table *schema.Table, opts ...PolicyOption) (*Policy, error) {
	var cfg policyConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	readable := cfg.readable
	if readable == nil {
		names := make([]string, 0, len(table.Columns()))
		for _, col := range table.Columns() {
			names = append(names, col.Name())
		}
		readable = &names
	}
	writeable := cfg.writeable
	if writeable == nil {
		ws := append([]string(nil), *readable...)
		writeable = &ws
	}

	p := &Policy{
		table:        table,
		requiredSet:  make(map[string]struct{}),
		readableSet:  make(map[string]struct{}),
		writeableSet: make(map[string]struct{}),
	}
	for _, name := range *readable {
		if table.C(name) == nil {
			return nil, fmt.Errorf("policy on %s: %w: %s", table.Name(), schema.ErrUnknownColumn, name)
		}
		if _, dup := p.readableSet[name]; dup {
			continue
		}
		p.readableSet[name] = struct{}{}
		p.readable = append(p.readable, name)
	}
	for _, name := range *writeable {
		if _, ok := p.readableSet[name]; !ok {
			return nil, fmt.Errorf("policy on %s: writeable field %s is not readable: %w",
				table.Name(), name, ErrPolicyViolation)
		}
		if _, dup := p.writeableSet[name]; dup {
			continue
		}
		p.writeableSet[name] = struct{}{}
		p.writeable = append(p.writeable, name)
	}
	for _, name := range cfg.required {
		if table.C(name) == nil {
			return nil, fmt.Errorf("policy on %s: %w: %s", table.Name(), schema.ErrUnknownColumn, name)
		}
		if _, dup := p.requiredSet[name]; dup {
			continue
		}
		p.requiredSet[name] = struct{}{}
		p.required = append(p.required, name)
	}
	return p, nil
}

// Table returns the owning table.
func (p *Policy) Table() *schema.Table { return p.table }

// RequiredFields returns the required field names in declaration order.
func (p *Policy) RequiredFields() []string { return p.required }

// ReadableFields returns the readable field names in declaration order.
func (p *Policy) ReadableFields() []string { return p.readable }

// WriteableFields returns the writeable field names in declaration order.
func (p *Policy) WriteableFields() []string { return p.writeable }

// Narrow derives a stricter policy: the new readable and writeable sets
// must be subsets of the base sets, and required fields accumulate.
// A violation returns ErrPolicyViolation.
func (p *Policy) Narrow(opts ...PolicyOption) (*Policy, error) {
	var cfg policyConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	readable := p.readable
	if cfg.readable != nil {
		for _, name := range *cfg.readable {
			if _, ok := p.readableSet[name]; !ok {
				return nil, fmt.Errorf("narrowed readable field %s is outside the base policy: %w",
					name, ErrPolicyViolation)
			}
		}
		readable = *cfg.readable
	}

	var writeable []string
	if cfg.writeable != nil {
		for _, name := range *cfg.writeable {
			if _, ok := p.writeableSet[name]; !ok {
				return nil, fmt.Errorf("narrowed writeable field %s is outside the base policy: %w",
					name, ErrPolicyViolation)
			}
		}
		writeable = *cfg.writeable
	} else {
		// Inherited writeable fields must stay inside the narrowed
		// readable set to keep the construction invariant.
		narrowed := make(map[string]struct{}, len(readable))
		for _, name := range readable {
			narrowed[name] = struct{}{}
		}
		for _, name := range p.writeable {
			if _, ok := narrowed[name]; ok {
				writeable = append(writeable, name)
			}
		}
	}

	required := append(append([]string(nil), p.required...), cfg.required...)
	return NewPolicy(p.table,
		Required(required...),
		Readable(readable...),
		Writeable(writeable...))
}

// Sanitize enforces the strict write contract: every payload field must
// be writeable, required fields follow the create/update rules, and the
// payload passes through otherwise unchanged. Fields fixed by the
// engine's scoping (SanitizeContext.Fixed) are exempt: a scope may pin
// columns the caller could never write directly.
func (p *Policy) Sanitize(_ context.Context, sc SanitizeContext, data map[string]any) (map[string]any, error) {
	var notEditable []string
	out := make(map[string]any, len(data))
	for k, v := range data {
		if _, ok := p.writeableSet[k]; !ok {
			if _, fixed := sc.Fixed[k]; !fixed {
				notEditable = append(notEditable, k)
				continue
			}
		}
		out[k] = v
	}
	if len(notEditable) > 0 {
		sort.Strings(notEditable)
		return nil, &NotEditableError{Fields: notEditable}
	}

	var missing []string
	for _, f := range p.required {
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
	return out, nil
}

// Readset adapts the policy's readable set into the evolved Readset
// form so a single Crud implementation serves both generations.
func (p *Policy) Readset() *Readset {
	rs, err := NewReadset(p.table, WithColumns(p.readable...))
	if err != nil {
		// Names were validated at policy construction.
		panic(err)
	}
	return rs
}

// Crud binds the policy to a Crud: its readable set drives queries and
// its strict sanitize drives writes.
func (p *Policy) Crud(opts ...CrudOption) (*Crud, error) {
	return NewCrud(p.Readset(), p, opts...)
}
