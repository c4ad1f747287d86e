package crudset

import (
	"fmt"

	"github.com/mesh-intelligence/crudset/pkg/schema"
)

// Ref describes how a named reference reaches a related Readset: the
// join condition between the two tables and whether the relationship is
// single-valued (resolved by outer join in the same query) or
// multi-valued (resolved by a secondary grouped query).
type Ref struct {
	Readset  *Readset
	Join     schema.Expr
	Multiple bool
}

type namedRef struct {
	name string
	ref  Ref
}

// Readset declares the readable columns of one table plus named
// references to related Readsets. The reference name becomes both the
// join alias and the nested key in reconstructed results. Immutable
// once built.
//
// No cycle detection is performed: a cyclic reference graph produces
// unbounded join composition and is a caller error.
type Readset struct {
	table    *schema.Table
	readable []*schema.Column
	refs     []namedRef
	refIndex map[string]int
}

// ReadsetOption configures a Readset at construction.
type ReadsetOption func(*Readset) error

// WithColumns restricts the readable set to the named columns, in the
// given order. Without it every table column is readable.
func WithColumns(names ...string) ReadsetOption {
	return func(rs *Readset) error {
		cols := make([]*schema.Column, 0, len(names))
		for _, name := range names {
			col, err := rs.table.Column(name)
			if err != nil {
				return err
			}
			cols = append(cols, col)
		}
		rs.readable = cols
		return nil
	}
}

// WithRef adds a named reference. Registration order is the join and
// reconstruction order.
func WithRef(name string, ref Ref) ReadsetOption {
	return func(rs *Readset) error {
		if name == "" {
			return fmt.Errorf("reference name must not be empty")
		}
		if _, dup := rs.refIndex[name]; dup {
			return fmt.Errorf("duplicate reference name %q", name)
		}
		if ref.Readset == nil {
			return fmt.Errorf("reference %q has no readset", name)
		}
		if ref.Join == nil {
			return fmt.Errorf("reference %q has no join condition", name)
		}
		rs.refIndex[name] = len(rs.refs)
		rs.refs = append(rs.refs, namedRef{name: name, ref: ref})
		return nil
	}
}

// NewReadset declares the read shape of table. With no options the
// whole table is readable and there are no references.
func NewReadset(table *schema.Table, opts ...ReadsetOption) (*Readset, error) {
	rs := &Readset{
		table:    table,
		readable: table.Columns(),
		refIndex: make(map[string]int),
	}
	for _, opt := range opts {
		if err := opt(rs); err != nil {
			return nil, fmt.Errorf("readset on %s: %w", table.Name(), err)
		}
	}
	return rs, nil
}

// Table returns the owning table.
func (rs *Readset) Table() *schema.Table { return rs.table }

// ReadableColumns returns the readable columns in declaration order.
func (rs *Readset) ReadableColumns() []*schema.Column { return rs.readable }

// RefNames returns reference names in registration order.
func (rs *Readset) RefNames() []string {
	names := make([]string, len(rs.refs))
	for i, nr := range rs.refs {
		names[i] = nr.name
	}
	return names
}

// RefByName returns the named reference.
func (rs *Readset) RefByName(name string) (Ref, bool) {
	i, ok := rs.refIndex[name]
	if !ok {
		return Ref{}, false
	}
	return rs.refs[i].ref, true
}
