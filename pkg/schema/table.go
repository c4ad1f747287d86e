package schema

import (
	"errors"
	"fmt"
)

// ColumnType enumerates the storage types a column can carry.
type ColumnType int

const (
	Integer ColumnType = iota
	Text
	Real
	Blob
	Timestamp
	Boolean
)

// Schema declaration errors.
var (
	ErrEmptyTableName  = errors.New("table name must not be empty")
	ErrNoColumns       = errors.New("table must declare at least one column")
	ErrDuplicateColumn = errors.New("duplicate column name")
	ErrUnknownColumn   = errors.New("unknown column")
)

// Column is one named, typed column of a Table. A Column belongs to
// exactly one table; the same *Column value is used to build filter and
// join expressions, so identity matters more than the name alone.
type Column struct {
	table      *Table
	name       string
	ctype      ColumnType
	primaryKey bool
}

// Name returns the declared column name.
func (c *Column) Name() string { return c.name }

// Table returns the owning table.
func (c *Column) Table() *Table { return c.table }

// Type returns the declared column type.
func (c *Column) Type() ColumnType { return c.ctype }

// IsPrimaryKey reports whether the column is part of the primary key.
func (c *Column) IsPrimaryKey() bool { return c.primaryKey }

// ColumnOption configures a column at declaration time.
type ColumnOption func(*Column)

// PrimaryKey marks the column as part of the table's primary key.
func PrimaryKey() ColumnOption {
	return func(c *Column) { c.primaryKey = true }
}

// Col declares a column for use with New. The column is not usable until
// it has been attached to a table.
func Col(name string, ctype ColumnType, opts ...ColumnOption) *Column {
	c := &Column{name: name, ctype: ctype}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Table is a named relation with an ordered set of columns and a primary
// key subset. Immutable after New returns.
type Table struct {
	name    string
	columns []*Column
	byName  map[string]*Column
	pk      []*Column
}

// New builds a table from declared columns. Column order is preserved;
// it is the order readsets and results use by default.
func New(name string, cols ...*Column) (*Table, error) {
	if name == "" {
		return nil, ErrEmptyTableName
	}
	if len(cols) == 0 {
		return nil, ErrNoColumns
	}
	t := &Table{
		name:   name,
		byName: make(map[string]*Column, len(cols)),
	}
	for _, c := range cols {
		if _, dup := t.byName[c.name]; dup {
			return nil, fmt.Errorf("table %s: %w: %s", name, ErrDuplicateColumn, c.name)
		}
		c.table = t
		t.byName[c.name] = c
		t.columns = append(t.columns, c)
		if c.primaryKey {
			t.pk = append(t.pk, c)
		}
	}
	return t, nil
}

// MustNew is New for declaration sites where a malformed table is a
// programming error.
func MustNew(name string, cols ...*Column) *Table {
	t, err := New(name, cols...)
	if err != nil {
		panic(err)
	}
	return t
}

// Name returns the table name.
func (t *Table) Name() string { return t.name }

// Columns returns the columns in declaration order. Callers must not
// modify the returned slice.
func (t *Table) Columns() []*Column { return t.columns }

// PrimaryKey returns the primary-key columns in declaration order.
func (t *Table) PrimaryKey() []*Column { return t.pk }

// C returns the named column, or nil if the table has no such column.
func (t *Table) C(name string) *Column { return t.byName[name] }

// Column returns the named column or ErrUnknownColumn.
func (t *Table) Column(name string) (*Column, error) {
	c, ok := t.byName[name]
	if !ok {
		return nil, fmt.Errorf("table %s: %w: %s", t.name, ErrUnknownColumn, name)
	}
	return c, nil
}
