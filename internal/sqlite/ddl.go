package sqlite

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/crudset/pkg/schema"
)

// ErrNoSuchTable is returned when introspection finds no table.
var ErrNoSuchTable = errors.New("no such table")

// columnType maps a schema type to its SQLite affinity.
func columnType(t schema.ColumnType) string {
	switch t {
	case schema.Integer:
		return "INTEGER"
	case schema.Text:
		return "TEXT"
	case schema.Real:
		return "REAL"
	case schema.Blob:
		return "BLOB"
	case schema.Timestamp:
		return "TIMESTAMP"
	case schema.Boolean:
		return "BOOLEAN"
	default:
		return "TEXT"
	}
}

// CreateTable creates the table if it does not exist. A single integer
// primary key is declared inline so it aliases the rowid and the
// store's LastInsertId reporting matches the column value.
func (s *Store) CreateTable(ctx context.Context, t *schema.Table) error {
	pk := t.PrimaryKey()
	inlinePK := len(pk) == 1

	var defs []string
	for _, col := range t.Columns() {
		def := s.dialect.QuoteIdentifier(col.Name()) + " " + columnType(col.Type())
		if inlinePK && col.IsPrimaryKey() {
			def += " PRIMARY KEY"
		}
		defs = append(defs, def)
	}
	if !inlinePK && len(pk) > 0 {
		names := make([]string, len(pk))
		for i, col := range pk {
			names[i] = s.dialect.QuoteIdentifier(col.Name())
		}
		defs = append(defs, "PRIMARY KEY ("+strings.Join(names, ", ")+")")
	}

	stmt := "CREATE TABLE IF NOT EXISTS " + s.dialect.QuoteIdentifier(t.Name()) +
		" (" + strings.Join(defs, ", ") + ")"
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("creating table %s: %w", t.Name(), err)
	}
	return nil
}

// schemaType maps a declared SQLite column type back to a schema type.
func schemaType(decl string) schema.ColumnType {
	d := strings.ToUpper(decl)
	switch {
	case strings.Contains(d, "INT"):
		return schema.Integer
	case strings.Contains(d, "TIMESTAMP"), strings.Contains(d, "DATE"):
		return schema.Timestamp
	case strings.Contains(d, "BOOL"):
		return schema.Boolean
	case strings.Contains(d, "REAL"), strings.Contains(d, "FLOA"), strings.Contains(d, "DOUB"):
		return schema.Real
	case strings.Contains(d, "BLOB"):
		return schema.Blob
	default:
		return schema.Text
	}
}

// Introspect builds a Table from the live database schema, so tools can
// operate on tables they did not declare. Column and primary-key order
// follow the table definition.
func (s *Store) Introspect(ctx context.Context, name string) (*schema.Table, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT name, type, pk FROM pragma_table_info(?) ORDER BY cid", name)
	if err != nil {
		return nil, fmt.Errorf("introspecting %s: %w", name, err)
	}
	defer rows.Close()

	var cols []*schema.Column
	for rows.Next() {
		var colName, decl string
		var pk int
		if err := rows.Scan(&colName, &decl, &pk); err != nil {
			return nil, fmt.Errorf("introspecting %s: %w", name, err)
		}
		var opts []schema.ColumnOption
		if pk > 0 {
			opts = append(opts, schema.PrimaryKey())
		}
		cols = append(cols, schema.Col(colName, schemaType(decl), opts...))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("introspecting %s: %w", name, err)
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("introspecting %s: %w", name, ErrNoSuchTable)
	}
	return schema.New(name, cols...)
}
