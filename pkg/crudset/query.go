package crudset

import (
	"fmt"
	"strings"

	"github.com/mesh-intelligence/crudset/pkg/schema"
)

// Query is a statement the engine hands to a Store. Build renders it
// for a dialect; values are always parameterized, never inlined.
type Query interface {
	Build(d Dialect) (string, []any, error)
}

// Dialect captures the SQL flavor differences the engine cares about:
// parameter placeholders, identifier quoting, and the clause a bare
// OFFSET needs.
type Dialect interface {
	// Placeholder returns the parameter placeholder for index (1-based).
	Placeholder(index int) string
	// QuoteIdentifier wraps a table or column name for the dialect.
	QuoteIdentifier(name string) string
	// UnboundedLimit returns the LIMIT clause emitted before an OFFSET
	// when no limit is set, for dialects whose OFFSET requires one.
	// Empty means OFFSET may stand alone.
	UnboundedLimit() string
}

// SQLiteDialect uses ? placeholders and double-quoted identifiers.
type SQLiteDialect struct{}

func (SQLiteDialect) Placeholder(int) string { return "?" }

func (SQLiteDialect) QuoteIdentifier(name string) string { return `"` + name + `"` }

// SQLite's OFFSET requires a LIMIT clause; -1 means unbounded.
func (SQLiteDialect) UnboundedLimit() string { return "LIMIT -1" }

// PostgresDialect uses $1, $2 placeholders and double-quoted identifiers.
type PostgresDialect struct{}

func (PostgresDialect) Placeholder(index int) string { return fmt.Sprintf("$%d", index) }

func (PostgresDialect) QuoteIdentifier(name string) string { return `"` + name + `"` }

func (PostgresDialect) UnboundedLimit() string { return "" }

// selCol is one projected column: read from a table alias, optionally
// labeled to keep joined column names distinct in the output.
type selCol struct {
	col   *schema.Column
	alias string
	label string
}

type joinClause struct {
	table *schema.Table
	alias string
	on    schema.Expr
}

type ordering struct {
	col  *schema.Column
	desc bool
}

// SelectQuery is a select (or count) over one table plus zero or more
// outer joins. The fluent methods return modified copies, so a memoized
// base query is safe to extend per call.
type SelectQuery struct {
	table  *schema.Table
	cols   []selCol
	joins  []joinClause
	where  schema.Expr
	order  []ordering
	limit  int
	offset int
	count  bool
}

// NewSelect starts a select over table with no projected columns.
func NewSelect(table *schema.Table) *SelectQuery {
	return &SelectQuery{table: table}
}

func (q *SelectQuery) clone() *SelectQuery {
	c := *q
	c.cols = append([]selCol(nil), q.cols...)
	c.joins = append([]joinClause(nil), q.joins...)
	c.order = append([]ordering(nil), q.order...)
	return &c
}

// addColumn projects col read from the table known under alias. A
// non-empty label renders as AS "label".
func (q *SelectQuery) addColumn(alias string, col *schema.Column, label string) {
	q.cols = append(q.cols, selCol{col: col, alias: alias, label: label})
}

// addJoin appends a LEFT OUTER JOIN of table under alias.
func (q *SelectQuery) addJoin(alias string, table *schema.Table, on schema.Expr) {
	q.joins = append(q.joins, joinClause{table: table, alias: alias, on: on})
}

// Columns returns a copy additionally projecting cols. Every column
// must belong to the owning table; joined columns are projected by the
// engine itself.
func (q *SelectQuery) Columns(cols ...*schema.Column) *SelectQuery {
	c := q.clone()
	for _, col := range cols {
		c.cols = append(c.cols, selCol{col: col, alias: c.table.Name()})
	}
	return c
}

// Where returns a copy further filtered by e (AND-combined with any
// existing filter). A nil e returns an unchanged copy.
func (q *SelectQuery) Where(e schema.Expr) *SelectQuery {
	c := q.clone()
	c.where = schema.And(c.where, e)
	return c
}

// OrderBy returns a copy with an additional ordering term.
func (q *SelectQuery) OrderBy(col *schema.Column, desc bool) *SelectQuery {
	c := q.clone()
	c.order = append(c.order, ordering{col: col, desc: desc})
	return c
}

// Limit returns a copy limited to n rows. n <= 0 means no limit.
func (q *SelectQuery) Limit(n int) *SelectQuery {
	c := q.clone()
	c.limit = n
	return c
}

// Offset returns a copy skipping the first n rows.
func (q *SelectQuery) Offset(n int) *SelectQuery {
	c := q.clone()
	c.offset = n
	return c
}

// Count returns a copy that renders as SELECT COUNT(*), ignoring
// projections, ordering, limit, and offset.
func (q *SelectQuery) Count() *SelectQuery {
	c := q.clone()
	c.count = true
	return c
}

// Table returns the table the select reads from.
func (q *SelectQuery) Table() *schema.Table { return q.table }

// aliasMap resolves each reachable table to the alias it is read under.
// Joining the same table twice (including self-joins) is not supported:
// columns are table-bound, so a second alias would be ambiguous.
func (q *SelectQuery) aliasMap() (map[*schema.Table]string, error) {
	aliases := map[*schema.Table]string{q.table: q.table.Name()}
	for _, j := range q.joins {
		if _, dup := aliases[j.table]; dup {
			return nil, fmt.Errorf("table %s joined more than once", j.table.Name())
		}
		aliases[j.table] = j.alias
	}
	return aliases, nil
}

// Build renders the select for the dialect.
func (q *SelectQuery) Build(d Dialect) (string, []any, error) {
	aliases, err := q.aliasMap()
	if err != nil {
		return "", nil, err
	}

	var sb strings.Builder
	var args []any

	if q.count {
		sb.WriteString("SELECT COUNT(*)")
	} else {
		if len(q.cols) == 0 {
			return "", nil, fmt.Errorf("select on %s has no columns", q.table.Name())
		}
		sb.WriteString("SELECT ")
		for i, c := range q.cols {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(d.QuoteIdentifier(c.alias) + "." + d.QuoteIdentifier(c.col.Name()))
			if c.label != "" {
				sb.WriteString(" AS " + d.QuoteIdentifier(c.label))
			}
		}
	}

	sb.WriteString(" FROM " + d.QuoteIdentifier(q.table.Name()))

	for _, j := range q.joins {
		on, err := renderExpr(j.on, d, aliases, &args)
		if err != nil {
			return "", nil, fmt.Errorf("join %s: %w", j.alias, err)
		}
		sb.WriteString(" LEFT OUTER JOIN " + d.QuoteIdentifier(j.table.Name()) +
			" AS " + d.QuoteIdentifier(j.alias) + " ON " + on)
	}

	if q.where != nil {
		where, err := renderExpr(q.where, d, aliases, &args)
		if err != nil {
			return "", nil, err
		}
		sb.WriteString(" WHERE " + where)
	}

	if q.count {
		return sb.String(), args, nil
	}

	if len(q.order) > 0 {
		sb.WriteString(" ORDER BY ")
		for i, o := range q.order {
			if i > 0 {
				sb.WriteString(", ")
			}
			alias, ok := aliases[o.col.Table()]
			if !ok {
				return "", nil, fmt.Errorf("order column %s.%s not reachable in query",
					o.col.Table().Name(), o.col.Name())
			}
			sb.WriteString(d.QuoteIdentifier(alias) + "." + d.QuoteIdentifier(o.col.Name()))
			if o.desc {
				sb.WriteString(" DESC")
			} else {
				sb.WriteString(" ASC")
			}
		}
	}

	if q.limit > 0 {
		args = append(args, q.limit)
		sb.WriteString(" LIMIT " + d.Placeholder(len(args)))
	} else if q.offset > 0 {
		if ul := d.UnboundedLimit(); ul != "" {
			sb.WriteString(" " + ul)
		}
	}
	if q.offset > 0 {
		args = append(args, q.offset)
		sb.WriteString(" OFFSET " + d.Placeholder(len(args)))
	}

	return sb.String(), args, nil
}

// InsertQuery inserts one row. Values whose keys are not columns of the
// table fail at Build time.
type InsertQuery struct {
	table  *schema.Table
	values map[string]any
}

// NewInsert builds an insert of values into table. The map is copied.
func NewInsert(table *schema.Table, values map[string]any) *InsertQuery {
	v := make(map[string]any, len(values))
	for k, val := range values {
		v[k] = val
	}
	return &InsertQuery{table: table, values: v}
}

// Table returns the target table.
func (q *InsertQuery) Table() *schema.Table { return q.table }

// Values returns a copy of the row being inserted.
func (q *InsertQuery) Values() map[string]any {
	v := make(map[string]any, len(q.values))
	for k, val := range q.values {
		v[k] = val
	}
	return v
}

// Build renders the insert. Columns follow table declaration order so
// the statement is deterministic.
func (q *InsertQuery) Build(d Dialect) (string, []any, error) {
	if err := checkColumns(q.table, q.values); err != nil {
		return "", nil, err
	}
	if len(q.values) == 0 {
		return "INSERT INTO " + d.QuoteIdentifier(q.table.Name()) + " DEFAULT VALUES", nil, nil
	}

	var names, holders []string
	var args []any
	for _, col := range q.table.Columns() {
		v, ok := q.values[col.Name()]
		if !ok {
			continue
		}
		args = append(args, v)
		names = append(names, d.QuoteIdentifier(col.Name()))
		holders = append(holders, d.Placeholder(len(args)))
	}
	sql := "INSERT INTO " + d.QuoteIdentifier(q.table.Name()) +
		" (" + strings.Join(names, ", ") + ") VALUES (" + strings.Join(holders, ", ") + ")"
	return sql, args, nil
}

// UpdateQuery updates rows matching where with values.
type UpdateQuery struct {
	table  *schema.Table
	values map[string]any
	where  schema.Expr
}

// NewUpdate builds an update of table rows matching where. A nil where
// updates every row. The values map is copied.
func NewUpdate(table *schema.Table, values map[string]any, where schema.Expr) *UpdateQuery {
	v := make(map[string]any, len(values))
	for k, val := range values {
		v[k] = val
	}
	return &UpdateQuery{table: table, values: v, where: where}
}

// Table returns the target table.
func (q *UpdateQuery) Table() *schema.Table { return q.table }

// Build renders the update.
func (q *UpdateQuery) Build(d Dialect) (string, []any, error) {
	if len(q.values) == 0 {
		return "", nil, fmt.Errorf("update on %s has no values", q.table.Name())
	}
	if err := checkColumns(q.table, q.values); err != nil {
		return "", nil, err
	}

	var sb strings.Builder
	var args []any
	sb.WriteString("UPDATE " + d.QuoteIdentifier(q.table.Name()) + " SET ")
	first := true
	for _, col := range q.table.Columns() {
		v, ok := q.values[col.Name()]
		if !ok {
			continue
		}
		if !first {
			sb.WriteString(", ")
		}
		first = false
		args = append(args, v)
		sb.WriteString(d.QuoteIdentifier(col.Name()) + " = " + d.Placeholder(len(args)))
	}
	if q.where != nil {
		aliases := map[*schema.Table]string{q.table: q.table.Name()}
		where, err := renderExpr(q.where, d, aliases, &args)
		if err != nil {
			return "", nil, err
		}
		sb.WriteString(" WHERE " + where)
	}
	return sb.String(), args, nil
}

// DeleteQuery deletes rows matching where.
type DeleteQuery struct {
	table *schema.Table
	where schema.Expr
}

// NewDelete builds a delete of table rows matching where. A nil where
// deletes every row.
func NewDelete(table *schema.Table, where schema.Expr) *DeleteQuery {
	return &DeleteQuery{table: table, where: where}
}

// Table returns the target table.
func (q *DeleteQuery) Table() *schema.Table { return q.table }

// Build renders the delete.
func (q *DeleteQuery) Build(d Dialect) (string, []any, error) {
	var args []any
	sql := "DELETE FROM " + d.QuoteIdentifier(q.table.Name())
	if q.where != nil {
		aliases := map[*schema.Table]string{q.table: q.table.Name()}
		where, err := renderExpr(q.where, d, aliases, &args)
		if err != nil {
			return "", nil, err
		}
		sql += " WHERE " + where
	}
	return sql, args, nil
}

func checkColumns(table *schema.Table, values map[string]any) error {
	for k := range values {
		if table.C(k) == nil {
			return fmt.Errorf("table %s: %w: %s", table.Name(), schema.ErrUnknownColumn, k)
		}
	}
	return nil
}

// renderExpr walks an expression tree, appending bound values to args.
func renderExpr(e schema.Expr, d Dialect, aliases map[*schema.Table]string, args *[]any) (string, error) {
	switch x := e.(type) {
	case *schema.BinaryExpr:
		col, err := qualify(x.Col, d, aliases)
		if err != nil {
			return "", err
		}
		if x.Value == nil {
			switch x.Op {
			case schema.OpEq:
				return col + " IS NULL", nil
			case schema.OpNe:
				return col + " IS NOT NULL", nil
			default:
				return "", fmt.Errorf("nil value with operator %s on column %s", x.Op, x.Col.Name())
			}
		}
		*args = append(*args, x.Value)
		return col + " " + string(x.Op) + " " + d.Placeholder(len(*args)), nil

	case *schema.ColumnExpr:
		left, err := qualify(x.Left, d, aliases)
		if err != nil {
			return "", err
		}
		right, err := qualify(x.Right, d, aliases)
		if err != nil {
			return "", err
		}
		return left + " " + string(x.Op) + " " + right, nil

	case *schema.InExpr:
		if len(x.Values) == 0 {
			// IN over the empty set matches nothing.
			return "1 = 0", nil
		}
		col, err := qualify(x.Col, d, aliases)
		if err != nil {
			return "", err
		}
		holders := make([]string, len(x.Values))
		for i, v := range x.Values {
			*args = append(*args, v)
			holders[i] = d.Placeholder(len(*args))
		}
		return col + " IN (" + strings.Join(holders, ", ") + ")", nil

	case *schema.LogicalExpr:
		parts := make([]string, 0, len(x.Operands))
		for _, op := range x.Operands {
			s, err := renderExpr(op, d, aliases, args)
			if err != nil {
				return "", err
			}
			parts = append(parts, "("+s+")")
		}
		return strings.Join(parts, " "+string(x.Op)+" "), nil

	default:
		return "", fmt.Errorf("unknown expression type %T", e)
	}
}

func qualify(col *schema.Column, d Dialect, aliases map[*schema.Table]string) (string, error) {
	alias, ok := aliases[col.Table()]
	if !ok {
		return "", fmt.Errorf("column %s.%s not reachable in query", col.Table().Name(), col.Name())
	}
	return d.QuoteIdentifier(alias) + "." + d.QuoteIdentifier(col.Name()), nil
}
