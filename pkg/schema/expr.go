package schema

// Op is a comparison or logical operator in an expression tree.
type Op string

const (
	OpEq  Op = "="
	OpNe  Op = "!="
	OpGt  Op = ">"
	OpGe  Op = ">="
	OpLt  Op = "<"
	OpLe  Op = "<="
	OpAnd Op = "AND"
	OpOr  Op = "OR"
)

// Expr is a boolean expression over columns and values. The query
// renderer walks the concrete node types; there is no evaluation here.
type Expr interface {
	isExpr()
}

// BinaryExpr compares a column against a literal value. The value is
// always parameterized when rendered, never inlined.
type BinaryExpr struct {
	Col   *Column
	Op    Op
	Value any
}

// ColumnExpr compares two columns, typically in a join condition.
type ColumnExpr struct {
	Left  *Column
	Op    Op
	Right *Column
}

// InExpr tests membership of a column value in a literal set.
type InExpr struct {
	Col    *Column
	Values []any
}

// LogicalExpr combines sub-expressions with AND or OR.
type LogicalExpr struct {
	Op       Op
	Operands []Expr
}

func (*BinaryExpr) isExpr()  {}
func (*ColumnExpr) isExpr()  {}
func (*InExpr) isExpr()      {}
func (*LogicalExpr) isExpr() {}

// Eq builds column = value.
func (c *Column) Eq(v any) Expr { return &BinaryExpr{Col: c, Op: OpEq, Value: v} }

// Ne builds column != value.
func (c *Column) Ne(v any) Expr { return &BinaryExpr{Col: c, Op: OpNe, Value: v} }

// Gt builds column > value.
func (c *Column) Gt(v any) Expr { return &BinaryExpr{Col: c, Op: OpGt, Value: v} }

// Ge builds column >= value.
func (c *Column) Ge(v any) Expr { return &BinaryExpr{Col: c, Op: OpGe, Value: v} }

// Lt builds column < value.
func (c *Column) Lt(v any) Expr { return &BinaryExpr{Col: c, Op: OpLt, Value: v} }

// Le builds column <= value.
func (c *Column) Le(v any) Expr { return &BinaryExpr{Col: c, Op: OpLe, Value: v} }

// In builds column IN (values...).
func (c *Column) In(values ...any) Expr { return &InExpr{Col: c, Values: values} }

// EqCol builds column = other, the usual shape of a join condition.
func (c *Column) EqCol(other *Column) Expr {
	return &ColumnExpr{Left: c, Op: OpEq, Right: other}
}

// And conjoins expressions. Nil operands are skipped; a single operand
// is returned unwrapped; no operands yields nil (no constraint).
func And(exprs ...Expr) Expr {
	return combine(OpAnd, exprs)
}

// Or disjoins expressions with the same nil and single-operand handling
// as And.
func Or(exprs ...Expr) Expr {
	return combine(OpOr, exprs)
}

func combine(op Op, exprs []Expr) Expr {
	var kept []Expr
	for _, e := range exprs {
		if e != nil {
			kept = append(kept, e)
		}
	}
	switch len(kept) {
	case 0:
		return nil
	case 1:
		return kept[0]
	default:
		return &LogicalExpr{Op: op, Operands: kept}
	}
}
