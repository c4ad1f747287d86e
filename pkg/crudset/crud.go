package crudset

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/mesh-intelligence/crudset/pkg/schema"
)

// layoutCol pairs a projected column with the reference it belongs to
// ("" for the owning table). The base query and its layout are built in
// lockstep; reconstruction walks the layout against each result row.
type layoutCol struct {
	ref string
	col *schema.Column
}

// CrudOption configures a Crud at construction.
type CrudOption func(*Crud)

// WithTableAttr injects an extra key carrying the (possibly remapped)
// table name into each reconstructed object, top-level and nested.
func WithTableAttr(key string) CrudOption {
	return func(c *Crud) { c.tableAttr = key }
}

// WithTableMap remaps table names reported through the table attribute.
func WithTableMap(m map[*schema.Table]string) CrudOption {
	return func(c *Crud) { c.tableMap = m }
}

// Crud binds a Readset and a write sanitizer for one table and exposes
// the create/fetch/count/update/delete operations. Fixed attributes
// scope every query and write to constant column values; Fix derives a
// new instance and never mutates the receiver, so a Crud cached in a
// router cannot observe later fixes.
//
// Instances are cheap: the joined base query is computed lazily, once,
// and each Fix result carries its own uncomputed cache.
type Crud struct {
	readset   *Readset
	sanitizer WriteSanitizer
	tableAttr string
	tableMap  map[*schema.Table]string
	fixed     map[string]any

	baseOnce sync.Once
	base     *SelectQuery
	layout   []layoutCol
	baseErr  error
}

// NewCrud binds readset and sanitizer. Their tables must match.
func NewCrud(readset *Readset, sanitizer WriteSanitizer, opts ...CrudOption) (*Crud, error) {
	if readset.Table() != sanitizer.Table() {
		return nil, fmt.Errorf("readset targets %s, sanitizer targets %s: %w",
			readset.Table().Name(), sanitizer.Table().Name(), ErrTableMismatch)
	}
	c := &Crud{
		readset:   readset,
		sanitizer: sanitizer,
		fixed:     make(map[string]any),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Table returns the owning table.
func (c *Crud) Table() *schema.Table { return c.readset.Table() }

// Readset returns the bound readset.
func (c *Crud) Readset() *Readset { return c.readset }

// Fixed returns a copy of the fixed attribute map.
func (c *Crud) Fixed() map[string]any {
	out := make(map[string]any, len(c.fixed))
	for k, v := range c.fixed {
		out[k] = v
	}
	return out
}

// Fix returns a new Crud whose fixed map is attrs merged over the
// receiver's, new values winning. Repeated calls compose; the receiver
// is never modified.
func (c *Crud) Fix(attrs map[string]any) *Crud {
	fixed := make(map[string]any, len(c.fixed)+len(attrs))
	for k, v := range c.fixed {
		fixed[k] = v
	}
	for k, v := range attrs {
		fixed[k] = v
	}
	return &Crud{
		readset:   c.readset,
		sanitizer: c.sanitizer,
		tableAttr: c.tableAttr,
		tableMap:  c.tableMap,
		fixed:     fixed,
	}
}

// fixedExpr renders the fixed attributes as an AND of equality
// constraints on the owning table, in sorted key order so generated SQL
// is deterministic.
func (c *Crud) fixedExpr() (schema.Expr, error) {
	if len(c.fixed) == 0 {
		return nil, nil
	}
	keys := make([]string, 0, len(c.fixed))
	for k := range c.fixed {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	exprs := make([]schema.Expr, 0, len(keys))
	for _, k := range keys {
		col, err := c.Table().Column(k)
		if err != nil {
			return nil, fmt.Errorf("fixed attribute: %w", err)
		}
		exprs = append(exprs, col.Eq(c.fixed[k]))
	}
	return schema.And(exprs...), nil
}

// baseQuery builds (once) the joined select: owning readable columns
// unlabeled, then each single-valued reference outer-joined with its
// readable columns labeled by reference name, with the fixed
// constraints baked into the filter.
func (c *Crud) baseQuery() (*SelectQuery, []layoutCol, error) {
	c.baseOnce.Do(func() {
		table := c.Table()
		q := NewSelect(table)
		var layout []layoutCol

		for _, col := range c.readset.ReadableColumns() {
			q.addColumn(table.Name(), col, "")
			layout = append(layout, layoutCol{ref: "", col: col})
		}
		for _, name := range c.readset.RefNames() {
			ref, _ := c.readset.RefByName(name)
			if ref.Multiple {
				continue
			}
			q.addJoin(name, ref.Readset.Table(), ref.Join)
			for _, col := range ref.Readset.ReadableColumns() {
				q.addColumn(name, col, name+"_"+col.Name())
				layout = append(layout, layoutCol{ref: name, col: col})
			}
		}

		fixed, err := c.fixedExpr()
		if err != nil {
			c.baseErr = err
			return
		}
		c.base = q.Where(fixed)
		c.layout = layout
	})
	return c.base, c.layout, c.baseErr
}

// fetchConfig holds the optional fetch parameters beyond the filter.
type fetchConfig struct {
	order  []ordering
	limit  int
	offset int
}

// FetchOption adjusts ordering and paging of a Fetch.
type FetchOption func(*fetchConfig)

// OrderBy sorts ascending by col; repeatable for secondary orderings.
func OrderBy(col *schema.Column) FetchOption {
	return func(fc *fetchConfig) { fc.order = append(fc.order, ordering{col: col}) }
}

// OrderByDesc sorts descending by col.
func OrderByDesc(col *schema.Column) FetchOption {
	return func(fc *fetchConfig) { fc.order = append(fc.order, ordering{col: col, desc: true}) }
}

// Limit caps the number of fetched rows.
func Limit(n int) FetchOption {
	return func(fc *fetchConfig) { fc.limit = n }
}

// Offset skips the first n rows.
func Offset(n int) FetchOption {
	return func(fc *fetchConfig) { fc.offset = n }
}

// Fetch returns the records matching where (nil for no extra filter),
// reconstructed into nested form, in query order.
func (c *Crud) Fetch(ctx context.Context, store Store, where schema.Expr, opts ...FetchOption) ([]*Record, error) {
	base, layout, err := c.baseQuery()
	if err != nil {
		return nil, err
	}
	var fc fetchConfig
	for _, opt := range opts {
		opt(&fc)
	}

	q := base.Where(where)
	for _, o := range fc.order {
		q = q.OrderBy(o.col, o.desc)
	}
	if fc.limit > 0 {
		q = q.Limit(fc.limit)
	}
	if fc.offset > 0 {
		q = q.Offset(fc.offset)
	}

	res, err := store.Execute(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", c.Table().Name(), err)
	}
	rows, err := res.All()
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", c.Table().Name(), err)
	}

	records := make([]*Record, 0, len(rows))
	for _, row := range rows {
		rec, err := c.reconstruct(layout, row)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if err := c.attachMultiRefs(ctx, store, records); err != nil {
		return nil, err
	}
	return records, nil
}

// Count returns the number of rows matching where under the fixed
// constraints. Ordering and paging do not apply.
func (c *Crud) Count(ctx context.Context, store Store, where schema.Expr) (int64, error) {
	base, _, err := c.baseQuery()
	if err != nil {
		return 0, err
	}
	res, err := store.Execute(ctx, base.Where(where).Count())
	if err != nil {
		return 0, fmt.Errorf("counting %s: %w", c.Table().Name(), err)
	}
	row, err := res.One()
	if err != nil {
		return 0, fmt.Errorf("counting %s: %w", c.Table().Name(), err)
	}
	if len(row) == 0 {
		return 0, nil
	}
	switch n := row[0].(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case float64:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("counting %s: unexpected count value %T", c.Table().Name(), row[0])
	}
}

// GetOne returns the single record matching where: nil when there is
// none, ErrTooMany when there is more than one. The lookup fetches at
// most two rows rather than counting the whole set.
func (c *Crud) GetOne(ctx context.Context, store Store, where schema.Expr) (*Record, error) {
	records, err := c.Fetch(ctx, store, where, Limit(2))
	if err != nil {
		return nil, err
	}
	switch len(records) {
	case 0:
		return nil, nil
	case 1:
		return records[0], nil
	default:
		return nil, fmt.Errorf("get one on %s: %w", c.Table().Name(), ErrTooMany)
	}
}

// Create sanitizes attrs (with fixed values overlaid, fixed winning),
// inserts the row, and returns it re-fetched through the read path so
// the result shape matches Fetch exactly. Fixed values are applied
// again after sanitization: scoping may set columns the caller is not
// allowed to write.
func (c *Crud) Create(ctx context.Context, store Store, attrs map[string]any) (*Record, error) {
	merged := make(map[string]any, len(attrs)+len(c.fixed))
	for k, v := range attrs {
		merged[k] = v
	}
	for k, v := range c.fixed {
		merged[k] = v
	}

	sc := SanitizeContext{Store: store, Action: ActionCreate, Fixed: c.fixed}
	data, err := c.sanitizer.Sanitize(ctx, sc, merged)
	if err != nil {
		return nil, err
	}
	for k, v := range c.fixed {
		data[k] = v
	}

	res, err := store.Execute(ctx, NewInsert(c.Table(), data))
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", c.Table().Name(), err)
	}
	key, err := res.InsertedKey()
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", c.Table().Name(), err)
	}

	pk := c.Table().PrimaryKey()
	if len(key) != len(pk) {
		return nil, fmt.Errorf("creating %s: store reported %d key values for a %d-column primary key",
			c.Table().Name(), len(key), len(pk))
	}
	exprs := make([]schema.Expr, len(pk))
	for i, col := range pk {
		exprs[i] = col.Eq(key[i])
	}
	records, err := c.Fetch(ctx, store, schema.And(exprs...))
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("creating %s: inserted row not visible through the read path", c.Table().Name())
	}
	return records[0], nil
}

// Update strips fixed keys from attrs (scoped fields are immutable),
// sanitizes with a context whose Query selects exactly the rows about
// to change, executes the mutation unless the payload sanitized down to
// nothing, and returns the post-state via Fetch with the same filter.
func (c *Crud) Update(ctx context.Context, store Store, attrs map[string]any, where schema.Expr) ([]*Record, error) {
	payload := make(map[string]any, len(attrs))
	for k, v := range attrs {
		if _, isFixed := c.fixed[k]; isFixed {
			continue
		}
		payload[k] = v
	}

	base, _, err := c.baseQuery()
	if err != nil {
		return nil, err
	}
	sc := SanitizeContext{Store: store, Action: ActionUpdate, Query: base.Where(where), Fixed: c.fixed}
	data, err := c.sanitizer.Sanitize(ctx, sc, payload)
	if err != nil {
		return nil, err
	}

	if len(data) > 0 {
		fixed, err := c.fixedExpr()
		if err != nil {
			return nil, err
		}
		if _, err := store.Execute(ctx, NewUpdate(c.Table(), data, schema.And(fixed, where))); err != nil {
			return nil, fmt.Errorf("updating %s: %w", c.Table().Name(), err)
		}
	}
	return c.Fetch(ctx, store, where)
}

// Delete removes the rows matching where under the fixed constraints.
func (c *Crud) Delete(ctx context.Context, store Store, where schema.Expr) error {
	fixed, err := c.fixedExpr()
	if err != nil {
		return err
	}
	if _, err := store.Execute(ctx, NewDelete(c.Table(), schema.And(fixed, where))); err != nil {
		return fmt.Errorf("deleting %s: %w", c.Table().Name(), err)
	}
	return nil
}

// reconstruct turns one flat row into a nested record by walking the
// retained layout. A reference whose columns are all null collapses to
// an explicit nil entry. This is a heuristic, not a row-existence
// check: a joined row whose readable columns are all legitimately null
// is indistinguishable from no row at all.
func (c *Crud) reconstruct(layout []layoutCol, row Row) (*Record, error) {
	if len(row) != len(layout) {
		return nil, fmt.Errorf("reconstructing %s: row has %d values, layout has %d columns",
			c.Table().Name(), len(row), len(layout))
	}

	rec := NewRecord()
	nested := make(map[string]*Record)
	nonNull := make(map[string]bool)
	var refOrder []string

	for i, lc := range layout {
		v := row[i]
		if lc.ref == "" {
			rec.Set(lc.col.Name(), v)
			continue
		}
		nr, ok := nested[lc.ref]
		if !ok {
			nr = NewRecord()
			nested[lc.ref] = nr
			refOrder = append(refOrder, lc.ref)
			rec.Set(lc.ref, nr)
		}
		nr.Set(lc.col.Name(), v)
		if v != nil {
			nonNull[lc.ref] = true
		}
	}

	for _, name := range refOrder {
		if !nonNull[name] {
			rec.Set(name, nil)
			continue
		}
		if c.tableAttr != "" {
			ref, _ := c.readset.RefByName(name)
			nested[name].Set(c.tableAttr, c.tableName(ref.Readset.Table()))
		}
	}
	if c.tableAttr != "" {
		rec.Set(c.tableAttr, c.tableName(c.Table()))
	}
	return rec, nil
}

func (c *Crud) tableName(t *schema.Table) string {
	if mapped, ok := c.tableMap[t]; ok {
		return mapped
	}
	return t.Name()
}

// attachMultiRefs resolves every multi-valued reference with one
// secondary grouped query per reference: parent key plus child columns
// joined through the reference condition, filtered to the fetched
// parent keys, grouped client-side. Parents without children get an
// empty slice, never nil.
func (c *Crud) attachMultiRefs(ctx context.Context, store Store, records []*Record) error {
	var multis []string
	for _, name := range c.readset.RefNames() {
		if ref, _ := c.readset.RefByName(name); ref.Multiple {
			multis = append(multis, name)
		}
	}
	if len(multis) == 0 || len(records) == 0 {
		return nil
	}

	pk := c.Table().PrimaryKey()
	if len(pk) != 1 {
		return fmt.Errorf("multi-valued references on %s need a single-column primary key: %w",
			c.Table().Name(), ErrUnsupportedRef)
	}
	pkCol := pk[0]
	if _, ok := records[0].Get(pkCol.Name()); !ok {
		return fmt.Errorf("multi-valued references on %s need the primary key %s in the readable set: %w",
			c.Table().Name(), pkCol.Name(), ErrUnsupportedRef)
	}

	keys := make([]any, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for _, rec := range records {
		k := rec.Value(pkCol.Name())
		ks := keyString(k)
		if _, dup := seen[ks]; dup {
			continue
		}
		seen[ks] = struct{}{}
		keys = append(keys, k)
	}

	for _, name := range multis {
		ref, _ := c.readset.RefByName(name)
		childCols := ref.Readset.ReadableColumns()

		q := NewSelect(c.Table())
		q.addColumn(c.Table().Name(), pkCol, "")
		q.addJoin(name, ref.Readset.Table(), ref.Join)
		for _, col := range childCols {
			q.addColumn(name, col, name+"_"+col.Name())
		}
		q = q.Where(pkCol.In(keys...))

		res, err := store.Execute(ctx, q)
		if err != nil {
			return fmt.Errorf("fetching reference %s: %w", name, err)
		}
		rows, err := res.All()
		if err != nil {
			return fmt.Errorf("fetching reference %s: %w", name, err)
		}

		groups := make(map[string][]*Record)
		for _, row := range rows {
			if len(row) != len(childCols)+1 {
				return fmt.Errorf("fetching reference %s: row has %d values, expected %d",
					name, len(row), len(childCols)+1)
			}
			child := NewRecord()
			matched := false
			for i, col := range childCols {
				v := row[i+1]
				child.Set(col.Name(), v)
				if v != nil {
					matched = true
				}
			}
			if !matched {
				// Outer-joined parent with no child row.
				continue
			}
			if c.tableAttr != "" {
				child.Set(c.tableAttr, c.tableName(ref.Readset.Table()))
			}
			ks := keyString(row[0])
			groups[ks] = append(groups[ks], child)
		}

		for _, rec := range records {
			ks := keyString(rec.Value(pkCol.Name()))
			children := groups[ks]
			if children == nil {
				children = []*Record{}
			}
			rec.Set(name, children)
		}
	}
	return nil
}

// keyString normalizes a primary-key value for map grouping: drivers
// may hand back different concrete types for the same column across
// queries.
func keyString(v any) string {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return fmt.Sprintf("%v", v)
}
