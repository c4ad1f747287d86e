package crudset

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/crudset/pkg/schema"
)

// Writeset is a writeable-field whitelist for one table. Sanitize keeps
// the intersection of payload keys and the whitelist; fields outside it
// are dropped silently, never rejected. That is a deliberate divergence
// from the strict Policy path, which raises NotEditableError instead.
type Writeset struct {
	table     *schema.Table
	writeable map[string]struct{}
}

// NewWriteset declares the writeable columns of table. Every name must
// be a column of the table.
func NewWriteset(table *schema.Table, names ...string) (*Writeset, error) {
	ws := &Writeset{
		table:     table,
		writeable: make(map[string]struct{}, len(names)),
	}
	for _, name := range names {
		if table.C(name) == nil {
			return nil, fmt.Errorf("writeset on %s: %w: %s",
				table.Name(), schema.ErrUnknownColumn, name)
		}
		ws.writeable[name] = struct{}{}
	}
	return ws, nil
}

// Table returns the owning table.
func (ws *Writeset) Table() *schema.Table { return ws.table }

// Writeable reports whether the named field may be written.
func (ws *Writeset) Writeable(name string) bool {
	_, ok := ws.writeable[name]
	return ok
}

// Sanitize filters data to the writeable keys. Pure; the context is
// accepted only to satisfy the WriteSanitizer pipeline shape.
func (ws *Writeset) Sanitize(_ context.Context, _ SanitizeContext, data map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(data))
	for k, v := range data {
		if _, ok := ws.writeable[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}
