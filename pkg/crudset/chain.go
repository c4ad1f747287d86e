package crudset

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/crudset/pkg/schema"
)

// Chain composes write sanitizers for the same table into one pipeline:
// the output of each member feeds the next. Construction fails unless
// every member targets the same table.
type Chain struct {
	table   *schema.Table
	members []WriteSanitizer
}

// NewChain builds a chain over members, in order.
func NewChain(members ...WriteSanitizer) (*Chain, error) {
	if len(members) == 0 {
		return nil, ErrEmptyChain
	}
	table := members[0].Table()
	for _, m := range members[1:] {
		if m.Table() != table {
			return nil, fmt.Errorf("chain member targets %s, expected %s: %w",
				m.Table().Name(), table.Name(), ErrTableMismatch)
		}
	}
	return &Chain{table: table, members: members}, nil
}

// Table returns the common table of all members.
func (c *Chain) Table() *schema.Table { return c.table }

// Sanitize threads data through each member in order.
func (c *Chain) Sanitize(ctx context.Context, sc SanitizeContext, data map[string]any) (map[string]any, error) {
	var err error
	for _, m := range c.members {
		data, err = m.Sanitize(ctx, sc, data)
		if err != nil {
			return nil, err
		}
	}
	return data, nil
}
