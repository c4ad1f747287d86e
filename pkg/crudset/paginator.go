package crudset

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/crudset/pkg/schema"
)

// Paginator wraps a Crud with a fixed page size and ordering. Page
// numbers are zero-based.
type Paginator struct {
	crud     *Crud
	pageSize int
	order    []FetchOption
}

// NewPaginator builds a paginator over crud. pageSize must be positive;
// order options (OrderBy, OrderByDesc) fix the result ordering so pages
// are stable.
func NewPaginator(crud *Crud, pageSize int, order ...FetchOption) (*Paginator, error) {
	if pageSize <= 0 {
		return nil, fmt.Errorf("page size must be positive, got %d", pageSize)
	}
	return &Paginator{crud: crud, pageSize: pageSize, order: order}, nil
}

// PageSize returns the configured page size.
func (p *Paginator) PageSize() int { return p.pageSize }

// Page returns page number (zero-based) of the ordered result set
// matching where.
func (p *Paginator) Page(ctx context.Context, store Store, number int, where schema.Expr) ([]*Record, error) {
	if number < 0 {
		return nil, fmt.Errorf("page number must not be negative, got %d", number)
	}
	opts := append(append([]FetchOption(nil), p.order...),
		Limit(p.pageSize), Offset(number*p.pageSize))
	return p.crud.Fetch(ctx, store, where, opts...)
}

// PageCount returns the number of pages covering the rows matching
// where: ceil(count/pageSize), with zero records yielding zero pages.
func (p *Paginator) PageCount(ctx context.Context, store Store, where schema.Expr) (int64, error) {
	count, err := p.crud.Count(ctx, store, where)
	if err != nil {
		return 0, err
	}
	size := int64(p.pageSize)
	return (count + size - 1) / size, nil
}
