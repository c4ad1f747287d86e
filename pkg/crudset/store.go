package crudset

import "context"

// Row is one flat result row, values in query column order.
type Row []any

// Result is the outcome of executing a query against a store.
type Result interface {
	// All returns every remaining row.
	All() ([]Row, error)

	// One returns the next row, or nil when there is none.
	One() (Row, error)

	// InsertedKey returns the primary-key tuple assigned by an insert,
	// in primary-key column order. Only meaningful for insert results.
	InsertedKey() ([]any, error)
}

// Store executes queries against a relational backend. Implementations
// render the query for their dialect and run it. One Execute call maps
// to one statement; the engine sequences calls itself and never issues
// two concurrently within a single operation.
type Store interface {
	Execute(ctx context.Context, q Query) (Result, error)
}
