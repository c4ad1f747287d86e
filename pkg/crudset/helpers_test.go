package crudset

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/crudset/pkg/schema"
)

// testTables builds the families/people pair most tests run against.
// Fresh tables per test: expressions are bound to column identity.
func testTables(t *testing.T) (families, people *schema.Table) {
	t.Helper()
	families = schema.MustNew("families",
		schema.Col("id", schema.Integer, schema.PrimaryKey()),
		schema.Col("location", schema.Text),
		schema.Col("surname", schema.Text),
	)
	people = schema.MustNew("people",
		schema.Col("id", schema.Integer, schema.PrimaryKey()),
		schema.Col("created", schema.Timestamp),
		schema.Col("family_id", schema.Integer),
		schema.Col("name", schema.Text),
	)
	return families, people
}

// fakeStore records executed queries and serves canned results in
// order. Once the queue is empty it serves empty results.
type fakeStore struct {
	queries []Query
	results []Result
}

func (f *fakeStore) Execute(_ context.Context, q Query) (Result, error) {
	f.queries = append(f.queries, q)
	if len(f.results) == 0 {
		return &fakeResult{}, nil
	}
	r := f.results[0]
	f.results = f.results[1:]
	return r, nil
}

type fakeResult struct {
	rows []Row
	key  []any
}

func (r *fakeResult) All() ([]Row, error) { return r.rows, nil }

func (r *fakeResult) One() (Row, error) {
	if len(r.rows) == 0 {
		return nil, nil
	}
	return r.rows[0], nil
}

func (r *fakeResult) InsertedKey() ([]any, error) { return r.key, nil }

// sqlOf renders a query with the SQLite dialect.
func sqlOf(t *testing.T, q Query) (string, []any) {
	t.Helper()
	stmt, args, err := q.Build(SQLiteDialect{})
	require.NoError(t, err)
	return stmt, args
}
