package crudset

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPaginator(t *testing.T) {
	crud, _, _ := peopleCrud(t)

	_, err := NewPaginator(crud, 0)
	require.Error(t, err)
	_, err = NewPaginator(crud, -5)
	require.Error(t, err)

	p, err := NewPaginator(crud, 10)
	require.NoError(t, err)
	assert.Equal(t, 10, p.PageSize())
}

func TestPaginatorPage(t *testing.T) {
	crud, _, people := peopleCrud(t)
	p, err := NewPaginator(crud, 10, OrderBy(people.C("id")))
	require.NoError(t, err)

	t.Run("first page has no offset", func(t *testing.T) {
		store := &fakeStore{}
		_, err := p.Page(context.Background(), store, 0, nil)
		require.NoError(t, err)

		stmt, args := sqlOf(t, store.queries[0])
		assert.Contains(t, stmt, `ORDER BY "people"."id" ASC LIMIT ?`)
		assert.NotContains(t, stmt, "OFFSET")
		assert.Equal(t, []any{10}, args)
	})

	t.Run("later pages offset by page size", func(t *testing.T) {
		store := &fakeStore{}
		_, err := p.Page(context.Background(), store, 2, nil)
		require.NoError(t, err)

		stmt, args := sqlOf(t, store.queries[0])
		assert.Contains(t, stmt, `LIMIT ? OFFSET ?`)
		assert.Equal(t, []any{10, 20}, args)
	})

	t.Run("filter carries through", func(t *testing.T) {
		store := &fakeStore{}
		_, err := p.Page(context.Background(), store, 0, people.C("family_id").Eq(2))
		require.NoError(t, err)

		stmt, args := sqlOf(t, store.queries[0])
		assert.Contains(t, stmt, `WHERE "people"."family_id" = ?`)
		assert.Equal(t, []any{2, 10}, args)
	})

	t.Run("negative page fails", func(t *testing.T) {
		_, err := p.Page(context.Background(), &fakeStore{}, -1, nil)
		require.Error(t, err)
	})
}

func TestPaginatorPageCount(t *testing.T) {
	crud, _, _ := peopleCrud(t)
	p, err := NewPaginator(crud, 10)
	require.NoError(t, err)

	tests := []struct {
		name  string
		count int64
		want  int64
	}{
		{name: "empty set has no pages", count: 0, want: 0},
		{name: "one record fills one page", count: 1, want: 1},
		{name: "exact multiple", count: 40, want: 4},
		{name: "partial last page rounds up", count: 43, want: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{results: []Result{&fakeResult{rows: []Row{{tt.count}}}}}
			got, err := p.PageCount(context.Background(), store, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
