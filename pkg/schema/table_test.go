package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		table   string
		cols    []*Column
		wantErr error
	}{
		{
			name:    "empty name rejected",
			table:   "",
			cols:    []*Column{Col("id", Integer)},
			wantErr: ErrEmptyTableName,
		},
		{
			name:    "no columns rejected",
			table:   "families",
			wantErr: ErrNoColumns,
		},
		{
			name:  "duplicate column rejected",
			table: "families",
			cols: []*Column{
				Col("id", Integer),
				Col("id", Text),
			},
			wantErr: ErrDuplicateColumn,
		},
		{
			name:  "valid table",
			table: "families",
			cols: []*Column{
				Col("id", Integer, PrimaryKey()),
				Col("surname", Text),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tab, err := New(tt.table, tt.cols...)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.table, tab.Name())
		})
	}
}

func TestTableAccessors(t *testing.T) {
	tab := MustNew("people",
		Col("id", Integer, PrimaryKey()),
		Col("created", Timestamp),
		Col("family_id", Integer),
		Col("name", Text),
	)

	t.Run("columns preserve declaration order", func(t *testing.T) {
		var names []string
		for _, c := range tab.Columns() {
			names = append(names, c.Name())
		}
		assert.Equal(t, []string{"id", "created", "family_id", "name"}, names)
	})

	t.Run("primary key subset", func(t *testing.T) {
		pk := tab.PrimaryKey()
		require.Len(t, pk, 1)
		assert.Equal(t, "id", pk[0].Name())
		assert.True(t, pk[0].IsPrimaryKey())
	})

	t.Run("columns know their table", func(t *testing.T) {
		assert.Same(t, tab, tab.C("name").Table())
	})

	t.Run("unknown column", func(t *testing.T) {
		assert.Nil(t, tab.C("missing"))
		_, err := tab.Column("missing")
		assert.ErrorIs(t, err, ErrUnknownColumn)
	})
}

func TestCompositePrimaryKey(t *testing.T) {
	tab := MustNew("memberships",
		Col("family_id", Integer, PrimaryKey()),
		Col("person_id", Integer, PrimaryKey()),
		Col("role", Text),
	)
	pk := tab.PrimaryKey()
	require.Len(t, pk, 2)
	assert.Equal(t, "family_id", pk[0].Name())
	assert.Equal(t, "person_id", pk[1].Name())
}
