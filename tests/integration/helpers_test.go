// Package integration exercises the crudset engine end to end against
// a real SQLite database.
package integration

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/crudset/internal/sqlite"
	"github.com/mesh-intelligence/crudset/pkg/crudset"
	"github.com/mesh-intelligence/crudset/pkg/schema"
)

// fixture wires the families/people schema, its readsets, and a store
// into ready-to-use engines. Each test gets an isolated database.
type fixture struct {
	store      *sqlite.Store
	families   *schema.Table
	people     *schema.Table
	familyCrud *crudset.Crud
	personCrud *crudset.Crud
}

func setup(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	store, err := sqlite.Open(filepath.Join(t.TempDir(), "integration.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	families := schema.MustNew("families",
		schema.Col("id", schema.Integer, schema.PrimaryKey()),
		schema.Col("location", schema.Text),
		schema.Col("surname", schema.Text),
	)
	people := schema.MustNew("people",
		schema.Col("id", schema.Integer, schema.PrimaryKey()),
		schema.Col("family_id", schema.Integer),
		schema.Col("name", schema.Text),
	)
	require.NoError(t, store.CreateTable(ctx, families))
	require.NoError(t, store.CreateTable(ctx, people))

	familyRS, err := crudset.NewReadset(families)
	require.NoError(t, err)
	personRS, err := crudset.NewReadset(people,
		crudset.WithRef("family", crudset.Ref{
			Readset: familyRS,
			Join:    people.C("family_id").EqCol(families.C("id")),
		}))
	require.NoError(t, err)

	memberRS, err := crudset.NewReadset(people, crudset.WithColumns("id", "name"))
	require.NoError(t, err)
	familyWithMembersRS, err := crudset.NewReadset(families,
		crudset.WithRef("people", crudset.Ref{
			Readset:  memberRS,
			Join:     families.C("id").EqCol(people.C("family_id")),
			Multiple: true,
		}))
	require.NoError(t, err)

	personWS, err := crudset.NewWriteset(people, "family_id", "name")
	require.NoError(t, err)
	familyWS, err := crudset.NewWriteset(families, "location", "surname")
	require.NoError(t, err)

	personCrud, err := crudset.NewCrud(personRS, personWS)
	require.NoError(t, err)
	familyCrud, err := crudset.NewCrud(familyWithMembersRS, familyWS)
	require.NoError(t, err)

	return &fixture{
		store:      store,
		families:   families,
		people:     people,
		familyCrud: familyCrud,
		personCrud: personCrud,
	}
}

// addFamily inserts a family row directly and returns its id.
func (f *fixture) addFamily(t *testing.T, location, surname string) int64 {
	t.Helper()
	res, err := f.store.Execute(context.Background(), crudset.NewInsert(f.families, map[string]any{
		"location": location,
		"surname":  surname,
	}))
	require.NoError(t, err)
	key, err := res.InsertedKey()
	require.NoError(t, err)
	return key[0].(int64)
}

// addPerson inserts a person row directly and returns its id.
func (f *fixture) addPerson(t *testing.T, familyID any, name string) int64 {
	t.Helper()
	values := map[string]any{"name": name}
	if familyID != nil {
		values["family_id"] = familyID
	}
	res, err := f.store.Execute(context.Background(), crudset.NewInsert(f.people, values))
	require.NoError(t, err)
	key, err := res.InsertedKey()
	require.NoError(t, err)
	return key[0].(int64)
}
