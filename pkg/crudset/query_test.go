package crudset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/crudset/pkg/schema"
)

func TestSelectBuild(t *testing.T) {
	families, people := testTables(t)

	base := NewSelect(families)
	base.addColumn("families", families.C("id"), "")
	base.addColumn("families", families.C("surname"), "")

	t.Run("plain select", func(t *testing.T) {
		stmt, args := sqlOf(t, base)
		assert.Equal(t, `SELECT "families"."id", "families"."surname" FROM "families"`, stmt)
		assert.Empty(t, args)
	})

	t.Run("columns projects in call order", func(t *testing.T) {
		q := NewSelect(families).Columns(families.C("surname"), families.C("id"))
		stmt, _ := sqlOf(t, q)
		assert.Equal(t, `SELECT "families"."surname", "families"."id" FROM "families"`, stmt)
	})

	t.Run("where parameterizes values", func(t *testing.T) {
		stmt, args := sqlOf(t, base.Where(families.C("surname").Eq("Jones")))
		assert.Equal(t,
			`SELECT "families"."id", "families"."surname" FROM "families" WHERE "families"."surname" = ?`,
			stmt)
		assert.Equal(t, []any{"Jones"}, args)
	})

	t.Run("where composes with and", func(t *testing.T) {
		q := base.Where(families.C("surname").Eq("Jones")).Where(families.C("id").Gt(3))
		stmt, args := sqlOf(t, q)
		assert.Equal(t,
			`SELECT "families"."id", "families"."surname" FROM "families" WHERE ("families"."surname" = ?) AND ("families"."id" > ?)`,
			stmt)
		assert.Equal(t, []any{"Jones", 3}, args)
	})

	t.Run("outer join with labeled columns", func(t *testing.T) {
		q := NewSelect(people)
		q.addColumn("people", people.C("id"), "")
		q.addColumn("people", people.C("name"), "")
		q.addJoin("family", families, people.C("family_id").EqCol(families.C("id")))
		q.addColumn("family", families.C("surname"), "family_surname")
		stmt, args := sqlOf(t, q)
		assert.Equal(t,
			`SELECT "people"."id", "people"."name", "family"."surname" AS "family_surname"`+
				` FROM "people" LEFT OUTER JOIN "families" AS "family" ON "people"."family_id" = "family"."id"`,
			stmt)
		assert.Empty(t, args)
	})

	t.Run("count drops projections and paging", func(t *testing.T) {
		q := base.Where(families.C("surname").Eq("Jones")).OrderBy(families.C("id"), false).Limit(5).Count()
		stmt, args := sqlOf(t, q)
		assert.Equal(t, `SELECT COUNT(*) FROM "families" WHERE "families"."surname" = ?`, stmt)
		assert.Equal(t, []any{"Jones"}, args)
	})

	t.Run("order limit offset", func(t *testing.T) {
		q := base.OrderBy(families.C("surname"), false).OrderBy(families.C("id"), true).Limit(10).Offset(20)
		stmt, args := sqlOf(t, q)
		assert.Equal(t,
			`SELECT "families"."id", "families"."surname" FROM "families"`+
				` ORDER BY "families"."surname" ASC, "families"."id" DESC LIMIT ? OFFSET ?`,
			stmt)
		assert.Equal(t, []any{10, 20}, args)
	})

	t.Run("offset without limit stays unbounded", func(t *testing.T) {
		stmt, args := sqlOf(t, base.Offset(20))
		assert.Equal(t,
			`SELECT "families"."id", "families"."surname" FROM "families" LIMIT -1 OFFSET ?`, stmt)
		assert.Equal(t, []any{20}, args)
	})

	t.Run("postgres offset needs no limit clause", func(t *testing.T) {
		stmt, args, err := base.Offset(20).Build(PostgresDialect{})
		require.NoError(t, err)
		assert.Equal(t,
			`SELECT "families"."id", "families"."surname" FROM "families" OFFSET $1`, stmt)
		assert.Equal(t, []any{20}, args)
	})

	t.Run("postgres placeholders", func(t *testing.T) {
		q := base.Where(families.C("surname").Eq("Jones")).Limit(2)
		stmt, args, err := q.Build(PostgresDialect{})
		require.NoError(t, err)
		assert.Equal(t,
			`SELECT "families"."id", "families"."surname" FROM "families" WHERE "families"."surname" = $1 LIMIT $2`,
			stmt)
		assert.Equal(t, []any{"Jones", 2}, args)
	})

	t.Run("joining the same table twice fails", func(t *testing.T) {
		q := NewSelect(people)
		q.addColumn("people", people.C("id"), "")
		q.addJoin("a", families, people.C("family_id").EqCol(families.C("id")))
		q.addJoin("b", families, people.C("family_id").EqCol(families.C("id")))
		_, _, err := q.Build(SQLiteDialect{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "joined more than once")
	})

	t.Run("column from unjoined table fails", func(t *testing.T) {
		q := NewSelect(families)
		q.addColumn("families", families.C("id"), "")
		filtered := q.Where(people.C("name").Eq("Alice"))
		_, _, err := filtered.Build(SQLiteDialect{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not reachable")
	})
}

func TestExprRendering(t *testing.T) {
	families, _ := testTables(t)
	base := NewSelect(families)
	base.addColumn("families", families.C("id"), "")

	tests := []struct {
		name     string
		where    schema.Expr
		wantSQL  string
		wantArgs []any
	}{
		{
			name:    "eq nil renders is null",
			where:   families.C("location").Eq(nil),
			wantSQL: `"families"."location" IS NULL`,
		},
		{
			name:    "ne nil renders is not null",
			where:   families.C("location").Ne(nil),
			wantSQL: `"families"."location" IS NOT NULL`,
		},
		{
			name:     "in renders placeholders",
			where:    families.C("id").In(1, 2, 3),
			wantSQL:  `"families"."id" IN (?, ?, ?)`,
			wantArgs: []any{1, 2, 3},
		},
		{
			name:    "in over empty set matches nothing",
			where:   families.C("id").In(),
			wantSQL: `1 = 0`,
		},
		{
			name:     "or groups operands",
			where:    schema.Or(families.C("id").Eq(1), families.C("id").Eq(2)),
			wantSQL:  `("families"."id" = ?) OR ("families"."id" = ?)`,
			wantArgs: []any{1, 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmt, args := sqlOf(t, base.Where(tt.where))
			assert.Equal(t, `SELECT "families"."id" FROM "families" WHERE `+tt.wantSQL, stmt)
			if tt.wantArgs == nil {
				assert.Empty(t, args)
			} else {
				assert.Equal(t, tt.wantArgs, args)
			}
		})
	}

	t.Run("nil value with an ordering operator fails", func(t *testing.T) {
		_, _, err := base.Where(families.C("id").Gt(nil)).Build(SQLiteDialect{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "nil value")
	})
}

func TestInsertBuild(t *testing.T) {
	families, _ := testTables(t)

	t.Run("columns follow declaration order", func(t *testing.T) {
		q := NewInsert(families, map[string]any{"surname": "Jones", "location": "Sunnyville"})
		stmt, args := sqlOf(t, q)
		assert.Equal(t, `INSERT INTO "families" ("location", "surname") VALUES (?, ?)`, stmt)
		assert.Equal(t, []any{"Sunnyville", "Jones"}, args)
	})

	t.Run("empty payload inserts defaults", func(t *testing.T) {
		stmt, args := sqlOf(t, NewInsert(families, nil))
		assert.Equal(t, `INSERT INTO "families" DEFAULT VALUES`, stmt)
		assert.Empty(t, args)
	})

	t.Run("unknown column fails", func(t *testing.T) {
		_, _, err := NewInsert(families, map[string]any{"nope": 1}).Build(SQLiteDialect{})
		assert.ErrorIs(t, err, schema.ErrUnknownColumn)
	})

	t.Run("values are copied", func(t *testing.T) {
		src := map[string]any{"surname": "Jones"}
		q := NewInsert(families, src)
		src["surname"] = "changed"
		assert.Equal(t, "Jones", q.Values()["surname"])
	})
}

func TestUpdateBuild(t *testing.T) {
	families, _ := testTables(t)

	t.Run("set and where", func(t *testing.T) {
		q := NewUpdate(families, map[string]any{"surname": "Jamison"}, families.C("id").Eq(4))
		stmt, args := sqlOf(t, q)
		assert.Equal(t, `UPDATE "families" SET "surname" = ? WHERE "families"."id" = ?`, stmt)
		assert.Equal(t, []any{"Jamison", 4}, args)
	})

	t.Run("empty payload fails", func(t *testing.T) {
		_, _, err := NewUpdate(families, nil, nil).Build(SQLiteDialect{})
		require.Error(t, err)
	})
}

func TestDeleteBuild(t *testing.T) {
	families, _ := testTables(t)

	t.Run("with filter", func(t *testing.T) {
		stmt, args := sqlOf(t, NewDelete(families, families.C("surname").Eq("Arnold")))
		assert.Equal(t, `DELETE FROM "families" WHERE "families"."surname" = ?`, stmt)
		assert.Equal(t, []any{"Arnold"}, args)
	})

	t.Run("nil filter deletes everything", func(t *testing.T) {
		stmt, args := sqlOf(t, NewDelete(families, nil))
		assert.Equal(t, `DELETE FROM "families"`, stmt)
		assert.Empty(t, args)
	})
}
