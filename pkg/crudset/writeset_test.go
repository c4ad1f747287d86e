package crudset

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/crudset/pkg/schema"
)

func TestNewWriteset(t *testing.T) {
	families, _ := testTables(t)

	t.Run("valid columns", func(t *testing.T) {
		ws, err := NewWriteset(families, "surname", "location")
		require.NoError(t, err)
		assert.True(t, ws.Writeable("surname"))
		assert.False(t, ws.Writeable("id"))
		assert.Same(t, families, ws.Table())
	})

	t.Run("unknown column fails", func(t *testing.T) {
		_, err := NewWriteset(families, "nope")
		assert.ErrorIs(t, err, schema.ErrUnknownColumn)
	})
}

func TestWritesetSanitize(t *testing.T) {
	families, _ := testTables(t)
	ws, err := NewWriteset(families, "surname")
	require.NoError(t, err)

	// Fields outside the whitelist are dropped, never rejected.
	out, err := ws.Sanitize(context.Background(), SanitizeContext{}, map[string]any{
		"surname":  "Jones",
		"location": "Sunnyville",
		"id":       9,
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"surname": "Jones"}, out)

	out, err = ws.Sanitize(context.Background(), SanitizeContext{}, nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}
