// Package sqlite implements the crudset Store interface over a SQLite
// database. It renders the engine's query model with the SQLite
// dialect, executes statements through database/sql, and reports the
// primary-key tuple assigned by inserts. Tables with a single text
// primary key get a UUID v7 assigned when the caller supplies none.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/crudset/pkg/crudset"
	"github.com/mesh-intelligence/crudset/pkg/schema"
)

// Store executes crudset queries against one SQLite database.
type Store struct {
	db      *sql.DB
	dialect crudset.Dialect
}

var errNotInsert = errors.New("result does not carry an inserted key")

// Open opens (or creates) the database at path with default settings.
// Use ":memory:" for a private in-memory database.
func Open(path string) (*Store, error) {
	return OpenConfig(Config{Path: path, BusyTimeoutMS: defaultBusyTimeoutMS, ForeignKeys: true})
}

// OpenConfig opens a store with explicit settings.
func OpenConfig(cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("open sqlite store: %w", ErrNoPath)
	}
	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", cfg.Path, err)
	}
	if cfg.ForeignKeys {
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enabling foreign keys: %w", err)
		}
	}
	if cfg.BusyTimeoutMS > 0 {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeoutMS)); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting busy timeout: %w", err)
		}
	}
	return &Store{db: db, dialect: crudset.SQLiteDialect{}}, nil
}

// NewStore wraps an already-open database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db, dialect: crudset.SQLiteDialect{}}
}

// DB exposes the underlying handle, mainly for schema setup in tests.
func (s *Store) DB() *sql.DB { return s.db }

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// Execute renders and runs one statement. Selects return a row result;
// inserts return a result carrying the assigned primary-key tuple;
// updates and deletes return an empty result.
func (s *Store) Execute(ctx context.Context, q crudset.Query) (crudset.Result, error) {
	switch x := q.(type) {
	case *crudset.SelectQuery:
		return s.executeSelect(ctx, x)
	case *crudset.InsertQuery:
		return s.executeInsert(ctx, x)
	default:
		stmt, args, err := q.Build(s.dialect)
		if err != nil {
			return nil, err
		}
		if _, err := s.db.ExecContext(ctx, stmt, args...); err != nil {
			return nil, fmt.Errorf("executing %q: %w", stmt, err)
		}
		return &execResult{}, nil
	}
}

func (s *Store) executeSelect(ctx context.Context, q *crudset.SelectQuery) (crudset.Result, error) {
	stmt, args, err := q.Build(s.dialect)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("querying %q: %w", stmt, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading columns: %w", err)
	}

	var out []crudset.Row
	for rows.Next() {
		values := make(crudset.Row, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		out = append(out, values)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &rowsResult{rows: out}, nil
}

func (s *Store) executeInsert(ctx context.Context, q *crudset.InsertQuery) (crudset.Result, error) {
	table := q.Table()
	values := q.Values()
	pk := table.PrimaryKey()

	if len(pk) == 1 && pk[0].Type() == schema.Text {
		if v, ok := values[pk[0].Name()]; !ok || v == nil {
			values[pk[0].Name()] = uuid.Must(uuid.NewV7()).String()
			q = crudset.NewInsert(table, values)
		}
	}

	stmt, args, err := q.Build(s.dialect)
	if err != nil {
		return nil, err
	}
	res, err := s.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("inserting into %s: %w", table.Name(), err)
	}

	key := make([]any, len(pk))
	provided := true
	for i, col := range pk {
		v, ok := values[col.Name()]
		if !ok || v == nil {
			provided = false
			break
		}
		key[i] = v
	}
	if !provided {
		if len(pk) != 1 {
			return nil, fmt.Errorf("inserting into %s: composite primary key must be supplied by the caller", table.Name())
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("inserting into %s: %w", table.Name(), err)
		}
		key[0] = id
	}
	return &execResult{key: key}, nil
}

// rowsResult serves fetched rows sequentially.
type rowsResult struct {
	rows []crudset.Row
	next int
}

func (r *rowsResult) All() ([]crudset.Row, error) {
	rows := r.rows[r.next:]
	r.next = len(r.rows)
	return rows, nil
}

func (r *rowsResult) One() (crudset.Row, error) {
	if r.next >= len(r.rows) {
		return nil, nil
	}
	row := r.rows[r.next]
	r.next++
	return row, nil
}

func (r *rowsResult) InsertedKey() ([]any, error) {
	return nil, errNotInsert
}

// execResult is the outcome of a mutation; key is set for inserts.
type execResult struct {
	key []any
}

func (r *execResult) All() ([]crudset.Row, error) { return nil, nil }

func (r *execResult) One() (crudset.Row, error) { return nil, nil }

func (r *execResult) InsertedKey() ([]any, error) {
	if r.key == nil {
		return nil, errNotInsert
	}
	return r.key, nil
}
