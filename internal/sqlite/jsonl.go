package sqlite

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mesh-intelligence/crudset/pkg/crudset"
	"github.com/mesh-intelligence/crudset/pkg/schema"
)

// DumpJSONL writes every row of table to path as JSONL, one object per
// line with keys in column declaration order. The file is written to a
// temp file and renamed into place, so readers never see a partial
// dump.
func (s *Store) DumpJSONL(ctx context.Context, table *schema.Table, path string) error {
	res, err := s.Execute(ctx, crudset.NewSelect(table).Columns(table.Columns()...))
	if err != nil {
		return fmt.Errorf("dumping %s: %w", table.Name(), err)
	}
	rows, err := res.All()
	if err != nil {
		return fmt.Errorf("dumping %s: %w", table.Name(), err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".jsonl-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	w := bufio.NewWriter(tmp)
	cols := table.Columns()
	for _, row := range rows {
		rec := crudset.NewRecord()
		for i, col := range cols {
			rec.Set(col.Name(), normalizeJSON(row[i]))
		}
		line, err := json.Marshal(rec)
		if err != nil {
			tmp.Close()
			os.Remove(tmpName)
			return fmt.Errorf("encoding row: %w", err)
		}
		if _, err := w.Write(append(line, '\n')); err != nil {
			tmp.Close()
			os.Remove(tmpName)
			return fmt.Errorf("writing row: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("flushing dump: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("syncing dump: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing dump: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming dump into place: %w", err)
	}
	return nil
}

// LoadJSONL inserts each line of the JSONL file at path into table.
// Blank and malformed lines are skipped; object keys that are not
// columns of the table fail the insert. Returns the number of rows
// loaded.
func (s *Store) LoadJSONL(ctx context.Context, table *schema.Table, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	loaded := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var values map[string]any
		if err := json.Unmarshal(line, &values); err != nil {
			continue
		}
		if _, err := s.Execute(ctx, crudset.NewInsert(table, values)); err != nil {
			return loaded, fmt.Errorf("loading %s: %w", table.Name(), err)
		}
		loaded++
	}
	if err := scanner.Err(); err != nil {
		return loaded, fmt.Errorf("scanning %s: %w", path, err)
	}
	return loaded, nil
}

// normalizeJSON converts driver byte slices to strings so dumped values
// round-trip as JSON strings rather than base64.
func normalizeJSON(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
