package store

import (
	"context"
	"fmt"
	"strings"
)

// UpsertMode selects the conflict policy applied when a batch hits rows
// whose primary key already exists.
type UpsertMode int

const (
	// UpsertIgnore leaves existing rows untouched and inserts only new ids.
	// Used for raw ingestion so a re-scrape never corrupts stored postings.
	UpsertIgnore UpsertMode = iota
	// UpsertOverwrite replaces every non-key column of existing rows with
	// the incoming values. Used for enrichment writes so reprocessing
	// supersedes a stale extraction.
	UpsertOverwrite
)

func (m UpsertMode) String() string {
	switch m {
	case UpsertIgnore:
		return "ignore"
	case UpsertOverwrite:
		return "overwrite"
	default:
		return fmt.Sprintf("UpsertMode(%d)", int(m))
	}
}

// tableSpec describes an upsert target: the table, its primary-key column,
// and the remaining columns in insert order. The engine is polymorphic over
// this shape; it never knows which entity type it is writing.
type tableSpec struct {
	name    string
	key     string
	columns []string // non-key columns
}

// upsert writes all rows within a single transaction: either the whole
// batch is durably applied or none of it. Each row must carry the key value
// first, followed by the non-key columns in spec order. An empty batch is a
// no-op, not an error.
func (s *SQLiteStore) upsert(ctx context.Context, spec tableSpec, rows [][]any, mode UpsertMode) error {
	if len(rows) == 0 {
		return nil
	}

	cols := append([]string{spec.key}, spec.columns...)
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")

	var conflict string
	switch mode {
	case UpsertIgnore:
		conflict = fmt.Sprintf("ON CONFLICT(%s) DO NOTHING", spec.key)
	case UpsertOverwrite:
		sets := make([]string, len(spec.columns))
		for i, c := range spec.columns {
			sets[i] = fmt.Sprintf("%s = excluded.%s", c, c)
		}
		conflict = fmt.Sprintf("ON CONFLICT(%s) DO UPDATE SET %s", spec.key, strings.Join(sets, ", "))
	default:
		return fmt.Errorf("upsert %s: unknown mode %d", spec.name, int(mode))
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) %s",
		spec.name, strings.Join(cols, ", "), placeholders, conflict)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("upsert %s: begin tx: %w", spec.name, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("upsert %s: prepare: %w", spec.name, err)
	}
	defer stmt.Close()

	for _, row := range rows {
		if len(row) != len(cols) {
			return fmt.Errorf("upsert %s: row has %d values, want %d", spec.name, len(row), len(cols))
		}
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return fmt.Errorf("upsert %s (%s): %w", spec.name, mode, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("upsert %s: commit: %w", spec.name, err)
	}
	return nil
}
