package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/mealsense/backend/internal/domain"
)

// Store is the SQLite-backed catalog: one row per FoodEntry in `foods` plus a
// parallel FTS5 row in `foods_fts` keyed by the same rowid. The two tables are
// only ever written together inside one transaction so they cannot drift apart.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the catalog database at dbPath.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("%w: open database: %v", domain.ErrStorage, err)
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema() error {
	// WAL keeps in-flight readers on a consistent snapshot while a builder
	// run replaces the catalog.
	pragmas := []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA busy_timeout = 5000;",
	}
	for _, p := range pragmas {
		if _, err := s.db.Exec(p); err != nil {
			return fmt.Errorf("%w: set pragma: %v", domain.ErrStorage, err)
		}
	}

	schema := `
    CREATE TABLE IF NOT EXISTS foods (
        id TEXT PRIMARY KEY,
        name TEXT NOT NULL,
        category TEXT NOT NULL DEFAULT '',
        aliases TEXT NOT NULL DEFAULT '[]',
        default_portion TEXT,
        per_100g TEXT,
        per_100ml TEXT,
        modifiers TEXT,
        source TEXT NOT NULL DEFAULT ''
    );

    CREATE VIRTUAL TABLE IF NOT EXISTS foods_fts USING fts5(name, aliases);
    `
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("%w: create schema: %v", domain.ErrStorage, err)
	}
	return nil
}

const entryColumns = "id, name, category, aliases, default_portion, per_100g, per_100ml, modifiers, source"

// SearchBest resolves a normalized query to the single top-ranked entry.
// It runs a prefix search against the FTS index first; when that yields
// nothing (punctuation edge cases, index inconsistency) it falls back to a
// case-insensitive substring scan over name and the alias blob.
func (s *Store) SearchBest(ctx context.Context, query string) (*domain.FoodEntry, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.ErrFoodNotFound
	}

	if match := buildPrefixMatch(query); match != "" {
		row := s.db.QueryRowContext(ctx, `
            SELECT f.`+strings.ReplaceAll(entryColumns, ", ", ", f.")+`
            FROM foods_fts
            JOIN foods f ON f.rowid = foods_fts.rowid
            WHERE foods_fts MATCH ?
            ORDER BY bm25(foods_fts, 10.0, 1.0)
            LIMIT 1`, match)
		entry, err := scanEntry(row)
		if err == nil {
			return entry, nil
		}
		if err != sql.ErrNoRows {
			return nil, fmt.Errorf("%w: fts search: %v", domain.ErrStorage, err)
		}
	}

	// LIKE fallback
	pattern := "%" + query + "%"
	row := s.db.QueryRowContext(ctx, `
        SELECT `+entryColumns+`
        FROM foods
        WHERE lower(name) LIKE ? OR lower(aliases) LIKE ?
        ORDER BY length(name)
        LIMIT 1`, pattern, pattern)
	entry, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, domain.ErrFoodNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: like search: %v", domain.ErrStorage, err)
	}
	return entry, nil
}

// SearchSummaries returns up to limit ranked summaries for a query, for the
// public search endpoint. Ranking matches SearchBest.
func (s *Store) SearchSummaries(ctx context.Context, query string, limit int) ([]domain.FoodSummary, error) {
	query = strings.TrimSpace(query)
	if query == "" || limit <= 0 {
		return nil, nil
	}

	var rows *sql.Rows
	var err error
	if match := buildPrefixMatch(query); match != "" {
		rows, err = s.db.QueryContext(ctx, `
            SELECT f.id, f.name, f.category
            FROM foods_fts
            JOIN foods f ON f.rowid = foods_fts.rowid
            WHERE foods_fts MATCH ?
            ORDER BY bm25(foods_fts, 10.0, 1.0)
            LIMIT ?`, match, limit)
		if err != nil {
			return nil, fmt.Errorf("%w: fts search: %v", domain.ErrStorage, err)
		}
		summaries, err := scanSummaries(rows)
		if err != nil {
			return nil, err
		}
		if len(summaries) > 0 {
			return summaries, nil
		}
	}

	pattern := "%" + query + "%"
	rows, err = s.db.QueryContext(ctx, `
        SELECT id, name, category
        FROM foods
        WHERE lower(name) LIKE ? OR lower(aliases) LIKE ?
        ORDER BY length(name)
        LIMIT ?`, pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: like search: %v", domain.ErrStorage, err)
	}
	return scanSummaries(rows)
}

// GetByID fetches the full entry for an id.
func (s *Store) GetByID(ctx context.Context, id string) (*domain.FoodEntry, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.ErrInvalidRequest
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM foods WHERE id = ?`, id)
	entry, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, domain.ErrFoodNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get by id: %v", domain.ErrStorage, err)
	}
	return entry, nil
}

// Count returns the number of catalog entries.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM foods`).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: count: %v", domain.ErrStorage, err)
	}
	return n, nil
}

// ReplaceAll replaces the whole catalog and rebuilds the search index inside
// one transaction. Readers keep seeing the previous catalog until commit;
// a failure rolls both tables back together.
func (s *Store) ReplaceAll(ctx context.Context, entries []domain.FoodEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin replace: %v", domain.ErrStorage, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM foods`); err != nil {
		return fmt.Errorf("%w: clear foods: %v", domain.ErrStorage, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM foods_fts`); err != nil {
		return fmt.Errorf("%w: clear index: %v", domain.ErrStorage, err)
	}

	insertFood, err := tx.PrepareContext(ctx, `
        INSERT INTO foods (`+entryColumns+`)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("%w: prepare insert: %v", domain.ErrStorage, err)
	}
	defer insertFood.Close()

	insertIndex, err := tx.PrepareContext(ctx, `
        INSERT INTO foods_fts (rowid, name, aliases) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("%w: prepare index insert: %v", domain.ErrStorage, err)
	}
	defer insertIndex.Close()

	for i := range entries {
		e := &entries[i]
		aliasesJSON, portionJSON, per100gJSON, per100mlJSON, modifiersJSON, err := encodeEntry(e)
		if err != nil {
			return fmt.Errorf("%w: encode entry %s: %v", domain.ErrStorage, e.ID, err)
		}

		res, err := insertFood.ExecContext(ctx, e.ID, e.Name, e.Category, aliasesJSON,
			portionJSON, per100gJSON, per100mlJSON, modifiersJSON, e.Source)
		if err != nil {
			return fmt.Errorf("%w: insert %s: %v", domain.ErrStorage, e.ID, err)
		}
		rowid, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("%w: rowid for %s: %v", domain.ErrStorage, e.ID, err)
		}

		// Index row shares the food's rowid; failing here aborts the whole
		// replace rather than leaving the index desynchronized.
		aliasBlob := strings.Join(e.Aliases, " ")
		if _, err := insertIndex.ExecContext(ctx, rowid, e.Name, aliasBlob); err != nil {
			return fmt.Errorf("%w: index %s: %v", domain.ErrStorage, e.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit replace: %v", domain.ErrStorage, err)
	}
	return nil
}

// buildPrefixMatch turns a normalized query into an FTS5 match expression with
// every token treated as a prefix term, e.g. `"nasi"* "lemak"*`.
func buildPrefixMatch(query string) string {
	tokens := strings.Fields(query)
	if len(tokens) == 0 {
		return ""
	}
	terms := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		tok = strings.ReplaceAll(tok, `"`, `""`)
		terms = append(terms, `"`+tok+`"*`)
	}
	return strings.Join(terms, " ")
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(row rowScanner) (*domain.FoodEntry, error) {
	var (
		e             domain.FoodEntry
		aliasesJSON   string
		portionJSON   sql.NullString
		per100gJSON   sql.NullString
		per100mlJSON  sql.NullString
		modifiersJSON sql.NullString
	)
	err := row.Scan(&e.ID, &e.Name, &e.Category, &aliasesJSON,
		&portionJSON, &per100gJSON, &per100mlJSON, &modifiersJSON, &e.Source)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(aliasesJSON), &e.Aliases); err != nil {
		return nil, fmt.Errorf("decode aliases: %v", err)
	}
	if portionJSON.Valid && portionJSON.String != "" {
		e.DefaultPortion = &domain.DefaultPortion{}
		if err := json.Unmarshal([]byte(portionJSON.String), e.DefaultPortion); err != nil {
			return nil, fmt.Errorf("decode default portion: %v", err)
		}
	}
	if per100gJSON.Valid && per100gJSON.String != "" {
		e.Per100g = &domain.NutrientVector{}
		if err := json.Unmarshal([]byte(per100gJSON.String), e.Per100g); err != nil {
			return nil, fmt.Errorf("decode per-100g vector: %v", err)
		}
	}
	if per100mlJSON.Valid && per100mlJSON.String != "" {
		e.Per100ml = &domain.NutrientVector{}
		if err := json.Unmarshal([]byte(per100mlJSON.String), e.Per100ml); err != nil {
			return nil, fmt.Errorf("decode per-100ml vector: %v", err)
		}
	}
	if modifiersJSON.Valid && modifiersJSON.String != "" {
		if err := json.Unmarshal([]byte(modifiersJSON.String), &e.Modifiers); err != nil {
			return nil, fmt.Errorf("decode modifiers: %v", err)
		}
	}
	return &e, nil
}

func scanSummaries(rows *sql.Rows) ([]domain.FoodSummary, error) {
	defer rows.Close()
	var out []domain.FoodSummary
	for rows.Next() {
		var s domain.FoodSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.Category); err != nil {
			return nil, fmt.Errorf("%w: scan summary: %v", domain.ErrStorage, err)
		}
		s.DisplayName = s.Name
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate summaries: %v", domain.ErrStorage, err)
	}
	return out, nil
}

func encodeEntry(e *domain.FoodEntry) (aliases, portion, per100g, per100ml, modifiers interface{}, err error) {
	a, err := json.Marshal(e.Aliases)
	if err != nil {
		return nil, nil, nil, nil, nil, err
	}
	aliases = string(a)

	marshalOrNil := func(v interface{}, empty bool) (interface{}, error) {
		if empty {
			return nil, nil
		}
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		return string(b), nil
	}

	if portion, err = marshalOrNil(e.DefaultPortion, e.DefaultPortion == nil); err != nil {
		return nil, nil, nil, nil, nil, err
	}
	if per100g, err = marshalOrNil(e.Per100g, e.Per100g.IsEmpty()); err != nil {
		return nil, nil, nil, nil, nil, err
	}
	if per100ml, err = marshalOrNil(e.Per100ml, e.Per100ml.IsEmpty()); err != nil {
		return nil, nil, nil, nil, nil, err
	}
	if modifiers, err = marshalOrNil(e.Modifiers, len(e.Modifiers) == 0); err != nil {
		return nil, nil, nil, nil, nil, err
	}
	return aliases, portion, per100g, per100ml, modifiers, nil
}
