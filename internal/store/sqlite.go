package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"hnjobs/internal/model"
)

// SQLiteStore persists raw and enriched postings in a SQLite database.
// Both tables share the fingerprint as primary key; all writes go through
// the upsert engine.
type SQLiteStore struct {
	db *sql.DB
}

const migration = `
CREATE TABLE IF NOT EXISTS raw_postings (
	id          TEXT PRIMARY KEY,
	title       TEXT NOT NULL,
	description TEXT NOT NULL,
	posted_date TEXT
);

CREATE TABLE IF NOT EXISTS enriched_postings (
	id           TEXT PRIMARY KEY REFERENCES raw_postings(id),
	title        TEXT NOT NULL,
	description  TEXT NOT NULL,
	posted_date  TEXT,
	job_url      TEXT,
	company_url  TEXT,
	technologies TEXT,
	location     TEXT,
	industry     TEXT,
	salary       TEXT,
	is_remote    INTEGER
);
`

var rawSpec = tableSpec{
	name:    "raw_postings",
	key:     "id",
	columns: []string{"title", "description", "posted_date"},
}

var enrichedSpec = tableSpec{
	name: "enriched_postings",
	key:  "id",
	columns: []string{
		"title", "description", "posted_date", "job_url", "company_url",
		"technologies", "location", "industry", "salary", "is_remote",
	},
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and ensures
// both tables exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Verify the connection is alive.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec %s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(migration); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating tables: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// PutPostings upserts raw postings under the given conflict mode.
func (s *SQLiteStore) PutPostings(ctx context.Context, postings []model.Posting, mode UpsertMode) error {
	rows := make([][]any, 0, len(postings))
	for _, p := range postings {
		rows = append(rows, []any{p.ID, p.Title, p.Description, dateArg(p.PostedDate)})
	}
	return s.upsert(ctx, rawSpec, rows, mode)
}

// PutEnrichments upserts enrichment rows under the given conflict mode.
func (s *SQLiteStore) PutEnrichments(ctx context.Context, enrichments []model.Enrichment, mode UpsertMode) error {
	rows := make([][]any, 0, len(enrichments))
	for _, e := range enrichments {
		tech, err := techArg(e.Technologies)
		if err != nil {
			return fmt.Errorf("encoding technologies for %s: %w", e.ID, err)
		}
		rows = append(rows, []any{
			e.ID, e.Title, e.Description, dateArg(e.PostedDate),
			strArg(e.JobURL), strArg(e.CompanyURL), tech, strArg(e.Location),
			strArg(e.Industry), strArg(e.Salary), boolArg(e.IsRemote),
		})
	}
	return s.upsert(ctx, enrichedSpec, rows, mode)
}

// SelectUnprocessed returns every raw posting that has no enrichment row,
// ordered by id so downstream batching is deterministic.
func (s *SQLiteStore) SelectUnprocessed(ctx context.Context) ([]model.Posting, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.title, r.description, r.posted_date
		FROM raw_postings r
		LEFT JOIN enriched_postings e ON r.id = e.id
		WHERE e.id IS NULL
		ORDER BY r.id`)
	if err != nil {
		return nil, fmt.Errorf("selecting unprocessed postings: %w", err)
	}
	defer rows.Close()
	return scanPostings(rows)
}

// ListPostings returns a snapshot of all raw postings ordered by id.
func (s *SQLiteStore) ListPostings(ctx context.Context) ([]model.Posting, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, description, posted_date FROM raw_postings ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing postings: %w", err)
	}
	defer rows.Close()
	return scanPostings(rows)
}

// ListPostingIDs returns the set of all known posting ids.
func (s *SQLiteStore) ListPostingIDs(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM raw_postings`)
	if err != nil {
		return nil, fmt.Errorf("listing posting ids: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning posting id: %w", err)
		}
		ids[id] = struct{}{}
	}
	return ids, rows.Err()
}

// GetPosting looks up a single raw posting; (nil, nil) when absent.
func (s *SQLiteStore) GetPosting(ctx context.Context, id string) (*model.Posting, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, description, posted_date FROM raw_postings WHERE id = ?`, id)

	var p model.Posting
	var posted sql.NullString
	err := row.Scan(&p.ID, &p.Title, &p.Description, &posted)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting posting %s: %w", id, err)
	}
	p.PostedDate, err = parseDate(posted)
	if err != nil {
		return nil, fmt.Errorf("getting posting %s: %w", id, err)
	}
	return &p, nil
}

// GetEnrichment looks up a single enrichment row; (nil, nil) when absent.
func (s *SQLiteStore) GetEnrichment(ctx context.Context, id string) (*model.Enrichment, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, description, posted_date, job_url, company_url,
		       technologies, location, industry, salary, is_remote
		FROM enriched_postings WHERE id = ?`, id)

	e, err := scanEnrichment(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting enrichment %s: %w", id, err)
	}
	return e, nil
}

// ListEnrichments returns a snapshot of all enrichment rows ordered by id.
func (s *SQLiteStore) ListEnrichments(ctx context.Context) ([]model.Enrichment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, description, posted_date, job_url, company_url,
		       technologies, location, industry, salary, is_remote
		FROM enriched_postings ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing enrichments: %w", err)
	}
	defer rows.Close()

	var out []model.Enrichment
	for rows.Next() {
		e, err := scanEnrichment(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning enrichment: %w", err)
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// Counts returns the number of raw and enriched rows.
func (s *SQLiteStore) Counts(ctx context.Context) (raw, enriched int, err error) {
	if err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM raw_postings`).Scan(&raw); err != nil {
		return 0, 0, fmt.Errorf("counting raw postings: %w", err)
	}
	if err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM enriched_postings`).Scan(&enriched); err != nil {
		return 0, 0, fmt.Errorf("counting enriched postings: %w", err)
	}
	return raw, enriched, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func scanPostings(rows *sql.Rows) ([]model.Posting, error) {
	var out []model.Posting
	for rows.Next() {
		var p model.Posting
		var posted sql.NullString
		if err := rows.Scan(&p.ID, &p.Title, &p.Description, &posted); err != nil {
			return nil, fmt.Errorf("scanning posting: %w", err)
		}
		var err error
		p.PostedDate, err = parseDate(posted)
		if err != nil {
			return nil, fmt.Errorf("scanning posting %s: %w", p.ID, err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanEnrichment(scan func(...any) error) (*model.Enrichment, error) {
	var e model.Enrichment
	var posted, jobURL, companyURL, tech, location, industry, salary sql.NullString
	var isRemote sql.NullBool

	err := scan(&e.ID, &e.Title, &e.Description, &posted, &jobURL, &companyURL,
		&tech, &location, &industry, &salary, &isRemote)
	if err != nil {
		return nil, err
	}

	e.PostedDate, err = parseDate(posted)
	if err != nil {
		return nil, err
	}
	e.JobURL = strPtr(jobURL)
	e.CompanyURL = strPtr(companyURL)
	e.Location = strPtr(location)
	e.Industry = strPtr(industry)
	e.Salary = strPtr(salary)
	if isRemote.Valid {
		e.IsRemote = &isRemote.Bool
	}
	if tech.Valid {
		if err := json.Unmarshal([]byte(tech.String), &e.Technologies); err != nil {
			return nil, fmt.Errorf("decoding technologies: %w", err)
		}
	}
	return &e, nil
}

// Column encoding helpers. Dates are stored as ISO text, technologies as a
// JSON array, and nil pointers as SQL NULL.

func dateArg(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format("2006-01-02")
}

func parseDate(s sql.NullString) (*time.Time, error) {
	if !s.Valid {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s.String)
	if err != nil {
		return nil, fmt.Errorf("parsing posted_date %q: %w", s.String, err)
	}
	return &t, nil
}

func strArg(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func strPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func boolArg(b *bool) any {
	if b == nil {
		return nil
	}
	return *b
}

func techArg(tech []string) (any, error) {
	if tech == nil {
		return nil, nil
	}
	raw, err := json.Marshal(tech)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}
