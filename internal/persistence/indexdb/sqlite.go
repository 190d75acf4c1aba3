// Package indexdb persists rosters and their cached totals snapshot in a
// local sqlite database. The aggregation engine stays the sole producer of
// totals; the columns here are a cache written alongside the unit list.
package indexdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"shoshin/internal/roster/aggregate"
)

type Store struct {
	db *sql.DB
}

type RosterRow struct {
	ID        string                 `json:"id"`
	Name      string                 `json:"name"`
	Units     []aggregate.UnitRecord `json:"units"`
	Totals    aggregate.RosterTotals `json:"totals"`
	UpdatedAt time.Time              `json:"updated_at"`
}

func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("pragma %q: %w", p, err)
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	const schema = `
CREATE TABLE IF NOT EXISTS rosters (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL DEFAULT '',
	units_json  TEXT NOT NULL,
	points      INTEGER NOT NULL DEFAULT 0,
	unit_count  INTEGER NOT NULL DEFAULT 0,
	initiative  INTEGER NOT NULL DEFAULT 0,
	honor       INTEGER NOT NULL DEFAULT 0,
	counts_json TEXT NOT NULL DEFAULT '{}',
	updated_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_rosters_updated ON rosters(updated_at);
`
	_, err := db.Exec(schema)
	return err
}

// PutRoster upserts a roster with its totals snapshot. A missing id gets a
// fresh UUID; the stored id is returned either way.
func (s *Store) PutRoster(ctx context.Context, r RosterRow) (string, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.UpdatedAt.IsZero() {
		r.UpdatedAt = time.Now().UTC()
	}

	unitsJSON, err := json.Marshal(r.Units)
	if err != nil {
		return "", fmt.Errorf("marshal units: %w", err)
	}
	countsJSON, err := json.Marshal(r.Totals.Counts)
	if err != nil {
		return "", fmt.Errorf("marshal counts: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO rosters (id, name, units_json, points, unit_count, initiative, honor, counts_json, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	name=excluded.name,
	units_json=excluded.units_json,
	points=excluded.points,
	unit_count=excluded.unit_count,
	initiative=excluded.initiative,
	honor=excluded.honor,
	counts_json=excluded.counts_json,
	updated_at=excluded.updated_at
`, r.ID, r.Name, string(unitsJSON), r.Totals.Points, r.Totals.UnitCount,
		r.Totals.Initiative, r.Totals.Honor, string(countsJSON),
		r.UpdatedAt.Format(time.RFC3339))
	if err != nil {
		return "", err
	}
	return r.ID, nil
}

var ErrNotFound = fmt.Errorf("roster not found")

func (s *Store) GetRoster(ctx context.Context, id string) (RosterRow, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, name, units_json, points, unit_count, initiative, honor, counts_json, updated_at
FROM rosters WHERE id = ?`, id)
	return scanRoster(row)
}

func (s *Store) ListRosters(ctx context.Context) ([]RosterRow, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, name, units_json, points, unit_count, initiative, honor, counts_json, updated_at
FROM rosters ORDER BY updated_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RosterRow
	for rows.Next() {
		r, err := scanRoster(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRoster(sc scanner) (RosterRow, error) {
	var r RosterRow
	var unitsJSON, countsJSON, updated string
	err := sc.Scan(&r.ID, &r.Name, &unitsJSON, &r.Totals.Points, &r.Totals.UnitCount,
		&r.Totals.Initiative, &r.Totals.Honor, &countsJSON, &updated)
	if err == sql.ErrNoRows {
		return r, ErrNotFound
	}
	if err != nil {
		return r, err
	}
	if err := json.Unmarshal([]byte(unitsJSON), &r.Units); err != nil {
		return r, fmt.Errorf("units_json: %w", err)
	}
	if err := json.Unmarshal([]byte(countsJSON), &r.Totals.Counts); err != nil {
		return r, fmt.Errorf("counts_json: %w", err)
	}
	if t, err := time.Parse(time.RFC3339, updated); err == nil {
		r.UpdatedAt = t
	}
	return r, nil
}
