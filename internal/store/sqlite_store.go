package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"camper-agent-service/internal/models"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS places (
	url TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	latitude REAL,
	longitude REAL,
	address TEXT NOT NULL DEFAULT '',
	area TEXT NOT NULL DEFAULT '',
	fetch_rank INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now')),
	updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
);
CREATE INDEX IF NOT EXISTS places_area_rank_idx ON places(area, fetch_rank);
`

// SQLiteStore is the embedded variant of the place store, used for local runs
// and tests. dsn may be ":memory:".
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open sqlite: %w", ErrStore, err)
	}
	// One writer at a time; also keeps a :memory: database alive on a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{"PRAGMA busy_timeout = 5000"}
	if dsn != ":memory:" {
		pragmas = append(pragmas, "PRAGMA journal_mode=WAL")
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("%w: %s: %w", ErrStore, p, err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("%w: ensure schema: %w", ErrStore, err)
	}
	return nil
}

// FindPlaces matches term against name, description, address and area. SQLite LIKE
// is case-insensitive for ASCII only.
func (s *SQLiteStore) FindPlaces(ctx context.Context, term string, limit int) ([]models.Place, int, error) {
	if strings.TrimSpace(term) == "" {
		return []models.Place{}, 0, nil
	}
	if limit <= 0 {
		limit = 10
	}
	pattern := likePattern(term)
	where := `name LIKE ?1 ESCAPE '\' OR description LIKE ?1 ESCAPE '\' OR address LIKE ?1 ESCAPE '\' OR area LIKE ?1 ESCAPE '\'`

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM places WHERE `+where, pattern).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%w: count places: %w", ErrStore, err)
	}
	if total == 0 {
		return []models.Place{}, 0, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT url, name, description, latitude, longitude, address, area
		 FROM places WHERE `+where+`
		 ORDER BY area, fetch_rank, url
		 LIMIT ?2`,
		pattern, limit,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: find places: %w", ErrStore, err)
	}
	defer rows.Close()

	items, err := scanPlaces(rows)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: scan places: %w", ErrStore, err)
	}
	return items, total, nil
}

func (s *SQLiteStore) UpsertPlace(ctx context.Context, p models.Place) error {
	if err := validatePlace(p); err != nil {
		return fmt.Errorf("%w: %w", ErrStore, err)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO places (url, name, description, latitude, longitude, address, area, fetch_rank)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(url) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			latitude = excluded.latitude,
			longitude = excluded.longitude,
			address = excluded.address,
			area = CASE WHEN excluded.area = '' THEN places.area ELSE excluded.area END,
			fetch_rank = excluded.fetch_rank,
			updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')`,
		p.URL, p.Name, p.Description, nullFloat(p.Latitude), nullFloat(p.Longitude), p.Address, p.Area, p.FetchRank,
	)
	if err != nil {
		return fmt.Errorf("%w: upsert place %s: %w", ErrStore, p.URL, err)
	}
	return nil
}
