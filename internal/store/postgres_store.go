package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"camper-agent-service/internal/models"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS places (
			url TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			latitude DOUBLE PRECISION,
			longitude DOUBLE PRECISION,
			address TEXT NOT NULL DEFAULT '',
			area TEXT NOT NULL DEFAULT '',
			fetch_rank INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`ALTER TABLE places ADD COLUMN IF NOT EXISTS fetch_rank INTEGER NOT NULL DEFAULT 0`,
		`CREATE INDEX IF NOT EXISTS places_area_rank_idx ON places(area, fetch_rank)`,
	}
	for _, q := range stmts {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("%w: ensure schema: %w", ErrStore, err)
		}
	}
	return nil
}

const pgMatch = `name ILIKE $1 OR description ILIKE $1 OR address ILIKE $1 OR area ILIKE $1`

// FindPlaces returns up to limit places whose name, description, address or
// area contains term, case-insensitively, together with the total match count.
// Places fetched together come back in the order the provider returned them.
func (s *PostgresStore) FindPlaces(ctx context.Context, term string, limit int) ([]models.Place, int, error) {
	if strings.TrimSpace(term) == "" {
		return []models.Place{}, 0, nil
	}
	if limit <= 0 {
		limit = 10
	}
	pattern := likePattern(term)

	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM places WHERE `+pgMatch,
		pattern,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%w: count places: %w", ErrStore, err)
	}
	if total == 0 {
		return []models.Place{}, 0, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT url, name, description, latitude, longitude, address, area
		 FROM places
		 WHERE `+pgMatch+`
		 ORDER BY area, fetch_rank, url
		 LIMIT $2`,
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

// UpsertPlace inserts p or overwrites the row with the same url.
func (s *PostgresStore) UpsertPlace(ctx context.Context, p models.Place) error {
	if err := validatePlace(p); err != nil {
		return fmt.Errorf("%w: %w", ErrStore, err)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO places (url, name, description, latitude, longitude, address, area, fetch_rank)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (url) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			address = EXCLUDED.address,
			area = CASE WHEN EXCLUDED.area = '' THEN places.area ELSE EXCLUDED.area END,
			fetch_rank = EXCLUDED.fetch_rank,
			updated_at = NOW()`,
		p.URL, p.Name, p.Description, nullFloat(p.Latitude), nullFloat(p.Longitude), p.Address, p.Area, p.FetchRank,
	)
	if err != nil {
		return fmt.Errorf("%w: upsert place %s: %w", ErrStore, p.URL, err)
	}
	return nil
}
