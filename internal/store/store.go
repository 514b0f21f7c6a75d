package store

import (
	"database/sql"
	"errors"
	"strings"

	"camper-agent-service/internal/models"
)

// ErrStore wraps every failure reported by a place store driver.
var ErrStore = errors.New("place store error")

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern turns a free-text term into a substring pattern with LIKE
// metacharacters escaped by backslash.
func likePattern(term string) string {
	return "%" + likeEscaper.Replace(strings.TrimSpace(term)) + "%"
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

// scanPlaces reads rows of (url, name, description, latitude, longitude, address, area).
func scanPlaces(rows rowScanner) ([]models.Place, error) {
	items := make([]models.Place, 0)
	for rows.Next() {
		var (
			p         models.Place
			desc, adr sql.NullString
			area      sql.NullString
			lat, lon  sql.NullFloat64
		)
		if err := rows.Scan(&p.URL, &p.Name, &desc, &lat, &lon, &adr, &area); err != nil {
			return nil, err
		}
		p.Description = desc.String
		p.Address = adr.String
		p.Area = area.String
		if lat.Valid {
			v := lat.Float64
			p.Latitude = &v
		}
		if lon.Valid {
			v := lon.Float64
			p.Longitude = &v
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func validatePlace(p models.Place) error {
	if strings.TrimSpace(p.URL) == "" {
		return errors.New("place url is required")
	}
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("place name is required")
	}
	return nil
}
