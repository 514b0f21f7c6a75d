package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"camper-agent-service/internal/models"
)

type geoEntry struct {
	coords models.Coordinates
	found  bool
	at     time.Time
}

const geocodeCacheMax = 1024

// Geocoder resolves free-text locations through a Nominatim-compatible search
// API. Results, including misses, are cached per normalised query; expired
// entries are dropped on write and the cache never exceeds maxEntries.
// Requests are paced by a limiter; the public Nominatim allows one per second.
type Geocoder struct {
	BaseURL   string
	UserAgent string
	HTTP      *http.Client

	limiter    *rate.Limiter
	mu         sync.RWMutex
	cache      map[string]geoEntry
	cacheTTL   time.Duration
	maxEntries int
}

func NewGeocoder(baseURL, userAgent string, httpClient *http.Client, ratePerSec float64, ttl time.Duration) *Geocoder {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if ratePerSec <= 0 {
		ratePerSec = 1
	}
	return &Geocoder{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		UserAgent:  strings.TrimSpace(userAgent),
		HTTP:       httpClient,
		limiter:    rate.NewLimiter(rate.Limit(ratePerSec), 1),
		cache:      map[string]geoEntry{},
		cacheTTL:   ttl,
		maxEntries: geocodeCacheMax,
	}
}

type nominatimResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Geocode returns the coordinates of location. found is false when the
// service knows no such place.
func (g *Geocoder) Geocode(ctx context.Context, location string) (models.Coordinates, bool, error) {
	key := normalizeLooseText(location)
	if key == "" {
		return models.Coordinates{}, false, nil
	}

	g.mu.RLock()
	e, ok := g.cache[key]
	g.mu.RUnlock()
	if ok && time.Since(e.at) < g.cacheTTL {
		return e.coords, e.found, nil
	}

	if err := g.limiter.Wait(ctx); err != nil {
		return models.Coordinates{}, false, err
	}

	q := url.Values{}
	q.Set("q", strings.TrimSpace(location))
	q.Set("format", "json")
	q.Set("limit", "1")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.BaseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return models.Coordinates{}, false, err
	}
	req.Header.Set("Accept", "application/json")
	if g.UserAgent != "" {
		req.Header.Set("User-Agent", g.UserAgent)
	}

	hc := g.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return models.Coordinates{}, false, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return models.Coordinates{}, false, fmt.Errorf("geocode failed: status=%d", resp.StatusCode)
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return models.Coordinates{}, false, fmt.Errorf("geocode invalid json: %w", err)
	}

	entry := geoEntry{at: time.Now()}
	if len(results) > 0 {
		lat, errLat := strconv.ParseFloat(strings.TrimSpace(results[0].Lat), 64)
		lon, errLon := strconv.ParseFloat(strings.TrimSpace(results[0].Lon), 64)
		if errLat != nil || errLon != nil {
			return models.Coordinates{}, false, fmt.Errorf("geocode invalid coordinates %q,%q", results[0].Lat, results[0].Lon)
		}
		entry.coords = models.Coordinates{Lat: lat, Lon: lon}
		entry.found = true
	}

	g.remember(key, entry)
	return entry.coords, entry.found, nil
}

func (g *Geocoder) remember(key string, e geoEntry) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for k, old := range g.cache {
		if e.at.Sub(old.at) >= g.cacheTTL {
			delete(g.cache, k)
		}
	}
	if _, ok := g.cache[key]; !ok && g.maxEntries > 0 {
		for k := range g.cache {
			if len(g.cache) < g.maxEntries {
				break
			}
			delete(g.cache, k)
		}
	}
	g.cache[key] = e
}

func normalizeLooseText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
