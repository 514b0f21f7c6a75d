package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"camper-agent-service/internal/models"
)

// Park4NightClient fetches the places around a point from the Park4Night
// guest API.
type Park4NightClient struct {
	BaseURL      string
	PlaceURLBase string
	UserAgent    string
	HTTP         *http.Client
}

// flexString decodes a JSON string or number.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(strings.TrimSpace(s))
		return nil
	}
	*f = flexString(string(b))
	return nil
}

func (f flexString) float() *float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(string(f)), 64)
	if err != nil {
		return nil
	}
	return &v
}

type p4nPlace struct {
	ID            flexString `json:"id"`
	Titre         string     `json:"titre"`
	Name          string     `json:"name"`
	DescriptionEN string     `json:"description_en"`
	DescriptionFR string     `json:"description_fr"`
	Description   string     `json:"description"`
	Latitude      flexString `json:"latitude"`
	Longitude     flexString `json:"longitude"`
	Adresse       string     `json:"adresse"`
	Address       string     `json:"address"`
}

type p4nEnvelope struct {
	Lieux  []p4nPlace `json:"lieux"`
	Places []p4nPlace `json:"places"`
}

// decodeP4NPlaces accepts a bare array or an object carrying the list under
// "lieux" or "places".
func decodeP4NPlaces(body []byte) ([]p4nPlace, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, nil
	}
	switch body[0] {
	case '[':
		var out []p4nPlace
		if err := json.Unmarshal(body, &out); err != nil {
			return nil, err
		}
		return out, nil
	case '{':
		var env p4nEnvelope
		if err := json.Unmarshal(body, &env); err != nil {
			return nil, err
		}
		if len(env.Lieux) > 0 {
			return env.Lieux, nil
		}
		return env.Places, nil
	}
	return nil, fmt.Errorf("park4night: unexpected response %q", clipString(string(body), 64))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

func (c *Park4NightClient) toPlace(p p4nPlace) models.Place {
	out := models.Place{
		Name:        firstNonEmpty(p.Titre, p.Name, "Unknown place"),
		Description: firstNonEmpty(p.DescriptionEN, p.DescriptionFR, p.Description),
		Latitude:    p.Latitude.float(),
		Longitude:   p.Longitude.float(),
		Address:     firstNonEmpty(p.Adresse, p.Address),
	}
	if id := strings.TrimSpace(string(p.ID)); id != "" {
		out.URL = c.PlaceURLBase + url.PathEscape(id)
	}
	return out
}

// Nearby returns at most limit places around at.
func (c *Park4NightClient) Nearby(ctx context.Context, at models.Coordinates, limit int) ([]models.Place, error) {
	base := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("park4night base url is empty")
	}
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(at.Lat, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(at.Lon, 'f', -1, 64))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/lieuxGetFilter.php?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if ua := strings.TrimSpace(c.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	}

	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("park4night request failed: status=%d body=%s", resp.StatusCode, clipString(strings.TrimSpace(string(b)), 200))
	}

	raw, err := decodeP4NPlaces(b)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(raw) > limit {
		raw = raw[:limit]
	}
	out := make([]models.Place, 0, len(raw))
	for _, p := range raw {
		out = append(out, c.toPlace(p))
	}
	return out, nil
}

// clipString keeps at most max runes of s.
func clipString(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if len(s) <= max || utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
