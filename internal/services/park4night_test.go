package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"camper-agent-service/internal/models"
)

func newP4NServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/lieuxGetFilter.php", r.URL.Path)
		assert.Equal(t, "42.1", r.URL.Query().Get("latitude"))
		assert.Equal(t, "1.84", r.URL.Query().Get("longitude"))
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestPark4Night_BareArray(t *testing.T) {
	srv := newP4NServer(t, `[
		{"id": 1234, "titre": "Area Berga", "description_en": "quiet", "description_fr": "calme", "latitude": "42.10", "longitude": 1.84, "adresse": "Carrer 1"},
		{"id": "55", "name": "Fallback name", "description": "plain", "latitude": "", "longitude": null},
		{"titre": ""}
	]`)
	c := &Park4NightClient{BaseURL: srv.URL, PlaceURLBase: "https://park4night.com/en/place/", HTTP: srv.Client()}

	places, err := c.Nearby(context.Background(), models.Coordinates{Lat: 42.1, Lon: 1.84}, 10)
	require.NoError(t, err)
	require.Len(t, places, 3)

	assert.Equal(t, "Area Berga", places[0].Name)
	assert.Equal(t, "quiet", places[0].Description)
	assert.Equal(t, "Carrer 1", places[0].Address)
	assert.Equal(t, "https://park4night.com/en/place/1234", places[0].URL)
	require.NotNil(t, places[0].Latitude)
	assert.InDelta(t, 42.10, *places[0].Latitude, 1e-9)
	require.NotNil(t, places[0].Longitude)

	assert.Equal(t, "Fallback name", places[1].Name)
	assert.Equal(t, "plain", places[1].Description)
	assert.Equal(t, "https://park4night.com/en/place/55", places[1].URL)
	assert.Nil(t, places[1].Latitude)
	assert.Nil(t, places[1].Longitude)

	assert.Equal(t, "Unknown place", places[2].Name)
	assert.Empty(t, places[2].URL)
}

func TestPark4Night_EnvelopeAndLimit(t *testing.T) {
	for _, body := range []string{
		`{"lieux":[{"id":1,"titre":"A"},{"id":2,"titre":"B"},{"id":3,"titre":"C"}]}`,
		`{"places":[{"id":1,"titre":"A"},{"id":2,"titre":"B"},{"id":3,"titre":"C"}]}`,
	} {
		srv := newP4NServer(t, body)
		c := &Park4NightClient{BaseURL: srv.URL, PlaceURLBase: "p/", HTTP: srv.Client()}

		places, err := c.Nearby(context.Background(), models.Coordinates{Lat: 42.1, Lon: 1.84}, 2)
		require.NoError(t, err)
		require.Len(t, places, 2)
		assert.Equal(t, "A", places[0].Name)
		assert.Equal(t, "p/2", places[1].URL)
	}
}

func TestPark4Night_EmptyAndBadResponses(t *testing.T) {
	srv := newP4NServer(t, `{}`)
	c := &Park4NightClient{BaseURL: srv.URL, HTTP: srv.Client()}
	places, err := c.Nearby(context.Background(), models.Coordinates{Lat: 42.1, Lon: 1.84}, 10)
	require.NoError(t, err)
	assert.Empty(t, places)

	srv = newP4NServer(t, `"maintenance"`)
	c = &Park4NightClient{BaseURL: srv.URL, HTTP: srv.Client()}
	_, err = c.Nearby(context.Background(), models.Coordinates{Lat: 42.1, Lon: 1.84}, 10)
	assert.Error(t, err)
}

func TestPark4Night_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := &Park4NightClient{BaseURL: srv.URL, HTTP: srv.Client()}
	_, err := c.Nearby(context.Background(), models.Coordinates{}, 10)
	assert.ErrorContains(t, err, "status=502")
}

func TestClipString_KeepsRunesWhole(t *testing.T) {
	s := strings.Repeat("ò", 1001)

	got := clipString(s, 1000)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, 1000, utf8.RuneCountInString(got))
	assert.Equal(t, "ab", clipString("abc", 2))
	assert.Equal(t, "abc", clipString("abc", 5))
	assert.Empty(t, clipString("abc", 0))
}
