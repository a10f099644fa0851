package httpserver_test

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	server "hostel_guide/internal/adapters/http_server"
	"hostel_guide/internal/app"
	"hostel_guide/internal/domain"
	"hostel_guide/internal/storage/files"
)

func testContent() fstest.MapFS {
	return fstest.MapFS{
		"settings.json": {Data: []byte(`{"hostelName":"Green Tiger","contactWhatsApp":"+66 81 234 5678","timezone":"UTC"}`)},
		"spots/restaurants.json": {Data: []byte(`{"spots":[
			{"id":"khao-soi","name":"Khao Soi","description":"","coordinates":{"lat":18.8047,"lng":98.9789}},
			{"id":"cafe","name":"Cafe","description":"","location":{"lat":18.7889,"lng":98.9860}}
		]}`)},
		"spots/laundry.json":    {Data: []byte(`{"spots":[{"id":"wash","name":"Wash","description":""}]}`)},
		"spots/transport.json":  {Data: []byte(`{"spots":[]}`)},
		"spots/bars.json":       {Data: []byte(`{"spots":[{"id":"cafe","name":"Bar Cafe","description":""}]}`)},
		"spots/activities.json": {Data: []byte(`{"spots":[]}`)},
		"events.json": {Data: []byte(`{"events":[
			{"id":"later","title":"Later","date":"2026-10-20","cta":{"type":"whatsapp","label":"Join","url":"","message":"hi"}},
			{"id":"today","title":"Today","date":"2026-10-16"},
			{"id":"bad","title":"Bad","date":"soon"}
		]}`)},
	}
}

func newTestServer(t *testing.T, fsys fstest.MapFS) *httptest.Server {
	t.Helper()
	now := time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC)
	store := app.NewContentStore(files.New(fsys), app.WithClock(func() time.Time { return now }))
	ann := app.NewAnnotator(app.NewLocationProvider(nil, app.LocationConfig{Timeout: time.Second}))

	srv := server.New()
	srv.MountHandlers(&server.Handlers{Content: store, Annotator: ann, UpcomingDays: 7})
	ts := httptest.NewServer(srv.Mux())
	t.Cleanup(ts.Close)
	return ts
}

func get(t *testing.T, url string, hdr map[string]string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = res.Body.Close() })
	return res
}

func TestSpots(t *testing.T) {
	ts := newTestServer(t, testContent())

	res := get(t, ts.URL+"/v1/spots/restaurants", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	var spots []domain.Spot
	require.NoError(t, json.NewDecoder(res.Body).Decode(&spots))
	assert.Len(t, spots, 2)

	etag := res.Header.Get("ETag")
	require.NotEmpty(t, etag)
	res = get(t, ts.URL+"/v1/spots/restaurants", map[string]string{"If-None-Match": etag})
	assert.Equal(t, http.StatusNotModified, res.StatusCode)

	res = get(t, ts.URL+"/v1/spots/museums", nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	res = get(t, ts.URL+"/v1/spots/restaurants/nope", nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	res = get(t, ts.URL+"/v1/find/cafe", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	var m domain.SpotMatch
	require.NoError(t, json.NewDecoder(res.Body).Decode(&m))
	assert.Equal(t, domain.CategoryRestaurants, m.Category)
	assert.Equal(t, "Cafe", m.Spot.Name)

	res = get(t, ts.URL+"/v1/spots", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	var all map[domain.Category][]domain.Spot
	require.NoError(t, json.NewDecoder(res.Body).Decode(&all))
	assert.Len(t, all, 5)
}

func TestSpots_MissingCategoryFileIs503(t *testing.T) {
	fsys := testContent()
	delete(fsys, "spots/transport.json")
	ts := newTestServer(t, fsys)

	res := get(t, ts.URL+"/v1/spots", nil)
	assert.Equal(t, http.StatusServiceUnavailable, res.StatusCode)
	assert.Equal(t, "application/problem+json", res.Header.Get("Content-Type"))

	res = get(t, ts.URL+"/v1/spots/restaurants", nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestUpcomingEvents(t *testing.T) {
	ts := newTestServer(t, testContent())

	res := get(t, ts.URL+"/v1/events/upcoming", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	var body struct {
		Events []struct {
			ID      string `json:"id"`
			CTAHref string `json:"ctaHref"`
		} `json:"events"`
		Warnings []string `json:"warnings"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	require.Len(t, body.Events, 2)
	assert.Equal(t, "today", body.Events[0].ID)
	assert.Equal(t, "later", body.Events[1].ID)
	assert.Equal(t, "https://wa.me/66812345678?text=hi", body.Events[1].CTAHref)
	require.Len(t, body.Warnings, 1)
	assert.Contains(t, body.Warnings[0], `"bad"`)

	res = get(t, ts.URL+"/v1/events/upcoming?days=1", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Len(t, body.Events, 1)

	res = get(t, ts.URL+"/v1/events/upcoming?days=-3", nil)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestCategories(t *testing.T) {
	ts := newTestServer(t, testContent())

	res := get(t, ts.URL+"/v1/categories", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	var metas []domain.CategoryMeta
	require.NoError(t, json.NewDecoder(res.Body).Decode(&metas))
	assert.Len(t, metas, 5)

	res = get(t, ts.URL+"/v1/categories/bars", nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestDistances(t *testing.T) {
	ts := newTestServer(t, testContent())

	res := get(t, ts.URL+"/v1/distances/restaurants?lat=18.7883&lng=98.9853", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	var body struct {
		Located   bool                  `json:"located"`
		Distances []domain.SpotDistance `json:"distances"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.True(t, body.Located)
	require.Len(t, body.Distances, 2)
	assert.Equal(t, "cafe", body.Distances[0].ID)
	assert.Equal(t, "99m", body.Distances[0].Text)
	assert.Equal(t, "1.9km", body.Distances[1].Text)

	res = get(t, ts.URL+"/v1/distances/restaurants", map[string]string{server.HeaderDenied: "1"})
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.False(t, body.Located)
	assert.Empty(t, body.Distances)
}

const cardMarkup = `<article class="spot-card"><span class="distance-badge hidden" data-lat="18.7889" data-lng="98.9860"><span class="distance-value"></span></span><p class="distance-text hidden"><span class="distance-value-text"></span></p></article>`

func postMarkup(t *testing.T, url string, hdr map[string]string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader(cardMarkup))
	require.NoError(t, err)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	b, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res, string(b)
}

func TestAnnotate(t *testing.T) {
	ts := newTestServer(t, testContent())

	res, out := postMarkup(t, ts.URL+"/v1/annotate", map[string]string{
		server.HeaderLat: "18.7883",
		server.HeaderLng: "98.9853",
	})
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "true", res.Header.Get("X-Distance-Located"))
	assert.Contains(t, out, `<span class="distance-value">99m</span>`)
	assert.Contains(t, out, `<p class="distance-text"><span class="distance-value-text">99m walk</span></p>`)

	res, out = postMarkup(t, ts.URL+"/v1/annotate", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "false", res.Header.Get("X-Distance-Located"))
	assert.Contains(t, out, `<span class="distance-badge hidden"`)
	assert.Contains(t, out, `<p class="distance-text hidden">`)
	assert.NotContains(t, out, "walk")
	assert.Equal(t, cardMarkup, out)
	assert.NotContains(t, out, "<body>")
}

func TestGeoSessionCookie(t *testing.T) {
	ts := newTestServer(t, testContent())
	res := get(t, ts.URL+"/healthz", nil)
	var found bool
	for _, c := range res.Cookies() {
		if c.Name == "geo_session" && c.Value != "" && c.HttpOnly {
			found = true
		}
	}
	assert.True(t, found, "expected a geo_session cookie")
}

func TestRateLimit(t *testing.T) {
	store := app.NewContentStore(files.New(testContent()))
	ann := app.NewAnnotator(app.NewLocationProvider(nil, app.LocationConfig{Timeout: time.Second}))
	srv := server.New()
	srv.MountHandlers(&server.Handlers{Content: store, Annotator: ann, UpcomingDays: 7, RateLimitRPS: 1})
	ts := httptest.NewServer(srv.Mux())
	defer ts.Close()

	res := get(t, ts.URL+"/v1/distances/restaurants", nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	res = get(t, ts.URL+"/v1/distances/restaurants", nil)
	assert.Equal(t, http.StatusTooManyRequests, res.StatusCode)
	assert.Equal(t, "1", res.Header.Get("Retry-After"))

	// a client cannot rotate X-Forwarded-For to get a fresh bucket
	limited := 0
	for i := 0; i < 20; i++ {
		res = get(t, ts.URL+"/v1/distances/restaurants", map[string]string{"X-Forwarded-For": fmt.Sprintf("198.51.100.%d", i)})
		if res.StatusCode == http.StatusTooManyRequests {
			limited++
		}
	}
	assert.GreaterOrEqual(t, limited, 18)

	// catalog routes are not limited
	res = get(t, ts.URL+"/v1/spots/restaurants", nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
}
